package sqldb

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS services (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		code TEXT NOT NULL UNIQUE,
		description TEXT,
		average_price DOUBLE PRECISION NOT NULL CHECK (average_price >= 0),
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS clinics (
		id TEXT PRIMARY KEY,
		clinic_name TEXT NOT NULL,
		business_name TEXT NOT NULL,
		street_address TEXT NOT NULL,
		city TEXT NOT NULL,
		state TEXT NOT NULL,
		country TEXT NOT NULL,
		zip_code TEXT NOT NULL,
		latitude DOUBLE PRECISION,
		longitude DOUBLE PRECISION,
		date_created TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS clinic_services (
		id SERIAL PRIMARY KEY,
		clinic_id TEXT NOT NULL REFERENCES clinics (id),
		service_id TEXT NOT NULL REFERENCES services (id),
		price DOUBLE PRECISION NOT NULL CHECK (price >= 0),
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		UNIQUE (clinic_id, service_id)
	)`,
	`CREATE TABLE IF NOT EXISTS system_logs (
		id TEXT PRIMARY KEY,
		message TEXT NOT NULL,
		priority TEXT NOT NULL,
		type TEXT NOT NULL,
		timestamp TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		project TEXT NOT NULL,
		class_name TEXT NOT NULL,
		method TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_clinics_date_created ON clinics (date_created)`,
	`CREATE INDEX IF NOT EXISTS idx_clinic_services_service_id ON clinic_services (service_id)`,
	`CREATE INDEX IF NOT EXISTS idx_system_logs_timestamp ON system_logs (timestamp)`,
}

// The sqlite schema declares timestamps as TIMESTAMP so the driver hands
// them back as time.Time.
var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS services (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		code TEXT NOT NULL UNIQUE,
		description TEXT,
		average_price REAL NOT NULL CHECK (average_price >= 0),
		is_active INTEGER NOT NULL DEFAULT 1,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS clinics (
		id TEXT PRIMARY KEY,
		clinic_name TEXT NOT NULL,
		business_name TEXT NOT NULL,
		street_address TEXT NOT NULL,
		city TEXT NOT NULL,
		state TEXT NOT NULL,
		country TEXT NOT NULL,
		zip_code TEXT NOT NULL,
		latitude REAL,
		longitude REAL,
		date_created TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS clinic_services (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		clinic_id TEXT NOT NULL REFERENCES clinics (id),
		service_id TEXT NOT NULL REFERENCES services (id),
		price REAL NOT NULL CHECK (price >= 0),
		is_active INTEGER NOT NULL DEFAULT 1,
		UNIQUE (clinic_id, service_id)
	)`,
	`CREATE TABLE IF NOT EXISTS system_logs (
		id TEXT PRIMARY KEY,
		message TEXT NOT NULL,
		priority TEXT NOT NULL,
		type TEXT NOT NULL,
		timestamp TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		project TEXT NOT NULL,
		class_name TEXT NOT NULL,
		method TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_clinics_date_created ON clinics (date_created)`,
	`CREATE INDEX IF NOT EXISTS idx_clinic_services_service_id ON clinic_services (service_id)`,
	`CREATE INDEX IF NOT EXISTS idx_system_logs_timestamp ON system_logs (timestamp)`,
}

// Migrate creates any missing table or index. It is safe to run on every
// start.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	var stmts []string
	switch db.DriverName() {
	case DriverPostgres:
		stmts = postgresSchema
	case DriverSQLite:
		stmts = sqliteSchema
	default:
		return fmt.Errorf("no schema for driver %q", db.DriverName())
	}

	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to migrate schema: %w", err)
		}
	}
	return nil
}

package query

import (
	"database/sql"
	"time"
)

// ClinicRow is one row of the clinic listing: a clinic joined with at most
// one of its services. Service columns are NULL for a clinic with none.
type ClinicRow struct {
	ID            string    `db:"id"`
	ClinicName    string    `db:"clinic_name"`
	BusinessName  string    `db:"business_name"`
	StreetAddress string    `db:"street_address"`
	City          string    `db:"city"`
	State         string    `db:"state"`
	Country       string    `db:"country"`
	ZipCode       string    `db:"zip_code"`
	Latitude      *float64  `db:"latitude"`
	Longitude     *float64  `db:"longitude"`
	DateCreated   time.Time `db:"date_created"`

	ServiceID          sql.NullString  `db:"service_id"`
	ServiceName        sql.NullString  `db:"service_name"`
	ServiceCode        sql.NullString  `db:"service_code"`
	ServiceDescription sql.NullString  `db:"service_description"`
	ServicePrice       sql.NullFloat64 `db:"service_price"`
	ServiceIsActive    sql.NullBool    `db:"service_is_active"`
}

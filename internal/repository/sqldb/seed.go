package sqldb

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

type seedService struct {
	id, name, code, description string
	averagePrice                float64
}

type seedClinic struct {
	id, name, business, street, city, state, country, zip string
	latitude, longitude                                   float64
}

type seedOffer struct {
	clinicID, serviceID string
	price               float64
}

var seedServices = []seedService{
	{"SRV001", "General Consultation", "CONSULT", "General medical consultation with certified doctors", 150},
	{"SRV002", "X-Ray Imaging", "XRAY", "Digital X-ray imaging and diagnostic services", 200},
	{"SRV003", "Blood Test", "BLOOD", "Comprehensive blood testing and laboratory analysis", 100},
	{"SRV004", "COVID-19 Test", "COVID", "RT-PCR and rapid antigen testing for COVID-19", 75},
	{"SRV005", "MRI Scan", "MRI", "Magnetic Resonance Imaging for detailed diagnostics", 800},
}

var seedClinics = []seedClinic{
	{"CL202200001", "HealthFirst Medical Center", "HealthFirst LLC", "123 Medical Plaza Drive", "Los Angeles", "California", "United States", "90210", 34.0522, -118.2437},
	{"CL202200002", "Metropolitan Diagnostic Center", "Metro Health Solutions Inc.", "456 Healthcare Boulevard", "New York", "New York", "United States", "10001", 40.7128, -74.0060},
	{"CL202200003", "Community Care Clinic", "Community Health Partners", "789 Wellness Street", "Chicago", "Illinois", "United States", "60601", 41.8781, -87.6298},
}

var seedOffers = []seedOffer{
	{"CL202200001", "SRV001", 150},
	{"CL202200001", "SRV003", 100},
	{"CL202200002", "SRV002", 200},
	{"CL202200002", "SRV005", 800},
	{"CL202200003", "SRV001", 120},
	{"CL202200003", "SRV004", 75},
}

// Seed loads the master catalog and the sample clinics. Rows whose key
// already exists are left untouched, so seeding twice changes nothing.
func Seed(ctx context.Context, db *sqlx.DB, clock *Clock) error {
	base, err := NewBaseRepository(db, nil)
	if err != nil {
		return err
	}
	return base.WithTx(ctx, func(tx *sqlx.Tx) error {
		insertService := tx.Rebind(`
			INSERT INTO services (id, name, code, description, average_price, is_active, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT DO NOTHING`)
		for _, s := range seedServices {
			if _, err := tx.ExecContext(ctx, insertService,
				s.id, s.name, s.code, s.description, s.averagePrice, true, clock.Now(),
			); err != nil {
				return fmt.Errorf("failed to seed service %s: %w", s.id, err)
			}
		}

		insertClinic := tx.Rebind(`
			INSERT INTO clinics (
				id, clinic_name, business_name, street_address, city, state,
				country, zip_code, latitude, longitude, date_created
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT DO NOTHING`)
		for _, c := range seedClinics {
			if _, err := tx.ExecContext(ctx, insertClinic,
				c.id, c.name, c.business, c.street, c.city, c.state,
				c.country, c.zip, c.latitude, c.longitude, clock.Now(),
			); err != nil {
				return fmt.Errorf("failed to seed clinic %s: %w", c.id, err)
			}
		}

		insertOffer := tx.Rebind(`
			INSERT INTO clinic_services (clinic_id, service_id, price, is_active)
			VALUES (?, ?, ?, ?)
			ON CONFLICT DO NOTHING`)
		for _, o := range seedOffers {
			if _, err := tx.ExecContext(ctx, insertOffer, o.clinicID, o.serviceID, o.price, true); err != nil {
				return fmt.Errorf("failed to seed clinic service %s/%s: %w", o.clinicID, o.serviceID, err)
			}
		}
		return nil
	})
}

package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/jwalitptl/clinic-directory/internal/model"
	"github.com/jwalitptl/clinic-directory/internal/query"
	"github.com/jwalitptl/clinic-directory/internal/repository"
)

// errIDConflict means another transaction inserted the chosen clinic id
// between our check and our insert.
var errIDConflict = errors.New("clinic id conflict")

type clinicRepository struct {
	BaseRepository
	ids         repository.IDGenerator
	maxAttempts int
}

func NewClinicRepository(base BaseRepository, ids repository.IDGenerator, maxAttempts int) repository.ClinicRepository {
	if ids == nil {
		ids = repository.YearRandom{}
	}
	if maxAttempts <= 0 {
		maxAttempts = 10
	}
	return &clinicRepository{
		BaseRepository: base,
		ids:            ids,
		maxAttempts:    maxAttempts,
	}
}

func (r *clinicRepository) Create(ctx context.Context, in *model.NewClinic) (clinic *model.Clinic, err error) {
	start := time.Now()
	defer func() { r.observe("clinics.create", start, err) }()

	if len(in.Services) == 0 {
		return nil, repository.ErrNoServices
	}

	for attempt := 0; attempt < r.maxAttempts; attempt++ {
		clinic, err = r.create(ctx, in)
		if !errors.Is(err, errIDConflict) {
			return clinic, err
		}
	}
	return nil, repository.ErrIDExhausted
}

// create runs one attempt: pick a free id, insert the clinic, then insert
// each selected service. Any error rolls back everything.
func (r *clinicRepository) create(ctx context.Context, in *model.NewClinic) (*model.Clinic, error) {
	var clinic *model.Clinic

	err := r.WithTx(ctx, func(tx *sqlx.Tx) error {
		now := r.clock.Now()

		id, err := r.allocateID(ctx, tx, now)
		if err != nil {
			return err
		}

		insertClinic := tx.Rebind(`
			INSERT INTO clinics (
				id, clinic_name, business_name, street_address, city, state,
				country, zip_code, latitude, longitude, date_created
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`)
		if _, err := tx.ExecContext(ctx, insertClinic,
			id,
			in.ClinicName,
			in.BusinessName,
			in.StreetAddress,
			in.City,
			in.State,
			in.Country,
			in.ZipCode,
			in.Latitude,
			in.Longitude,
			now,
		); err != nil {
			if isUniqueViolation(err) {
				return errIDConflict
			}
			return fmt.Errorf("failed to create clinic: %w", err)
		}

		selectService := tx.Rebind(`
			SELECT id, name, code, COALESCE(description, '') AS description,
				average_price, is_active, created_at
			FROM services
			WHERE id = ?
		`)
		insertOffer := tx.Rebind(`
			INSERT INTO clinic_services (clinic_id, service_id, price, is_active)
			VALUES (?, ?, ?, ?)
		`)

		services := make([]*model.ClinicService, 0, len(in.Services))
		for _, sel := range in.Services {
			var svc model.Service
			if err := tx.GetContext(ctx, &svc, selectService, sel.ServiceID); err != nil {
				if errors.Is(err, sql.ErrNoRows) {
					return fmt.Errorf("%w: %s", repository.ErrUnknownService, sel.ServiceID)
				}
				return fmt.Errorf("failed to load service %s: %w", sel.ServiceID, err)
			}
			if !svc.IsActive {
				return fmt.Errorf("%w: %s", repository.ErrInactiveService, sel.ServiceID)
			}

			price := svc.AveragePrice
			if sel.Price != nil {
				price = *sel.Price
			}
			active := true
			if sel.IsActive != nil {
				active = *sel.IsActive
			}

			if _, err := tx.ExecContext(ctx, insertOffer, id, svc.ID, price, active); err != nil {
				return fmt.Errorf("failed to add clinic service %s: %w", svc.ID, err)
			}

			services = append(services, &model.ClinicService{
				ServiceID:   svc.ID,
				ServiceName: svc.Name,
				ServiceCode: svc.Code,
				Description: svc.Description,
				Price:       price,
				IsActive:    active,
			})
		}

		sort.SliceStable(services, func(i, j int) bool {
			return services[i].ServiceName < services[j].ServiceName
		})

		clinic = &model.Clinic{
			ID:            id,
			ClinicName:    in.ClinicName,
			BusinessName:  in.BusinessName,
			StreetAddress: in.StreetAddress,
			City:          in.City,
			State:         in.State,
			Country:       in.Country,
			ZipCode:       in.ZipCode,
			Latitude:      in.Latitude,
			Longitude:     in.Longitude,
			DateCreated:   now,
			Services:      services,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return clinic, nil
}

// allocateID asks the generator for candidates until one is not in use.
func (r *clinicRepository) allocateID(ctx context.Context, tx *sqlx.Tx, now time.Time) (string, error) {
	exists := tx.Rebind(`SELECT COUNT(1) FROM clinics WHERE id = ?`)
	for attempt := 0; attempt < r.maxAttempts; attempt++ {
		candidate := r.ids.Next(now)

		var n int
		if err := tx.GetContext(ctx, &n, exists, candidate); err != nil {
			return "", fmt.Errorf("failed to check clinic id: %w", err)
		}
		if n == 0 {
			return candidate, nil
		}
	}
	return "", repository.ErrIDExhausted
}

func (r *clinicRepository) List(ctx context.Context) (clinics []*model.Clinic, err error) {
	start := time.Now()
	defer func() { r.observe("clinics.list", start, err) }()

	stmt, args, err := r.composer.ListClinics()
	if err != nil {
		return nil, fmt.Errorf("failed to build clinic listing: %w", err)
	}
	return r.selectClinics(ctx, stmt, args)
}

func (r *clinicRepository) Search(ctx context.Context, filters model.SearchFilters) (clinics []*model.Clinic, err error) {
	start := time.Now()
	defer func() { r.observe("clinics.search", start, err) }()

	stmt, args, err := r.composer.BuildSearch(filters)
	if err != nil {
		return nil, fmt.Errorf("failed to build clinic search: %w", err)
	}
	return r.selectClinics(ctx, stmt, args)
}

func (r *clinicRepository) selectClinics(ctx context.Context, stmt string, args []interface{}) ([]*model.Clinic, error) {
	var rows []query.ClinicRow
	if err := r.db.SelectContext(ctx, &rows, stmt, args...); err != nil {
		return nil, fmt.Errorf("failed to list clinics: %w", err)
	}
	return query.Aggregate(rows), nil
}

// isUniqueViolation recognises a primary key or unique constraint failure
// from either driver.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}

	// modernc.org/sqlite reports the extended result code.
	const (
		sqliteConstraintPrimaryKey = 1555
		sqliteConstraintUnique     = 2067
	)
	var coded interface{ Code() int }
	if errors.As(err, &coded) {
		switch coded.Code() {
		case sqliteConstraintPrimaryKey, sqliteConstraintUnique:
			return true
		}
	}
	return false
}

package repository

import (
	"context"
	"errors"

	"github.com/jwalitptl/clinic-directory/internal/model"
)

var (
	// ErrUnknownService is returned when a clinic selects a service id that
	// is not in the catalog.
	ErrUnknownService = errors.New("unknown service")
	// ErrInactiveService is returned when a clinic selects a catalog service
	// whose is_active flag is off.
	ErrInactiveService = errors.New("inactive service")
	// ErrNoServices is returned when a clinic is created without services.
	ErrNoServices = errors.New("at least one service must be provided")
	// ErrIDExhausted means every candidate clinic id was already taken.
	ErrIDExhausted = errors.New("could not allocate a free clinic id")
)

// All repository interfaces in one file
type (
	// ServiceRepository reads the master service catalog
	ServiceRepository interface {
		ListActive(ctx context.Context) ([]*model.Service, error)
	}

	// ClinicRepository owns clinics and their clinic_services rows.
	// Create inserts the clinic and every selected service in one
	// transaction; on any error nothing is written.
	ClinicRepository interface {
		Create(ctx context.Context, clinic *model.NewClinic) (*model.Clinic, error)
		List(ctx context.Context) ([]*model.Clinic, error)
		Search(ctx context.Context, filters model.SearchFilters) ([]*model.Clinic, error)
	}

	LogRepository interface {
		Create(ctx context.Context, entry *model.LogEntry) error
		List(ctx context.Context, filter model.LogFilter) ([]*model.LogEntry, error)
		DeleteAll(ctx context.Context) (int64, error)
	}
)

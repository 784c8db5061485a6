package sqldb

import (
	"context"
	"fmt"
	"time"

	"github.com/jwalitptl/clinic-directory/internal/model"
	"github.com/jwalitptl/clinic-directory/internal/repository"
)

type serviceRepository struct {
	BaseRepository
}

func NewServiceRepository(base BaseRepository) repository.ServiceRepository {
	return &serviceRepository{base}
}

func (r *serviceRepository) ListActive(ctx context.Context) (services []*model.Service, err error) {
	start := time.Now()
	defer func() { r.observe("services.list", start, err) }()

	query := r.db.Rebind(`
		SELECT id, name, code, COALESCE(description, '') AS description,
			average_price, is_active, created_at
		FROM services
		WHERE is_active = ?
		ORDER BY created_at, id
	`)

	services = []*model.Service{}
	if err = r.db.SelectContext(ctx, &services, query, true); err != nil {
		return nil, fmt.Errorf("failed to list services: %w", err)
	}
	return services, nil
}

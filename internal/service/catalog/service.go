package catalog

import (
	"context"
	"fmt"

	"github.com/jwalitptl/clinic-directory/internal/model"
	"github.com/jwalitptl/clinic-directory/internal/repository"
	"github.com/jwalitptl/clinic-directory/internal/service/activity"
	apperrors "github.com/jwalitptl/clinic-directory/pkg/errors"
)

var origin = model.Origin{ClassName: "CatalogService", Method: "ListServices"}

type CatalogServicer interface {
	ListServices(ctx context.Context) ([]*model.Service, error)
}

type Service struct {
	repo     repository.ServiceRepository
	activity activity.Recorder
}

func NewService(repo repository.ServiceRepository, recorder activity.Recorder) *Service {
	return &Service{repo: repo, activity: recorder}
}

// ListServices returns the active master catalog.
func (s *Service) ListServices(ctx context.Context) ([]*model.Service, error) {
	s.activity.Append(ctx, "Fetching all services", model.PriorityLow, model.LogTypeInfo, origin)

	services, err := s.repo.ListActive(ctx)
	if err != nil {
		s.activity.Append(ctx, fmt.Sprintf("Error fetching services: %v", err), model.PriorityHigh, model.LogTypeError, origin)
		return nil, apperrors.NewStore("Failed to fetch services", err)
	}
	return services, nil
}

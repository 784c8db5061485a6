package clinic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jwalitptl/clinic-directory/internal/model"
	"github.com/jwalitptl/clinic-directory/internal/repository"
	"github.com/jwalitptl/clinic-directory/internal/service/activity"
	apperrors "github.com/jwalitptl/clinic-directory/pkg/errors"
	"github.com/jwalitptl/clinic-directory/pkg/validator"
)

type ClinicServicer interface {
	CreateClinic(ctx context.Context, req *model.NewClinic) (*model.Clinic, error)
	RejectCreate(ctx context.Context, cause error) error
	ListClinics(ctx context.Context) ([]*model.Clinic, error)
	SearchClinics(ctx context.Context, filters model.SearchFilters) ([]*model.Clinic, error)
}

type Service struct {
	repo      repository.ClinicRepository
	activity  activity.Recorder
	validator validator.Validator
}

func NewService(repo repository.ClinicRepository, recorder activity.Recorder, v validator.Validator) *Service {
	if v == nil {
		v = validator.New()
	}
	return &Service{
		repo:      repo,
		activity:  recorder,
		validator: v,
	}
}

func origin(method string) model.Origin {
	return model.Origin{ClassName: "ClinicService", Method: method}
}

// RejectCreate records a create request whose body could not be decoded and
// returns the validation error to send back.
func (s *Service) RejectCreate(ctx context.Context, cause error) error {
	s.activity.Append(ctx, "Clinic creation failed: Invalid request body", model.PriorityMedium, model.LogTypeWarning, origin("CreateClinic"))
	return apperrors.NewValidation("Invalid request body", cause)
}

// CreateClinic validates req and stores the clinic with its services in a
// single transaction. Requests that can never succeed as sent, including
// unknown or inactive service ids, are validation errors.
func (s *Service) CreateClinic(ctx context.Context, req *model.NewClinic) (*model.Clinic, error) {
	at := origin("CreateClinic")
	if req == nil {
		req = &model.NewClinic{}
	}
	req.Normalize()

	s.activity.Append(ctx, fmt.Sprintf("Creating new clinic: %s", req.ClinicName), model.PriorityMedium, model.LogTypeInfo, at)

	if len(req.Services) == 0 {
		s.activity.Append(ctx, "Clinic creation failed: No services provided", model.PriorityMedium, model.LogTypeWarning, at)
		return nil, apperrors.NewValidation("At least one service must be provided", repository.ErrNoServices)
	}

	if err := s.validator.Validate(req); err != nil {
		s.activity.Append(ctx, fmt.Sprintf("Clinic creation failed: %v", err), model.PriorityMedium, model.LogTypeWarning, at)
		return nil, apperrors.NewValidation(err.Error(), err)
	}

	clinic, err := s.repo.Create(ctx, req)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrUnknownService),
			errors.Is(err, repository.ErrInactiveService),
			errors.Is(err, repository.ErrNoServices):
			s.activity.Append(ctx, fmt.Sprintf("Clinic creation failed: %v", err), model.PriorityMedium, model.LogTypeWarning, at)
			return nil, apperrors.NewValidation(err.Error(), err)
		default:
			s.activity.Append(ctx, fmt.Sprintf("Error creating clinic: %v", err), model.PriorityHigh, model.LogTypeError, at)
			return nil, apperrors.NewStore("Failed to create clinic", err)
		}
	}

	s.activity.Append(ctx, fmt.Sprintf("Clinic created successfully: %s", clinic.ID), model.PriorityLow, model.LogTypeInfo, at)
	return clinic, nil
}

func (s *Service) ListClinics(ctx context.Context) ([]*model.Clinic, error) {
	at := origin("ListClinics")
	s.activity.Append(ctx, "Fetching all clinics", model.PriorityLow, model.LogTypeInfo, at)

	clinics, err := s.repo.List(ctx)
	if err != nil {
		s.activity.Append(ctx, fmt.Sprintf("Error fetching clinics: %v", err), model.PriorityHigh, model.LogTypeError, at)
		return nil, apperrors.NewStore("Failed to fetch clinics", err)
	}
	return clinics, nil
}

func (s *Service) SearchClinics(ctx context.Context, filters model.SearchFilters) ([]*model.Clinic, error) {
	at := origin("SearchClinics")
	described, _ := json.Marshal(filters)
	s.activity.Append(ctx, fmt.Sprintf("Searching clinics with filters: %s", described), model.PriorityLow, model.LogTypeInfo, at)

	clinics, err := s.repo.Search(ctx, filters)
	if err != nil {
		s.activity.Append(ctx, fmt.Sprintf("Error searching clinics: %v", err), model.PriorityHigh, model.LogTypeError, at)
		return nil, apperrors.NewStore("Failed to search clinics", err)
	}
	return clinics, nil
}

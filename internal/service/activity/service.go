package activity

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/clinic-directory/internal/model"
	"github.com/jwalitptl/clinic-directory/internal/repository"
	apperrors "github.com/jwalitptl/clinic-directory/pkg/errors"
	"github.com/jwalitptl/clinic-directory/pkg/metrics"
)

// Recorder appends entries to the activity log. Append never fails: an
// entry that cannot be stored is reported through zerolog and dropped.
type Recorder interface {
	Append(ctx context.Context, message string, priority model.Priority, typ model.LogType, origin model.Origin)
}

// LogServicer reads and clears the activity log.
type LogServicer interface {
	List(ctx context.Context, params ListParams) ([]*model.LogEntry, error)
	Clear(ctx context.Context) (int64, error)
}

type Options struct {
	Project       string
	DefaultLimit  int
	MaxLimit      int
	AppendTimeout time.Duration
	Metrics       *metrics.Metrics
	Logger        *zerolog.Logger
}

type Service struct {
	repo         repository.LogRepository
	project      string
	defaultLimit int
	maxLimit     int
	timeout      time.Duration
	metrics      *metrics.Metrics
	logger       zerolog.Logger
}

func NewService(repo repository.LogRepository, opts Options) *Service {
	s := &Service{
		repo:         repo,
		project:      opts.Project,
		defaultLimit: opts.DefaultLimit,
		maxLimit:     opts.MaxLimit,
		timeout:      opts.AppendTimeout,
		metrics:      opts.Metrics,
		logger:       log.Logger,
	}
	if opts.Logger != nil {
		s.logger = *opts.Logger
	}
	if s.project == "" {
		s.project = "CMD-Telehealth"
	}
	if s.defaultLimit <= 0 {
		s.defaultLimit = 100
	}
	if s.maxLimit < s.defaultLimit {
		s.maxLimit = max(1000, s.defaultLimit)
	}
	if s.timeout <= 0 {
		s.timeout = 2 * time.Second
	}
	s.logger = s.logger.With().Str("component", "activity").Logger()
	return s
}

// Append stores one entry. The write outlives a cancelled request context,
// bounded by the append timeout, so an aborted call is still recorded.
func (s *Service) Append(ctx context.Context, message string, priority model.Priority, typ model.LogType, origin model.Origin) {
	entry := &model.LogEntry{
		Message:   message,
		Priority:  priority,
		Type:      typ,
		Project:   s.project,
		ClassName: origin.ClassName,
		Method:    origin.Method,
	}
	s.mirror(entry)

	defer func() {
		if p := recover(); p != nil {
			s.dropped(entry, fmt.Errorf("panic: %v", p))
		}
	}()

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
	defer cancel()

	if err := s.repo.Create(ctx, entry); err != nil {
		s.dropped(entry, err)
	}
}

func (s *Service) dropped(entry *model.LogEntry, err error) {
	s.metrics.ActivityAppendFailed()
	s.logger.Warn().
		Err(err).
		Str("message", entry.Message).
		Msg("failed to persist activity log entry")
}

// mirror writes the entry to the process log at a level matching its type.
func (s *Service) mirror(entry *model.LogEntry) {
	var ev *zerolog.Event
	switch entry.Type {
	case model.LogTypeError:
		ev = s.logger.Error()
	case model.LogTypeWarning:
		ev = s.logger.Warn()
	default:
		ev = s.logger.Info()
	}
	ev.Str("priority", string(entry.Priority)).
		Str("origin", entry.ClassName+"."+entry.Method).
		Msg(entry.Message)
}

// ListParams are the raw query parameters of a log listing.
type ListParams struct {
	Type     string `form:"type"`
	Priority string `form:"priority"`
	Limit    string `form:"limit"`
}

// List returns entries newest first. Unknown type or priority names and
// limits that are not positive numbers are validation errors, recorded as
// warnings; limits above the maximum are capped.
func (s *Service) List(ctx context.Context, params ListParams) ([]*model.LogEntry, error) {
	filter, err := s.filter(params)
	if err != nil {
		reason := err.Error()
		if appErr, ok := apperrors.As(err); ok {
			reason = appErr.Message
		}
		s.Append(ctx, "Invalid log query: "+reason, model.PriorityMedium, model.LogTypeWarning, origin("List"))
		return nil, err
	}

	entries, err := s.repo.List(ctx, filter)
	if err != nil {
		s.Append(ctx, fmt.Sprintf("Error fetching logs: %v", err), model.PriorityHigh, model.LogTypeError, origin("List"))
		return nil, apperrors.NewStore("Failed to fetch logs", err)
	}
	return entries, nil
}

func (s *Service) filter(params ListParams) (model.LogFilter, error) {
	filter := model.LogFilter{Limit: s.defaultLimit}

	if params.Type != "" {
		t, err := model.ParseLogType(params.Type)
		if err != nil {
			return filter, apperrors.NewValidation(err.Error(), err)
		}
		filter.Type = t
	}
	if params.Priority != "" {
		p, err := model.ParsePriority(params.Priority)
		if err != nil {
			return filter, apperrors.NewValidation(err.Error(), err)
		}
		filter.Priority = p
	}
	if params.Limit != "" {
		limit, err := strconv.Atoi(params.Limit)
		if err != nil {
			return filter, apperrors.NewValidation("limit must be a number", err)
		}
		switch {
		case limit <= 0:
			return filter, apperrors.NewValidation("limit must be a positive number", nil)
		case limit > s.maxLimit:
			filter.Limit = s.maxLimit
		default:
			filter.Limit = limit
		}
	}
	return filter, nil
}

// Clear removes every entry. Nothing is appended after a successful clear,
// so the log reads empty until the next operation.
func (s *Service) Clear(ctx context.Context) (int64, error) {
	s.logger.Info().Msg("Clearing all system logs")

	deleted, err := s.repo.DeleteAll(ctx)
	if err != nil {
		s.Append(ctx, fmt.Sprintf("Error clearing logs: %v", err), model.PriorityHigh, model.LogTypeError, origin("Clear"))
		return 0, apperrors.NewStore("Failed to clear logs", err)
	}

	s.logger.Info().Int64("deleted", deleted).Msg("System logs cleared successfully")
	return deleted, nil
}

func origin(method string) model.Origin {
	return model.Origin{ClassName: "ActivityService", Method: method}
}

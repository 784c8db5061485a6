package sqldb

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-directory/internal/model"
	"github.com/jwalitptl/clinic-directory/internal/repository"
)

type logRepository struct {
	BaseRepository
}

func NewLogRepository(base BaseRepository) repository.LogRepository {
	return &logRepository{base}
}

// Create assigns the id and timestamp when they are unset.
func (r *logRepository) Create(ctx context.Context, entry *model.LogEntry) (err error) {
	start := time.Now()
	defer func() { r.observe("logs.create", start, err) }()

	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = r.clock.Now()
	}

	query := r.db.Rebind(`
		INSERT INTO system_logs (
			id, message, priority, type, timestamp, project, class_name, method
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if _, err = r.db.ExecContext(ctx, query,
		entry.ID,
		entry.Message,
		string(entry.Priority),
		string(entry.Type),
		entry.Timestamp,
		entry.Project,
		entry.ClassName,
		entry.Method,
	); err != nil {
		return fmt.Errorf("failed to create log entry: %w", err)
	}
	return nil
}

func (r *logRepository) List(ctx context.Context, filter model.LogFilter) (entries []*model.LogEntry, err error) {
	start := time.Now()
	defer func() { r.observe("logs.list", start, err) }()

	var conditions []string
	var args []interface{}

	if filter.Type != "" {
		conditions = append(conditions, "type = ?")
		args = append(args, string(filter.Type))
	}
	if filter.Priority != "" {
		conditions = append(conditions, "priority = ?")
		args = append(args, string(filter.Priority))
	}

	query := `
		SELECT id, message, priority, type, timestamp, project, class_name, method
		FROM system_logs`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY timestamp DESC, id DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	entries = []*model.LogEntry{}
	if err = r.db.SelectContext(ctx, &entries, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to list log entries: %w", err)
	}
	return entries, nil
}

func (r *logRepository) DeleteAll(ctx context.Context) (deleted int64, err error) {
	start := time.Now()
	defer func() { r.observe("logs.delete_all", start, err) }()

	result, err := r.db.ExecContext(ctx, `DELETE FROM system_logs`)
	if err != nil {
		return 0, fmt.Errorf("failed to clear log entries: %w", err)
	}
	return result.RowsAffected()
}

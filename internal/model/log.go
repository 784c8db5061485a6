package model

import (
	"fmt"
	"time"
)

type Priority string

const (
	PriorityCritical Priority = "Critical"
	PriorityHigh     Priority = "High"
	PriorityMedium   Priority = "Medium"
	PriorityLow      Priority = "Low"
)

type LogType string

const (
	LogTypeInfo    LogType = "Info"
	LogTypeWarning LogType = "Warning"
	LogTypeError   LogType = "Error"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityCritical, PriorityHigh, PriorityMedium, PriorityLow:
		return true
	}
	return false
}

func (t LogType) Valid() bool {
	switch t {
	case LogTypeInfo, LogTypeWarning, LogTypeError:
		return true
	}
	return false
}

// ParsePriority accepts the exact names only; filters are exact-match.
func ParsePriority(s string) (Priority, error) {
	p := Priority(s)
	if !p.Valid() {
		return "", fmt.Errorf("priority must be one of [Critical High Medium Low], got %q", s)
	}
	return p, nil
}

func ParseLogType(s string) (LogType, error) {
	t := LogType(s)
	if !t.Valid() {
		return "", fmt.Errorf("type must be one of [Info Warning Error], got %q", s)
	}
	return t, nil
}

// Origin names the component and method that produced a log entry.
type Origin struct {
	ClassName string
	Method    string
}

type LogEntry struct {
	ID        string    `db:"id" json:"id"`
	Message   string    `db:"message" json:"message"`
	Priority  Priority  `db:"priority" json:"priority"`
	Type      LogType   `db:"type" json:"type"`
	Timestamp time.Time `db:"timestamp" json:"timestamp"`
	Project   string    `db:"project" json:"project"`
	ClassName string    `db:"class_name" json:"className"`
	Method    string    `db:"method" json:"method"`
}

// LogFilter selects activity log entries. Zero values mean no filter.
type LogFilter struct {
	Type     LogType
	Priority Priority
	Limit    int
}

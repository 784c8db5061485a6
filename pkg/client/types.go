package client

import (
	"github.com/jwalitptl/clinic-directory/internal/handler/health"
	"github.com/jwalitptl/clinic-directory/internal/model"
)

// Wire types shared with the server.
type (
	Service          = model.Service
	Clinic           = model.Clinic
	ClinicService    = model.ClinicService
	NewClinic        = model.NewClinic
	ServiceSelection = model.ServiceSelection
	SearchFilters    = model.SearchFilters
	LogEntry         = model.LogEntry
	HealthStatus     = health.StatusResponse
)

// LogQuery narrows a log listing. Zero values are left out of the request.
type LogQuery struct {
	Type     string
	Priority string
	Limit    int
}

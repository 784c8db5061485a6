package router

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	activityHandler "github.com/jwalitptl/clinic-directory/internal/handler/activity"
	catalogHandler "github.com/jwalitptl/clinic-directory/internal/handler/catalog"
	clinicHandler "github.com/jwalitptl/clinic-directory/internal/handler/clinic"
	"github.com/jwalitptl/clinic-directory/internal/handler/health"
	"github.com/jwalitptl/clinic-directory/internal/middleware"
	"github.com/jwalitptl/clinic-directory/internal/model"
	"github.com/jwalitptl/clinic-directory/internal/repository/sqldb"
	activityService "github.com/jwalitptl/clinic-directory/internal/service/activity"
	catalogService "github.com/jwalitptl/clinic-directory/internal/service/catalog"
	clinicService "github.com/jwalitptl/clinic-directory/internal/service/clinic"
	"github.com/jwalitptl/clinic-directory/pkg/metrics"
)

func newTestRouter(t *testing.T, config RouterConfig) (*gin.Engine, *sqlx.DB) {
	t.Helper()

	db, err := sqldb.OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, sqldb.Setup(context.Background(), db, true))

	m := metrics.New("clinic_directory")
	base, err := sqldb.NewBaseRepository(db, m)
	require.NoError(t, err)

	nop := zerolog.Nop()
	activity := activityService.NewService(sqldb.NewLogRepository(base), activityService.Options{
		Metrics: m,
		Logger:  &nop,
	})
	catalog := catalogService.NewService(sqldb.NewServiceRepository(base), activity)
	clinics := clinicService.NewService(sqldb.NewClinicRepository(base, nil, 0), activity, nil)

	config.Mode = gin.TestMode
	if config.BasePath == "" {
		config.BasePath = "/api"
	}
	if config.CORSConfig.AllowOrigins == nil {
		config.CORSConfig = middleware.DefaultCORSConfig()
	}

	r := NewRouter(config, activity, m,
		health.NewHandler(db),
		catalogHandler.NewHandler(catalog),
		clinicHandler.NewHandler(clinics),
		activityHandler.NewHandler(activity),
	)
	r.Setup()
	return r.Engine(), db
}

func do(t *testing.T, engine *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestHealthEndpoints(t *testing.T) {
	engine, _ := newTestRouter(t, RouterConfig{})

	w := do(t, engine, http.MethodGet, "/api/health", nil)
	require.Equal(t, http.StatusOK, w.Code)
	status := decode[health.StatusResponse](t, w)
	assert.Equal(t, "OK", status.Status)
	assert.Equal(t, "1.0.0", status.Version)
	assert.False(t, status.Timestamp.IsZero())
	assert.NotEmpty(t, w.Header().Get(middleware.HeaderXRequestID))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))

	assert.Equal(t, http.StatusOK, do(t, engine, http.MethodGet, "/api/health/live", nil).Code)
	assert.Equal(t, http.StatusOK, do(t, engine, http.MethodGet, "/api/health/ready", nil).Code)
}

func TestReadinessReportsClosedDatabase(t *testing.T) {
	engine, db := newTestRouter(t, RouterConfig{})
	require.NoError(t, db.Close())

	w := do(t, engine, http.MethodGet, "/api/health/ready", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestListServices(t *testing.T) {
	engine, _ := newTestRouter(t, RouterConfig{})

	w := do(t, engine, http.MethodGet, "/api/services", nil)
	require.Equal(t, http.StatusOK, w.Code)

	services := decode[[]map[string]interface{}](t, w)
	require.Len(t, services, 5)
	assert.Equal(t, "SRV001", services[0]["id"])
	assert.Equal(t, "CONSULT", services[0]["code"])
	assert.Equal(t, 150.0, services[0]["averagePrice"])
	assert.Equal(t, true, services[0]["isActive"])
}

func TestSearchClinicsOverHTTP(t *testing.T) {
	engine, _ := newTestRouter(t, RouterConfig{})

	w := do(t, engine, http.MethodGet, "/api/clinics/search?city=Los%20Angeles", nil)
	require.Equal(t, http.StatusOK, w.Code)

	clinics := decode[[]map[string]interface{}](t, w)
	require.Len(t, clinics, 1)
	la := clinics[0]
	assert.Equal(t, "CL202200001", la["id"])
	assert.Equal(t, "HealthFirst Medical Center", la["clinicName"])
	assert.Equal(t, "90210", la["zipCode"])
	services := la["services"].([]interface{})
	require.Len(t, services, 2)
	first := services[0].(map[string]interface{})
	assert.Equal(t, "SRV003", first["serviceId"])
	assert.Equal(t, "Blood Test", first["serviceName"])
	assert.Equal(t, "BLOOD", first["serviceCode"])
	assert.Equal(t, 100.0, first["price"])
	assert.Equal(t, true, first["isActive"])

	w = do(t, engine, http.MethodGet, "/api/clinics/search?city=Nowhere", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())

	w = do(t, engine, http.MethodGet, "/api/clinics/search?services=SRV004,SRV005", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]model.Clinic](t, w), 2)

	w = do(t, engine, http.MethodGet, "/api/clinics/search?services=SRV004&services=SRV002&searchTerm=metro", nil)
	require.Equal(t, http.StatusOK, w.Code)
	found := decode[[]model.Clinic](t, w)
	require.Len(t, found, 1)
	assert.Equal(t, "CL202200002", found[0].ID)
}

func TestCreateClinicOverHTTP(t *testing.T) {
	engine, _ := newTestRouter(t, RouterConfig{})

	body := map[string]interface{}{
		"clinicName":    "Lakeside Urgent Care",
		"businessName":  "Lakeside Medical Group",
		"streetAddress": "900 Shore Drive",
		"city":          "Seattle",
		"state":         "Washington",
		"zipCode":       "98101",
		"latitude":      47.6062,
		"longitude":     -122.3321,
		"services": []map[string]interface{}{
			{"serviceId": "SRV001", "price": 135, "isActive": true},
			{"serviceId": "SRV004"},
		},
	}

	w := do(t, engine, http.MethodPost, "/api/clinics", body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	created := decode[model.Clinic](t, w)
	assert.Regexp(t, `^CL\d{9}$`, created.ID)
	assert.Equal(t, "United States", created.Country)
	require.Len(t, created.Services, 2)
	assert.Equal(t, "COVID-19 Test", created.Services[0].ServiceName)
	assert.Equal(t, 75.0, created.Services[0].Price)
	assert.Equal(t, 135.0, created.Services[1].Price)

	w = do(t, engine, http.MethodGet, "/api/clinics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	clinics := decode[[]model.Clinic](t, w)
	require.Len(t, clinics, 4)
	assert.Equal(t, created.ID, clinics[0].ID)
	assert.Len(t, clinics[0].Services, 2)
}

func TestCreateClinicRejections(t *testing.T) {
	engine, _ := newTestRouter(t, RouterConfig{})

	valid := func() map[string]interface{} {
		return map[string]interface{}{
			"clinicName":    "Lakeside Urgent Care",
			"businessName":  "Lakeside Medical Group",
			"streetAddress": "900 Shore Drive",
			"city":          "Seattle",
			"state":         "Washington",
			"zipCode":       "98101",
			"services":      []map[string]interface{}{{"serviceId": "SRV001"}},
		}
	}

	tests := []struct {
		name    string
		body    interface{}
		message string
	}{
		{"empty services", func() interface{} { b := valid(); b["services"] = []interface{}{}; return b }(), "At least one service must be provided"},
		{"missing services", func() interface{} { b := valid(); delete(b, "services"); return b }(), "At least one service must be provided"},
		{"missing field", func() interface{} { b := valid(); delete(b, "businessName"); return b }(), "businessName is required"},
		{"bad zip", func() interface{} { b := valid(); b["zipCode"] = "ABCDE"; return b }(), "zipCode must be a valid ZIP code"},
		{"unknown service", func() interface{} {
			b := valid()
			b["services"] = []map[string]interface{}{{"serviceId": "SRV999"}}
			return b
		}(), "unknown service: SRV999"},
		{"malformed json", `{"clinicName": `, "Invalid request body"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, engine, http.MethodPost, "/api/clinics", tt.body)
			require.Equal(t, http.StatusBadRequest, w.Code)
			resp := decode[map[string]string](t, w)
			assert.Contains(t, resp["error"], tt.message)
		})
	}

	w := do(t, engine, http.MethodGet, "/api/clinics", nil)
	assert.Len(t, decode[[]model.Clinic](t, w), 3, "rejected requests must not leave clinics behind")
}

func TestLogsOverHTTP(t *testing.T) {
	engine, _ := newTestRouter(t, RouterConfig{})

	do(t, engine, http.MethodGet, "/api/services", nil)
	do(t, engine, http.MethodPost, "/api/clinics", map[string]interface{}{"clinicName": "x"})

	w := do(t, engine, http.MethodGet, "/api/logs", nil)
	require.Equal(t, http.StatusOK, w.Code)
	entries := decode[[]model.LogEntry](t, w)
	require.NotEmpty(t, entries)
	assert.Equal(t, "CMD-Telehealth", entries[0].Project)

	w = do(t, engine, http.MethodGet, "/api/logs?type=Warning&priority=Medium", nil)
	require.Equal(t, http.StatusOK, w.Code)
	warnings := decode[[]model.LogEntry](t, w)
	require.Len(t, warnings, 1)
	assert.True(t, strings.HasPrefix(warnings[0].Message, "Clinic creation failed"))

	w = do(t, engine, http.MethodGet, "/api/logs?limit=1", nil)
	assert.Len(t, decode[[]model.LogEntry](t, w), 1)

	for _, bad := range []string{"?limit=abc", "?limit=0", "?type=Bogus", "?priority=low"} {
		assert.Equal(t, http.StatusBadRequest, do(t, engine, http.MethodGet, "/api/logs"+bad, nil).Code, bad)
	}

	w = do(t, engine, http.MethodDelete, "/api/logs", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"Logs cleared successfully"}`, w.Body.String())

	for _, query := range []string{"", "?type=Info", "?priority=High&limit=5"} {
		w = do(t, engine, http.MethodGet, "/api/logs"+query, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `[]`, w.Body.String(), query)
	}
}

func TestRejectedRequestsAreRecorded(t *testing.T) {
	engine, _ := newTestRouter(t, RouterConfig{})
	require.Equal(t, http.StatusOK, do(t, engine, http.MethodDelete, "/api/logs", nil).Code)

	w := do(t, engine, http.MethodPost, "/api/clinics", `{"clinicName": 5}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"Invalid request body"}`, w.Body.String())

	for _, bad := range []string{"?type=bogus", "?limit=abc"} {
		require.Equal(t, http.StatusBadRequest, do(t, engine, http.MethodGet, "/api/logs"+bad, nil).Code, bad)
	}

	w = do(t, engine, http.MethodGet, "/api/logs?type=Warning&priority=Medium", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var messages []string
	for _, entry := range decode[[]model.LogEntry](t, w) {
		messages = append(messages, entry.Message)
	}
	assert.ElementsMatch(t, []string{
		"Clinic creation failed: Invalid request body",
		`Invalid log query: type must be one of [Info Warning Error], got "bogus"`,
		"Invalid log query: limit must be a number",
	}, messages)
}

func TestRecoveryRecordsCriticalEntry(t *testing.T) {
	engine, _ := newTestRouter(t, RouterConfig{})
	engine.GET("/api/boom", func(c *gin.Context) { panic("boom") })

	w := do(t, engine, http.MethodGet, "/api/boom", nil)
	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"Internal server error"}`, w.Body.String())

	w = do(t, engine, http.MethodGet, "/api/logs?priority=Critical", nil)
	entries := decode[[]model.LogEntry](t, w)
	require.Len(t, entries, 1)
	assert.Equal(t, "Unhandled error: boom", entries[0].Message)
}

func TestRateLimit(t *testing.T) {
	engine, _ := newTestRouter(t, RouterConfig{RateLimit: 0.001, RateBurst: 1})

	assert.Equal(t, http.StatusOK, do(t, engine, http.MethodGet, "/api/health", nil).Code)
	assert.Equal(t, http.StatusTooManyRequests, do(t, engine, http.MethodGet, "/api/health", nil).Code)
}

func TestBodySizeLimit(t *testing.T) {
	engine, _ := newTestRouter(t, RouterConfig{MaxBodyBytes: 64})

	w := do(t, engine, http.MethodPost, "/api/clinics", `{"clinicName":"`+strings.Repeat("a", 200)+`"}`)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestCORSPreflight(t *testing.T) {
	engine, _ := newTestRouter(t, RouterConfig{})

	req := httptest.NewRequest(http.MethodOptions, "/api/clinics", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), http.MethodDelete)
}

func TestMetricsEndpoint(t *testing.T) {
	engine, _ := newTestRouter(t, RouterConfig{})

	do(t, engine, http.MethodGet, "/api/services", nil)

	w := do(t, engine, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `clinic_directory_http_requests_total{method="GET",path="/api/services",status="200"} 1`)
	assert.Contains(t, w.Body.String(), `clinic_directory_database_operations_total{operation="services.list",status="success"} 1`)
}

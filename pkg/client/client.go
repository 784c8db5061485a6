// Package client is a Go SDK for the clinic directory API. Search results
// are cached per filter set for the life of the client and the cache is
// dropped whenever the client creates a clinic.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/clinic-directory/pkg/client/cache"
)

// APIError is a non-2xx answer from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return e.Message
}

type Client struct {
	baseURL string
	http    *http.Client
	cache   *cache.Cache
	breaker *breaker
	closer  io.Closer
	logger  zerolog.Logger
}

// New talks to baseURL (including the /api prefix). A nil httpClient uses
// a dedicated client with no timeout; a nil c caches in process.
func New(baseURL string, httpClient *http.Client, c *cache.Cache) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Transport: &http.Transport{}}
	}
	if c == nil {
		c = cache.New(nil)
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
		cache:   c,
		logger:  log.With().Str("component", "directory_client").Logger(),
	}
}

// NewFromConfig builds the client and its cache store from cfg.
func NewFromConfig(ctx context.Context, cfg Config) (*Client, error) {
	httpClient := &http.Client{
		Transport: &http.Transport{},
		Timeout:   cfg.Timeout,
	}

	var c *Client
	switch cfg.CacheBackend {
	case "", CacheMemory:
		c = New(cfg.APIURL, httpClient, cache.New(cache.NewMemoryStore()))
	case CacheRedis:
		session := cfg.SessionID
		if session == "" {
			session = uuid.NewString()
		}
		store, err := cache.NewRedisStore(ctx, cfg.RedisURL, session)
		if err != nil {
			return nil, err
		}
		c = New(cfg.APIURL, httpClient, cache.New(store))
		c.closer = store
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.CacheBackend)
	}

	c.breaker = newBreaker(cfg.BreakerThreshold, cfg.BreakerCooldown)
	return c, nil
}

// Close releases idle connections and the cache store.
func (c *Client) Close() error {
	c.http.CloseIdleConnections()
	if c.closer != nil {
		return c.closer.Close()
	}
	return nil
}

func (c *Client) ListServices(ctx context.Context) ([]*Service, error) {
	services := []*Service{}
	if err := c.do(ctx, http.MethodGet, "/services", nil, nil, &services); err != nil {
		return nil, err
	}
	return services, nil
}

func (c *Client) ListClinics(ctx context.Context) ([]*Clinic, error) {
	clinics := []*Clinic{}
	if err := c.do(ctx, http.MethodGet, "/clinics", nil, nil, &clinics); err != nil {
		return nil, err
	}
	return clinics, nil
}

// SearchClinics answers from the cache when the same filters were searched
// before; otherwise it asks the server and caches the answer.
func (c *Client) SearchClinics(ctx context.Context, filters SearchFilters) ([]*Clinic, error) {
	key := cache.Key(filters)
	if clinics, ok := c.cache.Get(ctx, key); ok {
		c.logger.Debug().Str("key", key).Msg("cache hit for search filters")
		return clinics, nil
	}

	query := url.Values{}
	if filters.City != "" {
		query.Set("city", filters.City)
	}
	if filters.State != "" {
		query.Set("state", filters.State)
	}
	if filters.SearchTerm != "" {
		query.Set("searchTerm", filters.SearchTerm)
	}
	if len(filters.ServiceIDs) > 0 {
		query.Set("services", strings.Join(filters.ServiceIDs, ","))
	}

	clinics := []*Clinic{}
	if err := c.do(ctx, http.MethodGet, "/clinics/search", query, nil, &clinics); err != nil {
		return nil, err
	}

	if err := c.cache.Put(ctx, key, clinics); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("search result not cached")
	}
	return clinics, nil
}

// CreateClinic stores a clinic and drops every cached search, since any of
// them may now be missing the new clinic.
func (c *Client) CreateClinic(ctx context.Context, req *NewClinic) (*Clinic, error) {
	var clinic Clinic
	if err := c.do(ctx, http.MethodPost, "/clinics", nil, req, &clinic); err != nil {
		return nil, err
	}

	if err := c.cache.Clear(ctx); err != nil {
		c.logger.Error().Err(err).Msg("cache not cleared after clinic creation")
	}
	return &clinic, nil
}

func (c *Client) ListLogs(ctx context.Context, q LogQuery) ([]*LogEntry, error) {
	query := url.Values{}
	if q.Type != "" {
		query.Set("type", q.Type)
	}
	if q.Priority != "" {
		query.Set("priority", q.Priority)
	}
	if q.Limit != 0 {
		query.Set("limit", strconv.Itoa(q.Limit))
	}

	entries := []*LogEntry{}
	if err := c.do(ctx, http.MethodGet, "/logs", query, nil, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// ClearLogs returns the server's confirmation message.
func (c *Client) ClearLogs(ctx context.Context) (string, error) {
	var resp struct {
		Message string `json:"message"`
	}
	if err := c.do(ctx, http.MethodDelete, "/logs", nil, nil, &resp); err != nil {
		return "", err
	}
	return resp.Message, nil
}

func (c *Client) Health(ctx context.Context) (*HealthStatus, error) {
	var status HealthStatus
	if err := c.do(ctx, http.MethodGet, "/health", nil, nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

func (c *Client) CacheStats(ctx context.Context) (cache.Stats, error) {
	return c.cache.Stats(ctx)
}

func (c *Client) ClearCache(ctx context.Context) error {
	return c.cache.Clear(ctx)
}

// do sends one request through the circuit breaker.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out interface{}) error {
	if err := c.breaker.allow(); err != nil {
		return err
	}
	err := c.send(ctx, method, path, query, body, out)
	c.breaker.record(err)
	return err
}

func (c *Client) send(ctx context.Context, method, path string, query url.Values, body, out interface{}) error {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s %s response: %w", method, path, err)
	}
	return nil
}

// decodeError prefers the server's {"error": "..."} body and falls back to
// the status line.
func decodeError(resp *http.Response) error {
	var body struct {
		Error string `json:"error"`
	}
	_ = json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&body)

	msg := body.Error
	if msg == "" {
		msg = fmt.Sprintf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}
	return &APIError{StatusCode: resp.StatusCode, Message: msg}
}

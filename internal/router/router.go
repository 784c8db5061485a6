package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/jwalitptl/clinic-directory/internal/middleware"
	"github.com/jwalitptl/clinic-directory/internal/service/activity"
	"github.com/jwalitptl/clinic-directory/pkg/metrics"
)

type Handler interface {
	RegisterRoutes(*gin.RouterGroup)
}

type Router struct {
	engine   *gin.Engine
	config   RouterConfig
	handlers []Handler
	metrics  *metrics.Metrics
}

type RouterConfig struct {
	BasePath     string
	Mode         string
	RateLimit    rate.Limit
	RateBurst    int
	MaxBodyBytes int64
	CORSConfig   middleware.CORSConfig

	// RequestTimeout bounds the context handed to services; zero disables it.
	RequestTimeout time.Duration
}

// NewRouter builds the engine and its middleware chain. recorder receives
// panics; m may be nil.
func NewRouter(config RouterConfig, recorder activity.Recorder, m *metrics.Metrics, handlers ...Handler) *Router {
	mode := config.Mode
	if mode == "" {
		mode = gin.ReleaseMode
	}
	gin.SetMode(mode)

	engine := gin.New()

	engine.Use(
		middleware.RequestID(),
		middleware.Logger(),
		middleware.Metrics(m),
		middleware.Recovery(recorder),
		middleware.SecurityHeaders(middleware.DefaultSecurityConfig()),
		middleware.CORS(config.CORSConfig),
	)

	rateLimiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
		Rate:  config.RateLimit,
		Burst: config.RateBurst,
	})
	engine.Use(rateLimiter.RateLimit())

	return &Router{
		engine:   engine,
		config:   config,
		handlers: handlers,
		metrics:  m,
	}
}

// Setup mounts every handler under the base path, plus /metrics at the
// root.
func (r *Router) Setup() {
	r.engine.GET("/metrics", gin.WrapH(r.metrics.Handler()))

	basePath := r.config.BasePath
	if basePath == "" {
		basePath = "/"
	}
	api := r.engine.Group(basePath)
	api.Use(
		middleware.SizeLimit(r.config.MaxBodyBytes),
		middleware.Timeout(r.config.RequestTimeout),
	)

	for _, h := range r.handlers {
		h.RegisterRoutes(api)
	}
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}

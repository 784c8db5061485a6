package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/jwalitptl/clinic-directory/internal/config"
	activityHandler "github.com/jwalitptl/clinic-directory/internal/handler/activity"
	catalogHandler "github.com/jwalitptl/clinic-directory/internal/handler/catalog"
	clinicHandler "github.com/jwalitptl/clinic-directory/internal/handler/clinic"
	"github.com/jwalitptl/clinic-directory/internal/handler/health"
	"github.com/jwalitptl/clinic-directory/internal/middleware"
	"github.com/jwalitptl/clinic-directory/internal/model"
	"github.com/jwalitptl/clinic-directory/internal/repository"
	"github.com/jwalitptl/clinic-directory/internal/repository/sqldb"
	"github.com/jwalitptl/clinic-directory/internal/router"
	activityService "github.com/jwalitptl/clinic-directory/internal/service/activity"
	catalogService "github.com/jwalitptl/clinic-directory/internal/service/catalog"
	clinicService "github.com/jwalitptl/clinic-directory/internal/service/clinic"
	"github.com/jwalitptl/clinic-directory/pkg/logger"
	"github.com/jwalitptl/clinic-directory/pkg/metrics"
	"github.com/jwalitptl/clinic-directory/pkg/validator"
)

func serverOrigin(method string) model.Origin {
	return model.Origin{ClassName: "Server", Method: method}
}

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	logger.Init(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})

	// Initialize database
	db, err := sqldb.NewDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	if err := sqldb.Setup(context.Background(), db, cfg.Database.Seed); err != nil {
		log.Fatal().Err(err).Msg("failed to prepare database")
	}

	m := metrics.New("clinic_directory")

	// Initialize repositories
	base, err := sqldb.NewBaseRepository(db, m)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize repositories")
	}
	ids, err := repository.NewIDGenerator(cfg.ClinicID.Scheme)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid clinic id configuration")
	}
	serviceRepo := sqldb.NewServiceRepository(base)
	clinicRepo := sqldb.NewClinicRepository(base, ids, cfg.ClinicID.MaxAttempts)
	logRepo := sqldb.NewLogRepository(base)

	// Initialize services
	activitySvc := activityService.NewService(logRepo, activityService.Options{
		Project:       cfg.Activity.Project,
		DefaultLimit:  cfg.Activity.DefaultLimit,
		MaxLimit:      cfg.Activity.MaxLimit,
		AppendTimeout: cfg.Activity.AppendTimeout,
		Metrics:       m,
	})
	catalogSvc := catalogService.NewService(serviceRepo, activitySvc)
	clinicSvc := clinicService.NewService(clinicRepo, activitySvc, validator.New())

	// Setup router
	corsConfig := middleware.DefaultCORSConfig()
	if len(cfg.Server.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.Server.AllowedOrigins
	}

	r := router.NewRouter(router.RouterConfig{
		BasePath:       cfg.Server.BasePath,
		Mode:           cfg.Server.Mode,
		RateLimit:      rate.Limit(cfg.Server.RateLimit),
		RateBurst:      cfg.Server.RateBurst,
		MaxBodyBytes:   cfg.Server.MaxBodyBytes,
		RequestTimeout: cfg.Server.RequestTimeout,
		CORSConfig:     corsConfig,
	}, activitySvc, m,
		health.NewHandler(db),
		catalogHandler.NewHandler(catalogSvc),
		clinicHandler.NewHandler(clinicSvc),
		activityHandler.NewHandler(activitySvc),
	)
	r.Setup()

	// Create server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r.Engine(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()
	activitySvc.Append(context.Background(), fmt.Sprintf("Clinic directory API started on port %d", cfg.Server.Port),
		model.PriorityLow, model.LogTypeInfo, serverOrigin("startup"))

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	activitySvc.Append(context.Background(), "Server shutting down gracefully",
		model.PriorityMedium, model.LogTypeInfo, serverOrigin("shutdown"))

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exited properly")
}

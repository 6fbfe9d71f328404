package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	"github.com/uptrace/opentelemetry-go-extra/otelsqlx"

	"github.com/sidelinehq/clubpromo/external/playhq"
	"github.com/sidelinehq/clubpromo/external/render"
	"github.com/sidelinehq/clubpromo/internal/config"
	"github.com/sidelinehq/clubpromo/internal/infrastructure/repository/postgres"
	"github.com/sidelinehq/clubpromo/internal/interfaces/httpapi"
	"github.com/sidelinehq/clubpromo/internal/platform/logging"
	"github.com/sidelinehq/clubpromo/internal/platform/resilience"
	"github.com/sidelinehq/clubpromo/internal/usecase"
)

// NewHTTPServer wires repositories, the upstream client, services, and the
// router into a ready-to-run server. The returned cleanup releases the
// database, the refresh pool, and the renderer.
func NewHTTPServer(cfg config.Config, logger *logging.Logger) (*http.Server, func(), error) {
	if logger == nil {
		logger = logging.Default()
	}

	db, err := openDB(cfg)
	if err != nil {
		return nil, nil, err
	}

	if cfg.AppEnv == config.EnvDev {
		seedCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := postgres.BootstrapSeed(seedCtx, db); err != nil {
			logger.Warn("bootstrap seed failed", "error", err)
		}
		cancel()
	}

	orgRepo := postgres.NewOrganizationRepository(db)
	imageLogRepo := postgres.NewImageLogRepository(db)

	upstream := playhq.NewClient(playhq.ClientConfig{
		BaseURL:           cfg.PlayHQBaseURL,
		DefaultTenant:     cfg.PlayHQDefaultTenant,
		Timeout:           cfg.PlayHQTimeout,
		RequestsPerSecond: cfg.PlayHQRequestsPerSecond,
		Logger:            logger,
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          cfg.PlayHQCircuitEnabled,
			FailureThreshold: cfg.PlayHQCircuitFailureCount,
			OpenTimeout:      cfg.PlayHQCircuitOpenTimeout,
			HalfOpenMaxReq:   cfg.PlayHQCircuitHalfOpenMaxReq,
		},
	})

	orgDataSvc, err := usecase.NewOrgDataService(orgRepo, upstream, logger, usecase.OrgDataConfig{
		CacheMaxAge:    time.Duration(cfg.CacheMaxAgeHours) * time.Hour,
		WindowDays:     cfg.DateWindowDays,
		BatchSize:      cfg.FixtureBatchSize,
		RefreshWorkers: cfg.RefreshWorkers,
	})
	if err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("build org data service: %w", err)
	}

	ladderSvc := usecase.NewLadderService(orgRepo, upstream, cfg.LadderCacheTTL, logger)

	var renderer usecase.Renderer
	var chrome *render.ChromeRenderer
	if cfg.RendererEnabled {
		chrome, err = render.NewChromeRenderer(render.Config{
			Timeout: cfg.RendererTimeout,
			Logger:  logger,
		})
		if err != nil {
			orgDataSvc.Close()
			_ = db.Close()
			return nil, nil, fmt.Errorf("build renderer: %w", err)
		}
		renderer = chrome
	} else {
		renderer = disabledRenderer{}
	}

	imageSvc := usecase.NewImageService(orgRepo, orgDataSvc, ladderSvc, upstream, renderer, imageLogRepo, logger)

	handler := httpapi.NewHandler(orgDataSvc, ladderSvc, imageSvc, db, logger)
	router := httpapi.NewRouter(handler, logger, cfg.CORSAllowedOrigins)

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	if server.Addr == "" {
		orgDataSvc.Close()
		_ = db.Close()
		return nil, nil, fmt.Errorf("http server addr cannot be empty")
	}

	cleanup := func() {
		orgDataSvc.Close()
		if chrome != nil {
			_ = chrome.Close()
		}
		_ = db.Close()
	}
	return server, cleanup, nil
}

// disabledRenderer stands in when RENDERER_ENABLED=false, keeping the data
// endpoints usable on hosts without a browser installed.
type disabledRenderer struct{}

func (disabledRenderer) Render(context.Context, string, int, int) ([]byte, error) {
	return nil, fmt.Errorf("%w: image rendering is disabled", usecase.ErrDependencyUnavailable)
}

func openDB(cfg config.Config) (*sqlx.DB, error) {
	dbURL := normalizeDBURL(cfg.DBURL, cfg.DBDisablePreparedBinary)

	db, err := otelsqlx.Connect("postgres", dbURL,
		otelsql.WithDBSystem("postgresql"),
		otelsql.WithDBName(dbNameFromURL(dbURL)),
		otelsql.WithQueryFormatter(formatDBQueryForTrace),
	)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	return db, nil
}

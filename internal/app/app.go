package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"pensim/internal/config"
	apierrors "pensim/internal/errors"
	"pensim/internal/events"
	"pensim/internal/infrastructure"
	customMiddleware "pensim/internal/middleware"
	"pensim/internal/services"
	"pensim/internal/simulation"
	"pensim/internal/store"
	handlers "pensim/internal/transport/http"
)

const (
	// VERSION is the service version reported by /api/version.
	VERSION = "v1.0.0"
	AppName = "pensim"
)

// Store is the backing data source the simulator reads from.
type Store interface {
	simulation.ParticipantLookup
	simulation.HistorySource
	simulation.RateSource
	simulation.RulesSource
	Ping(ctx context.Context) error
	Close() error
}

// Application is the composed service: configuration, store, simulator,
// services, and the HTTP server around them.
type Application struct {
	Config            *config.Config
	Router            *chi.Mux
	Server            *http.Server
	Store             Store
	Simulator         *simulation.Simulator
	EventHub          *events.Hub
	SimulationService *services.SimulationService
	HealthService     *services.HealthService
	Metrics           *infrastructure.SimulationMetrics
	Logger            *slog.Logger
	OTelProviders     *infrastructure.OTelProviders
}

// NewApplication loads configuration and wires every component.
func NewApplication() (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	logger.Info("application starting",
		slog.String("name", AppName),
		slog.String("version", VERSION),
		slog.String("driver", cfg.Database.Driver))

	otelProviders, err := infrastructure.InitializeOTel(cfg.Tracing.Enabled, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}

	app := &Application{
		Config:        cfg,
		Logger:        logger,
		OTelProviders: otelProviders,
		Metrics:       infrastructure.NewSimulationMetrics(),
	}

	if err := app.initializeServices(); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	app.setupRouter()
	app.createServer()

	return app, nil
}

// initializeServices wires the store, simulator, event hub, and services.
func (a *Application) initializeServices() error {
	rules := planRulesFromConfig(a.Config.Simulation.Rules)
	if err := rules.Validate(); err != nil {
		return fmt.Errorf("configured plan rules invalid: %w", err)
	}

	st, err := a.openStore(rules)
	if err != nil {
		return err
	}
	a.Store = st

	a.Simulator = simulation.NewSimulator(st, st, st, st, simulation.Config{
		Deadline:     a.Config.Simulation.Deadline,
		BatchWorkers: a.Config.Simulation.BatchWorkers,
		FallbackRate: a.Config.Simulation.FallbackRate,
	}, a.Logger)

	var sink simulation.EventSink = events.NoopSink{}
	var counter services.ClientCounter
	if a.Config.Events.Enabled {
		hub := events.NewHub(a.Logger)
		hub.Start()
		a.EventHub = hub
		sink = events.NewHubSink(hub)
		counter = hub
	}

	a.SimulationService = services.NewSimulationService(a.Simulator, sink, a.Metrics, a.Logger)
	a.HealthService = services.NewHealthService(VERSION, st, counter, a.Logger)

	return nil
}

// openStore selects the backing store per configuration. The memory
// driver starts seeded with demonstration data so the service answers
// requests out of the box.
func (a *Application) openStore(rules simulation.PlanRules) (Store, error) {
	switch a.Config.Database.Driver {
	case "postgres":
		st, err := store.NewPostgresStore(a.Config.Database, rules, a.Logger)
		if err != nil {
			return nil, fmt.Errorf("failed to open postgres store: %w", err)
		}
		return st, nil
	case "memory":
		st := store.NewMemoryStore()
		store.SeedDemo(st, rules)
		return st, nil
	default:
		return nil, fmt.Errorf("unknown database driver: %q", a.Config.Database.Driver)
	}
}

// setupRouter configures the HTTP router with all routes.
func (a *Application) setupRouter() {
	r := chi.NewRouter()

	// Minimal middleware first; these are safe for the websocket upgrade
	// because they never wrap the ResponseWriter.
	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)

	// Registered before any route so mounted subrouters inherit them.
	errorHandler := apierrors.NewErrorHandler(a.Logger, false)
	r.NotFound(errorHandler.NotFound)
	r.MethodNotAllowed(errorHandler.MethodNotAllowed)

	if a.EventHub != nil {
		r.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
			events.ServeWS(a.EventHub, w, r)
		})
	}

	// Metrics stay outside the middleware group; scrapes should not show
	// up in the request log or count against the rate limit.
	r.Handle("/metrics", promhttp.HandlerFor(a.Metrics.Registry, promhttp.HandlerOpts{}))

	r.Group(func(r chi.Router) {
		r.Use(customMiddleware.StructuredLogger(a.Logger))
		r.Use(customMiddleware.Recoverer(a.Logger))
		r.Use(customMiddleware.Timeout(a.Config.Server.ReadTimeout, a.Logger))

		if a.Config.RateLimit.Enabled {
			r.Use(customMiddleware.NewRateLimiter(
				a.Config.RateLimit.RPS,
				a.Config.RateLimit.Burst,
				a.Logger,
			).Handler)
		}

		a.setupAPIRoutes(r)
	})

	a.Router = r
}

// setupAPIRoutes configures the API endpoints.
func (a *Application) setupAPIRoutes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))

		healthHandler := handlers.NewHealthHandler(a.HealthService, a.Logger)
		r.Mount("/health", healthHandler.Routes())
		r.Get("/version", healthHandler.Version)

		errorHandler := apierrors.NewErrorHandler(a.Logger, false)
		simulationHandler := handlers.NewSimulationHandler(a.SimulationService, a.Logger, errorHandler)
		r.Mount("/simulate", simulationHandler.Routes())
	})
}

// createServer creates the HTTP server.
func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:         fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler:      a.Router,
		ReadTimeout:  a.Config.Server.ReadTimeout,
		WriteTimeout: a.Config.Server.WriteTimeout,
		IdleTimeout:  a.Config.Server.IdleTimeout,
	}
}

// Start starts the HTTP server.
func (a *Application) Start(ctx context.Context, cancel context.CancelFunc) error {
	a.Logger.InfoContext(ctx, "starting server",
		slog.Int("port", a.Config.Server.Port),
		slog.String("level", a.Config.Logging.Level))

	go func() {
		if err := a.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.Logger.ErrorContext(ctx, "server error", slog.String("error", err.Error()))
			cancel()
		}
	}()

	a.Logger.InfoContext(ctx, "application started",
		slog.String("address", fmt.Sprintf("http://localhost:%d", a.Config.Server.Port)))
	return nil
}

// Stop gracefully stops the application.
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "shutting down application")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	if a.EventHub != nil {
		a.EventHub.Stop()
	}

	if err := a.Store.Close(); err != nil {
		a.Logger.ErrorContext(ctx, "error closing store", slog.String("error", err.Error()))
	}

	if a.OTelProviders != nil {
		if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
			a.Logger.ErrorContext(ctx, "error shutting down tracing", slog.String("error", err.Error()))
		}
	}

	a.Logger.InfoContext(ctx, "application shutdown complete")
	return nil
}

// Run runs the application until interrupted.
func (a *Application) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	if err := a.Start(ctx, cancel); err != nil {
		return err
	}

	select {
	case <-sigChan:
		a.Logger.InfoContext(ctx, "received interrupt signal")
	case <-ctx.Done():
	}

	return a.Stop(context.Background())
}

// planRulesFromConfig converts the configured rules into the domain record.
func planRulesFromConfig(rc config.RulesConfig) simulation.PlanRules {
	return simulation.RulesFromValues(
		rc.NormalRetirementAge,
		rc.EarlyRetirementAge,
		rc.MinimumTenureYears,
		rc.PenaltyRatePerYear,
		rc.BenefitDivisor,
	)
}

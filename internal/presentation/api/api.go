package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/taposhsarker38/adaptix-erp-sub002/internal/infrastructure/configs"
	"github.com/taposhsarker38/adaptix-erp-sub002/internal/infrastructure/logging"
	"github.com/taposhsarker38/adaptix-erp-sub002/internal/infrastructure/ratelimiter"
	healthHandler "github.com/taposhsarker38/adaptix-erp-sub002/internal/presentation/handler/health"
	socketHandler "github.com/taposhsarker38/adaptix-erp-sub002/internal/presentation/handler/socket"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const shutdownTimeout = 5 * time.Second

type Application struct {
	config         configs.Config
	healthHandler  *healthHandler.Handler
	socketHandler  *socketHandler.Handler
	metricsHandler http.Handler
	logger         logging.Logger
	ratelimiter    ratelimiter.Limiter
}

func NewApplication(
	config configs.Config,
	healthHandler *healthHandler.Handler,
	socketHandler *socketHandler.Handler,
	metricsHandler http.Handler,
	logger logging.Logger,
	ratelimiter ratelimiter.Limiter,
) *Application {
	return &Application{
		config:         config,
		healthHandler:  healthHandler,
		socketHandler:  socketHandler,
		metricsHandler: metricsHandler,
		logger:         logger,
		ratelimiter:    ratelimiter,
	}
}

func (app *Application) Mount() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	if app.config.HTTP.TrustProxyHeaders {
		r.Use(middleware.RealIP)
	}
	r.Use(app.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(app.enableCors)

	r.Get("/health", app.healthHandler.GetHealth)
	r.Get("/healthz", app.healthHandler.GetHealth)
	r.Method(http.MethodGet, "/metrics", app.metricsHandler)

	r.Group(func(r chi.Router) {
		r.Use(app.rateLimiterMiddleware)

		r.Get("/ws", app.socketHandler.ServeWS)
		r.Get("/socket", app.socketHandler.ServeWS)
	})

	return otelhttp.NewHandler(r, "gateway")
}

// Run serves until ctx is cancelled and then drains in-flight requests.
func (app *Application) Run(ctx context.Context, mux http.Handler) error {
	srv := &http.Server{
		Addr:         app.config.Addr(),
		Handler:      mux,
		WriteTimeout: app.config.HTTP.WriteTimeout,
		ReadTimeout:  app.config.HTTP.ReadTimeout,
		IdleTimeout:  time.Minute,
	}

	shutdown := make(chan error, 1)

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		app.logger.Info(logging.General, logging.Shutdown, "shutting down http server", nil)

		shutdown <- srv.Shutdown(shutdownCtx)
	}()

	app.logger.Info(logging.General, logging.Startup, "server has started", map[logging.ExtraKey]any{
		logging.HostIp: srv.Addr,
	})

	err := srv.ListenAndServe()
	if !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	err = <-shutdown
	if err != nil {
		return err
	}

	app.logger.Info(logging.General, logging.Shutdown, "server has stopped", map[logging.ExtraKey]any{
		logging.HostIp: srv.Addr,
	})

	return nil
}

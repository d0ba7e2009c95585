package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/taposhsarker38/adaptix-erp-sub002/internal/application/dispatcher"
	"github.com/taposhsarker38/adaptix-erp-sub002/internal/infrastructure/auth"
	"github.com/taposhsarker38/adaptix-erp-sub002/internal/infrastructure/backplane"
	"github.com/taposhsarker38/adaptix-erp-sub002/internal/infrastructure/configs"
	"github.com/taposhsarker38/adaptix-erp-sub002/internal/infrastructure/events"
	"github.com/taposhsarker38/adaptix-erp-sub002/internal/infrastructure/logging"
	"github.com/taposhsarker38/adaptix-erp-sub002/internal/infrastructure/messaging"
	"github.com/taposhsarker38/adaptix-erp-sub002/internal/infrastructure/metrics"
	"github.com/taposhsarker38/adaptix-erp-sub002/internal/infrastructure/ratelimiter"
	"github.com/taposhsarker38/adaptix-erp-sub002/internal/infrastructure/tracing"
	"github.com/taposhsarker38/adaptix-erp-sub002/internal/infrastructure/ws"
	"github.com/taposhsarker38/adaptix-erp-sub002/internal/presentation/api"
	"github.com/taposhsarker38/adaptix-erp-sub002/internal/presentation/handler/health"
	"github.com/taposhsarker38/adaptix-erp-sub002/internal/presentation/handler/socket"
	"golang.org/x/time/rate"
)

const (
	serviceName = "realtime-gateway"
)

func main() {
	configPath := configs.DetermineConfigPath()
	cfg, err := configs.Load(configPath)
	if err != nil {
		log.Fatal(err)
	}

	logger := logging.NewLogger(&logging.LoggerConfig{
		FilePath: cfg.Logger.FilePath,
		Encoding: cfg.Logger.Encoding,
		Level:    cfg.Logger.Level,
		Logger:   cfg.Logger.Logger,
		AppName:  serviceName,
	})
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sh, err := tracing.InitTracer(tracing.Config{
		ServiceName: serviceName,
		Environment: cfg.Tracing.Environment,
		Exporter:    cfg.Tracing.Exporter,
		Endpoint:    cfg.Tracing.Endpoint,
	})
	if err != nil {
		logger.Fatal(logging.General, logging.Startup, "failed to initialize the tracer", map[logging.ExtraKey]any{
			logging.ErrorMessage: err.Error(),
		})
	}
	defer sh(context.Background())

	m := metrics.New(prometheus.NewRegistry())
	instanceID := uuid.NewString()

	// A missing key is not fatal: tokenless clients can still connect.
	key, err := auth.LoadPublicKey(cfg.Auth.PublicKeyPath, cfg.Auth.Algorithm)
	if err != nil {
		logger.Warn(logging.Auth, logging.LoadKey, "public key not loaded, token-bearing connections will be rejected", map[logging.ExtraKey]any{
			logging.Path:         cfg.Auth.PublicKeyPath,
			logging.ErrorMessage: err.Error(),
		})
	} else {
		logger.Info(logging.Auth, logging.LoadKey, "public key loaded", map[logging.ExtraKey]any{
			logging.Path: cfg.Auth.PublicKeyPath,
		})
	}
	authenticator := auth.NewAuthenticator(key, auth.Options{
		Issuer:    cfg.Auth.Issuer,
		Algorithm: cfg.Auth.Algorithm,
	})

	wsCore := ws.NewCore(logger, m, ws.CoreOptions{SlowClientPolicy: cfg.WS.SlowClientPolicy})
	go wsCore.Run(ctx)

	bp := backplane.New(ctx, backplane.Options{
		URL:        cfg.Backplane.URL,
		Channel:    cfg.Backplane.Channel,
		InstanceID: instanceID,
	}, logger, m)
	defer bp.Close()

	broadcastDispatcher := dispatcher.New(wsCore, bp, logger, m, dispatcher.Options{
		DedupWindow: cfg.Dispatcher.DedupWindow,
		Mirror:      cfg.Dispatcher.Mirror,
	})
	go func() {
		if err := broadcastDispatcher.Run(ctx); err != nil {
			logger.Error(logging.Backplane, logging.Subscribe, "backplane subscription ended, peer broadcasts disabled", map[logging.ExtraKey]any{
				logging.ErrorMessage: err.Error(),
			})
		}
	}()

	broadcastConsumer := events.NewBroadcastConsumer(events.ConsumerOptions{
		Options: messaging.Options{
			URL:        cfg.RabbitMQ.URL,
			Exchange:   cfg.RabbitMQ.Exchange,
			MaxBackoff: cfg.RabbitMQ.MaxBackoff,
		},
		ManualAck: cfg.RabbitMQ.AckMode == configs.AckModeManual,
	}, broadcastDispatcher, logger, m)
	go func() {
		if err := broadcastConsumer.Listen(ctx); err != nil {
			logger.Error(logging.RabbitMQ, logging.Consume, "broadcast consumer stopped", map[logging.ExtraKey]any{
				logging.ErrorMessage: err.Error(),
			})
		}
	}()

	rl := ratelimiter.NewTokenBucketRateLimiter(
		float64(cfg.RateLimiter.MaxRatePerSecond),
		cfg.RateLimiter.MaxBurst,
		cfg.RateLimiter.CacheTTL,
	)
	defer rl.Close()

	healthHandler := health.NewHandler(wsCore.Rooms(), instanceID)
	socketHandler := socket.NewHandler(wsCore, authenticator, logger, m, socket.Options{
		AllowedOrigins: cfg.HTTP.AllowedOrigins,
		Client: ws.ClientOptions{
			SendBuffer:     cfg.WS.SendBuffer,
			PingInterval:   cfg.WS.PingInterval,
			PongWait:       cfg.WS.PongWait,
			WriteWait:      cfg.WS.WriteWait,
			MaxMessageSize: cfg.WS.MaxMessageSize,
			CommandRate:    rate.Limit(cfg.WS.CommandsPerSecond),
			CommandBurst:   cfg.WS.CommandBurst,
		},
	})

	app := api.NewApplication(*cfg, healthHandler, socketHandler, m.Handler(), logger, rl)

	logger.Info(logging.General, logging.Startup, "gateway starting", map[logging.ExtraKey]any{
		logging.InstanceID: instanceID,
		logging.Exchange:   cfg.RabbitMQ.Exchange,
	})

	mux := app.Mount()
	if err := app.Run(ctx, mux); err != nil {
		logger.Fatal(logging.General, logging.Startup, "http server failed", map[logging.ExtraKey]any{
			logging.ErrorMessage: err.Error(),
		})
	}

	<-wsCore.Done()
}

// Command server runs the carrier gateway: the /v1 carrier API on PORT and
// probes plus Prometheus metrics on OPS_PORT.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	gomongo "go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/sync/errgroup"

	"github.com/99minutos/carrier-bindings/internal/api"
	"github.com/99minutos/carrier-bindings/internal/carrier/endicia"
	"github.com/99minutos/carrier-bindings/internal/carrier/ups"
	"github.com/99minutos/carrier-bindings/internal/core/ports"
	"github.com/99minutos/carrier-bindings/internal/core/service"
	"github.com/99minutos/carrier-bindings/internal/infrastructure/db/mongo"
	"github.com/99minutos/carrier-bindings/internal/infrastructure/db/redis"
	opshttp "github.com/99minutos/carrier-bindings/internal/infrastructure/http"
	"github.com/99minutos/carrier-bindings/internal/infrastructure/queue"
	"github.com/99minutos/carrier-bindings/internal/infrastructure/transport"
	"github.com/99minutos/carrier-bindings/internal/pkg/config"
	"github.com/99minutos/carrier-bindings/pkg/logger"
)

const shutdownTimeout = 15 * time.Second

func main() {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	cfg := config.Load()
	log := logger.Init(logger.Options{Level: cfg.LogLevel, Pretty: cfg.Pretty()})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	poster := transport.New(transport.Config{
		Timeout:     cfg.Transport.Timeout,
		MaxFailures: cfg.Transport.MaxFailures,
		OpenTimeout: cfg.Transport.OpenTimeout,
	}, log)

	carriers := buildCarriers(cfg, poster, log)
	if len(carriers) == 0 {
		log.Fatal().Msg("no carrier configured: set UPS_KEY or ENDICIA_ACCOUNT_ID")
	}

	opts := []service.Option{}

	var db *gomongo.Database
	if cfg.Mongo.URI != "" {
		client, database, err := mongo.Connect(ctx, mongo.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to mongodb")
		}
		defer func() { _ = client.Disconnect(context.Background()) }()
		db = database

		requestLog := mongo.NewRequestLogRepository(db, cfg.Gateway.AuditRetention)
		if err := requestLog.EnsureIndexes(ctx); err != nil {
			log.Warn().Err(err).Msg("could not ensure request log indexes")
		}
		archive, err := mongo.NewLabelArchive(db, cfg.Mongo.Bucket)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to open label archive")
		}
		opts = append(opts, service.WithRequestLog(requestLog), service.WithLabelArchive(archive))
		log.Info().Str("database", cfg.Mongo.Database).Msg("request log and label archive enabled")
	}

	var rdb *goredis.Client
	if cfg.Redis.Addr != "" {
		client, err := redis.Connect(ctx, redis.Config{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer func() { _ = client.Close() }()
		rdb = client

		opts = append(opts,
			service.WithRateCache(redis.NewRateCache(rdb, cfg.Gateway.RateCacheTTL)),
			service.WithLabelGuard(redis.NewLabelGuard(rdb, cfg.Gateway.LabelGuardTTL)),
		)
		log.Info().Str("addr", cfg.Redis.Addr).Msg("rate cache and label guard enabled")
	}

	dispatcher := queue.NewDispatcher(cfg.Gateway.TrackingWorkers, log)
	dispatcher.Start(ctx)
	opts = append(opts, service.WithTrackingQueue(dispatcher))

	svc := service.NewShippingService(carriers, log, opts...)

	g, gctx := errgroup.WithContext(ctx)
	serve(gctx, g, api.NewRouter(svc, cfg.JWTSecret, log), ":"+cfg.Port, "api", log)
	serve(gctx, g, opshttp.NewOpsRouter(db, rdb), ":"+cfg.OpsPort, "ops", log)

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("server stopped with error")
		os.Exit(1)
	}
	log.Info().Msg("shutdown complete")
}

// buildCarriers registers every carrier with credentials configured.
func buildCarriers(cfg *config.Config, poster ports.Poster, log zerolog.Logger) []ports.Carrier {
	var carriers []ports.Carrier
	if cfg.UPS.Enabled() {
		carriers = append(carriers, ups.New(ups.Config{
			Key:                cfg.UPS.Key,
			Login:              cfg.UPS.Login,
			Password:           cfg.UPS.Password,
			OriginAccount:      cfg.UPS.OriginAccount,
			DestinationAccount: cfg.UPS.DestinationAccount,
			Test:               cfg.UPS.Test,
		}, poster, log))
	} else {
		log.Warn().Str("carrier", ups.Name).Msg("carrier disabled: no credentials")
	}
	if cfg.Endicia.Enabled() {
		carriers = append(carriers, endicia.New(endicia.Config{
			AccountID:   cfg.Endicia.AccountID,
			RequesterID: cfg.Endicia.RequesterID,
			Password:    cfg.Endicia.Password,
			Test:        cfg.Endicia.Test,
		}, poster, log))
	} else {
		log.Warn().Str("carrier", endicia.Name).Msg("carrier disabled: no credentials")
	}
	return carriers
}

// serve runs e on addr until ctx is done, then drains in-flight requests.
func serve(ctx context.Context, g *errgroup.Group, e *echo.Echo, addr, name string, log zerolog.Logger) {
	g.Go(func() error {
		log.Info().Str("listener", name).Str("addr", addr).Msg("listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return e.Shutdown(shutdownCtx)
	})
}

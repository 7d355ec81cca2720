package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"tracker/internal/audit"
	jwttoken "tracker/internal/jwt_token"
	"tracker/internal/platform/config"
	"tracker/internal/platform/database"
	"tracker/internal/platform/httpserver"
	"tracker/internal/platform/logger"
	platformmetrics "tracker/internal/platform/metrics"
	platformredis "tracker/internal/platform/redis"
	"tracker/internal/survey/handler"
	"tracker/internal/survey/lock"
	"tracker/internal/survey/metrics"
	"tracker/internal/survey/recorder"
	"tracker/internal/survey/store"
	"tracker/pkg/platform/httputil"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal/survey.
func main() {
	cfg, err := config.Load(os.Getenv("TRACKER_CONFIG"))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	log := logger.New(cfg.Log.Format, cfg.Log.Level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server stopped with error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	db, err := database.Open(ctx, database.Config{
		Dialect:         database.Dialect(cfg.Database.Driver),
		DSN:             cfg.Database.DSN,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	})
	if err != nil {
		return err
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		if err := db.Migrate(ctx); err != nil {
			return err
		}
	}

	redisClient, err := platformredis.New(ctx, cfg.Redis)
	if err != nil {
		return err
	}

	var locker recorder.Locker = lock.NewKeyed()
	if redisClient != nil {
		defer redisClient.Close()
		locker = lock.NewRedis(redisClient.Client, cfg.Redis.LockTTL)
		log.Info("using redis submission lock")
	}

	registry := platformmetrics.NewRegistry()
	surveyMetrics := metrics.NewWithRegisterer(registry)

	outbox := audit.NewSQLStore(db)
	service := recorder.New(store.NewSQL(db), store.NewSQLTransactor(db, cfg.Database.TxTimeout),
		recorder.WithLogger(log),
		recorder.WithMetrics(surveyMetrics),
		recorder.WithLocker(locker),
		recorder.WithAuditPublisher(audit.NewPublisher(outbox)),
	)

	tokens := jwttoken.NewJWTService(cfg.Auth.JWTSigningKey, cfg.Auth.Issuer, cfg.Auth.Audience)

	router := chi.NewRouter()
	router.Handle("/metrics", platformmetrics.Handler(registry))
	router.Get("/healthz", healthz(db, redisClient))
	handler.New(service, log, surveyMetrics, jwttoken.NewMiddlewareAdapter(tokens), cfg.Server.RequestTimeout).Register(router)

	var relay *audit.Relay
	if len(cfg.Kafka.Brokers) > 0 {
		producer, err := audit.NewKafkaProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		if err != nil {
			return err
		}
		defer producer.Close()
		if err := producer.EnsureTopic(ctx, 3, 1); err != nil {
			log.Warn("could not ensure audit topic", "topic", cfg.Kafka.Topic, "error", err)
		}
		relay = audit.NewRelay(outbox, producer,
			audit.WithInterval(cfg.Kafka.RelayInterval),
			audit.WithBatchSize(cfg.Kafka.RelayBatch),
			audit.WithRelayLogger(log),
		)
		log.Info("audit relay enabled", "topic", cfg.Kafka.Topic)
	}

	srv := httpserver.New(cfg.Server, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting tracker", "addr", cfg.Server.Addr, "database", cfg.Database.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		return nil
	})

	if relay != nil {
		g.Go(func() error {
			if err := relay.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}

	return g.Wait()
}

func healthz(db *database.DB, redisClient *platformredis.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := map[string]string{"database": "ok"}
		code := http.StatusOK
		if err := db.PingContext(r.Context()); err != nil {
			status["database"] = "unavailable"
			code = http.StatusServiceUnavailable
		}
		if redisClient != nil {
			status["redis"] = "ok"
			if err := redisClient.Health(r.Context()); err != nil {
				status["redis"] = "unavailable"
				code = http.StatusServiceUnavailable
			}
		}
		httputil.WriteJSON(w, code, status)
	}
}

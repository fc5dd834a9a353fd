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
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	authhandler "boards/internal/auth/handler"
	authmetrics "boards/internal/auth/metrics"
	authservice "boards/internal/auth/service"
	"boards/internal/auth/store/session"
	"boards/internal/auth/store/user"
	"boards/internal/auth/token"
	boardhandler "boards/internal/board/handler"
	boardmetrics "boards/internal/board/metrics"
	boardservice "boards/internal/board/service"
	boardstore "boards/internal/board/store"
	"boards/internal/platform/config"
	"boards/internal/platform/database"
	"boards/internal/platform/httpserver"
	"boards/internal/platform/logger"
	"boards/internal/platform/metrics"
	redisclient "boards/internal/platform/redis"
	rlmetrics "boards/internal/ratelimit/metrics"
	ratelimit "boards/internal/ratelimit/middleware"
	rlmodels "boards/internal/ratelimit/models"
	"boards/internal/ratelimit/store/bucket"
	httptransport "boards/internal/transport/http"
	"boards/pkg/platform/audit/publisher"
	"boards/pkg/platform/audit/publishers/compliance"
	"boards/pkg/platform/audit/publishers/kafka"
	"boards/pkg/platform/audit/store/sqlstore"
	"boards/pkg/platform/audit/worker"
	authmw "boards/pkg/platform/middleware/auth"
	"boards/pkg/platform/middleware/metadata"
)

const shutdownTimeout = 10 * time.Second

func main() {
	_ = godotenv.Load()

	cfg, err := config.FromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(cfg.Environment, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server stopped with error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Server, log *slog.Logger) error {
	db, err := database.Open(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()
	if err := db.Migrate(ctx); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	health := map[string]httptransport.HealthChecker{"database": db}
	g, gctx := errgroup.WithContext(ctx)

	var sessions authservice.SessionStore
	var attempts ratelimit.Store
	rdb, err := redisclient.New(ctx, cfg.Redis)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	if rdb != nil {
		defer rdb.Close()
		sessions = session.NewRedis(rdb.Client)
		attempts = bucket.NewRedis(rdb.Client)
		health["redis"] = rdb
		log.Info("sessions stored in redis")
	} else {
		memory := session.New()
		sessions = memory
		buckets := bucket.NewInMemoryBucketStore()
		attempts = buckets
		g.Go(func() error { return sweep(gctx, memory, buckets, cfg.Session.TTL, log) })
		log.Info("sessions stored in memory")
	}
	limiter := ratelimit.New(attempts, log,
		ratelimit.WithDisabled(cfg.RateLimit.Disabled),
		ratelimit.WithMetrics(rlmetrics.New(reg)),
	)

	auditStore := sqlstore.New(db.DB, db.Rebind)
	compliancePublisher := compliance.New(auditStore,
		compliance.WithLogger(log),
		compliance.WithMetrics(compliance.NewMetrics(reg)),
	)
	eventPublisher := publisher.NewPublisher(auditStore,
		publisher.WithAsyncBuffer(cfg.AuditBuffer),
		publisher.WithLogger(log),
	)
	defer eventPublisher.Close()

	if len(cfg.Kafka.Brokers) > 0 {
		sink, err := kafka.New(cfg.Kafka.Brokers, cfg.Kafka.AuditTopic, kafka.WithLogger(log))
		if err != nil {
			return err
		}
		defer sink.Close()
		if err := sink.EnsureTopic(ctx, 1, 1); err != nil {
			log.Warn("could not ensure audit topic", "topic", cfg.Kafka.AuditTopic, "error", err)
		}
		relay := worker.NewRelay(auditStore, sink, worker.WithLogger(log))
		g.Go(func() error { return ignoreCanceled(relay.Run(gctx)) })
		log.Info("audit relay enabled", "brokers", cfg.Kafka.Brokers, "topic", cfg.Kafka.AuditTopic)
	}

	boards := boardservice.New(boardstore.New(db), db,
		boardservice.WithLogger(log),
		boardservice.WithAuditPublisher(compliancePublisher),
		boardservice.WithMetrics(boardmetrics.New(reg)),
		boardservice.WithPageSizes(cfg.Pagination.TopicsPerPage, cfg.Pagination.PostsPerPage),
	)
	auth := authservice.New(user.New(db), sessions, token.New(cfg.Session.SigningKey), db,
		authservice.WithLogger(log),
		authservice.WithAuditPublisher(compliancePublisher),
		authservice.WithEventPublisher(eventPublisher),
		authservice.WithMetrics(authmetrics.New(reg)),
		authservice.WithSessionTTL(cfg.Session.TTL),
	)

	trusted, err := metadata.ParseTrustedProxies(cfg.TrustedProxies)
	if err != nil {
		return fmt.Errorf("parse TRUSTED_PROXIES: %w", err)
	}
	sessionCookie := authmw.SessionCookie{Name: cfg.Session.CookieName, Secure: cfg.Session.CookieSecure}
	router := httptransport.NewRouter(httptransport.Config{
		Logger:         log,
		Authenticator:  auth,
		Cookie:         sessionCookie,
		Metrics:        metrics.New(reg),
		Gatherer:       reg,
		Health:         health,
		TrustedProxies: trusted,
		Handlers: []httptransport.Registrar{
			boardhandler.New(boards, log),
			authhandler.New(auth, sessionCookie, log,
				authhandler.WithAttemptLimiter(limiter,
					rlmodels.Limit{Requests: cfg.RateLimit.LoginAttempts, Window: cfg.RateLimit.Window},
					rlmodels.Limit{Requests: cfg.RateLimit.SignUpAttempts, Window: cfg.RateLimit.Window},
				),
			),
		},
	})
	srv := httpserver.New(cfg.Addr, router, log)

	g.Go(func() error {
		log.Info("starting boards", "addr", cfg.Addr, "env", cfg.Environment, "dialect", string(db.Dialect()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		log.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// sweep drops expired in-memory sessions and idle rate limit buckets once per
// hour, or once per TTL when that is shorter.
func sweep(ctx context.Context, store *session.InMemorySessionStore, buckets *bucket.InMemoryBucketStore, ttl time.Duration, log *slog.Logger) error {
	interval := time.Hour
	if ttl > 0 && ttl < interval {
		interval = ttl
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			if n, err := store.DeleteExpired(ctx, now); err == nil && n > 0 {
				log.Debug("expired sessions removed", "count", n)
			}
			buckets.Sweep(now)
		}
	}
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

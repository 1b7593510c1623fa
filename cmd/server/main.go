package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"
	"golang.org/x/sync/errgroup"

	"trustgate/internal/admin"
	"trustgate/internal/passport"
	"trustgate/internal/platform/config"
	"trustgate/internal/platform/httpserver"
	"trustgate/internal/platform/logger"
	"trustgate/internal/platform/metrics"
	"trustgate/internal/platform/postgres"
	"trustgate/internal/platform/redis"
	rlmetrics "trustgate/internal/ratelimit/metrics"
	ratelimit "trustgate/internal/ratelimit/middleware"
	rlmodels "trustgate/internal/ratelimit/models"
	"trustgate/internal/ratelimit/store/bucket"
	httptransport "trustgate/internal/transport/http"
	trusthandler "trustgate/internal/trust/handler"
	trustmetrics "trustgate/internal/trust/metrics"
	trustservice "trustgate/internal/trust/service"
	userstore "trustgate/internal/users/store"
	vhandler "trustgate/internal/verification/handler"
	vmetrics "trustgate/internal/verification/metrics"
	vservice "trustgate/internal/verification/service"
	vstore "trustgate/internal/verification/store"
	codehandler "trustgate/internal/verifycode/handler"
	"trustgate/internal/verifycode/mailer"
	codeservice "trustgate/internal/verifycode/service"
	codestore "trustgate/internal/verifycode/store"
	audit "trustgate/pkg/platform/audit"
	"trustgate/pkg/platform/audit/publisher"
	kafkasink "trustgate/pkg/platform/audit/sink/kafka"
	auditmemory "trustgate/pkg/platform/audit/store/memory"
	auditpostgres "trustgate/pkg/platform/audit/store/postgres"
	"trustgate/pkg/platform/tx"
)

const kafkaFlushTimeout = 5 * time.Second

func main() {
	if err := run(); err != nil {
		slog.Error("trustgate exited", "error", err)
		os.Exit(1)
	}
}

type userStore interface {
	trustservice.UserStore
	vservice.UserStore
}

// infra holds the storage choices made from config: PostgreSQL and Redis
// when configured, in-memory otherwise.
type infra struct {
	users       userStore
	submissions vservice.SubmissionStore
	audit       audit.Store
	codes       codeservice.Store
	memCodes    *codestore.InMemory
	buckets     ratelimit.BucketStore
	memBuckets  *bucket.InMemoryBucketStore
	runner      tx.Runner
	// trustRunner scopes single trust mutations. In memory the user store's
	// per-user locks are enough.
	trustRunner tx.Runner
	health      map[string]httptransport.HealthCheck
	closers     []func() error
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := logger.New(cfg.Log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	in, err := buildInfra(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer in.close(log)

	var pubOpts []publisher.Option
	pubOpts = append(pubOpts, publisher.WithLogger(log))
	if len(cfg.Kafka.Brokers) > 0 {
		client, err := kafkasink.NewClient(cfg.Kafka.Brokers, cfg.Kafka.AuditTopic)
		if err != nil {
			return err
		}
		defer flushKafka(client, log)
		if err := kafkasink.EnsureTopic(ctx, client, cfg.Kafka.AuditTopic, cfg.Kafka.Partitions, cfg.Kafka.ReplicationFactor); err != nil {
			return err
		}
		pubOpts = append(pubOpts, publisher.WithSink(kafkasink.NewSink(client, cfg.Kafka.AuditTopic, log)))
		log.Info("streaming audit events to kafka", "topic", cfg.Kafka.AuditTopic)
	}
	auditor := publisher.NewPublisher(in.audit, pubOpts...)
	defer func() { _ = auditor.Close() }()

	if cfg.UsesDevSigningKey() {
		log.Warn("PASSPORT_SIGNING_KEY not set, signing passports with the development key")
	}
	issuer := passport.NewIssuer(cfg.Passport.SigningKey, cfg.Passport.Issuer, cfg.Passport.TTL)
	codes := codeservice.New(in.codes, mailer.NewLogMailer(log),
		codeservice.Config{
			Length:      cfg.VerifyCode.Length,
			TTL:         cfg.VerifyCode.TTL,
			VerifiedTTL: cfg.VerifyCode.VerifiedTTL,
		},
		codeservice.WithLogger(log),
		codeservice.WithAuditPublisher(auditor),
	)
	trust := trustservice.New(in.users,
		trustservice.WithLogger(log),
		trustservice.WithAuditPublisher(auditor),
		trustservice.WithMetrics(trustmetrics.New()),
		trustservice.WithTx(in.trustRunner),
	)
	verification := vservice.New(in.submissions, in.users, trust, issuer,
		vservice.WithLogger(log),
		vservice.WithAuditPublisher(auditor),
		vservice.WithMetrics(vmetrics.New()),
		vservice.WithEmailVerifier(codes),
		vservice.WithTx(in.runner),
	)

	limiter := ratelimit.New(in.buckets,
		rlmodels.Limit{Requests: cfg.RateLimit.Requests, Window: cfg.RateLimit.Window},
		ratelimit.WithLogger(log),
		ratelimit.WithMetrics(rlmetrics.New()),
		ratelimit.WithDisabled(cfg.RateLimit.Disabled),
	)

	vh := vhandler.New(verification, log)
	router := httptransport.NewRouter(httptransport.Config{
		AdminToken: cfg.Server.AdminToken,
		Logger:     log,
		Metrics:    metrics.New(),
		Health:     in.health,
		RateLimit:  limiter,
	},
		[]httptransport.Routes{
			codehandler.New(codes, log),
			httptransport.RouteFunc(vh.RegisterPublic),
			passport.NewHandler(issuer, auditor, log),
		},
		[]httptransport.Routes{
			httptransport.RouteFunc(vh.RegisterAdmin),
			trusthandler.New(trust, log),
			admin.New(auditor, log),
		},
	)
	srv := httpserver.New(cfg.Server, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting trustgate", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		log.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	if cfg.TrustSweep.Interval > 0 {
		g.Go(func() error {
			return ignoreCancel(trust.StartSweep(gctx, cfg.TrustSweep.Interval))
		})
	}
	if in.memCodes != nil {
		g.Go(func() error {
			return ignoreCancel(in.memCodes.StartCleanup(gctx, cfg.VerifyCode.SweepInterval))
		})
	}
	if in.memBuckets != nil && !cfg.RateLimit.Disabled {
		g.Go(func() error {
			return ignoreCancel(in.memBuckets.StartCleanup(gctx, cfg.RateLimit.Window))
		})
	}
	return g.Wait()
}

func buildInfra(ctx context.Context, cfg *config.Config, log *slog.Logger) (*infra, error) {
	in := &infra{health: map[string]httptransport.HealthCheck{}}

	if cfg.Database.DSN == "" {
		log.Warn("DATABASE_URL not set, using in-memory stores")
		in.users = userstore.NewInMemory()
		in.submissions = vstore.NewInMemory()
		in.audit = auditmemory.NewInMemoryStore()
		in.runner = tx.NewMemoryRunner()
		in.trustRunner = tx.Direct{}
	} else {
		db, err := postgres.Open(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		in.closers = append(in.closers, db.Close)
		if cfg.Database.Migrate {
			if err := postgres.Migrate(ctx, db); err != nil {
				in.close(log)
				return nil, err
			}
		}
		in.users = userstore.NewPostgres(db)
		in.submissions = vstore.NewPostgres(db)
		in.audit = auditpostgres.New(db)
		in.runner = tx.NewSQLRunner(db, cfg.Database.TxTimeout)
		in.trustRunner = in.runner
		in.health["postgres"] = pinger(db)
	}

	client, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		in.close(log)
		return nil, err
	}
	if client == nil {
		log.Warn("REDIS_URL not set, verification codes and rate limits are kept in memory")
		in.memCodes = codestore.NewInMemory()
		in.codes = in.memCodes
		in.memBuckets = bucket.NewInMemoryBucketStore()
		in.buckets = in.memBuckets
	} else {
		in.closers = append(in.closers, client.Close)
		in.codes = codestore.NewRedis(client.Client)
		in.buckets = bucket.NewRedisBucketStore(client.Client)
		in.health["redis"] = client.Health
	}
	return in, nil
}

func (in *infra) close(log *slog.Logger) {
	for i := len(in.closers) - 1; i >= 0; i-- {
		if err := in.closers[i](); err != nil {
			log.Error("failed to close resource", "error", err)
		}
	}
	in.closers = nil
}

func pinger(db *sql.DB) httptransport.HealthCheck {
	return db.PingContext
}

func flushKafka(client *kgo.Client, log *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), kafkaFlushTimeout)
	defer cancel()
	if err := client.Flush(ctx); err != nil {
		log.Error("failed to flush audit events to kafka", "error", err)
	}
	client.Close()
}

func ignoreCancel(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"securitysvc/internal/audit"
	auditkafka "securitysvc/internal/audit/store/kafka"
	auditmemory "securitysvc/internal/audit/store/memory"
	"securitysvc/internal/platform/config"
	"securitysvc/internal/platform/httpserver"
	"securitysvc/internal/platform/logger"
	"securitysvc/internal/platform/metrics"
	"securitysvc/internal/platform/postgres"
	"securitysvc/internal/platform/redis"
	"securitysvc/internal/security"
	securitymetrics "securitysvc/internal/security/metrics"
	securityservice "securitysvc/internal/security/service"
	securitystore "securitysvc/internal/security/store"
	"securitysvc/internal/securitytype"
	securitytypemetrics "securitysvc/internal/securitytype/metrics"
	securitytypeservice "securitysvc/internal/securitytype/service"
	securitytypestore "securitysvc/internal/securitytype/store"
	httptransport "securitysvc/internal/transport/http"
	"securitysvc/pkg/platform/circuit"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(cfg.Log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("security service stopped", "error", err)
		os.Exit(1)
	}
}

// run wires dependencies and blocks until ctx is cancelled or a component fails.
func run(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	reg := metrics.Default
	typeMetrics := securitytypemetrics.New(reg)
	securityMetrics := securitymetrics.New(reg)

	types, securities, closeStores, err := buildStores(ctx, cfg.Store, log)
	if err != nil {
		return err
	}
	defer closeStores()

	rdb, err := redis.New(ctx, cfg.Cache)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	if rdb != nil {
		defer rdb.Close()
		types = securitytypestore.NewCached(types, securitytypestore.NewRedisCache(rdb, cfg.Cache.TTL),
			securitytypestore.WithCacheLogger(log),
			securitytypestore.WithCacheMetrics(typeMetrics),
			securitytypestore.WithCacheBreaker(circuit.New("security_type_cache",
				circuit.WithFailureThreshold(cfg.Cache.BreakerThreshold),
				circuit.WithCooldown(cfg.Cache.BreakerCooldown),
			)),
		)
		log.Info("security type cache enabled", "ttl", cfg.Cache.TTL.String())
	}

	auditStore, closeAudit, err := buildAuditStore(ctx, cfg.Audit, log)
	if err != nil {
		return err
	}
	defer closeAudit()
	publisher := audit.NewPublisher(cfg.Audit.BufferSize, audit.WithLogger(log))
	worker := audit.NewWorker(auditStore, publisher.Inbox(), log)

	typeService := securitytype.NewService(types,
		securitytypeservice.WithLogger(log),
		securitytypeservice.WithAuditPublisher(publisher),
		securitytypeservice.WithMetrics(typeMetrics),
	)
	securityService := security.NewService(securities, types,
		securityservice.WithLogger(log),
		securityservice.WithAuditPublisher(publisher),
		securityservice.WithMetrics(securityMetrics),
	)

	router := httptransport.NewRouter(httptransport.Handlers{
		SecurityTypes: securitytype.NewHandler(typeService, log),
		Securities:    security.NewHandler(securityService, log),
	}, reg, log)
	srv := httpserver.New(cfg.Server, router, log)

	log.Info("starting security service", "addr", cfg.Server.Addr, "store", cfg.Store.Type)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Run(gctx)
	})
	g.Go(func() error {
		return worker.Run(gctx)
	})
	return g.Wait()
}

func buildStores(ctx context.Context, cfg config.StoreConfig, log *slog.Logger) (securitytypestore.Store, securitystore.Store, func(), error) {
	if cfg.Type != config.StorePostgres {
		log.Info("using in-memory stores")
		types, securities := securitytypestore.NewInMemory(), securitystore.NewInMemory()
		securitystore.LinkInMemory(securities, types)
		return types, securities, func() {}, nil
	}

	db, err := postgres.Open(ctx, cfg)
	if err != nil {
		return nil, nil, nil, err
	}
	if err := postgres.EnsureSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, nil, nil, err
	}
	log.Info("using postgres stores")
	return securitytypestore.NewPostgres(db), securitystore.NewPostgres(db), func() { _ = db.Close() }, nil
}

func buildAuditStore(ctx context.Context, cfg config.AuditConfig, log *slog.Logger) (audit.Store, func(), error) {
	if len(cfg.Brokers) == 0 {
		log.Info("change events kept in memory")
		return auditmemory.NewInMemoryStore(), func() {}, nil
	}

	store, err := auditkafka.New(cfg.Brokers, cfg.Topic)
	if err != nil {
		return nil, nil, fmt.Errorf("create kafka audit store: %w", err)
	}
	if err := store.EnsureTopic(ctx, 1, 1); err != nil {
		store.Close()
		return nil, nil, fmt.Errorf("ensure audit topic: %w", err)
	}
	log.Info("publishing change events to kafka", "topic", cfg.Topic)
	return store, store.Close, nil
}

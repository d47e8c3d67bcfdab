package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/sla-engine/internal/api/http/handlers"
	"github.com/spec-kit/sla-engine/internal/config"
	"github.com/spec-kit/sla-engine/internal/events"
	"github.com/spec-kit/sla-engine/internal/observability"
	"github.com/spec-kit/sla-engine/internal/persistence"
	"github.com/spec-kit/sla-engine/internal/repository"
	"github.com/spec-kit/sla-engine/internal/service"
	"github.com/spec-kit/sla-engine/internal/sla"
)

// application holds the wired engine shared by every command.
type application struct {
	cfg      *config.Config
	logger   *zap.Logger
	metrics  *observability.Metrics
	postgres *persistence.Postgres
	redis    *persistence.Redis
	sla      *service.SLAService
	policies *service.PolicyService
}

func loadConfigAndLogger() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		return nil, nil, fmt.Errorf("init logger: %w", err)
	}
	return cfg, logger, nil
}

// newApplication connects the backing stores and builds the engine. Without
// POSTGRES_DSN every store is held in memory.
func newApplication(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*application, error) {
	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if pg.Pool != nil && cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, cfg.Postgres.DSN, logger); err != nil {
			pg.Close()
			return nil, err
		}
	}

	redis := persistence.NewRedis(ctx, cfg.Redis, logger)
	metrics := observability.NewMetrics()

	var (
		tickets  sla.TicketStore
		records  sla.SLAStore
		policies repository.PolicyRepository
	)
	if pool := pg.PoolHandle(); pool != nil {
		metrics.RegisterPgxPool(pool)
		tickets = repository.NewTicketRepository(pool)
		records = repository.NewSLARepository(pool)
		policies = repository.NewPolicyRepository(pool)
	} else {
		logger.Warn("running on in-memory store; state is lost on exit")
		mem := repository.NewMemoryStore()
		tickets, records, policies = mem, mem, mem.Policies()
	}

	location, err := cfg.SLA.Location()
	if err != nil {
		return nil, err
	}
	calendar := sla.NewCalendar(
		sla.WithLocation(location),
		sla.WithBusinessHours(cfg.SLA.OpenHour, cfg.SLA.CloseHour),
		sla.WithHolidays(cfg.SLA.Holidays...),
	)
	evaluator := sla.NewEvaluator(cfg.SLA.AtRiskFraction)

	dispatcher := events.NewInMemoryDispatcher(logger)
	service.NewNotificationService(dispatcher, logger, cfg.Notification, metrics).RegisterHandlers()
	hook := events.NewDispatcherHook(dispatcher)

	assigner := sla.NewAssigner(sla.AssignerDependencies{
		Catalog:   sla.NewCatalog(policies, logger),
		Calendar:  calendar,
		Evaluator: evaluator,
		Store:     records,
		Logger:    logger,
	})
	reconciler := sla.NewReconciler(sla.ReconcilerDependencies{
		Tickets:   tickets,
		Records:   records,
		Assigner:  assigner,
		Evaluator: evaluator,
		Hook:      hook,
		Observer:  metrics,
		BatchSize: cfg.SLA.ReconcileBatchSize,
		Logger:    logger,
	})

	slaService := service.NewSLAService(service.SLADependencies{
		Assigner:   assigner,
		Reconciler: reconciler,
		Aggregator: sla.NewAggregator(records),
		Evaluator:  evaluator,
		Records:    records,
		Cache:      repository.NewStatsCache(redis.Client, cfg.SLA.StatsCacheTTL()),
		Hook:       hook,
		Logger:     logger,
	})

	return &application{
		cfg:      cfg,
		logger:   logger,
		metrics:  metrics,
		postgres: pg,
		redis:    redis,
		sla:      slaService,
		policies: service.NewPolicyService(policies, logger),
	}, nil
}

// healthDependencies lists the stores the readiness probe checks.
func (a *application) healthDependencies() map[string]handlers.Pinger {
	deps := map[string]handlers.Pinger{"redis": a.redis}
	if a.postgres.PoolHandle() != nil {
		deps["postgres"] = a.postgres
	}
	return deps
}

func (a *application) Close() {
	a.redis.Close()
	a.postgres.Close()
}

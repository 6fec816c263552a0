package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	authorizationregistry "mintbox/contexts/minting-core/authorization-registry"
	registrypostgres "mintbox/contexts/minting-core/authorization-registry/adapters/postgres"
	registryworkers "mintbox/contexts/minting-core/authorization-registry/application/workers"
	contentstore "mintbox/contexts/minting-core/content-store"
	creditledger "mintbox/contexts/minting-core/credit-ledger"
	ledgerpostgres "mintbox/contexts/minting-core/credit-ledger/adapters/postgres"
	documenthasher "mintbox/contexts/minting-core/document-hasher"
	mintingorchestrator "mintbox/contexts/minting-core/minting-orchestrator"
	orchestratorpostgres "mintbox/contexts/minting-core/minting-orchestrator/adapters/postgres"
	signatureverifier "mintbox/contexts/minting-core/signature-verifier"
	"mintbox/internal/platform/config"
	"mintbox/internal/platform/db"
	"mintbox/internal/platform/httpserver"
	"mintbox/internal/platform/messaging"
)

// Package bootstrap is the composition root.
// Keep construction/wiring here so module code stays framework-agnostic.

type APIApp struct {
	server   *httpserver.Server
	postgres *db.Postgres
	logger   *slog.Logger
}

type WorkerApp struct {
	postgres     *db.Postgres
	outboxRelay  registryworkers.OutboxRelay
	expirer      registryworkers.RequestExpirer
	relayEnabled bool
	sweepEnabled bool
	pollInterval time.Duration
	logger       *slog.Logger
}

func BuildAPI() (*APIApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "api")
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return nil, errors.New("POSTGRES_DSN is required")
	}

	pg, err := db.Connect(cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}

	hasherModule := documenthasher.NewModule(logger)
	verifierModule := signatureverifier.NewModule(logger)
	contentModule := contentstore.NewInMemoryModule()

	ledgerModule := creditledger.NewModule(creditledger.Dependencies{
		Repository:  ledgerpostgres.NewRepository(pg.DB, logger),
		Clock:       ledgerpostgres.SystemClock{},
		IDGenerator: ledgerpostgres.UUIDGenerator{},
		Logger:      logger,
	})

	registryRepo := registrypostgres.NewRepository(pg.DB, logger)
	registryModule := authorizationregistry.NewModule(authorizationregistry.Dependencies{
		Requests:    registryRepo,
		Signatures:  registryRepo,
		Outbox:      registryRepo,
		OutboxRepo:  registryRepo,
		Ledger:      ledgerModule.Service,
		Verifier:    verifierModule.Service,
		Clock:       registrypostgres.SystemClock{},
		IDGenerator: registrypostgres.UUIDGenerator{},
		Operator:    cfg.MintingOperator,
		Logger:      logger,
	})

	orchestratorModule := mintingorchestrator.NewModule(mintingorchestrator.Dependencies{
		Artifacts:   orchestratorpostgres.NewRepository(pg.DB, logger),
		Content:     ContentUploaderBridge{Store: contentModule.Store},
		Registry:    RegistryDriverBridge{Service: registryModule.Service},
		Clock:       registrypostgres.SystemClock{},
		IDGenerator: registrypostgres.UUIDGenerator{},
		Operator:    cfg.MintingOperator,
		Logger:      logger,
	})

	server := httpserver.New(
		hasherModule,
		ledgerModule,
		registryModule,
		orchestratorModule,
		logger,
		normalizeAddr(cfg.HTTPPort),
	)
	return &APIApp{
		server:   server,
		postgres: pg,
		logger:   logger,
	}, nil
}

func BuildWorker() (*WorkerApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "worker")
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return nil, errors.New("POSTGRES_DSN is required")
	}

	pg, err := db.Connect(cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}

	kafka, err := messaging.NewKafka(cfg.KafkaBrokers, logger)
	if err != nil {
		return nil, err
	}

	verifierModule := signatureverifier.NewModule(logger)
	ledgerModule := creditledger.NewModule(creditledger.Dependencies{
		Repository:  ledgerpostgres.NewRepository(pg.DB, logger),
		Clock:       ledgerpostgres.SystemClock{},
		IDGenerator: ledgerpostgres.UUIDGenerator{},
		Logger:      logger,
	})

	registryRepo := registrypostgres.NewRepository(pg.DB, logger)
	registryModule := authorizationregistry.NewModule(authorizationregistry.Dependencies{
		Requests:    registryRepo,
		Signatures:  registryRepo,
		Outbox:      registryRepo,
		OutboxRepo:  registryRepo,
		Publisher:   kafka,
		Ledger:      ledgerModule.Service,
		Verifier:    verifierModule.Service,
		Clock:       registrypostgres.SystemClock{},
		IDGenerator: registrypostgres.UUIDGenerator{},
		Operator:    cfg.MintingOperator,
		Logger:      logger,
	})

	return &WorkerApp{
		postgres: pg,
		outboxRelay: registryworkers.OutboxRelay{
			Outbox:    registryRepo,
			Publisher: kafka,
			Clock:     registrypostgres.SystemClock{},
			Topic:     "minting.lifecycle",
			BatchSize: 100,
			Logger:    logger,
		},
		expirer:      registryModule.Expirer,
		relayEnabled: cfg.EnableOutboxRelay,
		sweepEnabled: cfg.EnableRequestExpirer,
		pollInterval: 2 * time.Second,
		logger:       logger,
	}, nil
}

func (a *APIApp) Run(_ context.Context) error {
	if a.logger != nil {
		a.logger.Info("api app started",
			"event", "bootstrap_api_started",
			"module", "internal/app/bootstrap",
			"layer", "platform",
		)
	}
	return a.server.Start()
}

func (a *APIApp) Close() error {
	if a.postgres != nil {
		return a.postgres.Close()
	}
	return nil
}

func (w *WorkerApp) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	w.logger.Info("worker app started",
		"event", "bootstrap_worker_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"poll_interval", w.pollInterval.String(),
	)

	for {
		if w.sweepEnabled {
			if err := w.expirer.RunOnce(ctx); err != nil {
				return err
			}
		}
		if w.relayEnabled {
			if err := w.outboxRelay.RunOnce(ctx); err != nil {
				return err
			}
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (w *WorkerApp) Close() error {
	if w.postgres != nil {
		return w.postgres.Close()
	}
	return nil
}

func normalizeAddr(port string) string {
	value := strings.TrimSpace(port)
	if value == "" {
		return ":8080"
	}
	if strings.HasPrefix(value, ":") {
		return value
	}
	return ":" + value
}

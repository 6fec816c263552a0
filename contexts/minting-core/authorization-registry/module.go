package authorizationregistry

import (
	"log/slog"
	"sync/atomic"

	httpadapter "mintbox/contexts/minting-core/authorization-registry/adapters/http"
	"mintbox/contexts/minting-core/authorization-registry/adapters/memory"
	"mintbox/contexts/minting-core/authorization-registry/application"
	"mintbox/contexts/minting-core/authorization-registry/application/workers"
	"mintbox/contexts/minting-core/authorization-registry/ports"
)

type Module struct {
	Service     application.Service
	Handler     httpadapter.Handler
	OutboxRelay workers.OutboxRelay
	Expirer     workers.RequestExpirer
	Store       *memory.Store
}

type Dependencies struct {
	Requests    ports.RequestRepository
	Signatures  ports.SignatureRecordRepository
	Outbox      ports.OutboxWriter
	OutboxRepo  ports.OutboxRepository
	Publisher   ports.EventPublisher
	Ledger      ports.Ledger
	Verifier    ports.Verifier
	Clock       ports.Clock
	IDGenerator ports.IDGenerator
	Operator    string
	Logger      *slog.Logger
}

func NewModule(deps Dependencies) Module {
	service := application.Service{
		Requests:   deps.Requests,
		Signatures: deps.Signatures,
		Outbox:     deps.Outbox,
		Ledger:     deps.Ledger,
		Verifier:   deps.Verifier,
		Clock:      deps.Clock,
		IDGen:      deps.IDGenerator,
		Operator:   deps.Operator,
		Logger:     deps.Logger,
		Sequence:   &atomic.Uint64{},
	}

	module := Module{
		Service: service,
		Handler: httpadapter.Handler{Service: service, Logger: deps.Logger},
		Expirer: workers.RequestExpirer{Registry: service, Logger: deps.Logger},
	}
	if deps.OutboxRepo != nil && deps.Publisher != nil {
		module.OutboxRelay = workers.OutboxRelay{
			Outbox:    deps.OutboxRepo,
			Publisher: deps.Publisher,
			Clock:     deps.Clock,
			Logger:    deps.Logger,
		}
	}
	return module
}

func NewInMemoryModule(ledger ports.Ledger, verifier ports.Verifier, operator string, logger *slog.Logger) Module {
	store := memory.NewStore()
	module := NewModule(Dependencies{
		Requests:    store,
		Signatures:  store,
		Outbox:      store,
		OutboxRepo:  store,
		Ledger:      ledger,
		Verifier:    verifier,
		Clock:       store,
		IDGenerator: store,
		Operator:    operator,
		Logger:      logger,
	})
	module.Store = store
	return module
}

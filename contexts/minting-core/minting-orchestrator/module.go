package mintingorchestrator

import (
	"log/slog"

	httpadapter "mintbox/contexts/minting-core/minting-orchestrator/adapters/http"
	"mintbox/contexts/minting-core/minting-orchestrator/adapters/memory"
	"mintbox/contexts/minting-core/minting-orchestrator/application"
	"mintbox/contexts/minting-core/minting-orchestrator/ports"
)

type Module struct {
	Service application.Service
	Handler httpadapter.Handler
	Store   *memory.Store
}

type Dependencies struct {
	Artifacts   ports.ArtifactRepository
	Content     ports.ContentUploader
	Registry    ports.ProcessDriver
	Clock       ports.Clock
	IDGenerator ports.IDGenerator
	Operator    string
	Logger      *slog.Logger
}

func NewModule(deps Dependencies) Module {
	service := application.Service{
		Artifacts: deps.Artifacts,
		Content:   deps.Content,
		Registry:  deps.Registry,
		Clock:     deps.Clock,
		IDGen:     deps.IDGenerator,
		Operator:  deps.Operator,
		Logger:    deps.Logger,
		InFlight:  application.NewInFlightGuard(),
	}
	return Module{
		Service: service,
		Handler: httpadapter.Handler{Service: service, Logger: deps.Logger},
	}
}

func NewInMemoryModule(content ports.ContentUploader, registry ports.ProcessDriver, operator string, logger *slog.Logger) Module {
	store := memory.NewStore()
	module := NewModule(Dependencies{
		Artifacts:   store,
		Content:     content,
		Registry:    registry,
		Clock:       store,
		IDGenerator: store,
		Operator:    operator,
		Logger:      logger,
	})
	module.Store = store
	return module
}

package documenthasher

import (
	"log/slog"

	httpadapter "mintbox/contexts/minting-core/document-hasher/adapters/http"
	"mintbox/contexts/minting-core/document-hasher/application"
)

type Module struct {
	Service application.Service
	Handler httpadapter.Handler
}

func NewModule(logger *slog.Logger) Module {
	service := application.Service{Logger: logger}
	return Module{
		Service: service,
		Handler: httpadapter.Handler{Service: service, Logger: logger},
	}
}

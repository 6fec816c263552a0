package signatureverifier

import (
	"log/slog"

	"mintbox/contexts/minting-core/signature-verifier/application"
)

type Module struct {
	Service application.Service
}

func NewModule(logger *slog.Logger) Module {
	return Module{
		Service: application.Service{Logger: logger},
	}
}

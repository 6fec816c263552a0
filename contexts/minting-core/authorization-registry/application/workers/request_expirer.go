package workers

import (
	"context"
	"log/slog"

	"mintbox/contexts/minting-core/authorization-registry/application"
)

// RequestExpirer sweeps pending requests that crossed expires_at.
type RequestExpirer struct {
	Registry application.Service
	Logger   *slog.Logger
}

func (e RequestExpirer) RunOnce(ctx context.Context) error {
	logger := application.ResolveLogger(e.Logger)

	expired, err := e.Registry.ExpireSweep(ctx, nil)
	if err != nil {
		logger.Error("request expiry sweep failed",
			"event", "minting_request_expiry_failed",
			"module", "minting-core/authorization-registry",
			"layer", "worker",
			"error", err.Error(),
		)
		return err
	}
	if len(expired) > 0 {
		logger.Info("request expiry sweep completed",
			"event", "minting_request_expiry_completed",
			"module", "minting-core/authorization-registry",
			"layer", "worker",
			"expired_count", len(expired),
		)
	}
	return nil
}

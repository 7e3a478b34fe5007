package workers

import (
	"context"
	"log/slog"
	"time"

	application "rmas/contexts/membership/document-service/application"
	"rmas/contexts/membership/document-service/ports"
)

// OtpSweeper garbage-collects download-request rows whose code and token
// windows have both closed. Expired rows are never actionable; the sweep only
// reclaims storage.
type OtpSweeper struct {
	Otps   ports.OtpRepository
	Clock  ports.Clock
	Logger *slog.Logger
}

func (s OtpSweeper) RunOnce(ctx context.Context) error {
	logger := application.ResolveLogger(s.Logger)

	now := time.Now().UTC()
	if s.Clock != nil {
		now = s.Clock.Now().UTC()
	}

	removed, err := s.Otps.DeleteExpired(ctx, now)
	if err != nil {
		logger.Error("otp sweep failed",
			"event", "document_otp_sweep_failed",
			"module", "membership/document-service",
			"layer", "worker",
			"error", err.Error(),
		)
		return err
	}

	if removed > 0 {
		logger.Info("otp sweep cycle completed",
			"event", "document_otp_sweep_completed",
			"module", "membership/document-service",
			"layer", "worker",
			"removed_count", removed,
		)
	}
	return nil
}

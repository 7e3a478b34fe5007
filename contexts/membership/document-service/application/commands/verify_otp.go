package commands

import (
	"context"
	"log/slog"
	"strings"
	"time"

	application "rmas/contexts/membership/document-service/application"
	domainerrors "rmas/contexts/membership/document-service/domain/errors"
	"rmas/contexts/membership/document-service/ports"
)

type VerifyOtpCommand struct {
	Email string
	Code  string
}

type VerifyOtpResult struct {
	Token          string
	TokenExpiresAt time.Time
}

// VerifyOtpUseCase spends a one-time code and mints the download token. The
// verified flag flips in one conditional write, so two racing verifies with
// the same code yield exactly one token.
type VerifyOtpUseCase struct {
	Otps        ports.OtpRepository
	Tokens      ports.TokenGenerator
	Audit       ports.AuditSink
	Metrics     ports.FlowMetrics
	Clock       ports.Clock
	IDGenerator ports.IDGenerator
	// TokenTTL bounds the minted token; zero means the 15 minute default.
	TokenTTL time.Duration
	Logger   *slog.Logger
}

func (u VerifyOtpUseCase) Execute(ctx context.Context, cmd VerifyOtpCommand) (VerifyOtpResult, error) {
	logger := application.ResolveLogger(u.Logger)

	email := strings.ToLower(strings.TrimSpace(cmd.Email))
	code := strings.TrimSpace(cmd.Code)
	if email == "" || code == "" {
		return VerifyOtpResult{}, domainerrors.ErrValidation
	}

	now := u.Clock.Now().UTC()
	otp, found, err := u.Otps.LatestLiveOtp(ctx, email, code, now)
	if err != nil {
		return VerifyOtpResult{}, err
	}
	if !found {
		return VerifyOtpResult{}, domainerrors.ErrOtpInvalid
	}

	token, err := u.Tokens.NewToken(ctx)
	if err != nil {
		return VerifyOtpResult{}, err
	}
	tokenExpiresAt := now.Add(u.tokenTTL())

	ok, err := u.Otps.VerifyAndMintToken(ctx, otp.OtpID, token, now, tokenExpiresAt)
	if err != nil {
		return VerifyOtpResult{}, err
	}
	if !ok {
		// Lost the race to a concurrent verify; the code is already spent.
		return VerifyOtpResult{}, domainerrors.ErrOtpInvalid
	}

	logger.Info("download otp verified",
		"event", "document_otp_verified",
		"module", "membership/document-service",
		"layer", "application",
		"otp_id", otp.OtpID,
	)
	u.recordAudit(ctx, email, "download_otp_verified", otp.OtpID)
	if u.Metrics != nil {
		u.Metrics.OtpTransition("verified")
	}

	return VerifyOtpResult{Token: token, TokenExpiresAt: tokenExpiresAt}, nil
}

func (u VerifyOtpUseCase) tokenTTL() time.Duration {
	if u.TokenTTL > 0 {
		return u.TokenTTL
	}
	return 15 * time.Minute
}

func (u VerifyOtpUseCase) recordAudit(ctx context.Context, email string, action string, targetID string) {
	if u.Audit == nil {
		return
	}
	eventID, err := u.IDGenerator.NewID(ctx)
	if err != nil {
		return
	}
	_ = u.Audit.Record(ctx, ports.AuditEvent{
		EventID:    eventID,
		ActorEmail: email,
		Action:     action,
		TargetID:   targetID,
		OccurredAt: u.Clock.Now().UTC(),
	})
}

package commands

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	application "rmas/contexts/membership/document-service/application"
	"rmas/contexts/membership/document-service/domain/entities"
	domainerrors "rmas/contexts/membership/document-service/domain/errors"
	"rmas/contexts/membership/document-service/ports"
)

type RequestDownloadCommand struct {
	Email string
	// Name is an optional cross-check against the on-file full name.
	Name string
}

// RequestDownloadUseCase opens the download flow for a registered email. All
// rejection causes collapse into one generic error so the endpoint cannot be
// used to enumerate registered addresses.
type RequestDownloadUseCase struct {
	Otps        ports.OtpRepository
	Members     ports.MembershipReader
	Codes       ports.CodeGenerator
	Mailer      ports.Mailer
	Audit       ports.AuditSink
	Metrics     ports.FlowMetrics
	Clock       ports.Clock
	IDGenerator ports.IDGenerator
	// OtpTTL bounds the code's life; zero means the 10 minute default.
	OtpTTL time.Duration
	// RequestWindow and RequestLimit throttle per-email requests; zero means
	// 5 per hour.
	RequestWindow time.Duration
	RequestLimit  int
	Logger        *slog.Logger
}

func (u RequestDownloadUseCase) Execute(ctx context.Context, cmd RequestDownloadCommand) error {
	logger := application.ResolveLogger(u.Logger)

	email := strings.ToLower(strings.TrimSpace(cmd.Email))
	if email == "" {
		return domainerrors.ErrValidation
	}

	now := u.Clock.Now().UTC()
	count, err := u.Otps.CountRequestsSince(ctx, email, now.Add(-u.requestWindow()))
	if err != nil {
		return err
	}
	if count >= u.requestLimit() {
		logger.Warn("download request throttled",
			"event", "document_request_throttled",
			"module", "membership/document-service",
			"layer", "application",
		)
		return domainerrors.ErrRequestRejected
	}

	member, found, err := u.Members.AcceptedByEmail(ctx, email)
	if err != nil {
		return err
	}
	if !found || (strings.TrimSpace(cmd.Name) != "" && !member.NameMatches(cmd.Name)) {
		// Same rejection as the throttle; the caller learns nothing about
		// whether the email is registered.
		return domainerrors.ErrRequestRejected
	}

	code, err := u.Codes.NewCode(ctx)
	if err != nil {
		return err
	}
	otpID, err := u.IDGenerator.NewID(ctx)
	if err != nil {
		return err
	}
	otp := entities.DownloadOtp{
		OtpID:     otpID,
		Email:     email,
		Code:      code,
		ExpiresAt: now.Add(u.otpTTL()),
		CreatedAt: now,
	}
	if err := u.Otps.CreateOtp(ctx, otp); err != nil {
		return err
	}

	logger.Info("download otp issued",
		"event", "document_otp_issued",
		"module", "membership/document-service",
		"layer", "application",
		"otp_id", otpID,
		"membership_id", member.MembershipID,
	)
	u.recordAudit(ctx, email, "download_otp_requested", member.MembershipID, "")
	if u.Metrics != nil {
		u.Metrics.OtpTransition("requested")
	}

	// The code is persisted before the email leaves; delivery failure is the
	// member's to retry, not a state rollback.
	if err := u.Mailer.Send(ctx, ports.MailMessage{
		To:      email,
		Subject: "Your document download code",
		Body:    fmt.Sprintf("Dear %s, your one-time code is %s. It expires in %d minutes.", member.FullName, code, int(u.otpTTL().Minutes())),
	}); err != nil {
		logger.Error("otp email failed",
			"event", "document_otp_email_failed",
			"module", "membership/document-service",
			"layer", "application",
			"otp_id", otpID,
			"error", err.Error(),
		)
	}
	return nil
}

func (u RequestDownloadUseCase) otpTTL() time.Duration {
	if u.OtpTTL > 0 {
		return u.OtpTTL
	}
	return 10 * time.Minute
}

func (u RequestDownloadUseCase) requestWindow() time.Duration {
	if u.RequestWindow > 0 {
		return u.RequestWindow
	}
	return time.Hour
}

func (u RequestDownloadUseCase) requestLimit() int {
	if u.RequestLimit > 0 {
		return u.RequestLimit
	}
	return 5
}

func (u RequestDownloadUseCase) recordAudit(ctx context.Context, email string, action string, targetID string, detail string) {
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
		Detail:     detail,
		OccurredAt: u.Clock.Now().UTC(),
	})
}

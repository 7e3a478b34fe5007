package commands

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	application "rmas/contexts/membership/document-service/application"
	"rmas/contexts/membership/document-service/domain/entities"
	domainerrors "rmas/contexts/membership/document-service/domain/errors"
	"rmas/contexts/membership/document-service/ports"
)

type GenerateDocumentCommand struct {
	Token string
	Kind  string
}

type GenerateDocumentResult struct {
	FileName string
	Content  []byte
}

// GenerateDocumentUseCase releases the sensitive artifact. The token is
// re-validated here regardless of any earlier profile view, and the member
// record is re-fetched fresh. A render failure leaves the token usable so the
// member can retry.
type GenerateDocumentUseCase struct {
	Otps        ports.OtpRepository
	Members     ports.MembershipReader
	Renderer    ports.DocumentRenderer
	Audit       ports.AuditSink
	Metrics     ports.FlowMetrics
	Clock       ports.Clock
	IDGenerator ports.IDGenerator
	Logger      *slog.Logger
}

func (u GenerateDocumentUseCase) Execute(ctx context.Context, cmd GenerateDocumentCommand) (GenerateDocumentResult, error) {
	logger := application.ResolveLogger(u.Logger)

	token := strings.TrimSpace(cmd.Token)
	kind := entities.DocumentKind(strings.TrimSpace(cmd.Kind))
	if token == "" || !kind.Valid() {
		return GenerateDocumentResult{}, domainerrors.ErrValidation
	}

	now := u.Clock.Now().UTC()
	otp, found, err := u.Otps.GetByToken(ctx, token)
	if err != nil {
		return GenerateDocumentResult{}, err
	}
	if !found || !otp.TokenValid(now) {
		return GenerateDocumentResult{}, domainerrors.ErrTokenInvalid
	}

	member, found, err := u.Members.AcceptedByEmail(ctx, otp.Email)
	if err != nil {
		return GenerateDocumentResult{}, err
	}
	if !found {
		return GenerateDocumentResult{}, domainerrors.ErrTokenInvalid
	}

	content, err := u.Renderer.Render(ctx, kind, member)
	if err != nil {
		logger.Error("document render failed",
			"event", "document_render_failed",
			"module", "membership/document-service",
			"layer", "application",
			"membership_id", member.MembershipID,
			"kind", string(kind),
			"error", err.Error(),
		)
		u.recordAudit(ctx, otp.Email, "document_render_failed", member.MembershipID,
			fmt.Sprintf("kind=%s", kind))
		if u.Metrics != nil {
			u.Metrics.RenderFailed()
		}
		return GenerateDocumentResult{}, domainerrors.ErrRenderFailed
	}

	// The audit record lands before any byte reaches the caller.
	u.recordAudit(ctx, otp.Email, "document_downloaded", member.MembershipID,
		fmt.Sprintf("kind=%s bytes=%d", kind, len(content)))
	if u.Metrics != nil {
		u.Metrics.DocumentReleased(string(kind))
	}
	logger.Info("document generated",
		"event", "document_generated",
		"module", "membership/document-service",
		"layer", "application",
		"membership_id", member.MembershipID,
		"kind", string(kind),
		"bytes", len(content),
	)

	return GenerateDocumentResult{
		FileName: documentFileName(kind, member.MembershipID),
		Content:  content,
	}, nil
}

func documentFileName(kind entities.DocumentKind, membershipID string) string {
	base := strings.ReplaceAll(membershipID, "/", "_")
	if base == "" {
		base = "document"
	}
	return fmt.Sprintf("%s_%s.pdf", base, kind)
}

func (u GenerateDocumentUseCase) recordAudit(ctx context.Context, email string, action string, targetID string, detail string) {
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

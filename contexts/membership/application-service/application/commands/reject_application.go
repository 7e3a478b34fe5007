package commands

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	application "rmas/contexts/membership/application-service/application"
	"rmas/contexts/membership/application-service/domain/entities"
	domainerrors "rmas/contexts/membership/application-service/domain/errors"
	"rmas/contexts/membership/application-service/ports"
)

type RejectApplicationCommand struct {
	ApplicationID string
	Reason        string
}

type RejectApplicationResult struct {
	Application entities.Application
}

// RejectApplicationUseCase runs the pending-to-rejected transition. Symmetric
// to accept minus the artifact; the applicant is notified best-effort when an
// address is on file.
type RejectApplicationUseCase struct {
	Applications ports.ApplicationRepository
	Authorizer   ports.Authorizer
	Mailer       ports.Mailer
	Audit        ports.AuditSink
	Clock        ports.Clock
	IDGenerator  ports.IDGenerator
	Logger       *slog.Logger
}

func (u RejectApplicationUseCase) Execute(
	ctx context.Context,
	actor entities.Actor,
	cmd RejectApplicationCommand,
) (RejectApplicationResult, error) {
	logger := application.ResolveLogger(u.Logger)
	applicationID := strings.TrimSpace(cmd.ApplicationID)
	if applicationID == "" {
		return RejectApplicationResult{}, domainerrors.ErrInvalidApplication
	}

	app, err := u.Applications.GetApplication(ctx, applicationID)
	if err != nil {
		return RejectApplicationResult{}, err
	}
	if !u.Authorizer.CanPerformActions(ctx, actor, app.Location) {
		return RejectApplicationResult{}, domainerrors.ErrForbidden
	}
	if app.Status.Terminal() {
		return RejectApplicationResult{}, domainerrors.ErrAlreadyDecided
	}

	now := u.Clock.Now().UTC()
	note := strings.TrimSpace(cmd.Reason)
	if note == "" {
		note = "Rejected"
	}
	historyID, err := u.IDGenerator.NewID(ctx)
	if err != nil {
		return RejectApplicationResult{}, err
	}
	eventID, err := u.IDGenerator.NewID(ctx)
	if err != nil {
		return RejectApplicationResult{}, err
	}

	app.Status = entities.ApplicationStatusRejected
	app.RejectedAt = &now
	app.UpdatedAt = now

	history := entities.HistoryEntry{
		HistoryID:     historyID,
		ApplicationID: applicationID,
		ActorID:       actor.AdminID,
		ActorRole:     actor.Role,
		Action:        entities.HistoryActionRejected,
		Note:          note,
		CreatedAt:     now,
	}
	event, err := newApplicationEnvelope(eventID, rejectedEventType, applicationID, now, map[string]any{
		"application_id": applicationID,
		"district":       app.Location.District,
		"rejected_by":    actor.AdminID,
		"reason":         note,
	})
	if err != nil {
		return RejectApplicationResult{}, err
	}

	if err := u.Applications.TransitionStatus(ctx, app, history, event); err != nil {
		return RejectApplicationResult{}, err
	}

	logger.Info("application rejected",
		"event", "membership_application_rejected",
		"module", "membership/application-service",
		"layer", "application",
		"application_id", applicationID,
		"admin_id", actor.AdminID,
	)

	if u.Audit != nil {
		if auditID, auditErr := u.IDGenerator.NewID(ctx); auditErr == nil {
			_ = u.Audit.Record(ctx, ports.AuditEvent{
				EventID:    auditID,
				ActorID:    actor.AdminID,
				Action:     "application_rejected",
				TargetType: "application",
				TargetID:   applicationID,
				Detail:     note,
				OccurredAt: now,
			})
		}
	}

	if app.Email != "" {
		if mailErr := u.Mailer.Send(ctx, ports.MailMessage{
			To:      app.Email,
			Subject: "Membership application update",
			Body:    fmt.Sprintf("Dear %s, your membership application could not be approved. Reason: %s", app.FullName, note),
		}); mailErr != nil {
			logger.Error("rejection email failed",
				"event", "membership_reject_email_failed",
				"module", "membership/application-service",
				"layer", "application",
				"application_id", applicationID,
				"error", mailErr.Error(),
			)
		}
	}

	return RejectApplicationResult{Application: app}, nil
}

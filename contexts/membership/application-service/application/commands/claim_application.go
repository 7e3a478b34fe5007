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

type ClaimApplicationCommand struct {
	ApplicationID string
}

type ClaimApplicationResult struct {
	Application entities.Application
}

// ClaimApplicationUseCase sets the claiming administrator on a pending
// application. The check-and-set runs as one conditional update in the
// repository so exactly one of two racing claims wins.
type ClaimApplicationUseCase struct {
	Applications ports.ApplicationRepository
	Authorizer   ports.Authorizer
	Audit        ports.AuditSink
	Clock        ports.Clock
	IDGenerator  ports.IDGenerator
	Logger       *slog.Logger
}

func (u ClaimApplicationUseCase) Execute(
	ctx context.Context,
	actor entities.Actor,
	cmd ClaimApplicationCommand,
) (ClaimApplicationResult, error) {
	logger := application.ResolveLogger(u.Logger)
	applicationID := strings.TrimSpace(cmd.ApplicationID)
	if applicationID == "" {
		return ClaimApplicationResult{}, domainerrors.ErrInvalidApplication
	}

	app, err := u.Applications.GetApplication(ctx, applicationID)
	if err != nil {
		return ClaimApplicationResult{}, err
	}
	if !u.Authorizer.CanPerformActions(ctx, actor, app.Location) {
		return ClaimApplicationResult{}, domainerrors.ErrForbidden
	}

	historyID, err := u.IDGenerator.NewID(ctx)
	if err != nil {
		return ClaimApplicationResult{}, err
	}
	now := u.Clock.Now().UTC()
	history := entities.HistoryEntry{
		HistoryID:     historyID,
		ApplicationID: applicationID,
		ActorID:       actor.AdminID,
		ActorRole:     actor.Role,
		Action:        entities.HistoryActionClaimed,
		Note:          fmt.Sprintf("Claimed by %s", actor.AdminID),
		CreatedAt:     now,
	}

	claimed, err := u.Applications.ClaimApplication(ctx, applicationID, actor.AdminID, history)
	if err != nil {
		if err == domainerrors.ErrAlreadyClaimed {
			logger.Warn("application claim lost race",
				"event", "membership_claim_conflict",
				"module", "membership/application-service",
				"layer", "application",
				"application_id", applicationID,
				"admin_id", actor.AdminID,
			)
		}
		return ClaimApplicationResult{}, err
	}

	if u.Audit != nil {
		auditID, auditErr := u.IDGenerator.NewID(ctx)
		if auditErr == nil {
			auditErr = u.Audit.Record(ctx, ports.AuditEvent{
				EventID:    auditID,
				ActorID:    actor.AdminID,
				Action:     "application_claimed",
				TargetType: "application",
				TargetID:   applicationID,
				OccurredAt: now,
			})
		}
		if auditErr != nil {
			logger.Warn("claim audit record failed",
				"event", "membership_claim_audit_failed",
				"module", "membership/application-service",
				"layer", "application",
				"application_id", applicationID,
				"error", auditErr.Error(),
			)
		}
	}

	logger.Info("application claimed",
		"event", "membership_application_claimed",
		"module", "membership/application-service",
		"layer", "application",
		"application_id", applicationID,
		"admin_id", actor.AdminID,
	)
	return ClaimApplicationResult{Application: claimed}, nil
}

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

type AssignApplicationCommand struct {
	ApplicationID string
	// AssigneeID is the admin to hand the application to; empty clears the
	// assignment.
	AssigneeID string
}

// AssignApplicationUseCase sets or clears the assignee on a pending
// application within the actor's scope. Unlike claim this is a directed
// hand-off, not a first-wins race.
type AssignApplicationUseCase struct {
	Applications ports.ApplicationRepository
	Authorizer   ports.Authorizer
	Clock        ports.Clock
	IDGenerator  ports.IDGenerator
	Logger       *slog.Logger
}

func (u AssignApplicationUseCase) Execute(ctx context.Context, actor entities.Actor, cmd AssignApplicationCommand) error {
	logger := application.ResolveLogger(u.Logger)
	applicationID := strings.TrimSpace(cmd.ApplicationID)
	assigneeID := strings.TrimSpace(cmd.AssigneeID)
	if applicationID == "" {
		return domainerrors.ErrInvalidApplication
	}

	app, err := u.Applications.GetApplication(ctx, applicationID)
	if err != nil {
		return err
	}
	if !u.Authorizer.CanPerformActions(ctx, actor, app.Location) {
		return domainerrors.ErrForbidden
	}
	if app.Status.Terminal() {
		return domainerrors.ErrAlreadyDecided
	}

	historyID, err := u.IDGenerator.NewID(ctx)
	if err != nil {
		return err
	}
	now := u.Clock.Now().UTC()

	action := entities.HistoryActionAssigned
	note := fmt.Sprintf("Assigned to %s", assigneeID)
	if assigneeID == "" {
		action = entities.HistoryActionUnassigned
		note = "Assignment cleared"
	}

	if err := u.Applications.UpdateAssignee(ctx, applicationID, assigneeID, entities.HistoryEntry{
		HistoryID:     historyID,
		ApplicationID: applicationID,
		ActorID:       actor.AdminID,
		ActorRole:     actor.Role,
		Action:        action,
		Note:          note,
		CreatedAt:     now,
	}); err != nil {
		return err
	}

	logger.Info("application assignment updated",
		"event", "membership_application_assigned",
		"module", "membership/application-service",
		"layer", "application",
		"application_id", applicationID,
		"assignee_id", assigneeID,
		"admin_id", actor.AdminID,
	)
	return nil
}

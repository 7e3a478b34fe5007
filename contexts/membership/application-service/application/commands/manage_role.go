package commands

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	application "rmas/contexts/membership/application-service/application"
	"rmas/contexts/membership/application-service/domain/entities"
	domainerrors "rmas/contexts/membership/application-service/domain/errors"
	"rmas/contexts/membership/application-service/domain/services"
	"rmas/contexts/membership/application-service/ports"
)

type ManageRoleCommand struct {
	ApplicationID string
	Category      string
	RoleCode      string
	TeamType      string
	Level         string
	State         string
	Division      string
	District      string
	Block         string
	Reason        string
}

type ManageRoleResult struct {
	Application entities.Application
	Assignment  entities.RoleAssignment
}

// ManageRoleUseCase writes the single current role assignment of an accepted
// member. A missing membership id is backfilled in the same transaction; the
// member is then pointed at the document download flow by email, best-effort.
type ManageRoleUseCase struct {
	Applications ports.ApplicationRepository
	Authorizer   ports.Authorizer
	Roles        ports.RoleCatalog
	Mailer       ports.Mailer
	Clock        ports.Clock
	IDGenerator  ports.IDGenerator
	// AppBaseURL prefixes the download link in the notification email.
	AppBaseURL string
	Logger     *slog.Logger
}

func (u ManageRoleUseCase) Execute(
	ctx context.Context,
	actor entities.Actor,
	cmd ManageRoleCommand,
) (ManageRoleResult, error) {
	logger := application.ResolveLogger(u.Logger)

	applicationID := strings.TrimSpace(cmd.ApplicationID)
	category := strings.TrimSpace(cmd.Category)
	roleCode := strings.TrimSpace(cmd.RoleCode)
	teamType := entities.TeamType(strings.TrimSpace(cmd.TeamType))
	level := entities.Level(strings.TrimSpace(cmd.Level))
	reason := strings.TrimSpace(cmd.Reason)

	if applicationID == "" || category == "" || roleCode == "" || reason == "" ||
		!teamType.Valid() || !level.Valid() {
		return ManageRoleResult{}, domainerrors.ErrInvalidApplication
	}

	app, err := u.Applications.GetApplication(ctx, applicationID)
	if err != nil {
		return ManageRoleResult{}, err
	}
	if app.Status != entities.ApplicationStatusAccepted {
		return ManageRoleResult{}, domainerrors.ErrNotAccepted
	}
	if !u.Authorizer.CanAssignRole(ctx, actor, app.Location, string(teamType)) {
		return ManageRoleResult{}, domainerrors.ErrForbidden
	}

	role, found, err := u.Roles.Lookup(ctx, category, roleCode)
	if err != nil {
		return ManageRoleResult{}, err
	}
	if !found {
		return ManageRoleResult{}, domainerrors.ErrInvalidRole
	}

	location := roleLocation(level, cmd)
	now := u.Clock.Now().UTC()

	assignment := entities.RoleAssignment{
		ApplicationID: applicationID,
		Category:      category,
		RoleCode:      role.Code,
		RoleName:      role.Name,
		TeamType:      teamType,
		Level:         level,
		Location:      location,
		Reason:        reason,
		AssignedBy:    actor.AdminID,
		AssignedAt:    now,
	}

	historyID, err := u.IDGenerator.NewID(ctx)
	if err != nil {
		return ManageRoleResult{}, err
	}
	locationSuffix := ""
	if location != "" {
		locationSuffix = " - " + location
	}
	history := []entities.HistoryEntry{{
		HistoryID:     historyID,
		ApplicationID: applicationID,
		ActorID:       actor.AdminID,
		ActorRole:     actor.Role,
		Action:        entities.HistoryActionRoleAssigned,
		Note:          fmt.Sprintf("Assigned: %s (%s%s) - %s", role.Name, level, locationSuffix, reason),
		CreatedAt:     now,
	}}

	// Older accepted rows can predate id minting; backfill inside the same
	// write boundary.
	if app.MembershipID == "" {
		serial, err := u.Applications.NextMembershipSerial(ctx, services.DistrictCode(app.Location.District), now.Year())
		if err != nil {
			return ManageRoleResult{}, err
		}
		app.MembershipID = services.FormatMembershipID(app.Location.District, now.Year(), serial)
		backfillID, err := u.IDGenerator.NewID(ctx)
		if err != nil {
			return ManageRoleResult{}, err
		}
		history = append(history, entities.HistoryEntry{
			HistoryID:     backfillID,
			ApplicationID: applicationID,
			ActorID:       actor.AdminID,
			ActorRole:     actor.Role,
			Action:        entities.HistoryActionMembershipIDGenerated,
			Note:          fmt.Sprintf("Generated ID %s", app.MembershipID),
			CreatedAt:     now,
		})
	}

	eventID, err := u.IDGenerator.NewID(ctx)
	if err != nil {
		return ManageRoleResult{}, err
	}
	event, err := newApplicationEnvelope(eventID, roleAssignedEventType, applicationID, now, map[string]any{
		"application_id": applicationID,
		"membership_id":  app.MembershipID,
		"role":           role.Code,
		"role_name":      role.Name,
		"team_type":      string(teamType),
		"level":          string(level),
		"location":       location,
		"assigned_by":    actor.AdminID,
	})
	if err != nil {
		return ManageRoleResult{}, err
	}

	app.UpdatedAt = now
	if err := u.Applications.SaveRoleAssignment(ctx, app, assignment, history, event); err != nil {
		return ManageRoleResult{}, err
	}

	logger.Info("role assigned",
		"event", "membership_role_assigned",
		"module", "membership/application-service",
		"layer", "application",
		"application_id", applicationID,
		"membership_id", app.MembershipID,
		"role", role.Code,
		"team_type", string(teamType),
		"admin_id", actor.AdminID,
	)

	u.notifyDownload(ctx, actor, app, role.Name)

	return ManageRoleResult{Application: app, Assignment: assignment}, nil
}

func roleLocation(level entities.Level, cmd ManageRoleCommand) string {
	switch level {
	case entities.LevelState:
		return strings.TrimSpace(cmd.State)
	case entities.LevelDivision:
		return strings.TrimSpace(cmd.Division)
	case entities.LevelDistrict:
		return strings.TrimSpace(cmd.District)
	case entities.LevelBlock:
		return strings.TrimSpace(cmd.Block)
	}
	return ""
}

// notifyDownload emails the member a link to the OTP download flow. No PDF is
// attached here; the member pulls documents through the gated flow.
func (u ManageRoleUseCase) notifyDownload(
	ctx context.Context,
	actor entities.Actor,
	app entities.Application,
	roleName string,
) {
	logger := application.ResolveLogger(u.Logger)

	if app.Email == "" {
		u.appendBestEffortHistory(ctx, actor, app.ApplicationID, entities.HistoryActionNoEmailOnFile,
			"No email to notify member for downloads")
		return
	}

	link := downloadURL(u.AppBaseURL, app.Email)
	err := u.Mailer.Send(ctx, ports.MailMessage{
		To:      app.Email,
		Subject: fmt.Sprintf("Your %s role has been assigned", roleName),
		Body: fmt.Sprintf(
			"Dear %s, you have been assigned the role %s. Download your joining letter and ID card here: %s",
			app.FullName, roleName, link,
		),
	})
	if err != nil {
		logger.Error("download notification email failed",
			"event", "membership_role_email_failed",
			"module", "membership/application-service",
			"layer", "application",
			"application_id", app.ApplicationID,
			"error", err.Error(),
		)
		u.appendBestEffortHistory(ctx, actor, app.ApplicationID, entities.HistoryActionEmailFailed,
			"Download notification email could not be sent")
		return
	}
	u.appendBestEffortHistory(ctx, actor, app.ApplicationID, entities.HistoryActionDownloadEmailSent,
		"Member notified to download documents")
}

func (u ManageRoleUseCase) appendBestEffortHistory(
	ctx context.Context,
	actor entities.Actor,
	applicationID string,
	action entities.HistoryAction,
	note string,
) {
	historyID, err := u.IDGenerator.NewID(ctx)
	if err != nil {
		return
	}
	_ = u.Applications.AppendHistory(ctx, entities.HistoryEntry{
		HistoryID:     historyID,
		ApplicationID: applicationID,
		ActorID:       actor.AdminID,
		ActorRole:     actor.Role,
		Action:        action,
		Note:          note,
		CreatedAt:     u.Clock.Now().UTC(),
	})
}

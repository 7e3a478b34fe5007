package commands

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	application "rmas/contexts/membership/application-service/application"
	"rmas/contexts/membership/application-service/domain/entities"
	domainerrors "rmas/contexts/membership/application-service/domain/errors"
	"rmas/contexts/membership/application-service/domain/services"
	"rmas/contexts/membership/application-service/ports"
)

type AcceptApplicationCommand struct {
	ApplicationID string
	Note          string
	// Legacy single-role assignment carried on the accept form. Honored only
	// when the actor may assign roles; ignored otherwise.
	JobRole  string
	TeamType string
}

type AcceptApplicationResult struct {
	Application entities.Application
}

// AcceptApplicationUseCase runs the pending-to-accepted transition. The status
// change, membership id, history entry, and outbox event commit together;
// letter rendering and the acceptance email are best-effort side effects that
// never fail the accept.
type AcceptApplicationUseCase struct {
	Applications ports.ApplicationRepository
	Authorizer   ports.Authorizer
	Letters      ports.LetterRenderer
	Mailer       ports.Mailer
	Audit        ports.AuditSink
	Clock        ports.Clock
	IDGenerator  ports.IDGenerator
	// AppBaseURL prefixes the public verification URL in the letter QR code.
	AppBaseURL string
	Logger     *slog.Logger
}

func (u AcceptApplicationUseCase) Execute(
	ctx context.Context,
	actor entities.Actor,
	cmd AcceptApplicationCommand,
) (AcceptApplicationResult, error) {
	logger := application.ResolveLogger(u.Logger)
	applicationID := strings.TrimSpace(cmd.ApplicationID)
	if applicationID == "" {
		return AcceptApplicationResult{}, domainerrors.ErrInvalidApplication
	}

	app, err := u.Applications.GetApplication(ctx, applicationID)
	if err != nil {
		return AcceptApplicationResult{}, err
	}
	if !u.Authorizer.CanPerformActions(ctx, actor, app.Location) {
		return AcceptApplicationResult{}, domainerrors.ErrForbidden
	}
	if app.Status.Terminal() {
		return AcceptApplicationResult{}, domainerrors.ErrAlreadyDecided
	}

	now := u.Clock.Now().UTC()

	// Membership id is minted exactly once; a backfilled id survives.
	if app.MembershipID == "" {
		serial, err := u.Applications.NextMembershipSerial(ctx, services.DistrictCode(app.Location.District), now.Year())
		if err != nil {
			return AcceptApplicationResult{}, err
		}
		app.MembershipID = services.FormatMembershipID(app.Location.District, now.Year(), serial)
	}

	note := strings.TrimSpace(cmd.Note)
	if note == "" {
		note = "Accepted"
	}
	historyID, err := u.IDGenerator.NewID(ctx)
	if err != nil {
		return AcceptApplicationResult{}, err
	}
	eventID, err := u.IDGenerator.NewID(ctx)
	if err != nil {
		return AcceptApplicationResult{}, err
	}

	app.Status = entities.ApplicationStatusAccepted
	app.AcceptedAt = &now
	app.UpdatedAt = now

	history := entities.HistoryEntry{
		HistoryID:     historyID,
		ApplicationID: applicationID,
		ActorID:       actor.AdminID,
		ActorRole:     actor.Role,
		Action:        entities.HistoryActionAccepted,
		Note:          note,
		CreatedAt:     now,
	}
	event, err := newApplicationEnvelope(eventID, acceptedEventType, applicationID, now, map[string]any{
		"application_id": applicationID,
		"membership_id":  app.MembershipID,
		"district":       app.Location.District,
		"accepted_by":    actor.AdminID,
	})
	if err != nil {
		return AcceptApplicationResult{}, err
	}

	// Transaction of record. A concurrent decision loses here, not later.
	if err := u.Applications.TransitionStatus(ctx, app, history, event); err != nil {
		return AcceptApplicationResult{}, err
	}

	logger.Info("application accepted",
		"event", "membership_application_accepted",
		"module", "membership/application-service",
		"layer", "application",
		"application_id", applicationID,
		"membership_id", app.MembershipID,
		"admin_id", actor.AdminID,
	)
	u.recordAudit(ctx, actor.AdminID, "application_accepted", app, "")

	if jobRole, teamType := strings.TrimSpace(cmd.JobRole), strings.TrimSpace(cmd.TeamType); jobRole != "" && teamType != "" {
		u.assignLegacyRole(ctx, actor, &app, jobRole, teamType, note)
	}

	u.deliverLetter(ctx, actor, &app)

	return AcceptApplicationResult{Application: app}, nil
}

// assignLegacyRole converts the accept form's legacy jobRole/teamType pair
// into a canonical role assignment. Denied or failed assignment is logged and
// skipped; the accept stands.
func (u AcceptApplicationUseCase) assignLegacyRole(
	ctx context.Context,
	actor entities.Actor,
	app *entities.Application,
	jobRole string,
	teamType string,
	note string,
) {
	logger := application.ResolveLogger(u.Logger)
	if !u.Authorizer.CanAssignRole(ctx, actor, app.Location, teamType) {
		logger.Warn("legacy role assignment denied during accept",
			"event", "membership_accept_role_denied",
			"module", "membership/application-service",
			"layer", "application",
			"application_id", app.ApplicationID,
			"admin_id", actor.AdminID,
		)
		return
	}

	now := u.Clock.Now().UTC()
	historyID, err := u.IDGenerator.NewID(ctx)
	if err != nil {
		return
	}
	eventID, err := u.IDGenerator.NewID(ctx)
	if err != nil {
		return
	}

	assignment := entities.RoleAssignment{
		ApplicationID: app.ApplicationID,
		Category:      "karyakarini",
		RoleCode:      jobRole,
		RoleName:      jobRole,
		TeamType:      entities.TeamType(teamType),
		Level:         entities.LevelState,
		Location:      app.Location.State,
		Reason:        note,
		AssignedBy:    actor.AdminID,
		AssignedAt:    now,
	}
	history := []entities.HistoryEntry{{
		HistoryID:     historyID,
		ApplicationID: app.ApplicationID,
		ActorID:       actor.AdminID,
		ActorRole:     actor.Role,
		Action:        entities.HistoryActionRoleAssigned,
		Note:          fmt.Sprintf("Assigned (legacy) %s in %s team", jobRole, teamType),
		CreatedAt:     now,
	}}
	event, err := newApplicationEnvelope(eventID, roleAssignedEventType, app.ApplicationID, now, map[string]any{
		"application_id": app.ApplicationID,
		"membership_id":  app.MembershipID,
		"role":           jobRole,
		"team_type":      teamType,
		"assigned_by":    actor.AdminID,
	})
	if err != nil {
		return
	}

	app.UpdatedAt = now
	if err := u.Applications.SaveRoleAssignment(ctx, *app, assignment, history, event); err != nil {
		logger.Error("legacy role assignment failed during accept",
			"event", "membership_accept_role_failed",
			"module", "membership/application-service",
			"layer", "application",
			"application_id", app.ApplicationID,
			"error", err.Error(),
		)
	}
}

// deliverLetter renders and emails the joining letter. Failures append their
// own history notes and never unwind the accept.
func (u AcceptApplicationUseCase) deliverLetter(ctx context.Context, actor entities.Actor, app *entities.Application) {
	logger := application.ResolveLogger(u.Logger)
	now := u.Clock.Now().UTC()

	letter, err := u.Letters.RenderJoiningLetter(ctx, ports.JoiningLetterData{
		MembershipID: app.MembershipID,
		FullName:     app.FullName,
		FatherName:   app.FatherName,
		TeamType:     string(app.TeamType),
		District:     app.Location.District,
		Division:     app.Location.Division,
		State:        app.Location.State,
		QRPayload:    verifyURL(u.AppBaseURL, app.MembershipID),
		IssuedAt:     now,
	})
	if err != nil {
		logger.Error("joining letter render failed",
			"event", "membership_letter_render_failed",
			"module", "membership/application-service",
			"layer", "application",
			"application_id", app.ApplicationID,
			"membership_id", app.MembershipID,
			"error", err.Error(),
		)
		u.appendBestEffortHistory(ctx, actor, app.ApplicationID, entities.HistoryActionLetterFailed,
			fmt.Sprintf("Joining letter generation failed: %s", err.Error()))
		return
	}

	if app.Email == "" {
		u.appendBestEffortHistory(ctx, actor, app.ApplicationID, entities.HistoryActionNoEmailOnFile,
			"No email on file for joining letter delivery")
		return
	}

	mailErr := u.Mailer.Send(ctx, ports.MailMessage{
		To:             app.Email,
		Subject:        fmt.Sprintf("Membership accepted - %s", app.MembershipID),
		Body:           fmt.Sprintf("Dear %s, your membership application has been accepted. Your membership id is %s. Your joining letter is attached.", app.FullName, app.MembershipID),
		Attachment:     letter,
		AttachmentName: strings.ReplaceAll(app.MembershipID, "/", "_") + ".pdf",
	})
	if mailErr != nil {
		logger.Error("acceptance email failed",
			"event", "membership_accept_email_failed",
			"module", "membership/application-service",
			"layer", "application",
			"application_id", app.ApplicationID,
			"error", mailErr.Error(),
		)
		u.appendBestEffortHistory(ctx, actor, app.ApplicationID, entities.HistoryActionEmailFailed,
			"Acceptance email could not be sent")
		return
	}

	// The letter left as an attachment; the durable retrieval path is the
	// member's gated download portal. Best-effort metadata, not part of the
	// accept transaction.
	if err := u.Applications.UpdateLetterURL(ctx, app.ApplicationID, downloadURL(u.AppBaseURL, app.Email), now); err != nil {
		logger.Warn("letter url update failed",
			"event", "membership_letter_url_update_failed",
			"module", "membership/application-service",
			"layer", "application",
			"application_id", app.ApplicationID,
			"error", err.Error(),
		)
	}
}

func (u AcceptApplicationUseCase) appendBestEffortHistory(
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

func (u AcceptApplicationUseCase) recordAudit(
	ctx context.Context,
	actorID string,
	action string,
	app entities.Application,
	detail string,
) {
	if u.Audit == nil {
		return
	}
	auditID, err := u.IDGenerator.NewID(ctx)
	if err != nil {
		return
	}
	_ = u.Audit.Record(ctx, ports.AuditEvent{
		EventID:    auditID,
		ActorID:    actorID,
		Action:     action,
		TargetType: "application",
		TargetID:   app.ApplicationID,
		Detail:     detail,
		OccurredAt: u.Clock.Now().UTC(),
	})
}

// verifyURL builds the public verification link encoded into the letter QR
// code. Membership ids embed slashes, so the id travels as one escaped
// path segment.
func verifyURL(baseURL string, membershipID string) string {
	if strings.TrimSpace(baseURL) == "" || membershipID == "" {
		return ""
	}
	return strings.TrimRight(baseURL, "/") + "/verify/" + url.PathEscape(membershipID)
}

// downloadURL is the member's entry point into the gated download flow.
func downloadURL(baseURL string, email string) string {
	return strings.TrimRight(baseURL, "/") + "/documents/request-download?email=" + url.QueryEscape(email)
}

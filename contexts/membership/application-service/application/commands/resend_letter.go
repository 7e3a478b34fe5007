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

type ResendLetterCommand struct {
	ApplicationID string
}

// ResendLetterUseCase regenerates the joining letter for an accepted member
// and emails it again. Unlike the accept path the render failure is surfaced
// here, since producing the letter is the whole point of the call.
type ResendLetterUseCase struct {
	Applications ports.ApplicationRepository
	Authorizer   ports.Authorizer
	Letters      ports.LetterRenderer
	Mailer       ports.Mailer
	Clock        ports.Clock
	IDGenerator  ports.IDGenerator
	// AppBaseURL prefixes the public verification URL in the letter QR code.
	AppBaseURL string
	Logger     *slog.Logger
}

func (u ResendLetterUseCase) Execute(ctx context.Context, actor entities.Actor, cmd ResendLetterCommand) error {
	logger := application.ResolveLogger(u.Logger)
	applicationID := strings.TrimSpace(cmd.ApplicationID)
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
	if app.Status != entities.ApplicationStatusAccepted || app.MembershipID == "" {
		return domainerrors.ErrNotAccepted
	}
	if app.Email == "" {
		return domainerrors.ErrInvalidApplication
	}

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
		logger.Error("joining letter resend render failed",
			"event", "membership_letter_resend_failed",
			"module", "membership/application-service",
			"layer", "application",
			"application_id", applicationID,
			"error", err.Error(),
		)
		return domainerrors.ErrLetterUnavailable
	}

	if err := u.Mailer.Send(ctx, ports.MailMessage{
		To:             app.Email,
		Subject:        fmt.Sprintf("Your joining letter - %s", app.MembershipID),
		Body:           fmt.Sprintf("Dear %s, your joining letter is attached.", app.FullName),
		Attachment:     letter,
		AttachmentName: strings.ReplaceAll(app.MembershipID, "/", "_") + ".pdf",
	}); err != nil {
		return err
	}

	if err := u.Applications.UpdateLetterURL(ctx, applicationID, downloadURL(u.AppBaseURL, app.Email), now); err != nil {
		logger.Warn("letter url update failed",
			"event", "membership_letter_url_update_failed",
			"module", "membership/application-service",
			"layer", "application",
			"application_id", applicationID,
			"error", err.Error(),
		)
	}

	if historyID, idErr := u.IDGenerator.NewID(ctx); idErr == nil {
		_ = u.Applications.AppendHistory(ctx, entities.HistoryEntry{
			HistoryID:     historyID,
			ApplicationID: applicationID,
			ActorID:       actor.AdminID,
			ActorRole:     actor.Role,
			Action:        entities.HistoryActionLetterResent,
			Note:          "Joining letter regenerated and resent",
			CreatedAt:     now,
		})
	}

	logger.Info("joining letter resent",
		"event", "membership_letter_resent",
		"module", "membership/application-service",
		"layer", "application",
		"application_id", applicationID,
		"membership_id", app.MembershipID,
	)
	return nil
}

package queries

import (
	"context"
	"log/slog"
	"strings"

	application "rmas/contexts/membership/document-service/application"
	"rmas/contexts/membership/document-service/domain/entities"
	domainerrors "rmas/contexts/membership/document-service/domain/errors"
	"rmas/contexts/membership/document-service/ports"
)

// ViewProfileUseCase renders the member's own snapshot behind a valid token.
// The token stays usable for repeated views within its window.
type ViewProfileUseCase struct {
	Otps    ports.OtpRepository
	Members ports.MembershipReader
	Clock   ports.Clock
	Logger  *slog.Logger
}

func (u ViewProfileUseCase) Execute(ctx context.Context, token string) (entities.MemberProfile, error) {
	logger := application.ResolveLogger(u.Logger)

	token = strings.TrimSpace(token)
	if token == "" {
		return entities.MemberProfile{}, domainerrors.ErrValidation
	}

	now := u.Clock.Now().UTC()
	otp, found, err := u.Otps.GetByToken(ctx, token)
	if err != nil {
		return entities.MemberProfile{}, err
	}
	if !found || !otp.TokenValid(now) {
		return entities.MemberProfile{}, domainerrors.ErrTokenInvalid
	}

	member, found, err := u.Members.AcceptedByEmail(ctx, otp.Email)
	if err != nil {
		return entities.MemberProfile{}, err
	}
	if !found {
		return entities.MemberProfile{}, domainerrors.ErrTokenInvalid
	}

	logger.Debug("profile viewed",
		"event", "document_profile_viewed",
		"module", "membership/document-service",
		"layer", "application",
		"membership_id", member.MembershipID,
	)
	return member, nil
}

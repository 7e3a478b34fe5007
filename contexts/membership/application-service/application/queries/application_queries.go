package queries

import (
	"context"
	"log/slog"
	"strings"
	"time"

	application "rmas/contexts/membership/application-service/application"
	"rmas/contexts/membership/application-service/domain/entities"
	domainerrors "rmas/contexts/membership/application-service/domain/errors"
	"rmas/contexts/membership/application-service/ports"
)

type ListApplicationsQuery struct {
	Status string
	Cursor string
	Limit  int
}

type ListApplicationsResult struct {
	Items      []entities.Application
	NextCursor string
}

// ListApplicationsUseCase pages through the applications visible to the actor.
// The visible set is the actor's scope expansion from the authorizer; an
// out-of-scope actor gets an empty page, not an error.
type ListApplicationsUseCase struct {
	Applications ports.ApplicationRepository
	Authorizer   ports.Authorizer
	Logger       *slog.Logger
}

func (u ListApplicationsUseCase) Execute(
	ctx context.Context,
	actor entities.Actor,
	query ListApplicationsQuery,
) (ListApplicationsResult, error) {
	logger := application.ResolveLogger(u.Logger)

	limit := query.Limit
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	status := entities.ApplicationStatus(strings.TrimSpace(query.Status))
	if status != "" && !isValidStatus(status) {
		return ListApplicationsResult{}, domainerrors.ErrInvalidApplication
	}

	scopes, ok := u.Authorizer.AccessibleScopes(ctx, actor)
	if !ok {
		return ListApplicationsResult{}, nil
	}

	items, nextCursor, err := u.Applications.ListApplications(ctx, ports.ApplicationFilter{
		Status: status,
		Scopes: scopes,
		Cursor: query.Cursor,
		Limit:  limit,
	})
	if err != nil {
		logger.Error("list applications failed",
			"event", "membership_list_applications_failed",
			"module", "membership/application-service",
			"layer", "application",
			"admin_id", actor.AdminID,
			"error", err.Error(),
		)
		return ListApplicationsResult{}, err
	}

	return ListApplicationsResult{Items: items, NextCursor: nextCursor}, nil
}

// GetApplicationUseCase resolves one application plus its trail, gated on the
// actor's cascade scope.
type GetApplicationUseCase struct {
	Applications ports.ApplicationRepository
	Authorizer   ports.Authorizer
	Logger       *slog.Logger
}

type ApplicationDetail struct {
	Application entities.Application
	Assignment  *entities.RoleAssignment
	History     []entities.HistoryEntry
}

func (u GetApplicationUseCase) Execute(ctx context.Context, actor entities.Actor, applicationID string) (ApplicationDetail, error) {
	if strings.TrimSpace(applicationID) == "" {
		return ApplicationDetail{}, domainerrors.ErrInvalidApplication
	}
	app, err := u.Applications.GetApplication(ctx, applicationID)
	if err != nil {
		return ApplicationDetail{}, err
	}
	// Viewing is gated on scope visibility, not the action check, so view-only
	// roles can still read records inside their scope.
	scopes, ok := u.Authorizer.AccessibleScopes(ctx, actor)
	if !ok || !scopeAllows(scopes, app.Location) {
		return ApplicationDetail{}, domainerrors.ErrForbidden
	}

	detail := ApplicationDetail{Application: app}
	if assignment, found, err := u.Applications.GetRoleAssignment(ctx, applicationID); err != nil {
		return ApplicationDetail{}, err
	} else if found {
		detail.Assignment = &assignment
	}
	history, err := u.Applications.ListHistory(ctx, applicationID)
	if err != nil {
		return ApplicationDetail{}, err
	}
	detail.History = history
	return detail, nil
}

// MembershipCard is the public snapshot behind the letter's QR code. It
// carries no contact details; anyone scanning the code sees only what the
// printed letter already shows.
type MembershipCard struct {
	MembershipID string
	FullName     string
	TeamType     string
	District     string
	Division     string
	State        string
	AcceptedAt   *time.Time
}

// VerifyMembershipUseCase backs the unauthenticated verification page. Only
// accepted records with a minted membership id resolve; everything else is
// reported as not found.
type VerifyMembershipUseCase struct {
	Applications ports.ApplicationRepository
	Logger       *slog.Logger
}

func (u VerifyMembershipUseCase) Execute(ctx context.Context, membershipID string) (MembershipCard, error) {
	id := strings.TrimSpace(membershipID)
	if id == "" {
		return MembershipCard{}, domainerrors.ErrInvalidApplication
	}
	app, err := u.Applications.GetByMembershipID(ctx, id)
	if err != nil {
		return MembershipCard{}, err
	}
	if app.Status != entities.ApplicationStatusAccepted {
		return MembershipCard{}, domainerrors.ErrApplicationNotFound
	}
	return MembershipCard{
		MembershipID: app.MembershipID,
		FullName:     app.FullName,
		TeamType:     string(app.TeamType),
		District:     app.Location.District,
		Division:     app.Location.Division,
		State:        app.Location.State,
		AcceptedAt:   app.AcceptedAt,
	}, nil
}

// scopeAllows reports whether any scope disjunct covers the location. An empty
// scope set means unrestricted.
func scopeAllows(scopes []entities.ScopeFilter, location entities.Location) bool {
	if len(scopes) == 0 {
		return true
	}
	for _, scope := range scopes {
		if scope.State != "" && strings.EqualFold(scope.State, location.State) {
			return true
		}
		if scope.Division != "" && strings.EqualFold(scope.Division, location.Division) {
			return true
		}
		for _, district := range scope.Districts {
			if strings.EqualFold(district, location.District) {
				return true
			}
		}
		for _, block := range scope.Blocks {
			if location.Block != "" && strings.EqualFold(block, location.Block) {
				return true
			}
		}
	}
	return false
}

func isValidStatus(value entities.ApplicationStatus) bool {
	switch value {
	case entities.ApplicationStatusPending, entities.ApplicationStatusAccepted, entities.ApplicationStatusRejected:
		return true
	default:
		return false
	}
}

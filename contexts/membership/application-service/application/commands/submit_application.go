package commands

import (
	"context"
	"log/slog"
	"strings"

	application "rmas/contexts/membership/application-service/application"
	"rmas/contexts/membership/application-service/domain/entities"
	domainerrors "rmas/contexts/membership/application-service/domain/errors"
	"rmas/contexts/membership/application-service/ports"
)

type SubmitApplicationCommand struct {
	FullName   string
	FatherName string
	Email      string
	Phone      string
	Address    string
	TeamType   string
	State      string
	District   string
	Block      string
}

type SubmitApplicationResult struct {
	Application entities.Application
}

// SubmitApplicationUseCase handles the public join form. The division is
// derived from the district through the location directory, never taken from
// the client, and the anchor level is stamped authoritatively at submission.
type SubmitApplicationUseCase struct {
	Applications ports.ApplicationRepository
	Locations    ports.LocationDirectory
	Clock        ports.Clock
	IDGenerator  ports.IDGenerator
	Logger       *slog.Logger
}

func (u SubmitApplicationUseCase) Execute(ctx context.Context, cmd SubmitApplicationCommand) (SubmitApplicationResult, error) {
	logger := application.ResolveLogger(u.Logger)

	email := strings.ToLower(strings.TrimSpace(cmd.Email))
	district := strings.TrimSpace(cmd.District)
	block := strings.TrimSpace(cmd.Block)
	teamType := entities.TeamType(strings.TrimSpace(cmd.TeamType))

	if strings.TrimSpace(cmd.FullName) == "" || email == "" || district == "" || !teamType.Valid() {
		return SubmitApplicationResult{}, domainerrors.ErrInvalidApplication
	}

	division, found, err := u.Locations.DivisionForDistrict(ctx, district)
	if err != nil {
		logger.Error("division lookup failed on submission",
			"event", "membership_submit_division_lookup_failed",
			"module", "membership/application-service",
			"layer", "application",
			"district", district,
			"error", err.Error(),
		)
		return SubmitApplicationResult{}, err
	}
	if !found {
		return SubmitApplicationResult{}, domainerrors.ErrUnknownDistrict
	}

	locatedAt := entities.LevelDistrict
	if block != "" {
		owner, blockFound, err := u.Locations.DistrictForBlock(ctx, block)
		if err != nil {
			return SubmitApplicationResult{}, err
		}
		// An unknown or mismatched block is dropped rather than rejected; the
		// district remains the anchor.
		if blockFound && strings.EqualFold(owner, district) {
			locatedAt = entities.LevelBlock
		} else {
			block = ""
		}
	}

	applicationID, err := u.IDGenerator.NewID(ctx)
	if err != nil {
		return SubmitApplicationResult{}, err
	}
	historyID, err := u.IDGenerator.NewID(ctx)
	if err != nil {
		return SubmitApplicationResult{}, err
	}
	now := u.Clock.Now().UTC()

	app := entities.Application{
		ApplicationID: applicationID,
		FullName:      strings.TrimSpace(cmd.FullName),
		FatherName:    strings.TrimSpace(cmd.FatherName),
		Email:         email,
		Phone:         strings.TrimSpace(cmd.Phone),
		Address:       strings.TrimSpace(cmd.Address),
		TeamType:      teamType,
		Location: entities.Location{
			LocatedAt: locatedAt,
			State:     strings.TrimSpace(cmd.State),
			Division:  division,
			District:  district,
			Block:     block,
		},
		Status:    entities.ApplicationStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if !app.ValidateCreate() {
		return SubmitApplicationResult{}, domainerrors.ErrInvalidApplication
	}

	history := entities.HistoryEntry{
		HistoryID:     historyID,
		ApplicationID: applicationID,
		Action:        entities.HistoryActionSubmitted,
		Note:          "Application submitted",
		CreatedAt:     now,
	}
	if err := u.Applications.CreateApplication(ctx, app, history); err != nil {
		return SubmitApplicationResult{}, err
	}

	logger.Info("application submitted",
		"event", "membership_application_submitted",
		"module", "membership/application-service",
		"layer", "application",
		"application_id", app.ApplicationID,
		"district", app.Location.District,
		"located_at", string(app.Location.LocatedAt),
		"team_type", string(app.TeamType),
	)
	return SubmitApplicationResult{Application: app}, nil
}

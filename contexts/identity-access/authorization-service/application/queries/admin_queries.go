package queries

import (
	"context"
	"log/slog"
	"strings"

	"rmas/contexts/identity-access/authorization-service/domain/entities"
	domainerrors "rmas/contexts/identity-access/authorization-service/domain/errors"
	"rmas/contexts/identity-access/authorization-service/ports"
)

// GetAdminUseCase resolves one administrator account by id.
type GetAdminUseCase struct {
	Admins ports.AdminRepository
	Logger *slog.Logger
}

func (u GetAdminUseCase) Execute(ctx context.Context, adminID string) (entities.AdminUser, error) {
	if strings.TrimSpace(adminID) == "" {
		return entities.AdminUser{}, domainerrors.ErrInvalidRequest
	}
	admin, err := u.Admins.GetAdmin(ctx, adminID)
	if err != nil {
		return entities.AdminUser{}, err
	}
	if !admin.Active {
		return entities.AdminUser{}, domainerrors.ErrAdminNotFound
	}
	return admin, nil
}

// ListAdminsUseCase lists all accounts, active and disabled.
type ListAdminsUseCase struct {
	Admins ports.AdminRepository
	Logger *slog.Logger
}

func (u ListAdminsUseCase) Execute(ctx context.Context, actor entities.Actor) ([]entities.AdminUser, error) {
	if actor.Role.ViewOnly() {
		return nil, domainerrors.ErrForbidden
	}
	return u.Admins.ListAdmins(ctx)
}

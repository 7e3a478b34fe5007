package commands

import (
	"context"
	"log/slog"
	"strings"

	application "rmas/contexts/identity-access/authorization-service/application"
	"rmas/contexts/identity-access/authorization-service/domain/entities"
	domainerrors "rmas/contexts/identity-access/authorization-service/domain/errors"
	"rmas/contexts/identity-access/authorization-service/ports"
)

// DisableAdminUseCase soft-disables an account. Accounts are never hard
// deleted through this path.
type DisableAdminUseCase struct {
	Admins ports.AdminRepository
	Clock  ports.Clock
	Logger *slog.Logger
}

func (u DisableAdminUseCase) Execute(ctx context.Context, actor entities.Actor, adminID string) error {
	logger := application.ResolveLogger(u.Logger)
	if strings.TrimSpace(adminID) == "" {
		return domainerrors.ErrInvalidRequest
	}

	target, err := u.Admins.GetAdmin(ctx, adminID)
	if err != nil {
		return err
	}

	// Disabling requires provisioning authority over the target's level.
	if !actor.Role.IsSuperAdmin() {
		if target.Role.IsSuperAdmin() || !target.AssignedLevel.Below(actor.AssignedLevel) {
			return domainerrors.ErrForbidden
		}
		if actor.Role.ViewOnly() || actor.AssignedLevel == entities.LevelBlock {
			return domainerrors.ErrForbidden
		}
	}

	if err := u.Admins.SetActive(ctx, adminID, false, u.Clock.Now()); err != nil {
		return err
	}

	logger.Info("admin user disabled",
		"event", "authz_admin_disabled",
		"module", "identity-access/authorization-service",
		"layer", "application",
		"admin_id", adminID,
		"actor_id", actor.AdminID,
	)
	return nil
}

// DeleteAdminUseCase hard-deletes an account. Superadmin only.
type DeleteAdminUseCase struct {
	Admins ports.AdminRepository
	Logger *slog.Logger
}

func (u DeleteAdminUseCase) Execute(ctx context.Context, actor entities.Actor, adminID string) error {
	logger := application.ResolveLogger(u.Logger)
	if strings.TrimSpace(adminID) == "" {
		return domainerrors.ErrInvalidRequest
	}
	if !actor.Role.IsSuperAdmin() {
		return domainerrors.ErrForbidden
	}

	if err := u.Admins.DeleteAdmin(ctx, adminID); err != nil {
		return err
	}

	logger.Info("admin user deleted",
		"event", "authz_admin_deleted",
		"module", "identity-access/authorization-service",
		"layer", "application",
		"admin_id", adminID,
		"actor_id", actor.AdminID,
	)
	return nil
}

package commands

import (
	"context"
	"log/slog"
	"strings"

	application "rmas/contexts/identity-access/authorization-service/application"
	"rmas/contexts/identity-access/authorization-service/domain/entities"
	domainerrors "rmas/contexts/identity-access/authorization-service/domain/errors"
	"rmas/contexts/identity-access/authorization-service/domain/services"
	"rmas/contexts/identity-access/authorization-service/ports"
)

type CreateAdminCommand struct {
	Name          string
	Email         string
	Password      string
	Function      string
	AssignedLevel string
	AssignedID    string
}

type CreateAdminResult struct {
	Admin entities.AdminUser
}

// CreateAdminUseCase provisions a new administrator account. The descent-only
// rule is enforced here at creation time, independently of cascade access.
type CreateAdminUseCase struct {
	Admins      ports.AdminRepository
	Hasher      ports.PasswordHasher
	Clock       ports.Clock
	IDGenerator ports.IDGenerator
	Logger      *slog.Logger
}

func (u CreateAdminUseCase) Execute(
	ctx context.Context,
	actor entities.Actor,
	cmd CreateAdminCommand,
) (CreateAdminResult, error) {
	logger := application.ResolveLogger(u.Logger)

	if strings.TrimSpace(cmd.Name) == "" ||
		strings.TrimSpace(cmd.Email) == "" ||
		strings.TrimSpace(cmd.Password) == "" {
		return CreateAdminResult{}, domainerrors.ErrInvalidRequest
	}

	level := entities.Level(strings.TrimSpace(cmd.AssignedLevel))
	role, err := entities.NewRole(entities.Function(strings.TrimSpace(cmd.Function)), level)
	if err != nil {
		return CreateAdminResult{}, err
	}

	if role.IsSuperAdmin() {
		if !services.CanCreateSuperAdmin(actor) {
			return CreateAdminResult{}, domainerrors.ErrForbidden
		}
	} else if !services.CanCreateAdminAt(actor, level) {
		logger.Warn("admin creation denied",
			"event", "authz_admin_create_denied",
			"module", "identity-access/authorization-service",
			"layer", "application",
			"actor_id", actor.AdminID,
			"requested_level", string(level),
		)
		return CreateAdminResult{}, domainerrors.ErrForbidden
	}

	email := strings.ToLower(strings.TrimSpace(cmd.Email))
	if _, found, err := u.Admins.GetAdminByEmail(ctx, email); err != nil {
		return CreateAdminResult{}, err
	} else if found {
		return CreateAdminResult{}, domainerrors.ErrDuplicateEmail
	}

	hash, err := u.Hasher.Hash(cmd.Password)
	if err != nil {
		return CreateAdminResult{}, err
	}
	adminID, err := u.IDGenerator.NewID(ctx)
	if err != nil {
		return CreateAdminResult{}, err
	}

	admin, err := entities.NewAdminUser(
		adminID,
		cmd.Name,
		email,
		hash,
		role,
		level,
		cmd.AssignedID,
		actor.AdminID,
		u.Clock.Now(),
	)
	if err != nil {
		return CreateAdminResult{}, err
	}

	if err := u.Admins.CreateAdmin(ctx, admin); err != nil {
		return CreateAdminResult{}, err
	}

	logger.Info("admin user created",
		"event", "authz_admin_created",
		"module", "identity-access/authorization-service",
		"layer", "application",
		"admin_id", admin.AdminID,
		"role", admin.Role.String(),
		"assigned_level", string(admin.AssignedLevel),
		"assigned_id", admin.AssignedID,
		"created_by", actor.AdminID,
	)
	return CreateAdminResult{Admin: admin}, nil
}

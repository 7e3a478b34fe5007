package httpadapter

import (
	"context"
	"log/slog"

	application "rmas/contexts/identity-access/authorization-service/application"
	"rmas/contexts/identity-access/authorization-service/application/commands"
	"rmas/contexts/identity-access/authorization-service/application/queries"
	"rmas/contexts/identity-access/authorization-service/domain/entities"
	httptransport "rmas/contexts/identity-access/authorization-service/transport/http"
)

// Handler maps HTTP DTOs to application commands/queries.
type Handler struct {
	CreateAdmin  commands.CreateAdminUseCase
	DisableAdmin commands.DisableAdminUseCase
	DeleteAdmin  commands.DeleteAdminUseCase
	GetAdmin     queries.GetAdminUseCase
	ListAdmins   queries.ListAdminsUseCase
	Logger       *slog.Logger
}

func toAdminDTO(admin entities.AdminUser) httptransport.AdminUserDTO {
	return httptransport.AdminUserDTO{
		AdminID:       admin.AdminID,
		Name:          admin.Name,
		Email:         admin.Email,
		Role:          admin.Role.String(),
		AssignedLevel: string(admin.AssignedLevel),
		AssignedID:    admin.AssignedID,
		Active:        admin.Active,
		CreatedBy:     admin.CreatedBy,
		CreatedAt:     admin.CreatedAt,
	}
}

// CreateAdminHandler provisions a new administrator on behalf of the actor.
func (h Handler) CreateAdminHandler(
	ctx context.Context,
	actor entities.Actor,
	request httptransport.CreateAdminRequest,
) (httptransport.CreateAdminResponse, error) {
	logger := application.ResolveLogger(h.Logger)
	logger.Info("http create admin received",
		"event", "authz_http_create_admin_received",
		"module", "identity-access/authorization-service",
		"layer", "transport",
		"actor_id", actor.AdminID,
		"function", request.Function,
		"assigned_level", request.AssignedLevel,
	)

	result, err := h.CreateAdmin.Execute(ctx, actor, commands.CreateAdminCommand{
		Name:          request.Name,
		Email:         request.Email,
		Password:      request.Password,
		Function:      request.Function,
		AssignedLevel: request.AssignedLevel,
		AssignedID:    request.AssignedID,
	})
	if err != nil {
		logger.Error("http create admin failed",
			"event", "authz_http_create_admin_failed",
			"module", "identity-access/authorization-service",
			"layer", "transport",
			"actor_id", actor.AdminID,
			"error", err.Error(),
		)
		return httptransport.CreateAdminResponse{}, err
	}
	return httptransport.CreateAdminResponse{Admin: toAdminDTO(result.Admin)}, nil
}

// DisableAdminHandler soft-disables an administrator account.
func (h Handler) DisableAdminHandler(ctx context.Context, actor entities.Actor, adminID string) error {
	logger := application.ResolveLogger(h.Logger)
	logger.Info("http disable admin received",
		"event", "authz_http_disable_admin_received",
		"module", "identity-access/authorization-service",
		"layer", "transport",
		"actor_id", actor.AdminID,
		"admin_id", adminID,
	)

	if err := h.DisableAdmin.Execute(ctx, actor, adminID); err != nil {
		logger.Error("http disable admin failed",
			"event", "authz_http_disable_admin_failed",
			"module", "identity-access/authorization-service",
			"layer", "transport",
			"actor_id", actor.AdminID,
			"admin_id", adminID,
			"error", err.Error(),
		)
		return err
	}
	return nil
}

// DeleteAdminHandler hard-deletes an administrator account.
func (h Handler) DeleteAdminHandler(ctx context.Context, actor entities.Actor, adminID string) error {
	logger := application.ResolveLogger(h.Logger)
	logger.Info("http delete admin received",
		"event", "authz_http_delete_admin_received",
		"module", "identity-access/authorization-service",
		"layer", "transport",
		"actor_id", actor.AdminID,
		"admin_id", adminID,
	)

	if err := h.DeleteAdmin.Execute(ctx, actor, adminID); err != nil {
		logger.Error("http delete admin failed",
			"event", "authz_http_delete_admin_failed",
			"module", "identity-access/authorization-service",
			"layer", "transport",
			"actor_id", actor.AdminID,
			"admin_id", adminID,
			"error", err.Error(),
		)
		return err
	}
	return nil
}

// GetAdminHandler returns one active administrator account.
func (h Handler) GetAdminHandler(ctx context.Context, adminID string) (httptransport.AdminUserDTO, error) {
	admin, err := h.GetAdmin.Execute(ctx, adminID)
	if err != nil {
		return httptransport.AdminUserDTO{}, err
	}
	return toAdminDTO(admin), nil
}

// ListAdminsHandler lists administrator accounts visible to the actor.
func (h Handler) ListAdminsHandler(ctx context.Context, actor entities.Actor) (httptransport.ListAdminsResponse, error) {
	admins, err := h.ListAdmins.Execute(ctx, actor)
	if err != nil {
		return httptransport.ListAdminsResponse{}, err
	}
	items := make([]httptransport.AdminUserDTO, 0, len(admins))
	for _, admin := range admins {
		items = append(items, toAdminDTO(admin))
	}
	return httptransport.ListAdminsResponse{Items: items}, nil
}

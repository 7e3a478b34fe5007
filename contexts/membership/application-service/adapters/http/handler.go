package httpadapter

import (
	"context"
	"log/slog"
	"time"

	"rmas/contexts/membership/application-service/application/commands"
	"rmas/contexts/membership/application-service/application/queries"
	"rmas/contexts/membership/application-service/domain/entities"
	httptransport "rmas/contexts/membership/application-service/transport/http"
)

type Handler struct {
	SubmitApplication commands.SubmitApplicationUseCase
	ClaimApplication  commands.ClaimApplicationUseCase
	AcceptApplication commands.AcceptApplicationUseCase
	RejectApplication commands.RejectApplicationUseCase
	AssignApplication commands.AssignApplicationUseCase
	ManageRole        commands.ManageRoleUseCase
	ResendLetter      commands.ResendLetterUseCase
	ListApplications  queries.ListApplicationsUseCase
	GetApplication    queries.GetApplicationUseCase
	VerifyMembership  queries.VerifyMembershipUseCase
	Logger            *slog.Logger
}

func (h Handler) SubmitApplicationHandler(
	ctx context.Context,
	req httptransport.SubmitApplicationRequest,
) (httptransport.SubmitApplicationResponse, error) {
	result, err := h.SubmitApplication.Execute(ctx, commands.SubmitApplicationCommand{
		FullName:   req.FullName,
		FatherName: req.FatherName,
		Email:      req.Email,
		Phone:      req.Phone,
		Address:    req.Address,
		TeamType:   req.TeamType,
		State:      req.State,
		District:   req.District,
		Block:      req.Block,
	})
	if err != nil {
		return httptransport.SubmitApplicationResponse{}, err
	}
	return httptransport.SubmitApplicationResponse{
		Application: mapApplication(result.Application),
	}, nil
}

func (h Handler) ClaimApplicationHandler(
	ctx context.Context,
	actor entities.Actor,
	applicationID string,
) (httptransport.ClaimApplicationResponse, error) {
	result, err := h.ClaimApplication.Execute(ctx, actor, commands.ClaimApplicationCommand{
		ApplicationID: applicationID,
	})
	if err != nil {
		return httptransport.ClaimApplicationResponse{}, err
	}
	return httptransport.ClaimApplicationResponse{
		Application: mapApplication(result.Application),
	}, nil
}

func (h Handler) AcceptApplicationHandler(
	ctx context.Context,
	actor entities.Actor,
	applicationID string,
	req httptransport.AcceptApplicationRequest,
) (httptransport.AcceptApplicationResponse, error) {
	result, err := h.AcceptApplication.Execute(ctx, actor, commands.AcceptApplicationCommand{
		ApplicationID: applicationID,
		Note:          req.Note,
		JobRole:       req.JobRole,
		TeamType:      req.TeamType,
	})
	if err != nil {
		return httptransport.AcceptApplicationResponse{}, err
	}
	return httptransport.AcceptApplicationResponse{
		Application: mapApplication(result.Application),
	}, nil
}

func (h Handler) RejectApplicationHandler(
	ctx context.Context,
	actor entities.Actor,
	applicationID string,
	req httptransport.RejectApplicationRequest,
) (httptransport.RejectApplicationResponse, error) {
	result, err := h.RejectApplication.Execute(ctx, actor, commands.RejectApplicationCommand{
		ApplicationID: applicationID,
		Reason:        req.Reason,
	})
	if err != nil {
		return httptransport.RejectApplicationResponse{}, err
	}
	return httptransport.RejectApplicationResponse{
		Application: mapApplication(result.Application),
	}, nil
}

func (h Handler) AssignApplicationHandler(
	ctx context.Context,
	actor entities.Actor,
	applicationID string,
	req httptransport.AssignApplicationRequest,
) error {
	return h.AssignApplication.Execute(ctx, actor, commands.AssignApplicationCommand{
		ApplicationID: applicationID,
		AssigneeID:    req.AssigneeID,
	})
}

func (h Handler) ManageRoleHandler(
	ctx context.Context,
	actor entities.Actor,
	applicationID string,
	req httptransport.ManageRoleRequest,
) (httptransport.ManageRoleResponse, error) {
	result, err := h.ManageRole.Execute(ctx, actor, commands.ManageRoleCommand{
		ApplicationID: applicationID,
		Category:      req.Category,
		RoleCode:      req.RoleCode,
		TeamType:      req.TeamType,
		Level:         req.Level,
		State:         req.State,
		Division:      req.Division,
		District:      req.District,
		Block:         req.Block,
		Reason:        req.Reason,
	})
	if err != nil {
		return httptransport.ManageRoleResponse{}, err
	}
	return httptransport.ManageRoleResponse{
		Application: mapApplication(result.Application),
		Assignment:  mapAssignment(result.Assignment),
	}, nil
}

func (h Handler) ResendLetterHandler(ctx context.Context, actor entities.Actor, applicationID string) error {
	return h.ResendLetter.Execute(ctx, actor, commands.ResendLetterCommand{
		ApplicationID: applicationID,
	})
}

func (h Handler) GetApplicationHandler(
	ctx context.Context,
	actor entities.Actor,
	applicationID string,
) (httptransport.GetApplicationResponse, error) {
	detail, err := h.GetApplication.Execute(ctx, actor, applicationID)
	if err != nil {
		return httptransport.GetApplicationResponse{}, err
	}
	response := httptransport.GetApplicationResponse{
		Application: mapApplication(detail.Application),
		History:     make([]httptransport.HistoryEntryDTO, 0, len(detail.History)),
	}
	if detail.Assignment != nil {
		assignment := mapAssignment(*detail.Assignment)
		response.Assignment = &assignment
	}
	for _, entry := range detail.History {
		response.History = append(response.History, httptransport.HistoryEntryDTO{
			HistoryID: entry.HistoryID,
			ActorID:   entry.ActorID,
			ActorRole: entry.ActorRole,
			Action:    string(entry.Action),
			Note:      entry.Note,
			CreatedAt: entry.CreatedAt.Format(time.RFC3339),
		})
	}
	return response, nil
}

func (h Handler) ListApplicationsHandler(
	ctx context.Context,
	actor entities.Actor,
	status string,
	cursor string,
	limit int,
) (httptransport.ListApplicationsResponse, error) {
	result, err := h.ListApplications.Execute(ctx, actor, queries.ListApplicationsQuery{
		Status: status,
		Cursor: cursor,
		Limit:  limit,
	})
	if err != nil {
		return httptransport.ListApplicationsResponse{}, err
	}
	items := make([]httptransport.ApplicationDTO, 0, len(result.Items))
	for _, item := range result.Items {
		items = append(items, mapApplication(item))
	}
	return httptransport.ListApplicationsResponse{
		Items:      items,
		NextCursor: result.NextCursor,
	}, nil
}

func (h Handler) VerifyMembershipHandler(
	ctx context.Context,
	membershipID string,
) (httptransport.VerifyMembershipResponse, error) {
	card, err := h.VerifyMembership.Execute(ctx, membershipID)
	if err != nil {
		return httptransport.VerifyMembershipResponse{}, err
	}
	response := httptransport.VerifyMembershipResponse{
		Valid:        true,
		MembershipID: card.MembershipID,
		FullName:     card.FullName,
		TeamType:     card.TeamType,
		District:     card.District,
		Division:     card.Division,
		State:        card.State,
	}
	if card.AcceptedAt != nil {
		response.AcceptedAt = card.AcceptedAt.Format(time.RFC3339)
	}
	return response, nil
}

func mapApplication(item entities.Application) httptransport.ApplicationDTO {
	dto := httptransport.ApplicationDTO{
		ApplicationID: item.ApplicationID,
		FullName:      item.FullName,
		FatherName:    item.FatherName,
		Email:         item.Email,
		Phone:         item.Phone,
		Address:       item.Address,
		TeamType:      string(item.TeamType),
		LocatedAt:     string(item.Location.LocatedAt),
		State:         item.Location.State,
		Division:      item.Location.Division,
		District:      item.Location.District,
		Block:         item.Location.Block,
		Status:        string(item.Status),
		AssignedTo:    item.AssignedTo,
		MembershipID:  item.MembershipID,
		LetterURL:     item.LetterURL,
		CreatedAt:     item.CreatedAt.Format(time.RFC3339),
		UpdatedAt:     item.UpdatedAt.Format(time.RFC3339),
	}
	if item.AcceptedAt != nil {
		dto.AcceptedAt = item.AcceptedAt.Format(time.RFC3339)
	}
	if item.RejectedAt != nil {
		dto.RejectedAt = item.RejectedAt.Format(time.RFC3339)
	}
	return dto
}

func mapAssignment(item entities.RoleAssignment) httptransport.RoleAssignmentDTO {
	return httptransport.RoleAssignmentDTO{
		Category:   item.Category,
		RoleCode:   item.RoleCode,
		RoleName:   item.RoleName,
		TeamType:   string(item.TeamType),
		Level:      string(item.Level),
		Location:   item.Location,
		Reason:     item.Reason,
		AssignedBy: item.AssignedBy,
		AssignedAt: item.AssignedAt.Format(time.RFC3339),
	}
}


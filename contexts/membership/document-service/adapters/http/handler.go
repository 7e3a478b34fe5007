package httpadapter

import (
	"context"
	"log/slog"
	"time"

	"rmas/contexts/membership/document-service/application/commands"
	"rmas/contexts/membership/document-service/application/queries"
	"rmas/contexts/membership/document-service/domain/entities"
	httptransport "rmas/contexts/membership/document-service/transport/http"
)

type Handler struct {
	RequestDownload  commands.RequestDownloadUseCase
	VerifyOtp        commands.VerifyOtpUseCase
	GenerateDocument commands.GenerateDocumentUseCase
	ViewProfile      queries.ViewProfileUseCase
	Logger           *slog.Logger
}

func (h Handler) RequestDownloadHandler(
	ctx context.Context,
	req httptransport.RequestDownloadRequest,
) (httptransport.RequestDownloadResponse, error) {
	err := h.RequestDownload.Execute(ctx, commands.RequestDownloadCommand{
		Email: req.Email,
		Name:  req.Name,
	})
	if err != nil {
		return httptransport.RequestDownloadResponse{}, err
	}
	return httptransport.RequestDownloadResponse{
		Message: "If the email is registered, a code has been sent.",
	}, nil
}

func (h Handler) VerifyOtpHandler(
	ctx context.Context,
	req httptransport.VerifyOtpRequest,
) (httptransport.VerifyOtpResponse, error) {
	result, err := h.VerifyOtp.Execute(ctx, commands.VerifyOtpCommand{
		Email: req.Email,
		Code:  req.Otp,
	})
	if err != nil {
		return httptransport.VerifyOtpResponse{}, err
	}
	return httptransport.VerifyOtpResponse{
		Token:          result.Token,
		TokenExpiresAt: result.TokenExpiresAt.Format(time.RFC3339),
	}, nil
}

func (h Handler) ViewProfileHandler(ctx context.Context, token string) (httptransport.ViewProfileResponse, error) {
	profile, err := h.ViewProfile.Execute(ctx, token)
	if err != nil {
		return httptransport.ViewProfileResponse{}, err
	}
	return httptransport.ViewProfileResponse{Profile: mapProfile(profile)}, nil
}

func (h Handler) GenerateDocumentHandler(
	ctx context.Context,
	req httptransport.GenerateDocumentRequest,
) (httptransport.GenerateDocumentResponse, error) {
	result, err := h.GenerateDocument.Execute(ctx, commands.GenerateDocumentCommand{
		Token: req.Token,
		Kind:  req.Type,
	})
	if err != nil {
		return httptransport.GenerateDocumentResponse{}, err
	}
	return httptransport.GenerateDocumentResponse{
		FileName: result.FileName,
		Content:  result.Content,
	}, nil
}

func mapProfile(item entities.MemberProfile) httptransport.MemberProfileDTO {
	return httptransport.MemberProfileDTO{
		MembershipID: item.MembershipID,
		FullName:     item.FullName,
		FatherName:   item.FatherName,
		Email:        item.Email,
		Phone:        item.Phone,
		TeamType:     item.TeamType,
		RoleName:     item.RoleName,
		Level:        item.Level,
		State:        item.State,
		Division:     item.Division,
		District:     item.District,
		Block:        item.Block,
		AcceptedAt:   item.AcceptedAt.Format(time.RFC3339),
	}
}


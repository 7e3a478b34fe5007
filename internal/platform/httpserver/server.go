package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	authorization "rmas/contexts/identity-access/authorization-service"
	authzentities "rmas/contexts/identity-access/authorization-service/domain/entities"
	authzerrors "rmas/contexts/identity-access/authorization-service/domain/errors"
	authzhttp "rmas/contexts/identity-access/authorization-service/transport/http"
	applicationservice "rmas/contexts/membership/application-service"
	membershipentities "rmas/contexts/membership/application-service/domain/entities"
	membershiperrors "rmas/contexts/membership/application-service/domain/errors"
	membershiphttp "rmas/contexts/membership/application-service/transport/http"
	documentservice "rmas/contexts/membership/document-service"
	documenterrors "rmas/contexts/membership/document-service/domain/errors"
	documenthttp "rmas/contexts/membership/document-service/transport/http"

	httpSwagger "github.com/swaggo/http-swagger"
	_ "rmas/internal/platform/httpserver/docs"
)

type Server struct {
	mux           *http.ServeMux
	logger        *slog.Logger
	addr          string
	authorization authorization.Module
	membership    applicationservice.Module
	documents     documentservice.Module
	metrics       http.Handler
}

func New(
	authorizationModule authorization.Module,
	membershipModule applicationservice.Module,
	documentModule documentservice.Module,
	metricsHandler http.Handler,
	logger *slog.Logger,
	addr string,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if addr == "" {
		addr = ":8080"
	}

	s := &Server{
		mux:           http.NewServeMux(),
		logger:        logger,
		addr:          addr,
		authorization: authorizationModule,
		membership:    membershipModule,
		documents:     documentModule,
		metrics:       metricsHandler,
	}
	s.registerRoutes()
	return s
}

func (s *Server) Start() error {
	s.logger.Info("http server starting",
		"event", "http_server_starting",
		"module", "internal/platform/httpserver",
		"layer", "platform",
		"addr", s.addr,
	)
	return http.ListenAndServe(s.addr, s.mux)
}

func (s *Server) registerRoutes() {
	s.mux.Handle("/swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))
	if s.metrics != nil {
		s.mux.Handle("GET /metrics", s.metrics)
	}

	s.mux.HandleFunc("POST /api/admin/users", s.handleCreateAdmin)
	s.mux.HandleFunc("GET /api/admin/users", s.handleListAdmins)
	s.mux.HandleFunc("GET /api/admin/users/{admin_id}", s.handleGetAdmin)
	s.mux.HandleFunc("POST /api/admin/users/{admin_id}/disable", s.handleDisableAdmin)
	s.mux.HandleFunc("DELETE /api/admin/users/{admin_id}", s.handleDeleteAdmin)

	s.mux.HandleFunc("POST /membership/applications", s.handleSubmitApplication)
	s.mux.HandleFunc("GET /membership/applications", s.handleListApplications)
	s.mux.HandleFunc("GET /membership/applications/{application_id}", s.handleGetApplication)
	s.mux.HandleFunc("POST /membership/applications/{application_id}/claim", s.handleClaimApplication)
	s.mux.HandleFunc("POST /membership/applications/{application_id}/accept", s.handleAcceptApplication)
	s.mux.HandleFunc("POST /membership/applications/{application_id}/reject", s.handleRejectApplication)
	s.mux.HandleFunc("POST /membership/applications/{application_id}/assign", s.handleAssignApplication)
	s.mux.HandleFunc("POST /membership/applications/{application_id}/manage-role", s.handleManageRole)
	s.mux.HandleFunc("POST /membership/applications/{application_id}/resend-letter", s.handleResendLetter)
	s.mux.HandleFunc("GET /verify/{membership_id}", s.handleVerifyMembership)

	s.mux.HandleFunc("POST /documents/request-download", s.handleRequestDownload)
	s.mux.HandleFunc("POST /documents/verify-otp", s.handleVerifyOtp)
	s.mux.HandleFunc("GET /documents/profile", s.handleViewProfile)
	s.mux.HandleFunc("POST /documents/generate", s.handleGenerateDocument)
}

func (s *Server) handleCreateAdmin(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.resolveAdminActor(w, r)
	if !ok {
		return
	}
	var req authzhttp.CreateAdminRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAuthzError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.authorization.Handler.CreateAdminHandler(r.Context(), actor, req)
	if err != nil {
		writeAuthzDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleListAdmins(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.resolveAdminActor(w, r)
	if !ok {
		return
	}
	resp, err := s.authorization.Handler.ListAdminsHandler(r.Context(), actor)
	if err != nil {
		writeAuthzDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetAdmin(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.resolveAdminActor(w, r); !ok {
		return
	}
	resp, err := s.authorization.Handler.GetAdminHandler(r.Context(), r.PathValue("admin_id"))
	if err != nil {
		writeAuthzDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDisableAdmin(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.resolveAdminActor(w, r)
	if !ok {
		return
	}
	if err := s.authorization.Handler.DisableAdminHandler(r.Context(), actor, r.PathValue("admin_id")); err != nil {
		writeAuthzDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteAdmin(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.resolveAdminActor(w, r)
	if !ok {
		return
	}
	if err := s.authorization.Handler.DeleteAdminHandler(r.Context(), actor, r.PathValue("admin_id")); err != nil {
		writeAuthzDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSubmitApplication(w http.ResponseWriter, r *http.Request) {
	var req membershiphttp.SubmitApplicationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMembershipError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.membership.Handler.SubmitApplicationHandler(r.Context(), req)
	if err != nil {
		writeMembershipDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

// handleVerifyMembership serves the unauthenticated page the letter QR code
// resolves to.
func (s *Server) handleVerifyMembership(w http.ResponseWriter, r *http.Request) {
	resp, err := s.membership.Handler.VerifyMembershipHandler(r.Context(), r.PathValue("membership_id"))
	if err != nil {
		writeMembershipDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListApplications(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.resolveMembershipActor(w, r)
	if !ok {
		return
	}
	query := r.URL.Query() // gorm-postgres-enforcer: allow-raw-sql parses HTTP query parameters only
	limit := 0
	if limitRaw := query.Get("limit"); limitRaw != "" {
		parsed, err := strconv.Atoi(limitRaw)
		if err != nil {
			writeMembershipError(w, http.StatusBadRequest, "invalid_limit", "limit must be an integer")
			return
		}
		limit = parsed
	}
	resp, err := s.membership.Handler.ListApplicationsHandler(
		r.Context(),
		actor,
		query.Get("status"),
		query.Get("cursor"),
		limit,
	)
	if err != nil {
		writeMembershipDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetApplication(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.resolveMembershipActor(w, r)
	if !ok {
		return
	}
	resp, err := s.membership.Handler.GetApplicationHandler(r.Context(), actor, r.PathValue("application_id"))
	if err != nil {
		writeMembershipDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleClaimApplication(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.resolveMembershipActor(w, r)
	if !ok {
		return
	}
	resp, err := s.membership.Handler.ClaimApplicationHandler(r.Context(), actor, r.PathValue("application_id"))
	if err != nil {
		writeMembershipDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAcceptApplication(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.resolveMembershipActor(w, r)
	if !ok {
		return
	}
	var req membershiphttp.AcceptApplicationRequest
	if err := decodeOptionalBody(r, &req); err != nil {
		writeMembershipError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.membership.Handler.AcceptApplicationHandler(r.Context(), actor, r.PathValue("application_id"), req)
	if err != nil {
		writeMembershipDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRejectApplication(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.resolveMembershipActor(w, r)
	if !ok {
		return
	}
	var req membershiphttp.RejectApplicationRequest
	if err := decodeOptionalBody(r, &req); err != nil {
		writeMembershipError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.membership.Handler.RejectApplicationHandler(r.Context(), actor, r.PathValue("application_id"), req)
	if err != nil {
		writeMembershipDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAssignApplication(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.resolveMembershipActor(w, r)
	if !ok {
		return
	}
	var req membershiphttp.AssignApplicationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMembershipError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	if err := s.membership.Handler.AssignApplicationHandler(r.Context(), actor, r.PathValue("application_id"), req); err != nil {
		writeMembershipDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleManageRole(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.resolveMembershipActor(w, r)
	if !ok {
		return
	}
	var req membershiphttp.ManageRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMembershipError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.membership.Handler.ManageRoleHandler(r.Context(), actor, r.PathValue("application_id"), req)
	if err != nil {
		writeMembershipDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleResendLetter(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.resolveMembershipActor(w, r)
	if !ok {
		return
	}
	if err := s.membership.Handler.ResendLetterHandler(r.Context(), actor, r.PathValue("application_id")); err != nil {
		writeMembershipDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) handleRequestDownload(w http.ResponseWriter, r *http.Request) {
	var req documenthttp.RequestDownloadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDocumentError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.documents.Handler.RequestDownloadHandler(r.Context(), req)
	if err != nil {
		writeDocumentDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleVerifyOtp(w http.ResponseWriter, r *http.Request) {
	var req documenthttp.VerifyOtpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDocumentError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.documents.Handler.VerifyOtpHandler(r.Context(), req)
	if err != nil {
		writeDocumentDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleViewProfile(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token") // gorm-postgres-enforcer: allow-raw-sql parses HTTP query parameters only
	resp, err := s.documents.Handler.ViewProfileHandler(r.Context(), token)
	if err != nil {
		writeDocumentDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGenerateDocument(w http.ResponseWriter, r *http.Request) {
	var req documenthttp.GenerateDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDocumentError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.documents.Handler.GenerateDocumentHandler(r.Context(), req)
	if err != nil {
		writeDocumentDomainError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", resp.FileName))
	w.Header().Set("Content-Length", strconv.Itoa(len(resp.Content)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(resp.Content)
}

// resolveAdminActor loads the calling administrator by the X-Admin-Id header
// and rebuilds the typed actor the authorization handlers expect. Disabled
// accounts are rejected by the lookup itself.
func (s *Server) resolveAdminActor(w http.ResponseWriter, r *http.Request) (authzentities.Actor, bool) {
	adminID := resolveActorID(r)
	if adminID == "" {
		writeAuthzError(w, http.StatusUnauthorized, "missing_admin", "X-Admin-Id header is required")
		return authzentities.Actor{}, false
	}
	admin, err := s.authorization.Handler.GetAdminHandler(r.Context(), adminID)
	if err != nil {
		writeAuthzError(w, http.StatusUnauthorized, "unknown_admin", "acting administrator could not be resolved")
		return authzentities.Actor{}, false
	}
	role, err := authzentities.ParseRole(admin.Role)
	if err != nil {
		writeAuthzError(w, http.StatusForbidden, "invalid_role", "acting administrator carries an unusable role")
		return authzentities.Actor{}, false
	}
	return authzentities.Actor{
		AdminID:       admin.AdminID,
		Role:          role,
		AssignedLevel: authzentities.Level(admin.AssignedLevel),
		AssignedID:    admin.AssignedID,
	}, true
}

func (s *Server) resolveMembershipActor(w http.ResponseWriter, r *http.Request) (membershipentities.Actor, bool) {
	adminID := resolveActorID(r)
	if adminID == "" {
		writeMembershipError(w, http.StatusUnauthorized, "missing_admin", "X-Admin-Id header is required")
		return membershipentities.Actor{}, false
	}
	admin, err := s.authorization.Handler.GetAdminHandler(r.Context(), adminID)
	if err != nil {
		writeMembershipError(w, http.StatusUnauthorized, "unknown_admin", "acting administrator could not be resolved")
		return membershipentities.Actor{}, false
	}
	return membershipentities.Actor{
		AdminID:       admin.AdminID,
		Role:          admin.Role,
		AssignedLevel: membershipentities.Level(admin.AssignedLevel),
		AssignedID:    admin.AssignedID,
	}, true
}

func writeAuthzDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, authzerrors.ErrInvalidRole),
		errors.Is(err, authzerrors.ErrInvalidLevel):
		writeAuthzError(w, http.StatusUnprocessableEntity, "invalid_role", err.Error())
	case errors.Is(err, authzerrors.ErrInvalidAdminUser),
		errors.Is(err, authzerrors.ErrInvalidRequest):
		writeAuthzError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, authzerrors.ErrAdminNotFound):
		writeAuthzError(w, http.StatusNotFound, "admin_not_found", err.Error())
	case errors.Is(err, authzerrors.ErrDuplicateEmail),
		errors.Is(err, authzerrors.ErrAdminAlreadyActive):
		writeAuthzError(w, http.StatusConflict, "conflict", err.Error())
	case errors.Is(err, authzerrors.ErrForbidden):
		writeAuthzError(w, http.StatusForbidden, "forbidden", err.Error())
	case errors.Is(err, authzerrors.ErrHierarchyLookup):
		writeAuthzError(w, http.StatusBadGateway, "hierarchy_unavailable", err.Error())
	default:
		writeAuthzError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeMembershipDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, membershiperrors.ErrInvalidApplication),
		errors.Is(err, membershiperrors.ErrUnknownDistrict),
		errors.Is(err, membershiperrors.ErrInvalidCursor):
		writeMembershipError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, membershiperrors.ErrApplicationNotFound):
		writeMembershipError(w, http.StatusNotFound, "application_not_found", err.Error())
	case errors.Is(err, membershiperrors.ErrForbidden):
		writeMembershipError(w, http.StatusForbidden, "forbidden", err.Error())
	case errors.Is(err, membershiperrors.ErrAlreadyClaimed):
		writeMembershipError(w, http.StatusConflict, "already_claimed", err.Error())
	case errors.Is(err, membershiperrors.ErrAlreadyDecided):
		writeMembershipError(w, http.StatusConflict, "already_decided", err.Error())
	case errors.Is(err, membershiperrors.ErrNotAccepted):
		writeMembershipError(w, http.StatusConflict, "not_accepted", err.Error())
	case errors.Is(err, membershiperrors.ErrInvalidRole):
		writeMembershipError(w, http.StatusUnprocessableEntity, "invalid_role", err.Error())
	case errors.Is(err, membershiperrors.ErrLetterUnavailable):
		writeMembershipError(w, http.StatusBadGateway, "letter_unavailable", err.Error())
	default:
		writeMembershipError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

// writeDocumentDomainError keeps the download flow deliberately vague. Every
// rejection before rendering maps to the same status and code so callers
// cannot distinguish unknown emails from throttled or expired attempts.
func writeDocumentDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, documenterrors.ErrValidation),
		errors.Is(err, documenterrors.ErrRequestRejected),
		errors.Is(err, documenterrors.ErrOtpInvalid),
		errors.Is(err, documenterrors.ErrTokenInvalid):
		writeDocumentError(w, http.StatusBadRequest, "invalid_or_expired", "request could not be processed")
	case errors.Is(err, documenterrors.ErrRenderFailed):
		writeDocumentError(w, http.StatusBadGateway, "render_failed", err.Error())
	default:
		writeDocumentError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeAuthzError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, authzhttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}

func writeMembershipError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, membershiphttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}

func writeDocumentError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, documenthttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// decodeOptionalBody tolerates an empty body for endpoints whose request
// struct is entirely optional.
func decodeOptionalBody(r *http.Request, target any) error {
	if r.Body == nil {
		return nil
	}
	err := json.NewDecoder(r.Body).Decode(target)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func resolveActorID(r *http.Request) string {
	if adminID := strings.TrimSpace(r.Header.Get("X-Admin-Id")); adminID != "" {
		return adminID
	}
	return strings.TrimSpace(r.Header.Get("X-User-Id"))
}

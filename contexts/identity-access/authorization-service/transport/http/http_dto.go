package httptransport

import "time"

// CreateAdminRequest provisions a new administrator account.
type CreateAdminRequest struct {
	Name          string `json:"name"`
	Email         string `json:"email"`
	Password      string `json:"password"`
	Function      string `json:"function"`
	AssignedLevel string `json:"assigned_level,omitempty"`
	AssignedID    string `json:"assigned_id,omitempty"`
}

type AdminUserDTO struct {
	AdminID       string    `json:"admin_id"`
	Name          string    `json:"name"`
	Email         string    `json:"email"`
	Role          string    `json:"role"`
	AssignedLevel string    `json:"assigned_level,omitempty"`
	AssignedID    string    `json:"assigned_id,omitempty"`
	Active        bool      `json:"active"`
	CreatedBy     string    `json:"created_by,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

type CreateAdminResponse struct {
	Admin AdminUserDTO `json:"admin"`
}

type ListAdminsResponse struct {
	Items []AdminUserDTO `json:"items"`
}

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

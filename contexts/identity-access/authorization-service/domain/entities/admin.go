package entities

import (
	"strings"
	"time"

	domainerrors "rmas/contexts/identity-access/authorization-service/domain/errors"
)

// AdminUser is an administrator account in the organizational hierarchy.
// Non-superadmin users must carry a consistent scope anchor; superadmin must
// carry none. Accounts are soft-disabled via Active, never mutated in place.
type AdminUser struct {
	AdminID       string
	Name          string
	Email         string
	PasswordHash  string
	Role          Role
	AssignedLevel Level
	AssignedID    string
	Active        bool
	CreatedBy     string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func NewAdminUser(
	adminID string,
	name string,
	email string,
	passwordHash string,
	role Role,
	assignedLevel Level,
	assignedID string,
	createdBy string,
	now time.Time,
) (AdminUser, error) {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))
	assignedID = strings.TrimSpace(assignedID)

	if adminID == "" || name == "" || email == "" || passwordHash == "" {
		return AdminUser{}, domainerrors.ErrInvalidAdminUser
	}
	if role.IsSuperAdmin() {
		if assignedLevel != "" || assignedID != "" {
			return AdminUser{}, domainerrors.ErrInvalidAdminUser
		}
	} else {
		if !assignedLevel.Valid() || assignedID == "" {
			return AdminUser{}, domainerrors.ErrInvalidAdminUser
		}
		if assignedLevel != role.Level {
			return AdminUser{}, domainerrors.ErrInvalidAdminUser
		}
	}

	return AdminUser{
		AdminID:       adminID,
		Name:          name,
		Email:         email,
		PasswordHash:  passwordHash,
		Role:          role,
		AssignedLevel: assignedLevel,
		AssignedID:    assignedID,
		Active:        true,
		CreatedBy:     createdBy,
		CreatedAt:     now.UTC(),
		UpdatedAt:     now.UTC(),
	}, nil
}

// Actor projects the account into its authorization-relevant view.
func (u AdminUser) Actor() Actor {
	return Actor{
		AdminID:       u.AdminID,
		Role:          u.Role,
		AssignedLevel: u.AssignedLevel,
		AssignedID:    u.AssignedID,
	}
}

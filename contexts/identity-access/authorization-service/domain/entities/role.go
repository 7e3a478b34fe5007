package entities

import (
	"strings"

	domainerrors "rmas/contexts/identity-access/authorization-service/domain/errors"
)

// Function is the organizational post an administrator holds.
type Function string

const (
	FunctionSuperAdmin    Function = "superadmin"
	FunctionPresident     Function = "president"
	FunctionSecretary     Function = "secretary"
	FunctionMediaIncharge Function = "media_incharge"
)

// Level is the hierarchy depth an administrator or application is anchored at.
type Level string

const (
	LevelState    Level = "state"
	LevelDivision Level = "division"
	LevelDistrict Level = "district"
	LevelBlock    Level = "block"
)

// rank orders levels for the descent-only provisioning rule. Superadmin sits
// above state and is represented by the absence of a level.
func (l Level) rank() int {
	switch l {
	case LevelState:
		return 0
	case LevelDivision:
		return 1
	case LevelDistrict:
		return 2
	case LevelBlock:
		return 3
	default:
		return 999
	}
}

// Below reports whether l is strictly deeper in the hierarchy than other.
func (l Level) Below(other Level) bool {
	return l.rank() > other.rank()
}

func (l Level) Valid() bool {
	return l.rank() != 999
}

// Role is the structured administrator role: a function plus the level it is
// exercised at. Superadmin carries no level.
type Role struct {
	Function Function
	Level    Level
}

func (r Role) IsSuperAdmin() bool {
	return r.Function == FunctionSuperAdmin
}

// ViewOnly reports whether the role belongs to the view-only capability class.
// Media incharge roles may browse but never claim, accept, reject, or assign.
func (r Role) ViewOnly() bool {
	return r.Function == FunctionMediaIncharge
}

// NewRole validates the function/level pairing.
func NewRole(function Function, level Level) (Role, error) {
	switch function {
	case FunctionSuperAdmin:
		if level != "" {
			return Role{}, domainerrors.ErrInvalidRole
		}
		return Role{Function: function}, nil
	case FunctionPresident, FunctionSecretary, FunctionMediaIncharge:
		if !level.Valid() {
			return Role{}, domainerrors.ErrInvalidRole
		}
		return Role{Function: function, Level: level}, nil
	default:
		return Role{}, domainerrors.ErrInvalidRole
	}
}

// ParseRole is a migration shim for legacy "<level>_<function>" role strings
// such as "district_president" or "state_media_incharge".
func ParseRole(raw string) (Role, error) {
	value := strings.ToLower(strings.TrimSpace(raw))
	if value == string(FunctionSuperAdmin) {
		return Role{Function: FunctionSuperAdmin}, nil
	}
	parts := strings.SplitN(value, "_", 2)
	if len(parts) != 2 {
		return Role{}, domainerrors.ErrInvalidRole
	}
	level := Level(parts[0])
	var function Function
	switch parts[1] {
	case "president":
		function = FunctionPresident
	case "secretary":
		function = FunctionSecretary
	case "media_incharge":
		function = FunctionMediaIncharge
	default:
		return Role{}, domainerrors.ErrInvalidRole
	}
	return NewRole(function, level)
}

// String renders the legacy wire form consumed by older tooling.
func (r Role) String() string {
	if r.IsSuperAdmin() {
		return string(FunctionSuperAdmin)
	}
	return string(r.Level) + "_" + string(r.Function)
}

// Actor is the authorization-relevant view of an administrator.
type Actor struct {
	AdminID       string
	Role          Role
	AssignedLevel Level
	AssignedID    string
}

// Anchored reports whether the actor has a usable scope anchor. Superadmin
// needs none; everyone else must carry both level and entity id.
func (a Actor) Anchored() bool {
	if a.Role.IsSuperAdmin() {
		return true
	}
	return a.AssignedLevel.Valid() && strings.TrimSpace(a.AssignedID) != ""
}

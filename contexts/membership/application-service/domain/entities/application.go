package entities

import (
	"strings"
	"time"
)

type ApplicationStatus string

const (
	ApplicationStatusPending  ApplicationStatus = "pending"
	ApplicationStatusAccepted ApplicationStatus = "accepted"
	ApplicationStatusRejected ApplicationStatus = "rejected"
)

// Terminal reports whether the status admits no further transition.
func (s ApplicationStatus) Terminal() bool {
	return s == ApplicationStatusAccepted || s == ApplicationStatusRejected
}

// TeamType is the organizational wing a member belongs to. It is descriptive
// only and carries no authorization effect.
type TeamType string

const (
	TeamTypeCore        TeamType = "core"
	TeamTypeMahila      TeamType = "mahila"
	TeamTypeYuva        TeamType = "yuva"
	TeamTypeAlpsankhyak TeamType = "alpsankhyak"
	TeamTypeSCST        TeamType = "scst"
)

func (t TeamType) Valid() bool {
	switch t {
	case TeamTypeCore, TeamTypeMahila, TeamTypeYuva, TeamTypeAlpsankhyak, TeamTypeSCST:
		return true
	}
	return false
}

// Level mirrors the organizational hierarchy depth an application is anchored
// at. The module keeps its own copy of the enum; context boundaries forbid
// importing identity-access types.
type Level string

const (
	LevelState    Level = "state"
	LevelDivision Level = "division"
	LevelDistrict Level = "district"
	LevelBlock    Level = "block"
)

func (l Level) Valid() bool {
	switch l {
	case LevelState, LevelDivision, LevelDistrict, LevelBlock:
		return true
	}
	return false
}

// Location anchors an application in the state hierarchy. Division is derived
// from district through the location directory at submission time, never
// client-supplied. LocatedAt is authoritative when set; EffectiveTarget falls
// back to finest-populated-field inference for legacy rows.
type Location struct {
	LocatedAt Level
	State     string
	Division  string
	District  string
	Block     string
}

// EffectiveTarget resolves the level and entity id the location is anchored at.
func (l Location) EffectiveTarget() (Level, string) {
	if l.LocatedAt.Valid() {
		switch l.LocatedAt {
		case LevelBlock:
			return LevelBlock, l.Block
		case LevelDistrict:
			return LevelDistrict, l.District
		case LevelDivision:
			return LevelDivision, l.Division
		default:
			return LevelState, l.State
		}
	}
	if strings.TrimSpace(l.Block) != "" {
		return LevelBlock, l.Block
	}
	if strings.TrimSpace(l.District) != "" {
		return LevelDistrict, l.District
	}
	if strings.TrimSpace(l.Division) != "" {
		return LevelDivision, l.Division
	}
	return LevelState, l.State
}

// Actor is the acting administrator as seen by this module. Role is the
// canonical role string; view-only and superadmin semantics are decided by the
// injected authorizer, not here.
type Actor struct {
	AdminID       string
	Role          string
	AssignedLevel Level
	AssignedID    string
}

// ScopeFilter is one disjunct of a list-query filter derived from an actor's
// scope by the authorizer. Empty fields do not participate.
type ScopeFilter struct {
	State     string
	Division  string
	Districts []string
	Blocks    []string
}

// Application is a membership application and, once accepted, the membership
// record itself. AssignedTo is set at most once while pending; MembershipID is
// minted exactly once at acceptance.
type Application struct {
	ApplicationID string
	FullName      string
	FatherName    string
	Email         string
	Phone         string
	Address       string
	TeamType      TeamType
	Location      Location
	Status        ApplicationStatus
	AssignedTo    string
	MembershipID  string
	LetterURL     string
	AcceptedAt    *time.Time
	RejectedAt    *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (a Application) ValidateCreate() bool {
	return strings.TrimSpace(a.FullName) != "" &&
		strings.TrimSpace(a.Email) != "" &&
		strings.TrimSpace(a.Location.District) != "" &&
		a.TeamType.Valid()
}

package entities

import "time"

// HistoryAction enumerates the append-only audit trail entry kinds.
type HistoryAction string

const (
	HistoryActionSubmitted             HistoryAction = "submitted"
	HistoryActionClaimed               HistoryAction = "claimed"
	HistoryActionAssigned              HistoryAction = "assigned"
	HistoryActionUnassigned            HistoryAction = "unassigned"
	HistoryActionAccepted              HistoryAction = "accepted"
	HistoryActionRejected              HistoryAction = "rejected"
	HistoryActionRoleAssigned          HistoryAction = "role_assigned"
	HistoryActionMembershipIDGenerated HistoryAction = "membership_id_generated"
	HistoryActionLetterFailed          HistoryAction = "letter_generation_failed"
	HistoryActionLetterResent          HistoryAction = "letter_resent"
	HistoryActionEmailFailed           HistoryAction = "email_failed"
	HistoryActionDownloadEmailSent     HistoryAction = "download_email_sent"
	HistoryActionNoEmailOnFile         HistoryAction = "no_email_for_download"
)

// HistoryEntry is one immutable line of an application's audit trail. Entries
// are only ever appended, never updated or deleted.
type HistoryEntry struct {
	HistoryID     string
	ApplicationID string
	ActorID       string
	ActorRole     string
	Action        HistoryAction
	Note          string
	CreatedAt     time.Time
}

// RoleAssignment is the single current organizational post of an accepted
// member. Writing a new assignment replaces the previous one; the old value
// survives only in history.
type RoleAssignment struct {
	ApplicationID string
	Category      string
	RoleCode      string
	RoleName      string
	TeamType      TeamType
	Level         Level
	Location      string
	Reason        string
	AssignedBy    string
	AssignedAt    time.Time
}

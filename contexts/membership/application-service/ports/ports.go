package ports

import (
	"context"
	"time"

	"rmas/contexts/membership/application-service/domain/entities"
	contractsv1 "rmas/contracts/gen/events/v1"
)

// ApplicationFilter defines read-side filtering/pagination for admin listing.
// Scopes are disjuncts from the authorizer; an empty slice means unrestricted.
type ApplicationFilter struct {
	Status entities.ApplicationStatus
	Scopes []entities.ScopeFilter
	Cursor string
	Limit  int
}

// ApplicationRepository owns application persistence and the write boundaries
// for state transitions. Claim and transition methods are atomic conditional
// updates so lost races surface as domain errors, never as double writes.
type ApplicationRepository interface {
	// CreateApplication persists a new pending application together with its
	// first history entry.
	CreateApplication(ctx context.Context, application entities.Application, history entities.HistoryEntry) error
	GetApplication(ctx context.Context, applicationID string) (entities.Application, error)
	// GetByMembershipID resolves the application holding a minted membership
	// id, for the public verification page the letter QR code points at.
	GetByMembershipID(ctx context.Context, membershipID string) (entities.Application, error)
	// ListApplications returns one page plus the cursor for the next.
	ListApplications(ctx context.Context, filter ApplicationFilter) ([]entities.Application, string, error)
	// ClaimApplication sets assigned_to only when the row is still pending and
	// unassigned. A lost race returns ErrAlreadyClaimed; a terminal row returns
	// ErrAlreadyDecided.
	ClaimApplication(ctx context.Context, applicationID string, adminID string, history entities.HistoryEntry) (entities.Application, error)
	// UpdateAssignee sets or clears assigned_to on a pending application.
	UpdateAssignee(ctx context.Context, applicationID string, adminID string, history entities.HistoryEntry) error
	// TransitionStatus moves pending to a terminal status, persisting the
	// updated row, history entry, and outbox event in one transaction. A row no
	// longer pending returns ErrAlreadyDecided.
	TransitionStatus(ctx context.Context, application entities.Application, history entities.HistoryEntry, event EventEnvelope) error
	// SaveRoleAssignment replaces the current role assignment and applies the
	// accompanying application updates, history entries, and outbox event
	// atomically.
	SaveRoleAssignment(ctx context.Context, application entities.Application, assignment entities.RoleAssignment, history []entities.HistoryEntry, event EventEnvelope) error
	GetRoleAssignment(ctx context.Context, applicationID string) (entities.RoleAssignment, bool, error)
	// UpdateLetterURL records the stored artifact location after a successful
	// render. Best-effort metadata, not part of the transition transaction.
	UpdateLetterURL(ctx context.Context, applicationID string, letterURL string, updatedAt time.Time) error
	AppendHistory(ctx context.Context, entry entities.HistoryEntry) error
	ListHistory(ctx context.Context, applicationID string) ([]entities.HistoryEntry, error)
	// NextMembershipSerial atomically reserves the next serial for one
	// district-code+year counter.
	NextMembershipSerial(ctx context.Context, districtCode string, year int) (int, error)
}

// Authorizer is the cascade decision engine injected from identity-access.
type Authorizer interface {
	CanPerformActions(ctx context.Context, actor entities.Actor, location entities.Location) bool
	CanAssignRole(ctx context.Context, actor entities.Actor, location entities.Location, teamType string) bool
	// AccessibleScopes expands the actor's anchor into list-query filters.
	// ok=false means no access at all; ok=true with an empty slice means
	// unrestricted.
	AccessibleScopes(ctx context.Context, actor entities.Actor) ([]entities.ScopeFilter, bool)
}

// RoleDefinition is one assignable organizational post from the role catalog.
type RoleDefinition struct {
	Code string
	Name string
}

// RoleCatalog resolves role codes against the reference catalog.
type RoleCatalog interface {
	Lookup(ctx context.Context, category string, code string) (RoleDefinition, bool, error)
}

// LocationDirectory resolves hierarchy relations needed at submission time.
type LocationDirectory interface {
	DivisionForDistrict(ctx context.Context, district string) (string, bool, error)
	DistrictForBlock(ctx context.Context, block string) (string, bool, error)
}

// JoiningLetterData carries everything the renderer needs for one letter.
// QRPayload is the public verification URL encoded into the letter's QR code.
type JoiningLetterData struct {
	MembershipID string
	FullName     string
	FatherName   string
	TeamType     string
	RoleName     string
	District     string
	Division     string
	State        string
	QRPayload    string
	IssuedAt     time.Time
}

// LetterRenderer produces the joining-letter PDF. Failures are recoverable;
// callers never roll back a committed transition over a render error.
type LetterRenderer interface {
	RenderJoiningLetter(ctx context.Context, letter JoiningLetterData) ([]byte, error)
}

// MailMessage is one outbound email with an optional PDF attachment.
type MailMessage struct {
	To             string
	Subject        string
	Body           string
	Attachment     []byte
	AttachmentName string
}

// Mailer delivers email. Send is expected to be wrapped fire-and-forget by the
// caller; delivery failure never blocks a state transition.
type Mailer interface {
	Send(ctx context.Context, message MailMessage) error
}

// AuditEvent is one append-only audit record emitted on decisions and
// transitions.
type AuditEvent struct {
	EventID    string
	ActorID    string
	Action     string
	TargetType string
	TargetID   string
	Detail     string
	OccurredAt time.Time
}

// AuditSink records audit events. Append-only; the module never reads it back.
type AuditSink interface {
	Record(ctx context.Context, event AuditEvent) error
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}

// OutboxMessage is a row ready to relay from the module outbox.
type OutboxMessage struct {
	OutboxID     string
	EventType    string
	PartitionKey string
	Payload      []byte
	CreatedAt    time.Time
}

// OutboxRepository models worker-side outbox polling/acknowledgement.
type OutboxRepository interface {
	ListPendingOutbox(ctx context.Context, limit int) ([]OutboxMessage, error)
	MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error
}

// EventEnvelope reuses the canonical cross-runtime envelope contract.
type EventEnvelope = contractsv1.Envelope

// EventPublisher publishes canonical envelopes to a topic.
type EventPublisher interface {
	Publish(ctx context.Context, topic string, event EventEnvelope) error
}

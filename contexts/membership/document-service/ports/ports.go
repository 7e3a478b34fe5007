package ports

import (
	"context"
	"time"

	"rmas/contexts/membership/document-service/domain/entities"
)

// OtpRepository persists download-request rows and the two conditional
// transitions on them. Verify-and-mint is a single atomic operation; the
// race of two concurrent verifies is decided here, not by callers.
type OtpRepository interface {
	CreateOtp(ctx context.Context, otp entities.DownloadOtp) error
	// LatestLiveOtp returns the most recently created row for the email with
	// the given code that is unverified and unexpired at now.
	LatestLiveOtp(ctx context.Context, email string, code string, now time.Time) (entities.DownloadOtp, bool, error)
	// VerifyAndMintToken marks the row verified and attaches the token in one
	// conditional write. ok=false means the row was already verified or
	// expired when the write ran.
	VerifyAndMintToken(ctx context.Context, otpID string, token string, verifiedAt time.Time, tokenExpiresAt time.Time) (bool, error)
	GetByToken(ctx context.Context, token string) (entities.DownloadOtp, bool, error)
	// CountRequestsSince counts rows created for the email at or after the
	// cutoff, spent or not.
	CountRequestsSince(ctx context.Context, email string, since time.Time) (int, error)
	// DeleteExpired removes rows whose code and token windows have both
	// passed, returning the number removed.
	DeleteExpired(ctx context.Context, now time.Time) (int, error)
}

// MembershipReader resolves the accepted member owning an email address. When
// several accepted records share the address, the most recently accepted one
// wins.
type MembershipReader interface {
	AcceptedByEmail(ctx context.Context, email string) (entities.MemberProfile, bool, error)
}

// DocumentRenderer synthesizes the requested PDF for a member snapshot.
type DocumentRenderer interface {
	Render(ctx context.Context, kind entities.DocumentKind, member entities.MemberProfile) ([]byte, error)
}

// MailMessage is one outbound email.
type MailMessage struct {
	To      string
	Subject string
	Body    string
}

// Mailer delivers email. Delivery failure never fails the originating
// request.
type Mailer interface {
	Send(ctx context.Context, message MailMessage) error
}

// AuditEvent is one append-only record of an OTP transition or a document
// release.
type AuditEvent struct {
	EventID    string
	ActorEmail string
	Action     string
	TargetID   string
	Detail     string
	OccurredAt time.Time
}

type AuditSink interface {
	Record(ctx context.Context, event AuditEvent) error
}

// FlowMetrics counts OTP state transitions, artifact releases, and render
// failures for the operator channel.
type FlowMetrics interface {
	OtpTransition(transition string)
	DocumentReleased(kind string)
	RenderFailed()
}

// CodeGenerator produces the short numeric one-time code.
type CodeGenerator interface {
	NewCode(ctx context.Context) (string, error)
}

// TokenGenerator produces the opaque post-verification credential.
type TokenGenerator interface {
	NewToken(ctx context.Context) (string, error)
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}

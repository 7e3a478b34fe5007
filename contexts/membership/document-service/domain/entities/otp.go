package entities

import (
	"strings"
	"time"
)

// DocumentKind names one downloadable artifact.
type DocumentKind string

const (
	DocumentKindJoiningLetter DocumentKind = "joining"
	DocumentKindIDCard        DocumentKind = "idcard"
)

func (k DocumentKind) Valid() bool {
	switch k {
	case DocumentKindJoiningLetter, DocumentKindIDCard:
		return true
	default:
		return false
	}
}

// DownloadOtp is one download-request row. Multiple rows may exist per email;
// only the most recent unverified, unexpired one is honored on verify. The
// token fields are populated by the verify transition and never before.
type DownloadOtp struct {
	OtpID          string
	Email          string
	Code           string
	Verified       bool
	VerifiedAt     *time.Time
	Token          string
	TokenExpiresAt *time.Time
	ExpiresAt      time.Time
	CreatedAt      time.Time
}

// Live reports whether the row can still satisfy a verify attempt.
func (o DownloadOtp) Live(now time.Time) bool {
	return !o.Verified && now.Before(o.ExpiresAt)
}

// TokenValid reports whether the minted token authorizes document access.
func (o DownloadOtp) TokenValid(now time.Time) bool {
	return o.Verified && o.Token != "" && o.TokenExpiresAt != nil && now.Before(*o.TokenExpiresAt)
}

// Swept reports whether neither the code nor the token can ever act again,
// making the row eligible for cleanup.
func (o DownloadOtp) Swept(now time.Time) bool {
	if now.Before(o.ExpiresAt) {
		return false
	}
	if o.TokenExpiresAt != nil && now.Before(*o.TokenExpiresAt) {
		return false
	}
	return true
}

// MemberProfile is the accepted-member snapshot rendered on the profile page
// and handed to the document renderer. It is a read model over the membership
// record, resolved fresh on every access.
type MemberProfile struct {
	ApplicationID string
	MembershipID  string
	FullName      string
	FatherName    string
	Email         string
	Phone         string
	TeamType      string
	RoleName      string
	Level         string
	State         string
	Division      string
	District      string
	Block         string
	AcceptedAt    time.Time
}

// NameMatches compares a claimed name against the on-file full name,
// case-insensitive and trimmed.
func (p MemberProfile) NameMatches(claimed string) bool {
	return strings.EqualFold(strings.TrimSpace(claimed), strings.TrimSpace(p.FullName))
}

package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"rmas/contexts/membership/document-service/domain/entities"
	"rmas/contexts/membership/document-service/ports"
)

// Store is the in-memory backing for tests and local runs. It implements the
// OTP repository, the membership read model, the audit sink, and the clock,
// code, token, and id generators.
type Store struct {
	mu       sync.RWMutex
	otps     map[string]entities.DownloadOtp
	members  []entities.MemberProfile
	audits   []ports.AuditEvent
	sequence uint64
	now      atomic.Pointer[time.Time]
}

func NewStore(members []entities.MemberProfile) *Store {
	return &Store{
		otps:    make(map[string]entities.DownloadOtp),
		members: append([]entities.MemberProfile(nil), members...),
	}
}

func (s *Store) CreateOtp(_ context.Context, otp entities.DownloadOtp) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.otps[otp.OtpID] = otp
	return nil
}

func (s *Store) LatestLiveOtp(_ context.Context, email string, code string, now time.Time) (entities.DownloadOtp, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var candidates []entities.DownloadOtp
	for _, otp := range s.otps {
		if strings.EqualFold(otp.Email, email) && otp.Code == code && otp.Live(now) {
			candidates = append(candidates, otp)
		}
	}
	if len(candidates) == 0 {
		return entities.DownloadOtp{}, false, nil
	}
	sort.Slice(candidates, func(i, j int) bool {
		if !candidates[i].CreatedAt.Equal(candidates[j].CreatedAt) {
			return candidates[i].CreatedAt.After(candidates[j].CreatedAt)
		}
		return candidates[i].OtpID > candidates[j].OtpID
	})
	return candidates[0], true, nil
}

func (s *Store) VerifyAndMintToken(_ context.Context, otpID string, token string, verifiedAt time.Time, tokenExpiresAt time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	otp, found := s.otps[otpID]
	if !found || !otp.Live(verifiedAt) {
		return false, nil
	}
	otp.Verified = true
	otp.VerifiedAt = &verifiedAt
	otp.Token = token
	otp.TokenExpiresAt = &tokenExpiresAt
	s.otps[otpID] = otp
	return true, nil
}

func (s *Store) GetByToken(_ context.Context, token string) (entities.DownloadOtp, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, otp := range s.otps {
		if otp.Token != "" && otp.Token == token {
			return otp, true, nil
		}
	}
	return entities.DownloadOtp{}, false, nil
}

func (s *Store) CountRequestsSince(_ context.Context, email string, since time.Time) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, otp := range s.otps {
		if strings.EqualFold(otp.Email, email) && !otp.CreatedAt.Before(since) {
			count++
		}
	}
	return count, nil
}

func (s *Store) DeleteExpired(_ context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, otp := range s.otps {
		if otp.Swept(now) {
			delete(s.otps, id)
			removed++
		}
	}
	return removed, nil
}

// AcceptedByEmail returns the most recently accepted profile owning the
// address.
func (s *Store) AcceptedByEmail(_ context.Context, email string) (entities.MemberProfile, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var best entities.MemberProfile
	found := false
	for _, member := range s.members {
		if !strings.EqualFold(member.Email, email) {
			continue
		}
		if !found || member.AcceptedAt.After(best.AcceptedAt) {
			best = member
			found = true
		}
	}
	return best, found, nil
}

func (s *Store) AddMember(member entities.MemberProfile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.members = append(s.members, member)
}

func (s *Store) Record(_ context.Context, event ports.AuditEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.audits = append(s.audits, event)
	return nil
}

func (s *Store) Audits() []ports.AuditEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]ports.AuditEvent(nil), s.audits...)
}

func (s *Store) Now() time.Time {
	if pinned := s.now.Load(); pinned != nil {
		return *pinned
	}
	return time.Now()
}

// SetNow pins the clock for tests.
func (s *Store) SetNow(now time.Time) {
	s.now.Store(&now)
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return fmt.Sprintf("otp-%06d", atomic.AddUint64(&s.sequence, 1)), nil
}

// NewCode issues deterministic six-digit codes.
func (s *Store) NewCode(_ context.Context) (string, error) {
	return fmt.Sprintf("%06d", atomic.AddUint64(&s.sequence, 1)%1000000), nil
}

func (s *Store) NewToken(_ context.Context) (string, error) {
	return fmt.Sprintf("token-%06d", atomic.AddUint64(&s.sequence, 1)), nil
}

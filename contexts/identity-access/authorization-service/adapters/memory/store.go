package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"rmas/contexts/identity-access/authorization-service/domain/entities"
	domainerrors "rmas/contexts/identity-access/authorization-service/domain/errors"
)

// Store is an in-memory adapter implementing the identity-access ports for
// local runtime and tests. It is not intended as production persistence.
type Store struct {
	mu        sync.RWMutex
	admins    map[string]entities.AdminUser
	divisions map[string][]string
	blocks    map[string][]string
	sequence  uint64
}

// NewStore seeds the location hierarchy and initializes the admin directory.
// divisions maps division → districts; blocks maps district → blocks.
func NewStore(divisions map[string][]string, blocks map[string][]string) *Store {
	if divisions == nil {
		divisions = map[string][]string{}
	}
	if blocks == nil {
		blocks = map[string][]string{}
	}
	return &Store{
		admins:    make(map[string]entities.AdminUser),
		divisions: divisions,
		blocks:    blocks,
	}
}

func (s *Store) DistrictsForDivision(_ context.Context, division string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.divisions[division]...), nil
}

func (s *Store) BlocksForDistrict(_ context.Context, district string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.blocks[district]...), nil
}

func (s *Store) DivisionForDistrict(_ context.Context, district string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for division, districts := range s.divisions {
		for _, candidate := range districts {
			if candidate == district {
				return division, true, nil
			}
		}
	}
	return "", false, nil
}

func (s *Store) DistrictForBlock(_ context.Context, block string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for district, blocks := range s.blocks {
		for _, candidate := range blocks {
			if candidate == block {
				return district, true, nil
			}
		}
	}
	return "", false, nil
}

func (s *Store) GetAdmin(_ context.Context, adminID string) (entities.AdminUser, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	admin, ok := s.admins[adminID]
	if !ok {
		return entities.AdminUser{}, domainerrors.ErrAdminNotFound
	}
	return admin, nil
}

func (s *Store) GetAdminByEmail(_ context.Context, email string) (entities.AdminUser, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	email = strings.ToLower(strings.TrimSpace(email))
	for _, admin := range s.admins {
		if admin.Email == email {
			return admin, true, nil
		}
	}
	return entities.AdminUser{}, false, nil
}

func (s *Store) ListAdmins(_ context.Context) ([]entities.AdminUser, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]entities.AdminUser, 0, len(s.admins))
	for _, admin := range s.admins {
		items = append(items, admin)
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].AdminID < items[j].AdminID
		}
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
	return items, nil
}

func (s *Store) CreateAdmin(_ context.Context, admin entities.AdminUser) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.admins {
		if existing.Email == admin.Email {
			return domainerrors.ErrDuplicateEmail
		}
	}
	s.admins[admin.AdminID] = admin
	return nil
}

func (s *Store) SetActive(_ context.Context, adminID string, active bool, updatedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	admin, ok := s.admins[adminID]
	if !ok {
		return domainerrors.ErrAdminNotFound
	}
	admin.Active = active
	admin.UpdatedAt = updatedAt.UTC()
	s.admins[adminID] = admin
	return nil
}

func (s *Store) DeleteAdmin(_ context.Context, adminID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.admins[adminID]; !ok {
		return domainerrors.ErrAdminNotFound
	}
	delete(s.admins, adminID)
	return nil
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	next := atomic.AddUint64(&s.sequence, 1)
	return fmt.Sprintf("admin-%06d", next), nil
}

// Hash is a test-only reversible marker, not a real credential hash.
func (s *Store) Hash(password string) (string, error) {
	return "plain:" + password, nil
}

func (s *Store) Compare(hash string, password string) bool {
	return hash == "plain:"+password
}

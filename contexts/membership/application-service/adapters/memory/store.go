package memory

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"rmas/contexts/membership/application-service/domain/entities"
	domainerrors "rmas/contexts/membership/application-service/domain/errors"
	"rmas/contexts/membership/application-service/ports"
)

// Store is an in-memory adapter implementing the module's ports for local
// runtime and tests. It is not intended as production persistence. The claim
// and counter methods hold the write lock across check-and-set so they give
// the same atomicity the postgres adapter gives via conditional updates.
type Store struct {
	mu           sync.RWMutex
	applications map[string]entities.Application
	assignments  map[string]entities.RoleAssignment
	history      map[string][]entities.HistoryEntry
	counters     map[string]int
	outbox       map[string]ports.OutboxMessage
	outboxOrder  []string
	published    map[string]time.Time
	audits       []ports.AuditEvent
	divisions    map[string][]string
	blocks       map[string][]string
	roles        map[string]ports.RoleDefinition
	sequence     uint64
	now          atomic.Pointer[time.Time]
}

// NewStore seeds the location maps (division to districts, district to
// blocks) and the flat role catalog keyed "category/code".
func NewStore(divisions map[string][]string, blocks map[string][]string, roles map[string]ports.RoleDefinition) *Store {
	if divisions == nil {
		divisions = map[string][]string{}
	}
	if blocks == nil {
		blocks = map[string][]string{}
	}
	if roles == nil {
		roles = map[string]ports.RoleDefinition{}
	}
	return &Store{
		applications: make(map[string]entities.Application),
		assignments:  make(map[string]entities.RoleAssignment),
		history:      make(map[string][]entities.HistoryEntry),
		counters:     make(map[string]int),
		outbox:       make(map[string]ports.OutboxMessage),
		outboxOrder:  make([]string, 0),
		published:    make(map[string]time.Time),
		divisions:    divisions,
		blocks:       blocks,
		roles:        roles,
	}
}

func (s *Store) CreateApplication(_ context.Context, app entities.Application, history entities.HistoryEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.applications[app.ApplicationID]; exists {
		return domainerrors.ErrInvalidApplication
	}
	s.applications[app.ApplicationID] = app
	s.history[app.ApplicationID] = append(s.history[app.ApplicationID], history)
	return nil
}

func (s *Store) GetApplication(_ context.Context, applicationID string) (entities.Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	app, ok := s.applications[applicationID]
	if !ok {
		return entities.Application{}, domainerrors.ErrApplicationNotFound
	}
	return app, nil
}

func (s *Store) GetByMembershipID(_ context.Context, membershipID string) (entities.Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, app := range s.applications {
		if app.MembershipID != "" && strings.EqualFold(app.MembershipID, membershipID) {
			return app, nil
		}
	}
	return entities.Application{}, domainerrors.ErrApplicationNotFound
}

func (s *Store) ListApplications(_ context.Context, filter ports.ApplicationFilter) ([]entities.Application, string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	filtered := make([]entities.Application, 0, len(s.applications))
	for _, app := range s.applications {
		if filter.Status != "" && app.Status != filter.Status {
			continue
		}
		if !scopesCover(filter.Scopes, app.Location) {
			continue
		}
		filtered = append(filtered, app)
	}
	sort.Slice(filtered, func(i, j int) bool {
		if filtered[i].CreatedAt.Equal(filtered[j].CreatedAt) {
			return filtered[i].ApplicationID < filtered[j].ApplicationID
		}
		return filtered[i].CreatedAt.After(filtered[j].CreatedAt)
	})

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	start, err := decodeCursor(filter.Cursor)
	if err != nil {
		return nil, "", err
	}
	if start >= len(filtered) {
		return []entities.Application{}, "", nil
	}
	end := start + limit
	if end > len(filtered) {
		end = len(filtered)
	}
	nextCursor := ""
	if end < len(filtered) {
		nextCursor = encodeCursor(end)
	}
	return append([]entities.Application(nil), filtered[start:end]...), nextCursor, nil
}

func (s *Store) ClaimApplication(
	_ context.Context,
	applicationID string,
	adminID string,
	history entities.HistoryEntry,
) (entities.Application, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	app, ok := s.applications[applicationID]
	if !ok {
		return entities.Application{}, domainerrors.ErrApplicationNotFound
	}
	if app.Status != entities.ApplicationStatusPending {
		return entities.Application{}, domainerrors.ErrAlreadyDecided
	}
	if app.AssignedTo != "" {
		return entities.Application{}, domainerrors.ErrAlreadyClaimed
	}
	app.AssignedTo = adminID
	app.UpdatedAt = history.CreatedAt
	s.applications[applicationID] = app
	s.history[applicationID] = append(s.history[applicationID], history)
	return app, nil
}

func (s *Store) UpdateAssignee(_ context.Context, applicationID string, adminID string, history entities.HistoryEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	app, ok := s.applications[applicationID]
	if !ok {
		return domainerrors.ErrApplicationNotFound
	}
	if app.Status != entities.ApplicationStatusPending {
		return domainerrors.ErrAlreadyDecided
	}
	app.AssignedTo = adminID
	app.UpdatedAt = history.CreatedAt
	s.applications[applicationID] = app
	s.history[applicationID] = append(s.history[applicationID], history)
	return nil
}

func (s *Store) TransitionStatus(
	_ context.Context,
	app entities.Application,
	history entities.HistoryEntry,
	event ports.EventEnvelope,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.applications[app.ApplicationID]
	if !ok {
		return domainerrors.ErrApplicationNotFound
	}
	if current.Status != entities.ApplicationStatusPending {
		return domainerrors.ErrAlreadyDecided
	}
	s.applications[app.ApplicationID] = app
	s.history[app.ApplicationID] = append(s.history[app.ApplicationID], history)
	s.appendOutboxLocked(event)
	return nil
}

func (s *Store) SaveRoleAssignment(
	_ context.Context,
	app entities.Application,
	assignment entities.RoleAssignment,
	history []entities.HistoryEntry,
	event ports.EventEnvelope,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.applications[app.ApplicationID]; !ok {
		return domainerrors.ErrApplicationNotFound
	}
	s.applications[app.ApplicationID] = app
	s.assignments[app.ApplicationID] = assignment
	s.history[app.ApplicationID] = append(s.history[app.ApplicationID], history...)
	s.appendOutboxLocked(event)
	return nil
}

func (s *Store) GetRoleAssignment(_ context.Context, applicationID string) (entities.RoleAssignment, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	assignment, ok := s.assignments[applicationID]
	return assignment, ok, nil
}

func (s *Store) UpdateLetterURL(_ context.Context, applicationID string, letterURL string, updatedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	app, ok := s.applications[applicationID]
	if !ok {
		return domainerrors.ErrApplicationNotFound
	}
	app.LetterURL = letterURL
	app.UpdatedAt = updatedAt.UTC()
	s.applications[applicationID] = app
	return nil
}

func (s *Store) AppendHistory(_ context.Context, entry entities.HistoryEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history[entry.ApplicationID] = append(s.history[entry.ApplicationID], entry)
	return nil
}

func (s *Store) ListHistory(_ context.Context, applicationID string) ([]entities.HistoryEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]entities.HistoryEntry(nil), s.history[applicationID]...), nil
}

func (s *Store) NextMembershipSerial(_ context.Context, districtCode string, year int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := fmt.Sprintf("%s:%d", strings.ToUpper(districtCode), year)
	s.counters[key]++
	return s.counters[key], nil
}

func (s *Store) ListPendingOutbox(_ context.Context, limit int) ([]ports.OutboxMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if limit <= 0 {
		limit = 100
	}
	items := make([]ports.OutboxMessage, 0, limit)
	for _, outboxID := range s.outboxOrder {
		if _, sent := s.published[outboxID]; sent {
			continue
		}
		items = append(items, s.outbox[outboxID])
		if len(items) == limit {
			break
		}
	}
	return items, nil
}

func (s *Store) MarkOutboxPublished(_ context.Context, outboxID string, publishedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.outbox[outboxID]; !ok {
		return domainerrors.ErrApplicationNotFound
	}
	s.published[outboxID] = publishedAt.UTC()
	return nil
}

// Record implements the audit sink for tests.
func (s *Store) Record(_ context.Context, event ports.AuditEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.audits = append(s.audits, event)
	return nil
}

// Audits returns a copy of recorded audit events.
func (s *Store) Audits() []ports.AuditEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]ports.AuditEvent(nil), s.audits...)
}

func (s *Store) DivisionForDistrict(_ context.Context, district string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for division, districts := range s.divisions {
		for _, candidate := range districts {
			if strings.EqualFold(candidate, district) {
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
			if strings.EqualFold(candidate, block) {
				return district, true, nil
			}
		}
	}
	return "", false, nil
}

func (s *Store) Lookup(_ context.Context, category string, code string) (ports.RoleDefinition, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	role, ok := s.roles[category+"/"+code]
	return role, ok, nil
}

// Now returns the pinned time when set, else wall clock. SetNow lets tests
// freeze and advance time.
func (s *Store) Now() time.Time {
	if pinned := s.now.Load(); pinned != nil {
		return *pinned
	}
	return time.Now().UTC()
}

func (s *Store) SetNow(now time.Time) {
	utc := now.UTC()
	s.now.Store(&utc)
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return fmt.Sprintf("app-%06d", atomic.AddUint64(&s.sequence, 1)), nil
}

func (s *Store) appendOutboxLocked(event ports.EventEnvelope) {
	raw, err := json.Marshal(event)
	if err != nil {
		return
	}
	s.outbox[event.EventID] = ports.OutboxMessage{
		OutboxID:     event.EventID,
		EventType:    event.EventType,
		PartitionKey: event.PartitionKey,
		Payload:      raw,
		CreatedAt:    event.OccurredAt,
	}
	s.outboxOrder = append(s.outboxOrder, event.EventID)
}

func scopesCover(scopes []entities.ScopeFilter, location entities.Location) bool {
	if len(scopes) == 0 {
		return true
	}
	for _, scope := range scopes {
		if scope.State != "" && strings.EqualFold(scope.State, location.State) {
			return true
		}
		if scope.Division != "" && strings.EqualFold(scope.Division, location.Division) {
			return true
		}
		for _, district := range scope.Districts {
			if strings.EqualFold(district, location.District) {
				return true
			}
		}
		for _, block := range scope.Blocks {
			if location.Block != "" && strings.EqualFold(block, location.Block) {
				return true
			}
		}
	}
	return false
}

func decodeCursor(cursor string) (int, error) {
	if strings.TrimSpace(cursor) == "" {
		return 0, nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return 0, domainerrors.ErrInvalidCursor
	}
	index, err := strconv.Atoi(string(raw))
	if err != nil || index < 0 {
		return 0, domainerrors.ErrInvalidCursor
	}
	return index, nil
}

func encodeCursor(offset int) string {
	return base64.RawURLEncoding.EncodeToString([]byte(strconv.Itoa(offset)))
}

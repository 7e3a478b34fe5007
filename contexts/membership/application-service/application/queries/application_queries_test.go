package queries

import (
	"context"
	"errors"
	"testing"
	"time"

	"rmas/contexts/membership/application-service/adapters/memory"
	"rmas/contexts/membership/application-service/domain/entities"
	domainerrors "rmas/contexts/membership/application-service/domain/errors"
	"rmas/contexts/membership/application-service/ports"
)

type scopedAuthorizer struct {
	scopes []entities.ScopeFilter
	ok     bool
}

func (a scopedAuthorizer) CanPerformActions(context.Context, entities.Actor, entities.Location) bool {
	return a.ok
}

func (a scopedAuthorizer) CanAssignRole(context.Context, entities.Actor, entities.Location, string) bool {
	return a.ok
}

func (a scopedAuthorizer) AccessibleScopes(context.Context, entities.Actor) ([]entities.ScopeFilter, bool) {
	return a.scopes, a.ok
}

func seedApplication(t *testing.T, store *memory.Store, id string, district string, division string) {
	t.Helper()
	now := store.Now().UTC()
	err := store.CreateApplication(context.Background(), entities.Application{
		ApplicationID: id,
		FullName:      "Member " + id,
		Email:         id + "@example.com",
		TeamType:      "core",
		Location: entities.Location{
			LocatedAt: entities.LevelDistrict,
			State:     "Bihar",
			Division:  division,
			District:  district,
		},
		Status:    entities.ApplicationStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}, entities.HistoryEntry{
		HistoryID:     "hist-" + id,
		ApplicationID: id,
		Action:        entities.HistoryActionSubmitted,
		CreatedAt:     now,
	})
	if err != nil {
		t.Fatalf("seed %s failed: %v", id, err)
	}
}

func newQueryStore(t *testing.T) *memory.Store {
	t.Helper()
	store := memory.NewStore(
		map[string][]string{"Tirhut": {"Muzaffarpur"}, "Purnia": {"Katihar"}},
		nil,
		nil,
	)
	store.SetNow(time.Date(2025, 4, 2, 12, 0, 0, 0, time.UTC))
	seedApplication(t, store, "app-a", "Muzaffarpur", "Tirhut")
	seedApplication(t, store, "app-b", "Katihar", "Purnia")
	return store
}

func TestListApplicationsScopedToDistricts(t *testing.T) {
	store := newQueryStore(t)
	list := ListApplicationsUseCase{
		Applications: store,
		Authorizer: scopedAuthorizer{
			scopes: []entities.ScopeFilter{{Districts: []string{"Muzaffarpur"}}},
			ok:     true,
		},
	}

	actor := entities.Actor{AdminID: "admin-1", Role: "district_president", AssignedLevel: entities.LevelDistrict, AssignedID: "Muzaffarpur"}
	result, err := list.Execute(context.Background(), actor, ListApplicationsQuery{})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(result.Items) != 1 || result.Items[0].ApplicationID != "app-a" {
		t.Fatalf("expected only the in-scope application, got %+v", result.Items)
	}
}

func TestListApplicationsNoAccessReturnsEmptyPage(t *testing.T) {
	store := newQueryStore(t)
	list := ListApplicationsUseCase{
		Applications: store,
		Authorizer:   scopedAuthorizer{ok: false},
	}

	result, err := list.Execute(context.Background(), entities.Actor{AdminID: "admin-x"}, ListApplicationsQuery{})
	if err != nil {
		t.Fatalf("expected empty page, not an error: %v", err)
	}
	if len(result.Items) != 0 || result.NextCursor != "" {
		t.Fatalf("expected empty result, got %+v", result)
	}
}

func TestListApplicationsRejectsUnknownStatus(t *testing.T) {
	store := newQueryStore(t)
	list := ListApplicationsUseCase{
		Applications: store,
		Authorizer:   scopedAuthorizer{ok: true},
	}

	_, err := list.Execute(context.Background(), entities.Actor{AdminID: "admin-1"}, ListApplicationsQuery{Status: "archived"})
	if !errors.Is(err, domainerrors.ErrInvalidApplication) {
		t.Fatalf("expected invalid status error, got %v", err)
	}
}

func TestGetApplicationOutOfScopeDenied(t *testing.T) {
	store := newQueryStore(t)
	get := GetApplicationUseCase{
		Applications: store,
		Authorizer: scopedAuthorizer{
			scopes: []entities.ScopeFilter{{Districts: []string{"Muzaffarpur"}}},
			ok:     true,
		},
	}

	actor := entities.Actor{AdminID: "admin-1", Role: "district_president", AssignedLevel: entities.LevelDistrict, AssignedID: "Muzaffarpur"}
	if _, err := get.Execute(context.Background(), actor, "app-a"); err != nil {
		t.Fatalf("in-scope read failed: %v", err)
	}
	_, err := get.Execute(context.Background(), actor, "app-b")
	if !errors.Is(err, domainerrors.ErrForbidden) {
		t.Fatalf("expected forbidden for out-of-scope record, got %v", err)
	}
}

func TestGetApplicationIncludesTrail(t *testing.T) {
	store := newQueryStore(t)
	get := GetApplicationUseCase{
		Applications: store,
		Authorizer:   scopedAuthorizer{ok: true},
	}

	detail, err := get.Execute(context.Background(), entities.Actor{AdminID: "admin-1"}, "app-a")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if detail.Assignment != nil {
		t.Fatalf("expected no assignment on a pending application")
	}
	if len(detail.History) != 1 || detail.History[0].Action != entities.HistoryActionSubmitted {
		t.Fatalf("expected submitted trail, got %+v", detail.History)
	}
}

var _ ports.Authorizer = scopedAuthorizer{}

func TestVerifyMembershipResolvesAcceptedRecord(t *testing.T) {
	store := newQueryStore(t)
	now := store.Now().UTC()
	acceptedAt := now
	err := store.CreateApplication(context.Background(), entities.Application{
		ApplicationID: "app-c",
		FullName:      "Ramesh Kumar",
		Email:         "ramesh@example.com",
		TeamType:      "core",
		Location: entities.Location{
			LocatedAt: entities.LevelDistrict,
			State:     "Bihar",
			Division:  "Tirhut",
			District:  "Muzaffarpur",
		},
		Status:       entities.ApplicationStatusAccepted,
		MembershipID: "RMAS/BIH/MUZ/2025/007",
		AcceptedAt:   &acceptedAt,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, entities.HistoryEntry{
		HistoryID:     "hist-app-c",
		ApplicationID: "app-c",
		Action:        entities.HistoryActionSubmitted,
		CreatedAt:     now,
	})
	if err != nil {
		t.Fatalf("seed accepted record failed: %v", err)
	}

	verify := VerifyMembershipUseCase{Applications: store}
	card, err := verify.Execute(context.Background(), "rmas/bih/muz/2025/007")
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if card.FullName != "Ramesh Kumar" || card.District != "Muzaffarpur" {
		t.Fatalf("unexpected card %+v", card)
	}
	if card.AcceptedAt == nil || !card.AcceptedAt.Equal(acceptedAt) {
		t.Fatalf("expected accepted timestamp on card, got %+v", card.AcceptedAt)
	}
	if card.MembershipID != "RMAS/BIH/MUZ/2025/007" {
		t.Fatalf("expected canonical membership id, got %q", card.MembershipID)
	}
}

func TestVerifyMembershipHidesUnmintedRecords(t *testing.T) {
	store := newQueryStore(t)
	verify := VerifyMembershipUseCase{Applications: store}

	// Pending records carry no membership id; an unknown id resolves to
	// not-found rather than leaking record state.
	if _, err := verify.Execute(context.Background(), "RMAS/BIH/MUZ/2025/099"); !errors.Is(err, domainerrors.ErrApplicationNotFound) {
		t.Fatalf("expected not found for unknown id, got %v", err)
	}
	if _, err := verify.Execute(context.Background(), "  "); !errors.Is(err, domainerrors.ErrInvalidApplication) {
		t.Fatalf("expected validation error for blank id, got %v", err)
	}
}

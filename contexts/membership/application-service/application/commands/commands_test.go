package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"rmas/contexts/membership/application-service/adapters/memory"
	"rmas/contexts/membership/application-service/domain/entities"
	domainerrors "rmas/contexts/membership/application-service/domain/errors"
	"rmas/contexts/membership/application-service/ports"
)

type allowAllAuthorizer struct{}

func (allowAllAuthorizer) CanPerformActions(context.Context, entities.Actor, entities.Location) bool {
	return true
}

func (allowAllAuthorizer) CanAssignRole(context.Context, entities.Actor, entities.Location, string) bool {
	return true
}

func (allowAllAuthorizer) AccessibleScopes(context.Context, entities.Actor) ([]entities.ScopeFilter, bool) {
	return nil, true
}

type denyAllAuthorizer struct{}

func (denyAllAuthorizer) CanPerformActions(context.Context, entities.Actor, entities.Location) bool {
	return false
}

func (denyAllAuthorizer) CanAssignRole(context.Context, entities.Actor, entities.Location, string) bool {
	return false
}

func (denyAllAuthorizer) AccessibleScopes(context.Context, entities.Actor) ([]entities.ScopeFilter, bool) {
	return nil, false
}

type recordingMailer struct {
	mu       sync.Mutex
	messages []ports.MailMessage
	fail     bool
}

func (m *recordingMailer) Send(_ context.Context, message ports.MailMessage) error {
	if m.fail {
		return errors.New("smtp refused")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, message)
	return nil
}

type stubRenderer struct {
	fail bool
}

func (r stubRenderer) RenderJoiningLetter(context.Context, ports.JoiningLetterData) ([]byte, error) {
	if r.fail {
		return nil, errors.New("render service down")
	}
	return []byte("%PDF-1.4 letter"), nil
}

func newTestStore(t *testing.T) *memory.Store {
	t.Helper()
	store := memory.NewStore(
		map[string][]string{
			"Tirhut": {"Muzaffarpur", "Sitamarhi"},
			"Purnia": {"Katihar"},
		},
		map[string][]string{
			"Muzaffarpur": {"Kanti", "Kurhani"},
			"Katihar":     {"Barari"},
		},
		map[string]ports.RoleDefinition{
			"karyakarini/district_president": {Code: "district_president", Name: "District President"},
			"karyakarini/secretary":          {Code: "secretary", Name: "Secretary"},
		},
	)
	store.SetNow(time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC))
	return store
}

func stateActor() entities.Actor {
	return entities.Actor{
		AdminID:       "admin-state-1",
		Role:          "state_president",
		AssignedLevel: entities.LevelState,
		AssignedID:    "Bihar",
	}
}

func submitUseCase(store *memory.Store) SubmitApplicationUseCase {
	return SubmitApplicationUseCase{
		Applications: store,
		Locations:    store,
		Clock:        store,
		IDGenerator:  store,
	}
}

func submitPending(t *testing.T, store *memory.Store, district string, block string) entities.Application {
	t.Helper()
	result, err := submitUseCase(store).Execute(context.Background(), SubmitApplicationCommand{
		FullName:   "Ramesh Kumar",
		FatherName: "Suresh Kumar",
		Email:      "ramesh@example.com",
		Phone:      "9800000001",
		TeamType:   "core",
		State:      "Bihar",
		District:   district,
		Block:      block,
	})
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	return result.Application
}

func TestSubmitApplicationDerivesDivision(t *testing.T) {
	store := newTestStore(t)
	app := submitPending(t, store, "Muzaffarpur", "")

	if app.Location.Division != "Tirhut" {
		t.Fatalf("expected division Tirhut, got %q", app.Location.Division)
	}
	if app.Location.LocatedAt != entities.LevelDistrict {
		t.Fatalf("expected district anchor, got %s", app.Location.LocatedAt)
	}
	if app.Status != entities.ApplicationStatusPending {
		t.Fatalf("expected pending status, got %s", app.Status)
	}

	history, err := store.ListHistory(context.Background(), app.ApplicationID)
	if err != nil {
		t.Fatalf("list history failed: %v", err)
	}
	if len(history) != 1 || history[0].Action != entities.HistoryActionSubmitted {
		t.Fatalf("expected one submitted entry, got %+v", history)
	}
}

func TestSubmitApplicationUnknownDistrict(t *testing.T) {
	store := newTestStore(t)
	_, err := submitUseCase(store).Execute(context.Background(), SubmitApplicationCommand{
		FullName: "Ramesh Kumar",
		Email:    "ramesh@example.com",
		TeamType: "core",
		District: "Atlantis",
	})
	if !errors.Is(err, domainerrors.ErrUnknownDistrict) {
		t.Fatalf("expected unknown district error, got %v", err)
	}
}

func TestSubmitApplicationRejectsUnknownTeamType(t *testing.T) {
	store := newTestStore(t)
	_, err := submitUseCase(store).Execute(context.Background(), SubmitApplicationCommand{
		FullName: "Ramesh Kumar",
		Email:    "ramesh@example.com",
		TeamType: "main",
		District: "Muzaffarpur",
	})
	if !errors.Is(err, domainerrors.ErrInvalidApplication) {
		t.Fatalf("expected invalid application error, got %v", err)
	}
}

func TestSubmitApplicationDropsForeignBlock(t *testing.T) {
	store := newTestStore(t)
	// Kanti belongs to Muzaffarpur, not Katihar; the block claim is dropped
	// and the district stays the anchor.
	app := submitPending(t, store, "Katihar", "Kanti")

	if app.Location.Block != "" {
		t.Fatalf("expected foreign block dropped, got %q", app.Location.Block)
	}
	if app.Location.LocatedAt != entities.LevelDistrict {
		t.Fatalf("expected district anchor, got %s", app.Location.LocatedAt)
	}
}

func TestSubmitApplicationKeepsMatchingBlock(t *testing.T) {
	store := newTestStore(t)
	app := submitPending(t, store, "Muzaffarpur", "Kanti")

	if app.Location.Block != "Kanti" {
		t.Fatalf("expected block kept, got %q", app.Location.Block)
	}
	if app.Location.LocatedAt != entities.LevelBlock {
		t.Fatalf("expected block anchor, got %s", app.Location.LocatedAt)
	}
}

func TestClaimApplicationFirstWins(t *testing.T) {
	store := newTestStore(t)
	app := submitPending(t, store, "Muzaffarpur", "")

	claim := ClaimApplicationUseCase{
		Applications: store,
		Authorizer:   allowAllAuthorizer{},
		Audit:        store,
		Clock:        store,
		IDGenerator:  store,
	}

	first, err := claim.Execute(context.Background(), stateActor(), ClaimApplicationCommand{ApplicationID: app.ApplicationID})
	if err != nil {
		t.Fatalf("first claim failed: %v", err)
	}
	if first.Application.AssignedTo != "admin-state-1" {
		t.Fatalf("expected claimer recorded, got %q", first.Application.AssignedTo)
	}

	rival := entities.Actor{AdminID: "admin-state-2", Role: "state_president", AssignedLevel: entities.LevelState, AssignedID: "Bihar"}
	_, err = claim.Execute(context.Background(), rival, ClaimApplicationCommand{ApplicationID: app.ApplicationID})
	if !errors.Is(err, domainerrors.ErrAlreadyClaimed) {
		t.Fatalf("expected already-claimed error, got %v", err)
	}
}

func TestClaimApplicationConcurrentSingleWinner(t *testing.T) {
	store := newTestStore(t)
	app := submitPending(t, store, "Muzaffarpur", "")

	claim := ClaimApplicationUseCase{
		Applications: store,
		Authorizer:   allowAllAuthorizer{},
		Audit:        store,
		Clock:        store,
		IDGenerator:  store,
	}

	const claimants = 8
	var wg sync.WaitGroup
	errs := make([]error, claimants)
	for i := 0; i < claimants; i++ {
		wg.Add(1)
		go func(slot int) {
			defer wg.Done()
			actor := entities.Actor{
				AdminID:       fmt.Sprintf("admin-state-%d", slot),
				Role:          "state_president",
				AssignedLevel: entities.LevelState,
				AssignedID:    "Bihar",
			}
			_, errs[slot] = claim.Execute(context.Background(), actor, ClaimApplicationCommand{ApplicationID: app.ApplicationID})
		}(i)
	}
	wg.Wait()

	winners := 0
	for _, err := range errs {
		switch {
		case err == nil:
			winners++
		case errors.Is(err, domainerrors.ErrAlreadyClaimed):
		default:
			t.Fatalf("unexpected claim error: %v", err)
		}
	}
	if winners != 1 {
		t.Fatalf("expected exactly one winning claim, got %d", winners)
	}
}

type capturingRenderer struct {
	mu   sync.Mutex
	last ports.JoiningLetterData
}

func (r *capturingRenderer) RenderJoiningLetter(_ context.Context, letter ports.JoiningLetterData) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.last = letter
	return []byte("%PDF-1.4 letter"), nil
}

func TestAcceptApplicationLetterCarriesVerifyLink(t *testing.T) {
	store := newTestStore(t)
	app := submitPending(t, store, "Muzaffarpur", "")
	renderer := &capturingRenderer{}
	accept := acceptUseCase(store, &recordingMailer{}, renderer)
	accept.AppBaseURL = "https://portal.example.org"

	result, err := accept.Execute(context.Background(), stateActor(), AcceptApplicationCommand{ApplicationID: app.ApplicationID})
	if err != nil {
		t.Fatalf("accept failed: %v", err)
	}
	if result.Application.MembershipID == "" {
		t.Fatalf("expected a minted membership id")
	}

	want := "https://portal.example.org/verify/RMAS%2FBIH%2FMUZ%2F2025%2F001"
	if renderer.last.QRPayload != want {
		t.Fatalf("expected qr payload %q, got %q", want, renderer.last.QRPayload)
	}

	// A delivered letter records the member's download-portal link.
	stored, err := store.GetApplication(context.Background(), app.ApplicationID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	wantLink := "https://portal.example.org/documents/request-download?email=ramesh%40example.com"
	if stored.LetterURL != wantLink {
		t.Fatalf("expected letter url %q, got %q", wantLink, stored.LetterURL)
	}
}

func TestAcceptApplicationConcurrentSingleDecision(t *testing.T) {
	store := newTestStore(t)
	app := submitPending(t, store, "Muzaffarpur", "")
	accept := acceptUseCase(store, &recordingMailer{}, stubRenderer{})

	const deciders = 8
	var wg sync.WaitGroup
	errs := make([]error, deciders)
	for i := 0; i < deciders; i++ {
		wg.Add(1)
		go func(slot int) {
			defer wg.Done()
			_, errs[slot] = accept.Execute(context.Background(), stateActor(), AcceptApplicationCommand{ApplicationID: app.ApplicationID})
		}(i)
	}
	wg.Wait()

	winners := 0
	for _, err := range errs {
		switch {
		case err == nil:
			winners++
		case errors.Is(err, domainerrors.ErrAlreadyDecided):
		default:
			t.Fatalf("unexpected accept error: %v", err)
		}
	}
	if winners != 1 {
		t.Fatalf("expected exactly one accepted decision, got %d", winners)
	}

	final, err := store.GetApplication(context.Background(), app.ApplicationID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if final.Status != entities.ApplicationStatusAccepted || final.MembershipID == "" {
		t.Fatalf("expected one accepted record with a membership id, got %+v", final)
	}
}

func TestClaimApplicationDeniedActor(t *testing.T) {
	store := newTestStore(t)
	app := submitPending(t, store, "Muzaffarpur", "")

	claim := ClaimApplicationUseCase{
		Applications: store,
		Authorizer:   denyAllAuthorizer{},
		Audit:        store,
		Clock:        store,
		IDGenerator:  store,
	}
	_, err := claim.Execute(context.Background(), stateActor(), ClaimApplicationCommand{ApplicationID: app.ApplicationID})
	if !errors.Is(err, domainerrors.ErrForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func acceptUseCase(store *memory.Store, mailer ports.Mailer, renderer ports.LetterRenderer) AcceptApplicationUseCase {
	return AcceptApplicationUseCase{
		Applications: store,
		Authorizer:   allowAllAuthorizer{},
		Letters:      renderer,
		Mailer:       mailer,
		Audit:        store,
		Clock:        store,
		IDGenerator:  store,
	}
}

func TestAcceptApplicationMintsMembershipID(t *testing.T) {
	store := newTestStore(t)
	app := submitPending(t, store, "Muzaffarpur", "")
	mailer := &recordingMailer{}

	result, err := acceptUseCase(store, mailer, stubRenderer{}).Execute(
		context.Background(), stateActor(), AcceptApplicationCommand{ApplicationID: app.ApplicationID})
	if err != nil {
		t.Fatalf("accept failed: %v", err)
	}

	if result.Application.MembershipID != "RMAS/BIH/MUZ/2025/001" {
		t.Fatalf("unexpected membership id %q", result.Application.MembershipID)
	}
	if result.Application.Status != entities.ApplicationStatusAccepted {
		t.Fatalf("expected accepted status, got %s", result.Application.Status)
	}
	if len(mailer.messages) != 1 {
		t.Fatalf("expected one acceptance email, got %d", len(mailer.messages))
	}
	if mailer.messages[0].AttachmentName != "RMAS_BIH_MUZ_2025_001.pdf" {
		t.Fatalf("unexpected attachment name %q", mailer.messages[0].AttachmentName)
	}
}

func TestAcceptApplicationSerialAdvancesPerDistrict(t *testing.T) {
	store := newTestStore(t)
	mailer := &recordingMailer{}
	accept := acceptUseCase(store, mailer, stubRenderer{})

	first := submitPending(t, store, "Muzaffarpur", "")
	second := submitPending(t, store, "Muzaffarpur", "")
	other := submitPending(t, store, "Katihar", "")

	for _, app := range []entities.Application{first, second, other} {
		if _, err := accept.Execute(context.Background(), stateActor(), AcceptApplicationCommand{ApplicationID: app.ApplicationID}); err != nil {
			t.Fatalf("accept failed: %v", err)
		}
	}

	got1, _ := store.GetApplication(context.Background(), first.ApplicationID)
	got2, _ := store.GetApplication(context.Background(), second.ApplicationID)
	got3, _ := store.GetApplication(context.Background(), other.ApplicationID)
	if got1.MembershipID != "RMAS/BIH/MUZ/2025/001" || got2.MembershipID != "RMAS/BIH/MUZ/2025/002" {
		t.Fatalf("serials did not advance: %q, %q", got1.MembershipID, got2.MembershipID)
	}
	if got3.MembershipID != "RMAS/BIH/KAT/2025/001" {
		t.Fatalf("expected independent counter per district, got %q", got3.MembershipID)
	}
}

func TestAcceptApplicationLetterFailureDoesNotBlock(t *testing.T) {
	store := newTestStore(t)
	app := submitPending(t, store, "Muzaffarpur", "")
	mailer := &recordingMailer{}

	result, err := acceptUseCase(store, mailer, stubRenderer{fail: true}).Execute(
		context.Background(), stateActor(), AcceptApplicationCommand{ApplicationID: app.ApplicationID})
	if err != nil {
		t.Fatalf("accept should survive a render failure: %v", err)
	}
	if result.Application.Status != entities.ApplicationStatusAccepted {
		t.Fatalf("expected accepted status, got %s", result.Application.Status)
	}
	if len(mailer.messages) != 0 {
		t.Fatalf("expected no email without a letter, got %d", len(mailer.messages))
	}

	history, _ := store.ListHistory(context.Background(), app.ApplicationID)
	if !hasAction(history, entities.HistoryActionLetterFailed) {
		t.Fatalf("expected letter failure recorded in history, got %+v", history)
	}
}

func TestAcceptApplicationSecondDecisionLoses(t *testing.T) {
	store := newTestStore(t)
	app := submitPending(t, store, "Muzaffarpur", "")
	mailer := &recordingMailer{}

	accept := acceptUseCase(store, mailer, stubRenderer{})
	if _, err := accept.Execute(context.Background(), stateActor(), AcceptApplicationCommand{ApplicationID: app.ApplicationID}); err != nil {
		t.Fatalf("accept failed: %v", err)
	}

	reject := RejectApplicationUseCase{
		Applications: store,
		Authorizer:   allowAllAuthorizer{},
		Mailer:       mailer,
		Audit:        store,
		Clock:        store,
		IDGenerator:  store,
	}
	_, err := reject.Execute(context.Background(), stateActor(), RejectApplicationCommand{ApplicationID: app.ApplicationID, Reason: "changed mind"})
	if !errors.Is(err, domainerrors.ErrAlreadyDecided) {
		t.Fatalf("expected already-decided, got %v", err)
	}
}

func TestAcceptApplicationLegacyRoleAssignment(t *testing.T) {
	store := newTestStore(t)
	app := submitPending(t, store, "Muzaffarpur", "")
	mailer := &recordingMailer{}

	_, err := acceptUseCase(store, mailer, stubRenderer{}).Execute(
		context.Background(), stateActor(), AcceptApplicationCommand{
			ApplicationID: app.ApplicationID,
			JobRole:       "coordinator",
			TeamType:      "mahila",
		})
	if err != nil {
		t.Fatalf("accept failed: %v", err)
	}

	assignment, found, err := store.GetRoleAssignment(context.Background(), app.ApplicationID)
	if err != nil || !found {
		t.Fatalf("expected legacy assignment stored, found=%v err=%v", found, err)
	}
	if assignment.Category != "karyakarini" || assignment.Level != entities.LevelState {
		t.Fatalf("legacy assignment defaults wrong: %+v", assignment)
	}
	if assignment.TeamType != entities.TeamType("mahila") {
		t.Fatalf("expected mahila team type, got %s", assignment.TeamType)
	}
}

func TestRejectApplicationRecordsDecision(t *testing.T) {
	store := newTestStore(t)
	app := submitPending(t, store, "Muzaffarpur", "")
	mailer := &recordingMailer{}

	reject := RejectApplicationUseCase{
		Applications: store,
		Authorizer:   allowAllAuthorizer{},
		Mailer:       mailer,
		Audit:        store,
		Clock:        store,
		IDGenerator:  store,
	}
	result, err := reject.Execute(context.Background(), stateActor(), RejectApplicationCommand{
		ApplicationID: app.ApplicationID,
		Reason:        "incomplete details",
	})
	if err != nil {
		t.Fatalf("reject failed: %v", err)
	}
	if result.Application.Status != entities.ApplicationStatusRejected {
		t.Fatalf("expected rejected status, got %s", result.Application.Status)
	}
	if result.Application.MembershipID != "" {
		t.Fatalf("rejected application must not carry a membership id, got %q", result.Application.MembershipID)
	}

	history, _ := store.ListHistory(context.Background(), app.ApplicationID)
	if !hasAction(history, entities.HistoryActionRejected) {
		t.Fatalf("expected rejected entry in history, got %+v", history)
	}
}

func manageRoleUseCase(store *memory.Store, mailer ports.Mailer) ManageRoleUseCase {
	return ManageRoleUseCase{
		Applications: store,
		Authorizer:   allowAllAuthorizer{},
		Roles:        store,
		Mailer:       mailer,
		Clock:        store,
		IDGenerator:  store,
		AppBaseURL:   "https://portal.example.org",
	}
}

func TestManageRoleRequiresAcceptedStatus(t *testing.T) {
	store := newTestStore(t)
	app := submitPending(t, store, "Muzaffarpur", "")

	_, err := manageRoleUseCase(store, &recordingMailer{}).Execute(context.Background(), stateActor(), ManageRoleCommand{
		ApplicationID: app.ApplicationID,
		Category:      "karyakarini",
		RoleCode:      "secretary",
		TeamType:      "core",
		Level:         "district",
		District:      "Muzaffarpur",
		Reason:        "vacancy",
	})
	if !errors.Is(err, domainerrors.ErrNotAccepted) {
		t.Fatalf("expected not-accepted error, got %v", err)
	}
}

func TestManageRoleAssignsAndNotifies(t *testing.T) {
	store := newTestStore(t)
	app := submitPending(t, store, "Muzaffarpur", "")
	acceptMailer := &recordingMailer{}
	if _, err := acceptUseCase(store, acceptMailer, stubRenderer{}).Execute(
		context.Background(), stateActor(), AcceptApplicationCommand{ApplicationID: app.ApplicationID}); err != nil {
		t.Fatalf("accept failed: %v", err)
	}

	mailer := &recordingMailer{}
	result, err := manageRoleUseCase(store, mailer).Execute(context.Background(), stateActor(), ManageRoleCommand{
		ApplicationID: app.ApplicationID,
		Category:      "karyakarini",
		RoleCode:      "district_president",
		TeamType:      "core",
		Level:         "district",
		District:      "Muzaffarpur",
		Reason:        "election result",
	})
	if err != nil {
		t.Fatalf("manage role failed: %v", err)
	}
	if result.Assignment.RoleName != "District President" {
		t.Fatalf("expected catalog name resolved, got %q", result.Assignment.RoleName)
	}
	if result.Assignment.Location != "Muzaffarpur" {
		t.Fatalf("expected district location, got %q", result.Assignment.Location)
	}

	if len(mailer.messages) != 1 {
		t.Fatalf("expected one download notification, got %d", len(mailer.messages))
	}
	wantLink := "https://portal.example.org/documents/request-download?email=ramesh%40example.com"
	if !strings.Contains(mailer.messages[0].Body, wantLink) {
		t.Fatalf("notification body missing download link, got %q", mailer.messages[0].Body)
	}

	history, _ := store.ListHistory(context.Background(), app.ApplicationID)
	if !hasAction(history, entities.HistoryActionRoleAssigned) || !hasAction(history, entities.HistoryActionDownloadEmailSent) {
		t.Fatalf("expected role and notification entries in history, got %+v", history)
	}
}

func TestManageRoleBackfillsMembershipID(t *testing.T) {
	store := newTestStore(t)
	now := store.Now().UTC()
	// An accepted row imported without a membership id.
	legacy := entities.Application{
		ApplicationID: "app-legacy-1",
		FullName:      "Sita Devi",
		Email:         "sita@example.com",
		TeamType:      "mahila",
		Location: entities.Location{
			LocatedAt: entities.LevelDistrict,
			State:     "Bihar",
			Division:  "Purnia",
			District:  "Katihar",
		},
		Status:    entities.ApplicationStatusAccepted,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := store.CreateApplication(context.Background(), legacy, entities.HistoryEntry{
		HistoryID:     "hist-legacy-1",
		ApplicationID: legacy.ApplicationID,
		Action:        entities.HistoryActionSubmitted,
		CreatedAt:     now,
	}); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	result, err := manageRoleUseCase(store, &recordingMailer{}).Execute(context.Background(), stateActor(), ManageRoleCommand{
		ApplicationID: legacy.ApplicationID,
		Category:      "karyakarini",
		RoleCode:      "secretary",
		TeamType:      "mahila",
		Level:         "district",
		District:      "Katihar",
		Reason:        "records migration",
	})
	if err != nil {
		t.Fatalf("manage role failed: %v", err)
	}
	if result.Application.MembershipID != "RMAS/BIH/KAT/2025/001" {
		t.Fatalf("expected backfilled id, got %q", result.Application.MembershipID)
	}

	history, _ := store.ListHistory(context.Background(), legacy.ApplicationID)
	if !hasAction(history, entities.HistoryActionMembershipIDGenerated) {
		t.Fatalf("expected id backfill recorded, got %+v", history)
	}
}

func TestManageRoleUnknownRoleCode(t *testing.T) {
	store := newTestStore(t)
	app := submitPending(t, store, "Muzaffarpur", "")
	if _, err := acceptUseCase(store, &recordingMailer{}, stubRenderer{}).Execute(
		context.Background(), stateActor(), AcceptApplicationCommand{ApplicationID: app.ApplicationID}); err != nil {
		t.Fatalf("accept failed: %v", err)
	}

	_, err := manageRoleUseCase(store, &recordingMailer{}).Execute(context.Background(), stateActor(), ManageRoleCommand{
		ApplicationID: app.ApplicationID,
		Category:      "karyakarini",
		RoleCode:      "grand_vizier",
		TeamType:      "core",
		Level:         "district",
		District:      "Muzaffarpur",
		Reason:        "testing",
	})
	if !errors.Is(err, domainerrors.ErrInvalidRole) {
		t.Fatalf("expected invalid role error, got %v", err)
	}
}

func TestResendLetterRendersAndSends(t *testing.T) {
	store := newTestStore(t)
	app := submitPending(t, store, "Muzaffarpur", "")
	if _, err := acceptUseCase(store, &recordingMailer{}, stubRenderer{}).Execute(
		context.Background(), stateActor(), AcceptApplicationCommand{ApplicationID: app.ApplicationID}); err != nil {
		t.Fatalf("accept failed: %v", err)
	}

	mailer := &recordingMailer{}
	resend := ResendLetterUseCase{
		Applications: store,
		Authorizer:   allowAllAuthorizer{},
		Letters:      stubRenderer{},
		Mailer:       mailer,
		Clock:        store,
		IDGenerator:  store,
	}
	if err := resend.Execute(context.Background(), stateActor(), ResendLetterCommand{ApplicationID: app.ApplicationID}); err != nil {
		t.Fatalf("resend failed: %v", err)
	}
	if len(mailer.messages) != 1 || len(mailer.messages[0].Attachment) == 0 {
		t.Fatalf("expected one email with attachment, got %+v", mailer.messages)
	}

	history, _ := store.ListHistory(context.Background(), app.ApplicationID)
	if !hasAction(history, entities.HistoryActionLetterResent) {
		t.Fatalf("expected resend entry in history, got %+v", history)
	}
}

func TestResendLetterSurfacesRenderFailure(t *testing.T) {
	store := newTestStore(t)
	app := submitPending(t, store, "Muzaffarpur", "")
	if _, err := acceptUseCase(store, &recordingMailer{}, stubRenderer{}).Execute(
		context.Background(), stateActor(), AcceptApplicationCommand{ApplicationID: app.ApplicationID}); err != nil {
		t.Fatalf("accept failed: %v", err)
	}

	resend := ResendLetterUseCase{
		Applications: store,
		Authorizer:   allowAllAuthorizer{},
		Letters:      stubRenderer{fail: true},
		Mailer:       &recordingMailer{},
		Clock:        store,
		IDGenerator:  store,
	}
	err := resend.Execute(context.Background(), stateActor(), ResendLetterCommand{ApplicationID: app.ApplicationID})
	if !errors.Is(err, domainerrors.ErrLetterUnavailable) {
		t.Fatalf("expected letter unavailable, got %v", err)
	}
}

func hasAction(history []entities.HistoryEntry, action entities.HistoryAction) bool {
	for _, entry := range history {
		if entry.Action == action {
			return true
		}
	}
	return false
}

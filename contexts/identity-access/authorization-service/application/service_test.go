package application

import (
	"context"
	"errors"
	"testing"

	"rmas/contexts/identity-access/authorization-service/adapters/memory"
	"rmas/contexts/identity-access/authorization-service/domain/entities"
)

func newTestHierarchy() *memory.Store {
	return memory.NewStore(
		map[string][]string{
			"Tirhut": {"Muzaffarpur", "Sitamarhi"},
			"Patna":  {"Patna", "Nalanda"},
		},
		map[string][]string{
			"Muzaffarpur": {"Kanti", "Kurhani"},
			"Sitamarhi":   {"Runnisaidpur"},
			"Patna":       {"Phulwari", "Danapur"},
		},
	)
}

func divisionPresident(division string) entities.Actor {
	return entities.Actor{
		AdminID:       "admin-division",
		Role:          entities.Role{Function: entities.FunctionPresident, Level: entities.LevelDivision},
		AssignedLevel: entities.LevelDivision,
		AssignedID:    division,
	}
}

func TestCascadeAccessDivisionCoversOwnDistrictsAndBlocks(t *testing.T) {
	service := Service{Hierarchy: newTestHierarchy()}
	actor := divisionPresident("Tirhut")

	if !service.HasCascadeAccess(context.Background(), actor, entities.LevelDistrict, "Muzaffarpur") {
		t.Fatal("expected access to district inside own division")
	}
	if !service.HasCascadeAccess(context.Background(), actor, entities.LevelBlock, "Kanti") {
		t.Fatal("expected access to block inside own division")
	}
	if service.HasCascadeAccess(context.Background(), actor, entities.LevelDistrict, "Nalanda") {
		t.Fatal("expected no access to district of another division")
	}
	if service.HasCascadeAccess(context.Background(), actor, entities.LevelBlock, "Danapur") {
		t.Fatal("expected no access to block of another division")
	}
}

func TestCascadeAccessNeverAscends(t *testing.T) {
	service := Service{Hierarchy: newTestHierarchy()}

	district := entities.Actor{
		AdminID:       "admin-district",
		Role:          entities.Role{Function: entities.FunctionSecretary, Level: entities.LevelDistrict},
		AssignedLevel: entities.LevelDistrict,
		AssignedID:    "Muzaffarpur",
	}
	if service.HasCascadeAccess(context.Background(), district, entities.LevelDivision, "Tirhut") {
		t.Fatal("district actor must not reach its parent division")
	}
	if service.HasCascadeAccess(context.Background(), district, entities.LevelState, "Bihar") {
		t.Fatal("district actor must not reach the state")
	}

	block := entities.Actor{
		AdminID:       "admin-block",
		Role:          entities.Role{Function: entities.FunctionPresident, Level: entities.LevelBlock},
		AssignedLevel: entities.LevelBlock,
		AssignedID:    "Kanti",
	}
	if !service.HasCascadeAccess(context.Background(), block, entities.LevelBlock, "Kanti") {
		t.Fatal("block actor must reach its own block")
	}
	if service.HasCascadeAccess(context.Background(), block, entities.LevelBlock, "Kurhani") {
		t.Fatal("block actor must not reach a sibling block")
	}
}

func TestCascadeAccessStateAndSuperAdmin(t *testing.T) {
	service := Service{Hierarchy: newTestHierarchy()}

	state := entities.Actor{
		AdminID:       "admin-state",
		Role:          entities.Role{Function: entities.FunctionPresident, Level: entities.LevelState},
		AssignedLevel: entities.LevelState,
		AssignedID:    "Bihar",
	}
	if !service.HasCascadeAccess(context.Background(), state, entities.LevelBlock, "Danapur") {
		t.Fatal("state actor covers every block")
	}

	super := entities.Actor{
		AdminID: "admin-super",
		Role:    entities.Role{Function: entities.FunctionSuperAdmin},
	}
	if !service.HasCascadeAccess(context.Background(), super, entities.LevelDistrict, "anything") {
		t.Fatal("superadmin covers everything")
	}
}

func TestCascadeAccessViewOnlyDenied(t *testing.T) {
	service := Service{Hierarchy: newTestHierarchy()}
	actor := entities.Actor{
		AdminID:       "admin-media",
		Role:          entities.Role{Function: entities.FunctionMediaIncharge, Level: entities.LevelDivision},
		AssignedLevel: entities.LevelDivision,
		AssignedID:    "Tirhut",
	}
	if service.HasCascadeAccess(context.Background(), actor, entities.LevelDistrict, "Muzaffarpur") {
		t.Fatal("view-only role must be denied mutating access")
	}
	if service.CanPerformActions(context.Background(), actor, entities.Placement{
		Level:    entities.LevelDistrict,
		District: "Muzaffarpur",
	}) {
		t.Fatal("view-only role must not perform application actions")
	}
}

type failingHierarchy struct{}

func (failingHierarchy) DistrictsForDivision(context.Context, string) ([]string, error) {
	return nil, errors.New("hierarchy store unavailable")
}

func (failingHierarchy) BlocksForDistrict(context.Context, string) ([]string, error) {
	return nil, errors.New("hierarchy store unavailable")
}

func (failingHierarchy) DivisionForDistrict(context.Context, string) (string, bool, error) {
	return "", false, errors.New("hierarchy store unavailable")
}

func (failingHierarchy) DistrictForBlock(context.Context, string) (string, bool, error) {
	return "", false, errors.New("hierarchy store unavailable")
}

type countingMetrics struct {
	decisions int
	allowed   int
	failures  int
}

func (m *countingMetrics) Decision(allowed bool) {
	m.decisions++
	if allowed {
		m.allowed++
	}
}

func (m *countingMetrics) HierarchyLookupFailed() {
	m.failures++
}

func TestCascadeAccessFailsClosedOnLookupError(t *testing.T) {
	metrics := &countingMetrics{}
	service := Service{Hierarchy: failingHierarchy{}, Metrics: metrics}
	actor := divisionPresident("Tirhut")

	if service.HasCascadeAccess(context.Background(), actor, entities.LevelDistrict, "Muzaffarpur") {
		t.Fatal("lookup failure must deny")
	}
	if metrics.failures != 1 {
		t.Fatalf("expected one recorded lookup failure, got %d", metrics.failures)
	}
	if metrics.allowed != 0 {
		t.Fatalf("expected no allowed decisions, got %d", metrics.allowed)
	}

	// Exact-anchor match does not consult the hierarchy and still allows.
	if !service.HasCascadeAccess(context.Background(), actor, entities.LevelDivision, "Tirhut") {
		t.Fatal("own anchor must stay reachable during hierarchy outage")
	}
}

func TestAccessibleEntitiesExpansion(t *testing.T) {
	service := Service{Hierarchy: newTestHierarchy()}

	filters, ok := service.AccessibleEntities(context.Background(), divisionPresident("Tirhut"))
	if !ok {
		t.Fatal("division actor must have a scope")
	}
	var districts, blocks []string
	for _, filter := range filters {
		districts = append(districts, filter.Districts...)
		blocks = append(blocks, filter.Blocks...)
	}
	if len(districts) != 2 {
		t.Fatalf("expected 2 districts in scope, got %v", districts)
	}
	if len(blocks) != 3 {
		t.Fatalf("expected 3 blocks in scope, got %v", blocks)
	}

	super := entities.Actor{AdminID: "s", Role: entities.Role{Function: entities.FunctionSuperAdmin}}
	filters, ok = service.AccessibleEntities(context.Background(), super)
	if !ok || filters != nil {
		t.Fatal("superadmin scope must be unrestricted")
	}
}

func TestCanAssignRoleLegacyPlacementInference(t *testing.T) {
	service := Service{Hierarchy: newTestHierarchy()}
	actor := divisionPresident("Tirhut")

	// No explicit level: finest populated field decides.
	legacy := entities.Placement{Division: "Tirhut", District: "Muzaffarpur", Block: "Kanti"}
	if !service.CanAssignRole(context.Background(), actor, legacy, "core") {
		t.Fatal("legacy placement should resolve to block Kanti and be allowed")
	}

	foreign := entities.Placement{District: "Nalanda"}
	if service.CanAssignRole(context.Background(), actor, foreign, "yuva") {
		t.Fatal("foreign district must be denied regardless of team type")
	}
}

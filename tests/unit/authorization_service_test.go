package unit

import (
	"context"
	"errors"
	"testing"

	authorization "rmas/contexts/identity-access/authorization-service"
	"rmas/contexts/identity-access/authorization-service/domain/entities"
	domainerrors "rmas/contexts/identity-access/authorization-service/domain/errors"
	httptransport "rmas/contexts/identity-access/authorization-service/transport/http"
)

func testDivisions() map[string][]string {
	return map[string][]string{
		"Tirhut": {"Muzaffarpur", "Sitamarhi"},
		"Purnia": {"Katihar"},
	}
}

func testBlocks() map[string][]string {
	return map[string][]string{
		"Muzaffarpur": {"Kanti", "Kurhani"},
		"Katihar":     {"Barari"},
	}
}

func superAdminActor() entities.Actor {
	return entities.Actor{
		AdminID: "root-admin",
		Role:    entities.Role{Function: entities.FunctionSuperAdmin},
	}
}

func TestCreateAdminAndFetch(t *testing.T) {
	module := authorization.NewInMemoryModule(nil, testDivisions(), testBlocks())

	created, err := module.Handler.CreateAdminHandler(
		context.Background(),
		superAdminActor(),
		httptransport.CreateAdminRequest{
			Name:          "Suresh Jha",
			Email:         "suresh@example.org",
			Password:      "secret-pass",
			Function:      "president",
			AssignedLevel: "district",
			AssignedID:    "Muzaffarpur",
		},
	)
	if err != nil {
		t.Fatalf("create admin failed: %v", err)
	}
	if created.Admin.AdminID == "" {
		t.Fatalf("expected admin id")
	}
	if created.Admin.Role != "district_president" {
		t.Fatalf("expected district_president role, got %s", created.Admin.Role)
	}

	fetched, err := module.Handler.GetAdminHandler(context.Background(), created.Admin.AdminID)
	if err != nil {
		t.Fatalf("get admin failed: %v", err)
	}
	if fetched.Email != "suresh@example.org" {
		t.Fatalf("unexpected email %s", fetched.Email)
	}
	if !fetched.Active {
		t.Fatalf("expected active admin")
	}
}

func TestCreateAdminDescentOnly(t *testing.T) {
	module := authorization.NewInMemoryModule(nil, testDivisions(), testBlocks())

	districtActor := entities.Actor{
		AdminID:       "district-admin",
		Role:          entities.Role{Function: entities.FunctionPresident, Level: entities.LevelDistrict},
		AssignedLevel: entities.LevelDistrict,
		AssignedID:    "Muzaffarpur",
	}

	_, err := module.Handler.CreateAdminHandler(
		context.Background(),
		districtActor,
		httptransport.CreateAdminRequest{
			Name:          "Amit Singh",
			Email:         "amit@example.org",
			Password:      "secret-pass",
			Function:      "president",
			AssignedLevel: "state",
			AssignedID:    "Bihar",
		},
	)
	if !errors.Is(err, domainerrors.ErrForbidden) {
		t.Fatalf("expected forbidden creating upward, got %v", err)
	}
}

func TestDisableAdminBlocksLookup(t *testing.T) {
	module := authorization.NewInMemoryModule(nil, testDivisions(), testBlocks())

	created, err := module.Handler.CreateAdminHandler(
		context.Background(),
		superAdminActor(),
		httptransport.CreateAdminRequest{
			Name:          "Rina Devi",
			Email:         "rina@example.org",
			Password:      "secret-pass",
			Function:      "secretary",
			AssignedLevel: "division",
			AssignedID:    "Tirhut",
		},
	)
	if err != nil {
		t.Fatalf("create admin failed: %v", err)
	}

	if err := module.Handler.DisableAdminHandler(context.Background(), superAdminActor(), created.Admin.AdminID); err != nil {
		t.Fatalf("disable admin failed: %v", err)
	}

	_, err = module.Handler.GetAdminHandler(context.Background(), created.Admin.AdminID)
	if !errors.Is(err, domainerrors.ErrAdminNotFound) {
		t.Fatalf("expected disabled admin to be unresolvable, got %v", err)
	}
}

func TestCascadeAccessDescendsHierarchy(t *testing.T) {
	module := authorization.NewInMemoryModule(nil, testDivisions(), testBlocks())

	divisionActor := entities.Actor{
		AdminID:       "division-admin",
		Role:          entities.Role{Function: entities.FunctionPresident, Level: entities.LevelDivision},
		AssignedLevel: entities.LevelDivision,
		AssignedID:    "Tirhut",
	}

	if !module.Service.HasCascadeAccess(context.Background(), divisionActor, entities.LevelDistrict, "Muzaffarpur") {
		t.Fatalf("expected access to district inside own division")
	}
	if !module.Service.HasCascadeAccess(context.Background(), divisionActor, entities.LevelBlock, "Kanti") {
		t.Fatalf("expected access to block inside own division")
	}
	if module.Service.HasCascadeAccess(context.Background(), divisionActor, entities.LevelDistrict, "Katihar") {
		t.Fatalf("expected no access to district in another division")
	}
	if module.Service.HasCascadeAccess(context.Background(), divisionActor, entities.LevelState, "Bihar") {
		t.Fatalf("expected no upward access")
	}
}

func TestAccessibleEntitiesExpandsScope(t *testing.T) {
	module := authorization.NewInMemoryModule(nil, testDivisions(), testBlocks())

	districtActor := entities.Actor{
		AdminID:       "district-admin",
		Role:          entities.Role{Function: entities.FunctionPresident, Level: entities.LevelDistrict},
		AssignedLevel: entities.LevelDistrict,
		AssignedID:    "Muzaffarpur",
	}

	filters, ok := module.Service.AccessibleEntities(context.Background(), districtActor)
	if !ok {
		t.Fatalf("expected scoped access")
	}
	if len(filters) != 2 {
		t.Fatalf("expected district and block disjuncts, got %d", len(filters))
	}

	superFilters, ok := module.Service.AccessibleEntities(context.Background(), superAdminActor())
	if !ok {
		t.Fatalf("expected superadmin access")
	}
	if len(superFilters) != 0 {
		t.Fatalf("expected unrestricted scope for superadmin")
	}
}

func TestViewOnlyRoleDeniedActions(t *testing.T) {
	module := authorization.NewInMemoryModule(nil, testDivisions(), testBlocks())

	viewer := entities.Actor{
		AdminID:       "viewer-admin",
		Role:          entities.Role{Function: entities.FunctionMediaIncharge, Level: entities.LevelDistrict},
		AssignedLevel: entities.LevelDistrict,
		AssignedID:    "Muzaffarpur",
	}

	placement := entities.Placement{
		Level:    entities.LevelDistrict,
		District: "Muzaffarpur",
	}
	if module.Service.CanPerformActions(context.Background(), viewer, placement) {
		t.Fatalf("expected view-only role to be denied actions")
	}
	if _, ok := module.Service.AccessibleEntities(context.Background(), viewer); !ok {
		t.Fatalf("expected view-only role to retain read scope")
	}
}

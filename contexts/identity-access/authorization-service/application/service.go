package application

import (
	"context"
	"log/slog"

	"rmas/contexts/identity-access/authorization-service/domain/entities"
	"rmas/contexts/identity-access/authorization-service/ports"
)

// Service is the cascade authorization engine. All decisions are point-in-time
// and fail closed when the location reference data cannot be consulted.
type Service struct {
	Hierarchy ports.LocationHierarchy
	Metrics   ports.DecisionMetrics
	Logger    *slog.Logger
}

func (s Service) logger() *slog.Logger {
	return ResolveLogger(s.Logger)
}

func (s Service) record(allowed bool) bool {
	if s.Metrics != nil {
		s.Metrics.Decision(allowed)
	}
	return allowed
}

// lookupFailed logs the hierarchy fault to the operator channel and denies.
// Lookup errors are never surfaced to callers as faults.
func (s Service) lookupFailed(op string, err error) bool {
	s.logger().Error("location hierarchy lookup failed",
		"event", "authz_hierarchy_lookup_failed",
		"module", "identity-access/authorization-service",
		"layer", "application",
		"op", op,
		"error", err.Error(),
	)
	if s.Metrics != nil {
		s.Metrics.HierarchyLookupFailed()
	}
	return s.record(false)
}

// HasCascadeAccess decides whether the actor's scope covers the target entity.
// State covers everything beneath it transitively; division and district
// scopes are resolved through the location hierarchy.
func (s Service) HasCascadeAccess(
	ctx context.Context,
	actor entities.Actor,
	targetLevel entities.Level,
	targetID string,
) bool {
	if actor.Role.IsSuperAdmin() {
		return s.record(true)
	}
	if actor.Role.ViewOnly() {
		return s.record(false)
	}
	if !actor.Anchored() {
		return s.record(false)
	}

	if actor.AssignedLevel == targetLevel && actor.AssignedID == targetID {
		return s.record(true)
	}

	switch actor.AssignedLevel {
	case entities.LevelState:
		allowed := targetLevel == entities.LevelDivision ||
			targetLevel == entities.LevelDistrict ||
			targetLevel == entities.LevelBlock
		return s.record(allowed)

	case entities.LevelDivision:
		if targetLevel != entities.LevelDistrict && targetLevel != entities.LevelBlock {
			return s.record(false)
		}
		districts, err := s.Hierarchy.DistrictsForDivision(ctx, actor.AssignedID)
		if err != nil {
			return s.lookupFailed("districts_for_division", err)
		}
		if targetLevel == entities.LevelDistrict {
			return s.record(contains(districts, targetID))
		}
		owner, found, err := s.Hierarchy.DistrictForBlock(ctx, targetID)
		if err != nil {
			return s.lookupFailed("district_for_block", err)
		}
		return s.record(found && contains(districts, owner))

	case entities.LevelDistrict:
		if targetLevel != entities.LevelBlock {
			return s.record(false)
		}
		blocks, err := s.Hierarchy.BlocksForDistrict(ctx, actor.AssignedID)
		if err != nil {
			return s.lookupFailed("blocks_for_district", err)
		}
		return s.record(contains(blocks, targetID))

	case entities.LevelBlock:
		// Exact match only, already handled above.
		return s.record(false)
	}

	return s.record(false)
}

// AccessibleEntities expands the actor's single scope anchor into the full set
// of filter disjuncts usable to query applications. Superadmin gets an empty
// set, meaning unrestricted. A nil result with ok=false means no access.
func (s Service) AccessibleEntities(ctx context.Context, actor entities.Actor) ([]entities.ScopeFilter, bool) {
	if actor.Role.IsSuperAdmin() {
		return nil, true
	}
	if !actor.Anchored() {
		return nil, false
	}

	switch actor.AssignedLevel {
	case entities.LevelState:
		return []entities.ScopeFilter{{State: actor.AssignedID}}, true

	case entities.LevelDivision:
		filters := []entities.ScopeFilter{{Division: actor.AssignedID}}
		districts, err := s.Hierarchy.DistrictsForDivision(ctx, actor.AssignedID)
		if err != nil {
			s.lookupFailed("districts_for_division", err)
			return filters, true
		}
		if len(districts) > 0 {
			filters = append(filters, entities.ScopeFilter{Districts: districts})
			var blocks []string
			for _, district := range districts {
				districtBlocks, err := s.Hierarchy.BlocksForDistrict(ctx, district)
				if err != nil {
					s.lookupFailed("blocks_for_district", err)
					continue
				}
				blocks = append(blocks, districtBlocks...)
			}
			if len(blocks) > 0 {
				filters = append(filters, entities.ScopeFilter{Blocks: blocks})
			}
		}
		return filters, true

	case entities.LevelDistrict:
		filters := []entities.ScopeFilter{{Districts: []string{actor.AssignedID}}}
		blocks, err := s.Hierarchy.BlocksForDistrict(ctx, actor.AssignedID)
		if err != nil {
			s.lookupFailed("blocks_for_district", err)
			return filters, true
		}
		if len(blocks) > 0 {
			filters = append(filters, entities.ScopeFilter{Blocks: blocks})
		}
		return filters, true

	case entities.LevelBlock:
		return []entities.ScopeFilter{{Blocks: []string{actor.AssignedID}}}, true
	}

	return nil, false
}

// CanAssignRoleAtLevel gates role assignment at an explicit level/entity.
func (s Service) CanAssignRoleAtLevel(
	ctx context.Context,
	actor entities.Actor,
	level entities.Level,
	entityID string,
) bool {
	if actor.Role.IsSuperAdmin() {
		return s.record(true)
	}
	if actor.Role.ViewOnly() {
		return s.record(false)
	}
	return s.HasCascadeAccess(ctx, actor, level, entityID)
}

// CanAssignRole gates role assignment on an application located by placement.
// teamType is accepted for interface compatibility but carries no gating
// effect; team is treated as orthogonal to authorization pending product
// clarification.
func (s Service) CanAssignRole(
	ctx context.Context,
	actor entities.Actor,
	placement entities.Placement,
	teamType string,
) bool {
	level, entityID := placement.Resolve()
	s.logger().Debug("role assignment check",
		"event", "authz_role_assignment_check",
		"module", "identity-access/authorization-service",
		"layer", "application",
		"admin_id", actor.AdminID,
		"level", string(level),
		"entity_id", entityID,
		"team_type", teamType,
	)
	return s.CanAssignRoleAtLevel(ctx, actor, level, entityID)
}

// CanPerformActions gates claim/accept/reject/assign on an application.
func (s Service) CanPerformActions(ctx context.Context, actor entities.Actor, placement entities.Placement) bool {
	if actor.Role.IsSuperAdmin() {
		return s.record(true)
	}
	if actor.Role.ViewOnly() {
		return s.record(false)
	}
	level, entityID := placement.Resolve()
	return s.HasCascadeAccess(ctx, actor, level, entityID)
}

func contains(items []string, target string) bool {
	for _, item := range items {
		if item == target {
			return true
		}
	}
	return false
}

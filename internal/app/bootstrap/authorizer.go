package bootstrap

import (
	"context"

	authzapp "rmas/contexts/identity-access/authorization-service/application"
	authzentities "rmas/contexts/identity-access/authorization-service/domain/entities"
	membershipentities "rmas/contexts/membership/application-service/domain/entities"
	membershipports "rmas/contexts/membership/application-service/ports"
)

// cascadeAuthorizer adapts the identity-access decision service to the
// authorizer port the membership module declares. Actors carrying a role
// string the service cannot parse are denied outright.
type cascadeAuthorizer struct {
	service authzapp.Service
}

var _ membershipports.Authorizer = cascadeAuthorizer{}

func (c cascadeAuthorizer) CanPerformActions(
	ctx context.Context,
	actor membershipentities.Actor,
	location membershipentities.Location,
) bool {
	authzActor, ok := c.toActor(actor)
	if !ok {
		return false
	}
	return c.service.CanPerformActions(ctx, authzActor, toPlacement(location))
}

func (c cascadeAuthorizer) CanAssignRole(
	ctx context.Context,
	actor membershipentities.Actor,
	location membershipentities.Location,
	teamType string,
) bool {
	authzActor, ok := c.toActor(actor)
	if !ok {
		return false
	}
	return c.service.CanAssignRole(ctx, authzActor, toPlacement(location), teamType)
}

func (c cascadeAuthorizer) AccessibleScopes(
	ctx context.Context,
	actor membershipentities.Actor,
) ([]membershipentities.ScopeFilter, bool) {
	authzActor, ok := c.toActor(actor)
	if !ok {
		return nil, false
	}
	filters, allowed := c.service.AccessibleEntities(ctx, authzActor)
	if !allowed {
		return nil, false
	}
	scopes := make([]membershipentities.ScopeFilter, 0, len(filters))
	for _, filter := range filters {
		scopes = append(scopes, membershipentities.ScopeFilter{
			State:     filter.State,
			Division:  filter.Division,
			Districts: filter.Districts,
			Blocks:    filter.Blocks,
		})
	}
	return scopes, true
}

func (c cascadeAuthorizer) toActor(actor membershipentities.Actor) (authzentities.Actor, bool) {
	role, err := authzentities.ParseRole(actor.Role)
	if err != nil {
		return authzentities.Actor{}, false
	}
	return authzentities.Actor{
		AdminID:       actor.AdminID,
		Role:          role,
		AssignedLevel: authzentities.Level(actor.AssignedLevel),
		AssignedID:    actor.AssignedID,
	}, true
}

func toPlacement(location membershipentities.Location) authzentities.Placement {
	return authzentities.Placement{
		Level:    authzentities.Level(location.LocatedAt),
		State:    location.State,
		Division: location.Division,
		District: location.District,
		Block:    location.Block,
	}
}

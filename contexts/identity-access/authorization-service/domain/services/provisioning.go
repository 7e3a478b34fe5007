package services

import "rmas/contexts/identity-access/authorization-service/domain/entities"

// CanCreateAdminAt enforces the descent-only provisioning rule: an
// administrator may create accounts only at levels strictly below their own.
// Block-level and media-incharge administrators may create no one. This is a
// provisioning capability, deliberately stricter than cascade access.
func CanCreateAdminAt(actor entities.Actor, level entities.Level) bool {
	if actor.Role.ViewOnly() {
		return false
	}
	if actor.Role.IsSuperAdmin() {
		return true
	}
	if !actor.Anchored() {
		return false
	}
	if actor.AssignedLevel == entities.LevelBlock {
		return false
	}
	if !level.Valid() {
		return false
	}
	return level.Below(actor.AssignedLevel)
}

// CanCreateSuperAdmin restricts superadmin provisioning to superadmins.
func CanCreateSuperAdmin(actor entities.Actor) bool {
	return actor.Role.IsSuperAdmin()
}

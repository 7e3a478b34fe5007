// Package authorization implements the cascade authorization engine for RMAS.
//
// Layering:
// - domain: role/level model, scope filters, pure hierarchy rules
// - application: cascade decisions and scope expansion using explicit ports
// - ports: stable boundaries for location reference data
//
// Boundary notes:
// - This module owns no persistence; it is a decision engine injected into
//   the membership and admin-directory modules through their Authorizer ports.
// - Keep this module self-contained under identity-access context.
// - Do not import other context adapters into domain/application.
package authorization

package ports

import (
	"context"
	"time"

	"rmas/contexts/identity-access/authorization-service/domain/entities"
)

// LocationHierarchy exposes the division → district → block reference data.
// Implementations must support lookups in both directions; errors indicate the
// data could not be consulted, which callers treat as deny.
type LocationHierarchy interface {
	DistrictsForDivision(ctx context.Context, division string) ([]string, error)
	BlocksForDistrict(ctx context.Context, district string) ([]string, error)
	DivisionForDistrict(ctx context.Context, district string) (string, bool, error)
	DistrictForBlock(ctx context.Context, block string) (string, bool, error)
}

// DecisionMetrics records authorization outcomes for the operator channel.
type DecisionMetrics interface {
	Decision(allowed bool)
	HierarchyLookupFailed()
}

// AdminRepository owns admin account persistence.
type AdminRepository interface {
	GetAdmin(ctx context.Context, adminID string) (entities.AdminUser, error)
	GetAdminByEmail(ctx context.Context, email string) (entities.AdminUser, bool, error)
	ListAdmins(ctx context.Context) ([]entities.AdminUser, error)
	CreateAdmin(ctx context.Context, admin entities.AdminUser) error
	// SetActive soft-enables or soft-disables an account.
	SetActive(ctx context.Context, adminID string, active bool, updatedAt time.Time) error
	DeleteAdmin(ctx context.Context, adminID string) error
}

// PasswordHasher abstracts credential hashing so the application layer stays
// free of crypto dependencies.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash string, password string) bool
}

// Clock allows deterministic testing of time-dependent rules.
type Clock interface {
	Now() time.Time
}

// IDGenerator abstracts account identifier generation.
type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}

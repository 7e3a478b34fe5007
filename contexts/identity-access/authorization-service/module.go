package authorization

import (
	"log/slog"

	httpadapter "rmas/contexts/identity-access/authorization-service/adapters/http"
	"rmas/contexts/identity-access/authorization-service/adapters/memory"
	application "rmas/contexts/identity-access/authorization-service/application"
	"rmas/contexts/identity-access/authorization-service/application/commands"
	"rmas/contexts/identity-access/authorization-service/application/queries"
	"rmas/contexts/identity-access/authorization-service/ports"
)

// Module is the authorization-service composition root exposed to runtime wiring.
type Module struct {
	Handler httpadapter.Handler
	Service application.Service
	Store   *memory.Store
}

// Dependencies captures all runtime ports/config required by NewModule.
type Dependencies struct {
	Admins      ports.AdminRepository
	Hierarchy   ports.LocationHierarchy
	Hasher      ports.PasswordHasher
	Clock       ports.Clock
	IDGenerator ports.IDGenerator
	Metrics     ports.DecisionMetrics
	Logger      *slog.Logger
}

// NewModule wires the cascade decision service, use-cases and transport handler
// using explicit ports.
func NewModule(deps Dependencies) Module {
	service := application.Service{
		Hierarchy: deps.Hierarchy,
		Metrics:   deps.Metrics,
		Logger:    deps.Logger,
	}
	createAdmin := commands.CreateAdminUseCase{
		Admins:      deps.Admins,
		Hasher:      deps.Hasher,
		Clock:       deps.Clock,
		IDGenerator: deps.IDGenerator,
		Logger:      deps.Logger,
	}
	disableAdmin := commands.DisableAdminUseCase{
		Admins: deps.Admins,
		Clock:  deps.Clock,
		Logger: deps.Logger,
	}
	deleteAdmin := commands.DeleteAdminUseCase{
		Admins: deps.Admins,
		Logger: deps.Logger,
	}
	getAdmin := queries.GetAdminUseCase{
		Admins: deps.Admins,
		Logger: deps.Logger,
	}
	listAdmins := queries.ListAdminsUseCase{
		Admins: deps.Admins,
		Logger: deps.Logger,
	}

	handler := httpadapter.Handler{
		CreateAdmin:  createAdmin,
		DisableAdmin: disableAdmin,
		DeleteAdmin:  deleteAdmin,
		GetAdmin:     getAdmin,
		ListAdmins:   listAdmins,
		Logger:       deps.Logger,
	}

	return Module{
		Handler: handler,
		Service: service,
	}
}

// NewInMemoryModule builds a development/testing module with in-memory adapters.
// The supplied maps seed the location hierarchy (division to districts,
// district to blocks).
func NewInMemoryModule(logger *slog.Logger, divisions map[string][]string, blocks map[string][]string) Module {
	store := memory.NewStore(divisions, blocks)
	module := NewModule(Dependencies{
		Admins:      store,
		Hierarchy:   store,
		Hasher:      store,
		Clock:       store,
		IDGenerator: store,
		Logger:      logger,
	})
	module.Store = store
	return module
}

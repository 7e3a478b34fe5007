package applicationservice

import (
	"log/slog"

	httpadapter "rmas/contexts/membership/application-service/adapters/http"
	"rmas/contexts/membership/application-service/adapters/memory"
	"rmas/contexts/membership/application-service/application/commands"
	"rmas/contexts/membership/application-service/application/queries"
	"rmas/contexts/membership/application-service/application/workers"
	"rmas/contexts/membership/application-service/ports"
)

type Module struct {
	Handler     httpadapter.Handler
	OutboxRelay workers.OutboxRelay
	Store       *memory.Store
}

type Dependencies struct {
	Applications ports.ApplicationRepository
	Outbox       ports.OutboxRepository
	Authorizer   ports.Authorizer
	Roles        ports.RoleCatalog
	Locations    ports.LocationDirectory
	Letters      ports.LetterRenderer
	Mailer       ports.Mailer
	Audit        ports.AuditSink
	Publisher    ports.EventPublisher
	Clock        ports.Clock
	IDGenerator  ports.IDGenerator
	AppBaseURL   string
	Logger       *slog.Logger
}

func NewModule(deps Dependencies) Module {
	submitApplication := commands.SubmitApplicationUseCase{
		Applications: deps.Applications,
		Locations:    deps.Locations,
		Clock:        deps.Clock,
		IDGenerator:  deps.IDGenerator,
		Logger:       deps.Logger,
	}
	claimApplication := commands.ClaimApplicationUseCase{
		Applications: deps.Applications,
		Authorizer:   deps.Authorizer,
		Audit:        deps.Audit,
		Clock:        deps.Clock,
		IDGenerator:  deps.IDGenerator,
		Logger:       deps.Logger,
	}
	acceptApplication := commands.AcceptApplicationUseCase{
		Applications: deps.Applications,
		Authorizer:   deps.Authorizer,
		Letters:      deps.Letters,
		Mailer:       deps.Mailer,
		Audit:        deps.Audit,
		Clock:        deps.Clock,
		IDGenerator:  deps.IDGenerator,
		AppBaseURL:   deps.AppBaseURL,
		Logger:       deps.Logger,
	}
	rejectApplication := commands.RejectApplicationUseCase{
		Applications: deps.Applications,
		Authorizer:   deps.Authorizer,
		Mailer:       deps.Mailer,
		Audit:        deps.Audit,
		Clock:        deps.Clock,
		IDGenerator:  deps.IDGenerator,
		Logger:       deps.Logger,
	}
	assignApplication := commands.AssignApplicationUseCase{
		Applications: deps.Applications,
		Authorizer:   deps.Authorizer,
		Clock:        deps.Clock,
		IDGenerator:  deps.IDGenerator,
		Logger:       deps.Logger,
	}
	manageRole := commands.ManageRoleUseCase{
		Applications: deps.Applications,
		Authorizer:   deps.Authorizer,
		Roles:        deps.Roles,
		Mailer:       deps.Mailer,
		Clock:        deps.Clock,
		IDGenerator:  deps.IDGenerator,
		AppBaseURL:   deps.AppBaseURL,
		Logger:       deps.Logger,
	}
	resendLetter := commands.ResendLetterUseCase{
		Applications: deps.Applications,
		Authorizer:   deps.Authorizer,
		Letters:      deps.Letters,
		Mailer:       deps.Mailer,
		Clock:        deps.Clock,
		IDGenerator:  deps.IDGenerator,
		AppBaseURL:   deps.AppBaseURL,
		Logger:       deps.Logger,
	}
	listApplications := queries.ListApplicationsUseCase{
		Applications: deps.Applications,
		Authorizer:   deps.Authorizer,
		Logger:       deps.Logger,
	}
	getApplication := queries.GetApplicationUseCase{
		Applications: deps.Applications,
		Authorizer:   deps.Authorizer,
		Logger:       deps.Logger,
	}
	verifyMembership := queries.VerifyMembershipUseCase{
		Applications: deps.Applications,
		Logger:       deps.Logger,
	}

	return Module{
		Handler: httpadapter.Handler{
			SubmitApplication: submitApplication,
			ClaimApplication:  claimApplication,
			AcceptApplication: acceptApplication,
			RejectApplication: rejectApplication,
			AssignApplication: assignApplication,
			ManageRole:        manageRole,
			ResendLetter:      resendLetter,
			ListApplications:  listApplications,
			GetApplication:    getApplication,
			VerifyMembership:  verifyMembership,
			Logger:            deps.Logger,
		},
		OutboxRelay: workers.OutboxRelay{
			Outbox:    deps.Outbox,
			Publisher: deps.Publisher,
			Clock:     deps.Clock,
			Logger:    deps.Logger,
		},
	}
}

// NewInMemoryModule wires the module against a single in-memory store backing
// every repository port, for tests and local runs.
func NewInMemoryModule(
	authorizer ports.Authorizer,
	letters ports.LetterRenderer,
	mailer ports.Mailer,
	publisher ports.EventPublisher,
	divisions map[string][]string,
	blocks map[string][]string,
	roles map[string]ports.RoleDefinition,
	appBaseURL string,
	logger *slog.Logger,
) Module {
	store := memory.NewStore(divisions, blocks, roles)
	module := NewModule(Dependencies{
		Applications: store,
		Outbox:       store,
		Authorizer:   authorizer,
		Roles:        store,
		Locations:    store,
		Letters:      letters,
		Mailer:       mailer,
		Audit:        store,
		Publisher:    publisher,
		Clock:        store,
		IDGenerator:  store,
		AppBaseURL:   appBaseURL,
		Logger:       logger,
	})
	module.Store = store
	return module
}

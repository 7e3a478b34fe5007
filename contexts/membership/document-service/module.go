package documentservice

import (
	"log/slog"
	"time"

	httpadapter "rmas/contexts/membership/document-service/adapters/http"
	"rmas/contexts/membership/document-service/adapters/memory"
	"rmas/contexts/membership/document-service/application/commands"
	"rmas/contexts/membership/document-service/application/queries"
	"rmas/contexts/membership/document-service/application/workers"
	"rmas/contexts/membership/document-service/domain/entities"
	"rmas/contexts/membership/document-service/ports"
)

type Module struct {
	Handler    httpadapter.Handler
	OtpSweeper workers.OtpSweeper
	Store      *memory.Store
}

type Dependencies struct {
	Otps          ports.OtpRepository
	Members       ports.MembershipReader
	Renderer      ports.DocumentRenderer
	Codes         ports.CodeGenerator
	Tokens        ports.TokenGenerator
	Mailer        ports.Mailer
	Audit         ports.AuditSink
	Metrics       ports.FlowMetrics
	Clock         ports.Clock
	IDGenerator   ports.IDGenerator
	OtpTTL        time.Duration
	TokenTTL      time.Duration
	RequestWindow time.Duration
	RequestLimit  int
	Logger        *slog.Logger
}

func NewModule(deps Dependencies) Module {
	requestDownload := commands.RequestDownloadUseCase{
		Otps:          deps.Otps,
		Members:       deps.Members,
		Codes:         deps.Codes,
		Mailer:        deps.Mailer,
		Audit:         deps.Audit,
		Metrics:       deps.Metrics,
		Clock:         deps.Clock,
		IDGenerator:   deps.IDGenerator,
		OtpTTL:        deps.OtpTTL,
		RequestWindow: deps.RequestWindow,
		RequestLimit:  deps.RequestLimit,
		Logger:        deps.Logger,
	}
	verifyOtp := commands.VerifyOtpUseCase{
		Otps:        deps.Otps,
		Tokens:      deps.Tokens,
		Audit:       deps.Audit,
		Metrics:     deps.Metrics,
		Clock:       deps.Clock,
		IDGenerator: deps.IDGenerator,
		TokenTTL:    deps.TokenTTL,
		Logger:      deps.Logger,
	}
	generateDocument := commands.GenerateDocumentUseCase{
		Otps:        deps.Otps,
		Members:     deps.Members,
		Renderer:    deps.Renderer,
		Audit:       deps.Audit,
		Metrics:     deps.Metrics,
		Clock:       deps.Clock,
		IDGenerator: deps.IDGenerator,
		Logger:      deps.Logger,
	}
	viewProfile := queries.ViewProfileUseCase{
		Otps:    deps.Otps,
		Members: deps.Members,
		Clock:   deps.Clock,
		Logger:  deps.Logger,
	}

	return Module{
		Handler: httpadapter.Handler{
			RequestDownload:  requestDownload,
			VerifyOtp:        verifyOtp,
			GenerateDocument: generateDocument,
			ViewProfile:      viewProfile,
			Logger:           deps.Logger,
		},
		OtpSweeper: workers.OtpSweeper{
			Otps:   deps.Otps,
			Clock:  deps.Clock,
			Logger: deps.Logger,
		},
	}
}

// NewInMemoryModule wires the module against a single in-memory store backing
// every port, for tests and local runs.
func NewInMemoryModule(
	members []entities.MemberProfile,
	renderer ports.DocumentRenderer,
	mailer ports.Mailer,
	logger *slog.Logger,
) Module {
	store := memory.NewStore(members)
	module := NewModule(Dependencies{
		Otps:        store,
		Members:     store,
		Renderer:    renderer,
		Codes:       store,
		Tokens:      store,
		Mailer:      mailer,
		Audit:       store,
		Clock:       store,
		IDGenerator: store,
		Logger:      logger,
	})
	module.Store = store
	return module
}

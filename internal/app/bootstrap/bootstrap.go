package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	authorization "rmas/contexts/identity-access/authorization-service"
	authcrypto "rmas/contexts/identity-access/authorization-service/adapters/crypto"
	authpostgres "rmas/contexts/identity-access/authorization-service/adapters/postgres"
	applicationservice "rmas/contexts/membership/application-service"
	membershippostgres "rmas/contexts/membership/application-service/adapters/postgres"
	membershipworkers "rmas/contexts/membership/application-service/application/workers"
	documentservice "rmas/contexts/membership/document-service"
	documentcrypto "rmas/contexts/membership/document-service/adapters/crypto"
	documentpostgres "rmas/contexts/membership/document-service/adapters/postgres"
	documentworkers "rmas/contexts/membership/document-service/application/workers"
	"rmas/internal/platform/config"
	"rmas/internal/platform/db"
	"rmas/internal/platform/httpserver"
	"rmas/internal/platform/locations"
	"rmas/internal/platform/mailer"
	"rmas/internal/platform/messaging"
	"rmas/internal/platform/metrics"
	"rmas/internal/platform/render"
)

// Package bootstrap is the composition root.
// Keep construction/wiring here so module code stays framework-agnostic.

type APIApp struct {
	server   *httpserver.Server
	postgres *db.Postgres
	logger   *slog.Logger
}

type WorkerApp struct {
	postgres      *db.Postgres
	outboxRelay   membershipworkers.OutboxRelay
	otpSweeper    documentworkers.OtpSweeper
	pollInterval  time.Duration
	sweepInterval time.Duration
	logger        *slog.Logger
}

func BuildAPI() (*APIApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "api")
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return nil, errors.New("POSTGRES_DSN is required")
	}

	pg, err := db.Connect(cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}

	hierarchy, err := locations.LoadHierarchy(cfg.LocationsPath)
	if err != nil {
		return nil, err
	}
	roleCatalog, err := locations.LoadRoleCatalog(cfg.RolesPath)
	if err != nil {
		return nil, err
	}

	prom := metrics.New()

	authRepo := authpostgres.NewRepository(pg.DB, logger)
	authModule := authorization.NewModule(authorization.Dependencies{
		Admins:      authRepo,
		Hierarchy:   hierarchy,
		Hasher:      authcrypto.BcryptHasher{},
		Clock:       authpostgres.SystemClock{},
		IDGenerator: authpostgres.UUIDGenerator{},
		Metrics:     prom,
		Logger:      logger,
	})

	kafka, err := messaging.NewKafka(cfg.KafkaBrokers, logger)
	if err != nil {
		return nil, err
	}

	smtp := mailer.NewSMTP(cfg.SMTPAddr, cfg.SMTPFrom, logger)
	renderer := render.NewClient(cfg.RenderBaseURL, cfg.RenderTimeout, cfg.RenderAttempts, logger)

	membershipRepo := membershippostgres.NewRepository(pg.DB, logger)
	membershipModule := applicationservice.NewModule(applicationservice.Dependencies{
		Applications: membershipRepo,
		Outbox:       membershipRepo,
		Authorizer:   cascadeAuthorizer{service: authModule.Service},
		Roles:        roleCatalog,
		Locations:    hierarchy,
		Letters:      renderer,
		Mailer:       mailer.ApplicationMailer{SMTP: smtp, Logger: logger},
		Audit:        membershipRepo,
		Publisher:    kafka,
		Clock:        membershippostgres.SystemClock{},
		IDGenerator:  membershippostgres.UUIDGenerator{},
		AppBaseURL:   cfg.AppBaseURL,
		Logger:       logger,
	})

	documentRepo := documentpostgres.NewRepository(pg.DB, logger)
	documentModule := documentservice.NewModule(documentservice.Dependencies{
		Otps:          documentRepo,
		Members:       documentRepo,
		Renderer:      renderer,
		Codes:         documentcrypto.OtpCodeGenerator{},
		Tokens:        documentcrypto.DownloadTokenGenerator{},
		Mailer:        mailer.DocumentMailer{SMTP: smtp, Logger: logger},
		Audit:         documentRepo,
		Metrics:       prom,
		Clock:         documentpostgres.SystemClock{},
		IDGenerator:   documentpostgres.UUIDGenerator{},
		OtpTTL:        cfg.OtpTTL,
		TokenTTL:      cfg.TokenTTL,
		RequestWindow: cfg.OtpRequestWindow,
		RequestLimit:  cfg.OtpRequestLimit,
		Logger:        logger,
	})

	server := httpserver.New(
		authModule,
		membershipModule,
		documentModule,
		prom.Handler(),
		logger,
		normalizeAddr(cfg.HTTPPort),
	)
	return &APIApp{
		server:   server,
		postgres: pg,
		logger:   logger,
	}, nil
}

func BuildWorker() (*WorkerApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "worker")
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return nil, errors.New("POSTGRES_DSN is required")
	}

	pg, err := db.Connect(cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}

	kafka, err := messaging.NewKafka(cfg.KafkaBrokers, logger)
	if err != nil {
		return nil, err
	}

	membershipRepo := membershippostgres.NewRepository(pg.DB, logger)
	documentRepo := documentpostgres.NewRepository(pg.DB, logger)
	return &WorkerApp{
		postgres: pg,
		outboxRelay: membershipworkers.OutboxRelay{
			Outbox:    membershipRepo,
			Publisher: kafka,
			Clock:     membershippostgres.SystemClock{},
			BatchSize: 100,
			Logger:    logger,
		},
		otpSweeper: documentworkers.OtpSweeper{
			Otps:   documentRepo,
			Clock:  documentpostgres.SystemClock{},
			Logger: logger,
		},
		pollInterval:  cfg.OutboxPollInterval,
		sweepInterval: cfg.OtpSweepInterval,
		logger:        logger,
	}, nil
}

func (a *APIApp) Run(_ context.Context) error {
	if a.logger != nil {
		a.logger.Info("api app started",
			"event", "bootstrap_api_started",
			"module", "internal/app/bootstrap",
			"layer", "platform",
		)
	}
	return a.server.Start()
}

func (a *APIApp) Close() error {
	if a.postgres != nil {
		return a.postgres.Close()
	}
	return nil
}

func (w *WorkerApp) Run(ctx context.Context) error {
	poll := time.NewTicker(w.pollInterval)
	defer poll.Stop()
	sweep := time.NewTicker(w.sweepInterval)
	defer sweep.Stop()

	w.logger.Info("worker app started",
		"event", "bootstrap_worker_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"poll_interval", w.pollInterval.String(),
		"sweep_interval", w.sweepInterval.String(),
	)

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-poll.C:
			if err := w.outboxRelay.RunOnce(ctx); err != nil {
				return err
			}
		case <-sweep.C:
			if err := w.otpSweeper.RunOnce(ctx); err != nil {
				return err
			}
		}
	}
}

func (w *WorkerApp) Close() error {
	if w.postgres != nil {
		return w.postgres.Close()
	}
	return nil
}

func normalizeAddr(port string) string {
	value := strings.TrimSpace(port)
	if value == "" {
		return ":8080"
	}
	if strings.HasPrefix(value, ":") {
		return value
	}
	return ":" + value
}

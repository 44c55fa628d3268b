// Package bootstrap assembles the application graph shared by the api and
// scanworker binaries.
package bootstrap

import (
	"context"
	"fmt"

	"github.com/texcare/guide-tracker/internal/config"
	"github.com/texcare/guide-tracker/internal/core/ports"
	"github.com/texcare/guide-tracker/internal/core/usecase"
	"github.com/texcare/guide-tracker/internal/infrastructure/backend/rest"
	"github.com/texcare/guide-tracker/internal/infrastructure/repository/postgres"
	"github.com/texcare/guide-tracker/internal/infrastructure/resilience"
	natssource "github.com/texcare/guide-tracker/internal/infrastructure/tagsource/nats"
)

type App struct {
	Config config.Config

	Tags    ports.TagSource
	Journal ports.DiscrepancyJournal
	Intake  *usecase.IntakePipeline

	CreatorUC   ports.GuideCreator
	AuthorityUC ports.TransitionAuthority
	GateUC      ports.AuthorizationGate

	closeFn func()
}

type Options struct {
	// WithTagSource controls whether a NATS connection is established. The
	// api binary does not consume reader samples and skips it.
	WithTagSource bool
}

func New(ctx context.Context, cfg config.Config, opts Options) (*App, error) {
	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	journal := postgres.NewAuditRepository(db)
	if err := journal.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	executor := resilience.NewExecutor(resilience.DefaultConfig())
	backend := rest.New(cfg.BackendBaseURL, rest.Options{
		APIKey:             cfg.BackendAPIKey,
		RequestTimeout:     cfg.BackendTimeout,
		ResilienceExecutor: executor,
	})

	var tags ports.TagSource
	var closeTags func()
	if opts.WithTagSource {
		source, err := natssource.New(cfg.NATSURL, cfg.TagSubject)
		if err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("init tag source: %w", err)
		}
		tags = source
		closeTags = source.Close
	}

	gateUC := usecase.NewAuthorizationGateUseCase(backend, cfg.AuthPollInterval)
	creatorUC := usecase.NewCreateGuideUseCase(backend, backend)
	authorityUC := usecase.NewTransitionAuthorityUseCase(backend, backend, gateUC, journal)

	return &App{
		Config: cfg,

		Tags:    tags,
		Journal: journal,
		Intake:  usecase.NewIntakePipeline(),

		CreatorUC:   creatorUC,
		AuthorityUC: authorityUC,
		GateUC:      gateUC,

		closeFn: func() {
			if closeTags != nil {
				closeTags()
			}
			_ = db.Close()
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}

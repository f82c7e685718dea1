// Package bootstrap assembles the evaluation service from configuration. It is
// shared by the HTTP server and the operator CLI.
package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"github.com/okian/peereval/internal/adapters/auth"
	"github.com/okian/peereval/internal/adapters/datasource"
	"github.com/okian/peereval/internal/adapters/repository"
	service "github.com/okian/peereval/internal/app"
	"github.com/okian/peereval/internal/config"
	"github.com/okian/peereval/internal/domain/matching"
	"github.com/okian/peereval/internal/domain/scoring"
	"github.com/okian/peereval/pkg/logger"
)

// App holds the started service and the adapters behind it.
type App struct {
	Service   *service.Service
	Directory *datasource.Directory
	Identity  *auth.Provider
}

// Build loads the data files, opens the store and starts the service. Callers
// must Close the returned App.
func Build(ctx context.Context, cfg *config.Config, log logger.Logger) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: nil config", config.ErrInvalidConfig)
	}
	if log == nil {
		log = logger.Get()
	}

	dir, err := datasource.Load(ctx, datasource.Paths{
		Users:       cfg.UsersPath,
		Assignments: cfg.AssignmentsPath,
		Catalog:     cfg.CatalogPath,
	}, datasource.WithLogger(log.Named("datasource")), datasource.WithBcryptCost(cfg.BcryptCost))
	if err != nil {
		return nil, fmt.Errorf("load data sources: %w", err)
	}

	if cfg.UsingDevSecret() {
		log.Warn(ctx, "using built-in token secret; set PEEREVAL_TOKEN_SECRET")
	}
	idp, err := auth.NewProvider(dir, cfg.TokenSecret,
		auth.WithIssuer(cfg.TokenIssuer),
		auth.WithTTL(cfg.TokenTTL()),
		auth.WithLoginRate(cfg.LoginRatePerSec, cfg.LoginBurst),
		auth.WithLogger(log.Named("auth")),
	)
	if err != nil {
		return nil, fmt.Errorf("identity provider: %w", err)
	}

	store, err := repository.Open(ctx, cfg.DBPath,
		repository.WithLogger(log.Named("store")),
		repository.WithBusyTimeout(cfg.BusyTimeout()),
	)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	svc := service.New(
		service.WithLogger(log.Named("service")),
		service.WithStore(store),
		service.WithIdentity(idp),
		service.WithRoster(dir),
		service.WithAssignments(dir),
		service.WithCatalog(dir),
		service.WithScoringOptions(
			scoring.WithWeights(cfg.Weights()),
			scoring.WithMinPeerReceived(cfg.MinPeerReceived),
		),
		service.WithMatchingOptions(
			matching.WithDefaultTopK(cfg.DefaultTopK),
			matching.WithMaxTopK(cfg.MaxTopK),
			matching.WithDefaultMethod(cfg.DefaultMethod),
			matching.WithOfficialURLBase(cfg.OfficialURLBase),
			matching.WithReferenceURLBase(cfg.ReferenceURLBase),
		),
		service.WithRequirements(cfg.Requirements()),
		service.WithIdempotencySize(cfg.IdempotencySize),
		service.WithIdempotencyTTL(cfg.IdempotencyTTL()),
	)
	if err := svc.Start(ctx); err != nil {
		return nil, errors.Join(fmt.Errorf("start service: %w", err), store.Close())
	}

	log.Info(ctx, "service ready",
		logger.Int("roster", len(dir.Roster())),
		logger.Int("catalog", len(dir.Catalog())),
		logger.Int("catalog_skipped", dir.CatalogSkipped()),
		logger.String("db_path", cfg.DBPath),
	)
	return &App{Service: svc, Directory: dir, Identity: idp}, nil
}

// Close stops the service and releases the store.
func (a *App) Close() {
	if a != nil && a.Service != nil {
		a.Service.Stop()
	}
}

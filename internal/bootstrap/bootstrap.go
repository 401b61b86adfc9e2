// Package bootstrap wires configuration into a store and the application service.
// Every binary under cmd/ starts here.
package bootstrap

import (
	"context"
	"fmt"
	"log"
	"time"

	"estimate-desk/internal/ai"
	"estimate-desk/internal/app"
	"estimate-desk/internal/config"
	"estimate-desk/internal/core"
	"estimate-desk/internal/db"
	"estimate-desk/internal/store"
)

// Env is a wired installation. Close releases the store and any database pool.
type Env struct {
	Config  *config.Config
	Store   *store.Store
	Service app.ApplicationService
	closers []func()
}

// Open selects the backend named by cfg.StoreDriver and builds the services over it.
// The drafting assistant is enabled only when an OpenAI key is configured.
func Open(ctx context.Context, cfg *config.Config) (*Env, error) {
	env := &Env{Config: cfg}

	backend, err := openBackend(ctx, cfg, env)
	if err != nil {
		env.Close()
		return nil, err
	}
	env.Store = store.New(backend)
	env.closers = append(env.closers, func() {
		if err := env.Store.Close(); err != nil {
			log.Printf("[STORE] close: %v", err)
		}
	})

	var drafter ai.Drafter
	if cfg.OpenAIKey != "" {
		drafter = ai.NewAgent(cfg.OpenAIKey)
	}
	env.Service = NewService(env.Store, drafter, nil)
	return env, nil
}

// NewService builds the ApplicationService over repo. A nil clock defaults to time.Now.
func NewService(repo core.Repository, drafter ai.Drafter, clock func() time.Time) app.ApplicationService {
	numbering := core.NewNumberingService(repo)
	return app.NewAppService(
		repo,
		core.NewDocumentService(repo, numbering, clock),
		core.NewClientService(repo),
		drafter,
		clock,
	)
}

func openBackend(ctx context.Context, cfg *config.Config, env *Env) (store.Backend, error) {
	switch cfg.StoreDriver {
	case config.DriverMemory:
		log.Printf("[STORE] in-memory store, data is discarded on exit")
		return store.NewMemoryBackend(), nil
	case config.DriverPostgres:
		pool, err := db.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to postgres: %w", err)
		}
		env.closers = append(env.closers, pool.Close)
		return store.NewPostgresBackend(pool), nil
	default:
		b, err := store.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", cfg.SQLitePath, err)
		}
		return b, nil
	}
}

// Close releases resources in reverse order of acquisition.
func (e *Env) Close() {
	for i := len(e.closers) - 1; i >= 0; i-- {
		e.closers[i]()
	}
	e.closers = nil
}

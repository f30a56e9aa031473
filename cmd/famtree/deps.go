package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ersonp/famtree-core/internal/application/handlers"
	"github.com/ersonp/famtree-core/internal/domain/entities"
	"github.com/ersonp/famtree-core/internal/domain/graph"
	"github.com/ersonp/famtree-core/internal/domain/ports"
	"github.com/ersonp/famtree-core/internal/domain/services"
	"github.com/ersonp/famtree-core/internal/infrastructure/config"
	"github.com/ersonp/famtree-core/internal/infrastructure/logging"
	"github.com/ersonp/famtree-core/internal/infrastructure/notify"
	"github.com/ersonp/famtree-core/internal/infrastructure/rowstore/instrumented"
	"github.com/ersonp/famtree-core/internal/infrastructure/rowstore/postgres"
	"github.com/ersonp/famtree-core/internal/infrastructure/rowstore/sqlite"
)

// Deps holds high-level dependencies for commands.
// Only handlers are exposed - the synchronizer and row store are internal.
type Deps struct {
	Config *config.Config
	Logger *slog.Logger
	Tree   *handlers.TreeHandler
}

// internalDeps holds all dependencies including low-level components.
type internalDeps struct {
	Deps
	rows ports.RowStore
}

// environment is the loaded configuration and logger of one invocation.
type environment struct {
	basePath string
	cfg      *config.Config
	logger   *slog.Logger
}

// depsOptions overrides how results reach the user. Zero values print to stdout.
type depsOptions struct {
	notifier ports.Notifier
	dialogs  ports.DialogOpener
	registry prometheus.Registerer

	// tolerateLoadFailure keeps going with an empty tree when hydration fails.
	tolerateLoadFailure bool
}

// rowStore is what every store driver provides.
type rowStore interface {
	ports.RowStore
	ports.SchemaManager
}

// withEnvironment loads config and the logger, then calls fn.
func withEnvironment(fn func(*environment) error) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting current directory: %w", err)
	}

	cfg, err := config.Load(cwd)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logCfg := cfg.Log
	if !globalVerbose && logCfg.File == "" {
		logCfg.Level = "error"
	}
	logger, closer := logging.FromConfig(logCfg, os.Stderr)
	defer closer.Close()

	return fn(&environment{basePath: cwd, cfg: cfg, logger: logger})
}

// withDeps loads config, builds dependencies and hydrates the tree, then calls fn.
// It handles cleanup automatically.
func withDeps(ctx context.Context, fn func(*Deps) error) error {
	return withEnvironment(func(env *environment) error {
		return withInternalDeps(ctx, env, depsOptions{}, func(d *internalDeps) error {
			return fn(&d.Deps)
		})
	})
}

// withInternalDeps provides access to all dependencies including low-level components.
func withInternalDeps(ctx context.Context, env *environment, opts depsOptions, fn func(*internalDeps) error) error {
	store, err := openStore(ctx, env.basePath, env.cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	// Auto-migrate: tables and default types are created when missing
	if err := store.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("ensuring schema: %w", err)
	}
	if _, err := store.SeedRelationshipTypes(ctx, entities.DefaultRelationshipTypes); err != nil {
		return fmt.Errorf("seeding relationship types: %w", err)
	}

	if opts.notifier == nil {
		opts.notifier = notify.NewConsole(os.Stdout)
	}
	if opts.dialogs == nil {
		opts.dialogs = notify.NewHintDialogs(os.Stdout)
	}
	if opts.registry == nil {
		opts.registry = prometheus.NewRegistry()
	}

	rows := instrumented.Wrap(store, instrumented.NewMetrics(opts.registry))
	synchronizer := services.NewSynchronizer(rows, graph.NewStore(), opts.notifier, opts.dialogs, services.Options{
		Spread: env.cfg.Canvas.Spread,
		Logger: env.logger,
	})
	tree := handlers.NewTreeHandler(synchronizer)

	if err := tree.HandleLoad(ctx); err != nil {
		if !opts.tolerateLoadFailure {
			return fmt.Errorf("loading family tree: %w", err)
		}
		env.logger.Warn("starting with an empty tree", "error", err)
	}

	deps := &internalDeps{
		Deps: Deps{
			Config: env.cfg,
			Logger: env.logger,
			Tree:   tree,
		},
		rows: rows,
	}

	return fn(deps)
}

// openStore opens the row store selected by the config.
func openStore(ctx context.Context, basePath string, cfg *config.Config) (rowStore, error) {
	switch cfg.DriverName() {
	case config.DriverPostgres:
		repo, err := postgres.NewRepository(ctx, cfg.Store.Postgres)
		if err != nil {
			return nil, fmt.Errorf("creating postgres repository: %w", err)
		}
		return repo, nil
	default:
		repo, err := sqlite.NewRepository(config.SQLiteConfig{Path: cfg.SQLitePath(basePath)})
		if err != nil {
			return nil, fmt.Errorf("creating sqlite repository: %w", err)
		}
		return repo, nil
	}
}

// openSchema adapts openStore for the init handler.
func openSchema(ctx context.Context, basePath string, cfg *config.Config) (ports.SchemaManager, error) {
	store, err := openStore(ctx, basePath, cfg)
	if err != nil {
		return nil, err
	}
	return store, nil
}

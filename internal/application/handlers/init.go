// Package handlers contains application use case handlers.
package handlers

import (
	"context"
	"fmt"

	"github.com/ersonp/famtree-core/internal/domain/entities"
	"github.com/ersonp/famtree-core/internal/domain/ports"
	"github.com/ersonp/famtree-core/internal/infrastructure/config"
)

// SchemaOpener opens the schema manager of the store named by cfg.
type SchemaOpener func(ctx context.Context, basePath string, cfg *config.Config) (ports.SchemaManager, error)

// InitHandler handles project and database initialization.
type InitHandler struct {
	open SchemaOpener
}

// NewInitHandler creates a new init handler.
func NewInitHandler(open SchemaOpener) *InitHandler {
	return &InitHandler{open: open}
}

// InitResult contains the result of initialization.
type InitResult struct {
	ConfigPath  string
	Driver      string
	TypesSeeded int
}

// Handle writes the default config, creates the tables and seeds the
// default relationship types into an empty store.
func (h *InitHandler) Handle(ctx context.Context, basePath string) (*InitResult, error) {
	if config.Exists(basePath) {
		return nil, fmt.Errorf("famtree already initialized in %s", basePath)
	}

	if err := config.WriteDefault(basePath); err != nil {
		return nil, fmt.Errorf("writing default config: %w", err)
	}

	cfg, err := config.Load(basePath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	schema, err := h.open(ctx, basePath, cfg)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}
	defer schema.Close()

	if err := schema.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	seeded, err := schema.SeedRelationshipTypes(ctx, entities.DefaultRelationshipTypes)
	if err != nil {
		return nil, fmt.Errorf("seeding relationship types: %w", err)
	}

	return &InitResult{
		ConfigPath:  config.ConfigFilePath(basePath),
		Driver:      cfg.DriverName(),
		TypesSeeded: seeded,
	}, nil
}

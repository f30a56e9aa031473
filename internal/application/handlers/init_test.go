package handlers

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ersonp/famtree-core/internal/domain/entities"
	"github.com/ersonp/famtree-core/internal/domain/mocks"
	"github.com/ersonp/famtree-core/internal/domain/ports"
	"github.com/ersonp/famtree-core/internal/infrastructure/config"
)

func openerFor(db *mocks.RowStore) SchemaOpener {
	return func(context.Context, string, *config.Config) (ports.SchemaManager, error) {
		return db, nil
	}
}

func TestInitHandler_Handle_Success(t *testing.T) {
	tmpDir := t.TempDir()
	db := mocks.NewRowStore()

	handler := NewInitHandler(openerFor(db))

	result, err := handler.Handle(t.Context(), tmpDir)

	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Contains(t, result.ConfigPath, "config.yaml")
	assert.Equal(t, config.DriverSQLite, result.Driver)
	assert.Equal(t, len(entities.DefaultRelationshipTypes), result.TypesSeeded)
	assert.Equal(t, 1, db.CallCount(mocks.OpEnsureSchema))
	assert.Len(t, db.Types, len(entities.DefaultRelationshipTypes))
	assert.True(t, db.Closed)

	// Verify config was created
	assert.True(t, config.Exists(tmpDir))
}

func TestInitHandler_Handle_ExistingTypesKept(t *testing.T) {
	db := mocks.NewRowStore()
	db.AddType("Custom", "#000000")

	result, err := NewInitHandler(openerFor(db)).Handle(t.Context(), t.TempDir())

	require.NoError(t, err)
	assert.Equal(t, 0, result.TypesSeeded)
	assert.Len(t, db.Types, 1)
}

func TestInitHandler_Handle_AlreadyInitialized(t *testing.T) {
	tmpDir := t.TempDir()

	err := config.WriteDefault(tmpDir)
	require.NoError(t, err)

	handler := NewInitHandler(openerFor(mocks.NewRowStore()))

	_, err = handler.Handle(t.Context(), tmpDir)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "already initialized")
}

func TestInitHandler_Handle_Errors(t *testing.T) {
	tests := []struct {
		name    string
		open    SchemaOpener
		setup   func(*mocks.RowStore)
		wantErr string
	}{
		{
			name: "open fails",
			open: func(context.Context, string, *config.Config) (ports.SchemaManager, error) {
				return nil, errors.New("no database")
			},
			wantErr: "opening store",
		},
		{
			name:    "schema fails",
			setup:   func(db *mocks.RowStore) { db.Errs[mocks.OpEnsureSchema] = errors.New("read-only") },
			wantErr: "creating schema",
		},
		{
			name:    "seed fails",
			setup:   func(db *mocks.RowStore) { db.Errs[mocks.OpSeedRelationshipTypes] = errors.New("constraint") },
			wantErr: "seeding relationship types",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := mocks.NewRowStore()
			if tt.setup != nil {
				tt.setup(db)
			}
			open := tt.open
			if open == nil {
				open = openerFor(db)
			}

			_, err := NewInitHandler(open).Handle(t.Context(), t.TempDir())

			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

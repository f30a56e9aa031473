package services

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/ersonp/famtree-core/internal/domain/entities"
	"github.com/ersonp/famtree-core/internal/domain/graph"
	"github.com/ersonp/famtree-core/internal/domain/mocks"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	rows     *mocks.RowStore
	store    *graph.Store
	notifier *mocks.Notifier
	dialogs  *mocks.DialogOpener
	sync     *Synchronizer
}

func newFixture(t *testing.T, opts Options) *fixture {
	t.Helper()
	f := &fixture{
		rows:     mocks.NewRowStore(),
		store:    graph.NewStore(),
		notifier: &mocks.Notifier{},
		dialogs:  &mocks.DialogOpener{},
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	f.sync = NewSynchronizer(f.rows, f.store, f.notifier, f.dialogs, opts)
	return f
}

// seedTree stores one relationship with a parent and a child and returns their ids.
func (f *fixture) seedTree(t *testing.T) (parent, child, rel string) {
	t.Helper()
	ctx := context.Background()
	marriage := f.rows.AddType("Marriage", "#e11d48")
	f.rows.AddType("Adoption", "#059669")

	p, err := f.rows.InsertFamilyMember(ctx, entities.NewFamilyMember{Name: "Ada", Position: entities.Position{X: 10, Y: 10}})
	require.NoError(t, err)
	c, err := f.rows.InsertFamilyMember(ctx, entities.NewFamilyMember{Name: "Byron", Position: entities.Position{X: 10, Y: 200}})
	require.NoError(t, err)
	r, err := f.rows.InsertRelationship(ctx, entities.NewRelationship{TypeID: marriage.ID, Position: entities.Position{X: 10, Y: 100}})
	require.NoError(t, err)
	_, err = f.rows.InsertMembership(ctx, entities.NewMembership{RelationshipID: r.ID, FamilyMemberID: p.ID, Role: entities.RoleParent})
	require.NoError(t, err)
	_, err = f.rows.InsertMembership(ctx, entities.NewMembership{RelationshipID: r.ID, FamilyMemberID: c.ID, Role: entities.RoleChild})
	require.NoError(t, err)

	// Seeding counts as calls; tests only care about calls made by the synchronizer.
	f.rows.Calls = make(map[string]int)
	return p.ID, c.ID, r.ID
}

// hydrate seeds and loads a tree.
func (f *fixture) hydrate(t *testing.T) (parent, child, rel string) {
	t.Helper()
	parent, child, rel = f.seedTree(t)
	require.NoError(t, f.sync.Hydrate(context.Background()))
	f.rows.Calls = make(map[string]int)
	return parent, child, rel
}

func boolPtr(b bool) *bool { return &b }

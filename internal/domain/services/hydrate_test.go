package services

import (
	"context"
	"errors"
	"testing"

	"github.com/ersonp/famtree-core/internal/domain/entities"
	"github.com/ersonp/famtree-core/internal/domain/graph"
	"github.com/ersonp/famtree-core/internal/domain/mocks"
	"github.com/ersonp/famtree-core/internal/domain/ports"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSynchronizer_Hydrate(t *testing.T) {
	f := newFixture(t, Options{})
	parent, child, rel := f.seedTree(t)

	err := f.sync.Hydrate(context.Background())
	require.NoError(t, err)

	snap := f.store.Snapshot()
	require.Len(t, snap.Nodes, 3)
	assert.Equal(t, parent, snap.Nodes[0].ID)
	assert.Equal(t, graph.KindFamily, snap.Nodes[0].Kind)
	assert.Equal(t, entities.Position{X: 10, Y: 10}, snap.Nodes[0].Position)
	assert.Equal(t, child, snap.Nodes[1].ID)

	relNode := snap.Nodes[2]
	assert.Equal(t, rel, relNode.ID)
	assert.Equal(t, graph.KindRelationship, relNode.Kind)
	require.NotNil(t, relNode.Relationship)
	assert.Equal(t, "Marriage", relNode.Relationship.Type.Name)
	assert.Equal(t, "#e11d48", relNode.Relationship.Type.Color)

	require.Len(t, snap.Edges, 2)
	assert.Equal(t, graph.Edge{ID: snap.Edges[0].ID, Source: parent, Target: rel, Role: entities.RoleParent}, snap.Edges[0])
	assert.Equal(t, graph.Edge{ID: snap.Edges[1].ID, Source: rel, Target: child, Role: entities.RoleChild}, snap.Edges[1])

	assert.Len(t, f.sync.RelationshipTypes(), 2)
	assert.Empty(t, f.notifier.All())

	for _, op := range []string{
		mocks.OpListRelationshipTypes,
		mocks.OpListFamilyMembers,
		mocks.OpListRelationships,
		mocks.OpListMemberships,
	} {
		assert.Equal(t, 1, f.rows.CallCount(op), op)
	}
}

func TestSynchronizer_Hydrate_NormalizesGender(t *testing.T) {
	f := newFixture(t, Options{})
	f.rows.Members = []entities.FamilyMember{
		{ID: "a", Name: "A", Gender: ""},
		{ID: "b", Name: "B", Gender: "unknown"},
		{ID: "c", Name: "C", Gender: entities.GenderFemale},
	}

	require.NoError(t, f.sync.Hydrate(context.Background()))

	snap := f.store.Snapshot()
	require.Len(t, snap.Nodes, 3)
	assert.Equal(t, entities.GenderOther, snap.Nodes[0].Family.Gender)
	assert.Equal(t, entities.GenderOther, snap.Nodes[1].Family.Gender)
	assert.Equal(t, entities.GenderFemale, snap.Nodes[2].Family.Gender)
}

func TestSynchronizer_Hydrate_FetchFailure(t *testing.T) {
	ops := []string{
		mocks.OpListRelationshipTypes,
		mocks.OpListFamilyMembers,
		mocks.OpListRelationships,
		mocks.OpListMemberships,
	}

	for _, op := range ops {
		t.Run(op, func(t *testing.T) {
			f := newFixture(t, Options{})
			f.seedTree(t)
			f.rows.Errs[op] = errors.New("connection refused")

			err := f.sync.Hydrate(context.Background())
			require.Error(t, err)

			nodes, edges := f.store.Len()
			assert.Zero(t, nodes, "graph must not be partially populated")
			assert.Zero(t, edges)
			assert.Empty(t, f.sync.RelationshipTypes())

			all := f.notifier.All()
			require.Len(t, all, 1, "exactly one load failure notification")
			assert.Equal(t, ports.LevelError, all[0].Level)
			assert.Equal(t, titleLoadFailed, all[0].Title)
		})
	}
}

func TestSynchronizer_Hydrate_IntegrityErrors(t *testing.T) {
	tests := []struct {
		name  string
		setup func(rows *mocks.RowStore)
	}{
		{
			name: "relationship with missing type",
			setup: func(rows *mocks.RowStore) {
				rows.Relationships = []entities.Relationship{{ID: "r", TypeID: "gone"}}
			},
		},
		{
			name: "membership with missing family member",
			setup: func(rows *mocks.RowStore) {
				rt := rows.AddType("Marriage", "#e11d48")
				rows.Relationships = []entities.Relationship{{ID: "r", TypeID: rt.ID}}
				rows.Memberships = []entities.FamilyRelationshipMember{{ID: "l", RelationshipID: "r", FamilyMemberID: "ghost", Role: entities.RoleParent}}
			},
		},
		{
			name: "membership with missing relationship",
			setup: func(rows *mocks.RowStore) {
				rows.Members = []entities.FamilyMember{{ID: "m", Name: "M"}}
				rows.Memberships = []entities.FamilyRelationshipMember{{ID: "l", RelationshipID: "ghost", FamilyMemberID: "m", Role: entities.RoleParent}}
			},
		},
		{
			name: "membership with unknown role",
			setup: func(rows *mocks.RowStore) {
				rt := rows.AddType("Marriage", "#e11d48")
				rows.Members = []entities.FamilyMember{{ID: "m", Name: "M"}}
				rows.Relationships = []entities.Relationship{{ID: "r", TypeID: rt.ID}}
				rows.Memberships = []entities.FamilyRelationshipMember{{ID: "l", RelationshipID: "r", FamilyMemberID: "m", Role: "sibling"}}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, Options{})
			tt.setup(f.rows)

			err := f.sync.Hydrate(context.Background())
			require.ErrorIs(t, err, ErrIntegrity)

			nodes, edges := f.store.Len()
			assert.Zero(t, nodes)
			assert.Zero(t, edges)
			assert.Len(t, f.notifier.ByLevel(ports.LevelError), 1)
		})
	}
}

func TestSynchronizer_Hydrate_Idempotent(t *testing.T) {
	f := newFixture(t, Options{})
	f.seedTree(t)
	ctx := context.Background()

	require.NoError(t, f.sync.Hydrate(ctx))
	first := f.store.Snapshot()

	require.NoError(t, f.sync.Hydrate(ctx))
	second := f.store.Snapshot()

	assert.Greater(t, second.Version, first.Version)
	if diff := cmp.Diff(first, second, cmpopts.IgnoreFields(graph.Snapshot{}, "Version")); diff != "" {
		t.Errorf("second hydration changed the graph (-first +second):\n%s", diff)
	}
}

func TestSynchronizer_Hydrate_FailureKeepsPreviousGraph(t *testing.T) {
	f := newFixture(t, Options{})
	f.hydrate(t)
	before := f.store.Snapshot()

	f.rows.Errs[mocks.OpListMemberships] = errors.New("timeout")
	require.Error(t, f.sync.Hydrate(context.Background()))

	assert.Equal(t, before, f.store.Snapshot())
}

package services

import (
	"context"
	"errors"
	"testing"

	"github.com/ersonp/famtree-core/internal/domain/entities"
	"github.com/ersonp/famtree-core/internal/domain/graph"
	"github.com/ersonp/famtree-core/internal/domain/mocks"
	"github.com/ersonp/famtree-core/internal/domain/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSynchronizer_Connect_Roles(t *testing.T) {
	tests := []struct {
		name           string
		familyIsSource bool
		expectedRole   entities.Role
	}{
		{name: "gesture from family member makes a parent", familyIsSource: true, expectedRole: entities.RoleParent},
		{name: "gesture from relationship makes a child", familyIsSource: false, expectedRole: entities.RoleChild},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, Options{})
			f.hydrate(t)
			ctx := context.Background()

			member, err := f.sync.CreateFamilyMember(ctx)
			require.NoError(t, err)
			rel, err := f.sync.CreateRelationship(ctx)
			require.NoError(t, err)
			_, edgesBefore := f.store.Len()
			linksBefore := len(f.rows.Memberships)

			conn := graph.Connection{Source: rel.ID, Target: member.ID}
			if tt.familyIsSource {
				conn = graph.Connection{Source: member.ID, Target: rel.ID}
			}

			edge, err := f.sync.Connect(ctx, conn)
			require.NoError(t, err)

			require.Len(t, f.rows.Memberships, linksBefore+1, "exactly one row created")
			row := f.rows.Memberships[len(f.rows.Memberships)-1]
			assert.Equal(t, member.ID, row.FamilyMemberID)
			assert.Equal(t, rel.ID, row.RelationshipID)
			assert.Equal(t, tt.expectedRole, row.Role)

			_, edgesAfter := f.store.Len()
			assert.Equal(t, edgesBefore+1, edgesAfter, "exactly one edge added")
			assert.Equal(t, row.ID, edge.ID)
			assert.Equal(t, conn.Source, edge.Source)
			assert.Equal(t, conn.Target, edge.Target)
			assert.Equal(t, tt.expectedRole, edge.Role)
		})
	}
}

func TestSynchronizer_Connect_SameKind(t *testing.T) {
	f := newFixture(t, Options{})
	parent, child, rel := f.hydrate(t)
	ctx := context.Background()
	other, err := f.sync.CreateRelationship(ctx)
	require.NoError(t, err)
	f.rows.Calls = make(map[string]int)
	_, edgesBefore := f.store.Len()

	pairs := []graph.Connection{
		{Source: parent, Target: child},
		{Source: rel, Target: other.ID},
	}
	for _, conn := range pairs {
		_, err := f.sync.Connect(ctx, conn)
		require.ErrorIs(t, err, ErrSameKind)
	}

	assert.Zero(t, f.rows.TotalCalls(), "no network call")
	_, edgesAfter := f.store.Len()
	assert.Equal(t, edgesBefore, edgesAfter)
	assert.Len(t, f.notifier.ByLevel(ports.LevelError), 2)
}

func TestSynchronizer_Connect_UnknownNode(t *testing.T) {
	f := newFixture(t, Options{})
	parent, _, _ := f.hydrate(t)

	_, err := f.sync.Connect(context.Background(), graph.Connection{Source: parent, Target: "missing"})
	require.ErrorIs(t, err, graph.ErrNodeNotFound)
	assert.Zero(t, f.rows.TotalCalls())
}

func TestSynchronizer_Connect_InsertFails(t *testing.T) {
	f := newFixture(t, Options{})
	parent, _, rel := f.hydrate(t)
	f.rows.Errs[mocks.OpInsertMembership] = errors.New("fk violation")
	_, edgesBefore := f.store.Len()

	_, err := f.sync.Connect(context.Background(), graph.Connection{Source: parent, Target: rel})
	require.Error(t, err)

	_, edgesAfter := f.store.Len()
	assert.Equal(t, edgesBefore, edgesAfter, "edge only appended after success")
	assert.Len(t, f.notifier.ByLevel(ports.LevelError), 1)
}

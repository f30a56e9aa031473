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

func TestSynchronizer_CreateFamilyMember(t *testing.T) {
	f := newFixture(t, Options{})
	require.NoError(t, f.sync.Hydrate(context.Background()))

	node, err := f.sync.CreateFamilyMember(context.Background())
	require.NoError(t, err)

	assert.Equal(t, graph.KindFamily, node.Kind)
	require.NotNil(t, node.Family)
	assert.Equal(t, "New Member", node.Family.Name)
	assert.NotEmpty(t, node.ID, "id comes from the row store")
	assert.GreaterOrEqual(t, node.Position.X, 0.0)
	assert.Less(t, node.Position.X, 500.0)
	assert.GreaterOrEqual(t, node.Position.Y, 0.0)
	assert.Less(t, node.Position.Y, 500.0)

	stored, ok := f.store.Node(node.ID)
	require.True(t, ok)
	assert.Equal(t, node, stored)

	assert.Equal(t, []string{node.ID}, f.dialogs.MemberDialogs)
	assert.Len(t, f.notifier.ByLevel(ports.LevelSuccess), 1)
}

func TestSynchronizer_CreateFamilyMember_UsesSpreadAndRandom(t *testing.T) {
	values := []float64{0.25, 0.75}
	i := 0
	f := newFixture(t, Options{
		Spread: 200,
		Random: func() float64 {
			v := values[i%len(values)]
			i++
			return v
		},
	})

	node, err := f.sync.CreateFamilyMember(context.Background())
	require.NoError(t, err)
	assert.Equal(t, entities.Position{X: 50, Y: 150}, node.Position)
}

func TestSynchronizer_CreateFamilyMember_InsertFails(t *testing.T) {
	f := newFixture(t, Options{})
	f.rows.Errs[mocks.OpInsertFamilyMember] = errors.New("permission denied")

	_, err := f.sync.CreateFamilyMember(context.Background())
	require.Error(t, err)

	nodes, _ := f.store.Len()
	assert.Zero(t, nodes)
	assert.Empty(t, f.dialogs.MemberDialogs)

	errs := f.notifier.ByLevel(ports.LevelError)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Title, "add family member")
}

func TestSynchronizer_CreateRelationship(t *testing.T) {
	f := newFixture(t, Options{})
	f.hydrate(t)

	node, err := f.sync.CreateRelationship(context.Background())
	require.NoError(t, err)

	require.NotNil(t, node.Relationship)
	assert.Equal(t, graph.KindRelationship, node.Kind)
	assert.Equal(t, "Marriage", node.Relationship.Type.Name, "defaults to the first type")
	assert.Equal(t, node.Relationship.Type.ID, node.Relationship.Relationship.TypeID)

	_, ok := f.store.Node(node.ID)
	assert.True(t, ok)
	assert.Equal(t, []string{node.ID}, f.dialogs.RelationshipDialogs)
}

func TestSynchronizer_CreateRelationship_NoTypes(t *testing.T) {
	f := newFixture(t, Options{})
	require.NoError(t, f.sync.Hydrate(context.Background()))
	f.rows.Calls = make(map[string]int)

	_, err := f.sync.CreateRelationship(context.Background())
	require.ErrorIs(t, err, ErrNoRelationshipTypes)

	assert.Zero(t, f.rows.CallCount(mocks.OpInsertRelationship), "no row insert")
	nodes, _ := f.store.Len()
	assert.Zero(t, nodes)
	assert.Empty(t, f.dialogs.RelationshipDialogs)

	errs := f.notifier.ByLevel(ports.LevelError)
	require.Len(t, errs, 1)
	assert.Equal(t, "no relationship types available", errs[0].Message)
}

func TestSynchronizer_CreateRelationship_InsertFails(t *testing.T) {
	f := newFixture(t, Options{})
	f.hydrate(t)
	nodesBefore, _ := f.store.Len()
	f.rows.Errs[mocks.OpInsertRelationship] = errors.New("boom")

	_, err := f.sync.CreateRelationship(context.Background())
	require.Error(t, err)

	nodesAfter, _ := f.store.Len()
	assert.Equal(t, nodesBefore, nodesAfter)
	assert.Empty(t, f.dialogs.RelationshipDialogs)
	assert.Len(t, f.notifier.ByLevel(ports.LevelError), 1)
}

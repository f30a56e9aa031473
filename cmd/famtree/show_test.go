package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ersonp/famtree-core/internal/application/handlers"
	"github.com/ersonp/famtree-core/internal/domain/entities"
	"github.com/ersonp/famtree-core/internal/domain/graph"
	"github.com/ersonp/famtree-core/internal/domain/render"
)

func nodeView(n graph.Node) handlers.NodeView {
	return handlers.NodeView{Node: n, Visual: render.Node(n)}
}

func sampleView() *handlers.TreeView {
	marriage := entities.RelationshipType{ID: "type-1", Name: "Marriage", Color: "#e11d48"}
	ada := graph.Node{
		ID:       "member-1",
		Kind:     graph.KindFamily,
		Position: entities.Position{X: 10, Y: 20},
		Family:   &entities.FamilyMember{ID: "member-1", Name: "Ada Lovelace", BirthDate: "1815-12-10", Gender: entities.GenderFemale},
	}
	william := graph.Node{
		ID:     "member-2",
		Kind:   graph.KindFamily,
		Family: &entities.FamilyMember{ID: "member-2", Name: "William King", Gender: entities.GenderMale},
	}
	rel := graph.Node{
		ID:   "rel-1",
		Kind: graph.KindRelationship,
		Relationship: &graph.RelationshipData{
			Relationship: entities.Relationship{ID: "rel-1", TypeID: "type-1"},
			Type:         marriage,
		},
	}

	return &handlers.TreeView{
		Nodes: []handlers.NodeView{nodeView(ada), nodeView(william), nodeView(rel)},
		Edges: []graph.Edge{
			{ID: "link-1", Source: "member-1", Target: "rel-1", Role: entities.RoleParent},
			{ID: "link-2", Source: "member-2", Target: "rel-1", Role: entities.RoleParent},
		},
		Types: []entities.RelationshipType{marriage},
	}
}

func TestFormatTree(t *testing.T) {
	var buf bytes.Buffer
	err := formatTree(&buf, sampleView())
	require.NoError(t, err)

	result := buf.String()
	assert.Contains(t, result, "Family members (2):")
	assert.Contains(t, result, "Ada Lovelace")
	assert.Contains(t, result, "1815-12-10")
	assert.Contains(t, result, "(10, 20)")
	assert.Contains(t, result, "Relationships (1):")
	assert.Contains(t, result, "rel-1  Marriage")
	assert.Contains(t, result, "parent: Ada Lovelace")
	assert.Contains(t, result, "parent: William King")
}

func TestFormatTree_Empty(t *testing.T) {
	var buf bytes.Buffer
	err := formatTree(&buf, &handlers.TreeView{})
	require.NoError(t, err)
	assert.Equal(t, "The family tree is empty.\n", buf.String())
}

func TestRelationshipMembers(t *testing.T) {
	view := sampleView()
	view.Edges = append(view.Edges, graph.Edge{ID: "link-3", Source: "rel-1", Target: "unknown", Role: entities.RoleChild})

	lines := relationshipMembers(view, "rel-1")
	assert.Equal(t, []string{
		"parent: Ada Lovelace",
		"parent: William King",
		"child: unknown",
	}, lines)

	assert.Empty(t, relationshipMembers(view, "rel-2"))
}

func TestOrDash(t *testing.T) {
	assert.Equal(t, "-", orDash(""))
	assert.Equal(t, "-", orDash("   "))
	assert.Equal(t, "1815", orDash("1815"))
}

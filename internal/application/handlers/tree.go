package handlers

import (
	"context"
	"fmt"

	"github.com/ersonp/famtree-core/internal/domain/entities"
	"github.com/ersonp/famtree-core/internal/domain/graph"
	"github.com/ersonp/famtree-core/internal/domain/render"
	"github.com/ersonp/famtree-core/internal/domain/services"
)

// TreeHandler handles family tree operations at the application layer.
type TreeHandler struct {
	synchronizer *services.Synchronizer
}

// NewTreeHandler creates a new TreeHandler.
func NewTreeHandler(synchronizer *services.Synchronizer) *TreeHandler {
	return &TreeHandler{synchronizer: synchronizer}
}

// NodeView is a node together with how the canvas draws it.
type NodeView struct {
	graph.Node
	Visual render.Visual `json:"visual"`
}

// TreeView is the renderable state of the whole tree.
// Version is the graph store version the view was taken at.
type TreeView struct {
	Version uint64                      `json:"version"`
	Nodes   []NodeView                  `json:"nodes"`
	Edges   []graph.Edge                `json:"edges"`
	Types   []entities.RelationshipType `json:"relationship_types"`
}

// Counts returns the number of family members and relationships in the view.
func (v *TreeView) Counts() (members, relationships int) {
	for _, n := range v.Nodes {
		switch n.Kind {
		case graph.KindFamily:
			members++
		case graph.KindRelationship:
			relationships++
		}
	}
	return members, relationships
}

// Node returns the view of the node with the given id.
func (v *TreeView) Node(id string) (NodeView, bool) {
	for _, n := range v.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return NodeView{}, false
}

func newNodeView(n graph.Node) NodeView {
	return NodeView{Node: n, Visual: render.Node(n)}
}

func (h *TreeHandler) viewOf(snap graph.Snapshot) *TreeView {
	view := &TreeView{
		Version: snap.Version,
		Nodes:   make([]NodeView, 0, len(snap.Nodes)),
		Edges:   snap.Edges,
		Types:   h.synchronizer.RelationshipTypes(),
	}
	if view.Edges == nil {
		view.Edges = []graph.Edge{}
	}
	for _, n := range snap.Nodes {
		view.Nodes = append(view.Nodes, newNodeView(n))
	}
	return view
}

// HandleLoad hydrates the tree from the row store.
func (h *TreeHandler) HandleLoad(ctx context.Context) error {
	return h.synchronizer.Hydrate(ctx)
}

// HandleView returns the current tree.
func (h *TreeHandler) HandleView() *TreeView {
	return h.viewOf(h.synchronizer.Store().Snapshot())
}

// HandleTypes returns the loaded relationship types.
func (h *TreeHandler) HandleTypes() []entities.RelationshipType {
	return h.synchronizer.RelationshipTypes()
}

// HandleAddMember creates a family member at a random position.
func (h *TreeHandler) HandleAddMember(ctx context.Context) (*NodeView, error) {
	node, err := h.synchronizer.CreateFamilyMember(ctx)
	if err != nil {
		return nil, err
	}
	view := newNodeView(node)
	return &view, nil
}

// HandleAddRelationship creates a relationship of the first loaded type.
func (h *TreeHandler) HandleAddRelationship(ctx context.Context) (*NodeView, error) {
	node, err := h.synchronizer.CreateRelationship(ctx)
	if err != nil {
		return nil, err
	}
	view := newNodeView(node)
	return &view, nil
}

// HandleEditMember applies a member dialog result.
func (h *TreeHandler) HandleEditMember(ctx context.Context, id string, u entities.FamilyMemberUpdate) (*NodeView, error) {
	node, err := h.synchronizer.EditFamilyMember(ctx, id, u)
	if err != nil {
		return nil, err
	}
	view := newNodeView(node)
	return &view, nil
}

// HandleSetRelationshipType switches a relationship to another type.
func (h *TreeHandler) HandleSetRelationshipType(ctx context.Context, id, typeID string) (*NodeView, error) {
	node, err := h.synchronizer.EditRelationshipType(ctx, id, typeID)
	if err != nil {
		return nil, err
	}
	view := newNodeView(node)
	return &view, nil
}

// HandleConnect links a family member and a relationship.
func (h *TreeHandler) HandleConnect(ctx context.Context, source, target string) (graph.Edge, error) {
	return h.synchronizer.Connect(ctx, graph.Connection{Source: source, Target: target})
}

// HandleMove replays a drag of the node to pos: one frame while dragging,
// then the release that persists the resting position.
func (h *TreeHandler) HandleMove(ctx context.Context, id string, pos entities.Position) error {
	if _, ok := h.synchronizer.Store().Node(id); !ok {
		return fmt.Errorf("%s: %w", id, graph.ErrNodeNotFound)
	}

	dragging, released := true, false
	return h.synchronizer.HandleNodeChanges(ctx, []graph.NodeChange{
		{Type: graph.ChangePosition, ID: id, Position: &pos, Dragging: &dragging},
		{Type: graph.ChangePosition, ID: id, Position: &pos, Dragging: &released},
	})
}

// Package graph holds the in-memory node and edge state rendered by the canvas.
package graph

import "github.com/ersonp/famtree-core/internal/domain/entities"

// NodeKind discriminates the two node types on the canvas.
type NodeKind string

const (
	KindFamily       NodeKind = "family"
	KindRelationship NodeKind = "relationship"
)

// RelationshipData is the payload of a relationship node: the row plus its resolved type.
type RelationshipData struct {
	Relationship entities.Relationship     `json:"relationship"`
	Type         entities.RelationshipType `json:"relation_type"`
}

// Node is a family member or relationship placed on the canvas.
// Exactly one of Family and Relationship is set, matching Kind.
type Node struct {
	ID           string                 `json:"id"`
	Kind         NodeKind               `json:"type"`
	Position     entities.Position      `json:"position"`
	Dragging     bool                   `json:"dragging,omitempty"`
	Selected     bool                   `json:"selected,omitempty"`
	Family       *entities.FamilyMember `json:"family,omitempty"`
	Relationship *RelationshipData      `json:"relationship,omitempty"`
}

// Clone returns a deep copy of n.
func (n Node) Clone() Node {
	c := n
	if n.Family != nil {
		f := *n.Family
		c.Family = &f
	}
	if n.Relationship != nil {
		r := *n.Relationship
		c.Relationship = &r
	}
	return c
}

// Edge is a family member's link into a relationship node.
type Edge struct {
	ID       string        `json:"id"`
	Source   string        `json:"source"`
	Target   string        `json:"target"`
	Role     entities.Role `json:"role"`
	Selected bool          `json:"selected,omitempty"`
}

// NodePatch is an in-place field merge for a node. Nil fields are left untouched.
type NodePatch struct {
	Position         *entities.Position
	Dragging         *bool
	Selected         *bool
	Family           *entities.FamilyMemberUpdate
	RelationshipType *entities.RelationshipType
}

// EdgePatch is an in-place field merge for an edge.
type EdgePatch struct {
	Selected *bool
}

// Snapshot is a point-in-time copy of the store contents.
// Version increases with every change to the store.
type Snapshot struct {
	Version uint64 `json:"version"`
	Nodes   []Node `json:"nodes"`
	Edges   []Edge `json:"edges"`
}

// Observer is called with a fresh snapshot after every store change.
type Observer func(Snapshot)

package graph

import "github.com/ersonp/famtree-core/internal/domain/entities"

// ChangeType is the kind of delta the canvas reports for a node or edge.
type ChangeType string

const (
	ChangePosition   ChangeType = "position"
	ChangeSelect     ChangeType = "select"
	ChangeDimensions ChangeType = "dimensions"
	ChangeRemove     ChangeType = "remove"
)

// NodeChange is a geometry or selection delta for one node.
// Position changes arrive once per drag frame; Dragging flips to false on release.
type NodeChange struct {
	Type     ChangeType         `json:"type"`
	ID       string             `json:"id"`
	Position *entities.Position `json:"position,omitempty"`
	Dragging *bool              `json:"dragging,omitempty"`
	Selected *bool              `json:"selected,omitempty"`
}

// EdgeChange is a selection delta for one edge.
type EdgeChange struct {
	Type     ChangeType `json:"type"`
	ID       string     `json:"id"`
	Selected *bool      `json:"selected,omitempty"`
}

// Connection is a proposed link from a connect gesture.
type Connection struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

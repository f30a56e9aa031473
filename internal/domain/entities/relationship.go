package entities

import "time"

// RelationshipType is read-only reference data describing a kind of relationship.
type RelationshipType struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Color     string    `json:"color"`
	CreatedAt time.Time `json:"created_at"`
}

// Relationship is a relationship instance (a specific marriage, a specific parentage).
// It is itself a node on the canvas that family members connect into.
type Relationship struct {
	ID        string    `json:"id"`
	TypeID    string    `json:"type_id"`
	Position  Position  `json:"position"`
	CreatedAt time.Time `json:"created_at"`
}

// RelationshipWithType is a relationship row joined with its type.
// Type is nil when the referenced type row does not exist.
type RelationshipWithType struct {
	Relationship
	Type *RelationshipType `json:"type,omitempty"`
}

// NewRelationship holds the fields sent when inserting a relationship.
type NewRelationship struct {
	TypeID   string
	Position Position
}

// RelationshipUpdate is a partial update of a relationship row.
type RelationshipUpdate struct {
	TypeID   *string   `json:"type_id,omitempty"`
	Position *Position `json:"position,omitempty"`
}

// IsEmpty reports whether the update changes nothing.
func (u RelationshipUpdate) IsEmpty() bool {
	return u.TypeID == nil && u.Position == nil
}

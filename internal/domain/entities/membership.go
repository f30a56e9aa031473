package entities

import "time"

// Role is the part a family member plays in a relationship.
type Role string

const (
	RoleParent Role = "parent"
	RoleChild  Role = "child"
)

// IsValid reports whether r is a known role.
func (r Role) IsValid() bool {
	return r == RoleParent || r == RoleChild
}

// FamilyRelationshipMember links a family member into a relationship with a role.
type FamilyRelationshipMember struct {
	ID             string    `json:"id"`
	RelationshipID string    `json:"relationship_id"`
	FamilyMemberID string    `json:"family_member_id"`
	Role           Role      `json:"role"`
	CreatedAt      time.Time `json:"created_at"`
}

// NewMembership holds the fields sent when inserting a membership link.
type NewMembership struct {
	RelationshipID string
	FamilyMemberID string
	Role           Role
}

// Package ports defines interfaces for external service communication.
package ports

import (
	"context"
	"errors"

	"github.com/ersonp/famtree-core/internal/domain/entities"
)

// ErrRowNotFound is returned by updates that match no row.
var ErrRowNotFound = errors.New("row not found")

// RowStore is the narrow CRUD surface of the hosted relational backend.
// Identifiers and timestamps are assigned by the store.
type RowStore interface {
	// ListRelationshipTypes returns every relationship type.
	ListRelationshipTypes(ctx context.Context) ([]entities.RelationshipType, error)

	// ListFamilyMembers returns every family member.
	ListFamilyMembers(ctx context.Context) ([]entities.FamilyMember, error)

	// ListRelationships returns every relationship joined with its type.
	ListRelationships(ctx context.Context) ([]entities.RelationshipWithType, error)

	// ListMemberships returns every family relationship member link.
	ListMemberships(ctx context.Context) ([]entities.FamilyRelationshipMember, error)

	// InsertFamilyMember inserts a family member and returns the stored row.
	InsertFamilyMember(ctx context.Context, m entities.NewFamilyMember) (*entities.FamilyMember, error)

	// UpdateFamilyMember updates the given fields of a family member.
	UpdateFamilyMember(ctx context.Context, id string, u entities.FamilyMemberUpdate) error

	// InsertRelationship inserts a relationship and returns the stored row.
	InsertRelationship(ctx context.Context, r entities.NewRelationship) (*entities.Relationship, error)

	// UpdateRelationship updates the given fields of a relationship.
	UpdateRelationship(ctx context.Context, id string, u entities.RelationshipUpdate) error

	// InsertMembership inserts a family relationship member link and returns the stored row.
	InsertMembership(ctx context.Context, m entities.NewMembership) (*entities.FamilyRelationshipMember, error)
}

// SchemaManager handles schema lifecycle and reference data.
// This is separate from RowStore because the editor itself never creates tables;
// only the CLI bootstrap does.
type SchemaManager interface {
	// EnsureSchema creates the collections if they don't exist.
	EnsureSchema(ctx context.Context) error

	// SeedRelationshipTypes inserts the given types when none exist.
	// It returns the number of rows inserted.
	SeedRelationshipTypes(ctx context.Context, types []entities.RelationshipType) (int, error)

	// Close releases the underlying connection.
	Close() error
}

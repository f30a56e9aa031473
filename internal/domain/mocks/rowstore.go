// Package mocks provides mock implementations for testing.
package mocks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ersonp/famtree-core/internal/domain/entities"
	"github.com/ersonp/famtree-core/internal/domain/ports"
)

// Operation names used for call tracking.
const (
	OpListRelationshipTypes = "ListRelationshipTypes"
	OpListFamilyMembers     = "ListFamilyMembers"
	OpListRelationships     = "ListRelationships"
	OpListMemberships       = "ListMemberships"
	OpInsertFamilyMember    = "InsertFamilyMember"
	OpUpdateFamilyMember    = "UpdateFamilyMember"
	OpInsertRelationship    = "InsertRelationship"
	OpUpdateRelationship    = "UpdateRelationship"
	OpInsertMembership      = "InsertMembership"
	OpEnsureSchema          = "EnsureSchema"
	OpSeedRelationshipTypes = "SeedRelationshipTypes"
)

// MemberUpdateCall records one UpdateFamilyMember call.
type MemberUpdateCall struct {
	ID     string
	Update entities.FamilyMemberUpdate
}

// RelationshipUpdateCall records one UpdateRelationship call.
type RelationshipUpdateCall struct {
	ID     string
	Update entities.RelationshipUpdate
}

// RowStore is an in-memory mock implementation of ports.RowStore.
type RowStore struct {
	mu sync.Mutex

	Types         []entities.RelationshipType
	Members       []entities.FamilyMember
	Relationships []entities.Relationship
	Memberships   []entities.FamilyRelationshipMember

	// Errors returned by the matching operation when set.
	Errs map[string]error

	// BeforeUpdate runs before an update is applied. A non-nil error fails the update.
	BeforeUpdate func(ctx context.Context, id string) error

	// Call tracking
	Calls               map[string]int
	MemberUpdates       []MemberUpdateCall
	RelationshipUpdates []RelationshipUpdateCall

	Closed bool

	nextID int
}

// NewRowStore creates a new empty mock RowStore.
func NewRowStore() *RowStore {
	return &RowStore{
		Errs:  make(map[string]error),
		Calls: make(map[string]int),
	}
}

// CallCount returns how many times op was called.
func (m *RowStore) CallCount(op string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Calls[op]
}

// TotalCalls returns the number of calls across all operations.
func (m *RowStore) TotalCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	total := 0
	for _, n := range m.Calls {
		total += n
	}
	return total
}

// MemberUpdateCalls returns a copy of the recorded member updates.
func (m *RowStore) MemberUpdateCalls() []MemberUpdateCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]MemberUpdateCall(nil), m.MemberUpdates...)
}

// AddType seeds a relationship type and returns it.
func (m *RowStore) AddType(name, color string) entities.RelationshipType {
	m.mu.Lock()
	defer m.mu.Unlock()
	rt := entities.RelationshipType{ID: m.newID("type"), Name: name, Color: color, CreatedAt: now()}
	m.Types = append(m.Types, rt)
	return rt
}

func (m *RowStore) begin(op string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls[op]++
	return m.Errs[op]
}

func (m *RowStore) newID(prefix string) string {
	m.nextID++
	return fmt.Sprintf("%s-%d", prefix, m.nextID)
}

// ListRelationshipTypes returns every relationship type.
func (m *RowStore) ListRelationshipTypes(_ context.Context) ([]entities.RelationshipType, error) {
	if err := m.begin(OpListRelationshipTypes); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]entities.RelationshipType{}, m.Types...), nil
}

// ListFamilyMembers returns every family member.
func (m *RowStore) ListFamilyMembers(_ context.Context) ([]entities.FamilyMember, error) {
	if err := m.begin(OpListFamilyMembers); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]entities.FamilyMember{}, m.Members...), nil
}

// ListRelationships returns every relationship joined with its type.
func (m *RowStore) ListRelationships(_ context.Context) ([]entities.RelationshipWithType, error) {
	if err := m.begin(OpListRelationships); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]entities.RelationshipWithType, 0, len(m.Relationships))
	for _, r := range m.Relationships {
		joined := entities.RelationshipWithType{Relationship: r}
		for i := range m.Types {
			if m.Types[i].ID == r.TypeID {
				rt := m.Types[i]
				joined.Type = &rt
				break
			}
		}
		result = append(result, joined)
	}
	return result, nil
}

// ListMemberships returns every membership link.
func (m *RowStore) ListMemberships(_ context.Context) ([]entities.FamilyRelationshipMember, error) {
	if err := m.begin(OpListMemberships); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]entities.FamilyRelationshipMember{}, m.Memberships...), nil
}

// InsertFamilyMember inserts a family member.
func (m *RowStore) InsertFamilyMember(_ context.Context, nm entities.NewFamilyMember) (*entities.FamilyMember, error) {
	if err := m.begin(OpInsertFamilyMember); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	ts := now()
	row := entities.FamilyMember{
		ID:        m.newID("member"),
		Name:      nm.Name,
		Gender:    entities.GenderOther,
		Position:  nm.Position,
		CreatedAt: ts,
		UpdatedAt: ts,
	}
	m.Members = append(m.Members, row)
	return &row, nil
}

// UpdateFamilyMember updates a family member.
func (m *RowStore) UpdateFamilyMember(ctx context.Context, id string, u entities.FamilyMemberUpdate) error {
	if err := m.begin(OpUpdateFamilyMember); err != nil {
		return err
	}
	if m.BeforeUpdate != nil {
		if err := m.BeforeUpdate(ctx, id); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.MemberUpdates = append(m.MemberUpdates, MemberUpdateCall{ID: id, Update: u})
	for i := range m.Members {
		if m.Members[i].ID == id {
			u.Apply(&m.Members[i])
			m.Members[i].UpdatedAt = now()
			return nil
		}
	}
	return fmt.Errorf("family member %s: %w", id, ports.ErrRowNotFound)
}

// InsertRelationship inserts a relationship.
func (m *RowStore) InsertRelationship(_ context.Context, nr entities.NewRelationship) (*entities.Relationship, error) {
	if err := m.begin(OpInsertRelationship); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	row := entities.Relationship{
		ID:        m.newID("rel"),
		TypeID:    nr.TypeID,
		Position:  nr.Position,
		CreatedAt: now(),
	}
	m.Relationships = append(m.Relationships, row)
	return &row, nil
}

// UpdateRelationship updates a relationship.
func (m *RowStore) UpdateRelationship(ctx context.Context, id string, u entities.RelationshipUpdate) error {
	if err := m.begin(OpUpdateRelationship); err != nil {
		return err
	}
	if m.BeforeUpdate != nil {
		if err := m.BeforeUpdate(ctx, id); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RelationshipUpdates = append(m.RelationshipUpdates, RelationshipUpdateCall{ID: id, Update: u})
	for i := range m.Relationships {
		if m.Relationships[i].ID == id {
			if u.TypeID != nil {
				m.Relationships[i].TypeID = *u.TypeID
			}
			if u.Position != nil {
				m.Relationships[i].Position = *u.Position
			}
			return nil
		}
	}
	return fmt.Errorf("relationship %s: %w", id, ports.ErrRowNotFound)
}

// InsertMembership inserts a membership link.
func (m *RowStore) InsertMembership(_ context.Context, nm entities.NewMembership) (*entities.FamilyRelationshipMember, error) {
	if err := m.begin(OpInsertMembership); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	row := entities.FamilyRelationshipMember{
		ID:             m.newID("link"),
		RelationshipID: nm.RelationshipID,
		FamilyMemberID: nm.FamilyMemberID,
		Role:           nm.Role,
		CreatedAt:      now(),
	}
	m.Memberships = append(m.Memberships, row)
	return &row, nil
}

// now is fixed so that repeated hydrations compare equal.
// EnsureSchema records the call.
func (m *RowStore) EnsureSchema(_ context.Context) error {
	return m.begin(OpEnsureSchema)
}

// SeedRelationshipTypes adds types when none exist.
func (m *RowStore) SeedRelationshipTypes(_ context.Context, types []entities.RelationshipType) (int, error) {
	if err := m.begin(OpSeedRelationshipTypes); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Types) > 0 {
		return 0, nil
	}
	for _, t := range types {
		m.Types = append(m.Types, entities.RelationshipType{ID: m.newID("type"), Name: t.Name, Color: t.Color, CreatedAt: now()})
	}
	return len(types), nil
}

// Close marks the store closed.
func (m *RowStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Closed = true
	return nil
}

func now() time.Time {
	return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
}

var (
	_ ports.RowStore      = (*RowStore)(nil)
	_ ports.SchemaManager = (*RowStore)(nil)
)

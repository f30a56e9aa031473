package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ersonp/famtree-core/internal/domain/entities"
	"github.com/ersonp/famtree-core/internal/domain/ports"
	"github.com/ersonp/famtree-core/internal/infrastructure/config"
)

// setupTestRepo creates an in-memory SQLite repository for testing.
func setupTestRepo(t *testing.T) *Repository {
	t.Helper()
	repo, err := NewRepository(config.SQLiteConfig{Path: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	err = repo.EnsureSchema(context.Background())
	require.NoError(t, err)

	return repo
}

// stepClock makes timeNow advance one second per call.
func stepClock(t *testing.T) {
	t.Helper()
	orig := timeNow
	current := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	timeNow = func() time.Time {
		current = current.Add(time.Second)
		return current
	}
	t.Cleanup(func() { timeNow = orig })
}

func seedTypes(t *testing.T, repo *Repository) []entities.RelationshipType {
	t.Helper()
	ctx := context.Background()
	_, err := repo.SeedRelationshipTypes(ctx, entities.DefaultRelationshipTypes)
	require.NoError(t, err)
	types, err := repo.ListRelationshipTypes(ctx)
	require.NoError(t, err)
	return types
}

func TestNewRepository(t *testing.T) {
	t.Run("success with memory database", func(t *testing.T) {
		repo, err := NewRepository(config.SQLiteConfig{Path: ":memory:"})
		require.NoError(t, err)
		defer repo.Close()
		assert.NotNil(t, repo)
		assert.Equal(t, ":memory:", repo.Path())
	})

	t.Run("error with empty path", func(t *testing.T) {
		_, err := NewRepository(config.SQLiteConfig{Path: ""})
		require.Error(t, err)
	})
}

func TestRepository_EnsureSchema(t *testing.T) {
	repo := setupTestRepo(t)

	tables := []string{"relationship_types", "family_members", "relationships", "family_relationship_members"}
	for _, table := range tables {
		var count int
		err := repo.db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?`, table).Scan(&count)
		require.NoError(t, err)
		assert.Equal(t, 1, count, "table %s should exist", table)
	}
}

func TestRepository_EnsureSchema_Idempotent(t *testing.T) {
	repo := setupTestRepo(t)

	err := repo.EnsureSchema(context.Background())
	require.NoError(t, err)
}

func TestRepository_SeedRelationshipTypes(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	n, err := repo.SeedRelationshipTypes(ctx, entities.DefaultRelationshipTypes)
	require.NoError(t, err)
	assert.Equal(t, len(entities.DefaultRelationshipTypes), n)

	// Second seed is a no-op
	n, err = repo.SeedRelationshipTypes(ctx, entities.DefaultRelationshipTypes)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	types, err := repo.ListRelationshipTypes(ctx)
	require.NoError(t, err)
	require.Len(t, types, len(entities.DefaultRelationshipTypes))
	for i, typ := range types {
		assert.NotEmpty(t, typ.ID)
		assert.Equal(t, entities.DefaultRelationshipTypes[i].Name, typ.Name)
		assert.Equal(t, entities.DefaultRelationshipTypes[i].Color, typ.Color)
	}
}

func TestRepository_FamilyMembers(t *testing.T) {
	stepClock(t)
	repo := setupTestRepo(t)
	ctx := context.Background()

	first, err := repo.InsertFamilyMember(ctx, entities.NewFamilyMember{
		Name:     entities.DefaultMemberName,
		Position: entities.Position{X: 10, Y: 20},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, first.ID)
	assert.Equal(t, entities.GenderOther, first.Gender)

	second, err := repo.InsertFamilyMember(ctx, entities.NewFamilyMember{Name: "Ada"})
	require.NoError(t, err)

	t.Run("list in insertion order with null gender normalized", func(t *testing.T) {
		members, err := repo.ListFamilyMembers(ctx)
		require.NoError(t, err)
		require.Len(t, members, 2)
		assert.Equal(t, first.ID, members[0].ID)
		assert.Equal(t, second.ID, members[1].ID)
		assert.Equal(t, entities.GenderOther, members[0].Gender)
		assert.Equal(t, entities.Position{X: 10, Y: 20}, members[0].Position)
		assert.Empty(t, members[0].BirthDate)
	})

	t.Run("partial update", func(t *testing.T) {
		name := "Grace"
		birth := "1906-12-09"
		gender := entities.GenderFemale
		image := "https://example.com/grace.png"
		err := repo.UpdateFamilyMember(ctx, first.ID, entities.FamilyMemberUpdate{
			Name:      &name,
			BirthDate: &birth,
			Gender:    &gender,
			ImageURL:  &image,
		})
		require.NoError(t, err)

		members, err := repo.ListFamilyMembers(ctx)
		require.NoError(t, err)
		got := members[0]
		assert.Equal(t, "Grace", got.Name)
		assert.Equal(t, "1906-12-09", got.BirthDate)
		assert.Equal(t, entities.GenderFemale, got.Gender)
		assert.Equal(t, image, got.ImageURL)
		assert.Equal(t, entities.Position{X: 10, Y: 20}, got.Position)
		assert.True(t, got.UpdatedAt.After(got.CreatedAt))
	})

	t.Run("empty strings clear nullable fields", func(t *testing.T) {
		empty := ""
		err := repo.UpdateFamilyMember(ctx, first.ID, entities.FamilyMemberUpdate{BirthDate: &empty, ImageURL: &empty})
		require.NoError(t, err)

		var birth, image *string
		err = repo.db.QueryRow(`SELECT birth_date, image_url FROM family_members WHERE id = ?`, first.ID).Scan(&birth, &image)
		require.NoError(t, err)
		assert.Nil(t, birth)
		assert.Nil(t, image)
	})

	t.Run("position update", func(t *testing.T) {
		err := repo.UpdateFamilyMember(ctx, second.ID, entities.FamilyMemberUpdate{
			Position: &entities.Position{X: -5.5, Y: 7.25},
		})
		require.NoError(t, err)

		members, err := repo.ListFamilyMembers(ctx)
		require.NoError(t, err)
		assert.Equal(t, entities.Position{X: -5.5, Y: 7.25}, members[1].Position)
	})

	t.Run("unknown stored gender reads as other", func(t *testing.T) {
		_, err := repo.db.Exec(`UPDATE family_members SET gender = 'Unknown' WHERE id = ?`, second.ID)
		require.NoError(t, err)

		members, err := repo.ListFamilyMembers(ctx)
		require.NoError(t, err)
		assert.Equal(t, entities.GenderOther, members[1].Gender)
	})

	t.Run("update missing row", func(t *testing.T) {
		name := "Nobody"
		err := repo.UpdateFamilyMember(ctx, "missing", entities.FamilyMemberUpdate{Name: &name})
		require.ErrorIs(t, err, ports.ErrRowNotFound)
	})

	t.Run("empty update is a no-op", func(t *testing.T) {
		require.NoError(t, repo.UpdateFamilyMember(ctx, "missing", entities.FamilyMemberUpdate{}))
	})
}

func TestRepository_Relationships(t *testing.T) {
	stepClock(t)
	repo := setupTestRepo(t)
	ctx := context.Background()
	types := seedTypes(t, repo)

	rel, err := repo.InsertRelationship(ctx, entities.NewRelationship{
		TypeID:   types[0].ID,
		Position: entities.Position{X: 100, Y: 200},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, rel.ID)

	t.Run("list joins type", func(t *testing.T) {
		rels, err := repo.ListRelationships(ctx)
		require.NoError(t, err)
		require.Len(t, rels, 1)
		assert.Equal(t, rel.ID, rels[0].ID)
		assert.Equal(t, entities.Position{X: 100, Y: 200}, rels[0].Position)
		require.NotNil(t, rels[0].Type)
		assert.Equal(t, "Marriage", rels[0].Type.Name)
	})

	t.Run("change type", func(t *testing.T) {
		typeID := types[2].ID
		require.NoError(t, repo.UpdateRelationship(ctx, rel.ID, entities.RelationshipUpdate{TypeID: &typeID}))

		rels, err := repo.ListRelationships(ctx)
		require.NoError(t, err)
		assert.Equal(t, typeID, rels[0].TypeID)
		assert.Equal(t, "Parentage", rels[0].Type.Name)
	})

	t.Run("unknown type violates foreign key", func(t *testing.T) {
		typeID := "no-such-type"
		err := repo.UpdateRelationship(ctx, rel.ID, entities.RelationshipUpdate{TypeID: &typeID})
		require.Error(t, err)

		_, err = repo.InsertRelationship(ctx, entities.NewRelationship{TypeID: typeID})
		require.Error(t, err)
	})

	t.Run("update missing row", func(t *testing.T) {
		err := repo.UpdateRelationship(ctx, "missing", entities.RelationshipUpdate{Position: &entities.Position{}})
		require.ErrorIs(t, err, ports.ErrRowNotFound)
	})
}

func TestRepository_Memberships(t *testing.T) {
	stepClock(t)
	repo := setupTestRepo(t)
	ctx := context.Background()
	types := seedTypes(t, repo)

	member, err := repo.InsertFamilyMember(ctx, entities.NewFamilyMember{Name: "Ada"})
	require.NoError(t, err)
	rel, err := repo.InsertRelationship(ctx, entities.NewRelationship{TypeID: types[0].ID})
	require.NoError(t, err)

	link, err := repo.InsertMembership(ctx, entities.NewMembership{
		RelationshipID: rel.ID,
		FamilyMemberID: member.ID,
		Role:           entities.RoleParent,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, link.ID)

	links, err := repo.ListMemberships(ctx)
	require.NoError(t, err)
	require.Len(t, links, 1)
	assert.Equal(t, link.ID, links[0].ID)
	assert.Equal(t, rel.ID, links[0].RelationshipID)
	assert.Equal(t, member.ID, links[0].FamilyMemberID)
	assert.Equal(t, entities.RoleParent, links[0].Role)

	t.Run("dangling reference rejected", func(t *testing.T) {
		_, err := repo.InsertMembership(ctx, entities.NewMembership{
			RelationshipID: "missing",
			FamilyMemberID: member.ID,
			Role:           entities.RoleChild,
		})
		require.Error(t, err)
	})
}

func TestRepository_EmptyLists(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	members, err := repo.ListFamilyMembers(ctx)
	require.NoError(t, err)
	assert.NotNil(t, members)
	assert.Empty(t, members)

	rels, err := repo.ListRelationships(ctx)
	require.NoError(t, err)
	assert.Empty(t, rels)

	links, err := repo.ListMemberships(ctx)
	require.NoError(t, err)
	assert.Empty(t, links)
}

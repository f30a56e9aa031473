// Package sqlite provides a SQLite implementation of the RowStore interface.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/ersonp/famtree-core/internal/domain/entities"
	"github.com/ersonp/famtree-core/internal/domain/ports"
	"github.com/ersonp/famtree-core/internal/infrastructure/config"
)

// generateUUID returns a new UUID string.
func generateUUID() string {
	return uuid.New().String()
}

// timeNow returns the current time (can be mocked in tests).
// UTC keeps stored timestamps comparable as text.
var timeNow = func() time.Time { return time.Now().UTC() }

// Repository implements ports.RowStore and ports.SchemaManager using SQLite.
type Repository struct {
	db   *sql.DB
	path string
}

// NewRepository creates a new SQLite repository.
func NewRepository(cfg config.SQLiteConfig) (*Repository, error) {
	if cfg.Path == "" {
		return nil, errors.New("sqlite path is required")
	}

	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite database: %w", err)
	}

	// PRAGMAs below are per connection, and each :memory: connection is its own database
	db.SetMaxOpenConns(1)

	// Enable foreign keys for referential integrity
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	// Set busy timeout to avoid "database is locked" errors
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	return &Repository{
		db:   db,
		path: cfg.Path,
	}, nil
}

// Close closes the database connection.
func (r *Repository) Close() error {
	return r.db.Close()
}

// Path returns the database file path.
func (r *Repository) Path() string {
	return r.path
}

// EnsureSchema creates the database schema if it doesn't exist.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	schema := `
	-- Reference data: kinds of relationship and their canvas colors
	CREATE TABLE IF NOT EXISTS relationship_types (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		color TEXT NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	-- People on the canvas
	CREATE TABLE IF NOT EXISTS family_members (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		birth_date TEXT,
		gender TEXT,
		image_url TEXT,
		position_x REAL,
		position_y REAL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	-- Relationship instances, each drawn as its own node
	CREATE TABLE IF NOT EXISTS relationships (
		id TEXT PRIMARY KEY,
		type_id TEXT NOT NULL REFERENCES relationship_types(id),
		position_x REAL NOT NULL DEFAULT 0,
		position_y REAL NOT NULL DEFAULT 0,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_relationships_type ON relationships(type_id);

	-- Members of a relationship with their role
	CREATE TABLE IF NOT EXISTS family_relationship_members (
		id TEXT PRIMARY KEY,
		relationship_id TEXT NOT NULL REFERENCES relationships(id),
		family_member_id TEXT NOT NULL REFERENCES family_members(id),
		role TEXT NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_memberships_relationship ON family_relationship_members(relationship_id);
	CREATE INDEX IF NOT EXISTS idx_memberships_member ON family_relationship_members(family_member_id);
	`

	_, err := r.db.ExecContext(ctx, schema)
	if err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}

// SeedRelationshipTypes inserts the given types when the table is empty.
func (r *Repository) SeedRelationshipTypes(ctx context.Context, types []entities.RelationshipType) (int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var count int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM relationship_types`).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting relationship types: %w", err)
	}
	if count > 0 {
		return 0, nil
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO relationship_types (id, name, color, created_at) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	now := timeNow()
	for _, t := range types {
		id := t.ID
		if id == "" {
			id = generateUUID()
		}
		if _, err := stmt.ExecContext(ctx, id, t.Name, t.Color, now); err != nil {
			return 0, fmt.Errorf("inserting relationship type %s: %w", t.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing transaction: %w", err)
	}
	return len(types), nil
}

// ListRelationshipTypes returns every relationship type in insertion order.
func (r *Repository) ListRelationshipTypes(ctx context.Context) ([]entities.RelationshipType, error) {
	query := `
		SELECT id, name, color, created_at
		FROM relationship_types
		ORDER BY created_at ASC, rowid ASC
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying relationship types: %w", err)
	}
	defer rows.Close()

	result := []entities.RelationshipType{}
	for rows.Next() {
		var t entities.RelationshipType
		var createdAt sql.NullTime
		if err := rows.Scan(&t.ID, &t.Name, &t.Color, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning relationship type: %w", err)
		}
		t.CreatedAt = createdAt.Time
		result = append(result, t)
	}
	return result, rows.Err()
}

// ListFamilyMembers returns every family member in insertion order.
func (r *Repository) ListFamilyMembers(ctx context.Context) ([]entities.FamilyMember, error) {
	query := `
		SELECT id, name, birth_date, gender, image_url, position_x, position_y, created_at, updated_at
		FROM family_members
		ORDER BY created_at ASC, rowid ASC
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying family members: %w", err)
	}
	defer rows.Close()

	result := []entities.FamilyMember{}
	for rows.Next() {
		m, err := scanFamilyMember(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, m)
	}
	return result, rows.Err()
}

// ListRelationships returns every relationship joined with its type.
func (r *Repository) ListRelationships(ctx context.Context) ([]entities.RelationshipWithType, error) {
	query := `
		SELECT r.id, r.type_id, r.position_x, r.position_y, r.created_at,
		       t.id, t.name, t.color, t.created_at
		FROM relationships r
		LEFT JOIN relationship_types t ON t.id = r.type_id
		ORDER BY r.created_at ASC, r.rowid ASC
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying relationships: %w", err)
	}
	defer rows.Close()

	result := []entities.RelationshipWithType{}
	for rows.Next() {
		var rel entities.RelationshipWithType
		var createdAt, typeCreatedAt sql.NullTime
		var typeID, typeName, typeColor sql.NullString
		if err := rows.Scan(
			&rel.ID,
			&rel.TypeID,
			&rel.Position.X,
			&rel.Position.Y,
			&createdAt,
			&typeID,
			&typeName,
			&typeColor,
			&typeCreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning relationship: %w", err)
		}
		rel.CreatedAt = createdAt.Time
		if typeID.Valid {
			rel.Type = &entities.RelationshipType{
				ID:        typeID.String,
				Name:      typeName.String,
				Color:     typeColor.String,
				CreatedAt: typeCreatedAt.Time,
			}
		}
		result = append(result, rel)
	}
	return result, rows.Err()
}

// ListMemberships returns every membership link in insertion order.
func (r *Repository) ListMemberships(ctx context.Context) ([]entities.FamilyRelationshipMember, error) {
	query := `
		SELECT id, relationship_id, family_member_id, role, created_at
		FROM family_relationship_members
		ORDER BY created_at ASC, rowid ASC
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying memberships: %w", err)
	}
	defer rows.Close()

	result := []entities.FamilyRelationshipMember{}
	for rows.Next() {
		var m entities.FamilyRelationshipMember
		var role string
		var createdAt sql.NullTime
		if err := rows.Scan(&m.ID, &m.RelationshipID, &m.FamilyMemberID, &role, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning membership: %w", err)
		}
		m.Role = entities.Role(role)
		m.CreatedAt = createdAt.Time
		result = append(result, m)
	}
	return result, rows.Err()
}

// InsertFamilyMember inserts a family member with a generated ID.
func (r *Repository) InsertFamilyMember(ctx context.Context, nm entities.NewFamilyMember) (*entities.FamilyMember, error) {
	now := timeNow()
	m := &entities.FamilyMember{
		ID:        generateUUID(),
		Name:      nm.Name,
		Gender:    entities.GenderOther,
		Position:  nm.Position,
		CreatedAt: now,
		UpdatedAt: now,
	}

	query := `
		INSERT INTO family_members (id, name, position_x, position_y, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query, m.ID, m.Name, m.Position.X, m.Position.Y, now, now)
	if err != nil {
		return nil, fmt.Errorf("inserting family member: %w", err)
	}
	return m, nil
}

// UpdateFamilyMember updates the non-nil fields of u.
func (r *Repository) UpdateFamilyMember(ctx context.Context, id string, u entities.FamilyMemberUpdate) error {
	var sets []string
	var args []any

	if u.Name != nil {
		sets = append(sets, "name = ?")
		args = append(args, *u.Name)
	}
	if u.BirthDate != nil {
		sets = append(sets, "birth_date = ?")
		args = append(args, nullIfEmpty(*u.BirthDate))
	}
	if u.Gender != nil {
		sets = append(sets, "gender = ?")
		args = append(args, string(*u.Gender))
	}
	if u.ImageURL != nil {
		sets = append(sets, "image_url = ?")
		args = append(args, nullIfEmpty(*u.ImageURL))
	}
	if u.Position != nil {
		sets = append(sets, "position_x = ?", "position_y = ?")
		args = append(args, u.Position.X, u.Position.Y)
	}
	if len(sets) == 0 {
		return nil
	}

	sets = append(sets, "updated_at = ?")
	args = append(args, timeNow(), id)

	query := fmt.Sprintf(`UPDATE family_members SET %s WHERE id = ?`, strings.Join(sets, ", "))
	return r.execUpdate(ctx, query, args, "family member", id)
}

// InsertRelationship inserts a relationship with a generated ID.
func (r *Repository) InsertRelationship(ctx context.Context, nr entities.NewRelationship) (*entities.Relationship, error) {
	rel := &entities.Relationship{
		ID:        generateUUID(),
		TypeID:    nr.TypeID,
		Position:  nr.Position,
		CreatedAt: timeNow(),
	}

	query := `
		INSERT INTO relationships (id, type_id, position_x, position_y, created_at)
		VALUES (?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query, rel.ID, rel.TypeID, rel.Position.X, rel.Position.Y, rel.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("inserting relationship: %w", err)
	}
	return rel, nil
}

// UpdateRelationship updates the non-nil fields of u.
func (r *Repository) UpdateRelationship(ctx context.Context, id string, u entities.RelationshipUpdate) error {
	var sets []string
	var args []any

	if u.TypeID != nil {
		sets = append(sets, "type_id = ?")
		args = append(args, *u.TypeID)
	}
	if u.Position != nil {
		sets = append(sets, "position_x = ?", "position_y = ?")
		args = append(args, u.Position.X, u.Position.Y)
	}
	if len(sets) == 0 {
		return nil
	}
	args = append(args, id)

	query := fmt.Sprintf(`UPDATE relationships SET %s WHERE id = ?`, strings.Join(sets, ", "))
	return r.execUpdate(ctx, query, args, "relationship", id)
}

// InsertMembership inserts a membership link with a generated ID.
func (r *Repository) InsertMembership(ctx context.Context, nm entities.NewMembership) (*entities.FamilyRelationshipMember, error) {
	m := &entities.FamilyRelationshipMember{
		ID:             generateUUID(),
		RelationshipID: nm.RelationshipID,
		FamilyMemberID: nm.FamilyMemberID,
		Role:           nm.Role,
		CreatedAt:      timeNow(),
	}

	query := `
		INSERT INTO family_relationship_members (id, relationship_id, family_member_id, role, created_at)
		VALUES (?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query, m.ID, m.RelationshipID, m.FamilyMemberID, string(m.Role), m.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("inserting membership: %w", err)
	}
	return m, nil
}

func (r *Repository) execUpdate(ctx context.Context, query string, args []any, what, id string) error {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("updating %s: %w", what, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", what, id, ports.ErrRowNotFound)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanFamilyMember(s scanner) (entities.FamilyMember, error) {
	var m entities.FamilyMember
	var birthDate, gender, imageURL sql.NullString
	var x, y sql.NullFloat64
	var createdAt, updatedAt sql.NullTime

	if err := s.Scan(&m.ID, &m.Name, &birthDate, &gender, &imageURL, &x, &y, &createdAt, &updatedAt); err != nil {
		return m, fmt.Errorf("scanning family member: %w", err)
	}

	m.BirthDate = birthDate.String
	m.ImageURL = imageURL.String
	if gender.Valid {
		m.Gender = entities.NormalizeGender(&gender.String)
	} else {
		m.Gender = entities.NormalizeGender(nil)
	}
	m.Position = entities.Position{X: x.Float64, Y: y.Float64}
	m.CreatedAt = createdAt.Time
	m.UpdatedAt = updatedAt.Time
	return m, nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

var (
	_ ports.RowStore      = (*Repository)(nil)
	_ ports.SchemaManager = (*Repository)(nil)
)

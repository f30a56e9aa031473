// Package postgres provides a Postgres implementation of the RowStore interface,
// matching the hosted backend's family_members, relationships,
// relationship_types and family_relationship_members tables.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver

	"github.com/ersonp/famtree-core/internal/domain/entities"
	"github.com/ersonp/famtree-core/internal/domain/ports"
	"github.com/ersonp/famtree-core/internal/infrastructure/config"
)

const driverName = "pgx"

// codeInvalidTextRepresentation is raised when an id is not a valid uuid.
const codeInvalidTextRepresentation = "22P02"

var sqlOpen = sql.Open

// Repository implements ports.RowStore and ports.SchemaManager using Postgres.
// IDs and timestamps come from column defaults and are read back with RETURNING.
type Repository struct {
	db *sql.DB
}

// NewRepository opens and pings a Postgres connection.
func NewRepository(ctx context.Context, cfg config.PostgresConfig) (*Repository, error) {
	if cfg.DSN == "" {
		return nil, errors.New("postgres dsn is required")
	}

	db, err := sqlOpen(driverName, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("opening postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}
	return &Repository{db: db}, nil
}

// Close closes the database connection.
func (r *Repository) Close() error {
	return r.db.Close()
}

// DB exposes the underlying sql.DB for integration testing hooks.
func (r *Repository) DB() *sql.DB { return r.db }

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS relationship_types (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		name TEXT NOT NULL,
		color TEXT NOT NULL,
		created_at TIMESTAMPTZ DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS family_members (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		name TEXT NOT NULL,
		birth_date DATE,
		gender TEXT,
		image_url TEXT,
		position_x DOUBLE PRECISION,
		position_y DOUBLE PRECISION,
		created_at TIMESTAMPTZ DEFAULT now(),
		updated_at TIMESTAMPTZ DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS relationships (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		type_id UUID NOT NULL REFERENCES relationship_types(id),
		position_x DOUBLE PRECISION NOT NULL DEFAULT 0,
		position_y DOUBLE PRECISION NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS family_relationship_members (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		relationship_id UUID NOT NULL REFERENCES relationships(id),
		family_member_id UUID NOT NULL REFERENCES family_members(id),
		role TEXT NOT NULL,
		created_at TIMESTAMPTZ DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_memberships_relationship ON family_relationship_members(relationship_id)`,
	`CREATE INDEX IF NOT EXISTS idx_memberships_member ON family_relationship_members(family_member_id)`,
}

// EnsureSchema creates the tables if they don't exist.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("creating schema: %w", err)
		}
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

	// clock_timestamp advances per row so created_at keeps the given order
	for _, t := range types {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO relationship_types (name, color, created_at) VALUES ($1, $2, clock_timestamp())`,
			t.Name, t.Color,
		); err != nil {
			return 0, fmt.Errorf("inserting relationship type %s: %w", t.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing transaction: %w", err)
	}
	return len(types), nil
}

// ListRelationshipTypes returns every relationship type.
func (r *Repository) ListRelationshipTypes(ctx context.Context) ([]entities.RelationshipType, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id::text, name, color, created_at
		FROM relationship_types
		ORDER BY created_at ASC, id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("querying relationship types: %w", err)
	}
	defer func() { _ = rows.Close() }()

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

const memberColumns = `id::text, name, to_char(birth_date, 'YYYY-MM-DD'), gender, image_url,
	position_x, position_y, created_at, updated_at`

// ListFamilyMembers returns every family member.
func (r *Repository) ListFamilyMembers(ctx context.Context) ([]entities.FamilyMember, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+memberColumns+`
		FROM family_members
		ORDER BY created_at ASC, id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("querying family members: %w", err)
	}
	defer func() { _ = rows.Close() }()

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
	rows, err := r.db.QueryContext(ctx, `
		SELECT r.id::text, r.type_id::text, r.position_x, r.position_y, r.created_at,
		       t.id::text, t.name, t.color, t.created_at
		FROM relationships r
		LEFT JOIN relationship_types t ON t.id = r.type_id
		ORDER BY r.created_at ASC, r.id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("querying relationships: %w", err)
	}
	defer func() { _ = rows.Close() }()

	result := []entities.RelationshipWithType{}
	for rows.Next() {
		var rel entities.RelationshipWithType
		var createdAt, typeCreatedAt sql.NullTime
		var typeID, typeName, typeColor sql.NullString
		if err := rows.Scan(
			&rel.ID, &rel.TypeID, &rel.Position.X, &rel.Position.Y, &createdAt,
			&typeID, &typeName, &typeColor, &typeCreatedAt,
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

// ListMemberships returns every membership link.
func (r *Repository) ListMemberships(ctx context.Context) ([]entities.FamilyRelationshipMember, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id::text, relationship_id::text, family_member_id::text, role, created_at
		FROM family_relationship_members
		ORDER BY created_at ASC, id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("querying memberships: %w", err)
	}
	defer func() { _ = rows.Close() }()

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

// InsertFamilyMember inserts a family member and returns the stored row.
func (r *Repository) InsertFamilyMember(ctx context.Context, nm entities.NewFamilyMember) (*entities.FamilyMember, error) {
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO family_members (name, position_x, position_y)
		VALUES ($1, $2, $3)
		RETURNING `+memberColumns,
		nm.Name, nm.Position.X, nm.Position.Y,
	)
	m, err := scanFamilyMember(row)
	if err != nil {
		return nil, fmt.Errorf("inserting family member: %w", err)
	}
	return &m, nil
}

// UpdateFamilyMember updates the non-nil fields of u.
func (r *Repository) UpdateFamilyMember(ctx context.Context, id string, u entities.FamilyMemberUpdate) error {
	var b updateBuilder
	if u.Name != nil {
		b.set("name", *u.Name)
	}
	if u.BirthDate != nil {
		b.set("birth_date", nullIfEmpty(*u.BirthDate))
	}
	if u.Gender != nil {
		b.set("gender", string(*u.Gender))
	}
	if u.ImageURL != nil {
		b.set("image_url", nullIfEmpty(*u.ImageURL))
	}
	if u.Position != nil {
		b.set("position_x", u.Position.X)
		b.set("position_y", u.Position.Y)
	}
	if b.empty() {
		return nil
	}
	b.setRaw("updated_at = now()")

	query, args := b.build("family_members", id)
	return r.execUpdate(ctx, query, args, "family member", id)
}

// InsertRelationship inserts a relationship and returns the stored row.
func (r *Repository) InsertRelationship(ctx context.Context, nr entities.NewRelationship) (*entities.Relationship, error) {
	var rel entities.Relationship
	var createdAt sql.NullTime
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO relationships (type_id, position_x, position_y)
		VALUES ($1, $2, $3)
		RETURNING id::text, type_id::text, position_x, position_y, created_at`,
		nr.TypeID, nr.Position.X, nr.Position.Y,
	).Scan(&rel.ID, &rel.TypeID, &rel.Position.X, &rel.Position.Y, &createdAt)
	if err != nil {
		return nil, fmt.Errorf("inserting relationship: %w", err)
	}
	rel.CreatedAt = createdAt.Time
	return &rel, nil
}

// UpdateRelationship updates the non-nil fields of u.
func (r *Repository) UpdateRelationship(ctx context.Context, id string, u entities.RelationshipUpdate) error {
	var b updateBuilder
	if u.TypeID != nil {
		b.set("type_id", *u.TypeID)
	}
	if u.Position != nil {
		b.set("position_x", u.Position.X)
		b.set("position_y", u.Position.Y)
	}
	if b.empty() {
		return nil
	}

	query, args := b.build("relationships", id)
	return r.execUpdate(ctx, query, args, "relationship", id)
}

// InsertMembership inserts a membership link and returns the stored row.
func (r *Repository) InsertMembership(ctx context.Context, nm entities.NewMembership) (*entities.FamilyRelationshipMember, error) {
	var m entities.FamilyRelationshipMember
	var role string
	var createdAt sql.NullTime
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO family_relationship_members (relationship_id, family_member_id, role)
		VALUES ($1, $2, $3)
		RETURNING id::text, relationship_id::text, family_member_id::text, role, created_at`,
		nm.RelationshipID, nm.FamilyMemberID, string(nm.Role),
	).Scan(&m.ID, &m.RelationshipID, &m.FamilyMemberID, &role, &createdAt)
	if err != nil {
		return nil, fmt.Errorf("inserting membership: %w", err)
	}
	m.Role = entities.Role(role)
	m.CreatedAt = createdAt.Time
	return &m, nil
}

func (r *Repository) execUpdate(ctx context.Context, query string, args []any, what, id string) error {
	result, err := r.db.ExecContext(ctx, query, args...)
	if isMalformedID(err) {
		// No row can carry an id that is not a uuid.
		return fmt.Errorf("%s %s: %w", what, id, ports.ErrRowNotFound)
	}
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

func isMalformedID(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == codeInvalidTextRepresentation
}

// updateBuilder assembles an UPDATE with numbered placeholders.
type updateBuilder struct {
	sets []string
	args []any
}

func (b *updateBuilder) set(column string, value any) {
	b.args = append(b.args, value)
	b.sets = append(b.sets, fmt.Sprintf("%s = $%d", column, len(b.args)))
}

func (b *updateBuilder) setRaw(expr string) {
	b.sets = append(b.sets, expr)
}

func (b *updateBuilder) empty() bool {
	return len(b.sets) == 0
}

func (b *updateBuilder) build(table, id string) (string, []any) {
	args := append(b.args, id)
	query := fmt.Sprintf("UPDATE %s SET %s WHERE id = $%d", table, strings.Join(b.sets, ", "), len(args))
	return query, args
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

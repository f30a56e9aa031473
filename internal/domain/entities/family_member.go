// Package entities contains core domain data structures.
package entities

import (
	"strings"
	"time"
)

// DefaultMemberName is the name given to a family member created from the canvas.
const DefaultMemberName = "New Member"

// BirthDateLayout is the storage format of FamilyMember.BirthDate.
const BirthDateLayout = "2006-01-02"

// Gender is the enumerated gender of a family member.
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderOther  Gender = "other"
)

// IsValid reports whether g is one of the enumerated genders.
func (g Gender) IsValid() bool {
	switch g {
	case GenderMale, GenderFemale, GenderOther:
		return true
	default:
		return false
	}
}

// NormalizeGender maps a stored gender value onto the enumeration.
// Null or unrecognized values become GenderOther.
func NormalizeGender(stored *string) Gender {
	if stored == nil {
		return GenderOther
	}
	g := Gender(strings.ToLower(strings.TrimSpace(*stored)))
	if !g.IsValid() {
		return GenderOther
	}
	return g
}

// Position is a canvas coordinate pair.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// FamilyMember represents a person placed on the canvas.
type FamilyMember struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	BirthDate string    `json:"birth_date,omitempty"` // YYYY-MM-DD, empty when unknown
	Gender    Gender    `json:"gender"`
	ImageURL  string    `json:"image_url,omitempty"`
	Position  Position  `json:"position"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewFamilyMember holds the fields sent when inserting a family member.
// The row store assigns the identifier and timestamps.
type NewFamilyMember struct {
	Name     string
	Position Position
}

// FamilyMemberUpdate is a partial update returned by the member edit dialog.
// Nil fields are left untouched.
type FamilyMemberUpdate struct {
	Name      *string   `json:"name,omitempty"`
	BirthDate *string   `json:"birth_date,omitempty"`
	Gender    *Gender   `json:"gender,omitempty"`
	ImageURL  *string   `json:"image_url,omitempty"`
	Position  *Position `json:"position,omitempty"`
}

// IsEmpty reports whether the update changes nothing.
func (u FamilyMemberUpdate) IsEmpty() bool {
	return u.Name == nil && u.BirthDate == nil && u.Gender == nil && u.ImageURL == nil && u.Position == nil
}

// Apply merges the update into m.
func (u FamilyMemberUpdate) Apply(m *FamilyMember) {
	if u.Name != nil {
		m.Name = *u.Name
	}
	if u.BirthDate != nil {
		m.BirthDate = *u.BirthDate
	}
	if u.Gender != nil {
		m.Gender = *u.Gender
	}
	if u.ImageURL != nil {
		m.ImageURL = *u.ImageURL
	}
	if u.Position != nil {
		m.Position = *u.Position
	}
}

// Package render maps node payloads to the visual description drawn by the canvas.
// Both adapters are pure functions.
package render

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/ersonp/famtree-core/internal/domain/entities"
	"github.com/ersonp/famtree-core/internal/domain/graph"
)

// Visual is what the canvas needs to draw a node.
type Visual struct {
	Label    string `json:"label"`
	Subtitle string `json:"subtitle,omitempty"`
	Initials string `json:"initials,omitempty"`
	Portrait string `json:"portrait,omitempty"`
	Color    string `json:"color,omitempty"`
	Gender   string `json:"gender,omitempty"`
}

// FamilyMember renders a family node: name, birth date, portrait or initials.
func FamilyMember(m entities.FamilyMember) Visual {
	v := Visual{
		Label:    m.Name,
		Subtitle: m.BirthDate,
		Gender:   string(m.Gender),
	}
	if m.ImageURL != "" {
		v.Portrait = m.ImageURL
	} else {
		v.Initials = Initials(m.Name)
	}
	return v
}

// Relationship renders a relationship node: the type name on the type color.
func Relationship(d graph.RelationshipData) Visual {
	return Visual{
		Label: d.Type.Name,
		Color: d.Type.Color,
	}
}

// Node dispatches on the node kind.
func Node(n graph.Node) Visual {
	switch {
	case n.Kind == graph.KindFamily && n.Family != nil:
		return FamilyMember(*n.Family)
	case n.Kind == graph.KindRelationship && n.Relationship != nil:
		return Relationship(*n.Relationship)
	default:
		return Visual{}
	}
}

// Initials returns the upper-cased first letter of each name part.
// Parts that do not start with valid UTF-8 are skipped.
func Initials(name string) string {
	var b strings.Builder
	for _, part := range strings.Fields(name) {
		r, _ := utf8.DecodeRuneInString(part)
		if r == utf8.RuneError {
			continue
		}
		b.WriteRune(unicode.ToUpper(r))
	}
	return b.String()
}

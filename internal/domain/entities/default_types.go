package entities

// DefaultRelationshipTypes are seeded into an empty relationship_types collection.
// Colors are the node background colors on the canvas.
var DefaultRelationshipTypes = []RelationshipType{
	{Name: "Marriage", Color: "#e11d48"},
	{Name: "Partnership", Color: "#d97706"},
	{Name: "Parentage", Color: "#2563eb"},
	{Name: "Adoption", Color: "#059669"},
}

// DefaultRelationshipTypeNames returns just the names of the default types.
func DefaultRelationshipTypeNames() []string {
	names := make([]string, len(DefaultRelationshipTypes))
	for i, t := range DefaultRelationshipTypes {
		names[i] = t.Name
	}
	return names
}

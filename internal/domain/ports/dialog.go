package ports

import "context"

// DialogOpener asks the UI to open an edit dialog for a freshly created node.
type DialogOpener interface {
	// OpenFamilyMemberDialog opens the member edit dialog for the given node.
	OpenFamilyMemberDialog(ctx context.Context, id string)

	// OpenRelationshipDialog opens the relationship edit dialog for the given node.
	OpenRelationshipDialog(ctx context.Context, id string)
}

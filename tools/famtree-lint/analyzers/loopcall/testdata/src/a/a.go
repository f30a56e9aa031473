package a

import "context"

type RowStore interface {
	ListFamilyMembers(ctx context.Context) ([]string, error)
	UpdateFamilyMember(ctx context.Context, id string) error
	InsertMembership(ctx context.Context, id string) error
}

func bad(ctx context.Context, ids []string, rows RowStore) {
	for _, id := range ids {
		rows.UpdateFamilyMember(ctx, id) // want "row store round trip: UpdateFamilyMember called inside loop"
	}
	for i := 0; i < len(ids); i++ {
		rows.ListFamilyMembers(ctx) // want "row store round trip: ListFamilyMembers called inside loop"
	}
}

func deferred(ctx context.Context, ids []string, rows RowStore) []func() error {
	var writes []func() error
	for _, id := range ids {
		writes = append(writes, func() error {
			return rows.InsertMembership(ctx, id)
		})
	}
	return writes
}

func exempt(ctx context.Context, ids []string, rows RowStore) {
	//famtree:loopcall-ok
	for _, id := range ids {
		rows.UpdateFamilyMember(ctx, id)
	}
}

func good(ctx context.Context, ids []string, rows RowStore) {
	// One load, no calls in the loop
	members, _ := rows.ListFamilyMembers(ctx)
	for _, m := range members {
		_ = len(m)
	}
}

package book

import (
	"context"
)

//go:generate mockgen -source=ports.go -destination=mock_repository_test.go -package=book

// Mutation inspects and optionally edits the stored record inside the
// store's atomic unit. current is nil when no record has the id. Returning
// an error aborts the operation without writing.
type Mutation func(current *Book) error

// Repository defines the contract for book storage. Update and Delete run
// load, fn and write as one unit that no other writer can interleave with.
type Repository interface {
	ListByOwner(ctx context.Context, ownerID string) ([]Book, error)
	Create(ctx context.Context, b *Book) error
	Update(ctx context.Context, id string, fn Mutation) (Book, error)
	Delete(ctx context.Context, id string, fn Mutation) error
}

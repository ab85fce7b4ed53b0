package book

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryRepo keeps books in process memory. One mutex guards every
// operation, which makes load-check-write atomic.
type MemoryRepo struct {
	mu    sync.Mutex
	books map[string]Book
	now   func() time.Time
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		books: make(map[string]Book),
		now:   time.Now,
	}
}

// WithClock replaces the timestamp source; used by tests that need a
// deterministic createdAt order.
func (r *MemoryRepo) WithClock(now func() time.Time) *MemoryRepo {
	r.now = now
	return r
}

func (r *MemoryRepo) ListByOwner(ctx context.Context, ownerID string) ([]Book, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Book, 0)
	for _, b := range r.books {
		if b.OwnerID == ownerID {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r *MemoryRepo) Create(ctx context.Context, b *Book) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now().UTC()
	b.ID = uuid.NewString()
	b.CreatedAt = now
	b.UpdatedAt = now
	r.books[b.ID] = *b
	return nil
}

func (r *MemoryRepo) Update(ctx context.Context, id string, fn Mutation) (Book, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var current *Book
	if b, ok := r.books[id]; ok {
		current = &b
	}
	if err := fn(current); err != nil {
		return Book{}, err
	}
	if current == nil {
		return Book{}, ErrNotFound
	}

	updated := *current
	stored := r.books[id]
	updated.ID = stored.ID
	updated.OwnerID = stored.OwnerID
	updated.CreatedAt = stored.CreatedAt
	updated.UpdatedAt = r.now().UTC()
	r.books[id] = updated
	return updated, nil
}

func (r *MemoryRepo) Delete(ctx context.Context, id string, fn Mutation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var current *Book
	if b, ok := r.books[id]; ok {
		current = &b
	}
	if err := fn(current); err != nil {
		return err
	}
	if current == nil {
		return ErrNotFound
	}
	delete(r.books, id)
	return nil
}

func (r *MemoryRepo) Ping(ctx context.Context) error {
	return nil
}

package book

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runRepositoryContract exercises the behavior every Repository driver must
// share. newRepo returns an empty store; alice and bob are two existing
// owner ids.
func runRepositoryContract(t *testing.T, newRepo func(t *testing.T) Repository, alice, bob string) {
	t.Helper()
	ctx := context.Background()

	t.Run("create assigns id and timestamps", func(t *testing.T) {
		repo := newRepo(t)
		b := &Book{OwnerID: alice, Title: "Dune", Author: "Frank Herbert", Genre: DefaultGenre, Status: StatusToRead, CoverURL: DefaultCoverURL}
		require.NoError(t, repo.Create(ctx, b))

		assert.NotEmpty(t, b.ID)
		assert.False(t, b.CreatedAt.IsZero())
		assert.Equal(t, b.CreatedAt, b.UpdatedAt)
	})

	t.Run("list only returns own books", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.Create(ctx, &Book{OwnerID: alice, Title: "Mine", Author: "A", Status: StatusToRead}))
		require.NoError(t, repo.Create(ctx, &Book{OwnerID: bob, Title: "Theirs", Author: "B", Status: StatusToRead}))

		books, err := repo.ListByOwner(ctx, alice)
		require.NoError(t, err)
		require.Len(t, books, 1)
		assert.Equal(t, "Mine", books[0].Title)
	})

	t.Run("update missing id runs mutation with nil", func(t *testing.T) {
		repo := newRepo(t)
		var sawNil bool
		_, err := repo.Update(ctx, uuid.NewString(), func(cur *Book) error {
			sawNil = cur == nil
			return Authorize(cur, alice)
		})
		assert.True(t, sawNil)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("mutation error aborts update", func(t *testing.T) {
		repo := newRepo(t)
		b := &Book{OwnerID: alice, Title: "Dune", Author: "A", Status: StatusToRead}
		require.NoError(t, repo.Create(ctx, b))

		abort := errors.New("abort")
		_, err := repo.Update(ctx, b.ID, func(cur *Book) error {
			cur.Title = "Changed"
			return abort
		})
		assert.ErrorIs(t, err, abort)

		books, err := repo.ListByOwner(ctx, alice)
		require.NoError(t, err)
		assert.Equal(t, "Dune", books[0].Title)
	})

	t.Run("update writes mutated fields and keeps identity", func(t *testing.T) {
		repo := newRepo(t)
		b := &Book{OwnerID: alice, Title: "Dune", Author: "A", Status: StatusToRead}
		require.NoError(t, repo.Create(ctx, b))

		updated, err := repo.Update(ctx, b.ID, func(cur *Book) error {
			cur.Status = StatusCompleted
			cur.OwnerID = bob
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, b.ID, updated.ID)
		assert.Equal(t, alice, updated.OwnerID)
		assert.Equal(t, StatusCompleted, updated.Status)
		assert.False(t, updated.UpdatedAt.Before(b.UpdatedAt))
	})

	t.Run("delete then delete again", func(t *testing.T) {
		repo := newRepo(t)
		b := &Book{OwnerID: alice, Title: "Dune", Author: "A", Status: StatusToRead}
		require.NoError(t, repo.Create(ctx, b))

		guard := func(cur *Book) error { return Authorize(cur, alice) }
		require.NoError(t, repo.Delete(ctx, b.ID, guard))
		assert.ErrorIs(t, repo.Delete(ctx, b.ID, guard), ErrNotFound)
	})

	t.Run("malformed id is not found", func(t *testing.T) {
		repo := newRepo(t)
		err := repo.Delete(ctx, "not-an-id", func(cur *Book) error { return Authorize(cur, alice) })
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

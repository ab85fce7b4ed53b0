package book

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const bookColumns = `id, owner_id, title, author, genre, status, cover_url, created_at, updated_at`

type PostgresRepo struct {
	db      *pgxpool.Pool
	timeout time.Duration
}

func NewPostgresRepo(db *pgxpool.Pool, timeout time.Duration) *PostgresRepo {
	return &PostgresRepo{db: db, timeout: timeout}
}

func (r *PostgresRepo) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, r.timeout)
}

func scanBook(row pgx.Row, b *Book) error {
	return row.Scan(
		&b.ID, &b.OwnerID, &b.Title, &b.Author, &b.Genre, &b.Status, &b.CoverURL,
		&b.CreatedAt, &b.UpdatedAt,
	)
}

func (r *PostgresRepo) ListByOwner(ctx context.Context, ownerID string) ([]Book, error) {
	if _, err := uuid.Parse(ownerID); err != nil {
		return []Book{}, nil
	}

	const query = `
		SELECT ` + bookColumns + `
		FROM books
		WHERE owner_id = $1
		ORDER BY created_at DESC, id DESC`

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	rows, err := r.db.Query(timeoutCtx, query, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Book, 0)
	for rows.Next() {
		var b Book
		if err := scanBook(rows, &b); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *PostgresRepo) Create(ctx context.Context, b *Book) error {
	const query = `
		INSERT INTO books (owner_id, title, author, genre, status, cover_url)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at`

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	return r.db.QueryRow(timeoutCtx, query,
		b.OwnerID, b.Title, b.Author, b.Genre, b.Status, b.CoverURL,
	).Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt)
}

// lockBook loads the row for the rest of the transaction. It returns nil
// when the id is unknown or not a UUID.
func lockBook(ctx context.Context, tx pgx.Tx, id string) (*Book, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, nil
	}
	const query = `SELECT ` + bookColumns + ` FROM books WHERE id = $1 FOR UPDATE`

	var b Book
	if err := scanBook(tx.QueryRow(ctx, query, id), &b); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &b, nil
}

func (r *PostgresRepo) Update(ctx context.Context, id string, fn Mutation) (Book, error) {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	tx, err := r.db.Begin(timeoutCtx)
	if err != nil {
		return Book{}, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(timeoutCtx) }()

	current, err := lockBook(timeoutCtx, tx, id)
	if err != nil {
		return Book{}, err
	}
	if err := fn(current); err != nil {
		return Book{}, err
	}
	if current == nil {
		return Book{}, ErrNotFound
	}

	const query = `
		UPDATE books
		SET title = $2, author = $3, genre = $4, status = $5, cover_url = $6, updated_at = now()
		WHERE id = $1
		RETURNING ` + bookColumns

	var updated Book
	if err := scanBook(tx.QueryRow(timeoutCtx, query,
		id, current.Title, current.Author, current.Genre, current.Status, current.CoverURL,
	), &updated); err != nil {
		return Book{}, err
	}
	if err := tx.Commit(timeoutCtx); err != nil {
		return Book{}, fmt.Errorf("commit: %w", err)
	}
	return updated, nil
}

func (r *PostgresRepo) Delete(ctx context.Context, id string, fn Mutation) error {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	tx, err := r.db.Begin(timeoutCtx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(timeoutCtx) }()

	current, err := lockBook(timeoutCtx, tx, id)
	if err != nil {
		return err
	}
	if err := fn(current); err != nil {
		return err
	}
	if current == nil {
		return ErrNotFound
	}

	if _, err := tx.Exec(timeoutCtx, `DELETE FROM books WHERE id = $1`, id); err != nil {
		return err
	}
	return tx.Commit(timeoutCtx)
}

func (r *PostgresRepo) Ping(ctx context.Context) error {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	return r.db.Ping(timeoutCtx)
}

package book

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
)

func setupPostgres(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("Skipping integration test: TEST_DB_DSN not set")
	}
	ctx := context.Background()
	db, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Skipf("Skipping integration test: cannot connect to test database: %v", err)
	}
	if err := db.Ping(ctx); err != nil {
		db.Close()
		t.Skipf("Skipping integration test: cannot ping test database: %v", err)
	}
	t.Cleanup(db.Close)
	return db
}

func insertTestUser(t *testing.T, db *pgxpool.Pool) string {
	t.Helper()
	var id string
	err := db.QueryRow(context.Background(),
		`INSERT INTO users (email, password_hash) VALUES ('u-' || gen_random_uuid() || '@test.local', 'x') RETURNING id`,
	).Scan(&id)
	require.NoError(t, err)
	t.Cleanup(func() {
		_, _ = db.Exec(context.Background(), `DELETE FROM users WHERE id = $1`, id)
	})
	return id
}

func TestPostgresRepo_ContractSuite(t *testing.T) {
	db := setupPostgres(t)
	alice := insertTestUser(t, db)
	bob := insertTestUser(t, db)

	runRepositoryContract(t, func(t *testing.T) Repository {
		_, err := db.Exec(context.Background(), `DELETE FROM books WHERE owner_id IN ($1, $2)`, alice, bob)
		require.NoError(t, err)
		return NewPostgresRepo(db, 3*time.Second)
	}, alice, bob)
}

// Command seed creates a demo account with a starter shelf on Postgres.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"shelf/internal/book"
	"shelf/internal/config"
	"shelf/internal/logger"
	"shelf/internal/user"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type sample struct {
	title, author, genre string
}

var samples = []sample{
	{"Pride and Prejudice", "Jane Austen", "Classics"},
	{"Dune", "Frank Herbert", "Science Fiction"},
	{"The Left Hand of Darkness", "Ursula K. Le Guin", "Science Fiction"},
	{"Middlemarch", "George Eliot", "Classics"},
	{"The Name of the Rose", "Umberto Eco", "Mystery"},
	{"Sapiens", "Yuval Noah Harari", "History"},
	{"Piranesi", "Susanna Clarke", "Fantasy"},
	{"The Remains of the Day", "Kazuo Ishiguro", "Fiction"},
	{"Gödel, Escher, Bach", "Douglas Hofstadter", "Science"},
	{"Beloved", "Toni Morrison", "Fiction"},
}

func main() {
	email := flag.String("email", "demo@example.com", "demo account email")
	password := flag.String("password", "shelfdemo1", "demo account password")
	count := flag.Int("count", len(samples), "number of books to add")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	log := logger.New(logger.Options{Level: cfg.Log.Level})
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.Store.DSN)
	if err != nil {
		log.Fatal("connect to database", zap.Error(err))
	}
	defer pool.Close()

	users := user.NewService(user.NewPostgresRepo(pool, cfg.Store.Timeout), cfg.Auth.Secret, cfg.Auth.TokenTTL)
	books := book.NewService(book.NewPostgresRepo(pool, cfg.Store.Timeout))

	added, err := seed(ctx, users, books, *email, *password, *count)
	if err != nil {
		log.Fatal("seed failed", zap.Int("added", added), zap.Error(err))
	}
	log.Info("seed complete", zap.String("email", *email), zap.Int("added", added))
}

// seed signs in as email, registering it first when needed, and adds n
// books from the sample list with statuses spread across the cycle.
func seed(ctx context.Context, users *user.Service, books *book.Service, email, password string, n int) (int, error) {
	res, err := users.Register(ctx, email, password)
	if errors.Is(err, user.ErrAlreadyExists) {
		res, err = users.Login(ctx, email, password)
	}
	if err != nil {
		return 0, fmt.Errorf("sign in %s: %w", email, err)
	}

	status := book.StatusToRead
	for i := 0; i < n; i++ {
		s := samples[i%len(samples)]
		title := s.title
		if i >= len(samples) {
			title = fmt.Sprintf("%s (copy %d)", s.title, i/len(samples)+1)
		}
		_, err := books.Create(ctx, res.User.ID, book.NewBook{
			Title:  title,
			Author: s.author,
			Genre:  s.genre,
			Status: status,
		})
		if err != nil {
			return i, fmt.Errorf("add %q: %w", title, err)
		}
		status = status.Next()
	}
	return n, nil
}

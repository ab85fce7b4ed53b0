package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"shelf/internal/book"
	"shelf/internal/config"
	apphttp "shelf/internal/http"
	"shelf/internal/logger"
	"shelf/internal/lookup"
	"shelf/internal/platform/googlebooks"
	"shelf/internal/platform/openlibrary"
	"shelf/internal/user"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
	"google.golang.org/genai"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Options{Level: cfg.Log.Level, File: cfg.Log.File})
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	st, err := openStores(ctx, cfg.Store, log)
	if err != nil {
		return err
	}
	defer st.close()

	lookupService, err := newLookupService(ctx, cfg, log)
	if err != nil {
		return err
	}

	handler, stopLimiter := apphttp.NewRouter(apphttp.Deps{
		App:    cfg.App,
		Secret: cfg.Auth.Secret,
		Log:    log,
		Books:  book.NewService(st.books),
		Users:  user.NewService(st.users, cfg.Auth.Secret, cfg.Auth.TokenTTL),
		Lookup: lookupService,
		Store:  st.ping,
	})
	defer stopLimiter()

	httpServer := &http.Server{
		Addr:         cfg.App.Addr,
		Handler:      handler,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting server", zap.String("addr", cfg.App.Addr), zap.String("store", cfg.Store.Driver))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

type stores struct {
	books book.Repository
	users user.Repository
	ping  apphttp.Pinger
	close func()
}

func openStores(ctx context.Context, cfg config.StoreConfig, log *zap.Logger) (*stores, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		pool, err := openPostgres(ctx, cfg.DSN)
		if err != nil {
			return nil, err
		}
		log.Info("database connection OK", zap.String("dsn", redactDSN(cfg.DSN)))
		books := book.NewPostgresRepo(pool, cfg.Timeout)
		return &stores{
			books: books,
			users: user.NewPostgresRepo(pool, cfg.Timeout),
			ping:  books,
			close: pool.Close,
		}, nil

	case config.DriverMongo:
		client, err := openMongo(ctx, cfg.MongoURI)
		if err != nil {
			return nil, err
		}
		db := client.Database(cfg.MongoDB)
		books := book.NewMongoRepo(db, cfg.Timeout)
		users := user.NewMongoRepo(db, cfg.Timeout)
		if err := books.EnsureIndexes(ctx); err != nil {
			return nil, fmt.Errorf("book indexes: %w", err)
		}
		if err := users.EnsureIndexes(ctx); err != nil {
			return nil, fmt.Errorf("user indexes: %w", err)
		}
		log.Info("mongo connection OK", zap.String("uri", redactDSN(cfg.MongoURI)), zap.String("db", cfg.MongoDB))
		return &stores{
			books: books,
			users: users,
			ping:  books,
			close: func() { _ = client.Disconnect(context.Background()) },
		}, nil

	case config.DriverMemory:
		log.Warn("using in-memory store; data is lost on restart")
		books := book.NewMemoryRepo()
		return &stores{
			books: books,
			users: user.NewMemoryRepo(),
			ping:  books,
			close: func() {},
		}, nil
	}
	return nil, fmt.Errorf("unknown STORE_DRIVER %q", cfg.Driver)
}

func openPostgres(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("cannot create db pool: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("cannot ping database (%s): %w", redactDSN(dsn), err)
	}
	return pool, nil
}

func openMongo(ctx context.Context, uri string) (*mongo.Client, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("cannot connect to mongo: %w", err)
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("cannot ping mongo (%s): %w", redactDSN(uri), err)
	}
	return client, nil
}

func newLookupService(ctx context.Context, cfg *config.Config, log *zap.Logger) (*lookup.Service, error) {
	var catalog lookup.Catalog
	switch cfg.Catalog.Provider {
	case config.ProviderGoogleBooks:
		catalog = lookup.NewGoogleBooksCatalog(
			googlebooks.NewClient(cfg.Catalog.APIKey, cfg.Catalog.UserAgent, cfg.Catalog.RPS, cfg.Catalog.Retries))
	case config.ProviderOpenLibrary:
		catalog = lookup.NewOpenLibraryCatalog(
			openlibrary.NewClient(cfg.Catalog.UserAgent, cfg.Catalog.RPS, cfg.Catalog.Retries))
	default:
		return nil, fmt.Errorf("unknown CATALOG_PROVIDER %q", cfg.Catalog.Provider)
	}

	var generator lookup.Generator
	if cfg.Gemini.APIKey != "" {
		client, err := genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  cfg.Gemini.APIKey,
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create GenAI client: %w", err)
		}
		generator = client.Models
	} else {
		log.Warn("GEMINI_API_KEY not set; insights are disabled")
	}

	return lookup.NewService(catalog, generator, cfg.Gemini.Model, cfg.Catalog.CacheTTL, log), nil
}

func redactDSN(dsn string) string {
	const marker = "://"
	start := strings.Index(dsn, marker)
	if start < 0 {
		return dsn
	}
	start += len(marker)
	end := strings.Index(dsn[start:], "@")
	if end < 0 {
		return dsn
	}
	return dsn[:start] + "***" + dsn[start+end:]
}

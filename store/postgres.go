package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/condor-estates/condorbot/config"
	"github.com/condor-estates/condorbot/logger"
)

// pgStore persists each collection as a single JSONB row.
type pgStore struct {
	db *sqlx.DB
}

// OpenPostgres connects to postgres, applies migrations, and returns the store.
func OpenPostgres(ctx context.Context, cfg config.PostgresConfig) (Store, error) {
	if err := runMigrations(cfg); err != nil {
		return nil, err
	}
	db, err := connect(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &pgStore{db: db}, nil
}

func (s *pgStore) Load(ctx context.Context, collection string, v any) error {
	var raw []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT doc FROM collections WHERE name = $1`, collection,
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("store: load collection %s: %w", collection, err)
	}
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("store: decode collection %s: %w", collection, err)
	}
	return nil
}

func (s *pgStore) Save(ctx context.Context, collection string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("store: encode collection %s: %w", collection, err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO collections (name, doc, updated_at) VALUES ($1, $2, now())
		 ON CONFLICT (name) DO UPDATE SET doc = EXCLUDED.doc, updated_at = now()`,
		collection, raw,
	)
	if err != nil {
		return fmt.Errorf("store: save collection %s: %w", collection, err)
	}
	logger.STORE.Debug("collection saved",
		slog.String("event", "collection.save"),
		slog.String("backend", "postgres"),
		slog.String("collection", collection),
	)
	return nil
}

func (s *pgStore) Close() error { return s.db.Close() }

// connect opens the database connection, configures the pool, and verifies connectivity.
func connect(ctx context.Context, cfg config.PostgresConfig) (*sqlx.DB, error) {
	dsn := fmt.Sprintf(
		"user=%s password=%s host=%s port=%s dbname=%s sslmode=%s",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Name, cfg.SSLMode,
	)

	connectCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	start := time.Now()
	db, err := sqlx.ConnectContext(connectCtx, "postgres", dsn)
	took := time.Since(start)
	if err != nil {
		logger.STORE.Error("db connect failed",
			slog.String("event", "db.connect"),
			slog.String("host", cfg.Host),
			slog.String("port", cfg.Port),
			slog.String("db", cfg.Name),
			slog.Duration("duration", logger.RoundMS(took)),
			slog.String("err", err.Error()),
		)
		return nil, fmt.Errorf("db connect: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxConnections)
	db.SetMaxIdleConns(cfg.MaxConnections)

	logger.STORE.Info("db connected",
		slog.String("event", "db.connect"),
		slog.String("host", cfg.Host),
		slog.String("port", cfg.Port),
		slog.String("db", cfg.Name),
		slog.Int("pool_open", cfg.MaxConnections),
		slog.Duration("duration", logger.RoundMS(took)),
	)
	return db, nil
}

// waitForPostgres tries to connect to the DB until it is ready or timeout is reached.
func waitForPostgres(dsn string, timeout time.Duration) error {
	start := time.Now()
	var lastErr error
	for {
		db, err := sql.Open("postgres", dsn)
		if err == nil {
			if err = db.Ping(); err == nil {
				_ = db.Close()
				return nil
			}
			_ = db.Close()
		}
		lastErr = err
		if time.Since(start) > timeout {
			return fmt.Errorf("timeout reached waiting for database: %w", lastErr)
		}
		time.Sleep(2 * time.Second)
	}
}

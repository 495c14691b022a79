package profile

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"StockLens/internal/logger"
	"StockLens/internal/model"
)

// SQLiteStore persists profiles to a SQLite database.
type SQLiteStore struct {
	db  *sql.DB
	log *zap.SugaredLogger
}

// NewSQLiteStore opens (or creates) the SQLite database and runs migrations.
func NewSQLiteStore(dbPath string, log *zap.SugaredLogger) (*SQLiteStore, error) {
	log = logger.OrNop(log)
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	s := &SQLiteStore{db: db, log: log}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Infow("sqlite profile store opened", "path", dbPath)
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS user_profiles (
			uid        TEXT PRIMARY KEY,
			name       TEXT NOT NULL,
			email      TEXT NOT NULL,
			created_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_profiles_email ON user_profiles(email)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("exec migration: %w", err)
		}
	}
	return nil
}

func (s *SQLiteStore) Save(ctx context.Context, p model.UserProfile) error {
	if p.UID == "" {
		return fmt.Errorf("save profile: empty uid")
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO user_profiles (uid, name, email, created_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(uid) DO UPDATE SET name = excluded.name, email = excluded.email, created_at = excluded.created_at`,
		p.UID, p.Name, p.Email, p.CreatedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("save profile %s: %w", p.UID, err)
	}
	return nil
}

func (s *SQLiteStore) Get(ctx context.Context, uid string) (model.UserProfile, error) {
	var (
		p       model.UserProfile
		created int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT uid, name, email, created_at FROM user_profiles WHERE uid = ?`, uid,
	).Scan(&p.UID, &p.Name, &p.Email, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return model.UserProfile{}, fmt.Errorf("%s: %w", uid, ErrNotFound)
	}
	if err != nil {
		return model.UserProfile{}, fmt.Errorf("get profile %s: %w", uid, err)
	}
	p.CreatedAt = time.UnixMilli(created).UTC()
	return p, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

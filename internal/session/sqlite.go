package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/me/acadeval/internal/logging"
	"github.com/me/acadeval/pkg/model"

	_ "modernc.org/sqlite"
)

// DefaultProfile is the slot used when no profile name is given.
const DefaultProfile = "default"

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS sessions (
		profile    TEXT PRIMARY KEY,
		token         TEXT NOT NULL,
		refresh_token TEXT NOT NULL DEFAULT '',
		user_json     TEXT NOT NULL,
		expires_at    INTEGER NOT NULL DEFAULT 0,
		saved_at      INTEGER NOT NULL
	)`,
}

// SQLitePersistence keeps sessions in a SQLite database, one row per profile,
// so several identities can be kept side by side.
type SQLitePersistence struct {
	db      *sql.DB
	profile string
	logger  *slog.Logger
}

// NewSQLitePersistence opens (or creates) the database at dbPath and migrates it.
// Use ":memory:" for an in-memory database (useful in tests).
func NewSQLitePersistence(ctx context.Context, dbPath, profile string, logger *slog.Logger) (*SQLitePersistence, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", dbPath, err)
	}
	// One connection: a CLI has one writer, and ":memory:" databases are per connection.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma wal: %w", err)
	}
	for _, stmt := range sqliteSchema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("migrate sessions: %w", err)
		}
	}

	if profile == "" {
		profile = DefaultProfile
	}
	return &SQLitePersistence{
		db:      db,
		profile: profile,
		logger:  logging.Component(logger, "session-sqlite").With("profile", profile),
	}, nil
}

// Close closes the underlying database connection.
func (p *SQLitePersistence) Close() error {
	return p.db.Close()
}

func (p *SQLitePersistence) Load(ctx context.Context) (*model.Session, error) {
	p.logger.Debug("sql", "op", "select", "table", "sessions")

	var token, refresh, userJSON string
	var expiresAt, savedAt int64
	err := p.db.QueryRowContext(ctx,
		`SELECT token, refresh_token, user_json, expires_at, saved_at FROM sessions WHERE profile = ?`, p.profile,
	).Scan(&token, &refresh, &userJSON, &expiresAt, &savedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}

	sess := &model.Session{Token: token, RefreshToken: refresh, SavedAt: time.Unix(savedAt, 0)}
	if expiresAt > 0 {
		sess.ExpiresAt = time.Unix(expiresAt, 0)
	}
	if userJSON != "" && userJSON != "null" {
		var u model.User
		if err := json.Unmarshal([]byte(userJSON), &u); err != nil {
			return nil, fmt.Errorf("parse stored user: %w", err)
		}
		sess.User = &u
	}
	return sess, nil
}

func (p *SQLitePersistence) Save(ctx context.Context, sess *model.Session) error {
	p.logger.Debug("sql", "op", "upsert", "table", "sessions")

	userJSON, err := json.Marshal(sess.User)
	if err != nil {
		return fmt.Errorf("marshal user: %w", err)
	}
	var expiresAt int64
	if !sess.ExpiresAt.IsZero() {
		expiresAt = sess.ExpiresAt.Unix()
	}
	_, err = p.db.ExecContext(ctx,
		`INSERT INTO sessions (profile, token, refresh_token, user_json, expires_at, saved_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(profile) DO UPDATE SET
		   token = excluded.token,
		   refresh_token = excluded.refresh_token,
		   user_json = excluded.user_json,
		   expires_at = excluded.expires_at,
		   saved_at = excluded.saved_at`,
		p.profile, sess.Token, sess.RefreshToken, string(userJSON), expiresAt, sess.SavedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (p *SQLitePersistence) Clear(ctx context.Context) error {
	p.logger.Debug("sql", "op", "delete", "table", "sessions")

	if _, err := p.db.ExecContext(ctx, `DELETE FROM sessions WHERE profile = ?`, p.profile); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

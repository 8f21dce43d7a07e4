// Package session holds everything that must outlive a single run of
// the client: the auth token, per-provider API keys, the selected
// model, and the local transcript cache.
package session

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	_ "modernc.org/sqlite"

	"gidvion/internal/domain"
)

// Store is the persistent client-side session state.
//
// AuthToken carries no context because it sits on the hot path of every
// outgoing request; settings are cached in memory and the cache is the
// source of truth after Open.
type Store interface {
	AuthToken() (tokenType, token string, ok bool)
	SetAuthToken(ctx context.Context, tokenType, token string) error
	ClearAuth(ctx context.Context) error

	APIKey(provider string) (string, bool)
	SetAPIKey(ctx context.Context, provider, key string) error

	SelectedModel() string
	SetSelectedModel(ctx context.Context, model string) error

	SaveTranscript(ctx context.Context, conversationID string, msgs []domain.Message) error
	LoadTranscript(ctx context.Context, conversationID string) ([]domain.Message, error)
	DropTranscript(ctx context.Context, conversationID string) error

	Close() error
}

const (
	keyTokenType     = "auth.token_type"
	keyToken         = "auth.token"
	keySelectedModel = "model.selected"
	keyAPIKeyPrefix  = "apikey."
)

// SQLiteStore implements Store on a local SQLite file.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger

	mu       sync.RWMutex
	settings map[string]string
}

func Open(dbPath string, logger *slog.Logger) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("cannot create database directory %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("cannot open database: %w", err)
	}

	// Set connection pool (single connection for SQLite)
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	store := &SQLiteStore{db: db, logger: logger, settings: make(map[string]string)}

	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("database migration failed: %w", err)
	}
	if err := store.loadSettings(); err != nil {
		db.Close()
		return nil, fmt.Errorf("cannot load settings: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS settings (
		key        TEXT PRIMARY KEY,
		value      TEXT NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS transcripts (
		conversation_id TEXT NOT NULL,
		position        INTEGER NOT NULL,
		message_id      TEXT NOT NULL,
		sender          TEXT NOT NULL,
		model           TEXT,
		content         TEXT,
		emotion         TEXT,
		status          TEXT,
		query_id        TEXT,
		attachments     TEXT,
		thumbs_up       INTEGER DEFAULT 0,
		thumbs_down     INTEGER DEFAULT 0,
		created_at      DATETIME,
		PRIMARY KEY (conversation_id, position)
	);
	CREATE INDEX IF NOT EXISTS idx_transcripts_conv ON transcripts(conversation_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteStore) loadSettings() error {
	rows, err := s.db.Query(`SELECT key, value FROM settings`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return err
		}
		s.settings[k] = v
	}
	return rows.Err()
}

func (s *SQLiteStore) get(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.settings[key]
	return v, ok
}

func (s *SQLiteStore) set(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO settings (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`,
		key, value,
	)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.settings[key] = value
	s.mu.Unlock()
	return nil
}

func (s *SQLiteStore) delete(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		if _, err := s.db.ExecContext(ctx, `DELETE FROM settings WHERE key = ?`, key); err != nil {
			return err
		}
	}
	s.mu.Lock()
	for _, key := range keys {
		delete(s.settings, key)
	}
	s.mu.Unlock()
	return nil
}

func (s *SQLiteStore) AuthToken() (string, string, bool) {
	token, ok := s.get(keyToken)
	if !ok || token == "" {
		return "", "", false
	}
	tokenType, _ := s.get(keyTokenType)
	if tokenType == "" {
		tokenType = "Bearer"
	}
	return tokenType, token, true
}

func (s *SQLiteStore) SetAuthToken(ctx context.Context, tokenType, token string) error {
	if err := s.set(ctx, keyTokenType, tokenType); err != nil {
		return err
	}
	return s.set(ctx, keyToken, token)
}

// ClearAuth drops the stored token. API keys and the selected model
// survive a logout.
func (s *SQLiteStore) ClearAuth(ctx context.Context) error {
	return s.delete(ctx, keyToken, keyTokenType)
}

func (s *SQLiteStore) APIKey(provider string) (string, bool) {
	key, ok := s.get(keyAPIKeyPrefix + strings.ToLower(provider))
	return key, ok && key != ""
}

func (s *SQLiteStore) SetAPIKey(ctx context.Context, provider, key string) error {
	return s.set(ctx, keyAPIKeyPrefix+strings.ToLower(provider), key)
}

func (s *SQLiteStore) SelectedModel() string {
	model, _ := s.get(keySelectedModel)
	return model
}

func (s *SQLiteStore) SetSelectedModel(ctx context.Context, model string) error {
	return s.set(ctx, keySelectedModel, model)
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// timeLayout is fixed-width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// SQLiteStore implements Store using SQLite via modernc.org/sqlite (pure Go).
type SQLiteStore struct {
	db *sql.DB
}

// Compile-time check that SQLiteStore implements Store.
var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore creates a new SQLite-backed store.
// dbPath is the path to the SQLite database file; use ":memory:" for testing.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("session: open database: %w", err)
	}
	// A second connection to ":memory:" would see an empty database.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("session: ping database: %w", err)
	}

	createTableSQL := `
		CREATE TABLE IF NOT EXISTS client_sessions (
			id          TEXT PRIMARY KEY,
			api_url     TEXT NOT NULL,
			state_json  TEXT NOT NULL,
			user_email  TEXT DEFAULT '',
			last_route  TEXT DEFAULT '',
			created_at  DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at  DATETIME DEFAULT CURRENT_TIMESTAMP
		);
	`
	if _, err := db.Exec(createTableSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("session: create table: %w", err)
	}

	createIndexSQL := `
		CREATE INDEX IF NOT EXISTS idx_client_sessions_api_url ON client_sessions(api_url);
	`
	if _, err := db.Exec(createIndexSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("session: create index: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Save persists a State. If the state's ID is empty, a new UUID is
// generated and assigned; a missing guest id is generated the same way.
func (s *SQLiteStore) Save(ctx context.Context, state *State) error {
	if state.ID == "" {
		state.ID = uuid.New().String()
	}
	if state.GuestID == "" {
		state.GuestID = uuid.New().String()
	}

	now := time.Now().UTC()
	state.UpdatedAt = now
	if state.CreatedAt.IsZero() {
		state.CreatedAt = now
	}

	stateJSON, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("session: marshal state: %w", err)
	}

	userEmail := ""
	if state.User != nil {
		userEmail = state.User.Email
	}

	query := `
		INSERT INTO client_sessions (id, api_url, state_json, user_email, last_route, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			api_url    = excluded.api_url,
			state_json = excluded.state_json,
			user_email = excluded.user_email,
			last_route = excluded.last_route,
			updated_at = excluded.updated_at
	`
	_, err = s.db.ExecContext(ctx, query,
		state.ID,
		state.APIURL,
		string(stateJSON),
		userEmail,
		state.LastRoute,
		state.CreatedAt.Format(timeLayout),
		state.UpdatedAt.Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("session: save state: %w", err)
	}

	return nil
}

// Load retrieves the most recently updated State for the given API URL.
// Returns (nil, nil) if no state is found.
func (s *SQLiteStore) Load(ctx context.Context, apiURL string) (*State, error) {
	query := `
		SELECT state_json FROM client_sessions
		WHERE api_url = ?
		ORDER BY updated_at DESC
		LIMIT 1
	`
	return s.loadOne(ctx, query, apiURL)
}

// LoadByID retrieves a State by its unique ID.
// Returns (nil, nil) if no state is found.
func (s *SQLiteStore) LoadByID(ctx context.Context, id string) (*State, error) {
	query := `SELECT state_json FROM client_sessions WHERE id = ?`
	return s.loadOne(ctx, query, id)
}

func (s *SQLiteStore) loadOne(ctx context.Context, query string, args ...any) (*State, error) {
	row := s.db.QueryRowContext(ctx, query, args...)

	var stateJSON string
	if err := row.Scan(&stateJSON); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("session: scan row: %w", err)
	}

	var state State
	if err := json.Unmarshal([]byte(stateJSON), &state); err != nil {
		return nil, fmt.Errorf("session: unmarshal state: %w", err)
	}

	return &state, nil
}

// List returns a lightweight summary of all stored states.
func (s *SQLiteStore) List(ctx context.Context) ([]*Summary, error) {
	query := `SELECT id, api_url, user_email, last_route, updated_at FROM client_sessions ORDER BY updated_at DESC`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("session: list sessions: %w", err)
	}
	defer rows.Close()

	var summaries []*Summary
	for rows.Next() {
		var (
			summary   Summary
			updatedAt string
		)
		if err := rows.Scan(&summary.ID, &summary.APIURL, &summary.UserEmail, &summary.LastRoute, &updatedAt); err != nil {
			return nil, fmt.Errorf("session: scan summary row: %w", err)
		}
		t, err := parseTimestamp(updatedAt)
		if err != nil {
			return nil, err
		}
		summary.UpdatedAt = t
		summaries = append(summaries, &summary)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("session: iterate rows: %w", err)
	}

	return summaries, nil
}

func parseTimestamp(v string) (time.Time, error) {
	t, err := time.Parse(timeLayout, v)
	if err == nil {
		return t, nil
	}
	// SQLite's own CURRENT_TIMESTAMP format.
	t, err = time.Parse("2006-01-02 15:04:05", v)
	if err != nil {
		return time.Time{}, fmt.Errorf("session: parse updated_at %q: %w", v, err)
	}
	return t, nil
}

// Delete removes a state by its ID.
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM client_sessions WHERE id = ?`
	if _, err := s.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("session: delete session: %w", err)
	}
	return nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Cleanup removes states whose updated_at is older than maxAge from now.
// It returns the number of deleted states.
func (s *SQLiteStore) Cleanup(ctx context.Context, maxAge time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-maxAge).Format(timeLayout)

	query := `DELETE FROM client_sessions WHERE updated_at < ?`
	result, err := s.db.ExecContext(ctx, query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("session: cleanup sessions: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("session: rows affected: %w", err)
	}

	return deleted, nil
}

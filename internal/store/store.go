// Package store provides durable per-user persistence: bounded
// conversation transcripts, physical profiles, and Strava credentials.
// One SQLite database backs all three; constructors accept a *sql.DB so
// tests can run against :memory: databases.
//
// No cross-request locking is performed. Concurrent writers for the same
// user interleave last-writer-wins, which is acceptable for a single
// human taking conversational turns but is a known race for multi-device
// use.
package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/Jayden1717/fitness-companion/internal/strava"
)

// Turn roles as persisted. The agent session's user/model vocabulary is
// a concern of the llm package; the transcript keeps user/assistant.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// MaxHistoryTurns bounds the retained transcript per user: the ten most
// recent turns (five exchanges), oldest evicted first.
const MaxHistoryTurns = 10

// Turn is one role-tagged message in a user's transcript.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Profile holds a user's physical stats. Nil fields have never been set.
type Profile struct {
	WeightKg *float64 `json:"weight_kg,omitempty"`
	FTPWatts *int     `json:"ftp,omitempty"`
}

// Store manages all per-user persistence.
type Store struct {
	db *sql.DB
}

// Open creates a store at the given database path.
// The schema is created automatically on first use.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// New creates a store using an existing database connection.
func New(db *sql.DB) (*Store, error) {
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS turns (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id    TEXT NOT NULL,
			role       TEXT NOT NULL,
			content    TEXT NOT NULL,
			created_at TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_turns_user ON turns(user_id, id);

		CREATE TABLE IF NOT EXISTS profiles (
			user_id    TEXT PRIMARY KEY,
			weight_kg  REAL,
			ftp        INTEGER,
			updated_at TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS strava_credentials (
			user_id       TEXT PRIMARY KEY,
			access_token  TEXT NOT NULL,
			refresh_token TEXT NOT NULL,
			expires_at    INTEGER NOT NULL,
			updated_at    TEXT NOT NULL
		);
	`)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// History returns the retained transcript for a user, oldest first.
func (s *Store) History(userID string) ([]Turn, error) {
	rows, err := s.db.Query(`
		SELECT role, content FROM turns
		WHERE user_id = ?
		ORDER BY id ASC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var turns []Turn
	for rows.Next() {
		var t Turn
		if err := rows.Scan(&t.Role, &t.Content); err != nil {
			return nil, fmt.Errorf("scan turn: %w", err)
		}
		turns = append(turns, t)
	}
	return turns, rows.Err()
}

// AppendExchange records one completed exchange (user utterance, final
// answer) and prunes the transcript to the retention window. Tool-call
// intermediate messages are never stored.
func (s *Store) AppendExchange(userID, userText, assistantText string) error {
	now := time.Now().UTC().Format(time.RFC3339)

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	for _, t := range []Turn{
		{Role: RoleUser, Content: userText},
		{Role: RoleAssistant, Content: assistantText},
	} {
		if _, err := tx.Exec(`
			INSERT INTO turns (user_id, role, content, created_at)
			VALUES (?, ?, ?, ?)
		`, userID, t.Role, t.Content, now); err != nil {
			return fmt.Errorf("insert turn: %w", err)
		}
	}

	// FIFO eviction: keep only the newest MaxHistoryTurns rows.
	if _, err := tx.Exec(`
		DELETE FROM turns
		WHERE user_id = ? AND id NOT IN (
			SELECT id FROM turns WHERE user_id = ? ORDER BY id DESC LIMIT ?
		)
	`, userID, userID, MaxHistoryTurns); err != nil {
		return fmt.Errorf("prune history: %w", err)
	}

	return tx.Commit()
}

// ClearHistory removes a user's transcript.
func (s *Store) ClearHistory(userID string) error {
	_, err := s.db.Exec(`DELETE FROM turns WHERE user_id = ?`, userID)
	return err
}

// Profile returns a user's physical stats. A user that has never set
// stats gets the zero Profile (all fields nil).
func (s *Store) Profile(userID string) (Profile, error) {
	var p Profile
	err := s.db.QueryRow(`
		SELECT weight_kg, ftp FROM profiles WHERE user_id = ?
	`, userID).Scan(&p.WeightKg, &p.FTPWatts)
	if err == sql.ErrNoRows {
		return Profile{}, nil
	}
	if err != nil {
		return Profile{}, fmt.Errorf("query profile: %w", err)
	}
	return p, nil
}

// UpdateProfile overwrites only the supplied fields (read-modify-write);
// nil arguments leave the stored values untouched. The row is created
// implicitly on first update. Returns the resulting profile.
func (s *Store) UpdateProfile(userID string, weightKg *float64, ftpWatts *int) (Profile, error) {
	current, err := s.Profile(userID)
	if err != nil {
		return Profile{}, err
	}

	if weightKg != nil {
		current.WeightKg = weightKg
	}
	if ftpWatts != nil {
		current.FTPWatts = ftpWatts
	}

	now := time.Now().UTC().Format(time.RFC3339)
	_, err = s.db.Exec(`
		INSERT INTO profiles (user_id, weight_kg, ftp, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			weight_kg = excluded.weight_kg,
			ftp = excluded.ftp,
			updated_at = excluded.updated_at
	`, userID, current.WeightKg, current.FTPWatts, now)
	if err != nil {
		return Profile{}, fmt.Errorf("upsert profile: %w", err)
	}

	return current, nil
}

// Credentials implements [strava.CredentialStore].
func (s *Store) Credentials(userID string) (*strava.Credentials, error) {
	var c strava.Credentials
	err := s.db.QueryRow(`
		SELECT access_token, refresh_token, expires_at
		FROM strava_credentials WHERE user_id = ?
	`, userID).Scan(&c.AccessToken, &c.RefreshToken, &c.ExpiresAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query credentials: %w", err)
	}
	return &c, nil
}

// PutCredentials implements [strava.CredentialStore].
func (s *Store) PutCredentials(userID string, c *strava.Credentials) error {
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := s.db.Exec(`
		INSERT INTO strava_credentials (user_id, access_token, refresh_token, expires_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			access_token = excluded.access_token,
			refresh_token = excluded.refresh_token,
			expires_at = excluded.expires_at,
			updated_at = excluded.updated_at
	`, userID, c.AccessToken, c.RefreshToken, c.ExpiresAt, now)
	if err != nil {
		return fmt.Errorf("upsert credentials: %w", err)
	}
	return nil
}

// Package archive keeps a local SQLite history of contact form attempts.
package archive

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/codecraftpk/craftsite/internal/contact"
	"github.com/codecraftpk/craftsite/internal/errors"
)

//go:embed schema.sql
var schemaSQL string

// timeLayout is fixed width so rows sort chronologically as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// Submission is one archived attempt.
type Submission struct {
	ID        string    `json:"id" yaml:"id"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
	Outcome   string    `json:"outcome" yaml:"outcome"`
	Name      string    `json:"name,omitempty" yaml:"name,omitempty"`
	Email     string    `json:"email,omitempty" yaml:"email,omitempty"`
	Subject   string    `json:"subject,omitempty" yaml:"subject,omitempty"`
	Message   string    `json:"message,omitempty" yaml:"message,omitempty"`
	Detail    string    `json:"detail,omitempty" yaml:"detail,omitempty"`
}

// Store is the SQLite-backed archive. It implements contact.Recorder.
type Store struct {
	mu sync.Mutex
	db *sql.DB
}

var _ contact.Recorder = (*Store)(nil)

// Open opens or creates the archive database at path, creating its directory
// when needed.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, errors.NewIOError(errors.ErrCodeArchive, "failed to create archive directory", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.NewIOError(errors.ErrCodeArchive, "failed to open archive", err)
	}
	// SQLite serialises writers; one connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, errors.NewIOError(errors.ErrCodeArchive, "failed to initialise archive schema", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// Record stores an attempt. Bot attempts are stored without field contents.
func (s *Store) Record(ctx context.Context, a contact.Attempt) error {
	d := a.Draft
	if a.Outcome == contact.OutcomeBot {
		d = contact.Draft{}
	}
	at := a.At
	if at.IsZero() {
		at = time.Now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return errors.NewIOError(errors.ErrCodeArchive, "archive is closed", nil)
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO submissions (id, created_at, outcome, name, email, subject, message, detail)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		generateID(), at.UTC().Format(timeLayout), a.Outcome.String(),
		d.Name, d.Email, d.Subject, d.Message, a.Detail)
	if err != nil {
		return errors.NewIOError(errors.ErrCodeArchive, "failed to record submission", err)
	}
	return nil
}

// Filter narrows List results.
type Filter struct {
	// Outcome restricts results to one outcome when non-empty.
	Outcome string
	// Limit caps the number of rows; zero means no limit.
	Limit int
}

// List returns archived attempts, newest first.
func (s *Store) List(ctx context.Context, f Filter) ([]Submission, error) {
	if f.Outcome != "" {
		if _, ok := contact.ParseOutcome(f.Outcome); !ok {
			return nil, errors.NewValidationError(errors.ErrCodeArchive, fmt.Sprintf("unknown outcome %q", f.Outcome))
		}
	}

	query := `SELECT id, created_at, outcome, name, email, subject, message, detail FROM submissions`
	var args []interface{}
	if f.Outcome != "" {
		query += ` WHERE outcome = ?`
		args = append(args, f.Outcome)
	}
	query += ` ORDER BY created_at DESC, id DESC`
	if f.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, f.Limit)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil, errors.NewIOError(errors.ErrCodeArchive, "archive is closed", nil)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.NewIOError(errors.ErrCodeArchive, "failed to query submissions", err)
	}
	defer rows.Close()

	var out []Submission
	for rows.Next() {
		var sub Submission
		var created string
		if err := rows.Scan(&sub.ID, &created, &sub.Outcome, &sub.Name, &sub.Email, &sub.Subject, &sub.Message, &sub.Detail); err != nil {
			return nil, errors.NewIOError(errors.ErrCodeArchive, "failed to read submission", err)
		}
		sub.CreatedAt, err = time.Parse(timeLayout, created)
		if err != nil {
			return nil, errors.NewIOError(errors.ErrCodeArchive, "corrupt submission timestamp", err)
		}
		out = append(out, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewIOError(errors.ErrCodeArchive, "failed to read submissions", err)
	}
	return out, nil
}

// generateID returns a time-ordered UUID v7.
func generateID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}

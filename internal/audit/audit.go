// Package audit keeps an append-only journal of catalog and enrollment
// activity in SQLite. Entries are written after the catalog change has
// committed, so a journal failure never rolls back a user-visible write.
package audit

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"log/slog"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/coursedeck/coursedeck-server/internal/id"
)

//go:embed schema.sql
var schemaSQL string

// Action names a journaled event.
type Action string

// Journaled actions.
const (
	ActionCategoryCreated    Action = "category.created"
	ActionCategoryUpdated    Action = "category.updated"
	ActionSubcategoryCreated Action = "subcategory.created"
	ActionCourseCreated      Action = "course.created"
	ActionCourseUpdated      Action = "course.updated"
	ActionCourseDeleted      Action = "course.deleted"
	ActionChapterCreated     Action = "chapter.created"
	ActionChapterUpdated     Action = "chapter.updated"
	ActionChapterDeleted     Action = "chapter.deleted"
	ActionEnrolled           Action = "enrollment.enrolled"
	ActionUnenrolled         Action = "enrollment.unenrolled"
	ActionUserRegistered     Action = "user.registered"
)

// Entry is one journal record.
type Entry struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	ActorID   string    `json:"actor_id,omitempty"`
	Action    Action    `json:"action"`
	CourseID  string    `json:"course_id,omitempty"`
	TargetID  string    `json:"target_id,omitempty"` // Chapter, category or user id
	Detail    string    `json:"detail,omitempty"`
}

// Filter narrows List. Empty fields match everything.
type Filter struct {
	CourseID string
	ActorID  string
	Action   Action
	Limit    int
}

// List limits.
const (
	DefaultListLimit = 50
	MaxListLimit     = 500
)

// Journal is the SQLite-backed audit journal.
type Journal struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open creates or opens the journal at path.
// It configures WAL mode, sets pragmas, and applies the schema.
func Open(path string, logger *slog.Logger) (*Journal, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("exec pragma %q: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("exec schema: %w", err)
	}

	logger.Info("audit journal opened", "path", path)

	return &Journal{db: db, logger: logger}, nil
}

// Close closes the underlying database connection.
func (j *Journal) Close() error {
	return j.db.Close()
}

// Append writes an entry, filling in ID and CreatedAt when they are empty.
func (j *Journal) Append(ctx context.Context, e *Entry) error {
	if e.ID == "" {
		entryID, err := id.Generate(id.PrefixAudit)
		if err != nil {
			return fmt.Errorf("generate audit id: %w", err)
		}
		e.ID = entryID
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}

	_, err := j.db.ExecContext(ctx, `
		INSERT INTO audit_entries (id, created_at, actor_id, action, course_id, target_id, detail)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ID,
		formatTime(e.CreatedAt),
		e.ActorID,
		string(e.Action),
		e.CourseID,
		e.TargetID,
		e.Detail,
	)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

// Record appends an entry and logs instead of failing.
// Used on the request path after the catalog write has committed.
func (j *Journal) Record(ctx context.Context, e Entry) {
	if err := j.Append(ctx, &e); err != nil {
		j.logger.Warn("failed to record audit entry",
			"action", e.Action,
			"course_id", e.CourseID,
			"error", err,
		)
	}
}

// List returns entries matching f, newest first.
func (j *Journal) List(ctx context.Context, f Filter) ([]*Entry, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}

	var (
		where []string
		args  []any
	)
	if f.CourseID != "" {
		where = append(where, "course_id = ?")
		args = append(args, f.CourseID)
	}
	if f.ActorID != "" {
		where = append(where, "actor_id = ?")
		args = append(args, f.ActorID)
	}
	if f.Action != "" {
		where = append(where, "action = ?")
		args = append(args, string(f.Action))
	}

	q := `SELECT id, created_at, actor_id, action, course_id, target_id, detail FROM audit_entries`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY created_at DESC, id LIMIT ?"
	args = append(args, limit)

	rows, err := j.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query audit entries: %w", err)
	}
	defer rows.Close()

	entries := make([]*Entry, 0, limit)
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Prune deletes entries created before cutoff and returns how many were removed.
func (j *Journal) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := j.db.ExecContext(ctx,
		`DELETE FROM audit_entries WHERE created_at < ?`, formatTime(cutoff))
	if err != nil {
		return 0, fmt.Errorf("prune audit entries: %w", err)
	}
	return res.RowsAffected()
}

// scanEntry scans a sql.Row (or sql.Rows via its Scan method) into an Entry.
func scanEntry(scanner interface{ Scan(dest ...any) error }) (*Entry, error) {
	var (
		e         Entry
		action    string
		createdAt string
	)
	err := scanner.Scan(&e.ID, &createdAt, &e.ActorID, &action, &e.CourseID, &e.TargetID, &e.Detail)
	if err != nil {
		return nil, err
	}

	e.Action = Action(action)
	e.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// formatTime formats a time.Time to fixed-width RFC3339 for storage,
// so string comparison in SQL orders entries chronologically.
func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(timeLayout, s)
}

const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"autoheal/internal/heal"

	_ "modernc.org/sqlite"
)

var _ heal.Recorder = (*Journal)(nil)

// timeLayout is fixed width so stored timestamps sort chronologically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// Journal persists container supervision events for later inspection with
// "autoheal history". Pass-completed and skipped events are not stored.
type Journal struct {
	db *sql.DB
}

// OpenJournal opens (creating if needed) the journal database at path.
func OpenJournal(path string) (*Journal, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create journal directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open journal db: %w", err)
	}
	if _, err := db.Exec(`PRAGMA journal_mode = WAL`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set journal db journal mode: %w", err)
	}
	if _, err := db.Exec(`PRAGMA busy_timeout = 5000`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set journal db busy timeout: %w", err)
	}
	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS heal_events (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	at TEXT NOT NULL,
	kind TEXT NOT NULL,
	container_id TEXT NOT NULL DEFAULT '',
	container TEXT NOT NULL DEFAULT '',
	reason TEXT NOT NULL DEFAULT '',
	policy TEXT NOT NULL DEFAULT '',
	attempt INTEGER NOT NULL DEFAULT 0,
	max_attempts INTEGER NOT NULL DEFAULT 0,
	error TEXT NOT NULL DEFAULT ''
)`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize heal events schema: %w", err)
	}
	if _, err := db.Exec(`CREATE INDEX IF NOT EXISTS heal_events_at ON heal_events (at)`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize heal events index: %w", err)
	}

	return &Journal{db: db}, nil
}

func (j *Journal) Close() error {
	if j == nil || j.db == nil {
		return nil
	}
	return j.db.Close()
}

// Record stores ev unless it is a pass-completed or skipped event.
func (j *Journal) Record(ctx context.Context, ev heal.Event) error {
	if ev.Kind == heal.EventPassCompleted || ev.Kind == heal.EventSkipped {
		return nil
	}
	at := ev.Time
	if at.IsZero() {
		at = time.Now()
	}

	var reason, policy string
	if ev.ContainerEvent() {
		reason = ev.Reason.String()
		policy = ev.Policy.String()
	}

	_, err := j.db.ExecContext(ctx,
		`INSERT INTO heal_events (at, kind, container_id, container, reason, policy, attempt, max_attempts, error)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		at.UTC().Format(timeLayout),
		string(ev.Kind),
		ev.ContainerID,
		ev.Container,
		reason,
		policy,
		ev.Attempt,
		ev.MaxAttempts,
		ev.Err,
	)
	if err != nil {
		return fmt.Errorf("insert heal event: %w", err)
	}
	return nil
}

// Recent returns up to limit events, newest first.
func (j *Journal) Recent(ctx context.Context, limit int) ([]heal.Event, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := j.db.QueryContext(ctx, `
SELECT at, kind, container_id, container, reason, policy, attempt, max_attempts, error
FROM heal_events
ORDER BY at DESC, id DESC
LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query heal events: %w", err)
	}
	defer rows.Close()

	out := make([]heal.Event, 0)
	for rows.Next() {
		var (
			atRaw, kindRaw, reason, policy string
			ev                             heal.Event
		)
		if err := rows.Scan(&atRaw, &kindRaw, &ev.ContainerID, &ev.Container, &reason, &policy, &ev.Attempt, &ev.MaxAttempts, &ev.Err); err != nil {
			return nil, fmt.Errorf("scan heal event row: %w", err)
		}
		if ev.Time, err = time.Parse(timeLayout, atRaw); err != nil {
			return nil, fmt.Errorf("parse heal event time %q: %w", atRaw, err)
		}
		if ev.Kind, err = heal.ParseEventKind(kindRaw); err != nil {
			return nil, err
		}
		ev.Reason = heal.ParseReason(reason)
		if policy != "" {
			if ev.Policy, err = heal.ParsePolicyMode(policy); err != nil {
				return nil, fmt.Errorf("heal event policy: %w", err)
			}
		}
		out = append(out, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate heal event rows: %w", err)
	}
	return out, nil
}

// Prune deletes events recorded before cutoff and returns how many went.
func (j *Journal) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := j.db.ExecContext(ctx, `DELETE FROM heal_events WHERE at < ?`, cutoff.UTC().Format(timeLayout))
	if err != nil {
		return 0, fmt.Errorf("prune heal events: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("prune heal events: %w", err)
	}
	return n, nil
}

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fentz26/hogar/internal/models"
	_ "modernc.org/sqlite"
)

// SQLiteStore keeps the board in a local SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// New creates a new SQLiteStore and runs migrations.
func New(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	// SQLite only supports one writer at a time
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// DB exposes the underlying handle for inspection.
func (s *SQLiteStore) DB() *sql.DB {
	return s.db
}

// Ping checks the database connection is alive.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// migrate runs idempotent schema migrations.
func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS tasks (
		id INTEGER PRIMARY KEY,
		position INTEGER NOT NULL,
		name TEXT NOT NULL,
		recurrence TEXT,
		kind TEXT,
		audience TEXT,
		owner TEXT,
		status TEXT,
		timeslot TEXT,
		stock INTEGER,
		capacity INTEGER,
		extra TEXT
	);

	CREATE TABLE IF NOT EXISTS archive (
		id TEXT PRIMARY KEY,
		task_id INTEGER NOT NULL,
		name TEXT NOT NULL,
		owner TEXT NOT NULL,
		timeslot TEXT,
		kind TEXT,
		recurrence TEXT,
		archived_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS audit (
		id TEXT PRIMARY KEY,
		action TEXT NOT NULL,
		actor TEXT,
		inputs_hash TEXT NOT NULL,
		outcome TEXT NOT NULL,
		task_id INTEGER,
		details TEXT,
		timestamp DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_tasks_position ON tasks(position);
	CREATE INDEX IF NOT EXISTS idx_archive_owner ON archive(owner);
	`

	_, err := s.db.Exec(schema)
	return err
}

// --- Task Operations ---

// Load returns every task in stored order.
func (s *SQLiteStore) Load(ctx context.Context) ([]models.Task, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, recurrence, kind, audience, owner, status, timeslot, stock, capacity, extra FROM tasks ORDER BY position`,
	)
	if err != nil {
		return nil, persistErr("load", fmt.Errorf("query tasks: %w", err))
	}
	defer rows.Close()

	var tasks []models.Task
	for rows.Next() {
		var id int64
		var name string
		var recurrence, kind, audience, owner, status, slot, extra sql.NullString
		var stock, capacity sql.NullInt64
		if err := rows.Scan(&id, &name, &recurrence, &kind, &audience, &owner, &status, &slot, &stock, &capacity, &extra); err != nil {
			return nil, persistErr("load", fmt.Errorf("scan task: %w", err))
		}

		task, err := decodeTask(id, name, recurrence.String, kind.String, audience.String, owner.String, status.String, slot.String, stock.Int64, capacity.Int64)
		if err != nil {
			return nil, persistErr("load", fmt.Errorf("task %d: %w", id, err))
		}
		if extra.Valid && extra.String != "" {
			if err := json.Unmarshal([]byte(extra.String), &task.Extra); err != nil {
				return nil, persistErr("load", fmt.Errorf("task %d extra: %w", id, err))
			}
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, persistErr("load", err)
	}
	return tasks, nil
}

// Save replaces the tasks table in a single transaction.
func (s *SQLiteStore) Save(ctx context.Context, tasks []models.Task) error {
	rows, err := Normalize(tasks)
	if err != nil {
		return persistErr("save", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return persistErr("save", fmt.Errorf("begin transaction: %w", err))
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM tasks`); err != nil {
		return persistErr("save", fmt.Errorf("clear tasks: %w", err))
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO tasks (id, position, name, recurrence, kind, audience, owner, status, timeslot, stock, capacity, extra) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return persistErr("save", fmt.Errorf("prepare insert: %w", err))
	}
	defer stmt.Close()

	for pos, t := range rows {
		var extra sql.NullString
		if len(t.Extra) > 0 {
			b, err := json.Marshal(t.Extra)
			if err != nil {
				return persistErr("save", fmt.Errorf("task %d extra: %w", t.ID, err))
			}
			extra = sql.NullString{String: string(b), Valid: true}
		}
		_, err := stmt.ExecContext(ctx,
			t.ID, pos, t.Name, string(t.Recurrence), string(t.Kind), string(t.Audience),
			t.Owner.String(), string(t.Status), t.Timeslot.String(), t.Stock, t.Capacity, extra,
		)
		if err != nil {
			return persistErr("save", fmt.Errorf("insert task %d: %w", t.ID, err))
		}
	}

	if err := tx.Commit(); err != nil {
		return persistErr("save", fmt.Errorf("commit transaction: %w", err))
	}
	return nil
}

// --- Archive Operations ---

// AppendArchive inserts archive entries in one transaction.
func (s *SQLiteStore) AppendArchive(ctx context.Context, entries []models.ArchiveEntry) error {
	if len(entries) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return persistErr("archive", fmt.Errorf("begin transaction: %w", err))
	}
	defer tx.Rollback()

	for _, e := range entries {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO archive (id, task_id, name, owner, timeslot, kind, recurrence, archived_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			e.ID, e.TaskID, e.Name, e.Owner, e.Timeslot, string(e.Kind), string(e.Recurrence), e.ArchivedAt.UTC(),
		)
		if err != nil {
			return persistErr("archive", fmt.Errorf("insert archive: %w", err))
		}
	}
	if err := tx.Commit(); err != nil {
		return persistErr("archive", fmt.Errorf("commit transaction: %w", err))
	}
	return nil
}

// ListArchive returns archived entries, newest first.
func (s *SQLiteStore) ListArchive(ctx context.Context, owner string, limit int) ([]models.ArchiveEntry, error) {
	query := `SELECT id, task_id, name, owner, timeslot, kind, recurrence, archived_at FROM archive`
	var args []interface{}
	if owner != "" {
		query += ` WHERE owner = ?`
		args = append(args, owner)
	}
	query += ` ORDER BY archived_at DESC, rowid DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, persistErr("history", fmt.Errorf("query archive: %w", err))
	}
	defer rows.Close()

	var entries []models.ArchiveEntry
	for rows.Next() {
		var e models.ArchiveEntry
		var slot, kind, recurrence sql.NullString
		if err := rows.Scan(&e.ID, &e.TaskID, &e.Name, &e.Owner, &slot, &kind, &recurrence, &e.ArchivedAt); err != nil {
			return nil, persistErr("history", fmt.Errorf("scan archive: %w", err))
		}
		e.Timeslot = slot.String
		e.Kind = models.Kind(kind.String)
		e.Recurrence = models.Recurrence(recurrence.String)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// --- Audit Operations ---

// AppendAudit writes one audit entry.
func (s *SQLiteStore) AppendAudit(ctx context.Context, e models.AuditEntry) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO audit (id, action, actor, inputs_hash, outcome, task_id, details, timestamp) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Action, e.Actor, e.InputsHash, e.Outcome, e.TaskID, e.Details, e.Timestamp.UTC(),
	)
	if err != nil {
		return persistErr("audit", fmt.Errorf("insert audit: %w", err))
	}
	return nil
}

var _ TaskStore = (*SQLiteStore)(nil)

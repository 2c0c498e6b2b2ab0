package store

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/fentz26/hogar/internal/models"
)

// FileStore keeps the board as JSON files in a directory: tasks.json holds
// the table, archive.jsonl and audit.jsonl are append-only logs.
type FileStore struct {
	mu  sync.Mutex
	dir string
}

// NewFileStore creates the data directory if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) path(name string) string {
	return filepath.Join(s.dir, name)
}

// Load reads tasks.json. A missing file is an empty board.
func (s *FileStore) Load(ctx context.Context) ([]models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := os.ReadFile(s.path("tasks.json"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, persistErr("load", err)
	}
	var tasks []models.Task
	if err := json.Unmarshal(b, &tasks); err != nil {
		return nil, persistErr("load", fmt.Errorf("decode tasks: %w", err))
	}
	return tasks, nil
}

// Save writes the table to a temporary file and renames it over tasks.json,
// so readers see either the old or the new table.
func (s *FileStore) Save(ctx context.Context, tasks []models.Task) error {
	rows, err := Normalize(tasks)
	if err != nil {
		return persistErr("save", err)
	}
	if rows == nil {
		rows = []models.Task{}
	}
	b, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		return persistErr("save", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tmp, err := os.CreateTemp(s.dir, "tasks-*.json")
	if err != nil {
		return persistErr("save", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		return persistErr("save", err)
	}
	if err := tmp.Close(); err != nil {
		return persistErr("save", err)
	}
	if err := os.Rename(tmp.Name(), s.path("tasks.json")); err != nil {
		return persistErr("save", err)
	}
	return nil
}

func (s *FileStore) appendLines(name string, values ...interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(s.path(name), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)
	enc := json.NewEncoder(w)
	for _, v := range values {
		if err := enc.Encode(v); err != nil {
			f.Close()
			return err
		}
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// AppendArchive appends entries to archive.jsonl.
func (s *FileStore) AppendArchive(ctx context.Context, entries []models.ArchiveEntry) error {
	if len(entries) == 0 {
		return nil
	}
	values := make([]interface{}, len(entries))
	for i, e := range entries {
		values[i] = e
	}
	return persistErr("archive", s.appendLines("archive.jsonl", values...))
}

// ListArchive reads archive.jsonl, newest first.
func (s *FileStore) ListArchive(ctx context.Context, owner string, limit int) ([]models.ArchiveEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Open(s.path("archive.jsonl"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, persistErr("history", err)
	}
	defer f.Close()

	var all []models.ArchiveEntry
	dec := json.NewDecoder(f)
	for dec.More() {
		var e models.ArchiveEntry
		if err := dec.Decode(&e); err != nil {
			return nil, persistErr("history", fmt.Errorf("decode archive: %w", err))
		}
		all = append(all, e)
	}
	return filterArchive(all, owner, limit), nil
}

// AppendAudit appends one entry to audit.jsonl.
func (s *FileStore) AppendAudit(ctx context.Context, e models.AuditEntry) error {
	return persistErr("audit", s.appendLines("audit.jsonl", e))
}

// Ping checks the data directory is still there.
func (s *FileStore) Ping(ctx context.Context) error {
	if _, err := os.Stat(s.dir); err != nil {
		return persistErr("ping", err)
	}
	return nil
}

func (s *FileStore) Close() error { return nil }

var _ TaskStore = (*FileStore)(nil)

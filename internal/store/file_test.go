package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fentz26/hogar/internal/models"
)

func TestFileStoreRoundTrip(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "board")
	s, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}
	ctx := context.Background()

	tasks, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Load on empty dir failed: %v", err)
	}
	if len(tasks) != 0 {
		t.Fatalf("Expected empty board, got %d", len(tasks))
	}

	if err := s.Save(ctx, sampleTable()); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	got, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("Expected 3 rows, got %d", len(got))
	}
	if !got[1].Owner.IsClosed() || !got[0].Owner.Is("Cris") {
		t.Errorf("Owners not preserved: %s, %s", got[0].Owner, got[1].Owner)
	}
	if got[2].Extra["note"] != "leash by the door" {
		t.Errorf("Extra not preserved: %v", got[2].Extra)
	}

	// No temp files left behind.
	matches, _ := filepath.Glob(filepath.Join(dir, "tasks-*.json"))
	if len(matches) != 0 {
		t.Errorf("Temp files left behind: %v", matches)
	}
}

func TestFileStoreCorruptTable(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "tasks.json"), []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	s, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}
	if _, err := s.Load(context.Background()); !IsPersistence(err) {
		t.Errorf("Expected persistence error, got %v", err)
	}
}

func TestFileStoreArchiveAndAudit(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}
	ctx := context.Background()
	now := time.Now().UTC()

	if err := s.AppendArchive(ctx, []models.ArchiveEntry{
		{ID: "a1", TaskID: 1, Name: "Dishwasher", Owner: "Cris", ArchivedAt: now},
		{ID: "a2", TaskID: 2, Name: "Hoover", Owner: "Papá", ArchivedAt: now},
	}); err != nil {
		t.Fatalf("AppendArchive failed: %v", err)
	}
	if err := s.AppendArchive(ctx, []models.ArchiveEntry{
		{ID: "a3", TaskID: 1, Name: "Dishwasher", Owner: "Cris", ArchivedAt: now.Add(time.Hour)},
	}); err != nil {
		t.Fatalf("AppendArchive failed: %v", err)
	}

	all, err := s.ListArchive(ctx, "", 0)
	if err != nil {
		t.Fatalf("ListArchive failed: %v", err)
	}
	if len(all) != 3 || all[0].ID != "a3" {
		t.Errorf("Expected newest first, got %+v", all)
	}
	cris, _ := s.ListArchive(ctx, "Cris", 0)
	if len(cris) != 2 {
		t.Errorf("Expected 2 entries for Cris, got %d", len(cris))
	}

	if err := s.AppendAudit(ctx, models.AuditEntry{ID: "e1", Action: "reset", Outcome: "ok", Timestamp: now}); err != nil {
		t.Fatalf("AppendAudit failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(s.dir, "audit.jsonl")); err != nil {
		t.Errorf("audit log missing: %v", err)
	}
	if err := s.Ping(ctx); err != nil {
		t.Errorf("Ping failed: %v", err)
	}
}

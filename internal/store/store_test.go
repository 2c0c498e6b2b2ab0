package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fentz26/hogar/internal/models"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleTable() []models.Task {
	return []models.Task{
		{
			ID: 1, Name: "Dishwasher", Recurrence: models.RecurrencePersistent, Kind: models.KindSimple,
			Audience: models.AudienceEveryone, Owner: models.OwnedBy("Cris"), Status: models.TaskStatusDone,
			Timeslot: models.Slot("Noche"), Stock: 1, Capacity: 1,
		},
		{
			ID: 2, Name: "Walk the dog", Recurrence: models.RecurrencePersistent, Kind: models.KindMultiSlot,
			Audience: models.AudienceGroupB, Owner: models.Closed(), Status: models.TaskStatusPending,
			Timeslot: models.NoSlot(), Stock: 0, Capacity: 1,
		},
		{
			ID: 3, Name: "Walk the dog", Recurrence: models.RecurrenceOneOff, Kind: models.KindSimple,
			Audience: models.AudienceGroupB, Owner: models.OwnedBy("Jesús"), Status: models.TaskStatusPending,
			Timeslot: models.Slot("Tarde"), Stock: 1, Capacity: 1,
			Extra: map[string]string{models.ExtraOrigin: "2", "note": "leash by the door"},
		},
	}
}

func TestNew(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "test.db")

	s, err := New(dbPath)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("Database file was not created")
	}
	if err := s.Ping(context.Background()); err != nil {
		t.Errorf("Ping failed: %v", err)
	}
}

func TestSQLiteRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	empty, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(empty) != 0 {
		t.Fatalf("Expected empty table, got %d rows", len(empty))
	}

	want := sampleTable()
	if err := s.Save(ctx, want); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	got, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("Expected %d rows, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i].ID != want[i].ID || got[i].Name != want[i].Name {
			t.Errorf("Row %d: expected %d/%s, got %d/%s", i, want[i].ID, want[i].Name, got[i].ID, got[i].Name)
		}
		if got[i].Owner != want[i].Owner {
			t.Errorf("Row %d: expected owner %s, got %s", i, want[i].Owner, got[i].Owner)
		}
		if got[i].Timeslot != want[i].Timeslot {
			t.Errorf("Row %d: expected slot %s, got %s", i, want[i].Timeslot, got[i].Timeslot)
		}
		if got[i].Stock != want[i].Stock || got[i].Capacity != want[i].Capacity {
			t.Errorf("Row %d: expected stock %d/%d, got %d/%d", i, want[i].Stock, want[i].Capacity, got[i].Stock, got[i].Capacity)
		}
	}
	if !got[1].Owner.IsClosed() {
		t.Error("Closed sentinel was not preserved")
	}
	if got[2].Extra["note"] != "leash by the door" || got[2].Extra[models.ExtraOrigin] != "2" {
		t.Errorf("Extra columns not preserved: %v", got[2].Extra)
	}

	// A second save replaces the table rather than merging.
	if err := s.Save(ctx, want[:1]); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	got, _ = s.Load(ctx)
	if len(got) != 1 {
		t.Errorf("Expected 1 row after replace, got %d", len(got))
	}
}

func TestSQLiteSaveRejectsDuplicateIDs(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.Save(ctx, sampleTable()); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	dup := sampleTable()
	dup[1].ID = 1
	err := s.Save(ctx, dup)
	if !IsPersistence(err) {
		t.Fatalf("Expected persistence error, got %v", err)
	}
	if !errors.Is(err, ErrDuplicateID) {
		t.Errorf("Expected ErrDuplicateID, got %v", err)
	}

	// Previous table is still readable.
	got, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(got) != 3 {
		t.Errorf("Expected previous 3 rows, got %d", len(got))
	}
}

func TestSQLiteLoadLegacyText(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.db.Exec(`INSERT INTO tasks (id, position, name, recurrence, kind, audience, owner, status, timeslot, stock, capacity)
		VALUES (7, 0, 'Tender ropa', 'Persistente', 'Contador', 'Hijos', 'Sin asignar', 'Pendiente', '-', 2, NULL)`)
	if err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	got, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("Expected 1 row, got %d", len(got))
	}
	task := got[0]
	if task.Kind != models.KindCounter || task.Audience != models.AudienceGroupB {
		t.Errorf("Legacy enums not parsed: %s %s", task.Kind, task.Audience)
	}
	if !task.Owner.IsUnowned() || !task.Timeslot.IsNone() {
		t.Errorf("Expected unowned with no slot, got %s/%s", task.Owner, task.Timeslot)
	}
	if task.Capacity != 0 {
		t.Errorf("Missing capacity should read as 0, got %d", task.Capacity)
	}
}

func TestNormalize(t *testing.T) {
	in := []models.Task{
		{ID: 1, Name: " ", Kind: models.KindCounter, Stock: -4, Owner: models.Unowned(), Status: models.TaskStatusDone, Timeslot: models.Slot("Tarde")},
		{ID: 2, Name: "Hoover", Kind: models.KindSimple, Stock: 7, Owner: models.OwnedBy("Mamá")},
	}
	out, err := Normalize(in)
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	if out[0].Name != "-" || out[0].Stock != 0 {
		t.Errorf("Expected placeholder name and zero stock, got %q/%d", out[0].Name, out[0].Stock)
	}
	if out[0].Status != models.TaskStatusPending || !out[0].Timeslot.IsNone() {
		t.Errorf("Unowned row should be pending with no slot, got %s/%s", out[0].Status, out[0].Timeslot)
	}
	if out[0].Recurrence != models.RecurrencePersistent || out[0].Audience != models.AudienceEveryone {
		t.Errorf("Expected default enums, got %s/%s", out[0].Recurrence, out[0].Audience)
	}
	if out[1].Stock != 1 || out[1].Capacity != 1 {
		t.Errorf("Simple row should carry stock 1, got %d/%d", out[1].Stock, out[1].Capacity)
	}
	if in[0].Stock != -4 {
		t.Error("Normalize mutated its input")
	}
}

func TestSQLiteArchive(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 21, 0, 0, 0, time.UTC)

	entries := []models.ArchiveEntry{
		{ID: "a1", TaskID: 1, Name: "Dishwasher", Owner: "Cris", Timeslot: "Noche", Kind: models.KindSimple, Recurrence: models.RecurrencePersistent, ArchivedAt: base},
		{ID: "a2", TaskID: 4, Name: "Laundry Load", Owner: "María", Timeslot: "Tarde", Kind: models.KindSimple, Recurrence: models.RecurrenceOneOff, ArchivedAt: base.Add(time.Hour)},
		{ID: "a3", TaskID: 1, Name: "Dishwasher", Owner: "Cris", Timeslot: "Noche", Kind: models.KindSimple, Recurrence: models.RecurrencePersistent, ArchivedAt: base.Add(24 * time.Hour)},
	}
	if err := s.AppendArchive(ctx, entries); err != nil {
		t.Fatalf("AppendArchive failed: %v", err)
	}
	if err := s.AppendArchive(ctx, nil); err != nil {
		t.Fatalf("AppendArchive(nil) failed: %v", err)
	}

	all, err := s.ListArchive(ctx, "", 0)
	if err != nil {
		t.Fatalf("ListArchive failed: %v", err)
	}
	if len(all) != 3 || all[0].ID != "a3" || all[2].ID != "a1" {
		t.Fatalf("Expected newest first, got %+v", all)
	}

	mine, err := s.ListArchive(ctx, "Cris", 1)
	if err != nil {
		t.Fatalf("ListArchive failed: %v", err)
	}
	if len(mine) != 1 || mine[0].ID != "a3" {
		t.Errorf("Expected latest Cris entry, got %+v", mine)
	}
}

func TestSQLiteAudit(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	err := s.AppendAudit(ctx, models.AuditEntry{
		ID: "e1", Action: "assign", Actor: "Cris", InputsHash: "abc", Outcome: "ok", TaskID: 1, Timestamp: time.Now(),
	})
	if err != nil {
		t.Fatalf("AppendAudit failed: %v", err)
	}

	var count int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM audit WHERE action = 'assign'`).Scan(&count); err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected 1 audit row, got %d", count)
	}
}

func TestOpen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	s, err := Open(ctx, Options{Driver: DriverSQLite, Path: filepath.Join(dir, "hogar.db")})
	if err != nil {
		t.Fatalf("Open sqlite failed: %v", err)
	}
	s.Close()

	f, err := Open(ctx, Options{Driver: DriverFile, Path: filepath.Join(dir, "files")})
	if err != nil {
		t.Fatalf("Open file failed: %v", err)
	}
	if _, ok := f.(*FileStore); !ok {
		t.Errorf("Expected *FileStore, got %T", f)
	}

	if _, err := Open(ctx, Options{Driver: "postgres"}); err == nil {
		t.Error("Expected error for unknown driver")
	}
	if _, err := Open(ctx, Options{Driver: DriverFile}); err == nil {
		t.Error("Expected error for missing path")
	}
}

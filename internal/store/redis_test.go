package store

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/fentz26/hogar/internal/models"
)

func newRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	s := NewRedisStore(client, "test")
	t.Cleanup(func() { _ = s.Close() })
	return s, mr
}

func TestRedisStoreRoundTrip(t *testing.T) {
	s, mr := newRedisStore(t)
	ctx := context.Background()

	tasks, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Load on empty server failed: %v", err)
	}
	if len(tasks) != 0 {
		t.Fatalf("Expected empty board, got %d", len(tasks))
	}

	if err := s.Save(ctx, sampleTable()); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if !mr.Exists("test:tasks") {
		t.Fatal("Expected test:tasks key")
	}

	got, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("Expected 3 rows, got %d", len(got))
	}
	if !got[1].Owner.IsClosed() || got[2].Timeslot.String() != "Tarde" {
		t.Errorf("Sentinels not preserved: %s %s", got[1].Owner, got[2].Timeslot)
	}
}

func TestRedisStoreArchive(t *testing.T) {
	s, _ := newRedisStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	err := s.AppendArchive(ctx, []models.ArchiveEntry{
		{ID: "a1", Owner: "Cris", Name: "Dishwasher", ArchivedAt: now},
		{ID: "a2", Owner: "María", Name: "Laundry Load", ArchivedAt: now},
		{ID: "a3", Owner: "Cris", Name: "Dishwasher", ArchivedAt: now.Add(time.Hour)},
	})
	if err != nil {
		t.Fatalf("AppendArchive failed: %v", err)
	}

	got, err := s.ListArchive(ctx, "Cris", 1)
	if err != nil {
		t.Fatalf("ListArchive failed: %v", err)
	}
	if len(got) != 1 || got[0].ID != "a3" {
		t.Errorf("Expected a3, got %+v", got)
	}
}

func TestRedisStoreUnavailable(t *testing.T) {
	s, mr := newRedisStore(t)
	ctx := context.Background()
	mr.Close()

	err := s.Save(ctx, sampleTable())
	if !IsPersistence(err) {
		t.Errorf("Expected persistence error, got %v", err)
	}
	if err := s.AppendAudit(ctx, models.AuditEntry{ID: "x"}); !IsPersistence(err) {
		t.Errorf("Expected persistence error from audit, got %v", err)
	}
}

package scheduler

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/fentz26/hogar/internal/board"
	"github.com/fentz26/hogar/internal/controlplane"
)

// fakeResetter records the actors it was called with.
type fakeResetter struct {
	mu     sync.Mutex
	actors []string
	err    error
}

func (f *fakeResetter) ResetDay(ctx context.Context, user string) (controlplane.ResetResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.actors = append(f.actors, user)
	return controlplane.ResetResult{ResetReport: board.ResetReport{Kept: 3}}, f.err
}

func (f *fakeResetter) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.actors)
}

func quietLogger() *log.Logger {
	l := log.New()
	l.SetOutput(io.Discard)
	return l
}

func TestNextAfter(t *testing.T) {
	cfg := Config{ResetAt: "04:30"}
	loc := time.UTC

	before := time.Date(2026, 3, 10, 2, 0, 0, 0, loc)
	if got := cfg.NextAfter(before); !got.Equal(time.Date(2026, 3, 10, 4, 30, 0, 0, loc)) {
		t.Errorf("expected same day, got %v", got)
	}

	exact := time.Date(2026, 3, 10, 4, 30, 0, 0, loc)
	if got := cfg.NextAfter(exact); !got.Equal(time.Date(2026, 3, 11, 4, 30, 0, 0, loc)) {
		t.Errorf("expected next day, got %v", got)
	}

	endOfMonth := time.Date(2026, 3, 31, 23, 0, 0, 0, loc)
	if got := cfg.NextAfter(endOfMonth); !got.Equal(time.Date(2026, 4, 1, 4, 30, 0, 0, loc)) {
		t.Errorf("expected April 1, got %v", got)
	}
}

func TestValidate(t *testing.T) {
	if DefaultConfig().Enabled() {
		t.Error("automatic reset should be off by default")
	}
	if err := DefaultConfig().Validate(); err != nil {
		t.Errorf("disabled config should be valid: %v", err)
	}
	if err := (Config{ResetAt: "25:00", Actor: "Mamá"}).Validate(); err == nil {
		t.Error("expected error for bad time")
	}
	if err := (Config{ResetAt: "04:00"}).Validate(); err == nil {
		t.Error("expected error without actor")
	}
	if err := (Config{ResetAt: "04:00", Actor: "Mamá"}).Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestTickRunsOncePerDay(t *testing.T) {
	r := &fakeResetter{}
	sch := New(r, Config{ResetAt: "04:00", Actor: "Mamá"}, quietLogger())

	clock := time.Date(2026, 3, 10, 3, 59, 0, 0, time.UTC)
	sch.now = func() time.Time { return clock }
	sch.next = sch.config.NextAfter(clock)

	sch.tick(context.Background())
	if r.calls() != 0 {
		t.Fatalf("reset ran early")
	}

	clock = clock.Add(time.Minute)
	sch.tick(context.Background())
	sch.tick(context.Background())
	if r.calls() != 1 {
		t.Fatalf("expected 1 reset, got %d", r.calls())
	}
	if r.actors[0] != "Mamá" {
		t.Errorf("expected actor Mamá, got %s", r.actors[0])
	}

	stats := sch.Stats()
	if stats.Runs != 1 {
		t.Errorf("expected 1 run, got %d", stats.Runs)
	}
	if !stats.Next.Equal(time.Date(2026, 3, 11, 4, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected next %v", stats.Next)
	}

	clock = clock.Add(24 * time.Hour)
	sch.tick(context.Background())
	if r.calls() != 2 {
		t.Errorf("expected 2 resets, got %d", r.calls())
	}
}

func TestTickRecordsFailure(t *testing.T) {
	r := &fakeResetter{err: errors.New("store down")}
	sch := New(r, Config{ResetAt: "04:00", Actor: "Mamá"}, quietLogger())

	clock := time.Date(2026, 3, 10, 5, 0, 0, 0, time.UTC)
	sch.now = func() time.Time { return clock }
	sch.next = clock

	sch.tick(context.Background())
	stats := sch.Stats()
	if stats.LastErr != "store down" {
		t.Errorf("expected last error, got %q", stats.LastErr)
	}
	if !stats.Next.After(clock) {
		t.Errorf("a failed reset should still move to the next day, got %v", stats.Next)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	r := &fakeResetter{}
	sch := New(r, Config{ResetAt: "04:00", Actor: "Mamá", Poll: 5 * time.Millisecond}, quietLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sch.Run(ctx) }()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run returned %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop")
	}
}

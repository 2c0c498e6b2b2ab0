// Package store provides persistence for the chore board.
//
// A TaskStore hands out the whole table on Load and replaces it on Save.
// There is no row-level update and no merge: the last Save wins.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/fentz26/hogar/internal/models"
)

// TaskStore is the persistence boundary of the board.
type TaskStore interface {
	// Load returns the table in stored order.
	Load(ctx context.Context) ([]models.Task, error)
	// Save replaces the whole table. A failed Save leaves the previous
	// table readable.
	Save(ctx context.Context, tasks []models.Task) error

	// AppendArchive records completed work at reset time.
	AppendArchive(ctx context.Context, entries []models.ArchiveEntry) error
	// ListArchive returns archived entries, newest first. An empty owner
	// matches everybody; limit <= 0 means no limit.
	ListArchive(ctx context.Context, owner string, limit int) ([]models.ArchiveEntry, error)
	// AppendAudit records one mutating action.
	AppendAudit(ctx context.Context, entry models.AuditEntry) error

	Ping(ctx context.Context) error
	Close() error
}

// PersistenceError reports that the backing medium rejected a read or write.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

func persistErr(op string, err error) error {
	if err == nil {
		return nil
	}
	var pe *PersistenceError
	if errors.As(err, &pe) {
		return err
	}
	return &PersistenceError{Op: op, Err: err}
}

// IsPersistence reports whether err came from the backing medium.
func IsPersistence(err error) bool {
	var pe *PersistenceError
	return errors.As(err, &pe)
}

// ErrDuplicateID is returned by Save when two rows share an id.
var ErrDuplicateID = errors.New("duplicate task id")

// Normalize coerces a table into its storable shape: negative stock becomes
// 0, simple records carry a stock of 1, blank text becomes "-", and an
// unassigned record is pending with no slot. It returns a new slice.
func Normalize(tasks []models.Task) ([]models.Task, error) {
	out := make([]models.Task, len(tasks))
	seen := make(map[int]bool, len(tasks))
	for i, t := range tasks {
		t = t.Clone()
		if seen[t.ID] {
			return nil, fmt.Errorf("%w: %d", ErrDuplicateID, t.ID)
		}
		seen[t.ID] = true

		if strings.TrimSpace(t.Name) == "" {
			t.Name = models.TimeslotNoneText
		}
		if t.Recurrence == "" {
			t.Recurrence = models.RecurrencePersistent
		}
		if t.Kind == "" {
			t.Kind = models.KindSimple
		}
		if t.Audience == "" {
			t.Audience = models.AudienceEveryone
		}
		if t.Status == "" {
			t.Status = models.TaskStatusPending
		}
		if t.Stock < 0 {
			t.Stock = 0
		}
		if t.Capacity < 0 {
			t.Capacity = 0
		}
		if !t.Kind.Stocked() {
			t.Stock = 1
			t.Capacity = 1
		}
		if t.Owner.IsUnowned() {
			t.Status = models.TaskStatusPending
			t.Timeslot = models.NoSlot()
		}
		out[i] = t
	}
	return out, nil
}

// decodeTask rebuilds a record from its stored text columns. Missing
// numbers read as 0 and missing text as the sentinel defaults.
func decodeTask(id int64, name, recurrence, kind, audience, owner, status, slot string, stock, capacity int64) (models.Task, error) {
	t := models.Task{
		ID:       int(id),
		Name:     name,
		Owner:    models.ParseOwner(owner),
		Timeslot: models.Slot(slot),
		Stock:    int(stock),
		Capacity: int(capacity),
	}
	var err error
	if t.Recurrence, err = orDefault(recurrence, models.RecurrencePersistent, models.ParseRecurrence); err != nil {
		return t, err
	}
	if t.Kind, err = orDefault(kind, models.KindSimple, models.ParseKind); err != nil {
		return t, err
	}
	if t.Audience, err = orDefault(audience, models.AudienceEveryone, models.ParseAudience); err != nil {
		return t, err
	}
	if t.Status, err = orDefault(status, models.TaskStatusPending, models.ParseStatus); err != nil {
		return t, err
	}
	if t.Name == "" {
		t.Name = models.TimeslotNoneText
	}
	return t, nil
}

func orDefault[T any](s string, def T, parse func(string) (T, error)) (T, error) {
	if strings.TrimSpace(s) == "" || strings.TrimSpace(s) == "-" {
		return def, nil
	}
	return parse(s)
}

func filterArchive(entries []models.ArchiveEntry, owner string, limit int) []models.ArchiveEntry {
	var out []models.ArchiveEntry
	for i := len(entries) - 1; i >= 0; i-- {
		if owner != "" && entries[i].Owner != owner {
			continue
		}
		out = append(out, entries[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}

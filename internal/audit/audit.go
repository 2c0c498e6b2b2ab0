// Package audit records mutating board actions and builds archive entries
// for completed work.
package audit

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"

	"github.com/fentz26/hogar/internal/models"
)

// Sink is where records end up. store.TaskStore satisfies it.
type Sink interface {
	AppendAudit(ctx context.Context, entry models.AuditEntry) error
	AppendArchive(ctx context.Context, entries []models.ArchiveEntry) error
}

// Outcomes.
const (
	OutcomeOK       = "ok"
	OutcomeRejected = "rejected"
	OutcomeFailed   = "failed"
)

// Writer writes audit records for state-mutating actions.
type Writer struct {
	sink Sink
	now  func() time.Time
}

// NewWriter creates a new audit writer.
func NewWriter(sink Sink) *Writer {
	return &Writer{sink: sink, now: time.Now}
}

// Record writes an entry for action performed by actor.
func (w *Writer) Record(ctx context.Context, action, actor string, inputs interface{}, outcome string, taskID int, details string) (models.AuditEntry, error) {
	entry := models.AuditEntry{
		ID:         uuid.New().String(),
		Action:     action,
		Actor:      actor,
		InputsHash: HashInputs(inputs),
		Outcome:    outcome,
		TaskID:     taskID,
		Details:    details,
		Timestamp:  w.now().UTC(),
	}
	return entry, w.sink.AppendAudit(ctx, entry)
}

// Archive stores one entry per completed record.
func (w *Writer) Archive(ctx context.Context, completed []models.Task) ([]models.ArchiveEntry, error) {
	entries := ArchiveEntries(completed, w.now())
	if len(entries) == 0 {
		return nil, nil
	}
	return entries, w.sink.AppendArchive(ctx, entries)
}

// ArchiveEntries converts completed records into archive entries stamped at.
// Records without a user owner are skipped.
func ArchiveEntries(completed []models.Task, at time.Time) []models.ArchiveEntry {
	var out []models.ArchiveEntry
	for _, t := range completed {
		user, ok := t.Owner.User()
		if !ok {
			continue
		}
		out = append(out, models.ArchiveEntry{
			ID:         uuid.New().String(),
			TaskID:     t.ID,
			Name:       t.Name,
			Owner:      user,
			Timeslot:   t.Timeslot.String(),
			Kind:       t.Kind,
			Recurrence: t.Recurrence,
			ArchivedAt: at.UTC(),
		})
	}
	return out
}

// HashInputs creates a SHA256 hash of the inputs for reproducibility.
func HashInputs(inputs interface{}) string {
	data, err := sonic.ConfigStd.Marshal(inputs)
	if err != nil {
		return "hash_error"
	}
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}

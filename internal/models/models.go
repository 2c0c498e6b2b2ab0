// Package models defines the core domain types for the chore board.
package models

import (
	"fmt"
	"strings"
	"time"
)

// Recurrence says whether a record survives the daily reset.
type Recurrence string

const (
	RecurrencePersistent Recurrence = "persistent"
	RecurrenceOneOff     Recurrence = "one-off"
)

// Kind selects the assignment semantics of a record.
type Kind string

const (
	KindSimple    Kind = "simple"
	KindCounter   Kind = "counter"
	KindMultiSlot Kind = "multi-slot"
)

// Stocked reports whether the kind carries a claimable stock.
func (k Kind) Stocked() bool {
	return k == KindCounter || k == KindMultiSlot
}

// Audience is the group allowed to claim a task.
type Audience string

const (
	AudienceGroupA   Audience = "group-a"
	AudienceGroupB   Audience = "group-b"
	AudienceEveryone Audience = "everyone"
)

// TaskStatus represents the completion state of a task.
type TaskStatus string

const (
	TaskStatusPending TaskStatus = "pending"
	TaskStatusDone    TaskStatus = "done"
)

// Task is a single row of the board. Templates and instances share the
// shape; Recurrence and Kind together tell them apart.
type Task struct {
	ID         int               `json:"id"`
	Name       string            `json:"name"`
	Recurrence Recurrence        `json:"recurrence"`
	Kind       Kind              `json:"kind"`
	Audience   Audience          `json:"audience"`
	Owner      Owner             `json:"owner"`
	Status     TaskStatus        `json:"status"`
	Timeslot   Timeslot          `json:"timeslot"`
	Stock      int               `json:"stock"`
	Capacity   int               `json:"capacity"`
	Extra      map[string]string `json:"extra,omitempty"`
}

// Clone returns a deep copy of the task.
func (t Task) Clone() Task {
	if t.Extra != nil {
		extra := make(map[string]string, len(t.Extra))
		for k, v := range t.Extra {
			extra[k] = v
		}
		t.Extra = extra
	}
	return t
}

// ExtraOrigin marks instances with the id of the template they came from.
// Refunds and stock balances resolve the origin by this id.
const ExtraOrigin = "origin"

// ArchiveEntry is a snapshot of a completed record taken at reset time.
type ArchiveEntry struct {
	ID         string     `json:"id"`
	TaskID     int        `json:"task_id"`
	Name       string     `json:"name"`
	Owner      string     `json:"owner"`
	Timeslot   string     `json:"timeslot"`
	Kind       Kind       `json:"kind"`
	Recurrence Recurrence `json:"recurrence"`
	ArchivedAt time.Time  `json:"archived_at"`
}

// AuditEntry records one state-mutating action.
type AuditEntry struct {
	ID         string    `json:"id"`
	Action     string    `json:"action"`
	Actor      string    `json:"actor"`
	InputsHash string    `json:"inputs_hash"`
	Outcome    string    `json:"outcome"`
	TaskID     int       `json:"task_id,omitempty"`
	Details    string    `json:"details,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// ParseRecurrence accepts both the canonical values and the legacy sheet
// vocabulary.
func ParseRecurrence(s string) (Recurrence, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "persistent", "persistente":
		return RecurrencePersistent, nil
	case "one-off", "oneoff", "puntual":
		return RecurrenceOneOff, nil
	}
	return "", fmt.Errorf("unknown recurrence %q", s)
}

// ParseKind parses a task kind.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "simple":
		return KindSimple, nil
	case "counter", "contador":
		return KindCounter, nil
	case "multi-slot", "multislot", "multi-franja":
		return KindMultiSlot, nil
	}
	return "", fmt.Errorf("unknown kind %q", s)
}

// ParseAudience parses an audience.
func ParseAudience(s string) (Audience, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "group-a", "groupa", "a", "padres", "parents":
		return AudienceGroupA, nil
	case "group-b", "groupb", "b", "hijos", "kids":
		return AudienceGroupB, nil
	case "everyone", "todos", "all":
		return AudienceEveryone, nil
	}
	return "", fmt.Errorf("unknown audience %q", s)
}

// ParseStatus parses a completion status.
func ParseStatus(s string) (TaskStatus, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pending", "pendiente":
		return TaskStatusPending, nil
	case "done", "hecho":
		return TaskStatusDone, nil
	}
	return "", fmt.Errorf("unknown status %q", s)
}

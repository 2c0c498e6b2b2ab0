package board

import (
	"fmt"
	"strings"

	"github.com/fentz26/hogar/internal/models"
)

// TemplateSpec is an admin request for a new catalog entry.
type TemplateSpec struct {
	Name       string            `json:"name"`
	Recurrence models.Recurrence `json:"recurrence"`
	Kind       models.Kind       `json:"kind"`
	Audience   models.Audience   `json:"audience"`
	Stock      int               `json:"stock"`
	Extra      map[string]string `json:"extra,omitempty"`
}

// Validate rejects malformed templates before they reach the table.
func (s TemplateSpec) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return fmt.Errorf("%w: name required", ErrInvalidRecord)
	}
	switch s.Recurrence {
	case models.RecurrencePersistent, models.RecurrenceOneOff:
	default:
		return fmt.Errorf("%w: unknown recurrence %q", ErrInvalidRecord, s.Recurrence)
	}
	switch s.Kind {
	case models.KindSimple, models.KindCounter, models.KindMultiSlot:
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidRecord, s.Kind)
	}
	switch s.Audience {
	case models.AudienceGroupA, models.AudienceGroupB, models.AudienceEveryone:
	default:
		return fmt.Errorf("%w: unknown audience %q", ErrInvalidRecord, s.Audience)
	}
	if s.Stock < 0 {
		return fmt.Errorf("%w: stock must not be negative", ErrInvalidRecord)
	}
	return nil
}

// AddTemplate appends a new unassigned record built from spec.
func AddTemplate(tasks []models.Task, spec TemplateSpec) ([]models.Task, models.Task, error) {
	if err := spec.Validate(); err != nil {
		return tasks, models.Task{}, err
	}
	stock := spec.Stock
	if !spec.Kind.Stocked() {
		stock = 1
	}
	t := models.Task{
		ID:         NextID(tasks),
		Name:       strings.TrimSpace(spec.Name),
		Recurrence: spec.Recurrence,
		Kind:       spec.Kind,
		Audience:   spec.Audience,
		Owner:      models.Unowned(),
		Status:     models.TaskStatusPending,
		Timeslot:   models.NoSlot(),
		Stock:      stock,
		Capacity:   stock,
		Extra:      spec.Extra,
	}
	out := append(clone(tasks), t.Clone())
	return out, t, nil
}

// AdjustStock adds delta units to a stocked template. Capacity moves with
// the stock so the conservation balance is re-based.
func AdjustStock(tasks []models.Task, id, delta int) ([]models.Task, models.Task, error) {
	i := indexOf(tasks, id)
	if i < 0 {
		return tasks, models.Task{}, ErrTaskNotFound
	}
	return setStock(tasks, i, tasks[i].Stock+delta)
}

// SetStock sets a stocked template's remaining units to value.
func SetStock(tasks []models.Task, id, value int) ([]models.Task, models.Task, error) {
	i := indexOf(tasks, id)
	if i < 0 {
		return tasks, models.Task{}, ErrTaskNotFound
	}
	return setStock(tasks, i, value)
}

func setStock(tasks []models.Task, i, value int) ([]models.Task, models.Task, error) {
	if !tasks[i].Kind.Stocked() {
		return tasks, models.Task{}, ErrNotStocked
	}
	if value < 0 {
		return tasks, models.Task{}, fmt.Errorf("%w: stock would drop to %d", ErrInvalidRecord, value)
	}
	out := clone(tasks)
	t := &out[i]
	t.Capacity += value - t.Stock
	t.Stock = value
	if t.Owner.IsClosed() && t.Stock > 0 {
		t.Owner = models.Unowned()
	}
	if t.Kind == models.KindMultiSlot && t.Stock == 0 && t.Owner.IsUnowned() {
		t.Owner = models.Closed()
	}
	return out, t.Clone(), nil
}

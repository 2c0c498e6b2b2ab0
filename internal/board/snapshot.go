package board

import (
	"strconv"

	"github.com/fentz26/hogar/internal/models"
)

func clone(tasks []models.Task) []models.Task {
	out := make([]models.Task, len(tasks))
	for i, t := range tasks {
		out[i] = t.Clone()
	}
	return out
}

func indexOf(tasks []models.Task, id int) int {
	for i := range tasks {
		if tasks[i].ID == id {
			return i
		}
	}
	return -1
}

// Find returns the record with the given id.
func Find(tasks []models.Task, id int) (models.Task, bool) {
	if i := indexOf(tasks, id); i >= 0 {
		return tasks[i].Clone(), true
	}
	return models.Task{}, false
}

// NextID returns max(id)+1, or 1 for an empty table.
func NextID(tasks []models.Task) int {
	max := 0
	for _, t := range tasks {
		if t.ID > max {
			max = t.ID
		}
	}
	return max + 1
}

// originIndex finds the stocked template an instance was spawned from, or
// -1 when t is not an instance. The origin marker names the template by id;
// legacy rows without one fall back to the first stocked template with the
// same name.
func originIndex(tasks []models.Task, t models.Task) int {
	if t.Recurrence != models.RecurrenceOneOff || t.Kind != models.KindSimple {
		return -1
	}
	if raw := t.Extra[models.ExtraOrigin]; raw != "" {
		id, err := strconv.Atoi(raw)
		if err != nil {
			return -1
		}
		if o := indexOf(tasks, id); o >= 0 && tasks[o].Kind.Stocked() {
			return o
		}
		return -1
	}
	for o, tmpl := range tasks {
		if tmpl.Name == t.Name && tmpl.Kind.Stocked() {
			return o
		}
	}
	return -1
}

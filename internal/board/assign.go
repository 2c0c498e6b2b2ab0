package board

import (
	"strconv"
	"strings"

	"github.com/fentz26/hogar/internal/models"
)

// Assignment describes the unit of work a successful Assign handed out.
type Assignment struct {
	TemplateID int  `json:"template_id"`
	TaskID     int  `json:"task_id"`
	Spawned    bool `json:"spawned"`
	Closed     bool `json:"closed"`
	StockLeft  int  `json:"stock_left"`
}

// Assign gives user one unit of the template id in the given slot.
//
// A simple template is claimed in place. Counter and multi-slot templates
// lose one unit of stock and a one-off instance owned by user is appended;
// a multi-slot template that runs out is closed so it leaves the free list.
// On error the input is returned untouched.
func Assign(tasks []models.Task, id int, user string, slot models.Timeslot) ([]models.Task, Assignment, error) {
	user = strings.TrimSpace(user)
	if user == "" {
		return tasks, Assignment{}, ErrNoUser
	}
	i := indexOf(tasks, id)
	if i < 0 {
		return tasks, Assignment{}, ErrTaskNotFound
	}
	if t := tasks[i]; t.Kind.Stocked() && (t.Owner.IsClosed() || t.Stock <= 0) {
		return tasks, Assignment{}, ErrStockExhausted
	}
	if !tasks[i].Owner.IsUnowned() {
		return tasks, Assignment{}, ErrNotAssignable
	}

	out := clone(tasks)
	tmpl := &out[i]

	if !tmpl.Kind.Stocked() {
		tmpl.Owner = models.OwnedBy(user)
		tmpl.Timeslot = slot
		tmpl.Status = models.TaskStatusPending
		tmpl.Stock = 1
		return out, Assignment{TemplateID: id, TaskID: id}, nil
	}

	if tmpl.Stock <= 0 {
		return tasks, Assignment{}, ErrStockExhausted
	}
	tmpl.Stock--

	res := Assignment{TemplateID: id, Spawned: true, StockLeft: tmpl.Stock}
	if tmpl.Kind == models.KindMultiSlot && tmpl.Stock == 0 {
		tmpl.Owner = models.Closed()
		res.Closed = true
	}

	inst := models.Task{
		ID:         NextID(out),
		Name:       tmpl.Name,
		Recurrence: models.RecurrenceOneOff,
		Kind:       models.KindSimple,
		Audience:   tmpl.Audience,
		Owner:      models.OwnedBy(user),
		Status:     models.TaskStatusPending,
		Timeslot:   slot,
		Stock:      1,
		Capacity:   1,
		Extra:      map[string]string{models.ExtraOrigin: strconv.Itoa(tmpl.ID)},
	}
	out = append(out, inst)
	res.TaskID = inst.ID
	return out, res, nil
}

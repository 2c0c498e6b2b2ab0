package board

import "github.com/fentz26/hogar/internal/models"

// Complete marks an owned record done. Completing a done record is a no-op.
func Complete(tasks []models.Task, id int) ([]models.Task, error) {
	return setStatus(tasks, id, models.TaskStatusDone)
}

// Undo moves a done record back to pending so mistakes can be corrected.
func Undo(tasks []models.Task, id int) ([]models.Task, error) {
	return setStatus(tasks, id, models.TaskStatusPending)
}

func setStatus(tasks []models.Task, id int, status models.TaskStatus) ([]models.Task, error) {
	i := indexOf(tasks, id)
	if i < 0 {
		return tasks, ErrTaskNotFound
	}
	if _, ok := tasks[i].Owner.User(); !ok {
		return tasks, ErrNotAssigned
	}
	out := clone(tasks)
	out[i].Status = status
	return out, nil
}

// Released reports what Release did.
type Released struct {
	TaskID     int  `json:"task_id"`
	Deleted    bool `json:"deleted"`
	RefundedTo int  `json:"refunded_to,omitempty"`
	Reopened   bool `json:"reopened,omitempty"`
}

// Release hands a pending record back.
//
// One-off records are deleted. When the record was spawned from a stocked
// template and RefundOnRelease is set, its unit goes back to that template,
// reopening a closed multi-slot. Persistent records are reverted in place to
// unassigned with no slot, keeping their status.
func Release(tasks []models.Task, id int, policy Policy) ([]models.Task, Released, error) {
	i := indexOf(tasks, id)
	if i < 0 {
		return tasks, Released{}, ErrTaskNotFound
	}
	t := tasks[i]
	if _, ok := t.Owner.User(); !ok {
		return tasks, Released{}, ErrNotAssigned
	}
	if t.Status == models.TaskStatusDone {
		return tasks, Released{}, ErrAlreadyDone
	}

	res := Released{TaskID: id}
	if t.Recurrence != models.RecurrenceOneOff {
		out := clone(tasks)
		out[i].Owner = models.Unowned()
		out[i].Timeslot = models.NoSlot()
		return out, res, nil
	}

	originID := 0
	if o := originIndex(tasks, t); o >= 0 {
		originID = tasks[o].ID
	}
	out := make([]models.Task, 0, len(tasks)-1)
	for j, other := range tasks {
		if j != i {
			out = append(out, other.Clone())
		}
	}
	res.Deleted = true

	if policy.RefundOnRelease && originID != 0 {
		o := indexOf(out, originID)
		out[o].Stock++
		res.RefundedTo = originID
		if out[o].Owner.IsClosed() {
			out[o].Owner = models.Unowned()
			res.Reopened = true
		}
	}
	return out, res, nil
}

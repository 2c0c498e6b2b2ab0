package board

import "github.com/fentz26/hogar/internal/models"

// ResetReport summarises a daily reset.
type ResetReport struct {
	// Completed holds the records that were done before the reset, for the
	// archive sink.
	Completed   []models.Task `json:"completed"`
	Kept        int           `json:"kept"`
	Pruned      int           `json:"pruned"`
	Replenished int           `json:"replenished"`
}

// ResetCycle drops every one-off record and returns persistent ones to
// unassigned, pending, no slot. Stock carries over unless the policy asks
// for replenishment to capacity. Applying it twice equals applying it once.
func ResetCycle(tasks []models.Task, policy Policy) ([]models.Task, ResetReport) {
	var rep ResetReport
	out := make([]models.Task, 0, len(tasks))
	for _, t := range tasks {
		if t.Status == models.TaskStatusDone {
			if _, ok := t.Owner.User(); ok {
				rep.Completed = append(rep.Completed, t.Clone())
			}
		}
		if t.Recurrence != models.RecurrencePersistent {
			rep.Pruned++
			continue
		}

		kept := t.Clone()
		kept.Owner = models.Unowned()
		kept.Status = models.TaskStatusPending
		kept.Timeslot = models.NoSlot()
		if policy.ReplenishOnReset && kept.Kind.Stocked() && kept.Stock != kept.Capacity {
			kept.Stock = kept.Capacity
			rep.Replenished++
		}
		out = append(out, kept)
	}
	rep.Kept = len(out)
	return out, rep
}

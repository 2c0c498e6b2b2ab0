package board

import "github.com/fentz26/hogar/internal/models"

// AudienceMatches reports whether a member of audience may act on a task
// addressed to target.
func AudienceMatches(target, audience models.Audience) bool {
	return target == models.AudienceEveryone || target == audience
}

// Claimable reports whether t is offered to audience right now.
func Claimable(t models.Task, audience models.Audience) bool {
	if !t.Owner.IsUnowned() || !AudienceMatches(t.Audience, audience) {
		return false
	}
	return t.Kind == models.KindSimple || t.Stock > 0
}

// VisibleUnassigned returns the records audience may claim, in table order.
func VisibleUnassigned(tasks []models.Task, audience models.Audience) []models.Task {
	var out []models.Task
	for _, t := range tasks {
		if Claimable(t, audience) {
			out = append(out, t.Clone())
		}
	}
	return out
}

// MyTasks returns the records owned by user. An empty status matches both
// pending and done.
func MyTasks(tasks []models.Task, user string, status models.TaskStatus) []models.Task {
	var out []models.Task
	for _, t := range tasks {
		if !t.Owner.Is(user) {
			continue
		}
		if status != "" && t.Status != status {
			continue
		}
		out = append(out, t.Clone())
	}
	return out
}

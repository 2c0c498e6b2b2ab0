package board

import "github.com/fentz26/hogar/internal/models"

// MessageKind selects the informational banner shown to a user.
type MessageKind string

const (
	MessageNone        MessageKind = ""
	MessageTeamAllDone MessageKind = "team-all-done"
	MessageUserAllDone MessageKind = "user-all-done"
	MessageNoneFree    MessageKind = "none-free"
)

// Summary is a read-only view derived from the table.
type Summary struct {
	User         string      `json:"user"`
	Audience     string      `json:"audience"`
	FreeSimple   int         `json:"free_simple"`
	FreeUnits    int         `json:"free_units"`
	FreeTotal    int         `json:"free_total"`
	MinePending  int         `json:"mine_pending"`
	MineDone     int         `json:"mine_done"`
	GroupTotal   int         `json:"group_total"`
	GroupPending int         `json:"group_pending"`
	Message      MessageKind `json:"message,omitempty"`
}

// Summarize counts free units for audience and user's own work, and picks
// the banner: the whole group done beats the user being done, which beats
// nothing left to claim.
func Summarize(tasks []models.Task, user string, audience models.Audience) Summary {
	s := Summary{User: user, Audience: string(audience)}
	for _, t := range tasks {
		if Claimable(t, audience) {
			if t.Kind.Stocked() {
				s.FreeUnits += t.Stock
			} else {
				s.FreeSimple++
			}
		}
		if t.Owner.Is(user) {
			switch t.Status {
			case models.TaskStatusPending:
				s.MinePending++
			case models.TaskStatusDone:
				s.MineDone++
			}
		}
		if !AudienceMatches(t.Audience, audience) || !outstanding(t) {
			continue
		}
		s.GroupTotal++
		if t.Status == models.TaskStatusPending {
			s.GroupPending++
		}
	}
	s.FreeTotal = s.FreeSimple + s.FreeUnits

	switch {
	case s.GroupTotal > 0 && s.GroupPending == 0:
		s.Message = MessageTeamAllDone
	case s.MinePending+s.MineDone > 0 && s.MinePending == 0:
		s.Message = MessageUserAllDone
	case s.FreeTotal == 0 && s.MinePending > 0:
		s.Message = MessageNoneFree
	}
	return s
}

// outstanding reports whether t is a unit of work someone still has to do or
// has done. Stocked templates stand for their free units only.
func outstanding(t models.Task) bool {
	if t.Owner.IsClosed() {
		return false
	}
	if t.Kind.Stocked() {
		return t.Owner.IsUnowned() && t.Stock > 0
	}
	return true
}

// Balance is the stock accounting of one stocked template.
type Balance struct {
	TemplateID int    `json:"template_id"`
	Name       string `json:"name"`
	Stock      int    `json:"stock"`
	Live       int    `json:"live"`
	Capacity   int    `json:"capacity"`
}

// Conserved reports whether stock plus live instances equals capacity.
func (b Balance) Conserved() bool {
	return b.Stock+b.Live == b.Capacity
}

// Balances returns the stock accounting for every stocked template.
func Balances(tasks []models.Task) []Balance {
	var out []Balance
	for i, t := range tasks {
		if !t.Kind.Stocked() {
			continue
		}
		b := Balance{TemplateID: t.ID, Name: t.Name, Stock: t.Stock, Capacity: t.Capacity}
		for _, other := range tasks {
			if originIndex(tasks, other) == i {
				b.Live++
			}
		}
		out = append(out, b)
	}
	return out
}

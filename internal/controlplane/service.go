// Package controlplane provides the service layer and HTTP API for the
// chore board.
package controlplane

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/fentz26/hogar/internal/audit"
	"github.com/fentz26/hogar/internal/board"
	"github.com/fentz26/hogar/internal/models"
	"github.com/fentz26/hogar/internal/roster"
	"github.com/fentz26/hogar/internal/store"
)

// View selects which records ListTasks returns.
type View string

const (
	ViewAll  View = "all"
	ViewFree View = "free"
	ViewMine View = "mine"
)

// Service provides the control plane business logic.
//
// Every mutation reloads the table, runs the engine, saves, and records an
// audit entry. Nothing is cached between calls, so a failed save leaves
// the stored table as the only state.
type Service struct {
	store     store.TaskStore
	audit     *audit.Writer
	roster    *roster.Roster
	policy    board.Policy
	timeslots []string
	logger    *log.Logger

	// mu serialises read-modify-write cycles within this process.
	mu sync.Mutex
}

// Options configures a Service.
type Options struct {
	Policy    board.Policy
	Timeslots []string
	Logger    *log.Logger
}

// NewService creates a new control plane service.
func NewService(st store.TaskStore, r *roster.Roster, opts Options) *Service {
	logger := opts.Logger
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Service{
		store:     st,
		audit:     audit.NewWriter(st),
		roster:    r,
		policy:    opts.Policy,
		timeslots: append([]string(nil), opts.Timeslots...),
		logger:    logger,
	}
}

// Roster returns the configured members.
func (s *Service) Roster() []roster.Member {
	return s.roster.Members()
}

// Timeslots returns the configured slots in display order.
func (s *Service) Timeslots() []string {
	return append([]string(nil), s.timeslots...)
}

// Policy returns the active policy.
func (s *Service) Policy() board.Policy {
	return s.policy
}

// Ping checks the backing store.
func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

func (s *Service) member(user string) (roster.Member, error) {
	return s.roster.Lookup(user)
}

func (s *Service) admin(user string) (roster.Member, error) {
	m, err := s.member(user)
	if err != nil {
		return m, err
	}
	if !m.Admin {
		return m, fmt.Errorf("%w: %s", ErrForbidden, m.Name)
	}
	return m, nil
}

// slot resolves a timeslot name against the configured set.
func (s *Service) slot(name string) (models.Timeslot, error) {
	name = strings.TrimSpace(name)
	for _, ts := range s.timeslots {
		if strings.EqualFold(ts, name) {
			return models.Slot(ts), nil
		}
	}
	return models.NoSlot(), fmt.Errorf("%w: %q", ErrInvalidTimeslot, name)
}

// --- Queries ---

// ListTasks returns records for user according to view. ViewAll returns
// the whole table; status, when set, filters ViewAll and ViewMine.
func (s *Service) ListTasks(ctx context.Context, user string, view View, status models.TaskStatus) ([]models.Task, error) {
	tasks, err := s.store.Load(ctx)
	if err != nil {
		return nil, err
	}

	switch view {
	case ViewAll, "":
		if status == "" {
			return tasks, nil
		}
		var out []models.Task
		for _, t := range tasks {
			if t.Status == status {
				out = append(out, t)
			}
		}
		return out, nil
	case ViewFree:
		m, err := s.member(user)
		if err != nil {
			return nil, err
		}
		return board.VisibleUnassigned(tasks, m.Audience), nil
	case ViewMine:
		m, err := s.member(user)
		if err != nil {
			return nil, err
		}
		return board.MyTasks(tasks, m.Name, status), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrInvalidView, view)
}

// Summary returns the progress counts and banner for user.
func (s *Service) Summary(ctx context.Context, user string) (board.Summary, error) {
	m, err := s.member(user)
	if err != nil {
		return board.Summary{}, err
	}
	tasks, err := s.store.Load(ctx)
	if err != nil {
		return board.Summary{}, err
	}
	return board.Summarize(tasks, m.Name, m.Audience), nil
}

// Balances reports stock conservation per stocked template.
func (s *Service) Balances(ctx context.Context) ([]board.Balance, error) {
	tasks, err := s.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	return board.Balances(tasks), nil
}

// History returns archived completions, newest first. Members see their
// own history; admins may ask for anyone's, or everybody's with owner "".
func (s *Service) History(ctx context.Context, user, owner string, limit int) ([]models.ArchiveEntry, error) {
	m, err := s.member(user)
	if err != nil {
		return nil, err
	}
	if owner == "" && !m.Admin {
		owner = m.Name
	}
	if owner != "" {
		o, err := s.member(owner)
		if err != nil {
			return nil, err
		}
		if o.Name != m.Name && !m.Admin {
			return nil, fmt.Errorf("%w: history of %s", ErrForbidden, o.Name)
		}
		owner = o.Name
	}
	return s.store.ListArchive(ctx, owner, limit)
}

// --- Mutations ---

// mutate runs fn against a fresh snapshot and saves what it returns.
func (s *Service) mutate(ctx context.Context, fn func([]models.Task) ([]models.Task, error)) ([]models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tasks, err := s.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	out, err := fn(tasks)
	if err != nil {
		return nil, err
	}
	if err := s.store.Save(ctx, out); err != nil {
		return nil, err
	}
	return out, nil
}

// record writes an audit entry. Audit failures never undo a saved change.
func (s *Service) record(ctx context.Context, action, actor string, inputs interface{}, taskID int, opErr error, details string) {
	outcome := audit.OutcomeOK
	if opErr != nil {
		outcome = audit.OutcomeRejected
		if store.IsPersistence(opErr) {
			outcome = audit.OutcomeFailed
		}
		details = opErr.Error()
	}
	fields := log.Fields{"action": action, "user": actor, "task_id": taskID}
	if opErr != nil {
		s.logger.WithFields(fields).WithError(opErr).Info("board action rejected")
	} else {
		s.logger.WithFields(fields).Debug("board action applied")
	}
	if outcome == audit.OutcomeFailed {
		return
	}
	if _, err := s.audit.Record(ctx, action, actor, inputs, outcome, taskID, details); err != nil {
		s.logger.WithFields(fields).WithError(err).Warn("audit write failed")
	}
}

// checkOwner allows the record's owner and admins.
func checkOwner(t models.Task, m roster.Member) error {
	if m.Admin {
		return nil
	}
	if owner, ok := t.Owner.User(); ok && owner != m.Name {
		return fmt.Errorf("%w: %s", ErrNotOwner, owner)
	}
	return nil
}

// Assign gives user one unit of template id for slot.
func (s *Service) Assign(ctx context.Context, user string, id int, slot string) (board.Assignment, error) {
	var res board.Assignment
	m, err := s.member(user)
	if err == nil {
		var ts models.Timeslot
		ts, err = s.slot(slot)
		if err == nil {
			_, err = s.mutate(ctx, func(tasks []models.Task) ([]models.Task, error) {
				t, ok := board.Find(tasks, id)
				if !ok {
					return nil, fmt.Errorf("%w: %d", board.ErrTaskNotFound, id)
				}
				if !board.AudienceMatches(t.Audience, m.Audience) {
					return nil, fmt.Errorf("%w: %s is for %s", board.ErrWrongAudience, t.Name, t.Audience)
				}
				out, a, err := board.Assign(tasks, id, m.Name, ts)
				res = a
				return out, err
			})
		}
	}
	s.record(ctx, "task.assign", user, map[string]interface{}{"id": id, "slot": slot}, id, err, "")
	return res, err
}

// Complete marks user's record id as done.
func (s *Service) Complete(ctx context.Context, user string, id int) (models.Task, error) {
	return s.setStatus(ctx, "task.complete", user, id, board.Complete)
}

// Undo marks user's record id as pending again.
func (s *Service) Undo(ctx context.Context, user string, id int) (models.Task, error) {
	return s.setStatus(ctx, "task.undo", user, id, board.Undo)
}

func (s *Service) setStatus(ctx context.Context, action, user string, id int, fn func([]models.Task, int) ([]models.Task, error)) (models.Task, error) {
	var got models.Task
	m, err := s.member(user)
	if err == nil {
		_, err = s.mutate(ctx, func(tasks []models.Task) ([]models.Task, error) {
			t, ok := board.Find(tasks, id)
			if !ok {
				return nil, fmt.Errorf("%w: %d", board.ErrTaskNotFound, id)
			}
			if err := checkOwner(t, m); err != nil {
				return nil, err
			}
			out, err := fn(tasks, id)
			if err != nil {
				return nil, err
			}
			got, _ = board.Find(out, id)
			return out, nil
		})
	}
	s.record(ctx, action, user, map[string]int{"id": id}, id, err, "")
	return got, err
}

// Release hands user's pending record id back to the pool.
func (s *Service) Release(ctx context.Context, user string, id int) (board.Released, error) {
	var res board.Released
	m, err := s.member(user)
	if err == nil {
		_, err = s.mutate(ctx, func(tasks []models.Task) ([]models.Task, error) {
			t, ok := board.Find(tasks, id)
			if !ok {
				return nil, fmt.Errorf("%w: %d", board.ErrTaskNotFound, id)
			}
			if err := checkOwner(t, m); err != nil {
				return nil, err
			}
			out, r, err := board.Release(tasks, id, s.policy)
			res = r
			return out, err
		})
	}
	details := ""
	if res.RefundedTo != 0 {
		details = fmt.Sprintf("refunded to %d", res.RefundedTo)
	}
	s.record(ctx, "task.release", user, map[string]int{"id": id}, id, err, details)
	return res, err
}

// AddTemplate appends a new catalog entry. Admin only.
func (s *Service) AddTemplate(ctx context.Context, user string, spec board.TemplateSpec) (models.Task, error) {
	var created models.Task
	_, err := s.admin(user)
	if err == nil {
		_, err = s.mutate(ctx, func(tasks []models.Task) ([]models.Task, error) {
			out, t, err := board.AddTemplate(tasks, spec)
			created = t
			return out, err
		})
	}
	s.record(ctx, "template.add", user, spec, created.ID, err, spec.Name)
	return created, err
}

// AdjustStock adds delta units to a stocked template. Admin only.
func (s *Service) AdjustStock(ctx context.Context, user string, id, delta int) (models.Task, error) {
	return s.stock(ctx, "stock.adjust", user, id, delta, board.AdjustStock)
}

// SetStock sets a stocked template to value units. Admin only.
func (s *Service) SetStock(ctx context.Context, user string, id, value int) (models.Task, error) {
	return s.stock(ctx, "stock.set", user, id, value, board.SetStock)
}

func (s *Service) stock(ctx context.Context, action, user string, id, n int, fn func([]models.Task, int, int) ([]models.Task, models.Task, error)) (models.Task, error) {
	var got models.Task
	_, err := s.admin(user)
	if err == nil {
		_, err = s.mutate(ctx, func(tasks []models.Task) ([]models.Task, error) {
			out, t, err := fn(tasks, id, n)
			got = t
			return out, err
		})
	}
	s.record(ctx, action, user, map[string]int{"id": id, "n": n}, id, err, "")
	return got, err
}

// ResetResult is what ResetDay and PreviewReset return.
type ResetResult struct {
	board.ResetReport
	Archived int           `json:"archived"`
	Warning  string        `json:"warning,omitempty"`
	Tasks    []models.Task `json:"tasks"`
}

// PreviewReset computes the reset without saving anything.
func (s *Service) PreviewReset(ctx context.Context) (ResetResult, error) {
	tasks, err := s.store.Load(ctx)
	if err != nil {
		return ResetResult{}, err
	}
	out, rep := board.ResetCycle(tasks, s.policy)
	return ResetResult{ResetReport: rep, Tasks: out}, nil
}

// ResetDay archives completed work and collapses the table for a new day.
// Admin only. An archive failure is reported as a warning; the reset
// itself still applies.
func (s *Service) ResetDay(ctx context.Context, user string) (ResetResult, error) {
	var res ResetResult
	_, err := s.admin(user)
	if err == nil {
		var out []models.Task
		out, err = s.mutate(ctx, func(tasks []models.Task) ([]models.Task, error) {
			next, rep := board.ResetCycle(tasks, s.policy)
			res.ResetReport = rep

			entries, aerr := s.audit.Archive(ctx, rep.Completed)
			if aerr != nil {
				s.logger.WithError(aerr).Warn("archive write failed during reset")
				res.Warning = fmt.Sprintf("completed tasks were not archived: %v", aerr)
			} else {
				res.Archived = len(entries)
			}
			return next, nil
		})
		res.Tasks = out
	}
	details := ""
	if err == nil {
		details = fmt.Sprintf("kept=%d pruned=%d archived=%d", res.Kept, res.Pruned, res.Archived)
		s.logger.WithFields(log.Fields{
			"kept":        res.Kept,
			"pruned":      res.Pruned,
			"archived":    res.Archived,
			"replenished": res.Replenished,
		}).Info("daily reset applied")
	}
	s.record(ctx, "day.reset", user, s.policy, 0, err, details)
	return res, err
}

// IsNotFound reports whether err means a record or user does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, board.ErrTaskNotFound) || errors.Is(err, roster.ErrUnknownUser)
}

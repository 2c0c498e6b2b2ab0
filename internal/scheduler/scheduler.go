package scheduler

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/fentz26/hogar/internal/controlplane"
)

// Resetter performs the daily reset on behalf of an admin.
type Resetter interface {
	ResetDay(ctx context.Context, user string) (controlplane.ResetResult, error)
}

// Scheduler fires the daily reset once per day at the configured time.
type Scheduler struct {
	resetter Resetter
	config   Config
	logger   *log.Logger
	now      func() time.Time

	mu      sync.Mutex
	next    time.Time
	lastRun time.Time
	lastErr error
	runs    int
}

// Stats is a snapshot of the scheduler state.
type Stats struct {
	Next    time.Time `json:"next"`
	LastRun time.Time `json:"last_run,omitempty"`
	LastErr string    `json:"last_error,omitempty"`
	Runs    int       `json:"runs"`
}

// New creates a new scheduler.
func New(r Resetter, cfg Config, logger *log.Logger) *Scheduler {
	if cfg.Poll <= 0 {
		cfg.Poll = DefaultConfig().Poll
	}
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Scheduler{
		resetter: r,
		config:   cfg,
		logger:   logger,
		now:      time.Now,
	}
}

// Run checks the clock every Poll until ctx is cancelled. The first reset
// happens at the next ResetAt after Run starts; a reset missed while the
// daemon was down is not replayed.
func (sch *Scheduler) Run(ctx context.Context) error {
	sch.mu.Lock()
	sch.next = sch.config.NextAfter(sch.now())
	next := sch.next
	sch.mu.Unlock()
	sch.logger.WithField("next", next.Format(time.RFC3339)).Info("daily reset scheduled")

	ticker := time.NewTicker(sch.config.Poll)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			sch.logger.Info("scheduler stopped")
			return nil
		case <-ticker.C:
			sch.tick(ctx)
		}
	}
}

// tick runs the reset if its time has come and schedules the next one.
func (sch *Scheduler) tick(ctx context.Context) {
	now := sch.now()

	sch.mu.Lock()
	due := !sch.next.IsZero() && !now.Before(sch.next)
	if due {
		sch.next = sch.config.NextAfter(now)
	}
	sch.mu.Unlock()
	if !due {
		return
	}

	res, err := sch.resetter.ResetDay(ctx, sch.config.Actor)

	sch.mu.Lock()
	sch.lastRun = now
	sch.lastErr = err
	sch.runs++
	sch.mu.Unlock()

	entry := sch.logger.WithField("actor", sch.config.Actor)
	if err != nil {
		entry.WithError(err).Error("automatic reset failed")
		return
	}
	entry.WithFields(log.Fields{
		"kept":     res.Kept,
		"pruned":   res.Pruned,
		"archived": res.Archived,
	}).Info("automatic reset done")
}

// Stats returns current scheduler statistics.
func (sch *Scheduler) Stats() Stats {
	sch.mu.Lock()
	defer sch.mu.Unlock()

	st := Stats{Next: sch.next, LastRun: sch.lastRun, Runs: sch.runs}
	if sch.lastErr != nil {
		st.LastErr = sch.lastErr.Error()
	}
	return st
}

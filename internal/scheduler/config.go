// Package scheduler runs the automatic daily reset.
package scheduler

import (
	"fmt"
	"strings"
	"time"
)

// Config defines the scheduler configuration.
type Config struct {
	// ResetAt is the local wall-clock time of the daily reset, "HH:MM".
	// Empty disables the scheduler.
	ResetAt string `yaml:"reset_at,omitempty" json:"reset_at,omitempty"`
	// Actor is the admin the automatic reset is recorded under.
	Actor string `yaml:"actor,omitempty" json:"actor,omitempty"`
	// Poll is how often the clock is checked.
	Poll time.Duration `yaml:"poll,omitempty" json:"poll,omitempty"`
}

// DefaultConfig returns the default scheduler configuration. The automatic
// reset is off until ResetAt is set.
func DefaultConfig() Config {
	return Config{Poll: time.Minute}
}

// Enabled reports whether an automatic reset is configured.
func (c Config) Enabled() bool {
	return strings.TrimSpace(c.ResetAt) != ""
}

// Validate checks ResetAt and Actor when the scheduler is enabled.
func (c Config) Validate() error {
	if !c.Enabled() {
		return nil
	}
	if _, err := time.Parse("15:04", strings.TrimSpace(c.ResetAt)); err != nil {
		return fmt.Errorf("scheduler.reset_at must be HH:MM: %w", err)
	}
	if strings.TrimSpace(c.Actor) == "" {
		return fmt.Errorf("scheduler.actor is required when reset_at is set")
	}
	if c.Poll < 0 {
		return fmt.Errorf("scheduler.poll must not be negative")
	}
	return nil
}

// NextAfter returns the first reset time strictly after t, in t's location.
func (c Config) NextAfter(t time.Time) time.Time {
	at, err := time.Parse("15:04", strings.TrimSpace(c.ResetAt))
	if err != nil {
		return time.Time{}
	}
	next := time.Date(t.Year(), t.Month(), t.Day(), at.Hour(), at.Minute(), 0, 0, t.Location())
	if !next.After(t) {
		next = time.Date(t.Year(), t.Month(), t.Day()+1, at.Hour(), at.Minute(), 0, 0, t.Location())
	}
	return next
}

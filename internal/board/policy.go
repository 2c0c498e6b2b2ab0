// Package board implements the chore lifecycle: who may see which task,
// how a claim turns a template into owned work, how work is completed or
// handed back, and how the end-of-day reset collapses the table.
//
// Every operation takes a snapshot and returns a new one. The input slice is
// never modified, so a caller whose save fails still holds the last durable
// state.
package board

// Policy holds the behaviours that differ between households.
type Policy struct {
	// RefundOnRelease returns a unit of stock to the origin template when a
	// spawned instance is released.
	RefundOnRelease bool `yaml:"refund_on_release" json:"refund_on_release"`
	// ReplenishOnReset restores stocked templates to their capacity during
	// the daily reset instead of carrying the remaining stock over.
	ReplenishOnReset bool `yaml:"replenish_on_reset" json:"replenish_on_reset"`
}

// DefaultPolicy refunds on release and carries stock over across resets.
func DefaultPolicy() Policy {
	return Policy{
		RefundOnRelease:  true,
		ReplenishOnReset: false,
	}
}

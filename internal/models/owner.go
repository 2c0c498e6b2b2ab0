package models

import "strings"

// Sentinel texts used at the persistence boundary.
const (
	OwnerUnassignedText = "Unassigned"
	OwnerClosedText     = "Closed"
	TimeslotNoneText    = "-"
)

// OwnerState tags the Owner variant.
type OwnerState uint8

const (
	OwnerUnowned OwnerState = iota
	OwnerUser
	OwnerClosed
)

// Owner is either nobody, a named user, or the closed marker set on an
// exhausted multi-slot template.
type Owner struct {
	state OwnerState
	user  string
}

// Unowned returns the owner of a claimable record.
func Unowned() Owner { return Owner{} }

// Closed returns the owner of an exhausted multi-slot template.
func Closed() Owner { return Owner{state: OwnerClosed} }

// OwnedBy returns an owner naming user. An empty name yields Unowned.
func OwnedBy(user string) Owner {
	user = strings.TrimSpace(user)
	if user == "" {
		return Unowned()
	}
	return Owner{state: OwnerUser, user: user}
}

// State returns the variant tag.
func (o Owner) State() OwnerState { return o.state }

// User returns the owner's name and whether the owner is a user.
func (o Owner) User() (string, bool) {
	return o.user, o.state == OwnerUser
}

func (o Owner) IsUnowned() bool { return o.state == OwnerUnowned }
func (o Owner) IsClosed() bool  { return o.state == OwnerClosed }

// Is reports whether the owner is the named user.
func (o Owner) Is(user string) bool {
	return o.state == OwnerUser && o.user == strings.TrimSpace(user)
}

func (o Owner) String() string {
	switch o.state {
	case OwnerUser:
		return o.user
	case OwnerClosed:
		return OwnerClosedText
	default:
		return OwnerUnassignedText
	}
}

// ParseOwner maps sentinel text (including the legacy sheet spelling) back
// to the tagged value. Empty text is treated as unassigned.
func ParseOwner(s string) Owner {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "", "-", "unassigned", "sin asignar":
		return Unowned()
	case "closed", "asignado":
		return Closed()
	}
	return OwnedBy(s)
}

func (o Owner) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

func (o *Owner) UnmarshalText(b []byte) error {
	*o = ParseOwner(string(b))
	return nil
}

// Timeslot is either unset or a named time window.
type Timeslot struct {
	value string
}

// NoSlot returns the unset timeslot.
func NoSlot() Timeslot { return Timeslot{} }

// Slot returns a named timeslot. Blank or "-" yields NoSlot.
func Slot(value string) Timeslot {
	value = strings.TrimSpace(value)
	if value == TimeslotNoneText {
		value = ""
	}
	return Timeslot{value: value}
}

// Value returns the slot name and whether one is set.
func (t Timeslot) Value() (string, bool) {
	return t.value, t.value != ""
}

func (t Timeslot) IsNone() bool { return t.value == "" }

func (t Timeslot) String() string {
	if t.value == "" {
		return TimeslotNoneText
	}
	return t.value
}

func (t Timeslot) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *Timeslot) UnmarshalText(b []byte) error {
	*t = Slot(string(b))
	return nil
}

// Package roster is the closed list of people who use the board.
package roster

import (
	"errors"
	"fmt"
	"strings"

	"github.com/fentz26/hogar/internal/models"
)

// ErrUnknownUser is returned when a name is not on the roster.
var ErrUnknownUser = errors.New("unknown user")

// Member is one person on the roster.
type Member struct {
	Name     string          `yaml:"name" json:"name"`
	Audience models.Audience `yaml:"audience" json:"audience"`
	Admin    bool            `yaml:"admin,omitempty" json:"admin,omitempty"`
}

// Roster maps display names to members. Lookups are case-insensitive.
type Roster struct {
	members []Member
	byKey   map[string]int
}

// New builds a roster. Names must be unique and audiences must be a group;
// "everyone" is a task audience, not a member's.
func New(members []Member) (*Roster, error) {
	r := &Roster{byKey: make(map[string]int, len(members))}
	for _, m := range members {
		m.Name = strings.TrimSpace(m.Name)
		if m.Name == "" {
			return nil, fmt.Errorf("roster member with empty name")
		}
		if models.ParseOwner(m.Name).State() != models.OwnerUser {
			return nil, fmt.Errorf("roster name %q is reserved", m.Name)
		}
		if m.Audience != models.AudienceGroupA && m.Audience != models.AudienceGroupB {
			return nil, fmt.Errorf("member %s: audience must be %s or %s, got %q",
				m.Name, models.AudienceGroupA, models.AudienceGroupB, m.Audience)
		}
		key := strings.ToLower(m.Name)
		if _, dup := r.byKey[key]; dup {
			return nil, fmt.Errorf("duplicate roster member %q", m.Name)
		}
		r.byKey[key] = len(r.members)
		r.members = append(r.members, m)
	}
	return r, nil
}

// Default is the household the board ships with.
func Default() []Member {
	return []Member{
		{Name: "Papá", Audience: models.AudienceGroupA, Admin: true},
		{Name: "Mamá", Audience: models.AudienceGroupA, Admin: true},
		{Name: "Jesús", Audience: models.AudienceGroupB},
		{Name: "Cris", Audience: models.AudienceGroupB},
		{Name: "María", Audience: models.AudienceGroupB},
	}
}

// Lookup returns the member called name.
func (r *Roster) Lookup(name string) (Member, error) {
	i, ok := r.byKey[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Member{}, fmt.Errorf("%w: %q", ErrUnknownUser, name)
	}
	return r.members[i], nil
}

// Members returns the roster in configured order.
func (r *Roster) Members() []Member {
	out := make([]Member, len(r.members))
	copy(out, r.members)
	return out
}

// Names lists member names of the given audience, or all when audience is
// empty or everyone.
func (r *Roster) Names(audience models.Audience) []string {
	var out []string
	for _, m := range r.members {
		if audience == "" || audience == models.AudienceEveryone || m.Audience == audience {
			out = append(out, m.Name)
		}
	}
	return out
}

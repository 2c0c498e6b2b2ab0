package roster

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fentz26/hogar/internal/models"
)

func TestDefaultRoster(t *testing.T) {
	r, err := New(Default())
	require.NoError(t, err)

	m, err := r.Lookup("papá")
	require.NoError(t, err)
	assert.Equal(t, "Papá", m.Name)
	assert.True(t, m.Admin)
	assert.Equal(t, models.AudienceGroupA, m.Audience)

	m, err = r.Lookup(" Cris ")
	require.NoError(t, err)
	assert.False(t, m.Admin)
	assert.Equal(t, models.AudienceGroupB, m.Audience)

	_, err = r.Lookup("Pedro")
	assert.ErrorIs(t, err, ErrUnknownUser)

	assert.Equal(t, []string{"Papá", "Mamá"}, r.Names(models.AudienceGroupA))
	assert.Len(t, r.Names(""), 5)
	assert.Len(t, r.Members(), 5)
}

func TestNewRejects(t *testing.T) {
	cases := map[string][]Member{
		"empty name":  {{Name: " ", Audience: models.AudienceGroupA}},
		"reserved":    {{Name: "Closed", Audience: models.AudienceGroupA}},
		"unassigned":  {{Name: "Unassigned", Audience: models.AudienceGroupB}},
		"asignado":    {{Name: "Asignado", Audience: models.AudienceGroupA}},
		"sin asignar": {{Name: "sin asignar", Audience: models.AudienceGroupB}},
		"everyone":    {{Name: "Ana", Audience: models.AudienceEveryone}},
		"duplicate":   {{Name: "Ana", Audience: models.AudienceGroupA}, {Name: "ana", Audience: models.AudienceGroupB}},
		"no audience": {{Name: "Ana"}},
	}
	for name, members := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := New(members)
			assert.Error(t, err)
		})
	}
}

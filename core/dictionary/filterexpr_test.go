package dictionary

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseGlossFilter(t *testing.T) {
	tests := []struct {
		name   string
		filter string
		want   FilterCondition
	}{
		{
			name:   "empty",
			filter: "  ",
			want:   FilterCondition{},
		},
		{
			name:   "string equality",
			filter: `idgloss = "HOUSE"`,
			want:   FilterCondition{Clause: "g.idgloss = ?", Params: []interface{}{"HOUSE"}},
		},
		{
			name:   "wildcard",
			filter: `idgloss = "Ho_*"`,
			want:   FilterCondition{Clause: `LOWER(g.idgloss) LIKE ? ESCAPE '\'`, Params: []interface{}{`ho\_%`}},
		},
		{
			name:   "negated wildcard",
			filter: `annotation_idgloss != "*1"`,
			want:   FilterCondition{Clause: `LOWER(g.annotation_idgloss) NOT LIKE ? ESCAPE '\'`, Params: []interface{}{`%1`}},
		},
		{
			name:   "int comparison",
			filter: `locprim > 3`,
			want:   FilterCondition{Clause: "g.locprim > ?", Params: []interface{}{int64(3)}},
		},
		{
			name:   "bool by column",
			filter: `in_web = true`,
			want:   FilterCondition{Clause: "g.in_web = ?", Params: []interface{}{true}},
		},
		{
			name:   "bool by name",
			filter: `inWeb = false`,
			want:   FilterCondition{Clause: "g.in_web = ?", Params: []interface{}{false}},
		},
		{
			name:   "and",
			filter: `in_web = true AND locprim > 3`,
			want: FilterCondition{
				Clause: "(g.in_web = ? AND g.locprim > ?)",
				Params: []interface{}{true, int64(3)},
			},
		},
		{
			name:   "or",
			filter: `sn = 1 OR sn = 2`,
			want: FilterCondition{
				Clause: "(g.sn = ? OR g.sn = ?)",
				Params: []interface{}{int64(1), int64(2)},
			},
		},
		{
			name:   "not",
			filter: `NOT is_new = true`,
			want:   FilterCondition{Clause: "NOT g.is_new = ?", Params: []interface{}{true}},
		},
		{
			name:   "has",
			filter: `morph:"Com"`,
			want:   FilterCondition{Clause: `LOWER(g.morph) LIKE ? ESCAPE '\'`, Params: []interface{}{"%com%"}},
		},
		{
			name:   "timestamp",
			filter: `updated_at > "2020-01-02T03:04:05Z"`,
			want: FilterCondition{
				Clause: "g.updated_at > ?",
				Params: []interface{}{time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC)},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseGlossFilter(tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseGlossFilterErrors(t *testing.T) {
	tests := []struct {
		name   string
		filter string
	}{
		{name: "unknown field", filter: `colour = "red"`},
		{name: "type mismatch", filter: `locprim = "three"`},
		{name: "syntax", filter: `idgloss = `},
		{name: "has on int", filter: `sn:"1"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseGlossFilter(tt.filter)
			assert.Error(t, err)
		})
	}
}

func TestGlossQueryFilterParse(t *testing.T) {
	f := GlossQueryFilter{Filter: `locprim >= 2`}
	require.NoError(t, f.Parse())
	require.NotNil(t, f.Expression())
	assert.Equal(t, "g.locprim >= ?", f.Expression().Clause)

	f = GlossQueryFilter{Filter: `nope = 1`}
	err := f.Parse()
	require.Error(t, err)
	assert.Nil(t, f.Expression())

	f = GlossQueryFilter{}
	require.NoError(t, f.Parse())
	assert.Nil(t, f.Expression())
}

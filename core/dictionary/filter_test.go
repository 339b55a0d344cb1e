package dictionary

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGlossQueryFilterClean(t *testing.T) {
	f := GlossQueryFilter{
		Search:   "  hou ",
		InWeb:    "YES",
		HasVideo: " No",
		Tags:     []string{" lexis:crude ", "", "  "},
		NotTags:  []string{"x"},
	}
	f.Clean()

	assert.Equal(t, "hou", f.Search)
	assert.Equal(t, "yes", f.InWeb)
	assert.Equal(t, "no", f.HasVideo)
	assert.Equal(t, DefRoleAll, f.DefRole)
	assert.Equal(t, []string{"lexis:crude"}, f.Tags)
	assert.Equal(t, []string{"x"}, f.NotTags)
}

func TestGlossQueryFilterSearchSN(t *testing.T) {
	tests := []struct {
		search string
		sn     int64
		ok     bool
	}{
		{search: "", ok: false},
		{search: "123", sn: 123, ok: true},
		{search: "0012", sn: 12, ok: true},
		{search: "12a", ok: false},
		{search: "-3", ok: false},
	}
	for _, tt := range tests {
		t.Run(tt.search, func(t *testing.T) {
			f := GlossQueryFilter{Search: tt.search}
			sn, ok := f.SearchSN()
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.sn, sn)
		})
	}
}

func TestGlossQueryFilterPhonologyMatches(t *testing.T) {
	f := GlossQueryFilter{DomHndsh: "B", LocPrim: "3", FinalLoc: "x", FinalPalmOrientation: "up"}
	assert.Equal(t, []FieldMatch{
		{Column: "domhndsh", Value: "B"},
		{Column: "locprim", Value: int64(3)},
		{Column: "final_palm_orientation", Value: "up"},
	}, f.PhonologyMatches())

	assert.Empty(t, (&GlossQueryFilter{}).PhonologyMatches())
}

func TestFeatureQuery(t *testing.T) {
	tests := []struct {
		name      string
		fq        FeatureQuery
		handshape string
		location  int64
		hasLoc    bool
		valid     bool
	}{
		{name: "empty", fq: FeatureQuery{}},
		{name: "notset handshape", fq: FeatureQuery{Handshape: "notset", Location: "-1"}},
		{name: "query only", fq: FeatureQuery{Query: "ho"}, valid: true},
		{name: "handshape", fq: FeatureQuery{Handshape: "B"}, handshape: "B", valid: true},
		{name: "location", fq: FeatureQuery{Location: "12"}, location: 12, hasLoc: true, valid: true},
		{name: "bad location", fq: FeatureQuery{Location: "x"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.handshape, tt.fq.HandshapeFilter())
			loc, ok := tt.fq.LocationFilter()
			assert.Equal(t, tt.hasLoc, ok)
			assert.Equal(t, tt.location, loc)
			assert.Equal(t, tt.valid, tt.fq.IsValid())
		})
	}
}

package dictionary

import (
	"strconv"
	"strings"

	"github.com/signbank/signbank/core"
)

// DefRoleAll disables the role restriction of a definition search.
const DefRoleAll = "all"

// GlossQueryFilter holds the gloss list filters. Every non-empty filter is ANDed.
type GlossQueryFilter struct {
	// idgloss or annotation idgloss prefix, or exact sign number when numeric
	Search string `query:"search"`
	// prefix of one of the gloss keywords
	Keyword       string `query:"keyword"`
	InWeb         string `query:"inWeb" validate:"tristate"`
	HasVideo      string `query:"hasvideo" validate:"tristate"`
	DefsPublished string `query:"defspublished" validate:"tristate"`

	DomHndsh                   string `query:"domhndsh"`
	SubHndsh                   string `query:"subhndsh"`
	FinalDomHndsh              string `query:"final_domhndsh"`
	FinalSubHndsh              string `query:"final_subhndsh"`
	LocPrim                    string `query:"locprim" validate:"omitempty,numeric"`
	LocSecond                  string `query:"locsecond" validate:"omitempty,numeric"`
	FinalLoc                   string `query:"final_loc" validate:"omitempty,numeric"`
	InitialSecondaryLoc        string `query:"initial_secondary_loc"`
	FinalSecondaryLoc          string `query:"final_secondary_loc"`
	InitialRelativeOrientation string `query:"initial_relative_orientation"`
	FinalRelativeOrientation   string `query:"final_relative_orientation"`
	InitialPalmOrientation     string `query:"initial_palm_orientation"`
	FinalPalmOrientation       string `query:"final_palm_orientation"`

	DefSearch string `query:"defsearch"`
	DefRole   string `query:"defrole" validate:"omitempty,eq=all|defrole"`

	Dialects  []int64  `query:"dialect"`
	Languages []int64  `query:"language"`
	Tags      []string `query:"tags"`
	NotTags   []string `query:"nottags"`

	// AIP-160 expression over the gloss fields
	Filter string `query:"filter"`

	expr *FilterCondition
}

// FieldMatch is an exact match on a gloss column.
type FieldMatch struct {
	Column string
	Value  interface{}
}

func (f *GlossQueryFilter) Clean() {
	for _, s := range []*string{
		&f.Search, &f.Keyword, &f.InWeb, &f.HasVideo, &f.DefsPublished,
		&f.DomHndsh, &f.SubHndsh, &f.FinalDomHndsh, &f.FinalSubHndsh,
		&f.LocPrim, &f.LocSecond, &f.FinalLoc, &f.InitialSecondaryLoc, &f.FinalSecondaryLoc,
		&f.InitialRelativeOrientation, &f.FinalRelativeOrientation,
		&f.InitialPalmOrientation, &f.FinalPalmOrientation,
		&f.DefSearch, &f.DefRole, &f.Filter,
	} {
		*s = strings.TrimSpace(*s)
	}
	f.InWeb = strings.ToLower(f.InWeb)
	f.HasVideo = strings.ToLower(f.HasVideo)
	f.DefsPublished = strings.ToLower(f.DefsPublished)
	if f.DefRole == "" {
		f.DefRole = DefRoleAll
	}
	f.Tags = cleanStrings(f.Tags)
	f.NotTags = cleanStrings(f.NotTags)
}

// Parse compiles the Filter expression. It must be called before the filter is given to a Repository.
func (f *GlossQueryFilter) Parse() error {
	f.expr = nil
	if f.Filter == "" {
		return nil
	}
	cond, err := ParseGlossFilter(f.Filter)
	if err != nil {
		return core.NewValidationError(err, core.FieldError{Field: "filter", Error: err.Error()})
	}
	f.expr = &cond
	return nil
}

// Expression is the compiled Filter expression, nil when none was given.
func (f *GlossQueryFilter) Expression() *FilterCondition {
	return f.expr
}

// SearchSN is the sign number searched for when Search is all digits.
func (f *GlossQueryFilter) SearchSN() (int64, bool) {
	if f.Search == "" {
		return 0, false
	}
	for _, r := range f.Search {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	sn, err := strconv.ParseInt(f.Search, 10, 64)
	return sn, err == nil
}

// PhonologyMatches lists the exact phonology matches requested.
func (f *GlossQueryFilter) PhonologyMatches() []FieldMatch {
	var matches []FieldMatch
	addStr := func(col, val string) {
		if val != "" {
			matches = append(matches, FieldMatch{Column: col, Value: val})
		}
	}
	addInt := func(col, val string) {
		if n, err := strconv.ParseInt(val, 10, 64); err == nil {
			matches = append(matches, FieldMatch{Column: col, Value: n})
		}
	}

	addStr("domhndsh", f.DomHndsh)
	addStr("subhndsh", f.SubHndsh)
	addStr("final_domhndsh", f.FinalDomHndsh)
	addStr("final_subhndsh", f.FinalSubHndsh)
	addInt("locprim", f.LocPrim)
	addInt("locsecond", f.LocSecond)
	addInt("final_loc", f.FinalLoc)
	addStr("initial_secondary_loc", f.InitialSecondaryLoc)
	addStr("final_secondary_loc", f.FinalSecondaryLoc)
	addStr("initial_relative_orientation", f.InitialRelativeOrientation)
	addStr("final_relative_orientation", f.FinalRelativeOrientation)
	addStr("initial_palm_orientation", f.InitialPalmOrientation)
	addStr("final_palm_orientation", f.FinalPalmOrientation)
	return matches
}

func cleanStrings(vals []string) []string {
	var cleaned []string
	for _, v := range vals {
		if v = strings.TrimSpace(v); v != "" {
			cleaned = append(cleaned, v)
		}
	}
	return cleaned
}

// KeywordQuery is a public keyword search.
type KeywordQuery struct {
	Query    string `query:"query"`
	Category string `query:"category"`
	Page     string `query:"page"`
}

// FeatureQuery is a search by keyword prefix and phonology features.
type FeatureQuery struct {
	Query     string `query:"query"`
	Handshape string `query:"handshape"`
	Location  string `query:"location"`
	Page      string `query:"page"`
}

// HandshapeFilter returns the handshape filter, "" for any.
func (fq FeatureQuery) HandshapeFilter() string {
	if fq.Handshape == "notset" {
		return ""
	}
	return strings.TrimSpace(fq.Handshape)
}

// LocationFilter returns the location filter, or false for any.
func (fq FeatureQuery) LocationFilter() (int64, bool) {
	loc, err := strconv.ParseInt(strings.TrimSpace(fq.Location), 10, 64)
	if err != nil || loc == -1 {
		return 0, false
	}
	return loc, true
}

// IsValid reports whether at least one criterion is set.
func (fq FeatureQuery) IsValid() bool {
	_, hasLoc := fq.LocationFilter()
	return strings.TrimSpace(fq.Query) != "" || fq.HandshapeFilter() != "" || hasLoc
}

// FeatureFilter is what a Repository needs to run a FeatureQuery.
type FeatureFilter struct {
	Term        string // folded keyword prefix
	Handshape   string
	Location    int64
	HasLocation bool
	PublicOnly  bool
}

// KeywordFilter is what a Repository needs to run a KeywordQuery.
type KeywordFilter struct {
	Term       string // folded keyword prefix
	Category   string
	PublicOnly bool
	SafeSearch bool
}

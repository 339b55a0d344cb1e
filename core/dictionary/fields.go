package dictionary

import (
	"strconv"

	"github.com/volatiletech/null/v8"
)

// FieldKind is the storage type of a gloss field.
type FieldKind int

const (
	KindString FieldKind = iota
	KindInt
	KindNullInt
	KindBool
)

// GlossField describes one exportable gloss column.
type GlossField struct {
	Name        string // JSON name
	Column      string // database column
	VerboseName string
	Kind        FieldKind
	// Phonology marks fields exported with ECVConfig.IncludePhonologyAndFrequencies.
	Phonology bool
	value     func(g *Gloss) interface{}
}

// Value returns the field value of `g`: string, int64, bool or nil for unset numbers.
func (f GlossField) Value(g Gloss) interface{} {
	return f.value(&g)
}

// String returns the field value of `g` as text. Unset numbers are "".
func (f GlossField) String(g Gloss) string {
	switch v := f.Value(g).(type) {
	case nil:
		return ""
	case string:
		return v
	case int64:
		return strconv.FormatInt(v, 10)
	case bool:
		if v {
			return "True"
		}
		return "False"
	}
	return ""
}

func nullInt(n null.Int) interface{} {
	if !n.Valid {
		return nil
	}
	return int64(n.Int)
}

// GlossFields lists the gloss fields in export order.
var GlossFields = []GlossField{
	{Name: "id", Column: "id", VerboseName: "ID", Kind: KindInt,
		value: func(g *Gloss) interface{} { return g.ID }},
	{Name: "idgloss", Column: "idgloss", VerboseName: "Gloss", Kind: KindString,
		value: func(g *Gloss) interface{} { return g.IDGloss }},
	{Name: "annotation_idgloss", Column: "annotation_idgloss", VerboseName: "Annotation ID Gloss", Kind: KindString,
		value: func(g *Gloss) interface{} { return g.AnnotationIDGloss }},
	{Name: "sn", Column: "sn", VerboseName: "Sign Number", Kind: KindNullInt,
		value: func(g *Gloss) interface{} { return nullInt(g.SN) }},
	{Name: "inWeb", Column: "in_web", VerboseName: "In the Web dictionary", Kind: KindBool,
		value: func(g *Gloss) interface{} { return g.InWeb }},
	{Name: "isNew", Column: "is_new", VerboseName: "Is this a proposed new sign?", Kind: KindBool,
		value: func(g *Gloss) interface{} { return g.IsNew }},
	{Name: "excludeFromEcv", Column: "exclude_from_ecv", VerboseName: "Exclude from ECV", Kind: KindBool,
		value: func(g *Gloss) interface{} { return g.ExcludeFromECV }},
	{Name: "inittext", Column: "inittext", VerboseName: "Initial text", Kind: KindString,
		value: func(g *Gloss) interface{} { return g.InitText }},
	{Name: "bslgloss", Column: "bslgloss", VerboseName: "BSL gloss", Kind: KindString,
		value: func(g *Gloss) interface{} { return g.BSLGloss }},
	{Name: "aslgloss", Column: "aslgloss", VerboseName: "ASL gloss", Kind: KindString,
		value: func(g *Gloss) interface{} { return g.ASLGloss }},
	{Name: "handedness", Column: "handedness", VerboseName: "Handedness", Kind: KindString, Phonology: true,
		value: func(g *Gloss) interface{} { return g.Handedness }},
	{Name: "domhndsh", Column: "domhndsh", VerboseName: "Initial Dominant Handshape", Kind: KindString, Phonology: true,
		value: func(g *Gloss) interface{} { return g.DomHndsh }},
	{Name: "subhndsh", Column: "subhndsh", VerboseName: "Initial Subordinate Handshape", Kind: KindString, Phonology: true,
		value: func(g *Gloss) interface{} { return g.SubHndsh }},
	{Name: "final_domhndsh", Column: "final_domhndsh", VerboseName: "Final Dominant Handshape", Kind: KindString, Phonology: true,
		value: func(g *Gloss) interface{} { return g.FinalDomHndsh }},
	{Name: "final_subhndsh", Column: "final_subhndsh", VerboseName: "Final Subordinate Handshape", Kind: KindString, Phonology: true,
		value: func(g *Gloss) interface{} { return g.FinalSubHndsh }},
	{Name: "locprim", Column: "locprim", VerboseName: "Initial Primary Location", Kind: KindNullInt, Phonology: true,
		value: func(g *Gloss) interface{} { return nullInt(g.LocPrim) }},
	{Name: "locsecond", Column: "locsecond", VerboseName: "Secondary Location", Kind: KindNullInt, Phonology: true,
		value: func(g *Gloss) interface{} { return nullInt(g.LocSecond) }},
	{Name: "final_loc", Column: "final_loc", VerboseName: "Final Primary Location", Kind: KindNullInt, Phonology: true,
		value: func(g *Gloss) interface{} { return nullInt(g.FinalLoc) }},
	{Name: "initial_secondary_loc", Column: "initial_secondary_loc", VerboseName: "Initial Subordinate Location", Kind: KindString, Phonology: true,
		value: func(g *Gloss) interface{} { return g.InitialSecondaryLoc }},
	{Name: "final_secondary_loc", Column: "final_secondary_loc", VerboseName: "Final Subordinate Location", Kind: KindString, Phonology: true,
		value: func(g *Gloss) interface{} { return g.FinalSecondaryLoc }},
	{Name: "initial_relative_orientation", Column: "initial_relative_orientation", VerboseName: "Initial Interacting Dominant Hand Part", Kind: KindString, Phonology: true,
		value: func(g *Gloss) interface{} { return g.InitialRelativeOrientation }},
	{Name: "final_relative_orientation", Column: "final_relative_orientation", VerboseName: "Final Interacting Dominant Hand Part", Kind: KindString, Phonology: true,
		value: func(g *Gloss) interface{} { return g.FinalRelativeOrientation }},
	{Name: "initial_palm_orientation", Column: "initial_palm_orientation", VerboseName: "Initial Palm Orientation", Kind: KindString, Phonology: true,
		value: func(g *Gloss) interface{} { return g.InitialPalmOrientation }},
	{Name: "final_palm_orientation", Column: "final_palm_orientation", VerboseName: "Final Palm Orientation", Kind: KindString, Phonology: true,
		value: func(g *Gloss) interface{} { return g.FinalPalmOrientation }},
	{Name: "compound", Column: "compound", VerboseName: "Compound of", Kind: KindString,
		value: func(g *Gloss) interface{} { return g.Compound }},
	{Name: "blend", Column: "blend", VerboseName: "Blend of", Kind: KindString,
		value: func(g *Gloss) interface{} { return g.Blend }},
	{Name: "morph", Column: "morph", VerboseName: "Morphemic Analysis", Kind: KindString,
		value: func(g *Gloss) interface{} { return g.Morph }},
	{Name: "sense", Column: "sense", VerboseName: "Sense Number", Kind: KindNullInt,
		value: func(g *Gloss) interface{} { return nullInt(g.Sense) }},
	{Name: "StemSN", Column: "stem_sn", VerboseName: "Stem Sign Number", Kind: KindNullInt,
		value: func(g *Gloss) interface{} { return nullInt(g.StemSN) }},
	{Name: "regional_template", Column: "regional_template", VerboseName: "Regional Template", Kind: KindString,
		value: func(g *Gloss) interface{} { return g.RegionalTemplate }},
}

// GlossFieldByName finds a field by JSON name or database column.
func GlossFieldByName(name string) (GlossField, bool) {
	for _, f := range GlossFields {
		if f.Name == name || f.Column == name {
			return f, true
		}
	}
	return GlossField{}, false
}

// FieldsDict maps every field name of `g` except id to its value.
func FieldsDict(g Gloss) map[string]interface{} {
	dict := make(map[string]interface{}, len(GlossFields))
	for _, f := range GlossFields {
		if f.Name == "id" {
			continue
		}
		dict[f.Name] = f.Value(g)
	}
	return dict
}

package dictionary

import (
	"strings"
	"time"

	"github.com/volatiletech/null/v8"
)

// CrudeTag marks glosses hidden from anonymous keyword searches when safe search is on.
const CrudeTag = "lexis:crude"

// Definition roles
const (
	DefRoleGeneral     = "general"
	DefRoleNoun        = "noun"
	DefRoleVerb        = "verb"
	DefRoleDeictic     = "deictic"
	DefRoleInteract    = "interact"
	DefRoleModifier    = "modifier"
	DefRoleQuestion    = "question"
	DefRoleAugment     = "augment"
	DefRoleNote        = "note"
	DefRolePrivateNote = "privatenote"
)

// Relation roles
const (
	RelRoleHomonym   = "homonym"
	RelRoleSynonym   = "synonym"
	RelRoleVariant   = "variant"
	RelRoleAntonym   = "antonym"
	RelRoleHyponym   = "hyponym"
	RelRoleHypernym  = "hypernym"
	RelRoleSeeAlso   = "seealso"
	RelRoleHomophone = "homophone"
)

// Deleted item types
const (
	DeletedGloss = "gloss"
	DeletedVideo = "video"
)

var (
	DefinitionRoles = []Choice{
		{DefRoleGeneral, "General Definition"},
		{DefRoleNoun, "As a Noun"},
		{DefRoleVerb, "As a Verb or Adjective"},
		{DefRoleDeictic, "As a Pointing Sign"},
		{DefRoleInteract, "Interactive"},
		{DefRoleModifier, "As Modifier"},
		{DefRoleQuestion, "As Question"},
		{DefRoleAugment, "Augmented meaning"},
		{DefRoleNote, "Note"},
		{DefRolePrivateNote, "Private Note"},
	}

	RelationRoles = []Choice{
		{RelRoleHomonym, "Homonym"},
		{RelRoleSynonym, "Synonym"},
		{RelRoleVariant, "Variant"},
		{RelRoleAntonym, "Antonym"},
		{RelRoleHyponym, "Hyponym"},
		{RelRoleHypernym, "Hypernym"},
		{RelRoleSeeAlso, "See Also"},
		{RelRoleHomophone, "Homophone"},
	}
)

// Choice is a coded value and its display name.
type Choice struct {
	Value string `json:"value"`
	Name  string `json:"name"`
}

// ChoiceName returns the display name of `value`, or `value` itself when unknown.
func ChoiceName(choices []Choice, value string) string {
	for _, c := range choices {
		if c.Value == value {
			return c.Name
		}
	}
	return value
}

func validChoice(choices []Choice, value string) bool {
	for _, c := range choices {
		if c.Value == value {
			return true
		}
	}
	return false
}

type Gloss struct {
	ID                int64    `json:"id" db:"id"`
	IDGloss           string   `json:"idgloss" db:"idgloss"`
	AnnotationIDGloss string   `json:"annotation_idgloss" db:"annotation_idgloss"`
	SN                null.Int `json:"sn" db:"sn"`
	InWeb             bool     `json:"inWeb" db:"in_web"`
	IsNew             bool     `json:"isNew" db:"is_new"`
	ExcludeFromECV    bool     `json:"excludeFromEcv" db:"exclude_from_ecv"`
	InitText          string   `json:"inittext" db:"inittext"`
	BSLGloss          string   `json:"bslgloss" db:"bslgloss"`
	ASLGloss          string   `json:"aslgloss" db:"aslgloss"`

	// phonology
	Handedness                 string   `json:"handedness" db:"handedness"`
	DomHndsh                   string   `json:"domhndsh" db:"domhndsh"`
	SubHndsh                   string   `json:"subhndsh" db:"subhndsh"`
	FinalDomHndsh              string   `json:"final_domhndsh" db:"final_domhndsh"`
	FinalSubHndsh              string   `json:"final_subhndsh" db:"final_subhndsh"`
	LocPrim                    null.Int `json:"locprim" db:"locprim"`
	LocSecond                  null.Int `json:"locsecond" db:"locsecond"`
	FinalLoc                   null.Int `json:"final_loc" db:"final_loc"`
	InitialSecondaryLoc        string   `json:"initial_secondary_loc" db:"initial_secondary_loc"`
	FinalSecondaryLoc          string   `json:"final_secondary_loc" db:"final_secondary_loc"`
	InitialRelativeOrientation string   `json:"initial_relative_orientation" db:"initial_relative_orientation"`
	FinalRelativeOrientation   string   `json:"final_relative_orientation" db:"final_relative_orientation"`
	InitialPalmOrientation     string   `json:"initial_palm_orientation" db:"initial_palm_orientation"`
	FinalPalmOrientation       string   `json:"final_palm_orientation" db:"final_palm_orientation"`

	// morphology
	Compound         string   `json:"compound" db:"compound"`
	Blend            string   `json:"blend" db:"blend"`
	Morph            string   `json:"morph" db:"morph"`
	Sense            null.Int `json:"sense" db:"sense"`
	StemSN           null.Int `json:"StemSN" db:"stem_sn"`
	RegionalTemplate string   `json:"regional_template" db:"regional_template"`

	CreatedAt time.Time `json:"created_at" db:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"` // UTC
}

// String mirrors the gloss id shown in every listing.
func (g Gloss) String() string {
	return g.IDGloss
}

type Keyword struct {
	ID   int64  `json:"id" db:"id"`
	Text string `json:"text" db:"text"`
}

type Translation struct {
	ID        int64  `json:"id" db:"id"`
	GlossID   int64  `json:"gloss" db:"gloss_id"`
	KeywordID int64  `json:"keyword_id" db:"keyword_id"`
	Index     int    `json:"index" db:"idx"`
	Keyword   string `json:"keyword" db:"keyword"`
}

type Definition struct {
	ID        int64  `json:"id" db:"id"`
	GlossID   int64  `json:"gloss" db:"gloss_id"`
	Text      string `json:"text" db:"text"`
	Role      string `json:"role" db:"role"`
	Count     int    `json:"count" db:"count"`
	Published bool   `json:"published" db:"published"`
}

// RoleName is the display name of the definition role.
func (d Definition) RoleName() string {
	return ChoiceName(DefinitionRoles, d.Role)
}

type Relation struct {
	ID       int64  `json:"id" db:"id"`
	SourceID int64  `json:"source" db:"source_id"`
	TargetID int64  `json:"target" db:"target_id"`
	Role     string `json:"role" db:"role"`
	// target gloss, filled on reads
	TargetIDGloss string `json:"target_idgloss" db:"target_idgloss"`
}

type Language struct {
	ID          int64  `json:"id" db:"id"`
	Name        string `json:"name" db:"name"`
	Description string `json:"description" db:"description"`
}

type Dialect struct {
	ID           int64  `json:"id" db:"id"`
	LanguageID   int64  `json:"language" db:"language_id"`
	Name         string `json:"name" db:"name"`
	Description  string `json:"description" db:"description"`
	LanguageName string `json:"language_name" db:"language_name"`
}

type Region struct {
	ID           int64  `json:"id" db:"id"`
	GlossID      int64  `json:"gloss" db:"gloss_id"`
	DialectID    int64  `json:"dialect" db:"dialect_id"`
	Frequency    int    `json:"frequency" db:"frequency"`
	Traditional  bool   `json:"traditional" db:"traditional"`
	DialectName  string `json:"dialect_name" db:"dialect_name"`
	LanguageName string `json:"language_name" db:"language_name"`
}

type Tag struct {
	ID   int64  `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
}

type GlossVideo struct {
	ID        int64  `json:"id" db:"id"`
	GlossID   int64  `json:"gloss" db:"gloss_id"`
	VideoFile string `json:"videofile" db:"videofile"`
	Version   int    `json:"version" db:"version"`
}

type FieldChoice struct {
	ID           int64  `json:"id" db:"id"`
	Field        string `json:"field" db:"field"`
	MachineValue string `json:"machine_value" db:"machine_value"`
	EnglishName  string `json:"english_name" db:"english_name"`
}

type DeletedGlossOrMedia struct {
	ID           int64     `json:"id" db:"id"`
	ItemType     string    `json:"item_type" db:"item_type"`
	OldPK        int64     `json:"old_pk" db:"old_pk"`
	IDGloss      string    `json:"idgloss" db:"idgloss"`
	DeletionDate time.Time `json:"deletion_date" db:"deletion_date"` // UTC
}

// GlossRecord is a gloss with the related data exporters need.
type GlossRecord struct {
	Gloss       Gloss
	Keywords    []string
	Tags        []string
	Definitions []Definition
}

// GlossLinks are the many-to-many rows saved with a gloss. A nil field leaves the stored rows unchanged.
type GlossLinks struct {
	Keywords  []string
	Languages []int64
	Dialects  []int64
}

// SplitKeywords splits a comma separated keyword list, dropping blanks and duplicates.
func SplitKeywords(s string) []string {
	var (
		kws  []string
		seen = map[string]bool{}
	)
	for _, kw := range strings.Split(s, ",") {
		kw = strings.Join(strings.Fields(kw), " ")
		if kw == "" || seen[kw] {
			continue
		}
		seen[kw] = true
		kws = append(kws, kw)
	}
	return kws
}

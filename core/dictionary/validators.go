package dictionary

import (
	"context"
	"strings"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/signbank/signbank/core"
)

var (
	defRoleTag  = "defrole"
	defRoleText = "invalid definition role"

	relRoleTag  = "relrole"
	relRoleText = "invalid relation role"

	snTag  = "signnumber"
	snText = "sign numbers must be positive"
)

// InitValidators registers the dictionary validators and their translations.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(defRoleTag, choiceValidation(DefinitionRoles))
	core.RegisterCustomTranslation(validate, translator, defRoleTag, defRoleText)

	_ = validate.RegisterValidation(relRoleTag, choiceValidation(RelationRoles))
	core.RegisterCustomTranslation(validate, translator, relRoleTag, relRoleText)

	validate.RegisterStructValidation(glossStructValidation, GlossForm{})
	core.RegisterCustomTranslation(validate, translator, snTag, snText)
}

func choiceValidation(choices []Choice) validator.Func {
	return func(fl validator.FieldLevel) bool {
		return validChoice(choices, fl.Field().String())
	}
}

// glossStructValidation rejects negative sign numbers.
func glossStructValidation(sl validator.StructLevel) {
	gf, ok := sl.Current().Interface().(GlossForm)
	if !ok {
		return
	}
	if gf.SN.Valid && gf.SN.Int < 0 {
		sl.ReportError(gf.SN, "sn", "SN", snTag, "")
	}
}

// GlossForm holds the editable gloss fields. Keywords, Languages and Dialects are left untouched when nil.
type GlossForm struct {
	IDGloss           string   `json:"idgloss" validate:"required,notblank,max=50"`
	AnnotationIDGloss string   `json:"annotation_idgloss" validate:"max=30"`
	SN                null.Int `json:"sn"`
	InWeb             bool     `json:"inWeb"`
	IsNew             bool     `json:"isNew"`
	ExcludeFromECV    bool     `json:"excludeFromEcv"`
	InitText          string   `json:"inittext" validate:"max=50"`
	BSLGloss          string   `json:"bslgloss" validate:"max=50"`
	ASLGloss          string   `json:"aslgloss" validate:"max=50"`

	Handedness                 string   `json:"handedness" validate:"max=10"`
	DomHndsh                   string   `json:"domhndsh" validate:"max=5"`
	SubHndsh                   string   `json:"subhndsh" validate:"max=5"`
	FinalDomHndsh              string   `json:"final_domhndsh" validate:"max=5"`
	FinalSubHndsh              string   `json:"final_subhndsh" validate:"max=5"`
	LocPrim                    null.Int `json:"locprim"`
	LocSecond                  null.Int `json:"locsecond"`
	FinalLoc                   null.Int `json:"final_loc"`
	InitialSecondaryLoc        string   `json:"initial_secondary_loc" validate:"max=20"`
	FinalSecondaryLoc          string   `json:"final_secondary_loc" validate:"max=20"`
	InitialRelativeOrientation string   `json:"initial_relative_orientation" validate:"max=20"`
	FinalRelativeOrientation   string   `json:"final_relative_orientation" validate:"max=20"`
	InitialPalmOrientation     string   `json:"initial_palm_orientation" validate:"max=20"`
	FinalPalmOrientation       string   `json:"final_palm_orientation" validate:"max=20"`

	Compound         string   `json:"compound" validate:"max=100"`
	Blend            string   `json:"blend" validate:"max=100"`
	Morph            string   `json:"morph" validate:"max=50"`
	Sense            null.Int `json:"sense"`
	StemSN           null.Int `json:"StemSN"`
	RegionalTemplate string   `json:"regional_template" validate:"max=100"`

	// comma separated
	Keywords  *string `json:"keywords"`
	Languages []int64 `json:"languages"`
	Dialects  []int64 `json:"dialects"`
}

// FormFromGloss prefills a GlossForm so that a partial update keeps the unset fields.
func FormFromGloss(g Gloss) GlossForm {
	return GlossForm{
		IDGloss:                    g.IDGloss,
		AnnotationIDGloss:          g.AnnotationIDGloss,
		SN:                         g.SN,
		InWeb:                      g.InWeb,
		IsNew:                      g.IsNew,
		ExcludeFromECV:             g.ExcludeFromECV,
		InitText:                   g.InitText,
		BSLGloss:                   g.BSLGloss,
		ASLGloss:                   g.ASLGloss,
		Handedness:                 g.Handedness,
		DomHndsh:                   g.DomHndsh,
		SubHndsh:                   g.SubHndsh,
		FinalDomHndsh:              g.FinalDomHndsh,
		FinalSubHndsh:              g.FinalSubHndsh,
		LocPrim:                    g.LocPrim,
		LocSecond:                  g.LocSecond,
		FinalLoc:                   g.FinalLoc,
		InitialSecondaryLoc:        g.InitialSecondaryLoc,
		FinalSecondaryLoc:          g.FinalSecondaryLoc,
		InitialRelativeOrientation: g.InitialRelativeOrientation,
		FinalRelativeOrientation:   g.FinalRelativeOrientation,
		InitialPalmOrientation:     g.InitialPalmOrientation,
		FinalPalmOrientation:       g.FinalPalmOrientation,
		Compound:                   g.Compound,
		Blend:                      g.Blend,
		Morph:                      g.Morph,
		Sense:                      g.Sense,
		StemSN:                     g.StemSN,
		RegionalTemplate:           g.RegionalTemplate,
	}
}

func (gf GlossForm) apply(g Gloss) Gloss {
	g.IDGloss = gf.IDGloss
	g.AnnotationIDGloss = gf.AnnotationIDGloss
	g.SN = gf.SN
	g.InWeb = gf.InWeb
	g.IsNew = gf.IsNew
	g.ExcludeFromECV = gf.ExcludeFromECV
	g.InitText = gf.InitText
	g.BSLGloss = gf.BSLGloss
	g.ASLGloss = gf.ASLGloss
	g.Handedness = gf.Handedness
	g.DomHndsh = gf.DomHndsh
	g.SubHndsh = gf.SubHndsh
	g.FinalDomHndsh = gf.FinalDomHndsh
	g.FinalSubHndsh = gf.FinalSubHndsh
	g.LocPrim = gf.LocPrim
	g.LocSecond = gf.LocSecond
	g.FinalLoc = gf.FinalLoc
	g.InitialSecondaryLoc = gf.InitialSecondaryLoc
	g.FinalSecondaryLoc = gf.FinalSecondaryLoc
	g.InitialRelativeOrientation = gf.InitialRelativeOrientation
	g.FinalRelativeOrientation = gf.FinalRelativeOrientation
	g.InitialPalmOrientation = gf.InitialPalmOrientation
	g.FinalPalmOrientation = gf.FinalPalmOrientation
	g.Compound = gf.Compound
	g.Blend = gf.Blend
	g.Morph = gf.Morph
	g.Sense = gf.Sense
	g.StemSN = gf.StemSN
	g.RegionalTemplate = gf.RegionalTemplate
	return g
}

func (gf GlossForm) links() GlossLinks {
	links := GlossLinks{Languages: gf.Languages, Dialects: gf.Dialects}
	if gf.Keywords != nil {
		links.Keywords = SplitKeywords(*gf.Keywords)
		if links.Keywords == nil {
			links.Keywords = []string{}
		}
	}
	return links
}

// Validate cleans and validates the form. `glossID` is the gloss being updated, 0 on creation.
func (gf *GlossForm) Validate(ctx context.Context, validate *validator.Validate, svc *Service, glossID int64) error {
	gf.IDGloss = core.CleanString(gf.IDGloss)
	gf.AnnotationIDGloss = core.CleanString(gf.AnnotationIDGloss)

	if err := validate.Struct(gf); err != nil {
		return err
	}
	if gf.SN.Valid {
		if err := svc.CheckSN(ctx, gf.SN.Int, glossID); err != nil {
			return err
		}
	}
	return svc.checkLanguagesAndDialects(ctx, gf.Languages, gf.Dialects)
}

type KeywordsForm struct {
	Keywords string `json:"keywords"`
}

type TagUpdate struct {
	Tag    string `json:"tag" validate:"required,notblank,max=100"`
	Delete bool   `json:"delete"`
}

func (tu *TagUpdate) Validate(validate *validator.Validate) error {
	tu.Tag = strings.TrimSpace(tu.Tag)
	return validate.Struct(tu)
}

type DefinitionForm struct {
	Text      string `json:"text" validate:"required,notblank"`
	Role      string `json:"role" validate:"required,defrole"`
	Count     *int   `json:"count" validate:"omitempty,min=1"`
	Published bool   `json:"published"`
}

func (df *DefinitionForm) Validate(validate *validator.Validate) error {
	df.Text = strings.TrimSpace(df.Text)
	return validate.Struct(df)
}

type RelationForm struct {
	Source int64  `json:"source" validate:"required"`
	Target int64  `json:"target" validate:"required"`
	Role   string `json:"role" validate:"required,relrole"`
}

func (rf *RelationForm) Validate(validate *validator.Validate) error {
	return validate.Struct(rf)
}

type RegionForm struct {
	Dialect     int64 `json:"dialect" validate:"required"`
	Frequency   int   `json:"frequency" validate:"min=0"`
	Traditional bool  `json:"traditional"`
}

func (rf *RegionForm) Validate(validate *validator.Validate) error {
	return validate.Struct(rf)
}

type LanguageForm struct {
	Name        string `json:"name" validate:"required,notblank,max=20"`
	Description string `json:"description"`
}

func (lf *LanguageForm) Validate(validate *validator.Validate) error {
	lf.Name = core.CleanString(lf.Name)
	return validate.Struct(lf)
}

type DialectForm struct {
	Language    int64  `json:"language" validate:"required"`
	Name        string `json:"name" validate:"required,notblank,max=20"`
	Description string `json:"description"`
}

func (df *DialectForm) Validate(validate *validator.Validate) error {
	df.Name = core.CleanString(df.Name)
	return validate.Struct(df)
}

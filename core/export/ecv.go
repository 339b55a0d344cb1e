package export

import (
	"encoding/xml"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/signbank/signbank/core"
	"github.com/signbank/signbank/core/dictionary"
)

const (
	ecvExtRef    = "signbank-ecv"
	ecvVersion   = "0.2"
	ecvXSI       = "http://www.w3.org/2001/XMLSchema-instance"
	ecvSchema    = "http://www.mpi.nl/tools/elan/EAFv2.8.xsd"
	ecvDateFmt   = "2006-01-02T15:04:05.000000"
	ecvIndent    = "   "
	ecvEmptyText = " "
)

type (
	cvResource struct {
		XMLName        xml.Name             `xml:"CV_RESOURCE"`
		XSI            string               `xml:"xmlns:xsi,attr"`
		Date           string               `xml:"DATE,attr"`
		Author         string               `xml:"AUTHOR,attr"`
		Version        string               `xml:"VERSION,attr"`
		SchemaLocation string               `xml:"xsi:noNamespaceSchemaLocation,attr"`
		Languages      []cvLanguage         `xml:"LANGUAGE"`
		Vocabulary     controlledVocabulary `xml:"CONTROLLED_VOCABULARY"`
		ExternalRef    externalRef          `xml:"EXTERNAL_REF"`
	}

	cvLanguage struct {
		LangDef   string `xml:"LANG_DEF,attr"`
		LangID    string `xml:"LANG_ID,attr"`
		LangLabel string `xml:"LANG_LABEL,attr"`
	}

	controlledVocabulary struct {
		CVID         string          `xml:"CV_ID,attr"`
		Descriptions []cvDescription `xml:"DESCRIPTION"`
		Entries      []cvEntry       `xml:"CV_ENTRY_ML"`
	}

	cvDescription struct {
		LangRef string `xml:"LANG_REF,attr"`
		Text    string `xml:",chardata"`
	}

	cvEntry struct {
		CVEID  string    `xml:"CVE_ID,attr"`
		ExtRef string    `xml:"EXT_REF,attr"`
		Values []cvValue `xml:"CVE_VALUE"`
	}

	cvValue struct {
		Description string `xml:"DESCRIPTION,attr"`
		LangRef     string `xml:"LANG_REF,attr"`
		Text        string `xml:",chardata"`
	}

	externalRef struct {
		ExtRefID string `xml:"EXT_REF_ID,attr"`
		Type     string `xml:"TYPE,attr"`
		Value    string `xml:"VALUE,attr"`
	}
)

// Field choice categories displayed in the ECV entry descriptions.
const (
	ChoiceHandedness = "handedness"
	ChoiceHandshape  = "handshape"
	ChoiceLocation   = "location"
)

// Choices maps a field choice category to its machine value -> english name pairs.
type Choices map[string]map[string]string

// NewChoices indexes the field choices by category and machine value.
func NewChoices(fcs []dictionary.FieldChoice) Choices {
	ch := make(Choices)
	for _, fc := range fcs {
		if ch[fc.Field] == nil {
			ch[fc.Field] = make(map[string]string)
		}
		ch[fc.Field][fc.MachineValue] = fc.EnglishName
	}
	return ch
}

func (ch Choices) display(field, value string) string {
	if name, ok := ch[field][value]; ok {
		return name
	}
	return value
}

type ECVOptions struct {
	Config  core.ECVConfig
	SiteURL string
	// only used when Config.IncludePhonologyAndFrequencies is set
	Choices Choices
	Now     time.Time
}

// WriteECV writes the ELAN external controlled vocabulary of `records`: one entry per gloss,
// with one value per configured language.
func WriteECV(w io.Writer, records []dictionary.GlossRecord, opts ECVOptions) error {
	res := cvResource{
		XSI:            ecvXSI,
		Date:           opts.Now.Format(ecvDateFmt),
		Version:        ecvVersion,
		SchemaLocation: ecvSchema,
		Vocabulary:     controlledVocabulary{CVID: opts.Config.CVID},
		ExternalRef: externalRef{
			ExtRefID: ecvExtRef,
			Type:     "resource_url",
			Value:    opts.SiteURL + "/dictionary/gloss/",
		},
	}
	for _, lang := range opts.Config.Languages {
		res.Languages = append(res.Languages, cvLanguage{LangDef: lang.LangDef, LangID: lang.LangID, LangLabel: lang.LangLabel})
		res.Vocabulary.Descriptions = append(res.Vocabulary.Descriptions, cvDescription{LangRef: lang.ID, Text: lang.Description})
	}

	for _, rec := range records {
		if rec.Gloss.ExcludeFromECV {
			continue
		}
		desc := strings.Join(rec.Keywords, ", ")
		if opts.Config.IncludePhonologyAndFrequencies {
			desc = phonology(rec.Gloss, opts.Choices) + ", " + desc
		}

		entry := cvEntry{CVEID: strconv.FormatInt(rec.Gloss.ID, 10), ExtRef: ecvExtRef}
		for _, lang := range opts.Config.Languages {
			entry.Values = append(entry.Values, cvValue{
				Description: desc,
				LangRef:     lang.ID,
				Text:        annotationValue(rec.Gloss, lang.AnnotationIDGlossFieldName),
			})
		}
		res.Vocabulary.Entries = append(res.Vocabulary.Entries, entry)
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return errors.Wrap(err, "export.WriteECV(Header)")
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", ecvIndent)
	if err := enc.Encode(res); err != nil {
		return errors.Wrap(err, "export.WriteECV(Encode)")
	}
	_, err := io.WriteString(w, "\n")
	return errors.Wrap(err, "export.WriteECV")
}

// annotationValue is the ECV value of a gloss; empty or "-" annotations become a single space.
func annotationValue(g dictionary.Gloss, fieldName string) string {
	f, ok := dictionary.GlossFieldByName(fieldName)
	if !ok {
		return ecvEmptyText
	}
	val := f.String(g)
	if val == "" || val == "-" {
		return ecvEmptyText
	}
	return val
}

// phonology describes the hand configuration and location of a gloss, e.g. "Two handed, (B,5), Chin".
func phonology(g dictionary.Gloss, ch Choices) string {
	var sb strings.Builder
	sb.WriteString(ch.display(ChoiceHandedness, g.Handedness))
	sb.WriteString(", (")
	sb.WriteString(ch.display(ChoiceHandshape, g.DomHndsh))
	sb.WriteString(",")
	sb.WriteString(ch.display(ChoiceHandshape, g.SubHndsh))
	sb.WriteString(")")
	if g.LocPrim.Valid {
		sb.WriteString(", ")
		sb.WriteString(ch.display(ChoiceLocation, strconv.Itoa(g.LocPrim.Int)))
	}
	return sb.String()
}

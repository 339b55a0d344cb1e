package export

import (
	"bytes"
	"encoding/xml"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"

	"github.com/signbank/signbank/core"
	"github.com/signbank/signbank/core/dictionary"
)

func ecvConfig() core.ECVConfig {
	return core.ECVConfig{
		CVID: "BSL-lexicon",
		Languages: []core.ECVLanguage{{
			ID:                         "eng",
			Description:                "The glosses CV for the BSL",
			AnnotationIDGlossFieldName: "annotation_idgloss",
			LangDef:                    "http://cdb.iso.org/lg/CDB-00138502-001",
			LangID:                     "eng",
			LangLabel:                  "English (eng)",
		}},
	}
}

func ecvRecords() []dictionary.GlossRecord {
	return []dictionary.GlossRecord{
		{
			Gloss: dictionary.Gloss{
				ID: 7, IDGloss: "HOUSE", AnnotationIDGloss: "HOUSE1",
				Handedness: "2s", DomHndsh: "B", SubHndsh: "5", LocPrim: null.IntFrom(3),
			},
			Keywords: []string{"house", "home"},
		},
		{Gloss: dictionary.Gloss{ID: 8, IDGloss: "DASH", AnnotationIDGloss: "-"}},
		{Gloss: dictionary.Gloss{ID: 9, IDGloss: "HIDDEN", AnnotationIDGloss: "HIDDEN", ExcludeFromECV: true}},
	}
}

func TestWriteECV(t *testing.T) {
	now := time.Date(2020, 5, 17, 10, 30, 15, 123456000, time.UTC)

	var buf bytes.Buffer
	err := WriteECV(&buf, ecvRecords(), ECVOptions{Config: ecvConfig(), SiteURL: "http://example.org", Now: now})
	require.NoError(t, err)
	out := buf.String()

	assert.True(t, strings.HasPrefix(out, xml.Header))
	assert.Contains(t, out, `<CV_RESOURCE xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance" DATE="2020-05-17T10:30:15.123456" AUTHOR="" VERSION="0.2" xsi:noNamespaceSchemaLocation="http://www.mpi.nl/tools/elan/EAFv2.8.xsd">`)
	assert.Contains(t, out, "\n   <LANGUAGE LANG_DEF=\"http://cdb.iso.org/lg/CDB-00138502-001\" LANG_ID=\"eng\" LANG_LABEL=\"English (eng)\"></LANGUAGE>")
	assert.Contains(t, out, "\n      <DESCRIPTION LANG_REF=\"eng\">The glosses CV for the BSL</DESCRIPTION>")
	assert.Contains(t, out, `<EXTERNAL_REF EXT_REF_ID="signbank-ecv" TYPE="resource_url" VALUE="http://example.org/dictionary/gloss/">`)
	assert.NotContains(t, out, "HIDDEN")

	var doc cvResource
	require.NoError(t, xml.Unmarshal(buf.Bytes(), &doc))
	want := []cvEntry{
		{CVEID: "7", ExtRef: "signbank-ecv", Values: []cvValue{{Description: "house, home", LangRef: "eng", Text: "HOUSE1"}}},
		{CVEID: "8", ExtRef: "signbank-ecv", Values: []cvValue{{Description: "", LangRef: "eng", Text: " "}}},
	}
	if diff := cmp.Diff(want, doc.Vocabulary.Entries); diff != "" {
		t.Errorf("entries mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, "BSL-lexicon", doc.Vocabulary.CVID)
}

func TestWriteECVPhonology(t *testing.T) {
	conf := ecvConfig()
	conf.IncludePhonologyAndFrequencies = true
	choices := NewChoices([]dictionary.FieldChoice{
		{Field: ChoiceHandedness, MachineValue: "2s", EnglishName: "Two handed symmetrical"},
		{Field: ChoiceHandshape, MachineValue: "B", EnglishName: "Flat"},
		{Field: ChoiceLocation, MachineValue: "3", EnglishName: "Chin"},
	})

	var buf bytes.Buffer
	err := WriteECV(&buf, ecvRecords()[:1], ECVOptions{Config: conf, Choices: choices, Now: time.Now()})
	require.NoError(t, err)

	var doc cvResource
	require.NoError(t, xml.Unmarshal(buf.Bytes(), &doc))
	require.Len(t, doc.Vocabulary.Entries, 1)
	assert.Equal(t, "Two handed symmetrical, (Flat,5), Chin, house, home", doc.Vocabulary.Entries[0].Values[0].Description)
}

func TestAnnotationValue(t *testing.T) {
	tests := []struct {
		name  string
		gloss dictionary.Gloss
		field string
		want  string
	}{
		{name: "annotation", gloss: dictionary.Gloss{AnnotationIDGloss: "CAT"}, field: "annotation_idgloss", want: "CAT"},
		{name: "empty", gloss: dictionary.Gloss{}, field: "annotation_idgloss", want: " "},
		{name: "dash", gloss: dictionary.Gloss{AnnotationIDGloss: "-"}, field: "annotation_idgloss", want: " "},
		{name: "other field", gloss: dictionary.Gloss{IDGloss: "DOG"}, field: "idgloss", want: "DOG"},
		{name: "unknown field", gloss: dictionary.Gloss{IDGloss: "DOG"}, field: "nope", want: " "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, annotationValue(tt.gloss, tt.field))
		})
	}
}

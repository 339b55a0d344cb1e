package export

import (
	"bytes"
	"encoding/csv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"

	"github.com/signbank/signbank/core/dictionary"
)

func csvRecords() []dictionary.GlossRecord {
	return []dictionary.GlossRecord{
		{
			Gloss:    dictionary.Gloss{ID: 1, IDGloss: "CAFÉ", SN: null.IntFrom(12), InWeb: true},
			Keywords: []string{"café", "coffee shop"},
			Tags:     []string{"lexis:food"},
			Definitions: []dictionary.Definition{
				{ID: 1, GlossID: 1, Text: "a place; to drink", Role: dictionary.DefRoleGeneral, Count: 1, Published: true},
				{ID: 2, GlossID: 1, Text: "secret", Role: dictionary.DefRolePrivateNote, Count: 1},
			},
		},
		{
			Gloss: dictionary.Gloss{ID: 2, IDGloss: "TEA"},
		},
	}
}

func readCSV(t *testing.T, data []byte) [][]string {
	t.Helper()
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	require.NoError(t, err)
	return rows
}

func TestWriteCSV(t *testing.T) {
	nFields := len(dictionary.GlossFields)

	t.Run("basic", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, WriteCSV(&buf, csvRecords(), CSVOptions{}))

		rows := readCSV(t, buf.Bytes())
		require.Len(t, rows, 3)
		header := rows[0]
		assert.Len(t, header, nFields+2)
		assert.Equal(t, "ID", header[0])
		assert.Equal(t, "Gloss", header[1])
		assert.Equal(t, []string{"Keywords", "Tags"}, header[nFields:])

		first := rows[1]
		assert.Equal(t, "1", first[0])
		assert.Equal(t, "CAFE", first[1])
		assert.Equal(t, "12", first[3])
		assert.Equal(t, "True", first[4])
		assert.Equal(t, "cafe, coffee shop", first[nFields])
		assert.Equal(t, "lexis:food", first[nFields+1])

		second := rows[2]
		assert.Equal(t, "", second[3])
		assert.Equal(t, "False", second[4])
		assert.Equal(t, []string{"", ""}, second[nFields:])
	})

	t.Run("advanced", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, WriteCSV(&buf, csvRecords(), CSVOptions{Advanced: true}))

		rows := readCSV(t, buf.Bytes())
		header := rows[0]
		require.Len(t, header, nFields+2+8)
		assert.Equal(t, []string{"Note ID", "Note Published", "Note Role", "Note Text"}, header[nFields+2:nFields+6])

		first := rows[1]
		assert.Equal(t, []string{"1", "Published", "General Definition", "a place, to drink"}, first[nFields+2:])
	})

	t.Run("advanced with unpublished", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, WriteCSV(&buf, csvRecords(), CSVOptions{Advanced: true, Unpublished: true}))

		rows := readCSV(t, buf.Bytes())
		first := rows[1]
		assert.Equal(t, []string{
			"1", "Published", "General Definition", "a place, to drink",
			"2", "Unpublished", "Private Note", "secret",
		}, first[nFields+2:])
	})

	t.Run("no records", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, WriteCSV(&buf, nil, CSVOptions{Advanced: true}))
		rows := readCSV(t, buf.Bytes())
		require.Len(t, rows, 1)
		assert.Len(t, rows[0], nFields+2)
	})
}

// Package export writes the dictionary out as CSV, ELAN controlled vocabularies and zip packages.
package export

import (
	"encoding/csv"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/signbank/signbank/core"
	"github.com/signbank/signbank/core/dictionary"
)

// CSVFilename is the attachment name of CSV exports.
const CSVFilename = "dictionary-export.csv"

type CSVOptions struct {
	// add the definition columns
	Advanced bool
	// include unpublished definitions
	Unpublished bool
}

// WriteCSV writes one row per gloss: every gloss field, its keywords, its tags and, with
// opts.Advanced, its definitions. Every cell is made ASCII safe.
func WriteCSV(w io.Writer, records []dictionary.GlossRecord, opts CSVOptions) error {
	cw := csv.NewWriter(w)

	header := make([]string, 0, len(dictionary.GlossFields)+2)
	for _, f := range dictionary.GlossFields {
		header = append(header, f.VerboseName)
	}
	header = append(header, "Keywords", "Tags")
	if opts.Advanced {
		var noteCount int
		for _, rec := range records {
			if len(rec.Definitions) > noteCount {
				noteCount = len(rec.Definitions)
			}
		}
		for i := 0; i < noteCount; i++ {
			header = append(header, "Note ID", "Note Published", "Note Role", "Note Text")
		}
	}
	if err := cw.Write(safeRow(header)); err != nil {
		return errors.Wrap(err, "export.WriteCSV(header)")
	}

	for _, rec := range records {
		row := make([]string, 0, len(header))
		for _, f := range dictionary.GlossFields {
			row = append(row, f.String(rec.Gloss))
		}
		row = append(row, strings.Join(rec.Keywords, ", "), strings.Join(rec.Tags, ", "))

		if opts.Advanced {
			for i, def := range rec.Definitions {
				if !def.Published && !opts.Unpublished {
					continue
				}
				published := "Unpublished"
				if def.Published {
					published = "Published"
				}
				row = append(row,
					strconv.Itoa(i+1),
					published,
					strings.ReplaceAll(def.RoleName(), ";", ","),
					strings.ReplaceAll(def.Text, ";", ","),
				)
			}
		}
		if err := cw.Write(safeRow(row)); err != nil {
			return errors.Wrap(err, "export.WriteCSV(row)")
		}
	}

	cw.Flush()
	return errors.Wrap(cw.Error(), "export.WriteCSV(Flush)")
}

func safeRow(row []string) []string {
	for i, cell := range row {
		row[i] = core.ASCIISafe(cell)
	}
	return row
}

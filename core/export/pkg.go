package export

import (
	"archive/zip"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/pkg/errors"
)

// Package is the content of a dictionary package. A patch only carries what changed after Since.
type Package struct {
	RunID string // zip comment
	Now   int64  // unix seconds
	Patch bool
	Since int64 // unix seconds, patches only

	VideoURLs map[string]string
	ImageURLs map[string]string
	// gloss id -> field name -> value
	Glosses map[string]map[string]interface{}
	// [old id, idgloss] pairs, patches only
	DeletedGlosses [][2]interface{}
	// old ids, patches only
	DeletedVideos []int64
}

// Name is signbank_package.<now>.zip, or signbank_patch.<since>-<now>.zip for a patch.
func (p Package) Name() string {
	if p.Patch {
		return fmt.Sprintf("signbank_patch.%d-%d.zip", p.Since, p.Now)
	}
	return fmt.Sprintf("signbank_package.%d.zip", p.Now)
}

type pkgFile struct {
	name string
	data interface{}
}

// WritePackage writes the package as a zip archive of indented JSON files.
func WritePackage(w io.Writer, p Package) error {
	files := []pkgFile{
		{"video_urls.json", nonNilMap(p.VideoURLs)},
		{"image_urls.json", nonNilMap(p.ImageURLs)},
		{"glosses.json", p.glosses()},
	}
	if p.Patch {
		deletedGlosses := p.DeletedGlosses
		if deletedGlosses == nil {
			deletedGlosses = [][2]interface{}{}
		}
		deletedVideos := p.DeletedVideos
		if deletedVideos == nil {
			deletedVideos = []int64{}
		}
		files = append(files,
			pkgFile{"deleted_glosses.json", deletedGlosses},
			pkgFile{"deleted_videos.json", deletedVideos},
		)
	}

	zw := zip.NewWriter(w)
	if p.RunID != "" {
		if err := zw.SetComment(p.RunID); err != nil {
			return errors.Wrap(err, "export.WritePackage(SetComment)")
		}
	}
	for _, f := range files {
		data, err := json.MarshalIndent(f.data, "", "    ")
		if err != nil {
			return errors.Wrapf(err, "export.WritePackage(Marshal %s)", f.name)
		}
		fw, err := zw.Create(f.name)
		if err != nil {
			return errors.Wrapf(err, "export.WritePackage(Create %s)", f.name)
		}
		if _, err := fw.Write(data); err != nil {
			return errors.Wrapf(err, "export.WritePackage(Write %s)", f.name)
		}
	}
	return errors.Wrap(zw.Close(), "export.WritePackage(Close)")
}

func (p Package) glosses() map[string]map[string]interface{} {
	if p.Glosses == nil {
		return map[string]map[string]interface{}{}
	}
	return p.Glosses
}

func nonNilMap(m map[string]string) map[string]string {
	if m == nil {
		return map[string]string{}
	}
	return m
}

func glossKey(id int64) string {
	return strconv.FormatInt(id, 10)
}

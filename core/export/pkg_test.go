package export

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"io"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readZip(t *testing.T, data []byte) map[string][]byte {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	files := make(map[string][]byte)
	for _, f := range zr.File {
		rc, err := f.Open()
		require.NoError(t, err)
		content, err := io.ReadAll(rc)
		require.NoError(t, err)
		require.NoError(t, rc.Close())
		files[f.Name] = content
	}
	return files
}

func fileNames(files map[string][]byte) []string {
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func TestPackageName(t *testing.T) {
	assert.Equal(t, "signbank_package.1600000000.zip", Package{Now: 1600000000}.Name())
	assert.Equal(t, "signbank_patch.1500000000-1600000000.zip", Package{Now: 1600000000, Patch: true, Since: 1500000000}.Name())
	assert.Equal(t, "signbank_patch.0-1600000000.zip", Package{Now: 1600000000, Patch: true}.Name())
}

func TestWritePackage(t *testing.T) {
	t.Run("full", func(t *testing.T) {
		pkg := Package{
			Now:       1600000000,
			VideoURLs: map[string]string{"HOUSE-7": "/v1/dictionary/protected_media/bsl-video/HO/HOUSE-7.mp4"},
			Glosses: map[string]map[string]interface{}{
				"7": {"idgloss": "HOUSE", "sn": int64(12), "inWeb": true},
			},
		}
		var buf bytes.Buffer
		require.NoError(t, WritePackage(&buf, pkg))

		files := readZip(t, buf.Bytes())
		assert.Equal(t, []string{"glosses.json", "image_urls.json", "video_urls.json"}, fileNames(files))
		assert.Equal(t, "{}", string(files["image_urls.json"]))
		assert.Equal(t, "{\n    \"HOUSE-7\": \"/v1/dictionary/protected_media/bsl-video/HO/HOUSE-7.mp4\"\n}", string(files["video_urls.json"]))

		var glosses map[string]map[string]interface{}
		require.NoError(t, json.Unmarshal(files["glosses.json"], &glosses))
		assert.Equal(t, "HOUSE", glosses["7"]["idgloss"])
		assert.Equal(t, float64(12), glosses["7"]["sn"])
	})

	t.Run("patch", func(t *testing.T) {
		pkg := Package{
			RunID:          "1f0c8b6e-run",
			Now:            1600000000,
			Patch:          true,
			Since:          1500000000,
			DeletedGlosses: [][2]interface{}{{int64(3), "OLD"}},
		}
		var buf bytes.Buffer
		require.NoError(t, WritePackage(&buf, pkg))

		zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
		require.NoError(t, err)
		assert.Equal(t, "1f0c8b6e-run", zr.Comment)

		files := readZip(t, buf.Bytes())
		assert.Equal(t, []string{
			"deleted_glosses.json", "deleted_videos.json", "glosses.json", "image_urls.json", "video_urls.json",
		}, fileNames(files))
		assert.Equal(t, "[]", string(files["deleted_videos.json"]))

		var deleted [][]interface{}
		require.NoError(t, json.Unmarshal(files["deleted_glosses.json"], &deleted))
		assert.Equal(t, [][]interface{}{{float64(3), "OLD"}}, deleted)
	})
}

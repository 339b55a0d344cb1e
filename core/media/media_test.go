package media

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func writeMedia(t *testing.T, root, rel, content string, mtime time.Time) {
	t.Helper()
	abs := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(abs), 0o755))
	require.NoError(t, os.WriteFile(abs, []byte(content), 0o644))
	require.NoError(t, os.Chtimes(abs, mtime, mtime))
}

func TestVideoPath(t *testing.T) {
	s := NewStore(t.TempDir(), "bsl-video")
	assert.Equal(t, "bsl-video/HO/HOUSE-7.mp4", s.VideoPath("HOUSE", 7))
	assert.Equal(t, "bsl-video/A/A-1.mp4", s.VideoPath("A", 1))
	assert.Equal(t, "bsl-video/ÉC/ÉCOLE-2.mp4", s.VideoPath("ÉCOLE", 2))
}

func TestAbs(t *testing.T) {
	s := NewStore("/srv/media", "bsl-video")
	assert.Equal(t, filepath.Join("/srv/media", "bsl-video", "a.mp4"), s.Abs("bsl-video/a.mp4"))
	assert.Equal(t, filepath.Join("/srv/media", "etc", "passwd"), s.Abs("../../etc/passwd"))
	assert.Equal(t, "", s.Abs(""))
	assert.Equal(t, "", s.Abs("/"))
}

func TestURL(t *testing.T) {
	s := NewStore("/srv/media", "bsl-video")
	assert.Equal(t, "/v1/dictionary/protected_media/bsl-video/HO/HOUSE%20BIG-7.mp4", s.URL("bsl-video/HO/HOUSE BIG-7.mp4"))
}

func TestSave(t *testing.T) {
	root := t.TempDir()
	s := NewStore(root, "bsl-video")
	rel := "bsl-video/HO/HOUSE-7.mp4"

	require.NoError(t, s.Save(rel, strings.NewReader("v1"), "0"))
	assert.True(t, s.Exists(rel))

	require.NoError(t, s.Save(rel, strings.NewReader("v2"), "3"))
	data, err := os.ReadFile(s.Abs(rel))
	require.NoError(t, err)
	assert.Equal(t, "v2", string(data))

	backup, err := os.ReadFile(s.Abs(rel) + ".bak3")
	require.NoError(t, err)
	assert.Equal(t, "v1", string(backup))

	assert.Error(t, s.Save("", strings.NewReader("x"), "0"))
}

func TestStaticURLs(t *testing.T) {
	defer goleak.VerifyNone(t)

	root := t.TempDir()
	s := NewStore(root, "bsl-video")
	old := time.Date(2019, 1, 1, 0, 0, 0, 0, time.UTC)
	recent := time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)
	writeMedia(t, root, "bsl-video/HO/HOUSE-7.mp4", "x", recent)
	writeMedia(t, root, "bsl-video/HO/HOUSE-7.jpg", "x", recent)
	writeMedia(t, root, "bsl-video/CA/CAT-2.mp4", "x", old)
	writeMedia(t, root, "bsl-video/top.mp4", "x", recent)

	urls, err := s.StaticURLs(context.Background(), "mp4", time.Unix(0, 0))
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"HOUSE-7": "/v1/dictionary/protected_media/bsl-video/HO/HOUSE-7.mp4",
		"CAT-2":   "/v1/dictionary/protected_media/bsl-video/CA/CAT-2.mp4",
	}, urls)

	urls, err = s.StaticURLs(context.Background(), "mp4", time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"HOUSE-7": "/v1/dictionary/protected_media/bsl-video/HO/HOUSE-7.mp4"}, urls)

	urls, err = NewStore(t.TempDir(), "missing").StaticURLs(context.Background(), "jpg", time.Unix(0, 0))
	require.NoError(t, err)
	assert.Empty(t, urls)
}

func TestVideoFiles(t *testing.T) {
	root := t.TempDir()
	s := NewStore(root, "bsl-video")
	now := time.Now()
	writeMedia(t, root, "bsl-video/HO/HOUSE-7.mp4", "x", now)
	writeMedia(t, root, "bsl-video/12.mp4", "x", now)
	writeMedia(t, root, "bsl-video/HO/HOUSE-7.jpg", "x", now)

	files, err := s.VideoFiles()
	require.NoError(t, err)
	sort.Strings(files)
	assert.Equal(t, []string{"bsl-video/12.mp4", "bsl-video/HO/HOUSE-7.mp4"}, files)

	files, err = NewStore(t.TempDir(), "missing").VideoFiles()
	require.NoError(t, err)
	assert.Empty(t, files)
}

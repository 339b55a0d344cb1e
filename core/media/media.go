// Package media stores gloss videos and images under the media root.
package media

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// ProtectedMediaURL prefixes every media file served through the API.
const ProtectedMediaURL = "/v1/dictionary/protected_media/"

type Store struct {
	root     string
	videoDir string
}

func NewStore(root, videoDir string) *Store {
	return &Store{root: root, videoDir: videoDir}
}

func (s *Store) Root() string {
	return s.root
}

// VideoDir is the gloss video directory, relative to the media root.
func (s *Store) VideoDir() string {
	return s.videoDir
}

// VideoPath is the media path of the video of a gloss: <videodir>/<first two chars>/<idgloss>-<id>.mp4
func (s *Store) VideoPath(idgloss string, glossID int64) string {
	prefix := idgloss
	if utf8.RuneCountInString(prefix) > 2 {
		prefix = string([]rune(prefix)[:2])
	}
	return path.Join(s.videoDir, prefix, fmt.Sprintf("%s-%d.mp4", idgloss, glossID))
}

// Abs resolves a media path under the media root. It returns "" for paths escaping the root.
func (s *Store) Abs(rel string) string {
	clean := path.Clean("/" + filepath.ToSlash(rel))
	if clean == "/" {
		return ""
	}
	return filepath.Join(s.root, filepath.FromSlash(clean))
}

// Exists reports whether the media file exists.
func (s *Store) Exists(rel string) bool {
	abs := s.Abs(rel)
	if abs == "" {
		return false
	}
	info, err := os.Stat(abs)
	return err == nil && !info.IsDir()
}

// URL is the protected media URL of a media path.
func (s *Store) URL(rel string) string {
	parts := strings.Split(filepath.ToSlash(rel), "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return ProtectedMediaURL + strings.Join(parts, "/")
}

// Save writes `r` to the media path. An existing file is kept as <file>.bak<suffix>.
func (s *Store) Save(rel string, r io.Reader, backupSuffix string) error {
	abs := s.Abs(rel)
	if abs == "" {
		return errors.Errorf("invalid media path %q", rel)
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return errors.Wrap(err, "media.Save(MkdirAll)")
	}
	if _, err := os.Stat(abs); err == nil {
		if err := os.Rename(abs, abs+".bak"+backupSuffix); err != nil {
			return errors.Wrap(err, "media.Save(Rename)")
		}
	}

	tmp, err := os.CreateTemp(filepath.Dir(abs), ".upload-*")
	if err != nil {
		return errors.Wrap(err, "media.Save(CreateTemp)")
	}
	if _, err := io.Copy(tmp, r); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return errors.Wrap(err, "media.Save(Copy)")
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return errors.Wrap(err, "media.Save(Close)")
	}
	return errors.Wrap(os.Rename(tmp.Name(), abs), "media.Save(Rename)")
}

// StaticURLs maps the stem of every `ext` file found in the subfolders of the video directory
// and modified after `since` to its protected media URL. Subfolders are scanned concurrently.
func (s *Store) StaticURLs(ctx context.Context, ext string, since time.Time) (map[string]string, error) {
	videoFolder := filepath.Join(s.root, s.videoDir)
	entries, err := os.ReadDir(videoFolder)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, errors.Wrap(err, "media.StaticURLs(ReadDir)")
	}

	var (
		mu   sync.Mutex
		urls = make(map[string]string)
	)
	suffix := "." + ext
	grp, ctx := errgroup.WithContext(ctx)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		sub := entry.Name()
		grp.Go(func() error {
			files, err := os.ReadDir(filepath.Join(videoFolder, sub))
			if err != nil {
				return errors.Wrapf(err, "media.StaticURLs(ReadDir %s)", sub)
			}
			for _, f := range files {
				if err := ctx.Err(); err != nil {
					return err
				}
				name := f.Name()
				if f.IsDir() || !strings.HasSuffix(name, suffix) || len(name) == len(suffix) {
					continue
				}
				info, err := f.Info()
				if err != nil {
					continue // removed meanwhile
				}
				if !info.ModTime().After(since) {
					continue
				}
				stem := strings.TrimSuffix(name, suffix)
				mu.Lock()
				urls[stem] = s.URL(path.Join(s.videoDir, sub, name))
				mu.Unlock()
			}
			return nil
		})
	}
	if err := grp.Wait(); err != nil {
		return nil, err
	}
	return urls, nil
}

// VideoFiles lists the media paths of the mp4 files in the subfolders of the video directory.
func (s *Store) VideoFiles() ([]string, error) {
	videoFolder := filepath.Join(s.root, s.videoDir)
	var files []string
	err := filepath.WalkDir(videoFolder, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) && p == videoFolder {
				return filepath.SkipDir
			}
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".mp4") {
			return nil
		}
		rel, err := filepath.Rel(s.root, p)
		if err != nil {
			return err
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	return files, errors.Wrap(err, "media.VideoFiles")
}

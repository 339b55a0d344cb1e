package export

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"
	"golang.org/x/sync/errgroup"

	"github.com/signbank/signbank/core"
	"github.com/signbank/signbank/core/dictionary"
	"github.com/signbank/signbank/core/user"
)

// Exporter writes the exports of the dictionary to files and responses.
type Exporter struct {
	svc    *dictionary.Service
	ecv    core.ECVConfig
	logger core.Logger
}

func NewExporter(svc *dictionary.Service, ecv core.ECVConfig, logger core.Logger) *Exporter {
	return &Exporter{svc: svc, ecv: ecv, logger: logger}
}

// CSV writes the glosses matching `filter`. Definition columns need view_advanced_properties.
func (e *Exporter) CSV(ctx context.Context, w io.Writer, filter *dictionary.GlossQueryFilter, ordering []core.DBOrdering, viewer dictionary.Viewer) error {
	records, err := e.svc.ExportRecords(ctx, filter, ordering)
	if err != nil {
		return err
	}
	return WriteCSV(w, records, CSVOptions{
		Advanced:    viewer.Can(user.PermViewAdvancedProperties),
		Unpublished: viewer.Can(user.PermViewUnpublishedDefinitions),
	})
}

// UpdateECV rewrites the ECV file in the writable folder and returns its path.
func (e *Exporter) UpdateECV(ctx context.Context) (string, error) {
	records, err := e.svc.ECVRecords(ctx)
	if err != nil {
		return "", err
	}

	opts := ECVOptions{Config: e.ecv, SiteURL: e.svc.Config().SiteURL, Now: time.Now()}
	if e.ecv.IncludePhonologyAndFrequencies {
		var fcs []dictionary.FieldChoice
		for _, field := range []string{ChoiceHandedness, ChoiceHandshape, ChoiceLocation} {
			choices, err := e.svc.FieldChoices(ctx, field)
			if err != nil {
				return "", err
			}
			fcs = append(fcs, choices...)
		}
		opts.Choices = NewChoices(fcs)
	}

	file := e.svc.Config().ECVFile()
	err = writeFile(file, func(w io.Writer) error {
		return WriteECV(w, records, opts)
	})
	if err != nil {
		return "", err
	}
	e.logger.Info("ECV updated", map[string]interface{}{"file": file, "entries": len(records)})
	return file, nil
}

// BuildPackage writes a package, or a patch of the changes after `since` (unix seconds) when
// it is set, to the packages folder and returns its path.
func (e *Exporter) BuildPackage(ctx context.Context, since null.Int64) (string, error) {
	pkg := Package{RunID: uuid.New().String(), Now: core.NowFunc().Unix(), Patch: since.Valid, Since: since.Int64}
	sinceTime := time.Unix(pkg.Since, 0).UTC()
	store := e.svc.Media()

	var mu sync.Mutex
	grp, gctx := errgroup.WithContext(ctx)
	grp.Go(func() error {
		urls, err := store.StaticURLs(gctx, "mp4", sinceTime)
		mu.Lock()
		pkg.VideoURLs = urls
		mu.Unlock()
		return err
	})
	grp.Go(func() error {
		urls, err := store.StaticURLs(gctx, "jpg", sinceTime)
		mu.Lock()
		pkg.ImageURLs = urls
		mu.Unlock()
		return err
	})
	grp.Go(func() error {
		glosses, err := e.svc.GlossesUpdatedSince(gctx, sinceTime)
		if err != nil {
			return err
		}
		data := make(map[string]map[string]interface{}, len(glosses))
		for _, g := range glosses {
			data[glossKey(g.ID)] = dictionary.FieldsDict(g)
		}
		mu.Lock()
		pkg.Glosses = data
		mu.Unlock()
		return nil
	})
	if pkg.Patch {
		grp.Go(func() error {
			deleted, err := e.svc.DeletedSince(gctx, dictionary.DeletedGloss, sinceTime)
			if err != nil {
				return err
			}
			pairs := make([][2]interface{}, len(deleted))
			for i, d := range deleted {
				pairs[i] = [2]interface{}{d.OldPK, d.IDGloss}
			}
			mu.Lock()
			pkg.DeletedGlosses = pairs
			mu.Unlock()
			return nil
		})
		grp.Go(func() error {
			deleted, err := e.svc.DeletedSince(gctx, dictionary.DeletedVideo, sinceTime)
			if err != nil {
				return err
			}
			ids := make([]int64, len(deleted))
			for i, d := range deleted {
				ids[i] = d.OldPK
			}
			mu.Lock()
			pkg.DeletedVideos = ids
			mu.Unlock()
			return nil
		})
	}
	if err := grp.Wait(); err != nil {
		return "", err
	}

	file := filepath.Join(e.svc.Config().PackagesFolder, pkg.Name())
	if err := writeFile(file, func(w io.Writer) error { return WritePackage(w, pkg) }); err != nil {
		return "", err
	}
	e.logger.Info("package built", map[string]interface{}{
		"run":     pkg.RunID,
		"file":    file,
		"glosses": len(pkg.Glosses),
		"videos":  len(pkg.VideoURLs),
		"images":  len(pkg.ImageURLs),
	})
	return file, nil
}

// writeFile writes through a temporary file renamed over `name` once complete.
func writeFile(name string, write func(w io.Writer) error) error {
	dir := filepath.Dir(name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrap(err, "export.writeFile(MkdirAll)")
	}
	tmp, err := os.CreateTemp(dir, ".export-*")
	if err != nil {
		return errors.Wrap(err, "export.writeFile(CreateTemp)")
	}
	if err := write(tmp); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return errors.Wrap(err, "export.writeFile(Close)")
	}
	return errors.Wrap(os.Rename(tmp.Name(), name), "export.writeFile(Rename)")
}

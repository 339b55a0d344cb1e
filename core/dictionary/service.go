package dictionary

import (
	"context"
	"io"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/signbank/signbank/core"
	"github.com/signbank/signbank/core/media"
)

var (
	// errors
	ErrGlossNotFound       = core.NewNotFoundError("gloss not found")
	ErrKeywordNotFound     = core.NewNotFoundError("keyword not found")
	ErrTranslationNotFound = core.NewNotFoundError("translation not found")
	ErrDefinitionNotFound  = core.NewNotFoundError("definition not found")
	ErrRelationNotFound    = core.NewNotFoundError("relation not found")
	ErrRegionNotFound      = core.NewNotFoundError("region not found")
	ErrTagNotFound         = core.NewNotFoundError("tag not found")
	ErrNoRegions           = errors.New("no regional information for this sign")
	ErrSNExists            = errors.New("a gloss with this sign number already exists")
	ErrSameRelation        = errors.New("a sign cannot be related to itself")
	ErrUnknownLanguage     = errors.New("unknown language")
	ErrUnknownDialect      = errors.New("unknown dialect")
)

type (
	Repository interface {
		CreateGloss(ctx context.Context, g Gloss) (Gloss, error)
		UpdateGloss(ctx context.Context, g Gloss) (Gloss, error)
		// SaveGloss creates the gloss, or updates it when it has an ID, and replaces its links in one transaction.
		SaveGloss(ctx context.Context, g Gloss, links GlossLinks) (Gloss, error)
		// DeleteGloss deletes the gloss and records it and its videos as deleted at `deletedAt`.
		DeleteGloss(ctx context.Context, id int64, deletedAt time.Time) error
		GetGloss(ctx context.Context, id int64) (Gloss, error)
		GlossBySN(ctx context.Context, sn int) (Gloss, error)
		GlossesByIDGloss(ctx context.Context, idgloss string, publicOnly bool) ([]Gloss, error)
		SNExists(ctx context.Context, sn int, excludedID int64) (bool, error)
		// QueryGlosses returns the glosses matching every filter; limit <= 0 returns them all.
		QueryGlosses(ctx context.Context, filter *GlossQueryFilter, ordering []core.DBOrdering, limit, offset int) ([]Gloss, error)
		CountGlosses(ctx context.Context, filter *GlossQueryFilter) (int, error)
		CompleteGlosses(ctx context.Context, prefix string, limit int) ([]Gloss, error)
		ECVGlosses(ctx context.Context) ([]Gloss, error)
		GlossesUpdatedSince(ctx context.Context, since time.Time) ([]Gloss, error)
		InWebGlosses(ctx context.Context) ([]Gloss, error)
		GlossesWithTag(ctx context.Context, tag string, publicOnly bool) ([]Gloss, error)
		CountVisibleGlosses(ctx context.Context, publicOnly bool) (int, error)
		CountGlossesBeforeSN(ctx context.Context, sn int, publicOnly bool) (int, error)
		// AdjacentGlosses returns the visible glosses right before and after `sn`, by sign number.
		AdjacentGlosses(ctx context.Context, sn int, publicOnly bool) (prev, next *Gloss, err error)
		// FeatureSearch returns a page of matches ordered by idgloss and the total count.
		FeatureSearch(ctx context.Context, filter FeatureFilter, limit, offset int) ([]Gloss, int, error)

		KeywordByText(ctx context.Context, text string) (Keyword, error)
		SearchKeywords(ctx context.Context, filter KeywordFilter) ([]Keyword, error)
		// KeywordsWithPrefix is case-sensitive.
		KeywordsWithPrefix(ctx context.Context, prefix string) ([]string, error)
		// KeywordTranslations returns the translations of a keyword ordered by gloss idgloss then index.
		KeywordTranslations(ctx context.Context, keywordID int64, publicOnly bool) ([]Translation, error)
		GlossTranslations(ctx context.Context, glossIDs ...int64) ([]Translation, error)
		// SetGlossKeywords replaces the translations of a gloss, creating missing keywords.
		SetGlossKeywords(ctx context.Context, glossID int64, keywords []string) ([]Translation, error)

		GlossDefinitions(ctx context.Context, glossIDs []int64, publishedOnly bool) ([]Definition, error)
		GetDefinition(ctx context.Context, id int64) (Definition, error)
		// CreateDefinition numbers the definition after the last one of its role when Count is 0.
		CreateDefinition(ctx context.Context, def Definition) (Definition, error)
		UpdateDefinition(ctx context.Context, def Definition) (Definition, error)
		DeleteDefinition(ctx context.Context, id int64) error

		GlossRelations(ctx context.Context, glossID int64, role string) ([]Relation, error)
		CreateRelation(ctx context.Context, rel Relation) (Relation, error)
		DeleteRelation(ctx context.Context, id int64) error

		// GlossRegions returns the regions of a gloss sorted by dialect name.
		GlossRegions(ctx context.Context, glossID int64) ([]Region, error)
		CreateRegion(ctx context.Context, reg Region) (Region, error)
		DeleteRegion(ctx context.Context, id int64) error

		ListTags(ctx context.Context) ([]Tag, error)
		GlossTags(ctx context.Context, glossIDs ...int64) (map[int64][]string, error)
		AddGlossTag(ctx context.Context, glossID int64, name string) error
		RemoveGlossTag(ctx context.Context, glossID int64, name string) error

		ListLanguages(ctx context.Context) ([]Language, error)
		CreateLanguage(ctx context.Context, lang Language) (Language, error)
		ListDialects(ctx context.Context) ([]Dialect, error)
		CreateDialect(ctx context.Context, dial Dialect) (Dialect, error)
		GlossLanguages(ctx context.Context, glossID int64) ([]Language, error)
		GlossDialects(ctx context.Context, glossID int64) ([]Dialect, error)
		SetGlossLanguages(ctx context.Context, glossID int64, ids []int64) error
		SetGlossDialects(ctx context.Context, glossID int64, ids []int64) error

		// GlossVideos returns the videos of a gloss, current (version 0) first.
		GlossVideos(ctx context.Context, glossID int64) ([]GlossVideo, error)
		// AddGlossVideo makes `videoFile` the current video. The previous current video now lives at `backupFile`.
		AddGlossVideo(ctx context.Context, glossID int64, videoFile, backupFile string) (GlossVideo, error)
		VideoLinked(ctx context.Context, videoFile string) (bool, error)

		FieldChoices(ctx context.Context, field string) ([]FieldChoice, error)
		CreateFieldChoice(ctx context.Context, fc FieldChoice) (FieldChoice, error)

		DeletedSince(ctx context.Context, itemType string, since time.Time) ([]DeletedGlossOrMedia, error)
	}

	Service struct {
		repo  Repository
		media *media.Store
		conf  core.DictionaryConfig
	}
)

func NewService(repo Repository, store *media.Store, conf core.DictionaryConfig) *Service {
	return &Service{repo: repo, media: store, conf: conf}
}

func (svc *Service) Config() core.DictionaryConfig {
	return svc.conf
}

func (svc *Service) Media() *media.Store {
	return svc.media
}

// Glosses

func (svc *Service) CheckSN(ctx context.Context, sn int, excludedID int64) error {
	exists, err := svc.repo.SNExists(ctx, sn, excludedID)
	if err != nil {
		return err
	}
	if exists {
		return core.NewValidationError(ErrSNExists, core.FieldError{Field: "sn", Error: ErrSNExists.Error()})
	}
	return nil
}

func (svc *Service) checkLanguagesAndDialects(ctx context.Context, langIDs, dialIDs []int64) error {
	if len(langIDs) > 0 {
		langs, err := svc.repo.ListLanguages(ctx)
		if err != nil {
			return err
		}
		known := make(map[int64]bool, len(langs))
		for _, l := range langs {
			known[l.ID] = true
		}
		for _, id := range langIDs {
			if !known[id] {
				return core.NewValidationError(ErrUnknownLanguage, core.FieldError{Field: "languages", Error: ErrUnknownLanguage.Error()})
			}
		}
	}
	if len(dialIDs) > 0 {
		dials, err := svc.repo.ListDialects(ctx)
		if err != nil {
			return err
		}
		known := make(map[int64]bool, len(dials))
		for _, d := range dials {
			known[d.ID] = true
		}
		for _, id := range dialIDs {
			if !known[id] {
				return core.NewValidationError(ErrUnknownDialect, core.FieldError{Field: "dialects", Error: ErrUnknownDialect.Error()})
			}
		}
	}
	return nil
}

func (svc *Service) CreateGloss(ctx context.Context, gf GlossForm) (Gloss, error) {
	now := core.NowFunc()
	g := gf.apply(Gloss{CreatedAt: now, UpdatedAt: now})
	return svc.repo.SaveGloss(ctx, g, gf.links())
}

func (svc *Service) UpdateGloss(ctx context.Context, orig Gloss, gf GlossForm) (Gloss, error) {
	g := gf.apply(orig)
	g.UpdatedAt = core.NowFunc()
	return svc.repo.SaveGloss(ctx, g, gf.links())
}

func (svc *Service) DeleteGloss(ctx context.Context, id int64) error {
	return svc.repo.DeleteGloss(ctx, id, core.NowFunc())
}

func (svc *Service) GetGloss(ctx context.Context, id int64) (Gloss, error) {
	return svc.repo.GetGloss(ctx, id)
}

// ListGlosses returns the requested page of the filtered gloss list.
func (svc *Service) ListGlosses(ctx context.Context, filter *GlossQueryFilter, ordering []core.DBOrdering, page string, perPage int) ([]Gloss, core.Page, error) {
	if err := filter.Parse(); err != nil {
		return nil, core.Page{}, err
	}
	count, err := svc.repo.CountGlosses(ctx, filter)
	if err != nil {
		return nil, core.Page{}, err
	}
	if perPage < 1 {
		perPage = svc.conf.AdminPageSize
	}
	pg := core.Paginate(count, perPage, page)
	glosses, err := svc.repo.QueryGlosses(ctx, filter, ordering, pg.PerPage, pg.Offset())
	if err != nil {
		return nil, core.Page{}, err
	}
	return glosses, pg, nil
}

// ExportRecords returns every gloss matching `filter` with its keywords, tags and definitions.
func (svc *Service) ExportRecords(ctx context.Context, filter *GlossQueryFilter, ordering []core.DBOrdering) ([]GlossRecord, error) {
	if err := filter.Parse(); err != nil {
		return nil, err
	}
	glosses, err := svc.repo.QueryGlosses(ctx, filter, ordering, 0, 0)
	if err != nil {
		return nil, err
	}
	return svc.records(ctx, glosses, true)
}

// ECVRecords returns the glosses included in the ECV with their keywords.
func (svc *Service) ECVRecords(ctx context.Context) ([]GlossRecord, error) {
	glosses, err := svc.repo.ECVGlosses(ctx)
	if err != nil {
		return nil, err
	}
	return svc.records(ctx, glosses, false)
}

func (svc *Service) records(ctx context.Context, glosses []Gloss, withDetails bool) ([]GlossRecord, error) {
	records := make([]GlossRecord, len(glosses))
	if len(glosses) == 0 {
		return records, nil
	}
	ids := make([]int64, len(glosses))
	for i, g := range glosses {
		ids[i] = g.ID
	}

	trans, err := svc.repo.GlossTranslations(ctx, ids...)
	if err != nil {
		return nil, err
	}
	keywords := make(map[int64][]string)
	for _, t := range trans {
		keywords[t.GlossID] = append(keywords[t.GlossID], t.Keyword)
	}

	var (
		tags map[int64][]string
		defs = make(map[int64][]Definition)
	)
	if withDetails {
		if tags, err = svc.repo.GlossTags(ctx, ids...); err != nil {
			return nil, err
		}
		allDefs, err := svc.repo.GlossDefinitions(ctx, ids, false)
		if err != nil {
			return nil, err
		}
		for _, d := range allDefs {
			defs[d.GlossID] = append(defs[d.GlossID], d)
		}
	}

	for i, g := range glosses {
		records[i] = GlossRecord{Gloss: g, Keywords: keywords[g.ID], Tags: tags[g.ID], Definitions: defs[g.ID]}
	}
	return records, nil
}

// Keywords & tags

func (svc *Service) SetKeywords(ctx context.Context, glossID int64, keywords string) ([]Translation, error) {
	if _, err := svc.repo.GetGloss(ctx, glossID); err != nil {
		return nil, err
	}
	return svc.repo.SetGlossKeywords(ctx, glossID, SplitKeywords(keywords))
}

func (svc *Service) UpdateTag(ctx context.Context, glossID int64, tu TagUpdate) ([]string, error) {
	if _, err := svc.repo.GetGloss(ctx, glossID); err != nil {
		return nil, err
	}
	var err error
	if tu.Delete {
		err = svc.repo.RemoveGlossTag(ctx, glossID, tu.Tag)
	} else {
		err = svc.repo.AddGlossTag(ctx, glossID, tu.Tag)
	}
	if err != nil {
		return nil, err
	}
	tags, err := svc.repo.GlossTags(ctx, glossID)
	if err != nil {
		return nil, err
	}
	return tags[glossID], nil
}

func (svc *Service) TagNames(ctx context.Context) ([]string, error) {
	tags, err := svc.repo.ListTags(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(tags))
	for i, t := range tags {
		names[i] = t.Name
	}
	return names, nil
}

func (svc *Service) GlossesWithTag(ctx context.Context, tag string, viewer Viewer) ([]Gloss, error) {
	return svc.repo.GlossesWithTag(ctx, tag, !viewer.IsStaff())
}

// Definitions

func (svc *Service) AddDefinition(ctx context.Context, glossID int64, df DefinitionForm) (Definition, error) {
	if _, err := svc.repo.GetGloss(ctx, glossID); err != nil {
		return Definition{}, err
	}
	def := Definition{GlossID: glossID, Text: df.Text, Role: df.Role, Published: df.Published}
	if df.Count != nil {
		def.Count = *df.Count
	}
	return svc.repo.CreateDefinition(ctx, def)
}

func (svc *Service) GetDefinition(ctx context.Context, id int64) (Definition, error) {
	return svc.repo.GetDefinition(ctx, id)
}

func (svc *Service) UpdateDefinition(ctx context.Context, orig Definition, df DefinitionForm) (Definition, error) {
	def := orig
	def.Text = df.Text
	def.Role = df.Role
	def.Published = df.Published
	if df.Count != nil {
		def.Count = *df.Count
	}
	return svc.repo.UpdateDefinition(ctx, def)
}

func (svc *Service) DeleteDefinition(ctx context.Context, id int64) error {
	return svc.repo.DeleteDefinition(ctx, id)
}

// Relations

func (svc *Service) AddRelation(ctx context.Context, rf RelationForm) (Relation, error) {
	if rf.Source == rf.Target {
		return Relation{}, core.NewValidationError(ErrSameRelation, core.FieldError{Field: "target", Error: ErrSameRelation.Error()})
	}
	for _, id := range []int64{rf.Source, rf.Target} {
		if _, err := svc.repo.GetGloss(ctx, id); err != nil {
			return Relation{}, err
		}
	}
	return svc.repo.CreateRelation(ctx, Relation{SourceID: rf.Source, TargetID: rf.Target, Role: rf.Role})
}

func (svc *Service) DeleteRelation(ctx context.Context, id int64) error {
	return svc.repo.DeleteRelation(ctx, id)
}

// Regions

func (svc *Service) AddRegion(ctx context.Context, glossID int64, rf RegionForm) (Region, error) {
	if _, err := svc.repo.GetGloss(ctx, glossID); err != nil {
		return Region{}, err
	}
	if err := svc.checkLanguagesAndDialects(ctx, nil, []int64{rf.Dialect}); err != nil {
		return Region{}, err
	}
	return svc.repo.CreateRegion(ctx, Region{GlossID: glossID, DialectID: rf.Dialect, Frequency: rf.Frequency, Traditional: rf.Traditional})
}

func (svc *Service) DeleteRegion(ctx context.Context, id int64) error {
	return svc.repo.DeleteRegion(ctx, id)
}

// Languages, dialects & choices

func (svc *Service) Languages(ctx context.Context) ([]Language, error) {
	return svc.repo.ListLanguages(ctx)
}

func (svc *Service) CreateLanguage(ctx context.Context, lf LanguageForm) (Language, error) {
	return svc.repo.CreateLanguage(ctx, Language{Name: lf.Name, Description: lf.Description})
}

func (svc *Service) Dialects(ctx context.Context) ([]Dialect, error) {
	return svc.repo.ListDialects(ctx)
}

func (svc *Service) CreateDialect(ctx context.Context, df DialectForm) (Dialect, error) {
	if err := svc.checkLanguagesAndDialects(ctx, []int64{df.Language}, nil); err != nil {
		return Dialect{}, err
	}
	return svc.repo.CreateDialect(ctx, Dialect{LanguageID: df.Language, Name: df.Name, Description: df.Description})
}

func (svc *Service) FieldChoices(ctx context.Context, field string) ([]FieldChoice, error) {
	return svc.repo.FieldChoices(ctx, field)
}

func (svc *Service) CreateFieldChoice(ctx context.Context, fc FieldChoice) (FieldChoice, error) {
	return svc.repo.CreateFieldChoice(ctx, fc)
}

// Videos

// VideoPath is the media path of the current video of a gloss.
func (svc *Service) VideoPath(g Gloss) string {
	return svc.media.VideoPath(g.IDGloss, g.ID)
}

// HasVideo reports whether the video file of a gloss exists.
func (svc *Service) HasVideo(g Gloss) bool {
	return svc.media.Exists(svc.VideoPath(g))
}

// VideoURL is the URL of the video of a gloss, or "" when the file is missing.
func (svc *Service) VideoURL(g Gloss) string {
	if !svc.HasVideo(g) {
		return ""
	}
	return svc.media.URL(svc.VideoPath(g))
}

// UploadVideo stores a new current video for the gloss. The previous file is kept as a backup.
func (svc *Service) UploadVideo(ctx context.Context, glossID int64, r io.Reader) (GlossVideo, error) {
	g, err := svc.repo.GetGloss(ctx, glossID)
	if err != nil {
		return GlossVideo{}, err
	}
	videos, err := svc.repo.GlossVideos(ctx, glossID)
	if err != nil {
		return GlossVideo{}, err
	}

	rel := svc.VideoPath(g)
	suffix := "0"
	if len(videos) > 0 {
		suffix = strconv.FormatInt(videos[0].ID, 10)
	}
	var backup string
	if len(videos) > 0 && svc.media.Exists(rel) {
		backup = rel + ".bak" + suffix
	}
	if err := svc.media.Save(rel, r, suffix); err != nil {
		return GlossVideo{}, err
	}
	return svc.repo.AddGlossVideo(ctx, glossID, rel, backup)
}

// MissingVideos lists the web glosses whose video file is absent.
func (svc *Service) MissingVideos(ctx context.Context) ([]Gloss, error) {
	glosses, err := svc.repo.InWebGlosses(ctx)
	if err != nil {
		return nil, err
	}
	missing := make([]Gloss, 0)
	for _, g := range glosses {
		if !svc.HasVideo(g) {
			missing = append(missing, g)
		}
	}
	return missing, nil
}

// LinkVideos creates the video rows of the video files not linked yet.
// Files are matched to glosses by their <idgloss>-<id>.mp4 or <sn>.mp4 name.
func (svc *Service) LinkVideos(ctx context.Context) ([]GlossVideo, error) {
	files, err := svc.media.VideoFiles()
	if err != nil {
		return nil, err
	}

	var linked []GlossVideo
	for _, file := range files {
		ok, err := svc.repo.VideoLinked(ctx, file)
		if err != nil {
			return nil, err
		}
		if ok {
			continue
		}
		g, err := svc.glossForVideoFile(ctx, file)
		if err != nil {
			if core.IsNotFound(err) {
				continue
			}
			return nil, err
		}
		vid, err := svc.repo.AddGlossVideo(ctx, g.ID, file, "")
		if err != nil {
			return nil, err
		}
		linked = append(linked, vid)
	}
	return linked, nil
}

func (svc *Service) glossForVideoFile(ctx context.Context, file string) (Gloss, error) {
	stem := videoStem(file)
	if sn, err := strconv.Atoi(stem); err == nil {
		return svc.repo.GlossBySN(ctx, sn)
	}
	if id, ok := videoGlossID(stem); ok {
		g, err := svc.repo.GetGloss(ctx, id)
		if err != nil {
			return Gloss{}, err
		}
		if svc.VideoPath(g) != file {
			return Gloss{}, ErrGlossNotFound
		}
		return g, nil
	}
	return Gloss{}, ErrGlossNotFound
}

func videoStem(file string) string {
	return strings.TrimSuffix(path.Base(file), path.Ext(file))
}

// videoGlossID extracts the gloss id of a <idgloss>-<id> video stem.
func videoGlossID(stem string) (int64, bool) {
	i := strings.LastIndex(stem, "-")
	if i < 0 {
		return 0, false
	}
	id, err := strconv.ParseInt(stem[i+1:], 10, 64)
	return id, err == nil
}

// Package data

func (svc *Service) GlossesUpdatedSince(ctx context.Context, since time.Time) ([]Gloss, error) {
	return svc.repo.GlossesUpdatedSince(ctx, since)
}

func (svc *Service) DeletedSince(ctx context.Context, itemType string, since time.Time) ([]DeletedGlossOrMedia, error) {
	return svc.repo.DeletedSince(ctx, itemType, since)
}

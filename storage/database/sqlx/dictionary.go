package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/signbank/signbank/core"
	"github.com/signbank/signbank/core/dictionary"
)

const (
	keywordTable     = "keyword"
	translationTable = "translation"
	definitionTable  = "definition"
	relationTable    = "relation"
	regionTable      = "region"
	tagTable         = "tag"
	languageTable    = "language"
	dialectTable     = "dialect"
	videoTable       = "gloss_video"
	choiceTable      = "field_choice"
	deletedTable     = "deleted_gloss_or_media"
)

type dictionaryRepository struct {
	db core.DB
}

var _ dictionary.Repository = (*dictionaryRepository)(nil) // interface compliance check

func NewDictionaryRepository(db core.DB) *dictionaryRepository {
	return &dictionaryRepository{db: db}
}

// Keywords

func (repo *dictionaryRepository) KeywordByText(ctx context.Context, text string) (dictionary.Keyword, error) {
	var kw dictionary.Keyword
	qb := builder(repo.db).Select("id", "text").From(keywordTable).Where(sq.Eq{"text": text})
	if err := get(ctx, repo.db, &kw, qb); err != nil {
		return dictionary.Keyword{}, trapNoRows(err, dictionary.ErrKeywordNotFound, "finding keyword")
	}
	return kw, nil
}

// SearchKeywords lists the keywords starting with the filter term that translate a visible gloss.
// Safe search drops the keywords whose glosses, hidden ones included, are all crude.
func (repo *dictionaryRepository) SearchKeywords(ctx context.Context, filter dictionary.KeywordFilter) ([]dictionary.Keyword, error) {
	translated := func() sq.SelectBuilder {
		return sq.Select("1").From(translationTable + " t").
			Join(glossTable + " g ON g.id = t.gloss_id").
			Where("t.keyword_id = k.id")
	}
	glosses := translated()
	if filter.PublicOnly {
		glosses = glosses.Where(sq.Eq{"g.in_web": true})
	}
	if filter.Category != "" {
		glosses = glosses.Where(sq.Expr("g.id IN (?)", taggedGlosses([]string{filter.Category}, false)))
	}

	qb := builder(repo.db).Select("k.id", "k.text").From(keywordTable + " k").
		Where(sq.Expr(`k.folded LIKE ? ESCAPE '\'`, core.LikePrefix(filter.Term))).
		Where(exists(glosses)).
		OrderBy("k.text", "k.id")
	if filter.SafeSearch {
		qb = qb.Where(exists(translated().Where(sq.Expr("g.id NOT IN (?)", taggedGlosses([]string{dictionary.CrudeTag}, false)))))
	}

	keywords := make([]dictionary.Keyword, 0)
	if err := selectAll(ctx, repo.db, &keywords, qb); err != nil {
		return nil, errors.Wrap(err, "searching keywords")
	}
	return keywords, nil
}

func (repo *dictionaryRepository) KeywordsWithPrefix(ctx context.Context, prefix string) ([]string, error) {
	// LIKE ignores case on sqlite
	qb := builder(repo.db).Select("text").From(keywordTable).
		Where(sq.Expr("SUBSTR(text, 1, ?) = ?", len([]rune(prefix)), prefix)).
		OrderBy("text")

	texts := make([]string, 0)
	if err := selectAll(ctx, repo.db, &texts, qb); err != nil {
		return nil, errors.Wrap(err, "listing keywords")
	}
	return texts, nil
}

func selectTranslations(exec core.DBExecutor) sq.SelectBuilder {
	return builder(exec).Select("t.id", "t.gloss_id", "t.keyword_id", "t.idx", "k.text AS keyword").
		From(translationTable + " t").
		Join(keywordTable + " k ON k.id = t.keyword_id")
}

func (repo *dictionaryRepository) KeywordTranslations(ctx context.Context, keywordID int64, publicOnly bool) ([]dictionary.Translation, error) {
	qb := selectTranslations(repo.db).
		Join(glossTable + " g ON g.id = t.gloss_id").
		Where(sq.Eq{"t.keyword_id": keywordID})
	qb = visible(qb, publicOnly).OrderBy("g.idgloss", "t.idx", "t.id")

	trans := make([]dictionary.Translation, 0)
	if err := selectAll(ctx, repo.db, &trans, qb); err != nil {
		return nil, errors.Wrap(err, "listing keyword translations")
	}
	return trans, nil
}

func (repo *dictionaryRepository) GlossTranslations(ctx context.Context, glossIDs ...int64) ([]dictionary.Translation, error) {
	return glossTranslations(ctx, repo.db, glossIDs...)
}

func glossTranslations(ctx context.Context, exec core.DBExecutor, glossIDs ...int64) ([]dictionary.Translation, error) {
	trans := make([]dictionary.Translation, 0)
	if len(glossIDs) == 0 {
		return trans, nil
	}
	qb := selectTranslations(exec).Where(sq.Eq{"t.gloss_id": glossIDs}).OrderBy("t.gloss_id", "t.idx")
	if err := selectAll(ctx, exec, &trans, qb); err != nil {
		return nil, errors.Wrap(err, "listing gloss translations")
	}
	return trans, nil
}

func (repo *dictionaryRepository) SetGlossKeywords(ctx context.Context, glossID int64, keywords []string) ([]dictionary.Translation, error) {
	var trans []dictionary.Translation
	err := inTx(ctx, repo.db, func(tx *sqlx.Tx) error {
		if err := setGlossKeywords(ctx, tx, glossID, keywords); err != nil {
			return err
		}
		var err error
		trans, err = glossTranslations(ctx, tx, glossID)
		return err
	})
	return trans, err
}

func setGlossKeywords(ctx context.Context, tx *sqlx.Tx, glossID int64, keywords []string) error {
	if _, err := execute(ctx, tx, builder(tx).Delete(translationTable).Where(sq.Eq{"gloss_id": glossID})); err != nil {
		return errors.Wrap(err, "deleting translations")
	}
	for i, text := range keywords {
		kwID, err := keywordID(ctx, tx, text)
		if err != nil {
			return err
		}
		qb := builder(tx).Insert(translationTable).Columns("gloss_id", "keyword_id", "idx").Values(glossID, kwID, i+1)
		if _, err := insert(ctx, tx, qb); err != nil {
			return errors.Wrap(err, "inserting translation")
		}
	}
	return nil
}

// keywordID finds or creates the keyword `text`.
func keywordID(ctx context.Context, tx *sqlx.Tx, text string) (int64, error) {
	var id int64
	err := get(ctx, tx, &id, builder(tx).Select("id").From(keywordTable).Where(sq.Eq{"text": text}))
	if err == nil {
		return id, nil
	}
	if errors.Cause(err) != sql.ErrNoRows {
		return 0, errors.Wrap(err, "finding keyword")
	}
	id, err = insert(ctx, tx, builder(tx).Insert(keywordTable).Columns("text", "folded").Values(text, core.Fold(text)))
	if err != nil {
		return 0, errors.Wrap(err, "inserting keyword")
	}
	return id, nil
}

// Definitions

var definitionColumns = []string{"id", "gloss_id", "text", "role", "count", "published"}

func (repo *dictionaryRepository) GlossDefinitions(ctx context.Context, glossIDs []int64, publishedOnly bool) ([]dictionary.Definition, error) {
	defs := make([]dictionary.Definition, 0)
	if len(glossIDs) == 0 {
		return defs, nil
	}
	qb := builder(repo.db).Select(definitionColumns...).From(definitionTable).Where(sq.Eq{"gloss_id": glossIDs})
	if publishedOnly {
		qb = qb.Where(sq.Eq{"published": true})
	}
	if err := selectAll(ctx, repo.db, &defs, qb.OrderBy("gloss_id", "role", "count", "id")); err != nil {
		return nil, errors.Wrap(err, "listing definitions")
	}
	return defs, nil
}

func (repo *dictionaryRepository) GetDefinition(ctx context.Context, id int64) (dictionary.Definition, error) {
	var def dictionary.Definition
	qb := builder(repo.db).Select(definitionColumns...).From(definitionTable).Where(sq.Eq{"id": id})
	if err := get(ctx, repo.db, &def, qb); err != nil {
		return dictionary.Definition{}, trapNoRows(err, dictionary.ErrDefinitionNotFound, "finding definition")
	}
	return def, nil
}

func (repo *dictionaryRepository) CreateDefinition(ctx context.Context, def dictionary.Definition) (dictionary.Definition, error) {
	err := inTx(ctx, repo.db, func(tx *sqlx.Tx) error {
		if def.Count == 0 {
			qb := builder(tx).Select("COALESCE(MAX(count), 0) + 1").From(definitionTable).
				Where(sq.Eq{"gloss_id": def.GlossID, "role": def.Role})
			if err := get(ctx, tx, &def.Count, qb); err != nil {
				return errors.Wrap(err, "numbering definition")
			}
		}
		qb := builder(tx).Insert(definitionTable).Columns("gloss_id", "text", "role", "count", "published").
			Values(def.GlossID, def.Text, def.Role, def.Count, def.Published)
		id, err := insert(ctx, tx, qb)
		if err != nil {
			return errors.Wrap(err, "inserting definition")
		}
		def.ID = id
		return nil
	})
	if err != nil {
		return dictionary.Definition{}, err
	}
	return def, nil
}

func (repo *dictionaryRepository) UpdateDefinition(ctx context.Context, def dictionary.Definition) (dictionary.Definition, error) {
	qb := builder(repo.db).Update(definitionTable).SetMap(map[string]interface{}{
		"text":      def.Text,
		"role":      def.Role,
		"count":     def.Count,
		"published": def.Published,
	}).Where(sq.Eq{"id": def.ID})

	res, err := execute(ctx, repo.db, qb)
	if err != nil {
		return dictionary.Definition{}, errors.Wrap(err, "updating definition")
	}
	if err := affected(res, dictionary.ErrDefinitionNotFound); err != nil {
		return dictionary.Definition{}, err
	}
	return def, nil
}

func (repo *dictionaryRepository) DeleteDefinition(ctx context.Context, id int64) error {
	return repo.deleteByID(ctx, definitionTable, id, dictionary.ErrDefinitionNotFound)
}

func (repo *dictionaryRepository) deleteByID(ctx context.Context, table string, id int64, notFound error) error {
	res, err := execute(ctx, repo.db, builder(repo.db).Delete(table).Where(sq.Eq{"id": id}))
	if err != nil {
		return errors.Wrapf(err, "deleting from %s", table)
	}
	return affected(res, notFound)
}

// Relations

func selectRelations(exec core.DBExecutor) sq.SelectBuilder {
	return builder(exec).Select("r.id", "r.source_id", "r.target_id", "r.role", "g.idgloss AS target_idgloss").
		From(relationTable + " r").
		Join(glossTable + " g ON g.id = r.target_id")
}

func (repo *dictionaryRepository) GlossRelations(ctx context.Context, glossID int64, role string) ([]dictionary.Relation, error) {
	qb := selectRelations(repo.db).Where(sq.Eq{"r.source_id": glossID})
	if role != "" {
		qb = qb.Where(sq.Eq{"r.role": role})
	}
	rels := make([]dictionary.Relation, 0)
	if err := selectAll(ctx, repo.db, &rels, qb.OrderBy("r.role", "g.idgloss", "r.id")); err != nil {
		return nil, errors.Wrap(err, "listing relations")
	}
	return rels, nil
}

func (repo *dictionaryRepository) CreateRelation(ctx context.Context, rel dictionary.Relation) (dictionary.Relation, error) {
	qb := builder(repo.db).Insert(relationTable).Columns("source_id", "target_id", "role").
		Values(rel.SourceID, rel.TargetID, rel.Role)
	id, err := insert(ctx, repo.db, qb)
	if err != nil {
		return dictionary.Relation{}, errors.Wrap(err, "inserting relation")
	}

	var created dictionary.Relation
	if err := get(ctx, repo.db, &created, selectRelations(repo.db).Where(sq.Eq{"r.id": id})); err != nil {
		return dictionary.Relation{}, trapNoRows(err, dictionary.ErrRelationNotFound, "finding relation")
	}
	return created, nil
}

func (repo *dictionaryRepository) DeleteRelation(ctx context.Context, id int64) error {
	return repo.deleteByID(ctx, relationTable, id, dictionary.ErrRelationNotFound)
}

// Regions

func selectRegions(exec core.DBExecutor) sq.SelectBuilder {
	return builder(exec).Select(
		"r.id", "r.gloss_id", "r.dialect_id", "r.frequency", "r.traditional",
		"d.name AS dialect_name", "l.name AS language_name",
	).From(regionTable + " r").
		Join(dialectTable + " d ON d.id = r.dialect_id").
		Join(languageTable + " l ON l.id = d.language_id")
}

func (repo *dictionaryRepository) GlossRegions(ctx context.Context, glossID int64) ([]dictionary.Region, error) {
	regions := make([]dictionary.Region, 0)
	qb := selectRegions(repo.db).Where(sq.Eq{"r.gloss_id": glossID}).OrderBy("d.name", "r.id")
	if err := selectAll(ctx, repo.db, &regions, qb); err != nil {
		return nil, errors.Wrap(err, "listing regions")
	}
	return regions, nil
}

func (repo *dictionaryRepository) CreateRegion(ctx context.Context, reg dictionary.Region) (dictionary.Region, error) {
	qb := builder(repo.db).Insert(regionTable).Columns("gloss_id", "dialect_id", "frequency", "traditional").
		Values(reg.GlossID, reg.DialectID, reg.Frequency, reg.Traditional)
	id, err := insert(ctx, repo.db, qb)
	if err != nil {
		return dictionary.Region{}, errors.Wrap(err, "inserting region")
	}

	var created dictionary.Region
	if err := get(ctx, repo.db, &created, selectRegions(repo.db).Where(sq.Eq{"r.id": id})); err != nil {
		return dictionary.Region{}, trapNoRows(err, dictionary.ErrRegionNotFound, "finding region")
	}
	return created, nil
}

func (repo *dictionaryRepository) DeleteRegion(ctx context.Context, id int64) error {
	return repo.deleteByID(ctx, regionTable, id, dictionary.ErrRegionNotFound)
}

// Tags

func (repo *dictionaryRepository) ListTags(ctx context.Context) ([]dictionary.Tag, error) {
	tags := make([]dictionary.Tag, 0)
	if err := selectAll(ctx, repo.db, &tags, builder(repo.db).Select("id", "name").From(tagTable).OrderBy("name")); err != nil {
		return nil, errors.Wrap(err, "listing tags")
	}
	return tags, nil
}

func (repo *dictionaryRepository) GlossTags(ctx context.Context, glossIDs ...int64) (map[int64][]string, error) {
	tags := make(map[int64][]string, len(glossIDs))
	if len(glossIDs) == 0 {
		return tags, nil
	}

	var rows []struct {
		GlossID int64  `db:"gloss_id"`
		Name    string `db:"name"`
	}
	qb := builder(repo.db).Select("gt.gloss_id", "tg.name").From("gloss_tag gt").
		Join(tagTable + " tg ON tg.id = gt.tag_id").
		Where(sq.Eq{"gt.gloss_id": glossIDs}).
		OrderBy("gt.gloss_id", "tg.name")
	if err := selectAll(ctx, repo.db, &rows, qb); err != nil {
		return nil, errors.Wrap(err, "listing gloss tags")
	}
	for _, row := range rows {
		tags[row.GlossID] = append(tags[row.GlossID], row.Name)
	}
	return tags, nil
}

// AddGlossTag tags the gloss, creating the tag when needed. Tagging twice is a no-op.
func (repo *dictionaryRepository) AddGlossTag(ctx context.Context, glossID int64, name string) error {
	return inTx(ctx, repo.db, func(tx *sqlx.Tx) error {
		var tagID int64
		err := get(ctx, tx, &tagID, builder(tx).Select("id").From(tagTable).Where(sq.Eq{"name": name}))
		if errors.Cause(err) == sql.ErrNoRows {
			tagID, err = insert(ctx, tx, builder(tx).Insert(tagTable).Columns("name").Values(name))
		}
		if err != nil {
			return errors.Wrap(err, "finding tag")
		}

		qb := builder(tx).Insert("gloss_tag").Columns("gloss_id", "tag_id").Values(glossID, tagID).
			Suffix("ON CONFLICT DO NOTHING")
		if _, err := execute(ctx, tx, qb); err != nil {
			return errors.Wrap(err, "tagging gloss")
		}
		return nil
	})
}

// RemoveGlossTag untags the gloss. Removing a missing tag is a no-op.
func (repo *dictionaryRepository) RemoveGlossTag(ctx context.Context, glossID int64, name string) error {
	qb := builder(repo.db).Delete("gloss_tag").
		Where(sq.Eq{"gloss_id": glossID}).
		Where(sq.Expr("tag_id IN (?)", sq.Select("id").From(tagTable).Where(sq.Eq{"name": name})))
	if _, err := execute(ctx, repo.db, qb); err != nil {
		return errors.Wrap(err, "untagging gloss")
	}
	return nil
}

// Languages & dialects

func selectDialects(exec core.DBExecutor) sq.SelectBuilder {
	return builder(exec).Select("d.id", "d.language_id", "d.name", "d.description", "l.name AS language_name").
		From(dialectTable + " d").
		Join(languageTable + " l ON l.id = d.language_id")
}

func (repo *dictionaryRepository) ListLanguages(ctx context.Context) ([]dictionary.Language, error) {
	langs := make([]dictionary.Language, 0)
	qb := builder(repo.db).Select("id", "name", "description").From(languageTable).OrderBy("name")
	if err := selectAll(ctx, repo.db, &langs, qb); err != nil {
		return nil, errors.Wrap(err, "listing languages")
	}
	return langs, nil
}

func (repo *dictionaryRepository) CreateLanguage(ctx context.Context, lang dictionary.Language) (dictionary.Language, error) {
	id, err := insert(ctx, repo.db, builder(repo.db).Insert(languageTable).Columns("name", "description").
		Values(lang.Name, lang.Description))
	if err != nil {
		return dictionary.Language{}, errors.Wrap(err, "inserting language")
	}
	lang.ID = id
	return lang, nil
}

func (repo *dictionaryRepository) ListDialects(ctx context.Context) ([]dictionary.Dialect, error) {
	dials := make([]dictionary.Dialect, 0)
	if err := selectAll(ctx, repo.db, &dials, selectDialects(repo.db).OrderBy("l.name", "d.name")); err != nil {
		return nil, errors.Wrap(err, "listing dialects")
	}
	return dials, nil
}

func (repo *dictionaryRepository) CreateDialect(ctx context.Context, dial dictionary.Dialect) (dictionary.Dialect, error) {
	id, err := insert(ctx, repo.db, builder(repo.db).Insert(dialectTable).Columns("language_id", "name", "description").
		Values(dial.LanguageID, dial.Name, dial.Description))
	if err != nil {
		return dictionary.Dialect{}, errors.Wrap(err, "inserting dialect")
	}

	var created dictionary.Dialect
	if err := get(ctx, repo.db, &created, selectDialects(repo.db).Where(sq.Eq{"d.id": id})); err != nil {
		return dictionary.Dialect{}, errors.Wrap(err, "finding dialect")
	}
	return created, nil
}

func (repo *dictionaryRepository) GlossLanguages(ctx context.Context, glossID int64) ([]dictionary.Language, error) {
	langs := make([]dictionary.Language, 0)
	qb := builder(repo.db).Select("l.id", "l.name", "l.description").From(languageTable + " l").
		Join("gloss_language gl ON gl.language_id = l.id").
		Where(sq.Eq{"gl.gloss_id": glossID}).
		OrderBy("l.name")
	if err := selectAll(ctx, repo.db, &langs, qb); err != nil {
		return nil, errors.Wrap(err, "listing gloss languages")
	}
	return langs, nil
}

func (repo *dictionaryRepository) GlossDialects(ctx context.Context, glossID int64) ([]dictionary.Dialect, error) {
	dials := make([]dictionary.Dialect, 0)
	qb := selectDialects(repo.db).Join("gloss_dialect gd ON gd.dialect_id = d.id").
		Where(sq.Eq{"gd.gloss_id": glossID}).
		OrderBy("l.name", "d.name")
	if err := selectAll(ctx, repo.db, &dials, qb); err != nil {
		return nil, errors.Wrap(err, "listing gloss dialects")
	}
	return dials, nil
}

func (repo *dictionaryRepository) SetGlossLanguages(ctx context.Context, glossID int64, ids []int64) error {
	return inTx(ctx, repo.db, func(tx *sqlx.Tx) error {
		return setGlossLinks(ctx, tx, "gloss_language", "language_id", glossID, ids)
	})
}

func (repo *dictionaryRepository) SetGlossDialects(ctx context.Context, glossID int64, ids []int64) error {
	return inTx(ctx, repo.db, func(tx *sqlx.Tx) error {
		return setGlossLinks(ctx, tx, "gloss_dialect", "dialect_id", glossID, ids)
	})
}

// setGlossLinks replaces the rows of a gloss in a many-to-many table.
func setGlossLinks(ctx context.Context, tx *sqlx.Tx, table, col string, glossID int64, ids []int64) error {
	if _, err := execute(ctx, tx, builder(tx).Delete(table).Where(sq.Eq{"gloss_id": glossID})); err != nil {
		return errors.Wrapf(err, "clearing %s", table)
	}
	if len(ids) == 0 {
		return nil
	}
	qb := builder(tx).Insert(table).Columns("gloss_id", col)
	seen := make(map[int64]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		qb = qb.Values(glossID, id)
	}
	if _, err := execute(ctx, tx, qb); err != nil {
		return errors.Wrapf(err, "inserting %s", table)
	}
	return nil
}

// Videos

var videoColumns = []string{"id", "gloss_id", "videofile", "version"}

func (repo *dictionaryRepository) GlossVideos(ctx context.Context, glossID int64) ([]dictionary.GlossVideo, error) {
	return glossVideos(ctx, repo.db, glossID)
}

func glossVideos(ctx context.Context, exec core.DBExecutor, glossID int64) ([]dictionary.GlossVideo, error) {
	videos := make([]dictionary.GlossVideo, 0)
	qb := builder(exec).Select(videoColumns...).From(videoTable).Where(sq.Eq{"gloss_id": glossID}).OrderBy("version", "id")
	if err := selectAll(ctx, exec, &videos, qb); err != nil {
		return nil, errors.Wrap(err, "listing videos")
	}
	return videos, nil
}

func (repo *dictionaryRepository) AddGlossVideo(ctx context.Context, glossID int64, videoFile, backupFile string) (dictionary.GlossVideo, error) {
	vid := dictionary.GlossVideo{GlossID: glossID, VideoFile: videoFile}
	err := inTx(ctx, repo.db, func(tx *sqlx.Tx) error {
		if backupFile != "" {
			qb := builder(tx).Update(videoTable).Set("videofile", backupFile).
				Where(sq.Eq{"gloss_id": glossID, "version": 0})
			if _, err := execute(ctx, tx, qb); err != nil {
				return errors.Wrap(err, "moving current video")
			}
		}
		qb := builder(tx).Update(videoTable).Set("version", sq.Expr("version + 1")).Where(sq.Eq{"gloss_id": glossID})
		if _, err := execute(ctx, tx, qb); err != nil {
			return errors.Wrap(err, "bumping video versions")
		}

		id, err := insert(ctx, tx, builder(tx).Insert(videoTable).Columns("gloss_id", "videofile", "version").
			Values(glossID, videoFile, 0))
		if err != nil {
			return errors.Wrap(err, "inserting video")
		}
		vid.ID = id
		return nil
	})
	if err != nil {
		return dictionary.GlossVideo{}, err
	}
	return vid, nil
}

func (repo *dictionaryRepository) VideoLinked(ctx context.Context, videoFile string) (bool, error) {
	var cnt int
	if err := get(ctx, repo.db, &cnt, builder(repo.db).Select("COUNT(*)").From(videoTable).Where(sq.Eq{"videofile": videoFile})); err != nil {
		return false, errors.Wrap(err, "checking video")
	}
	return cnt > 0, nil
}

// Field choices

// FieldChoices lists the choices of `field`, or every choice when `field` is empty.
func (repo *dictionaryRepository) FieldChoices(ctx context.Context, field string) ([]dictionary.FieldChoice, error) {
	qb := builder(repo.db).Select("id", "field", "machine_value", "english_name").From(choiceTable)
	if field != "" {
		qb = qb.Where(sq.Eq{"field": field})
	}
	choices := make([]dictionary.FieldChoice, 0)
	if err := selectAll(ctx, repo.db, &choices, qb.OrderBy("field", "english_name", "id")); err != nil {
		return nil, errors.Wrap(err, "listing field choices")
	}
	return choices, nil
}

func (repo *dictionaryRepository) CreateFieldChoice(ctx context.Context, fc dictionary.FieldChoice) (dictionary.FieldChoice, error) {
	id, err := insert(ctx, repo.db, builder(repo.db).Insert(choiceTable).Columns("field", "machine_value", "english_name").
		Values(fc.Field, fc.MachineValue, fc.EnglishName))
	if err != nil {
		return dictionary.FieldChoice{}, errors.Wrap(err, "inserting field choice")
	}
	fc.ID = id
	return fc, nil
}

// Deletions

func (repo *dictionaryRepository) DeletedSince(ctx context.Context, itemType string, since time.Time) ([]dictionary.DeletedGlossOrMedia, error) {
	qb := builder(repo.db).Select("id", "item_type", "old_pk", "idgloss", "deletion_date").From(deletedTable).
		Where(sq.Eq{"item_type": itemType}).
		Where(sq.Gt{"deletion_date": since.UTC()}).
		OrderBy("deletion_date", "id")

	deleted := make([]dictionary.DeletedGlossOrMedia, 0)
	if err := selectAll(ctx, repo.db, &deleted, qb); err != nil {
		return nil, errors.Wrap(err, "listing deleted items")
	}
	for i := range deleted {
		deleted[i].DeletionDate = deleted[i].DeletionDate.UTC()
	}
	return deleted, nil
}

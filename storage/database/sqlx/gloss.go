package sqlxrepos

import (
	"context"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/signbank/signbank/core"
	"github.com/signbank/signbank/core/dictionary"
)

const glossTable = "gloss"

var (
	glossColumns = func() []string {
		cols := make([]string, 0, len(dictionary.GlossFields)+2)
		for _, f := range dictionary.GlossFields {
			cols = append(cols, "g."+f.Column)
		}
		return append(cols, "g.created_at", "g.updated_at")
	}()

	glossOrderings = func() map[string]string {
		orderings := map[string]string{"created_at": "g.created_at", "updated_at": "g.updated_at"}
		for _, f := range dictionary.GlossFields {
			orderings[f.Name] = "g." + f.Column
			orderings[f.Column] = "g." + f.Column
		}
		return orderings
	}()
)

// glossValues maps every gloss column but id to its value in `g`.
func glossValues(g dictionary.Gloss) map[string]interface{} {
	vals := map[string]interface{}{
		"created_at": g.CreatedAt.UTC(),
		"updated_at": g.UpdatedAt.UTC(),
	}
	for _, f := range dictionary.GlossFields {
		if f.Column == "id" {
			continue
		}
		vals[f.Column] = f.Value(g)
	}
	return vals
}

func utcGloss(g dictionary.Gloss) dictionary.Gloss {
	g.CreatedAt = g.CreatedAt.UTC()
	g.UpdatedAt = g.UpdatedAt.UTC()
	return g
}

func utcGlosses(glosses []dictionary.Gloss) []dictionary.Gloss {
	for i := range glosses {
		glosses[i] = utcGloss(glosses[i])
	}
	return glosses
}

func selectGlosses(exec core.DBExecutor) sq.SelectBuilder {
	return builder(exec).Select(glossColumns...).From(glossTable + " g")
}

func (repo *dictionaryRepository) getGloss(ctx context.Context, exec core.DBExecutor, qb sq.SelectBuilder) (dictionary.Gloss, error) {
	var g dictionary.Gloss
	if err := get(ctx, exec, &g, qb.Limit(1)); err != nil {
		return dictionary.Gloss{}, trapNoRows(err, dictionary.ErrGlossNotFound, "finding gloss")
	}
	return utcGloss(g), nil
}

func (repo *dictionaryRepository) listGlosses(ctx context.Context, qb sq.SelectBuilder, msg string) ([]dictionary.Gloss, error) {
	glosses := make([]dictionary.Gloss, 0)
	if err := selectAll(ctx, repo.db, &glosses, qb); err != nil {
		return nil, errors.Wrap(err, msg)
	}
	return utcGlosses(glosses), nil
}

func (repo *dictionaryRepository) CreateGloss(ctx context.Context, g dictionary.Gloss) (dictionary.Gloss, error) {
	return createGloss(ctx, repo.db, g)
}

func (repo *dictionaryRepository) UpdateGloss(ctx context.Context, g dictionary.Gloss) (dictionary.Gloss, error) {
	return updateGloss(ctx, repo.db, g)
}

func (repo *dictionaryRepository) SaveGloss(ctx context.Context, g dictionary.Gloss, links dictionary.GlossLinks) (dictionary.Gloss, error) {
	err := inTx(ctx, repo.db, func(tx *sqlx.Tx) error {
		var err error
		if g.ID == 0 {
			g, err = createGloss(ctx, tx, g)
		} else {
			g, err = updateGloss(ctx, tx, g)
		}
		if err != nil {
			return err
		}

		if links.Keywords != nil {
			if err := setGlossKeywords(ctx, tx, g.ID, links.Keywords); err != nil {
				return err
			}
		}
		if links.Languages != nil {
			if err := setGlossLinks(ctx, tx, "gloss_language", "language_id", g.ID, links.Languages); err != nil {
				return err
			}
		}
		if links.Dialects != nil {
			if err := setGlossLinks(ctx, tx, "gloss_dialect", "dialect_id", g.ID, links.Dialects); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return dictionary.Gloss{}, err
	}
	return g, nil
}

func createGloss(ctx context.Context, exec core.DBExecutor, g dictionary.Gloss) (dictionary.Gloss, error) {
	id, err := insert(ctx, exec, builder(exec).Insert(glossTable).SetMap(glossValues(g)))
	if err != nil {
		return dictionary.Gloss{}, errors.Wrap(err, "inserting gloss")
	}
	g.ID = id
	return utcGloss(g), nil
}

func updateGloss(ctx context.Context, exec core.DBExecutor, g dictionary.Gloss) (dictionary.Gloss, error) {
	vals := glossValues(g)
	delete(vals, "created_at")

	res, err := execute(ctx, exec, builder(exec).Update(glossTable).SetMap(vals).Where(sq.Eq{"id": g.ID}))
	if err != nil {
		return dictionary.Gloss{}, errors.Wrap(err, "updating gloss")
	}
	if err := affected(res, dictionary.ErrGlossNotFound); err != nil {
		return dictionary.Gloss{}, err
	}
	return utcGloss(g), nil
}

func (repo *dictionaryRepository) DeleteGloss(ctx context.Context, id int64, deletedAt time.Time) error {
	return inTx(ctx, repo.db, func(tx *sqlx.Tx) error {
		g, err := repo.getGloss(ctx, tx, selectGlosses(tx).Where(sq.Eq{"g.id": id}))
		if err != nil {
			return err
		}
		var videoIDs []int64
		if err := selectAll(ctx, tx, &videoIDs, builder(tx).Select("id").From(videoTable).Where(sq.Eq{"gloss_id": id}).OrderBy("id")); err != nil {
			return errors.Wrap(err, "listing gloss videos")
		}

		qb := builder(tx).Insert(deletedTable).Columns("item_type", "old_pk", "idgloss", "deletion_date").
			Values(dictionary.DeletedGloss, g.ID, g.IDGloss, deletedAt.UTC())
		for _, vid := range videoIDs {
			qb = qb.Values(dictionary.DeletedVideo, vid, g.IDGloss, deletedAt.UTC())
		}
		if _, err := execute(ctx, tx, qb); err != nil {
			return errors.Wrap(err, "recording deleted gloss")
		}
		if _, err := execute(ctx, tx, builder(tx).Delete(glossTable).Where(sq.Eq{"id": id})); err != nil {
			return errors.Wrap(err, "deleting gloss")
		}
		return nil
	})
}

func (repo *dictionaryRepository) GetGloss(ctx context.Context, id int64) (dictionary.Gloss, error) {
	return repo.getGloss(ctx, repo.db, selectGlosses(repo.db).Where(sq.Eq{"g.id": id}))
}

func (repo *dictionaryRepository) GlossBySN(ctx context.Context, sn int) (dictionary.Gloss, error) {
	return repo.getGloss(ctx, repo.db, selectGlosses(repo.db).Where(sq.Eq{"g.sn": sn}))
}

func (repo *dictionaryRepository) GlossesByIDGloss(ctx context.Context, idgloss string, publicOnly bool) ([]dictionary.Gloss, error) {
	qb := selectGlosses(repo.db).Where(sq.Eq{"g.idgloss": idgloss})
	if publicOnly {
		qb = qb.Where(sq.Eq{"g.in_web": true})
	}
	return repo.listGlosses(ctx, qb.OrderBy("g.id"), "finding glosses by idgloss")
}

func (repo *dictionaryRepository) SNExists(ctx context.Context, sn int, excludedID int64) (bool, error) {
	var cnt int
	qb := builder(repo.db).Select("COUNT(*)").From(glossTable).Where(sq.Eq{"sn": sn}).Where(sq.NotEq{"id": excludedID})
	if err := get(ctx, repo.db, &cnt, qb); err != nil {
		return false, errors.Wrap(err, "checking sign number")
	}
	return cnt > 0, nil
}

// glossConditions translates the gloss list filters, over the gloss alias g.
func glossConditions(f *dictionary.GlossQueryFilter) sq.And {
	conds := sq.And{}
	if f == nil {
		return conds
	}

	if f.Search != "" {
		pattern := core.LikePrefix(strings.ToLower(f.Search))
		search := sq.Or{
			sq.Expr(`LOWER(g.idgloss) LIKE ? ESCAPE '\'`, pattern),
			sq.Expr(`LOWER(g.annotation_idgloss) LIKE ? ESCAPE '\'`, pattern),
		}
		if sn, ok := f.SearchSN(); ok {
			search = append(search, sq.Eq{"g.sn": sn})
		}
		conds = append(conds, search)
	}
	if f.Keyword != "" {
		conds = append(conds, exists(sq.Select("1").From("translation t").
			Join("keyword k ON k.id = t.keyword_id").
			Where("t.gloss_id = g.id").
			Where(sq.Expr(`k.folded LIKE ? ESCAPE '\'`, core.LikePrefix(core.Fold(f.Keyword))))))
	}
	if v, ok := tristate(f.InWeb); ok {
		conds = append(conds, sq.Eq{"g.in_web": v})
	}
	if v, ok := tristate(f.HasVideo); ok {
		videos := sq.Select("1").From(videoTable + " v").Where("v.gloss_id = g.id")
		if v {
			conds = append(conds, exists(videos))
		} else {
			conds = append(conds, notExists(videos))
		}
	}
	if v, ok := tristate(f.DefsPublished); ok {
		conds = append(conds, exists(sq.Select("1").From(definitionTable+" d").
			Where("d.gloss_id = g.id").Where(sq.Eq{"d.published": v})))
	}
	for _, m := range f.PhonologyMatches() {
		conds = append(conds, sq.Eq{"g." + m.Column: m.Value})
	}
	if f.DefSearch != "" {
		defs := sq.Select("1").From(definitionTable+" d").Where("d.gloss_id = g.id").
			Where(sq.Expr(`LOWER(d.text) LIKE ? ESCAPE '\'`, core.LikeContains(strings.ToLower(f.DefSearch))))
		if f.DefRole != "" && f.DefRole != dictionary.DefRoleAll {
			defs = defs.Where(sq.Eq{"d.role": f.DefRole})
		}
		conds = append(conds, exists(defs))
	}
	if len(f.Dialects) > 0 {
		conds = append(conds, exists(sq.Select("1").From("gloss_dialect gd").
			Where("gd.gloss_id = g.id").Where(sq.Eq{"gd.dialect_id": f.Dialects})))
	}
	if len(f.Languages) > 0 {
		conds = append(conds, exists(sq.Select("1").From("gloss_language gl").
			Where("gl.gloss_id = g.id").Where(sq.Eq{"gl.language_id": f.Languages})))
	}
	if len(f.Tags) > 0 {
		conds = append(conds, sq.Expr("g.id IN (?)", taggedGlosses(f.Tags, true)))
	}
	if len(f.NotTags) > 0 {
		conds = append(conds, sq.Expr("g.id NOT IN (?)", taggedGlosses(f.NotTags, true)))
	}
	if expr := f.Expression(); expr != nil {
		conds = append(conds, sq.Expr(expr.Clause, expr.Params...))
	}
	return conds
}

// taggedGlosses selects the ids of the glosses tagged with any of the tags,
// or with every one of them that exists. Unknown tag names are ignored.
func taggedGlosses(tags []string, all bool) sq.SelectBuilder {
	qb := sq.Select("gt.gloss_id").From("gloss_tag gt").
		Join(tagTable + " tg ON tg.id = gt.tag_id").
		Where(sq.Eq{"tg.name": tags})
	if all {
		known := sq.Select("COUNT(DISTINCT name)").From(tagTable).Where(sq.Eq{"name": tags})
		qb = qb.GroupBy("gt.gloss_id").Having(sq.Expr("COUNT(DISTINCT tg.name) = (?)", known))
	}
	return qb
}

func exists(sub sq.SelectBuilder) sq.Sqlizer {
	return sq.Expr("EXISTS (?)", sub)
}

func notExists(sub sq.SelectBuilder) sq.Sqlizer {
	return sq.Expr("NOT EXISTS (?)", sub)
}

func tristate(val string) (bool, bool) {
	switch val {
	case core.Yes:
		return true, true
	case core.No:
		return false, true
	}
	return false, false
}

func (repo *dictionaryRepository) QueryGlosses(ctx context.Context, filter *dictionary.GlossQueryFilter, ordering []core.DBOrdering, limit, offset int) ([]dictionary.Gloss, error) {
	qb := selectGlosses(repo.db)
	if conds := glossConditions(filter); len(conds) > 0 {
		qb = qb.Where(conds)
	}
	if clauses := orderBy(ordering, glossOrderings); len(clauses) > 0 {
		qb = qb.OrderBy(append(clauses, "g.id ASC")...)
	} else {
		qb = qb.OrderBy("g.idgloss ASC", "g.id ASC")
	}
	if limit > 0 {
		qb = qb.Limit(uint64(limit)).Offset(uint64(offset))
	}
	return repo.listGlosses(ctx, qb, "querying glosses")
}

func (repo *dictionaryRepository) CountGlosses(ctx context.Context, filter *dictionary.GlossQueryFilter) (int, error) {
	qb := builder(repo.db).Select("COUNT(*)").From(glossTable + " g")
	if conds := glossConditions(filter); len(conds) > 0 {
		qb = qb.Where(conds)
	}
	var cnt int
	if err := get(ctx, repo.db, &cnt, qb); err != nil {
		return 0, errors.Wrap(err, "counting glosses")
	}
	return cnt, nil
}

func (repo *dictionaryRepository) CompleteGlosses(ctx context.Context, prefix string, limit int) ([]dictionary.Gloss, error) {
	pattern := core.LikePrefix(strings.ToLower(prefix))
	qb := selectGlosses(repo.db).Where(sq.Or{
		sq.Expr(`LOWER(g.idgloss) LIKE ? ESCAPE '\'`, pattern),
		sq.Expr(`LOWER(g.annotation_idgloss) LIKE ? ESCAPE '\'`, pattern),
		sq.Expr(`CAST(g.sn AS TEXT) LIKE ? ESCAPE '\'`, pattern),
	}).OrderBy("g.idgloss", "g.id")
	if limit > 0 {
		qb = qb.Limit(uint64(limit))
	}
	return repo.listGlosses(ctx, qb, "completing glosses")
}

func (repo *dictionaryRepository) ECVGlosses(ctx context.Context) ([]dictionary.Gloss, error) {
	qb := selectGlosses(repo.db).Where(sq.Eq{"g.exclude_from_ecv": false}).OrderBy("g.idgloss", "g.id")
	return repo.listGlosses(ctx, qb, "listing ECV glosses")
}

func (repo *dictionaryRepository) GlossesUpdatedSince(ctx context.Context, since time.Time) ([]dictionary.Gloss, error) {
	qb := selectGlosses(repo.db).Where(sq.Gt{"g.updated_at": since.UTC()}).OrderBy("g.id")
	return repo.listGlosses(ctx, qb, "listing updated glosses")
}

func (repo *dictionaryRepository) InWebGlosses(ctx context.Context) ([]dictionary.Gloss, error) {
	qb := selectGlosses(repo.db).Where(sq.Eq{"g.in_web": true}).OrderBy("g.idgloss", "g.id")
	return repo.listGlosses(ctx, qb, "listing web glosses")
}

func (repo *dictionaryRepository) GlossesWithTag(ctx context.Context, tag string, publicOnly bool) ([]dictionary.Gloss, error) {
	qb := selectGlosses(repo.db).Where(sq.Expr("g.id IN (?)", taggedGlosses([]string{tag}, false)))
	if publicOnly {
		qb = qb.Where(sq.Eq{"g.in_web": true})
	}
	return repo.listGlosses(ctx, qb.OrderBy("g.idgloss", "g.id"), "listing tagged glosses")
}

// visible restricts the public to the web dictionary.
func visible(qb sq.SelectBuilder, publicOnly bool) sq.SelectBuilder {
	if publicOnly {
		return qb.Where(sq.Eq{"g.in_web": true})
	}
	return qb
}

func (repo *dictionaryRepository) CountVisibleGlosses(ctx context.Context, publicOnly bool) (int, error) {
	var cnt int
	qb := visible(builder(repo.db).Select("COUNT(*)").From(glossTable+" g"), publicOnly)
	if err := get(ctx, repo.db, &cnt, qb); err != nil {
		return 0, errors.Wrap(err, "counting glosses")
	}
	return cnt, nil
}

func (repo *dictionaryRepository) CountGlossesBeforeSN(ctx context.Context, sn int, publicOnly bool) (int, error) {
	var cnt int
	qb := visible(builder(repo.db).Select("COUNT(*)").From(glossTable+" g").Where(sq.Lt{"g.sn": sn}), publicOnly)
	if err := get(ctx, repo.db, &cnt, qb); err != nil {
		return 0, errors.Wrap(err, "counting previous glosses")
	}
	return cnt, nil
}

func (repo *dictionaryRepository) AdjacentGlosses(ctx context.Context, sn int, publicOnly bool) (prev, next *dictionary.Gloss, err error) {
	find := func(cond sq.Sqlizer, order string) (*dictionary.Gloss, error) {
		g, err := repo.getGloss(ctx, repo.db, visible(selectGlosses(repo.db).Where(cond), publicOnly).OrderBy(order))
		if err != nil {
			if core.IsNotFound(err) {
				return nil, nil
			}
			return nil, err
		}
		return &g, nil
	}

	if prev, err = find(sq.Lt{"g.sn": sn}, "g.sn DESC"); err != nil {
		return nil, nil, err
	}
	if next, err = find(sq.Gt{"g.sn": sn}, "g.sn ASC"); err != nil {
		return nil, nil, err
	}
	return prev, next, nil
}

func featureConditions(f dictionary.FeatureFilter) sq.And {
	conds := sq.And{}
	trans := sq.Select("1").From("translation t").Where("t.gloss_id = g.id")
	if f.Term != "" {
		trans = trans.Join("keyword k ON k.id = t.keyword_id").
			Where(sq.Expr(`k.folded LIKE ? ESCAPE '\'`, core.LikePrefix(f.Term)))
	}
	if f.PublicOnly {
		conds = append(conds, sq.Eq{"g.in_web": true})
	}
	if f.Term != "" || !f.PublicOnly {
		conds = append(conds, exists(trans))
	}
	if f.Handshape != "" {
		conds = append(conds, sq.Eq{"g.domhndsh": f.Handshape})
	}
	if f.HasLocation {
		conds = append(conds, sq.Eq{"g.locprim": f.Location})
	}
	return conds
}

// FeatureSearch counts the matches, and returns no gloss when limit <= 0.
func (repo *dictionaryRepository) FeatureSearch(ctx context.Context, filter dictionary.FeatureFilter, limit, offset int) ([]dictionary.Gloss, int, error) {
	conds := featureConditions(filter)

	var cnt int
	if err := get(ctx, repo.db, &cnt, builder(repo.db).Select("COUNT(*)").From(glossTable+" g").Where(conds)); err != nil {
		return nil, 0, errors.Wrap(err, "counting feature matches")
	}
	if limit <= 0 || cnt == 0 {
		return []dictionary.Gloss{}, cnt, nil
	}

	qb := selectGlosses(repo.db).Where(conds).OrderBy("g.idgloss", "g.id").Limit(uint64(limit)).Offset(uint64(offset))
	glosses, err := repo.listGlosses(ctx, qb, "searching features")
	if err != nil {
		return nil, 0, err
	}
	return glosses, cnt, nil
}

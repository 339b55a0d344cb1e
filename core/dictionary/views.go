package dictionary

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"github.com/volatiletech/null/v8"

	"github.com/signbank/signbank/core"
	"github.com/signbank/signbank/core/user"
)

// featurePageSpan is the number of page links shown on each side of the current feature search page.
const featurePageSpan = 4

// Viewer is who a query runs for. The zero Viewer is anonymous.
type Viewer struct {
	Authenticated bool
	Roles         []string
}

func (v Viewer) Can(perm user.Permission) bool {
	return user.RolesHavePerm(v.Roles, perm)
}

// IsStaff reports whether the viewer may see glosses not published on the web.
func (v Viewer) IsStaff() bool {
	return v.Can(user.PermSearchGloss)
}

type (
	Navigation struct {
		Prev *Gloss `json:"prev"`
		Next *Gloss `json:"next"`
	}

	DefinitionGroup struct {
		Role        string       `json:"role"`
		RoleName    string       `json:"role_name"`
		Definitions []Definition `json:"definitions"`
	}

	// GlossView is a gloss with everything shown on its page.
	GlossView struct {
		Gloss         Gloss             `json:"gloss"`
		Translation   *Translation      `json:"translation"`
		Keywords      []Translation     `json:"allkwds"`
		Definitions   []DefinitionGroup `json:"definitions"`
		Regions       []Region          `json:"regions"`
		MapImages     []string          `json:"dialect_image"`
		VideoURL      string            `json:"videofile"`
		Homophones    []Relation        `json:"homophones"`
		Navigation    Navigation        `json:"navigation"`
		GlossCount    int               `json:"glosscount"`
		GlossPosition int               `json:"glossposn"`
		LastMatch     string            `json:"lastmatch"`
		Tags          []string          `json:"tags"`
	}

	// WordView is the n-th sign of a keyword.
	WordView struct {
		GlossView
		N       int   `json:"n"`
		Total   int   `json:"total"`
		Matches []int `json:"matches"`
	}

	// GlossDetail is the staff view of a gloss.
	GlossDetail struct {
		GlossView
		Relations []Relation     `json:"relations"`
		Languages []Language     `json:"languages"`
		Dialects  []Dialect      `json:"dialects"`
		Videos    []GlossVideo   `json:"videos"`
		AllDefs   []Definition   `json:"all_definitions"`
		Fields    []FieldDisplay `json:"fields"`
	}

	FieldDisplay struct {
		Name        string `json:"name"`
		VerboseName string `json:"verbose_name"`
		Value       string `json:"value"`
	}

	KeywordSearchResult struct {
		Keywords []Keyword `json:"keywords"`
		Page     core.Page `json:"page"`
		// set when a single exact match redirects to its word view
		Redirect string `json:"redirect,omitempty"`
	}

	FeatureSearchResult struct {
		Gloss     *Gloss    `json:"gloss"`
		Keyword   string    `json:"keyword"`
		N         int       `json:"n"`
		Page      core.Page `json:"page"`
		PageRange []string  `json:"page_range"`
	}

	GlossCompletion struct {
		IDGloss           string   `json:"idgloss"`
		AnnotationIDGloss string   `json:"annotation_idgloss"`
		SN                null.Int `json:"sn"`
		PK                string   `json:"pk"`
	}
)

// WordURL is the word view path of the n-th sign of a keyword.
func WordURL(keyword string, n int) string {
	return "/v1/dictionary/words/" + url.PathEscape(keyword) + "/" + strconv.Itoa(n)
}

// Word returns the n-th (1-based) visible sign of a keyword.
// With `regional`, ErrNoRegions is returned when the sign has no regional information.
func (svc *Service) Word(ctx context.Context, keyword string, n int, viewer Viewer, regional bool) (WordView, error) {
	kw, err := svc.repo.KeywordByText(ctx, keyword)
	if err != nil {
		return WordView{}, err
	}
	trans, err := svc.repo.KeywordTranslations(ctx, kw.ID, !viewer.IsStaff())
	if err != nil {
		return WordView{}, err
	}
	if n < 1 || n > len(trans) {
		return WordView{}, ErrTranslationNotFound
	}
	tr := trans[n-1]

	g, err := svc.repo.GetGloss(ctx, tr.GlossID)
	if err != nil {
		return WordView{}, err
	}
	gv, err := svc.glossView(ctx, g, viewer)
	if err != nil {
		return WordView{}, err
	}
	if regional && len(gv.Regions) == 0 {
		return WordView{}, ErrNoRegions
	}
	gv.Translation = &tr
	gv.LastMatch = tr.Keyword + "-" + strconv.Itoa(n)

	matches := make([]int, len(trans))
	for i := range matches {
		matches[i] = i + 1
	}
	return WordView{GlossView: gv, N: n, Total: len(trans), Matches: matches}, nil
}

// PublicGloss returns the sign with the given idgloss when exactly one is visible.
func (svc *Service) PublicGloss(ctx context.Context, idgloss, lastMatch string, viewer Viewer) (GlossView, error) {
	glosses, err := svc.repo.GlossesByIDGloss(ctx, idgloss, !viewer.IsStaff())
	if err != nil {
		return GlossView{}, err
	}
	if len(glosses) != 1 {
		return GlossView{}, ErrGlossNotFound
	}
	gv, err := svc.glossView(ctx, glosses[0], viewer)
	if err != nil {
		return GlossView{}, err
	}
	if len(gv.Keywords) > 0 {
		gv.Translation = &gv.Keywords[0]
	}
	if lastMatch != "None" {
		gv.LastMatch = lastMatch
	}
	return gv, nil
}

// GlossDetail returns the staff view of a gloss.
func (svc *Service) GlossDetail(ctx context.Context, id int64, viewer Viewer) (GlossDetail, error) {
	g, err := svc.repo.GetGloss(ctx, id)
	if err != nil {
		return GlossDetail{}, err
	}
	gv, err := svc.glossView(ctx, g, viewer)
	if err != nil {
		return GlossDetail{}, err
	}
	if len(gv.Keywords) > 0 {
		gv.Translation = &gv.Keywords[0]
	}
	if !svc.conf.SignNavigation {
		gv.GlossCount, gv.GlossPosition = 0, 0
	}

	detail := GlossDetail{GlossView: gv}
	if detail.Relations, err = svc.repo.GlossRelations(ctx, g.ID, ""); err != nil {
		return GlossDetail{}, err
	}
	if detail.Languages, err = svc.repo.GlossLanguages(ctx, g.ID); err != nil {
		return GlossDetail{}, err
	}
	if detail.Dialects, err = svc.repo.GlossDialects(ctx, g.ID); err != nil {
		return GlossDetail{}, err
	}
	if detail.Videos, err = svc.repo.GlossVideos(ctx, g.ID); err != nil {
		return GlossDetail{}, err
	}
	if viewer.Can(user.PermViewUnpublishedDefinitions) {
		if detail.AllDefs, err = svc.repo.GlossDefinitions(ctx, []int64{g.ID}, false); err != nil {
			return GlossDetail{}, err
		}
	}
	for _, f := range GlossFields {
		if f.Phonology && !viewer.Can(user.PermViewAdvancedProperties) {
			continue
		}
		detail.Fields = append(detail.Fields, FieldDisplay{Name: f.Name, VerboseName: f.VerboseName, Value: f.String(g)})
	}
	return detail, nil
}

func (svc *Service) glossView(ctx context.Context, g Gloss, viewer Viewer) (GlossView, error) {
	var (
		gv  = GlossView{Gloss: g, VideoURL: svc.VideoURL(g)}
		err error
	)
	publicOnly := !viewer.IsStaff()

	if gv.Keywords, err = svc.repo.GlossTranslations(ctx, g.ID); err != nil {
		return GlossView{}, err
	}
	defs, err := svc.repo.GlossDefinitions(ctx, []int64{g.ID}, !viewer.Can(user.PermViewUnpublishedDefinitions))
	if err != nil {
		return GlossView{}, err
	}
	gv.Definitions = GroupDefinitions(defs)

	if gv.Regions, err = svc.repo.GlossRegions(ctx, g.ID); err != nil {
		return GlossView{}, err
	}
	gv.MapImages = MapImages(gv.Regions)

	if gv.Homophones, err = svc.repo.GlossRelations(ctx, g.ID, RelRoleHomophone); err != nil {
		return GlossView{}, err
	}
	tags, err := svc.repo.GlossTags(ctx, g.ID)
	if err != nil {
		return GlossView{}, err
	}
	gv.Tags = tags[g.ID]

	if g.SN.Valid {
		if gv.GlossCount, err = svc.repo.CountVisibleGlosses(ctx, publicOnly); err != nil {
			return GlossView{}, err
		}
		before, err := svc.repo.CountGlossesBeforeSN(ctx, g.SN.Int, publicOnly)
		if err != nil {
			return GlossView{}, err
		}
		gv.GlossPosition = before + 1

		prev, next, err := svc.repo.AdjacentGlosses(ctx, g.SN.Int, publicOnly)
		if err != nil {
			return GlossView{}, err
		}
		gv.Navigation = Navigation{Prev: prev, Next: next}
	}
	return gv, nil
}

// GroupDefinitions groups definitions by role, in role order then count.
func GroupDefinitions(defs []Definition) []DefinitionGroup {
	groups := make([]DefinitionGroup, 0)
	for _, role := range DefinitionRoles {
		var inRole []Definition
		for _, d := range defs {
			if d.Role == role.Value {
				inRole = append(inRole, d)
			}
		}
		if len(inRole) > 0 {
			groups = append(groups, DefinitionGroup{Role: role.Value, RoleName: role.Name, Definitions: inRole})
		}
	}
	return groups
}

// MapImages lists the map images of the regions: one per language and one per dialect, without duplicates.
func MapImages(regions []Region) []string {
	images := make([]string, 0)
	seen := make(map[string]bool)
	add := func(img string) {
		if !seen[img] {
			seen[img] = true
			images = append(images, img)
		}
	}
	for _, reg := range regions {
		lang := strings.ReplaceAll(reg.LanguageName, " ", "")
		dial := strings.ReplaceAll(reg.DialectName, " ", "")
		ext := ""
		if reg.Traditional {
			ext = "-traditional"
		}
		add("images/maps/" + lang + ".png")
		add("images/maps/" + lang + "/" + dial + ext + ".png")
	}
	return images
}

// Search runs a public keyword search.
func (svc *Service) Search(ctx context.Context, kq KeywordQuery, viewer Viewer) (KeywordSearchResult, error) {
	term := strings.TrimSpace(kq.Query)
	if term == "" {
		return KeywordSearchResult{Keywords: []Keyword{}, Page: core.Paginate(0, svc.conf.SearchPageSize, "1")}, nil
	}
	filter := KeywordFilter{
		Term:       core.Fold(term),
		PublicOnly: !viewer.IsStaff(),
		SafeSearch: svc.conf.AnonSafeSearch && !viewer.Authenticated,
	}
	if svc.conf.AnonTagSearch || viewer.Authenticated {
		filter.Category = strings.TrimSpace(kq.Category)
	}

	keywords, err := svc.repo.SearchKeywords(ctx, filter)
	if err != nil {
		return KeywordSearchResult{}, err
	}
	if len(keywords) == 1 && keywords[0].Text == term {
		return KeywordSearchResult{
			Keywords: keywords,
			Page:     core.Paginate(1, svc.conf.SearchPageSize, "1"),
			Redirect: WordURL(keywords[0].Text, 1),
		}, nil
	}

	pg := core.Paginate(len(keywords), svc.conf.SearchPageSize, kq.Page)
	end := pg.Offset() + pg.PerPage
	if end > len(keywords) {
		end = len(keywords)
	}
	return KeywordSearchResult{Keywords: keywords[pg.Offset():end], Page: pg}, nil
}

// FeatureSearch shows one matching sign per page.
func (svc *Service) FeatureSearch(ctx context.Context, fq FeatureQuery, viewer Viewer) (FeatureSearchResult, error) {
	if !fq.IsValid() {
		return FeatureSearchResult{Page: core.Paginate(0, 1, "1"), PageRange: []string{}}, nil
	}
	filter := FeatureFilter{
		Term:       core.Fold(fq.Query),
		Handshape:  fq.HandshapeFilter(),
		PublicOnly: !viewer.IsStaff(),
	}
	filter.Location, filter.HasLocation = fq.LocationFilter()

	_, count, err := svc.repo.FeatureSearch(ctx, filter, 0, 0)
	if err != nil {
		return FeatureSearchResult{}, err
	}
	pg := core.Paginate(count, 1, fq.Page)
	res := FeatureSearchResult{Page: pg, PageRange: pg.Range(featurePageSpan)}
	if count == 0 {
		return res, nil
	}

	glosses, _, err := svc.repo.FeatureSearch(ctx, filter, 1, pg.Offset())
	if err != nil {
		return FeatureSearchResult{}, err
	}
	if len(glosses) == 0 {
		return res, nil
	}
	g := glosses[0]
	res.Gloss = &g

	// the first keyword of the sign and its index among that keyword's visible signs
	trans, err := svc.repo.GlossTranslations(ctx, g.ID)
	if err != nil {
		return FeatureSearchResult{}, err
	}
	if len(trans) > 0 {
		res.Keyword = trans[0].Keyword
		kwTrans, err := svc.repo.KeywordTranslations(ctx, trans[0].KeywordID, filter.PublicOnly)
		if err != nil {
			return FeatureSearchResult{}, err
		}
		for i, t := range kwTrans {
			if t.GlossID == g.ID {
				res.N = i + 1
				break
			}
		}
	}
	return res, nil
}

// CompleteGloss lists the glosses whose idgloss, annotation idgloss or sign number starts with `prefix`.
func (svc *Service) CompleteGloss(ctx context.Context, prefix string) ([]GlossCompletion, error) {
	glosses, err := svc.repo.CompleteGlosses(ctx, strings.TrimSpace(prefix), 0)
	if err != nil {
		return nil, err
	}
	completions := make([]GlossCompletion, len(glosses))
	for i, g := range glosses {
		completions[i] = GlossCompletion{
			IDGloss:           g.IDGloss,
			AnnotationIDGloss: g.AnnotationIDGloss,
			SN:                g.SN,
			PK:                g.IDGloss + " (" + strconv.FormatInt(g.ID, 10) + ")",
		}
	}
	return completions, nil
}

// KeywordValues lists the keywords starting with `prefix`, case-sensitively.
func (svc *Service) KeywordValues(ctx context.Context, prefix string) ([]string, error) {
	return svc.repo.KeywordsWithPrefix(ctx, prefix)
}

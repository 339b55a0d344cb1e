package echoapi

import (
	"bytes"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/signbank/signbank/core"
	"github.com/signbank/signbank/core/dictionary"
	"github.com/signbank/signbank/core/export"
	"github.com/signbank/signbank/core/user"
)

const (
	formatCSV     = "CSV"
	exportECV     = "ECV"
	videoFormFile = "videofile"
)

type (
	dictionaryDeps struct {
		svc                *dictionary.Service
		exporter           *export.Exporter
		validate           *validator.Validate
		logger             core.Logger
		alwaysRequireLogin bool
	}

	dictionaryApi struct {
		dictionaryDeps
	}

	// GlossList is a page of the staff gloss list.
	GlossList struct {
		Glosses []dictionary.Gloss `json:"glosses"`
		Page    core.Page          `json:"page"`
	}
)

func registerDictionaryAPI(g *echo.Group, auth *jwtAuth, deps dictionaryDeps) {
	api := dictionaryApi{deps}

	jwt := auth.required()
	public := []echo.MiddlewareFunc{auth.optional()}
	if deps.alwaysRequireLogin {
		public = []echo.MiddlewareFunc{jwt}
	}
	staff := []echo.MiddlewareFunc{jwt, permMiddleware(user.PermSearchGloss)}
	editors := []echo.MiddlewareFunc{jwt, permMiddleware(user.PermChangeGloss)}
	admins := []echo.MiddlewareFunc{jwt, adminMiddleware()}

	dg := g.Group("/dictionary")

	// public
	dg.GET("/search", api.search, public...)
	dg.GET("/featuresearch", api.featureSearch, public...)
	dg.GET("/words/:keyword/:n", api.word, public...)
	dg.GET("/regional/:keyword/:n", api.regional, public...)
	dg.GET("/gloss/:idgloss", api.publicGloss, public...)
	dg.GET("/tag/:tag", api.taggedGlosses, public...)
	dg.GET("/ajax/keyword/:prefix", api.keywordValues, public...)
	dg.GET("/ajax/tags", api.tagNames, public...)
	dg.GET("/missingvideo", api.missingVideos, public...)
	dg.GET("/package", api.buildPackage, public...)
	dg.GET("/info", api.info, public...)
	dg.GET("/languages", api.languages, public...)
	dg.GET("/dialects", api.dialects, public...)
	dg.GET("/choices/:field", api.fieldChoices, public...)
	dg.GET("/protected_media/*", api.protectedMedia, public...)

	// staff
	dg.GET("/list", api.list, staff...)
	dg.GET("/list/:id", api.glossDetail, staff...)
	dg.GET("/ajax/gloss/:prefix", api.completeGloss, staff...)
	dg.POST("/update_ecv", api.updateECV, staff...)

	// editors
	dg.POST("/glosses", api.createGloss, editors...)
	dg.PATCH("/glosses/:id", api.updateGloss, editors...)
	dg.DELETE("/glosses/:id", api.deleteGloss, editors...)
	dg.PUT("/glosses/:id/keywords", api.setKeywords, editors...)
	dg.POST("/glosses/:id/tags", api.updateTag, editors...)
	dg.POST("/glosses/:id/definitions", api.addDefinition, editors...)
	dg.POST("/glosses/:id/regions", api.addRegion, editors...)
	dg.POST("/glosses/:id/video", api.uploadVideo, editors...)
	dg.PUT("/definitions/:id", api.updateDefinition, editors...)
	dg.DELETE("/definitions/:id", api.deleteDefinition, editors...)
	dg.POST("/relations", api.addRelation, editors...)
	dg.DELETE("/relations/:id", api.deleteRelation, editors...)
	dg.DELETE("/regions/:id", api.deleteRegion, editors...)

	// admins
	dg.POST("/languages", api.createLanguage, admins...)
	dg.POST("/dialects", api.createDialect, admins...)
}

func paramID(ctx echo.Context) (int64, error) {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil {
		return 0, errHttpNotFound
	}
	return id, nil
}

// Public handlers

func (api *dictionaryApi) search(ctx echo.Context) error {
	var query dictionary.KeywordQuery
	if err := ctx.Bind(&query); err != nil {
		return errors.Wrap(err, "binding to KeywordQuery")
	}
	res, err := api.svc.Search(ctx.Request().Context(), query, contextViewer(ctx))
	if err != nil {
		return errors.Wrap(err, "searching keywords")
	}
	if res.Redirect != "" {
		return ctx.Redirect(http.StatusFound, res.Redirect)
	}
	return ctx.JSON(http.StatusOK, res)
}

func (api *dictionaryApi) featureSearch(ctx echo.Context) error {
	var query dictionary.FeatureQuery
	if err := ctx.Bind(&query); err != nil {
		return errors.Wrap(err, "binding to FeatureQuery")
	}
	res, err := api.svc.FeatureSearch(ctx.Request().Context(), query, contextViewer(ctx))
	if err != nil {
		return errors.Wrap(err, "searching features")
	}
	return ctx.JSON(http.StatusOK, res)
}

func (api *dictionaryApi) wordParams(ctx echo.Context) (string, int, error) {
	keyword, err := url.PathUnescape(ctx.Param("keyword"))
	if err != nil {
		return "", 0, errHttpNotFound
	}
	n, err := strconv.Atoi(ctx.Param("n"))
	if err != nil {
		return "", 0, errHttpNotFound
	}
	return keyword, n, nil
}

func (api *dictionaryApi) word(ctx echo.Context) error {
	keyword, n, err := api.wordParams(ctx)
	if err != nil {
		return err
	}
	view, err := api.svc.Word(ctx.Request().Context(), keyword, n, contextViewer(ctx), false)
	if err != nil {
		return errors.Wrap(err, "getting word")
	}
	return ctx.JSON(http.StatusOK, view)
}

func (api *dictionaryApi) regional(ctx echo.Context) error {
	keyword, n, err := api.wordParams(ctx)
	if err != nil {
		return err
	}
	view, err := api.svc.Word(ctx.Request().Context(), keyword, n, contextViewer(ctx), true)
	if err != nil {
		if errors.Cause(err) == dictionary.ErrNoRegions {
			return ctx.Redirect(http.StatusFound, dictionary.WordURL(keyword, n))
		}
		return errors.Wrap(err, "getting regional word")
	}
	return ctx.JSON(http.StatusOK, view)
}

func (api *dictionaryApi) publicGloss(ctx echo.Context) error {
	idgloss, err := url.PathUnescape(ctx.Param("idgloss"))
	if err != nil {
		return errHttpNotFound
	}
	view, err := api.svc.PublicGloss(ctx.Request().Context(), idgloss, ctx.QueryParam("lastmatch"), contextViewer(ctx))
	if err != nil {
		return errors.Wrap(err, "getting gloss")
	}
	return ctx.JSON(http.StatusOK, view)
}

func (api *dictionaryApi) taggedGlosses(ctx echo.Context) error {
	tag, err := url.PathUnescape(ctx.Param("tag"))
	if err != nil {
		return errHttpNotFound
	}
	glosses, err := api.svc.GlossesWithTag(ctx.Request().Context(), tag, contextViewer(ctx))
	if err != nil {
		return errors.Wrap(err, "listing tagged glosses")
	}
	return ctx.JSON(http.StatusOK, glosses)
}

func (api *dictionaryApi) keywordValues(ctx echo.Context) error {
	prefix, err := url.PathUnescape(ctx.Param("prefix"))
	if err != nil {
		return errHttpNotFound
	}
	values, err := api.svc.KeywordValues(ctx.Request().Context(), prefix)
	if err != nil {
		return errors.Wrap(err, "listing keywords")
	}
	return ctx.String(http.StatusOK, strings.Join(values, "\n"))
}

func (api *dictionaryApi) tagNames(ctx echo.Context) error {
	names, err := api.svc.TagNames(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "listing tags")
	}
	return ctx.JSON(http.StatusOK, names)
}

func (api *dictionaryApi) missingVideos(ctx echo.Context) error {
	glosses, err := api.svc.MissingVideos(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "listing missing videos")
	}
	return ctx.JSON(http.StatusOK, glosses)
}

func (api *dictionaryApi) buildPackage(ctx echo.Context) error {
	var since null.Int64
	if val := ctx.QueryParam("since_timestamp"); val != "" {
		ts, err := strconv.ParseInt(val, 10, 64)
		if err != nil {
			return core.NewValidationError(err, core.FieldError{Field: "since_timestamp", Error: "must be a unix timestamp"})
		}
		since = null.Int64From(ts)
	}
	file, err := api.exporter.BuildPackage(ctx.Request().Context(), since)
	if err != nil {
		return errors.Wrap(err, "building package")
	}
	return ctx.Attachment(file, filepath.Base(file))
}

func (api *dictionaryApi) info(ctx echo.Context) error {
	conf := api.svc.Config()
	return ctx.JSON(http.StatusOK, []string{conf.LanguageName, conf.CountryName})
}

func (api *dictionaryApi) languages(ctx echo.Context) error {
	langs, err := api.svc.Languages(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "listing languages")
	}
	return ctx.JSON(http.StatusOK, langs)
}

func (api *dictionaryApi) dialects(ctx echo.Context) error {
	dials, err := api.svc.Dialects(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "listing dialects")
	}
	return ctx.JSON(http.StatusOK, dials)
}

func (api *dictionaryApi) fieldChoices(ctx echo.Context) error {
	choices, err := api.svc.FieldChoices(ctx.Request().Context(), ctx.Param("field"))
	if err != nil {
		return errors.Wrap(err, "listing field choices")
	}
	return ctx.JSON(http.StatusOK, choices)
}

func (api *dictionaryApi) protectedMedia(ctx echo.Context) error {
	rel, err := url.PathUnescape(ctx.Param("*"))
	if err != nil {
		return errHttpNotFound
	}
	file := api.svc.Media().Abs(rel)
	if file == "" {
		return errHttpNotFound
	}
	info, err := os.Stat(file)
	if err != nil || info.IsDir() {
		return errHttpNotFound
	}
	return ctx.File(file)
}

// Staff handlers

func (api *dictionaryApi) list(ctx echo.Context) error {
	filter := new(dictionary.GlossQueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return errors.Wrap(err, "binding to GlossQueryFilter")
	}
	filter.Clean()
	if err := api.validate.Struct(filter); err != nil {
		return err
	}
	ordering := new(Ordering)
	ordering.Bind(ctx)
	viewer := contextViewer(ctx)

	if ctx.QueryParam("format") == formatCSV {
		if !viewer.Can(user.PermExportCSV) {
			return errHttpForbidden
		}
		var buf bytes.Buffer
		if err := api.exporter.CSV(ctx.Request().Context(), &buf, filter, ordering.Orderings, viewer); err != nil {
			return errors.Wrap(err, "exporting CSV")
		}
		ctx.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+export.CSVFilename+`"`)
		return ctx.Blob(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
	}
	if ctx.QueryParam("export_ecv") == exportECV {
		return api.updateECV(ctx)
	}

	page := new(listPage)
	page.Bind(ctx)
	glosses, pg, err := api.svc.ListGlosses(ctx.Request().Context(), filter, ordering.Orderings, page.Page, page.PaginateBy)
	if err != nil {
		return errors.Wrap(err, "listing glosses")
	}
	return ctx.JSON(http.StatusOK, GlossList{Glosses: glosses, Page: pg})
}

func (api *dictionaryApi) glossDetail(ctx echo.Context) error {
	id, err := paramID(ctx)
	if err != nil {
		return err
	}
	detail, err := api.svc.GlossDetail(ctx.Request().Context(), id, contextViewer(ctx))
	if err != nil {
		return errors.Wrap(err, "getting gloss detail")
	}
	return ctx.JSON(http.StatusOK, detail)
}

func (api *dictionaryApi) completeGloss(ctx echo.Context) error {
	prefix, err := url.PathUnescape(ctx.Param("prefix"))
	if err != nil {
		return errHttpNotFound
	}
	completions, err := api.svc.CompleteGloss(ctx.Request().Context(), prefix)
	if err != nil {
		return errors.Wrap(err, "completing gloss")
	}
	return ctx.JSON(http.StatusOK, completions)
}

func (api *dictionaryApi) updateECV(ctx echo.Context) error {
	if _, err := api.exporter.UpdateECV(ctx.Request().Context()); err != nil {
		return errors.Wrap(err, "updating ECV")
	}
	return ctx.String(http.StatusOK, "OK")
}

// Editor handlers

func (api *dictionaryApi) createGloss(ctx echo.Context) error {
	var data dictionary.GlossForm
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to GlossForm")
	}
	if err := data.Validate(ctx.Request().Context(), api.validate, api.svc, 0); err != nil {
		return err
	}
	g, err := api.svc.CreateGloss(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating gloss")
	}
	return ctx.JSON(http.StatusCreated, g)
}

func (api *dictionaryApi) updateGloss(ctx echo.Context) error {
	id, err := paramID(ctx)
	if err != nil {
		return err
	}
	orig, err := api.svc.GetGloss(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "finding gloss")
	}

	data := dictionary.FormFromGloss(orig)
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to GlossForm")
	}
	if err := data.Validate(ctx.Request().Context(), api.validate, api.svc, orig.ID); err != nil {
		return err
	}
	g, err := api.svc.UpdateGloss(ctx.Request().Context(), orig, data)
	if err != nil {
		return errors.Wrap(err, "updating gloss")
	}
	return ctx.JSON(http.StatusOK, g)
}

func (api *dictionaryApi) deleteGloss(ctx echo.Context) error {
	id, err := paramID(ctx)
	if err != nil {
		return err
	}
	if err := api.svc.DeleteGloss(ctx.Request().Context(), id); err != nil {
		return errors.Wrap(err, "deleting gloss")
	}
	api.logger.Info("gloss deleted", map[string]interface{}{"gloss": id})
	return ctx.NoContent(http.StatusNoContent)
}

func (api *dictionaryApi) setKeywords(ctx echo.Context) error {
	id, err := paramID(ctx)
	if err != nil {
		return err
	}
	var data dictionary.KeywordsForm
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to KeywordsForm")
	}
	trans, err := api.svc.SetKeywords(ctx.Request().Context(), id, data.Keywords)
	if err != nil {
		return errors.Wrap(err, "setting keywords")
	}
	return ctx.JSON(http.StatusOK, trans)
}

func (api *dictionaryApi) updateTag(ctx echo.Context) error {
	id, err := paramID(ctx)
	if err != nil {
		return err
	}
	var data dictionary.TagUpdate
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to TagUpdate")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	tags, err := api.svc.UpdateTag(ctx.Request().Context(), id, data)
	if err != nil {
		return errors.Wrap(err, "updating tag")
	}
	if tags == nil {
		tags = []string{}
	}
	return ctx.JSON(http.StatusOK, tags)
}

func (api *dictionaryApi) addDefinition(ctx echo.Context) error {
	id, err := paramID(ctx)
	if err != nil {
		return err
	}
	var data dictionary.DefinitionForm
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to DefinitionForm")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	def, err := api.svc.AddDefinition(ctx.Request().Context(), id, data)
	if err != nil {
		return errors.Wrap(err, "adding definition")
	}
	return ctx.JSON(http.StatusCreated, def)
}

func (api *dictionaryApi) updateDefinition(ctx echo.Context) error {
	id, err := paramID(ctx)
	if err != nil {
		return err
	}
	orig, err := api.svc.GetDefinition(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "finding definition")
	}
	var data dictionary.DefinitionForm
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to DefinitionForm")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	def, err := api.svc.UpdateDefinition(ctx.Request().Context(), orig, data)
	if err != nil {
		return errors.Wrap(err, "updating definition")
	}
	return ctx.JSON(http.StatusOK, def)
}

func (api *dictionaryApi) deleteDefinition(ctx echo.Context) error {
	id, err := paramID(ctx)
	if err != nil {
		return err
	}
	if err := api.svc.DeleteDefinition(ctx.Request().Context(), id); err != nil {
		return errors.Wrap(err, "deleting definition")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *dictionaryApi) addRelation(ctx echo.Context) error {
	var data dictionary.RelationForm
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to RelationForm")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	rel, err := api.svc.AddRelation(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "adding relation")
	}
	return ctx.JSON(http.StatusCreated, rel)
}

func (api *dictionaryApi) deleteRelation(ctx echo.Context) error {
	id, err := paramID(ctx)
	if err != nil {
		return err
	}
	if err := api.svc.DeleteRelation(ctx.Request().Context(), id); err != nil {
		return errors.Wrap(err, "deleting relation")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *dictionaryApi) addRegion(ctx echo.Context) error {
	id, err := paramID(ctx)
	if err != nil {
		return err
	}
	var data dictionary.RegionForm
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to RegionForm")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	reg, err := api.svc.AddRegion(ctx.Request().Context(), id, data)
	if err != nil {
		return errors.Wrap(err, "adding region")
	}
	return ctx.JSON(http.StatusCreated, reg)
}

func (api *dictionaryApi) deleteRegion(ctx echo.Context) error {
	id, err := paramID(ctx)
	if err != nil {
		return err
	}
	if err := api.svc.DeleteRegion(ctx.Request().Context(), id); err != nil {
		return errors.Wrap(err, "deleting region")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *dictionaryApi) uploadVideo(ctx echo.Context) error {
	id, err := paramID(ctx)
	if err != nil {
		return err
	}
	fh, err := ctx.FormFile(videoFormFile)
	if err != nil {
		return core.NewValidationError(err, core.FieldError{Field: videoFormFile, Error: "this field is required"})
	}
	file, err := fh.Open()
	if err != nil {
		return errors.Wrap(err, "opening uploaded video")
	}
	//goland:noinspection GoUnhandledErrorResult
	defer file.Close()

	vid, err := api.svc.UploadVideo(ctx.Request().Context(), id, file)
	if err != nil {
		return errors.Wrap(err, "uploading video")
	}
	return ctx.JSON(http.StatusCreated, vid)
}

// Admin handlers

func (api *dictionaryApi) createLanguage(ctx echo.Context) error {
	var data dictionary.LanguageForm
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LanguageForm")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	lang, err := api.svc.CreateLanguage(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating language")
	}
	return ctx.JSON(http.StatusCreated, lang)
}

func (api *dictionaryApi) createDialect(ctx echo.Context) error {
	var data dictionary.DialectForm
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to DialectForm")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	dial, err := api.svc.CreateDialect(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating dialect")
	}
	return ctx.JSON(http.StatusCreated, dial)
}

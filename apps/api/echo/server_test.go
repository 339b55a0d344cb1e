package echoapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/google/go-cmp/cmp"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap/zaptest"

	"github.com/signbank/signbank/core"
	"github.com/signbank/signbank/core/dictionary"
	"github.com/signbank/signbank/core/export"
	"github.com/signbank/signbank/core/media"
	"github.com/signbank/signbank/core/user"
	logsvc "github.com/signbank/signbank/services/logger"
	sqlxrepos "github.com/signbank/signbank/storage/database/sqlx"
	testutil "github.com/signbank/signbank/tests"
)

var errMissingToken = httpErr{Error: "missing or malformed jwt"}

type testApp struct {
	*server
	conf     *core.Config
	db       *sqlx.DB
	usrRepo  user.Repository
	dictRepo dictionary.Repository
}

// setup builds a server on a fresh database. confFns tweak the test configuration first.
func setup(t *testing.T, confFns ...func(conf *core.Config)) *testApp {
	t.Helper()

	db := testutil.NewDB(t)
	conf := testutil.NewConfig(t)
	for _, fn := range confFns {
		fn(conf)
	}

	validate := validator.New()
	_en := en.New()
	translator, _ := ut.New(_en, _en).GetTranslator("en")
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	dictionary.InitValidators(validate, translator)

	logger := logsvc.NewRollbarLogger(zaptest.NewLogger(t), conf)
	usrRepo := sqlxrepos.NewUserRepository(db)
	dictRepo := sqlxrepos.NewDictionaryRepository(db)
	store := media.NewStore(conf.Dictionary.MediaRoot, conf.Dictionary.GlossVideoDirectory)
	dictSvc := dictionary.NewService(dictRepo, store, conf.Dictionary)

	srv := NewServer(&Options{
		Conf:       conf,
		Logger:     logger,
		Validate:   validate,
		Translator: translator,
		UserSvc:    user.NewService(usrRepo),
		DictSvc:    dictSvc,
		Exporter:   export.NewExporter(dictSvc, conf.ECV, logger),
	}).(*server)

	return &testApp{server: srv, conf: conf, db: db, usrRepo: usrRepo, dictRepo: dictRepo}
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func (app *testApp) do(tt httpTest) *httptest.ResponseRecorder {
	req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
	app.ServeHTTP(rec, req)
	return rec
}

func (app *testApp) getToken(t *testing.T, usr user.User) string {
	t.Helper()
	token, err := app.auth.generateToken(app.auth.userClaims(usr))
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	t.Helper()
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

func marchallList(t *testing.T, objs ...interface{}) []byte {
	t.Helper()
	if objs == nil {
		objs = []interface{}{}
	}
	data, err := json.Marshal(objs)
	if err != nil {
		t.Fatalf("marchallList() failed: %v", err)
	}
	return data
}

func unmarshalBody(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("json.Unmarshal() failed: %v; body %s", err, rec.Body.String())
	}
}

// checkCodeAndData compares the response code and, when wantData is set, its JSON body.
func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v; body %s", rec.Code, tt.wantCode, rec.Body.String())
	}
	if tt.wantData == nil {
		return
	}
	var got, want interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("json.Unmarshal(body) failed: %v; body %s", err, rec.Body.String())
	}
	if err := json.Unmarshal(tt.wantData, &want); err != nil {
		t.Fatalf("json.Unmarshal(wantData) failed: %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("failed! data mismatch (-want +got):\n%s", diff)
	}
}

func TestServer_home(t *testing.T) {
	app := setup(t)

	req, rec := newRequest(http.MethodGet, "/")
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("failed! code = %v; want %v", rec.Code, http.StatusOK)
	}
	if want := "Welcome to the Signbank API!"; rec.Body.String() != want {
		t.Errorf("failed! body = %q; want %q", rec.Body.String(), want)
	}
}

func TestServer_notFound(t *testing.T) {
	app := setup(t)
	rec := app.do(httpTest{method: http.MethodGet, path: "/v1/nothing-here"})
	checkCodeAndData(t, httpTest{wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "Not Found"})}, rec)
}

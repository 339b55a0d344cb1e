package testutil

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/signbank/signbank/core"
	"github.com/signbank/signbank/core/dictionary"
	"github.com/signbank/signbank/core/user"
	"github.com/signbank/signbank/storage/database"
)

// tables in deletion order
var tables = []string{
	"deleted_gloss_or_media", "field_choice", "gloss_video", "gloss_tag", "tag", "region",
	"gloss_dialect", "gloss_language", "dialect", "language", "relation", "definition",
	"translation", "keyword", "gloss", "users",
}

// OpenDB opens a migrated in-memory sqlite database.
func OpenDB() (*sqlx.DB, error) {
	conf := &core.Config{Database: core.DatabaseConfig{Engine: database.EngineSQLite, Name: ":memory:"}}
	db, err := database.Open(conf)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(db, nil); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "migrating test database")
	}
	return db, nil
}

// NewDB opens a migrated in-memory database closed at the end of the test.
func NewDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := OpenDB()
	if err != nil {
		t.Fatalf("OpenDB() failed: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// ResetDB empties every table.
func ResetDB(t *testing.T, db *sqlx.DB) {
	t.Helper()
	for _, table := range tables {
		if _, err := db.Exec("DELETE FROM " + table); err != nil {
			t.Fatalf("ResetDB() failed on %s: %v", table, err)
		}
	}
}

// NewConfig returns a test configuration whose folders live in a temporary directory.
func NewConfig(t *testing.T) *core.Config {
	t.Helper()
	dir := t.TempDir()
	return &core.Config{
		Debug:     false,
		TestMode:  true,
		Env:       "TEST",
		AppName:   "Signbank",
		SecretKey: "test-secret",
		WorkDir:   dir,
		Server: core.ServerConfig{
			DisableReqLogs:            true,
			ShutdownTimeout:           time.Second,
			JWTExpirationDelta:        time.Hour,
			JWTRefreshExpirationDelta: 4 * time.Hour,
		},
		Database: core.DatabaseConfig{Engine: database.EngineSQLite, Name: ":memory:"},
		Dictionary: core.DictionaryConfig{
			LanguageName:        "BSL",
			CountryName:         "the UK",
			SiteURL:             "http://signbank.test",
			MediaRoot:           filepath.Join(dir, "media"),
			GlossVideoDirectory: "bsl-video",
			WritableFolder:      filepath.Join(dir, "files"),
			ECVFilename:         "bsl.ecv",
			PackagesFolder:      filepath.Join(dir, "packages"),
			AnonSafeSearch:      true,
			SignNavigation:      true,
			AdminPageSize:       10,
			SearchPageSize:      50,
		},
		ECV: core.ECVConfig{
			CVID: "BSL-lexicon",
			Languages: []core.ECVLanguage{{
				ID:                         "eng",
				Description:                "The glosses CV for the BSL",
				AnnotationIDGlossFieldName: "annotation_idgloss",
				LangDef:                    "http://cdb.iso.org/lg/CDB-00138502-001",
				LangID:                     "eng",
				LangLabel:                  "English (eng)",
			}},
		},
	}
}

func CreateUser(
	t *testing.T,
	repo user.Repository,
	name, uname, email, pwd string,
	roles []string,
	isActive bool,
	createdAt ...time.Time,
) user.User {
	t.Helper()
	tstamp := core.NowFunc()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC().Truncate(time.Second)
	}
	usr := user.User{
		Name:      name,
		Username:  uname,
		Email:     email,
		Roles:     roles,
		IsActive:  isActive,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("CreateUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

// CreateGloss stores `g`, stamped now unless its timestamps are set, with its keywords.
func CreateGloss(t *testing.T, repo dictionary.Repository, g dictionary.Gloss, keywords ...string) dictionary.Gloss {
	t.Helper()
	if g.CreatedAt.IsZero() {
		g.CreatedAt = core.NowFunc()
	}
	if g.UpdatedAt.IsZero() {
		g.UpdatedAt = g.CreatedAt
	}
	g, err := repo.CreateGloss(context.Background(), g)
	if err != nil {
		t.Fatalf("CreateGloss() failed: %v", err)
	}
	if len(keywords) > 0 {
		if _, err := repo.SetGlossKeywords(context.Background(), g.ID, keywords); err != nil {
			t.Fatalf("SetGlossKeywords() failed: %v", err)
		}
	}
	return g
}

func TagGloss(t *testing.T, repo dictionary.Repository, glossID int64, tags ...string) {
	t.Helper()
	for _, tag := range tags {
		if err := repo.AddGlossTag(context.Background(), glossID, tag); err != nil {
			t.Fatalf("AddGlossTag() failed: %v", err)
		}
	}
}

func CreateDefinition(t *testing.T, repo dictionary.Repository, glossID int64, role, text string, published bool) dictionary.Definition {
	t.Helper()
	def, err := repo.CreateDefinition(context.Background(), dictionary.Definition{
		GlossID: glossID, Role: role, Text: text, Published: published,
	})
	if err != nil {
		t.Fatalf("CreateDefinition() failed: %v", err)
	}
	return def
}

// CreateDialect creates a dialect of a new language.
func CreateDialect(t *testing.T, repo dictionary.Repository, language, dialect string) dictionary.Dialect {
	t.Helper()
	lang, err := repo.CreateLanguage(context.Background(), dictionary.Language{Name: language})
	if err != nil {
		t.Fatalf("CreateLanguage() failed: %v", err)
	}
	dial, err := repo.CreateDialect(context.Background(), dictionary.Dialect{LanguageID: lang.ID, Name: dialect})
	if err != nil {
		t.Fatalf("CreateDialect() failed: %v", err)
	}
	return dial
}

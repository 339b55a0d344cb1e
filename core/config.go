package core

import (
	"log"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	ServerConfig struct {
		Host                      string
		DebugHost                 string
		DisableReqLogs            bool
		ShutdownTimeout           time.Duration
		JWTExpirationDelta        time.Duration
		JWTRefreshExpirationDelta time.Duration
	}

	DatabaseConfig struct {
		Engine        string // postgres | sqlite
		Host          string
		Port          string
		Name          string // file path (or ":memory:") for sqlite
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		DisableTLS    bool
	}

	DictionaryConfig struct {
		LanguageName        string
		CountryName         string
		SiteURL             string
		MediaRoot           string
		GlossVideoDirectory string
		WritableFolder      string
		ECVFilename         string
		PackagesFolder      string
		AlwaysRequireLogin  bool
		AnonSafeSearch      bool
		AnonTagSearch       bool
		SignNavigation      bool
		AdminPageSize       int
		SearchPageSize      int
	}

	ECVLanguage struct {
		ID                         string
		Description                string
		AnnotationIDGlossFieldName string
		LangDef                    string
		LangID                     string
		LangLabel                  string
	}

	ECVConfig struct {
		CVID                           string
		IncludePhonologyAndFrequencies bool
		Languages                      []ECVLanguage
	}

	Config struct {
		Debug               bool
		TestMode            bool
		Env                 string
		AppName             string
		SecretKey           string
		Build               string
		RollbarToken        string
		WorkDir             string
		CommonPasswordsPath string
		Server              ServerConfig
		Database            DatabaseConfig
		Dictionary          DictionaryConfig
		ECV                 ECVConfig
	}
)

func (db DatabaseConfig) Address() string {
	if db.Port == "" {
		return db.Host
	}
	return net.JoinHostPort(db.Host, db.Port)
}

// ECVFile is the absolute path the ECV export is written to.
func (d DictionaryConfig) ECVFile() string {
	return filepath.Join(d.WritableFolder, d.ECVFilename)
}

// VideoFolder is the absolute path of the gloss video directory.
func (d DictionaryConfig) VideoFolder() string {
	return filepath.Join(d.MediaRoot, d.GlossVideoDirectory)
}

// NewConfig loads the configuration of the current ENV (DEV, TEST, QA or PROD).
func NewConfig() *Config {
	conf := viper.New()
	wd := Getwd()

	// defaults
	conf.SetTypeByDefaultValue(true)
	conf.SetDefault("debug", true)
	conf.SetDefault("testMode", false)
	conf.SetDefault("appName", "Signbank")
	conf.SetDefault("secretKey", "poq5-wer)enb$+57=dz&uoxh2(h!x)#*c2(#yg4h^$cegm2emy")
	conf.SetDefault("build", "dev")
	conf.SetDefault("rollbarToken", "")
	conf.SetDefault("commonPasswordsPath", filepath.Join(wd, "assets", "common-passwords.txt.gz"))

	conf.SetDefault("server_host", "0.0.0.0:8000")
	conf.SetDefault("server_debugHost", "0.0.0.0:4000")
	conf.SetDefault("server_disableReqLogs", false)
	conf.SetDefault("server_shutdownTimeout", 5*time.Second)
	conf.SetDefault("server_jwtExpirationDelta", 7*24*time.Hour)
	conf.SetDefault("server_jwtRefreshExpirationDelta", 4*time.Hour)

	conf.SetDefault("database_engine", "postgres")
	conf.SetDefault("database_host", "localhost")
	conf.SetDefault("database_port", "5432")
	conf.SetDefault("database_name", "bsl_signbank")
	conf.SetDefault("database_user", "bsl")
	conf.SetDefault("database_password", "")
	conf.SetDefault("database_adminUser", "postgres")
	conf.SetDefault("database_adminPassword", "")
	conf.SetDefault("database_disableTLS", true)

	conf.SetDefault("dictionary_languageName", "BSL")
	conf.SetDefault("dictionary_countryName", "the UK")
	conf.SetDefault("dictionary_siteURL", "http://127.0.0.1:8000")
	conf.SetDefault("dictionary_mediaRoot", filepath.Join(wd, "media"))
	conf.SetDefault("dictionary_glossVideoDirectory", "bsl-video")
	conf.SetDefault("dictionary_writableFolder", filepath.Join(wd, "files"))
	conf.SetDefault("dictionary_ecvFilename", "bsl.ecv")
	conf.SetDefault("dictionary_packagesFolder", filepath.Join(wd, "packages"))
	conf.SetDefault("dictionary_alwaysRequireLogin", false)
	conf.SetDefault("dictionary_anonSafeSearch", true)
	conf.SetDefault("dictionary_anonTagSearch", false)
	conf.SetDefault("dictionary_signNavigation", false)
	conf.SetDefault("dictionary_adminPageSize", 10)
	conf.SetDefault("dictionary_searchPageSize", 50)

	conf.SetDefault("ecv_cvId", "BSL-lexicon")
	conf.SetDefault("ecv_includePhonology", true)
	conf.SetDefault("ecv_languageId", "eng")
	conf.SetDefault("ecv_description", "The glosses CV for the BSL")
	conf.SetDefault("ecv_annotationField", "annotation_idgloss")
	conf.SetDefault("ecv_langDef", "http://cdb.iso.org/lg/CDB-00138502-001")
	conf.SetDefault("ecv_langLabel", "English (eng)")

	env := strings.ToUpper(os.Getenv("ENV")) // DEV (local; default), TEST, QA, PROD
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		conf.SetDefault("testMode", true)
	}
	conf.SetEnvPrefix(env)

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(wd, "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	conf.AutomaticEnv()

	langID := conf.GetString("ecv_languageId")
	return &Config{
		Debug:               conf.GetBool("debug"),
		TestMode:            conf.GetBool("testMode"),
		Env:                 env,
		AppName:             conf.GetString("appName"),
		SecretKey:           conf.GetString("secretKey"),
		Build:               conf.GetString("build"),
		RollbarToken:        conf.GetString("rollbarToken"),
		WorkDir:             wd,
		CommonPasswordsPath: conf.GetString("commonPasswordsPath"),
		Server: ServerConfig{
			Host:                      conf.GetString("server_host"),
			DebugHost:                 conf.GetString("server_debugHost"),
			DisableReqLogs:            conf.GetBool("server_disableReqLogs"),
			ShutdownTimeout:           conf.GetDuration("server_shutdownTimeout"),
			JWTExpirationDelta:        conf.GetDuration("server_jwtExpirationDelta"),
			JWTRefreshExpirationDelta: conf.GetDuration("server_jwtRefreshExpirationDelta"),
		},
		Database: DatabaseConfig{
			Engine:        conf.GetString("database_engine"),
			Host:          conf.GetString("database_host"),
			Port:          conf.GetString("database_port"),
			Name:          conf.GetString("database_name"),
			User:          conf.GetString("database_user"),
			Password:      conf.GetString("database_password"),
			AdminUser:     conf.GetString("database_adminUser"),
			AdminPassword: conf.GetString("database_adminPassword"),
			DisableTLS:    conf.GetBool("database_disableTLS"),
		},
		Dictionary: DictionaryConfig{
			LanguageName:        conf.GetString("dictionary_languageName"),
			CountryName:         conf.GetString("dictionary_countryName"),
			SiteURL:             strings.TrimSuffix(conf.GetString("dictionary_siteURL"), "/"),
			MediaRoot:           conf.GetString("dictionary_mediaRoot"),
			GlossVideoDirectory: conf.GetString("dictionary_glossVideoDirectory"),
			WritableFolder:      conf.GetString("dictionary_writableFolder"),
			ECVFilename:         conf.GetString("dictionary_ecvFilename"),
			PackagesFolder:      conf.GetString("dictionary_packagesFolder"),
			AlwaysRequireLogin:  conf.GetBool("dictionary_alwaysRequireLogin"),
			AnonSafeSearch:      conf.GetBool("dictionary_anonSafeSearch"),
			AnonTagSearch:       conf.GetBool("dictionary_anonTagSearch"),
			SignNavigation:      conf.GetBool("dictionary_signNavigation"),
			AdminPageSize:       conf.GetInt("dictionary_adminPageSize"),
			SearchPageSize:      conf.GetInt("dictionary_searchPageSize"),
		},
		ECV: ECVConfig{
			CVID:                           conf.GetString("ecv_cvId"),
			IncludePhonologyAndFrequencies: conf.GetBool("ecv_includePhonology"),
			Languages: []ECVLanguage{
				{
					ID:                         langID,
					Description:                conf.GetString("ecv_description"),
					AnnotationIDGlossFieldName: conf.GetString("ecv_annotationField"),
					LangDef:                    conf.GetString("ecv_langDef"),
					LangID:                     langID,
					LangLabel:                  conf.GetString("ecv_langLabel"),
				},
			},
		},
	}
}

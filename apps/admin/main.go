package main

import (
	"fmt"
	"os"

	"github.com/signbank/signbank/core"
	"github.com/signbank/signbank/core/dictionary"
	"github.com/signbank/signbank/core/export"
	"github.com/signbank/signbank/core/media"
	logsvc "github.com/signbank/signbank/services/logger"
	"github.com/signbank/signbank/storage/database"
	sqlxrepos "github.com/signbank/signbank/storage/database/sqlx"
)

func main() {
	conf := core.NewConfig()

	zl, err := logsvc.NewZap(conf)
	if err != nil {
		fmt.Fprintf(os.Stderr, "setting up zap: %v\n", err)
		os.Exit(1)
	}
	logger := logsvc.NewRollbarLogger(zl.Named("ADMIN"), conf)

	// set up DB
	if err = database.CreateIfNotExist(conf); err != nil {
		logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	db, err := database.Open(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("opening database: %v", err), err)
	}

	store := media.NewStore(conf.Dictionary.MediaRoot, conf.Dictionary.GlossVideoDirectory)
	dictSvc := dictionary.NewService(sqlxrepos.NewDictionaryRepository(db), store, conf.Dictionary)

	// start CLI
	cl := &commandLine{
		db:       db,
		usrRepo:  sqlxrepos.NewUserRepository(db),
		dictSvc:  dictSvc,
		exporter: export.NewExporter(dictSvc, conf.ECV, logger),
		logger:   logger,
		out:      os.Stdout,
	}
	err = cl.run(os.Args)
	_ = db.Close()
	_ = zl.Sync()
	if err != nil {
		if err != errHelp {
			fmt.Fprintf(os.Stderr, "\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}

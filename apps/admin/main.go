package main

import (
	"context"
	"log"
	"os"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/cohort"
	"github.com/trezcool/darasa/core/user"
	logsvc "github.com/trezcool/darasa/services/logger"
	"github.com/trezcool/darasa/storage/database"
	sqlxrepos "github.com/trezcool/darasa/storage/database/sqlx"
)

func main() {
	conf := core.NewConfig()

	logger := logsvc.NewRollbarLogger(log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile), conf)
	logger.Enable(false)

	// set up DB
	db, err := database.Open(conf)
	if err != nil {
		logger.Fatal("opening database", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*conf.Server.ShutdownTimeout)
	defer cancel()
	if err = database.Ping(ctx, db); err != nil {
		logger.Fatal("pinging database", err)
	}

	// set up services
	validate := validator.New()
	_en := en.New()
	translator, _ := ut.New(_en, _en).GetTranslator("en")
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)

	usrSvc := user.NewService(sqlxrepos.NewUserRepository(db))

	// start CLI
	cli := commandLine{
		db:         db.DB,
		users:      usrSvc,
		cohorts:    cohort.NewService(sqlxrepos.NewCohortRepository(db), usrSvc, conf),
		validate:   validate,
		translator: translator,
	}
	if err = cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Error("error: " + cli.describe(err))
		}
		os.Exit(1)
	}
}

package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/trezcool/bolsa/core"
	logsvc "github.com/trezcool/bolsa/services/logger"
	"github.com/trezcool/bolsa/storage/database"
	sqlxrepos "github.com/trezcool/bolsa/storage/database/sqlx"
)

func main() {
	conf := core.NewConfig()
	stdLogger := log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	logger := logsvc.NewRollbarLogger(stdLogger, conf)

	cli := commandLine{
		conf:   conf,
		logger: logger,
		out:    os.Stdout,
	}

	// set up DB
	if len(os.Args) > 1 && needsDB(os.Args[1]) {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		if os.Args[1] == "migrate" {
			errAndDie(logger, database.CreateIfNotExist(ctx, conf))
		}
		db, err := database.Open(ctx, conf)
		cancel()
		errAndDie(logger, err)
		defer db.Close()

		cli.db = db.DB
		cli.candRepo = sqlxrepos.NewCandidateRepository(db)
		cli.stdRepo = sqlxrepos.NewStudentRepository(db)
	}

	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Error("command failed", err)
		}
		os.Exit(1)
	}
}

func errAndDie(logger core.Logger, err error) {
	if err != nil {
		logger.Fatal("setting up the database", err)
	}
}

package main

import (
	"context"
	"database/sql"
	"log"
	"os"

	"github.com/trezcool/censo/core"
	"github.com/trezcool/censo/core/census"
	"github.com/trezcool/censo/core/school"
	logsvc "github.com/trezcool/censo/services/logger"
	"github.com/trezcool/censo/storage"
	"github.com/trezcool/censo/storage/database"
	sqlxdb "github.com/trezcool/censo/storage/database/sqlx"
)

func main() {
	ctx := context.Background()
	conf := core.NewConfig()

	zl, err := logsvc.NewZap(conf)
	if err != nil {
		log.Fatal(err)
	}
	logger := logsvc.NewRollbarLogger(zl, conf)
	defer logger.Sync()

	// set up storage; migrations are left to the migrate command
	var kv core.KVStore
	var db *sql.DB
	switch conf.Storage.Driver {
	case core.DriverSQLite, core.DriverPostgres:
		sqlDB, err := database.Open(ctx, conf.Storage)
		errAndDie(logger, err)
		if len(os.Args) < 2 || os.Args[1] != "migrate" {
			errAndDie(logger, database.Migrate(sqlDB.DB, conf.Storage.Driver))
		}
		db = sqlDB.DB
		kv = sqlxdb.New(sqlDB)
	default:
		kv, err = storage.Open(ctx, conf.Storage)
		errAndDie(logger, err)
	}
	defer kv.Close()

	registry, err := school.Open(conf.Census.SchoolsFile)
	errAndDie(logger, err)

	// start CLI
	cli := commandLine{
		conf:      conf,
		db:        db,
		censusSvc: census.NewService(conf, registry, census.NewStore(kv, logger, 0), nil /* mailer */, logger),
		out:       os.Stdout,
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Error("admin command failed", err)
		}
		logger.Sync()
		os.Exit(1)
	}
}

func errAndDie(logger core.Logger, err error) {
	if err != nil {
		logger.Fatal(err.Error(), err)
	}
}

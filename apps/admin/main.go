package main

import (
	"log"
	"os"

	"github.com/madrasa-labs/madrasa/core"
	"github.com/madrasa-labs/madrasa/core/user"
	logsvc "github.com/madrasa-labs/madrasa/services/logger"
	"github.com/madrasa-labs/madrasa/storage/database"
)

var logger *log.Logger

func main() {
	logger = log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	conf := core.NewConfig()

	// set up DB
	db, err := database.Open(conf, logsvc.NewConsoleLogger(logger))
	errAndDie(err)
	defer db.Close()

	// start CLI
	cli := commandLine{
		db:     db,
		conf:   conf,
		usrSvc: user.NewService(database.NewUserRepository(db)),
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Printf("\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatal(err)
	}
}

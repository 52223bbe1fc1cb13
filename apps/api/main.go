package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	echoapi "github.com/madrasa-labs/madrasa/apps/api/echo"
	"github.com/madrasa-labs/madrasa/core"
	"github.com/madrasa-labs/madrasa/core/academic"
	"github.com/madrasa-labs/madrasa/core/school"
	"github.com/madrasa-labs/madrasa/core/student"
	"github.com/madrasa-labs/madrasa/core/user"
	logsvc "github.com/madrasa-labs/madrasa/services/logger"
	"github.com/madrasa-labs/madrasa/storage/database"
)

func main() {
	conf := core.NewConfig()

	// set up logger
	std := log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	var logger core.Logger
	if conf.Debug {
		logger = logsvc.NewConsoleLogger(std)
	} else {
		logger = logsvc.NewRollbarLogger(std, conf)
	}

	// set up DB; falls back to the embedded engine when the primary is down
	db, err := database.Open(conf, logger)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	defer db.Close()

	ctx := context.Background()
	if err = database.Migrate(ctx, db, conf); err != nil {
		logger.Fatal(fmt.Sprintf("migrating database: %v", err), err)
	}

	// set up services
	usrSvc := user.NewService(database.NewUserRepository(db))
	schSvc := school.NewService(database.NewSchoolRepository(db))
	stdSvc := student.NewService(database.NewStudentRepository(db))
	acaSvc := academic.NewService(database.NewAcademicYearRepository(db))

	logger.Info(fmt.Sprintf("%s starting on %s (database: %s)", conf.AppName, conf.Server.Address, db.Dialect().Name()))
	defer logger.Info("Application stopped")

	// start API server
	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	app := echoapi.NewServer(
		&echoapi.Options{
			Conf:        conf,
			Logger:      logger,
			Engine:      db.Dialect().Name(),
			Shutdown:    func() { shutdownCh <- syscall.SIGTERM },
			UserSvc:     usrSvc,
			SchoolSvc:   schSvc,
			StudentSvc:  stdSvc,
			AcademicSvc: acaSvc,
		},
	)
	go app.Start()

	sig := <-shutdownCh
	logger.Info(fmt.Sprintf("%v: starting shutdown", sig))

	// give outstanding requests a deadline for completion
	stopCtx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
	defer cancel()
	if err = app.Stop(stopCtx); err != nil {
		logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)
	}
}

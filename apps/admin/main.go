package main

import (
	"fmt"
	"log"
	"os"

	"github.com/trezcool/kulliya/core"
	"github.com/trezcool/kulliya/core/billing"
	"github.com/trezcool/kulliya/core/student"
	"github.com/trezcool/kulliya/core/user"
	emailsvc "github.com/trezcool/kulliya/services/email"
	logsvc "github.com/trezcool/kulliya/services/logger"
	"github.com/trezcool/kulliya/storage/database"
	sqlxrepos "github.com/trezcool/kulliya/storage/database/sqlx"
)

func main() {
	conf := core.NewConfig()
	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)

	code := 0
	if err := run(conf, logger); err != nil {
		if err != errHelp {
			logger.Error(fmt.Sprintf("error: %v", err), err)
		}
		code = 1
	}
	logger.Close()
	os.Exit(code)
}

func run(conf *core.Config, logger *logsvc.RollbarLogger) error {
	// set up DB
	if err := database.CreateIfNotExist(conf); err != nil {
		return err
	}
	db, err := database.Open(conf)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	// set up services
	// emails are sent in the background and would be lost on exit: the CLI prints the credentials instead
	conf.Students.SendWelcomeEmail = false
	usrSvc := user.NewService(sqlxrepos.NewUserRepository(db), conf)
	studentSvc := student.NewService(
		sqlxrepos.NewStudentRepository(db),
		sqlxrepos.NewCollegeRepository(db),
		usrSvc,
		billing.NewRetroactiveRecorder(db, sqlxrepos.NewBillingRepository(db)),
		emailsvc.NewConsoleService(conf, logger),
		logger,
		conf,
	)

	// start CLI
	cli := commandLine{
		db:         db.DB,
		usrSvc:     usrSvc,
		studentSvc: studentSvc,
		out:        os.Stdout,
	}
	return cli.run(os.Args)
}


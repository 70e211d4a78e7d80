package main

import (
	"context"
	"expvar"
	"fmt"
	"log"
	"net/http"
	_ "net/http/pprof"
	"os"

	"github.com/go-playground/validator/v10"

	echoapi "github.com/trezcool/kulliya/apps/api/echo"
	"github.com/trezcool/kulliya/core"
	"github.com/trezcool/kulliya/core/billing"
	"github.com/trezcool/kulliya/core/college"
	"github.com/trezcool/kulliya/core/student"
	"github.com/trezcool/kulliya/core/user"
	emailsvc "github.com/trezcool/kulliya/services/email"
	logsvc "github.com/trezcool/kulliya/services/logger"
	"github.com/trezcool/kulliya/storage/database"
	inmemdb "github.com/trezcool/kulliya/storage/database/inmem"
	sqlxrepos "github.com/trezcool/kulliya/storage/database/sqlx"
)

const engineMemory = "memory"

type repositories struct {
	users    user.Repository
	students student.Repository
	colleges college.Repository
	billing  billing.Repository
	db       core.DB // nil when transactions are not supported
	close    func() error
}

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()

	// set up loggers
	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	defer logger.Close()

	dbLogger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "DB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)

	// set up DB
	repos, err := setUpRepositories(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	defer func() {
		if err = repos.close(); err != nil {
			dbLogger.Error("Failed to close", err)
		}
	}()

	// set up services
	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(conf, logger)
	} else {
		mailSvc = emailsvc.NewSendgridService(conf, logger)
	}
	usrSvc := user.NewService(repos.users, conf)
	recorder := billing.NewRetroactiveRecorder(repos.db, repos.billing)
	studentSvc := student.NewService(repos.students, repos.colleges, usrSvc, recorder, mailSvc, logger, conf)

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	student.InitValidators(validate, translator)

	if err = core.ParseEmailTemplates(); err != nil {
		logger.Fatal(fmt.Sprintf("parsing email templates: %v", err), err)
	}

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.

	// Expose important info under /debug/vars.
	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)
	expvar.NewString("database").Set(conf.Database.Engine)

	go func() {
		if err := http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
			logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
	}()

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(
		echoapi.ServerDeps{
			Conf:       conf,
			Logger:     logger,
			UserSvc:    usrSvc,
			StudentSvc: studentSvc,
			Validate:   validate,
			Translator: translator,
		},
	)

	go server.Start()

	// =========================================================================
	// Shutdown

	select {
	case err = <-server.Errors():
		logger.Error(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		// asking listener to shutdown and shed load
		if err = server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Error(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}

func setUpRepositories(conf *core.Config) (repositories, error) {
	if conf.Database.Engine == engineMemory {
		db := inmemdb.Open()
		seedMemory(db)
		return repositories{
			users:    inmemdb.NewUserRepository(db),
			students: inmemdb.NewStudentRepository(db),
			colleges: inmemdb.NewCollegeRepository(db),
			billing:  inmemdb.NewBillingRepository(db),
			close:    func() error { return nil },
		}, nil
	}

	if err := database.CreateIfNotExist(conf); err != nil {
		return repositories{}, err
	}
	db, err := database.Open(conf)
	if err != nil {
		return repositories{}, err
	}
	if err = database.Migrate(db.DB, "up"); err != nil {
		_ = db.Close()
		return repositories{}, err
	}
	return repositories{
		users:    sqlxrepos.NewUserRepository(db),
		students: sqlxrepos.NewStudentRepository(db),
		colleges: sqlxrepos.NewCollegeRepository(db),
		billing:  sqlxrepos.NewBillingRepository(db),
		db:       db,
		close:    db.Close,
	}, nil
}

// seedMemory gives the memory engine a college to convert applications into.
func seedMemory(db *inmemdb.DB) {
	db.AddCollege(college.College{
		ID:       1,
		Code:     "GEN",
		NameEn:   "General Studies",
		NameAr:   "الدراسات العامة",
		IsActive: true,
	})
}

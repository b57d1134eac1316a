package main

import (
	"context"
	"expvar"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"

	echoapi "github.com/tkimaro/shule/apps/api/echo"
	"github.com/tkimaro/shule/core"
	"github.com/tkimaro/shule/core/article"
	"github.com/tkimaro/shule/core/class"
	"github.com/tkimaro/shule/core/grade"
	"github.com/tkimaro/shule/core/student"
	"github.com/tkimaro/shule/core/subject"
	"github.com/tkimaro/shule/core/teacher"
	"github.com/tkimaro/shule/core/user"
	"github.com/tkimaro/shule/core/writer"
	emailsvc "github.com/tkimaro/shule/services/email"
	logsvc "github.com/tkimaro/shule/services/logger"
	storagesvc "github.com/tkimaro/shule/services/storage"
	"github.com/tkimaro/shule/storage/database"
	pgdb "github.com/tkimaro/shule/storage/database/postgres"
)

var build = "dev" // set on build

func main() {
	conf := core.NewConfig()
	conf.Build = build
	expvar.NewString("build").Set(build)

	std := log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	logger := logsvc.NewRollbarLogger(std, conf)
	logger.Enable(!(conf.Debug || conf.TestMode))

	if err := run(conf, logger); err != nil {
		logger.Fatal("error", err)
	}
}

func run(conf *core.Config, logger core.Logger) error {
	defer logger.Info("main: completed")

	// set up DB
	if conf.FirstRun {
		if err := database.CreateIfNotExist(conf); err != nil {
			return err
		}
	}
	db, err := database.Open(conf)
	if err != nil {
		return err
	}
	defer func() {
		logger.Info("main: closing database connection")
		db.Close()
	}()
	if err = database.Migrate(db); err != nil {
		return err
	}

	// set up services
	var mailSvc core.EmailService
	if conf.Debug || conf.TestMode {
		mailSvc = emailsvc.NewConsoleService(conf)
	} else {
		mailSvc = emailsvc.NewSendgridService(conf, logger)
	}
	fileStore, err := storagesvc.NewLocalStorage(conf.ProfilePicsDir)
	if err != nil {
		return err
	}

	usrRepo := pgdb.NewUserRepository(db)
	stdRepo := pgdb.NewStudentRepository(db)
	tchRepo := pgdb.NewTeacherRepository(db)
	wrtRepo := pgdb.NewWriterRepository(db)
	clsRepo := pgdb.NewClassRepository(db)
	subRepo := pgdb.NewSubjectRepository(db)
	grdRepo := pgdb.NewGradeRepository(db)
	artRepo := pgdb.NewArticleRepository(db)

	usrSvc := user.NewService(conf, db, usrRepo, mailSvc)
	stdSvc := student.NewService(db, stdRepo, clsRepo, usrRepo, usrSvc)
	tchSvc := teacher.NewService(db, tchRepo, subRepo, clsRepo, usrRepo, usrSvc)
	wrtSvc := writer.NewService(db, wrtRepo, artRepo, usrRepo, usrSvc)
	clsSvc := class.NewService(clsRepo, stdRepo, tchRepo)
	subSvc := subject.NewService(subRepo, tchRepo)
	grdSvc := grade.NewService(grdRepo, stdRepo, subRepo, tchRepo)
	artSvc := article.NewService(artRepo, wrtRepo)

	if conf.FirstRun {
		if err = bootstrapAdmin(conf, usrSvc); err != nil {
			return err
		}
	}

	// start API server
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	app := echoapi.NewServer(
		&echoapi.Options{
			Conf:           conf,
			Logger:         logger,
			UserSvc:        usrSvc,
			StudentSvc:     stdSvc,
			TeacherSvc:     tchSvc,
			WriterSvc:      wrtSvc,
			ClassSvc:       clsSvc,
			SubjectSvc:     subSvc,
			GradeSvc:       grdSvc,
			ArticleSvc:     artSvc,
			FileStore:      fileStore,
			SignalShutdown: func() { shutdown <- syscall.SIGTERM },
		},
	)

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("main: API listening on " + conf.Server.Address())
		app.Start()
		serverErrors <- nil
	}()

	select {
	case err = <-serverErrors:
		return err
	case sig := <-shutdown:
		logger.Info("main: shutdown started", sig)
		defer logger.Info("main: shutdown complete", sig)

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err = app.Stop(ctx); err != nil {
			return err
		}
	}
	return nil
}

// bootstrapAdmin guarantees a usable admin account on a fresh install.
func bootstrapAdmin(conf *core.Config, svc user.Service) error {
	ctx := context.Background()
	if _, err := svc.GetByUsername(ctx, "admin"); err == nil {
		return nil
	} else if errors.Cause(err) != user.ErrNotFound {
		return err
	}

	pwd := os.Getenv(conf.Env + "_ADMIN_PASSWORD")
	if pwd == "" {
		pwd = "ChangeMe!"
	}
	_, err := svc.Create(ctx, user.NewUser{
		Username:        "admin",
		Password:        pwd,
		PasswordConfirm: pwd,
		Role:            user.RoleAdmin,
		Email:           conf.DefaultFromAddr,
		FirstName:       "Shule",
		LastName:        "Admin",
		BirthDate:       "1970-01-01",
	})
	return err
}

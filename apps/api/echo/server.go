package echoapi

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/tkimaro/shule/core"
	"github.com/tkimaro/shule/core/article"
	"github.com/tkimaro/shule/core/class"
	"github.com/tkimaro/shule/core/grade"
	"github.com/tkimaro/shule/core/student"
	"github.com/tkimaro/shule/core/subject"
	"github.com/tkimaro/shule/core/teacher"
	"github.com/tkimaro/shule/core/user"
	"github.com/tkimaro/shule/core/writer"
)

type (
	Options struct {
		Conf           *core.Config
		Logger         core.Logger
		DisableReqLogs bool

		UserSvc    user.Service
		StudentSvc student.Service
		TeacherSvc teacher.Service
		WriterSvc  writer.Service
		ClassSvc   class.Service
		SubjectSvc subject.Service
		GradeSvc   grade.Service
		ArticleSvc article.Service
		FileStore  core.FileStorage

		// SignalShutdown is called when a fatal error requires the process
		// to stop. Defaults to a no-op.
		SignalShutdown func()
	}

	Server interface {
		http.Handler
		Start()
		Stop(context.Context) error
	}

	server struct {
		opts *Options
		app  *echo.Echo
	}
)

var _ Server = (*server)(nil)

func NewServer(opts *Options) Server {
	if opts.SignalShutdown == nil {
		opts.SignalShutdown = func() {}
	}
	s := &server{
		opts: opts,
		app:  echo.New(),
	}
	s.setup()
	return s
}

func (s *server) setup() {
	conf := s.opts.Conf

	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.opts.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.opts.Logger, s.opts.SignalShutdown)
	s.app.Debug = conf.Debug

	s.app.GET("/", home)

	v1 := s.app.Group("/v1")
	jwt := middleware.JWTWithConfig(newJWTConfig(conf))

	registerUserAPI(v1, jwt, s.opts)
	registerStudentAPI(v1, jwt, s.opts)
	registerTeacherAPI(v1, jwt, s.opts)
	registerWriterAPI(v1, jwt, s.opts)
	registerClassAPI(v1, jwt, s.opts)
	registerSubjectAPI(v1, jwt, s.opts)
	registerGradeAPI(v1, jwt, s.opts)
	registerArticleAPI(v1, jwt, s.opts)
}

func (s *server) Start() {
	s.app.Logger.Fatal(s.app.Start(s.opts.Conf.Server.Address()))
}

func (s *server) Stop(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to Shule API!")
}

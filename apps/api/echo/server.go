package echoapi

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/madrasa-labs/madrasa/apps/api/echo/handlers"
	"github.com/madrasa-labs/madrasa/apps/api/echo/helpers"
	"github.com/madrasa-labs/madrasa/core"
	"github.com/madrasa-labs/madrasa/core/academic"
	"github.com/madrasa-labs/madrasa/core/school"
	"github.com/madrasa-labs/madrasa/core/student"
	"github.com/madrasa-labs/madrasa/core/user"
)

type (
	Options struct {
		Conf           *core.Config
		Logger         core.Logger
		DisableReqLogs bool

		// Engine names the database backend in use ("mysql" or "sqlite").
		Engine string

		// Shutdown signals main to stop the process gracefully.
		Shutdown func()

		UserSvc     *user.Service
		SchoolSvc   *school.Service
		StudentSvc  *student.Service
		AcademicSvc *academic.Service
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
	helpers.Setup(opts.Conf)
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

	s.app.HTTPErrorHandler = helpers.NewAppHTTPErrorHandler(s.opts.Logger, s.signalShutdown)
	s.app.Debug = conf.Debug

	s.app.GET("/", s.home)
	s.app.GET("/health", s.health)

	api := s.app.Group("/api")
	jwt := middleware.JWTWithConfig(helpers.AppJWTConfig)

	handlers.RegisterAuthAPI(api, s.opts.UserSvc, s.opts.SchoolSvc, s.opts.StudentSvc)
	handlers.RegisterSchoolAPI(api, jwt, s.opts.SchoolSvc)
	handlers.RegisterStudentAPI(api, jwt, s.opts.StudentSvc)
	handlers.RegisterAcademicYearAPI(api, jwt, s.opts.AcademicSvc)
}

func (s *server) signalShutdown() {
	if s.opts.Shutdown != nil {
		s.opts.Shutdown()
	}
}

func (s *server) Start() {
	if err := s.app.Start(s.opts.Conf.Server.Address); err != nil && err != http.ErrServerClosed {
		s.app.Logger.Fatal(err)
	}
}

func (s *server) Stop(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func (s *server) home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to the "+s.opts.Conf.AppName+" API!")
}

func (s *server) health(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, echo.Map{
		"status":      "healthy",
		"timestamp":   time.Now().Format(time.RFC3339),
		"environment": s.opts.Conf.Env,
		"database":    s.opts.Engine,
	})
}

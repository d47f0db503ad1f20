package echoapi

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/WMS-GIETU/WorkshopMS/core"
	"github.com/WMS-GIETU/WorkshopMS/core/album"
	"github.com/WMS-GIETU/WorkshopMS/core/attendance"
	"github.com/WMS-GIETU/WorkshopMS/core/face"
	"github.com/WMS-GIETU/WorkshopMS/core/registration"
	"github.com/WMS-GIETU/WorkshopMS/core/user"
	"github.com/WMS-GIETU/WorkshopMS/core/workshop"
)

type (
	Options struct {
		Address        string
		DisableReqLogs bool
		Logger         core.Logger

		UserSvc         *user.Service
		RegistrationSvc *registration.Service
		WorkshopSvc     *workshop.Service
		AttendanceSvc   *attendance.Service
		AlbumSvc        *album.Service
		FaceSvc         *face.Service
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
	s := &server{
		opts: opts,
		app:  echo.New(),
	}
	s.setup()
	return s
}

func (s *server) setup() {
	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.opts.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(core.Conf.Debug || core.Conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}
	s.app.Use(middleware.CORS())

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.opts.Logger)
	s.app.Debug = core.Conf.Debug

	s.app.GET("/", home)

	api := s.app.Group("/api")
	jwt := middleware.JWTWithConfig(appJWTConfig)

	registerAuthAPI(api, jwt, s.opts.UserSvc)
	registerRegistrationAPI(api, s.opts.RegistrationSvc)
	registerWorkshopAPI(api, jwt, s.opts.WorkshopSvc, s.opts.AttendanceSvc, s.opts.UserSvc)
	registerAttendanceAPI(api, jwt, s.opts.AttendanceSvc, s.opts.UserSvc)
	registerAlbumAPI(api, jwt, s.opts.AlbumSvc, s.opts.UserSvc)
	registerFaceAPI(api, jwt, s.opts.FaceSvc, s.opts.UserSvc)
}

func (s *server) Start() {
	s.app.Logger.Fatal(s.app.Start(s.opts.Address))
}

func (s *server) Stop(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to "+core.Conf.AppName+" API!")
}

package echoapi

import (
	"context"
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/trezcool/censo/core"
	"github.com/trezcool/censo/core/census"
	"github.com/trezcool/censo/core/session"
	"github.com/trezcool/censo/core/settings"
)

// a full form with MaxClassrooms classrooms stays well below this
const bodyLimit = "256K"

type (
	Deps struct {
		Conf           *core.Config
		Logger         core.Logger
		CensusSvc      *census.Service
		SettingsSvc    *settings.Service
		Session        *session.Guard
		Validate       *validator.Validate
		Translator     ut.Translator
		DisableReqLogs bool
	}

	Server struct {
		deps     *Deps
		app     *echo.Echo
		jwtConf middleware.JWTConfig
	}
)

// NewServer wires the API routes.
func NewServer(addr string, deps *Deps) *Server {
	s := &Server{
		deps: deps,
		app:  echo.New(),
	}
	s.app.Server.Addr = addr
	s.jwtConf = middleware.JWTConfig{
		SigningKey:    []byte(deps.Conf.SecretKey),
		SigningMethod: middleware.AlgorithmHS256,
		ContextKey:    "adminToken",
		Claims:        new(Claims),
	}
	s.setup()
	return s
}

func (s *Server) setup() {
	conf := s.deps.Conf

	s.app.HideBanner = true
	s.app.Pre(middleware.RemoveTrailingSlash())
	s.app.Use(middleware.BodyLimit(bodyLimit))
	if !s.deps.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}
	s.app.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{conf.FrontendBaseURL},
	}))

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.deps.Logger, s.deps.Translator, s.getContextClaims)
	s.app.Debug = conf.Debug

	s.app.GET("/", home)

	v1 := s.app.Group("/v1")
	jwt := middleware.JWTWithConfig(s.jwtConf)

	registerPublicAPI(v1, s.deps)
	registerDraftAPI(v1, s.deps)
	registerAdminAPI(v1, jwt, s)
}

// Start blocks until the server stops. A graceful Shutdown is not an error.
func (s *Server) Start() error {
	if err := s.app.StartServer(s.app.Server); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *Server) Close() error {
	return s.app.Close()
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Bem-vindo à API do Censo Escolar!")
}

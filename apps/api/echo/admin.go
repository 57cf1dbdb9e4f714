package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/censo/core/census"
	"github.com/trezcool/censo/core/session"
	"github.com/trezcool/censo/core/settings"
	exportsvc "github.com/trezcool/censo/services/export"
)

type adminApi struct {
	s    *Server
	deps *Deps
}

func registerAdminAPI(g *echo.Group, jwt echo.MiddlewareFunc, s *Server) {
	api := adminApi{s: s, deps: s.deps}

	ag := g.Group("/admin")

	// un-authed endpoints
	ag.POST("/login", api.login)
	ag.GET("/session", api.session)

	// authed endpoints
	tg := ag.Group("", jwt, s.adminMiddleware)
	tg.POST("/logout", api.logout)
	tg.POST("/token-refresh", api.refreshToken)

	dg := tg.Group("/dashboard")
	dg.GET("", api.dashboard)
	dg.GET("/charts/technology", api.technologyChart)
	dg.GET("/charts/modalities", api.modalitiesChart)
	dg.GET("/submissions", api.querySubmissions)
	dg.GET("/submissions/:id", api.retrieveSubmission)
	dg.GET("/export", api.export)
	dg.PUT("/home", api.updateHome)
	dg.PUT("/form-fields", api.updateFormFields)

	// browsers cannot set headers on websocket handshakes
	lg := ag.Group("/live", s.queryJWTMiddleware(), s.adminMiddleware)
	lg.GET("", api.live)
}

// Handlers

func (api *adminApi) login(ctx echo.Context) error {
	var data LoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LoginRequest")
	}
	if err := data.Validate(api.deps.Validate); err != nil {
		return err
	}

	if err := api.deps.Session.Login(ctx.Request().Context(), data.Username, data.Password); err != nil {
		if errors.Cause(err) == session.ErrInvalidCredentials {
			return errAuthenticationFailed
		}
		return errors.Wrap(err, "logging in")
	}
	token, err := api.s.GenerateToken(api.s.AdminClaims(api.deps.Session.Username()))
	if err != nil {
		return errors.Wrap(err, "generating token")
	}

	return ctx.JSON(http.StatusOK, LoginResponse{Token: token})
}

func (api *adminApi) logout(ctx echo.Context) error {
	if err := api.deps.Session.Logout(ctx.Request().Context()); err != nil {
		return errors.Wrap(err, "logging out")
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: "sessão encerrada"})
}

func (api *adminApi) session(ctx echo.Context) error {
	state := api.deps.Session.State(ctx.Request().Context())
	return ctx.JSON(http.StatusOK, SessionResponse{
		State:         state,
		Authenticated: state == session.StateAuthenticated,
	})
}

func (api *adminApi) refreshToken(ctx echo.Context) error {
	token, err := api.s.refreshToken(ctx)
	if err != nil {
		return errors.Wrap(err, "refreshing token")
	}
	return ctx.JSON(http.StatusOK, LoginResponse{Token: token})
}

func (api *adminApi) dashboard(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, api.deps.CensusSvc.Summary(ctx.Request().Context()))
}

func (api *adminApi) technologyChart(ctx echo.Context) error {
	subs := api.deps.CensusSvc.Submissions(ctx.Request().Context())
	return ctx.JSON(http.StatusOK, census.TechnologyBySchool(subs))
}

func (api *adminApi) modalitiesChart(ctx echo.Context) error {
	subs := api.deps.CensusSvc.Submissions(ctx.Request().Context())
	return ctx.JSON(http.StatusOK, census.ModalityDistribution(subs))
}

func (api *adminApi) querySubmissions(ctx echo.Context) error {
	var qf census.QueryFilter
	if err := ctx.Bind(&qf); err != nil {
		return errors.Wrap(err, "binding to QueryFilter")
	}
	return ctx.JSON(http.StatusOK, api.deps.CensusSvc.Filter(ctx.Request().Context(), qf))
}

func (api *adminApi) retrieveSubmission(ctx echo.Context) error {
	sub, err := api.deps.CensusSvc.GetSubmission(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, sub)
}

func (api *adminApi) export(ctx echo.Context) error {
	enc, err := exportsvc.ForFormat(ctx.QueryParam("format"))
	if err != nil {
		return err
	}

	subs := api.deps.CensusSvc.Submissions(ctx.Request().Context())
	loc := api.deps.Conf.Census.Location()
	buf, err := exportsvc.Export(enc, subs, loc)
	if err != nil {
		herr := *errExportFailed
		herr.Internal = err
		return &herr
	}

	filename := exportsvc.Filename(enc, nowFunc().In(loc))
	ctx.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	return ctx.Blob(http.StatusOK, enc.ContentType(), buf.Bytes())
}

func (api *adminApi) updateHome(ctx echo.Context) error {
	var data settings.HomeCustomization
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to HomeCustomization")
	}
	home, err := api.deps.SettingsSvc.SaveHome(ctx.Request().Context(), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, home)
}

func (api *adminApi) updateFormFields(ctx echo.Context) error {
	var data []settings.FormField
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to []FormField")
	}
	fields, err := api.deps.SettingsSvc.SaveFormFields(ctx.Request().Context(), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, fields)
}

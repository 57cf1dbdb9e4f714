package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/censo/core/census"
)

type publicApi struct {
	deps *Deps
}

func registerPublicAPI(g *echo.Group, deps *Deps) {
	api := publicApi{deps: deps}

	g.GET("/schools", api.querySchools)
	g.GET("/schools/:inep", api.retrieveSchool)
	g.GET("/modalities", api.queryModalities)
	g.GET("/home", api.retrieveHome)
	g.GET("/form-fields", api.queryFormFields)
}

// Handlers

func (api *publicApi) querySchools(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, api.deps.CensusSvc.Registry().Search(ctx.QueryParam("search")))
}

func (api *publicApi) retrieveSchool(ctx echo.Context) error {
	s, ok := api.deps.CensusSvc.Registry().FindByINEP(ctx.Param("inep"))
	if !ok {
		return errHttpNotFound
	}
	return ctx.JSON(http.StatusOK, s)
}

func (api *publicApi) queryModalities(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, census.Modalities)
}

func (api *publicApi) retrieveHome(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, api.deps.SettingsSvc.GetHome(ctx.Request().Context()))
}

func (api *publicApi) queryFormFields(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, api.deps.SettingsSvc.GetFormFields(ctx.Request().Context()))
}

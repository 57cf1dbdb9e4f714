package echoapi

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/censo/core/census"
)

type draftApi struct {
	deps *Deps
}

type DraftResponse struct {
	ID string `json:"id"`
	census.Form
}

func newDraftResponse(d *census.Draft) DraftResponse {
	return DraftResponse{ID: d.ID(), Form: d.Form()}
}

func registerDraftAPI(g *echo.Group, deps *Deps) {
	api := draftApi{deps: deps}

	g.POST("/submissions", api.submitForm)

	dg := g.Group("/drafts")
	dg.POST("", api.create)

	// detail endpoints
	dtg := dg.Group("/:id", api.draftMiddleware)
	dtg.GET("", api.retrieve)
	dtg.PUT("/school", api.selectSchool)
	dtg.PUT("/classrooms", api.setClassroomCount)
	dtg.PATCH("/classrooms/:index", api.updateClassroom)
	dtg.PUT("/modalities", api.toggleModality)
	dtg.PATCH("/technology", api.updateTechnology)
	dtg.POST("/submit", api.submit)
}

var contextDraftKey = "draft"

func (api *draftApi) draftMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		d, err := api.deps.CensusSvc.GetDraft(ctx.Param("id"))
		if err != nil {
			return err
		}
		ctx.Set(contextDraftKey, d)
		return next(ctx)
	}
}

func getContextDraft(ctx echo.Context) *census.Draft {
	d, _ := ctx.Get(contextDraftKey).(*census.Draft)
	return d
}

// Handlers

func (api *draftApi) create(ctx echo.Context) error {
	return ctx.JSON(http.StatusCreated, newDraftResponse(api.deps.CensusSvc.NewDraft()))
}

func (api *draftApi) retrieve(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, newDraftResponse(getContextDraft(ctx)))
}

func (api *draftApi) selectSchool(ctx echo.Context) error {
	var data SelectSchoolRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SelectSchoolRequest")
	}
	d := getContextDraft(ctx)
	d.SelectSchool(data.INEP) // unknown codes clear the selection
	return ctx.JSON(http.StatusOK, newDraftResponse(d))
}

func (api *draftApi) setClassroomCount(ctx echo.Context) error {
	var data ClassroomCountRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ClassroomCountRequest")
	}
	if err := api.deps.Validate.Struct(data); err != nil {
		return err
	}
	d := getContextDraft(ctx)
	if err := d.SetClassroomCount(*data.Count); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, newDraftResponse(d))
}

func (api *draftApi) updateClassroom(ctx echo.Context) error {
	index, err := strconv.Atoi(ctx.Param("index"))
	if err != nil {
		return errHttpNotFound
	}
	var data FieldUpdateRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to FieldUpdateRequest")
	}
	if err := data.Validate(api.deps.Validate); err != nil {
		return err
	}
	d := getContextDraft(ctx)
	if err := d.UpdateClassroomField(index, data.Field, data.Value); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, newDraftResponse(d))
}

func (api *draftApi) toggleModality(ctx echo.Context) error {
	var data ModalityRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ModalityRequest")
	}
	if err := data.Validate(api.deps.Validate); err != nil {
		return err
	}
	d := getContextDraft(ctx)
	if err := d.ToggleModality(data.Modality, data.Checked); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, newDraftResponse(d))
}

func (api *draftApi) updateTechnology(ctx echo.Context) error {
	var data FieldUpdateRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to FieldUpdateRequest")
	}
	if err := data.Validate(api.deps.Validate); err != nil {
		return err
	}
	d := getContextDraft(ctx)
	if err := d.UpdateTechnologyField(data.Field, data.Value); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, newDraftResponse(d))
}

func (api *draftApi) submit(ctx echo.Context) error {
	var data SubmitRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SubmitRequest")
	}
	// Finalize reports a missing school before a blank submitter
	d := getContextDraft(ctx)

	sub, err := api.deps.CensusSvc.Submit(ctx.Request().Context(), d.ID(), data.SubmittedBy)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, sub)
}

func (api *draftApi) submitForm(ctx echo.Context) error {
	var data census.NewSubmission
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSubmission")
	}
	if err := api.deps.Validate.Struct(data); err != nil {
		return err
	}

	sub, err := api.deps.CensusSvc.SubmitForm(ctx.Request().Context(), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, sub)
}

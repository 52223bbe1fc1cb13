package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/madrasa-labs/madrasa/apps/api/echo/helpers"
	"github.com/madrasa-labs/madrasa/core/academic"
	"github.com/madrasa-labs/madrasa/core/user"
)

var errCentrallyManaged = echo.NewHTTPError(http.StatusForbidden,
	"academic years are managed centrally by the system administrator")

type (
	academicYearApi struct {
		svc *academic.Service
	}

	generateYearsRequest struct {
		Count int `json:"count"`
	}
)

func RegisterAcademicYearAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *academic.Service) {
	api := academicYearApi{svc: svc}

	admin := helpers.RolesRequired(user.RoleAdmin)

	g.GET("/academic-year/current", api.current)

	g.GET("/system/academic-years", api.query)
	g.POST("/system/academic-year", api.create, jwt, admin)
	g.POST("/system/academic-year/:year_id/set-current", api.setCurrent, jwt, admin)
	g.DELETE("/system/academic-year/:year_id", api.destroy, jwt, admin)
	g.POST("/system/academic-years/generate", api.generate, jwt, admin)

	// legacy per-school surface: reads delegate to the system calendar,
	// mutations are refused
	g.GET("/school/:school_id/academic-years", api.legacyQuery, jwt)
	g.GET("/school/:school_id/academic-year/current", api.legacyCurrent, jwt)
	g.POST("/school/:school_id/academic-year", api.legacyRefused, jwt)
	g.POST("/school/:school_id/academic-year/generate-upcoming", api.legacyRefused, jwt)
	g.PUT("/academic-year/:year_id", api.legacyRefused, jwt)
	g.POST("/academic-year/:year_id/set-current", api.legacyRefused, jwt)
	g.DELETE("/academic-year/:year_id", api.legacyRefused, jwt)
}

// current resolves the academic year containing today, creating it on first
// sight. It cannot answer not-found.
func (api *academicYearApi) current(ctx echo.Context) error {
	year, err := api.svc.ResolveCurrent(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "resolving current year")
	}
	return ctx.JSON(http.StatusOK, year)
}

func (api *academicYearApi) query(ctx echo.Context) error {
	list, err := api.svc.List(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying academic years")
	}
	return ctx.JSON(http.StatusOK, list)
}

func (api *academicYearApi) create(ctx echo.Context) error {
	var data academic.NewAcademicYear
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAcademicYear")
	}

	year, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, year)
}

func (api *academicYearApi) setCurrent(ctx echo.Context) error {
	id, err := pathID(ctx, "year_id")
	if err != nil {
		return err
	}
	year, err := api.svc.SetCurrent(ctx.Request().Context(), id)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, year)
}

func (api *academicYearApi) destroy(ctx echo.Context) error {
	id, err := pathID(ctx, "year_id")
	if err != nil {
		return err
	}
	if err = api.svc.Delete(ctx.Request().Context(), id); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, echo.Map{"success": true})
}

func (api *academicYearApi) generate(ctx echo.Context) error {
	var data generateYearsRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to generateYearsRequest")
	}

	res, err := api.svc.Generate(ctx.Request().Context(), data.Count)
	if err != nil {
		return errors.Wrap(err, "generating academic years")
	}
	return ctx.JSON(http.StatusOK, res)
}

func (api *academicYearApi) legacyQuery(ctx echo.Context) error {
	if _, err := pathID(ctx, "school_id"); err != nil {
		return err
	}
	return api.query(ctx)
}

func (api *academicYearApi) legacyCurrent(ctx echo.Context) error {
	if _, err := pathID(ctx, "school_id"); err != nil {
		return err
	}
	return api.current(ctx)
}

func (api *academicYearApi) legacyRefused(echo.Context) error {
	return errCentrallyManaged
}

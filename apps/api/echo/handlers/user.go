package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/madrasa-labs/madrasa/apps/api/echo/helpers"
	"github.com/madrasa-labs/madrasa/core"
	"github.com/madrasa-labs/madrasa/core/school"
	"github.com/madrasa-labs/madrasa/core/student"
	"github.com/madrasa-labs/madrasa/core/user"
)

type (
	authApi struct {
		userSvc    *user.Service
		schoolSvc  *school.Service
		studentSvc *student.Service
	}

	adminLoginRequest struct {
		Username string `json:"username" validate:"required"`
		Password string `json:"password" validate:"required"`
	}

	codeLoginRequest struct {
		Code string `json:"code" validate:"required"`
	}
)

// RegisterAuthAPI mounts the three login endpoints. Administrators carry a
// username/password pair; schools and students authenticate by code.
func RegisterAuthAPI(g *echo.Group, userSvc *user.Service, schoolSvc *school.Service, studentSvc *student.Service) {
	api := authApi{userSvc: userSvc, schoolSvc: schoolSvc, studentSvc: studentSvc}

	g.POST("/admin/login", api.adminLogin)
	g.POST("/school/login", api.schoolLogin)
	g.POST("/student/login", api.studentLogin)
}

func (api *authApi) adminLogin(ctx echo.Context) error {
	var data adminLoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to adminLoginRequest")
	}
	if err := core.Validate.Struct(&data); err != nil {
		return err
	}

	usr, err := api.userSvc.Authenticate(ctx.Request().Context(), data.Username, data.Password)
	if err != nil {
		return err
	}
	if !usr.IsAdmin() {
		return helpers.ErrAuthenticationFailed
	}

	token, err := helpers.GenerateToken(helpers.GetUserClaims(usr))
	if err != nil {
		return errors.Wrap(err, "generating token")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"success": true, "token": token, "user": usr})
}

func (api *authApi) schoolLogin(ctx echo.Context) error {
	var data codeLoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to codeLoginRequest")
	}
	if err := core.Validate.Struct(&data); err != nil {
		return err
	}

	sch, err := api.schoolSvc.GetByCode(ctx.Request().Context(), data.Code)
	if err != nil {
		return err
	}

	token, err := helpers.GenerateToken(helpers.GetSchoolClaims(sch))
	if err != nil {
		return errors.Wrap(err, "generating token")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"success": true, "token": token, "school": sch})
}

func (api *authApi) studentLogin(ctx echo.Context) error {
	var data codeLoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to codeLoginRequest")
	}
	if err := core.Validate.Struct(&data); err != nil {
		return err
	}

	st, err := api.studentSvc.GetByCode(ctx.Request().Context(), data.Code)
	if err != nil {
		return err
	}
	sch, err := api.schoolSvc.GetByID(ctx.Request().Context(), st.SchoolID)
	if err != nil {
		return errors.Wrap(err, "getting student school")
	}

	token, err := helpers.GenerateToken(helpers.GetStudentClaims(st))
	if err != nil {
		return errors.Wrap(err, "generating token")
	}
	return ctx.JSON(http.StatusOK, echo.Map{
		"success":     true,
		"token":       token,
		"student":     st,
		"school_name": sch.Name,
	})
}

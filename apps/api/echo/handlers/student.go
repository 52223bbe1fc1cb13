package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/madrasa-labs/madrasa/apps/api/echo/helpers"
	"github.com/madrasa-labs/madrasa/core/student"
	"github.com/madrasa-labs/madrasa/core/user"
)

type (
	studentApi struct {
		svc *student.Service
	}

	// detailedDocsRequest replaces the working-copy documents wholesale.
	detailedDocsRequest struct {
		DetailedScores  student.ScoreDoc      `json:"detailed_scores"`
		DailyAttendance student.AttendanceDoc `json:"daily_attendance"`
	}

	gradesUpdateRequest struct {
		Grades map[string]student.ScoreSet `json:"grades"`
	}

	attendanceUpdateRequest struct {
		Attendance map[string]student.AttendanceEntry `json:"attendance"`
	}

	attendanceAddRequest struct {
		Date   string `json:"date"`
		Status string `json:"status"`
		Notes  string `json:"notes"`
	}
)

func RegisterStudentAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *student.Service) {
	api := studentApi{svc: svc}

	manage := helpers.RolesRequired(user.RoleAdmin, user.RoleSchool)
	view := helpers.RolesRequired(user.RoleAdmin, user.RoleSchool, user.RoleStudent)

	sg := g.Group("/school/:school_id", jwt, manage)
	sg.GET("/students", api.queryBySchool)
	sg.POST("/student", api.create)

	dg := g.Group("/student/:student_id", jwt)
	dg.PUT("", api.update, manage)
	dg.DELETE("", api.destroy, manage)
	dg.PUT("/detailed", api.updateDetailed, manage)
	dg.GET("/grades/:year_id", api.gradesByYear, view)
	dg.PUT("/grades/:year_id", api.updateGrades, manage)
	dg.GET("/attendance/:year_id", api.attendanceByYear, view)
	dg.PUT("/attendance/:year_id", api.updateAttendance, manage)
	dg.POST("/attendance/:year_id/add", api.addAttendance, manage)
	dg.POST("/promote", api.promote, manage)
	dg.GET("/history", api.history, view)

	g.POST("/students/promote-many", api.promoteMany, jwt, manage)
}

func (api *studentApi) queryBySchool(ctx echo.Context) error {
	schoolID, err := pathID(ctx, "school_id")
	if err != nil {
		return err
	}
	students, err := api.svc.QueryBySchool(ctx.Request().Context(), schoolID)
	if err != nil {
		return errors.Wrap(err, "querying students")
	}
	return ctx.JSON(http.StatusOK, students)
}

func (api *studentApi) create(ctx echo.Context) error {
	schoolID, err := pathID(ctx, "school_id")
	if err != nil {
		return err
	}
	var data student.NewStudent
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewStudent")
	}

	st, err := api.svc.Create(ctx.Request().Context(), schoolID, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, st)
}

func (api *studentApi) update(ctx echo.Context) error {
	id, err := pathID(ctx, "student_id")
	if err != nil {
		return err
	}
	var data student.UpdateStudent
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateStudent")
	}

	st, err := api.svc.Update(ctx.Request().Context(), id, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, st)
}

func (api *studentApi) destroy(ctx echo.Context) error {
	id, err := pathID(ctx, "student_id")
	if err != nil {
		return err
	}
	if err = api.svc.Delete(ctx.Request().Context(), id); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, echo.Map{"success": true})
}

func (api *studentApi) updateDetailed(ctx echo.Context) error {
	id, err := pathID(ctx, "student_id")
	if err != nil {
		return err
	}
	var data detailedDocsRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to detailedDocsRequest")
	}

	if err = api.svc.UpdateDocs(ctx.Request().Context(), id, data.DetailedScores, data.DailyAttendance); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, echo.Map{"success": true})
}

func (api *studentApi) gradesByYear(ctx echo.Context) error {
	studentID, err := pathID(ctx, "student_id")
	if err != nil {
		return err
	}
	yearID, err := pathID(ctx, "year_id")
	if err != nil {
		return err
	}

	grades, err := api.svc.GradesByYear(ctx.Request().Context(), studentID, yearID)
	if err != nil {
		return errors.Wrap(err, "querying year grades")
	}
	return ctx.JSON(http.StatusOK, grades)
}

func (api *studentApi) updateGrades(ctx echo.Context) error {
	studentID, err := pathID(ctx, "student_id")
	if err != nil {
		return err
	}
	yearID, err := pathID(ctx, "year_id")
	if err != nil {
		return err
	}
	var data gradesUpdateRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to gradesUpdateRequest")
	}

	if err = api.svc.UpdateGradesByYear(ctx.Request().Context(), studentID, yearID, data.Grades); err != nil {
		return err
	}
	grades, err := api.svc.GradesByYear(ctx.Request().Context(), studentID, yearID)
	if err != nil {
		return errors.Wrap(err, "querying year grades")
	}
	return ctx.JSON(http.StatusOK, grades)
}

func (api *studentApi) attendanceByYear(ctx echo.Context) error {
	studentID, err := pathID(ctx, "student_id")
	if err != nil {
		return err
	}
	yearID, err := pathID(ctx, "year_id")
	if err != nil {
		return err
	}

	attendance, err := api.svc.AttendanceByYear(ctx.Request().Context(), studentID, yearID)
	if err != nil {
		return errors.Wrap(err, "querying year attendance")
	}
	return ctx.JSON(http.StatusOK, attendance)
}

func (api *studentApi) updateAttendance(ctx echo.Context) error {
	studentID, err := pathID(ctx, "student_id")
	if err != nil {
		return err
	}
	yearID, err := pathID(ctx, "year_id")
	if err != nil {
		return err
	}
	var data attendanceUpdateRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to attendanceUpdateRequest")
	}

	if err = api.svc.UpdateAttendanceByYear(ctx.Request().Context(), studentID, yearID, data.Attendance); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, echo.Map{"success": true})
}

func (api *studentApi) addAttendance(ctx echo.Context) error {
	studentID, err := pathID(ctx, "student_id")
	if err != nil {
		return err
	}
	yearID, err := pathID(ctx, "year_id")
	if err != nil {
		return err
	}
	var data attendanceAddRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to attendanceAddRequest")
	}

	if err = api.svc.AddAttendanceRecord(ctx.Request().Context(), studentID, yearID, data.Date, data.Status, data.Notes); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, echo.Map{"success": true})
}

func (api *studentApi) promote(ctx echo.Context) error {
	id, err := pathID(ctx, "student_id")
	if err != nil {
		return err
	}
	var data student.PromoteStudent
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to PromoteStudent")
	}

	st, err := api.svc.Promote(ctx.Request().Context(), id, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, echo.Map{"success": true, "student": st})
}

// promoteMany always answers 200 with a result envelope; individual failures
// are reported inside it, never as a whole-request error.
func (api *studentApi) promoteMany(ctx echo.Context) error {
	var data student.PromoteManyStudents
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to PromoteManyStudents")
	}

	res, err := api.svc.PromoteMany(ctx.Request().Context(), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, res)
}

func (api *studentApi) history(ctx echo.Context) error {
	id, err := pathID(ctx, "student_id")
	if err != nil {
		return err
	}
	hist, err := api.svc.GetHistory(ctx.Request().Context(), id)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, hist)
}

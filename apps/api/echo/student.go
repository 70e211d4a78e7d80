package echoapi

import (
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/kulliya/core/student"
	"github.com/trezcool/kulliya/core/user"
)

type studentApi struct {
	svc      *student.Service
	validate *validator.Validate
}

func registerStudentAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *student.Service, validate *validator.Validate) {
	api := studentApi{
		svc:      svc,
		validate: validate,
	}
	admissions := adminMiddleware(user.AdmissionsRoles...)

	sg := g.Group("/students", jwt, admissions)
	sg.POST("/from-application", api.createFromApplication)
	sg.GET("/:student_id", api.retrieve)

	g.POST("/applications/:id/accept", api.acceptApplication, jwt, admissions)
	g.GET("/colleges/:id/student-ids/next", api.nextStudentID, jwt, admissions)
}

// Handlers

func (api *studentApi) createFromApplication(ctx echo.Context) error {
	var data student.ConvertApplication
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ConvertApplication")
	}
	data.Application.Clean()
	if err := api.validate.Struct(data); err != nil {
		return err
	}

	res, err := api.svc.CreateFromApplication(ctx.Request().Context(), data.Application, data.Password)
	if err != nil {
		return errors.Wrap(err, "creating student from application")
	}
	return conversionResponse(ctx, res)
}

func (api *studentApi) acceptApplication(ctx echo.Context) error {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return errHttpNotFound
	}

	var data student.AcceptApplication
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to AcceptApplication")
	}
	if err = api.validate.Struct(data); err != nil {
		return err
	}

	res, err := api.svc.AcceptApplication(ctx.Request().Context(), id, data.Password)
	if err != nil {
		return errors.Wrap(err, "accepting application")
	}
	return conversionResponse(ctx, res)
}

func (api *studentApi) nextStudentID(ctx echo.Context) error {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return errHttpNotFound
	}
	sid, err := api.svc.PreviewStudentID(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "previewing student ID")
	}
	return ctx.JSON(http.StatusOK, NextStudentIDResponse{StudentID: sid})
}

func (api *studentApi) retrieve(ctx echo.Context) error {
	st, err := api.svc.GetStudent(ctx.Request().Context(), student.GetFilter{StudentID: ctx.Param("student_id")})
	if err != nil {
		return errors.Wrap(err, "finding student by student ID")
	}
	return ctx.JSON(http.StatusOK, st)
}

func conversionResponse(ctx echo.Context, res student.ConversionResult) error {
	if res.AlreadyExists {
		return ctx.JSON(http.StatusOK, res)
	}
	return ctx.JSON(http.StatusCreated, res)
}

type NextStudentIDResponse struct {
	StudentID string `json:"student_id"`
}

package echoapi

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/whenitsdone1/capstone2024/core"
	"github.com/whenitsdone1/capstone2024/core/milestone"
)

const msgSubmitted = "Form submission successful"

type recordApi struct {
	svc    milestone.Service
	logger core.Logger
}

func registerRecordAPI(g *echo.Group, svc milestone.Service, logger core.Logger) {
	api := recordApi{svc: svc, logger: logger}

	g.POST("/submit_form", api.submit)
	g.GET("/get_record/:id", api.retrieve)
	g.PATCH("/update_record/:id", api.update)
	g.DELETE("/delete_record/:id", api.destroy)
}

// Handlers

func (api *recordApi) submit(ctx echo.Context) error {
	data, err := bindPayload(ctx)
	if err != nil {
		return err
	}
	id, m, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating record")
	}
	api.logger.Info(fmt.Sprintf("%s record %s created", m, id), core.LogPerson{Email: data.String(milestone.FieldEmail)})
	return ctx.JSON(http.StatusOK, echo.Map{
		"message":   msgSubmitted,
		"record_id": id,
		"milestone": m,
	})
}

func (api *recordApi) retrieve(ctx echo.Context) error {
	var q recordQuery
	if err := q.Bind(ctx); err != nil {
		return err
	}

	var rec milestone.Record
	var err error
	if q.Milestone != "" {
		rec, err = api.svc.ReadFrom(ctx.Request().Context(), q.Milestone, ctx.Param("id"))
	} else {
		rec, _, err = api.svc.Read(ctx.Request().Context(), ctx.Param("id"), q.TermStartDate, q.Regime)
	}
	if err != nil {
		return errors.Wrap(err, "reading record")
	}
	return ctx.JSON(http.StatusOK, rec)
}

func (api *recordApi) update(ctx echo.Context) error {
	var q recordQuery
	if err := q.Bind(ctx); err != nil {
		return err
	}
	data, err := bindPayload(ctx)
	if err != nil {
		return err
	}
	rec, err := api.svc.Update(ctx.Request().Context(), ctx.Param("id"), q.TermStartDate, q.Regime, data)
	if err != nil {
		return errors.Wrap(err, "updating record")
	}
	return ctx.JSON(http.StatusOK, rec)
}

func (api *recordApi) destroy(ctx echo.Context) error {
	var q recordQuery
	if err := q.Bind(ctx); err != nil {
		return err
	}
	if err := api.svc.Delete(ctx.Request().Context(), ctx.Param("id"), q.TermStartDate, q.Regime); err != nil {
		return errors.Wrap(err, "deleting record")
	}
	return ctx.NoContent(http.StatusNoContent)
}

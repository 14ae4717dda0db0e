package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/whenitsdone1/capstone2024/core/milestone"
)

type schemaApi struct {
	svc milestone.Service
}

func registerSchemaAPI(g *echo.Group, svc milestone.Service) {
	api := schemaApi{svc: svc}

	g.GET("/schemas", api.query)
	g.GET("/schemas/:milestone", api.retrieve)
	g.GET("/milestone", api.resolve)
}

func (api *schemaApi) query(ctx echo.Context) error {
	out := make(map[milestone.ID][]milestone.FieldSpec, len(milestone.All))
	for _, m := range milestone.All {
		flds, err := milestone.FieldsFor(m)
		if err != nil {
			return err
		}
		out[m] = flds
	}
	return ctx.JSON(http.StatusOK, out)
}

func (api *schemaApi) retrieve(ctx echo.Context) error {
	m, err := milestone.ParseID(ctx.Param("milestone"))
	if err != nil {
		return echo.ErrNotFound
	}
	flds, err := milestone.FieldsFor(m)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, flds)
}

// resolve tells a form which checklist applies to a term start date today.
func (api *schemaApi) resolve(ctx echo.Context) error {
	var q recordQuery
	if err := q.Bind(ctx); err != nil {
		return err
	}
	m, err := api.svc.Resolve(ctx.Request().Context(), q.TermStartDate, q.Regime)
	if err != nil {
		return errors.Wrap(err, "resolving milestone")
	}
	flds, err := milestone.FieldsFor(m)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, echo.Map{
		"milestone": m,
		"regime":    q.Regime,
		"fields":    flds,
	})
}

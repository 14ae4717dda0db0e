package echoapi

import (
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/whenitsdone1/capstone2024/core/milestone"
)

type metricsApi struct {
	svc milestone.Service
}

func registerMetricsAPI(g *echo.Group, svc milestone.Service) {
	api := metricsApi{svc: svc}

	// the path segment is the submitter's email address, not a record id
	g.GET("/metrics/:email", api.retrieve)
}

func (api *metricsApi) retrieve(ctx echo.Context) error {
	email, err := url.PathUnescape(ctx.Param("email"))
	if err != nil {
		email = ctx.Param("email")
	}
	metrics, err := api.svc.MetricsFor(ctx.Request().Context(), email)
	if err != nil {
		return errors.Wrap(err, "collecting metrics")
	}
	return ctx.JSON(http.StatusOK, metrics)
}

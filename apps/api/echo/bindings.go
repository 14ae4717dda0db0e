package echoapi

import (
	"encoding/json"
	"io"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/whenitsdone1/capstone2024/core"
	"github.com/whenitsdone1/capstone2024/core/milestone"
)

const (
	termStartParam      = "term_start_date"
	academicPeriodParam = "academicPeriod"
	milestoneParam      = "milestone"
)

var errInvalidJSON = errors.New("request body must be a JSON object")

// recordQuery holds the query parameters locating a record's collection.
type recordQuery struct {
	TermStartDate string
	Regime        milestone.Regime
	Milestone     milestone.ID
}

func (q *recordQuery) Bind(ctx echo.Context) error {
	q.TermStartDate = core.CleanString(ctx.QueryParam(termStartParam))
	q.Regime = milestone.ParseRegime(ctx.QueryParam(academicPeriodParam))
	if m := core.CleanString(ctx.QueryParam(milestoneParam)); m != "" {
		id, err := milestone.ParseID(m)
		if err != nil {
			return core.NewValidationError(err, core.FieldError{Field: milestoneParam, Error: err.Error()})
		}
		q.Milestone = id
	}
	return nil
}

// bindPayload decodes a JSON object body. echo's Bind is not used because it
// also copies path parameters into map targets.
func bindPayload(ctx echo.Context) (milestone.Payload, error) {
	var p milestone.Payload
	if err := json.NewDecoder(ctx.Request().Body).Decode(&p); err != nil {
		if err == io.EOF {
			return milestone.Payload{}, nil
		}
		return nil, core.NewValidationError(errInvalidJSON)
	}
	if p == nil {
		return nil, core.NewValidationError(errInvalidJSON)
	}
	return p, nil
}

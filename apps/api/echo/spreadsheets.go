package echoapi

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/whenitsdone1/capstone2024/core"
	"github.com/whenitsdone1/capstone2024/core/milestone"
	"github.com/whenitsdone1/capstone2024/services/spreadsheet"
)

const (
	msgSpreadsheetCreated = "Spreadsheet parsed and record created successfully"
	xlsxContentType       = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

type spreadsheetApi struct {
	svc    milestone.Service
	logger core.Logger
}

func registerSpreadsheetAPI(g *echo.Group, svc milestone.Service, logger core.Logger) {
	api := spreadsheetApi{svc: svc, logger: logger}

	g.POST("/add_spreadsheet", api.upload)
	g.GET("/get_spreadsheet/:id", api.download)
}

// Handlers

func (api *spreadsheetApi) upload(ctx echo.Context) error {
	fh, err := ctx.FormFile("file")
	if err != nil {
		return spreadsheet.ErrNoFile
	}
	if err = spreadsheet.CheckFilename(fh.Filename); err != nil {
		return err
	}
	f, err := fh.Open()
	if err != nil {
		return errors.Wrap(err, "opening upload")
	}
	defer f.Close()

	sheet, err := spreadsheet.Parse(f)
	if err != nil {
		if errors.Cause(err) == spreadsheet.ErrEmptySheet {
			return err
		}
		return core.NewValidationError(errors.Wrap(err, "unreadable spreadsheet"))
	}
	for _, hint := range sheet.Unknown {
		if hint.Suggestion != "" {
			api.logger.Warn(fmt.Sprintf("spreadsheet column %q is not a known field; did you mean %q?", hint.Label, hint.Suggestion))
		} else {
			api.logger.Warn(fmt.Sprintf("spreadsheet column %q is not a known field", hint.Label))
		}
	}

	data := sheet.Payload
	if milestone.ParseRegime(ctx.QueryParam(academicPeriodParam)) == milestone.RegimeSemester {
		data[milestone.FieldAcademicPeriod] = string(milestone.RegimeSemester)
	}

	id, m, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating record from spreadsheet")
	}
	api.logger.Info(fmt.Sprintf("%s record %s created from spreadsheet %s", m, id, fh.Filename))
	return ctx.JSON(http.StatusOK, echo.Map{
		"message":   msgSpreadsheetCreated,
		"record_id": id,
		"milestone": m,
	})
}

func (api *spreadsheetApi) download(ctx echo.Context) error {
	var q recordQuery
	if err := q.Bind(ctx); err != nil {
		return err
	}
	id := ctx.Param("id")

	var rec milestone.Record
	var err error
	if q.Milestone != "" {
		rec, err = api.svc.ReadFrom(ctx.Request().Context(), q.Milestone, id)
	} else {
		rec, _, err = api.svc.Read(ctx.Request().Context(), id, q.TermStartDate, q.Regime)
	}
	if err != nil {
		return errors.Wrap(err, "reading record for export")
	}

	buf, err := spreadsheet.Export(rec, id)
	if err != nil {
		return errors.Wrap(err, "exporting record")
	}
	name := strings.ReplaceAll(spreadsheet.FileName(id), `"`, "")
	ctx.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, name))
	return ctx.Blob(http.StatusOK, xlsxContentType, buf.Bytes())
}

package echoapi

import (
	"bytes"
	"html/template"
	"io/fs"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/whenitsdone1/capstone2024/core/milestone"
)

const (
	pageDashboard     = "dashboard"
	pageRecordDetails = "record_details"

	displayTimezone = "Australia/Sydney"
)

type (
	pages map[string]*template.Template

	dashboardSection struct {
		Milestone milestone.ID
		Records   []milestone.Summary
	}

	detailField struct {
		Label       string
		Description string
		IsBool      bool
		Checked     bool
		Value       string
	}
)

func parsePages(fsys fs.FS, dir string) (pages, error) {
	loc, err := time.LoadLocation(displayTimezone)
	if err != nil {
		loc = time.UTC
	}
	funcs := template.FuncMap{"formatDate": formatDate(loc)}

	p := make(pages, 2)
	for _, name := range []string{pageDashboard, pageRecordDetails} {
		tmpl, err := template.New("_base.gohtml").Funcs(funcs).ParseFS(fsys,
			path.Join(dir, "_base.gohtml"),
			path.Join(dir, name+".gohtml"),
		)
		if err != nil {
			return nil, errors.Wrapf(err, "parsing %s page", name)
		}
		p[name] = tmpl
	}
	return p, nil
}

// formatDate renders backend timestamps (UTC) in the display timezone.
func formatDate(loc *time.Location) func(string) string {
	return func(s string) string {
		if s == "" {
			return "No date provided"
		}
		t, err := milestone.ParseDateTime(s)
		if err != nil {
			return s
		}
		return t.In(loc).Format("02 Jan 2006, 03:04 PM MST")
	}
}

func (p pages) render(ctx echo.Context, name string, data interface{}) error {
	var buf bytes.Buffer
	if err := p[name].Execute(&buf, data); err != nil {
		return errors.Wrapf(err, "rendering %s page", name)
	}
	return ctx.HTMLBlob(http.StatusOK, buf.Bytes())
}

type adminApi struct {
	svc   milestone.Service
	pages pages
}

func registerAdminAPI(g *echo.Group, svc milestone.Service, p pages) {
	api := adminApi{svc: svc, pages: p}

	g.GET("/records", api.queryRecords)
	g.GET("/records/:id", api.retrieveRecord)
	g.GET("/dashboard", api.dashboard)
	g.GET("/record-details/:milestone/:id", api.recordDetails)
}

// Handlers

func (api *adminApi) queryRecords(ctx echo.Context) error {
	summaries, err := api.svc.ListSummaries(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "listing records")
	}
	return ctx.JSON(http.StatusOK, summaries)
}

func (api *adminApi) retrieveRecord(ctx echo.Context) error {
	rec, _, err := api.svc.Read(ctx.Request().Context(), ctx.Param("id"), "", milestone.RegimeTerm)
	if err != nil {
		return errors.Wrap(err, "reading record")
	}
	return ctx.JSON(http.StatusOK, rec)
}

func (api *adminApi) dashboard(ctx echo.Context) error {
	summaries, err := api.svc.ListSummaries(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "listing records")
	}

	sections := make([]dashboardSection, len(milestone.All))
	for i, m := range milestone.All {
		sections[i].Milestone = m
	}
	for _, s := range summaries {
		if n := s.Milestone.Number(); n > 0 {
			sections[n-1].Records = append(sections[n-1].Records, s)
		}
	}

	return api.pages.render(ctx, pageDashboard, map[string]interface{}{
		"Total":       len(summaries),
		"Sections":    sections,
		"GeneratedAt": time.Now().UTC().Format(time.RFC3339),
	})
}

func (api *adminApi) recordDetails(ctx echo.Context) error {
	m, err := milestone.ParseID(ctx.Param("milestone"))
	if err != nil {
		return echo.ErrNotFound
	}
	rec, err := api.svc.ReadFrom(ctx.Request().Context(), m, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "reading record")
	}

	flds, err := milestone.FieldsFor(m)
	if err != nil {
		return err
	}
	details := make([]detailField, 0, len(flds))
	for _, f := range flds {
		details = append(details, detailField{
			Label:       strings.ReplaceAll(f.Name, "_", " "),
			Description: f.Description,
			IsBool:      f.Kind == milestone.KindBool,
			Checked:     rec.Bool(f.Name),
			Value:       rec.String(f.Name),
		})
	}

	return api.pages.render(ctx, pageRecordDetails, map[string]interface{}{
		"ID":             rec.ID(),
		"Milestone":      m,
		"SubmissionDate": rec.SubmissionDate(),
		"Fields":         details,
	})
}

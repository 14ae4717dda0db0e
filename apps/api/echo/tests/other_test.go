package tests

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/whenitsdone1/capstone2024/core/milestone"
	"github.com/whenitsdone1/capstone2024/tests"
)

var ctxBg = context.Background()

func workbook(t *testing.T, rows ...[]interface{}) []byte {
	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		axis, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		row := row
		require.NoError(t, f.SetSheetRow("Sheet1", axis, &row))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func uploadRequest(t *testing.T, path, filename string, content []byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	if filename != "-" {
		part, err := w.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req, httptest.NewRecorder()
}

func Test_spreadsheetApi_upload(t *testing.T) {
	app, env := setup(t)
	content := workbook(t,
		[]interface{}{"Field", "Value"},
		[]interface{}{"Term Start Date", dateM3},
		[]interface{}{"Name", "Jo Bloggs"},
		[]interface{}{"Email", "jo@uni.edu.au"},
		[]interface{}{"respond_in_2_days", "yes"},
	)

	// 21 days is Milestone_3 under Term but Milestone_2 under Semester
	for _, tt := range []struct {
		query string
		want  milestone.ID
	}{
		{"", milestone.Milestone3},
		{"?academicPeriod=Semester", milestone.Milestone2},
	} {
		req, rec := uploadRequest(t, "/api/add_spreadsheet"+tt.query, "report.xlsx", content)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var res submitted
		unmarchall(t, rec, &res)
		assert.Equal(t, "Spreadsheet parsed and record created successfully", res.Message)
		assert.Equal(t, tt.want, res.Milestone)

		stored, err := env.Svc.ReadFrom(ctxBg, tt.want, res.RecordID)
		require.NoError(t, err)
		assert.Equal(t, "Jo Bloggs", stored[milestone.FieldName])
	}

	for _, tt := range []struct {
		name, filename string
		content        []byte
		wantCode       int
		wantData       []byte
	}{
		{"no file", "-", nil, http.StatusBadRequest, marchallObj(t, httpErr{Error: "No file part in the request"})},
		{"no filename", "", content, http.StatusBadRequest, nil},
		{"bad extension", "report.csv", content, http.StatusBadRequest, marchallObj(t, httpErr{Error: "Invalid file extension"})},
		{"empty sheet", "report.xlsx", workbook(t, []interface{}{"Field", "Value"}), http.StatusBadRequest, marchallObj(t, httpErr{Error: "spreadsheet has no data rows"})},
		{"not a workbook", "report.xlsx", []byte("hello"), http.StatusBadRequest, nil},
	} {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := uploadRequest(t, "/api/add_spreadsheet", tt.filename, tt.content)
			app.ServeHTTP(rec, req)
			assert.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
			if tt.wantData != nil {
				ok, err := jsonBytesEqual(rec.Body.Bytes(), tt.wantData)
				require.NoError(t, err)
				assert.True(t, ok, rec.Body.String())
			}
		})
	}
}

func Test_spreadsheetApi_download(t *testing.T) {
	app, env := setup(t)
	id, _ := testutil.CreateRecord(t, env.Svc, milestone.Payload{
		milestone.FieldTermStartDate: dateM2,
		milestone.FieldName:          "Jo Bloggs",
		"respond_in_2_days":          true,
	})

	rec := do(app, http.MethodGet, "/api/get_spreadsheet/"+id+"?milestone=2")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, `attachment; filename="record_`+id+`.xlsx"`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", rec.Header().Get("Content-Type"))

	f, err := excelize.OpenReader(rec.Body)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(f.GetSheetList()[0])
	require.NoError(t, err)
	assert.Contains(t, rows, []string{milestone.FieldName, "Jo Bloggs"})
	assert.Contains(t, rows, []string{"respond_in_2_days", "true"})

	rec = do(app, http.MethodGet, "/api/get_spreadsheet/nope")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func Test_metricsApi(t *testing.T) {
	app, env := setup(t)
	id, _ := testutil.CreateRecord(t, env.Svc, milestone.Payload{
		milestone.FieldTermStartDate:  dateM2,
		milestone.FieldEmail:          "jo@uni.edu.au",
		milestone.FieldStartTime:      "2024-10-01T09:00:00Z",
		milestone.FieldCompletionTime: "2024-10-01T09:30:00Z",
		"respond_in_2_days":           true,
	})
	minutes := 30.0

	runTests(t, app, []httpTest{
		{
			name: "submitter", path: "/api/metrics/" + url.PathEscape("jo@uni.edu.au"), wantCode: http.StatusOK,
			wantData: marchallObj(t, milestone.Metrics{
				Email: "jo@uni.edu.au",
				Submissions: []milestone.SubmissionMetrics{{
					RecordID:         id,
					Milestone:        milestone.Milestone2,
					TermStartDate:    dateM2,
					StartTime:        "2024-10-01T09:00:00Z",
					CompletionTime:   "2024-10-01T09:30:00Z",
					TimeTakenMinutes: &minutes,
					BooleanResponses: map[string]bool{"respond_in_2_days": true},
				}},
			}),
		},
		{
			name: "nobody", path: "/api/metrics/someone@uni.edu.au", wantCode: http.StatusOK,
			wantData: marchallObj(t, milestone.Metrics{Email: "someone@uni.edu.au", Submissions: []milestone.SubmissionMetrics{}}),
		},
	})
}

func Test_schemaApi(t *testing.T) {
	app, _ := setup(t)
	m2, err := milestone.FieldsFor(milestone.Milestone2)
	require.NoError(t, err)

	runTests(t, app, []httpTest{
		{name: "one", path: "/api/schemas/Milestone_2", wantCode: http.StatusOK, wantData: marchallObj(t, m2)},
		{name: "short id", path: "/api/schemas/2", wantCode: http.StatusOK, wantData: marchallObj(t, m2)},
		{
			name: "unknown", path: "/api/schemas/Milestone_4", wantCode: http.StatusNotFound,
			wantData: marchallObj(t, map[string]string{"Error": "Requested resource was not found on the server"}),
		},
		{
			name: "resolve", path: "/api/milestone?term_start_date=" + dateM2, wantCode: http.StatusOK,
			wantData: marchallObj(t, map[string]interface{}{"milestone": milestone.Milestone2, "regime": milestone.RegimeTerm, "fields": m2}),
		},
	})

	rec := do(app, http.MethodGet, "/api/schemas")
	require.Equal(t, http.StatusOK, rec.Code)
	var all map[milestone.ID][]milestone.FieldSpec
	unmarchall(t, rec, &all)
	assert.Len(t, all, 3)
	assert.Len(t, all[milestone.Milestone1], 24)
}

func Test_adminApi(t *testing.T) {
	app, env := setup(t)
	require.NoError(t, env.Svc.EnsureAllCollections(ctxBg))

	rec := do(app, http.MethodGet, "/admin/records")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))

	id, _ := testutil.CreateRecord(t, env.Svc, milestone.Payload{
		milestone.FieldTermStartDate: dateM3,
		milestone.FieldName:          "Jo <Bloggs>",
		milestone.FieldEmail:         "jo@uni.edu.au",
		"Add_SFS_Survey_Weeks_5_6":   true,
	})

	rec = do(app, http.MethodGet, "/admin/records")
	require.Equal(t, http.StatusOK, rec.Code)
	var summaries []milestone.Summary
	unmarchall(t, rec, &summaries)
	require.Len(t, summaries, 1)
	assert.Equal(t, id, summaries[0].ID)
	assert.Equal(t, milestone.Milestone3, summaries[0].Milestone)

	rec = do(app, http.MethodGet, "/admin/records/"+id)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = do(app, http.MethodGet, "/admin/records/nope")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(app, http.MethodGet, "/admin/dashboard")
	require.Equal(t, http.StatusOK, rec.Code)
	page := rec.Body.String()
	assert.Contains(t, page, "Total: 1")
	assert.Contains(t, page, "Jo &lt;Bloggs&gt;")
	assert.Contains(t, page, "/admin/record-details/Milestone_3/"+id)

	rec = do(app, http.MethodGet, "/admin/record-details/Milestone_3/"+id)
	require.Equal(t, http.StatusOK, rec.Code)
	page = rec.Body.String()
	assert.Contains(t, page, "Milestone_3 record "+id)
	assert.Contains(t, page, `<span class="yes">Yes</span>`)
	assert.Contains(t, page, "No response provided")

	rec = do(app, http.MethodGet, "/admin/record-details/Milestone_9/"+id)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = do(app, http.MethodGet, "/admin/record-details/Milestone_1/"+id)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

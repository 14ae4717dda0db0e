package tests

import (
	"net/http"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/whenitsdone1/capstone2024/core/milestone"
	"github.com/whenitsdone1/capstone2024/services/clock"
	"github.com/whenitsdone1/capstone2024/tests"
)

type submitted struct {
	Message   string       `json:"message"`
	RecordID  string       `json:"record_id"`
	Milestone milestone.ID `json:"milestone"`
}

func Test_recordApi_submit(t *testing.T) {
	app, env := setup(t)

	tests := []struct {
		date string
		want milestone.ID
	}{
		{dateM1, milestone.Milestone1},
		{dateM2, milestone.Milestone2},
		{dateM3, milestone.Milestone3},
	}
	for _, tt := range tests {
		t.Run(tt.date, func(t *testing.T) {
			rec := do(app, http.MethodPost, "/api/submit_form", marchallObj(t, map[string]interface{}{
				"term_start_date":   tt.date + "T00:00:00.000Z",
				"name":              "Jo Bloggs",
				"email":             "jo@uni.edu.au",
				"respond_in_2_days": true,
				"not_a_field":       "dropped",
			}))
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

			var res submitted
			unmarchall(t, rec, &res)
			assert.Equal(t, "Form submission successful", res.Message)
			assert.Equal(t, tt.want, res.Milestone)

			stored, err := env.Svc.ReadFrom(ctxBg, tt.want, res.RecordID)
			require.NoError(t, err)
			assert.Equal(t, tt.date, stored[milestone.FieldTermStartDate])
			assert.NotContains(t, stored, "not_a_field")
		})
	}

	runTests(t, app, []httpTest{
		{
			name: "missing date", method: http.MethodPost, path: "/api/submit_form",
			body:     marchallObj(t, map[string]string{"name": "Jo"}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]interface{}{
				"error":  "term_start_date is required",
				"fields": map[string]string{"term_start_date": "term_start_date is required"},
			}),
		},
		{
			name: "invalid date", method: http.MethodPost, path: "/api/submit_form",
			body:     marchallObj(t, map[string]string{"term_start_date": "20/09/2024"}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]interface{}{
				"error":  "Invalid date format",
				"fields": map[string]string{"term_start_date": "Invalid date format"},
			}),
		},
		{
			name: "invalid email", method: http.MethodPost, path: "/api/submit_form",
			body:     marchallObj(t, map[string]string{"term_start_date": dateM2, "email": "jo"}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]interface{}{
				"error":  "invalid submission",
				"fields": map[string]string{"email": "email must be a valid email address"},
			}),
		},
		{
			name: "not an object", method: http.MethodPost, path: "/api/submit_form",
			body:     []byte(`[1, 2]`),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Error: "request body must be a JSON object"}),
		},
		{
			name: "empty body", method: http.MethodPost, path: "/api/submit_form",
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]interface{}{
				"error":  "term_start_date is required",
				"fields": map[string]string{"term_start_date": "term_start_date is required"},
			}),
		},
	})
}

func Test_recordApi_submit_dateSourceDown(t *testing.T) {
	env := testutil.NewEnv(t, today)
	svc := milestone.NewServiceMock(env.DB, clock.Fixed{Err: errors.New("dial tcp: i/o timeout")}, env.Mail, env.Logger, env.Conf)
	app := newServer(t, env, svc)

	runTests(t, app, []httpTest{
		{
			name: "no active milestone", method: http.MethodPost, path: "/api/submit_form",
			body:     marchallObj(t, map[string]string{"term_start_date": dateM2}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"message": "No active milestone for the current date"}),
		},
	})
}

func Test_recordApi_submit_backendDown(t *testing.T) {
	app, env := setup(t)
	env.DB.SetDown(true)

	runTests(t, app, []httpTest{
		{
			name: "backend error", method: http.MethodPost, path: "/api/submit_form",
			body:     marchallObj(t, map[string]string{"term_start_date": dateM2}),
			wantCode: http.StatusServiceUnavailable,
			wantData: marchallObj(t, map[string]string{"error": "Backend request failed", "details": "backend is down"}),
		},
	})
}

func Test_recordApi_retrieve(t *testing.T) {
	app, env := setup(t)
	id, _ := testutil.CreateRecord(t, env.Svc, milestone.Payload{
		milestone.FieldTermStartDate: dateM2,
		milestone.FieldName:          "Jo Bloggs",
	})
	stored, err := env.Svc.ReadFrom(ctxBg, milestone.Milestone2, id)
	require.NoError(t, err)
	want := marchallObj(t, stored)
	notFound := marchallObj(t, httpErr{Error: "Record not found"})

	runTests(t, app, []httpTest{
		{name: "by date", path: "/api/get_record/" + id + "?term_start_date=" + dateM2, wantCode: http.StatusOK, wantData: want},
		{name: "by milestone", path: "/api/get_record/" + id + "?milestone=Milestone_2", wantCode: http.StatusOK, wantData: want},
		{name: "fan-out", path: "/api/get_record/" + id, wantCode: http.StatusOK, wantData: want},
		{name: "wrong milestone", path: "/api/get_record/" + id + "?term_start_date=" + dateM3, wantCode: http.StatusNotFound, wantData: notFound},
		{name: "unknown id", path: "/api/get_record/nope", wantCode: http.StatusNotFound, wantData: notFound},
		{
			name: "bad date", path: "/api/get_record/" + id + "?term_start_date=yesterday", wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]interface{}{
				"error":  "Invalid date format",
				"fields": map[string]string{"term_start_date": "Invalid date format"},
			}),
		},
		{
			name: "bad milestone", path: "/api/get_record/" + id + "?milestone=4", wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]interface{}{
				"error":  `"4": unknown milestone`,
				"fields": map[string]string{"milestone": `"4": unknown milestone`},
			}),
		},
	})
}

func Test_recordApi_update(t *testing.T) {
	app, env := setup(t)
	id, _ := testutil.CreateRecord(t, env.Svc, milestone.Payload{
		milestone.FieldTermStartDate: dateM3,
		"Add_SFS_Survey_Weeks_5_6":   true,
	})
	path := "/api/update_record/" + id + "?term_start_date=" + dateM3

	rec := do(app, http.MethodPatch, path, marchallObj(t, map[string]interface{}{
		milestone.FieldComments: "late submission",
		"bogus":                 true,
	}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var updated milestone.Record
	unmarchall(t, rec, &updated)
	assert.Equal(t, "late submission", updated[milestone.FieldComments])
	assert.Equal(t, true, updated["Add_SFS_Survey_Weeks_5_6"])
	assert.NotContains(t, updated, "bogus")

	runTests(t, app, []httpTest{
		{
			name: "no date", method: http.MethodPatch, path: "/api/update_record/" + id,
			body:     marchallObj(t, map[string]string{milestone.FieldComments: "x"}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]interface{}{
				"error":  "term_start_date is required",
				"fields": map[string]string{"term_start_date": "term_start_date is required"},
			}),
		},
		{
			name: "nothing to update", method: http.MethodPatch, path: path,
			body:     marchallObj(t, map[string]string{"bogus": "x"}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Error: "no updatable fields supplied"}),
		},
		{
			name: "unknown id", method: http.MethodPatch, path: "/api/update_record/nope?term_start_date=" + dateM3,
			body:     marchallObj(t, map[string]string{milestone.FieldComments: "x"}),
			wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Error: "Record not found"}),
		},
	})
}

func Test_recordApi_destroy(t *testing.T) {
	app, env := setup(t)
	id, _ := testutil.CreateRecord(t, env.Svc, milestone.Payload{milestone.FieldTermStartDate: dateM1})
	notFound := marchallObj(t, httpErr{Error: "Record not found"})

	runTests(t, app, []httpTest{
		{
			name: "no date", method: http.MethodDelete, path: "/api/delete_record/" + id, wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]interface{}{
				"error":  "term_start_date is required",
				"fields": map[string]string{"term_start_date": "term_start_date is required"},
			}),
		},
		{name: "delete", method: http.MethodDelete, path: "/api/delete_record/" + id + "?term_start_date=" + dateM1, wantCode: http.StatusNoContent},
		{name: "gone", path: "/api/get_record/" + id + "?term_start_date=" + dateM1, wantCode: http.StatusNotFound, wantData: notFound},
		{name: "delete again", method: http.MethodDelete, path: "/api/delete_record/" + id + "?term_start_date=" + dateM1, wantCode: http.StatusNotFound, wantData: notFound},
	})
}

func Test_routes(t *testing.T) {
	app, _ := setup(t)

	runTests(t, app, []httpTest{
		{name: "health", path: "/health", wantCode: http.StatusOK, wantData: marchallObj(t, map[string]string{"status": "ok"})},
		{
			name: "unknown route", path: "/api/nope", wantCode: http.StatusNotFound,
			wantData: marchallObj(t, map[string]string{"Error": "Requested resource was not found on the server"}),
		},
		{name: "trailing slash", path: "/health/", wantCode: http.StatusOK, wantData: marchallObj(t, map[string]string{"status": "ok"})},
	})
}

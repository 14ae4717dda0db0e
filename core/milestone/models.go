package milestone

import (
	"fmt"
	"strings"
	"time"
)

type (
	// Payload is a submission as received from a form, a spreadsheet or a PATCH body.
	Payload map[string]interface{}

	// Record is a stored submission as returned by the backend.
	Record map[string]interface{}

	// Summary is one row of the admin record listing.
	Summary struct {
		ID             string `json:"id"`
		Name           string `json:"name"`
		Email          string `json:"email"`
		Milestone      ID     `json:"milestone"`
		SubmissionDate string `json:"submission_date"`
	}

	SubmissionMetrics struct {
		RecordID         string          `json:"record_id"`
		Milestone        ID              `json:"milestone"`
		TermStartDate    string          `json:"term_start_date"`
		StartTime        string          `json:"start_time"`
		CompletionTime   string          `json:"completion_time"`
		TimeTakenMinutes *float64        `json:"time_taken_minutes"`
		BooleanResponses map[string]bool `json:"boolean_responses"`
	}

	Metrics struct {
		Email       string              `json:"email"`
		Submissions []SubmissionMetrics `json:"submissions"`
	}
)

// String returns the string form of a payload value ("" when absent or nil).
func (p Payload) String(key string) string {
	return stringValue(p[key])
}

// clone returns a shallow copy, never nil.
func (p Payload) clone() Payload {
	out := make(Payload, len(p)+1)
	for k, v := range p {
		out[k] = v
	}
	return out
}

func (r Record) ID() string { return stringValue(r["id"]) }

func (r Record) String(key string) string {
	return stringValue(r[key])
}

func (r Record) Bool(key string) bool {
	b, _ := r[key].(bool)
	return b
}

// SubmissionDate is the backend's creation time, else the declared completion time.
func (r Record) SubmissionDate() string {
	if s := r.String("created"); s != "" {
		return s
	}
	return r.String(FieldCompletionTime)
}

func stringValue(v interface{}) string {
	switch vv := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(vv)
	case float64:
		if vv == float64(int64(vv)) {
			return fmt.Sprintf("%d", int64(vv))
		}
		return fmt.Sprintf("%v", vv)
	default:
		return fmt.Sprint(vv)
	}
}

var dateTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.000Z",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseDateTime accepts RFC 3339, the backend's "2006-01-02 15:04:05.000Z" and a few looser forms.
func ParseDateTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%q is not a valid date-time", s)
}

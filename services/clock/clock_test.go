package clock

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/whenitsdone1/capstone2024/core"
)

func TestWorldTime(t *testing.T) {
	var gotPath string
	status := http.StatusOK
	body := `{"datetime":"2024-09-30T23:30:00.123456+10:00","timezone":"Australia/Melbourne"}`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	defer srv.Close()

	wt, err := NewWorldTime(srv.URL+"/", "Australia/Melbourne", time.Second)
	require.NoError(t, err)

	today, err := wt.Today(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "/api/timezone/Australia/Melbourne", gotPath)
	// the local date, not the UTC one
	assert.Equal(t, "2024-09-30", today.Format("2006-01-02"))

	status, body = http.StatusServiceUnavailable, "down"
	_, err = wt.Today(context.Background())
	assert.EqualError(t, err, "date service responded 503: down")

	status, body = http.StatusOK, `{"datetime":"whenever"}`
	_, err = wt.Today(context.Background())
	assert.Error(t, err)
}

func TestNewWorldTimeRequiresSettings(t *testing.T) {
	_, err := NewWorldTime("", "Australia/Melbourne", 0)
	assert.Error(t, err)
	_, err = NewWorldTime("https://worldtimeapi.org", "", 0)
	assert.Error(t, err)
}

func TestSystem(t *testing.T) {
	s, err := NewSystem("Australia/Melbourne")
	require.NoError(t, err)
	s.now = func() time.Time { return time.Date(2024, 9, 30, 14, 0, 0, 0, time.UTC) } // 00:00 on Oct 1st in Melbourne

	today, err := s.Today(context.Background())
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 10, 1, 0, 0, 0, 0, time.UTC), today)

	_, err = NewSystem("Mars/Olympus_Mons")
	assert.Error(t, err)
}

func TestFixed(t *testing.T) {
	d := time.Date(2024, 9, 10, 0, 0, 0, 0, time.UTC)
	got, err := Fixed{Date: d}.Today(context.Background())
	require.NoError(t, err)
	assert.Equal(t, d, got)

	boom := errors.New("boom")
	_, err = Fixed{Date: d, Err: boom}.Today(context.Background())
	assert.Equal(t, boom, err)
}

func TestNew(t *testing.T) {
	src, err := New(core.DateSourceConfig{Provider: "system", Timezone: "UTC"})
	require.NoError(t, err)
	assert.IsType(t, &System{}, src)

	src, err = New(core.DateSourceConfig{Provider: "worldtime", URL: "https://worldtimeapi.org", Timezone: "UTC"})
	require.NoError(t, err)
	assert.IsType(t, &WorldTime{}, src)

	_, err = New(core.DateSourceConfig{Provider: "sundial"})
	assert.Error(t, err)
}

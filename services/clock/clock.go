// Package clock provides the reference dates used to resolve milestones.
package clock

import (
	"context"
	"encoding/json"
	"io"
	"io/ioutil"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/kat-co/vala"
	"github.com/pkg/errors"

	"github.com/whenitsdone1/capstone2024/core"
	"github.com/whenitsdone1/capstone2024/core/milestone"
)

var (
	_ milestone.DateSource = (*WorldTime)(nil)
	_ milestone.DateSource = (*System)(nil)
	_ milestone.DateSource = Fixed{}
)

// WorldTime asks a worldtimeapi.org compatible service for the current date in a timezone.
type WorldTime struct {
	baseURL  string
	timezone string
	http     *http.Client
}

func NewWorldTime(baseURL, timezone string, timeout time.Duration) (*WorldTime, error) {
	if err := vala.BeginValidation().Validate(
		vala.StringNotEmpty(baseURL, "baseURL"),
		vala.StringNotEmpty(timezone, "timezone"),
	).Check(); err != nil {
		return nil, err
	}
	return &WorldTime{
		baseURL:  strings.TrimRight(baseURL, "/"),
		timezone: timezone,
		http:     &http.Client{Timeout: timeout},
	}, nil
}

func (w *WorldTime) Today(ctx context.Context) (time.Time, error) {
	endpoint := w.baseURL + "/api/timezone/" + (&url.URL{Path: w.timezone}).EscapedPath()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return time.Time{}, errors.Wrap(err, "building date request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := w.http.Do(req)
	if err != nil {
		return time.Time{}, errors.Wrap(err, "fetching current date")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := ioutil.ReadAll(io.LimitReader(resp.Body, 512))
		return time.Time{}, errors.Errorf("date service responded %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var res struct {
		Datetime string `json:"datetime"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return time.Time{}, errors.Wrap(err, "decoding current date")
	}
	// the date part is already local to the requested timezone
	return milestone.ParseDate(res.Datetime)
}

// System uses the local clock, shifted to a timezone.
type System struct {
	loc *time.Location
	now func() time.Time
}

func NewSystem(timezone string) (*System, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, errors.Wrapf(err, "loading timezone %q", timezone)
	}
	return &System{loc: loc, now: time.Now}, nil
}

func (s *System) Today(_ context.Context) (time.Time, error) {
	n := s.now().In(s.loc)
	return time.Date(n.Year(), n.Month(), n.Day(), 0, 0, 0, 0, time.UTC), nil
}

// Fixed always returns the same date, or Err when set.
type Fixed struct {
	Date time.Time
	Err  error
}

func (f Fixed) Today(_ context.Context) (time.Time, error) {
	if f.Err != nil {
		return time.Time{}, f.Err
	}
	return f.Date, nil
}

// New builds the date source selected by the configuration.
func New(conf core.DateSourceConfig) (milestone.DateSource, error) {
	switch conf.Provider {
	case "system":
		return NewSystem(conf.Timezone)
	case "worldtime", "":
		return NewWorldTime(conf.URL, conf.Timezone, conf.Timeout)
	}
	return nil, errors.Errorf("unknown date source provider %q", conf.Provider)
}

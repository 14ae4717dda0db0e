package milestone

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// ID identifies one of the three reporting windows of a teaching period.
// It is also the name of the backend collection holding the window's records.
type ID string

const (
	Milestone1 ID = "Milestone_1"
	Milestone2 ID = "Milestone_2"
	Milestone3 ID = "Milestone_3"
)

// All lists every milestone in fan-out order.
var All = []ID{Milestone1, Milestone2, Milestone3}

func (id ID) Valid() bool {
	switch id {
	case Milestone1, Milestone2, Milestone3:
		return true
	}
	return false
}

// Number returns 1, 2 or 3 (0 when unknown).
func (id ID) Number() int {
	for i, m := range All {
		if m == id {
			return i + 1
		}
	}
	return 0
}

func (id ID) String() string { return string(id) }

// ParseID accepts "Milestone_2", "milestone_2" or "2".
func ParseID(s string) (ID, error) {
	s = strings.TrimSpace(s)
	for _, m := range All {
		if strings.EqualFold(s, string(m)) || s == strings.TrimPrefix(string(m), "Milestone_") {
			return m, nil
		}
	}
	return "", errors.Wrapf(ErrUnknownMilestone, "%q", s)
}

// Regime is the calendar basis of the window boundaries.
type Regime string

const (
	RegimeTerm     Regime = "Term"
	RegimeSemester Regime = "Semester"
)

// ParseRegime is lenient: anything but "semester" (any case) is a Term.
func ParseRegime(s string) Regime {
	if strings.EqualFold(strings.TrimSpace(s), string(RegimeSemester)) {
		return RegimeSemester
	}
	return RegimeTerm
}

// window is an inclusive range of days since the term start.
type window struct {
	from, to  int
	milestone ID
}

var windows = map[Regime][]window{
	RegimeTerm: {
		{7, 14, Milestone2},
		{15, 42, Milestone3},
	},
	RegimeSemester: {
		{7, 35, Milestone2},
		{36, 77, Milestone3},
	},
}

// DateSource supplies the reference ("current") date.
type DateSource interface {
	Today(ctx context.Context) (time.Time, error)
}

// DaysBetween returns the absolute number of whole calendar days between a and b.
// The sign is discarded: a term start 10 days ahead resolves like one 10 days behind.
func DaysBetween(a, b time.Time) int {
	a = time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	b = time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	days := int(a.Sub(b).Hours() / 24)
	if days < 0 {
		return -days
	}
	return days
}

// ForDays maps a day count to a milestone. Counts outside every window,
// including those past the last one, fall back to Milestone_1.
func ForDays(days int, regime Regime) ID {
	ws, ok := windows[regime]
	if !ok {
		ws = windows[RegimeTerm]
	}
	for _, w := range ws {
		if days >= w.from && days <= w.to {
			return w.milestone
		}
	}
	return Milestone1
}

// Resolve maps the reference date and term start to a milestone.
func Resolve(ref, termStart time.Time, regime Regime) ID {
	return ForDays(DaysBetween(ref, termStart), regime)
}

var timeSuffixRegex = regexp.MustCompile(`T.*$`)

// ParseDate parses a "YYYY-MM-DD" date, tolerating a trailing time part
// ("2024-09-10T08:00:00Z" or "2024-09-10 08:00:00").
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, ErrMissingDate
	}
	s = timeSuffixRegex.ReplaceAllString(s, "")
	if i := strings.IndexByte(s, ' '); i >= 0 {
		s = s[:i]
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, errors.Wrapf(ErrInvalidDateFormat, "%q", s)
	}
	return t, nil
}

// ResolveFrom fetches the reference date from src and resolves the milestone for termStart.
// A source failure is reported as ErrDateSourceUnavailable.
func ResolveFrom(ctx context.Context, src DateSource, termStart string, regime Regime) (ID, error) {
	start, err := ParseDate(termStart)
	if err != nil {
		return "", err
	}
	today, err := src.Today(ctx)
	if err != nil {
		return "", errors.Wrap(ErrDateSourceUnavailable, err.Error())
	}
	return Resolve(today, start, regime), nil
}

package normalize

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the ISO form used in the record graph
const DateLayout = "2006-01-02"

// DateRange is a converted date. Exact dates have Begin == End; dates with
// placeholder parts cover every day the placeholders allow.
type DateRange struct {
	Begin time.Time
	End   time.Time
}

// IsZero reports whether the range holds no date
func (r DateRange) IsZero() bool {
	return r.Begin.IsZero() && r.End.IsZero()
}

// Exact reports whether the range is a single day
func (r DateRange) Exact() bool {
	return !r.IsZero() && r.Begin.Equal(r.End)
}

func (r DateRange) String() string {
	if r.Exact() {
		return r.Begin.Format(DateLayout)
	}
	return r.Begin.Format(DateLayout) + "/" + r.End.Format(DateLayout)
}

var (
	finnishDatePattern = regexp.MustCompile(`^([0-9xX]{1,2})\.([0-9xX]{1,2})\.([0-9]{4})$`)
	isoDatePattern     = regexp.MustCompile(`^([0-9]{4})-([0-9]{2})-([0-9]{2})(?:T[0-9:.]+(?:Z|[+-][0-9:]+)?)?$`)
	yearPattern        = regexp.MustCompile(`^([0-9]{4})$`)
)

// ParseDate converts a Finnish d.m.yyyy date, an ISO date or a bare year.
// Day and month may be replaced by x placeholders ("xx.9.1944").
func ParseDate(raw string) (DateRange, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return DateRange{}, fmt.Errorf("empty date")
	}

	if m := isoDatePattern.FindStringSubmatch(s); m != nil {
		return exactDate(m[1], m[2], m[3], raw)
	}

	if m := yearPattern.FindStringSubmatch(s); m != nil {
		year, _ := strconv.Atoi(m[1])
		return DateRange{
			Begin: day(year, time.January, 1),
			End:   day(year, time.December, 31),
		}, nil
	}

	m := finnishDatePattern.FindStringSubmatch(s)
	if m == nil {
		return DateRange{}, fmt.Errorf("unrecognized date %q", raw)
	}

	dayPart, monthPart, yearPart := m[1], m[2], m[3]
	year, _ := strconv.Atoi(yearPart)

	if isPlaceholder(monthPart) {
		if !isPlaceholder(dayPart) {
			return DateRange{}, fmt.Errorf("day without month in %q", raw)
		}
		return DateRange{
			Begin: day(year, time.January, 1),
			End:   day(year, time.December, 31),
		}, nil
	}

	month, err := strconv.Atoi(monthPart)
	if err != nil || month < 1 || month > 12 {
		return DateRange{}, fmt.Errorf("invalid month in %q", raw)
	}

	if isPlaceholder(dayPart) {
		first := day(year, time.Month(month), 1)
		return DateRange{Begin: first, End: first.AddDate(0, 1, -1)}, nil
	}

	return exactDate(yearPart, monthPart, dayPart, raw)
}

func exactDate(yearPart, monthPart, dayPart, raw string) (DateRange, error) {
	year, _ := strconv.Atoi(yearPart)
	month, err := strconv.Atoi(monthPart)
	if err != nil {
		return DateRange{}, fmt.Errorf("invalid month in %q", raw)
	}
	d, err := strconv.Atoi(dayPart)
	if err != nil {
		return DateRange{}, fmt.Errorf("invalid day in %q", raw)
	}

	t := day(year, time.Month(month), d)
	// time.Date normalizes overflow, e.g. 31.2. becomes 3.3.
	if t.Year() != year || int(t.Month()) != month || t.Day() != d {
		return DateRange{}, fmt.Errorf("invalid date %q", raw)
	}
	return DateRange{Begin: t, End: t}, nil
}

func isPlaceholder(part string) bool {
	return strings.Trim(part, "xX") == ""
}

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
}

// Bounds is the plausible interval for a date field. Zero bounds are open.
type Bounds struct {
	After  time.Time
	Before time.Time
}

// DefaultRangeBounds is the interval for dates embedded in free-text
// entries: from the start of the Winter War until now.
func DefaultRangeBounds(now time.Time) Bounds {
	return Bounds{
		After:  day(1939, time.November, 30),
		Before: day(now.Year(), now.Month(), now.Day()),
	}
}

// Check returns a diagnostic message when the range falls outside the
// bounds, or an empty string
func (b Bounds) Check(r DateRange) string {
	if r.IsZero() {
		return ""
	}
	if !b.After.IsZero() && r.Begin.Before(b.After) {
		return fmt.Sprintf("date %s is before %s", r, b.After.Format(DateLayout))
	}
	if !b.Before.IsZero() && r.End.After(b.Before) {
		return fmt.Sprintf("date %s is after %s", r, b.Before.Format(DateLayout))
	}
	return ""
}

// ParseBound parses an ISO date used as a configured bound. An empty string
// yields the fallback.
func ParseBound(s string, fallback time.Time) (time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return fallback, nil
	}
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date bound %q: %w", s, err)
	}
	return t, nil
}

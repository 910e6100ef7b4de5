// Package normalize parses the composite field grammar of the archival CSV:
// plain values, slash-separated alternatives with a trailing citation, and
// semicolon-separated entries with a citation prefix and a date range.
package normalize

import (
	"regexp"
	"strings"
)

// Separator selects the grammar form of a field
type Separator int

const (
	SeparatorNone      Separator = iota // One plain value
	SeparatorSlash                      // "a (source) / b"
	SeparatorSemicolon                  // "source: value start-end; ..."
)

func (s Separator) String() string {
	switch s {
	case SeparatorSlash:
		return "/"
	case SeparatorSemicolon:
		return ";"
	default:
		return "none"
	}
}

// ParseSeparator maps the configuration spelling to a Separator
func ParseSeparator(s string) Separator {
	switch strings.TrimSpace(s) {
	case "/", "slash":
		return SeparatorSlash
	case ";", "semicolon":
		return SeparatorSemicolon
	default:
		return SeparatorNone
	}
}

// Policy controls how one field is normalized
type Policy struct {
	Separator Separator
	Ranges    Bounds // Plausible interval for embedded date ranges
}

// Value is one normalized component of a field
type Value struct {
	Value     string
	Original  string
	Sources   []string
	DateBegin DateRange
	DateEnd   DateRange
	Errors    []string
}

// HasRange reports whether an embedded date range was found
func (v Value) HasRange() bool {
	return !v.DateBegin.IsZero() || !v.DateEnd.IsZero()
}

var (
	slashSplit      = regexp.MustCompile(`(?: /)|(?:/ )`)
	citationPattern = regexp.MustCompile(`^(.+) \(([^()]+)\)(.*)$`)
	rangePattern    = regexp.MustCompile(`^(.+) ([0-9xX.]{5,})-([0-9xX.]{5,})$`)
)

const citationSeparator = ": "

// Normalize splits raw into its components according to policy. Blank
// components are dropped. Problems are attached to the affected component
// and never stop the rest of the field from being read.
func Normalize(raw string, policy Policy) []Value {
	var parts []string
	switch policy.Separator {
	case SeparatorSlash:
		parts = slashSplit.Split(raw, -1)
	case SeparatorSemicolon:
		parts = strings.Split(raw, ";")
	default:
		parts = []string{raw}
	}

	values := make([]Value, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		var v Value
		switch policy.Separator {
		case SeparatorSlash:
			v = readCited(part)
		case SeparatorSemicolon:
			v = readEntry(part, policy.Ranges)
		default:
			v = Value{Value: part, Original: part}
		}

		if v.Value == "" {
			continue
		}
		values = append(values, v)
	}
	return values
}

// readCited reads "value (source)". Content after the citation makes the
// whole component the value.
func readCited(orig string) Value {
	v := Value{Value: orig, Original: orig}

	m := citationPattern.FindStringSubmatch(orig)
	if m == nil {
		return v
	}

	if strings.TrimSpace(m[3]) != "" {
		v.Errors = append(v.Errors, "content after source citation: "+orig)
		return v
	}

	v.Value = strings.TrimSpace(m[1])
	v.Sources = []string{strings.TrimSpace(m[2])}
	return v
}

// readEntry reads "source: value start-end"
func readEntry(orig string, bounds Bounds) Value {
	v := Value{Value: orig, Original: orig}

	source, value := "", orig
	if i := strings.Index(orig, citationSeparator); i >= 0 {
		source, value = orig[:i], orig[i+len(citationSeparator):]
	}

	if strings.Contains(value, citationSeparator) {
		v.Errors = append(v.Errors, `possible formatting error, ": " found after source citation`)
		source, value = "", orig
	}

	if m := rangePattern.FindStringSubmatch(value); m != nil {
		value = m[1]
		v.DateBegin = convertBound(m[2], bounds, &v)
		v.DateEnd = convertBound(m[3], bounds, &v)
	}

	v.Value = strings.TrimSpace(value)
	if s := strings.TrimSpace(source); s != "" {
		v.Sources = []string{s}
	}
	return v
}

func convertBound(raw string, bounds Bounds, v *Value) DateRange {
	r, err := ParseDate(raw)
	if err != nil {
		v.Errors = append(v.Errors, err.Error())
		return DateRange{}
	}
	if msg := bounds.Check(r); msg != "" {
		v.Errors = append(v.Errors, msg)
	}
	return r
}

package match

import (
	"math"
	"time"

	"github.com/ppiankov/powlink/internal/lookup"
)

// Similarity is one comparator result. Missing means one side had no value,
// which is not the same as a mismatch.
type Similarity struct {
	Value   float64
	Missing bool
}

var missing = Similarity{Missing: true}

// Exact is 1 for equal non-empty strings, else 0
func Exact(a, b string) Similarity {
	if a == "" || b == "" {
		return missing
	}
	if a == b {
		return Similarity{Value: 1}
	}
	return Similarity{}
}

// Fuzzy is the normalized Levenshtein similarity of two non-empty strings
func Fuzzy(a, b string) Similarity {
	if a == "" || b == "" {
		return missing
	}
	return Similarity{Value: lookup.Similarity(a, b)}
}

// Intersection is 1 when two sorted lists share an element, 0 when both are
// non-empty and disjoint
func Intersection(a, b []string) Similarity {
	if len(a) == 0 || len(b) == 0 {
		return missing
	}
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] == b[j]:
			return Similarity{Value: 1}
		case a[i] < b[j]:
			i++
		default:
			j++
		}
	}
	return Similarity{}
}

// DateDistance decays linearly from 1 for equal dates to 0 at scale apart
func DateDistance(a, b time.Time, scale time.Duration) Similarity {
	if a.IsZero() || b.IsZero() {
		return missing
	}
	return Similarity{Value: decay(a.Sub(b), scale)}
}

// Numeric is 1 for equal values and falls off with the absolute difference
func Numeric(a, b *int) Similarity {
	if a == nil || b == nil {
		return missing
	}
	return Similarity{Value: 1 / (1 + math.Abs(float64(*a-*b)))}
}

// Activity compares the ends of two persons' activity. A missing end means
// the person was still alive at the comparison point. Only when both ends
// are missing is the result missing.
func Activity(a, b, at time.Time, scale time.Duration) Similarity {
	if a.IsZero() && b.IsZero() {
		return missing
	}
	if a.IsZero() {
		a = at
	}
	if b.IsZero() {
		b = at
	}
	return Similarity{Value: decay(a.Sub(b), scale)}
}

func decay(d, scale time.Duration) float64 {
	if d < 0 {
		d = -d
	}
	if d == 0 {
		return 1
	}
	if scale <= 0 || d >= scale {
		return 0
	}
	return 1 - float64(d)/float64(scale)
}

const (
	dateScale     = 365 * 24 * time.Hour
	activityScale = 2 * 365 * 24 * time.Hour
)

// Field is one configured comparison
type Field struct {
	Name    string
	Compare func(a, b Features, at time.Time) Similarity
}

// Fields is the comparator configuration of the person matcher
var Fields = []Field{
	{"given", func(a, b Features, _ time.Time) Similarity { return Fuzzy(a.Given, b.Given) }},
	{"family", func(a, b Features, _ time.Time) Similarity { return Exact(a.Family, b.Family) }},
	{"birth_place", func(a, b Features, _ time.Time) Similarity { return Intersection(a.BirthPlaces, b.BirthPlaces) }},
	{"birth_begin", func(a, b Features, _ time.Time) Similarity { return DateDistance(a.BirthBegin, b.BirthBegin, dateScale) }},
	{"birth_end", func(a, b Features, _ time.Time) Similarity { return DateDistance(a.BirthEnd, b.BirthEnd, dateScale) }},
	{"death_begin", func(a, b Features, _ time.Time) Similarity { return DateDistance(a.DeathBegin, b.DeathBegin, dateScale) }},
	{"death_end", func(a, b Features, _ time.Time) Similarity { return DateDistance(a.DeathEnd, b.DeathEnd, dateScale) }},
	{"death_place", func(a, b Features, _ time.Time) Similarity { return Intersection(a.DeathPlaces, b.DeathPlaces) }},
	{"activity_end", func(a, b Features, at time.Time) Similarity {
		return Activity(a.ActivityEnd, b.ActivityEnd, at, activityScale)
	}},
	{"rank", func(a, b Features, _ time.Time) Similarity { return Intersection(a.Ranks, b.Ranks) }},
	{"rank_level", func(a, b Features, _ time.Time) Similarity { return Numeric(a.RankLevel, b.RankLevel) }},
	{"unit", func(a, b Features, _ time.Time) Similarity { return Intersection(a.Units, b.Units) }},
	{"occupation", func(a, b Features, _ time.Time) Similarity { return Intersection(a.Occupations, b.Occupations) }},
}

// Vector is the comparison vector of one pair: a value and a missing
// indicator per field
type Vector []float64

// Compare builds the comparison vector of a and b
func Compare(a, b Features, at time.Time) Vector {
	v := make(Vector, 0, 2*len(Fields))
	for _, f := range Fields {
		s := f.Compare(a, b, at)
		missingFlag := 0.0
		if s.Missing {
			missingFlag = 1
		}
		v = append(v, s.Value, missingFlag)
	}
	return v
}

package match

import (
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/ppiankov/powlink/internal/normalize"
)

// Features is the flat projection compared between two persons. Empty
// lists and zero times are missing values.
type Features struct {
	ID          string
	Given       string
	Family      string
	Ranks       []string
	RankLevel   *int
	BirthPlaces []string
	DeathPlaces []string
	Units       []string
	Occupations []string
	BirthBegin  time.Time
	BirthEnd    time.Time
	DeathBegin  time.Time
	DeathEnd    time.Time
	ActivityEnd time.Time
}

// Project builds the features of p. Unparseable dates are skipped with a
// warning.
func Project(p Person, levels map[string]int, logger *zap.Logger) Features {
	if logger == nil {
		logger = zap.NewNop()
	}

	f := Features{
		ID:          p.ID,
		Given:       normalize.Fold(p.Given),
		Family:      normalize.Fold(normalize.HistoricalFamilyName(p.Family)),
		Ranks:       sortedSet(p.Ranks),
		BirthPlaces: sortedSet(p.BirthPlaces),
		DeathPlaces: sortedSet(p.DeathPlaces),
		Units:       sortedSet(p.Units),
		Occupations: sortedSet(p.Occupations),
	}

	for _, rank := range f.Ranks {
		level, ok := levels[rank]
		if !ok {
			continue
		}
		if f.RankLevel == nil || level > *f.RankLevel {
			l := level
			f.RankLevel = &l
		}
	}

	f.BirthBegin, f.BirthEnd = dateSpan(p.ID, p.Births, logger)
	f.DeathBegin, f.DeathEnd = dateSpan(p.ID, p.Deaths, logger)
	f.ActivityEnd = f.DeathEnd
	return f
}

// ProjectAll projects persons in order
func ProjectAll(persons []Person, levels map[string]int, logger *zap.Logger) []Features {
	out := make([]Features, 0, len(persons))
	for _, p := range persons {
		out = append(out, Project(p, levels, logger))
	}
	return out
}

// dateSpan is the (min, max) over every reported date. Partial dates count
// with their whole range.
func dateSpan(id string, raw []string, logger *zap.Logger) (begin, end time.Time) {
	for _, v := range raw {
		r, err := normalize.ParseDate(v)
		if err != nil {
			logger.Warn("skipping unparseable date", zap.String("record", id), zap.String("value", v), zap.Error(err))
			continue
		}
		if begin.IsZero() || r.Begin.Before(begin) {
			begin = r.Begin
		}
		if end.IsZero() || r.End.After(end) {
			end = r.End
		}
	}
	return begin, end
}

func sortedSet(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, v := range in {
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	if len(out) == 0 {
		return nil
	}
	sort.Strings(out)
	return out
}

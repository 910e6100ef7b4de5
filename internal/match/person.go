// Package match links prisoner records to canonical persons with a trained
// pairwise classifier over blocked candidate pairs.
package match

import (
	"sort"
	"strconv"
	"strings"

	"github.com/ppiankov/powlink/internal/graph"
	"github.com/ppiankov/powlink/internal/vocab"
)

// Person is the raw material of a feature projection, read either from the
// record graph or from the canonical person query
type Person struct {
	ID          string
	Given       string
	Family      string
	Ranks       []string
	BirthPlaces []string
	DeathPlaces []string
	Units       []string
	Occupations []string
	Births      []string // Date literals
	Deaths      []string
}

// PrisonerRecords reads every prisoner record of g. Records flagged with
// personal information removed are returned separately.
func PrisonerRecords(g *graph.Graph) (persons []Person, redacted []string) {
	for _, s := range g.SubjectsOfType(vocab.RDFType, vocab.PrisonerRecord) {
		if Redacted(g, s.Value) {
			redacted = append(redacted, s.Value)
			continue
		}
		persons = append(persons, Person{
			ID:          s.Value,
			Given:       firstValue(g, s, vocab.GivenNames),
			Family:      firstValue(g, s, vocab.FamilyName),
			Ranks:       values(g, s, vocab.Rank),
			BirthPlaces: values(g, s, vocab.MunicipalityOfBirth),
			DeathPlaces: values(g, s, vocab.MunicipalityOfDeath),
			Units:       values(g, s, vocab.Unit),
			Occupations: values(g, s, vocab.Occupation),
			Births:      values(g, s, vocab.DateOfBirth),
			Deaths:      values(g, s, vocab.DateOfDeath),
		})
	}
	sort.Slice(persons, func(i, j int) bool { return persons[i].ID < persons[j].ID })
	sort.Strings(redacted)
	return persons, redacted
}

// Redacted reports whether the record has had its personal information
// removed
func Redacted(g *graph.Graph, record string) bool {
	for _, o := range g.Objects(graph.IRI(record), vocab.PersonalInfoRemoved) {
		if o.IsIRI() {
			return true
		}
		if b, err := strconv.ParseBool(strings.TrimSpace(o.Value)); err != nil || b {
			return true
		}
	}
	return false
}

// RankLevels reads the numeric level of every rank in the rank registry
// export. Ranks with no level or more than one are left out.
func RankLevels(ranks *graph.Graph) map[string]int {
	levels := make(map[string]int)
	if ranks == nil {
		return levels
	}

	seen := make(map[string]int)
	for _, t := range ranks.WithPredicate(vocab.RankLevel) {
		seen[t.S.Value]++
		if level, err := strconv.Atoi(strings.TrimSpace(t.O.Value)); err == nil {
			levels[t.S.Value] = level
		}
	}
	for rank, n := range seen {
		if n > 1 {
			delete(levels, rank)
		}
	}
	return levels
}

func firstValue(g *graph.Graph, s graph.Term, predicate string) string {
	if o, ok := g.Value(s, predicate); ok {
		return o.Value
	}
	return ""
}

func values(g *graph.Graph, s graph.Term, predicate string) []string {
	objects := g.Objects(s, predicate)
	if len(objects) == 0 {
		return nil
	}
	out := make([]string, 0, len(objects))
	for _, o := range objects {
		out = append(out, o.Value)
	}
	return out
}

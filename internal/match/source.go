package match

import (
	"context"
	"fmt"
	"sort"

	"github.com/ppiankov/powlink/internal/sparql"
)

// PersonSource supplies the canonical persons to match against
type PersonSource interface {
	Persons(ctx context.Context) ([]Person, error)
}

// SparqlPersonSource reads canonical persons with a SELECT projection.
// Rows are merged per ?person; see model.DefaultPersonQuery for the
// variable names.
type SparqlPersonSource struct {
	client *sparql.Client
	query  string
}

// NewSparqlPersonSource creates a source running query on client
func NewSparqlPersonSource(client *sparql.Client, query string) *SparqlPersonSource {
	return &SparqlPersonSource{client: client, query: query}
}

func (s *SparqlPersonSource) Persons(ctx context.Context) ([]Person, error) {
	rows, err := s.client.Select(ctx, s.query)
	if err != nil {
		return nil, fmt.Errorf("read canonical persons: %w", err)
	}
	return MergeBindings(rows), nil
}

// MergeBindings folds person query rows into one Person per ?person,
// ordered by ID
func MergeBindings(rows []sparql.Binding) []Person {
	byID := make(map[string]*Person)
	for _, row := range rows {
		id, ok := row["person"]
		if !ok || id.Value == "" {
			continue
		}
		p := byID[id.Value]
		if p == nil {
			p = &Person{ID: id.Value}
			byID[id.Value] = p
		}

		if v := row["given"].Value; v != "" && p.Given == "" {
			p.Given = v
		}
		if v := row["family"].Value; v != "" && p.Family == "" {
			p.Family = v
		}
		appendValue(&p.Ranks, row, "rank")
		appendValue(&p.BirthPlaces, row, "birth_place")
		appendValue(&p.DeathPlaces, row, "death_place")
		appendValue(&p.Units, row, "unit")
		appendValue(&p.Occupations, row, "occupation")
		appendValue(&p.Births, row, "birth_date")
		appendValue(&p.Deaths, row, "death_date")
	}

	persons := make([]Person, 0, len(byID))
	for _, p := range byID {
		persons = append(persons, *p)
	}
	sort.Slice(persons, func(i, j int) bool { return persons[i].ID < persons[j].ID })
	return persons
}

func appendValue(dst *[]string, row sparql.Binding, name string) {
	v, ok := row[name]
	if !ok || v.Value == "" {
		return
	}
	for _, existing := range *dst {
		if existing == v.Value {
			return
		}
	}
	*dst = append(*dst, v.Value)
}

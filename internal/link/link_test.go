package link

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/powlink/internal/audit"
	"github.com/ppiankov/powlink/internal/cache"
	"github.com/ppiankov/powlink/internal/graph"
	"github.com/ppiankov/powlink/internal/lookup"
	"github.com/ppiankov/powlink/internal/model"
	"github.com/ppiankov/powlink/internal/validate"
	"github.com/ppiankov/powlink/internal/vocab"
)

func prisoner(n string) string {
	return vocab.PrisonerIRI(n)
}

// table answers lookups from a fixed map of value -> candidates
func table(entries map[string][]model.Candidate) lookup.Lookup {
	return lookup.Func(func(_ context.Context, value string) ([]model.Candidate, error) {
		return entries[value], nil
	})
}

func TestLinkField_AcceptsTopCandidate(t *testing.T) {
	records := graph.New()
	records.Add(graph.T(prisoner("1"), vocab.RankLiteral, graph.Literal(" kersantti ")))
	records.Add(graph.T(prisoner("2"), vocab.RankLiteral, graph.Literal("kenraali")))
	records.Add(graph.T(prisoner("3"), vocab.RankLiteral, graph.Literal("  ")))

	l := table(map[string][]model.Candidate{
		"kersantti": {
			{URI: "http://ldf.fi/warsa/actors/ranks/Kersantti", Score: 1},
			{URI: "http://ldf.fi/warsa/actors/ranks/Ylikersantti", Score: 0.7},
		},
	})

	diag := audit.NewDiagnostics()
	links, stats, err := NewLinker(diag, nil, nil).LinkField(context.Background(), records, Ranks(l, 0))
	require.NoError(t, err)

	require.Equal(t, 1, links.Len())
	got := links.Links()[0]
	assert.Equal(t, prisoner("1"), got.Record)
	assert.Equal(t, vocab.Rank, got.Relation)
	assert.Equal(t, "http://ldf.fi/warsa/actors/ranks/Kersantti", got.Target)
	assert.Equal(t, " kersantti ", got.Literal)

	assert.Equal(t, model.PassStats{Name: "ranks", Accepted: 1, Unresolved: 1}, stats)
	require.Equal(t, 1, diag.Len())
	assert.Equal(t, audit.Entry{Pass: "ranks", Record: prisoner("2"), Field: "rank_literal", Reason: "no candidate", Value: "kenraali"}, diag.Entries()[0])
}

func TestLinkField_ValidatorRejectionHasNoFallback(t *testing.T) {
	records := graph.New()
	records.Add(graph.T(prisoner("1"), vocab.MunicipalityOfDeathLiteral, graph.Literal("Kemi")))

	l := table(map[string][]model.Candidate{
		"Kemi": {
			{URI: "http://ldf.fi/pnr/P_village", Score: 1, Types: []string{"http://ldf.fi/pnr-schema#place_type_560"}},
			{URI: "http://ldf.fi/pnr/P_town", Score: 0.9, Types: []string{"http://ldf.fi/pnr-schema#place_type_540"}},
		},
	})

	task := FieldTask{
		Name:      "death",
		Source:    vocab.MunicipalityOfDeathLiteral,
		Target:    vocab.MunicipalityOfDeath,
		Lookup:    l,
		Validator: validate.NewTypeValidator("http://ldf.fi/pnr-schema#place_type_540"),
	}

	links, stats, err := NewLinker(nil, nil, nil).LinkField(context.Background(), records, task)
	require.NoError(t, err)
	assert.Equal(t, 0, links.Len(), "the runner-up is never used")
	assert.Equal(t, 1, stats.Rejected)
}

func TestLinkField_MinScore(t *testing.T) {
	records := graph.New()
	records.Add(graph.T(prisoner("1"), vocab.OccupationLiteral, graph.Literal("Maanviljelijä")))
	records.Add(graph.T(prisoner("2"), vocab.OccupationLiteral, graph.Literal("seppä")))

	var queried []string
	l := lookup.Func(func(_ context.Context, value string) ([]model.Candidate, error) {
		queried = append(queried, value)
		switch value {
		case "maanviljelijä":
			return []model.Candidate{{URI: "http://ldf.fi/warsa/occupations/maanviljelija", Score: 0.9}}, nil
		case "seppä":
			return []model.Candidate{{URI: "http://ldf.fi/warsa/occupations/sepankisalli", Score: 0.83}}, nil
		}
		return nil, nil
	})

	links, stats, err := NewLinker(nil, nil, nil).LinkField(context.Background(), records, Occupations(l, 0.84, true))
	require.NoError(t, err)

	assert.Equal(t, []string{"maanviljelijä", "seppä"}, queried)
	require.Equal(t, 1, links.Len())
	assert.Equal(t, "http://ldf.fi/warsa/occupations/maanviljelija", links.Links()[0].Target)
	assert.Equal(t, model.PassStats{Name: "occupations", Accepted: 1, Rejected: 1}, stats)
}

func TestLinkField_RemappedCamp(t *testing.T) {
	records := graph.New()
	records.Add(graph.T(prisoner("1"), vocab.LocationLiteral, graph.Literal("Siestarjoki")))

	var queried string
	inner := lookup.Func(func(_ context.Context, value string) ([]model.Candidate, error) {
		queried = value
		return []model.Candidate{{URI: "http://ldf.fi/warsa/prisoners/camp_siestarjoki", Score: 1}}, nil
	})
	remaps := RemapTable(&model.DefaultConfig().Linking, model.EntityCamp)

	links, _, err := NewLinker(nil, nil, nil).LinkField(context.Background(), records, Camps(lookup.NewRemapped(inner, remaps, nil)))
	require.NoError(t, err)
	assert.Equal(t, "Siestarjoki, ven. Sestroretsk", queried)
	assert.Equal(t, 1, links.Len())
}

func TestLinkField_CarriesProvenance(t *testing.T) {
	records := graph.New()
	stmt := graph.T(prisoner("1"), vocab.MunicipalityOfBirthLiteral, graph.Literal("Viipuri"))
	records.Add(stmt)
	records.Reify(prisoner("1")+"_municipality_of_birth_literal_0_reification_source", stmt, "KA T-26073/1")

	l := table(map[string][]model.Candidate{
		"Viipuri": {{URI: "http://ldf.fi/warsa/places/municipalities/m_viipuri", Score: 1}},
	})

	tasks := Municipalities(l, l, nil)
	links, stats, err := NewLinker(nil, nil, nil).LinkFields(context.Background(), records, tasks...)
	require.NoError(t, err)
	require.Len(t, stats, 5)
	require.Equal(t, 1, links.Len())
	assert.Equal(t, "KA T-26073/1", links.Links()[0].Source)
	assert.Equal(t, vocab.MunicipalityOfBirth, links.Links()[0].Relation)
}

func TestLinkField_LookupErrorIsFatal(t *testing.T) {
	records := graph.New()
	records.Add(graph.T(prisoner("1"), vocab.RankLiteral, graph.Literal("korpraali")))

	boom := errors.New("retries exhausted")
	l := lookup.Func(func(_ context.Context, _ string) ([]model.Candidate, error) {
		return nil, boom
	})

	_, _, err := NewLinker(nil, nil, nil).LinkField(context.Background(), records, Ranks(l, 0))
	assert.ErrorIs(t, err, boom)
}

func TestLinkField_RequiresLookup(t *testing.T) {
	_, _, err := NewLinker(nil, nil, nil).LinkField(context.Background(), graph.New(), FieldTask{Name: "empty"})
	assert.Error(t, err)
}

func TestLinkField_DuplicateValuesLinkOnce(t *testing.T) {
	records := graph.New()
	records.Add(graph.T(prisoner("1"), vocab.MunicipalityOfDomicileLiteral, graph.Literal("Viipuri")))
	records.Add(graph.T(prisoner("1"), vocab.MunicipalityOfDomicileLiteral, graph.Literal("viipuri")))

	l := lookup.Func(func(_ context.Context, _ string) ([]model.Candidate, error) {
		return []model.Candidate{{URI: "http://ldf.fi/warsa/places/municipalities/m_viipuri", Score: 1}}, nil
	})

	task := Municipalities(l, l, nil)[1]
	links, stats, err := NewLinker(nil, nil, nil).LinkField(context.Background(), records, task)
	require.NoError(t, err)
	assert.Equal(t, 1, links.Len())
	assert.Equal(t, 1, stats.Accepted)
}

func TestMunicipalities_DeathUsesTypeValidator(t *testing.T) {
	tasks := Municipalities(nil, nil, model.DefaultConfig().Linking.DeathPlaceTypes)
	require.Len(t, tasks, 5)

	death := tasks[4]
	assert.Equal(t, vocab.MunicipalityOfDeath, death.Target)
	require.NotNil(t, death.Validator)

	_, ok := death.Validator.Validate([]model.Candidate{{URI: "x", Types: []string{"http://ldf.fi/pnr-schema#place_type_540"}}}, "", "")
	assert.True(t, ok)

	for _, task := range tasks[:4] {
		assert.Nil(t, task.Validator)
	}
}

func TestLinkField_PrefetchWarmsCache(t *testing.T) {
	records := graph.New()
	for i, rank := range []string{"sotamies", "korpraali", "sotamies", "kersantti", "korpraali"} {
		records.Add(graph.T(prisoner(string(rune('1'+i))), vocab.RankLiteral, graph.Literal(rank)))
	}

	var calls atomic.Int32
	backend := lookup.Func(func(_ context.Context, value string) ([]model.Candidate, error) {
		calls.Add(1)
		return []model.Candidate{{URI: "http://ldf.fi/warsa/actors/ranks/" + value, Score: 1}}, nil
	})
	cached := lookup.NewCached(backend, cache.NewMemoryCache(time.Minute, time.Minute), "ranks", 0, nil)

	linker := NewLinker(nil, nil, nil)
	linker.SetPrefetch(3)
	links, stats, err := linker.LinkField(context.Background(), records, Ranks(cached, 0))
	require.NoError(t, err)

	assert.Equal(t, 5, links.Len())
	assert.Equal(t, 5, stats.Accepted)
	assert.Equal(t, int32(3), calls.Load(), "each distinct value reaches the backend once")
}

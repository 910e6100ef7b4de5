package graph

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/powlink/internal/vocab"
)

const (
	exS    = "http://example.org/s"
	exP    = "http://example.org/p"
	exType = "http://www.w3.org/1999/02/22-rdf-syntax-ns#type"
)

func TestGraph_AddDeduplicates(t *testing.T) {
	g := New()

	assert.True(t, g.AddIRI(exS, exP, "http://example.org/o"))
	assert.False(t, g.AddIRI(exS, exP, "http://example.org/o"))
	assert.True(t, g.Add(T(exS, exP, Literal("o"))))
	assert.Equal(t, 2, g.Len())
}

func TestGraph_ObjectsAndValue(t *testing.T) {
	g := New()
	g.Add(T(exS, exP, Literal("first")))
	g.Add(T(exS, exP, Literal("second")))
	g.Add(T(exS, "http://example.org/other", Literal("x")))

	objs := g.Objects(IRI(exS), exP)
	require.Len(t, objs, 2)
	assert.Equal(t, "first", objs[0].Value)

	v, ok := g.Value(IRI(exS), exP)
	require.True(t, ok)
	assert.Equal(t, "first", v.Value)

	_, ok = g.Value(IRI(exS), "http://example.org/missing")
	assert.False(t, ok)
}

func TestGraph_SubjectsOfType(t *testing.T) {
	g := New()
	g.AddIRI("http://example.org/b", exType, "http://example.org/C")
	g.AddIRI("http://example.org/a", exType, "http://example.org/C")
	g.AddIRI("http://example.org/x", exType, "http://example.org/D")

	subs := g.SubjectsOfType(exType, "http://example.org/C")
	require.Len(t, subs, 2)
	assert.Equal(t, "http://example.org/b", subs[0].Value, "insertion order is kept")
}

func TestNTriples_RoundTrip(t *testing.T) {
	g := New()
	g.Add(T(exS, exP, Literal("Kuolinsyy \"tapaturma\"\nrivi")))
	g.Add(T(exS, exP, TypedLiteral("1943-01-01", "http://www.w3.org/2001/XMLSchema#date")))
	g.Add(T(exS, exP, LangLiteral("Helsinki", "fi")))
	g.Add(Triple{S: Blank("b0"), P: IRI(exP), O: IRI("http://example.org/o")})

	var buf bytes.Buffer
	require.NoError(t, WriteNTriples(&buf, g))

	parsed, err := ParseNTriples(&buf)
	require.NoError(t, err)
	assert.Equal(t, g.Len(), parsed.Len())
	for _, tr := range g.Triples() {
		assert.True(t, parsed.Has(tr), "missing %s", tr)
	}
}

func TestNTriples_SortedOutputIsStable(t *testing.T) {
	a := New()
	a.AddIRI("http://example.org/2", exP, "http://example.org/o")
	a.AddIRI("http://example.org/1", exP, "http://example.org/o")

	b := New()
	b.AddIRI("http://example.org/1", exP, "http://example.org/o")
	b.AddIRI("http://example.org/2", exP, "http://example.org/o")

	var bufA, bufB bytes.Buffer
	require.NoError(t, WriteNTriples(&bufA, a))
	require.NoError(t, WriteNTriples(&bufB, b))
	assert.Equal(t, bufA.String(), bufB.String())
}

func TestNTriples_ParseErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"missing dot", `<http://a> <http://b> <http://c>`},
		{"literal predicate", `<http://a> "b" <http://c> .`},
		{"unterminated literal", `<http://a> <http://b> "c .`},
		{"unterminated iri", `<http://a> <http://b> <http://c .`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseNTriples(strings.NewReader(tt.input))
			assert.Error(t, err)
		})
	}
}

func TestNTriples_SkipsCommentsAndUnicodeEscapes(t *testing.T) {
	input := "# comment\n\n<http://a> <http://b> \"S\\u00e4\\u00e4ksm\\u00e4ki\" .\n"
	g, err := ParseNTriples(strings.NewReader(input))
	require.NoError(t, err)
	v, ok := g.Value(IRI("http://a"), "http://b")
	require.True(t, ok)
	assert.Equal(t, "Sääksmäki", v.Value)
}

func TestGraph_ReifyAndSources(t *testing.T) {
	g := New()
	record := "http://ldf.fi/warsa/prisoners/prisoner_7"
	stmt := T(record, vocab.MunicipalityOfBirthLiteral, Literal("Viipuri"))
	g.Add(stmt)

	g.Reify(record+"_municipality_of_birth_literal_0_reification_source", stmt, "KA T-26073/1")
	g.Reify(record+"_municipality_of_birth_literal_1_reification_source", stmt, "KA T-26073/1", "Sotilaan Ääni")
	g.Reify(record+"_x_reification_source", stmt)

	assert.Equal(t, []string{"KA T-26073/1", "Sotilaan Ääni"}, g.Sources(stmt))
	assert.Empty(t, g.Sources(T(record, vocab.MunicipalityOfBirthLiteral, Literal("Turku"))))
	assert.False(t, g.HasSubject(IRI(record+"_x_reification_source")))
}

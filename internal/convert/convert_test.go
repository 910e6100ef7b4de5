package convert

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/powlink/internal/audit"
	"github.com/ppiankov/powlink/internal/graph"
	"github.com/ppiankov/powlink/internal/model"
	"github.com/ppiankov/powlink/internal/normalize"
	"github.com/ppiankov/powlink/internal/vocab"
)

var now = time.Date(2026, time.October, 15, 12, 0, 0, 0, time.UTC)

const registerCSV = `,sukunimi ja etunimet,synnyinkunta,ammatti,syntymäaika,kuollut,muita tietoja,tuntematon sarake,sotilasarvo (lisätty)
1,KORHONEN (ent. VIRTANEN) Eino Ilmari,Helsinki (KA T-26073/1),MAANVILJELIJÄ,2.5.1912,xx.3.1942,lähde: Kuolinsyy tapaturma 1.1.1943-5.1.1943; KA: vanki 1.1.1930-2.2.1930,x,sotamies
1,MÄKINEN Lauri,Turku / Viipuri (SA),,1.1.1950,,,,
abc,NIEMINEN Onni,,,,,,,
2,,,,,,,,
`

func convertRegister(t *testing.T) (*graph.Graph, *audit.Diagnostics, *audit.Recorder) {
	t.Helper()
	diag := audit.NewDiagnostics()
	rec := audit.NewRecorder(Pass, diag, nil, nil)
	c := NewConverter(DefaultMapping(now), normalize.DefaultRangeBounds(now), rec, nil)

	g, err := c.Convert(strings.NewReader(registerCSV))
	require.NoError(t, err)
	return g, diag, rec
}

func TestConvert_Records(t *testing.T) {
	g, _, rec := convertRegister(t)

	one := vocab.PrisonerIRI("1")
	dup := vocab.PrisonerIRI("1_duplicate")
	records := g.SubjectsOfType(vocab.RDFType, vocab.PrisonerRecord)
	assert.ElementsMatch(t, []graph.Term{graph.IRI(one), graph.IRI(dup)}, records)
	assert.Equal(t, model.PassStats{Name: Pass, Accepted: 2, Rejected: 1, Unresolved: 1}, rec.Stats())

	given, _ := g.Value(graph.IRI(one), vocab.GivenNames)
	assert.Equal(t, "Eino Ilmari", given.Value)
	original, _ := g.Value(graph.IRI(one), vocab.OriginalName)
	assert.Equal(t, "KORHONEN (ent. VIRTANEN) Eino Ilmari", original.Value)

	assert.True(t, g.Has(graph.T(one, vocab.OccupationLiteral, graph.Literal("maanviljelijä"))))
	assert.True(t, g.Has(graph.T(one, vocab.RankLiteral, graph.Literal("sotamies"))), "header remark falls back to the base column")
	assert.True(t, g.Has(graph.T(one, vocab.DateOfBirth, graph.TypedLiteral("1912-05-02", vocab.XSDDate))))
	assert.True(t, g.Has(graph.T(one, vocab.DateOfDeath, graph.Literal("xx.3.1942"))), "partial dates stay literal")

	assert.True(t, g.Has(graph.T(dup, vocab.MunicipalityOfBirthLiteral, graph.Literal("Turku"))))
	assert.True(t, g.Has(graph.T(dup, vocab.MunicipalityOfBirthLiteral, graph.Literal("Viipuri"))))
}

func TestConvert_Provenance(t *testing.T) {
	g, _, _ := convertRegister(t)
	one := vocab.PrisonerIRI("1")

	birth := graph.T(one, vocab.MunicipalityOfBirthLiteral, graph.Literal("Helsinki"))
	require.True(t, g.Has(birth))
	assert.Equal(t, []string{"KA T-26073/1"}, g.Sources(birth))
	assert.True(t, g.HasSubject(graph.IRI(vocab.Data.Term("prisoner_1_municipality_of_birth_literal_0_reification_source"))))

	cause := graph.T(one, vocab.OtherInformation, graph.Literal("Kuolinsyy tapaturma"))
	require.True(t, g.Has(cause))
	assert.Equal(t, []string{"lähde"}, g.Sources(cause))

	second := graph.T(one, vocab.OtherInformation, graph.Literal("vanki"))
	assert.Equal(t, []string{"KA"}, g.Sources(second))
	assert.True(t, g.HasSubject(graph.IRI(vocab.Data.Term("prisoner_1_other_information_1_reification_source"))))

	viipuri := graph.T(vocab.PrisonerIRI("1_duplicate"), vocab.MunicipalityOfBirthLiteral, graph.Literal("Viipuri"))
	assert.Equal(t, []string{"SA"}, g.Sources(viipuri))
}

func TestConvert_Diagnostics(t *testing.T) {
	_, diag, _ := convertRegister(t)

	byReason := make(map[string]audit.Entry)
	for _, e := range diag.Entries() {
		byReason[e.Reason] = e
	}

	bound, ok := byReason["date 1950-01-01 is after 1935-01-01"]
	require.True(t, ok, "out of range birth date is reported")
	assert.Equal(t, vocab.PrisonerIRI("1_duplicate"), bound.Record)
	assert.Equal(t, "syntymäaika", bound.Field)

	rng, ok := byReason["date 1930-01-01 is before 1939-11-30"]
	require.True(t, ok, "out of range embedded date is reported")
	assert.Equal(t, "muita tietoja", rng.Field)

	missing, ok := byReason["missing id number"]
	require.True(t, ok)
	assert.Equal(t, "abc", missing.Value)

	empty, ok := byReason["no data about the person"]
	require.True(t, ok)
	assert.Equal(t, vocab.PrisonerIRI("2"), empty.Record)
}

func TestConvert_FieldBoundsApplyToEmbeddedRanges(t *testing.T) {
	m, err := NewMapping([]FieldConfig{
		{Column: "vankeuspaikat", Relation: vocab.LocationLiteral, Separator: ";", After: "1941-06-25", Before: "1944-09-19"},
		{Column: "muita tietoja", Relation: vocab.OtherInformation, Separator: ";", Before: "1940-12-31"},
	}, now)
	require.NoError(t, err)

	diag := audit.NewDiagnostics()
	rec := audit.NewRecorder(Pass, diag, nil, nil)
	csv := ",nimi,vankeuspaikat,muita tietoja\n" +
		"3,LAINE Veikko,KA: vanki 1.1.1940-2.2.1940,KA: vapautettu 1.1.1938-2.2.1938\n"
	g, err := NewConverter(m, normalize.DefaultRangeBounds(now), rec, nil).Convert(strings.NewReader(csv))
	require.NoError(t, err)

	var reasons []string
	for _, e := range diag.Entries() {
		reasons = append(reasons, e.Field+": "+e.Reason)
	}
	assert.Contains(t, reasons, "vankeuspaikat: date 1940-01-01 is before 1941-06-25")
	assert.Contains(t, reasons, "muita tietoja: date 1938-01-01 is before 1939-11-30", "unset side keeps the global bound")
	assert.True(t, g.Has(graph.T(vocab.PrisonerIRI("3"), vocab.LocationLiteral, graph.Literal("vanki"))))
}

func TestConvert_BadHeader(t *testing.T) {
	c := NewConverter(DefaultMapping(now), normalize.Bounds{}, nil, nil)
	_, err := c.Convert(strings.NewReader("nro\n1\n"))
	assert.Error(t, err)

	_, err = c.Convert(strings.NewReader(""))
	assert.Error(t, err)
}

func TestConvert_Remap(t *testing.T) {
	m, err := NewMapping([]FieldConfig{{
		Column:   "vankeuspaikat",
		Relation: vocab.LocationLiteral,
		Remap:    map[string]string{"Siestarjoki": "Siestarjoki, ven. Sestroretsk"},
	}}, now)
	require.NoError(t, err)

	g, err := NewConverter(m, normalize.Bounds{}, nil, nil).Convert(strings.NewReader(",nimi,vankeuspaikat\n5,LAINE Veikko,Siestarjoki\n"))
	require.NoError(t, err)
	assert.True(t, g.Has(graph.T(vocab.PrisonerIRI("5"), vocab.LocationLiteral, graph.Literal("Siestarjoki, ven. Sestroretsk"))))
}

func TestPrisonerNumber(t *testing.T) {
	tests := []struct {
		raw  string
		want string
		ok   bool
	}{
		{"12", "12", true},
		{" 007 ", "7", true},
		{"", "", false},
		{"-1", "", false},
		{"12a", "", false},
	}
	for _, tt := range tests {
		got, ok := prisonerNumber(tt.raw)
		assert.Equal(t, tt.ok, ok, tt.raw)
		assert.Equal(t, tt.want, got, tt.raw)
	}
}

func TestNewMapping_Errors(t *testing.T) {
	_, err := NewMapping([]FieldConfig{{Column: "a", Relation: "r"}, {Column: "a", Relation: "s"}}, now)
	assert.ErrorContains(t, err, "mapped twice")

	_, err = NewMapping([]FieldConfig{{Column: "a"}}, now)
	assert.ErrorContains(t, err, "no relation")

	_, err = NewMapping([]FieldConfig{{Column: "a", Relation: "r", Converter: "roman"}}, now)
	assert.ErrorContains(t, err, "unknown converter")

	_, err = NewMapping([]FieldConfig{{Column: "a", Relation: "r", After: "1.1.1939"}}, now)
	assert.Error(t, err)
}

func TestLoadMapping(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mapping.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`fields:
  - column: kuollut
    relation: http://ldf.fi/schema/warsa/prisoners/date_of_death
    separator: /
    converter: date
    after: "1939-11-30"
    before: today
    label_fi: Kuolinaika
`), 0644))

	m, err := LoadMapping(path, now)
	require.NoError(t, err)

	f, ok := m.Field("kuollut (tarkistettu)")
	require.True(t, ok)
	assert.Equal(t, vocab.DateOfDeath, f.Relation)
	assert.Equal(t, time.Date(2026, time.October, 15, 0, 0, 0, 0, time.UTC), m.fields["kuollut"].bounds.Before)

	schema := m.Schema()
	assert.True(t, schema.Has(graph.T(vocab.DateOfDeath, vocab.RDFType, graph.IRI(vocab.RDFProperty))))
	assert.True(t, schema.Has(graph.T(vocab.DateOfDeath, vocab.SKOSPrefLabel, graph.LangLiteral("Kuolinaika", "fi"))))
	assert.Equal(t, 2, schema.Len())
}

func TestDefaultMapping(t *testing.T) {
	m := DefaultMapping(now)
	assert.Len(t, m.Fields(), len(DefaultFields()))

	f, ok := m.Field("ammatti")
	require.True(t, ok)
	assert.Equal(t, ConvertLower, f.Converter)

	_, ok = m.Field("tuntematon")
	assert.False(t, ok)
}

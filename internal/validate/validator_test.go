package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ppiankov/powlink/internal/model"
)

const pnrMunicipality = "http://ldf.fi/pnr-schema#place_type_540"

func TestTop(t *testing.T) {
	_, ok := Top.Validate(nil, "x", "r")
	assert.False(t, ok)

	uri, ok := Top.Validate([]model.Candidate{{URI: "a"}, {URI: "b"}}, "x", "r")
	assert.True(t, ok)
	assert.Equal(t, "a", uri)
}

func TestTypeValidator(t *testing.T) {
	v := NewTypeValidator(pnrMunicipality)

	tests := []struct {
		name       string
		candidates []model.Candidate
		want       string
		ok         bool
	}{
		{"no candidates", nil, "", false},
		{
			"top has allowed type",
			[]model.Candidate{{URI: "http://ldf.fi/pnr/P_1", Types: []string{"x", pnrMunicipality}}},
			"http://ldf.fi/pnr/P_1", true,
		},
		{
			"top rejected even if runner-up would pass",
			[]model.Candidate{
				{URI: "http://ldf.fi/pnr/P_village", Types: []string{"village"}},
				{URI: "http://ldf.fi/pnr/P_2", Types: []string{pnrMunicipality}},
			},
			"", false,
		},
		{"untyped", []model.Candidate{{URI: "http://ldf.fi/pnr/P_3"}}, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := v.Validate(tt.candidates, "Viipuri", "prisoner_1")
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMinScore(t *testing.T) {
	v := MinScore(0.84)

	_, ok := v.Validate([]model.Candidate{{URI: "a", Score: 0.83}}, "", "")
	assert.False(t, ok)

	uri, ok := v.Validate([]model.Candidate{{URI: "a", Score: 0.84}}, "", "")
	assert.True(t, ok)
	assert.Equal(t, "a", uri)
	assert.Equal(t, "score >= 0.84", v.String())
}

func TestAll(t *testing.T) {
	v := All(MinScore(0.5), NewTypeValidator(pnrMunicipality))

	uri, ok := v.Validate([]model.Candidate{{URI: "a", Score: 0.9, Types: []string{pnrMunicipality}}}, "", "")
	assert.True(t, ok)
	assert.Equal(t, "a", uri)

	_, ok = v.Validate([]model.Candidate{{URI: "a", Score: 0.4, Types: []string{pnrMunicipality}}}, "", "")
	assert.False(t, ok)

	uri, ok = All().Validate([]model.Candidate{{URI: "a"}}, "", "")
	assert.True(t, ok)
	assert.Equal(t, "a", uri)
}

func TestFunc_SeesLiteralAndRecord(t *testing.T) {
	var gotLiteral, gotRecord string
	v := Func(func(c []model.Candidate, literal, record string) (string, bool) {
		gotLiteral, gotRecord = literal, record
		return "", false
	})

	v.Validate(nil, "Sorokka", "prisoner_7")
	assert.Equal(t, "Sorokka", gotLiteral)
	assert.Equal(t, "prisoner_7", gotRecord)
}

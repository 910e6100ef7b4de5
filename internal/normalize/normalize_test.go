package normalize

import (
	"strings"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC)

func slashPolicy() Policy {
	return Policy{Separator: SeparatorSlash, Ranges: DefaultRangeBounds(testNow)}
}

func semicolonPolicy() Policy {
	return Policy{Separator: SeparatorSemicolon, Ranges: DefaultRangeBounds(testNow)}
}

func nonEmptyAlpha() gopter.Gen {
	return gen.AlphaString().SuchThat(func(s string) bool { return s != "" })
}

func TestNormalize_SlashCitation(t *testing.T) {
	values := Normalize("Helsinki (KA T-26073/1)", slashPolicy())

	require.Len(t, values, 1)
	assert.Equal(t, "Helsinki", values[0].Value)
	assert.Equal(t, []string{"KA T-26073/1"}, values[0].Sources)
	assert.Empty(t, values[0].Errors)
}

func TestNormalize_SlashAlternatives(t *testing.T) {
	values := Normalize("Viipuri (KA 1) / Helsinki /Turku", slashPolicy())

	require.Len(t, values, 3)
	assert.Equal(t, "Viipuri", values[0].Value)
	assert.Equal(t, []string{"KA 1"}, values[0].Sources)
	assert.Equal(t, "Helsinki", values[1].Value)
	assert.Empty(t, values[1].Sources)
	assert.Equal(t, "Turku", values[2].Value)
}

func TestNormalize_SlashTrailingContentKeepsOriginal(t *testing.T) {
	values := Normalize("Helsinki (KA 1) lisätieto", slashPolicy())

	require.Len(t, values, 1)
	assert.Equal(t, "Helsinki (KA 1) lisätieto", values[0].Value)
	assert.Empty(t, values[0].Sources)
	require.Len(t, values[0].Errors, 1)
	assert.Contains(t, values[0].Errors[0], "content after source citation")
}

func TestNormalize_SemicolonEntryWithRange(t *testing.T) {
	values := Normalize("lähde: Kuolinsyy tapaturma 1.1.1943-5.1.1943", semicolonPolicy())

	require.Len(t, values, 1)
	v := values[0]
	assert.Equal(t, "Kuolinsyy tapaturma", v.Value)
	assert.Equal(t, []string{"lähde"}, v.Sources)
	assert.Equal(t, "1943-01-01", v.DateBegin.String())
	assert.Equal(t, "1943-01-05", v.DateEnd.String())
	assert.Empty(t, v.Errors)
}

func TestNormalize_SemicolonRangeOutOfBounds(t *testing.T) {
	values := Normalize("lähde: Kuolinsyy 1.1.1938-5.1.1943", semicolonPolicy())

	require.Len(t, values, 1)
	assert.Equal(t, "Kuolinsyy", values[0].Value)
	require.Len(t, values[0].Errors, 1)
	assert.Contains(t, values[0].Errors[0], "before 1939-11-30")

	values = Normalize("lähde: Kuolinsyy 1.1.1943-5.1.2030", semicolonPolicy())
	require.Len(t, values, 1)
	require.Len(t, values[0].Errors, 1)
	assert.Contains(t, values[0].Errors[0], "after 2024-06-01")
}

func TestNormalize_SemicolonSecondSeparator(t *testing.T) {
	entry := "KA: vanki: kuoli leirillä"
	values := Normalize(entry, semicolonPolicy())

	require.Len(t, values, 1)
	assert.Equal(t, entry, values[0].Value)
	assert.Empty(t, values[0].Sources)
	assert.NotEmpty(t, values[0].Errors)
}

func TestNormalize_DropsBlankComponents(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		policy Policy
		want   int
	}{
		{"empty plain", "   ", Policy{}, 0},
		{"plain", " sotamies ", Policy{}, 1},
		{"semicolon blanks", "a; ;b;", semicolonPolicy(), 2},
		{"slash blanks", "a / / b", slashPolicy(), 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.raw, tt.policy)
			assert.Len(t, got, tt.want)
			for _, v := range got {
				assert.Equal(t, strings.TrimSpace(v.Value), v.Value)
			}
		})
	}
}

func TestNormalize_Properties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	properties.Property("trailing citation becomes the only source", prop.ForAll(
		func(value, source string) bool {
			got := Normalize(value+" ("+source+")", slashPolicy())
			return len(got) == 1 &&
				got[0].Value == value &&
				len(got[0].Sources) == 1 &&
				got[0].Sources[0] == source &&
				len(got[0].Errors) == 0
		},
		nonEmptyAlpha(),
		nonEmptyAlpha(),
	))

	properties.Property("second separator reverts to whole entry", prop.ForAll(
		func(a, b, c string) bool {
			entry := a + ": " + b + ": " + c
			got := Normalize(entry, semicolonPolicy())
			return len(got) == 1 &&
				got[0].Value == entry &&
				len(got[0].Sources) == 0 &&
				len(got[0].Errors) > 0
		},
		nonEmptyAlpha(),
		nonEmptyAlpha(),
		nonEmptyAlpha(),
	))

	properties.TestingRun(t)
}

func TestParseSeparator(t *testing.T) {
	assert.Equal(t, SeparatorSlash, ParseSeparator("/"))
	assert.Equal(t, SeparatorSemicolon, ParseSeparator("semicolon"))
	assert.Equal(t, SeparatorNone, ParseSeparator(""))
}

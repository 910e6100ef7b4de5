package link

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/ppiankov/powlink/internal/lookup"
	"github.com/ppiankov/powlink/internal/model"
	"github.com/ppiankov/powlink/internal/validate"
	"github.com/ppiankov/powlink/internal/vocab"
)

// Camps links captivity locations through the prisoners graph
func Camps(l lookup.Lookup) FieldTask {
	return FieldTask{
		Name:   "camps",
		Source: vocab.LocationLiteral,
		Target: vocab.Location,
		Lookup: l,
	}
}

// Ranks links military ranks
func Ranks(l lookup.Lookup, minScore float64) FieldTask {
	return FieldTask{
		Name:     "ranks",
		Source:   vocab.RankLiteral,
		Target:   vocab.Rank,
		Lookup:   l,
		MinScore: minScore,
	}
}

// Occupations links occupations. Values are lower-cased when lower is set,
// matching the case of the occupation registry labels.
func Occupations(l lookup.Lookup, minScore float64, lower bool) FieldTask {
	task := FieldTask{
		Name:     "occupations",
		Source:   vocab.OccupationLiteral,
		Target:   vocab.Occupation,
		Lookup:   l,
		MinScore: minScore,
	}
	if lower {
		task.Preprocess = func(s string) string {
			return cases.Lower(language.Finnish).String(strings.TrimSpace(s))
		}
	}
	return task
}

// Municipalities returns the municipality tasks: the wartime municipality
// dictionary for birth, domicile, residence and capture, and the place name
// registry for the place of death. Death place candidates must carry one
// of deathTypes.
func Municipalities(dictionary, pnr lookup.Lookup, deathTypes []string) []FieldTask {
	pairs := []struct{ source, target string }{
		{vocab.MunicipalityOfBirthLiteral, vocab.MunicipalityOfBirth},
		{vocab.MunicipalityOfDomicileLiteral, vocab.MunicipalityOfDomicile},
		{vocab.MunicipalityOfResidenceLiteral, vocab.MunicipalityOfResidence},
		{vocab.MunicipalityOfCaptureLiteral, vocab.MunicipalityOfCapture},
	}

	tasks := make([]FieldTask, 0, len(pairs)+1)
	for _, p := range pairs {
		tasks = append(tasks, FieldTask{
			Name:   "municipalities/" + vocab.LocalName(p.target),
			Source: p.source,
			Target: p.target,
			Lookup: dictionary,
		})
	}

	death := FieldTask{
		Name:   "municipalities/" + vocab.LocalName(vocab.MunicipalityOfDeath),
		Source: vocab.MunicipalityOfDeathLiteral,
		Target: vocab.MunicipalityOfDeath,
		Lookup: pnr,
	}
	if len(deathTypes) > 0 {
		death.Validator = validate.NewTypeValidator(deathTypes...)
	}
	return append(tasks, death)
}

// RemapTable returns the remap table for an entity type, nil when none
func RemapTable(cfg *model.LinkingConfig, entity string) map[string]string {
	if cfg == nil {
		return nil
	}
	return cfg.Remaps[entity]
}

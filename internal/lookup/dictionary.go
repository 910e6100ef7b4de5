package lookup

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"github.com/ppiankov/powlink/internal/graph"
	"github.com/ppiankov/powlink/internal/model"
	"github.com/ppiankov/powlink/internal/normalize"
	"github.com/ppiankov/powlink/internal/vocab"
)

// DictionaryLookup matches values against the labels of a reference graph
// export held in memory. Exact folded labels win; otherwise labels within
// the minimum similarity are returned.
type DictionaryLookup struct {
	exact         map[string][]entry
	entries       []entry
	minSimilarity float64
	logger        *zap.Logger
}

type entry struct {
	uri   string
	label string
	key   string
	types []string
}

// NewDictionaryLookup indexes every skos:prefLabel of subjects typed class.
// An empty class indexes every labelled subject.
func NewDictionaryLookup(g *graph.Graph, class string, minSimilarity float64, logger *zap.Logger) *DictionaryLookup {
	if logger == nil {
		logger = zap.NewNop()
	}
	d := &DictionaryLookup{
		exact:         make(map[string][]entry),
		minSimilarity: minSimilarity,
		logger:        logger,
	}

	for _, t := range g.WithPredicate(vocab.SKOSPrefLabel) {
		if !t.S.IsIRI() || t.O.Kind != graph.KindLiteral {
			continue
		}
		var types []string
		for _, o := range g.Objects(t.S, vocab.RDFType) {
			types = append(types, o.Value)
		}
		if class != "" && !contains(types, class) {
			continue
		}

		e := entry{uri: t.S.Value, label: t.O.Value, key: normalize.Fold(t.O.Value), types: types}
		d.exact[e.key] = append(d.exact[e.key], e)
		d.entries = append(d.entries, e)
	}
	return d
}

// Len returns the number of indexed labels
func (d *DictionaryLookup) Len() int {
	return len(d.entries)
}

func (d *DictionaryLookup) Lookup(_ context.Context, value string) ([]model.Candidate, error) {
	key := normalize.Fold(value)
	if key == "" {
		return []model.Candidate{}, nil
	}

	byURI := make(map[string]model.Candidate)
	if hits, ok := d.exact[key]; ok {
		for _, e := range hits {
			byURI[e.uri] = d.candidate(value, e, 1)
		}
	} else if d.minSimilarity > 0 {
		for _, e := range d.entries {
			s := Similarity(key, e.key)
			if s < d.minSimilarity {
				continue
			}
			if prev, ok := byURI[e.uri]; !ok || s > prev.Score {
				byURI[e.uri] = d.candidate(value, e, s)
			}
		}
	}

	candidates := make([]model.Candidate, 0, len(byURI))
	for _, c := range byURI {
		candidates = append(candidates, c)
	}
	if len(candidates) == 0 {
		d.logger.Warn("no match", zap.String("backend", "dictionary"), zap.String("value", value))
		return candidates, nil
	}

	sort.Slice(candidates, func(i, j int) bool { return candidates[i].URI < candidates[j].URI })
	model.SortCandidates(candidates)
	return candidates, nil
}

func (d *DictionaryLookup) candidate(value string, e entry, score float64) model.Candidate {
	return model.Candidate{Value: value, URI: e.uri, Label: e.label, Score: score, Types: e.types}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

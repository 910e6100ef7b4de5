package lookup

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/ppiankov/powlink/internal/model"
	"github.com/ppiankov/powlink/internal/sparql"
)

// ValuesPlaceholder is replaced by the quoted-string-escaped query value
const ValuesPlaceholder = "<VALUES>"

// SparqlValuesLookup runs a SELECT template against the graph-query
// endpoint. Every distinct ?id of the result is an exact-match candidate.
type SparqlValuesLookup struct {
	client   *sparql.Client
	template string
	idVar    string
	logger   *zap.Logger
}

// NewSparqlValuesLookup creates a lookup for a template containing
// ValuesPlaceholder inside a string literal
func NewSparqlValuesLookup(client *sparql.Client, template string, logger *zap.Logger) (*SparqlValuesLookup, error) {
	if !strings.Contains(template, ValuesPlaceholder) {
		return nil, fmt.Errorf("query template has no %s placeholder", ValuesPlaceholder)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SparqlValuesLookup{client: client, template: template, idVar: "id", logger: logger}, nil
}

var literalEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`, "\r", `\r`)

func (l *SparqlValuesLookup) Lookup(ctx context.Context, value string) ([]model.Candidate, error) {
	query := strings.ReplaceAll(l.template, ValuesPlaceholder, literalEscaper.Replace(value))

	rows, err := l.client.Select(ctx, query)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var candidates []model.Candidate
	for _, row := range rows {
		id, ok := row[l.idVar]
		if !ok || id.Type != "uri" || seen[id.Value] {
			continue
		}
		seen[id.Value] = true
		candidates = append(candidates, model.Candidate{
			Value: value,
			URI:   id.Value,
			Label: value,
			Score: 1,
		})
	}

	if len(candidates) == 0 {
		l.logger.Warn("no match", zap.String("backend", "sparql"), zap.String("value", value))
		return []model.Candidate{}, nil
	}

	sort.SliceStable(candidates, func(i, j int) bool { return candidates[i].URI < candidates[j].URI })
	return candidates, nil
}

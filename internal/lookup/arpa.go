package lookup

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/ppiankov/powlink/internal/fetch"
	"github.com/ppiankov/powlink/internal/model"
)

// ArpaClient queries an ARPA-style fuzzy-match service: the value is posted
// as the text form field and the service answers with JSON results
type ArpaClient struct {
	name     string
	endpoint string
	fetcher  *fetch.Fetcher
	logger   *zap.Logger
}

// NewArpaClient creates a client. name labels the backend in logs and
// cache keys.
func NewArpaClient(name, endpoint string, fetcher *fetch.Fetcher, logger *zap.Logger) *ArpaClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ArpaClient{name: name, endpoint: endpoint, fetcher: fetcher, logger: logger}
}

// Name returns the backend label
func (c *ArpaClient) Name() string {
	return c.name
}

type arpaResponse struct {
	Results []arpaResult `json:"results"`
}

type arpaResult struct {
	ID         string                     `json:"id"`
	Label      string                     `json:"label"`
	Matches    []string                   `json:"matches"`
	Score      *float64                   `json:"score"`
	Properties map[string]json.RawMessage `json:"properties"`
}

func (c *ArpaClient) Lookup(ctx context.Context, value string) ([]model.Candidate, error) {
	resp, err := c.fetcher.FetchWithRetry(ctx, fetch.Request{
		URL:  c.endpoint,
		Form: url.Values{"text": {value}},
	})
	if err != nil {
		return nil, fmt.Errorf("arpa %s: %w", c.name, err)
	}

	var doc arpaResponse
	if err := json.Unmarshal(resp.Body, &doc); err != nil {
		return nil, fmt.Errorf("decode arpa %s response: %w", c.name, err)
	}

	candidates := make([]model.Candidate, 0, len(doc.Results))
	seen := make(map[string]bool)
	ceiling := 1.0
	for _, r := range doc.Results {
		id := strings.Trim(r.ID, "<>")
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true

		label := r.Label
		if label == "" && len(r.Matches) > 0 {
			label = r.Matches[0]
		}

		// Without a backend score the answer order is the ranking: the
		// derived similarity never lifts a result above an earlier one.
		var score float64
		if r.Score != nil {
			score = *r.Score
		} else {
			score = min(bestSimilarity(value, label, r.Matches), ceiling)
		}
		ceiling = score

		candidates = append(candidates, model.Candidate{
			Value: value,
			URI:   id,
			Label: label,
			Score: score,
			Types: propertyValues(r.Properties["type"]),
			Rank:  len(candidates),
		})
	}

	if len(candidates) == 0 {
		c.logger.Warn("no match", zap.String("backend", c.name), zap.String("value", value))
		return candidates, nil
	}

	model.SortCandidates(candidates)
	return candidates, nil
}

func bestSimilarity(value, label string, matches []string) float64 {
	best := 0.0
	if label != "" {
		best = Similarity(value, label)
	}
	for _, m := range matches {
		if s := Similarity(value, m); s > best {
			best = s
		}
	}
	return best
}

// propertyValues reads a property that the service returns either as a
// string or as a list of strings. IRIs may be wrapped in angle brackets.
func propertyValues(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}

	var list []string
	if err := json.Unmarshal(raw, &list); err != nil {
		var single string
		if err := json.Unmarshal(raw, &single); err != nil {
			return nil
		}
		list = []string{single}
	}

	out := make([]string, 0, len(list))
	for _, v := range list {
		if v = strings.Trim(strings.TrimSpace(v), "<>"); v != "" {
			out = append(out, v)
		}
	}
	return out
}

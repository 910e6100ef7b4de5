package lookup

import (
	"context"
	"net/url"
	"strings"

	"github.com/ppiankov/powlink/internal/model"
)

// PriorityClassifier assigns target vocabularies to tiers. Candidates with
// equal scores prefer the higher tier.
type PriorityClassifier struct {
	primary   []string
	secondary []string
}

// NewPriorityClassifier creates a classifier from configured URI prefixes.
// A prefix that is a bare host name also matches its subdomains.
func NewPriorityClassifier(config *model.VocabularyConfig) *PriorityClassifier {
	if config == nil {
		config = &model.DefaultConfig().Vocabulary
	}
	return &PriorityClassifier{
		primary:   config.Primary,
		secondary: config.Secondary,
	}
}

// Classify returns the tier of a target URI
func (p *PriorityClassifier) Classify(uri string) model.VocabularyTier {
	if matchesAny(uri, p.primary) {
		return model.TierPrimary
	}
	if matchesAny(uri, p.secondary) {
		return model.TierSecondary
	}
	return model.TierTertiary
}

func matchesAny(uri string, prefixes []string) bool {
	host := ""
	if parsed, err := url.Parse(uri); err == nil {
		host = parsed.Hostname()
	}

	for _, prefix := range prefixes {
		if strings.Contains(prefix, "/") {
			if strings.HasPrefix(uri, prefix) {
				return true
			}
			continue
		}
		if host == prefix || strings.HasSuffix(host, "."+prefix) {
			return true
		}
	}
	return false
}

// Prioritized sets candidate tiers and orders candidates by score, then
// tier, then URI
type Prioritized struct {
	inner      Lookup
	classifier *PriorityClassifier
}

// NewPrioritized wraps inner
func NewPrioritized(inner Lookup, classifier *PriorityClassifier) *Prioritized {
	return &Prioritized{inner: inner, classifier: classifier}
}

func (p *Prioritized) Lookup(ctx context.Context, value string) ([]model.Candidate, error) {
	candidates, err := p.inner.Lookup(ctx, value)
	if err != nil {
		return nil, err
	}
	for i := range candidates {
		candidates[i].Tier = p.classifier.Classify(candidates[i].URI)
	}
	model.SortCandidates(candidates)
	return candidates, nil
}

package model

import "sort"

// Candidate is an unconfirmed match returned by a lookup backend
type Candidate struct {
	Value string         `json:"value"`           // Query value that produced the candidate
	URI   string         `json:"uri"`             // Target entity
	Label string         `json:"label,omitempty"` // Matched label, when the backend reports one
	Score float64        `json:"score"`           // Confidence in [0, 1]
	Tier  VocabularyTier `json:"tier"`            // Priority of the target vocabulary
	Types []string       `json:"types,omitempty"` // rdf:type values reported by the backend
	Rank  int            `json:"rank,omitempty"`  // Position in the backend's answer
}

// VocabularyTier ranks target vocabularies for tie-breaking
type VocabularyTier int

const (
	TierUnknown   VocabularyTier = 0 // Not yet classified
	TierPrimary   VocabularyTier = 1 // Curated registry of the target domain
	TierSecondary VocabularyTier = 2 // Related registry, e.g. historical place names
	TierTertiary  VocabularyTier = 3 // Anything else
)

func (t VocabularyTier) String() string {
	switch t {
	case TierPrimary:
		return "primary"
	case TierSecondary:
		return "secondary"
	case TierTertiary:
		return "tertiary"
	default:
		return "unknown"
	}
}

// rank orders unknown tiers after the classified ones
func (t VocabularyTier) rank() int {
	if t == TierUnknown {
		return int(TierTertiary) + 1
	}
	return int(t)
}

// SortCandidates orders candidates by score descending, then vocabulary
// tier, then backend position, then URI so equal inputs always give the
// same order
func SortCandidates(cands []Candidate) {
	sort.SliceStable(cands, func(i, j int) bool {
		a, b := cands[i], cands[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.Tier.rank() != b.Tier.rank() {
			return a.Tier.rank() < b.Tier.rank()
		}
		if a.Rank != b.Rank {
			return a.Rank < b.Rank
		}
		return a.URI < b.URI
	})
}

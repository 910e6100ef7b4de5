package model

import "sort"

// Link is an accepted (record, relation, target) assertion
type Link struct {
	Record   string  `json:"record"`
	Relation string  `json:"relation"`
	Target   string  `json:"target"`
	Source   string  `json:"source,omitempty"` // Provenance citation
	Score    float64 `json:"score,omitempty"`
	Literal  string  `json:"literal,omitempty"` // Original value the link was resolved from
}

type linkKey struct {
	record, relation, target string
}

// LinkSet is an insertion-ordered set of links. Adding the same triple twice
// keeps the first one.
type LinkSet struct {
	links []Link
	index map[linkKey]int
}

// NewLinkSet creates an empty link set
func NewLinkSet() *LinkSet {
	return &LinkSet{index: make(map[linkKey]int)}
}

// Add inserts a link and reports whether it was new
func (s *LinkSet) Add(l Link) bool {
	k := linkKey{l.Record, l.Relation, l.Target}
	if _, ok := s.index[k]; ok {
		return false
	}
	s.index[k] = len(s.links)
	s.links = append(s.links, l)
	return true
}

// Merge adds every link of other
func (s *LinkSet) Merge(other *LinkSet) {
	if other == nil {
		return
	}
	for _, l := range other.links {
		s.Add(l)
	}
}

// Len returns the number of links
func (s *LinkSet) Len() int {
	return len(s.links)
}

// Links returns the links sorted by record, relation and target
func (s *LinkSet) Links() []Link {
	out := make([]Link, len(s.links))
	copy(out, s.links)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Record != out[j].Record {
			return out[i].Record < out[j].Record
		}
		if out[i].Relation != out[j].Relation {
			return out[i].Relation < out[j].Relation
		}
		return out[i].Target < out[j].Target
	})
	return out
}

// Outcome classifies what happened to one value during a pass
type Outcome string

const (
	OutcomeAccepted   Outcome = "accepted"
	OutcomeRejected   Outcome = "rejected"   // Candidate found but refused by a validator or threshold
	OutcomeUnresolved Outcome = "unresolved" // No candidate at all
	OutcomeAmbiguous  Outcome = "ambiguous"  // Near-tie flagged for review
)

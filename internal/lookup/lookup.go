// Package lookup turns a normalized literal into ranked candidate entities.
// Backends query one value at a time; decorators add remapping, caching and
// vocabulary priority on top of any backend.
package lookup

import (
	"context"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"

	"github.com/ppiankov/powlink/internal/model"
	"github.com/ppiankov/powlink/internal/normalize"
)

// Lookup resolves one value. A miss is an empty slice; the error is reserved
// for infrastructure failures that survived the retry budget.
type Lookup interface {
	Lookup(ctx context.Context, value string) ([]model.Candidate, error)
}

// Func adapts a function to Lookup
type Func func(ctx context.Context, value string) ([]model.Candidate, error)

func (f Func) Lookup(ctx context.Context, value string) ([]model.Candidate, error) {
	return f(ctx, value)
}

// Similarity is the normalized Levenshtein similarity of the folded
// strings, in [0, 1]
func Similarity(a, b string) float64 {
	a, b = normalize.Fold(a), normalize.Fold(b)
	if a == b {
		return 1
	}
	longest := utf8.RuneCountInString(a)
	if n := utf8.RuneCountInString(b); n > longest {
		longest = n
	}
	if longest == 0 {
		return 1
	}
	return 1 - float64(levenshtein.ComputeDistance(a, b))/float64(longest)
}

package lookup

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/ppiankov/powlink/internal/model"
	"github.com/ppiankov/powlink/internal/normalize"
)

// Remapped rewrites known historical name variants before querying the
// wrapped lookup. The remapped value always wins over the raw one.
type Remapped struct {
	inner  Lookup
	table  map[string]string
	logger *zap.Logger
}

// NewRemapped wraps inner with a remap table. Raw values match the table
// keys case-insensitively.
func NewRemapped(inner Lookup, table map[string]string, logger *zap.Logger) *Remapped {
	if logger == nil {
		logger = zap.NewNop()
	}
	folded := make(map[string]string, len(table))
	for raw, query := range table {
		folded[normalize.Fold(raw)] = query
	}
	return &Remapped{inner: inner, table: folded, logger: logger}
}

// Rewrite returns the query value for raw
func (r *Remapped) Rewrite(raw string) string {
	v := strings.TrimSpace(raw)
	if mapped, ok := r.table[normalize.Fold(v)]; ok {
		return mapped
	}
	return v
}

func (r *Remapped) Lookup(ctx context.Context, value string) ([]model.Candidate, error) {
	query := r.Rewrite(value)
	if query != strings.TrimSpace(value) {
		r.logger.Debug("remapped lookup value", zap.String("value", value), zap.String("query", query))
	}

	candidates, err := r.inner.Lookup(ctx, query)
	if err != nil {
		return nil, err
	}
	for i := range candidates {
		candidates[i].Value = value
	}
	return candidates, nil
}

package match

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/ppiankov/powlink/internal/graph"
)

// TrainingLink is a known (prisoner record, canonical person) match
type TrainingLink struct {
	Record string
	Person string
}

// ReadTrainingLinks decodes a JSON list of [record, person] pairs
func ReadTrainingLinks(r io.Reader) ([]TrainingLink, error) {
	var raw [][]string
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode training links: %w", err)
	}

	links := make([]TrainingLink, 0, len(raw))
	for i, pair := range raw {
		if len(pair) != 2 {
			return nil, fmt.Errorf("training link %d has %d elements, want 2", i, len(pair))
		}
		links = append(links, TrainingLink{Record: pair[0], Person: pair[1]})
	}
	return links, nil
}

// LoadTrainingLinks reads the training link file at path
func LoadTrainingLinks(path string) ([]TrainingLink, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open training links: %w", err)
	}
	defer func() { _ = f.Close() }()
	return ReadTrainingLinks(f)
}

// PruneResult reports why training links were dropped
type PruneResult struct {
	Kept          []TrainingLink
	Missing       int // Record not in the snapshot
	Redacted      int // Record has had its personal information removed
	UnknownTarget int // Person not among the canonical persons
}

// Dropped returns the number of dropped links
func (p PruneResult) Dropped() int {
	return p.Missing + p.Redacted + p.UnknownTarget
}

// PruneTraining drops links that cannot be used against this snapshot.
// A nil persons set skips the target check.
func PruneTraining(links []TrainingLink, records *graph.Graph, persons map[string]bool, logger *zap.Logger) PruneResult {
	if logger == nil {
		logger = zap.NewNop()
	}

	var res PruneResult
	for _, l := range links {
		switch {
		case !records.HasSubject(graph.IRI(l.Record)):
			logger.Warn("prisoner found in training links but not present in data", zap.String("record", l.Record))
			res.Missing++
		case Redacted(records, l.Record):
			logger.Info("pruning redacted prisoner from training data", zap.String("record", l.Record))
			res.Redacted++
		case persons != nil && !persons[l.Person]:
			logger.Warn("person found in training links but not among canonical persons",
				zap.String("record", l.Record), zap.String("person", l.Person))
			res.UnknownTarget++
		default:
			res.Kept = append(res.Kept, l)
		}
	}

	logger.Info("training links pruned",
		zap.Int("kept", len(res.Kept)),
		zap.Int("missing", res.Missing),
		zap.Int("redacted", res.Redacted),
		zap.Int("unknown_target", res.UnknownTarget))
	return res
}

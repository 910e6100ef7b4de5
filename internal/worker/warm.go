package worker

import (
	"context"
)

// LookupFunc resolves one value. Warm only keeps its error.
type LookupFunc func(ctx context.Context, value string) error

// WarmStats summarizes a prefetch
type WarmStats struct {
	Values int
	Failed int
}

type warmJob struct {
	value string
	fn    LookupFunc
}

type warmResult struct {
	value string
	err   error
}

func (r *warmResult) GetError() error {
	return r.err
}

func (j *warmJob) Execute(ctx context.Context) Result {
	if err := ctx.Err(); err != nil {
		return &warmResult{value: j.value, err: err}
	}
	return &warmResult{value: j.value, err: j.fn(ctx, j.value)}
}

// Warm calls fn once for every distinct non-empty value on the given number
// of goroutines. Failures are counted, not returned: the caller repeats the
// lookups afterwards and handles errors there.
func Warm(ctx context.Context, values []string, workers int, fn LookupFunc) WarmStats {
	distinct := Distinct(values)
	if len(distinct) == 0 || fn == nil {
		return WarmStats{}
	}

	pool := NewPool(ctx, workers)
	pool.Start()

	for _, v := range distinct {
		if !pool.Submit(&warmJob{value: v, fn: fn}) {
			break
		}
	}

	stats := WarmStats{Values: len(distinct)}
	results := pool.Wait()
	for _, r := range results {
		if r.GetError() != nil {
			stats.Failed++
		}
	}
	// Jobs never submitted because of cancellation count as failed
	stats.Failed += len(distinct) - len(results)
	return stats
}

// Distinct returns the non-empty values in first-seen order
func Distinct(values []string) []string {
	seen := make(map[string]bool, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

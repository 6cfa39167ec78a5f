// internal/search/batch.go
package search

import (
	"context"
	"sync"
	"time"

	"github.com/curios-devops/curios-search/internal/models"
)

// BatchOptions tune the staggered multi-query search.
type BatchOptions struct {
	// MaxQueries bounds how many queries run; extras are dropped.
	MaxQueries int
	// Stagger is the per-index launch delay, spreading load on providers.
	Stagger time.Duration
}

func (b *BatchOptions) applyDefaults() {
	if b.MaxQueries <= 0 {
		b.MaxQueries = 3
	}
	if b.Stagger <= 0 {
		b.Stagger = 500 * time.Millisecond
	}
}

// BatchResult pairs one query with its bundle. Err is non-nil only for
// invalid input; provider failures degrade the bundle instead.
type BatchResult struct {
	Query  string
	Bundle *models.RetrievalBundle
	Err    error
}

// RetrieveBatch runs up to MaxQueries text searches concurrently, staggering
// launches so providers are not hit all at once. Results come back in input
// order regardless of completion order.
func (o *Orchestrator) RetrieveBatch(ctx context.Context, queries []string, opts BatchOptions) []BatchResult {
	opts.applyDefaults()

	if len(queries) > opts.MaxQueries {
		o.logger.Warn("batch truncated", map[string]interface{}{
			"requested": len(queries),
			"limit":     opts.MaxQueries,
		})
		queries = queries[:opts.MaxQueries]
	}

	results := make([]BatchResult, len(queries))
	var wg sync.WaitGroup
	for i, query := range queries {
		wg.Add(1)
		go func(idx int, q string) {
			defer wg.Done()

			if idx > 0 {
				select {
				case <-time.After(time.Duration(idx) * opts.Stagger):
				case <-ctx.Done():
					results[idx] = BatchResult{Query: q, Err: ctx.Err()}
					return
				}
			}

			bundle, err := o.Retrieve(ctx, q, nil, nil)
			results[idx] = BatchResult{Query: q, Bundle: bundle, Err: err}
		}(i, query)
	}
	wg.Wait()

	return results
}

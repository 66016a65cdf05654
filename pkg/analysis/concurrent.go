/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: concurrent.go
Description: Column-partitioned parallel scan. Columns never share state, so each
worker owns a disjoint range of hypothesis sets and reads the buffers read-only; the
only synchronization is the final join.
*/

package analysis

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// chunksPerWorker splits the row into more ranges than workers so a few
// expensive array columns do not pin a single worker.
const chunksPerWorker = 4

// AnalyzeConcurrent is Analyze with columns spread over workers goroutines.
// workers <= 0 uses GOMAXPROCS. The context is checked between column ranges.
func AnalyzeConcurrent(ctx context.Context, in Input, workers int) ([]ColumnStats, error) {
	s, err := NewScanner(in)
	if err != nil {
		return nil, err
	}
	if err := s.ScanConcurrent(ctx, workers); err != nil {
		return nil, err
	}
	return s.Stats(), nil
}

// ScanConcurrent scans all rows, partitioning columns across workers.
func (s *Scanner) ScanConcurrent(ctx context.Context, workers int) error {
	if s.rowLength == 0 {
		return nil
	}
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	chunk := max(1, s.rowLength/(workers*chunksPerWorker))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for lo := 0; lo < s.rowLength; lo += chunk {
		lo := lo
		hi := min(lo+chunk, s.rowLength)
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			s.scan(0, s.rowCount, lo, hi)
			return nil
		})
	}
	return g.Wait()
}

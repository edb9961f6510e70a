package utils

import (
	"context"
	"runtime"
)

// RunInBatches calls fn for every index in [0, total) in chunks of batchSize.
// After each chunk it reports progress, yields the processor and checks ctx.
func RunInBatches(ctx context.Context, total, batchSize int, fn func(i int), onBatch func(done, total int)) error {
	if batchSize <= 0 {
		batchSize = total
	}

	for start := 0; start < total; start += batchSize {
		end := start + batchSize
		if end > total {
			end = total
		}
		for i := start; i < end; i++ {
			fn(i)
		}

		if onBatch != nil {
			onBatch(end, total)
		}
		runtime.Gosched()

		if err := ctx.Err(); err != nil {
			return err
		}
	}
	return nil
}

// Scale maps done/total onto the [from, to] percent range.
func Scale(done, total, from, to int) int {
	if total <= 0 {
		return to
	}
	return from + (done*(to-from))/total
}

package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/bamsammich/agcli/internal/event"
	"github.com/bamsammich/agcli/internal/manifest"
	"github.com/bamsammich/agcli/internal/progress"
	"github.com/bamsammich/agcli/internal/stats"
)

// batchFunc handles one file of a worker's batch. It runs on the worker's
// goroutine and must be safe to call concurrently with other workers.
type batchFunc func(ctx context.Context, workerID int, f manifest.IntegrityFile)

// runBatches partitions files across threads workers, registers one bar per
// worker on mux and blocks until every worker has drained its batch or ctx
// is cancelled. Cancellation is observed between files only.
func runBatches(
	ctx context.Context,
	files []manifest.IntegrityFile,
	threads int,
	mux *progress.Mux,
	fn batchFunc,
) {
	batches := Partition(files, threads)
	bars := make([]*progress.Bar, len(batches))
	for i, batch := range batches {
		bars[i] = mux.RegisterBar(int64(len(batch)), workerLabel(i+1, batch))
	}

	var wg sync.WaitGroup
	for i, batch := range batches {
		wg.Add(1)
		go func(id int, batch []manifest.IntegrityFile, bar *progress.Bar) {
			defer wg.Done()
			for _, f := range batch {
				if ctx.Err() != nil {
					return
				}
				fn(ctx, id, f)
				bar.Advance(1)
			}
		}(i+1, batch, bars[i])
	}
	wg.Wait()
	mux.Finish()
}

func workerLabel(id int, batch []manifest.IntegrityFile) string {
	return fmt.Sprintf("Thread %d (%s GB of %d files)",
		id, stats.GBString(manifest.TotalSize(batch)), len(batch))
}

func emitEvent(ch chan<- event.Event, e event.Event) {
	if ch == nil {
		return
	}
	e.Timestamp = time.Now()
	select {
	case ch <- e:
	default:
	}
}

// orDiscard returns mux, or a silent mux when nil.
func orDiscard(mux *progress.Mux) *progress.Mux {
	if mux != nil {
		return mux
	}
	return progress.NewWithOptions(progress.Options{})
}

func orCollector(w stats.Writer) stats.Writer {
	if w != nil {
		return w
	}
	return stats.NewCollector()
}

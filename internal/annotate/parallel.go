package annotate

import (
	"context"
	"runtime"
	"sync"

	"github.com/circmine/circmine/internal/junction"
)

// WorkItem holds one junction table queued for annotation.
type WorkItem struct {
	Seq  int
	Path string
}

// WorkResult holds the annotation output for a single junction table.
type WorkResult struct {
	Seq   int
	Path  string
	Cands []*junction.Candidate
	Err   error
}

// ParallelAnnotateFiles annotates junction tables using a pool of workers.
// Each file is an independent annotation call over the shared read-only
// reference, so this is plain task-level parallelism. Results are sent to the
// returned channel in arrival order (not sequence order); use OrderedCollect
// to consume them in sequence-number order. If workers is 0, runtime.NumCPU()
// is used.
func (p *Pipeline) ParallelAnnotateFiles(ctx context.Context, paths []string, workers int) <-chan WorkResult {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > len(paths) {
		workers = len(paths)
	}

	items := make(chan WorkItem, len(paths))
	for i, path := range paths {
		items <- WorkItem{Seq: i, Path: path}
	}
	close(items)

	results := make(chan WorkResult, 2*workers)

	var wg sync.WaitGroup
	wg.Add(workers)

	for range workers {
		go func() {
			defer wg.Done()
			for item := range items {
				cands, err := p.AnnotateFile(ctx, item.Path)
				results <- WorkResult{
					Seq:   item.Seq,
					Path:  item.Path,
					Cands: cands,
					Err:   err,
				}
			}
		}()
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	return results
}

// OrderedCollect calls fn for each result in sequence-number order. It
// buffers out-of-order results in a pending map and emits them as soon as the
// next expected sequence number is available. Blocks until the results
// channel is closed.
func OrderedCollect(results <-chan WorkResult, fn func(WorkResult) error) error {
	pending := make(map[int]WorkResult)
	nextSeq := 0

	for r := range results {
		pending[r.Seq] = r

		for {
			rr, ok := pending[nextSeq]
			if !ok {
				break
			}
			delete(pending, nextSeq)
			nextSeq++
			if err := fn(rr); err != nil {
				// Drain remaining results to unblock workers.
				for range results {
				}
				return err
			}
		}
	}

	return nil
}

package entropy8

import (
	"math"
	"runtime"
	"sync"
)

// workerPool bounds the goroutines a write-mode archive uses for batch
// compression. Sized to the logical CPU count, never below two.
type workerPool struct {
	workers int
}

func newWorkerPool() *workerPool {
	n := runtime.NumCPU()
	if n < 2 {
		n = 2
	}
	return &workerPool{workers: n}
}

// run invokes fn for every index in [0, n) across the pool's workers and
// waits for all of them.
func (p *workerPool) run(n int, fn func(i int)) {
	workers := p.workers
	if workers > n {
		workers = n
	}
	if workers <= 1 {
		for i := 0; i < n; i++ {
			fn(i)
		}
		return
	}

	jobs := make(chan int, n)
	for i := 0; i < n; i++ {
		jobs <- i
	}
	close(jobs)

	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for i := range jobs {
				fn(i)
			}
		}()
	}
	wg.Wait()
}

// AddItem is one pending entry for AddAll. The zero Codec value stores the
// entry uncompressed; pass DefaultCodec/DefaultLevel for the usual choice.
type AddItem struct {
	Path    string
	Content *Stream
	Codec   Codec
	Level   int
}

// AddAll appends a batch of entries, compressing them concurrently on the
// writer's pool. Blocks, directory records and progress callbacks keep the
// argument order, so the result is byte-identical to sequential AddWith
// calls. On failure no entry at or after the failing index is recorded.
func (a *Archive) AddAll(items []AddItem, progress ProgressFunc) error {
	if a == nil {
		return fail("add", KindInvalidArg, nil)
	}
	if a.mode != ModeWrite || a.finalized {
		return fail("add", KindInvalidArg, nil)
	}
	for _, it := range items {
		if it.Content == nil || int(it.Codec) >= codecCount {
			return fail("add", KindInvalidArg, nil)
		}
	}

	// Stream draining stays sequential; only the CPU-bound compression
	// fans out.
	raws := make([][]byte, len(items))
	for i, it := range items {
		raw, ok := drainStream(it.Content)
		if !ok {
			return fail("add", KindIO, nil)
		}
		raws[i] = raw
	}

	comps := make([][]byte, len(items))
	used := make([]Codec, len(items))
	a.pool.run(len(items), func(i int) {
		comps[i], used[i] = compressEntry(raws[i], items[i].Codec, items[i].Level)
	})

	for i := range items {
		if uint64(len(comps[i])) > math.MaxUint32 {
			return fail("add", KindUnsupported, nil)
		}
		if err := a.appendEntry(items[i].Path, raws[i], comps[i], used[i], progress); err != nil {
			return err
		}
	}
	return nil
}

// Package parallel splits embarrassingly parallel index loops across
// goroutines. The layer forward passes use it for their batch-by-channel
// loops, where every iteration writes a disjoint slice of the output.
package parallel

import (
	"runtime"
	"sync"
)

// Config controls how a loop is split.
type Config struct {
	Workers  int // goroutines to fan out over
	MinChunk int // below this many items the loop runs sequentially
}

// DefaultConfig sizes the pool to the CPU count with a chunk floor that
// keeps goroutine overhead below the work it carries.
func DefaultConfig() Config {
	return Config{
		Workers:  runtime.NumCPU(),
		MinChunk: 64,
	}
}

// For runs f(i) for i in [0, n), splitting the range across workers. The
// caller guarantees iterations are independent. Small ranges run inline.
func For(n int, f func(i int), cfg Config) {
	if cfg.Workers <= 1 || n < cfg.MinChunk {
		for i := 0; i < n; i++ {
			f(i)
		}
		return
	}

	chunk := (n + cfg.Workers - 1) / cfg.Workers
	if chunk < cfg.MinChunk {
		chunk = cfg.MinChunk
	}

	var wg sync.WaitGroup
	for start := 0; start < n; start += chunk {
		end := start + chunk
		if end > n {
			end = n
		}
		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			for i := s; i < e; i++ {
				f(i)
			}
		}(start, end)
	}
	wg.Wait()
}

// ForBatch runs f(b, c) over a batch-by-channels grid, the iteration shape
// of NCHW convolution and pooling forward passes.
func ForBatch(batch, channels int, f func(b, c int), cfg Config) {
	For(batch*channels, func(k int) {
		f(k/channels, k%channels)
	}, cfg)
}

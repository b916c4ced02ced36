// Package loader groups dataset samples into batches for the training
// harness.
//
// A Loader produces a lazy sequence of batches covering its dataset exactly
// once per epoch. Batch assembly (file I/O, decode, augmentation) runs on a
// fixed-size worker pool feeding a bounded queue; the consuming side always
// sees batches in a deterministic order. Classification batches stack their
// inputs into one (B, C, H, W) tensor; detection batches keep positional
// per-sample lists, since instance counts vary per image.
package loader

import (
	"context"
	"fmt"
	"math/rand"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
	"gorgonia.org/tensor"

	"github.com/crucible-ml/crucible/internal/backend/cpu"
	"github.com/crucible-ml/crucible/internal/dataset"
)

// Config holds the loader knobs.
type Config struct {
	BatchSize int        // samples per batch; the final batch may be smaller
	Shuffle   bool       // fresh permutation per epoch when set
	Workers   int        // assembly workers; 0 means the device default
	Seed      int64      // permutation seed; epoch k uses Seed+k
	Device    cpu.Device // compute device, used for worker defaults
}

// Batch is one group of samples.
//
// Exactly one representation is populated. Stacked batches (classification)
// carry Inputs with shape (Size, C, H, W) and a parallel Labels slice.
// List batches (detection) carry InputList and TargetList paired
// positionally.
type Batch struct {
	Inputs *tensor.Dense
	Labels []int32

	InputList  []*tensor.Dense
	TargetList []*dataset.DetectionTarget

	Size  int // number of samples in this batch
	Index int // batch ordinal within the epoch, starting at 0
}

// Stacked reports whether this is a stacked classification batch.
func (b Batch) Stacked() bool { return b.Inputs != nil }

// Loader produces epoch iterations over a dataset.
type Loader struct {
	ds     dataset.Dataset
	cfg    Config
	epochs atomic.Int64
}

// New validates the configuration and builds a Loader.
func New(ds dataset.Dataset, cfg Config) (*Loader, error) {
	if ds.Len() == 0 {
		return nil, fmt.Errorf("loader: empty dataset")
	}
	if cfg.BatchSize <= 0 {
		return nil, fmt.Errorf("loader: batch size must be > 0 (got %d)", cfg.BatchSize)
	}
	if cfg.Workers < 0 {
		return nil, fmt.Errorf("loader: workers must be >= 0 (got %d)", cfg.Workers)
	}
	if cfg.Workers == 0 {
		cfg.Workers = cfg.Device.DefaultWorkers()
		if cfg.Workers == 0 {
			cfg.Workers = 1
		}
	}
	return &Loader{ds: ds, cfg: cfg}, nil
}

// NumBatches returns the number of batches one epoch yields: ceil(N/B).
func (l *Loader) NumBatches() int {
	return (l.ds.Len() + l.cfg.BatchSize - 1) / l.cfg.BatchSize
}

// NumSamples returns the dataset length.
func (l *Loader) NumSamples() int { return l.ds.Len() }

// Epoch starts one pass over the dataset and returns the batch stream.
//
// The batch channel is closed after the final batch; the error channel then
// carries at most one error. Each call is a fresh epoch: with Shuffle
// enabled, epoch k draws its permutation from Seed+k, while with Shuffle
// disabled every epoch yields the identical batch sequence in dataset index
// order.
//
// The context cancels batch assembly; the harness itself never cancels
// mid-epoch, a run either completes or terminates on the returned error.
func (l *Loader) Epoch(ctx context.Context) (<-chan Batch, <-chan error) {
	epoch := l.epochs.Add(1) - 1

	indices := make([]int, l.ds.Len())
	for i := range indices {
		indices[i] = i
	}
	if l.cfg.Shuffle {
		rng := rand.New(rand.NewSource(l.cfg.Seed + epoch))
		rng.Shuffle(len(indices), func(i, j int) {
			indices[i], indices[j] = indices[j], indices[i]
		})
	}

	numBatches := l.NumBatches()
	type job struct {
		seq     int
		indices []int
	}
	type result struct {
		seq   int
		batch Batch
	}

	jobs := make(chan job, l.cfg.Workers)
	results := make(chan result, l.cfg.Workers)
	out := make(chan Batch, l.cfg.Workers)
	errCh := make(chan error, 1)

	g, gctx := errgroup.WithContext(ctx)

	go func() {
		defer close(jobs)
		for b := 0; b < numBatches; b++ {
			start := b * l.cfg.BatchSize
			end := start + l.cfg.BatchSize
			if end > len(indices) {
				end = len(indices)
			}
			select {
			case <-gctx.Done():
				return
			case jobs <- job{seq: b, indices: indices[start:end]}:
			}
		}
	}()

	for w := 0; w < l.cfg.Workers; w++ {
		g.Go(func() error {
			for j := range jobs {
				batch, err := l.assemble(j.seq, j.indices)
				if err != nil {
					return err
				}
				select {
				case <-gctx.Done():
					return gctx.Err()
				case results <- result{seq: j.seq, batch: batch}:
				}
			}
			return nil
		})
	}

	go func() {
		g.Wait() //nolint:errcheck // the error is re-collected below
		close(results)
	}()

	// Reassemble worker output into sequence order so batch order is
	// deterministic regardless of worker scheduling.
	go func() {
		defer close(out)
		defer close(errCh)
		pending := make(map[int]Batch, l.cfg.Workers)
		next := 0
		for res := range results {
			pending[res.seq] = res.batch
			for {
				batch, ok := pending[next]
				if !ok {
					break
				}
				delete(pending, next)
				select {
				case <-ctx.Done():
					errCh <- ctx.Err()
					return
				case out <- batch:
					next++
				}
			}
		}
		if err := g.Wait(); err != nil {
			errCh <- err
		}
	}()

	return out, errCh
}

// assemble materializes one batch from dataset indices.
func (l *Loader) assemble(seq int, indices []int) (Batch, error) {
	samples := make([]dataset.Sample, len(indices))
	for i, idx := range indices {
		s, err := l.ds.Get(idx)
		if err != nil {
			return Batch{}, fmt.Errorf("loader: batch %d: %w", seq, err)
		}
		samples[i] = s
	}

	switch samples[0].Target.(type) {
	case dataset.ClassTarget:
		return stackBatch(seq, samples)
	case *dataset.DetectionTarget:
		return listBatch(seq, samples)
	default:
		return Batch{}, fmt.Errorf("loader: batch %d: unknown target type %T", seq, samples[0].Target)
	}
}

// stackBatch stacks fixed-shape classification samples along a new leading
// axis. Every input must share the first sample's shape; a disagreement is a
// fatal configuration error.
func stackBatch(seq int, samples []dataset.Sample) (Batch, error) {
	first := samples[0].Input.Shape()
	sampleLen := first.TotalSize()
	data := make([]float32, len(samples)*sampleLen)
	labels := make([]int32, len(samples))

	for i, s := range samples {
		cls, ok := s.Target.(dataset.ClassTarget)
		if !ok {
			return Batch{}, fmt.Errorf("loader: batch %d: mixed target kinds", seq)
		}
		shape := s.Input.Shape()
		if !shape.Eq(first) {
			return Batch{}, fmt.Errorf("loader: batch %d: input shape %v disagrees with %v", seq, shape, first)
		}
		copy(data[i*sampleLen:(i+1)*sampleLen], s.Input.Data().([]float32))
		labels[i] = int32(cls)
	}

	stacked := append(tensor.Shape{len(samples)}, first...)
	return Batch{
		Inputs: tensor.New(tensor.WithShape(stacked...), tensor.WithBacking(data)),
		Labels: labels,
		Size:   len(samples),
		Index:  seq,
	}, nil
}

// listBatch keeps detection samples as positional per-sample lists; targets
// with varying instance counts cannot be stacked.
func listBatch(seq int, samples []dataset.Sample) (Batch, error) {
	inputs := make([]*tensor.Dense, len(samples))
	targets := make([]*dataset.DetectionTarget, len(samples))
	for i, s := range samples {
		det, ok := s.Target.(*dataset.DetectionTarget)
		if !ok {
			return Batch{}, fmt.Errorf("loader: batch %d: mixed target kinds", seq)
		}
		inputs[i] = s.Input
		targets[i] = det
	}
	return Batch{
		InputList:  inputs,
		TargetList: targets,
		Size:       len(samples),
		Index:      seq,
	}, nil
}

package train

import (
	"context"
	"image"
	"math"
	"math/rand"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorgonia.org/tensor"

	"github.com/crucible-ml/crucible/internal/dataset"
	"github.com/crucible-ml/crucible/internal/loader"
	"github.com/crucible-ml/crucible/internal/nn"
	"github.com/crucible-ml/crucible/internal/optim"
)

// blobModel is a linear classifier sized for the TwoClassBlobs dataset.
func blobModel(seed int64) *nn.Sequential {
	rng := rand.New(rand.NewSource(seed))
	return nn.NewSequential(
		nn.NewFlatten(),
		nn.NewLinear(2, 2, rng),
	)
}

func blobLoader(t *testing.T, ds dataset.Dataset, shuffle bool) *loader.Loader {
	t.Helper()
	l, err := loader.New(ds, loader.Config{
		BatchSize: 4,
		Shuffle:   shuffle,
		Workers:   2,
		Seed:      1,
	})
	require.NoError(t, err)
	return l
}

func newHarness(t *testing.T, model nn.Module, opt optim.Optimizer, extra ...func(*Config)) *Harness {
	t.Helper()
	cfg := Config{
		Model:     model,
		Objective: nn.NewCrossEntropy(),
		Optimizer: opt,
	}
	for _, f := range extra {
		f(&cfg)
	}
	h, err := New(cfg)
	require.NoError(t, err)
	return h
}

func TestNewValidation(t *testing.T) {
	model := blobModel(1)
	obj := nn.NewCrossEntropy()
	opt := optim.NewSGD(model.Parameters(), optim.SGDConfig{})

	_, err := New(Config{Objective: obj, Optimizer: opt})
	assert.Error(t, err)
	_, err = New(Config{Model: model, Optimizer: opt})
	assert.Error(t, err)
	_, err = New(Config{Model: model, Objective: obj})
	assert.Error(t, err)
	_, err = New(Config{Model: model, Objective: obj, Optimizer: opt, LogEvery: -2})
	assert.Error(t, err)

	// -1 is the silent cadence, not an error.
	_, err = New(Config{Model: model, Objective: obj, Optimizer: opt, LogEvery: -1})
	assert.NoError(t, err)
}

// TestFitConvergesOnBlobs trains the linear model on linearly separable
// blobs; a few epochs must drive eval accuracy to 1 and the loss near 0.
func TestFitConvergesOnBlobs(t *testing.T) {
	full := dataset.TwoClassBlobs(40, 3)
	trainDS, evalDS, err := dataset.Split(full, 16)
	require.NoError(t, err)

	model := blobModel(1)
	h := newHarness(t, model, optim.NewSGD(model.Parameters(), optim.SGDConfig{LR: 0.5}))

	require.NoError(t, h.Fit(context.Background(), blobLoader(t, trainDS, true), blobLoader(t, evalDS, false), 10))

	res, err := h.Evaluate(context.Background(), blobLoader(t, evalDS, false))
	require.NoError(t, err)
	assert.Equal(t, float32(1), res.Accuracy)
	assert.Less(t, res.AvgLoss, float32(0.2))
}

// TestEvaluateIsRepeatable runs Evaluate twice and requires bit-identical
// results with untouched parameters.
func TestEvaluateIsRepeatable(t *testing.T) {
	ds := dataset.TwoClassBlobs(20, 5)
	model := nn.NewSequential(
		nn.NewFlatten(),
		nn.NewLinear(2, 8, rand.New(rand.NewSource(2))),
		nn.NewReLU(),
		nn.NewDropout(0.5, rand.New(rand.NewSource(2))), // must be disabled during eval
		nn.NewLinear(8, 2, rand.New(rand.NewSource(3))),
	)
	h := newHarness(t, model, optim.NewSGD(model.Parameters(), optim.SGDConfig{}))

	var before [][]float32
	for _, p := range model.Parameters() {
		before = append(before, append([]float32(nil), p.Data().Data().([]float32)...))
	}

	first, err := h.Evaluate(context.Background(), blobLoader(t, ds, false))
	require.NoError(t, err)
	second, err := h.Evaluate(context.Background(), blobLoader(t, ds, false))
	require.NoError(t, err)

	assert.Equal(t, first, second)

	for i, p := range model.Parameters() {
		assert.Equal(t, before[i], p.Data().Data().([]float32), "parameter %d mutated by Evaluate", i)
	}
}

// TestEvaluateResultShape checks the averaging denominators: loss over
// batches, accuracy over samples.
func TestEvaluateResultShape(t *testing.T) {
	ds := dataset.TwoClassBlobs(5, 1) // 10 samples, batch 4 -> 3 batches
	model := blobModel(1)
	h := newHarness(t, model, optim.NewSGD(model.Parameters(), optim.SGDConfig{}))

	res, err := h.Evaluate(context.Background(), blobLoader(t, ds, false))
	require.NoError(t, err)
	assert.Equal(t, 10, res.Samples)
	assert.Equal(t, 3, res.Batches)
	assert.GreaterOrEqual(t, res.Accuracy, float32(0))
	assert.LessOrEqual(t, res.Accuracy, float32(1))
}

// nanObjective forces a non-finite loss on its nth call.
type nanObjective struct {
	inner *nn.CrossEntropy
	calls int
	nanAt int
}

func (o *nanObjective) Forward(pred *tensor.Dense, labels []int32) float32 {
	o.calls++
	loss := o.inner.Forward(pred, labels)
	if o.calls == o.nanAt {
		return float32(math.NaN())
	}
	return loss
}

func (o *nanObjective) Backward() *tensor.Dense { return o.inner.Backward() }

func TestTrainEpochAbortsOnNonFiniteLoss(t *testing.T) {
	ds := dataset.TwoClassBlobs(10, 1)
	model := blobModel(1)
	h := newHarness(t, model, optim.NewSGD(model.Parameters(), optim.SGDConfig{}), func(c *Config) {
		c.Objective = &nanObjective{inner: nn.NewCrossEntropy(), nanAt: 2}
	})

	err := h.TrainEpoch(context.Background(), blobLoader(t, ds, false))
	assert.ErrorIs(t, err, ErrNonFiniteLoss)
}

// recordingSink captures scalar writes for cadence assertions.
type recordingSink struct {
	mu      sync.Mutex
	scalars map[string]int
}

func (r *recordingSink) Scalar(tag string, _ float64, _ int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.scalars == nil {
		r.scalars = make(map[string]int)
	}
	r.scalars[tag]++
}

func (r *recordingSink) Image(string, image.Image, int) {}

// TestTrainEpochLogCadence verifies the progress signal fires every
// LogEvery batches.
func TestTrainEpochLogCadence(t *testing.T) {
	ds := dataset.TwoClassBlobs(14, 1) // 28 samples, batch 4 -> 7 batches
	sink := &recordingSink{}
	model := blobModel(1)
	h := newHarness(t, model, optim.NewSGD(model.Parameters(), optim.SGDConfig{}), func(c *Config) {
		c.LogEvery = 2
		c.Sink = sink
	})

	require.NoError(t, h.TrainEpoch(context.Background(), blobLoader(t, ds, false)))

	// Batches 2, 4 and 6 fire; 7 is not a multiple of the cadence.
	assert.Equal(t, 3, sink.scalars["train/loss"])
}

// TestTrainEpochSilentCadence verifies LogEvery -1 suppresses progress
// signals for the whole epoch.
func TestTrainEpochSilentCadence(t *testing.T) {
	ds := dataset.TwoClassBlobs(14, 1)
	sink := &recordingSink{}
	model := blobModel(1)
	h := newHarness(t, model, optim.NewSGD(model.Parameters(), optim.SGDConfig{}), func(c *Config) {
		c.LogEvery = -1
		c.Sink = sink
	})

	require.NoError(t, h.TrainEpoch(context.Background(), blobLoader(t, ds, false)))
	assert.Equal(t, 0, sink.scalars["train/loss"])
}

// TestFitWritesEvalScalars verifies each epoch publishes its evaluation
// metrics.
func TestFitWritesEvalScalars(t *testing.T) {
	full := dataset.TwoClassBlobs(10, 2)
	trainDS, evalDS, err := dataset.Split(full, 8)
	require.NoError(t, err)

	sink := &recordingSink{}
	model := blobModel(1)
	h := newHarness(t, model, optim.NewSGD(model.Parameters(), optim.SGDConfig{LR: 0.1}), func(c *Config) {
		c.Sink = sink
	})

	require.NoError(t, h.Fit(context.Background(), blobLoader(t, trainDS, true), blobLoader(t, evalDS, false), 3))
	assert.Equal(t, 3, sink.scalars["eval/loss"])
	assert.Equal(t, 3, sink.scalars["eval/accuracy"])
}

func TestFitRejectsBadEpochs(t *testing.T) {
	model := blobModel(1)
	h := newHarness(t, model, optim.NewSGD(model.Parameters(), optim.SGDConfig{}))
	ds := dataset.TwoClassBlobs(4, 1)

	err := h.Fit(context.Background(), blobLoader(t, ds, false), blobLoader(t, ds, false), 0)
	assert.Error(t, err)
}

// Package train implements the supervised training harness: the epoch loop
// driving forward, loss, backward and optimizer updates, and the matching
// evaluation loop.
//
// The harness composes three externally supplied collaborators — a Model
// (nn.Module), an Objective, and an Optimizer — and owns nothing but control
// flow and metric accumulation. A single goroutine drives compute: each
// batch's update completes before the next batch's forward pass begins, so
// parameter reads always observe the previous update. Batch loading is the
// only concurrent part of the system and lives in the loader package.
package train

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/sirupsen/logrus"
	"gorgonia.org/tensor"

	"github.com/crucible-ml/crucible/internal/loader"
	"github.com/crucible-ml/crucible/internal/nn"
	"github.com/crucible-ml/crucible/internal/optim"
)

// ErrNonFiniteLoss is returned when a batch produces a NaN or infinite
// loss. Training on poisoned parameters is never useful, so the run aborts
// instead of continuing.
var ErrNonFiniteLoss = errors.New("train: non-finite loss")

// Objective is a differentiable scalar loss over a stacked batch.
//
// Backward returns the gradient of the most recent Forward's loss with
// respect to the predictions.
type Objective interface {
	Forward(predictions *tensor.Dense, labels []int32) float32
	Backward() *tensor.Dense
}

// Config assembles a Harness.
type Config struct {
	Model     nn.Module
	Objective Objective
	Optimizer optim.Optimizer

	// LogEvery sets the progress-signal cadence in batches. The cadence is
	// deliberately a knob, not a constant: different runs want different
	// reporting densities (500 for a CIFAR-10 epoch, 100 for Fashion-MNIST).
	// -1 disables progress signals entirely; epoch summaries still go out.
	// Defaults to 100.
	LogEvery int

	// Log receives progress lines; defaults to the standard logger.
	Log *logrus.Entry

	// Sink receives scalar metrics for external dashboards; defaults to a
	// no-op sink.
	Sink Sink
}

// Result summarizes one evaluation pass.
type Result struct {
	AvgLoss  float32 // total loss / number of batches
	Accuracy float32 // correct predictions / total samples
	Samples  int
	Batches  int
}

// Harness runs training epochs and evaluations over a model.
type Harness struct {
	model     nn.Module
	objective Objective
	optimizer optim.Optimizer
	logEvery  int
	log       *logrus.Entry
	sink      Sink

	step    int // global optimizer steps taken
	samples int // cumulative training samples processed
}

// New validates the configuration and builds a Harness.
func New(cfg Config) (*Harness, error) {
	if cfg.Model == nil {
		return nil, errors.New("train: model is required")
	}
	if cfg.Objective == nil {
		return nil, errors.New("train: objective is required")
	}
	if cfg.Optimizer == nil {
		return nil, errors.New("train: optimizer is required")
	}
	if cfg.LogEvery < -1 {
		return nil, fmt.Errorf("train: log cadence must be >= -1 (got %d)", cfg.LogEvery)
	}
	if cfg.LogEvery == 0 {
		cfg.LogEvery = 100
	}
	if cfg.Log == nil {
		cfg.Log = logrus.NewEntry(logrus.StandardLogger())
	}
	if cfg.Sink == nil {
		cfg.Sink = NopSink{}
	}
	return &Harness{
		model:     cfg.Model,
		objective: cfg.Objective,
		optimizer: cfg.Optimizer,
		logEvery:  cfg.LogEvery,
		log:       cfg.Log,
		sink:      cfg.Sink,
	}, nil
}

// TrainEpoch drives one full pass over the training loader.
//
// Per batch: forward pass, loss, non-finite check, zero gradients, backward
// pass, optimizer step. The optimizer step is the only parameter mutation in
// the system. Every LogEvery batches a progress signal with the current loss
// and cumulative samples goes to the logger and the sink; a cadence of -1
// suppresses them.
func (h *Harness) TrainEpoch(ctx context.Context, ld *loader.Loader) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel() // unwind the loader workers if we abort mid-epoch

	nn.SetTraining(h.model, true)

	batches, errs := ld.Epoch(ctx)
	var meter Meter

	for batch := range batches {
		if !batch.Stacked() {
			return fmt.Errorf("train: batch %d is not a stacked classification batch", batch.Index)
		}

		computeStart := time.Now()
		predictions := h.model.Forward(batch.Inputs)
		loss := h.objective.Forward(predictions, batch.Labels)
		if math.IsNaN(float64(loss)) || math.IsInf(float64(loss), 0) {
			return fmt.Errorf("%w: %v at batch %d", ErrNonFiniteLoss, loss, batch.Index)
		}

		h.optimizer.ZeroGrad()
		h.model.Backward(h.objective.Backward())
		h.optimizer.Step()

		h.step++
		h.samples += batch.Size
		meter.Record(batch.Size, time.Since(computeStart), loss)

		if h.logEvery > 0 && (batch.Index+1)%h.logEvery == 0 {
			snap := meter.Snapshot()
			h.log.WithFields(logrus.Fields{
				"batch":           batch.Index + 1,
				"loss":            loss,
				"samples":         h.samples,
				"samples_per_sec": snap.SamplesPerSec,
			}).Info("train progress")
			h.sink.Scalar("train/loss", float64(loss), h.step)
		}
	}

	if err := <-errs; err != nil {
		return fmt.Errorf("train: epoch aborted: %w", err)
	}
	return nil
}

// Evaluate runs the forward pass over the loader with parameter updates and
// stochastic behaviors disabled, and accumulates loss and accuracy.
//
// Evaluate never mutates parameters or gradients; running it twice in a row
// on the same model and data returns identical results.
func (h *Harness) Evaluate(ctx context.Context, ld *loader.Loader) (Result, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	nn.SetTraining(h.model, false)

	batches, errs := ld.Epoch(ctx)

	var res Result
	totalLoss := float64(0)
	correct := 0

	for batch := range batches {
		if !batch.Stacked() {
			return Result{}, fmt.Errorf("train: batch %d is not a stacked classification batch", batch.Index)
		}

		predictions := h.model.Forward(batch.Inputs)
		loss := h.objective.Forward(predictions, batch.Labels)
		if math.IsNaN(float64(loss)) || math.IsInf(float64(loss), 0) {
			return Result{}, fmt.Errorf("%w: %v at batch %d", ErrNonFiniteLoss, loss, batch.Index)
		}

		totalLoss += float64(loss)
		correct += countCorrect(predictions, batch.Labels)
		res.Samples += batch.Size
		res.Batches++
	}

	if err := <-errs; err != nil {
		return Result{}, fmt.Errorf("train: evaluation aborted: %w", err)
	}
	if res.Batches == 0 {
		return Result{}, errors.New("train: evaluation saw no batches")
	}

	res.AvgLoss = float32(totalLoss / float64(res.Batches))
	res.Accuracy = float32(correct) / float32(res.Samples)
	return res, nil
}

// Fit repeats TrainEpoch then Evaluate for the configured number of epochs.
// There is no early stopping and no checkpointing; a run either completes
// all epochs or terminates on the first error.
func (h *Harness) Fit(ctx context.Context, trainLoader, evalLoader *loader.Loader, epochs int) error {
	if epochs <= 0 {
		return fmt.Errorf("train: epochs must be > 0 (got %d)", epochs)
	}
	for epoch := 1; epoch <= epochs; epoch++ {
		if err := h.TrainEpoch(ctx, trainLoader); err != nil {
			return fmt.Errorf("epoch %d: %w", epoch, err)
		}
		res, err := h.Evaluate(ctx, evalLoader)
		if err != nil {
			return fmt.Errorf("epoch %d: %w", epoch, err)
		}
		h.log.WithFields(logrus.Fields{
			"epoch":    epoch,
			"epochs":   epochs,
			"loss":     res.AvgLoss,
			"accuracy": res.Accuracy,
		}).Info("epoch complete")
		h.sink.Scalar("eval/loss", float64(res.AvgLoss), h.step)
		h.sink.Scalar("eval/accuracy", float64(res.Accuracy), h.step)
	}
	return nil
}

// countCorrect counts rows whose argmax equals the label.
func countCorrect(predictions *tensor.Dense, labels []int32) int {
	shape := predictions.Shape()
	batch, classes := shape[0], shape[1]
	data := predictions.Data().([]float32)
	correct := 0
	for b := 0; b < batch; b++ {
		row := data[b*classes : (b+1)*classes]
		best := 0
		for j := 1; j < classes; j++ {
			if row[j] > row[best] {
				best = j
			}
		}
		if int32(best) == labels[b] {
			correct++
		}
	}
	return correct
}

// Package nn implements the neural network building blocks the Crucible
// harness composes: layers with explicit forward and backward passes,
// trainable parameters, and loss functions.
//
// Tensor storage and linear algebra delegate to gorgonia.org/tensor; this
// package owns only layer semantics and gradient bookkeeping. Layers panic
// on input-shape misuse — a shape mismatch between data and model is a fatal
// configuration error, never something to retry.
package nn

import (
	"gorgonia.org/tensor"
)

// Module is the base interface for all network components.
//
// Forward computes the output for a batch input; Backward consumes the
// gradient of the loss with respect to that output, accumulates parameter
// gradients, and returns the gradient with respect to the input. A Backward
// call is only valid after the matching Forward call.
//
// Modules compose into architectures:
//
//	model := nn.NewSequential(
//	    nn.NewLinear(784, 256, rng),
//	    nn.NewReLU(),
//	    nn.NewLinear(256, 10, rng),
//	)
type Module interface {
	Forward(input *tensor.Dense) *tensor.Dense
	Backward(grad *tensor.Dense) *tensor.Dense
	Parameters() []*Parameter
}

// trainingAware is implemented by modules whose behavior differs between
// training and evaluation (Dropout, and containers that hold one).
type trainingAware interface {
	SetTraining(training bool)
}

// SetTraining switches m between training and evaluation behavior.
//
// The two modes are mutually exclusive: evaluation disables stochastic
// regularization so repeated evaluation of the same model and data is
// bit-identical.
func SetTraining(m Module, training bool) {
	if ta, ok := m.(trainingAware); ok {
		ta.SetTraining(training)
	}
}

// f32 returns the flat float32 backing of a dense tensor.
func f32(d *tensor.Dense) []float32 {
	return d.Data().([]float32)
}

// denseOf allocates a zero-filled float32 tensor with the given shape.
func denseOf(shape tensor.Shape) *tensor.Dense {
	return tensor.New(tensor.WithShape(shape...), tensor.WithBacking(make([]float32, shape.TotalSize())))
}

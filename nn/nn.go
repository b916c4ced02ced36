// Copyright 2025 Crucible ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package nn exposes the neural network building blocks: layers with
// explicit Forward and Backward passes, trainable parameters, and the
// cross-entropy objective.
//
// Example:
//
//	rng := rand.New(rand.NewSource(42))
//	model := nn.NewSequential(
//	    nn.NewFlatten(),
//	    nn.NewLinear(784, 256, rng),
//	    nn.NewReLU(),
//	    nn.NewLinear(256, 10, rng),
//	)
package nn

import (
	"math/rand"

	"gorgonia.org/tensor"

	"github.com/crucible-ml/crucible/internal/nn"
)

// Module is the interface every layer implements.
type Module = nn.Module

// Parameter is a trainable tensor with an accumulated gradient.
type Parameter = nn.Parameter

// NewParameter wraps a tensor as a named trainable parameter.
func NewParameter(name string, data *tensor.Dense) *Parameter {
	return nn.NewParameter(name, data)
}

// SetTraining flips training mode on m and any submodules that care.
func SetTraining(m Module, training bool) { nn.SetTraining(m, training) }

// Layers

// Linear is a fully connected layer.
type Linear = nn.Linear

// NewLinear creates a linear layer with Xavier-initialized weights.
func NewLinear(inFeatures, outFeatures int, rng *rand.Rand) *Linear {
	return nn.NewLinear(inFeatures, outFeatures, rng)
}

// Conv2D is a 2D convolution over NCHW input.
type Conv2D = nn.Conv2D

// NewConv2D creates a convolutional layer.
func NewConv2D(inChannels, outChannels, kernelH, kernelW, stride, padding int, rng *rand.Rand) *Conv2D {
	return nn.NewConv2D(inChannels, outChannels, kernelH, kernelW, stride, padding, rng)
}

// MaxPool2D downsamples NCHW input by windowed maximum.
type MaxPool2D = nn.MaxPool2D

// NewMaxPool2D creates a max pooling layer.
func NewMaxPool2D(kernel, stride int) *MaxPool2D { return nn.NewMaxPool2D(kernel, stride) }

// ReLU is the rectified linear activation.
type ReLU = nn.ReLU

// NewReLU creates a ReLU activation.
func NewReLU() *ReLU { return nn.NewReLU() }

// Sigmoid is the logistic activation.
type Sigmoid = nn.Sigmoid

// NewSigmoid creates a sigmoid activation.
func NewSigmoid() *Sigmoid { return nn.NewSigmoid() }

// Tanh is the hyperbolic tangent activation.
type Tanh = nn.Tanh

// NewTanh creates a tanh activation.
func NewTanh() *Tanh { return nn.NewTanh() }

// Dropout zeroes activations with probability p during training.
type Dropout = nn.Dropout

// NewDropout creates a dropout layer.
func NewDropout(p float64, rng *rand.Rand) *Dropout { return nn.NewDropout(p, rng) }

// Flatten collapses all trailing dimensions into one.
type Flatten = nn.Flatten

// NewFlatten creates a flatten layer.
func NewFlatten() *Flatten { return nn.NewFlatten() }

// Sequential chains modules in order.
type Sequential = nn.Sequential

// NewSequential chains the given modules.
func NewSequential(modules ...Module) *Sequential { return nn.NewSequential(modules...) }

// CrossEntropy is softmax cross-entropy over integer class labels.
type CrossEntropy = nn.CrossEntropy

// NewCrossEntropy creates a cross-entropy objective.
func NewCrossEntropy() *CrossEntropy { return nn.NewCrossEntropy() }

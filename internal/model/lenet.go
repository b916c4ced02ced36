// Package model defines the reference network architectures the crucible
// CLI trains.
package model

import (
	"math/rand"

	"github.com/crucible-ml/crucible/internal/nn"
)

// NewLeNet builds a LeNet-5 style convolutional classifier for 32x32 RGB
// input (CIFAR-10 geometry).
//
// Architecture:
//
//	Input: [batch, 3, 32, 32]
//	Conv 3→6, 5x5   -> [batch, 6, 28, 28]
//	ReLU, MaxPool 2 -> [batch, 6, 14, 14]
//	Conv 6→16, 5x5  -> [batch, 16, 10, 10]
//	ReLU, MaxPool 2 -> [batch, 16, 5, 5]
//	Flatten         -> [batch, 400]
//	FC 400→120→84→classes
//
// The seed fixes the weight initialization, so two models built with the
// same seed are identical.
func NewLeNet(classes int, seed int64) *nn.Sequential {
	rng := rand.New(rand.NewSource(seed))
	return nn.NewSequential(
		nn.NewConv2D(3, 6, 5, 5, 1, 0, rng),
		nn.NewReLU(),
		nn.NewMaxPool2D(2, 2),
		nn.NewConv2D(6, 16, 5, 5, 1, 0, rng),
		nn.NewReLU(),
		nn.NewMaxPool2D(2, 2),
		nn.NewFlatten(),
		nn.NewLinear(16*5*5, 120, rng),
		nn.NewReLU(),
		nn.NewLinear(120, 84, rng),
		nn.NewReLU(),
		nn.NewLinear(84, classes, rng),
	)
}

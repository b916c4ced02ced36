package model

import (
	"math/rand"

	"github.com/crucible-ml/crucible/internal/nn"
)

// NewFashionMLP builds the fully connected Fashion-MNIST classifier:
// flatten, 784→256 with ReLU and dropout, 256→classes.
//
// Dropout is the model's only train/eval-sensitive behavior; the harness
// toggles it via nn.SetTraining.
func NewFashionMLP(classes int, dropout float64, seed int64) *nn.Sequential {
	rng := rand.New(rand.NewSource(seed))
	return nn.NewSequential(
		nn.NewFlatten(),
		nn.NewLinear(28*28, 256, rng),
		nn.NewReLU(),
		nn.NewDropout(dropout, rng),
		nn.NewLinear(256, classes, rng),
	)
}

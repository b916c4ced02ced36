package nn

import (
	"math/rand"
	"testing"

	"gorgonia.org/tensor"
)

// TestSequential_ForwardBackward runs a small stack end to end and checks
// the shapes at both boundaries.
func TestSequential_ForwardBackward(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	model := NewSequential(
		NewFlatten(),
		NewLinear(4, 8, rng),
		NewReLU(),
		NewLinear(8, 2, rng),
	)

	input := tensor.New(tensor.WithShape(3, 1, 2, 2), tensor.WithBacking(make([]float32, 12)))
	output := model.Forward(input)
	if !output.Shape().Eq(tensor.Shape{3, 2}) {
		t.Fatalf("output shape: %v", output.Shape())
	}

	grad := tensor.New(tensor.WithShape(3, 2), tensor.WithBacking(make([]float32, 6)))
	dIn := model.Backward(grad)
	if !dIn.Shape().Eq(tensor.Shape{3, 1, 2, 2}) {
		t.Fatalf("input grad shape: %v", dIn.Shape())
	}
}

// TestSequential_ParametersOrder verifies parameters concatenate in module
// order.
func TestSequential_ParametersOrder(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	l1 := NewLinear(2, 3, rng)
	l2 := NewLinear(3, 2, rng)
	model := NewSequential(l1, NewReLU(), l2)

	params := model.Parameters()
	if len(params) != 4 {
		t.Fatalf("got %d parameters, want 4", len(params))
	}
	if params[0] != l1.weight || params[1] != l1.bias {
		t.Error("first layer parameters out of order")
	}
	if params[2] != l2.weight || params[3] != l2.bias {
		t.Error("second layer parameters out of order")
	}
}

// TestSequential_PropagatesTrainingMode verifies SetTraining reaches nested
// mode-aware modules.
func TestSequential_PropagatesTrainingMode(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	drop := NewDropout(0.5, rng)
	model := NewSequential(NewSequential(drop))

	SetTraining(model, false)
	if drop.training {
		t.Error("SetTraining(false) did not reach the nested dropout")
	}
	SetTraining(model, true)
	if !drop.training {
		t.Error("SetTraining(true) did not reach the nested dropout")
	}
}

// TestFlatten_RoundTrip verifies Backward restores the cached input shape.
func TestFlatten_RoundTrip(t *testing.T) {
	f := NewFlatten()

	input := tensor.New(tensor.WithShape(2, 3, 4, 4), tensor.WithBacking(make([]float32, 96)))
	out := f.Forward(input)
	if !out.Shape().Eq(tensor.Shape{2, 48}) {
		t.Fatalf("flattened shape: %v", out.Shape())
	}

	grad := tensor.New(tensor.WithShape(2, 48), tensor.WithBacking(make([]float32, 96)))
	dIn := f.Backward(grad)
	if !dIn.Shape().Eq(tensor.Shape{2, 3, 4, 4}) {
		t.Fatalf("restored shape: %v", dIn.Shape())
	}
}

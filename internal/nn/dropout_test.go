package nn

import (
	"math/rand"
	"testing"

	"gorgonia.org/tensor"
)

// TestDropout_EvalIsIdentity verifies evaluation mode never perturbs the
// input, which is what makes repeated evaluation bit-identical.
func TestDropout_EvalIsIdentity(t *testing.T) {
	drop := NewDropout(0.5, rand.New(rand.NewSource(1)))
	drop.SetTraining(false)

	input := vec(1, 2, 3, 4)
	out := drop.Forward(input)
	if out != input {
		t.Fatal("eval-mode dropout should return the input unchanged")
	}

	grad := vec(5, 6, 7, 8)
	if got := drop.Backward(grad); got != grad {
		t.Fatal("eval-mode dropout should pass the gradient through")
	}
}

// TestDropout_TrainingMasksAndScales verifies survivors are scaled by
// 1/(1-p) and dropped units zero both output and gradient.
func TestDropout_TrainingMasksAndScales(t *testing.T) {
	drop := NewDropout(0.5, rand.New(rand.NewSource(3)))

	in := make([]float32, 1000)
	for i := range in {
		in[i] = 1
	}
	out := drop.Forward(tensor.New(tensor.WithShape(1, len(in)), tensor.WithBacking(in)))

	data := out.Data().([]float32)
	kept := 0
	for _, v := range data {
		switch v {
		case 0:
		case 2: // 1 / (1 - 0.5)
			kept++
		default:
			t.Fatalf("unexpected output value %v", v)
		}
	}
	// With p=0.5 over 1000 units, the kept count concentrates near 500.
	if kept < 400 || kept > 600 {
		t.Errorf("kept %d of 1000 units, want roughly half", kept)
	}

	grad := make([]float32, len(in))
	for i := range grad {
		grad[i] = 1
	}
	dIn := drop.Backward(tensor.New(tensor.WithShape(1, len(grad)), tensor.WithBacking(grad)))
	g := dIn.Data().([]float32)
	for i := range g {
		if (data[i] == 0) != (g[i] == 0) {
			t.Fatalf("mask disagreement at %d: out=%v grad=%v", i, data[i], g[i])
		}
	}
}

func TestDropout_ZeroProbability(t *testing.T) {
	drop := NewDropout(0, rand.New(rand.NewSource(1)))
	input := vec(1, 2, 3)
	if drop.Forward(input) != input {
		t.Fatal("p=0 dropout should be identity even in training mode")
	}
}

func TestDropout_RejectsBadProbability(t *testing.T) {
	for _, p := range []float64{-0.1, 1.0, 1.5} {
		func() {
			defer func() {
				if recover() == nil {
					t.Errorf("expected panic for p=%v", p)
				}
			}()
			NewDropout(p, rand.New(rand.NewSource(1)))
		}()
	}
}

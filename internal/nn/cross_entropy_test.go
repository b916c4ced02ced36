package nn

import (
	"math"
	"testing"

	"gorgonia.org/tensor"
)

// TestCrossEntropy_UniformLogits verifies the loss for uniform logits is
// ln(classes).
func TestCrossEntropy_UniformLogits(t *testing.T) {
	ce := NewCrossEntropy()

	logits := tensor.New(tensor.WithShape(2, 4), tensor.WithBacking(make([]float32, 8)))
	loss := ce.Forward(logits, []int32{0, 3})

	want := float32(math.Log(4))
	if math.Abs(float64(loss-want)) > 1e-5 {
		t.Errorf("loss: got %v, want ln(4)=%v", loss, want)
	}
}

// TestCrossEntropy_ConfidentPrediction verifies a large correct logit
// drives the loss toward zero.
func TestCrossEntropy_ConfidentPrediction(t *testing.T) {
	ce := NewCrossEntropy()

	logits := tensor.New(tensor.WithShape(1, 3), tensor.WithBacking([]float32{20, 0, 0}))
	loss := ce.Forward(logits, []int32{0})
	if loss > 1e-4 {
		t.Errorf("loss for confident correct prediction: got %v", loss)
	}

	loss = ce.Forward(logits, []int32{1})
	if loss < 10 {
		t.Errorf("loss for confident wrong prediction: got %v", loss)
	}
}

// TestCrossEntropy_NumericalStability verifies extreme logits stay finite
// through the log-sum-exp path.
func TestCrossEntropy_NumericalStability(t *testing.T) {
	ce := NewCrossEntropy()

	logits := tensor.New(tensor.WithShape(1, 3), tensor.WithBacking([]float32{1000, -1000, 500}))
	loss := ce.Forward(logits, []int32{0})
	if math.IsNaN(float64(loss)) || math.IsInf(float64(loss), 0) {
		t.Fatalf("loss went non-finite: %v", loss)
	}
}

// TestCrossEntropy_BackwardGradient verifies the closed form
// (softmax - onehot)/batch: rows sum to zero and the target entry is
// negative.
func TestCrossEntropy_BackwardGradient(t *testing.T) {
	ce := NewCrossEntropy()

	logits := tensor.New(tensor.WithShape(2, 3), tensor.WithBacking([]float32{
		1, 2, 3,
		0, 0, 0,
	}))
	ce.Forward(logits, []int32{2, 1})
	grad := ce.Backward()

	if !grad.Shape().Eq(tensor.Shape{2, 3}) {
		t.Fatalf("grad shape: %v", grad.Shape())
	}
	g := grad.Data().([]float32)

	for row := 0; row < 2; row++ {
		sum := float64(0)
		for j := 0; j < 3; j++ {
			sum += float64(g[row*3+j])
		}
		if math.Abs(sum) > 1e-6 {
			t.Errorf("row %d gradient sums to %v, want 0", row, sum)
		}
	}
	if g[0*3+2] >= 0 {
		t.Errorf("target entry gradient should be negative, got %v", g[2])
	}

	// Uniform row: softmax is 1/3, so the target entry is (1/3 - 1)/2.
	want := float32((1.0/3.0 - 1.0) / 2.0)
	if math.Abs(float64(g[1*3+1]-want)) > 1e-5 {
		t.Errorf("uniform-row target grad: got %v, want %v", g[1*3+1], want)
	}
}

// TestCrossEntropy_PanicsOnBadLabels verifies out-of-range labels are
// fatal.
func TestCrossEntropy_PanicsOnBadLabels(t *testing.T) {
	ce := NewCrossEntropy()
	logits := tensor.New(tensor.WithShape(1, 3), tensor.WithBacking([]float32{0, 0, 0}))

	defer func() {
		if recover() == nil {
			t.Error("expected panic on label out of range")
		}
	}()
	ce.Forward(logits, []int32{3})
}

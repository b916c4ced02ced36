package optim

import (
	"testing"

	"gorgonia.org/tensor"

	"github.com/crucible-ml/crucible/internal/nn"
)

func paramWith(t *testing.T, data, grad []float32) *nn.Parameter {
	t.Helper()
	p := nn.NewParameter("test", tensor.New(tensor.WithShape(len(data)), tensor.WithBacking(data)))
	copy(p.Grad().Data().([]float32), grad)
	return p
}

// TestSGD_Step checks the plain update param -= lr * grad.
func TestSGD_Step(t *testing.T) {
	p := paramWith(t, []float32{1, 2, 3}, []float32{1, -1, 0.5})
	sgd := NewSGD([]*nn.Parameter{p}, SGDConfig{LR: 0.1})

	sgd.Step()

	want := []float32{0.9, 2.1, 2.95}
	got := p.Data().Data().([]float32)
	for i := range want {
		if diff := want[i] - got[i]; diff > 1e-6 || diff < -1e-6 {
			t.Errorf("param[%d]: got %v, want %v", i, got[i], want[i])
		}
	}
}

// TestSGD_Momentum checks the velocity accumulates across steps.
func TestSGD_Momentum(t *testing.T) {
	p := paramWith(t, []float32{0}, []float32{1})
	sgd := NewSGD([]*nn.Parameter{p}, SGDConfig{LR: 1, Momentum: 0.5})

	// Step 1: v = 1, param = -1.
	sgd.Step()
	// Step 2 with the same gradient: v = 0.5*1 + 1 = 1.5, param = -2.5.
	sgd.Step()

	got := p.Data().Data().([]float32)[0]
	if diff := got + 2.5; diff > 1e-6 || diff < -1e-6 {
		t.Errorf("param after two momentum steps: got %v, want -2.5", got)
	}
}

func TestSGD_DefaultLR(t *testing.T) {
	sgd := NewSGD(nil, SGDConfig{})
	if sgd.LR() != 0.01 {
		t.Errorf("default LR: got %v, want 0.01", sgd.LR())
	}
}

func TestSGD_ZeroGrad(t *testing.T) {
	p := paramWith(t, []float32{1}, []float32{5})
	sgd := NewSGD([]*nn.Parameter{p}, SGDConfig{LR: 0.1})

	sgd.ZeroGrad()
	if g := p.Grad().Data().([]float32)[0]; g != 0 {
		t.Errorf("gradient after ZeroGrad: got %v", g)
	}
}

func TestSGD_SetLR(t *testing.T) {
	sgd := NewSGD(nil, SGDConfig{LR: 0.1})
	sgd.SetLR(0.01)
	if sgd.LR() != 0.01 {
		t.Errorf("LR after SetLR: got %v", sgd.LR())
	}
}

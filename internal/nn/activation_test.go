package nn

import (
	"math"
	"testing"

	"gorgonia.org/tensor"
)

func vec(values ...float32) *tensor.Dense {
	return tensor.New(tensor.WithShape(1, len(values)), tensor.WithBacking(values))
}

func TestReLU(t *testing.T) {
	relu := NewReLU()

	out := relu.Forward(vec(-2, -0.5, 0, 0.5, 2))
	almostEqual(t, []float32{0, 0, 0, 0.5, 2}, out.Data().([]float32), 1e-6, "forward")

	dIn := relu.Backward(vec(1, 1, 1, 1, 1))
	almostEqual(t, []float32{0, 0, 0, 1, 1}, dIn.Data().([]float32), 1e-6, "backward")
}

func TestSigmoid(t *testing.T) {
	sig := NewSigmoid()

	out := sig.Forward(vec(0, 100, -100))
	data := out.Data().([]float32)
	almostEqual(t, []float32{0.5}, data[:1], 1e-6, "sigmoid(0)")
	if data[1] < 0.999 || data[2] > 0.001 {
		t.Errorf("saturation: got %v and %v", data[1], data[2])
	}

	// d/dx at 0 is y*(1-y) = 0.25.
	dIn := sig.Backward(vec(1, 1, 1))
	almostEqual(t, []float32{0.25}, dIn.Data().([]float32)[:1], 1e-6, "backward at 0")
}

func TestTanh(t *testing.T) {
	tanh := NewTanh()

	out := tanh.Forward(vec(0, 1))
	data := out.Data().([]float32)
	almostEqual(t, []float32{0, float32(math.Tanh(1))}, data, 1e-6, "forward")

	// d/dx = 1 - y^2: 1 at x=0.
	dIn := tanh.Backward(vec(1, 1))
	g := dIn.Data().([]float32)
	almostEqual(t, []float32{1}, g[:1], 1e-6, "backward at 0")
	want := float32(1 - math.Tanh(1)*math.Tanh(1))
	almostEqual(t, []float32{want}, g[1:], 1e-5, "backward at 1")
}

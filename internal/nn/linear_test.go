package nn

import (
	"math"
	"math/rand"
	"testing"

	"gorgonia.org/tensor"
)

func setData(p *Parameter, values []float32) {
	copy(p.Data().Data().([]float32), values)
}

func almostEqual(t *testing.T, want, got []float32, tol float64, label string) {
	t.Helper()
	if len(want) != len(got) {
		t.Fatalf("%s: length %d, want %d", label, len(got), len(want))
	}
	for i := range want {
		if math.Abs(float64(want[i]-got[i])) > tol {
			t.Errorf("%s[%d]: got %v, want %v", label, i, got[i], want[i])
		}
	}
}

// TestLinear_ForwardValues checks y = x @ W + b with known values.
func TestLinear_ForwardValues(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	layer := NewLinear(2, 3, rng)
	setData(layer.weight, []float32{
		1, 2, 3,
		4, 5, 6,
	})
	setData(layer.bias, []float32{0.5, 0.5, 0.5})

	input := tensor.New(tensor.WithShape(2, 2), tensor.WithBacking([]float32{
		1, 2,
		3, 4,
	}))
	output := layer.Forward(input)

	wantShape := tensor.Shape{2, 3}
	if !output.Shape().Eq(wantShape) {
		t.Fatalf("output shape: got %v, want %v", output.Shape(), wantShape)
	}
	almostEqual(t, []float32{
		9.5, 12.5, 15.5,
		19.5, 26.5, 33.5,
	}, output.Data().([]float32), 1e-5, "output")
}

// TestLinear_BackwardValues checks dW, db and dx against hand-computed
// values for a 1x2 input.
func TestLinear_BackwardValues(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	layer := NewLinear(2, 2, rng)
	setData(layer.weight, []float32{
		1, 2,
		3, 4,
	})
	setData(layer.bias, []float32{0, 0})

	input := tensor.New(tensor.WithShape(1, 2), tensor.WithBacking([]float32{1, 2}))
	layer.Forward(input)

	grad := tensor.New(tensor.WithShape(1, 2), tensor.WithBacking([]float32{1, 0.5}))
	dx := layer.Backward(grad)

	// dW = xT @ grad = [[1],[2]] @ [[1, 0.5]] = [[1, 0.5], [2, 1]]
	almostEqual(t, []float32{1, 0.5, 2, 1}, layer.weight.Grad().Data().([]float32), 1e-5, "dW")
	// db = column sums of grad
	almostEqual(t, []float32{1, 0.5}, layer.bias.Grad().Data().([]float32), 1e-5, "db")
	// dx = grad @ WT = [1*1+0.5*2, 1*3+0.5*4] = [2, 5]
	almostEqual(t, []float32{2, 5}, dx.Data().([]float32), 1e-5, "dx")
}

// TestLinear_GradAccumulates verifies a second backward adds into the
// existing gradient until ZeroGrad clears it.
func TestLinear_GradAccumulates(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	layer := NewLinear(2, 2, rng)

	input := tensor.New(tensor.WithShape(1, 2), tensor.WithBacking([]float32{1, 1}))
	grad := tensor.New(tensor.WithShape(1, 2), tensor.WithBacking([]float32{1, 1}))

	layer.Forward(input)
	layer.Backward(grad)
	first := append([]float32(nil), layer.bias.Grad().Data().([]float32)...)

	layer.Forward(input)
	layer.Backward(grad)
	second := layer.bias.Grad().Data().([]float32)

	for i := range first {
		if second[i] != 2*first[i] {
			t.Errorf("grad[%d]: got %v, want %v", i, second[i], 2*first[i])
		}
	}

	layer.bias.ZeroGrad()
	for i, v := range layer.bias.Grad().Data().([]float32) {
		if v != 0 {
			t.Errorf("grad[%d] after ZeroGrad: got %v", i, v)
		}
	}
}

// TestLinear_PanicsOnBadShape verifies shape misuse is fatal.
func TestLinear_PanicsOnBadShape(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	layer := NewLinear(4, 2, rng)

	defer func() {
		if recover() == nil {
			t.Error("expected panic on feature mismatch")
		}
	}()
	layer.Forward(tensor.New(tensor.WithShape(1, 3), tensor.WithBacking(make([]float32, 3))))
}

// TestXavier_SeedDeterminism verifies two layers built from the same seed
// start identical.
func TestXavier_SeedDeterminism(t *testing.T) {
	a := NewLinear(16, 8, rand.New(rand.NewSource(42)))
	b := NewLinear(16, 8, rand.New(rand.NewSource(42)))

	wa := a.weight.Data().Data().([]float32)
	wb := b.weight.Data().Data().([]float32)
	for i := range wa {
		if wa[i] != wb[i] {
			t.Fatalf("weight[%d]: %v != %v", i, wa[i], wb[i])
		}
	}

	bound := math.Sqrt(6.0 / float64(16+8))
	for i, v := range wa {
		if math.Abs(float64(v)) > bound {
			t.Errorf("weight[%d] = %v outside Xavier bound %v", i, v, bound)
		}
	}
}

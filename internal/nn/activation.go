package nn

import (
	"math"

	"gorgonia.org/tensor"
)

// ReLU applies max(0, x) elementwise.
type ReLU struct {
	mask []bool // true where the input was positive
}

// NewReLU creates a ReLU activation.
func NewReLU() *ReLU { return &ReLU{} }

// Forward zeroes negative inputs.
func (r *ReLU) Forward(input *tensor.Dense) *tensor.Dense {
	in := f32(input)
	out := make([]float32, len(in))
	r.mask = make([]bool, len(in))
	for i, v := range in {
		if v > 0 {
			out[i] = v
			r.mask[i] = true
		}
	}
	return tensor.New(tensor.WithShape(input.Shape()...), tensor.WithBacking(out))
}

// Backward passes gradients through where the input was positive.
func (r *ReLU) Backward(grad *tensor.Dense) *tensor.Dense {
	if r.mask == nil {
		panic("relu: Backward called before Forward")
	}
	g := f32(grad)
	out := make([]float32, len(g))
	for i, v := range g {
		if r.mask[i] {
			out[i] = v
		}
	}
	return tensor.New(tensor.WithShape(grad.Shape()...), tensor.WithBacking(out))
}

// Parameters returns nil.
func (r *ReLU) Parameters() []*Parameter { return nil }

// Sigmoid applies 1/(1+exp(-x)) elementwise.
type Sigmoid struct {
	output []float32 // cached for backward: d/dx = y*(1-y)
}

// NewSigmoid creates a Sigmoid activation.
func NewSigmoid() *Sigmoid { return &Sigmoid{} }

// Forward computes the logistic function.
func (s *Sigmoid) Forward(input *tensor.Dense) *tensor.Dense {
	in := f32(input)
	out := make([]float32, len(in))
	for i, v := range in {
		out[i] = float32(1.0 / (1.0 + math.Exp(-float64(v))))
	}
	s.output = out
	return tensor.New(tensor.WithShape(input.Shape()...), tensor.WithBacking(out))
}

// Backward computes grad * y * (1 - y).
func (s *Sigmoid) Backward(grad *tensor.Dense) *tensor.Dense {
	if s.output == nil {
		panic("sigmoid: Backward called before Forward")
	}
	g := f32(grad)
	out := make([]float32, len(g))
	for i, v := range g {
		y := s.output[i]
		out[i] = v * y * (1 - y)
	}
	return tensor.New(tensor.WithShape(grad.Shape()...), tensor.WithBacking(out))
}

// Parameters returns nil.
func (s *Sigmoid) Parameters() []*Parameter { return nil }

// Tanh applies the hyperbolic tangent elementwise.
type Tanh struct {
	output []float32 // cached for backward: d/dx = 1 - y^2
}

// NewTanh creates a Tanh activation.
func NewTanh() *Tanh { return &Tanh{} }

// Forward computes tanh(x).
func (t *Tanh) Forward(input *tensor.Dense) *tensor.Dense {
	in := f32(input)
	out := make([]float32, len(in))
	for i, v := range in {
		out[i] = float32(math.Tanh(float64(v)))
	}
	t.output = out
	return tensor.New(tensor.WithShape(input.Shape()...), tensor.WithBacking(out))
}

// Backward computes grad * (1 - y^2).
func (t *Tanh) Backward(grad *tensor.Dense) *tensor.Dense {
	if t.output == nil {
		panic("tanh: Backward called before Forward")
	}
	g := f32(grad)
	out := make([]float32, len(g))
	for i, v := range g {
		y := t.output[i]
		out[i] = v * (1 - y*y)
	}
	return tensor.New(tensor.WithShape(grad.Shape()...), tensor.WithBacking(out))
}

// Parameters returns nil.
func (t *Tanh) Parameters() []*Parameter { return nil }

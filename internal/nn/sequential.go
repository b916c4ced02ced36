package nn

import (
	"gorgonia.org/tensor"
)

// Sequential chains modules: Forward runs them in order, Backward in
// reverse order.
type Sequential struct {
	modules []Module
}

// NewSequential stacks modules into one.
//
// Example:
//
//	model := nn.NewSequential(
//	    nn.NewConv2D(1, 6, 5, 5, 1, 0, rng),
//	    nn.NewReLU(),
//	    nn.NewMaxPool2D(2, 2),
//	    nn.NewFlatten(),
//	    nn.NewLinear(6*12*12, 10, rng),
//	)
func NewSequential(modules ...Module) *Sequential {
	return &Sequential{modules: modules}
}

// Forward runs the input through every module in order.
func (s *Sequential) Forward(input *tensor.Dense) *tensor.Dense {
	x := input
	for _, m := range s.modules {
		x = m.Forward(x)
	}
	return x
}

// Backward propagates the gradient through every module in reverse order.
func (s *Sequential) Backward(grad *tensor.Dense) *tensor.Dense {
	g := grad
	for i := len(s.modules) - 1; i >= 0; i-- {
		g = s.modules[i].Backward(g)
	}
	return g
}

// Parameters concatenates the parameters of every module in order.
func (s *Sequential) Parameters() []*Parameter {
	var params []*Parameter
	for _, m := range s.modules {
		params = append(params, m.Parameters()...)
	}
	return params
}

// SetTraining propagates the mode to every mode-aware child.
func (s *Sequential) SetTraining(training bool) {
	for _, m := range s.modules {
		SetTraining(m, training)
	}
}

package nn

import (
	"gorgonia.org/tensor"
)

// Parameter is a trainable tensor with its accumulated gradient.
//
// Parameters are owned by the layer that created them. The training loop
// never mutates parameter data directly; only an optimizer's Step does,
// reading the gradient this layer's Backward accumulated.
type Parameter struct {
	name string
	data *tensor.Dense
	grad *tensor.Dense // allocated lazily on first access
}

// NewParameter wraps an initialized tensor as a trainable parameter.
func NewParameter(name string, data *tensor.Dense) *Parameter {
	return &Parameter{name: name, data: data}
}

// Name returns the parameter name (e.g. "linear.weight").
func (p *Parameter) Name() string { return p.name }

// Data returns the parameter tensor.
func (p *Parameter) Data() *tensor.Dense { return p.data }

// Grad returns the gradient tensor, allocating a zero-filled one with the
// parameter's shape on first use.
func (p *Parameter) Grad() *tensor.Dense {
	if p.grad == nil {
		p.grad = denseOf(p.data.Shape())
	}
	return p.grad
}

// ZeroGrad clears the accumulated gradient in place.
//
// Called before each backward pass so gradients never leak across batches.
func (p *Parameter) ZeroGrad() {
	if p.grad == nil {
		return
	}
	g := f32(p.grad)
	for i := range g {
		g[i] = 0
	}
}

// accumGrad adds delta into the parameter gradient. delta must have the
// parameter's element count.
func (p *Parameter) accumGrad(delta []float32) {
	g := f32(p.Grad())
	for i := range g {
		g[i] += delta[i]
	}
}

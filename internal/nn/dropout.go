package nn

import (
	"fmt"
	"math/rand"

	"gorgonia.org/tensor"
)

// Dropout randomly zeroes inputs with probability p during training,
// scaling the survivors by 1/(1-p) (inverted dropout) so expectations match
// between modes. In evaluation mode it is the identity — this is the
// stochastic regularization behavior the harness's TRAIN/EVAL toggle
// controls.
type Dropout struct {
	p        float64
	rng      *rand.Rand
	training bool
	mask     []float32
}

// NewDropout creates a dropout layer. p must be in [0, 1); the RNG is
// explicit so augmented runs are reproducible from the seed.
func NewDropout(p float64, rng *rand.Rand) *Dropout {
	if p < 0 || p >= 1 {
		panic(fmt.Sprintf("dropout: probability %v out of [0, 1)", p))
	}
	return &Dropout{p: p, rng: rng, training: true}
}

// SetTraining toggles between stochastic (training) and identity (eval)
// behavior.
func (d *Dropout) SetTraining(training bool) { d.training = training }

// Forward drops units in training mode, passes through in eval mode.
func (d *Dropout) Forward(input *tensor.Dense) *tensor.Dense {
	if !d.training || d.p == 0 {
		d.mask = nil
		return input
	}
	in := f32(input)
	out := make([]float32, len(in))
	d.mask = make([]float32, len(in))
	scale := float32(1.0 / (1.0 - d.p))
	for i, v := range in {
		if d.rng.Float64() >= d.p {
			d.mask[i] = scale
			out[i] = v * scale
		}
	}
	return tensor.New(tensor.WithShape(input.Shape()...), tensor.WithBacking(out))
}

// Backward applies the same mask to the gradient.
func (d *Dropout) Backward(grad *tensor.Dense) *tensor.Dense {
	if d.mask == nil {
		return grad
	}
	g := f32(grad)
	out := make([]float32, len(g))
	for i, v := range g {
		out[i] = v * d.mask[i]
	}
	return tensor.New(tensor.WithShape(grad.Shape()...), tensor.WithBacking(out))
}

// Parameters returns nil.
func (d *Dropout) Parameters() []*Parameter { return nil }

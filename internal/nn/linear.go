package nn

import (
	"fmt"
	"math/rand"

	"gorgonia.org/tensor"
)

// Linear is a fully connected layer: y = x @ W + b.
//
//   - x: [batch, in_features]
//   - W: [in_features, out_features], Xavier-initialized
//   - b: [out_features], zero-initialized
//   - y: [batch, out_features]
//
// Example:
//
//	rng := rand.New(rand.NewSource(1))
//	layer := nn.NewLinear(784, 128, rng)
//	output := layer.Forward(input) // [batch, 128]
type Linear struct {
	inFeatures  int
	outFeatures int
	weight      *Parameter
	bias        *Parameter

	input *tensor.Dense // cached for backward
}

// NewLinear creates a Linear layer with Xavier-initialized weights.
func NewLinear(inFeatures, outFeatures int, rng *rand.Rand) *Linear {
	if inFeatures <= 0 || outFeatures <= 0 {
		panic(fmt.Sprintf("linear: invalid features in=%d, out=%d", inFeatures, outFeatures))
	}
	weight := Xavier(inFeatures, outFeatures, tensor.Shape{inFeatures, outFeatures}, rng)
	bias := Zeros(tensor.Shape{outFeatures})
	return &Linear{
		inFeatures:  inFeatures,
		outFeatures: outFeatures,
		weight:      NewParameter("linear.weight", weight),
		bias:        NewParameter("linear.bias", bias),
	}
}

// Forward computes x @ W + b.
func (l *Linear) Forward(input *tensor.Dense) *tensor.Dense {
	shape := input.Shape()
	if len(shape) != 2 {
		panic(fmt.Sprintf("linear: expected 2D input [batch, features], got shape %v", shape))
	}
	if shape[1] != l.inFeatures {
		panic(fmt.Sprintf("linear: expected %d input features, got %d", l.inFeatures, shape[1]))
	}
	l.input = input

	out, err := tensor.MatMul(input, l.weight.Data())
	if err != nil {
		panic(fmt.Sprintf("linear: matmul: %v", err))
	}
	output := out.(*tensor.Dense)

	// Row-broadcast the bias.
	data := f32(output)
	b := f32(l.bias.Data())
	for row := 0; row < shape[0]; row++ {
		base := row * l.outFeatures
		for j := 0; j < l.outFeatures; j++ {
			data[base+j] += b[j]
		}
	}
	return output
}

// Backward accumulates dW = xT @ grad and db = column sums of grad, and
// returns dx = grad @ WT.
func (l *Linear) Backward(grad *tensor.Dense) *tensor.Dense {
	if l.input == nil {
		panic("linear: Backward called before Forward")
	}
	batch := l.input.Shape()[0]

	xT := transpose2D(l.input)
	dW, err := tensor.MatMul(xT, grad)
	if err != nil {
		panic(fmt.Sprintf("linear: weight grad matmul: %v", err))
	}
	l.weight.accumGrad(f32(dW.(*tensor.Dense)))

	db := make([]float32, l.outFeatures)
	g := f32(grad)
	for row := 0; row < batch; row++ {
		base := row * l.outFeatures
		for j := 0; j < l.outFeatures; j++ {
			db[j] += g[base+j]
		}
	}
	l.bias.accumGrad(db)

	wT := transpose2D(l.weight.Data())
	dx, err := tensor.MatMul(grad, wT)
	if err != nil {
		panic(fmt.Sprintf("linear: input grad matmul: %v", err))
	}
	return dx.(*tensor.Dense)
}

// Parameters returns [weight, bias].
func (l *Linear) Parameters() []*Parameter {
	return []*Parameter{l.weight, l.bias}
}

// transpose2D returns a contiguous transposed copy of a 2D tensor.
func transpose2D(d *tensor.Dense) *tensor.Dense {
	shape := d.Shape()
	rows, cols := shape[0], shape[1]
	src := f32(d)
	dst := make([]float32, len(src))
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			dst[c*rows+r] = src[r*cols+c]
		}
	}
	return tensor.New(tensor.WithShape(cols, rows), tensor.WithBacking(dst))
}

package nn

import (
	"fmt"

	"gorgonia.org/tensor"
)

// Flatten reshapes (batch, d1, d2, ...) input to (batch, d1*d2*...),
// bridging convolutional blocks to fully connected heads.
type Flatten struct {
	inShape tensor.Shape
}

// NewFlatten creates a Flatten layer.
func NewFlatten() *Flatten { return &Flatten{} }

// Forward flattens all trailing dimensions into one.
func (f *Flatten) Forward(input *tensor.Dense) *tensor.Dense {
	shape := input.Shape()
	if len(shape) < 2 {
		panic(fmt.Sprintf("flatten: expected at least 2D input, got shape %v", shape))
	}
	f.inShape = shape.Clone()
	batch := shape[0]
	rest := shape.TotalSize() / batch
	return tensor.New(tensor.WithShape(batch, rest), tensor.WithBacking(f32(input)))
}

// Backward restores the cached input shape.
func (f *Flatten) Backward(grad *tensor.Dense) *tensor.Dense {
	if f.inShape == nil {
		panic("flatten: Backward called before Forward")
	}
	return tensor.New(tensor.WithShape(f.inShape...), tensor.WithBacking(f32(grad)))
}

// Parameters returns nil.
func (f *Flatten) Parameters() []*Parameter { return nil }

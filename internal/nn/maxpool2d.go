package nn

import (
	"fmt"

	"gorgonia.org/tensor"

	"github.com/crucible-ml/crucible/internal/parallel"
)

// MaxPool2D downsamples NCHW input by taking the maximum over each
// kernel-sized window.
//
//	input:  [batch, channels, height, width]
//	output: [batch, channels, (height-kernel)/stride+1, (width-kernel)/stride+1]
//
// The forward pass records which input element won each window so the
// backward pass can route gradients to it.
type MaxPool2D struct {
	kernel int
	stride int

	inShape tensor.Shape
	argmax  []int // winning input index per output element
}

// NewMaxPool2D creates a max pooling layer.
func NewMaxPool2D(kernel, stride int) *MaxPool2D {
	if kernel <= 0 || stride <= 0 {
		panic(fmt.Sprintf("maxpool2d: invalid kernel=%d stride=%d", kernel, stride))
	}
	return &MaxPool2D{kernel: kernel, stride: stride}
}

// Forward pools each window to its maximum.
func (m *MaxPool2D) Forward(input *tensor.Dense) *tensor.Dense {
	shape := input.Shape()
	if len(shape) != 4 {
		panic(fmt.Sprintf("maxpool2d: expected 4D input [N,C,H,W], got shape %v", shape))
	}
	batch, channels, h, w := shape[0], shape[1], shape[2], shape[3]
	outH := (h-m.kernel)/m.stride + 1
	outW := (w-m.kernel)/m.stride + 1
	if outH <= 0 || outW <= 0 {
		panic(fmt.Sprintf("maxpool2d: kernel %d does not fit input %dx%d", m.kernel, h, w))
	}

	in := f32(input)
	out := make([]float32, batch*channels*outH*outW)
	m.inShape = shape.Clone()
	m.argmax = make([]int, len(out))

	parallel.ForBatch(batch, channels, func(n, c int) {
		for oy := 0; oy < outH; oy++ {
			for ox := 0; ox < outW; ox++ {
				best := float32(0)
				bestIdx := -1
				for ky := 0; ky < m.kernel; ky++ {
					iy := oy*m.stride + ky
					for kx := 0; kx < m.kernel; kx++ {
						ix := ox*m.stride + kx
						idx := ((n*channels+c)*h+iy)*w + ix
						if bestIdx == -1 || in[idx] > best {
							best = in[idx]
							bestIdx = idx
						}
					}
				}
				outIdx := ((n*channels+c)*outH+oy)*outW + ox
				out[outIdx] = best
				m.argmax[outIdx] = bestIdx
			}
		}
	}, parallel.DefaultConfig())
	return tensor.New(tensor.WithShape(batch, channels, outH, outW), tensor.WithBacking(out))
}

// Backward routes each output gradient to the input element that won its
// window.
func (m *MaxPool2D) Backward(grad *tensor.Dense) *tensor.Dense {
	if m.argmax == nil {
		panic("maxpool2d: Backward called before Forward")
	}
	g := f32(grad)
	if len(g) != len(m.argmax) {
		panic(fmt.Sprintf("maxpool2d: gradient has %d elements, expected %d", len(g), len(m.argmax)))
	}
	dIn := make([]float32, m.inShape.TotalSize())
	for outIdx, inIdx := range m.argmax {
		dIn[inIdx] += g[outIdx]
	}
	return tensor.New(tensor.WithShape(m.inShape...), tensor.WithBacking(dIn))
}

// Parameters returns nil; pooling has no trainable state.
func (m *MaxPool2D) Parameters() []*Parameter { return nil }

package nn

import (
	"fmt"
	"math/rand"

	"gorgonia.org/tensor"

	"github.com/crucible-ml/crucible/internal/parallel"
)

// Conv2D is a 2D convolutional layer over NCHW input.
//
//	input:  [batch, in_channels, height, width]
//	weight: [out_channels, in_channels, kernel_h, kernel_w]
//	bias:   [out_channels]
//	output: [batch, out_channels, out_h, out_w]
//
// where out_h = (height + 2*padding - kernel_h)/stride + 1 and likewise for
// out_w. The convolution is computed directly; for the layer sizes this
// harness trains (LeNet-scale) the direct form is plenty.
//
// Example:
//
//	conv := nn.NewConv2D(3, 6, 5, 5, 1, 0, rng) // 3->6 channels, 5x5 kernel
type Conv2D struct {
	inChannels  int
	outChannels int
	kernelH     int
	kernelW     int
	stride      int
	padding     int

	weight *Parameter
	bias   *Parameter

	input *tensor.Dense // cached for backward
}

// NewConv2D creates a convolutional layer with Xavier-initialized weights
// and zero biases.
func NewConv2D(inChannels, outChannels, kernelH, kernelW, stride, padding int, rng *rand.Rand) *Conv2D {
	if inChannels <= 0 || outChannels <= 0 {
		panic(fmt.Sprintf("conv2d: invalid channels in=%d, out=%d", inChannels, outChannels))
	}
	if kernelH <= 0 || kernelW <= 0 {
		panic(fmt.Sprintf("conv2d: invalid kernel size %dx%d", kernelH, kernelW))
	}
	if stride <= 0 {
		panic(fmt.Sprintf("conv2d: invalid stride %d", stride))
	}
	if padding < 0 {
		panic(fmt.Sprintf("conv2d: invalid padding %d", padding))
	}

	fanIn := inChannels * kernelH * kernelW
	fanOut := outChannels * kernelH * kernelW
	weight := Xavier(fanIn, fanOut, tensor.Shape{outChannels, inChannels, kernelH, kernelW}, rng)
	bias := Zeros(tensor.Shape{outChannels})

	return &Conv2D{
		inChannels:  inChannels,
		outChannels: outChannels,
		kernelH:     kernelH,
		kernelW:     kernelW,
		stride:      stride,
		padding:     padding,
		weight:      NewParameter("conv2d.weight", weight),
		bias:        NewParameter("conv2d.bias", bias),
	}
}

func (c *Conv2D) outDims(h, w int) (int, int) {
	outH := (h+2*c.padding-c.kernelH)/c.stride + 1
	outW := (w+2*c.padding-c.kernelW)/c.stride + 1
	return outH, outW
}

// Forward performs the convolution.
func (c *Conv2D) Forward(input *tensor.Dense) *tensor.Dense {
	shape := input.Shape()
	if len(shape) != 4 {
		panic(fmt.Sprintf("conv2d: expected 4D input [N,C,H,W], got shape %v", shape))
	}
	if shape[1] != c.inChannels {
		panic(fmt.Sprintf("conv2d: input channels %d != expected %d", shape[1], c.inChannels))
	}
	c.input = input

	batch, h, w := shape[0], shape[2], shape[3]
	outH, outW := c.outDims(h, w)
	if outH <= 0 || outW <= 0 {
		panic(fmt.Sprintf("conv2d: kernel %dx%d does not fit input %dx%d", c.kernelH, c.kernelW, h, w))
	}

	in := f32(input)
	wt := f32(c.weight.Data())
	bs := f32(c.bias.Data())
	out := make([]float32, batch*c.outChannels*outH*outW)

	// Each (n, oc) pair writes a disjoint output plane, so the grid can
	// fan out across goroutines.
	parallel.ForBatch(batch, c.outChannels, func(n, oc int) {
		for oy := 0; oy < outH; oy++ {
			for ox := 0; ox < outW; ox++ {
				sum := bs[oc]
				for ic := 0; ic < c.inChannels; ic++ {
					for ky := 0; ky < c.kernelH; ky++ {
						iy := oy*c.stride + ky - c.padding
						if iy < 0 || iy >= h {
							continue
						}
						for kx := 0; kx < c.kernelW; kx++ {
							ix := ox*c.stride + kx - c.padding
							if ix < 0 || ix >= w {
								continue
							}
							inIdx := ((n*c.inChannels+ic)*h+iy)*w + ix
							wIdx := ((oc*c.inChannels+ic)*c.kernelH+ky)*c.kernelW + kx
							sum += in[inIdx] * wt[wIdx]
						}
					}
				}
				out[((n*c.outChannels+oc)*outH+oy)*outW+ox] = sum
			}
		}
	}, parallel.DefaultConfig())
	return tensor.New(tensor.WithShape(batch, c.outChannels, outH, outW), tensor.WithBacking(out))
}

// Backward accumulates weight and bias gradients and returns the input
// gradient.
func (c *Conv2D) Backward(grad *tensor.Dense) *tensor.Dense {
	if c.input == nil {
		panic("conv2d: Backward called before Forward")
	}
	inShape := c.input.Shape()
	batch, h, w := inShape[0], inShape[2], inShape[3]
	outH, outW := c.outDims(h, w)

	in := f32(c.input)
	wt := f32(c.weight.Data())
	g := f32(grad)

	dW := make([]float32, len(wt))
	dB := make([]float32, c.outChannels)
	dIn := make([]float32, len(in))

	for n := 0; n < batch; n++ {
		for oc := 0; oc < c.outChannels; oc++ {
			for oy := 0; oy < outH; oy++ {
				for ox := 0; ox < outW; ox++ {
					gv := g[((n*c.outChannels+oc)*outH+oy)*outW+ox]
					if gv == 0 {
						continue
					}
					dB[oc] += gv
					for ic := 0; ic < c.inChannels; ic++ {
						for ky := 0; ky < c.kernelH; ky++ {
							iy := oy*c.stride + ky - c.padding
							if iy < 0 || iy >= h {
								continue
							}
							for kx := 0; kx < c.kernelW; kx++ {
								ix := ox*c.stride + kx - c.padding
								if ix < 0 || ix >= w {
									continue
								}
								inIdx := ((n*c.inChannels+ic)*h+iy)*w + ix
								wIdx := ((oc*c.inChannels+ic)*c.kernelH+ky)*c.kernelW + kx
								dW[wIdx] += gv * in[inIdx]
								dIn[inIdx] += gv * wt[wIdx]
							}
						}
					}
				}
			}
		}
	}

	c.weight.accumGrad(dW)
	c.bias.accumGrad(dB)
	return tensor.New(tensor.WithShape(inShape...), tensor.WithBacking(dIn))
}

// Parameters returns [weight, bias].
func (c *Conv2D) Parameters() []*Parameter {
	return []*Parameter{c.weight, c.bias}
}

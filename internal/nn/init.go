package nn

import (
	"math"
	"math/rand"

	"gorgonia.org/tensor"
)

// Xavier initializes a tensor with values drawn from the Glorot uniform
// distribution U(-sqrt(6/(fanIn+fanOut)), +sqrt(6/(fanIn+fanOut))), which
// keeps activation variance roughly constant across layers.
//
// The RNG is explicit: the caller owns the seed, so two models built with
// the same seed start from identical weights.
func Xavier(fanIn, fanOut int, shape tensor.Shape, rng *rand.Rand) *tensor.Dense {
	bound := math.Sqrt(6.0 / float64(fanIn+fanOut))
	data := make([]float32, shape.TotalSize())
	for i := range data {
		data[i] = float32((rng.Float64()*2.0 - 1.0) * bound)
	}
	return tensor.New(tensor.WithShape(shape...), tensor.WithBacking(data))
}

// Zeros allocates a zero-filled tensor, the conventional bias init.
func Zeros(shape tensor.Shape) *tensor.Dense {
	return denseOf(shape)
}

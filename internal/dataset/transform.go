package dataset

import (
	"fmt"

	"gorgonia.org/tensor"
)

// Transform is a pure function applied to a sample before it is returned
// from Get. Transforms never mutate the sample they receive; they return a
// new sample (possibly sharing unmodified tensors with the input).
//
// The dataset index is part of the contract: stochastic transforms derive
// their randomness from (seed, index) alone, so the outcome for a given
// sample is fixed at construction and independent of which loader worker
// happens to evaluate it, or in what order.
type Transform func(index int, s Sample) (Sample, error)

// Compose chains transforms in the declared order.
//
// Example:
//
//	t := dataset.Compose(
//	    dataset.Normalize([]float32{0.5}, []float32{0.5}),
//	    dataset.RandomHorizontalFlip(0.5, 1),
//	)
func Compose(transforms ...Transform) Transform {
	return func(index int, s Sample) (Sample, error) {
		var err error
		for _, t := range transforms {
			s, err = t(index, s)
			if err != nil {
				return Sample{}, err
			}
		}
		return s, nil
	}
}

// Normalize shifts and scales each channel: out = (in - mean[c]) / std[c].
//
// mean and std must either have one entry per channel or a single entry
// applied to all channels.
func Normalize(mean, std []float32) Transform {
	return func(_ int, s Sample) (Sample, error) {
		shape := s.Input.Shape()
		if len(shape) != 3 {
			return Sample{}, fmt.Errorf("normalize: expected (C,H,W) input, got shape %v", shape)
		}
		channels := shape[0]
		if len(mean) != len(std) {
			return Sample{}, fmt.Errorf("normalize: mean/std length mismatch %d vs %d", len(mean), len(std))
		}
		if len(mean) != 1 && len(mean) != channels {
			return Sample{}, fmt.Errorf("normalize: %d stats for %d channels", len(mean), channels)
		}

		in := s.Input.Data().([]float32)
		out := make([]float32, len(in))
		plane := shape[1] * shape[2]
		for c := 0; c < channels; c++ {
			i := 0
			if len(mean) > 1 {
				i = c
			}
			for p := 0; p < plane; p++ {
				out[c*plane+p] = (in[c*plane+p] - mean[i]) / std[i]
			}
		}
		normalized := tensor.New(tensor.WithShape(shape...), tensor.WithBacking(out))
		return Sample{Input: normalized, Target: s.Target}, nil
	}
}

// RandomHorizontalFlip mirrors the sample left-to-right with probability p.
//
// The flip decision for sample i is a pure function of (seed, i), never of
// shared RNG state, so concurrent loader workers see the same decision a
// sequential pass would. For detection targets the instance masks are
// mirrored and the bounding boxes re-derived in the flipped coordinate
// frame; classification targets are unchanged.
func RandomHorizontalFlip(p float64, seed int64) Transform {
	return func(index int, s Sample) (Sample, error) {
		if indexDraw(seed, index) >= p {
			return s, nil
		}
		return flipHorizontal(s)
	}
}

// indexDraw maps (seed, index) to a uniform value in [0, 1) using the
// splitmix64 finalizer.
func indexDraw(seed int64, index int) float64 {
	x := uint64(seed) + uint64(index)*0x9e3779b97f4a7c15
	x ^= x >> 30
	x *= 0xbf58476d1ce4e5b9
	x ^= x >> 27
	x *= 0x94d049bb133111eb
	x ^= x >> 31
	return float64(x>>11) / float64(1<<53)
}

func flipHorizontal(s Sample) (Sample, error) {
	shape := s.Input.Shape()
	if len(shape) != 3 {
		return Sample{}, fmt.Errorf("flip: expected (C,H,W) input, got shape %v", shape)
	}
	c, h, w := shape[0], shape[1], shape[2]

	in := s.Input.Data().([]float32)
	out := make([]float32, len(in))
	for ch := 0; ch < c; ch++ {
		for y := 0; y < h; y++ {
			row := ch*h*w + y*w
			for x := 0; x < w; x++ {
				out[row+x] = in[row+(w-1-x)]
			}
		}
	}
	flipped := Sample{
		Input:  tensor.New(tensor.WithShape(c, h, w), tensor.WithBacking(out)),
		Target: s.Target,
	}

	det, ok := s.Target.(*DetectionTarget)
	if !ok {
		return flipped, nil
	}

	mirrored := &DetectionTarget{
		Boxes:   make([]Box, len(det.Boxes)),
		Labels:  append([]int32(nil), det.Labels...),
		Masks:   make([]*tensor.Dense, len(det.Masks)),
		Areas:   append([]float32(nil), det.Areas...),
		IsCrowd: append([]bool(nil), det.IsCrowd...),
	}
	for i, box := range det.Boxes {
		mirrored.Boxes[i] = Box{
			XMin: w - 1 - box.XMax,
			YMin: box.YMin,
			XMax: w - 1 - box.XMin,
			YMax: box.YMax,
		}
	}
	for i, mask := range det.Masks {
		maskShape := mask.Shape()
		mh, mw := maskShape[0], maskShape[1]
		src := mask.Data().([]bool)
		dst := make([]bool, len(src))
		for y := 0; y < mh; y++ {
			for x := 0; x < mw; x++ {
				dst[y*mw+x] = src[y*mw+(mw-1-x)]
			}
		}
		mirrored.Masks[i] = tensor.New(tensor.WithShape(mh, mw), tensor.WithBacking(dst))
	}
	flipped.Target = mirrored
	return flipped, nil
}

package dataset

import (
	"math/rand"

	"gorgonia.org/tensor"
)

// SyntheticImages builds a small deterministic image-classification dataset.
//
// Each class gets a distinct bright horizontal band on an otherwise dark
// (channels, size, size) canvas. This is not realistic data; it exists so
// the full pipeline can run without any files on disk (the CLI's -synthetic
// mode and the package tests use it).
func SyntheticImages(perClass, classes, channels, size int) *InMemory {
	samples := make([]Sample, 0, perClass*classes)
	band := size / classes
	if band == 0 {
		band = 1
	}
	for class := 0; class < classes; class++ {
		for n := 0; n < perClass; n++ {
			data := make([]float32, channels*size*size)
			startRow := class * band
			for c := 0; c < channels; c++ {
				for y := startRow; y < startRow+band && y < size; y++ {
					for x := 0; x < size; x++ {
						data[c*size*size+y*size+x] = 0.8
					}
				}
			}
			samples = append(samples, Sample{
				Input:  tensor.New(tensor.WithShape(channels, size, size), tensor.WithBacking(data)),
				Target: ClassTarget(int32(class)),
			})
		}
	}
	return NewInMemory(samples)
}

// TwoClassBlobs builds a linearly separable two-class dataset.
//
// Class 0 points cluster around (-1, -1) and class 1 around (+1, +1), each
// stored as a (2, 1, 1) tensor so they flow through the same loader path as
// images. A few epochs of any sane optimizer drive the training loss close
// to zero, which is exactly what the harness convergence tests assert.
func TwoClassBlobs(perClass int, seed int64) *InMemory {
	rng := rand.New(rand.NewSource(seed))
	samples := make([]Sample, 0, 2*perClass)
	for class := 0; class < 2; class++ {
		center := float32(-1)
		if class == 1 {
			center = 1
		}
		for n := 0; n < perClass; n++ {
			data := []float32{
				center + float32(rng.NormFloat64())*0.2,
				center + float32(rng.NormFloat64())*0.2,
			}
			samples = append(samples, Sample{
				Input:  tensor.New(tensor.WithShape(2, 1, 1), tensor.WithBacking(data)),
				Target: ClassTarget(int32(class)),
			})
		}
	}
	// Interleave the classes so small batches see both.
	rng.Shuffle(len(samples), func(i, j int) { samples[i], samples[j] = samples[j], samples[i] })
	return NewInMemory(samples)
}

// Package dataset implements dataset adapters for the Crucible training harness.
//
// This package provides:
//   - Dataset interface: indexable, read-only sample collections
//   - Sample, Target: the (input, target) data model
//   - ImageMaskDataset: paired image/instance-mask directories (detection/segmentation)
//   - CIFAR10, FashionMNIST: classification dataset readers
//   - Transforms: composable, seeded input/target augmentation
//
// A Dataset's length is fixed at construction and its samples are immutable;
// every adapter sorts its file listing lexicographically so the index-to-sample
// mapping is identical across runs.
package dataset

import (
	"errors"
	"fmt"

	"gorgonia.org/tensor"
)

// Sentinel errors for the dataset error taxonomy.
//
// All of these are fatal: a run should abort rather than silently skip a
// sample, since skipping would corrupt the dataset's implied index length.
var (
	// ErrIndexOutOfRange is returned by Get for indices outside [0, Len).
	ErrIndexOutOfRange = errors.New("dataset: index out of range")

	// ErrDegenerateMask is returned when an instance mask has zero true pixels.
	ErrDegenerateMask = errors.New("dataset: degenerate instance mask (no pixels)")

	// ErrCountMismatch is returned at construction when the input and
	// label/mask listings disagree in count.
	ErrCountMismatch = errors.New("dataset: image and label counts disagree")
)

// Sample is one (input, target) pair.
//
// Input is a fixed-shape float32 tensor in channels-first layout (C, H, W)
// with pixel values normalized to [0, 1]. Target is either a ClassTarget or
// a *DetectionTarget.
type Sample struct {
	Input  *tensor.Dense
	Target Target
}

// Target is the tagged target record attached to a Sample.
//
// Exactly two implementations exist: ClassTarget for classification and
// *DetectionTarget for detection/segmentation. Code that consumes targets
// switches on the concrete type.
type Target interface {
	targetKind() string
}

// ClassTarget is a scalar class index target.
type ClassTarget int32

func (ClassTarget) targetKind() string { return "class" }

// DetectionTarget is a structured per-image target for detection and
// instance segmentation. All slices are parallel: Boxes[i], Labels[i],
// Masks[i], Areas[i] and IsCrowd[i] describe the same instance.
type DetectionTarget struct {
	Boxes   []Box           // tight bounding box per instance
	Labels  []int32         // class index per instance
	Masks   []*tensor.Dense // bool (H, W) tensor per instance
	Areas   []float32       // mask pixel count per instance
	IsCrowd []bool          // crowd flag per instance
}

func (*DetectionTarget) targetKind() string { return "detection" }

// Instances returns the number of instances in the target.
func (t *DetectionTarget) Instances() int { return len(t.Boxes) }

// Box is an axis-aligned bounding box in pixel coordinates.
//
// The box spans columns [XMin, XMax] and rows [YMin, YMax] inclusive, so a
// non-degenerate instance always has XMax >= XMin and YMax >= YMin.
type Box struct {
	XMin, YMin, XMax, YMax int
}

// Width returns the horizontal extent of the box in pixels.
func (b Box) Width() int { return b.XMax - b.XMin + 1 }

// Height returns the vertical extent of the box in pixels.
func (b Box) Height() int { return b.YMax - b.YMin + 1 }

// Dataset is an immutable, indexable collection of Samples.
//
// Len never changes during a training run. Get must return an input of the
// adapter's declared fixed shape, and fails with ErrIndexOutOfRange for
// indices outside [0, Len).
type Dataset interface {
	Len() int
	Get(index int) (Sample, error)
}

// Subset is a view of a Dataset restricted to a fixed index set.
//
// Subsets are how train/eval partitions are expressed: Split builds two
// Subsets over disjoint indices once, and the partition never changes
// afterwards.
type Subset struct {
	base    Dataset
	indices []int
}

// NewSubset creates a view of base restricted to indices.
//
// Every index must be valid for base; validation happens here, once, so Get
// can only fail if the base dataset itself fails.
func NewSubset(base Dataset, indices []int) (*Subset, error) {
	n := base.Len()
	for _, idx := range indices {
		if idx < 0 || idx >= n {
			return nil, fmt.Errorf("%w: subset index %d (base length %d)", ErrIndexOutOfRange, idx, n)
		}
	}
	owned := append([]int(nil), indices...)
	return &Subset{base: base, indices: owned}, nil
}

// Len returns the number of samples in the subset.
func (s *Subset) Len() int { return len(s.indices) }

// Get returns the sample at the subset-relative index.
func (s *Subset) Get(index int) (Sample, error) {
	if index < 0 || index >= len(s.indices) {
		return Sample{}, fmt.Errorf("%w: %d (length %d)", ErrIndexOutOfRange, index, len(s.indices))
	}
	return s.base.Get(s.indices[index])
}

// Split partitions ds into a training subset and an evaluation subset.
//
// The last evalCount indices go to the evaluation subset and the rest to the
// training subset, mirroring the common "hold out the tail" convention.
// The two index sets are disjoint by construction; this is the only place a
// partition is made, so the train and eval splits can never leak into each
// other during a run.
func Split(ds Dataset, evalCount int) (train, eval *Subset, err error) {
	n := ds.Len()
	if evalCount <= 0 || evalCount >= n {
		return nil, nil, fmt.Errorf("dataset: eval count %d out of range (0, %d)", evalCount, n)
	}
	trainIdx := make([]int, 0, n-evalCount)
	evalIdx := make([]int, 0, evalCount)
	for i := 0; i < n-evalCount; i++ {
		trainIdx = append(trainIdx, i)
	}
	for i := n - evalCount; i < n; i++ {
		evalIdx = append(evalIdx, i)
	}
	train, err = NewSubset(ds, trainIdx)
	if err != nil {
		return nil, nil, err
	}
	eval, err = NewSubset(ds, evalIdx)
	if err != nil {
		return nil, nil, err
	}
	return train, eval, nil
}

// InMemory is a Dataset backed by a slice of pre-built samples.
//
// Synthetic datasets and tests use it directly; file-based adapters build
// their own lazy implementations.
type InMemory struct {
	samples []Sample
}

// NewInMemory wraps samples in a Dataset.
func NewInMemory(samples []Sample) *InMemory {
	return &InMemory{samples: samples}
}

// Len returns the number of samples.
func (m *InMemory) Len() int { return len(m.samples) }

// Get returns the sample at index.
func (m *InMemory) Get(index int) (Sample, error) {
	if index < 0 || index >= len(m.samples) {
		return Sample{}, fmt.Errorf("%w: %d (length %d)", ErrIndexOutOfRange, index, len(m.samples))
	}
	return m.samples[index], nil
}

// Copyright 2025 Crucible ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package dataset exposes the dataset abstraction and the concrete
// adapters: CIFAR-10 binary batches, Fashion-MNIST IDX files, image/mask
// detection pairs, and synthetic data for tests and smoke runs.
//
// Example:
//
//	ds, err := dataset.LoadCIFAR10("./data/cifar-10-batches-bin", "data_batch_*.bin", nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	sample, err := ds.Get(0)
package dataset

import (
	"image"

	"github.com/crucible-ml/crucible/internal/dataset"
)

// Errors surfaced by dataset access and decoding.
var (
	ErrIndexOutOfRange = dataset.ErrIndexOutOfRange
	ErrDegenerateMask  = dataset.ErrDegenerateMask
	ErrCountMismatch   = dataset.ErrCountMismatch
)

// Sample pairs one input tensor with its target.
type Sample = dataset.Sample

// Target is either a ClassTarget or a *DetectionTarget.
type Target = dataset.Target

// ClassTarget is a single class index.
type ClassTarget = dataset.ClassTarget

// DetectionTarget carries the per-instance annotations of one image.
type DetectionTarget = dataset.DetectionTarget

// Box is an axis-aligned bounding box with inclusive pixel coordinates.
type Box = dataset.Box

// Dataset is an indexable collection of samples.
type Dataset = dataset.Dataset

// Subset is an index-remapped view over another dataset.
type Subset = dataset.Subset

// NewSubset builds a view over base restricted to the given indices.
func NewSubset(base Dataset, indices []int) (*Subset, error) {
	return dataset.NewSubset(base, indices)
}

// Split holds out the last evalCount samples of ds as an evaluation set.
func Split(ds Dataset, evalCount int) (train, eval *Subset, err error) {
	return dataset.Split(ds, evalCount)
}

// InMemory is a dataset backed by a sample slice.
type InMemory = dataset.InMemory

// NewInMemory wraps samples as a dataset.
func NewInMemory(samples []Sample) *InMemory { return dataset.NewInMemory(samples) }

// Adapters

// CIFAR10 reads the CIFAR-10 binary batch format.
type CIFAR10 = dataset.CIFAR10

// LoadCIFAR10 loads every batch file in dir matching pattern.
func LoadCIFAR10(dir, pattern string, transform Transform) (*CIFAR10, error) {
	return dataset.LoadCIFAR10(dir, pattern, transform)
}

// CIFAR10Classes reads the class names from batches.meta.txt.
func CIFAR10Classes(dir string) ([]string, error) { return dataset.CIFAR10Classes(dir) }

// FashionMNIST reads the IDX image and label files.
type FashionMNIST = dataset.FashionMNIST

// LoadFashionMNIST loads the train or test split from dir.
func LoadFashionMNIST(dir string, train bool, transform Transform) (*FashionMNIST, error) {
	return dataset.LoadFashionMNIST(dir, train, transform)
}

// FashionMNISTClasses are the ten Fashion-MNIST categories in label order.
var FashionMNISTClasses = dataset.FashionMNISTClasses

// ImageMaskDataset pairs images with color-coded instance masks.
type ImageMaskDataset = dataset.ImageMaskDataset

// ImageMaskConfig locates an image/mask dataset on disk.
type ImageMaskConfig = dataset.ImageMaskConfig

// NewImageMaskDataset scans the image and mask directories and validates
// the pairing.
func NewImageMaskDataset(cfg ImageMaskConfig) (*ImageMaskDataset, error) {
	return dataset.NewImageMaskDataset(cfg)
}

// DecomposeMask splits a color-coded mask image into per-instance boolean
// masks with tight bounding boxes.
func DecomposeMask(maskImg image.Image) (*DetectionTarget, error) {
	return dataset.DecomposeMask(maskImg)
}

// Transforms

// Transform rewrites a sample, typically for augmentation or normalization.
type Transform = dataset.Transform

// Compose chains transforms left to right.
func Compose(transforms ...Transform) Transform { return dataset.Compose(transforms...) }

// Normalize shifts and scales each channel by the given statistics.
func Normalize(mean, std []float32) Transform { return dataset.Normalize(mean, std) }

// RandomHorizontalFlip mirrors the sample left-right with probability p.
// The decision for each sample is derived from (seed, index), so it does not
// depend on shared state or evaluation order.
func RandomHorizontalFlip(p float64, seed int64) Transform {
	return dataset.RandomHorizontalFlip(p, seed)
}

// Synthetic data

// SyntheticImages builds a deterministic labeled image set for smoke runs.
func SyntheticImages(perClass, classes, channels, size int) *InMemory {
	return dataset.SyntheticImages(perClass, classes, channels, size)
}

// TwoClassBlobs builds a tiny linearly separable two-class set.
func TwoClassBlobs(perClass int, seed int64) *InMemory {
	return dataset.TwoClassBlobs(perClass, seed)
}

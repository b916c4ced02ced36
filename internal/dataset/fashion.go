package dataset

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gorgonia.org/tensor"
)

// IDX magic numbers for the image and label files.
const (
	idxImagesMagic = 2051
	idxLabelsMagic = 2049
)

// FashionMNIST is an in-memory classification dataset read from the
// Fashion-MNIST IDX binary files (the same wire format as MNIST).
//
// Samples are (1, 28, 28) float32 tensors in [0, 1] with class indices 0-9.
type FashionMNIST struct {
	inputs    []*tensor.Dense
	labels    []int32
	rows      int
	cols      int
	transform Transform
}

// FashionMNISTClasses are the ten Fashion-MNIST categories in label order.
var FashionMNISTClasses = []string{
	"t-shirt/top", "trouser", "pullover", "dress", "coat",
	"sandal", "shirt", "sneaker", "bag", "ankle boot",
}

// LoadFashionMNIST reads the IDX image/label pair for one split.
//
//	train: train-images-idx3-ubyte + train-labels-idx1-ubyte
//	test:  t10k-images-idx3-ubyte  + t10k-labels-idx1-ubyte
//
// Construction fails immediately if the image and label counts disagree;
// that is a configuration error, reported before any training begins.
func LoadFashionMNIST(dir string, train bool, transform Transform) (*FashionMNIST, error) {
	imageFile := filepath.Join(dir, "t10k-images-idx3-ubyte")
	labelFile := filepath.Join(dir, "t10k-labels-idx1-ubyte")
	if train {
		imageFile = filepath.Join(dir, "train-images-idx3-ubyte")
		labelFile = filepath.Join(dir, "train-labels-idx1-ubyte")
	}

	images, rows, cols, err := readIDXImages(imageFile)
	if err != nil {
		return nil, fmt.Errorf("fashion-mnist: %w", err)
	}
	labels, err := readIDXLabels(labelFile)
	if err != nil {
		return nil, fmt.Errorf("fashion-mnist: %w", err)
	}
	if len(images) != len(labels) {
		return nil, fmt.Errorf("%w: %d images, %d labels", ErrCountMismatch, len(images), len(labels))
	}

	ds := &FashionMNIST{
		inputs:    make([]*tensor.Dense, len(images)),
		labels:    make([]int32, len(labels)),
		rows:      rows,
		cols:      cols,
		transform: transform,
	}
	for i, raw := range images {
		pixels := make([]float32, len(raw))
		for j, b := range raw {
			pixels[j] = float32(b) / 255.0
		}
		ds.inputs[i] = tensor.New(tensor.WithShape(1, rows, cols), tensor.WithBacking(pixels))
		ds.labels[i] = int32(labels[i])
	}
	return ds, nil
}

// Len returns the number of samples.
func (d *FashionMNIST) Len() int { return len(d.labels) }

// Get returns the sample at index.
func (d *FashionMNIST) Get(index int) (Sample, error) {
	if index < 0 || index >= len(d.labels) {
		return Sample{}, fmt.Errorf("%w: %d (length %d)", ErrIndexOutOfRange, index, len(d.labels))
	}
	s := Sample{Input: d.inputs[index], Target: ClassTarget(d.labels[index])}
	if d.transform != nil {
		var err error
		s, err = d.transform(index, s)
		if err != nil {
			return Sample{}, fmt.Errorf("fashion-mnist: transform sample %d: %w", index, err)
		}
	}
	return s, nil
}

// readIDXImages reads an IDX image file.
//
// Layout: uint32 magic (2051), uint32 count, uint32 rows, uint32 cols,
// then count*rows*cols unsigned pixel bytes; all integers big-endian.
func readIDXImages(filename string) (images [][]byte, rows, cols int, err error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, 0, 0, err
	}
	defer f.Close()

	var magic uint32
	if err := binary.Read(f, binary.BigEndian, &magic); err != nil {
		return nil, 0, 0, fmt.Errorf("read magic: %w", err)
	}
	if magic != idxImagesMagic {
		return nil, 0, 0, fmt.Errorf("invalid image magic: got %d, want %d", magic, idxImagesMagic)
	}

	var count, numRows, numCols uint32
	if err := binary.Read(f, binary.BigEndian, &count); err != nil {
		return nil, 0, 0, err
	}
	if err := binary.Read(f, binary.BigEndian, &numRows); err != nil {
		return nil, 0, 0, err
	}
	if err := binary.Read(f, binary.BigEndian, &numCols); err != nil {
		return nil, 0, 0, err
	}

	imageSize := int(numRows * numCols)
	images = make([][]byte, count)
	for i := range images {
		images[i] = make([]byte, imageSize)
		if _, err := io.ReadFull(f, images[i]); err != nil {
			return nil, 0, 0, fmt.Errorf("read image %d: %w", i, err)
		}
	}
	return images, int(numRows), int(numCols), nil
}

// readIDXLabels reads an IDX label file.
//
// Layout: uint32 magic (2049), uint32 count, then count label bytes.
func readIDXLabels(filename string) ([]byte, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var magic uint32
	if err := binary.Read(f, binary.BigEndian, &magic); err != nil {
		return nil, fmt.Errorf("read magic: %w", err)
	}
	if magic != idxLabelsMagic {
		return nil, fmt.Errorf("invalid label magic: got %d, want %d", magic, idxLabelsMagic)
	}

	var count uint32
	if err := binary.Read(f, binary.BigEndian, &count); err != nil {
		return nil, err
	}

	labels := make([]byte, count)
	if _, err := io.ReadFull(f, labels); err != nil {
		return nil, fmt.Errorf("read labels: %w", err)
	}
	return labels, nil
}

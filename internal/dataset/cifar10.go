package dataset

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gorgonia.org/tensor"
)

// CIFAR-10 binary batch layout: each row is one label byte followed by
// 3072 pixel bytes (three 32x32 channel planes, red first).
const (
	cifarImageSize = 3 * 32 * 32
	cifarRowSize   = 1 + cifarImageSize
	cifarClasses   = 10
)

// CIFAR10 is an in-memory classification dataset read from the CIFAR-10
// binary batch files.
//
// Pixel values are normalized to [0, 1] and kept channels-first (3, 32, 32).
type CIFAR10 struct {
	inputs    []*tensor.Dense
	labels    []int32
	transform Transform
}

// LoadCIFAR10 reads every batch file matching pattern under dir.
//
// The training set is conventionally "data_batch_*.bin" and the test set
// "test_batch.bin". Files are read in lexicographic order so the
// index-to-sample mapping is stable. A truncated row is a fatal decode
// error, not a skipped sample.
//
// Example:
//
//	train, err := dataset.LoadCIFAR10("./data/cifar-10-batches-bin", "data_batch_*.bin", nil)
func LoadCIFAR10(dir, pattern string, transform Transform) (*CIFAR10, error) {
	paths, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		return nil, fmt.Errorf("cifar10: glob: %w", err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("cifar10: no files matching %s under %s", pattern, dir)
	}
	sort.Strings(paths)

	ds := &CIFAR10{transform: transform}
	for _, path := range paths {
		if err := ds.readBatch(path); err != nil {
			return nil, fmt.Errorf("cifar10: %s: %w", path, err)
		}
	}
	return ds, nil
}

func (d *CIFAR10) readBatch(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	r := bufio.NewReader(f)
	row := make([]byte, cifarRowSize)
	for {
		_, err := io.ReadFull(r, row)
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read row %d: %w", len(d.labels), err)
		}

		label := int32(row[0])
		if label < 0 || label >= cifarClasses {
			return fmt.Errorf("row %d: label %d out of range [0, %d)", len(d.labels), label, cifarClasses)
		}

		pixels := make([]float32, cifarImageSize)
		for i, b := range row[1:] {
			pixels[i] = float32(b) / 255.0
		}
		d.inputs = append(d.inputs, tensor.New(tensor.WithShape(3, 32, 32), tensor.WithBacking(pixels)))
		d.labels = append(d.labels, label)
	}
}

// Len returns the number of samples.
func (d *CIFAR10) Len() int { return len(d.labels) }

// Get returns the sample at index.
func (d *CIFAR10) Get(index int) (Sample, error) {
	if index < 0 || index >= len(d.labels) {
		return Sample{}, fmt.Errorf("%w: %d (length %d)", ErrIndexOutOfRange, index, len(d.labels))
	}
	s := Sample{Input: d.inputs[index], Target: ClassTarget(d.labels[index])}
	if d.transform != nil {
		var err error
		s, err = d.transform(index, s)
		if err != nil {
			return Sample{}, fmt.Errorf("cifar10: transform sample %d: %w", index, err)
		}
	}
	return s, nil
}

// CIFAR10Classes reads the class-name listing shipped with the binary
// batches (batches.meta.txt), one name per line.
func CIFAR10Classes(dir string) ([]string, error) {
	f, err := os.Open(filepath.Join(dir, "batches.meta.txt"))
	if err != nil {
		return nil, fmt.Errorf("cifar10: %w", err)
	}
	defer f.Close()

	var names []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		name := strings.TrimSpace(scanner.Text())
		if name != "" {
			names = append(names, name)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("cifar10: read class names: %w", err)
	}
	return names, nil
}

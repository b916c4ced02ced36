package dataset

import (
	"fmt"
	"image"
	_ "image/png" // mask/image decoding
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gorgonia.org/tensor"
)

// ImageMaskDataset adapts a directory of images paired with color-encoded
// instance masks into detection/segmentation samples.
//
// Expected layout under root:
//
//	<root>/<imageDir>/<id>.png
//	<root>/<maskDir>/<id>_mask.png
//
// Both listings are sorted lexicographically, so sample i always refers to
// the same image across runs. Construction fails immediately if the two
// listings disagree in count or cannot be paired by id; nothing is trained
// on a half-validated dataset.
//
// Get decodes the image to a (3, H, W) float32 tensor in [0, 1] and
// decomposes the mask into one boolean mask per unique non-background color,
// deriving a tight bounding box per instance. Decomposition only emits
// instances that cover at least one pixel; if a transform later empties an
// instance mask, Get surfaces ErrDegenerateMask rather than dropping it.
type ImageMaskDataset struct {
	imagePaths []string
	maskPaths  []string
	transform  Transform
}

// ImageMaskConfig configures an ImageMaskDataset.
type ImageMaskConfig struct {
	Root      string    // dataset root directory
	ImageDir  string    // subdirectory holding <id>.png images
	MaskDir   string    // subdirectory holding <id>_mask.png masks
	Transform Transform // optional, applied on Get
}

const maskSuffix = "_mask"

// NewImageMaskDataset enumerates and pairs the image and mask listings.
func NewImageMaskDataset(cfg ImageMaskConfig) (*ImageMaskDataset, error) {
	images, err := listPNGs(filepath.Join(cfg.Root, cfg.ImageDir))
	if err != nil {
		return nil, fmt.Errorf("list images: %w", err)
	}
	masks, err := listPNGs(filepath.Join(cfg.Root, cfg.MaskDir))
	if err != nil {
		return nil, fmt.Errorf("list masks: %w", err)
	}
	if len(images) != len(masks) {
		return nil, fmt.Errorf("%w: %d images, %d masks", ErrCountMismatch, len(images), len(masks))
	}
	if len(images) == 0 {
		return nil, fmt.Errorf("dataset: no images under %s", filepath.Join(cfg.Root, cfg.ImageDir))
	}
	for i := range images {
		imgID := strings.TrimSuffix(filepath.Base(images[i]), ".png")
		maskID := strings.TrimSuffix(filepath.Base(masks[i]), ".png")
		if imgID+maskSuffix != maskID {
			return nil, fmt.Errorf("dataset: unpaired files %q and %q", images[i], masks[i])
		}
	}
	return &ImageMaskDataset{
		imagePaths: images,
		maskPaths:  masks,
		transform:  cfg.Transform,
	}, nil
}

func listPNGs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	paths := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".png") {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}

// Len returns the number of image/mask pairs.
func (d *ImageMaskDataset) Len() int { return len(d.imagePaths) }

// Get decodes and decomposes the pair at index.
func (d *ImageMaskDataset) Get(index int) (Sample, error) {
	if index < 0 || index >= len(d.imagePaths) {
		return Sample{}, fmt.Errorf("%w: %d (length %d)", ErrIndexOutOfRange, index, len(d.imagePaths))
	}

	img, err := decodeImage(d.imagePaths[index])
	if err != nil {
		return Sample{}, fmt.Errorf("decode image %s: %w", d.imagePaths[index], err)
	}
	maskImg, err := decodeImage(d.maskPaths[index])
	if err != nil {
		return Sample{}, fmt.Errorf("decode mask %s: %w", d.maskPaths[index], err)
	}

	input := imageToCHW(img)
	target, err := DecomposeMask(maskImg)
	if err != nil {
		return Sample{}, fmt.Errorf("mask %s: %w", d.maskPaths[index], err)
	}

	sample := Sample{Input: input, Target: target}
	if d.transform != nil {
		sample, err = d.transform(index, sample)
		if err != nil {
			return Sample{}, fmt.Errorf("transform %s: %w", d.imagePaths[index], err)
		}
		// Transforms may crop or otherwise rewrite instance masks; an
		// instance left with no foreground pixels is unusable downstream.
		if det, ok := sample.Target.(*DetectionTarget); ok {
			if err := validateInstances(det); err != nil {
				return Sample{}, fmt.Errorf("transform %s: %w", d.imagePaths[index], err)
			}
		}
	}
	return sample, nil
}

// validateInstances checks that every instance mask still covers at least one
// pixel. DecomposeMask only emits instances with pixels, so this can only
// fail after a transform has rewritten the target.
func validateInstances(det *DetectionTarget) error {
	for i, mask := range det.Masks {
		pixels := mask.Data().([]bool)
		covered := false
		for _, p := range pixels {
			if p {
				covered = true
				break
			}
		}
		if !covered {
			return fmt.Errorf("%w: instance %d has no foreground pixels", ErrDegenerateMask, i)
		}
	}
	return nil
}

func decodeImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, err
	}
	return img, nil
}

// imageToCHW converts an image to a (3, H, W) float32 tensor in [0, 1].
func imageToCHW(img image.Image) *tensor.Dense {
	bounds := img.Bounds()
	h := bounds.Dy()
	w := bounds.Dx()
	data := make([]float32, 3*h*w)
	plane := h * w
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, b, _ := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			data[0*plane+y*w+x] = float32(r) / 65535.0
			data[1*plane+y*w+x] = float32(g) / 65535.0
			data[2*plane+y*w+x] = float32(b) / 65535.0
		}
	}
	return tensor.New(tensor.WithShape(3, h, w), tensor.WithBacking(data))
}

// DecomposeMask splits a color-encoded instance mask into per-instance
// boolean masks with tight bounding boxes.
//
// Every unique non-background color marks one instance; background is the
// zero color (black). Instances are ordered by first appearance in row-major
// scan order, so decomposition is deterministic. All instances are labeled
// with class 1 (a single foreground class) and IsCrowd false, following the
// pedestrian dataset convention.
func DecomposeMask(maskImg image.Image) (*DetectionTarget, error) {
	bounds := maskImg.Bounds()
	h := bounds.Dy()
	w := bounds.Dx()

	type extent struct {
		box    Box
		pixels []bool
		count  int
	}
	instances := make(map[uint64]*extent)
	order := make([]uint64, 0, 4)

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, b, _ := maskImg.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			key := uint64(r)<<32 | uint64(g)<<16 | uint64(b)
			if key == 0 {
				continue // background
			}
			inst, ok := instances[key]
			if !ok {
				inst = &extent{
					box:    Box{XMin: x, YMin: y, XMax: x, YMax: y},
					pixels: make([]bool, h*w),
				}
				instances[key] = inst
				order = append(order, key)
			}
			inst.pixels[y*w+x] = true
			inst.count++
			if x < inst.box.XMin {
				inst.box.XMin = x
			}
			if x > inst.box.XMax {
				inst.box.XMax = x
			}
			if y < inst.box.YMin {
				inst.box.YMin = y
			}
			if y > inst.box.YMax {
				inst.box.YMax = y
			}
		}
	}

	target := &DetectionTarget{
		Boxes:   make([]Box, 0, len(order)),
		Labels:  make([]int32, 0, len(order)),
		Masks:   make([]*tensor.Dense, 0, len(order)),
		Areas:   make([]float32, 0, len(order)),
		IsCrowd: make([]bool, 0, len(order)),
	}
	for _, key := range order {
		inst := instances[key]
		target.Boxes = append(target.Boxes, inst.box)
		target.Labels = append(target.Labels, 1)
		target.Masks = append(target.Masks, tensor.New(tensor.WithShape(h, w), tensor.WithBacking(inst.pixels)))
		target.Areas = append(target.Areas, float32(inst.count))
		target.IsCrowd = append(target.IsCrowd, false)
	}
	return target, nil
}

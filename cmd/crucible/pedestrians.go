package main

import (
	"flag"

	"github.com/sirupsen/logrus"

	"github.com/crucible-ml/crucible/internal/backend/cpu"
	"github.com/crucible-ml/crucible/internal/dataset"
	"github.com/crucible-ml/crucible/internal/loader"
)

// runPedestrians walks the Penn-Fudan style image/mask pairs and reports
// per-batch instance statistics. Detection batches keep positional lists
// rather than a stacked tensor because every image has its own size and
// instance count.
func runPedestrians(args []string) error {
	fs := flag.NewFlagSet("pedestrians", flag.ExitOnError)
	root := fs.String("data", "PennFudanPed", "Dataset root containing PNGImages and PedMasks")
	batchSize := fs.Int("batch", 2, "Batch size")
	workers := fs.Int("workers", 0, "Loader workers (0 = device default)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	device := cpu.New()
	log := logrus.WithField("run", "pedestrians")
	log.WithField("device", device.String()).Info("starting")

	ds, err := dataset.NewImageMaskDataset(dataset.ImageMaskConfig{
		Root:     *root,
		ImageDir: "PNGImages",
		MaskDir:  "PedMasks",
	})
	if err != nil {
		return err
	}
	log.WithField("samples", ds.Len()).Info("dataset ready")

	ld, err := loader.New(ds, loader.Config{
		BatchSize: *batchSize,
		Workers:   *workers,
		Device:    device,
	})
	if err != nil {
		return err
	}

	ctx, stop := runContext()
	defer stop()

	batches, errCh := ld.Epoch(ctx)
	var instances int
	var images int
	for batch := range batches {
		for i, tgt := range batch.TargetList {
			shape := batch.InputList[i].Shape()
			var area int
			for _, box := range tgt.Boxes {
				area += box.Width() * box.Height()
			}
			log.WithFields(logrus.Fields{
				"batch":     batch.Index,
				"height":    shape[1],
				"width":     shape[2],
				"instances": len(tgt.Masks),
				"box_area":  area,
			}).Info("sample")
			instances += len(tgt.Masks)
		}
		images += batch.Size
	}
	if err := <-errCh; err != nil {
		return err
	}

	log.WithFields(logrus.Fields{
		"images":    images,
		"instances": instances,
	}).Info("done")
	return nil
}

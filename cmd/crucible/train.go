package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/crucible-ml/crucible/internal/backend/cpu"
	"github.com/crucible-ml/crucible/internal/config"
	"github.com/crucible-ml/crucible/internal/dataset"
	"github.com/crucible-ml/crucible/internal/loader"
	"github.com/crucible-ml/crucible/internal/model"
	"github.com/crucible-ml/crucible/internal/nn"
	"github.com/crucible-ml/crucible/internal/optim"
	"github.com/crucible-ml/crucible/internal/train"
)

// trainFlags parses the shared training flag set on top of a preset config.
func trainFlags(name string, preset *config.Config, args []string) (*config.Config, error) {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	cfgPath := fs.String("config", "", "Path to YAML config")
	dataDir := fs.String("data", "", "Dataset directory")
	epochs := fs.Int("epochs", 0, "Number of training epochs")
	batchSize := fs.Int("batch", 0, "Batch size")
	lr := fs.Float64("lr", 0, "Learning rate")
	workers := fs.Int("workers", 0, "Loader workers (0 = device default)")
	seed := fs.Int64("seed", 0, "PRNG seed")
	logEvery := fs.Int("log-every", 0, "Progress signal cadence in batches")
	synthetic := fs.Bool("synthetic", false, "Use synthetic data instead of files")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	cfg, err := config.Load(*cfgPath, preset)
	if err != nil {
		return nil, err
	}
	cfg.ApplyOverrides(config.Overrides{
		DataDir:   *dataDir,
		Epochs:    *epochs,
		BatchSize: *batchSize,
		LR:        *lr,
		Workers:   *workers,
		Seed:      *seed,
		LogEvery:  *logEvery,
		Synthetic: *synthetic,
	})
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func runContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// runCIFAR10 trains LeNet-5 on the CIFAR-10 binary batches. The source run
// reported every 500 batches, so that is this preset's cadence.
func runCIFAR10(args []string) error {
	preset := config.Default()
	preset.LogEvery = 500
	cfg, err := trainFlags("train-cifar10", preset, args)
	if err != nil {
		return err
	}

	device := cpu.New()
	log := logrus.WithField("run", "cifar10")
	log.WithField("device", device.String()).Info("starting")

	var trainDS, evalDS dataset.Dataset
	if cfg.Synthetic {
		full := dataset.SyntheticImages(12, 10, 3, 32)
		trainDS, evalDS, err = dataset.Split(full, full.Len()/5)
		if err != nil {
			return err
		}
	} else {
		flip := dataset.RandomHorizontalFlip(0.5, cfg.Seed)
		trainDS, err = dataset.LoadCIFAR10(cfg.DataDir, "data_batch_*.bin", flip)
		if err != nil {
			return err
		}
		evalDS, err = dataset.LoadCIFAR10(cfg.DataDir, "test_batch.bin", nil)
		if err != nil {
			return err
		}
	}
	log.WithFields(logrus.Fields{
		"train_samples": trainDS.Len(),
		"eval_samples":  evalDS.Len(),
	}).Info("datasets ready")

	trainLoader, err := loader.New(trainDS, loader.Config{
		BatchSize: cfg.BatchSize,
		Shuffle:   true,
		Workers:   cfg.Workers,
		Seed:      cfg.Seed,
		Device:    device,
	})
	if err != nil {
		return err
	}
	evalLoader, err := loader.New(evalDS, loader.Config{
		BatchSize: cfg.BatchSize,
		Workers:   cfg.Workers,
		Seed:      cfg.Seed,
		Device:    device,
	})
	if err != nil {
		return err
	}

	mdl := model.NewLeNet(10, cfg.Seed)
	harness, err := train.New(train.Config{
		Model:     mdl,
		Objective: nn.NewCrossEntropy(),
		Optimizer: optim.NewAdam(mdl.Parameters(), optim.AdamConfig{LR: float32(cfg.LR)}),
		LogEvery:  cfg.LogEvery,
		Log:       log,
		Sink:      train.LogSink{Log: log},
	})
	if err != nil {
		return err
	}

	ctx, stop := runContext()
	defer stop()
	return harness.Fit(ctx, trainLoader, evalLoader, cfg.Epochs)
}

// runFashion trains the fully connected classifier on Fashion-MNIST with
// SGD and momentum, reporting every 100 batches as the source run did.
func runFashion(args []string) error {
	preset := config.Default()
	preset.LogEvery = 100
	preset.LR = 0.01
	cfg, err := trainFlags("train-fashion", preset, args)
	if err != nil {
		return err
	}

	device := cpu.New()
	log := logrus.WithField("run", "fashion")
	log.WithField("device", device.String()).Info("starting")

	var trainDS, evalDS dataset.Dataset
	if cfg.Synthetic {
		full := dataset.SyntheticImages(12, 10, 1, 28)
		trainDS, evalDS, err = dataset.Split(full, full.Len()/5)
		if err != nil {
			return err
		}
	} else {
		trainDS, err = dataset.LoadFashionMNIST(cfg.DataDir, true, nil)
		if err != nil {
			return err
		}
		evalDS, err = dataset.LoadFashionMNIST(cfg.DataDir, false, nil)
		if err != nil {
			return err
		}
	}
	log.WithFields(logrus.Fields{
		"train_samples": trainDS.Len(),
		"eval_samples":  evalDS.Len(),
	}).Info("datasets ready")

	trainLoader, err := loader.New(trainDS, loader.Config{
		BatchSize: cfg.BatchSize,
		Shuffle:   true,
		Workers:   cfg.Workers,
		Seed:      cfg.Seed,
		Device:    device,
	})
	if err != nil {
		return err
	}
	evalLoader, err := loader.New(evalDS, loader.Config{
		BatchSize: cfg.BatchSize,
		Workers:   cfg.Workers,
		Seed:      cfg.Seed,
		Device:    device,
	})
	if err != nil {
		return err
	}

	mdl := model.NewFashionMLP(10, 0.2, cfg.Seed)
	harness, err := train.New(train.Config{
		Model:     mdl,
		Objective: nn.NewCrossEntropy(),
		Optimizer: optim.NewSGD(mdl.Parameters(), optim.SGDConfig{LR: float32(cfg.LR), Momentum: 0.9}),
		LogEvery:  cfg.LogEvery,
		Log:       log,
		Sink:      train.LogSink{Log: log},
	})
	if err != nil {
		return err
	}

	ctx, stop := runContext()
	defer stop()
	return harness.Fit(ctx, trainLoader, evalLoader, cfg.Epochs)
}

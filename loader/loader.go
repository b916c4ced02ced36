// Copyright 2025 Crucible ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package loader exposes batched, concurrent iteration over datasets.
//
// Example:
//
//	ld, err := loader.New(ds, loader.Config{BatchSize: 32, Shuffle: true, Seed: 42})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	batches, errs := ld.Epoch(ctx)
//	for batch := range batches {
//	    // consume batch
//	}
//	if err := <-errs; err != nil {
//	    log.Fatal(err)
//	}
package loader

import (
	"github.com/crucible-ml/crucible/internal/dataset"
	"github.com/crucible-ml/crucible/internal/loader"
)

// Config holds the loader knobs.
type Config = loader.Config

// Batch is one group of samples, stacked or positional.
type Batch = loader.Batch

// Loader produces epoch iterations over a dataset.
type Loader = loader.Loader

// New validates the configuration and builds a Loader.
func New(ds dataset.Dataset, cfg Config) (*Loader, error) {
	return loader.New(ds, cfg)
}

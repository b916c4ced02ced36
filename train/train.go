// Copyright 2025 Crucible ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package train exposes the supervised training harness.
//
// Example:
//
//	harness, err := train.New(train.Config{
//	    Model:     model,
//	    Objective: nn.NewCrossEntropy(),
//	    Optimizer: optim.NewAdam(model.Parameters(), optim.AdamConfig{LR: 0.001}),
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := harness.Fit(ctx, trainLoader, evalLoader, 10); err != nil {
//	    log.Fatal(err)
//	}
package train

import (
	"github.com/crucible-ml/crucible/internal/train"
)

// ErrNonFiniteLoss aborts a run whose loss went NaN or infinite.
var ErrNonFiniteLoss = train.ErrNonFiniteLoss

// Objective is a differentiable scalar loss over a stacked batch.
type Objective = train.Objective

// Config assembles a Harness.
type Config = train.Config

// Result summarizes one evaluation pass.
type Result = train.Result

// Harness runs training epochs and evaluations over a model.
type Harness = train.Harness

// New validates the configuration and builds a Harness.
func New(cfg Config) (*Harness, error) { return train.New(cfg) }

// Sink is the write-only boundary for external metric consumers.
type Sink = train.Sink

// NopSink discards everything.
type NopSink = train.NopSink

// LogSink forwards scalar metrics to a logrus entry.
type LogSink = train.LogSink

// Copyright 2025 Crucible ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package cpu exposes the CPU compute device description.
package cpu

import (
	"github.com/crucible-ml/crucible/internal/backend/cpu"
)

// Device describes the host CPU.
type Device = cpu.Device

// New probes the host CPU.
func New() Device { return cpu.New() }

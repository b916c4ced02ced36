// Package cpu describes the local compute device.
//
// The harness has no ambient "current device" global: callers construct a
// Device once and pass it into loader and harness construction, which is the
// only way device-dependent defaults (worker counts) are chosen.
package cpu

import (
	"fmt"
	"runtime"

	"github.com/klauspost/cpuid/v2"
)

// Device identifies the CPU the run executes on.
type Device struct {
	Name          string // CPU brand string as reported by the hardware
	PhysicalCores int
	LogicalCores  int
	VectorExt     string // widest supported vector extension, for log lines
}

// New probes the local CPU.
func New() Device {
	logical := runtime.NumCPU()
	physical := cpuid.CPU.PhysicalCores
	if physical <= 0 {
		physical = logical
	}
	name := cpuid.CPU.BrandName
	if name == "" {
		name = runtime.GOARCH
	}
	return Device{
		Name:          name,
		PhysicalCores: physical,
		LogicalCores:  logical,
		VectorExt:     vectorExt(),
	}
}

func vectorExt() string {
	switch {
	case cpuid.CPU.Supports(cpuid.AVX512F):
		return "avx512"
	case cpuid.CPU.Supports(cpuid.AVX2):
		return "avx2"
	case cpuid.CPU.Supports(cpuid.AVX):
		return "avx"
	case cpuid.CPU.Supports(cpuid.SSE4):
		return "sse4"
	default:
		return "none"
	}
}

// DefaultWorkers returns the loader worker count to use when the
// configuration does not pin one. Loading is I/O plus decode, so physical
// cores is a sensible ceiling.
func (d Device) DefaultWorkers() int {
	if d.PhysicalCores > 0 {
		return d.PhysicalCores
	}
	return 1
}

// String renders the device for log output.
func (d Device) String() string {
	return fmt.Sprintf("%s (%d cores, %s)", d.Name, d.PhysicalCores, d.VectorExt)
}

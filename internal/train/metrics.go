package train

import "time"

// Meter accumulates per-batch measurements between progress signals.
type Meter struct {
	samples  int
	compute  time.Duration
	batches  int
	lastLoss float32
}

// Record adds one batch's measurements.
func (m *Meter) Record(batchSize int, compute time.Duration, loss float32) {
	m.samples += batchSize
	m.compute += compute
	m.batches++
	m.lastLoss = loss
}

// Snapshot returns the aggregated window and resets the meter.
func (m *Meter) Snapshot() Snapshot {
	var snap Snapshot
	if m.compute > 0 {
		snap.SamplesPerSec = float64(m.samples) / m.compute.Seconds()
	}
	if m.batches > 0 {
		snap.AvgBatchMS = m.compute.Seconds() * 1000 / float64(m.batches)
	}
	snap.LastLoss = m.lastLoss
	snap.Samples = m.samples

	*m = Meter{}
	return snap
}

// Snapshot is one reporting window's aggregate.
type Snapshot struct {
	SamplesPerSec float64
	AvgBatchMS    float64
	LastLoss      float32
	Samples       int
}

package train

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMeterSnapshot(t *testing.T) {
	var m Meter
	m.Record(32, 100*time.Millisecond, 1.5)
	m.Record(32, 100*time.Millisecond, 1.2)

	snap := m.Snapshot()
	assert.InDelta(t, 320, snap.SamplesPerSec, 1)
	assert.InDelta(t, 100, snap.AvgBatchMS, 0.01)
	assert.Equal(t, float32(1.2), snap.LastLoss)
	assert.Equal(t, 64, snap.Samples)
}

func TestMeterSnapshotResets(t *testing.T) {
	var m Meter
	m.Record(8, time.Millisecond, 2)
	m.Snapshot()

	snap := m.Snapshot()
	assert.Zero(t, snap.Samples)
	assert.Zero(t, snap.SamplesPerSec)
	assert.Zero(t, snap.LastLoss)
}

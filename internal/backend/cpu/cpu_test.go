package cpu

import (
	"testing"
)

func TestNew(t *testing.T) {
	d := New()

	if d.Name == "" {
		t.Error("device name is empty")
	}
	if d.PhysicalCores <= 0 {
		t.Errorf("physical cores: %d", d.PhysicalCores)
	}
	if d.LogicalCores <= 0 {
		t.Errorf("logical cores: %d", d.LogicalCores)
	}
	switch d.VectorExt {
	case "avx512", "avx2", "avx", "sse4", "none":
	default:
		t.Errorf("unexpected vector extension %q", d.VectorExt)
	}
}

func TestDefaultWorkers(t *testing.T) {
	d := New()
	if w := d.DefaultWorkers(); w <= 0 {
		t.Errorf("default workers: %d", w)
	}

	if w := (Device{}).DefaultWorkers(); w != 1 {
		t.Errorf("zero device default workers: got %d, want 1", w)
	}
}

func TestString(t *testing.T) {
	d := Device{Name: "test-cpu", PhysicalCores: 4, VectorExt: "avx2"}
	if got, want := d.String(), "test-cpu (4 cores, avx2)"; got != want {
		t.Errorf("String: got %q, want %q", got, want)
	}
}

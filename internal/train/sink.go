package train

import (
	"image"

	"github.com/sirupsen/logrus"
)

// Sink is a write-only boundary for external metric consumers (scalar
// curves and rendered images keyed by tag and step). The harness only ever
// writes; rendering and storage live on the other side.
type Sink interface {
	Scalar(tag string, value float64, step int)
	Image(tag string, img image.Image, step int)
}

// NopSink discards everything. It is the default when no dashboard is
// attached.
type NopSink struct{}

// Scalar discards the value.
func (NopSink) Scalar(string, float64, int) {}

// Image discards the image.
func (NopSink) Image(string, image.Image, int) {}

// LogSink forwards scalar metrics to a logrus entry and discards images.
type LogSink struct {
	Log *logrus.Entry
}

// Scalar logs the tagged value at the given step.
func (s LogSink) Scalar(tag string, value float64, step int) {
	s.Log.WithFields(logrus.Fields{"tag": tag, "value": value, "step": step}).Debug("metric")
}

// Image discards the image; log output has nowhere to render it.
func (s LogSink) Image(string, image.Image, int) {}

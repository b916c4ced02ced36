package nn

import (
	"fmt"
	"math"

	"gorgonia.org/tensor"
)

// CrossEntropy is the softmax cross-entropy objective for multi-class
// classification.
//
// Forward expects raw logits and uses the log-sum-exp decomposition for
// numerical stability (stable for logits beyond the float32 exp range in
// either direction):
//
//	loss = mean over batch of -log_softmax(logits)[target]
//
// Backward returns the closed-form gradient
//
//	dL/dlogits = (softmax(logits) - onehot(target)) / batch
//
// which is why Forward caches the softmax probabilities.
type CrossEntropy struct {
	probs   []float32
	labels  []int32
	batch   int
	classes int
}

// NewCrossEntropy creates the objective.
func NewCrossEntropy() *CrossEntropy { return &CrossEntropy{} }

// Forward computes the mean cross-entropy loss over the batch.
//
// logits must be [batch, classes]; labels must have batch entries in
// [0, classes).
func (c *CrossEntropy) Forward(logits *tensor.Dense, labels []int32) float32 {
	shape := logits.Shape()
	if len(shape) != 2 {
		panic(fmt.Sprintf("cross entropy: logits must be 2D [batch, classes], got shape %v", shape))
	}
	batch, classes := shape[0], shape[1]
	if len(labels) != batch {
		panic(fmt.Sprintf("cross entropy: %d labels for batch of %d", len(labels), batch))
	}

	data := f32(logits)
	c.probs = make([]float32, len(data))
	c.labels = labels
	c.batch = batch
	c.classes = classes

	total := float64(0)
	for b := 0; b < batch; b++ {
		row := data[b*classes : (b+1)*classes]

		maxLogit := row[0]
		for _, v := range row[1:] {
			if v > maxLogit {
				maxLogit = v
			}
		}
		sumExp := float64(0)
		for _, v := range row {
			sumExp += math.Exp(float64(v - maxLogit))
		}
		logSumExp := float64(maxLogit) + math.Log(sumExp)

		target := int(labels[b])
		if target < 0 || target >= classes {
			panic(fmt.Sprintf("cross entropy: label %d out of [0, %d)", target, classes))
		}
		total += logSumExp - float64(row[target])

		for j, v := range row {
			c.probs[b*classes+j] = float32(math.Exp(float64(v) - logSumExp))
		}
	}
	return float32(total / float64(batch))
}

// Backward returns the gradient of the mean loss with respect to the
// logits. Only valid after Forward.
func (c *CrossEntropy) Backward() *tensor.Dense {
	if c.probs == nil {
		panic("cross entropy: Backward called before Forward")
	}
	grad := make([]float32, len(c.probs))
	inv := float32(1) / float32(c.batch)
	for b := 0; b < c.batch; b++ {
		for j := 0; j < c.classes; j++ {
			idx := b*c.classes + j
			grad[idx] = c.probs[idx] * inv
		}
		grad[b*c.classes+int(c.labels[b])] -= inv
	}
	return tensor.New(tensor.WithShape(c.batch, c.classes), tensor.WithBacking(grad))
}

// Package optim implements the optimizers the Crucible harness drives:
// SGD with momentum and Adam.
//
// Optimizers are the only code that mutates parameter data. The training
// loop's contract is zero-grad, backward, Step — gradients accumulated by a
// model's Backward are consumed by Step and cleared by ZeroGrad before the
// next batch.
//
// Example:
//
//	optimizer := optim.NewAdam(model.Parameters(), optim.AdamConfig{LR: 0.001})
//	for batch := range batches {
//	    optimizer.ZeroGrad()
//	    loss := objective.Forward(model.Forward(batch.Inputs), batch.Labels)
//	    model.Backward(objective.Backward())
//	    optimizer.Step()
//	}
package optim

import (
	"github.com/crucible-ml/crucible/internal/nn"
)

// Optimizer applies one parameter update per Step using the gradients
// currently held on the parameters.
type Optimizer interface {
	// Step applies the update rule to every parameter in place.
	Step()

	// ZeroGrad clears every parameter's accumulated gradient.
	ZeroGrad()

	// LR returns the current learning rate.
	LR() float32
}

func zeroAll(params []*nn.Parameter) {
	for _, p := range params {
		p.ZeroGrad()
	}
}

// Package adapter defines how forward models are exposed to the optimizer.
//
// A forward model is reached through three stages: Prepare turns the scalar
// input into model specific input, Evaluate runs the model, and Reduce turns
// the raw model output into the objective value. The driver creates an Eval
// for every objective evaluation and passes it through all three stages, so
// adapters keep no per-variable state of their own.
package adapter

import (
	"context"
	"fmt"
)

// Eval carries one objective evaluation through the three stages.
type Eval struct {
	// Variable is the name of the input being optimized.
	Variable string
	// File is the optional auxiliary file from the variables file.
	File string
	// X is the raw scalar input chosen by the minimizer.
	X float64

	// Input is set by Prepare and read by Evaluate.
	Input any
	// Output is set by Evaluate and read by Reduce.
	Output any
}

// ForwardModel is implemented once per external model.
type ForwardModel interface {
	// Prepare derives the model input from ev.X. It may have side effects
	// (writing files, mutating geometry) but must be deterministic for the
	// same Eval.
	Prepare(ctx context.Context, ev *Eval) error
	// Evaluate runs the model on ev.Input and stores the raw result in ev.Output.
	// It may block for a long time and should honor ctx.
	Evaluate(ctx context.Context, ev *Eval) error
	// Reduce maps ev.Output to the objective value. It must not touch
	// external resources.
	Reduce(ev *Eval) (float64, error)
}

// Stage names a step of the adapter contract.
type Stage string

const (
	StagePrepare  Stage = "prepare"
	StageEvaluate Stage = "evaluate"
	StageReduce   Stage = "reduce"
)

// Run executes the three stages in order for a single evaluation. Failures
// are returned as *ModelExecutionError.
func Run(ctx context.Context, model string, fm ForwardModel, ev *Eval) (float64, error) {
	if err := fm.Prepare(ctx, ev); err != nil {
		return 0, newExecutionError(ctx, model, ev.Variable, StagePrepare, err)
	}
	if err := fm.Evaluate(ctx, ev); err != nil {
		return 0, newExecutionError(ctx, model, ev.Variable, StageEvaluate, err)
	}
	f, err := fm.Reduce(ev)
	if err != nil {
		return 0, newExecutionError(ctx, model, ev.Variable, StageReduce, err)
	}
	return f, nil
}

// UnsupportedVariableError is returned by adapters that branch on the
// variable name and do not know the one requested.
type UnsupportedVariableError struct {
	Model    string
	Variable string
}

func (e *UnsupportedVariableError) Error() string {
	return fmt.Sprintf("model %s does not support variable %s", e.Model, e.Variable)
}

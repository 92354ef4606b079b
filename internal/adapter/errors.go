package adapter

import (
	"context"
	"errors"
	"fmt"
)

// UnknownModelError indicates that no adapter factory is registered for a model name
type UnknownModelError struct {
	Model string
}

func (e *UnknownModelError) Error() string {
	return "unknown model: " + e.Model
}

// ModelExecutionError indicates that a forward model failed for one evaluation.
// Timeout is set when the evaluation ran past its deadline.
type ModelExecutionError struct {
	Model    string
	Variable string
	Stage    Stage
	Timeout  bool
	Err      error
}

func (e *ModelExecutionError) Error() string {
	msg := fmt.Sprintf("model %s, variable %s: %s failed", e.Model, e.Variable, e.Stage)
	if e.Timeout {
		msg += " (timeout)"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ModelExecutionError) Unwrap() error {
	return e.Err
}

// IsModelExecutionError reports whether err is or wraps a *ModelExecutionError.
func IsModelExecutionError(err error) bool {
	var me *ModelExecutionError
	return errors.As(err, &me)
}

func newExecutionError(ctx context.Context, model, variable string, stage Stage, err error) error {
	var me *ModelExecutionError
	if errors.As(err, &me) {
		return err
	}
	timeout := errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded)
	return &ModelExecutionError{
		Model:    model,
		Variable: variable,
		Stage:    stage,
		Timeout:  timeout,
		Err:      err,
	}
}

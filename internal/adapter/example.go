package adapter

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/GoSim-25-26J-441/forward-optimizer/pkg/config"
)

// ExampleName is the registry name of the example forward model.
const ExampleName = "Example"

// Example is a cheap stand-in for an expensive simulation. For the variable
// "height" the input is 100x, the model computes input^2 + 2 and the
// objective is output / 100.
type Example struct {
	delay time.Duration
}

// NewExample builds the example model. The "delay" option (a duration)
// makes every evaluation sleep to mimic a slow model.
func NewExample(settings config.ModelSettings) (ForwardModel, error) {
	e := &Example{}
	if v, ok := settings.Options["delay"]; ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid delay option %q: %w", v, err)
		}
		e.delay = d
	}
	return e, nil
}

func (e *Example) Prepare(_ context.Context, ev *Eval) error {
	switch ev.Variable {
	case "height":
		ev.Input = ev.X * 100
	default:
		return &UnsupportedVariableError{Model: ExampleName, Variable: ev.Variable}
	}
	return nil
}

func (e *Example) Evaluate(ctx context.Context, ev *Eval) error {
	in, ok := ev.Input.(float64)
	if !ok {
		return fmt.Errorf("example model expects a float64 input, got %T", ev.Input)
	}
	if e.delay > 0 {
		t := time.NewTimer(e.delay)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
		}
	}
	ev.Output = in*in + 2
	return nil
}

func (e *Example) Reduce(ev *Eval) (float64, error) {
	out, ok := ev.Output.(float64)
	if !ok {
		return 0, fmt.Errorf("example model produced %T, want float64", ev.Output)
	}
	switch ev.Variable {
	case "height":
		return out / 100.0, nil
	}
	return 0, &UnsupportedVariableError{Model: ExampleName, Variable: ev.Variable}
}

// QuadraticName is the registry name of the analytic test model.
const QuadraticName = "Quadratic"

// Quadratic is the analytic model (x-b)^2 + c. Every variable name is
// accepted, which makes it handy for smoke tests of the whole pipeline.
type Quadratic struct {
	B, C float64
}

// NewQuadratic builds the analytic model from the "b" and "c" options.
func NewQuadratic(settings config.ModelSettings) (ForwardModel, error) {
	q := &Quadratic{}
	for key, dst := range map[string]*float64{"b": &q.B, "c": &q.C} {
		v, ok := settings.Options[key]
		if !ok || v == "" {
			continue
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid %s option %q: %w", key, v, err)
		}
		*dst = f
	}
	return q, nil
}

func (q *Quadratic) Prepare(_ context.Context, ev *Eval) error {
	ev.Input = ev.X
	return nil
}

func (q *Quadratic) Evaluate(_ context.Context, ev *Eval) error {
	x, ok := ev.Input.(float64)
	if !ok {
		return fmt.Errorf("quadratic model expects a float64 input, got %T", ev.Input)
	}
	ev.Output = (x-q.B)*(x-q.B) + q.C
	return nil
}

func (q *Quadratic) Reduce(ev *Eval) (float64, error) {
	out, ok := ev.Output.(float64)
	if !ok {
		return 0, fmt.Errorf("quadratic model produced %T, want float64", ev.Output)
	}
	return out, nil
}

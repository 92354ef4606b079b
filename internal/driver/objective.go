package driver

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/GoSim-25-26J-441/forward-optimizer/internal/adapter"
	"github.com/GoSim-25-26J-441/forward-optimizer/internal/metrics"
	"github.com/GoSim-25-26J-441/forward-optimizer/internal/minimize"
	"github.com/GoSim-25-26J-441/forward-optimizer/internal/policy"
	"github.com/GoSim-25-26J-441/forward-optimizer/pkg/config"
	"github.com/GoSim-25-26J-441/forward-optimizer/pkg/logger"
)

// guardedModel bounds and retries the evaluate stage of a forward model.
type guardedModel struct {
	adapter.ForwardModel
	model   string
	timeout time.Duration
	retry   policy.RetryPolicy
}

func (g *guardedModel) Evaluate(ctx context.Context, ev *adapter.Eval) error {
	return policy.Do(ctx, g.retry, func(attempt int) error {
		if attempt > 0 {
			logger.Warn("retrying model evaluation", "model", g.model, "variable", ev.Variable, "x", ev.X, "attempt", attempt)
		}
		evalCtx, cancel := ctx, context.CancelFunc(func() {})
		if g.timeout > 0 {
			evalCtx, cancel = context.WithTimeout(ctx, g.timeout)
		}
		defer cancel()

		err := g.ForwardModel.Evaluate(evalCtx, ev)
		if err != nil && ctx.Err() == nil && errors.Is(evalCtx.Err(), context.DeadlineExceeded) && !errors.Is(err, context.DeadlineExceeded) {
			err = fmt.Errorf("%w after %s: %w", context.DeadlineExceeded, g.timeout, err)
		}
		return err
	})
}

// objective composes prepare, evaluate and reduce into the scalar function
// handed to the minimizer. Every call builds a fresh adapter.Eval.
func (d *Driver) objective(ctx context.Context, fm *guardedModel, v config.VariableSpec) minimize.Objective {
	return func(x float64) (float64, error) {
		ev := &adapter.Eval{Variable: v.Input, File: v.File, X: x}
		start := time.Now()
		f, err := adapter.Run(ctx, fm.model, fm, ev)
		d.metrics.ObserveEvaluation(fm.model, outcome(err), time.Since(start))
		if err != nil {
			return 0, err
		}
		logger.Debug("model evaluated", "model", fm.model, "variable", v.Input, "x", x, "f", f)
		return f, nil
	}
}

func outcome(err error) string {
	if err == nil {
		return metrics.OutcomeOK
	}
	var me *adapter.ModelExecutionError
	if errors.As(err, &me) && me.Timeout {
		return metrics.OutcomeTimeout
	}
	return metrics.OutcomeError
}

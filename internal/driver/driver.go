// Package driver runs the bounded minimizer over every configured variable
// of every configured model.
package driver

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/GoSim-25-26J-441/forward-optimizer/internal/adapter"
	"github.com/GoSim-25-26J-441/forward-optimizer/internal/metrics"
	"github.com/GoSim-25-26J-441/forward-optimizer/internal/minimize"
	"github.com/GoSim-25-26J-441/forward-optimizer/internal/policy"
	"github.com/GoSim-25-26J-441/forward-optimizer/pkg/config"
	"github.com/GoSim-25-26J-441/forward-optimizer/pkg/logger"
)

// Driver optimizes variables one at a time against their forward models.
type Driver struct {
	registry    *adapter.Registry
	xatol       float64
	maxIter     int
	parallel    int
	evalTimeout time.Duration
	retry       policy.RetryPolicy
	metrics     *metrics.Metrics

	reportMu sync.Mutex
	reporter func(Result)
}

// Option configures a Driver
type Option func(*Driver)

// WithTolerance sets the minimizer's absolute tolerance and iteration limit.
// Non-positive values keep the defaults.
func WithTolerance(xatol float64, maxIter int) Option {
	return func(d *Driver) {
		if xatol > 0 {
			d.xatol = xatol
		}
		if maxIter > 0 {
			d.maxIter = maxIter
		}
	}
}

// WithParallelModels lets up to n models be optimized concurrently.
func WithParallelModels(n int) Option {
	return func(d *Driver) {
		if n > 0 {
			d.parallel = n
		}
	}
}

// WithEvalTimeout bounds every evaluate stage. Zero disables the bound.
func WithEvalTimeout(timeout time.Duration) Option {
	return func(d *Driver) {
		d.evalTimeout = timeout
	}
}

// WithRetry retries failed evaluate stages according to p.
func WithRetry(p policy.RetryPolicy) Option {
	return func(d *Driver) {
		d.retry = p
	}
}

// WithMetrics records evaluations and results on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(d *Driver) {
		d.metrics = m
	}
}

// WithReporter calls fn with every result as soon as it is known.
// Calls are serialized.
func WithReporter(fn func(Result)) Option {
	return func(d *Driver) {
		d.reporter = fn
	}
}

// New creates a driver resolving models through reg.
func New(reg *adapter.Registry, opts ...Option) *Driver {
	d := &Driver{
		registry: reg,
		xatol:    minimize.DefaultXAtol,
		maxIter:  minimize.DefaultMaxIter,
		parallel: 1,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// NewFromSettings creates a driver configured from run settings. Extra
// options are applied after the settings.
func NewFromSettings(reg *adapter.Registry, s *config.Settings, opts ...Option) (*Driver, error) {
	if s == nil {
		s = config.DefaultSettings()
	}
	timeout, err := s.Driver.GetEvalTimeout()
	if err != nil {
		return nil, fmt.Errorf("invalid eval_timeout: %w", err)
	}
	base := []Option{
		WithTolerance(s.Minimizer.XAtol, s.Minimizer.MaxIter),
		WithParallelModels(s.Driver.ParallelModels),
		WithEvalTimeout(timeout),
		WithRetry(policy.NewRetryPolicyFromConfig(s.Driver.Retries)),
	}
	return New(reg, append(base, opts...)...), nil
}

// Run optimizes every variable of every model. Results follow the order of
// models and of their variables. A model that cannot be resolved yields
// skipped results, and a variable whose model fails yields a failed result;
// neither stops the run. Cancelling ctx stops the run and Run returns the
// results gathered so far together with ctx.Err().
func (d *Driver) Run(ctx context.Context, models []config.ModelConfig) ([]Result, error) {
	perModel := make([][]Result, len(models))

	if d.parallel <= 1 || len(models) <= 1 {
		for i, mc := range models {
			if ctx.Err() != nil {
				break
			}
			perModel[i] = d.runModel(ctx, mc)
		}
	} else {
		var g errgroup.Group
		g.SetLimit(d.parallel)
		for i, mc := range models {
			g.Go(func() error {
				if ctx.Err() != nil {
					return nil
				}
				perModel[i] = d.runModel(ctx, mc)
				return nil
			})
		}
		_ = g.Wait()
	}

	var results []Result
	for _, rs := range perModel {
		results = append(results, rs...)
	}
	return results, ctx.Err()
}

func (d *Driver) runModel(ctx context.Context, mc config.ModelConfig) []Result {
	log := logger.With("model", mc.Model)
	log.Info("optimizing model", "variables", len(mc.Variables))

	fm, err := d.registry.Instantiate(mc.Model)
	if err != nil {
		var unknown *adapter.UnknownModelError
		if errors.As(err, &unknown) {
			log.Error("no adapter registered for model, skipping", "error", err)
		} else {
			log.Error("failed to create adapter, skipping", "error", err)
		}
		d.metrics.ObserveSkippedModel(mc.Model)
		results := make([]Result, 0, len(mc.Variables))
		for _, v := range mc.Variables {
			r := Result{Model: mc.Model, Variable: v.Input, Status: StatusSkipped, Err: err.Error()}
			d.report(r)
			results = append(results, r)
		}
		return results
	}

	guarded := &guardedModel{
		ForwardModel: fm,
		model:        mc.Model,
		timeout:      d.timeoutFor(mc.Model),
		retry:        d.retry,
	}

	results := make([]Result, 0, len(mc.Variables))
	for _, v := range mc.Variables {
		if ctx.Err() != nil {
			break
		}
		r := d.runVariable(ctx, guarded, v)
		d.report(r)
		results = append(results, r)
	}
	return results
}

// timeoutFor prefers a model's own timeout over the driver default.
func (d *Driver) timeoutFor(model string) time.Duration {
	if ms, ok := d.registry.Settings(model); ok {
		if t, err := ms.GetTimeout(); err == nil && t > 0 {
			return t
		}
	}
	return d.evalTimeout
}

func (d *Driver) runVariable(ctx context.Context, fm *guardedModel, v config.VariableSpec) Result {
	log := logger.With("model", fm.model, "variable", v.Input)
	log.Info("optimizing variable", "low", v.Low, "high", v.High)

	start := time.Now()
	res, err := minimize.Bounded(ctx, d.objective(ctx, fm, v), v.Low, v.High, minimize.Options{
		XAtol:   d.xatol,
		MaxIter: d.maxIter,
		OnStep: func(s minimize.Step) {
			log.Debug("minimizer step", "evaluation", s.Evaluation, "kind", string(s.Kind), "x", s.X, "f", s.F, "lo", s.Lo, "hi", s.Hi)
		},
	})

	r := Result{Model: fm.model, Variable: v.Input, Duration: time.Since(start)}
	if res != nil {
		r.Evaluations = res.Evaluations
	}

	switch {
	case err != nil && ctx.Err() != nil:
		r.Status = StatusCancelled
		r.Err = ctx.Err().Error()
		log.Warn("variable optimization cancelled", "evaluations", r.Evaluations)
	case err != nil:
		r.Status = StatusFailed
		r.Err = err.Error()
		log.Error("variable optimization failed", "error", err, "evaluations", r.Evaluations)
	default:
		r.X = res.X
		r.F = res.F
		r.Converged = res.Converged
		r.Status = statusFromMinimizer(res.Status)
		if r.Converged {
			log.Info("variable optimized", "x", r.X, "f", r.F, "evaluations", r.Evaluations)
		} else {
			log.Warn("variable did not converge", "status", string(r.Status), "x", r.X, "f", r.F, "evaluations", r.Evaluations)
		}
	}

	d.metrics.ObserveVariable(fm.model, string(r.Status))
	return r
}

func (d *Driver) report(r Result) {
	if d.reporter == nil {
		return
	}
	d.reportMu.Lock()
	defer d.reportMu.Unlock()
	d.reporter(r)
}

package optd

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/GoSim-25-26J-441/forward-optimizer/internal/adapter"
	"github.com/GoSim-25-26J-441/forward-optimizer/internal/driver"
	"github.com/GoSim-25-26J-441/forward-optimizer/internal/metrics"
	"github.com/GoSim-25-26J-441/forward-optimizer/pkg/config"
	"github.com/GoSim-25-26J-441/forward-optimizer/pkg/logger"
)

// RunExecutor manages asynchronous run execution and per-run cancellation.
// Every run gets its own driver and adapter instances.
type RunExecutor struct {
	store    *RunStore
	models   *adapter.Registry
	settings *config.Settings
	metrics  *metrics.Metrics

	mu      sync.Mutex
	cancels map[string]context.CancelFunc
	wg      sync.WaitGroup
}

func NewRunExecutor(store *RunStore, models *adapter.Registry, settings *config.Settings, m *metrics.Metrics) *RunExecutor {
	if settings == nil {
		settings = config.DefaultSettings()
	}
	return &RunExecutor{
		store:    store,
		models:   models,
		settings: settings,
		metrics:  m,
		cancels:  make(map[string]context.CancelFunc),
	}
}

// Submit parses the variables text, stores a new run and starts it.
// Malformed variables are reported as *config.ConfigError and no run is
// created.
func (e *RunExecutor) Submit(runID, variablesCSV string, order config.ModelOrder) (*RunRecord, error) {
	if order == "" {
		var err error
		if order, err = config.ParseModelOrder(e.settings.Driver.ModelOrder); err != nil {
			return nil, &config.ConfigError{Column: "driver.model_order", Reason: err.Error()}
		}
	}
	models, err := config.ParseVariablesString(variablesCSV, order)
	if err != nil {
		return nil, err
	}
	rec, err := e.store.Create(runID, RunInput{VariablesCSV: variablesCSV, ModelOrder: order, Models: models})
	if err != nil {
		return nil, err
	}
	logger.Info("run created", "run_id", rec.ID, "models", len(models))
	return e.Start(rec.ID)
}

// Start begins executing a pending run.
func (e *RunExecutor) Start(runID string) (*RunRecord, error) {
	if runID == "" {
		return nil, ErrRunIDMissing
	}

	rec, ok := e.store.Get(runID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	switch {
	case rec.Status == RunRunning:
		return rec, nil
	case rec.Status.Terminal():
		return nil, fmt.Errorf("%w: %s", ErrRunTerminal, runID)
	}

	d, err := driver.NewFromSettings(e.models, e.settings,
		driver.WithMetrics(e.metrics),
		driver.WithReporter(func(r driver.Result) {
			if err := e.store.AppendResult(runID, r); err != nil {
				logger.Error("failed to record result", "run_id", runID, "error", err)
			}
		}),
	)
	if err != nil {
		if _, setErr := e.store.SetStatus(runID, RunFailed, err.Error()); setErr != nil {
			logger.Error("failed to set failed status", "run_id", runID, "error", setErr)
		}
		return nil, err
	}

	updated, err := e.store.SetStatus(runID, RunRunning, "")
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	e.mu.Lock()
	e.cancels[runID] = cancel
	e.mu.Unlock()

	e.wg.Add(1)
	go e.execute(ctx, d, runID, rec.Input.Models)
	return updated, nil
}

// Stop cancels a running run and marks it cancelled. Stopping a cancelled
// run is a no-op; stopping a completed or failed run is an error.
func (e *RunExecutor) Stop(runID string) (*RunRecord, error) {
	if runID == "" {
		return nil, ErrRunIDMissing
	}
	rec, ok := e.store.Get(runID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	switch rec.Status {
	case RunCancelled:
		return rec, nil
	case RunCompleted, RunFailed:
		return nil, fmt.Errorf("%w: %s", ErrRunTerminal, runID)
	}

	e.mu.Lock()
	cancel, ok := e.cancels[runID]
	e.mu.Unlock()
	if ok {
		cancel()
	}

	updated, err := e.store.SetStatus(runID, RunCancelled, "")
	if err != nil {
		return nil, err
	}
	logger.Info("run cancelled", "run_id", runID)
	return updated, nil
}

// StopAll cancels every running run and waits for them to return.
func (e *RunExecutor) StopAll() {
	e.mu.Lock()
	ids := make([]string, 0, len(e.cancels))
	for id := range e.cancels {
		ids = append(ids, id)
	}
	e.mu.Unlock()

	for _, id := range ids {
		if _, err := e.Stop(id); err != nil && !errors.Is(err, ErrRunTerminal) {
			logger.Warn("failed to stop run", "run_id", id, "error", err)
		}
	}
	e.Wait()
}

// Wait blocks until every started run has returned.
func (e *RunExecutor) Wait() {
	e.wg.Wait()
}

func (e *RunExecutor) cleanup(runID string) {
	e.mu.Lock()
	if cancel, ok := e.cancels[runID]; ok {
		cancel()
		delete(e.cancels, runID)
	}
	e.mu.Unlock()
}

func (e *RunExecutor) execute(ctx context.Context, d *driver.Driver, runID string, models []config.ModelConfig) {
	defer e.wg.Done()
	defer e.cleanup(runID)

	e.metrics.RunStarted()
	logger.Info("starting run", "run_id", runID)
	results, err := runDriver(ctx, d, models)
	e.metrics.RunFinished()

	if err != nil && ctx.Err() == nil {
		logger.Error("run failed", "run_id", runID, "error", err)
		if _, finErr := e.store.Finish(runID, RunFailed, err.Error()); finErr != nil {
			logger.Error("failed to set failed status", "run_id", runID, "error", finErr)
		}
		return
	}

	if setErr := e.store.SetResults(runID, results); setErr != nil {
		logger.Error("failed to store results", "run_id", runID, "error", setErr)
	}
	if err != nil {
		logger.Info("run interrupted", "run_id", runID, "error", err)
		if _, finErr := e.store.Finish(runID, RunCancelled, err.Error()); finErr != nil {
			logger.Error("failed to set cancelled status", "run_id", runID, "error", finErr)
		}
		return
	}

	s := driver.Summarize(results)
	if ok, finErr := e.store.Finish(runID, RunCompleted, ""); finErr != nil {
		logger.Error("failed to set completed status", "run_id", runID, "error", finErr)
	} else if ok {
		logger.Info("run completed", "run_id", runID,
			"variables", s.Total, "converged", s.Converged, "failed", s.Failed, "skipped", s.Skipped)
	}
}

// runDriver runs d and turns a panic raised by an adapter into an error.
// Results reported before the panic stay on the record.
func runDriver(ctx context.Context, d *driver.Driver, models []config.ModelConfig) (results []driver.Result, err error) {
	defer func() {
		if p := recover(); p != nil {
			results, err = nil, fmt.Errorf("run aborted: panic: %v", p)
		}
	}()
	return d.Run(ctx, models)
}

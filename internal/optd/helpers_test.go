package optd

import (
	"context"
	"testing"
	"time"

	"github.com/GoSim-25-26J-441/forward-optimizer/internal/adapter"
	"github.com/GoSim-25-26J-441/forward-optimizer/pkg/config"
)

const quickCSV = `modelName,inputName,lowBound,upBound
Example,height,0,1
Quadratic,offset,-10,10
`

const slowCSV = `modelName,inputName,lowBound,upBound
Slow,height,0,1
`

func newTestRegistry(t *testing.T) *adapter.Registry {
	t.Helper()
	reg, err := adapter.NewDefaultRegistry(nil)
	if err != nil {
		t.Fatalf("NewDefaultRegistry: %v", err)
	}
	reg.Register("Slow", adapter.NewExample, config.ModelSettings{Options: map[string]string{"delay": "200ms"}})
	reg.Register("Crash", func(config.ModelSettings) (adapter.ForwardModel, error) {
		return crashingModel{}, nil
	}, config.ModelSettings{})
	return reg
}

// crashingModel panics during evaluation, like an adapter with a bug.
type crashingModel struct{}

func (crashingModel) Prepare(context.Context, *adapter.Eval) error { return nil }
func (crashingModel) Evaluate(context.Context, *adapter.Eval) error {
	panic("solver segfault")
}
func (crashingModel) Reduce(*adapter.Eval) (float64, error) { return 0, nil }

func newTestExecutor(t *testing.T) (*RunStore, *RunExecutor) {
	t.Helper()
	return newTestExecutorWithSettings(t, nil)
}

func newTestExecutorWithSettings(t *testing.T, settings *config.Settings) (*RunStore, *RunExecutor) {
	t.Helper()
	store := NewRunStore()
	executor := NewRunExecutor(store, newTestRegistry(t), settings, nil)
	t.Cleanup(executor.StopAll)
	return store, executor
}

func waitForStatus(t *testing.T, store *RunStore, runID string, want RunStatus) *RunRecord {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		rec, ok := store.Get(runID)
		if !ok {
			t.Fatalf("run %s not found", runID)
		}
		if rec.Status == want {
			return rec
		}
		time.Sleep(10 * time.Millisecond)
	}
	rec, _ := store.Get(runID)
	t.Fatalf("run %s did not reach %s, last status %s", runID, want, rec.Status)
	return nil
}

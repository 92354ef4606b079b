//go:build integration
// +build integration

package integration_test

import (
	"context"
	"math"
	"testing"

	"github.com/GoSim-25-26J-441/forward-optimizer/internal/adapter"
	"github.com/GoSim-25-26J-441/forward-optimizer/internal/driver"
	"github.com/GoSim-25-26J-441/forward-optimizer/pkg/config"
)

// TestSampleConfiguration runs the shipped variables and settings files
// through the whole pipeline.
func TestSampleConfiguration(t *testing.T) {
	settings, err := config.LoadSettings("../../config/settings.yaml")
	if err != nil {
		t.Fatalf("LoadSettings: %v", err)
	}
	models, err := config.LoadVariables("../../config/variables.csv", config.ModelOrderFile)
	if err != nil {
		t.Fatalf("LoadVariables: %v", err)
	}
	reg, err := adapter.NewDefaultRegistry(settings)
	if err != nil {
		t.Fatalf("NewDefaultRegistry: %v", err)
	}
	d, err := driver.NewFromSettings(reg, settings)
	if err != nil {
		t.Fatalf("NewFromSettings: %v", err)
	}

	results, err := d.Run(context.Background(), models)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}

	example, bowl := results[0], results[1]
	if example.Model != "Example" || example.Status != driver.StatusConverged {
		t.Fatalf("unexpected Example result %+v", example)
	}
	if math.Abs(example.X) > 1e-4 || math.Abs(example.F-0.02) > 1e-6 {
		t.Errorf("Example optimum: x=%g f=%g", example.X, example.F)
	}
	if bowl.Model != "Bowl" || bowl.Status != driver.StatusConverged {
		t.Fatalf("unexpected Bowl result %+v", bowl)
	}
	if math.Abs(bowl.X-2.5) > 1e-4 || math.Abs(bowl.F-1) > 1e-6 {
		t.Errorf("Bowl optimum: x=%g f=%g", bowl.X, bowl.F)
	}
}

// TestMixedOutcomes checks that one bad model does not stop the others.
func TestMixedOutcomes(t *testing.T) {
	text := `modelName,inputName,lowBound,upBound
Unknown,a,0,1
Example,width,0,1
Example,height,0,1
Quadratic,q,-3,3
`
	models, err := config.ParseVariablesString(text, config.ModelOrderSorted)
	if err != nil {
		t.Fatalf("ParseVariablesString: %v", err)
	}
	reg, err := adapter.NewDefaultRegistry(nil)
	if err != nil {
		t.Fatalf("NewDefaultRegistry: %v", err)
	}

	results, err := driver.New(reg).Run(context.Background(), models)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	got := make([]string, 0, len(results))
	for _, r := range results {
		got = append(got, r.Model+"/"+r.Variable+"="+string(r.Status))
	}
	want := []string{
		"Example/width=failed",
		"Example/height=converged",
		"Quadratic/q=converged",
		"Unknown/a=skipped",
	}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

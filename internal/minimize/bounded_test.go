package minimize

import (
	"context"
	"errors"
	"math"
	"testing"
)

func pure(f func(float64) float64) Objective {
	return func(x float64) (float64, error) { return f(x), nil }
}

func TestBoundedSquare(t *testing.T) {
	res, err := Bounded(context.Background(), pure(func(x float64) float64 { return x * x }), -10, 10, Options{})
	if err != nil {
		t.Fatalf("Bounded error: %v", err)
	}
	if !res.Converged || res.Status != StatusConverged {
		t.Fatalf("expected convergence, got %+v", res)
	}
	if math.Abs(res.X) > 1e-4 || math.Abs(res.F) > 1e-4 {
		t.Fatalf("expected x* ~ 0 and f(x*) ~ 0, got x=%g f=%g", res.X, res.F)
	}
	if res.Evaluations <= 1 || res.Evaluations > DefaultMaxIter {
		t.Fatalf("unexpected evaluation count %d", res.Evaluations)
	}
}

type quadratic struct {
	b, c float64
}

func (q quadratic) obj(x float64) float64 { return (x-q.b)*(x-q.b) + q.c }

func TestBoundedConvexFunctions(t *testing.T) {
	tests := []struct {
		name   string
		f      func(float64) float64
		lo, hi float64
		optLoc float64
	}{
		{"shifted quadratic", quadratic{b: 2.5, c: 1}.obj, -10, 10, 2.5},
		{"narrow quadratic", quadratic{b: -0.3, c: -4}.obj, -1, 0, -0.3},
		{"quartic", func(x float64) float64 { return math.Pow(x-1, 4) + 0.5*(x-1)*(x-1) }, -3, 7, 1},
		{"abs", func(x float64) float64 { return math.Abs(x - 0.7) }, 0, 5, 0.7},
		{"exp plus linear", func(x float64) float64 { return math.Exp(x) - 2*x }, -2, 3, math.Ln2},
		{"cosh", math.Cosh, -4, 1, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Bounded(context.Background(), pure(tt.f), tt.lo, tt.hi, Options{})
			if err != nil {
				t.Fatalf("Bounded error: %v", err)
			}
			if !res.Converged {
				t.Fatalf("expected convergence, got %+v", res)
			}
			if math.Abs(res.X-tt.optLoc) > 1e-3 {
				t.Errorf("expected x* ~ %g, got %g", tt.optLoc, res.X)
			}
			if res.F > tt.f(tt.lo) || res.F > tt.f(tt.hi) {
				t.Errorf("f(x*)=%g must not exceed f(lo)=%g or f(hi)=%g", res.F, tt.f(tt.lo), tt.f(tt.hi))
			}
			if res.X < tt.lo || res.X > tt.hi {
				t.Errorf("x*=%g outside [%g, %g]", res.X, tt.lo, tt.hi)
			}
		})
	}
}

func TestBoundedMinimumAtBoundary(t *testing.T) {
	// The composed objective of the reference example adapter.
	f := func(x float64) float64 {
		input := 100 * x
		output := input*input + 2
		return output / 100
	}
	res, err := Bounded(context.Background(), pure(f), 0, 1, Options{})
	if err != nil {
		t.Fatalf("Bounded error: %v", err)
	}
	if !res.Converged {
		t.Fatalf("expected convergence, got %+v", res)
	}
	if res.X < 0 || res.X > 1e-4 {
		t.Errorf("expected x* ~ 0, got %g", res.X)
	}
	if math.Abs(res.F-0.02) > 1e-4 {
		t.Errorf("expected f(x*) ~ 0.02, got %g", res.F)
	}

	res, err = Bounded(context.Background(), pure(func(x float64) float64 { return -x }), -1, 3, Options{})
	if err != nil {
		t.Fatalf("Bounded error: %v", err)
	}
	if math.Abs(res.X-3) > 1e-4 {
		t.Errorf("expected x* ~ 3 for decreasing function, got %g", res.X)
	}
}

func TestBoundedDeterministic(t *testing.T) {
	f := pure(func(x float64) float64 { return math.Sin(x) + 0.1*x*x })
	opts := Options{XAtol: 1e-7, MaxIter: 200}

	first, err := Bounded(context.Background(), f, -4, 4, opts)
	if err != nil {
		t.Fatalf("Bounded error: %v", err)
	}
	second, err := Bounded(context.Background(), f, -4, 4, opts)
	if err != nil {
		t.Fatalf("Bounded error: %v", err)
	}
	if math.Float64bits(first.X) != math.Float64bits(second.X) {
		t.Fatalf("x* differs between runs: %v vs %v", first.X, second.X)
	}
	if first.Evaluations != second.Evaluations {
		t.Fatalf("evaluation count differs between runs: %d vs %d", first.Evaluations, second.Evaluations)
	}
}

func TestBoundedMaxIter(t *testing.T) {
	calls := 0
	f := func(x float64) (float64, error) {
		calls++
		return (x - 3) * (x - 3), nil
	}
	res, err := Bounded(context.Background(), f, -100, 100, Options{MaxIter: 1})
	if err != nil {
		t.Fatalf("Bounded must not fail on max iterations: %v", err)
	}
	if res.Converged || res.Status != StatusMaxIter {
		t.Fatalf("expected max_iter status, got %+v", res)
	}
	if res.X < -100 || res.X > 100 || math.IsNaN(res.F) || math.IsInf(res.F, 0) {
		t.Fatalf("expected finite x* inside bounds, got x=%g f=%g", res.X, res.F)
	}
	if res.Evaluations != calls || res.Evaluations < 1 {
		t.Fatalf("expected evaluation count %d, got %d", calls, res.Evaluations)
	}

	res, err = Bounded(context.Background(), f, -100, 100, Options{MaxIter: 5})
	if err != nil {
		t.Fatalf("Bounded error: %v", err)
	}
	if res.Converged || res.Evaluations != 5 {
		t.Fatalf("expected 5 evaluations without convergence, got %+v", res)
	}
}

func TestBoundedTighterToleranceCostsMore(t *testing.T) {
	f := pure(func(x float64) float64 { return math.Exp(x) - 2*x })
	loose, err := Bounded(context.Background(), f, -2, 3, Options{XAtol: 1e-2})
	if err != nil {
		t.Fatalf("Bounded error: %v", err)
	}
	tight, err := Bounded(context.Background(), f, -2, 3, Options{XAtol: 1e-9})
	if err != nil {
		t.Fatalf("Bounded error: %v", err)
	}
	if tight.Evaluations < loose.Evaluations {
		t.Fatalf("expected tighter tolerance to need at least as many evaluations: %d < %d", tight.Evaluations, loose.Evaluations)
	}
	if math.Abs(tight.X-math.Ln2) > math.Abs(loose.X-math.Ln2)+1e-12 {
		t.Fatalf("expected tighter tolerance to be at least as accurate")
	}
}

func TestBoundedInvalidBounds(t *testing.T) {
	f := pure(func(x float64) float64 { return x })
	for _, b := range [][2]float64{{5, 2}, {1, 1}, {math.NaN(), 1}, {0, math.Inf(1)}} {
		if _, err := Bounded(context.Background(), f, b[0], b[1], Options{}); !errors.Is(err, ErrInvalidBounds) {
			t.Errorf("bounds %v: expected ErrInvalidBounds, got %v", b, err)
		}
	}
	if _, err := Bounded(context.Background(), nil, 0, 1, Options{}); err == nil {
		t.Errorf("expected error for nil objective")
	}
}

func TestBoundedObjectiveError(t *testing.T) {
	boom := errors.New("model crashed")
	calls := 0
	f := func(x float64) (float64, error) {
		calls++
		if calls == 4 {
			return 0, boom
		}
		return x * x, nil
	}
	res, err := Bounded(context.Background(), f, -1, 1, Options{})
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped objective error, got %v", err)
	}
	if res == nil || res.Status != StatusAborted || res.Converged {
		t.Fatalf("expected aborted result, got %+v", res)
	}
	if res.Evaluations != 4 {
		t.Fatalf("expected 4 evaluations, got %d", res.Evaluations)
	}
}

func TestBoundedCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	f := func(x float64) (float64, error) {
		calls++
		if calls == 3 {
			cancel()
		}
		return x * x, nil
	}
	res, err := Bounded(ctx, f, -1, 1, Options{})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if res.Status != StatusAborted || calls != 3 {
		t.Fatalf("expected search to stop after the cancelling evaluation, got %+v after %d calls", res, calls)
	}
}

func TestBoundedNaN(t *testing.T) {
	res, err := Bounded(context.Background(), pure(func(float64) float64 { return math.NaN() }), 0, 1, Options{})
	if err != nil {
		t.Fatalf("Bounded error: %v", err)
	}
	if res.Status != StatusNaN || res.Converged {
		t.Fatalf("expected nan status, got %+v", res)
	}
}

func TestBoundedOnStep(t *testing.T) {
	var steps []Step
	res, err := Bounded(context.Background(), pure(func(x float64) float64 { return (x - 1) * (x - 1) }), -5, 5, Options{
		OnStep: func(s Step) { steps = append(steps, s) },
	})
	if err != nil {
		t.Fatalf("Bounded error: %v", err)
	}
	if len(steps) != res.Evaluations {
		t.Fatalf("expected one step per evaluation, got %d steps for %d evaluations", len(steps), res.Evaluations)
	}
	if steps[0].Kind != StepInitial {
		t.Fatalf("expected first step to be initial, got %s", steps[0].Kind)
	}
	seenParabolic := false
	for i, s := range steps {
		if s.Evaluation != i+1 {
			t.Fatalf("step %d has evaluation %d", i, s.Evaluation)
		}
		if s.Lo > s.Hi || s.Lo < -5 || s.Hi > 5 {
			t.Fatalf("step %d bracket [%g, %g] escapes the bounds", i, s.Lo, s.Hi)
		}
		if i > 0 && s.Hi-s.Lo > steps[i-1].Hi-steps[i-1].Lo {
			t.Fatalf("bracket grew at step %d", i)
		}
		if s.Kind == StepParabolic {
			seenParabolic = true
		}
	}
	if !seenParabolic {
		t.Fatalf("expected parabolic steps on a quadratic")
	}
}

func TestStatusString(t *testing.T) {
	if StatusConverged.String() != "converged" || StatusMaxIter.String() != "max_iter" {
		t.Fatalf("unexpected status names")
	}
	if Status(42).String() != "status(42)" {
		t.Fatalf("unexpected name for unknown status")
	}
}

// Package minimize finds the minimum of a scalar function of one variable on
// a closed interval without using derivatives.
package minimize

import (
	"context"
	"errors"
	"fmt"
	"math"
)

const (
	// DefaultXAtol is the default absolute tolerance on x.
	DefaultXAtol = 1e-5
	// DefaultMaxIter is the default limit on objective evaluations.
	DefaultMaxIter = 500
)

var (
	sqrtEps    = math.Sqrt(2.2e-16)
	goldenMean = 0.5 * (3.0 - math.Sqrt(5.0))
)

// Objective is a scalar function of one variable. An error aborts the search.
type Objective func(x float64) (float64, error)

// Status is the terminal state of a search.
type Status int

const (
	// StatusConverged means the bracket shrank below the tolerance.
	StatusConverged Status = iota
	// StatusMaxIter means the evaluation budget ran out first.
	StatusMaxIter
	// StatusNaN means the objective returned NaN.
	StatusNaN
	// StatusAborted means the objective failed or the context was cancelled.
	StatusAborted
)

func (s Status) String() string {
	switch s {
	case StatusConverged:
		return "converged"
	case StatusMaxIter:
		return "max_iter"
	case StatusNaN:
		return "nan"
	case StatusAborted:
		return "aborted"
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// StepKind says how a trial point was chosen.
type StepKind string

const (
	StepInitial   StepKind = "initial"
	StepParabolic StepKind = "parabolic"
	StepGolden    StepKind = "golden"
)

// Step describes one objective evaluation.
type Step struct {
	Evaluation int
	Kind       StepKind
	X          float64
	F          float64
	// Lo and Hi are the bracket bounds after the step was applied.
	Lo, Hi float64
}

// Options tunes a search. Zero values select the defaults.
type Options struct {
	XAtol   float64
	MaxIter int
	OnStep  func(Step)
}

// Result is the outcome of a search
type Result struct {
	X           float64
	F           float64
	Converged   bool
	Status      Status
	Evaluations int
}

// ErrInvalidBounds is returned when lo >= hi or a bound is not finite.
var ErrInvalidBounds = errors.New("invalid bounds")

// Bounded minimizes f on [lo, hi] with Brent's method.
//
// The first trial point sits at the golden section of the interval. After
// that, each step tries a parabola through the three best points. The
// parabolic step is taken only when its vertex is strictly inside the bracket
// and the step is shorter than half of the step before last; otherwise a
// golden-section step is taken into the larger half of the bracket.
// The search stops when |x - m| <= 2*tol - (b-a)/2, where m is the bracket
// midpoint and tol = sqrt(eps)*|x| + XAtol/3.
//
// Reaching MaxIter evaluations is not an error: the best point so far is
// returned with Converged=false. An objective error or context cancellation
// returns the best point so far with StatusAborted and the error.
func Bounded(ctx context.Context, f Objective, lo, hi float64, opts Options) (*Result, error) {
	if math.IsNaN(lo) || math.IsNaN(hi) || math.IsInf(lo, 0) || math.IsInf(hi, 0) || lo >= hi {
		return nil, fmt.Errorf("%w: [%g, %g]", ErrInvalidBounds, lo, hi)
	}
	if f == nil {
		return nil, errors.New("objective is required")
	}
	xatol := opts.XAtol
	if xatol <= 0 {
		xatol = DefaultXAtol
	}
	maxIter := opts.MaxIter
	if maxIter <= 0 {
		maxIter = DefaultMaxIter
	}

	s := &search{f: f, onStep: opts.OnStep}

	// Bracketing: one point at the golden section of [lo, hi]. The three
	// remembered points (best, second, third) all start there.
	a, b := lo, hi
	xf := a + goldenMean*(b-a)
	fx, err := s.eval(xf, StepInitial, a, b)
	if err != nil {
		return s.aborted(xf, fx), err
	}
	if math.IsNaN(fx) {
		return s.finish(xf, fx, StatusNaN), nil
	}
	nfc, fnfc := xf, fx
	fulc, ffulc := xf, fx

	var rat, e float64
	xm := 0.5 * (a + b)
	tol1 := sqrtEps*math.Abs(xf) + xatol/3.0
	tol2 := 2.0 * tol1

	// Refining.
	for math.Abs(xf-xm) > tol2-0.5*(b-a) {
		if s.evals >= maxIter {
			return s.finish(xf, fx, StatusMaxIter), nil
		}
		if err := ctx.Err(); err != nil {
			return s.aborted(xf, fx), err
		}

		kind := StepGolden
		if math.Abs(e) > tol1 {
			r := (xf - nfc) * (fx - ffulc)
			q := (xf - fulc) * (fx - fnfc)
			p := (xf-fulc)*q - (xf-nfc)*r
			q = 2.0 * (q - r)
			if q > 0.0 {
				p = -p
			}
			q = math.Abs(q)
			r = e
			e = rat

			if math.Abs(p) < math.Abs(0.5*q*r) && p > q*(a-xf) && p < q*(b-xf) {
				kind = StepParabolic
				rat = p / q
				x := xf + rat
				// Never evaluate too close to the bracket ends.
				if x-a < tol2 || b-x < tol2 {
					rat = tol1 * signOrOne(xm-xf)
				}
			}
		}
		if kind == StepGolden {
			if xf >= xm {
				e = a - xf
			} else {
				e = b - xf
			}
			rat = goldenMean * e
		}

		x := xf + signOrOne(rat)*math.Max(math.Abs(rat), tol1)
		fu, err := s.eval(x, kind, a, b)
		if err != nil {
			return s.aborted(xf, fx), err
		}

		if fu <= fx {
			if x >= xf {
				a = xf
			} else {
				b = xf
			}
			fulc, ffulc = nfc, fnfc
			nfc, fnfc = xf, fx
			xf, fx = x, fu
		} else {
			if x < xf {
				a = x
			} else {
				b = x
			}
			if fu <= fnfc || nfc == xf {
				fulc, ffulc = nfc, fnfc
				nfc, fnfc = x, fu
			} else if fu <= ffulc || fulc == xf || fulc == nfc {
				fulc, ffulc = x, fu
			}
		}
		s.report(a, b)

		if math.IsNaN(fu) || math.IsNaN(fx) {
			return s.finish(xf, fx, StatusNaN), nil
		}

		xm = 0.5 * (a + b)
		tol1 = sqrtEps*math.Abs(xf) + xatol/3.0
		tol2 = 2.0 * tol1
	}

	return s.finish(xf, fx, StatusConverged), nil
}

// search carries the bookkeeping shared by every evaluation.
type search struct {
	f      Objective
	onStep func(Step)
	evals  int
	last   Step
}

func (s *search) eval(x float64, kind StepKind, a, b float64) (float64, error) {
	fx, err := s.f(x)
	s.evals++
	if err != nil {
		return math.NaN(), fmt.Errorf("objective evaluation %d at x=%g: %w", s.evals, x, err)
	}
	s.last = Step{Evaluation: s.evals, Kind: kind, X: x, F: fx, Lo: a, Hi: b}
	if kind == StepInitial {
		s.report(a, b)
	}
	return fx, nil
}

func (s *search) report(a, b float64) {
	if s.onStep == nil {
		return
	}
	step := s.last
	step.Lo, step.Hi = a, b
	s.onStep(step)
}

func (s *search) finish(x, fx float64, status Status) *Result {
	return &Result{
		X:           x,
		F:           fx,
		Converged:   status == StatusConverged,
		Status:      status,
		Evaluations: s.evals,
	}
}

func (s *search) aborted(x, fx float64) *Result {
	return s.finish(x, fx, StatusAborted)
}

// signOrOne is sign(v) with sign(0) = 1.
func signOrOne(v float64) float64 {
	if v < 0 {
		return -1
	}
	return 1
}

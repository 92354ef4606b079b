package driver

import (
	"math"
	"time"

	"github.com/GoSim-25-26J-441/forward-optimizer/internal/minimize"
)

// ResultStatus is the final state of one variable
type ResultStatus string

const (
	StatusConverged ResultStatus = "converged"
	StatusMaxIter   ResultStatus = "max_iter"
	StatusNaN       ResultStatus = "nan"
	StatusFailed    ResultStatus = "failed"
	StatusSkipped   ResultStatus = "skipped"
	StatusCancelled ResultStatus = "cancelled"
)

// Result is the outcome of optimizing one variable
type Result struct {
	Model       string
	Variable    string
	X           float64
	F           float64
	Converged   bool
	Evaluations int
	Status      ResultStatus
	Err         string
	Duration    time.Duration
}

// HasOptimum reports whether X and F hold a usable point.
func (r Result) HasOptimum() bool {
	switch r.Status {
	case StatusConverged, StatusMaxIter:
		return !math.IsNaN(r.F) && !math.IsInf(r.F, 0)
	}
	return false
}

func statusFromMinimizer(s minimize.Status) ResultStatus {
	switch s {
	case minimize.StatusConverged:
		return StatusConverged
	case minimize.StatusMaxIter:
		return StatusMaxIter
	case minimize.StatusNaN:
		return StatusNaN
	}
	return StatusFailed
}

// Summary counts results by outcome
type Summary struct {
	Total        int
	Converged    int
	NotConverged int
	Failed       int
	Skipped      int
	Cancelled    int
}

// Summarize counts results by status.
func Summarize(results []Result) Summary {
	s := Summary{Total: len(results)}
	for _, r := range results {
		switch r.Status {
		case StatusConverged:
			s.Converged++
		case StatusMaxIter, StatusNaN:
			s.NotConverged++
		case StatusFailed:
			s.Failed++
		case StatusSkipped:
			s.Skipped++
		case StatusCancelled:
			s.Cancelled++
		}
	}
	return s
}

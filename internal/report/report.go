// Package report renders optimization results for people and for tools.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/GoSim-25-26J-441/forward-optimizer/internal/driver"
)

// Format selects how results are rendered
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// ParseFormat validates an output format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "", FormatText:
		return FormatText, nil
	case FormatJSON:
		return f, nil
	}
	return "", fmt.Errorf("unknown output format %q (want text or json)", s)
}

// Record is the serialized form of one result. X and F are omitted when the
// variable produced no usable point.
type Record struct {
	Model       string   `json:"model"`
	Variable    string   `json:"variable"`
	X           *float64 `json:"x,omitempty"`
	F           *float64 `json:"f,omitempty"`
	Converged   bool     `json:"converged"`
	Status      string   `json:"status"`
	Evaluations int      `json:"evaluations"`
	DurationMs  int64    `json:"duration_ms"`
	Error       string   `json:"error,omitempty"`
}

// SummaryRecord is the serialized form of driver.Summary
type SummaryRecord struct {
	Total        int `json:"total"`
	Converged    int `json:"converged"`
	NotConverged int `json:"not_converged"`
	Failed       int `json:"failed"`
	Skipped      int `json:"skipped"`
	Cancelled    int `json:"cancelled"`
}

// Document is the JSON output of a run
type Document struct {
	Results []Record      `json:"results"`
	Summary SummaryRecord `json:"summary"`
}

// NewRecord converts a driver result.
func NewRecord(r driver.Result) Record {
	rec := Record{
		Model:       r.Model,
		Variable:    r.Variable,
		Converged:   r.Converged,
		Status:      string(r.Status),
		Evaluations: r.Evaluations,
		DurationMs:  r.Duration.Milliseconds(),
		Error:       r.Err,
	}
	if r.HasOptimum() {
		x, f := r.X, r.F
		rec.X, rec.F = &x, &f
	}
	return rec
}

// NewDocument converts all results and their summary.
func NewDocument(results []driver.Result) Document {
	doc := Document{Results: make([]Record, 0, len(results))}
	for _, r := range results {
		doc.Results = append(doc.Results, NewRecord(r))
	}
	s := driver.Summarize(results)
	doc.Summary = SummaryRecord{
		Total:        s.Total,
		Converged:    s.Converged,
		NotConverged: s.NotConverged,
		Failed:       s.Failed,
		Skipped:      s.Skipped,
		Cancelled:    s.Cancelled,
	}
	return doc
}

// WriteJSON writes results as an indented JSON document.
func WriteJSON(w io.Writer, results []driver.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(NewDocument(results)); err != nil {
		return fmt.Errorf("failed to encode results: %w", err)
	}
	return nil
}

// Write renders results in the given format.
func Write(w io.Writer, format Format, results []driver.Result) error {
	switch format {
	case FormatJSON:
		return WriteJSON(w, results)
	case FormatText, "":
		return NewTableRenderer(w).Render(results)
	}
	return fmt.Errorf("unknown output format %q", format)
}

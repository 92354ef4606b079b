package optd

import (
	"github.com/GoSim-25-26J-441/forward-optimizer/internal/driver"
	"github.com/GoSim-25-26J-441/forward-optimizer/internal/report"
)

// The maps built here are shared by the HTTP and gRPC surfaces, so they only
// hold values that structpb.NewValue accepts.

func convertRun(rec *RunRecord) map[string]any {
	summary := report.NewDocument(rec.Results).Summary
	results := make([]any, 0, len(rec.Results))
	for _, r := range rec.Results {
		results = append(results, convertResult(r))
	}
	return map[string]any{
		"id":                 rec.ID,
		"status":             string(rec.Status),
		"created_at_unix_ms": rec.CreatedAtUnixMs,
		"started_at_unix_ms": rec.StartedAtUnixMs,
		"ended_at_unix_ms":   rec.EndedAtUnixMs,
		"error":              rec.Error,
		"model_order":        string(rec.Input.ModelOrder),
		"results":            results,
		"summary": map[string]any{
			"total":         summary.Total,
			"converged":     summary.Converged,
			"not_converged": summary.NotConverged,
			"failed":        summary.Failed,
			"skipped":       summary.Skipped,
			"cancelled":     summary.Cancelled,
		},
	}
}

func convertResult(r driver.Result) map[string]any {
	rec := report.NewRecord(r)
	m := map[string]any{
		"model":       rec.Model,
		"variable":    rec.Variable,
		"converged":   rec.Converged,
		"status":      rec.Status,
		"evaluations": rec.Evaluations,
		"duration_ms": rec.DurationMs,
		"x":           nil,
		"f":           nil,
	}
	if rec.X != nil {
		m["x"] = *rec.X
		m["f"] = *rec.F
	}
	if rec.Error != "" {
		m["error"] = rec.Error
	}
	return m
}

func convertRuns(recs []*RunRecord) []any {
	out := make([]any, 0, len(recs))
	for _, rec := range recs {
		out = append(out, convertRun(rec))
	}
	return out
}

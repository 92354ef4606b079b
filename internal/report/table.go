package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/GoSim-25-26J-441/forward-optimizer/internal/driver"
)

// TableRenderer prints results as a table followed by a one line summary.
type TableRenderer struct {
	out     io.Writer
	noColor bool

	headerStyle  lipgloss.Style
	cellStyle    lipgloss.Style
	successStyle lipgloss.Style
	warnStyle    lipgloss.Style
	failedStyle  lipgloss.Style
	dimStyle     lipgloss.Style
}

// NewTableRenderer creates a renderer writing to out.
func NewTableRenderer(out io.Writer) *TableRenderer {
	return &TableRenderer{
		out: out,

		headerStyle: lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#333333", Dark: "#FFFFFF"}).
			Bold(true).
			Padding(0, 1),

		cellStyle: lipgloss.NewStyle().Padding(0, 1),

		successStyle: lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#008000", Dark: "#55FF55"}).
			Padding(0, 1),

		warnStyle: lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#B8860B", Dark: "#FFAA00"}).
			Padding(0, 1),

		failedStyle: lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#D00000", Dark: "#FF5555"}).
			Padding(0, 1),

		dimStyle: lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#666666", Dark: "#888888"}),
	}
}

// SetNoColor disables styling of status cells.
func (r *TableRenderer) SetNoColor(noColor bool) {
	r.noColor = noColor
}

// Render writes the results table.
func (r *TableRenderer) Render(results []driver.Result) error {
	rows := make([][]string, 0, len(results))
	for _, res := range results {
		x, f := "-", "-"
		if res.HasOptimum() {
			x = formatFloat(res.X)
			f = formatFloat(res.F)
		}
		rows = append(rows, []string{
			res.Model,
			res.Variable,
			x,
			f,
			strconv.Itoa(res.Evaluations),
			string(res.Status),
		})
	}

	const statusCol = 5
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(r.dimStyle).
		Headers("MODEL", "VARIABLE", "X", "F", "EVALS", "STATUS").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return r.headerStyle
			}
			if col != statusCol || r.noColor || row < 0 || row >= len(results) {
				return r.cellStyle
			}
			return r.statusStyle(results[row].Status)
		})

	if _, err := fmt.Fprintln(r.out, t.Render()); err != nil {
		return err
	}

	s := driver.Summarize(results)
	_, err := fmt.Fprintf(r.out, "%d variables: %d converged, %d not converged, %d failed, %d skipped",
		s.Total, s.Converged, s.NotConverged, s.Failed, s.Skipped)
	if err == nil && s.Cancelled > 0 {
		_, err = fmt.Fprintf(r.out, ", %d cancelled", s.Cancelled)
	}
	if err == nil {
		_, err = fmt.Fprintln(r.out)
	}
	if err != nil {
		return err
	}

	for _, res := range results {
		if res.Err == "" {
			continue
		}
		if _, err := fmt.Fprintf(r.out, "  %s/%s: %s\n", res.Model, res.Variable, res.Err); err != nil {
			return err
		}
	}
	return nil
}

func (r *TableRenderer) statusStyle(s driver.ResultStatus) lipgloss.Style {
	switch s {
	case driver.StatusConverged:
		return r.successStyle
	case driver.StatusMaxIter, driver.StatusNaN, driver.StatusCancelled:
		return r.warnStyle
	case driver.StatusFailed, driver.StatusSkipped:
		return r.failedStyle
	}
	return r.cellStyle
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', 10, 64)
}

package config

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"slices"
	"strconv"
	"strings"
)

// Column names of the variables file header.
const (
	ColumnModel = "modelName"
	ColumnInput = "inputName"
	ColumnLow   = "lowBound"
	ColumnHigh  = "upBound"
	ColumnFile  = "file"
)

const commentMarker = '#'

var requiredColumns = []string{ColumnModel, ColumnInput, ColumnLow, ColumnHigh}

// ConfigError reports a malformed variables file or settings file.
// Line is 1-based and zero when the error is not tied to a line.
type ConfigError struct {
	Line   int
	Column string
	Reason string
}

func (e *ConfigError) Error() string {
	var b strings.Builder
	b.WriteString("config error")
	if e.Line > 0 {
		fmt.Fprintf(&b, " at line %d", e.Line)
	}
	if e.Column != "" {
		fmt.Fprintf(&b, " (column %s)", e.Column)
	}
	b.WriteString(": ")
	b.WriteString(e.Reason)
	return b.String()
}

// IsConfigError reports whether err is or wraps a *ConfigError.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}

// ParseVariables reads a comma delimited variables file and groups its rows
// by model name.
//
// The first non-comment line is the header. Everything after a '#' on a line
// is ignored, as are blank lines. Fields are trimmed. Variables within a model
// keep file order; the order of the models themselves is chosen by order.
func ParseVariables(r io.Reader, order ModelOrder) ([]ModelConfig, error) {
	stripped, err := stripComments(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read variables: %w", err)
	}

	cr := csv.NewReader(strings.NewReader(stripped))
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, &ConfigError{Reason: "missing header row"}
	}
	if err != nil {
		return nil, csvError(err)
	}
	headerLine, _ := cr.FieldPos(0)
	columns, err := indexColumns(header, headerLine)
	if err != nil {
		return nil, err
	}

	byModel := make(map[string]int)
	var models []ModelConfig

	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, csvError(err)
		}
		line, _ := cr.FieldPos(0)
		if len(record) != len(header) {
			return nil, &ConfigError{Line: line, Reason: fmt.Sprintf("expected %d fields, got %d", len(header), len(record))}
		}

		spec, err := parseRow(record, columns, line)
		if err != nil {
			return nil, err
		}

		idx, ok := byModel[spec.Model]
		if !ok {
			idx = len(models)
			byModel[spec.Model] = idx
			models = append(models, ModelConfig{Model: spec.Model})
		}
		for _, v := range models[idx].Variables {
			if v.Input == spec.Input {
				return nil, &ConfigError{Line: line, Column: ColumnInput, Reason: fmt.Sprintf("duplicate variable %s for model %s", spec.Input, spec.Model)}
			}
		}
		models[idx].Variables = append(models[idx].Variables, spec)
	}

	if order == ModelOrderSorted {
		slices.SortStableFunc(models, func(a, b ModelConfig) int {
			return strings.Compare(a.Model, b.Model)
		})
	}
	return models, nil
}

// ParseVariablesString is ParseVariables over an in-memory string.
func ParseVariablesString(text string, order ModelOrder) ([]ModelConfig, error) {
	return ParseVariables(strings.NewReader(text), order)
}

// stripComments drops everything after the comment marker on each line.
// Line breaks are preserved so that reported line numbers match the source.
func stripComments(r io.Reader) (string, error) {
	var b strings.Builder
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := sc.Text()
		if i := strings.IndexByte(line, commentMarker); i >= 0 {
			line = line[:i]
		}
		if strings.TrimSpace(line) == "" {
			line = ""
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}
	if err := sc.Err(); err != nil {
		return "", err
	}
	return b.String(), nil
}

func indexColumns(header []string, line int) (map[string]int, error) {
	columns := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if _, dup := columns[name]; dup {
			return nil, &ConfigError{Line: line, Column: name, Reason: "duplicate column"}
		}
		columns[name] = i
	}
	for _, name := range requiredColumns {
		if _, ok := columns[name]; !ok {
			return nil, &ConfigError{Line: line, Column: name, Reason: "missing required column"}
		}
	}
	return columns, nil
}

func parseRow(record []string, columns map[string]int, line int) (VariableSpec, error) {
	field := func(name string) string {
		i, ok := columns[name]
		if !ok {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	spec := VariableSpec{
		Model: field(ColumnModel),
		Input: field(ColumnInput),
		File:  field(ColumnFile),
	}
	if spec.Model == "" {
		return spec, &ConfigError{Line: line, Column: ColumnModel, Reason: "model name cannot be empty"}
	}
	if spec.Input == "" {
		return spec, &ConfigError{Line: line, Column: ColumnInput, Reason: "input name cannot be empty"}
	}

	var err error
	if spec.Low, err = parseBound(field(ColumnLow), ColumnLow, line); err != nil {
		return spec, err
	}
	if spec.High, err = parseBound(field(ColumnHigh), ColumnHigh, line); err != nil {
		return spec, err
	}
	if spec.Low >= spec.High {
		return spec, &ConfigError{Line: line, Column: ColumnLow, Reason: fmt.Sprintf("lowBound %g must be less than upBound %g", spec.Low, spec.High)}
	}
	return spec, nil
}

func parseBound(s, column string, line int) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, &ConfigError{Line: line, Column: column, Reason: fmt.Sprintf("bound %q is not a number", s)}
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, &ConfigError{Line: line, Column: column, Reason: fmt.Sprintf("bound %q must be finite", s)}
	}
	return v, nil
}

func csvError(err error) error {
	var pe *csv.ParseError
	if errors.As(err, &pe) {
		return &ConfigError{Line: pe.Line, Reason: pe.Err.Error()}
	}
	return &ConfigError{Reason: err.Error()}
}

// Package optd runs optimizations on behalf of remote clients. Runs are held
// in memory for the lifetime of the process.
package optd

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/GoSim-25-26J-441/forward-optimizer/internal/driver"
	"github.com/GoSim-25-26J-441/forward-optimizer/pkg/config"
)

// RunStatus is the lifecycle state of a run
type RunStatus string

const (
	RunPending   RunStatus = "pending"
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
	RunCancelled RunStatus = "cancelled"
)

// Terminal reports whether no further transition is possible.
func (s RunStatus) Terminal() bool {
	return s == RunCompleted || s == RunFailed || s == RunCancelled
}

// ParseRunStatus returns the status named s, or "" when s names none.
func ParseRunStatus(s string) RunStatus {
	switch st := RunStatus(s); st {
	case RunPending, RunRunning, RunCompleted, RunFailed, RunCancelled:
		return st
	}
	return ""
}

var (
	ErrRunNotFound  = errors.New("run not found")
	ErrRunExists    = errors.New("run already exists")
	ErrRunTerminal  = errors.New("run is terminal")
	ErrRunIDMissing = errors.New("run_id is required")
)

// RunInput is what a client submits.
type RunInput struct {
	VariablesCSV string
	ModelOrder   config.ModelOrder
	Models       []config.ModelConfig
}

// RunRecord is a snapshot of one run.
type RunRecord struct {
	ID              string
	Status          RunStatus
	CreatedAtUnixMs int64
	StartedAtUnixMs int64
	EndedAtUnixMs   int64
	Error           string
	Input           RunInput
	Results         []driver.Result
}

func (r *RunRecord) clone() *RunRecord {
	c := *r
	c.Results = slices.Clone(r.Results)
	return &c
}

// RunStore keeps runs in memory. Every accessor returns a copy.
type RunStore struct {
	mu   sync.RWMutex
	runs map[string]*RunRecord
}

func NewRunStore() *RunStore {
	return &RunStore{
		runs: make(map[string]*RunRecord),
	}
}

func nowUnixMs() int64 {
	return time.Now().UTC().UnixMilli()
}

// Create adds a pending run. An empty runID gets a generated one.
func (s *RunStore) Create(runID string, input RunInput) (*RunRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if runID == "" {
		runID = uuid.NewString()
	}
	if _, exists := s.runs[runID]; exists {
		return nil, fmt.Errorf("%w: %s", ErrRunExists, runID)
	}

	rec := &RunRecord{
		ID:              runID,
		Status:          RunPending,
		CreatedAtUnixMs: nowUnixMs(),
		Input:           input,
	}
	s.runs[runID] = rec
	return rec.clone(), nil
}

func (s *RunStore) Get(runID string) (*RunRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.runs[runID]
	if !ok {
		return nil, false
	}
	return rec.clone(), true
}

// List returns runs ordered by creation time. An empty status matches all.
func (s *RunStore) List(limit, offset int, status RunStatus) []*RunRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 50
	}
	all := make([]*RunRecord, 0, len(s.runs))
	for _, rec := range s.runs {
		if status != "" && rec.Status != status {
			continue
		}
		all = append(all, rec)
	}
	slices.SortFunc(all, func(a, b *RunRecord) int {
		return cmp.Or(cmp.Compare(a.CreatedAtUnixMs, b.CreatedAtUnixMs), strings.Compare(a.ID, b.ID))
	})

	if offset >= len(all) {
		return []*RunRecord{}
	}
	all = all[offset:]
	if len(all) > limit {
		all = all[:limit]
	}
	out := make([]*RunRecord, 0, len(all))
	for _, rec := range all {
		out = append(out, rec.clone())
	}
	return out
}

// SetStatus moves a run to status and stamps the start and end times.
func (s *RunStore) SetStatus(runID string, status RunStatus, errMsg string) (*RunRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.runs[runID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	setStatus(rec, status, errMsg)
	return rec.clone(), nil
}

// Finish moves a running run to a terminal status. It reports false when
// the run has already left the running state.
func (s *RunStore) Finish(runID string, status RunStatus, errMsg string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.runs[runID]
	if !ok {
		return false, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	if rec.Status != RunRunning {
		return false, nil
	}
	setStatus(rec, status, errMsg)
	return true, nil
}

func setStatus(rec *RunRecord, status RunStatus, errMsg string) {
	rec.Status = status
	if errMsg != "" {
		rec.Error = errMsg
	}

	switch {
	case status == RunRunning:
		if rec.StartedAtUnixMs == 0 {
			rec.StartedAtUnixMs = nowUnixMs()
		}
	case status.Terminal():
		rec.EndedAtUnixMs = nowUnixMs()
	}
}

// AppendResult records one finished variable of a run.
func (s *RunStore) AppendResult(runID string, r driver.Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.runs[runID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	rec.Results = append(rec.Results, r)
	return nil
}

// SetResults replaces the results of a run with the final ordered list.
func (s *RunStore) SetResults(runID string, results []driver.Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.runs[runID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	rec.Results = slices.Clone(results)
	return nil
}

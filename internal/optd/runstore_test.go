package optd

import (
	"errors"
	"testing"

	"github.com/GoSim-25-26J-441/forward-optimizer/internal/driver"
)

func TestRunStoreCreateAndGet(t *testing.T) {
	store := NewRunStore()

	rec, err := store.Create("", RunInput{VariablesCSV: quickCSV})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if rec.ID == "" {
		t.Fatalf("expected generated run id")
	}
	if rec.Status != RunPending {
		t.Fatalf("expected status pending, got %v", rec.Status)
	}
	if rec.CreatedAtUnixMs == 0 {
		t.Fatalf("expected created_at_unix_ms to be set")
	}

	got, ok := store.Get(rec.ID)
	if !ok {
		t.Fatalf("expected run to exist")
	}
	if got.ID != rec.ID {
		t.Fatalf("expected same run id")
	}
}

func TestRunStoreCreateDuplicate(t *testing.T) {
	store := NewRunStore()
	if _, err := store.Create("run-1", RunInput{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, err := store.Create("run-1", RunInput{})
	if !errors.Is(err, ErrRunExists) {
		t.Fatalf("expected ErrRunExists, got %v", err)
	}
}

func TestRunStoreSetStatusSetsTimestamps(t *testing.T) {
	store := NewRunStore()
	rec, err := store.Create("run-1", RunInput{})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if rec.StartedAtUnixMs != 0 || rec.EndedAtUnixMs != 0 {
		t.Fatalf("expected timestamps not set initially")
	}

	rec, err = store.SetStatus("run-1", RunRunning, "")
	if err != nil {
		t.Fatalf("SetStatus running error: %v", err)
	}
	if rec.StartedAtUnixMs == 0 || rec.EndedAtUnixMs != 0 {
		t.Fatalf("unexpected timestamps for running run: %+v", rec)
	}

	rec, err = store.SetStatus("run-1", RunCompleted, "")
	if err != nil {
		t.Fatalf("SetStatus completed error: %v", err)
	}
	if rec.EndedAtUnixMs == 0 {
		t.Fatalf("expected ended_at_unix_ms set")
	}

	if _, err := store.SetStatus("missing", RunRunning, ""); !errors.Is(err, ErrRunNotFound) {
		t.Fatalf("expected ErrRunNotFound, got %v", err)
	}
}

func TestRunStoreFinishOnlyFromRunning(t *testing.T) {
	store := NewRunStore()
	if _, err := store.Create("run-1", RunInput{}); err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if ok, _ := store.Finish("run-1", RunCompleted, ""); ok {
		t.Fatal("Finish must not move a pending run")
	}
	if _, err := store.SetStatus("run-1", RunRunning, ""); err != nil {
		t.Fatalf("SetStatus error: %v", err)
	}
	if _, err := store.SetStatus("run-1", RunCancelled, ""); err != nil {
		t.Fatalf("SetStatus error: %v", err)
	}
	if ok, _ := store.Finish("run-1", RunCompleted, ""); ok {
		t.Fatal("Finish must not overwrite a cancelled run")
	}
	rec, _ := store.Get("run-1")
	if rec.Status != RunCancelled {
		t.Fatalf("expected cancelled, got %s", rec.Status)
	}
}

func TestRunStoreListFilterAndPaging(t *testing.T) {
	store := NewRunStore()
	for _, id := range []string{"a", "b", "c", "d"} {
		if _, err := store.Create(id, RunInput{}); err != nil {
			t.Fatalf("Create %s: %v", id, err)
		}
	}
	if _, err := store.SetStatus("c", RunRunning, ""); err != nil {
		t.Fatalf("SetStatus: %v", err)
	}

	all := store.List(0, 0, "")
	if len(all) != 4 {
		t.Fatalf("expected 4 runs, got %d", len(all))
	}
	page := store.List(2, 1, "")
	if len(page) != 2 || page[0].ID != all[1].ID || page[1].ID != all[2].ID {
		t.Fatalf("unexpected page %v", ids(page))
	}
	running := store.List(10, 0, RunRunning)
	if len(running) != 1 || running[0].ID != "c" {
		t.Fatalf("expected only c running, got %v", ids(running))
	}
	if got := store.List(10, 10, ""); len(got) != 0 {
		t.Fatalf("expected empty page past the end, got %d", len(got))
	}
}

func TestRunStoreReturnsCopies(t *testing.T) {
	store := NewRunStore()
	if _, err := store.Create("run-1", RunInput{}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := store.AppendResult("run-1", driver.Result{Model: "Example"}); err != nil {
		t.Fatalf("AppendResult: %v", err)
	}
	rec, _ := store.Get("run-1")
	rec.Results[0].Model = "changed"
	rec.Status = RunFailed

	again, _ := store.Get("run-1")
	if again.Results[0].Model != "Example" || again.Status != RunPending {
		t.Fatalf("store state leaked through a returned record: %+v", again)
	}
}

func ids(recs []*RunRecord) []string {
	out := make([]string, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.ID)
	}
	return out
}

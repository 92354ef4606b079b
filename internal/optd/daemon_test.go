package optd

import (
	"context"
	"testing"
	"time"
)

func TestDaemonServeShutsDown(t *testing.T) {
	d := New(Config{GRPCAddr: "127.0.0.1:0", HTTPAddr: "127.0.0.1:0"}, newTestRegistry(t))
	if _, err := d.Executor.Submit("slow", slowCSV, ""); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- d.Serve(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-errc:
		if err != nil {
			t.Fatalf("Serve: %v", err)
		}
	case <-time.After(15 * time.Second):
		t.Fatal("Serve did not return after cancellation")
	}

	rec, _ := d.Store.Get("slow")
	if rec.Status != RunCancelled {
		t.Fatalf("expected running run to be cancelled on shutdown, got %s", rec.Status)
	}
}

func TestDaemonServeListenError(t *testing.T) {
	d := New(Config{GRPCAddr: "256.0.0.1:bad"}, newTestRegistry(t))
	if err := d.Serve(context.Background()); err == nil {
		t.Fatal("expected listen error")
	}
}

package telemetry

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/nhle/taskflow/internal/model"
)

// ─── Setup ───────────────────────────────────────────────

func TestSetupWithoutEndpointLogsToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "taskflow.log")
	cfg := &model.AppConfig{}
	cfg.Logging.File = path
	cfg.Logging.Level = "debug"

	p, err := Setup(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}
	if p.Metrics == nil {
		t.Error("metrics not built")
	}
	p.Logger.Info("hello")
	if err := p.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(data) == 0 {
		t.Error("log file is empty")
	}
}

// ─── Shutdown ────────────────────────────────────────────

func TestAbortReleasesInReverseOrder(t *testing.T) {
	var order []string
	closeErr := errors.New("conn close failed")
	p := &Providers{shutdown: []func(context.Context) error{
		func(context.Context) error { order = append(order, "file"); return nil },
		func(context.Context) error { order = append(order, "conn"); return closeErr },
		func(context.Context) error { order = append(order, "tracer"); return nil },
	}}

	cause := errors.New("meter provider failed")
	got, err := p.abort(context.Background(), cause)
	if got != nil {
		t.Error("abort returned providers")
	}
	if !errors.Is(err, cause) || !errors.Is(err, closeErr) {
		t.Errorf("err = %v, want both the cause and the close failure", err)
	}

	want := []string{"tracer", "conn", "file"}
	if len(order) != len(want) {
		t.Fatalf("ran %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("order = %v, want %v", order, want)
			break
		}
	}
}

func TestAbortWithCleanShutdownKeepsCause(t *testing.T) {
	cause := errors.New("boom")
	p := &Providers{shutdown: []func(context.Context) error{
		func(context.Context) error { return nil },
	}}
	if _, err := p.abort(context.Background(), cause); err != cause {
		t.Errorf("err = %v, want the cause unchanged", err)
	}
}

package cooldown

import (
	"context"
	"testing"
	"time"

	"github.com/nhle/taskflow/internal/model"
	"github.com/nhle/taskflow/tests/testutil"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time           { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTracker(t *testing.T) (*Tracker, *clock) {
	t.Helper()
	clk := &clock{t: time.Date(2024, 7, 1, 8, 0, 0, 0, time.UTC)}
	tr := NewTracker(testutil.NewTestStore(t))
	tr.now = clk.now
	return tr, clk
}

func TestCountsStartAtZero(t *testing.T) {
	tr, _ := newTracker(t)
	c, err := tr.Counts(context.Background(), 5, 1)
	if err != nil {
		t.Fatal(err)
	}
	if c.Hourly != 0 || c.Daily != 0 || c.TaskID != 5 || c.UserID != 1 {
		t.Errorf("got %+v", c)
	}
}

func TestLazyExpiry(t *testing.T) {
	tr, clk := newTracker(t)
	ctx := context.Background()

	for range 3 {
		if _, err := tr.Record(ctx, 5, 1); err != nil {
			t.Fatal(err)
		}
	}

	clk.advance(30 * time.Minute)
	c, _ := tr.Counts(ctx, 5, 1)
	if c.Hourly != 3 || c.Daily != 3 {
		t.Fatalf("after 30m: %+v", c)
	}

	clk.advance(time.Hour)
	c, _ = tr.Counts(ctx, 5, 1)
	if c.Hourly != 0 || c.Daily != 3 {
		t.Fatalf("after 90m: %+v", c)
	}

	rec, _ := tr.Record(ctx, 5, 1)
	if rec.Hourly != 1 || rec.Daily != 4 {
		t.Fatalf("record after hourly reset: %+v", rec)
	}

	clk.advance(25 * time.Hour)
	c, _ = tr.Counts(ctx, 5, 1)
	if c.Hourly != 0 || c.Daily != 0 {
		t.Fatalf("after a day: %+v", c)
	}
}

func TestAllowed(t *testing.T) {
	tr, clk := newTracker(t)
	ctx := context.Background()
	limits := Limits{Hourly: 2, Daily: 3}

	tests := []struct {
		name    string
		advance time.Duration
		record  bool
		want    bool
	}{
		{"fresh", 0, false, true},
		{"one done", 0, true, true},
		{"hourly cap", 0, true, false},
		{"hour passed", 61 * time.Minute, false, true},
		{"daily cap", 0, true, false},
	}
	for _, tt := range tests {
		clk.advance(tt.advance)
		if tt.record {
			if _, err := tr.Record(ctx, 7, 1); err != nil {
				t.Fatal(err)
			}
		}
		ok, msg, err := tr.Allowed(ctx, 7, 1, limits)
		if err != nil {
			t.Fatal(err)
		}
		if ok != tt.want {
			t.Errorf("%s: allowed = %v (%q), want %v", tt.name, ok, msg, tt.want)
		}
		if !ok && msg == "" {
			t.Errorf("%s: blocked without a message", tt.name)
		}
	}
}

func TestLimitsForUnlimited(t *testing.T) {
	tr, _ := newTracker(t)
	ctx := context.Background()
	for range 10 {
		_, _ = tr.Record(ctx, 1, 1)
	}
	ok, _, _ := tr.Allowed(ctx, 1, 1, LimitsFor(model.Task{}))
	if !ok {
		t.Error("zero limits should never block")
	}
}

package schedule

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
)

type recordingSink struct {
	mu     sync.Mutex
	events []string
}

func (s *recordingSink) Event(name string) {
	s.mu.Lock()
	s.events = append(s.events, name)
	s.mu.Unlock()
}

func (s *recordingSink) Metric(string, float64) {}

func (s *recordingSink) count(name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, e := range s.events {
		if e == name {
			n++
		}
	}
	return n
}

func TestAddValidation(t *testing.T) {
	r := NewRunner(zap.NewNop(), nil)

	if err := r.Add(Job{Interval: time.Second, Run: func(context.Context) error { return nil }}); err == nil {
		t.Error("expected error for missing name")
	}
	if err := r.Add(Job{Name: "x", Run: func(context.Context) error { return nil }}); err == nil {
		t.Error("expected error for missing interval")
	}
	if err := r.Add(Job{Name: "x", Interval: time.Second}); err == nil {
		t.Error("expected error for missing run func")
	}
	if err := r.Add(Job{Name: "x", Interval: time.Second, Run: func(context.Context) error { return nil }}); err != nil {
		t.Errorf("valid job rejected: %v", err)
	}
}

func TestJobRunsOnInterval(t *testing.T) {
	r := NewRunner(zap.NewNop(), nil)

	var runs atomic.Int32
	err := r.Add(Job{
		Name:     "counter",
		Interval: 10 * time.Millisecond,
		Run: func(context.Context) error {
			runs.Add(1)
			return nil
		},
	})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}

	r.Start(context.Background())
	time.Sleep(100 * time.Millisecond)
	r.Stop()

	if got := runs.Load(); got < 3 {
		t.Errorf("job ran %d times, want at least 3", got)
	}

	after := runs.Load()
	time.Sleep(50 * time.Millisecond)
	if runs.Load() != after {
		t.Error("job kept running after Stop")
	}
}

func TestFailingJobDoesNotStopOthers(t *testing.T) {
	sink := &recordingSink{}
	r := NewRunner(zap.NewNop(), sink)

	var healthyRuns atomic.Int32
	if err := r.Add(Job{
		Name:     "broken",
		Interval: 10 * time.Millisecond,
		Run:      func(context.Context) error { return errors.New("store unreachable") },
	}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := r.Add(Job{
		Name:     "panicky",
		Interval: 10 * time.Millisecond,
		Run:      func(context.Context) error { panic("boom") },
	}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := r.Add(Job{
		Name:     "healthy",
		Interval: 10 * time.Millisecond,
		Run: func(context.Context) error {
			healthyRuns.Add(1)
			return nil
		},
	}); err != nil {
		t.Fatalf("Add: %v", err)
	}

	r.Start(context.Background())
	time.Sleep(100 * time.Millisecond)
	r.Stop()

	if got := healthyRuns.Load(); got < 3 {
		t.Errorf("healthy job ran %d times, want at least 3", got)
	}
	if sink.count("job_failed") == 0 {
		t.Error("expected job_failed events")
	}
	if sink.count("job_panicked") == 0 {
		t.Error("expected job_panicked events")
	}
}

func TestNoOverlappingRuns(t *testing.T) {
	r := NewRunner(zap.NewNop(), &recordingSink{})

	var concurrent atomic.Int32
	var maxSeen atomic.Int32
	if err := r.Add(Job{
		Name:     "slow",
		Interval: 10 * time.Millisecond,
		Run: func(context.Context) error {
			cur := concurrent.Add(1)
			if cur > maxSeen.Load() {
				maxSeen.Store(cur)
			}
			time.Sleep(35 * time.Millisecond)
			concurrent.Add(-1)
			return nil
		},
	}); err != nil {
		t.Fatalf("Add: %v", err)
	}

	r.Start(context.Background())
	time.Sleep(150 * time.Millisecond)
	r.Stop()

	if got := maxSeen.Load(); got != 1 {
		t.Errorf("max concurrent runs = %d, want 1", got)
	}
}

func TestStopWaitsForInFlightRun(t *testing.T) {
	r := NewRunner(zap.NewNop(), nil)

	var finished atomic.Bool
	if err := r.Add(Job{
		Name:     "slow",
		Interval: 10 * time.Millisecond,
		Run: func(context.Context) error {
			time.Sleep(30 * time.Millisecond)
			finished.Store(true)
			return nil
		},
	}); err != nil {
		t.Fatalf("Add: %v", err)
	}

	r.Start(context.Background())
	time.Sleep(15 * time.Millisecond) // let the first run start
	r.Stop()

	if !finished.Load() {
		t.Error("Stop returned before the in-flight run completed")
	}
}

package insure

import (
	"context"
	"testing"
	"time"
)

func newTestScheduler(feed FeedSource, now *time.Time) *Scheduler {
	e := newTestEngine(feed, &mockNotifier{}, *now)
	e.now = func() time.Time { return *now }
	s := NewScheduler(e, nil)
	s.now = func() time.Time { return *now }
	return s
}

func TestSchedulerDisabledTickIsNoOp(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	feed := &mockFeed{payload: []byte(`{}`)}
	s := newTestScheduler(feed, &now)

	s.Tick(context.Background())
	if feed.calls != 0 {
		t.Fatalf("disabled scheduler fetched the feed %d time(s)", feed.calls)
	}
	if st := s.Status(); st.Enabled || !st.LastRun.IsZero() {
		t.Fatalf("status = %+v, want disabled with no runs", st)
	}
}

func TestSchedulerIntervalGate(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	feed := &mockFeed{payload: []byte(`{}`)}
	s := newTestScheduler(feed, &now)
	s.Enable(5 * time.Minute)

	s.Tick(context.Background())
	if feed.calls != 1 {
		t.Fatalf("first tick fetched %d time(s), want 1", feed.calls)
	}

	now = now.Add(time.Minute)
	s.Tick(context.Background())
	if feed.calls != 1 {
		t.Fatalf("tick inside interval ran a pass, calls = %d", feed.calls)
	}

	now = now.Add(4 * time.Minute)
	s.Tick(context.Background())
	if feed.calls != 2 {
		t.Fatalf("tick at interval boundary: calls = %d, want 2", feed.calls)
	}
	if st := s.Status(); !st.LastRun.Equal(now) {
		t.Fatalf("last_run = %v, want %v", st.LastRun, now)
	}
}

func TestSchedulerReEnableKeepsInterval(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s := newTestScheduler(&mockFeed{payload: []byte(`{}`)}, &now)
	s.Enable(10 * time.Minute)
	s.Disable()
	s.Enable(0)
	if st := s.Status(); st.Interval != 10*time.Minute {
		t.Fatalf("interval = %v, want prior 10m retained", st.Interval)
	}
}

func TestSchedulerStartStop(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s := newTestScheduler(&mockFeed{payload: []byte(`{}`)}, &now)

	s.Start(context.Background())
	done := make(chan struct{})
	go func() {
		s.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Stop did not return")
	}
}

package poller

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestImmediateFirstRun(t *testing.T) {
	var runs atomic.Int32
	p := New("test", time.Hour, func(context.Context) { runs.Add(1) })
	p.Start()
	defer func() { <-p.Stop() }()

	deadline := time.After(time.Second)
	for runs.Load() == 0 {
		select {
		case <-deadline:
			t.Fatal("first run did not fire immediately")
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestOverlappingTicksSkipped(t *testing.T) {
	var active, maxActive atomic.Int32
	block := make(chan struct{})
	p := New("test", 10*time.Millisecond, func(context.Context) {
		n := active.Add(1)
		for {
			old := maxActive.Load()
			if n <= old || maxActive.CompareAndSwap(old, n) {
				break
			}
		}
		<-block
		active.Add(-1)
	})
	p.Start()

	// Several ticks elapse while the first run is blocked.
	time.Sleep(80 * time.Millisecond)
	close(block)
	<-p.Stop()

	if maxActive.Load() != 1 {
		t.Errorf("max concurrent runs = %d, want 1", maxActive.Load())
	}
}

func TestStartIsIdempotent(t *testing.T) {
	var runs atomic.Int32
	p := New("test", 10*time.Millisecond, func(context.Context) { runs.Add(1) })
	p.Start()
	p.Start()
	p.Start()

	time.Sleep(35 * time.Millisecond)
	<-p.Stop()

	// One immediate run plus roughly three ticks. A doubled schedule from
	// the repeated Start calls would push well past that.
	if n := runs.Load(); n > 6 {
		t.Errorf("runs = %d, repeated Start should not multiply the schedule", n)
	}
}

func TestStopDrainsInFlightRun(t *testing.T) {
	finished := make(chan struct{})
	started := make(chan struct{})
	p := New("test", time.Hour, func(context.Context) {
		close(started)
		time.Sleep(50 * time.Millisecond)
		close(finished)
	})
	p.Start()
	<-started

	<-p.Stop()
	select {
	case <-finished:
	default:
		t.Error("Stop returned before the in-flight run drained")
	}
}

func TestStopStoppedPoller(t *testing.T) {
	p := New("test", time.Hour, func(context.Context) {})
	select {
	case <-p.Stop():
	case <-time.After(time.Second):
		t.Fatal("Stop on a never-started poller should return a closed channel")
	}

	p.Start()
	<-p.Stop()
	select {
	case <-p.Stop():
	case <-time.After(time.Second):
		t.Fatal("second Stop should return a closed channel")
	}
}

func TestPanicIsContained(t *testing.T) {
	var runs atomic.Int32
	p := New("test", 10*time.Millisecond, func(context.Context) {
		runs.Add(1)
		panic("boom")
	})
	p.Start()
	time.Sleep(45 * time.Millisecond)
	<-p.Stop()

	if runs.Load() < 2 {
		t.Errorf("runs = %d, poller should survive panics and keep ticking", runs.Load())
	}
}

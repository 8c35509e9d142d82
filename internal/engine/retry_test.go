// internal/engine/retry_test.go
package engine

import (
	"errors"
	"testing"
	"time"

	"github.com/llehouerou/pulsar/internal/event"
	"github.com/llehouerou/pulsar/internal/source"
)

func retryOptions(o *source.MockOpener) Options {
	opts := testOptions(o)
	yes := true
	opts.TransientRetry = &yes
	return opts
}

func TestRetry_ThreeFailuresEmitOneLoadError(t *testing.T) {
	o := source.NewMockOpener()
	e := New(retryOptions(o))
	defer e.Destroy()
	r := newRecorder(e, event.Load, event.LoadError, event.Play)

	boom := errors.New("decoder choked")
	o.FailNext(trackA, 3, boom)
	e.Load(trackA, true, "")

	waitFor(t, func() bool { return r.count(event.LoadError) == 1 })

	calls := o.CallsFor(trackA)
	if len(calls) != 3 {
		t.Fatalf("opener calls = %d, want 3", len(calls))
	}
	if r.count(event.Load) != 0 || r.count(event.Play) != 0 {
		t.Errorf("events = %v, want only one loaderror", r.channels())
	}
	ev, _ := r.last(event.LoadError)
	if !errors.Is(ev.Err, boom) {
		t.Errorf("Err = %v, want %v", ev.Err, boom)
	}

	// Linear backoff: the waits between attempts never shrink.
	gap1 := calls[1].At.Sub(calls[0].At)
	gap2 := calls[2].At.Sub(calls[1].At)
	if gap1 < 10*time.Millisecond {
		t.Errorf("first retry after %v, want >= 10ms", gap1)
	}
	if gap2 < 20*time.Millisecond {
		t.Errorf("second retry after %v, want >= 20ms", gap2)
	}

	if got := e.Snapshot().Status; got != LoadFailed {
		t.Errorf("Status = %v, want LoadFailed", got)
	}
}

func TestRetry_EventualSuccessKeepsAutoplayAndHint(t *testing.T) {
	o := source.NewMockOpener()
	e := New(retryOptions(o))
	defer e.Destroy()
	r := newRecorder(e, event.Load, event.LoadError, event.Play)

	o.FailNext(trackA, 1, nil)
	e.Load(trackA, true, "flac")

	waitFor(t, func() bool { return r.count(event.Play) == 1 })

	calls := o.CallsFor(trackA)
	if len(calls) != 2 {
		t.Fatalf("opener calls = %d, want 2", len(calls))
	}
	for i, c := range calls {
		if len(c.Hints) != 1 || c.Hints[0] != "flac" {
			t.Errorf("call %d hints = %v, want [flac]", i, c.Hints)
		}
	}
	if r.count(event.LoadError) != 0 {
		t.Error("loaderror emitted for a recovered load")
	}
}

func TestRetry_IneligiblePlatformTerminalImmediately(t *testing.T) {
	o := source.NewMockOpener()
	e := New(testOptions(o)) // retries disabled
	defer e.Destroy()
	r := newRecorder(e, event.LoadError)

	o.FailNext(trackA, 1, nil)
	e.Load(trackA, false, "")

	waitFor(t, func() bool { return r.count(event.LoadError) == 1 })
	if n := len(o.CallsFor(trackA)); n != 1 {
		t.Errorf("opener calls = %d, want 1 (no retries)", n)
	}
	if got := e.Snapshot().Status; got != LoadFailed {
		t.Errorf("Status = %v, want LoadFailed", got)
	}
}

func TestRetry_SupersededByNewLoad(t *testing.T) {
	o := source.NewMockOpener()
	opts := retryOptions(o)
	opts.RetryBackoff = 50 * time.Millisecond
	e := New(opts)
	defer e.Destroy()
	r := newRecorder(e, event.Load, event.LoadError)

	o.FailNext(trackA, 3, nil)
	e.Load(trackA, false, "")
	waitFor(t, func() bool { return len(o.CallsFor(trackA)) == 1 })

	// A new load for a different ref lands while the backoff timer is
	// pending; the retry must never fire.
	e.Load(trackB, false, "")
	waitFor(t, func() bool { return r.count(event.Load) == 1 })

	time.Sleep(150 * time.Millisecond)
	if n := len(o.CallsFor(trackA)); n != 1 {
		t.Errorf("opener calls for superseded ref = %d, want 1", n)
	}
	if r.count(event.LoadError) != 0 {
		t.Errorf("loaderror emitted for superseded load")
	}
	if got := e.Snapshot().SourceRef; got != trackB {
		t.Errorf("SourceRef = %q, want %q", got, trackB)
	}
}

func TestRetry_CounterResetsOnFreshLoad(t *testing.T) {
	o := source.NewMockOpener()
	e := New(retryOptions(o))
	defer e.Destroy()
	r := newRecorder(e, event.Load, event.LoadError)

	// First source exhausts its retries.
	o.FailNext(trackA, 3, nil)
	e.Load(trackA, false, "")
	waitFor(t, func() bool { return r.count(event.LoadError) == 1 })

	// A fresh load gets the full retry allowance again.
	o.FailNext(trackB, 2, nil)
	e.Load(trackB, false, "")
	waitFor(t, func() bool { return r.count(event.Load) == 1 })

	if n := len(o.CallsFor(trackB)); n != 3 {
		t.Errorf("opener calls = %d, want 3 (2 failures + success)", n)
	}
	if r.count(event.LoadError) != 1 {
		t.Errorf("loaderror events = %d, want 1", r.count(event.LoadError))
	}
}

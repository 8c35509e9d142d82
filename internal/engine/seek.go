// internal/engine/seek.go
package engine

import (
	"time"

	"github.com/llehouerou/pulsar/internal/event"
)

// pendingSeek is the one active seek awaiting confirmation from the
// source. Sources report seek completion asynchronously and sometimes
// briefly report the pre-seek position; publishing that stale value
// would make the clock jump backward, so samples are suppressed until
// one lands within tolerance of the target or the confirmation window
// elapses.
type pendingSeek struct {
	target   time.Duration
	issuedAt time.Time
	gen      uint64
	id       uint64
}

// Seek moves playback toward target. The confirmed position is updated
// to target immediately as a best-effort value, before the source
// acknowledges, so observers never regress to a stale reading. Silent
// no-op with no source attached.
func (e *Engine) Seek(target time.Duration) {
	e.mu.Lock()
	if e.destroyed || e.handle == nil {
		e.mu.Unlock()
		return
	}
	if target < 0 {
		target = 0
	}
	if e.durationKnown && target > e.duration {
		target = e.duration
	}

	e.position = target
	e.seekSeq++
	e.pending = &pendingSeek{
		target:   target,
		issuedAt: time.Now(),
		gen:      e.gen,
		id:       e.seekSeq,
	}
	e.handle.SeekTo(target)

	if e.seekTimer != nil {
		e.seekTimer.Stop()
	}
	gen, id := e.gen, e.seekSeq
	e.seekTimer = time.AfterFunc(e.opts.SeekConfirmWindow, func() {
		e.expireSeek(gen, id)
	})

	ev := e.eventLocked(event.Seek)
	e.mu.Unlock()
	e.bus.Publish(ev)
}

// expireSeek force-clears a seek whose confirmation window elapsed.
// Treating it as confirmed favors availability of fresh clock data over
// strict accuracy; without this the clock could stay suppressed
// forever.
func (e *Engine) expireSeek(gen, id uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.destroyed || gen != e.gen {
		return
	}
	if e.pending == nil || e.pending.id != id {
		return
	}
	e.pending = nil
	e.seekTimer = nil
}

// acceptSampleLocked applies the seek acceptance rule to one polled
// position: with no seek active every sample passes; during a seek only
// a sample within tolerance of the target passes, and doing so ends the
// active seek.
func (e *Engine) acceptSampleLocked(pos time.Duration) bool {
	req := e.pending
	if req == nil {
		return true
	}
	if absDelta(pos, req.target) >= e.opts.SeekTolerance {
		return false
	}
	e.pending = nil
	if e.seekTimer != nil {
		e.seekTimer.Stop()
		e.seekTimer = nil
	}
	return true
}

func absDelta(a, b time.Duration) time.Duration {
	if a > b {
		return a - b
	}
	return b - a
}

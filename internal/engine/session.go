// internal/engine/session.go
package engine

import (
	"github.com/llehouerou/pulsar/internal/event"
	"github.com/llehouerou/pulsar/internal/source"
)

// Load attaches the source behind ref, superseding whatever the engine
// was doing. It is a silent no-op when ref is already attached or a
// load for that exact ref is in flight; a completed LoadFailed for the
// same ref is restarted. formatHint may be empty, in which case the
// configured fallback order is tried.
func (e *Engine) Load(ref string, autoplay bool, formatHint string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.destroyed || ref == "" {
		return
	}
	if ref == e.ref {
		if e.handle != nil {
			return
		}
		if e.status == Loading {
			return
		}
	}
	e.beginLoadLocked(ref, autoplay, formatHint, false)
}

// Reload re-attaches the current source from scratch with
// autoplay=false, preserving the ref and format hint and discarding
// everything else. Used when external conditions change such that
// seeking becomes newly possible.
func (e *Engine) Reload() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.destroyed || e.ref == "" {
		return
	}
	e.beginLoadLocked(e.ref, false, e.hint, false)
}

// beginLoadLocked starts a new load attempt. Attempts are strictly
// sequential: the previous generation's handle and timers are gone
// before the opener runs. Only retry attempts keep the retry counter.
func (e *Engine) beginLoadLocked(ref string, autoplay bool, hint string, isRetry bool) {
	e.cancelTimersLocked()
	e.detachLocked()
	if !isRetry {
		e.retryAttempts = 0
	}

	e.ref = ref
	e.hint = hint
	e.autoplay = autoplay
	e.status = Loading
	e.position = 0
	e.duration = 0
	e.durationKnown = false

	gen := e.gen
	hints := e.hintsFor(hint)
	go func() {
		h, err := e.opts.Opener.Open(ref, hints)
		e.finishOpen(gen, ref, h, err)
	}()
}

// finishOpen receives the opener's completion. Completions belonging to
// a superseded generation release their handle and are dropped.
func (e *Engine) finishOpen(gen uint64, ref string, h source.Handle, err error) {
	e.mu.Lock()
	if e.destroyed || gen != e.gen {
		e.mu.Unlock()
		if h != nil {
			_ = h.Close()
		}
		e.log.WithField("ref", ref).Debug("discarding superseded load completion")
		return
	}

	if err != nil {
		events := e.failLoadLocked(err)
		e.mu.Unlock()
		for _, ev := range events {
			e.bus.Publish(ev)
		}
		return
	}

	e.handle = h
	e.status = Ready
	if d, ok := h.Duration(); ok {
		e.duration = d
		e.durationKnown = true
	}
	h.SetVolume(e.volume)
	h.SetMuted(e.muted)
	cur := e.gen
	h.OnEnd(func() { e.finishPlayback(cur) })

	autoplay := e.autoplay
	ev := e.eventLocked(event.Load)
	e.mu.Unlock()

	e.bus.Publish(ev)
	if autoplay {
		e.autoplayStart(cur)
	}
}

// Play starts or resumes playback. No-op when already playing or when
// no source is attached.
func (e *Engine) Play() {
	e.mu.Lock()
	if e.destroyed {
		e.mu.Unlock()
		return
	}
	events := e.playLocked(true)
	e.mu.Unlock()
	for _, ev := range events {
		e.bus.Publish(ev)
	}
}

// autoplayStart resumes the playback its load requested. A load
// subscriber may have issued a new Load before this continuation ran;
// the generation check drops it then, so a superseding source never
// inherits the old load's autoplay.
func (e *Engine) autoplayStart(gen uint64) {
	e.mu.Lock()
	if e.destroyed || gen != e.gen {
		e.mu.Unlock()
		return
	}
	events := e.playLocked(false)
	e.mu.Unlock()
	for _, ev := range events {
		e.bus.Publish(ev)
	}
}

// playLocked starts playback and returns the events to publish once the
// caller releases the lock.
func (e *Engine) playLocked(user bool) []event.Event {
	if e.handle == nil || e.status == Playing {
		return nil
	}

	if err := e.handle.Play(); err != nil {
		// Typically a host policy wanting a fresh user gesture; retrying
		// without one cannot succeed, so report and revert to Ready.
		e.status = Ready
		ev := e.eventLocked(event.PlayError)
		ev.Err = err
		e.log.WithField("user_initiated", user).WithError(err).Warn("playback start refused")
		return []event.Event{ev}
	}

	e.status = Playing
	e.startClockLocked()
	return []event.Event{e.eventLocked(event.Play)}
}

// Pause suspends playback, keeping the position. No-op unless playing.
func (e *Engine) Pause() {
	e.mu.Lock()
	if e.destroyed || e.status != Playing || e.handle == nil {
		e.mu.Unlock()
		return
	}
	e.handle.Pause()
	e.stopClockLocked()
	e.status = Paused
	if e.pending == nil {
		e.position = e.handle.Position()
	}
	ev := e.eventLocked(event.Pause)
	e.mu.Unlock()
	e.bus.Publish(ev)
}

// Stop halts playback and resets the confirmed position to zero,
// leaving the session Ready. Stopping while a load is in flight aborts
// the load (cancelling any retry timer) and returns the session to
// Idle without emitting anything.
func (e *Engine) Stop() {
	e.mu.Lock()
	if e.destroyed {
		e.mu.Unlock()
		return
	}

	if e.status == Loading {
		e.cancelTimersLocked()
		e.detachLocked()
		e.ref = ""
		e.hint = ""
		e.status = Idle
		e.mu.Unlock()
		return
	}

	if e.handle == nil || (e.status == Ready && e.position == 0) {
		e.mu.Unlock()
		return
	}

	e.cancelTimersLocked()
	e.stopClockLocked()
	e.handle.Pause()
	e.handle.SeekTo(0)
	e.status = Ready
	e.position = 0
	ev := e.eventLocked(event.Stop)
	e.mu.Unlock()
	e.bus.Publish(ev)
}

// SetVolume sets the output level, clamped to [0,1]. Applied to the
// source immediately unless muted.
func (e *Engine) SetVolume(level float64) {
	e.mu.Lock()
	if e.destroyed {
		e.mu.Unlock()
		return
	}
	e.volume = clampLevel(level)
	if e.handle != nil && !e.muted {
		e.handle.SetVolume(e.volume)
	}
	ev := e.eventLocked(event.Volume)
	e.mu.Unlock()
	e.bus.Publish(ev)
}

// SetMuted silences or restores output without losing the level.
func (e *Engine) SetMuted(muted bool) {
	e.mu.Lock()
	if e.destroyed {
		e.mu.Unlock()
		return
	}
	e.muted = muted
	if e.handle != nil {
		e.handle.SetMuted(muted)
		if !muted {
			// Volume changes made while muted were deferred.
			e.handle.SetVolume(e.volume)
		}
	}
	ev := e.eventLocked(event.Volume)
	e.mu.Unlock()
	e.bus.Publish(ev)
}

// finishPlayback handles the source reaching its natural end: the
// session returns to Ready at position zero and an end event fires.
func (e *Engine) finishPlayback(gen uint64) {
	e.mu.Lock()
	if e.destroyed || gen != e.gen || e.handle == nil {
		e.mu.Unlock()
		return
	}
	e.cancelTimersLocked()
	e.stopClockLocked()
	e.status = Ready
	e.position = 0
	ev := e.eventLocked(event.End)
	e.mu.Unlock()
	e.bus.Publish(ev)
}

// hintsFor returns the ordered format hints for one load attempt.
func (e *Engine) hintsFor(hint string) []string {
	if hint != "" {
		return []string{hint}
	}
	return e.opts.FormatFallback
}

// internal/engine/clock.go
package engine

import (
	"time"

	"github.com/llehouerou/pulsar/internal/event"
)

// startClockLocked launches the position poller for the current
// generation. It runs only while the session is Playing; every tick
// re-checks the generation so a poller from a superseded source can
// never publish.
func (e *Engine) startClockLocked() {
	if e.clockStop != nil {
		return
	}
	stop := make(chan struct{})
	e.clockStop = stop
	gen := e.gen
	interval := e.opts.PollInterval

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				e.tick(gen)
			}
		}
	}()
}

func (e *Engine) stopClockLocked() {
	if e.clockStop != nil {
		close(e.clockStop)
		e.clockStop = nil
	}
}

// tick takes one clock sample, runs it through the seek acceptance rule
// and publishes a timeupdate when it passes.
func (e *Engine) tick(gen uint64) {
	e.mu.Lock()
	if e.destroyed || gen != e.gen || e.status != Playing || e.handle == nil {
		e.mu.Unlock()
		return
	}

	pos := e.handle.Position()
	if !e.acceptSampleLocked(pos) {
		e.mu.Unlock()
		return
	}

	e.position = pos
	if !e.durationKnown {
		if d, ok := e.handle.Duration(); ok {
			e.duration = d
			e.durationKnown = true
		}
	}
	ev := e.eventLocked(event.TimeUpdate)
	e.mu.Unlock()
	e.bus.Publish(ev)
}

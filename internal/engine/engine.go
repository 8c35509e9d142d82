// internal/engine/engine.go

// Package engine owns a single active media source and mediates
// load/play/pause/seek/stop transitions for it. It recovers from
// transient load failures with bounded backoff and publishes a
// flicker-free playback clock through a typed event bus.
//
// The engine never has more than one live source handle. Every
// asynchronous continuation (open completion, retry timer, seek
// confirmation window, clock tick, end callback) carries the generation
// it was issued under and is discarded if the engine has moved on.
package engine

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/llehouerou/pulsar/internal/event"
	"github.com/llehouerou/pulsar/internal/source"
)

// Snapshot is a read-only view of the session.
type Snapshot struct {
	SourceRef     string
	Status        Status
	Playing       bool
	Position      time.Duration
	Duration      time.Duration
	DurationKnown bool
	Volume        float64
	Muted         bool
}

// Engine is the playback state engine. Construct with New; all methods
// are safe for concurrent use and none of them blocks on the host.
type Engine struct {
	mu   sync.Mutex
	opts Options
	log  *logrus.Logger
	bus  *event.Bus

	retryOn bool

	// gen tags one load lifecycle; bumped on every attach/detach
	// boundary. Stale continuations compare against it and bail.
	gen uint64

	status        Status
	ref           string
	hint          string
	autoplay      bool
	handle        source.Handle
	position      time.Duration
	duration      time.Duration
	durationKnown bool
	volume        float64
	muted         bool

	retryAttempts int
	retryTimer    *time.Timer

	pending   *pendingSeek
	seekSeq   uint64
	seekTimer *time.Timer

	clockStop chan struct{}

	destroyed bool
}

// New creates an engine. Destroy must be called to release it.
func New(opts Options) *Engine {
	opts = opts.withDefaults()
	return &Engine{
		opts:    opts,
		log:     opts.Logger,
		bus:     event.NewBus(opts.Logger),
		retryOn: *opts.TransientRetry,
		status:  Idle,
		volume:  clampLevel(*opts.InitialVolume),
	}
}

// Subscribe registers cb on ch; the returned func unsubscribes. After
// Destroy, Subscribe is a no-op returning a no-op unsubscribe.
func (e *Engine) Subscribe(ch event.Channel, cb event.Callback) (unsubscribe func()) {
	e.mu.Lock()
	dead := e.destroyed
	e.mu.Unlock()
	if dead {
		return func() {}
	}
	return e.bus.Subscribe(ch, cb)
}

// Snapshot returns the current session state.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return Snapshot{
		SourceRef:     e.ref,
		Status:        e.status,
		Playing:       e.status == Playing,
		Position:      e.position,
		Duration:      e.duration,
		DurationKnown: e.durationKnown,
		Volume:        e.volume,
		Muted:         e.muted,
	}
}

// Destroy irreversibly shuts the engine down: detaches any source,
// cancels all pending timers and clears all subscribers. No operation
// is valid afterward; every later command is a silent no-op.
func (e *Engine) Destroy() {
	e.mu.Lock()
	if e.destroyed {
		e.mu.Unlock()
		return
	}
	e.destroyed = true
	e.cancelTimersLocked()
	e.detachLocked()
	e.ref = ""
	e.status = Idle
	e.mu.Unlock()

	e.bus.Clear()
}

// detachLocked releases the current handle, if any, and invalidates
// every outstanding continuation by bumping the generation. A playing
// handle is silenced immediately and released after a short best-effort
// fade; it stops producing audio before any new handle can start, so
// two sources never have overlapping audible output. The deferred
// release touches only the captured handle, never engine state, so it
// needs no generation guard and must not be cancelled.
func (e *Engine) detachLocked() {
	e.gen++
	e.stopClockLocked()
	e.pending = nil

	if e.handle == nil {
		return
	}
	h := e.handle
	e.handle = nil

	if e.status == Playing {
		h.Mute()
		time.AfterFunc(e.opts.FadeOut, func() {
			_ = h.Close()
		})
		return
	}
	_ = h.Close()
}

// cancelTimersLocked stops the retry and seek-confirmation timers of
// the current generation.
func (e *Engine) cancelTimersLocked() {
	if e.retryTimer != nil {
		e.retryTimer.Stop()
		e.retryTimer = nil
	}
	if e.seekTimer != nil {
		e.seekTimer.Stop()
		e.seekTimer = nil
	}
	e.pending = nil
}

// eventLocked builds an event snapshot for ch from the session state.
func (e *Engine) eventLocked(ch event.Channel) event.Event {
	return event.Event{
		Channel:       ch,
		SourceRef:     e.ref,
		Position:      e.position,
		Duration:      e.duration,
		DurationKnown: e.durationKnown,
		Level:         e.volume,
		Muted:         e.muted,
	}
}

func clampLevel(v float64) float64 {
	return min(max(v, 0), 1)
}

// internal/source/mock.go
package source

import (
	"sync"
	"time"
)

// MockHandle is a test double for Handle. It records calls and lets
// tests script position, duration and play failures.
type MockHandle struct {
	mu            sync.Mutex
	ref           string
	playErr       error
	playCalls     int
	paused        bool
	position      time.Duration
	duration      time.Duration
	durationKnown bool
	level         float64
	muted         bool
	mutedEarly    bool // Mute() called (pre-release silence)
	seekCalls     []time.Duration
	closed        bool
	onEnd         func()
}

var _ Handle = (*MockHandle)(nil)

// NewMockHandle creates a mock handle for the given ref.
func NewMockHandle(ref string) *MockHandle {
	return &MockHandle{ref: ref, level: 1, paused: true}
}

func (m *MockHandle) Play() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.playCalls++
	if m.playErr != nil {
		return m.playErr
	}
	m.paused = false
	return nil
}

func (m *MockHandle) Pause() {
	m.mu.Lock()
	m.paused = true
	m.mu.Unlock()
}

func (m *MockHandle) Position() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.position
}

func (m *MockHandle) Duration() (time.Duration, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.duration, m.durationKnown
}

func (m *MockHandle) SeekTo(pos time.Duration) {
	m.mu.Lock()
	m.seekCalls = append(m.seekCalls, pos)
	m.mu.Unlock()
}

func (m *MockHandle) SetVolume(level float64) {
	m.mu.Lock()
	m.level = level
	m.mu.Unlock()
}

func (m *MockHandle) SetMuted(muted bool) {
	m.mu.Lock()
	m.muted = muted
	m.mu.Unlock()
}

func (m *MockHandle) Mute() {
	m.mu.Lock()
	m.mutedEarly = true
	m.mu.Unlock()
}

func (m *MockHandle) OnEnd(fn func()) {
	m.mu.Lock()
	m.onEnd = fn
	m.mu.Unlock()
}

func (m *MockHandle) Close() error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	return nil
}

// Test helpers

func (m *MockHandle) Ref() string { return m.ref }

func (m *MockHandle) SetPlayError(err error) {
	m.mu.Lock()
	m.playErr = err
	m.mu.Unlock()
}

func (m *MockHandle) SetPosition(pos time.Duration) {
	m.mu.Lock()
	m.position = pos
	m.mu.Unlock()
}

func (m *MockHandle) SetDuration(d time.Duration) {
	m.mu.Lock()
	m.duration = d
	m.durationKnown = true
	m.mu.Unlock()
}

func (m *MockHandle) PlayCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.playCalls
}

func (m *MockHandle) Paused() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.paused
}

func (m *MockHandle) SeekCalls() []time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]time.Duration, len(m.seekCalls))
	copy(out, m.seekCalls)
	return out
}

func (m *MockHandle) Level() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.level
}

func (m *MockHandle) Muted() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.muted
}

func (m *MockHandle) Silenced() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.mutedEarly
}

func (m *MockHandle) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// FinishPlayback simulates the media reaching its natural end.
func (m *MockHandle) FinishPlayback() {
	m.mu.Lock()
	fn := m.onEnd
	m.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// OpenCall records one Opener.Open invocation.
type OpenCall struct {
	Ref   string
	Hints []string
	At    time.Time
}

// MockOpener is a test double for Opener. Every successful Open returns
// a fresh MockHandle. Opens can be made to fail a scripted number of
// times per ref, or to block until released, which lets tests race a
// second load against an unfinished first one.
type MockOpener struct {
	mu        sync.Mutex
	calls     []OpenCall
	failures  map[string]int
	failErr   error
	blocked   map[string]chan struct{}
	opened    map[string][]*MockHandle
	durations map[string]time.Duration
}

var _ Opener = (*MockOpener)(nil)

// NewMockOpener creates a mock opener.
func NewMockOpener() *MockOpener {
	return &MockOpener{
		failures:  make(map[string]int),
		blocked:   make(map[string]chan struct{}),
		opened:    make(map[string][]*MockHandle),
		durations: make(map[string]time.Duration),
	}
}

func (o *MockOpener) Open(ref string, hints []string) (Handle, error) {
	o.mu.Lock()
	o.calls = append(o.calls, OpenCall{Ref: ref, Hints: hints, At: time.Now()})
	gate := o.blocked[ref]
	o.mu.Unlock()

	if gate != nil {
		<-gate
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	if o.failures[ref] > 0 {
		o.failures[ref]--
		err := o.failErr
		if err == nil {
			err = ErrUnsupportedFormat
		}
		return nil, err
	}
	h := NewMockHandle(ref)
	if d, ok := o.durations[ref]; ok {
		h.duration = d
		h.durationKnown = true
	}
	o.opened[ref] = append(o.opened[ref], h)
	return h, nil
}

// SetDuration makes future handles for ref report d at open time.
func (o *MockOpener) SetDuration(ref string, d time.Duration) {
	o.mu.Lock()
	o.durations[ref] = d
	o.mu.Unlock()
}

// FailNext makes the next n opens of ref fail with err (or a default
// decode error when err is nil).
func (o *MockOpener) FailNext(ref string, n int, err error) {
	o.mu.Lock()
	o.failures[ref] = n
	o.failErr = err
	o.mu.Unlock()
}

// Block makes opens of ref wait; the returned func releases them.
func (o *MockOpener) Block(ref string) (release func()) {
	gate := make(chan struct{})
	o.mu.Lock()
	o.blocked[ref] = gate
	o.mu.Unlock()
	var once sync.Once
	return func() {
		once.Do(func() {
			o.mu.Lock()
			delete(o.blocked, ref)
			o.mu.Unlock()
			close(gate)
		})
	}
}

// Calls returns all recorded Open invocations.
func (o *MockOpener) Calls() []OpenCall {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]OpenCall, len(o.calls))
	copy(out, o.calls)
	return out
}

// CallsFor returns the Open invocations for ref, in order.
func (o *MockOpener) CallsFor(ref string) []OpenCall {
	var out []OpenCall
	for _, c := range o.Calls() {
		if c.Ref == ref {
			out = append(out, c)
		}
	}
	return out
}

// Opened returns the handles created for ref, in creation order.
func (o *MockOpener) Opened(ref string) []*MockHandle {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]*MockHandle, len(o.opened[ref]))
	copy(out, o.opened[ref])
	return out
}

// LastOpened returns the most recent handle for ref, or nil.
func (o *MockOpener) LastOpened(ref string) *MockHandle {
	handles := o.Opened(ref)
	if len(handles) == 0 {
		return nil
	}
	return handles[len(handles)-1]
}

// internal/source/source.go
package source

import (
	"errors"
	"time"
)

// ErrUnsupportedFormat is returned when no decoder matches the source.
var ErrUnsupportedFormat = errors.New("unsupported format")

// ErrClosed is returned by operations on a released handle.
var ErrClosed = errors.New("source handle closed")

// DefaultHints is the decode order tried when the caller supplies no
// format hint.
var DefaultHints = []string{"mp3", "flac", "ogg"}

// Handle is the live connection to a single playable media item,
// including its decode state. Exactly one Handle is attached to the
// engine at any time; the session controller is its sole owner and the
// only entity allowed to create or release it.
type Handle interface {
	// Play starts or resumes audio output. Returns an error if output
	// could not start (the handle stays silent in that case).
	Play() error
	// Pause suspends audio output, keeping the position.
	Pause()
	// Position returns the current decode position.
	Position() time.Duration
	// Duration returns the total length, if the decoder knows it yet.
	Duration() (time.Duration, bool)
	// SeekTo moves the decode position. Completion is asynchronous:
	// Position may briefly keep reporting the pre-seek value.
	SeekTo(pos time.Duration)
	// SetVolume sets the output level (0.0 to 1.0).
	SetVolume(level float64)
	// SetMuted silences or restores output without losing the level.
	SetMuted(muted bool)
	// Mute silences output immediately. Used by the controller to stop
	// audible output ahead of releasing the handle.
	Mute()
	// OnEnd registers the callback invoked when the media plays to its
	// natural end. At most one callback; later calls replace it.
	OnEnd(fn func())
	// Close releases the handle and every resource behind it. The
	// handle is unusable afterward. Close is idempotent.
	Close() error
}

// Opener creates handles from source references. Open may block while
// the decoder reads headers; the engine always calls it off the command
// goroutine. hints is the ordered list of container/codec names to try.
type Opener interface {
	Open(ref string, hints []string) (Handle, error)
}

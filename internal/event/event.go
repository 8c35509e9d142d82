// internal/event/event.go
package event

import "time"

// Channel names a typed event stream on the bus.
type Channel string

const (
	Load       Channel = "load"
	LoadError  Channel = "loaderror"
	PlayError  Channel = "playerror"
	Play       Channel = "play"
	Pause      Channel = "pause"
	Stop       Channel = "stop"
	End        Channel = "end"
	Seek       Channel = "seek"
	Volume     Channel = "volume"
	TimeUpdate Channel = "timeupdate"
)

// Event carries one notification. Fields beyond Channel and SourceRef
// are populated per channel: Position/Duration on clock and transport
// events, Level/Muted on volume events, Err on error events.
type Event struct {
	Channel       Channel
	SourceRef     string
	Position      time.Duration
	Duration      time.Duration
	DurationKnown bool
	Level         float64
	Muted         bool
	Err           error
}

// Callback receives events for one channel. Callbacks run synchronously
// on the emitting goroutine and should return quickly.
type Callback func(Event)

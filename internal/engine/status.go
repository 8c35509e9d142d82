// internal/engine/status.go
package engine

// Status represents the session state machine.
//
// Valid transitions:
//   - Idle       → Loading   (via Load)
//   - Loading    → Ready     (open completed)
//   - Loading    → LoadFailed(open failed, retries exhausted or disabled)
//   - Ready      → Playing   (via Play)
//   - Playing    → Paused    (via Pause)
//   - Paused     → Playing   (via Play)
//   - Playing    → Ready     (via Stop or natural end, position reset to 0)
//   - Paused     → Ready     (via Stop, position reset to 0)
//   - any        → Loading   (via a new Load, which supersedes the rest)
//
// LoadFailed leaves only through an explicit new Load; the retry policy
// re-enters Loading internally before the status ever becomes LoadFailed.
// There is no separate stopped status: a stopped session is Ready at
// position zero.
type Status int

const (
	Idle Status = iota
	Loading
	Ready
	Playing
	Paused
	LoadFailed
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case Idle:
		return "Idle"
	case Loading:
		return "Loading"
	case Ready:
		return "Ready"
	case Playing:
		return "Playing"
	case Paused:
		return "Paused"
	case LoadFailed:
		return "LoadFailed"
	default:
		return "Unknown"
	}
}

// IsAttached returns true if the session has a live source handle.
func (s Status) IsAttached() bool {
	return s == Ready || s == Playing || s == Paused
}

// internal/engine/options.go
package engine

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/llehouerou/pulsar/internal/platform"
	"github.com/llehouerou/pulsar/internal/source"
)

const (
	// DefaultPollInterval is the clock publisher cadence: 4 Hz balances
	// UI smoothness against redundant work.
	DefaultPollInterval = 250 * time.Millisecond
	// DefaultSeekTolerance is how close a polled position must land to
	// the seek target to count as confirmation.
	DefaultSeekTolerance = 2 * time.Second
	// DefaultSeekConfirmWindow bounds how long clock samples stay
	// suppressed waiting for a seek confirmation.
	DefaultSeekConfirmWindow = 300 * time.Millisecond
	// DefaultRetryMaxAttempts bounds the transient-load retry sequence.
	DefaultRetryMaxAttempts = 3
	// DefaultRetryBackoff is the linear backoff unit between attempts.
	DefaultRetryBackoff = 500 * time.Millisecond
	// DefaultFadeOut is the best-effort fade before a playing handle is
	// released, long enough to avoid an audible click.
	DefaultFadeOut = 10 * time.Millisecond
)

// Options configures a new Engine. The zero value of every field has a
// usable default.
type Options struct {
	// Opener creates source handles. Defaults to source.FileOpener.
	Opener source.Opener
	// Logger receives subscriber faults and discarded stale
	// completions. Defaults to the logrus standard logger.
	Logger *logrus.Logger

	PollInterval      time.Duration
	SeekTolerance     time.Duration
	SeekConfirmWindow time.Duration

	RetryMaxAttempts int
	RetryBackoff     time.Duration
	// TransientRetry overrides the platform fingerprint. Nil means
	// detect from the host.
	TransientRetry *bool

	// FormatFallback is the hint order used when Load gets no format
	// hint. Defaults to source.DefaultHints.
	FormatFallback []string

	// InitialVolume is the starting level. Nil means 1.0.
	InitialVolume *float64

	FadeOut time.Duration
}

func (o Options) withDefaults() Options {
	if o.Opener == nil {
		o.Opener = source.FileOpener{}
	}
	if o.Logger == nil {
		o.Logger = logrus.StandardLogger()
	}
	if o.PollInterval <= 0 {
		o.PollInterval = DefaultPollInterval
	}
	if o.SeekTolerance <= 0 {
		o.SeekTolerance = DefaultSeekTolerance
	}
	if o.SeekConfirmWindow <= 0 {
		o.SeekConfirmWindow = DefaultSeekConfirmWindow
	}
	if o.RetryMaxAttempts <= 0 {
		o.RetryMaxAttempts = DefaultRetryMaxAttempts
	}
	if o.RetryBackoff <= 0 {
		o.RetryBackoff = DefaultRetryBackoff
	}
	if o.TransientRetry == nil {
		on := platform.TransientRetry()
		o.TransientRetry = &on
	}
	if len(o.FormatFallback) == 0 {
		o.FormatFallback = source.DefaultHints
	}
	if o.InitialVolume == nil {
		v := 1.0
		o.InitialVolume = &v
	}
	if o.FadeOut <= 0 {
		o.FadeOut = DefaultFadeOut
	}
	return o
}

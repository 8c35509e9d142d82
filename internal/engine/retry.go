// internal/engine/retry.go
package engine

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/llehouerou/pulsar/internal/event"
)

// failLoadLocked applies the retry policy to a load failure. On
// eligible platforms the attempt counter is bumped and, while under the
// cap, a retry of the same ref/hint/autoplay is scheduled with linear
// backoff. At the cap (or on ineligible platforms) the failure is
// terminal: the counter resets and one loaderror event is returned for
// publication.
func (e *Engine) failLoadLocked(err error) []event.Event {
	if e.retryOn {
		e.retryAttempts++
		if e.retryAttempts < e.opts.RetryMaxAttempts {
			delay := time.Duration(e.retryAttempts) * e.opts.RetryBackoff
			gen := e.gen
			ref, hint, autoplay := e.ref, e.hint, e.autoplay
			e.log.WithFields(logrus.Fields{
				"ref":     ref,
				"attempt": e.retryAttempts,
				"delay":   delay,
			}).Debug("transient load failure, retry scheduled")
			e.retryTimer = time.AfterFunc(delay, func() {
				e.retryLoad(gen, ref, hint, autoplay)
			})
			return nil
		}
		e.retryAttempts = 0
	}

	e.status = LoadFailed
	ev := e.eventLocked(event.LoadError)
	ev.Err = err
	return []event.Event{ev}
}

// retryLoad re-issues a failed load. The generation check drops retries
// whose load was superseded or stopped while the backoff timer ran.
func (e *Engine) retryLoad(gen uint64, ref, hint string, autoplay bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.destroyed || gen != e.gen {
		return
	}
	e.beginLoadLocked(ref, autoplay, hint, true)
}

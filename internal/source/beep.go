// internal/source/beep.go
package source

import (
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/flac"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/speaker"
	"github.com/gopxl/beep/v2/vorbis"
)

// FileOpener opens local audio files through beep's decoders.
type FileOpener struct{}

var _ Opener = FileOpener{}

var (
	speakerMu   sync.Mutex
	speakerOn   bool
	speakerRate beep.SampleRate
)

// ensureSpeaker initializes the speaker once, with the sample rate of
// the first opened file. Later files with a different rate are
// resampled to the speaker rate.
func ensureSpeaker(rate beep.SampleRate) (beep.SampleRate, error) {
	speakerMu.Lock()
	defer speakerMu.Unlock()
	if speakerOn {
		return speakerRate, nil
	}
	if err := speaker.Init(rate, rate.N(time.Second/10)); err != nil {
		return 0, err
	}
	speakerOn = true
	speakerRate = rate
	return rate, nil
}

// Open decodes ref and returns a silent, paused handle. Audio does not
// start until Play is called on the handle.
func (FileOpener) Open(ref string, hints []string) (Handle, error) {
	f, err := os.Open(ref)
	if err != nil {
		return nil, err
	}

	candidates := decodeCandidates(ref, hints, f)
	if len(candidates) == 0 {
		f.Close()
		return nil, fmt.Errorf("open %s: %w", ref, ErrUnsupportedFormat)
	}

	var (
		streamer beep.StreamSeekCloser
		format   beep.Format
		lastErr  error
	)
	for _, c := range candidates {
		if _, err := f.Seek(0, io.SeekStart); err != nil {
			f.Close()
			return nil, err
		}
		streamer, format, lastErr = decode(f, c)
		if lastErr == nil {
			break
		}
		streamer = nil
	}
	if streamer == nil {
		f.Close()
		return nil, fmt.Errorf("open %s: %w", ref, lastErr)
	}

	rate, err := ensureSpeaker(format.SampleRate)
	if err != nil {
		streamer.Close()
		f.Close()
		return nil, err
	}

	ctrl := &beep.Ctrl{Streamer: streamer, Paused: true}
	vol := &effects.Volume{Streamer: ctrl, Base: 2}
	h := &beepHandle{
		file:     f,
		streamer: streamer,
		format:   format,
		ctrl:     ctrl,
		volume:   vol,
		out:      vol,
		level:    1,
	}
	if rate != format.SampleRate {
		h.out = beep.Resample(4, format.SampleRate, rate, vol)
	}
	return h, nil
}

// decodeCandidates builds the ordered list of decode formats to try:
// the file extension when recognized, a content sniff otherwise, then
// the caller's hints.
func decodeCandidates(ref string, hints []string, f *os.File) []string {
	var out []string
	add := func(format string) {
		format = normalizeFormat(format)
		if format == "" {
			return
		}
		for _, existing := range out {
			if existing == format {
				return
			}
		}
		out = append(out, format)
	}

	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(ref)), ".")
	if normalizeFormat(ext) != "" {
		add(ext)
	} else if sniffed, ok := sniffFormat(f); ok {
		add(sniffed)
	}
	for _, h := range hints {
		add(h)
	}
	return out
}

// normalizeFormat maps aliases to the canonical decoder name, or ""
// when no decoder covers the format.
func normalizeFormat(format string) string {
	switch strings.ToLower(format) {
	case "mp3", "mpeg":
		return "mp3"
	case "flac":
		return "flac"
	case "ogg", "oga", "vorbis":
		return "ogg"
	default:
		return ""
	}
}

func decode(f *os.File, format string) (beep.StreamSeekCloser, beep.Format, error) {
	switch format {
	case "mp3":
		return mp3.Decode(f)
	case "flac":
		return flac.Decode(f)
	case "ogg":
		return vorbis.Decode(f)
	}
	return nil, beep.Format{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
}

// beepHandle is the live beep-backed connection to one audio file.
type beepHandle struct {
	mu       sync.Mutex
	file     *os.File
	streamer beep.StreamSeekCloser
	format   beep.Format
	ctrl     *beep.Ctrl
	volume   *effects.Volume
	out      beep.Streamer // volume, possibly wrapped in a resampler
	level    float64
	muted    bool
	started  bool // sequence handed to the speaker

	// Touched from the speaker's streaming goroutine while it holds its
	// own lock, so these stay off the handle mutex.
	closed  atomic.Bool
	drained atomic.Bool
	onEnd   func()
}

var _ Handle = (*beepHandle)(nil)

func (h *beepHandle) Play() error {
	if h.closed.Load() {
		return ErrClosed
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.drained.Load() {
		speaker.Lock()
		err := h.streamer.Seek(0)
		speaker.Unlock()
		if err != nil {
			return fmt.Errorf("rewind: %w", err)
		}
		h.drained.Store(false)
		h.started = false
	}

	speaker.Lock()
	h.ctrl.Paused = false
	speaker.Unlock()

	if !h.started {
		h.started = true
		speaker.Play(beep.Seq(h.out, beep.Callback(h.finished)))
	}
	return nil
}

// finished runs on the speaker's streaming goroutine with the speaker
// lock held; it must not take the handle mutex or re-enter the speaker.
func (h *beepHandle) finished() {
	if h.closed.Load() {
		return
	}
	h.drained.Store(true)
	if fn := h.onEnd; fn != nil {
		go fn()
	}
}

func (h *beepHandle) Pause() {
	if h.closed.Load() {
		return
	}
	speaker.Lock()
	h.ctrl.Paused = true
	speaker.Unlock()
}

func (h *beepHandle) Position() time.Duration {
	if h.closed.Load() {
		return 0
	}
	speaker.Lock()
	n := h.streamer.Position()
	speaker.Unlock()
	return h.format.SampleRate.D(n)
}

func (h *beepHandle) Duration() (time.Duration, bool) {
	if h.closed.Load() {
		return 0, false
	}
	n := h.streamer.Len()
	if n <= 0 {
		return 0, false
	}
	return h.format.SampleRate.D(n), true
}

func (h *beepHandle) SeekTo(pos time.Duration) {
	if h.closed.Load() {
		return
	}
	n := h.format.SampleRate.N(pos)
	speaker.Lock()
	n = min(max(n, 0), h.streamer.Len())
	_ = h.streamer.Seek(n)
	speaker.Unlock()
}

// SetVolume sets the output level (0.0 to 1.0). While muted only the
// level is stored; unmuting restores it.
func (h *beepHandle) SetVolume(level float64) {
	if h.closed.Load() {
		return
	}
	level = min(max(level, 0), 1)

	h.mu.Lock()
	h.level = level
	muted := h.muted
	h.mu.Unlock()

	if muted {
		return
	}
	speaker.Lock()
	h.volume.Volume = levelToVolume(level)
	speaker.Unlock()
}

func (h *beepHandle) SetMuted(muted bool) {
	if h.closed.Load() {
		return
	}
	h.mu.Lock()
	h.muted = muted
	level := h.level
	h.mu.Unlock()

	speaker.Lock()
	h.volume.Silent = muted
	if !muted {
		h.volume.Volume = levelToVolume(level)
	}
	speaker.Unlock()
}

func (h *beepHandle) Mute() {
	if h.closed.Load() {
		return
	}
	speaker.Lock()
	h.volume.Silent = true
	speaker.Unlock()
}

// OnEnd must be registered before Play; the field is read without a
// lock from the speaker goroutine.
func (h *beepHandle) OnEnd(fn func()) {
	h.onEnd = fn
}

func (h *beepHandle) Close() error {
	if h.closed.Swap(true) {
		return nil
	}
	speaker.Lock()
	h.volume.Silent = true
	h.ctrl.Streamer = nil // drains the mixer entry without touching other handles
	speaker.Unlock()

	h.mu.Lock()
	defer h.mu.Unlock()
	err := h.streamer.Close()
	if cerr := h.file.Close(); err == nil {
		err = cerr
	}
	return err
}

// levelToVolume converts a 0.0-1.0 level to beep's Volume value.
// beep uses a logarithmic scale with base 2: 0 means no change,
// -1 half volume, -2 quarter. 0 maps to -10, essentially silent.
func levelToVolume(level float64) float64 {
	if level <= 0 {
		return -10
	}
	if level >= 1 {
		return 0
	}
	return math.Log2(level)
}

// internal/source/source_test.go
package source

import (
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLevelToVolume(t *testing.T) {
	cases := []struct {
		level float64
		want  float64
	}{
		{1.0, 0},
		{0.5, -1},
		{0.25, -2},
		{0.0, -10},
		{-0.5, -10},
		{1.5, 0},
	}
	for _, c := range cases {
		if got := levelToVolume(c.level); math.Abs(got-c.want) > 1e-9 {
			t.Errorf("levelToVolume(%v) = %v, want %v", c.level, got, c.want)
		}
	}
}

func TestNormalizeFormat(t *testing.T) {
	cases := map[string]string{
		"mp3":    "mp3",
		"MP3":    "mp3",
		"mpeg":   "mp3",
		"flac":   "flac",
		"ogg":    "ogg",
		"oga":    "ogg",
		"vorbis": "ogg",
		"wav":    "",
		"":       "",
	}
	for in, want := range cases {
		if got := normalizeFormat(in); got != want {
			t.Errorf("normalizeFormat(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestDecodeCandidates_ExtensionFirst(t *testing.T) {
	got := decodeCandidates("/music/song.flac", []string{"mp3", "ogg"}, nil)
	want := []string{"flac", "mp3", "ogg"}
	if len(got) != len(want) {
		t.Fatalf("candidates = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("candidates = %v, want %v", got, want)
		}
	}
}

func TestDecodeCandidates_DeduplicatesHints(t *testing.T) {
	got := decodeCandidates("/music/song.mp3", []string{"mp3", "mpeg", "flac"}, nil)
	want := []string{"mp3", "flac"}
	if len(got) != len(want) {
		t.Fatalf("candidates = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("candidates = %v, want %v", got, want)
		}
	}
}

func TestDecodeCandidates_UnknownExtensionSniffs(t *testing.T) {
	// A non-audio file sniffs to nothing; only the hints remain.
	path := filepath.Join(t.TempDir(), "mystery.bin")
	if err := os.WriteFile(path, []byte("not audio at all"), 0o644); err != nil {
		t.Fatal(err)
	}
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	got := decodeCandidates(path, []string{"ogg"}, f)
	if len(got) != 1 || got[0] != "ogg" {
		t.Errorf("candidates = %v, want [ogg]", got)
	}
}

func TestDecode_UnsupportedFormat(t *testing.T) {
	_, _, err := decode(nil, "wav")
	if err == nil {
		t.Fatal("decode accepted an unsupported format")
	}
}

func TestFileOpener_MissingFile(t *testing.T) {
	_, err := FileOpener{}.Open(filepath.Join(t.TempDir(), "gone.mp3"), nil)
	if err == nil {
		t.Fatal("Open succeeded on a missing file")
	}
}

func TestFileOpener_NoDecodeCandidates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.bin")
	if err := os.WriteFile(path, []byte("nope"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := FileOpener{}.Open(path, nil)
	if err == nil {
		t.Fatal("Open succeeded without any decode candidate")
	}
}

func TestMockHandle_RecordsCalls(t *testing.T) {
	h := NewMockHandle("x.mp3")

	if err := h.Play(); err != nil {
		t.Fatalf("Play() = %v", err)
	}
	if h.Paused() {
		t.Error("handle paused after Play")
	}
	h.Pause()
	if !h.Paused() {
		t.Error("handle not paused after Pause")
	}
	if h.PlayCalls() != 1 {
		t.Errorf("PlayCalls = %d, want 1", h.PlayCalls())
	}
}

func TestMockOpener_BlockAndRelease(t *testing.T) {
	o := NewMockOpener()
	release := o.Block("x.mp3")

	done := make(chan error, 1)
	go func() {
		_, err := o.Open("x.mp3", nil)
		done <- err
	}()

	time.Sleep(10 * time.Millisecond)
	select {
	case <-done:
		t.Fatal("Open returned before release")
	default:
	}

	release()
	if err := <-done; err != nil {
		t.Fatalf("Open after release = %v", err)
	}
	if h := o.LastOpened("x.mp3"); h == nil {
		t.Fatal("no handle recorded")
	}
}

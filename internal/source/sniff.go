// internal/source/sniff.go
package source

import (
	"io"
	"os"

	"github.com/dhowden/tag"
)

// sniffFormat inspects file content to pick a decode path when the
// extension is missing or unrecognized.
func sniffFormat(f *os.File) (string, bool) {
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return "", false
	}
	_, fileType, err := tag.Identify(f)
	_, _ = f.Seek(0, io.SeekStart)
	if err != nil {
		return "", false
	}

	switch fileType {
	case tag.MP3:
		return "mp3", true
	case tag.FLAC:
		return "flac", true
	case tag.OGG:
		return "ogg", true
	default:
		return "", false
	}
}

package library

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dhowden/tag"
)

// Track is an immutable metadata record for a single audio file.
// Path is the track's identity; records are replaced wholesale on rescan.
type Track struct {
	Path      string
	Title     string
	Artist    string
	Album     string
	Duration  time.Duration
	Format    string
	DateAdded time.Time
}

// audioExtensions lists the file extensions the catalog considers playable.
var audioExtensions = map[string]bool{
	".mp3":  true,
	".flac": true,
	".wav":  true,
	".ogg":  true,
	".oga":  true,
}

// IsAudioFile reports whether path has a recognized audio extension.
func IsAudioFile(path string) bool {
	return audioExtensions[strings.ToLower(filepath.Ext(path))]
}

// DurationProber returns the playable duration of an audio file.
// The audio engine provides one; Scan works without it (zero durations).
type DurationProber func(path string) (time.Duration, error)

// ReadTrack builds a Track from the file at path.
// Tag data is read with dhowden/tag; when the file carries no readable tags
// the title falls back to the file stem and the rest stays empty.
func ReadTrack(path string, probe DurationProber) (Track, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Track{}, fmt.Errorf("failed to stat track: %w", err)
	}
	if info.IsDir() {
		return Track{}, fmt.Errorf("not a file: %s", path)
	}

	t := Track{
		Path:      path,
		Title:     stemOf(path),
		Format:    strings.TrimPrefix(strings.ToUpper(filepath.Ext(path)), "."),
		DateAdded: info.ModTime(),
	}

	f, err := os.Open(path)
	if err != nil {
		return Track{}, fmt.Errorf("failed to open track: %w", err)
	}
	defer f.Close()

	m, err := tag.ReadFrom(f)
	if err == nil {
		if title := m.Title(); title != "" {
			t.Title = title
		}
		t.Artist = m.Artist()
		t.Album = m.Album()
	}

	if probe != nil {
		if d, err := probe(path); err == nil {
			t.Duration = d
		}
	}

	return t, nil
}

// Artwork returns the embedded cover art bytes of the file at path,
// or nil if the file carries none.
func Artwork(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open track: %w", err)
	}
	defer f.Close()

	m, err := tag.ReadFrom(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read tags: %w", err)
	}

	pic := m.Picture()
	if pic == nil {
		return nil, nil
	}
	return pic.Data, nil
}

func stemOf(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

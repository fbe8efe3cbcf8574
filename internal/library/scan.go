package library

import (
	"io/fs"
	"log"
	"path/filepath"
	"time"
)

// Scan walks dir recursively and returns a Track for every audio file found.
// Files that cannot be read are logged and skipped, never fatal.
func Scan(dir string, probe DurationProber) ([]Track, error) {
	var tracks []Track

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			log.Printf("Scan: skipping %s: %v", path, err)
			return nil
		}
		if d.IsDir() || !IsAudioFile(path) {
			return nil
		}

		track, err := ReadTrack(path, probe)
		if err != nil {
			log.Printf("Scan: skipping %s: %v", path, err)
			return nil
		}
		tracks = append(tracks, track)
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("Scanned %d tracks from %s", len(tracks), dir)
	return tracks, nil
}

// TotalDuration sums the durations of all tracks.
func TotalDuration(tracks []Track) time.Duration {
	var total time.Duration
	for _, t := range tracks {
		total += t.Duration
	}
	return total
}

package control

import (
	"fmt"
	"strings"

	"github.com/halvard/chime/internal/library"
)

// formatTrackInfo renders a track as protocol key-value lines. Empty
// tags are omitted.
func formatTrackInfo(track *library.Track, pos int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "file: %s\n", track.Path)
	if track.Title != "" {
		fmt.Fprintf(&b, "Title: %s\n", track.Title)
	}
	if track.Artist != "" {
		fmt.Fprintf(&b, "Artist: %s\n", track.Artist)
	}
	if track.Album != "" {
		fmt.Fprintf(&b, "Album: %s\n", track.Album)
	}
	if track.Duration > 0 {
		fmt.Fprintf(&b, "duration: %.3f\n", track.Duration.Seconds())
	}
	fmt.Fprintf(&b, "Pos: %d\n", pos)
	return b.String()
}

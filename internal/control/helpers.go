package control

import (
	"fmt"
	"strings"

	"github.com/halvard/chime/internal/library"
)

// resolveTrack turns a command URI into a track, preferring catalog
// metadata and falling back to reading the file directly for paths
// outside the library.
func (s *Server) resolveTrack(uri string) (library.Track, error) {
	if track, ok := s.catalog.Find(uri); ok {
		return track, nil
	}
	if !library.IsAudioFile(uri) {
		return library.Track{}, fmt.Errorf("not an audio file: %s", uri)
	}
	return library.ReadTrack(uri, nil)
}

// joinURI reassembles an argument that may contain spaces.
func joinURI(args []string) string {
	return unquoteArg(strings.Join(args, " "))
}

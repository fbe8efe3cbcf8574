package control

import (
	"fmt"
	"strings"
)

// cmdStatus reports the full transport state as key-value lines.
func (s *Server) cmdStatus(_ []string) string {
	snap := s.player.Snapshot()

	var status strings.Builder
	fmt.Fprintf(&status, "volume: %d\n", volumePercent(snap))
	fmt.Fprintf(&status, "repeat: %s\n", snap.Repeat)
	fmt.Fprintf(&status, "shuffle: %s\n", boolFlag(snap.Shuffle))
	fmt.Fprintf(&status, "mute: %s\n", boolFlag(snap.Muted))
	fmt.Fprintf(&status, "playlist: %d\n", snap.QueueVersion)
	fmt.Fprintf(&status, "playlistlength: %d\n", len(snap.Tracks))
	fmt.Fprintf(&status, "state: %s\n", snap.State)

	if snap.CurrentIndex >= 0 {
		fmt.Fprintf(&status, "song: %d\n", snap.CurrentIndex)
		fmt.Fprintf(&status, "elapsed: %.3f\n", snap.Elapsed.Seconds())
		fmt.Fprintf(&status, "duration: %.3f\n", snap.Duration.Seconds())
	}

	status.WriteString("OK\n")
	return status.String()
}

// cmdCurrentSong reports the track under the cursor; nothing but OK
// when the player is stopped with no cursor.
func (s *Server) cmdCurrentSong(_ []string) string {
	snap := s.player.Snapshot()
	if snap.CurrentIndex < 0 {
		return "OK\n"
	}

	var info strings.Builder
	track := snap.Tracks[snap.CurrentIndex]
	info.WriteString(formatTrackInfo(&track, snap.CurrentIndex))
	info.WriteString("OK\n")
	return info.String()
}

// cmdLibrary lists every track in the catalog.
func (s *Server) cmdLibrary(_ []string) string {
	var info strings.Builder
	for i, track := range s.catalog.Tracks() {
		info.WriteString(formatTrackInfo(&track, i))
	}
	info.WriteString("OK\n")
	return info.String()
}

// cmdRescan triggers a library refresh. The updated catalog arrives
// asynchronously through the watcher.
func (s *Server) cmdRescan(_ []string) string {
	if s.rescan == nil {
		return "ACK [50@0] {rescan} rescan not available\n"
	}
	s.rescan()
	return "OK\n"
}

// cmdAlbumArt serves the cover image for a track as a binary chunk.
func (s *Server) cmdAlbumArt(args []string) string {
	if len(args) == 0 {
		return "ACK [2@0] {albumart} missing URI\n"
	}
	if s.art == nil {
		return "ACK [50@0] {albumart} artwork not available\n"
	}

	data, err := s.art.Get(joinURI(args))
	if err != nil {
		return fmt.Sprintf("ACK [50@0] {albumart} %s\n", err.Error())
	}

	var b strings.Builder
	fmt.Fprintf(&b, "size: %d\n", len(data))
	fmt.Fprintf(&b, "binary: %d\n", len(data))
	b.Write(data)
	b.WriteString("\nOK\n")
	return b.String()
}

func boolFlag(v bool) string {
	if v {
		return "1"
	}
	return "0"
}

package control

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/halvard/chime/internal/library"
	"github.com/halvard/chime/internal/playlist"
)

func (s *Server) openPlaylist(name string) (*playlist.Playlist, error) {
	path := filepath.Join(s.playlistDir, name+".m3u")
	return playlist.Load(path, func(p string) (library.Track, bool) {
		return s.catalog.Find(p)
	})
}

// cmdLoad handles 'load NAME': replace the queue with a stored playlist
// and start playing from its first entry.
func (s *Server) cmdLoad(args []string) string {
	if len(args) == 0 {
		return "ACK [2@0] {load} missing playlist name\n"
	}

	pl, err := s.openPlaylist(joinURI(args))
	if err != nil {
		return fmt.Sprintf("ACK [50@0] {load} %s\n", err.Error())
	}
	if err := s.player.LoadQueue(pl.Tracks, 0); err != nil {
		return fmt.Sprintf("ACK [50@0] {load} %s\n", err.Error())
	}
	return "OK\n"
}

// cmdSave handles 'save NAME': persist the current queue as a playlist.
func (s *Server) cmdSave(args []string) string {
	if len(args) == 0 {
		return "ACK [2@0] {save} missing playlist name\n"
	}

	snap := s.player.Snapshot()
	pl, err := playlist.Create(s.playlistDir, joinURI(args))
	if err != nil {
		return fmt.Sprintf("ACK [50@0] {save} %s\n", err.Error())
	}
	pl.Tracks = snap.Tracks
	if err := pl.Save(); err != nil {
		return fmt.Sprintf("ACK [50@0] {save} %s\n", err.Error())
	}
	return "OK\n"
}

// cmdRm handles 'rm NAME': delete a stored playlist.
func (s *Server) cmdRm(args []string) string {
	if len(args) == 0 {
		return "ACK [2@0] {rm} missing playlist name\n"
	}

	pl, err := s.openPlaylist(joinURI(args))
	if err != nil {
		return fmt.Sprintf("ACK [50@0] {rm} %s\n", err.Error())
	}
	if err := pl.Delete(); err != nil {
		return fmt.Sprintf("ACK [50@0] {rm} %s\n", err.Error())
	}
	return "OK\n"
}

// cmdRename handles 'rename OLD NEW'.
func (s *Server) cmdRename(args []string) string {
	if len(args) < 2 {
		return "ACK [2@0] {rename} missing arguments\n"
	}

	pl, err := s.openPlaylist(unquoteArg(args[0]))
	if err != nil {
		return fmt.Sprintf("ACK [50@0] {rename} %s\n", err.Error())
	}
	if err := pl.Rename(unquoteArg(args[1])); err != nil {
		return fmt.Sprintf("ACK [50@0] {rename} %s\n", err.Error())
	}
	return "OK\n"
}

// cmdListPlaylists lists stored playlists, oldest first.
func (s *Server) cmdListPlaylists(_ []string) string {
	playlists, err := playlist.LoadDir(s.playlistDir, nil)
	if err != nil {
		return fmt.Sprintf("ACK [50@0] {listplaylists} %s\n", err.Error())
	}

	var info strings.Builder
	for _, pl := range playlists {
		fmt.Fprintf(&info, "playlist: %s\n", pl.Name)
		fmt.Fprintf(&info, "tracks: %d\n", len(pl.Tracks))
	}
	info.WriteString("OK\n")
	return info.String()
}

package control

import (
	"fmt"
	"strings"
)

// handleCommand dispatches a single protocol command to its handler.
func (s *Server) handleCommand(line string) string {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return "OK\n"
	}

	command := strings.ToLower(parts[0])
	args := parts[1:]

	switch command {
	case "ping":
		return "OK\n"

	case "status":
		return s.cmdStatus(args)

	case "currentsong":
		return s.cmdCurrentSong(args)

	case "queueinfo":
		return s.cmdQueueInfo(args)

	case "play":
		return s.cmdPlay(args)

	case "pause":
		return s.cmdPause(args)

	case "stop":
		return s.cmdStop(args)

	case "next":
		return s.cmdNext(args)

	case "previous":
		return s.cmdPrevious(args)

	case "seek":
		return s.cmdSeek(args)

	case "shuffle":
		return s.cmdShuffle(args)

	case "repeat":
		return s.cmdRepeat(args)

	case "volume":
		return s.cmdVolume(args)

	case "mute":
		return s.cmdMute(args)

	case "add":
		return s.cmdAdd(args)

	case "addnext":
		return s.cmdAddNext(args)

	case "delete":
		return s.cmdDelete(args)

	case "move":
		return s.cmdMove(args)

	case "clear":
		return s.cmdClear(args)

	case "load":
		return s.cmdLoad(args)

	case "save":
		return s.cmdSave(args)

	case "rm":
		return s.cmdRm(args)

	case "rename":
		return s.cmdRename(args)

	case "listplaylists":
		return s.cmdListPlaylists(args)

	case "library":
		return s.cmdLibrary(args)

	case "rescan":
		return s.cmdRescan(args)

	case "albumart":
		return s.cmdAlbumArt(args)

	default:
		return fmt.Sprintf("ACK [5@0] {%s} unknown command\n", command)
	}
}

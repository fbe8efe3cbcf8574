package control

import (
	"fmt"
	"strconv"
	"strings"
)

// cmdAdd handles 'add URI': append a track to the queue.
func (s *Server) cmdAdd(args []string) string {
	if len(args) == 0 {
		return "ACK [2@0] {add} missing URI\n"
	}

	track, err := s.resolveTrack(joinURI(args))
	if err != nil {
		return fmt.Sprintf("ACK [50@0] {add} %s\n", err.Error())
	}
	s.player.Enqueue(track)
	return "OK\n"
}

// cmdAddNext handles 'addnext URI': insert right after the current entry.
func (s *Server) cmdAddNext(args []string) string {
	if len(args) == 0 {
		return "ACK [2@0] {addnext} missing URI\n"
	}

	track, err := s.resolveTrack(joinURI(args))
	if err != nil {
		return fmt.Sprintf("ACK [50@0] {addnext} %s\n", err.Error())
	}
	s.player.EnqueueNext(track)
	return "OK\n"
}

// cmdDelete handles 'delete POS'.
func (s *Server) cmdDelete(args []string) string {
	if len(args) == 0 {
		return "ACK [2@0] {delete} missing position\n"
	}

	pos64, err := strconv.ParseInt(unquoteArg(args[0]), 10, 32)
	if err != nil {
		return "ACK [2@0] {delete} invalid position\n"
	}
	if err := s.player.Remove(int(pos64)); err != nil {
		return fmt.Sprintf("ACK [50@0] {delete} %s\n", err.Error())
	}
	return "OK\n"
}

// cmdMove handles 'move FROM TO'.
func (s *Server) cmdMove(args []string) string {
	if len(args) < 2 {
		return "ACK [2@0] {move} missing arguments\n"
	}

	from64, err1 := strconv.ParseInt(unquoteArg(args[0]), 10, 32)
	to64, err2 := strconv.ParseInt(unquoteArg(args[1]), 10, 32)
	if err1 != nil || err2 != nil {
		return "ACK [2@0] {move} invalid position\n"
	}
	if err := s.player.Move(int(from64), int(to64)); err != nil {
		return fmt.Sprintf("ACK [50@0] {move} %s\n", err.Error())
	}
	return "OK\n"
}

func (s *Server) cmdClear(_ []string) string {
	s.player.Clear()
	return "OK\n"
}

// cmdQueueInfo lists the queue in stored order with the cursor position.
func (s *Server) cmdQueueInfo(_ []string) string {
	snap := s.player.Snapshot()

	var info strings.Builder
	for i, track := range snap.Tracks {
		info.WriteString(formatTrackInfo(&track, i))
	}
	info.WriteString("OK\n")
	return info.String()
}

package control

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/halvard/chime/internal/player"
	"github.com/halvard/chime/internal/queue"
)

// unquoteArg strips optional protocol quoting from an argument.
func unquoteArg(arg string) string {
	if unquoted, err := strconv.Unquote(arg); err == nil {
		return unquoted
	}
	return arg
}

// cmdPlay handles 'play [POS]': resume or start, optionally at a queue
// position.
func (s *Server) cmdPlay(args []string) string {
	var err error
	if len(args) > 0 {
		pos64, parseErr := strconv.ParseInt(unquoteArg(args[0]), 10, 32)
		if parseErr != nil {
			return "ACK [2@0] {play} invalid position\n"
		}
		err = s.player.PlayAt(int(pos64))
	} else {
		err = s.player.Play()
	}

	if err != nil {
		return fmt.Sprintf("ACK [50@0] {play} %s\n", err.Error())
	}
	return "OK\n"
}

// cmdPause handles 'pause [0|1]': 1 = pause, 0 = resume, no arg = toggle.
func (s *Server) cmdPause(args []string) string {
	var err error
	if len(args) > 0 {
		switch unquoteArg(args[0]) {
		case "1":
			err = s.player.Pause()
		case "0":
			err = s.player.Play()
		default:
			return "ACK [2@0] {pause} invalid argument\n"
		}
	} else {
		err = s.player.Toggle()
	}

	if err != nil {
		return fmt.Sprintf("ACK [50@0] {pause} %s\n", err.Error())
	}
	return "OK\n"
}

func (s *Server) cmdStop(_ []string) string {
	s.player.Stop()
	return "OK\n"
}

func (s *Server) cmdNext(_ []string) string {
	if err := s.player.Next(); err != nil {
		return fmt.Sprintf("ACK [50@0] {next} %s\n", err.Error())
	}
	return "OK\n"
}

func (s *Server) cmdPrevious(_ []string) string {
	if err := s.player.Previous(); err != nil {
		return fmt.Sprintf("ACK [50@0] {previous} %s\n", err.Error())
	}
	return "OK\n"
}

// cmdSeek handles 'seek SECONDS' within the current track. SECONDS may
// be fractional.
func (s *Server) cmdSeek(args []string) string {
	if len(args) < 1 {
		return "ACK [2@0] {seek} missing argument\n"
	}

	seconds, err := strconv.ParseFloat(unquoteArg(args[0]), 64)
	if err != nil || seconds < 0 {
		return "ACK [2@0] {seek} invalid time\n"
	}

	offset := time.Duration(seconds * float64(time.Second))
	if err := s.player.Seek(offset); err != nil {
		return fmt.Sprintf("ACK [50@0] {seek} %s\n", err.Error())
	}
	return "OK\n"
}

// cmdShuffle handles 'shuffle 0|1'.
func (s *Server) cmdShuffle(args []string) string {
	if len(args) == 0 {
		return "ACK [2@0] {shuffle} missing argument\n"
	}

	switch unquoteArg(args[0]) {
	case "0":
		s.player.SetShuffle(false)
	case "1":
		s.player.SetShuffle(true)
	default:
		return "ACK [2@0] {shuffle} invalid argument\n"
	}
	return "OK\n"
}

// cmdRepeat handles 'repeat off|one|all'.
func (s *Server) cmdRepeat(args []string) string {
	if len(args) == 0 {
		return "ACK [2@0] {repeat} missing argument\n"
	}

	mode, ok := queue.ParseRepeatMode(unquoteArg(args[0]))
	if !ok {
		return "ACK [2@0] {repeat} invalid argument\n"
	}
	s.player.SetRepeat(mode)
	return "OK\n"
}

// cmdVolume handles 'volume [+|-]N' on a 0-100 scale. A bare 'volume'
// reports the current level; a signed argument adjusts it.
func (s *Server) cmdVolume(args []string) string {
	if len(args) == 0 {
		snap := s.player.Snapshot()
		return fmt.Sprintf("volume: %d\nOK\n", volumePercent(snap))
	}

	arg := unquoteArg(args[0])
	relative := strings.HasPrefix(arg, "+") || strings.HasPrefix(arg, "-")

	n, err := strconv.ParseInt(arg, 10, 32)
	if err != nil {
		return "ACK [2@0] {volume} invalid argument\n"
	}

	if relative {
		s.player.AdjustVolume(float64(n) / 100)
	} else {
		if n < 0 || n > 100 {
			return "ACK [2@0] {volume} volume out of range\n"
		}
		s.player.SetVolume(float64(n) / 100)
	}
	return "OK\n"
}

func (s *Server) cmdMute(_ []string) string {
	s.player.ToggleMute()
	return "OK\n"
}

func volumePercent(snap player.Snapshot) int {
	if snap.Muted {
		return 0
	}
	return int(snap.Volume*100 + 0.5)
}

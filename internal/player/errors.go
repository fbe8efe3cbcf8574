package player

import "errors"

var (
	ErrEmptyQueue       = errors.New("queue is empty")
	ErrNoActiveTrack    = errors.New("no active track")
	ErrTrackUnavailable = errors.New("track unavailable")
	ErrIndexOutOfRange  = errors.New("index out of range")
	ErrAllTracksFailed  = errors.New("every queue entry failed to play")
)

package player

import "time"

// Engine is the audio output collaborator. Implementations run playback on
// their own goroutines; the player only issues control requests and receives
// the done callback asynchronously.
type Engine interface {
	// Play starts playback of the file at path. done is invoked exactly once,
	// from the engine's own context, when the track finishes naturally or
	// fails mid-stream (err != nil). A later Play or Stop supersedes the
	// request; the player discards callbacks from superseded requests.
	Play(path string, done func(err error)) error

	Pause()
	Resume()

	// Stop tears down the current stream. Safe to call when idle.
	Stop()

	// Seek moves within the current track.
	Seek(offset time.Duration) error

	// Position and Duration report on the current track; the engine owns
	// authoritative elapsed time.
	Position() time.Duration
	Duration() time.Duration

	// SetVolume sets output gain, level in [0,1]; 0 is silence.
	SetVolume(level float64)
}

// Package audio renders tracks through the system speaker using beep.
// It implements the playback engine contract consumed by the player:
// one active track at a time, completion reported through an
// asynchronous callback.
package audio

import (
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/speaker"
)

const mixRate = beep.SampleRate(44100)

// Engine drives the speaker. All methods are safe for concurrent use.
type Engine struct {
	mu sync.Mutex

	initialized bool
	streamer    beep.StreamSeekCloser
	format      beep.Format
	ctrl        *beep.Ctrl
	volume      *effects.Volume
	level       float64
}

func NewEngine(level float64) *Engine {
	return &Engine{level: level}
}

func (e *Engine) initSpeakerLocked() error {
	if e.initialized {
		return nil
	}
	if err := speaker.Init(mixRate, mixRate.N(time.Second/10)); err != nil {
		return err
	}
	e.initialized = true
	return nil
}

// Play decodes path and starts it on the speaker, replacing whatever is
// currently playing. done is invoked from its own goroutine once the
// stream drains or fails; it is never invoked for a track that a later
// Play or Stop superseded, because speaker.Clear drops the sequence
// before its callback fires.
func (e *Engine) Play(path string, done func(err error)) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	streamer, format, err := decode(path)
	if err != nil {
		return err
	}

	if err := e.initSpeakerLocked(); err != nil {
		streamer.Close()
		return err
	}

	// Drop the old sequence before closing its streamer so the mixer
	// never reads from a closed source.
	speaker.Clear()
	e.closeStreamerLocked()
	e.streamer = streamer
	e.format = format

	var rendered beep.Streamer = streamer
	if format.SampleRate != mixRate {
		rendered = beep.Resample(4, format.SampleRate, mixRate, streamer)
	}

	e.ctrl = &beep.Ctrl{Streamer: rendered}
	e.volume = &effects.Volume{
		Streamer: e.ctrl,
		Base:     2,
		Volume:   volumeGain(e.level),
		Silent:   e.level == 0,
	}

	speaker.Play(beep.Seq(e.volume, beep.Callback(func() {
		// The player reacts by starting the next track, which calls
		// back into this engine, so completion must leave the speaker
		// goroutine first.
		go done(streamer.Err())
	})))
	return nil
}

func (e *Engine) Pause() { e.setPaused(true) }

func (e *Engine) Resume() { e.setPaused(false) }

func (e *Engine) setPaused(paused bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.ctrl == nil {
		return
	}
	speaker.Lock()
	e.ctrl.Paused = paused
	speaker.Unlock()
}

// Stop silences the speaker and releases the current stream. The
// pending completion callback is dropped along with the sequence.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.initialized {
		return
	}
	speaker.Clear()
	e.closeStreamerLocked()
}

func (e *Engine) closeStreamerLocked() {
	if e.streamer != nil {
		e.streamer.Close()
		e.streamer = nil
	}
	e.ctrl = nil
	e.volume = nil
}

func (e *Engine) Seek(offset time.Duration) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.streamer == nil {
		return nil
	}
	speaker.Lock()
	defer speaker.Unlock()
	n := e.format.SampleRate.N(offset)
	if n < 0 {
		n = 0
	}
	if max := e.streamer.Len(); n > max {
		n = max
	}
	return e.streamer.Seek(n)
}

func (e *Engine) Position() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.streamer == nil {
		return 0
	}
	speaker.Lock()
	pos := e.streamer.Position()
	speaker.Unlock()
	return e.format.SampleRate.D(pos)
}

func (e *Engine) Duration() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.streamer == nil {
		return 0
	}
	return e.format.SampleRate.D(e.streamer.Len())
}

// SetVolume takes a linear level in [0, 1] and applies it to the live
// stream; the level also carries over to subsequent tracks.
func (e *Engine) SetVolume(level float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.level = level
	if e.volume == nil {
		return
	}
	speaker.Lock()
	e.volume.Volume = volumeGain(level)
	e.volume.Silent = level == 0
	speaker.Unlock()
}

// volumeGain maps a linear [0, 1] level onto the exponential scale the
// volume effect expects: 0.5 is unity gain, 1.0 is one octave louder.
func volumeGain(level float64) float64 {
	return level*2 - 1
}

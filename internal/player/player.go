package player

import (
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"github.com/halvard/chime/internal/library"
	"github.com/halvard/chime/internal/queue"
)

// State represents the current playback state
type State int

const (
	StateStopped State = iota
	StatePlaying
	StatePaused
)

// String returns the state name as used by the control protocol.
func (s State) String() string {
	switch s {
	case StatePlaying:
		return "play"
	case StatePaused:
		return "pause"
	default:
		return "stop"
	}
}

// previousRestartWindow is how far into a track Previous restarts it
// instead of moving to the prior entry.
const previousRestartWindow = 3 * time.Second

// Player is the playback queue and transport core. It owns the queue and
// the audio engine handle; the control surface drives it through the
// command methods and observes it through Snapshot.
//
// All state lives behind one mutex so that engine callbacks racing with
// user commands cannot corrupt the cursor or double-advance. Every engine
// play request is tagged with a generation; callbacks carrying a stale
// generation are discarded.
type Player struct {
	mu     sync.Mutex
	q      *queue.Queue
	engine Engine

	state      State
	generation uint64
	failStreak int // consecutive entries that failed to start

	volume           float64
	muted            bool
	volumeBeforeMute float64

	// Subsystem change notification callback (e.g., for control idle connections)
	notify func(subsystem string)
}

// New creates a player around the given audio engine with an empty queue.
func New(engine Engine, initialVolume float64) *Player {
	p := &Player{
		q:      queue.New(),
		engine: engine,
		state:  StateStopped,
		volume: clampVolume(initialVolume),
	}
	engine.SetVolume(p.volume)
	return p
}

// SetNotify sets the callback invoked whenever a subsystem changes.
// Subsystem names follow the control protocol: player, playlist, options, mixer.
func (p *Player) SetNotify(fn func(subsystem string)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.notify = fn
}

func (p *Player) notifyChanged(subsystems ...string) {
	p.mu.Lock()
	fn := p.notify
	p.mu.Unlock()
	if fn == nil {
		return
	}
	for _, s := range subsystems {
		fn(s)
	}
}

// LoadQueue replaces the queue wholesale and starts playback at startIndex.
func (p *Player) LoadQueue(tracks []library.Track, startIndex int) error {
	p.mu.Lock()
	if len(tracks) == 0 {
		p.mu.Unlock()
		return ErrEmptyQueue
	}
	if !p.q.Replace(tracks, startIndex) {
		p.mu.Unlock()
		return ErrIndexOutOfRange
	}
	err := p.startCurrentLocked()
	p.mu.Unlock()

	p.notifyChanged("playlist", "player")
	return err
}

// Play resumes from pause, or starts the queue from the front when stopped.
// No-op when already playing.
func (p *Player) Play() error {
	p.mu.Lock()
	switch p.state {
	case StatePlaying:
		p.mu.Unlock()
		return nil
	case StatePaused:
		p.engine.Resume()
		p.state = StatePlaying
		p.mu.Unlock()
	default: // StateStopped
		if p.q.IsEmpty() {
			p.mu.Unlock()
			return ErrEmptyQueue
		}
		// Stop discarded the cursor; a bare Play starts from the front
		// of the effective order.
		p.q.JumpTo(0)
		err := p.startCurrentLocked()
		p.mu.Unlock()
		if err != nil {
			return err
		}
	}

	p.notifyChanged("player")
	return nil
}

// PlayAt starts playback at a stored-order queue position.
func (p *Player) PlayAt(index int) error {
	p.mu.Lock()
	if p.q.IsEmpty() {
		p.mu.Unlock()
		return ErrEmptyQueue
	}
	if !p.q.JumpToStored(index) {
		p.mu.Unlock()
		return ErrIndexOutOfRange
	}
	err := p.startCurrentLocked()
	p.mu.Unlock()

	p.notifyChanged("player")
	return err
}

// Pause pauses playback. No-op unless playing.
func (p *Player) Pause() error {
	p.mu.Lock()
	if p.state != StatePlaying {
		p.mu.Unlock()
		return nil
	}
	p.engine.Pause()
	p.state = StatePaused
	p.mu.Unlock()

	p.notifyChanged("player")
	return nil
}

// Toggle flips between playing and paused; from stopped it behaves as Play.
func (p *Player) Toggle() error {
	p.mu.Lock()
	playing := p.state == StatePlaying
	p.mu.Unlock()

	if playing {
		return p.Pause()
	}
	return p.Play()
}

// Stop halts playback and discards the cursor. The queue itself survives;
// a later Play restarts from the front. Always succeeds.
func (p *Player) Stop() {
	p.mu.Lock()
	p.stopLocked()
	p.mu.Unlock()

	p.notifyChanged("player")
}

func (p *Player) stopLocked() {
	p.generation++ // supersede any in-flight play request
	p.engine.Stop()
	p.state = StateStopped
	p.q.ClearCursor()
	p.failStreak = 0
}

// Next skips to the next entry in the effective order. A manual skip always
// advances, even under RepeatOne; at the end of the order it wraps with
// RepeatAll and stops otherwise.
func (p *Player) Next() error {
	p.mu.Lock()
	if p.state == StateStopped {
		p.mu.Unlock()
		return ErrNoActiveTrack
	}
	var err error
	if p.q.Advance(true) {
		err = p.startCurrentLocked()
	} else {
		p.stopLocked()
	}
	p.mu.Unlock()

	p.notifyChanged("player")
	return err
}

// Previous restarts the current track when more than a few seconds in,
// otherwise moves to the prior entry. At the front of the order it wraps
// with RepeatAll and is a no-op otherwise; it never stops playback.
func (p *Player) Previous() error {
	p.mu.Lock()
	if p.state == StateStopped {
		p.mu.Unlock()
		return ErrNoActiveTrack
	}

	if p.engine.Position() > previousRestartWindow {
		err := p.engine.Seek(0)
		p.mu.Unlock()
		p.notifyChanged("player")
		return err
	}

	var err error
	if p.q.Retreat() {
		err = p.startCurrentLocked()
	}
	p.mu.Unlock()

	p.notifyChanged("player")
	return err
}

// Seek moves within the current track.
func (p *Player) Seek(offset time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state == StateStopped {
		return ErrNoActiveTrack
	}
	return p.engine.Seek(offset)
}

// SetShuffle toggles shuffle mode without interrupting the current track.
func (p *Player) SetShuffle(enabled bool) {
	p.mu.Lock()
	p.q.SetShuffle(enabled)
	p.mu.Unlock()

	p.notifyChanged("options", "playlist")
}

// SetRepeat sets the repeat mode. Pure state change, no playback side effect.
func (p *Player) SetRepeat(mode queue.RepeatMode) {
	p.mu.Lock()
	p.q.SetRepeat(mode)
	p.mu.Unlock()

	p.notifyChanged("options")
}

// Enqueue appends a track to the queue.
func (p *Player) Enqueue(track library.Track) {
	p.mu.Lock()
	p.q.Append(track)
	p.mu.Unlock()

	p.notifyChanged("playlist")
}

// EnqueueNext inserts a track right after the current entry in play order.
func (p *Player) EnqueueNext(track library.Track) {
	p.mu.Lock()
	p.q.InsertNext(track)
	p.mu.Unlock()

	p.notifyChanged("playlist")
}

// Remove deletes the entry at the given stored-order index. Removing the
// entry being played starts the one that slid into its place, or stops when
// nothing is left.
func (p *Player) Remove(index int) error {
	p.mu.Lock()
	res := p.q.RemoveAt(index)
	if !res.Removed {
		p.mu.Unlock()
		return ErrIndexOutOfRange
	}

	var err error
	if res.WasCurrent && p.state != StateStopped {
		switch {
		case res.NowEmpty:
			p.stopLocked()
		case res.PastEnd:
			if p.q.Repeat() == queue.RepeatAll {
				p.q.JumpTo(0)
				err = p.startCurrentLocked()
			} else {
				p.stopLocked()
			}
		default:
			err = p.startCurrentLocked()
		}
	}
	p.mu.Unlock()

	p.notifyChanged("playlist", "player")
	return err
}

// Move relocates a queue entry from one stored-order index to another.
func (p *Player) Move(from, to int) error {
	p.mu.Lock()
	ok := p.q.Move(from, to)
	p.mu.Unlock()

	if !ok {
		return ErrIndexOutOfRange
	}
	p.notifyChanged("playlist")
	return nil
}

// Clear stops playback and empties the queue.
func (p *Player) Clear() {
	p.mu.Lock()
	p.stopLocked()
	p.q.Clear()
	p.mu.Unlock()

	p.notifyChanged("playlist", "player")
}

// SetVolume sets the output level, clamped to [0,1]. Setting a volume
// unmutes.
func (p *Player) SetVolume(level float64) {
	p.mu.Lock()
	p.volume = clampVolume(level)
	p.muted = false
	p.engine.SetVolume(p.volume)
	p.mu.Unlock()

	p.notifyChanged("mixer")
}

// AdjustVolume changes the output level by delta, clamped to [0,1].
func (p *Player) AdjustVolume(delta float64) {
	p.mu.Lock()
	p.volume = clampVolume(p.volume + delta)
	if !p.muted {
		p.engine.SetVolume(p.volume)
	}
	p.mu.Unlock()

	p.notifyChanged("mixer")
}

// ToggleMute mutes or unmutes, restoring the pre-mute level on unmute.
func (p *Player) ToggleMute() {
	p.mu.Lock()
	if p.muted {
		p.muted = false
		p.volume = p.volumeBeforeMute
		p.engine.SetVolume(p.volume)
	} else {
		p.muted = true
		p.volumeBeforeMute = p.volume
		p.engine.SetVolume(0)
	}
	p.mu.Unlock()

	p.notifyChanged("mixer")
}

// startCurrentLocked issues a play request for the entry under the cursor,
// skipping ahead past entries that fail to start. Must be called with the
// lock held.
func (p *Player) startCurrentLocked() error {
	for {
		entry := p.q.Current()
		if entry == nil {
			p.stopLocked()
			return ErrNoActiveTrack
		}

		path := entry.Track.Path
		err := p.playPathLocked(path)
		if err == nil {
			p.state = StatePlaying
			p.failStreak = 0
			return nil
		}

		log.Printf("Skipping unplayable track %s: %v", path, err)
		p.failStreak++
		if p.failStreak >= p.q.Len() {
			// Every remaining entry failed; stop rather than loop forever.
			p.stopLocked()
			return ErrAllTracksFailed
		}
		if !p.q.Advance(true) {
			p.stopLocked()
			return fmt.Errorf("playback failed: %w", err)
		}
	}
}

// playPathLocked issues a single tagged play request to the engine.
func (p *Player) playPathLocked(path string) error {
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("%w: %s", ErrTrackUnavailable, path)
	}

	p.generation++
	gen := p.generation
	return p.engine.Play(path, func(err error) {
		p.onTrackDone(gen, err)
	})
}

// onTrackDone is the engine's completion callback. Stale callbacks from
// superseded play requests are discarded by generation check. This is the
// only path on which RepeatOne causes a replay.
func (p *Player) onTrackDone(gen uint64, doneErr error) {
	p.mu.Lock()
	if gen != p.generation {
		// A newer request superseded this track; ignore.
		p.mu.Unlock()
		return
	}
	if p.state == StateStopped {
		p.mu.Unlock()
		return
	}

	if doneErr != nil {
		log.Printf("Playback failed mid-track: %v", doneErr)
		p.failStreak++
		if p.failStreak >= p.q.Len() {
			p.stopLocked()
			p.mu.Unlock()
			p.notifyChanged("player")
			return
		}
	}

	// Natural completion honors RepeatOne; failure always moves on.
	manual := doneErr != nil
	if p.q.Advance(manual) {
		if err := p.startCurrentLocked(); err != nil {
			log.Printf("Failed to start next track: %v", err)
		}
	} else {
		p.stopLocked()
	}
	p.mu.Unlock()

	p.notifyChanged("player")
}

func clampVolume(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

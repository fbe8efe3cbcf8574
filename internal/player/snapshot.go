package player

import (
	"time"

	"github.com/halvard/chime/internal/library"
	"github.com/halvard/chime/internal/queue"
)

// Snapshot is a read-only copy of the player's full state, taken under the
// lock, for the control surface to render. Elapsed and Duration come from
// the audio engine, which owns authoritative timing for the current track.
type Snapshot struct {
	Tracks       []library.Track // stored order
	CurrentIndex int             // stored-order position of the current entry, -1 if none
	QueueVersion uint64

	State   State
	Repeat  queue.RepeatMode
	Shuffle bool

	Volume float64
	Muted  bool

	Elapsed  time.Duration
	Duration time.Duration
}

// Snapshot returns the current state. The returned value shares nothing
// with the player and stays consistent however the player moves on.
func (p *Player) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()

	entries := p.q.Entries()
	tracks := make([]library.Track, len(entries))
	for i, e := range entries {
		tracks[i] = e.Track
	}

	snap := Snapshot{
		Tracks:       tracks,
		CurrentIndex: p.q.StoredIndex(),
		QueueVersion: p.q.Version(),
		State:        p.state,
		Repeat:       p.q.Repeat(),
		Shuffle:      p.q.Shuffled(),
		Volume:       p.volume,
		Muted:        p.muted,
	}

	if p.state != StateStopped {
		snap.Elapsed = p.engine.Position()
		snap.Duration = p.engine.Duration()
	}
	return snap
}

// CurrentTrack returns the track under the cursor, or nil when stopped.
func (p *Player) CurrentTrack() *library.Track {
	p.mu.Lock()
	defer p.mu.Unlock()

	entry := p.q.Current()
	if entry == nil {
		return nil
	}
	t := entry.Track
	return &t
}

// StateNow returns just the playback state.
func (p *Player) StateNow() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

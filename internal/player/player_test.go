package player

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/halvard/chime/internal/library"
	"github.com/halvard/chime/internal/queue"
)

// fakeEngine records control requests and lets tests fire completion
// callbacks by hand, standing in for the asynchronous speaker.
type fakeEngine struct {
	mu       sync.Mutex
	played   []string
	lastDone func(err error)
	failFor  map[string]error // Play returns this error for matching paths

	paused   bool
	stopped  bool
	position time.Duration
	volume   float64
	seeks    []time.Duration
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{failFor: make(map[string]error)}
}

func (e *fakeEngine) Play(path string, done func(err error)) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err, ok := e.failFor[path]; ok {
		return err
	}
	e.played = append(e.played, path)
	e.lastDone = done
	e.stopped = false
	e.paused = false
	return nil
}

func (e *fakeEngine) Pause()  { e.mu.Lock(); e.paused = true; e.mu.Unlock() }
func (e *fakeEngine) Resume() { e.mu.Lock(); e.paused = false; e.mu.Unlock() }
func (e *fakeEngine) Stop()   { e.mu.Lock(); e.stopped = true; e.mu.Unlock() }

func (e *fakeEngine) Seek(offset time.Duration) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.seeks = append(e.seeks, offset)
	e.position = offset
	return nil
}

func (e *fakeEngine) Position() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.position
}

func (e *fakeEngine) Duration() time.Duration { return 3 * time.Minute }

func (e *fakeEngine) SetVolume(level float64) {
	e.mu.Lock()
	e.volume = level
	e.mu.Unlock()
}

// completeTrack fires the most recent done callback, as the speaker would
// at the end of a track.
func (e *fakeEngine) completeTrack(t *testing.T, err error) {
	t.Helper()
	e.mu.Lock()
	done := e.lastDone
	e.mu.Unlock()
	if done == nil {
		t.Fatal("no play request to complete")
	}
	done(err)
}

func (e *fakeEngine) lastPlayed(t *testing.T) string {
	t.Helper()
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.played) == 0 {
		t.Fatal("nothing played")
	}
	return e.played[len(e.played)-1]
}

func (e *fakeEngine) playCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.played)
}

// makeTracks creates n real (empty) files so availability checks pass.
func makeTracks(t *testing.T, n int) []library.Track {
	t.Helper()
	dir := t.TempDir()
	tracks := make([]library.Track, n)
	for i := range tracks {
		path := filepath.Join(dir, fmt.Sprintf("track-%d.mp3", i))
		if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
		tracks[i] = library.Track{Path: path, Title: fmt.Sprintf("Track %d", i)}
	}
	return tracks
}

func newTestPlayer(t *testing.T, n int) (*Player, *fakeEngine, []library.Track) {
	t.Helper()
	e := newFakeEngine()
	p := New(e, 0.6)
	tracks := makeTracks(t, n)
	return p, e, tracks
}

func TestLoadQueue_Empty(t *testing.T) {
	p, _, _ := newTestPlayer(t, 0)

	if err := p.LoadQueue(nil, 0); !errors.Is(err, ErrEmptyQueue) {
		t.Errorf("expected ErrEmptyQueue, got %v", err)
	}
	if p.StateNow() != StateStopped {
		t.Error("expected player to stay stopped")
	}
}

func TestLoadQueue_StartsPlayback(t *testing.T) {
	p, e, tracks := newTestPlayer(t, 3)

	if err := p.LoadQueue(tracks, 1); err != nil {
		t.Fatal(err)
	}
	if p.StateNow() != StatePlaying {
		t.Error("expected playing state")
	}
	if got := e.lastPlayed(t); got != tracks[1].Path {
		t.Errorf("expected %s playing, got %s", tracks[1].Path, got)
	}
	if got := p.Snapshot().CurrentIndex; got != 1 {
		t.Errorf("expected current index 1, got %d", got)
	}
}

func TestStopThenPlay_RestartsFromFront(t *testing.T) {
	p, e, tracks := newTestPlayer(t, 3)
	p.LoadQueue(tracks, 2)

	p.Stop()
	if p.StateNow() != StateStopped {
		t.Fatal("expected stopped")
	}
	if got := p.Snapshot().CurrentIndex; got != -1 {
		t.Errorf("stop should discard the cursor, got %d", got)
	}

	// A bare Play after Stop starts from the front of the effective order.
	if err := p.Play(); err != nil {
		t.Fatal(err)
	}
	if got := e.lastPlayed(t); got != tracks[0].Path {
		t.Errorf("expected %s, got %s", tracks[0].Path, got)
	}
}

func TestPlayPause_NoOpInTargetState(t *testing.T) {
	p, e, tracks := newTestPlayer(t, 2)
	p.LoadQueue(tracks, 0)
	before := e.playCount()

	// Play while playing is a no-op, not an error.
	if err := p.Play(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if e.playCount() != before {
		t.Error("Play while playing should not reissue a play request")
	}

	if err := p.Pause(); err != nil {
		t.Fatal(err)
	}
	if p.StateNow() != StatePaused {
		t.Error("expected paused")
	}
	// Pause while paused is a no-op.
	if err := p.Pause(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	if err := p.Play(); err != nil {
		t.Fatal(err)
	}
	if p.StateNow() != StatePlaying {
		t.Error("expected playing after resume")
	}
	if e.playCount() != before {
		t.Error("resume should not reissue a play request")
	}
}

func TestNext_RepeatAllCyclicClosure(t *testing.T) {
	p, _, tracks := newTestPlayer(t, 3)
	p.LoadQueue(tracks, 0)
	p.SetRepeat(queue.RepeatAll)

	want := []int{1, 2, 0}
	for i, expected := range want {
		if err := p.Next(); err != nil {
			t.Fatalf("next %d: %v", i, err)
		}
		if got := p.Snapshot().CurrentIndex; got != expected {
			t.Errorf("next %d: expected index %d, got %d", i, expected, got)
		}
	}
}

func TestNext_LastEntryRepeatOffStops(t *testing.T) {
	p, _, tracks := newTestPlayer(t, 2)
	p.LoadQueue(tracks, 1)

	if err := p.Next(); err != nil {
		t.Fatal(err)
	}
	if p.StateNow() != StateStopped {
		t.Error("expected stopped after advancing past the end")
	}
}

func TestNext_ManualSkipIgnoresRepeatOne(t *testing.T) {
	p, e, tracks := newTestPlayer(t, 3)
	p.LoadQueue(tracks, 0)
	p.SetRepeat(queue.RepeatOne)

	if err := p.Next(); err != nil {
		t.Fatal(err)
	}
	if got := p.Snapshot().CurrentIndex; got != 1 {
		t.Errorf("manual next should advance under RepeatOne, got index %d", got)
	}
	if got := e.lastPlayed(t); got != tracks[1].Path {
		t.Errorf("expected %s, got %s", tracks[1].Path, got)
	}
}

func TestCompletion_RepeatOneReplaysSameTrack(t *testing.T) {
	p, e, tracks := newTestPlayer(t, 3)
	p.LoadQueue(tracks, 1)
	p.SetRepeat(queue.RepeatOne)

	e.completeTrack(t, nil)

	if got := p.Snapshot().CurrentIndex; got != 1 {
		t.Errorf("completion under RepeatOne should not advance, got index %d", got)
	}
	if got := e.lastPlayed(t); got != tracks[1].Path {
		t.Errorf("expected same track replayed, got %s", got)
	}
	if e.playCount() != 2 {
		t.Errorf("expected a fresh play request, got %d total", e.playCount())
	}
}

func TestCompletion_SingleTrackRepeatOffStops(t *testing.T) {
	p, e, tracks := newTestPlayer(t, 1)
	p.LoadQueue(tracks, 0)

	e.completeTrack(t, nil)

	if p.StateNow() != StateStopped {
		t.Error("expected stopped after the only track completed")
	}
	if !e.stopped {
		t.Error("expected a stop request to the engine")
	}
}

func TestCompletion_AdvancesInOrder(t *testing.T) {
	p, e, tracks := newTestPlayer(t, 3)
	p.LoadQueue(tracks, 0)

	e.completeTrack(t, nil)
	if got := e.lastPlayed(t); got != tracks[1].Path {
		t.Errorf("expected %s after completion, got %s", tracks[1].Path, got)
	}

	e.completeTrack(t, nil)
	if got := e.lastPlayed(t); got != tracks[2].Path {
		t.Errorf("expected %s after completion, got %s", tracks[2].Path, got)
	}

	e.completeTrack(t, nil)
	if p.StateNow() != StateStopped {
		t.Error("expected stopped at end of queue")
	}
}

func TestStaleCompletionDiscarded(t *testing.T) {
	p, e, tracks := newTestPlayer(t, 3)
	p.LoadQueue(tracks, 0)

	// Capture the callback for track 0, then skip manually.
	e.mu.Lock()
	stale := e.lastDone
	e.mu.Unlock()

	if err := p.Next(); err != nil {
		t.Fatal(err)
	}
	if got := p.Snapshot().CurrentIndex; got != 1 {
		t.Fatalf("expected index 1, got %d", got)
	}

	// The superseded track's completion must not double-advance.
	stale(nil)
	if got := p.Snapshot().CurrentIndex; got != 1 {
		t.Errorf("stale completion advanced the cursor to %d", got)
	}
}

func TestRemove_CurrentOnlyEntryStops(t *testing.T) {
	p, _, tracks := newTestPlayer(t, 1)
	p.LoadQueue(tracks, 0)

	if err := p.Remove(0); err != nil {
		t.Fatal(err)
	}
	snap := p.Snapshot()
	if snap.State != StateStopped {
		t.Error("expected stopped after removing the only entry")
	}
	if len(snap.Tracks) != 0 {
		t.Errorf("expected empty queue, got %d entries", len(snap.Tracks))
	}
}

func TestRemove_CurrentStartsNext(t *testing.T) {
	p, e, tracks := newTestPlayer(t, 3)
	p.LoadQueue(tracks, 0)

	if err := p.Remove(0); err != nil {
		t.Fatal(err)
	}
	if got := e.lastPlayed(t); got != tracks[1].Path {
		t.Errorf("expected %s after removal, got %s", tracks[1].Path, got)
	}
	if p.StateNow() != StatePlaying {
		t.Error("expected playback to continue")
	}
}

func TestRemove_LastCurrentRepeatOffStops(t *testing.T) {
	p, _, tracks := newTestPlayer(t, 2)
	p.LoadQueue(tracks, 1)

	if err := p.Remove(1); err != nil {
		t.Fatal(err)
	}
	if p.StateNow() != StateStopped {
		t.Error("expected stopped after removing the last, current entry")
	}
}

func TestRemove_LastCurrentRepeatAllWraps(t *testing.T) {
	p, e, tracks := newTestPlayer(t, 2)
	p.LoadQueue(tracks, 1)
	p.SetRepeat(queue.RepeatAll)

	if err := p.Remove(1); err != nil {
		t.Fatal(err)
	}
	if got := e.lastPlayed(t); got != tracks[0].Path {
		t.Errorf("expected wrap to %s, got %s", tracks[0].Path, got)
	}
}

func TestSeek_WhileStopped(t *testing.T) {
	p, _, tracks := newTestPlayer(t, 1)
	p.LoadQueue(tracks, 0)
	p.Stop()

	if err := p.Seek(10 * time.Second); !errors.Is(err, ErrNoActiveTrack) {
		t.Errorf("expected ErrNoActiveTrack, got %v", err)
	}
}

func TestPrevious_RestartsWhenDeepIntoTrack(t *testing.T) {
	p, e, tracks := newTestPlayer(t, 3)
	p.LoadQueue(tracks, 1)
	e.position = 30 * time.Second

	if err := p.Previous(); err != nil {
		t.Fatal(err)
	}
	// Deep into a track, Previous restarts it rather than going back.
	if got := p.Snapshot().CurrentIndex; got != 1 {
		t.Errorf("expected index unchanged at 1, got %d", got)
	}
	if len(e.seeks) != 1 || e.seeks[0] != 0 {
		t.Errorf("expected a seek to 0, got %v", e.seeks)
	}
}

func TestPrevious_MovesBackEarlyInTrack(t *testing.T) {
	p, e, tracks := newTestPlayer(t, 3)
	p.LoadQueue(tracks, 1)
	e.position = time.Second

	if err := p.Previous(); err != nil {
		t.Fatal(err)
	}
	if got := p.Snapshot().CurrentIndex; got != 0 {
		t.Errorf("expected index 0, got %d", got)
	}
	if got := e.lastPlayed(t); got != tracks[0].Path {
		t.Errorf("expected %s, got %s", tracks[0].Path, got)
	}
}

func TestPrevious_AtFrontNeverStops(t *testing.T) {
	p, _, tracks := newTestPlayer(t, 3)
	p.LoadQueue(tracks, 0)

	if err := p.Previous(); err != nil {
		t.Fatal(err)
	}
	snap := p.Snapshot()
	if snap.State != StatePlaying {
		t.Error("previous at the front must not stop playback")
	}
	if snap.CurrentIndex != 0 {
		t.Errorf("expected index 0, got %d", snap.CurrentIndex)
	}
}

func TestShuffleToggle_KeepsCurrentTrack(t *testing.T) {
	p, e, tracks := newTestPlayer(t, 8)
	p.LoadQueue(tracks, 4)
	before := e.playCount()
	currentPath := p.CurrentTrack().Path

	p.SetShuffle(true)
	if got := p.CurrentTrack().Path; got != currentPath {
		t.Errorf("enabling shuffle changed the current track to %s", got)
	}
	p.SetShuffle(false)
	if got := p.CurrentTrack().Path; got != currentPath {
		t.Errorf("disabling shuffle changed the current track to %s", got)
	}
	if got := p.Snapshot().CurrentIndex; got != 4 {
		t.Errorf("expected stored index restored to 4, got %d", got)
	}
	if e.playCount() != before {
		t.Error("shuffle toggling must not interrupt the current track")
	}
}

func TestUnavailableTrackSkipped(t *testing.T) {
	p, e, tracks := newTestPlayer(t, 3)
	tracks[0].Path = filepath.Join(t.TempDir(), "gone.mp3") // never written

	if err := p.LoadQueue(tracks, 0); err != nil {
		t.Fatal(err)
	}
	// The missing entry is skipped and playback lands on the next one.
	if got := e.lastPlayed(t); got != tracks[1].Path {
		t.Errorf("expected %s, got %s", tracks[1].Path, got)
	}
	if got := p.Snapshot().CurrentIndex; got != 1 {
		t.Errorf("expected index 1, got %d", got)
	}
}

func TestEngineFailureAutoAdvances(t *testing.T) {
	p, e, tracks := newTestPlayer(t, 3)
	e.failFor[tracks[1].Path] = errors.New("unsupported codec")

	p.LoadQueue(tracks, 0)
	e.completeTrack(t, nil) // track 0 ends; track 1 fails; track 2 starts

	if got := e.lastPlayed(t); got != tracks[2].Path {
		t.Errorf("expected auto-advance to %s, got %s", tracks[2].Path, got)
	}
	if p.StateNow() != StatePlaying {
		t.Error("expected playback to continue past the failing entry")
	}
}

func TestAllTracksFailingStops(t *testing.T) {
	p, e, tracks := newTestPlayer(t, 3)
	for _, tr := range tracks {
		e.failFor[tr.Path] = errors.New("broken")
	}

	err := p.LoadQueue(tracks, 0)
	if !errors.Is(err, ErrAllTracksFailed) {
		t.Errorf("expected ErrAllTracksFailed, got %v", err)
	}
	if p.StateNow() != StateStopped {
		t.Error("expected stopped instead of looping over failing entries")
	}
}

func TestMidStreamFailureAdvances(t *testing.T) {
	p, e, tracks := newTestPlayer(t, 2)
	p.LoadQueue(tracks, 0)
	p.SetRepeat(queue.RepeatOne)

	// A failure must move on even under RepeatOne, or a corrupt file
	// would replay forever.
	e.completeTrack(t, errors.New("decode error"))
	if got := e.lastPlayed(t); got != tracks[1].Path {
		t.Errorf("expected advance to %s, got %s", tracks[1].Path, got)
	}
}

func TestVolumeAndMute(t *testing.T) {
	p, e, _ := newTestPlayer(t, 0)

	p.SetVolume(0.8)
	if e.volume != 0.8 {
		t.Errorf("expected engine volume 0.8, got %v", e.volume)
	}

	p.SetVolume(1.7)
	if e.volume != 1.0 {
		t.Errorf("expected clamp to 1.0, got %v", e.volume)
	}

	p.SetVolume(0.5)
	p.ToggleMute()
	if e.volume != 0 {
		t.Errorf("expected engine volume 0 while muted, got %v", e.volume)
	}
	snap := p.Snapshot()
	if !snap.Muted {
		t.Error("expected muted snapshot")
	}

	p.ToggleMute()
	if e.volume != 0.5 {
		t.Errorf("expected pre-mute volume restored, got %v", e.volume)
	}

	p.AdjustVolume(-0.2)
	if e.volume < 0.29 || e.volume > 0.31 {
		t.Errorf("expected ~0.3, got %v", e.volume)
	}
}

func TestEnqueueNextPlaysAfterCurrent(t *testing.T) {
	p, e, tracks := newTestPlayer(t, 3)
	p.LoadQueue(tracks[:2], 0)

	p.EnqueueNext(tracks[2])
	e.completeTrack(t, nil)

	if got := e.lastPlayed(t); got != tracks[2].Path {
		t.Errorf("expected queued-next track %s, got %s", tracks[2].Path, got)
	}
}

func TestClearEmptiesAndStops(t *testing.T) {
	p, _, tracks := newTestPlayer(t, 2)
	p.LoadQueue(tracks, 0)

	p.Clear()
	snap := p.Snapshot()
	if snap.State != StateStopped || len(snap.Tracks) != 0 {
		t.Errorf("expected stopped empty player, got state=%v len=%d", snap.State, len(snap.Tracks))
	}
}

func TestNotifySubsystems(t *testing.T) {
	p, _, tracks := newTestPlayer(t, 2)

	var mu sync.Mutex
	seen := make(map[string]int)
	p.SetNotify(func(subsystem string) {
		mu.Lock()
		seen[subsystem]++
		mu.Unlock()
	})

	p.LoadQueue(tracks, 0)
	p.SetRepeat(queue.RepeatAll)
	p.SetVolume(0.4)

	mu.Lock()
	defer mu.Unlock()
	for _, want := range []string{"player", "playlist", "options", "mixer"} {
		if seen[want] == 0 {
			t.Errorf("expected a %q notification", want)
		}
	}
}

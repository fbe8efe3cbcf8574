package queue

import (
	"math/rand/v2"

	"github.com/halvard/chime/internal/library"
)

// RepeatMode controls what happens when the effective order runs out.
type RepeatMode int

const (
	RepeatOff RepeatMode = iota
	RepeatOne
	RepeatAll
)

// String returns the repeat mode name as used by the control protocol.
func (m RepeatMode) String() string {
	switch m {
	case RepeatOne:
		return "one"
	case RepeatAll:
		return "all"
	default:
		return "off"
	}
}

// ParseRepeatMode converts a control-protocol string to a RepeatMode.
func ParseRepeatMode(s string) (RepeatMode, bool) {
	switch s {
	case "off":
		return RepeatOff, true
	case "one":
		return RepeatOne, true
	case "all":
		return RepeatAll, true
	}
	return RepeatOff, false
}

// Entry is one slot in the queue. The same track may occupy several slots.
type Entry struct {
	Track library.Track
}

// Queue holds the stored play order, an optional derived shuffle
// permutation, and the cursor into the effective order.
//
// The stored order is never mutated by shuffle toggles; the effective order
// equals the stored order unless shuffle is on, in which case it is the
// stored order viewed through a generated permutation. The cursor always
// indexes the effective order (-1 = no current entry).
//
// Queue does no locking; the player serializes all access.
type Queue struct {
	entries []Entry
	order   []int // effective position -> stored index; nil when shuffle off
	current int   // index into effective order, -1 if none
	repeat  RepeatMode
	shuffle bool
	version uint64 // bumped on every membership/order change
}

// New creates an empty queue.
func New() *Queue {
	return &Queue{current: -1}
}

// Len returns the number of entries.
func (q *Queue) Len() int { return len(q.entries) }

// IsEmpty reports whether the queue has no entries.
func (q *Queue) IsEmpty() bool { return len(q.entries) == 0 }

// Version returns a counter that increases on every queue change,
// letting observers cheaply detect staleness.
func (q *Queue) Version() uint64 { return q.version }

// Repeat returns the current repeat mode.
func (q *Queue) Repeat() RepeatMode { return q.repeat }

// SetRepeat sets the repeat mode. Pure state change.
func (q *Queue) SetRepeat(mode RepeatMode) { q.repeat = mode }

// Shuffled reports whether shuffle mode is on.
func (q *Queue) Shuffled() bool { return q.shuffle }

// CurrentIndex returns the cursor position in the effective order (-1 if none).
func (q *Queue) CurrentIndex() int { return q.current }

// StoredIndex returns the stored-order position of the current entry
// (-1 if none). With shuffle off this equals CurrentIndex.
func (q *Queue) StoredIndex() int {
	if q.current < 0 || q.current >= len(q.entries) {
		return -1
	}
	return q.storedAt(q.current)
}

// Current returns the entry under the cursor, or nil if none.
func (q *Queue) Current() *Entry {
	if q.current < 0 || q.current >= len(q.entries) {
		return nil
	}
	return &q.entries[q.storedAt(q.current)]
}

// Entries returns a copy of the stored order.
func (q *Queue) Entries() []Entry {
	out := make([]Entry, len(q.entries))
	copy(out, q.entries)
	return out
}

// EffectiveEntries returns a copy of the queue in play order.
func (q *Queue) EffectiveEntries() []Entry {
	out := make([]Entry, len(q.entries))
	for i := range q.entries {
		out[i] = q.entries[q.storedAt(i)]
	}
	return out
}

// storedAt maps an effective position to a stored index.
func (q *Queue) storedAt(eff int) int {
	if q.order != nil {
		return q.order[eff]
	}
	return eff
}

// effectiveOf maps a stored index to its effective position.
func (q *Queue) effectiveOf(stored int) int {
	if q.order == nil {
		return stored
	}
	for i, s := range q.order {
		if s == stored {
			return i
		}
	}
	return -1
}

// Replace swaps the whole queue for tracks and places the cursor on
// startIndex (a stored-order position). With shuffle on, a fresh
// permutation is generated with the start entry pinned at the front.
func (q *Queue) Replace(tracks []library.Track, startIndex int) bool {
	if startIndex < 0 || startIndex >= len(tracks) {
		return false
	}

	q.entries = make([]Entry, len(tracks))
	for i, t := range tracks {
		q.entries[i] = Entry{Track: t}
	}
	q.version++

	if q.shuffle {
		q.order = pinnedPermutation(len(q.entries), startIndex)
		q.current = 0
	} else {
		q.order = nil
		q.current = startIndex
	}
	return true
}

// Append adds a track at the end of the stored order. With shuffle on the
// new entry also plays last.
func (q *Queue) Append(track library.Track) {
	q.entries = append(q.entries, Entry{Track: track})
	if q.order != nil {
		q.order = append(q.order, len(q.entries)-1)
	}
	q.version++
}

// InsertNext places a track immediately after the current entry in the
// effective order. With no current entry it is appended.
func (q *Queue) InsertNext(track library.Track) {
	if q.current < 0 {
		q.Append(track)
		return
	}

	if q.order == nil {
		// Stored order is the effective order: plain insert.
		pos := q.current + 1
		q.entries = append(q.entries, Entry{})
		copy(q.entries[pos+1:], q.entries[pos:])
		q.entries[pos] = Entry{Track: track}
		q.version++
		return
	}

	// Shuffle on: store at the end, splice into the permutation after the
	// cursor so it plays next.
	q.entries = append(q.entries, Entry{Track: track})
	stored := len(q.entries) - 1
	pos := q.current + 1
	q.order = append(q.order, 0)
	copy(q.order[pos+1:], q.order[pos:])
	q.order[pos] = stored
	q.version++
}

// RemoveResult describes how a removal affected the cursor.
type RemoveResult struct {
	Removed    bool
	WasCurrent bool // the removed entry was the current one
	NowEmpty   bool
	PastEnd    bool // cursor now points one past the last effective slot
}

// RemoveAt removes the entry at the given stored-order index.
// When an entry before the cursor goes away the cursor shifts back so it
// keeps pointing at the same entry; removing the current entry leaves the
// cursor on the following one (possibly past the end).
func (q *Queue) RemoveAt(stored int) RemoveResult {
	if stored < 0 || stored >= len(q.entries) {
		return RemoveResult{}
	}

	eff := q.effectiveOf(stored)
	res := RemoveResult{Removed: true, WasCurrent: eff == q.current}

	q.entries = append(q.entries[:stored], q.entries[stored+1:]...)
	if q.order != nil {
		q.order = append(q.order[:eff], q.order[eff+1:]...)
		for i, s := range q.order {
			if s > stored {
				q.order[i] = s - 1
			}
		}
	}
	q.version++

	if len(q.entries) == 0 {
		q.current = -1
		res.NowEmpty = true
		return res
	}

	if eff < q.current {
		q.current--
	} else if res.WasCurrent && q.current >= len(q.entries) {
		res.PastEnd = true
	}
	return res
}

// Move relocates the entry at stored index from to stored index to.
// The cursor keeps following the entry it pointed at.
func (q *Queue) Move(from, to int) bool {
	n := len(q.entries)
	if from < 0 || from >= n || to < 0 || to >= n {
		return false
	}
	if from == to {
		return true
	}

	curStored := q.StoredIndex()

	e := q.entries[from]
	q.entries = append(q.entries[:from], q.entries[from+1:]...)
	q.entries = append(q.entries[:to], append([]Entry{e}, q.entries[to:]...)...)
	q.version++

	if q.order != nil {
		// The effective sequence of entries is unchanged; only the stored
		// indices it refers to moved.
		for i, s := range q.order {
			q.order[i] = remapAfterMove(s, from, to)
		}
		return true
	}

	if curStored >= 0 {
		q.current = remapAfterMove(curStored, from, to)
	}
	return true
}

func remapAfterMove(idx, from, to int) int {
	switch {
	case idx == from:
		return to
	case from < idx && idx <= to:
		return idx - 1
	case to <= idx && idx < from:
		return idx + 1
	default:
		return idx
	}
}

// Clear removes every entry and resets the cursor.
func (q *Queue) Clear() {
	q.entries = nil
	q.order = nil
	q.current = -1
	q.version++
}

// Advance moves the cursor forward along the effective order.
//
// manual marks a user-issued skip: it always advances, while the automatic
// completion path replays the current entry under RepeatOne. At the end of
// the effective order RepeatAll wraps to the front; otherwise Advance
// returns false and the caller stops playback.
func (q *Queue) Advance(manual bool) bool {
	if q.current < 0 || len(q.entries) == 0 {
		return false
	}
	if !manual && q.repeat == RepeatOne {
		return true
	}
	if q.current+1 >= len(q.entries) {
		if q.repeat == RepeatAll {
			q.current = 0
			return true
		}
		return false
	}
	q.current++
	return true
}

// Retreat moves the cursor backward along the effective order.
// At the front it wraps under RepeatAll, otherwise it stays put and
// reports false. Retreat never ends playback.
func (q *Queue) Retreat() bool {
	if q.current < 0 || len(q.entries) == 0 {
		return false
	}
	if q.current == 0 {
		if q.repeat == RepeatAll {
			q.current = len(q.entries) - 1
			return true
		}
		return false
	}
	q.current--
	return true
}

// ClearCursor leaves the queue intact but drops the current position.
func (q *Queue) ClearCursor() {
	q.current = -1
}

// JumpTo places the cursor on the given effective position.
func (q *Queue) JumpTo(eff int) bool {
	if eff < 0 || eff >= len(q.entries) {
		return false
	}
	q.current = eff
	return true
}

// JumpToStored places the cursor on the entry at the given stored-order
// index, wherever it sits in the effective order.
func (q *Queue) JumpToStored(stored int) bool {
	if stored < 0 || stored >= len(q.entries) {
		return false
	}
	q.current = q.effectiveOf(stored)
	return true
}

// SetShuffle toggles shuffle mode.
//
// Enabling generates a fresh permutation with the current entry pinned at
// the front, so the playing track carries on uninterrupted. Disabling
// remaps the cursor to the current entry's stored-order position.
func (q *Queue) SetShuffle(enabled bool) {
	if enabled == q.shuffle {
		return
	}
	q.shuffle = enabled
	q.version++

	if enabled {
		if q.current >= 0 {
			q.order = pinnedPermutation(len(q.entries), q.storedAt(q.current))
			q.current = 0
		} else {
			q.order = pinnedPermutation(len(q.entries), -1)
		}
		return
	}

	if q.current >= 0 {
		q.current = q.storedAt(q.current)
	}
	q.order = nil
}

// Reshuffle generates a new permutation while keeping the current entry at
// the front. No-op when shuffle is off.
func (q *Queue) Reshuffle() {
	if !q.shuffle {
		return
	}
	pin := -1
	if q.current >= 0 {
		pin = q.storedAt(q.current)
		q.current = 0
	}
	q.order = pinnedPermutation(len(q.entries), pin)
	q.version++
}

// pinnedPermutation returns a random permutation of [0,n) with pin placed
// first (pin < 0 shuffles everything).
func pinnedPermutation(n, pin int) []int {
	perm := make([]int, 0, n)
	if pin >= 0 {
		perm = append(perm, pin)
	}
	for i := 0; i < n; i++ {
		if i != pin {
			perm = append(perm, i)
		}
	}
	rest := perm
	if pin >= 0 {
		rest = perm[1:]
	}
	rand.Shuffle(len(rest), func(i, j int) {
		rest[i], rest[j] = rest[j], rest[i]
	})
	return perm
}

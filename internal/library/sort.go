package library

import "sort"

// SortBy selects the track attribute used for ordering.
type SortBy int

const (
	SortByTitle SortBy = iota
	SortByArtist
	SortByAlbum
	SortByDuration
	SortByDateAdded
)

// SortOrder selects ascending or descending ordering.
type SortOrder int

const (
	Ascending SortOrder = iota
	Descending
)

// Sort orders tracks in place by the given attribute and direction.
func Sort(tracks []Track, by SortBy, order SortOrder) {
	sort.SliceStable(tracks, func(i, j int) bool {
		a, b := tracks[i], tracks[j]
		var less bool
		switch by {
		case SortByArtist:
			less = a.Artist < b.Artist
		case SortByAlbum:
			less = a.Album < b.Album
		case SortByDuration:
			less = a.Duration < b.Duration
		case SortByDateAdded:
			less = a.DateAdded.Before(b.DateAdded)
		default:
			less = a.Title < b.Title
		}
		if order == Descending {
			return !less
		}
		return less
	})
}

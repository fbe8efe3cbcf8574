// Package playlist persists named track lists as m3u files, one file
// per playlist inside a configured directory.
package playlist

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/halvard/chime/internal/library"
)

const fileExt = ".m3u"

// Resolver maps a stored path to a known track. When the path is not in
// the library the second return is false and a minimal track is
// synthesized so the entry survives a load/save round trip.
type Resolver func(path string) (library.Track, bool)

// Playlist is a named ordered list of tracks backed by an m3u file.
// The name is the file stem.
type Playlist struct {
	Name      string
	Path      string
	CreatedAt time.Time
	Tracks    []library.Track
}

// Load reads an m3u file. Lines are one track path each; blank lines
// and # comments are skipped.
func Load(path string, resolve Resolver) (*Playlist, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}

	pl := &Playlist{
		Name:      stem(path),
		Path:      path,
		CreatedAt: info.ModTime(),
	}

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if resolve != nil {
			if track, ok := resolve(line); ok {
				pl.Tracks = append(pl.Tracks, track)
				continue
			}
		}
		pl.Tracks = append(pl.Tracks, library.Track{Path: line, Title: stem(line)})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return pl, nil
}

// LoadDir loads every m3u file in dir, oldest first. A missing dir is
// not an error; it just yields no playlists.
func LoadDir(dir string, resolve Resolver) ([]*Playlist, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var playlists []*Playlist
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), fileExt) {
			continue
		}
		pl, err := Load(filepath.Join(dir, entry.Name()), resolve)
		if err != nil {
			return nil, err
		}
		playlists = append(playlists, pl)
	}

	sort.Slice(playlists, func(i, j int) bool {
		return playlists[i].CreatedAt.Before(playlists[j].CreatedAt)
	})
	return playlists, nil
}

// Create writes a new empty playlist file in dir.
func Create(dir, name string) (*Playlist, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("playlist name is empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	path := filepath.Join(dir, name+fileExt)
	if _, err := os.Stat(path); err == nil {
		return nil, fmt.Errorf("playlist %q already exists", name)
	}

	pl := &Playlist{Name: name, Path: path, CreatedAt: time.Now()}
	if err := pl.Save(); err != nil {
		return nil, err
	}
	return pl, nil
}

// Save writes the playlist back to its m3u file.
func (p *Playlist) Save() error {
	var b strings.Builder
	for _, track := range p.Tracks {
		b.WriteString(track.Path)
		b.WriteByte('\n')
	}
	return os.WriteFile(p.Path, []byte(b.String()), 0o644)
}

// Rename moves the backing file to the new name within the same
// directory and updates the playlist in place.
func (p *Playlist) Rename(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("playlist name is empty")
	}
	newPath := filepath.Join(filepath.Dir(p.Path), name+fileExt)
	if _, err := os.Stat(newPath); err == nil {
		return fmt.Errorf("playlist %q already exists", name)
	}
	if err := os.Rename(p.Path, newPath); err != nil {
		return err
	}
	p.Name = name
	p.Path = newPath
	return nil
}

// Delete removes the backing file.
func (p *Playlist) Delete() error {
	return os.Remove(p.Path)
}

// AddTrack appends a track and saves. A path already present in the
// playlist is rejected.
func (p *Playlist) AddTrack(track library.Track) error {
	for _, existing := range p.Tracks {
		if existing.Path == track.Path {
			return fmt.Errorf("track already in playlist %q: %s", p.Name, track.Path)
		}
	}
	p.Tracks = append(p.Tracks, track)
	return p.Save()
}

// RemoveTrack drops the entry at index and saves.
func (p *Playlist) RemoveTrack(index int) error {
	if index < 0 || index >= len(p.Tracks) {
		return fmt.Errorf("invalid track index: %d", index)
	}
	p.Tracks = append(p.Tracks[:index], p.Tracks[index+1:]...)
	return p.Save()
}

func stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

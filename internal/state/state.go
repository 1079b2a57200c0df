package state

import (
	"sync"
	"time"
)

type Playback int

const (
	IDLE Playback = iota
	PLAYING
	PAUSED
)

func (p Playback) String() string {
	switch p {
	case PLAYING:
		return "playing"
	case PAUSED:
		return "paused"
	default:
		return "idle"
	}
}

func (p Playback) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// ParsePlayback maps the upstream status strings; anything unknown is idle.
func ParsePlayback(s string) Playback {
	switch s {
	case "playing":
		return PLAYING
	case "paused":
		return PAUSED
	default:
		return IDLE
	}
}

type Track struct {
	Artist   string        `json:"artist,omitempty"`
	Album    string        `json:"album,omitempty"`
	Title    string        `json:"title,omitempty"`
	Duration time.Duration `json:"duration,omitempty"`
}

func (t Track) Empty() bool {
	return t.Artist == "" && t.Album == "" && t.Title == ""
}

// ArtistAlbum joins the two fields for the second display line.
func (t Track) ArtistAlbum() string {
	switch {
	case t.Artist != "" && t.Album != "":
		return t.Artist + " - " + t.Album
	case t.Artist != "":
		return t.Artist
	default:
		return t.Album
	}
}

type ConnectionInfo struct {
	Connected    bool   `json:"connected"`
	Alias        string `json:"alias,omitempty"`
	Discoverable bool   `json:"discoverable"`
}

type State struct {
	Playback   Playback       `json:"playback"`
	Connection ConnectionInfo `json:"connection"`
	Track      Track          `json:"track"`
	Position   time.Duration  `json:"position"`
}

type Store struct {
	mu    sync.RWMutex
	state State
}

func NewStore() *Store {
	return &Store{state: State{Playback: IDLE}}
}

func (store *Store) Snapshot() State {
	store.mu.RLock()
	defer store.mu.RUnlock()
	return store.state
}

func (store *Store) SetPlayback(playback Playback) {
	store.mu.Lock()
	store.state.Playback = playback
	store.mu.Unlock()
}

func (store *Store) UpdateConnection(connected bool, alias string) {
	store.mu.Lock()
	store.state.Connection.Connected = connected
	if alias != "" {
		store.state.Connection.Alias = alias
	}
	if !connected {
		store.state.Track = Track{}
		store.state.Position = 0
	}
	store.mu.Unlock()
}

func (store *Store) SetAlias(alias string) {
	store.mu.Lock()
	store.state.Connection.Alias = alias
	store.mu.Unlock()
}

func (store *Store) SetDiscoverable(on bool) {
	store.mu.Lock()
	store.state.Connection.Discoverable = on
	store.mu.Unlock()
}

// UpdateTrack replaces the stored track and resets the position.
func (store *Store) UpdateTrack(track Track) {
	store.mu.Lock()
	store.state.Track = track
	store.state.Position = 0
	store.mu.Unlock()
}

func (store *Store) UpdatePosition(position time.Duration) {
	store.mu.Lock()
	store.state.Position = position
	store.mu.Unlock()
}

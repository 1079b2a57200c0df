package state

import (
	"fmt"
	"time"
)

type EventKind string

// Facts reported by the bluetooth media player.
const (
	EventConnected    EventKind = "connected"
	EventState        EventKind = "state"
	EventTrack        EventKind = "track"
	EventStatus       EventKind = "status"
	EventPosition     EventKind = "position"
	EventDiscoverable EventKind = "discoverable"
	EventAlias        EventKind = "alias"
)

// Event is one property change from the player. Only the fields that
// belong to Kind are read.
type Event struct {
	Kind EventKind `json:"kind"`

	// connected, discoverable
	On bool `json:"on,omitempty"`
	// connected, alias
	Alias string `json:"alias,omitempty"`
	// state ("idle", "active"), status ("playing", "paused", ...)
	Value string `json:"value,omitempty"`

	Track      *TrackEvent `json:"track,omitempty"`
	PositionMs int64       `json:"positionMs,omitempty"`
}

type TrackEvent struct {
	Artist     string `json:"artist,omitempty"`
	Album      string `json:"album,omitempty"`
	Title      string `json:"title,omitempty"`
	DurationMs int64  `json:"durationMs,omitempty"`
}

func (t TrackEvent) Track() Track {
	return Track{
		Artist:   t.Artist,
		Album:    t.Album,
		Title:    t.Title,
		Duration: time.Duration(t.DurationMs) * time.Millisecond,
	}
}

func (e Event) Position() time.Duration {
	return time.Duration(e.PositionMs) * time.Millisecond
}

func (e Event) Validate() error {
	switch e.Kind {
	case EventConnected, EventDiscoverable, EventAlias:
	case EventState, EventStatus:
		if e.Value == "" {
			return fmt.Errorf("%s event without value", e.Kind)
		}
	case EventTrack:
		if e.Track == nil {
			return fmt.Errorf("track event without track")
		}
		if e.Track.DurationMs < 0 {
			return fmt.Errorf("negative track duration %d", e.Track.DurationMs)
		}
	case EventPosition:
		if e.PositionMs < 0 {
			return fmt.Errorf("negative position %d", e.PositionMs)
		}
	case "":
		return fmt.Errorf("event kind missing")
	default:
		return fmt.Errorf("unknown event kind %q", e.Kind)
	}
	return nil
}

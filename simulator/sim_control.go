package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"periph.io/x/devices/v3/ssd1306/image1bit"

	"github.com/retroplayer/frontpanel/internal/render"
	"github.com/retroplayer/frontpanel/internal/state"
)

type SimFaults struct {
	DisplayFail bool `json:"displayFail"`
}

// eventHandler is the part of the app the simulated player talks to.
type eventHandler interface {
	HandleEvent(ctx context.Context, ev state.Event) error
}

// SimControl plays a scripted bluetooth source into the panel.
type SimControl struct {
	processCtx      context.Context
	player          eventHandler
	sink            *faultySink
	startupScenario string
	currentScenario atomic.Value // string
	tick            time.Duration

	mu         sync.Mutex
	stopTicker context.CancelFunc
}

func NewSimControl(processCtx context.Context, player eventHandler, sink *faultySink, startupScenario string) *SimControl {
	if processCtx == nil {
		processCtx = context.Background()
	}
	c := &SimControl{
		processCtx:      processCtx,
		player:          player,
		sink:            sink,
		startupScenario: strings.TrimSpace(startupScenario),
		tick:            time.Second,
	}
	if c.startupScenario == "" {
		c.startupScenario = "playing"
	}
	c.currentScenario.Store(c.startupScenario)
	return c
}

var demoTrack = state.TrackEvent{
	Artist:     "The Simulators",
	Album:      "Bench Tests",
	Title:      "A Very Long Song Title That Overflows",
	DurationMs: 215000,
}

// scenarioEvents lists the facts that put the panel into scenario name and
// whether playback position should advance afterwards.
func scenarioEvents(name string) ([]state.Event, bool, error) {
	connect := state.Event{Kind: state.EventConnected, On: true, Alias: "Sim Phone"}
	track := state.Event{Kind: state.EventTrack, Track: &demoTrack}
	switch name {
	case "playing", "":
		return []state.Event{connect, track, {Kind: state.EventStatus, Value: "playing"}}, true, nil
	case "paused":
		return []state.Event{connect, track, {Kind: state.EventStatus, Value: "paused"}}, false, nil
	case "idle":
		return []state.Event{{Kind: state.EventConnected, On: false}, {Kind: state.EventState, Value: "idle"}}, false, nil
	case "pairing":
		return []state.Event{{Kind: state.EventDiscoverable, On: true}}, false, nil
	default:
		return nil, false, fmt.Errorf("unknown scenario %q", name)
	}
}

func (c *SimControl) ApplyScenario(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		name = c.startupScenario
	}
	events, advance, err := scenarioEvents(name)
	if err != nil {
		return err
	}

	c.mu.Lock()
	if c.stopTicker != nil {
		c.stopTicker()
		c.stopTicker = nil
	}
	c.mu.Unlock()

	var errs []error
	for _, ev := range events {
		errs = append(errs, c.player.HandleEvent(c.processCtx, ev))
	}
	c.currentScenario.Store(name)
	if advance {
		ctx, cancel := context.WithCancel(c.processCtx)
		c.mu.Lock()
		c.stopTicker = cancel
		c.mu.Unlock()
		go c.advance(ctx)
	}
	return errors.Join(errs...)
}

// advance reports the position once per tick and starts the track over at
// its end.
func (c *SimControl) advance(ctx context.Context) {
	ticker := time.NewTicker(c.tick)
	defer ticker.Stop()
	var pos int64
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		pos += c.tick.Milliseconds()
		ev := state.Event{Kind: state.EventPosition, PositionMs: pos}
		if pos >= demoTrack.DurationMs {
			pos = 0
			ev = state.Event{Kind: state.EventTrack, Track: &demoTrack}
		}
		if err := c.player.HandleEvent(ctx, ev); err != nil {
			fmt.Fprintln(os.Stderr, "sim player:", err)
		}
	}
}

func (c *SimControl) Reset() error {
	c.SetFaults(SimFaults{})
	return c.ApplyScenario(c.startupScenario)
}

func (c *SimControl) Faults() SimFaults {
	return SimFaults{DisplayFail: c.sink.failing()}
}

func (c *SimControl) SetFaults(v SimFaults) {
	var err error
	if v.DisplayFail {
		err = errors.New("simulated display failure")
	}
	c.sink.setErr(err)
}

// faultySink forwards frames to the real sink unless a failure is
// injected.
type faultySink struct {
	render.Sink

	mu  sync.Mutex
	err error
}

func (s *faultySink) Flush(frame *image1bit.VerticalLSB) error {
	s.mu.Lock()
	err := s.err
	s.mu.Unlock()
	if err != nil {
		return err
	}
	return s.Sink.Flush(frame)
}

func (s *faultySink) setErr(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
}

func (s *faultySink) failing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err != nil
}

func registerSimEndpoints(mux *http.ServeMux, control *SimControl) {
	mux.HandleFunc("/sim/reset", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeSimError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		if err := control.Reset(); err != nil {
			writeSimError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeSimJSON(w, http.StatusOK, map[string]any{"ok": true, "scenario": control.currentScenario.Load()})
	})

	mux.HandleFunc("/sim/scenario/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeSimError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		name := strings.TrimPrefix(r.URL.Path, "/sim/scenario/")
		name = strings.Trim(name, "/")
		if err := control.ApplyScenario(name); err != nil {
			writeSimError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeSimJSON(w, http.StatusOK, map[string]any{"ok": true, "scenario": control.currentScenario.Load()})
	})

	mux.HandleFunc("/sim/faults", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			writeSimJSON(w, http.StatusOK, control.Faults())
			return
		case http.MethodPost:
			var patch struct {
				DisplayFail *bool `json:"displayFail"`
			}
			if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
				writeSimError(w, http.StatusBadRequest, "invalid json")
				return
			}
			current := control.Faults()
			if patch.DisplayFail != nil {
				current.DisplayFail = *patch.DisplayFail
			}
			control.SetFaults(current)
			writeSimJSON(w, http.StatusOK, current)
			return
		default:
			writeSimError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
	})
}

func writeSimJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeSimError(w http.ResponseWriter, status int, message string) {
	writeSimJSON(w, status, map[string]any{"error": message})
}

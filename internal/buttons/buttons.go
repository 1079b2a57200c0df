package buttons

import (
	"context"
	"fmt"
	"sync"
)

type Event string

const (
	Band     Event = "band"
	SeekUp   Event = "seek-up"
	SeekDown Event = "seek-down"
	Preset1  Event = "preset-1"
	Preset2  Event = "preset-2"
	Preset3  Event = "preset-3"
	Preset4  Event = "preset-4"
	Preset5  Event = "preset-5"
	Preset6  Event = "preset-6"
	Exit     Event = "exit"
)

var known = map[Event]bool{
	Band: true, SeekUp: true, SeekDown: true,
	Preset1: true, Preset2: true, Preset3: true, Preset4: true, Preset5: true, Preset6: true,
	Exit: true,
}

// ParseEvent validates a button name from configuration or the web API.
func ParseEvent(name string) (Event, error) {
	ev := Event(name)
	if !known[ev] {
		return "", fmt.Errorf("unknown button %q", name)
	}
	return ev, nil
}

// Preset returns the preset number of ev, or 0 for other buttons.
func (ev Event) Preset() int {
	var n int
	if _, err := fmt.Sscanf(string(ev), "preset-%d", &n); err != nil {
		return 0
	}
	return n
}

type Buttons interface {
	Start(ctx context.Context) error
	Stop() error
	Events() <-chan Event
}

type Logger interface {
	Infof(component string, format string, args ...interface{})
	Errorf(component string, format string, args ...interface{})
}

type noopLogger struct{}

func (noopLogger) Infof(string, string, ...interface{})  {}
func (noopLogger) Errorf(string, string, ...interface{}) {}

type NoopButtons struct {
	ch       chan Event
	stopOnce sync.Once
}

func NewNoopButtons() *NoopButtons { return &NoopButtons{ch: make(chan Event)} }

func (n *NoopButtons) Start(ctx context.Context) error { return nil }
func (n *NoopButtons) Events() <-chan Event            { return n.ch }

func (n *NoopButtons) Stop() error {
	n.stopOnce.Do(func() { close(n.ch) })
	return nil
}

// emitter is the buffered channel shared by the real button sources.
// Presses that arrive while the buffer is full are dropped.
type emitter struct {
	ch     chan Event
	logger Logger
}

func newEmitter(logger Logger) emitter {
	if logger == nil {
		logger = noopLogger{}
	}
	return emitter{ch: make(chan Event, 16), logger: logger}
}

func (e emitter) emit(ev Event) {
	select {
	case e.ch <- ev:
		e.logger.Infof("buttons", "%s pressed", ev)
	default:
		e.logger.Errorf("buttons", "%s dropped, queue full", ev)
	}
}

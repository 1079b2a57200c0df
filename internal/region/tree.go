package region

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/retroplayer/frontpanel/internal/render"
)

var (
	// ErrRegionNotFound is returned when a name is not part of the tree.
	// It signals a wiring mistake, not a runtime condition.
	ErrRegionNotFound = errors.New("region not found")

	// ErrInvalidLayout is returned by NewTree for a malformed declaration.
	ErrInvalidLayout = errors.New("invalid region layout")
)

// DefaultPollInterval is how often a waiting claim re-checks ownership when
// no release wakes it first.
const DefaultPollInterval = 100 * time.Millisecond

type Logger interface {
	Infof(component string, format string, args ...interface{})
	Errorf(component string, format string, args ...interface{})
}

type noopLogger struct{}

func (noopLogger) Infof(string, string, ...interface{})  {}
func (noopLogger) Errorf(string, string, ...interface{}) {}

// Spec declares one region. Parents must be declared before children.
type Spec struct {
	Name   string
	Parent string
	Rect   image.Rectangle
	// Exclusive regions belong to a single caller: only their own owner
	// blocks them and they never block or get superseded by claims on
	// related regions.
	Exclusive bool
}

// Tree is the fixed hierarchy of regions over one surface. All ownership
// state and every draw go through mu; marquee tasks take it per frame.
type Tree struct {
	PollInterval time.Duration
	Logger       Logger
	// OnDraw, when set, is called with every text placed in a region.
	OnDraw func(region, text string)

	mu       sync.Mutex
	surface  *render.Surface
	regions  map[string]*Region
	order    []*Region
	released chan struct{}

	ctx    context.Context
	cancel context.CancelFunc
	tasks  sync.WaitGroup
}

// NewTree builds the tree in a single pass: each region caches its
// ancestor chain once and is registered with every ancestor as a
// descendant exactly once.
func NewTree(surface *render.Surface, specs []Spec) (*Tree, error) {
	if surface == nil {
		return nil, fmt.Errorf("%w: nil surface", ErrInvalidLayout)
	}
	ctx, cancel := context.WithCancel(context.Background())
	t := &Tree{
		PollInterval: DefaultPollInterval,
		surface:      surface,
		regions:      make(map[string]*Region, len(specs)),
		released:     make(chan struct{}),
		ctx:          ctx,
		cancel:       cancel,
	}
	bounds := surface.Bounds()
	for i, spec := range specs {
		if spec.Name == "" {
			cancel()
			return nil, fmt.Errorf("%w: region %d has no name", ErrInvalidLayout, i)
		}
		if _, dup := t.regions[spec.Name]; dup {
			cancel()
			return nil, fmt.Errorf("%w: duplicate region %q", ErrInvalidLayout, spec.Name)
		}
		if spec.Rect.Empty() {
			cancel()
			return nil, fmt.Errorf("%w: %q %v has no area", ErrInvalidLayout, spec.Name, spec.Rect)
		}
		r := &Region{tree: t, index: i, name: spec.Name, rect: spec.Rect, exclusive: spec.Exclusive}
		outer := bounds
		if spec.Parent != "" {
			parent, ok := t.regions[spec.Parent]
			if !ok {
				cancel()
				return nil, fmt.Errorf("%w: %q declared before its parent %q", ErrInvalidLayout, spec.Name, spec.Parent)
			}
			r.parent = parent
			r.ancestors = append([]*Region{parent}, parent.ancestors...)
			outer = parent.rect
		}
		if !spec.Rect.In(outer) {
			cancel()
			return nil, fmt.Errorf("%w: %q %v outside %v", ErrInvalidLayout, spec.Name, spec.Rect, outer)
		}
		t.regions[spec.Name] = r
		t.order = append(t.order, r)
	}
	for _, r := range t.order {
		if r.parent != nil {
			r.parent.children = append(r.parent.children, r)
		}
		for _, a := range r.ancestors {
			a.descendants = append(a.descendants, r)
		}
	}
	return t, nil
}

// Region looks up a region by name.
func (t *Tree) Region(name string) (*Region, error) {
	r, ok := t.regions[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrRegionNotFound, name)
	}
	return r, nil
}

// Regions returns every region in declaration order.
func (t *Tree) Regions() []*Region {
	out := make([]*Region, len(t.order))
	copy(out, t.order)
	return out
}

func (t *Tree) Surface() *render.Surface { return t.surface }

// State is a point-in-time view of one region.
type State struct {
	Name      string `json:"name"`
	X         int    `json:"x"`
	Y         int    `json:"y"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	Owner     string `json:"owner"`
	Priority  int    `json:"priority"`
	Text      string `json:"text"`
	Scrolling bool   `json:"scrolling"`
	Exclusive bool   `json:"exclusive"`
}

// Snapshot returns the state of every region in declaration order.
func (t *Tree) Snapshot() []State {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]State, 0, len(t.order))
	for _, r := range t.order {
		out = append(out, State{
			Name:      r.name,
			X:         r.rect.Min.X,
			Y:         r.rect.Min.Y,
			Width:     r.rect.Dx(),
			Height:    r.rect.Dy(),
			Owner:     r.owner,
			Priority:  r.priority,
			Text:      r.text,
			Scrolling: r.task.running(),
			Exclusive: r.exclusive,
		})
	}
	return out
}

// ActiveTasks counts marquee tasks that have not terminated yet.
func (t *Tree) ActiveTasks() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := 0
	for _, r := range t.order {
		if r.task.running() {
			n++
		}
	}
	return n
}

// Close stops every marquee task and waits for them to exit.
func (t *Tree) Close() {
	t.cancel()
	t.tasks.Wait()
}

func (t *Tree) logger() Logger {
	if t.Logger == nil {
		return noopLogger{}
	}
	return t.Logger
}

func (t *Tree) pollInterval() time.Duration {
	if t.PollInterval <= 0 {
		return DefaultPollInterval
	}
	return t.PollInterval
}

// broadcastLocked wakes every waiting claim after ownership dropped.
func (t *Tree) broadcastLocked() {
	close(t.released)
	t.released = make(chan struct{})
}

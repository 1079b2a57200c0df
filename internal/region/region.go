package region

import (
	"context"
	"image"
	"sync"

	"github.com/retroplayer/frontpanel/internal/render"
)

// Region is a named rectangle of the surface. Ownership fields and the
// retained content are guarded by the tree mutex.
type Region struct {
	tree      *Tree
	index     int
	name      string
	rect      image.Rectangle
	exclusive bool

	parent      *Region
	ancestors   []*Region // nearest first
	children    []*Region
	descendants []*Region // declaration order

	owner    string
	priority int
	text     string
	paint    func(s *render.Surface)

	// taskMu serialises replacing the running task.
	taskMu sync.Mutex
	task   *task
}

type task struct {
	cancel context.CancelFunc
	done   chan struct{}
}

func (tk *task) running() bool {
	if tk == nil {
		return false
	}
	select {
	case <-tk.done:
		return false
	default:
		return true
	}
}

func (r *Region) Name() string          { return r.name }
func (r *Region) Rect() image.Rectangle { return r.rect }
func (r *Region) Exclusive() bool       { return r.exclusive }

// Parent returns nil for the root.
func (r *Region) Parent() *Region { return r.parent }

func (r *Region) Children() []*Region {
	out := make([]*Region, len(r.children))
	copy(out, r.children)
	return out
}

// Descendants returns every region below r in declaration order.
func (r *Region) Descendants() []*Region {
	out := make([]*Region, len(r.descendants))
	copy(out, r.descendants)
	return out
}

// Ancestors returns the chain from the parent up to the root.
func (r *Region) Ancestors() []*Region {
	out := make([]*Region, len(r.ancestors))
	copy(out, r.ancestors)
	return out
}

// Owner returns the current owner and priority; "" and 0 when free.
func (r *Region) Owner() (string, int) {
	r.tree.mu.Lock()
	defer r.tree.mu.Unlock()
	return r.owner, r.priority
}

// OwnedBy reports whether owner currently holds r.
func (r *Region) OwnedBy(owner string) bool {
	r.tree.mu.Lock()
	defer r.tree.mu.Unlock()
	return r.owner != "" && r.owner == owner
}

// Text returns the text last placed in r, or the current marquee window.
func (r *Region) Text() string {
	r.tree.mu.Lock()
	defer r.tree.mu.Unlock()
	return r.text
}

// subtree returns r followed by its descendants, which is ascending
// declaration order.
func (r *Region) subtree() []*Region {
	out := make([]*Region, 0, len(r.descendants)+1)
	out = append(out, r)
	return append(out, r.descendants...)
}

// resetLocked drops ownership and retained content and cancels the
// running task without waiting for it. The task checks its context under
// the tree mutex before each frame, so it cannot draw again.
func (r *Region) resetLocked() {
	r.owner = ""
	r.priority = 0
	r.text = ""
	r.paint = nil
	if r.task != nil {
		r.task.cancel()
	}
}

// wipeLocked clears r and repaints every descendant that is still owned.
func (r *Region) wipeLocked() {
	s := r.tree.surface
	s.ClearRect(r.rect)
	for _, d := range r.descendants {
		if d.owner != "" && d.paint != nil {
			d.paint(s)
		}
	}
}

// showLocked records paint as the content of r and draws it.
func (r *Region) showLocked(text string, paint func(s *render.Surface)) {
	r.text = text
	r.paint = func(s *render.Surface) {
		s.ClearRect(r.rect)
		paint(s)
	}
	r.paint(r.tree.surface)
	if r.tree.OnDraw != nil && text != "" {
		r.tree.OnDraw(r.name, text)
	}
}

// stopTask cancels the running task and waits for it. The caller holds
// taskMu and not the tree mutex.
func (r *Region) stopTask() {
	t := r.tree
	t.mu.Lock()
	tk := r.task
	r.task = nil
	if tk != nil {
		tk.cancel()
	}
	t.mu.Unlock()
	if tk != nil {
		<-tk.done
	}
}

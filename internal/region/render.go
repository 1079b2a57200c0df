package region

import (
	"context"
	"image"
	"time"

	"github.com/retroplayer/frontpanel/internal/render"
	"github.com/retroplayer/frontpanel/internal/render/layout"
)

const (
	// DefaultMarqueeSpeed is the scroll rate in characters per second.
	DefaultMarqueeSpeed = 4.0

	marqueeSeparator = "   "

	progressTickHalf      = 3
	progressFilledWidth   = 3
	progressUnfilledWidth = 1
)

// Request carries the identity and priority a render operation claims
// with, and how long the claim may wait.
type Request struct {
	Owner    string
	Priority int
	MaxWait  time.Duration
}

// Render claims r and replaces its content with whatever paint draws into
// the region rectangle. text is retained for snapshots and may be empty.
// It reports false without drawing when the claim is denied.
func (r *Region) Render(ctx context.Context, req Request, text string, paint func(s *render.Surface, rect image.Rectangle)) (bool, error) {
	if !r.Claim(ctx, req.Owner, req.Priority, req.MaxWait) {
		return false, nil
	}
	r.taskMu.Lock()
	defer r.taskMu.Unlock()
	r.stopTask()

	t := r.tree
	t.mu.Lock()
	defer t.mu.Unlock()
	if r.owner != req.Owner {
		return false, nil
	}
	r.showLocked(text, func(s *render.Surface) { paint(s, r.rect) })
	return true, t.surface.Flush()
}

// RenderStatic draws text centred in r. Text wider than r is cut at its
// edges; use RenderMarquee to show all of it.
func (r *Region) RenderStatic(ctx context.Context, req Request, text string) (bool, error) {
	return r.Render(ctx, req, text, func(s *render.Surface, rect image.Rectangle) {
		s.DrawTextClipped(rect, text, 0)
	})
}

// RenderMarquee draws text in r and, when it is wider than the region,
// keeps scrolling it left one character per tick until the region is
// released, superseded or rendered again. speed is in characters per
// second; non-positive selects DefaultMarqueeSpeed.
func (r *Region) RenderMarquee(ctx context.Context, req Request, text string, speed float64) (bool, error) {
	t := r.tree
	cols := r.rect.Dx() / t.surface.GlyphWidth()
	if cols < 1 || t.surface.MeasureText(text) <= r.rect.Dx() {
		return r.RenderStatic(ctx, req, text)
	}
	if speed <= 0 {
		speed = DefaultMarqueeSpeed
	}
	if !r.Claim(ctx, req.Owner, req.Priority, req.MaxWait) {
		return false, nil
	}
	r.taskMu.Lock()
	defer r.taskMu.Unlock()
	r.stopTask()

	t.mu.Lock()
	defer t.mu.Unlock()
	if r.owner != req.Owner {
		return false, nil
	}
	m := newMarquee(text, cols)
	r.showLocked(m.window(0), r.textPainter(m.window(0)))
	if err := t.surface.Flush(); err != nil {
		return true, err
	}

	taskCtx, cancel := context.WithCancel(t.ctx)
	tk := &task{cancel: cancel, done: make(chan struct{})}
	r.task = tk
	t.tasks.Add(1)
	go r.scroll(taskCtx, tk, req.Owner, m, time.Duration(float64(time.Second)/speed))
	return true, nil
}

func (r *Region) textPainter(text string) func(s *render.Surface) {
	return func(s *render.Surface) { s.DrawTextClipped(r.rect, text, 0) }
}

func (r *Region) scroll(ctx context.Context, tk *task, owner string, m marquee, period time.Duration) {
	defer r.tree.tasks.Done()
	defer close(tk.done)

	t := r.tree
	ticker := time.NewTicker(period)
	defer ticker.Stop()
	for step := 1; ; step++ {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		t.mu.Lock()
		if ctx.Err() != nil || r.task != tk || r.owner != owner {
			t.mu.Unlock()
			return
		}
		window := m.window(step)
		r.showLocked(window, r.textPainter(window))
		err := t.surface.Flush()
		t.mu.Unlock()
		if err != nil {
			t.logger().Errorf("region", "%s: marquee stopped: %v", r.name, err)
			return
		}
	}
}

// RenderProgress draws a horizontal bar for elapsed out of total: a tick
// at each end, a thick segment for the elapsed part and a thin one for
// the rest. An unknown total draws nothing and is not an error.
func (r *Region) RenderProgress(ctx context.Context, req Request, elapsed, total time.Duration) (bool, error) {
	if total <= 0 {
		return false, nil
	}
	frac := float64(elapsed) / float64(total)
	if frac < 0 {
		frac = 0
	}
	if frac > 1 {
		frac = 1
	}
	return r.Render(ctx, req, "", func(s *render.Surface, rect image.Rectangle) {
		drawProgressBar(s, rect, frac)
	})
}

func drawProgressBar(s *render.Surface, rect image.Rectangle, frac float64) {
	if rect.Dx() < 2 || rect.Dy() < 1 {
		return
	}
	left, right := rect.Min.X, rect.Max.X-1
	mid := rect.Min.Y + rect.Dy()/2
	top, bottom := mid-progressTickHalf, mid+progressTickHalf
	if top < rect.Min.Y {
		top = rect.Min.Y
	}
	if bottom > rect.Max.Y-1 {
		bottom = rect.Max.Y - 1
	}
	s.DrawLine(left, top, left, bottom, 1)
	s.DrawLine(right, top, right, bottom, 1)

	split := left + int(frac*float64(right-left))
	if split > left {
		s.DrawLine(left, mid, split, mid, progressFilledWidth)
	}
	if split < right {
		s.DrawLine(split, mid, right, mid, progressUnfilledWidth)
	}
}

// RenderImage draws img centred in r, scaled down to fit when it is larger
// than the region.
func (r *Region) RenderImage(ctx context.Context, req Request, img image.Image) (bool, error) {
	if img == nil {
		return false, nil
	}
	return r.Render(ctx, req, "", func(s *render.Surface, rect image.Rectangle) {
		DrawImageCentered(s, rect, img)
	})
}

// DrawImageCentered places img in the middle of rect, unscaled when it
// fits and otherwise scaled down preserving its aspect ratio.
func DrawImageCentered(s *render.Surface, rect image.Rectangle, img image.Image) {
	b := img.Bounds()
	if b.Dx() <= rect.Dx() && b.Dy() <= rect.Dy() {
		dst := layout.Center(rect, b.Dx(), b.Dy())
		s.BlitImage(dst.Min.X, dst.Min.Y, img)
		return
	}
	w, h := rect.Dx(), rect.Dy()
	if b.Dx()*h > b.Dy()*w {
		h = b.Dy() * w / b.Dx()
	} else {
		w = b.Dx() * h / b.Dy()
	}
	s.BlitImageInRect(layout.Center(rect, w, h), img)
}

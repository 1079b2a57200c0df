package render

import (
	"errors"
	"fmt"
	"image"
	"image/draw"
	"sync"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"periph.io/x/devices/v3/ssd1306/image1bit"
)

// ErrDisplayUnavailable wraps every sink failure returned by Flush.
var ErrDisplayUnavailable = errors.New("display unavailable")

var (
	lit  = &image.Uniform{C: image1bit.On}
	dark = &image.Uniform{C: image1bit.Off}
)

// Surface owns the monochrome pixel buffer shared by every region and the
// sink it is flushed to. The buffer size is fixed at construction.
type Surface struct {
	mu   sync.Mutex
	buf  *image1bit.VerticalLSB
	face font.Face
	sink Sink
}

// NewSurface allocates a width x height buffer. A non-positive size falls
// back to the default panel geometry, a nil face selects the fixed-width
// basicfont glyphs and a nil sink discards frames.
func NewSurface(width, height int, sink Sink, face font.Face) *Surface {
	if width <= 0 || height <= 0 {
		width, height = DefaultWidth, DefaultHeight
	}
	if face == nil {
		face = basicfont.Face7x13
	}
	if sink == nil {
		sink = DiscardSink{}
	}
	return &Surface{
		buf:  image1bit.NewVerticalLSB(image.Rect(0, 0, width, height)),
		face: face,
		sink: sink,
	}
}

func (s *Surface) Bounds() image.Rectangle { return s.buf.Bounds() }

// LineHeight is the pixel height of one line of text in the surface font.
func (s *Surface) LineHeight() int {
	return s.face.Metrics().Height.Ceil()
}

// GlyphWidth is the advance of a digit, used as the column width for
// fixed-width layout and marquee windows.
func (s *Surface) GlyphWidth() int {
	adv, ok := s.face.GlyphAdvance('0')
	if !ok || adv <= 0 {
		return 1
	}
	return adv.Ceil()
}

// MeasureText returns the rendered width of text in pixels.
func (s *Surface) MeasureText(text string) int {
	return font.MeasureString(s.face, text).Ceil()
}

// ClearRect sets every pixel of rect to the background.
func (s *Surface) ClearRect(rect image.Rectangle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	draw.Draw(s.buf, rect.Intersect(s.buf.Rect), dark, image.Point{}, draw.Src)
}

// DrawTextCentered draws text centred in rect, shifted horizontally by
// offset pixels. Text wider than rect is not clipped.
func (s *Surface) DrawTextCentered(rect image.Rectangle, text string, offset int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.drawTextLocked(s.buf, rect, text, offset)
}

// DrawTextClipped is DrawTextCentered with every pixel outside rect left
// untouched.
func (s *Surface) DrawTextClipped(rect image.Rectangle, text string, offset int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.drawTextLocked(clipImage{Image: s.buf, rect: rect.Intersect(s.buf.Rect)}, rect, text, offset)
}

// clipImage narrows the bounds of a draw target, which font.Drawer and
// image/draw clip against.
type clipImage struct {
	draw.Image
	rect image.Rectangle
}

func (c clipImage) Bounds() image.Rectangle { return c.rect }

func (s *Surface) drawTextLocked(dst draw.Image, rect image.Rectangle, text string, offset int) {
	drawer := &font.Drawer{Dst: dst, Src: lit, Face: s.face}
	width := drawer.MeasureString(text).Ceil()
	metrics := s.face.Metrics()
	x := rect.Min.X + (rect.Dx()-width)/2 + offset
	baseline := rect.Min.Y + (rect.Dy()+metrics.Ascent.Ceil()-metrics.Descent.Ceil())/2
	drawer.Dot = fixed.P(x, baseline)
	drawer.DrawString(text)
}

// DrawLine draws a straight segment with a square pen of the given
// thickness centred on the ideal line.
func (s *Surface) DrawLine(x0, y0, x1, y1, thickness int) {
	if thickness < 1 {
		thickness = 1
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	dx, sx := abs(x1-x0), 1
	if x0 > x1 {
		sx = -1
	}
	dy, sy := -abs(y1-y0), 1
	if y0 > y1 {
		sy = -1
	}
	errAcc := dx + dy
	for {
		s.stampLocked(x0, y0, thickness)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * errAcc
		if e2 >= dy {
			errAcc += dy
			x0 += sx
		}
		if e2 <= dx {
			errAcc += dx
			y0 += sy
		}
	}
}

func (s *Surface) stampLocked(x, y, thickness int) {
	half := (thickness - 1) / 2
	for py := y - half; py < y-half+thickness; py++ {
		for px := x - half; px < x-half+thickness; px++ {
			if (image.Point{X: px, Y: py}).In(s.buf.Rect) {
				s.buf.SetBit(px, py, image1bit.On)
			}
		}
	}
}

// BlitImage copies img unscaled with its top-left corner at (x, y).
func (s *Surface) BlitImage(x, y int, img image.Image) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b := img.Bounds()
	dst := image.Rect(x, y, x+b.Dx(), y+b.Dy()).Intersect(s.buf.Rect)
	draw.Draw(s.buf, dst, img, b.Min.Add(dst.Min.Sub(image.Pt(x, y))), draw.Src)
}

// BlitImageInRect scales img into rect with nearest-neighbour sampling.
func (s *Surface) BlitImageInRect(rect image.Rectangle, img image.Image) {
	s.mu.Lock()
	defer s.mu.Unlock()
	xdraw.NearestNeighbor.Scale(s.buf, rect.Intersect(s.buf.Rect), img, img.Bounds(), xdraw.Src, nil)
}

// PixelAt reports whether the pixel at (x, y) is lit.
func (s *Surface) PixelAt(x, y int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return bool(s.buf.BitAt(x, y))
}

// LitCount returns the number of lit pixels inside rect.
func (s *Surface) LitCount(rect image.Rectangle) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	rect = rect.Intersect(s.buf.Rect)
	n := 0
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			if s.buf.BitAt(x, y) {
				n++
			}
		}
	}
	return n
}

// Snapshot returns a copy of the current buffer.
func (s *Surface) Snapshot() *image1bit.VerticalLSB {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneFrame(s.buf)
}

// Flush pushes the buffer to the sink. Failures are returned wrapped in
// ErrDisplayUnavailable and never retried here.
func (s *Surface) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.sink.Flush(s.buf); err != nil {
		return fmt.Errorf("%w: %w", ErrDisplayUnavailable, err)
	}
	return nil
}

func cloneFrame(src *image1bit.VerticalLSB) *image1bit.VerticalLSB {
	out := image1bit.NewVerticalLSB(src.Rect)
	copy(out.Pix, src.Pix)
	return out
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

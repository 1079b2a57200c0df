package render

import (
	"context"
	"errors"
	"sync"

	"github.com/gdamore/tcell/v2"
	"periph.io/x/devices/v3/ssd1306/image1bit"
)

// TerminalSink renders frames in a terminal, two pixel rows per cell,
// inside a one-cell border. Screen may be preset (for example with a
// simulation screen); otherwise Open creates one.
type TerminalSink struct {
	Screen tcell.Screen
	Logger Logger

	mu   sync.Mutex
	open bool
}

func NewTerminalSink() *TerminalSink { return &TerminalSink{} }

var panelStyle = tcell.StyleDefault.Foreground(tcell.ColorWhite).Background(tcell.ColorBlack)

func (s *TerminalSink) Open(ctx context.Context) error {
	if s.Logger == nil {
		s.Logger = noopLogger{}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Screen == nil {
		screen, err := tcell.NewScreen()
		if err != nil {
			return err
		}
		s.Screen = screen
	}
	if err := s.Screen.Init(); err != nil {
		return err
	}
	s.Screen.HideCursor()
	s.Screen.Clear()
	s.open = true
	width, height := s.Screen.Size()
	s.Logger.Infof("term", "terminal sink open, %dx%d cells", width, height)
	return nil
}

func (s *TerminalSink) Flush(frame *image1bit.VerticalLSB) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.open {
		return errors.New("terminal not open")
	}
	bounds := frame.Bounds()
	rows := (bounds.Dy() + 1) / 2
	s.drawBorder(bounds.Dx(), rows)
	for row := 0; row < rows; row++ {
		y := bounds.Min.Y + row*2
		for col := 0; col < bounds.Dx(); col++ {
			x := bounds.Min.X + col
			top := bool(frame.BitAt(x, y))
			bottom := y+1 < bounds.Max.Y && bool(frame.BitAt(x, y+1))
			s.Screen.SetContent(col+1, row+1, halfBlock(top, bottom), nil, panelStyle)
		}
	}
	s.Screen.Show()
	return nil
}

func (s *TerminalSink) drawBorder(width, rows int) {
	for x := 1; x <= width; x++ {
		s.Screen.SetContent(x, 0, '─', nil, tcell.StyleDefault)
		s.Screen.SetContent(x, rows+1, '─', nil, tcell.StyleDefault)
	}
	for y := 1; y <= rows; y++ {
		s.Screen.SetContent(0, y, '│', nil, tcell.StyleDefault)
		s.Screen.SetContent(width+1, y, '│', nil, tcell.StyleDefault)
	}
	s.Screen.SetContent(0, 0, '┌', nil, tcell.StyleDefault)
	s.Screen.SetContent(width+1, 0, '┐', nil, tcell.StyleDefault)
	s.Screen.SetContent(0, rows+1, '└', nil, tcell.StyleDefault)
	s.Screen.SetContent(width+1, rows+1, '┘', nil, tcell.StyleDefault)
}

func (s *TerminalSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.open {
		s.Screen.Fini()
		s.open = false
	}
	return nil
}

func halfBlock(top, bottom bool) rune {
	switch {
	case top && bottom:
		return '█'
	case top:
		return '▀'
	case bottom:
		return '▄'
	default:
		return ' '
	}
}

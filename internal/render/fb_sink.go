package render

import (
	"context"
	"errors"
	"image/color"
	"sync"

	fb "github.com/gonutz/framebuffer"
	"periph.io/x/devices/v3/ssd1306/image1bit"
)

// FBSink shows frames on a Linux framebuffer device, scaled up with
// nearest-neighbour sampling. Useful on a bench HDMI screen.
type FBSink struct {
	Device string
	Logger Logger

	mu    sync.Mutex
	fbDev *fb.Device
}

func NewFBSink(device string) *FBSink { return &FBSink{Device: device} }

func (s *FBSink) Open(ctx context.Context) error {
	if s.Logger == nil {
		s.Logger = noopLogger{}
	}
	path := s.Device
	if path == "" {
		path = "/dev/fb0"
	}
	dev, err := fb.Open(path)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.fbDev = dev
	s.mu.Unlock()
	bounds := dev.Bounds()
	s.Logger.Infof("fb", "framebuffer %s open, bounds=%dx%d", path, bounds.Dx(), bounds.Dy())
	return nil
}

func (s *FBSink) Flush(frame *image1bit.VerticalLSB) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fbDev == nil {
		return errors.New("framebuffer not open")
	}
	blitToFB(s.fbDev, frame)
	return nil
}

func (s *FBSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fbDev == nil {
		return nil
	}
	s.fbDev.Close()
	s.fbDev = nil
	return nil
}

// blitToFB scales the 1-bit frame onto the whole device.
func blitToFB(dev *fb.Device, frame *image1bit.VerticalLSB) {
	bounds := dev.Bounds()
	fbWidth := bounds.Dx()
	fbHeight := bounds.Dy()
	src := frame.Bounds()
	for y := 0; y < fbHeight; y++ {
		sy := src.Min.Y + (y*src.Dy())/fbHeight
		for x := 0; x < fbWidth; x++ {
			sx := src.Min.X + (x*src.Dx())/fbWidth
			dev.Set(bounds.Min.X+x, bounds.Min.Y+y, pixelColor(bool(frame.BitAt(sx, sy))))
		}
	}
}

func pixelColor(on bool) color.RGBA {
	if on {
		return Foreground
	}
	return Background
}

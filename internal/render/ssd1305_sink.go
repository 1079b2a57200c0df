package render

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/devices/v3/ssd1306"
	"periph.io/x/devices/v3/ssd1306/image1bit"
	"periph.io/x/host/v3"
)

// SSD1305Sink drives the panel OLED over SPI. The SSD1305 accepts the
// SSD1306 command set used by periph's driver.
type SSD1305Sink struct {
	SPIPort  string // "" selects the first port
	DCPin    string
	ResetPin string // optional
	Width    int
	Height   int
	Logger   Logger

	mu   sync.Mutex
	port spi.PortCloser
	dev  *ssd1306.Dev
}

func (s *SSD1305Sink) Open(ctx context.Context) error {
	if s.Logger == nil {
		s.Logger = noopLogger{}
	}
	if _, err := host.Init(); err != nil {
		return fmt.Errorf("periph host init: %w", err)
	}
	dc := gpioreg.ByName(s.DCPin)
	if dc == nil {
		return fmt.Errorf("d/c pin %q not found", s.DCPin)
	}
	if s.ResetPin != "" {
		if err := s.reset(ctx); err != nil {
			return err
		}
	}
	port, err := spireg.Open(s.SPIPort)
	if err != nil {
		return fmt.Errorf("open spi %q: %w", s.SPIPort, err)
	}
	opts := ssd1306.DefaultOpts
	if s.Width > 0 {
		opts.W = s.Width
	}
	if s.Height > 0 {
		opts.H = s.Height
	}
	dev, err := ssd1306.NewSPI(port, dc, &opts)
	if err != nil {
		_ = port.Close()
		return fmt.Errorf("ssd1305 init: %w", err)
	}

	s.mu.Lock()
	s.port = port
	s.dev = dev
	s.mu.Unlock()
	s.Logger.Infof("oled", "ssd1305 open %dx%d dc=%s", opts.W, opts.H, s.DCPin)
	return nil
}

func (s *SSD1305Sink) reset(ctx context.Context) error {
	rst := gpioreg.ByName(s.ResetPin)
	if rst == nil {
		return fmt.Errorf("reset pin %q not found", s.ResetPin)
	}
	if err := rst.Out(gpio.Low); err != nil {
		return err
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(10 * time.Millisecond):
	}
	return rst.Out(gpio.High)
}

func (s *SSD1305Sink) Flush(frame *image1bit.VerticalLSB) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dev == nil {
		return errors.New("ssd1305 not open")
	}
	return s.dev.Draw(frame.Bounds(), frame, image.Point{})
}

func (s *SSD1305Sink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var err error
	if s.dev != nil {
		err = s.dev.Halt()
		s.dev = nil
	}
	if s.port != nil {
		if cerr := s.port.Close(); err == nil {
			err = cerr
		}
		s.port = nil
	}
	return err
}

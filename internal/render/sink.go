package render

import (
	"context"
	"sync"

	"periph.io/x/devices/v3/ssd1306/image1bit"
)

// Sink is the physical end of the surface. Flush must not retain frame
// after it returns.
type Sink interface {
	Open(ctx context.Context) error
	Flush(frame *image1bit.VerticalLSB) error
	Close() error
}

// Logger is the logging shape shared with the app package.
type Logger interface {
	Infof(component string, format string, args ...interface{})
	Errorf(component string, format string, args ...interface{})
}

type noopLogger struct{}

func (noopLogger) Infof(string, string, ...interface{})  {}
func (noopLogger) Errorf(string, string, ...interface{}) {}

// DiscardSink accepts and drops every frame.
type DiscardSink struct{}

func (DiscardSink) Open(context.Context) error         { return nil }
func (DiscardSink) Flush(*image1bit.VerticalLSB) error { return nil }
func (DiscardSink) Close() error                       { return nil }

// MemorySink keeps the last flushed frame. Setting Err makes every
// following Flush fail with it.
type MemorySink struct {
	mu      sync.Mutex
	last    *image1bit.VerticalLSB
	flushes int
	err     error
}

func NewMemorySink() *MemorySink { return &MemorySink{} }

func (m *MemorySink) Open(context.Context) error { return nil }
func (m *MemorySink) Close() error               { return nil }

func (m *MemorySink) Flush(frame *image1bit.VerticalLSB) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.last = cloneFrame(frame)
	m.flushes++
	return nil
}

// SetErr injects a flush failure; nil restores normal operation.
func (m *MemorySink) SetErr(err error) {
	m.mu.Lock()
	m.err = err
	m.mu.Unlock()
}

// Flushes returns the number of successful flushes.
func (m *MemorySink) Flushes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.flushes
}

// Last returns the most recently flushed frame, or nil.
func (m *MemorySink) Last() *image1bit.VerticalLSB {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.last
}

package buttons

import (
	"context"
	"sync"

	"github.com/retroplayer/frontpanel/internal/system"
)

var evdevKeys = map[uint16]Event{
	system.KeyB:    Band,
	system.KeyUp:   SeekUp,
	system.KeyDown: SeekDown,
	system.Key1:    Preset1,
	system.Key2:    Preset2,
	system.Key3:    Preset3,
	system.Key4:    Preset4,
	system.Key5:    Preset5,
	system.Key6:    Preset6,
}

// EvdevButtons reads a USB keypad or keyboard through /dev/input.
type EvdevButtons struct {
	emitter emitter

	mu     sync.Mutex
	cancel context.CancelFunc
	closed bool
}

func NewEvdevButtons(logger Logger) *EvdevButtons {
	return &EvdevButtons{emitter: newEmitter(logger)}
}

func (b *EvdevButtons) Start(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.cancel != nil || b.closed {
		return nil
	}
	ctx, b.cancel = context.WithCancel(ctx)
	system.WatchKeys(ctx, b.emitter.logger, b.onKey)
	return nil
}

func (b *EvdevButtons) onKey(code uint16) {
	ev, ok := evdevKeys[code]
	if !ok {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.closed {
		b.emitter.emit(ev)
	}
}

func (b *EvdevButtons) Stop() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	if b.cancel != nil {
		b.cancel()
	}
	close(b.emitter.ch)
	return nil
}

func (b *EvdevButtons) Events() <-chan Event { return b.emitter.ch }

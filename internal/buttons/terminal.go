package buttons

import (
	"context"
	"sync"

	"github.com/gdamore/tcell/v2"
)

// TerminalButtons turns key presses on a tcell screen into button events:
// b for band, arrows for seek, 1-6 for presets and q or Esc to exit. The
// screen is usually the one the terminal sink draws on.
type TerminalButtons struct {
	Screen tcell.Screen

	emitter  emitter
	stopOnce sync.Once
}

func NewTerminalButtons(screen tcell.Screen, logger Logger) *TerminalButtons {
	return &TerminalButtons{Screen: screen, emitter: newEmitter(logger)}
}

// Start polls the screen until it is finalised. The screen must already
// be initialised.
func (b *TerminalButtons) Start(ctx context.Context) error {
	go func() {
		for {
			ev := b.Screen.PollEvent()
			if ev == nil {
				return
			}
			key, ok := ev.(*tcell.EventKey)
			if !ok {
				continue
			}
			if mapped, ok := keyEvent(key.Key(), key.Rune()); ok {
				b.emitter.emit(mapped)
			}
			if ctx.Err() != nil {
				return
			}
		}
	}()
	return nil
}

func keyEvent(key tcell.Key, r rune) (Event, bool) {
	switch key {
	case tcell.KeyUp:
		return SeekUp, true
	case tcell.KeyDown:
		return SeekDown, true
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return Exit, true
	case tcell.KeyRune:
	default:
		return "", false
	}
	switch r {
	case 'b', 'B':
		return Band, true
	case 'q', 'Q':
		return Exit, true
	case '1', '2', '3', '4', '5', '6':
		return Event("preset-" + string(r)), true
	}
	return "", false
}

// Stop closes the event channel; the poll loop ends when the screen is
// finalised by its owner.
func (b *TerminalButtons) Stop() error {
	b.stopOnce.Do(func() { close(b.emitter.ch) })
	return nil
}

func (b *TerminalButtons) Events() <-chan Event { return b.emitter.ch }

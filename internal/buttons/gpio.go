package buttons

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/warthog618/go-gpiocdev"
)

// GPIOButtons reads one GPIO line per button. Lines are pulled up and a
// press pulls them to ground.
type GPIOButtons struct {
	Chip     string
	Debounce time.Duration

	offsets  []int
	byOffset map[int]Event
	emitter  emitter

	mu       sync.Mutex
	req      *gpiocdev.Lines
	stopOnce sync.Once
}

// NewGPIOButtons maps button names to line offsets on chip.
func NewGPIOButtons(chip string, lines map[string]int, debounce time.Duration, logger Logger) (*GPIOButtons, error) {
	offsets, byOffset, err := lineMap(lines)
	if err != nil {
		return nil, err
	}
	return &GPIOButtons{
		Chip:     chip,
		Debounce: debounce,
		offsets:  offsets,
		byOffset: byOffset,
		emitter:  newEmitter(logger),
	}, nil
}

func lineMap(lines map[string]int) ([]int, map[int]Event, error) {
	if len(lines) == 0 {
		return nil, nil, fmt.Errorf("no button lines configured")
	}
	byOffset := make(map[int]Event, len(lines))
	offsets := make([]int, 0, len(lines))
	for name, offset := range lines {
		ev, err := ParseEvent(name)
		if err != nil {
			return nil, nil, err
		}
		if prev, dup := byOffset[offset]; dup {
			return nil, nil, fmt.Errorf("line %d assigned to both %s and %s", offset, prev, ev)
		}
		byOffset[offset] = ev
		offsets = append(offsets, offset)
	}
	sort.Ints(offsets)
	return offsets, byOffset, nil
}

func (b *GPIOButtons) Start(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.req != nil {
		return nil
	}
	opts := []gpiocdev.LineReqOption{
		gpiocdev.AsInput,
		gpiocdev.WithPullUp,
		gpiocdev.WithFallingEdge,
		gpiocdev.WithEventHandler(b.handle),
	}
	if b.Debounce > 0 {
		opts = append(opts, gpiocdev.WithDebounce(b.Debounce))
	}
	req, err := gpiocdev.RequestLines(b.Chip, b.offsets, opts...)
	if err != nil {
		return fmt.Errorf("request lines %v on %s: %w", b.offsets, b.Chip, err)
	}
	b.req = req
	b.emitter.logger.Infof("buttons", "watching %d lines on %s", len(b.offsets), b.Chip)

	go func() {
		<-ctx.Done()
		_ = b.Stop()
	}()
	return nil
}

func (b *GPIOButtons) handle(evt gpiocdev.LineEvent) {
	if evt.Type != gpiocdev.LineEventFallingEdge {
		return
	}
	if ev, ok := b.byOffset[evt.Offset]; ok {
		b.emitter.emit(ev)
	}
}

func (b *GPIOButtons) Stop() error {
	var err error
	b.stopOnce.Do(func() {
		b.mu.Lock()
		req := b.req
		b.req = nil
		b.mu.Unlock()
		if req != nil {
			err = req.Close()
		}
		close(b.emitter.ch)
	})
	return err
}

func (b *GPIOButtons) Events() <-chan Event { return b.emitter.ch }

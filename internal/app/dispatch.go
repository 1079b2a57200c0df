package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/retroplayer/frontpanel/internal/buttons"
	"github.com/retroplayer/frontpanel/internal/panel"
	"github.com/retroplayer/frontpanel/internal/region"
	"github.com/retroplayer/frontpanel/internal/state"
)

const (
	ConnectionPriority = 4
	ButtonPriority     = 4
)

var ErrDispatcherClosed = errors.New("dispatcher closed")

type DispatcherOptions struct {
	FlashDuration   time.Duration
	PairingDuration time.Duration
	PairingPayload  string

	// OnDiscoverable asks the bluetooth adapter to start or stop pairing.
	OnDiscoverable func(ctx context.Context, on bool) error
}

// Dispatcher applies player facts and button presses to the panel.
// Timed messages run on their own goroutines; Close waits for them.
type Dispatcher struct {
	Logger Logger

	panel *panel.Panel
	store *state.Store
	opts  DispatcherOptions

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu            sync.Mutex
	closed        bool
	cancelPairing context.CancelFunc
}

func NewDispatcher(p *panel.Panel, store *state.Store, opts DispatcherOptions) *Dispatcher {
	if opts.FlashDuration <= 0 {
		opts.FlashDuration = 2 * time.Second
	}
	if opts.PairingDuration <= 0 {
		opts.PairingDuration = 30 * time.Second
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Dispatcher{
		Logger: NoopLogger{},
		panel:  p,
		store:  store,
		opts:   opts,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Handle applies one player fact. Drawing that does not take time happens
// before it returns; timed messages are started in the background.
func (d *Dispatcher) Handle(ctx context.Context, ev state.Event) error {
	if err := ev.Validate(); err != nil {
		return err
	}
	d.Logger.Infof("player", "%s on=%v value=%q alias=%q", ev.Kind, ev.On, ev.Value, ev.Alias)

	switch ev.Kind {
	case state.EventConnected:
		return d.connected(ctx, ev.On, ev.Alias)

	case state.EventState:
		if ev.Value != "idle" {
			return nil
		}
		d.store.SetPlayback(state.IDLE)
		return d.panel.ClearTrack(ctx)

	case state.EventTrack:
		track := ev.Track.Track()
		d.store.UpdateTrack(track)
		return d.panel.UpdateTrack(ctx, track)

	case state.EventStatus:
		playback := state.ParsePlayback(ev.Value)
		d.store.SetPlayback(playback)
		switch playback {
		case state.PAUSED:
			return d.panel.ClearTrack(ctx)
		case state.PLAYING:
			return d.panel.ShowTrack(ctx)
		}
		return nil

	case state.EventPosition:
		d.store.UpdatePosition(ev.Position())
		total := d.store.Snapshot().Track.Duration
		return d.panel.UpdatePosition(ctx, ev.Position(), total)

	case state.EventDiscoverable:
		d.store.SetDiscoverable(ev.On)
		return d.pairing(ev.On)

	case state.EventAlias:
		d.store.SetAlias(ev.Alias)
	}
	return nil
}

func (d *Dispatcher) connected(ctx context.Context, on bool, alias string) error {
	d.store.UpdateConnection(on, alias)
	alias = d.store.Snapshot().Connection.Alias

	err := d.panel.SetBluetooth(ctx, on)
	msg := "Connected"
	if !on {
		msg = "Disconnected"
		d.store.SetPlayback(state.IDLE)
		err = errors.Join(err, d.panel.ClearTrack(ctx))
	}
	if alias != "" {
		if on {
			msg += " to " + alias
		} else {
			msg += " from " + alias
		}
	}
	return errors.Join(err, d.Flash(msg, ConnectionPriority, d.opts.FlashDuration, region.Main))
}

// pairing announces the change and, while discoverable, shows the pairing
// QR code after the announcement. Turning pairing off cancels the code.
func (d *Dispatcher) pairing(on bool) error {
	d.mu.Lock()
	if d.cancelPairing != nil {
		d.cancelPairing()
		d.cancelPairing = nil
	}
	var ctx context.Context
	if on {
		ctx, d.cancelPairing = context.WithCancel(d.ctx)
	}
	d.mu.Unlock()

	if !on {
		return d.Flash("Pairing mode off.", panel.PairingPriority, d.opts.FlashDuration, region.Main)
	}
	return d.spawn("pairing", func(context.Context) error {
		_, err := d.panel.FlashMessage(ctx, "Pairing mode on.", panel.PairingPriority, d.opts.FlashDuration, region.Main)
		if ctx.Err() != nil {
			return err
		}
		_, qrErr := d.panel.ShowPairing(ctx, d.opts.PairingPayload, d.opts.PairingDuration)
		return errors.Join(err, qrErr)
	})
}

// HandleButton flashes the name of the pressed button. Preset 6 also puts
// the adapter into pairing mode.
func (d *Dispatcher) HandleButton(ctx context.Context, ev buttons.Event) error {
	d.Logger.Infof("buttons", "%s", ev)
	err := d.Flash(ButtonLabel(ev), ButtonPriority, d.opts.FlashDuration, region.Main)
	if ev == buttons.Preset6 && d.opts.OnDiscoverable != nil {
		if hookErr := d.opts.OnDiscoverable(ctx, true); hookErr != nil {
			err = errors.Join(err, fmt.Errorf("discoverable: %w", hookErr))
		}
	}
	return err
}

func ButtonLabel(ev buttons.Event) string {
	switch ev {
	case buttons.Band:
		return "Band"
	case buttons.SeekUp:
		return "Seek up"
	case buttons.SeekDown:
		return "Seek down"
	case buttons.Exit:
		return "Bye"
	}
	if n := ev.Preset(); n > 0 {
		return fmt.Sprintf("Preset %d", n)
	}
	return string(ev)
}

// Flash shows text in target for duration in the background. An unknown
// target is reported at once.
func (d *Dispatcher) Flash(text string, priority int, duration time.Duration, target string) error {
	if target == "" {
		target = region.Main
	}
	if _, err := d.panel.Tree().Region(target); err != nil {
		return err
	}
	if duration <= 0 {
		duration = d.opts.FlashDuration
	}
	return d.spawn("flash", func(ctx context.Context) error {
		_, err := d.panel.FlashMessage(ctx, text, priority, duration, target)
		return err
	})
}

// Welcome greets in the background.
func (d *Dispatcher) Welcome() error {
	return d.spawn("welcome", d.panel.Welcome)
}

func (d *Dispatcher) spawn(what string, fn func(ctx context.Context) error) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrDispatcherClosed
	}
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		if err := fn(d.ctx); err != nil {
			d.Logger.Errorf("player", "%s: %v", what, err)
		}
	}()
	return nil
}

// Close cancels running timed messages and waits for them to finish.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()
	d.cancel()
	d.wg.Wait()
}

// Wait blocks until every timed message started so far has finished.
func (d *Dispatcher) Wait() { d.wg.Wait() }

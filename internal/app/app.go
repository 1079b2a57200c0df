package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"golang.org/x/image/font"
	"periph.io/x/devices/v3/ssd1306/image1bit"

	"github.com/retroplayer/frontpanel/internal/assets"
	"github.com/retroplayer/frontpanel/internal/buttons"
	"github.com/retroplayer/frontpanel/internal/config"
	"github.com/retroplayer/frontpanel/internal/panel"
	"github.com/retroplayer/frontpanel/internal/region"
	"github.com/retroplayer/frontpanel/internal/render"
	"github.com/retroplayer/frontpanel/internal/state"
	"github.com/retroplayer/frontpanel/internal/system"
	"github.com/retroplayer/frontpanel/internal/web"
)

// App wires the display engine to its inputs: player facts, buttons and
// the optional web control surface.
type App struct {
	Store      *state.Store
	Sink       render.Sink
	Tree       *region.Tree
	Panel      *panel.Panel
	Dispatcher *Dispatcher
	Buttons    buttons.Buttons
	Web        web.Server
	Runner     system.Runner
	Logger     Logger

	alias    string
	exitOnce atomic.Bool
	exitCh   chan error
}

// New builds the region tree for cfg on a surface flushed to sink. A nil
// face selects the built-in glyphs.
func New(cfg config.Config, sink render.Sink, face font.Face, buttonDriver buttons.Buttons, logger Logger) (*App, error) {
	if logger == nil {
		logger = NoopLogger{}
	}
	if buttonDriver == nil {
		buttonDriver = buttons.NewNoopButtons()
	}

	surface := render.NewSurface(cfg.Display.Width, cfg.Display.Height, sink, face)
	glyph, err := assets.BluetoothGlyph()
	if err != nil {
		logger.Errorf("app", "bluetooth glyph unusable, drawing text: %v", err)
		glyph = nil
	}
	iconWidth := surface.GlyphWidth()
	if glyph != nil {
		iconWidth = glyph.Bounds().Dx()
	}

	tree, err := region.NewTree(surface, region.DefaultLayout(surface.Bounds(), surface.LineHeight(), surface.GlyphWidth(), iconWidth))
	if err != nil {
		return nil, fmt.Errorf("region layout: %w", err)
	}
	tree.PollInterval = cfg.Timing.PollInterval()
	tree.Logger = logger

	opts := panel.DefaultOptions()
	if len(cfg.Greetings) > 0 {
		opts.Greetings = cfg.Greetings
	}
	if d := cfg.Timing.Welcome(); d > 0 {
		opts.WelcomeDuration = d
	}
	if d := cfg.Timing.FlashWait(); d > 0 {
		opts.FlashWait = d
	}
	if cfg.Timing.ScrollSpeed > 0 {
		opts.ScrollSpeed = cfg.Timing.ScrollSpeed
	}
	opts.BluetoothGlyph = glyph
	p, err := panel.New(tree, opts)
	if err != nil {
		tree.Close()
		return nil, err
	}
	p.Logger = logger

	app := &App{
		Store:   state.NewStore(),
		Sink:    sink,
		Tree:    tree,
		Panel:   p,
		Buttons: buttonDriver,
		Runner:  system.NoopRunner{},
		Logger:  logger,
		alias:   cfg.Bluetooth.Name,
		exitCh:  make(chan error, 1),
	}
	app.Dispatcher = NewDispatcher(p, app.Store, DispatcherOptions{
		FlashDuration:   cfg.Timing.Flash(),
		PairingDuration: cfg.Timing.Pairing(),
		PairingPayload:  cfg.Bluetooth.Payload(),
		OnDiscoverable:  app.setDiscoverable,
	})
	app.Dispatcher.Logger = logger
	return app, nil
}

// setDiscoverable toggles pairing on the adapter. Pairable follows
// discoverable so a hidden adapter also refuses new pairings.
func (app *App) setDiscoverable(ctx context.Context, on bool) error {
	if err := system.SetPairable(ctx, app.Runner, on); err != nil {
		return err
	}
	return system.SetDiscoverable(ctx, app.Runner, on)
}

// Exit requests the app to stop running.
func (app *App) Exit(err error) {
	if app.exitCh == nil {
		return
	}
	if !app.exitOnce.CompareAndSwap(false, true) {
		return
	}
	select {
	case app.exitCh <- err:
	default:
	}
}

// Start opens the display, greets and then serves button presses and web
// requests until ctx is done or Exit is called.
func (app *App) Start(ctx context.Context) error {
	if app.exitCh == nil {
		app.exitCh = make(chan error, 1)
	}
	app.exitOnce.Store(false)

	if err := app.Sink.Open(ctx); err != nil {
		app.Logger.Errorf("sink", "open failed: %v", err)
		return fmt.Errorf("%w: %w", render.ErrDisplayUnavailable, err)
	}
	defer func() {
		if err := app.Sink.Close(); err != nil {
			app.Logger.Errorf("sink", "close: %v", err)
		}
	}()
	if err := app.Tree.Surface().Flush(); err != nil {
		app.Logger.Errorf("surface", "first flush: %v", err)
	}

	if app.alias != "" {
		if err := system.SetAlias(ctx, app.Runner, app.alias); err != nil {
			app.Logger.Errorf("bluetooth", "alias: %v", err)
		}
	}

	if app.Web != nil {
		if err := app.Web.Start(ctx); err != nil {
			app.Logger.Errorf("web", "start failed: %v", err)
		} else {
			defer func() { _ = app.Web.Stop() }()
		}
	}

	if err := app.Dispatcher.Welcome(); err != nil {
		app.Logger.Errorf("app", "welcome: %v", err)
	}

	loopCtx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup
	if err := app.Buttons.Start(loopCtx); err != nil {
		app.Logger.Errorf("buttons", "start failed: %v", err)
	} else {
		wg.Add(1)
		go func() {
			defer wg.Done()
			app.buttonLoop(loopCtx)
		}()
	}

	var err error
	select {
	case <-ctx.Done():
		err = ctx.Err()
	case err = <-app.exitCh:
	}
	cancel()
	_ = app.Buttons.Stop()
	wg.Wait()
	app.Dispatcher.Close()
	app.Tree.Close()
	return err
}

func (app *App) buttonLoop(ctx context.Context) {
	events := app.Buttons.Events()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if err := app.PressButton(ctx, ev); err != nil {
				app.Logger.Errorf("buttons", "%s: %v", ev, err)
			}
		}
	}
}

// The methods below make App the web.Controller.

func (app *App) Regions() []region.State { return app.Panel.Snapshot() }

func (app *App) Frame() *image1bit.VerticalLSB { return app.Tree.Surface().Snapshot() }

func (app *App) Player() state.State { return app.Store.Snapshot() }

func (app *App) HandleEvent(ctx context.Context, ev state.Event) error {
	return app.Dispatcher.Handle(ctx, ev)
}

func (app *App) PressButton(ctx context.Context, ev buttons.Event) error {
	if ev == buttons.Exit {
		app.Exit(nil)
		return nil
	}
	return app.Dispatcher.HandleButton(ctx, ev)
}

func (app *App) Flash(ctx context.Context, req web.FlashRequest) error {
	err := app.Dispatcher.Flash(req.Text, req.Priority, req.Duration(), req.Target)
	if errors.Is(err, region.ErrRegionNotFound) {
		return fmt.Errorf("%w: %q", err, req.Target)
	}
	return err
}

var _ web.Controller = (*App)(nil)

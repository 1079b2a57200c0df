package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gdamore/tcell/v2"

	"github.com/retroplayer/frontpanel/internal/app"
	"github.com/retroplayer/frontpanel/internal/buttons"
	"github.com/retroplayer/frontpanel/internal/config"
	"github.com/retroplayer/frontpanel/internal/render"
	"github.com/retroplayer/frontpanel/internal/system"
	"github.com/retroplayer/frontpanel/internal/web"
)

func main() {
	configPath := flag.String("config", envOr(config.EnvConfigPath, config.DefaultPath), "configuration file; also configurable via "+config.EnvConfigPath)
	debug := flag.Bool("debug", false, "enable debug logging to ./frontpanel-debug.log")
	sinkName := flag.String("sink", "", "display sink: ssd1305 | fbdev | terminal | none (overrides the config file)")
	listenAddr := flag.String("listen", "", "serve the control API on this address (overrides the config file)")
	writeConfig := flag.Bool("write-config", false, "write the effective configuration to the -config path and exit")
	stdioLog := flag.String("stdio-log", "", "redirect stdout+stderr (including panics) to this file; also configurable via FRONTPANEL_STDIO_LOG")
	flag.Parse()

	// Best-effort: redirect all stdout/stderr output (including panic stack traces)
	// to a file so crashes are diagnosable even when the console is left in graphics mode.
	logPath := *stdioLog
	if logPath == "" {
		logPath = os.Getenv("FRONTPANEL_STDIO_LOG")
	}
	if logPath != "" {
		if err := redirectStdIO(logPath); err != nil {
			fmt.Println("stdio log redirect error:", err)
		}
	}

	// Local file logger when debug enabled
	var logger app.Logger = app.NoopLogger{}
	if *debug {
		f, err := os.OpenFile("./frontpanel-debug.log", os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err == nil {
			defer f.Close()
			logger = app.NewFileLogger(f)
			logger.Infof("main", "debug logging enabled")
		} else {
			fmt.Println("debug log open error:", err)
		}
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Println("config error:", err)
		os.Exit(2)
	}
	if err := cfg.ApplyEnv(os.Getenv); err != nil {
		fmt.Println("config error:", err)
		os.Exit(2)
	}
	if *sinkName != "" {
		cfg.Display.Sink = *sinkName
	}
	if *listenAddr != "" {
		cfg.Web.Listen = *listenAddr
	}
	if err := cfg.Validate(); err != nil {
		fmt.Println("config error:", err)
		os.Exit(2)
	}
	if *writeConfig {
		if err := config.Save(*configPath, cfg); err != nil {
			fmt.Println("config error:", err)
			os.Exit(1)
		}
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var screen tcell.Screen
	if cfg.Display.Sink == config.SinkTerminal || cfg.Buttons.Source == config.ButtonsTerminal {
		screen, err = tcell.NewScreen()
		if err != nil {
			fmt.Println("terminal error:", err)
			os.Exit(1)
		}
	}

	sink := newSink(cfg, screen, logger)
	btns, err := newButtons(cfg, screen, logger)
	if err != nil {
		fmt.Println("buttons error:", err)
		os.Exit(2)
	}

	face := render.LoadFace(cfg.Display.FontPath, cfg.Display.FontSize, logger)
	a, err := app.New(cfg, sink, face, btns, logger)
	if err != nil {
		fmt.Println("app init error:", err)
		os.Exit(1)
	}
	a.Runner = system.ExecRunner{}

	if cfg.Web.Listen != "" {
		server := web.NewHTTPServer(web.ServerConfig{ListenAddr: cfg.Web.Listen, DevMode: cfg.Web.DevCORS}, a)
		server.Logger = logger
		a.Web = server
	}

	if cfg.Display.Sink == config.SinkFBDev {
		// Keep the kernel console from drawing over the panel and leave a
		// way out with F4 on an attached keyboard.
		restore := system.TakeConsole(logger)
		defer restore()
		system.StartExitOnF4(ctx, logger, func() { a.Exit(nil) })
	}

	if err := a.Start(ctx); err != nil && ctx.Err() == nil {
		logger.Errorf("main", "app stopped: %v", err)
		fmt.Println("app error:", err)
		os.Exit(1)
	}
}

func newSink(cfg config.Config, screen tcell.Screen, logger app.Logger) render.Sink {
	d := cfg.Display
	switch d.Sink {
	case config.SinkSSD1305:
		return &render.SSD1305Sink{
			SPIPort:  d.SPIPort,
			DCPin:    d.DCPin,
			ResetPin: d.ResetPin,
			Width:    d.Width,
			Height:   d.Height,
			Logger:   logger,
		}
	case config.SinkFBDev:
		s := render.NewFBSink(d.FBDevice)
		s.Logger = logger
		return s
	case config.SinkTerminal:
		return &render.TerminalSink{Screen: screen, Logger: logger}
	default:
		return render.DiscardSink{}
	}
}

func newButtons(cfg config.Config, screen tcell.Screen, logger app.Logger) (buttons.Buttons, error) {
	b := cfg.Buttons
	switch b.Source {
	case config.ButtonsGPIO:
		return buttons.NewGPIOButtons(b.Chip, b.Lines, b.Debounce(), logger)
	case config.ButtonsEvdev:
		return buttons.NewEvdevButtons(logger), nil
	case config.ButtonsTerminal:
		if cfg.Display.Sink != config.SinkTerminal {
			return nil, fmt.Errorf("terminal buttons need the terminal sink")
		}
		return buttons.NewTerminalButtons(screen, logger), nil
	default:
		return buttons.NewNoopButtons(), nil
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

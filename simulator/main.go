package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/retroplayer/frontpanel/internal/app"
	"github.com/retroplayer/frontpanel/internal/buttons"
	"github.com/retroplayer/frontpanel/internal/config"
	"github.com/retroplayer/frontpanel/internal/render"
	"github.com/retroplayer/frontpanel/internal/web"
)

func main() {
	defaults, err := web.DefaultServerConfigFromEnv(":8080")
	if err != nil {
		fmt.Println("server config error:", err)
		os.Exit(2)
	}

	listenAddr := flag.String("listen", defaults.ListenAddr, "http listen address; also configurable via "+config.EnvListenAddr)
	devMode := flag.Bool("dev", defaults.DevMode, "enable dev mode; also configurable via "+config.EnvDevMode)
	staticDir := flag.String("static-dir", "", "serve static UI from this directory (optional); when empty, embedded web UI assets are served")
	configPath := flag.String("config", "", "frontpanel.toml to take layout, timing and greetings from")
	scenario := flag.String("scenario", "playing", "simulated player scenario: playing | paused | idle | pairing")
	terminal := flag.Bool("terminal", false, "also draw the panel in this terminal and read keys as buttons")
	debugLog := flag.String("debug-log", "", "write debug logging to this file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Println("config error:", err)
		os.Exit(2)
	}

	var logger app.Logger = app.NoopLogger{}
	if *debugLog != "" {
		f, err := os.OpenFile(*debugLog, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			fmt.Println("debug log open error:", err)
			os.Exit(2)
		}
		defer f.Close()
		logger = app.NewFileLogger(f)
	}

	processCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// The terminal, when used, belongs to tcell; everything else reports
	// through the web UI and the debug log.
	sink := &faultySink{Sink: render.NewMemorySink()}
	var btns buttons.Buttons = buttons.NewNoopButtons()
	if *terminal {
		screen, err := tcell.NewScreen()
		if err != nil {
			fmt.Println("terminal error:", err)
			os.Exit(2)
		}
		sink.Sink = &render.TerminalSink{Screen: screen, Logger: logger}
		btns = buttons.NewTerminalButtons(screen, logger)
	}

	face := render.LoadFace(cfg.Display.FontPath, cfg.Display.FontSize, logger)
	a, err := app.New(cfg, sink, face, btns, logger)
	if err != nil {
		fmt.Println("app init error:", err)
		os.Exit(1)
	}

	control := NewSimControl(processCtx, a, sink, *scenario)
	server := web.NewHTTPServer(web.ServerConfig{ListenAddr: *listenAddr, DevMode: *devMode}, a)
	server.StaticDir = *staticDir
	server.Logger = logger
	server.Routes = func(mux *http.ServeMux) { registerSimEndpoints(mux, control) }
	a.Web = server

	if !*terminal {
		fmt.Println("Frontpanel simulator listening on", server.Addr)
		fmt.Println("Scenario:", *scenario)
		fmt.Println("Panel: http://" + trimLeadingColon(server.Addr) + "/")
	}

	// The player connects once the greeting is over, as on the device.
	time.AfterFunc(cfg.Timing.Welcome(), func() {
		if err := control.ApplyScenario(*scenario); err != nil {
			logger.Errorf("sim", "scenario %s: %v", *scenario, err)
		}
	})

	if err := a.Start(processCtx); err != nil && processCtx.Err() == nil {
		fmt.Println("simulator error:", err)
		os.Exit(1)
	}
}

func trimLeadingColon(addr string) string {
	// Best-effort for display; don't attempt full URL parsing here.
	if len(addr) > 0 && addr[0] == ':' {
		return "127.0.0.1" + addr
	}
	if addr == "" {
		return "127.0.0.1:8080"
	}
	return addr
}

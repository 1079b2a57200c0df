package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Display.Width != 128 || cfg.Display.Height != 64 {
		t.Errorf("size = %dx%d, want 128x64", cfg.Display.Width, cfg.Display.Height)
	}
	if cfg.Timing.PollInterval() != 100*time.Millisecond {
		t.Errorf("PollInterval = %v", cfg.Timing.PollInterval())
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "frontpanel.toml")
	data := `
greetings = ["Morning"]

[display]
sink = "terminal"
height = 32

[timing]
flash_ms = 500

[buttons]
source = "gpio"
lines = { band = 17, "preset-6" = 27 }
`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Display.Sink != SinkTerminal || cfg.Display.Height != 32 || cfg.Display.Width != 128 {
		t.Errorf("display = %+v", cfg.Display)
	}
	if cfg.Timing.Flash() != 500*time.Millisecond || cfg.Timing.WelcomeMs != 3000 {
		t.Errorf("timing = %+v", cfg.Timing)
	}
	if len(cfg.Greetings) != 1 || cfg.Greetings[0] != "Morning" {
		t.Errorf("greetings = %v", cfg.Greetings)
	}
	if cfg.Buttons.Lines["preset-6"] != 27 || cfg.Buttons.Lines["band"] != 17 {
		t.Errorf("lines = %v", cfg.Buttons.Lines)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	cases := map[string]string{
		"syntax":  "[display\nwidth = 1",
		"sink":    "[display]\nsink = \"hdmi\"",
		"size":    "[display]\nwidth = 0",
		"buttons": "[buttons]\nsource = \"usb\"",
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "bad.toml")
			if err := os.WriteFile(path, []byte(data), 0644); err != nil {
				t.Fatal(err)
			}
			_, err := Load(path)
			if err == nil {
				t.Fatal("Load accepted invalid config")
			}
			if !strings.Contains(err.Error(), path) {
				t.Errorf("err = %v, want it to name %s", err, path)
			}
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.toml")
	cfg := Default()
	cfg.Bluetooth.Name = "Kitchen"
	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Bluetooth.Name != "Kitchen" || got.Bluetooth.Payload() != "BT:Kitchen" {
		t.Errorf("bluetooth = %+v", got.Bluetooth)
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{"FRONTPANEL_SINK": "none", "FRONTPANEL_LISTEN": ":9000", "FRONTPANEL_DEV": "true"}
	cfg := Default()
	if err := cfg.ApplyEnv(func(k string) string { return env[k] }); err != nil {
		t.Fatalf("ApplyEnv: %v", err)
	}
	if cfg.Display.Sink != SinkNone || cfg.Web.Listen != ":9000" || !cfg.Web.DevCORS {
		t.Errorf("cfg = %+v / %+v", cfg.Display, cfg.Web)
	}

	env["FRONTPANEL_DEV"] = "maybe"
	if err := cfg.ApplyEnv(func(k string) string { return env[k] }); err == nil {
		t.Error("non-boolean FRONTPANEL_DEV accepted")
	}
}

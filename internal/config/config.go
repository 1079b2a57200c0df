package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/pelletier/go-toml/v2"
)

const (
	EnvConfigPath = "FRONTPANEL_CONFIG"
	EnvSink       = "FRONTPANEL_SINK"
	EnvListenAddr = "FRONTPANEL_LISTEN"
	EnvDevMode    = "FRONTPANEL_DEV"

	DefaultPath = "/etc/frontpanel.toml"
)

// Sink names accepted in [display] sink.
const (
	SinkSSD1305  = "ssd1305"
	SinkFBDev    = "fbdev"
	SinkTerminal = "terminal"
	SinkNone     = "none"
)

// Button sources accepted in [buttons] source.
const (
	ButtonsNone     = "none"
	ButtonsGPIO     = "gpio"
	ButtonsTerminal = "terminal"
	ButtonsEvdev    = "evdev"
)

// Config represents the frontpanel.toml configuration file
type Config struct {
	Display   DisplayConfig   `toml:"display"`
	Timing    TimingConfig    `toml:"timing"`
	Greetings []string        `toml:"greetings"`
	Bluetooth BluetoothConfig `toml:"bluetooth"`
	Buttons   ButtonsConfig   `toml:"buttons"`
	Web       WebConfig       `toml:"web"`
}

type DisplayConfig struct {
	Width  int    `toml:"width"`
	Height int    `toml:"height"`
	Sink   string `toml:"sink"`

	// SSD1305 wiring, periph names
	SPIPort  string `toml:"spi_port"`
	DCPin    string `toml:"dc_pin"`
	ResetPin string `toml:"reset_pin"`

	FBDevice string `toml:"fb_device"`

	// Empty font path selects the built-in 7x13 glyphs
	FontPath string  `toml:"font_path"`
	FontSize float64 `toml:"font_size"`
}

type TimingConfig struct {
	PollIntervalMs int     `toml:"poll_interval_ms"`
	ScrollSpeed    float64 `toml:"scroll_speed"`
	WelcomeMs      int     `toml:"welcome_ms"`
	FlashMs        int     `toml:"flash_ms"`
	FlashWaitMs    int     `toml:"flash_wait_ms"`
	PairingMs      int     `toml:"pairing_ms"`
}

func (t TimingConfig) PollInterval() time.Duration { return ms(t.PollIntervalMs) }
func (t TimingConfig) Welcome() time.Duration      { return ms(t.WelcomeMs) }
func (t TimingConfig) Flash() time.Duration        { return ms(t.FlashMs) }
func (t TimingConfig) FlashWait() time.Duration    { return ms(t.FlashWaitMs) }
func (t TimingConfig) Pairing() time.Duration      { return ms(t.PairingMs) }

type BluetoothConfig struct {
	// Name is the adapter alias advertised while pairing
	Name string `toml:"name"`
	// PairingPayload is encoded in the pairing QR; defaults to "BT:<name>"
	PairingPayload string `toml:"pairing_payload"`
}

func (b BluetoothConfig) Payload() string {
	if b.PairingPayload != "" {
		return b.PairingPayload
	}
	return "BT:" + b.Name
}

type ButtonsConfig struct {
	Source     string         `toml:"source"`
	Chip       string         `toml:"chip"`
	Lines      map[string]int `toml:"lines"`
	DebounceMs int            `toml:"debounce_ms"`
}

func (b ButtonsConfig) Debounce() time.Duration { return ms(b.DebounceMs) }

type WebConfig struct {
	Listen  string `toml:"listen"`
	DevCORS bool   `toml:"dev_cors"`
}

// Default returns the configuration of the 128x64 SSD1305 panel
func Default() Config {
	return Config{
		Display: DisplayConfig{
			Width:    128,
			Height:   64,
			Sink:     SinkSSD1305,
			SPIPort:  "SPI0.0",
			DCPin:    "GPIO24",
			ResetPin: "GPIO25",
			FBDevice: "/dev/fb0",
			FontSize: 10,
		},
		Timing: TimingConfig{
			PollIntervalMs: 100,
			ScrollSpeed:    4,
			WelcomeMs:      3000,
			FlashMs:        2000,
			FlashWaitMs:    1000,
			PairingMs:      30000,
		},
		Greetings: []string{"Howdy Jim", "Hey handsome", "Hello Jim", "Welcome Jim"},
		Bluetooth: BluetoothConfig{Name: "RetroPlayer"},
		Buttons: ButtonsConfig{
			Source:     ButtonsNone,
			Chip:       "gpiochip0",
			DebounceMs: 20,
		},
	}
}

// Load reads the configuration at path on top of the defaults.
// A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("failed to read %s: %w", path, err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg Config) error {
	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	return nil
}

func (c Config) Validate() error {
	if c.Display.Width <= 0 || c.Display.Height <= 0 {
		return fmt.Errorf("display size %dx%d must be positive", c.Display.Width, c.Display.Height)
	}
	switch c.Display.Sink {
	case SinkSSD1305, SinkFBDev, SinkTerminal, SinkNone:
	default:
		return fmt.Errorf("unknown display sink %q", c.Display.Sink)
	}
	switch c.Buttons.Source {
	case ButtonsNone, ButtonsGPIO, ButtonsTerminal, ButtonsEvdev:
	default:
		return fmt.Errorf("unknown button source %q", c.Buttons.Source)
	}
	if c.Timing.ScrollSpeed < 0 {
		return fmt.Errorf("scroll speed %v must not be negative", c.Timing.ScrollSpeed)
	}
	return nil
}

// ApplyEnv overrides fields from the environment. getenv is usually
// os.Getenv.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	if sink := getenv(EnvSink); sink != "" {
		c.Display.Sink = sink
	}
	if addr := getenv(EnvListenAddr); addr != "" {
		c.Web.Listen = addr
	}
	if raw := getenv(EnvDevMode); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			return fmt.Errorf("%s must be a boolean (got %q): %w", EnvDevMode, raw, err)
		}
		c.Web.DevCORS = parsed
	}
	return c.Validate()
}

func ms(v int) time.Duration { return time.Duration(v) * time.Millisecond }

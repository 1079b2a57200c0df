package web

import (
	"context"
	"errors"
	"time"

	"periph.io/x/devices/v3/ssd1306/image1bit"

	"github.com/retroplayer/frontpanel/internal/buttons"
	"github.com/retroplayer/frontpanel/internal/region"
	"github.com/retroplayer/frontpanel/internal/state"
)

// Controller is what the API drives. The device binary and the simulator
// both pass their *app.App.
type Controller interface {
	Regions() []region.State
	Frame() *image1bit.VerticalLSB
	Player() state.State
	HandleEvent(ctx context.Context, ev state.Event) error
	PressButton(ctx context.Context, ev buttons.Event) error
	Flash(ctx context.Context, req FlashRequest) error
}

type FlashRequest struct {
	Text       string `json:"text"`
	Priority   int    `json:"priority"`
	DurationMs int    `json:"durationMs"`
	Target     string `json:"target"`
}

func (f FlashRequest) Duration() time.Duration {
	return time.Duration(f.DurationMs) * time.Millisecond
}

var errNotConfigured = errors.New("display not configured")

// NoopController answers every request as unconfigured; it keeps the
// server usable before the app is wired.
type NoopController struct{}

func (NoopController) Regions() []region.State       { return nil }
func (NoopController) Frame() *image1bit.VerticalLSB { return nil }
func (NoopController) Player() state.State           { return state.State{} }

func (NoopController) HandleEvent(context.Context, state.Event) error {
	return errNotConfigured
}

func (NoopController) PressButton(context.Context, buttons.Event) error {
	return errNotConfigured
}

func (NoopController) Flash(context.Context, FlashRequest) error {
	return errNotConfigured
}

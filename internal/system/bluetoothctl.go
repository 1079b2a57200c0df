package system

import (
	"context"
	"fmt"
	"strings"
)

const bluetoothctl = "bluetoothctl"

// SetDiscoverable makes the adapter visible for pairing, or hides it.
func SetDiscoverable(ctx context.Context, r Runner, on bool) error {
	return bluetooth(ctx, r, "discoverable", onOff(on))
}

// SetPairable allows or refuses new pairings.
func SetPairable(ctx context.Context, r Runner, on bool) error {
	return bluetooth(ctx, r, "pairable", onOff(on))
}

// SetAlias changes the name the adapter advertises.
func SetAlias(ctx context.Context, r Runner, alias string) error {
	if strings.TrimSpace(alias) == "" {
		return fmt.Errorf("bluetooth alias must not be empty")
	}
	return bluetooth(ctx, r, "system-alias", alias)
}

func bluetooth(ctx context.Context, r Runner, args ...string) error {
	_, stderr, err := r.Run(ctx, bluetoothctl, args...)
	if err != nil {
		return fmt.Errorf("%s %s failed: %w: %s", bluetoothctl, strings.Join(args, " "), err, strings.TrimSpace(stderr))
	}
	return nil
}

func onOff(on bool) string {
	if on {
		return "on"
	}
	return "off"
}

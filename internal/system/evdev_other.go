//go:build !linux

package system

import "context"

// WatchKeys is a no-op outside Linux.
func WatchKeys(ctx context.Context, l logger, onKey func(code uint16)) {
	if l != nil {
		l.Infof("input", "evdev not supported on this platform")
	}
}

func StartExitOnF4(ctx context.Context, l logger, onExit func()) {}

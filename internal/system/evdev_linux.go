//go:build linux

package system

import (
	"context"
	"encoding/binary"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/sys/unix"
)

// WatchKeys reads every /dev/input/event* device and calls onKey with the
// code of each key press until ctx is done. onKey may be called from
// several goroutines at once.
//
// It is best-effort: if no input devices are available, it logs and returns.
func WatchKeys(ctx context.Context, l logger, onKey func(code uint16)) {
	if onKey == nil {
		return
	}

	// input_event = timeval + u16 type + u16 code + s32 value.
	tvSize := int(binary.Size(unix.Timeval{}))

	paths, err := filepath.Glob("/dev/input/event*")
	if err != nil || len(paths) == 0 {
		if l != nil {
			l.Infof("input", "no evdev devices found")
		}
		return
	}

	for _, path := range paths {
		go watchDevice(ctx, path, tvSize, onKey)
	}
}

func watchDevice(ctx context.Context, path string, tvSize int, onKey func(uint16)) {
	fd, err := unix.Open(path, unix.O_RDONLY|unix.O_NONBLOCK, 0)
	if err != nil {
		return
	}
	f := os.NewFile(uintptr(fd), path)
	defer func() {
		_ = f.Close()
	}()

	buf := make([]byte, 4096)
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		pollFds := []unix.PollFd{{Fd: int32(fd), Events: unix.POLLIN}}
		if _, err := unix.Poll(pollFds, 250); err != nil {
			if err == unix.EINTR {
				continue
			}
			// Device might have gone away.
			return
		}
		if pollFds[0].Revents&unix.POLLIN == 0 {
			continue
		}

		n, err := unix.Read(fd, buf)
		if err != nil {
			if err == unix.EAGAIN || err == unix.EINTR {
				continue
			}
			return
		}
		for _, code := range parseKeyPresses(buf[:n], tvSize) {
			onKey(code)
		}
	}
}

// StartExitOnF4 invokes onExit once when F4 is pressed on any keyboard.
func StartExitOnF4(ctx context.Context, l logger, onExit func()) {
	if onExit == nil {
		return
	}
	var once sync.Once
	WatchKeys(ctx, l, func(code uint16) {
		if code != KeyF4 {
			return
		}
		once.Do(func() {
			if l != nil {
				l.Infof("input", "F4 pressed: exiting")
			}
			onExit()
		})
	})
}

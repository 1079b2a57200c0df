package system

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// KD console modes from linux/kd.h
const (
	kdText     = 0x00
	kdGraphics = 0x01
	kdSetMode  = 0x4B3A // KDSETMODE ioctl
)

var consolePaths = []string{"/dev/tty", "/dev/tty0"}

type logger interface {
	Infof(string, string, ...interface{})
	Errorf(string, string, ...interface{})
}

// TakeConsole switches the active VT to graphics mode and hides the
// cursor so the kernel console does not draw over the framebuffer. The
// returned func puts the console back; it is safe to call when taking the
// console failed.
func TakeConsole(l logger) (restore func()) {
	if err := setConsoleMode(kdGraphics); err != nil {
		logf(l, true, "KD_GRAPHICS failed: %v", err)
	} else {
		logf(l, false, "KD_GRAPHICS set")
	}
	if err := writeVT("\x1b[?25l"); err != nil {
		logf(l, true, "hide cursor failed: %v", err)
	}
	return func() {
		if err := writeVT("\x1b[?25h"); err != nil {
			logf(l, true, "show cursor failed: %v", err)
		}
		if err := setConsoleMode(kdText); err != nil {
			logf(l, true, "KD_TEXT failed: %v", err)
		} else {
			logf(l, false, "KD_TEXT set")
		}
	}
}

func setConsoleMode(mode int) error {
	var errs []error
	for _, p := range consolePaths {
		fd, err := unix.Open(p, unix.O_RDONLY, 0)
		if err != nil {
			errs = append(errs, fmt.Errorf("open %s: %w", p, err))
			continue
		}
		err = unix.IoctlSetInt(fd, kdSetMode, mode)
		unix.Close(fd)
		if err != nil {
			errs = append(errs, fmt.Errorf("KDSETMODE %d on %s: %w", mode, p, err))
			continue
		}
		return nil
	}
	return errors.Join(errs...)
}

func writeVT(s string) error {
	var errs []error
	for _, p := range consolePaths {
		f, err := os.OpenFile(p, os.O_WRONLY, 0)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		_, err = f.WriteString(s)
		f.Close()
		if err == nil {
			return nil
		}
		errs = append(errs, err)
	}
	return fmt.Errorf("write VT failed: %w", errors.Join(errs...))
}

func logf(l logger, isErr bool, format string, args ...interface{}) {
	if l == nil {
		return
	}
	if isErr {
		l.Errorf("tty", format, args...)
		return
	}
	l.Infof("tty", format, args...)
}

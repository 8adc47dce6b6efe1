//go:build !linux

package gpio

import (
	"errors"
	"time"
)

var errUnsupported = errors.New("gpio: not supported on this platform (requires Linux)")

// RealWatcher is not available on non-Linux platforms.
type RealWatcher struct{}

// NewRealWatcher returns an error on non-Linux platforms.
func NewRealWatcher(chip string, pin int, clock func() time.Time, handler EdgeHandler) (*RealWatcher, error) {
	return nil, errUnsupported
}

// Close is not implemented on non-Linux platforms.
func (w *RealWatcher) Close() error { return nil }

// RealLED is not available on non-Linux platforms.
type RealLED struct{}

// NewRealLED returns an error on non-Linux platforms.
func NewRealLED(chip string, pin int) (*RealLED, error) {
	return nil, errUnsupported
}

// Blink is not implemented on non-Linux platforms.
func (l *RealLED) Blink(time.Duration) {}

// Close is not implemented on non-Linux platforms.
func (l *RealLED) Close() error { return nil }

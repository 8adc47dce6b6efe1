// Package gpio provides the hardware boundary: edge events from the input line
// and an indicator LED.
// The real implementation uses the Linux GPIO character device.
// The fake implementation allows testing without hardware.
package gpio

import (
	"time"

	"github.com/graze/signal-counter/internal/logic"
)

// EdgeHandler receives every raw transition on the input line.
// It is called from the line's event goroutine.
type EdgeHandler func(logic.RawEdge)

// Watcher delivers edges to its handler until closed.
type Watcher interface {
	Close() error
}

// Indicator drives an output high for a while. Blink never blocks and never
// fails the caller; errors are logged.
type Indicator interface {
	Blink(d time.Duration)
	Close() error
}

// Defaults (BCM numbering). Pin 17 and 27 are wiringPi pins 0 and 2.
const (
	DefaultChip   = "gpiochip0"
	DefaultPinIn  = 17
	DefaultPinLED = 27
)

// NoopIndicator is used when no LED is wired.
type NoopIndicator struct{}

// Blink does nothing.
func (NoopIndicator) Blink(time.Duration) {}

// Close does nothing.
func (NoopIndicator) Close() error { return nil }

// StartupPattern blinks n times with the given on/off period, in the background.
func StartupPattern(ind Indicator, n int, period time.Duration) {
	go func() {
		for i := 0; i < n; i++ {
			ind.Blink(period)
			time.Sleep(2 * period)
		}
	}()
}

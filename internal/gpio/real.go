//go:build linux

package gpio

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/warthog618/go-gpiocdev"

	"github.com/graze/signal-counter/internal/logic"
)

// RealWatcher watches the input line using the Linux GPIO character device.
type RealWatcher struct {
	line *gpiocdev.Line
}

// NewRealWatcher requests the input pin with both-edge detection and calls
// handler for each edge. Debounce intervals use the kernel's monotonic event
// timestamp; clock is read on arrival for the recorded wall time only.
func NewRealWatcher(chip string, pin int, clock func() time.Time, handler EdgeHandler) (*RealWatcher, error) {
	// Pull-down keeps the line from floating between pulses.
	line, err := gpiocdev.RequestLine(chip, pin,
		gpiocdev.AsInput,
		gpiocdev.WithPullDown,
		gpiocdev.WithBothEdges,
		gpiocdev.WithMonotonicEventClock,
		gpiocdev.WithEventHandler(func(evt gpiocdev.LineEvent) {
			if edge, ok := edgeFromEvent(evt, clock()); ok {
				handler(edge)
			}
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("request input pin %d: %w", pin, err)
	}
	return &RealWatcher{line: line}, nil
}

// edgeFromEvent converts a line event. Events queued behind a slow handler
// arrive late, so now is only good for the wall time of the record.
func edgeFromEvent(evt gpiocdev.LineEvent, now time.Time) (logic.RawEdge, bool) {
	switch evt.Type {
	case gpiocdev.LineEventRisingEdge:
		return logic.KernelEdge(now, evt.Timestamp, logic.Rising), true
	case gpiocdev.LineEventFallingEdge:
		return logic.KernelEdge(now, evt.Timestamp, logic.Falling), true
	}
	return logic.RawEdge{}, false
}

// Close stops edge delivery and releases the line.
// Reconfigures the pin to input with pull-down (matching Pi boot defaults)
// before closing.
func (w *RealWatcher) Close() error {
	var errs []error
	if err := w.line.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown); err != nil {
		errs = append(errs, fmt.Errorf("reconfigure input pin: %w", err))
	}
	if err := w.line.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close input pin: %w", err))
	}
	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}

// RealLED drives the indicator output line.
type RealLED struct {
	line *gpiocdev.Line
	mu   sync.Mutex // one blink at a time
}

// NewRealLED requests the pin as an output, initially low.
func NewRealLED(chip string, pin int) (*RealLED, error) {
	line, err := gpiocdev.RequestLine(chip, pin, gpiocdev.AsOutput(0))
	if err != nil {
		return nil, fmt.Errorf("request LED pin %d: %w", pin, err)
	}
	return &RealLED{line: line}, nil
}

// Blink drives the LED high for d in a background goroutine.
func (l *RealLED) Blink(d time.Duration) {
	go func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		if err := l.line.SetValue(1); err != nil {
			log.Printf("gpio: led on: %v", err)
			return
		}
		time.Sleep(d)
		if err := l.line.SetValue(0); err != nil {
			log.Printf("gpio: led off: %v", err)
		}
	}()
}

// Close turns the LED off and returns the pin to input with pull-down.
func (l *RealLED) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	var errs []error
	if err := l.line.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown); err != nil {
		errs = append(errs, fmt.Errorf("reconfigure LED pin: %w", err))
	}
	if err := l.line.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close LED pin: %w", err))
	}
	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}

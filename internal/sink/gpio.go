package sink

import (
	"errors"
	"sync"

	"go.uber.org/zap"
)

// ErrGPIOUnsupported is returned by OpenGPIO on platforms without the Linux
// GPIO character device.
var ErrGPIOUnsupported = errors.New("gpio: not supported on this platform (requires Linux)")

// DefaultGPIOConsumer labels the requested line in the kernel.
const DefaultGPIOConsumer = "multivibrator"

// GPIOOptions configures the GPIO sink.
type GPIOOptions struct {
	// Chip is the GPIO chip name, e.g. gpiochip0.
	Chip string `yaml:"chip"`
	// Line is the line offset on the chip.
	Line int `yaml:"line"`
	// ActiveLow drives the physical line low for a true level.
	ActiveLow bool `yaml:"active_low"`
}

// lineWriter is the part of a requested GPIO line the sink needs.
type lineWriter interface {
	SetValue(value int) error
	Close() error
}

// GPIO drives a hardware output line with the level.
type GPIO struct {
	// mu serializes writes to the line.
	mu sync.Mutex
	// line is the requested output line.
	line lineWriter
	// activeLow inverts the physical level.
	activeLow bool
	// value is the last logical level.
	value bool
	// log reports write failures.
	log *zap.SugaredLogger
}

func newGPIO(line lineWriter, opts GPIOOptions, initial bool, log *zap.SugaredLogger) *GPIO {
	return &GPIO{
		line:      line,
		activeLow: opts.ActiveLow,
		value:     initial,
		log:       log,
	}
}

// Read returns the last logical level.
func (g *GPIO) Read() bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.value
}

// Publish writes the level to the line. Write errors are logged.
func (g *GPIO) Publish(value bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.value = value

	if err := g.line.SetValue(g.raw(value)); err != nil {
		g.log.Warnw("GPIO write failed", "value", value, "error", err)
	}
}

// Close drives the line inactive and releases it.
func (g *GPIO) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	var errs []error

	if err := g.line.SetValue(g.raw(false)); err != nil {
		errs = append(errs, err)
	}

	if err := g.line.Close(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// raw converts a logical level to the physical line value.
func (g *GPIO) raw(value bool) int {
	if value != g.activeLow {
		return 1
	}

	return 0
}

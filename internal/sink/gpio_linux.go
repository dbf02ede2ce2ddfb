//go:build linux

package sink

import (
	"context"
	"fmt"

	"github.com/warthog618/go-gpiocdev"

	"github.com/oshokin/multivibrator/internal/logger"
)

// OpenGPIO requests the configured line as an output driven to initial.
func OpenGPIO(ctx context.Context, opts GPIOOptions, initial bool) (*GPIO, error) {
	g := newGPIO(nil, opts, initial, logger.FromContext(ctx).Named("gpio"))

	line, err := gpiocdev.RequestLine(
		opts.Chip,
		opts.Line,
		gpiocdev.AsOutput(g.raw(initial)),
		gpiocdev.WithConsumer(DefaultGPIOConsumer),
	)
	if err != nil {
		return nil, fmt.Errorf("request %s line %d: %w", opts.Chip, opts.Line, err)
	}

	g.line = line

	logger.InfoKV(ctx, "GPIO output line requested", "chip", opts.Chip, "line", opts.Line, "active_low", opts.ActiveLow)

	return g, nil
}

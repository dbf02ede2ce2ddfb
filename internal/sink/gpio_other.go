//go:build !linux

package sink

import "context"

// OpenGPIO is not available outside Linux.
func OpenGPIO(_ context.Context, _ GPIOOptions, _ bool) (*GPIO, error) {
	return nil, ErrGPIOUnsupported
}

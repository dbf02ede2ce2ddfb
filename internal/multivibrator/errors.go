package multivibrator

import "errors"

var (
	// ErrInvalidConfiguration is returned by New and Resolve for unusable timing
	// parameters or an unknown mode.
	ErrInvalidConfiguration = errors.New("invalid multivibrator configuration")
	// ErrInvalidMode is returned by SetMode for unknown modes.
	ErrInvalidMode = errors.New("invalid mode")
	// ErrIncompatibleSink is returned by SetOutput when the value cannot serve
	// as an output; the previous sink stays bound.
	ErrIncompatibleSink = errors.New("incompatible sink")
	// ErrTerminated is returned by Start after Kill.
	ErrTerminated = errors.New("multivibrator terminated")
	// ErrAlreadyStarted is returned by a second Start.
	ErrAlreadyStarted = errors.New("multivibrator already started")
	// ErrSchedulerFault wraps a panic recovered inside the scheduler.
	ErrSchedulerFault = errors.New("scheduler fault")
)

package multivibrator

import (
	"fmt"
	"math"
	"time"

	domain "github.com/oshokin/multivibrator/internal/domain/multivibrator"
)

// DefaultPeriod is used when neither a period nor a frequency is configured.
const DefaultPeriod = time.Second

// Config is the construction-time configuration. Nil pointers mean "not set".
type Config struct {
	// InitState is the output before the first transition.
	InitState bool `yaml:"init_state"`
	// Mode is the initial operating mode.
	Mode domain.Mode `yaml:"mode"`
	// Frequency in hertz. Ignored when Period is set.
	Frequency *float64 `yaml:"frequency,omitempty"`
	// Period is the monostable pulse width and the default astable cycle.
	Period *time.Duration `yaml:"period,omitempty"`
	// OnTime and OffTime override the astable high and low phases.
	// They must be set together.
	OnTime  *time.Duration `yaml:"on_time,omitempty"`
	OffTime *time.Duration `yaml:"off_time,omitempty"`
}

// Timing holds the resolved durations used by the scheduler.
type Timing struct {
	// Period is the monostable pulse width.
	Period time.Duration
	// On is the astable high phase.
	On time.Duration
	// Off is the astable low phase.
	Off time.Duration
}

// Ptr returns a pointer to v, handy for the optional Config fields.
func Ptr[T any](v T) *T {
	return &v
}

// Resolve turns cfg into positive scheduler durations.
func Resolve(cfg Config) (Timing, error) {
	period, err := resolvePeriod(cfg.Frequency, cfg.Period)
	if err != nil {
		return Timing{}, err
	}

	timing := Timing{
		Period: period,
		On:     period / 2,
		Off:    period / 2,
	}

	switch {
	case cfg.OnTime != nil && cfg.OffTime != nil:
		if *cfg.OnTime <= 0 || *cfg.OffTime <= 0 {
			return Timing{}, fmt.Errorf("%w: on/off times must be positive, got %s/%s",
				ErrInvalidConfiguration, *cfg.OnTime, *cfg.OffTime)
		}

		timing.On, timing.Off = *cfg.OnTime, *cfg.OffTime
	case cfg.OnTime != nil || cfg.OffTime != nil:
		return Timing{}, fmt.Errorf("%w: on and off times must be set together", ErrInvalidConfiguration)
	}

	if timing.On <= 0 || timing.Off <= 0 {
		return Timing{}, fmt.Errorf("%w: period %s is too short to split into phases",
			ErrInvalidConfiguration, period)
	}

	return timing, nil
}

func resolvePeriod(frequency *float64, period *time.Duration) (time.Duration, error) {
	if period != nil {
		if *period <= 0 {
			return 0, fmt.Errorf("%w: period must be positive, got %s", ErrInvalidConfiguration, *period)
		}

		return *period, nil
	}

	if frequency == nil {
		return DefaultPeriod, nil
	}

	f := *frequency
	if math.IsNaN(f) || math.IsInf(f, 0) || f <= 0 {
		return 0, fmt.Errorf("%w: frequency must be positive, got %v", ErrInvalidConfiguration, f)
	}

	ns := float64(time.Second) / f
	if ns >= math.MaxInt64 {
		return 0, fmt.Errorf("%w: frequency %v Hz is too low", ErrInvalidConfiguration, f)
	}

	if ns < 1 {
		return 0, fmt.Errorf("%w: frequency %v Hz is too high", ErrInvalidConfiguration, f)
	}

	return time.Duration(ns), nil
}

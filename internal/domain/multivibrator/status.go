package multivibrator

import "time"

// Status is a point-in-time snapshot of a multivibrator.
type Status struct {
	// Mode is the active mode.
	Mode Mode
	// Phase is the scheduler phase.
	Phase Phase
	// Armed is true while a trigger is pending or being served.
	Armed bool
	// Output is the last value published to the sink.
	Output bool
	// Alive is false once the scheduler has terminated.
	Alive bool
	// Fault describes the error that terminated the scheduler, if any.
	Fault string
	// Period is the resolved monostable pulse width.
	Period time.Duration
	// OnDuration and OffDuration are the astable phase lengths.
	OnDuration  time.Duration
	OffDuration time.Duration
	// Publishes counts the values handed to the sink.
	Publishes uint64
	// Sink names the bound output sink when known.
	Sink string
	// LastActor issued the most recent command, if any.
	LastActor *Actor
}

// Clone returns a copy of the snapshot. A nil receiver yields nil.
func (s *Status) Clone() *Status {
	if s == nil {
		return nil
	}

	cloned := *s
	cloned.LastActor = s.LastActor.Clone()

	return &cloned
}

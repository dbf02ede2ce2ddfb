package multivibrator

// Phase is the state of the scheduler state machine.
type Phase int

const (
	// PhaseIdle waits for a trigger.
	PhaseIdle Phase = iota
	// PhasePulse is a monostable pulse in progress.
	PhasePulse
	// PhaseOscillating is an astable oscillation in progress.
	PhaseOscillating
	// PhaseFlip is a bistable flip in progress.
	PhaseFlip
	// PhaseTerminated is final.
	PhaseTerminated
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhasePulse:
		return "pulse"
	case PhaseOscillating:
		return "oscillating"
	case PhaseFlip:
		return "flip"
	case PhaseTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// PhaseFor returns the busy phase that serves mode m.
func PhaseFor(m Mode) Phase {
	switch m {
	case Monostable:
		return PhasePulse
	case Astable:
		return PhaseOscillating
	case Bistable:
		return PhaseFlip
	default:
		return PhaseIdle
	}
}

// ParsePhase is the inverse of Phase.String. Unknown names yield PhaseIdle
// and false.
func ParsePhase(s string) (Phase, bool) {
	for p := PhaseIdle; p <= PhaseTerminated; p++ {
		if p.String() == s {
			return p, true
		}
	}

	return PhaseIdle, false
}

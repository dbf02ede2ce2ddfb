package multivibrator

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Mode selects how the output reacts to a trigger.
type Mode int

// Numeric values match the classic circuit numbering used on the wire and in
// configuration files.
const (
	// Monostable emits one timed pulse per trigger.
	Monostable Mode = 1
	// Astable oscillates until disarmed.
	Astable Mode = 2
	// Bistable flips the output once per trigger.
	Bistable Mode = 3
)

// ErrUnknownMode is returned when a mode name or number is not recognized.
var ErrUnknownMode = errors.New("unknown mode")

// Valid reports whether m is one of the three known modes.
func (m Mode) Valid() bool {
	return m == Monostable || m == Astable || m == Bistable
}

func (m Mode) String() string {
	switch m {
	case Monostable:
		return "monostable"
	case Astable:
		return "astable"
	case Bistable:
		return "bistable"
	default:
		return "mode(" + strconv.Itoa(int(m)) + ")"
	}
}

// ParseMode accepts a mode name ("astable") or its number ("2").
func ParseMode(s string) (Mode, error) {
	s = strings.ToLower(strings.TrimSpace(s))

	switch s {
	case "monostable", "mono", "1":
		return Monostable, nil
	case "astable", "2":
		return Astable, nil
	case "bistable", "flipflop", "flip-flop", "3":
		return Bistable, nil
	}

	return 0, fmt.Errorf("%w: %q", ErrUnknownMode, s)
}

// MarshalText implements encoding.TextMarshaler.
func (m Mode) MarshalText() ([]byte, error) {
	if !m.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownMode, int(m))
	}

	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Mode) UnmarshalText(text []byte) error {
	parsed, err := ParseMode(string(text))
	if err != nil {
		return err
	}

	*m = parsed

	return nil
}

package multivibrator

// Actor identifies who issued a command.
type Actor struct {
	// Hostname is the machine name the command came from.
	Hostname string
	// Username is the system user who issued the command.
	Username string
}

// Clone returns a deep copy of the actor.
func (a *Actor) Clone() *Actor {
	if a == nil {
		return nil
	}

	cloned := *a

	return &cloned
}

func (a *Actor) String() string {
	if a == nil {
		return "unknown"
	}

	return a.Username + "@" + a.Hostname
}

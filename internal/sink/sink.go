package sink

import "strconv"

// Sink is the output capability: a readable, publishable boolean level.
// It matches the output capability the multivibrator core consumes.
type Sink interface {
	// Read returns the value last stored in the sink.
	Read() bool
	// Publish stores value and forwards it to whatever the sink drives.
	Publish(value bool)
}

// Tee publishes to a primary sink and mirrors every value to secondaries.
// Read always answers from the primary.
type Tee struct {
	primary Sink
	mirrors []Sink
}

// NewTee returns a Tee over primary and mirrors. Nil mirrors are skipped.
func NewTee(primary Sink, mirrors ...Sink) *Tee {
	t := &Tee{primary: primary}

	for _, m := range mirrors {
		if m != nil {
			t.mirrors = append(t.mirrors, m)
		}
	}

	return t
}

// Read returns the primary value.
func (t *Tee) Read() bool {
	return t.primary.Read()
}

// Publish stores value in the primary first, then in each mirror in order.
func (t *Tee) Publish(value bool) {
	t.primary.Publish(value)

	for _, m := range t.mirrors {
		m.Publish(value)
	}
}

// Payload renders a level the way it goes over text transports.
func Payload(value bool) []byte {
	if value {
		return []byte("1")
	}

	return []byte("0")
}

// ParseLevel accepts 0/1 and the usual boolean spellings.
func ParseLevel(s string) (bool, error) {
	switch s {
	case "high", "on", "HIGH", "ON":
		return true, nil
	case "low", "off", "LOW", "OFF":
		return false, nil
	}

	return strconv.ParseBool(s)
}

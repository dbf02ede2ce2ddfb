package multivibrator

import (
	"fmt"
	"time"

	"google.golang.org/protobuf/types/known/structpb"

	domain "github.com/oshokin/multivibrator/internal/domain/multivibrator"
)

// Status field names on the wire.
const (
	fieldMode      = "mode"
	fieldPhase     = "phase"
	fieldArmed     = "armed"
	fieldOutput    = "output"
	fieldAlive     = "alive"
	fieldFault     = "fault"
	fieldPeriod    = "period"
	fieldOnTime    = "on_time"
	fieldOffTime   = "off_time"
	fieldPublishes = "publishes"
	fieldSink      = "sink"
	fieldHostname  = "last_actor_hostname"
	fieldUsername  = "last_actor_username"
)

// StatusToStruct converts a status snapshot to a protobuf Struct.
// Durations are encoded in Go duration syntax.
func StatusToStruct(s *domain.Status) (*structpb.Struct, error) {
	if s == nil {
		return new(structpb.Struct), nil
	}

	fields := map[string]any{
		fieldMode:      s.Mode.String(),
		fieldPhase:     s.Phase.String(),
		fieldArmed:     s.Armed,
		fieldOutput:    s.Output,
		fieldAlive:     s.Alive,
		fieldFault:     s.Fault,
		fieldPeriod:    s.Period.String(),
		fieldOnTime:    s.OnDuration.String(),
		fieldOffTime:   s.OffDuration.String(),
		fieldPublishes: float64(s.Publishes),
		fieldSink:      s.Sink,
	}

	if s.LastActor != nil {
		fields[fieldHostname] = s.LastActor.Hostname
		fields[fieldUsername] = s.LastActor.Username
	}

	st, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, fmt.Errorf("encode status: %w", err)
	}

	return st, nil
}

// StatusFromStruct is the inverse of StatusToStruct.
func StatusFromStruct(st *structpb.Struct) (*domain.Status, error) {
	f := st.GetFields()

	mode, err := domain.ParseMode(f[fieldMode].GetStringValue())
	if err != nil {
		return nil, fmt.Errorf("decode status: %w", err)
	}

	phase, _ := domain.ParsePhase(f[fieldPhase].GetStringValue())

	s := &domain.Status{
		Mode:      mode,
		Phase:     phase,
		Armed:     f[fieldArmed].GetBoolValue(),
		Output:    f[fieldOutput].GetBoolValue(),
		Alive:     f[fieldAlive].GetBoolValue(),
		Fault:     f[fieldFault].GetStringValue(),
		Publishes: uint64(f[fieldPublishes].GetNumberValue()),
		Sink:      f[fieldSink].GetStringValue(),
	}

	durations := []struct {
		field string
		dst   *time.Duration
	}{
		{fieldPeriod, &s.Period},
		{fieldOnTime, &s.OnDuration},
		{fieldOffTime, &s.OffDuration},
	}

	for _, d := range durations {
		if *d.dst, err = time.ParseDuration(f[d.field].GetStringValue()); err != nil {
			return nil, fmt.Errorf("decode status %s: %w", d.field, err)
		}
	}

	hostname := f[fieldHostname].GetStringValue()
	username := f[fieldUsername].GetStringValue()

	if hostname != "" || username != "" {
		s.LastActor = &domain.Actor{Hostname: hostname, Username: username}
	}

	return s, nil
}

package server

import (
	"context"
	"fmt"
	"sync"

	domain "github.com/oshokin/multivibrator/internal/domain/multivibrator"
	"github.com/oshokin/multivibrator/internal/logger"
	"github.com/oshokin/multivibrator/internal/multivibrator"
	"github.com/oshokin/multivibrator/internal/sink"
)

// watchBuffer is the per-watcher backlog before old levels are dropped.
const watchBuffer = 64

// service exposes the multivibrator to the transport and keeps the registry
// of named output sinks. It is unexported to keep the transport decoupled
// from the implementation.
type service struct {
	// engine is the running multivibrator.
	engine *multivibrator.Multivibrator
	// connector is the in-process level every watcher subscribes to.
	connector *sink.Connector
	// sinks maps output names to the sinks SetOutput can bind.
	sinks map[string]multivibrator.Sink

	// mu protects current and lastActor.
	mu sync.RWMutex
	// current is the name of the bound sink.
	current string
	// lastActor issued the most recent command.
	lastActor *domain.Actor
}

// newService wraps engine. current must name an entry of sinks.
func newService(
	engine *multivibrator.Multivibrator,
	connector *sink.Connector,
	sinks map[string]multivibrator.Sink,
	current string,
) *service {
	return &service{
		engine:    engine,
		connector: connector,
		sinks:     sinks,
		current:   current,
	}
}

// Trigger arms the multivibrator.
func (s *service) Trigger(ctx context.Context, actor *domain.Actor) error {
	if err := s.command(ctx, actor, "trigger"); err != nil {
		return err
	}

	s.engine.Trigger()

	return nil
}

// SetMode switches the mode and disarms.
func (s *service) SetMode(ctx context.Context, actor *domain.Actor, mode domain.Mode) error {
	if err := s.command(ctx, actor, "set_mode", "mode", mode); err != nil {
		return err
	}

	return s.engine.SetMode(mode)
}

// State returns the current output.
func (s *service) State(context.Context) bool {
	return s.engine.State()
}

// SetState forces the output.
func (s *service) SetState(ctx context.Context, actor *domain.Actor, value bool) error {
	if err := s.command(ctx, actor, "set_state", "value", value); err != nil {
		return err
	}

	s.engine.SetState(value)

	return nil
}

// SetOutput binds the sink registered under name.
func (s *service) SetOutput(ctx context.Context, actor *domain.Actor, name string) error {
	target, ok := s.sinks[name]
	if !ok {
		logger.WarnKV(ctx, "Output is not configured", "output", name, "actor", actor)

		return fmt.Errorf("%w: output %q is not configured", multivibrator.ErrIncompatibleSink, name)
	}

	if err := s.command(ctx, actor, "set_output", "output", name); err != nil {
		return err
	}

	if err := s.engine.SetOutput(target); err != nil {
		return fmt.Errorf("set output %q: %w", name, err)
	}

	s.mu.Lock()
	s.current = name
	s.mu.Unlock()

	return nil
}

// Stop disarms the multivibrator.
func (s *service) Stop(ctx context.Context, actor *domain.Actor) error {
	if err := s.command(ctx, actor, "stop"); err != nil {
		return err
	}

	s.engine.Stop()

	return nil
}

// Kill terminates the scheduler. Repeated calls are harmless.
func (s *service) Kill(ctx context.Context, actor *domain.Actor) {
	s.remember(actor)

	logger.InfoKV(ctx, "Command received", "command", "kill", "actor", actor)

	s.engine.Kill()
}

// Status returns the engine snapshot with the bound sink and last actor.
func (s *service) Status(context.Context) *domain.Status {
	status := s.engine.Status()

	s.mu.RLock()
	status.Sink = s.current
	status.LastActor = s.lastActor.Clone()
	s.mu.RUnlock()

	return status
}

// Watch subscribes to the connector.
func (s *service) Watch(context.Context) (<-chan bool, func()) {
	return s.connector.Subscribe(watchBuffer)
}

// command logs a mutating command and rejects it once the scheduler has
// terminated.
func (s *service) command(ctx context.Context, actor *domain.Actor, name string, kvs ...any) error {
	s.remember(actor)

	if s.engine.Killed() {
		logger.WarnKV(ctx, "Command rejected", append([]any{"command", name, "actor", actor}, kvs...)...)

		return fmt.Errorf("%s: %w", name, multivibrator.ErrTerminated)
	}

	logger.InfoKV(ctx, "Command received", append([]any{"command", name, "actor", actor}, kvs...)...)

	return nil
}

func (s *service) remember(actor *domain.Actor) {
	if actor == nil {
		return
	}

	s.mu.Lock()
	s.lastActor = actor.Clone()
	s.mu.Unlock()
}

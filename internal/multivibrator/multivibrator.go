package multivibrator

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	domain "github.com/oshokin/multivibrator/internal/domain/multivibrator"
	"github.com/oshokin/multivibrator/internal/logger"
)

// Sink receives the output of a Multivibrator.
type Sink interface {
	// Read returns the value last stored in the sink.
	Read() bool
	// Publish stores value and notifies the sink's subscribers.
	Publish(value bool)
}

// Multivibrator drives a boolean output according to its Mode.
type Multivibrator struct {
	// timing is resolved by New and never changes.
	timing Timing
	// log receives control and scheduler events.
	log *zap.SugaredLogger

	// mu guards every field below it up to pubMu.
	mu      sync.Mutex
	mode    domain.Mode
	armed   bool
	// gen changes on every Trigger, SetMode and Stop so the scheduler can
	// tell whether the armed flag it dispatched on is still the current one.
	gen     uint64
	exiting bool
	started bool
	output  bool
	sink    Sink
	phase   domain.Phase
	fault   error

	// pubMu serializes publishes so transitions reach the sink in order.
	pubMu sync.Mutex

	// wake carries at most one pending "flags changed" notification.
	wake chan struct{}
	// kill is closed by Kill and cancels any wait in progress.
	kill     chan struct{}
	killOnce sync.Once
	// done is closed once the scheduler goroutine returns.
	done chan struct{}

	// publishes counts transitions for Status consumers and tests.
	publishes atomic.Uint64
}

// Option configures a Multivibrator.
type Option func(*Multivibrator)

// WithSink binds the initial output sink. A nil sink is ignored.
func WithSink(s Sink) Option {
	return func(m *Multivibrator) {
		if s != nil {
			m.sink = s
		}
	}
}

// WithLogger sets the logger. A nil logger is ignored.
func WithLogger(l *zap.SugaredLogger) Option {
	return func(m *Multivibrator) {
		if l != nil {
			m.log = l
		}
	}
}

// New validates cfg and returns a stopped Multivibrator. No goroutine is
// started until Start is called.
func New(cfg Config, opts ...Option) (*Multivibrator, error) {
	if !cfg.Mode.Valid() {
		return nil, fmt.Errorf("%w: %w: %d", ErrInvalidConfiguration, ErrInvalidMode, int(cfg.Mode))
	}

	timing, err := Resolve(cfg)
	if err != nil {
		return nil, err
	}

	m := &Multivibrator{
		timing: timing,
		log:    logger.Logger().Named("multivibrator"),
		mode:   cfg.Mode,
		output: cfg.InitState,
		sink:   newLatch(cfg.InitState),
		phase:  domain.PhaseIdle,
		wake:   make(chan struct{}, 1),
		kill:   make(chan struct{}),
		done:   make(chan struct{}),
	}

	for _, opt := range opts {
		opt(m)
	}

	return m, nil
}

// Trigger arms the scheduler. It has no effect while already armed or after
// Kill, so a trigger arriving during a pulse or flip is dropped. A trigger
// accepted after SetMode or Stop disarmed a running pulse is served once
// that pulse ends.
func (m *Multivibrator) Trigger() {
	m.mu.Lock()

	if m.exiting || m.armed {
		exiting := m.exiting
		m.mu.Unlock()

		m.log.Debugw("Trigger ignored", "terminated", exiting)

		return
	}

	m.armed = true
	m.gen++
	mode := m.mode
	m.mu.Unlock()

	m.log.Debugw("Triggered", "mode", mode)
	m.notify()
}

// SetMode switches the mode and disarms the scheduler. The new mode takes
// effect on the next Trigger.
func (m *Multivibrator) SetMode(mode domain.Mode) error {
	if !mode.Valid() {
		m.log.Warnw("Mode rejected", "mode", int(mode))

		return fmt.Errorf("%w: %d", ErrInvalidMode, int(mode))
	}

	m.mu.Lock()
	previous := m.mode
	m.mode = mode
	m.armed = false
	m.gen++
	m.mu.Unlock()

	m.log.Infow("Mode changed", "from", previous, "to", mode)

	return nil
}

// State returns the current output. It never waits for a publish.
func (m *Multivibrator) State() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.output
}

// SetState forces the output to value and publishes it immediately,
// bypassing the mode logic.
func (m *Multivibrator) SetState(value bool) {
	m.publish(value)
}

// SetOutput binds s as the output sink from the next publish on. A nil sink
// is rejected with ErrIncompatibleSink and the current sink is kept.
func (m *Multivibrator) SetOutput(s Sink) error {
	if s == nil {
		m.log.Warn("Output sink rejected: nil sink")

		return fmt.Errorf("%w: nil sink", ErrIncompatibleSink)
	}

	m.mu.Lock()
	m.sink = s
	m.mu.Unlock()

	m.log.Debugw("Output sink replaced", "sink", fmt.Sprintf("%T", s))

	return nil
}

// Output returns the bound sink.
//
//nolint:ireturn // The sink is an interface by design of the capability.
func (m *Multivibrator) Output() Sink {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.sink
}

// Stop disarms the scheduler. A running astable phase completes first and no
// further toggle follows. Calling Stop repeatedly is harmless.
func (m *Multivibrator) Stop() {
	m.mu.Lock()
	wasArmed := m.armed
	m.armed = false
	m.gen++
	m.mu.Unlock()

	if wasArmed {
		m.log.Debug("Stopped")
	}
}

// Kill terminates the scheduler permanently and returns without waiting;
// use Done or Wait to observe termination.
func (m *Multivibrator) Kill() {
	m.mu.Lock()
	first := !m.exiting
	m.exiting = true
	m.armed = false

	if !m.started {
		m.phase = domain.PhaseTerminated
	}
	m.mu.Unlock()

	m.killOnce.Do(func() { close(m.kill) })

	if first {
		m.log.Info("Killed")
	}
}

// Armed reports whether a transition is pending or in progress.
func (m *Multivibrator) Armed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.armed
}

// Mode returns the current mode.
func (m *Multivibrator) Mode() domain.Mode {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.mode
}

// Phase returns the scheduler phase.
func (m *Multivibrator) Phase() domain.Phase {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.phase
}

// Timing returns the resolved durations.
func (m *Multivibrator) Timing() Timing {
	return m.timing
}

// Killed reports whether Kill was called or the scheduler terminated.
// Unlike Alive it does not wait for the scheduler to notice.
func (m *Multivibrator) Killed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.exiting
}

// Alive reports whether the scheduler has not terminated.
func (m *Multivibrator) Alive() bool {
	return m.Phase() != domain.PhaseTerminated
}

// Err returns the fault that terminated the scheduler, or nil.
func (m *Multivibrator) Err() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.fault
}

// Publishes returns the number of values published so far.
func (m *Multivibrator) Publishes() uint64 {
	return m.publishes.Load()
}

// Status returns a snapshot of the multivibrator.
func (m *Multivibrator) Status() *domain.Status {
	m.mu.Lock()
	defer m.mu.Unlock()

	status := &domain.Status{
		Mode:        m.mode,
		Phase:       m.phase,
		Armed:       m.armed,
		Output:      m.output,
		Alive:       m.phase != domain.PhaseTerminated,
		Period:      m.timing.Period,
		OnDuration:  m.timing.On,
		OffDuration: m.timing.Off,
		Publishes:   m.publishes.Load(),
	}

	if m.fault != nil {
		status.Fault = m.fault.Error()
	}

	return status
}

// Done returns a channel closed when the scheduler goroutine has returned.
// It is never closed for a Multivibrator that was not started.
func (m *Multivibrator) Done() <-chan struct{} {
	return m.done
}

// Wait blocks until the scheduler has returned or ctx is done.
func (m *Multivibrator) Wait(ctx context.Context) error {
	select {
	case <-m.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// notify wakes an idle scheduler without blocking.
func (m *Multivibrator) notify() {
	select {
	case m.wake <- struct{}{}:
	default:
	}
}

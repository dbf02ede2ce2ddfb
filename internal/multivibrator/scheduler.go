package multivibrator

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	domain "github.com/oshokin/multivibrator/internal/domain/multivibrator"
)

// Start publishes the initial output and launches the scheduler goroutine.
// Cancelling ctx has the same effect as Kill.
func (m *Multivibrator) Start(ctx context.Context) error {
	m.mu.Lock()

	switch {
	case m.exiting:
		m.mu.Unlock()
		return ErrTerminated
	case m.started:
		m.mu.Unlock()
		return ErrAlreadyStarted
	}

	m.started = true
	initial := m.output
	mode := m.mode
	m.mu.Unlock()

	m.publish(initial)

	m.log.Infow("Scheduler started",
		"mode", mode,
		"output", initial,
		"period", m.timing.Period,
		"on", m.timing.On,
		"off", m.timing.Off,
	)

	go m.run(ctx)

	return nil
}

// run is the scheduler loop. It owns every timed transition.
func (m *Multivibrator) run(ctx context.Context) {
	defer close(m.done)
	defer m.recoverFault()

	for {
		mode, gen, ok := m.next(ctx)
		if !ok {
			m.terminate(nil)
			return
		}

		switch mode {
		case domain.Monostable:
			m.pulse(ctx, gen)
		case domain.Astable:
			m.oscillate(ctx)
		case domain.Bistable:
			m.flip(gen)
		}
	}
}

// next blocks while idle and returns the mode to serve once armed, along with
// the arm generation it was dispatched on. It returns false when the
// scheduler must terminate.
func (m *Multivibrator) next(ctx context.Context) (domain.Mode, uint64, bool) {
	for {
		m.mu.Lock()

		if m.exiting {
			m.mu.Unlock()
			return 0, 0, false
		}

		if m.armed {
			mode, gen := m.mode, m.gen
			m.setPhaseLocked(domain.PhaseFor(mode))
			m.mu.Unlock()

			return mode, gen, true
		}

		m.setPhaseLocked(domain.PhaseIdle)
		m.mu.Unlock()

		select {
		case <-m.wake:
		case <-m.kill:
		case <-ctx.Done():
			m.Kill()
		}
	}
}

// pulse emits one monostable pulse: high, wait Period, complement.
func (m *Multivibrator) pulse(ctx context.Context, gen uint64) {
	m.publish(true)

	if !m.wait(ctx, m.timing.Period) {
		return
	}

	m.toggle()
	m.disarm(gen)
}

// oscillate toggles the output until the mode changes, Stop or Kill.
func (m *Multivibrator) oscillate(ctx context.Context) {
	for {
		high := m.toggle()

		phase := m.timing.Off
		if high {
			phase = m.timing.On
		}

		if !m.wait(ctx, phase) {
			return
		}

		m.mu.Lock()
		running := m.mode == domain.Astable && m.armed && !m.exiting
		m.mu.Unlock()

		if !running {
			return
		}
	}
}

// flip toggles the output once.
func (m *Multivibrator) flip(gen uint64) {
	m.toggle()
	m.disarm(gen)
}

// wait sleeps for d. It returns false as soon as the multivibrator is killed
// or ctx is done.
func (m *Multivibrator) wait(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return true
	case <-m.kill:
		return false
	case <-ctx.Done():
		m.Kill()
		return false
	}
}

// disarm clears the armed flag unless a control call changed it since gen
// was dispatched; a newer Trigger stays pending for the next round.
func (m *Multivibrator) disarm(gen uint64) {
	m.mu.Lock()
	if m.gen == gen {
		m.armed = false
	}
	m.mu.Unlock()
}

// publish stores value as the output and hands it to the bound sink.
func (m *Multivibrator) publish(value bool) {
	m.pubMu.Lock()
	defer m.pubMu.Unlock()

	m.mu.Lock()
	m.output = value
	sink := m.sink
	m.mu.Unlock()

	sink.Publish(value)
	m.publishes.Add(1)
}

// toggle publishes the complement of the current output and returns it.
func (m *Multivibrator) toggle() bool {
	m.pubMu.Lock()
	defer m.pubMu.Unlock()

	m.mu.Lock()
	value := !m.output
	m.output = value
	sink := m.sink
	m.mu.Unlock()

	sink.Publish(value)
	m.publishes.Add(1)

	return value
}

// terminate moves the scheduler to its final phase.
func (m *Multivibrator) terminate(fault error) {
	m.mu.Lock()
	m.exiting = true
	m.armed = false
	m.setPhaseLocked(domain.PhaseTerminated)

	if fault != nil && m.fault == nil {
		m.fault = fault
	}
	m.mu.Unlock()

	m.killOnce.Do(func() { close(m.kill) })

	if fault != nil {
		m.log.Errorw("Scheduler terminated by fault", "error", fault)
		return
	}

	m.log.Info("Scheduler terminated")
}

// recoverFault keeps a panicking sink from crashing the process; the fault
// is reported through Err and Alive instead.
func (m *Multivibrator) recoverFault() {
	if r := recover(); r != nil {
		m.terminate(fmt.Errorf("%w: %v", ErrSchedulerFault, r))
	}
}

func (m *Multivibrator) setPhaseLocked(phase domain.Phase) {
	if m.phase == phase {
		return
	}

	m.log.Debugw("Phase changed", "from", m.phase, "to", phase)
	m.phase = phase
}

// latch is the sink used until SetOutput or WithSink binds another one.
type latch struct {
	value atomic.Bool
}

func newLatch(initial bool) *latch {
	l := new(latch)
	l.value.Store(initial)

	return l
}

func (l *latch) Read() bool {
	return l.value.Load()
}

func (l *latch) Publish(value bool) {
	l.value.Store(value)
}

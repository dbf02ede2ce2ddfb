package multivibrator

import (
	"context"
	"testing"
	"testing/synctest"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	domain "github.com/oshokin/multivibrator/internal/domain/multivibrator"
	"github.com/oshokin/multivibrator/internal/sink"
)

// start builds and starts a multivibrator publishing into out.
// Must be called inside a synctest bubble.
func start(t *testing.T, cfg Config, out Sink) *Multivibrator {
	t.Helper()

	m, err := New(cfg, WithSink(out), WithLogger(zaptest.NewLogger(t).Sugar()))
	require.NoError(t, err)
	require.NoError(t, m.Start(context.Background()))

	synctest.Wait()

	return m
}

// shutdown kills m and waits for its scheduler to return.
func shutdown(m *Multivibrator) {
	m.Kill()
	<-m.Done()
}

// panicSink fails on every publish.
type panicSink struct{}

func (panicSink) Read() bool { return false }

func (panicSink) Publish(bool) { panic("sink unplugged") }

// TestInitialState verifies the output equals InitState after New and after Start.
func TestInitialState(t *testing.T) {
	t.Parallel()

	for _, mode := range []domain.Mode{domain.Monostable, domain.Astable, domain.Bistable} {
		for _, initial := range []bool{false, true} {
			m, err := New(Config{Mode: mode, InitState: initial})
			require.NoError(t, err)
			require.Equal(t, initial, m.State())
			require.Equal(t, initial, m.Output().Read())
			require.Equal(t, domain.PhaseIdle, m.Phase())
			require.True(t, m.Alive())
		}
	}

	synctest.Test(t, func(t *testing.T) {
		rec := sink.NewRecorder(false)
		m := start(t, Config{Mode: domain.Astable, InitState: true}, rec)
		defer shutdown(m)

		require.True(t, m.State())
		require.Equal(t, []bool{true}, rec.Values())
	})
}

// TestMonostablePulse checks one pulse of exactly Period per trigger.
func TestMonostablePulse(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		rec := sink.NewRecorder(false)
		m := start(t, Config{Mode: domain.Monostable, Period: Ptr(time.Second)}, rec)
		defer shutdown(m)

		m.Trigger()
		synctest.Wait()

		require.True(t, m.State())
		require.True(t, m.Armed())
		require.Equal(t, domain.PhasePulse, m.Phase())

		// A trigger during the pulse is dropped.
		m.Trigger()

		time.Sleep(999 * time.Millisecond)
		synctest.Wait()
		require.True(t, m.State())

		time.Sleep(time.Millisecond)
		synctest.Wait()
		require.False(t, m.State())
		require.False(t, m.Armed())
		require.Equal(t, domain.PhaseIdle, m.Phase())

		events := rec.Events()
		require.Len(t, events, 3)
		require.Equal(t, []bool{false, true, false}, rec.Values())
		require.Equal(t, time.Second, events[2].At.Sub(events[1].At))

		// Nothing else happens without a new trigger.
		time.Sleep(5 * time.Second)
		synctest.Wait()
		require.Equal(t, 3, rec.Len())
	})
}

// TestMonostable_ComplementOfCurrent verifies the pulse end complements the
// current value, so a SetState during the pulse is honored.
func TestMonostable_ComplementOfCurrent(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		rec := sink.NewRecorder(false)
		m := start(t, Config{Mode: domain.Monostable, Period: Ptr(time.Second)}, rec)
		defer shutdown(m)

		m.Trigger()
		synctest.Wait()

		m.SetState(false)

		time.Sleep(time.Second)
		synctest.Wait()

		require.True(t, m.State())
		require.Equal(t, []bool{false, true, false, true}, rec.Values())
	})
}

// TestBistableFlip checks N triggers yield InitState XOR (N mod 2).
func TestBistableFlip(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		rec := sink.NewRecorder(false)
		m := start(t, Config{Mode: domain.Bistable}, rec)
		defer shutdown(m)

		for n := 1; n <= 7; n++ {
			m.Trigger()
			synctest.Wait()

			require.False(t, m.Armed())
			require.Equal(t, n%2 == 1, m.State(), "after %d triggers", n)
		}

		require.Equal(t, 8, rec.Len())
	})
}

// TestAstableOscillation samples k full cycles of on/off phases.
func TestAstableOscillation(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		const (
			on     = 300 * time.Millisecond
			off    = 100 * time.Millisecond
			cycles = 3
		)

		rec := sink.NewRecorder(false)
		m := start(t, Config{Mode: domain.Astable, OnTime: Ptr(on), OffTime: Ptr(off)}, rec)
		defer shutdown(m)

		m.Trigger()
		time.Sleep(cycles*(on+off) - time.Millisecond)
		synctest.Wait()

		events := rec.Events()[1:]
		require.Len(t, events, 2*cycles)

		for i, e := range events {
			require.Equal(t, i%2 == 0, e.Value, "event %d", i)

			if i == 0 {
				continue
			}

			want := off
			if events[i-1].Value {
				want = on
			}

			require.Equal(t, want, e.At.Sub(events[i-1].At), "phase %d", i)
		}

		// Repeated triggers while oscillating are no-ops.
		m.Trigger()
		m.Trigger()
		require.True(t, m.Armed())
		require.Equal(t, domain.PhaseOscillating, m.Phase())
	})
}

// TestStopHaltsAstable verifies Stop lets the current phase finish and
// suppresses any further toggle.
func TestStopHaltsAstable(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		rec := sink.NewRecorder(false)
		m := start(t, Config{Mode: domain.Astable, Period: Ptr(time.Second)}, rec)
		defer shutdown(m)

		m.Trigger()
		time.Sleep(250 * time.Millisecond)
		synctest.Wait()

		m.Stop()
		m.Stop()

		count := rec.Len()
		require.True(t, m.State())
		require.Equal(t, domain.PhaseOscillating, m.Phase())

		time.Sleep(300 * time.Millisecond)
		synctest.Wait()
		require.Equal(t, domain.PhaseIdle, m.Phase())

		time.Sleep(10 * time.Second)
		synctest.Wait()
		require.Equal(t, count, rec.Len())
		require.True(t, m.State())

		// Stop is resumable: a new trigger restarts the oscillation.
		m.Trigger()
		synctest.Wait()
		require.Equal(t, count+1, rec.Len())
		require.False(t, m.State())
	})
}

// TestKillTerminatesPromptly kills in every phase and checks zero added latency.
func TestKillTerminatesPromptly(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		cfg     Config
		trigger bool
	}{
		{"idle", Config{Mode: domain.Monostable}, false},
		{"monostable pulse", Config{Mode: domain.Monostable, Period: Ptr(time.Hour)}, true},
		{"astable phase", Config{Mode: domain.Astable, Period: Ptr(time.Hour)}, true},
		{"bistable", Config{Mode: domain.Bistable}, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			synctest.Test(t, func(t *testing.T) {
				rec := sink.NewRecorder(false)
				m := start(t, tc.cfg, rec)

				if tc.trigger {
					m.Trigger()
					synctest.Wait()
				}

				killedAt := time.Now()
				m.Kill()
				<-m.Done()

				require.Zero(t, time.Since(killedAt))
				require.False(t, m.Alive())
				require.NoError(t, m.Err())
				require.Equal(t, domain.PhaseTerminated, m.Phase())

				published := rec.Len()
				m.Trigger()
				time.Sleep(2 * time.Hour)

				require.False(t, m.Armed())
				require.Equal(t, published, rec.Len())
				require.ErrorIs(t, m.Start(context.Background()), ErrTerminated)
			})
		})
	}
}

// TestKillAndStopIdempotent verifies repeated calls behave like one.
func TestKillAndStopIdempotent(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		m := start(t, Config{Mode: domain.Astable}, sink.NewRecorder(false))

		m.Stop()
		m.Stop()
		require.True(t, m.Alive())
		require.False(t, m.Killed())

		m.Kill()
		require.True(t, m.Killed())
		m.Kill()
		<-m.Done()
		m.Kill()

		require.False(t, m.Alive())
		require.Equal(t, domain.PhaseTerminated, m.Status().Phase)
	})
}

// TestKillBeforeStart makes Start fail and reports the instance as dead.
func TestKillBeforeStart(t *testing.T) {
	t.Parallel()

	m, err := New(Config{Mode: domain.Bistable})
	require.NoError(t, err)

	m.Kill()
	require.False(t, m.Alive())
	require.ErrorIs(t, m.Start(context.Background()), ErrTerminated)
}

// TestStartTwice rejects a second Start.
func TestStartTwice(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		m := start(t, Config{Mode: domain.Bistable}, sink.NewRecorder(false))
		defer shutdown(m)

		require.ErrorIs(t, m.Start(context.Background()), ErrAlreadyStarted)
	})
}

// TestContextCancelKills ends the scheduler when the Start context is done.
func TestContextCancelKills(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())

		m, err := New(Config{Mode: domain.Astable}, WithLogger(zaptest.NewLogger(t).Sugar()))
		require.NoError(t, err)
		require.NoError(t, m.Start(ctx))

		m.Trigger()
		synctest.Wait()

		cancel()
		<-m.Done()

		require.False(t, m.Alive())
		require.NoError(t, m.Wait(context.Background()))
	})
}

// TestSetOutput covers swapping sinks and rejecting a nil one.
func TestSetOutput(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		first := sink.NewRecorder(false)
		m := start(t, Config{Mode: domain.Bistable}, first)
		defer shutdown(m)

		err := m.SetOutput(nil)
		require.ErrorIs(t, err, ErrIncompatibleSink)
		require.Same(t, first, m.Output())

		m.Trigger()
		synctest.Wait()
		require.Equal(t, []bool{false, true}, first.Values())

		second := sink.NewRecorder(true)
		require.NoError(t, m.SetOutput(second))

		m.Trigger()
		synctest.Wait()

		require.Equal(t, []bool{false, true}, first.Values())
		require.Equal(t, []bool{false}, second.Values())
		require.False(t, second.Read())
	})
}

// TestSetModeDisarms verifies a mode switch clears armed and waits for a trigger.
func TestSetModeDisarms(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		rec := sink.NewRecorder(false)
		m := start(t, Config{Mode: domain.Astable, Period: Ptr(time.Second)}, rec)
		defer shutdown(m)

		m.Trigger()
		synctest.Wait()
		require.True(t, m.Armed())

		require.NoError(t, m.SetMode(domain.Bistable))
		require.False(t, m.Armed())
		require.Equal(t, domain.Bistable, m.Mode())

		// The current astable phase ends without a new toggle or flip.
		time.Sleep(5 * time.Second)
		synctest.Wait()
		require.Equal(t, 2, rec.Len())
		require.Equal(t, domain.PhaseIdle, m.Phase())

		m.Trigger()
		synctest.Wait()
		require.Equal(t, 3, rec.Len())
		require.False(t, m.State())
		require.False(t, m.Armed())
	})
}

// TestSetModeThenTriggerDuringPulse checks a trigger accepted after a mode
// switch disarmed a running pulse is served once the pulse ends.
func TestSetModeThenTriggerDuringPulse(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		rec := sink.NewRecorder(false)
		m := start(t, Config{Mode: domain.Monostable, Period: Ptr(time.Second)}, rec)
		defer shutdown(m)

		m.Trigger()
		synctest.Wait()

		require.NoError(t, m.SetMode(domain.Bistable))
		m.Trigger()
		require.True(t, m.Armed())

		time.Sleep(3 * time.Second)
		synctest.Wait()

		require.Equal(t, []bool{false, true, false, true}, rec.Values())
		require.False(t, m.Armed())
		require.Equal(t, domain.PhaseIdle, m.Phase())
	})
}

// TestStopThenTriggerDuringPulse checks a trigger accepted after Stop during
// a pulse fires a second full pulse.
func TestStopThenTriggerDuringPulse(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		rec := sink.NewRecorder(false)
		m := start(t, Config{Mode: domain.Monostable, Period: Ptr(time.Second)}, rec)
		defer shutdown(m)

		m.Trigger()
		synctest.Wait()

		time.Sleep(500 * time.Millisecond)
		m.Stop()
		m.Trigger()
		require.True(t, m.Armed())

		time.Sleep(5 * time.Second)
		synctest.Wait()

		require.Equal(t, []bool{false, true, false, true, false}, rec.Values())
		require.False(t, m.Armed())

		events := rec.Events()
		require.Equal(t, time.Second, events[4].At.Sub(events[3].At))
	})
}

// TestSetModeInvalid leaves mode and armed untouched.
func TestSetModeInvalid(t *testing.T) {
	t.Parallel()

	m, err := New(Config{Mode: domain.Astable})
	require.NoError(t, err)

	m.Trigger()

	err = m.SetMode(domain.Mode(42))
	require.ErrorIs(t, err, ErrInvalidMode)
	require.Equal(t, domain.Astable, m.Mode())
	require.True(t, m.Armed())
}

// TestSetState publishes immediately without touching the mode logic.
func TestSetState(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		rec := sink.NewRecorder(false)
		m := start(t, Config{Mode: domain.Monostable}, rec)
		defer shutdown(m)

		m.SetState(true)
		require.True(t, m.State())
		require.True(t, rec.Read())
		require.False(t, m.Armed())
		require.Equal(t, uint64(2), m.Publishes())
	})
}

// TestSchedulerFault contains a panicking sink and reports it.
func TestSchedulerFault(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		m := start(t, Config{Mode: domain.Bistable}, sink.NewRecorder(false))

		require.NoError(t, m.SetOutput(panicSink{}))

		m.Trigger()
		<-m.Done()

		require.False(t, m.Alive())
		require.ErrorIs(t, m.Err(), ErrSchedulerFault)

		status := m.Status()
		require.False(t, status.Alive)
		require.Contains(t, status.Fault, "sink unplugged")
	})
}

// TestStatus reports the resolved timing and flags.
func TestStatus(t *testing.T) {
	t.Parallel()

	m, err := New(Config{Mode: domain.Astable, InitState: true, Frequency: Ptr(2.0)})
	require.NoError(t, err)

	m.Trigger()

	status := m.Status()
	require.Equal(t, domain.Astable, status.Mode)
	require.True(t, status.Armed)
	require.True(t, status.Output)
	require.True(t, status.Alive)
	require.Equal(t, 500*time.Millisecond, status.Period)
	require.Equal(t, 250*time.Millisecond, status.OnDuration)
	require.Equal(t, 250*time.Millisecond, status.OffDuration)
	require.Empty(t, status.Fault)
}

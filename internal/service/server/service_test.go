package server

import (
	"context"
	"errors"
	"testing"
	"testing/synctest"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"

	"github.com/oshokin/multivibrator/internal/config"
	domain "github.com/oshokin/multivibrator/internal/domain/multivibrator"
	"github.com/oshokin/multivibrator/internal/logger"
	"github.com/oshokin/multivibrator/internal/multivibrator"
	"github.com/oshokin/multivibrator/internal/sink"
)

// newTestService builds a service over a stopped engine with a connector and
// a recorder registered as "mqtt".
func newTestService(t *testing.T, cfg multivibrator.Config) (*service, *sink.Connector, *sink.Recorder) {
	t.Helper()

	connector := sink.NewConnector(cfg.InitState)
	recorder := sink.NewRecorder(cfg.InitState)

	engine, err := multivibrator.New(cfg,
		multivibrator.WithSink(connector),
		multivibrator.WithLogger(zaptest.NewLogger(t).Sugar()),
	)
	require.NoError(t, err)

	sinks := map[string]multivibrator.Sink{
		config.OutputConnector: connector,
		config.OutputMQTT:      sink.NewTee(connector, recorder),
	}

	return newService(engine, connector, sinks, config.OutputConnector), connector, recorder
}

// TestService_SetOutput switches between registered sinks only.
func TestService_SetOutput(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s, _, recorder := newTestService(t, multivibrator.Config{Mode: domain.Bistable})

	err := s.SetOutput(ctx, nil, "speaker")
	require.ErrorIs(t, err, multivibrator.ErrIncompatibleSink)
	require.Equal(t, config.OutputConnector, s.Status(ctx).Sink)

	require.NoError(t, s.SetOutput(ctx, nil, config.OutputMQTT))
	require.Equal(t, config.OutputMQTT, s.Status(ctx).Sink)

	require.NoError(t, s.SetState(ctx, nil, true))
	require.Equal(t, []bool{true}, recorder.Values())
	require.True(t, s.State(ctx))
}

// TestService_Status reports the last actor.
func TestService_Status(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s, _, _ := newTestService(t, multivibrator.Config{Mode: domain.Monostable})

	actor := &domain.Actor{Hostname: "bench", Username: "o.shokin"}

	require.NoError(t, s.SetMode(ctx, actor, domain.Astable))

	status := s.Status(ctx)
	require.Equal(t, domain.Astable, status.Mode)
	require.Equal(t, actor, status.LastActor)
	require.NotSame(t, actor, status.LastActor)

	// A command without an actor keeps the previous one.
	require.NoError(t, s.Stop(ctx, nil))
	require.Equal(t, actor, s.Status(ctx).LastActor)
}

// TestService_RejectsAfterKill refuses mutating commands once terminated.
func TestService_RejectsAfterKill(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s, _, _ := newTestService(t, multivibrator.Config{Mode: domain.Monostable})

	s.Kill(ctx, nil)
	s.Kill(ctx, nil)

	require.ErrorIs(t, s.Trigger(ctx, nil), multivibrator.ErrTerminated)
	require.ErrorIs(t, s.SetMode(ctx, nil, domain.Astable), multivibrator.ErrTerminated)
	require.ErrorIs(t, s.SetState(ctx, nil, true), multivibrator.ErrTerminated)
	require.ErrorIs(t, s.SetOutput(ctx, nil, config.OutputMQTT), multivibrator.ErrTerminated)
	require.ErrorIs(t, s.Stop(ctx, nil), multivibrator.ErrTerminated)

	status := s.Status(ctx)
	require.False(t, status.Alive)
	require.Equal(t, domain.PhaseTerminated, status.Phase)
}

// TestService_WatchFollowsTrigger streams the bistable flips to a watcher.
func TestService_WatchFollowsTrigger(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		s, _, _ := newTestService(t, multivibrator.Config{Mode: domain.Bistable})

		values, stop := s.Watch(ctx)
		defer stop()

		require.NoError(t, s.engine.Start(ctx))
		synctest.Wait()

		require.False(t, <-values)

		require.NoError(t, s.Trigger(ctx, nil))
		synctest.Wait()
		require.True(t, <-values)

		require.NoError(t, s.Trigger(ctx, nil))
		synctest.Wait()
		require.False(t, <-values)

		cancel()
		<-s.engine.Done()
		require.False(t, s.engine.Alive())
	})
}

// TestService_TriggerMonostable runs one pulse through the service.
func TestService_TriggerMonostable(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		s, _, recorder := newTestService(t, multivibrator.Config{
			Mode:   domain.Monostable,
			Period: multivibrator.Ptr(200 * time.Millisecond),
		})

		require.NoError(t, s.SetOutput(ctx, nil, config.OutputMQTT))
		require.NoError(t, s.engine.Start(ctx))
		require.NoError(t, s.Trigger(ctx, nil))

		synctest.Wait()
		require.True(t, s.State(ctx))

		time.Sleep(200 * time.Millisecond)
		synctest.Wait()

		require.False(t, s.State(ctx))
		require.Equal(t, []bool{false, true, false}, recorder.Values())

		cancel()
		<-s.engine.Done()
	})
}

// TestResolveListenAddress keeps only the port of the configured address.
func TestResolveListenAddress(t *testing.T) {
	t.Parallel()

	addr, err := resolveListenAddress("bench.local:50051", "")
	require.NoError(t, err)
	require.Equal(t, ":50051", addr)

	addr, err = resolveListenAddress("bench.local:50051", "127.0.0.1:9090")
	require.NoError(t, err)
	require.Equal(t, "127.0.0.1:9090", addr)

	_, err = resolveListenAddress("", "")
	require.ErrorIs(t, err, ErrNoServerAddress)

	_, err = resolveListenAddress("no-port", "")
	require.Error(t, err)
}

// TestApplyLogLevel prefers the flag over the settings.
//
//nolint:paralleltest // Mutates the global logger level.
func TestApplyLogLevel(t *testing.T) {
	previous := logger.Level()
	defer logger.SetLevel(previous)

	require.NoError(t, applyLogLevel("debug", ""))
	require.Equal(t, "debug", logger.Level().String())

	require.NoError(t, applyLogLevel("debug", "warn"))
	require.Equal(t, "warn", logger.Level().String())

	require.ErrorIs(t, applyLogLevel("info", "loud"), errInvalidLogLevel)
}

// TestEngineLogger pins the level only when configured.
func TestEngineLogger(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	require.True(t, engineLogger(ctx, "debug").Desugar().Core().Enabled(zapcore.DebugLevel))
	require.False(t, engineLogger(ctx, "error").Desugar().Core().Enabled(zapcore.WarnLevel))
}

// TestOpenSinks_ConnectorOnly registers the connector when nothing else is
// configured.
func TestOpenSinks_ConnectorOnly(t *testing.T) {
	t.Parallel()

	connector := sink.NewConnector(false)

	sinks, closers, err := openSinks(context.Background(), config.Outputs{}, connector, false)
	require.NoError(t, err)
	require.Empty(t, closers)
	require.Len(t, sinks, 1)
	require.Same(t, connector, sinks[config.OutputConnector])

	_, _, err = openSinks(context.Background(), config.Outputs{MQTT: new(sink.MQTTOptions)}, connector, false)
	require.ErrorIs(t, err, sink.ErrBrokerRequired)
}

// TestServeUntilDone_ServeError shuts down and returns when serve fails
// without the context being canceled.
func TestServeUntilDone_ServeError(t *testing.T) {
	t.Parallel()

	errListener := errors.New("listener broken")
	shutdowns := 0

	err := serveUntilDone(context.Background(),
		func() error { return errListener },
		func() { shutdowns++ },
	)

	require.ErrorIs(t, err, errListener)
	require.Equal(t, 1, shutdowns)
}

// TestServeUntilDone_ContextCanceled stops serving through shutdown once the
// context is canceled.
func TestServeUntilDone_ContextCanceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	shutdowns := 0

	cancel()

	err := serveUntilDone(ctx,
		func() error {
			<-stopped

			return nil
		},
		func() {
			shutdowns++
			close(stopped)
		},
	)

	require.NoError(t, err)
	require.Equal(t, 1, shutdowns)
}

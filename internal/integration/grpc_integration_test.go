package integration

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/oshokin/multivibrator/internal/config"
	domain "github.com/oshokin/multivibrator/internal/domain/multivibrator"
	"github.com/oshokin/multivibrator/internal/multivibrator"
	"github.com/oshokin/multivibrator/internal/service/common"
	"github.com/oshokin/multivibrator/internal/service/server"
)

// errWatchDone ends a watch from its callback.
var errWatchDone = errors.New("watch done")

// startServer runs the real server on a free loopback port with the given
// engine settings. It returns the bound address; the server is stopped when
// the test ends.
func startServer(t *testing.T, engine multivibrator.Config) string {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	cfgPath := filepath.Join(t.TempDir(), config.DefaultConfigFilename)

	// Create temporary configuration file.
	require.NoError(
		t,
		config.Save(cfgPath, &config.Config{
			ServerAddress: "127.0.0.1:0",
			Timeout:       5 * time.Second,
			LogLevel:      "warn",
			Multivibrator: engine,
		}),
	)

	ready := make(chan string, 1)
	stopped := make(chan error, 1)

	go func() {
		options := &server.Options{
			ConfigPath:    cfgPath,
			ListenAddress: "127.0.0.1:0",
			Ready:         ready,
		}

		stopped <- server.Run(ctx, options)
	}()

	var addr string

	select {
	case addr = <-ready:
	case err := <-stopped:
		cancel()
		t.Fatalf("server exited early: %v", err)
	case <-time.After(5 * time.Second):
		cancel()
		t.Fatal("server did not start")
	}

	t.Cleanup(func() {
		cancel()
		require.NoError(t, <-stopped)
	})

	return addr
}

// dial connects a client identified as the test actor.
func dial(t *testing.T, addr string) *common.Client {
	t.Helper()

	c, err := common.Dial(context.Background(), addr,
		common.WithCallTimeout(3*time.Second),
		common.WithActor(&domain.Actor{Hostname: "test-hostname", Username: "test-user"}),
	)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = c.Close()
	})

	return c
}

// TestGRPC_Roundtrip drives a bistable multivibrator through the real server.
func TestGRPC_Roundtrip(t *testing.T) {
	t.Parallel()

	addr := startServer(t, multivibrator.Config{Mode: domain.Bistable})
	c := dial(t, addr)
	ctx := context.Background()

	got, err := c.GetState(ctx)
	require.NoError(t, err)
	require.False(t, got)

	require.NoError(t, c.Trigger(ctx))
	require.Eventually(t, func() bool {
		v, err := c.GetState(ctx)
		return err == nil && v
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, c.SetState(ctx, false))

	got, err = c.GetState(ctx)
	require.NoError(t, err)
	require.False(t, got)

	st, err := c.Status(ctx)
	require.NoError(t, err)
	require.Equal(t, domain.Bistable, st.Mode)
	require.True(t, st.Alive)
	require.Equal(t, config.OutputConnector, st.Sink)
	require.Equal(t, time.Second, st.Period)
	require.Equal(t, "test-user", st.LastActor.Username)
	require.GreaterOrEqual(t, st.Publishes, uint64(3))
}

// TestGRPC_Errors checks the status codes of rejected commands.
func TestGRPC_Errors(t *testing.T) {
	t.Parallel()

	addr := startServer(t, multivibrator.Config{Mode: domain.Monostable})
	c := dial(t, addr)
	ctx := context.Background()

	err := c.SetOutput(ctx, "mqtt")
	require.Equal(t, codes.InvalidArgument, status.Code(err))

	err = c.SetMode(ctx, domain.Mode(9))
	require.Equal(t, codes.InvalidArgument, status.Code(err))

	require.NoError(t, c.SetMode(ctx, domain.Astable))
	require.NoError(t, c.Kill(ctx))
	require.NoError(t, c.Kill(ctx))

	err = c.Trigger(ctx)
	require.Equal(t, codes.FailedPrecondition, status.Code(err))

	require.Eventually(t, func() bool {
		st, err := c.Status(ctx)
		return err == nil && !st.Alive && st.Phase == domain.PhaseTerminated
	}, 2*time.Second, 10*time.Millisecond)
}

// TestGRPC_WatchOutput streams an astable oscillation to a watcher.
func TestGRPC_WatchOutput(t *testing.T) {
	t.Parallel()

	addr := startServer(t, multivibrator.Config{
		Mode:   domain.Astable,
		Period: multivibrator.Ptr(40 * time.Millisecond),
	})
	c := dial(t, addr)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var values []bool

	watched := make(chan error, 1)

	go func() {
		watched <- c.Watch(ctx, func(v bool) error {
			values = append(values, v)

			if len(values) == 1 {
				return c.Trigger(ctx)
			}

			if len(values) == 5 {
				return errWatchDone
			}

			return nil
		})
	}()

	require.ErrorIs(t, <-watched, errWatchDone)
	require.Equal(t, []bool{false, true, false, true, false}, values)

	require.NoError(t, c.Stop(ctx))
}

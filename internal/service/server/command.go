package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"

	"go.uber.org/zap"
	"google.golang.org/grpc"

	api "github.com/oshokin/multivibrator/internal/api/grpc/multivibrator"
	"github.com/oshokin/multivibrator/internal/config"
	"github.com/oshokin/multivibrator/internal/logger"
	"github.com/oshokin/multivibrator/internal/multivibrator"
	pb "github.com/oshokin/multivibrator/internal/pb/v1"
	"github.com/oshokin/multivibrator/internal/sink"
	"github.com/oshokin/multivibrator/internal/version"
)

// Options controls the multivibrator-server process and configuration.
type Options struct {
	// ConfigPath specifies the path to settings YAML file.
	ConfigPath string
	// ListenAddress provides an optional listen address override for the gRPC server.
	ListenAddress string
	// LogLevel overrides the level from the settings when not empty.
	LogLevel string
	// Ready, when set, receives the bound listen address once serving.
	Ready chan<- string
}

var (
	// ErrNoServerAddress indicates missing server configuration.
	ErrNoServerAddress = errors.New("no server address configured")
	// errInvalidLogLevel is returned for an unknown --log-level value.
	errInvalidLogLevel = errors.New("invalid log level")
)

// Run starts the multivibrator and the gRPC server and blocks until context
// is canceled or the server stops. On shutdown the multivibrator is killed,
// watchers are released and the sinks are closed.
//
//nolint:funlen // Startup and shutdown are kept together for readability.
func Run(ctx context.Context, opts *Options) error {
	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, "multivibrator-server")

	// Load configuration first to get server settings.
	settings, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	if err := applyLogLevel(settings.LogLevel, opts.LogLevel); err != nil {
		return err
	}

	// Determine listen address: CLI argument overrides config port extraction.
	listenAddress, err := resolveListenAddress(settings.ServerAddress, opts.ListenAddress)
	if err != nil {
		return fmt.Errorf("resolve listen address: %w", err)
	}

	connector := sink.NewConnector(settings.Multivibrator.InitState)

	sinks, closers, err := openSinks(ctx, settings.Outputs, connector, settings.Multivibrator.InitState)
	if err != nil {
		return err
	}

	defer closeAll(ctx, closers)

	engine, err := multivibrator.New(
		settings.Multivibrator,
		multivibrator.WithSink(sinks[settings.Outputs.Default]),
		multivibrator.WithLogger(engineLogger(ctx, settings.EngineLogLevel)),
	)
	if err != nil {
		return fmt.Errorf("create multivibrator: %w", err)
	}

	svc := newService(engine, connector, sinks, settings.Outputs.Default)

	// Setup TCP listener for gRPC server.
	lc := net.ListenConfig{}

	lis, err := lc.Listen(ctx, "tcp", listenAddress)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", listenAddress, err)
	}

	// Cancelling ctx kills the scheduler.
	if err := engine.Start(ctx); err != nil {
		_ = lis.Close()

		return fmt.Errorf("start multivibrator: %w", err)
	}

	grpcServer := grpc.NewServer()
	pb.RegisterMultivibratorServiceServer(grpcServer, api.NewServer(svc))

	logger.InfoKV(ctx, "Multivibrator server listening", append([]any{
		"listen_address", lis.Addr().String(),
		"mode", settings.Multivibrator.Mode,
		"output", settings.Outputs.Default,
		"outputs", settings.Outputs.Names(),
	}, version.KV()...)...)

	if opts.Ready != nil {
		opts.Ready <- lis.Addr().String()
	}

	shutdown := func() {
		logger.Info(ctx, "Shutting down gRPC server")

		engine.Kill()
		<-engine.Done()

		// Watch streams only end when their subscription does.
		_ = connector.Close()

		grpcServer.GracefulStop()
	}

	if err := serveUntilDone(ctx, func() error { return grpcServer.Serve(lis) }, shutdown); err != nil {
		return err
	}

	logger.InfoKV(ctx, "GRPC server stopped", "publishes", engine.Publishes())

	return nil
}

// serveUntilDone runs serve and calls shutdown once, either when ctx is done
// or when serve returns on its own. It returns after shutdown has finished.
func serveUntilDone(ctx context.Context, serve func() error, shutdown func()) error {
	stop := make(chan struct{})
	done := make(chan struct{})

	go func() {
		defer close(done)

		select {
		case <-ctx.Done():
		case <-stop:
		}

		shutdown()
	}()

	err := serve()

	close(stop)
	<-done

	if err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return fmt.Errorf("serve gRPC: %w", err)
	}

	return nil
}

// applyLogLevel sets the global level from the flag, or from the settings
// when the flag is empty.
func applyLogLevel(configured, override string) error {
	name := configured
	if override != "" {
		name = override
	}

	level, ok := logger.ParseLogLevel(name)
	if !ok {
		return fmt.Errorf("%w: %q", errInvalidLogLevel, name)
	}

	logger.SetLevel(level)

	return nil
}

// engineLogger names the scheduler's logger and pins its level when one is
// configured.
func engineLogger(ctx context.Context, level string) *zap.SugaredLogger {
	l := logger.FromContext(ctx).Named("engine")

	if lvl, ok := logger.ParseLogLevel(level); ok && level != "" {
		l = l.WithOptions(logger.WithLevel(lvl))
	}

	return l
}

// openSinks builds the output registry. Every entry publishes to connector
// first so watchers see the level whichever sink is bound.
func openSinks(
	ctx context.Context,
	outputs config.Outputs,
	connector *sink.Connector,
	initial bool,
) (map[string]multivibrator.Sink, []io.Closer, error) {
	sinks := map[string]multivibrator.Sink{
		config.OutputConnector: connector,
	}

	var closers []io.Closer

	if outputs.MQTT != nil {
		mqtt, err := sink.DialMQTT(ctx, *outputs.MQTT)
		if err != nil {
			return nil, nil, fmt.Errorf("open mqtt output: %w", err)
		}

		sinks[config.OutputMQTT] = sink.NewTee(connector, mqtt)
		closers = append(closers, mqtt)
	}

	if outputs.GPIO != nil {
		gpio, err := sink.OpenGPIO(ctx, *outputs.GPIO, initial)
		if err != nil {
			closeAll(ctx, closers)

			return nil, nil, fmt.Errorf("open gpio output: %w", err)
		}

		sinks[config.OutputGPIO] = sink.NewTee(connector, gpio)
		closers = append(closers, gpio)
	}

	return sinks, closers, nil
}

func closeAll(ctx context.Context, closers []io.Closer) {
	for _, c := range closers {
		if err := c.Close(); err != nil {
			logger.WarnKV(ctx, "Failed to close output", "error", err)
		}
	}
}

// resolveListenAddress determines the listen address for the gRPC server.
// If override is provided, uses it directly. Otherwise extracts port from configAddr.
// Returns appropriate listen address (e.g., ":8080" for port-only binding).
func resolveListenAddress(configAddr, override string) (string, error) {
	// Use override address if provided (e.g., ":9090", "0.0.0.0:8080").
	if override != "" {
		return override, nil
	}

	if configAddr == "" {
		return "", ErrNoServerAddress
	}

	// Parse the address to extract port.
	_, port, err := net.SplitHostPort(configAddr)
	if err != nil {
		return "", fmt.Errorf("invalid server address format %q: %w", configAddr, err)
	}

	// Return port-only listen address to bind on all interfaces.
	return ":" + port, nil
}

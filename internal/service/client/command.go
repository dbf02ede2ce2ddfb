package client

import (
	"context"
	"fmt"
	"io"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/oshokin/multivibrator/internal/config"
	domain "github.com/oshokin/multivibrator/internal/domain/multivibrator"
	"github.com/oshokin/multivibrator/internal/logger"
	"github.com/oshokin/multivibrator/internal/service/common"
	"github.com/oshokin/multivibrator/internal/sink"
)

// Options configures a multivibrator-ctl invocation.
type Options struct {
	// ConfigPath to YAML settings file, defaults to standard filename if empty.
	ConfigPath string
	// ServerAddress overrides server address from config when specified.
	ServerAddress string
	// Out receives command output.
	Out io.Writer
}

// Remote is the subset of the gRPC client the commands use.
type Remote interface {
	Trigger(ctx context.Context) error
	SetMode(ctx context.Context, mode domain.Mode) error
	GetState(ctx context.Context) (bool, error)
	SetState(ctx context.Context, value bool) error
	SetOutput(ctx context.Context, name string) error
	Stop(ctx context.Context) error
	Kill(ctx context.Context) error
	Status(ctx context.Context) (*domain.Status, error)
	Watch(ctx context.Context, fn func(value bool) error) error
}

// Command is one multivibrator-ctl operation.
type Command func(ctx context.Context, remote Remote, out io.Writer) error

// Run loads the settings, connects to the server and executes command.
func Run(ctx context.Context, opts *Options, command Command) error {
	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, "multivibrator-ctl")

	// Load settings from configuration file.
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return err
	}

	// Use server address from options if provided, otherwise use config.
	serverAddress := cfg.ServerAddress
	if opts.ServerAddress != "" {
		serverAddress = opts.ServerAddress
	}

	// Identify current user and hostname for audit logging.
	actor, err := common.DetectActor()
	if err != nil {
		return err
	}

	client, err := common.Dial(ctx, serverAddress,
		common.WithCallTimeout(cfg.Timeout),
		common.WithActor(actor),
	)
	if err != nil {
		return err
	}

	// Close connection on function exit.
	defer func() {
		_ = client.Close()
	}()

	logger.DebugKV(ctx, "Connected", "server_address", serverAddress, "actor", actor)

	return command(ctx, client, opts.Out)
}

// Trigger arms the multivibrator.
func Trigger() Command {
	return func(ctx context.Context, remote Remote, _ io.Writer) error {
		return remote.Trigger(ctx)
	}
}

// SetMode switches the mode by name or number.
func SetMode(name string) Command {
	return func(ctx context.Context, remote Remote, _ io.Writer) error {
		mode, err := domain.ParseMode(name)
		if err != nil {
			return err
		}

		return remote.SetMode(ctx, mode)
	}
}

// State prints the current output as 1 or 0.
func State() Command {
	return func(ctx context.Context, remote Remote, out io.Writer) error {
		value, err := remote.GetState(ctx)
		if err != nil {
			return err
		}

		_, err = fmt.Fprintln(out, string(sink.Payload(value)))

		return err
	}
}

// SetState forces the output to a level such as 1, 0, high or low.
func SetState(level string) Command {
	return func(ctx context.Context, remote Remote, _ io.Writer) error {
		value, err := sink.ParseLevel(level)
		if err != nil {
			return fmt.Errorf("parse level %q: %w", level, err)
		}

		return remote.SetState(ctx, value)
	}
}

// SetOutput routes the output to the named sink.
func SetOutput(name string) Command {
	return func(ctx context.Context, remote Remote, _ io.Writer) error {
		return remote.SetOutput(ctx, name)
	}
}

// Stop disarms the multivibrator.
func Stop() Command {
	return func(ctx context.Context, remote Remote, _ io.Writer) error {
		return remote.Stop(ctx)
	}
}

// Kill terminates the scheduler.
func Kill() Command {
	return func(ctx context.Context, remote Remote, _ io.Writer) error {
		return remote.Kill(ctx)
	}
}

// statusView is the YAML layout printed by Status.
type statusView struct {
	Mode      string `yaml:"mode"`
	Phase     string `yaml:"phase"`
	Armed     bool   `yaml:"armed"`
	Output    bool   `yaml:"output"`
	Alive     bool   `yaml:"alive"`
	Fault     string `yaml:"fault,omitempty"`
	Period    string `yaml:"period"`
	OnTime    string `yaml:"on_time"`
	OffTime   string `yaml:"off_time"`
	Publishes uint64 `yaml:"publishes"`
	Sink      string `yaml:"sink"`
	LastActor string `yaml:"last_actor,omitempty"`
}

// Status prints the status snapshot as YAML.
func Status() Command {
	return func(ctx context.Context, remote Remote, out io.Writer) error {
		status, err := remote.Status(ctx)
		if err != nil {
			return err
		}

		view := statusView{
			Mode:      status.Mode.String(),
			Phase:     status.Phase.String(),
			Armed:     status.Armed,
			Output:    status.Output,
			Alive:     status.Alive,
			Fault:     status.Fault,
			Period:    status.Period.String(),
			OnTime:    status.OnDuration.String(),
			OffTime:   status.OffDuration.String(),
			Publishes: status.Publishes,
			Sink:      status.Sink,
		}

		if status.LastActor != nil {
			view.LastActor = status.LastActor.String()
		}

		encoder := yaml.NewEncoder(out)
		defer func() {
			_ = encoder.Close()
		}()

		if err := encoder.Encode(view); err != nil {
			return fmt.Errorf("encode status: %w", err)
		}

		return nil
	}
}

// Watch prints every level with a timestamp until ctx is done.
func Watch() Command {
	return func(ctx context.Context, remote Remote, out io.Writer) error {
		return remote.Watch(ctx, func(value bool) error {
			_, err := fmt.Fprintf(out, "%s %s\n", time.Now().Format(time.RFC3339Nano), sink.Payload(value))

			return err
		})
	}
}

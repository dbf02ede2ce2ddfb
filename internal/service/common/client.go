//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	api "github.com/oshokin/multivibrator/internal/api/grpc/multivibrator"
	"github.com/oshokin/multivibrator/internal/config"
	domain "github.com/oshokin/multivibrator/internal/domain/multivibrator"
	pb "github.com/oshokin/multivibrator/internal/pb/v1"
)

// Client wraps the gRPC MultivibratorService client with convenience helpers.
type Client struct {
	// conn is the underlying gRPC connection to the server.
	conn *grpc.ClientConn
	// api is the MultivibratorService client interface.
	api pb.MultivibratorServiceClient
	// actor is attached to every call as request metadata.
	actor *domain.Actor

	// callTimeout is the default timeout for individual RPC calls.
	callTimeout time.Duration
}

// Option configures client behaviour.
type Option func(*Client)

// WithCallTimeout sets a default timeout for service calls.
func WithCallTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.callTimeout = timeout
		}
	}
}

// WithActor identifies the caller on every request.
func WithActor(actor *domain.Actor) Option {
	return func(c *Client) {
		c.actor = actor.Clone()
	}
}

// errAddressRequired is returned when a required address value is missing.
var errAddressRequired = errors.New("address must be provided")

// Dial establishes a gRPC connection to the multivibrator server.
// Note: this uses insecure transport credentials; deploy on a trusted network
// or terminate TLS in a proxy until native TLS is added.
func Dial(_ context.Context, address string, opts ...Option) (*Client, error) {
	if address == "" {
		return nil, errAddressRequired
	}

	conn, err := grpc.NewClient(address, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("dial multivibrator server: %w", err)
	}

	client := &Client{
		conn:        conn,
		api:         pb.NewMultivibratorServiceClient(conn),
		callTimeout: config.DefaultTimeout,
	}

	for _, opt := range opts {
		opt(client)
	}

	return client, nil
}

// Close releases the underlying gRPC connection.
func (c *Client) Close() error {
	if c == nil || c.conn == nil {
		return nil
	}

	return c.conn.Close()
}

// Trigger arms the remote multivibrator.
func (c *Client) Trigger(ctx context.Context) error {
	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	if _, err := c.api.Trigger(callCtx, new(emptypb.Empty)); err != nil {
		return fmt.Errorf("trigger: %w", err)
	}

	return nil
}

// SetMode switches the remote mode.
func (c *Client) SetMode(ctx context.Context, mode domain.Mode) error {
	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	if _, err := c.api.SetMode(callCtx, wrapperspb.String(mode.String())); err != nil {
		return fmt.Errorf("set mode: %w", err)
	}

	return nil
}

// GetState returns the remote output.
func (c *Client) GetState(ctx context.Context) (bool, error) {
	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	resp, err := c.api.GetState(callCtx, new(emptypb.Empty))
	if err != nil {
		return false, fmt.Errorf("get state: %w", err)
	}

	return resp.GetValue(), nil
}

// SetState forces the remote output.
func (c *Client) SetState(ctx context.Context, value bool) error {
	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	if _, err := c.api.SetState(callCtx, wrapperspb.Bool(value)); err != nil {
		return fmt.Errorf("set state: %w", err)
	}

	return nil
}

// SetOutput routes the remote output to the named sink.
func (c *Client) SetOutput(ctx context.Context, name string) error {
	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	if _, err := c.api.SetOutput(callCtx, wrapperspb.String(name)); err != nil {
		return fmt.Errorf("set output: %w", err)
	}

	return nil
}

// Stop disarms the remote multivibrator.
func (c *Client) Stop(ctx context.Context) error {
	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	if _, err := c.api.Stop(callCtx, new(emptypb.Empty)); err != nil {
		return fmt.Errorf("stop: %w", err)
	}

	return nil
}

// Kill terminates the remote scheduler.
func (c *Client) Kill(ctx context.Context) error {
	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	if _, err := c.api.Kill(callCtx, new(emptypb.Empty)); err != nil {
		return fmt.Errorf("kill: %w", err)
	}

	return nil
}

// Status returns the remote status snapshot.
func (c *Client) Status(ctx context.Context) (*domain.Status, error) {
	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	resp, err := c.api.GetStatus(callCtx, new(emptypb.Empty))
	if err != nil {
		return nil, fmt.Errorf("get status: %w", err)
	}

	return api.StatusFromStruct(resp)
}

// Watch calls fn with the current level and then with every published level
// until ctx is done or the server closes the stream. The call timeout does
// not apply.
func (c *Client) Watch(ctx context.Context, fn func(value bool) error) error {
	stream, err := c.api.WatchOutput(api.OutgoingActor(ctx, c.actor), new(emptypb.Empty))
	if err != nil {
		return fmt.Errorf("watch output: %w", err)
	}

	for {
		value, err := stream.Recv()

		switch {
		case errors.Is(err, io.EOF):
			return nil
		case err != nil:
			if ctx.Err() != nil {
				return nil //nolint:nilerr // A cancelled watch is a normal exit.
			}

			return fmt.Errorf("watch output: %w", err)
		}

		if err := fn(value.GetValue()); err != nil {
			return err
		}
	}
}

// callContext returns a context with the client's call timeout if configured,
// otherwise a cancellable child context without a deadline. The actor, if
// any, travels as request metadata.
func (c *Client) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx = api.OutgoingActor(ctx, c.actor)

	if c.callTimeout <= 0 {
		return context.WithCancel(ctx)
	}

	return context.WithTimeout(ctx, c.callTimeout)
}

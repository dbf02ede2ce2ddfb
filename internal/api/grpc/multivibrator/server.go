package multivibrator

import (
	"context"
	"errors"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	domain "github.com/oshokin/multivibrator/internal/domain/multivibrator"
	"github.com/oshokin/multivibrator/internal/logger"
	engine "github.com/oshokin/multivibrator/internal/multivibrator"
	pb "github.com/oshokin/multivibrator/internal/pb/v1"
)

// Service abstracts the business operations the transport layer depends on.
type Service interface {
	Trigger(ctx context.Context, actor *domain.Actor) error
	SetMode(ctx context.Context, actor *domain.Actor, mode domain.Mode) error
	State(ctx context.Context) bool
	SetState(ctx context.Context, actor *domain.Actor, value bool) error
	SetOutput(ctx context.Context, actor *domain.Actor, name string) error
	Stop(ctx context.Context, actor *domain.Actor) error
	Kill(ctx context.Context, actor *domain.Actor)
	Status(ctx context.Context) *domain.Status
	// Watch subscribes to published levels until cancel is called.
	Watch(ctx context.Context) (values <-chan bool, cancel func())
}

// Server implements the MultivibratorService gRPC API.
type Server struct {
	pb.UnimplementedMultivibratorServiceServer

	// service provides the business logic for multivibrator operations.
	service Service
}

// NewServer wires the provided service implementation into a gRPC handler.
func NewServer(service Service) *Server {
	return &Server{
		service: service,
	}
}

// Trigger arms the multivibrator.
func (s *Server) Trigger(ctx context.Context, _ *emptypb.Empty) (*emptypb.Empty, error) {
	if err := s.service.Trigger(ctx, IncomingActor(ctx)); err != nil {
		return nil, toStatusError(err)
	}

	return new(emptypb.Empty), nil
}

// SetMode accepts a mode name or number.
func (s *Server) SetMode(ctx context.Context, req *wrapperspb.StringValue) (*emptypb.Empty, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "mode is required")
	}

	mode, err := domain.ParseMode(req.GetValue())
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	if err := s.service.SetMode(ctx, IncomingActor(ctx), mode); err != nil {
		return nil, toStatusError(err)
	}

	return new(emptypb.Empty), nil
}

// GetState returns the current output.
func (s *Server) GetState(ctx context.Context, _ *emptypb.Empty) (*wrapperspb.BoolValue, error) {
	return wrapperspb.Bool(s.service.State(ctx)), nil
}

// SetState forces the output.
func (s *Server) SetState(ctx context.Context, req *wrapperspb.BoolValue) (*emptypb.Empty, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "state is required")
	}

	if err := s.service.SetState(ctx, IncomingActor(ctx), req.GetValue()); err != nil {
		return nil, toStatusError(err)
	}

	return new(emptypb.Empty), nil
}

// SetOutput routes the output to the named sink.
func (s *Server) SetOutput(ctx context.Context, req *wrapperspb.StringValue) (*emptypb.Empty, error) {
	name := strings.TrimSpace(req.GetValue())
	if name == "" {
		return nil, status.Error(codes.InvalidArgument, "output name is required")
	}

	if err := s.service.SetOutput(ctx, IncomingActor(ctx), name); err != nil {
		return nil, toStatusError(err)
	}

	return new(emptypb.Empty), nil
}

// Stop disarms the multivibrator.
func (s *Server) Stop(ctx context.Context, _ *emptypb.Empty) (*emptypb.Empty, error) {
	if err := s.service.Stop(ctx, IncomingActor(ctx)); err != nil {
		return nil, toStatusError(err)
	}

	return new(emptypb.Empty), nil
}

// Kill terminates the scheduler. Repeated calls succeed.
func (s *Server) Kill(ctx context.Context, _ *emptypb.Empty) (*emptypb.Empty, error) {
	s.service.Kill(ctx, IncomingActor(ctx))

	return new(emptypb.Empty), nil
}

// GetStatus returns a status snapshot.
func (s *Server) GetStatus(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	st, err := StatusToStruct(s.service.Status(ctx))
	if err != nil {
		return nil, status.Error(codes.Internal, "unable to encode status")
	}

	return st, nil
}

// WatchOutput sends the current level, then every published level until the
// client goes away.
func (s *Server) WatchOutput(_ *emptypb.Empty, stream grpc.ServerStreamingServer[wrapperspb.BoolValue]) error {
	ctx := stream.Context()

	values, cancel := s.service.Watch(ctx)
	defer cancel()

	logger.DebugKV(ctx, "Output watcher attached", "actor", IncomingActor(ctx))

	if err := stream.Send(wrapperspb.Bool(s.service.State(ctx))); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case value, ok := <-values:
			if !ok {
				return nil
			}

			if err := stream.Send(wrapperspb.Bool(value)); err != nil {
				return err
			}
		}
	}
}

// toStatusError maps engine errors to gRPC status codes.
func toStatusError(err error) error {
	switch {
	case errors.Is(err, engine.ErrInvalidMode),
		errors.Is(err, engine.ErrInvalidConfiguration),
		errors.Is(err, engine.ErrIncompatibleSink),
		errors.Is(err, domain.ErrUnknownMode):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, engine.ErrTerminated),
		errors.Is(err, engine.ErrAlreadyStarted):
		return status.Error(codes.FailedPrecondition, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}

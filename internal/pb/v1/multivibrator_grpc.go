package v1

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// This file requires gRPC-Go v1.64.0 or later.
const _ = grpc.SupportPackageIsVersion9

// ServiceName is the fully qualified service name.
const ServiceName = "multivibrator.v1.MultivibratorService"

const (
	MultivibratorService_Trigger_FullMethodName     = "/" + ServiceName + "/Trigger"
	MultivibratorService_SetMode_FullMethodName     = "/" + ServiceName + "/SetMode"
	MultivibratorService_GetState_FullMethodName    = "/" + ServiceName + "/GetState"
	MultivibratorService_SetState_FullMethodName    = "/" + ServiceName + "/SetState"
	MultivibratorService_SetOutput_FullMethodName   = "/" + ServiceName + "/SetOutput"
	MultivibratorService_Stop_FullMethodName        = "/" + ServiceName + "/Stop"
	MultivibratorService_Kill_FullMethodName        = "/" + ServiceName + "/Kill"
	MultivibratorService_GetStatus_FullMethodName   = "/" + ServiceName + "/GetStatus"
	MultivibratorService_WatchOutput_FullMethodName = "/" + ServiceName + "/WatchOutput"
)

// MultivibratorServiceClient is the client API for MultivibratorService.
type MultivibratorServiceClient interface {
	// Trigger arms the multivibrator.
	Trigger(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*emptypb.Empty, error)
	// SetMode switches the mode by name or number and disarms.
	SetMode(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*emptypb.Empty, error)
	// GetState returns the current output.
	GetState(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*wrapperspb.BoolValue, error)
	// SetState forces the output.
	SetState(ctx context.Context, in *wrapperspb.BoolValue, opts ...grpc.CallOption) (*emptypb.Empty, error)
	// SetOutput routes the output to a named sink.
	SetOutput(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*emptypb.Empty, error)
	// Stop disarms the multivibrator.
	Stop(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*emptypb.Empty, error)
	// Kill terminates the scheduler.
	Kill(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*emptypb.Empty, error)
	// GetStatus returns a status snapshot.
	GetStatus(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.Struct, error)
	// WatchOutput streams every published level.
	WatchOutput(
		ctx context.Context,
		in *emptypb.Empty,
		opts ...grpc.CallOption,
	) (grpc.ServerStreamingClient[wrapperspb.BoolValue], error)
}

type multivibratorServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewMultivibratorServiceClient returns a client bound to cc.
//
//nolint:ireturn // Mirrors the generated client constructors.
func NewMultivibratorServiceClient(cc grpc.ClientConnInterface) MultivibratorServiceClient {
	return &multivibratorServiceClient{cc}
}

func invoke[Req, Resp any](
	ctx context.Context,
	cc grpc.ClientConnInterface,
	method string,
	in *Req,
	opts []grpc.CallOption,
) (*Resp, error) {
	cOpts := append([]grpc.CallOption{grpc.StaticMethod()}, opts...)
	out := new(Resp)

	if err := cc.Invoke(ctx, method, in, out, cOpts...); err != nil {
		return nil, err
	}

	return out, nil
}

func (c *multivibratorServiceClient) Trigger(
	ctx context.Context,
	in *emptypb.Empty,
	opts ...grpc.CallOption,
) (*emptypb.Empty, error) {
	return invoke[emptypb.Empty, emptypb.Empty](ctx, c.cc, MultivibratorService_Trigger_FullMethodName, in, opts)
}

func (c *multivibratorServiceClient) SetMode(
	ctx context.Context,
	in *wrapperspb.StringValue,
	opts ...grpc.CallOption,
) (*emptypb.Empty, error) {
	return invoke[wrapperspb.StringValue, emptypb.Empty](ctx, c.cc, MultivibratorService_SetMode_FullMethodName, in, opts)
}

func (c *multivibratorServiceClient) GetState(
	ctx context.Context,
	in *emptypb.Empty,
	opts ...grpc.CallOption,
) (*wrapperspb.BoolValue, error) {
	return invoke[emptypb.Empty, wrapperspb.BoolValue](ctx, c.cc, MultivibratorService_GetState_FullMethodName, in, opts)
}

func (c *multivibratorServiceClient) SetState(
	ctx context.Context,
	in *wrapperspb.BoolValue,
	opts ...grpc.CallOption,
) (*emptypb.Empty, error) {
	return invoke[wrapperspb.BoolValue, emptypb.Empty](ctx, c.cc, MultivibratorService_SetState_FullMethodName, in, opts)
}

func (c *multivibratorServiceClient) SetOutput(
	ctx context.Context,
	in *wrapperspb.StringValue,
	opts ...grpc.CallOption,
) (*emptypb.Empty, error) {
	return invoke[wrapperspb.StringValue, emptypb.Empty](ctx, c.cc, MultivibratorService_SetOutput_FullMethodName, in, opts)
}

func (c *multivibratorServiceClient) Stop(
	ctx context.Context,
	in *emptypb.Empty,
	opts ...grpc.CallOption,
) (*emptypb.Empty, error) {
	return invoke[emptypb.Empty, emptypb.Empty](ctx, c.cc, MultivibratorService_Stop_FullMethodName, in, opts)
}

func (c *multivibratorServiceClient) Kill(
	ctx context.Context,
	in *emptypb.Empty,
	opts ...grpc.CallOption,
) (*emptypb.Empty, error) {
	return invoke[emptypb.Empty, emptypb.Empty](ctx, c.cc, MultivibratorService_Kill_FullMethodName, in, opts)
}

func (c *multivibratorServiceClient) GetStatus(
	ctx context.Context,
	in *emptypb.Empty,
	opts ...grpc.CallOption,
) (*structpb.Struct, error) {
	return invoke[emptypb.Empty, structpb.Struct](ctx, c.cc, MultivibratorService_GetStatus_FullMethodName, in, opts)
}

func (c *multivibratorServiceClient) WatchOutput(
	ctx context.Context,
	in *emptypb.Empty,
	opts ...grpc.CallOption,
) (grpc.ServerStreamingClient[wrapperspb.BoolValue], error) {
	cOpts := append([]grpc.CallOption{grpc.StaticMethod()}, opts...)

	stream, err := c.cc.NewStream(
		ctx,
		&MultivibratorService_ServiceDesc.Streams[0],
		MultivibratorService_WatchOutput_FullMethodName,
		cOpts...,
	)
	if err != nil {
		return nil, err
	}

	x := &grpc.GenericClientStream[emptypb.Empty, wrapperspb.BoolValue]{ClientStream: stream}
	if err := x.ClientStream.SendMsg(in); err != nil {
		return nil, err
	}

	if err := x.ClientStream.CloseSend(); err != nil {
		return nil, err
	}

	return x, nil
}

// MultivibratorService_WatchOutputClient is the client side of WatchOutput.
type MultivibratorService_WatchOutputClient = grpc.ServerStreamingClient[wrapperspb.BoolValue]

// MultivibratorServiceServer is the server API for MultivibratorService.
// Implementations must embed UnimplementedMultivibratorServiceServer.
type MultivibratorServiceServer interface {
	Trigger(ctx context.Context, in *emptypb.Empty) (*emptypb.Empty, error)
	SetMode(ctx context.Context, in *wrapperspb.StringValue) (*emptypb.Empty, error)
	GetState(ctx context.Context, in *emptypb.Empty) (*wrapperspb.BoolValue, error)
	SetState(ctx context.Context, in *wrapperspb.BoolValue) (*emptypb.Empty, error)
	SetOutput(ctx context.Context, in *wrapperspb.StringValue) (*emptypb.Empty, error)
	Stop(ctx context.Context, in *emptypb.Empty) (*emptypb.Empty, error)
	Kill(ctx context.Context, in *emptypb.Empty) (*emptypb.Empty, error)
	GetStatus(ctx context.Context, in *emptypb.Empty) (*structpb.Struct, error)
	WatchOutput(in *emptypb.Empty, stream grpc.ServerStreamingServer[wrapperspb.BoolValue]) error
	mustEmbedUnimplementedMultivibratorServiceServer()
}

// MultivibratorService_WatchOutputServer is the server side of WatchOutput.
type MultivibratorService_WatchOutputServer = grpc.ServerStreamingServer[wrapperspb.BoolValue]

// UnimplementedMultivibratorServiceServer must be embedded by value for
// forward compatible implementations.
type UnimplementedMultivibratorServiceServer struct{}

func (UnimplementedMultivibratorServiceServer) Trigger(context.Context, *emptypb.Empty) (*emptypb.Empty, error) {
	return nil, status.Error(codes.Unimplemented, "method Trigger not implemented")
}

func (UnimplementedMultivibratorServiceServer) SetMode(context.Context, *wrapperspb.StringValue) (*emptypb.Empty, error) {
	return nil, status.Error(codes.Unimplemented, "method SetMode not implemented")
}

func (UnimplementedMultivibratorServiceServer) GetState(context.Context, *emptypb.Empty) (*wrapperspb.BoolValue, error) {
	return nil, status.Error(codes.Unimplemented, "method GetState not implemented")
}

func (UnimplementedMultivibratorServiceServer) SetState(context.Context, *wrapperspb.BoolValue) (*emptypb.Empty, error) {
	return nil, status.Error(codes.Unimplemented, "method SetState not implemented")
}

func (UnimplementedMultivibratorServiceServer) SetOutput(
	context.Context,
	*wrapperspb.StringValue,
) (*emptypb.Empty, error) {
	return nil, status.Error(codes.Unimplemented, "method SetOutput not implemented")
}

func (UnimplementedMultivibratorServiceServer) Stop(context.Context, *emptypb.Empty) (*emptypb.Empty, error) {
	return nil, status.Error(codes.Unimplemented, "method Stop not implemented")
}

func (UnimplementedMultivibratorServiceServer) Kill(context.Context, *emptypb.Empty) (*emptypb.Empty, error) {
	return nil, status.Error(codes.Unimplemented, "method Kill not implemented")
}

func (UnimplementedMultivibratorServiceServer) GetStatus(context.Context, *emptypb.Empty) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method GetStatus not implemented")
}

func (UnimplementedMultivibratorServiceServer) WatchOutput(
	*emptypb.Empty,
	grpc.ServerStreamingServer[wrapperspb.BoolValue],
) error {
	return status.Error(codes.Unimplemented, "method WatchOutput not implemented")
}

func (UnimplementedMultivibratorServiceServer) mustEmbedUnimplementedMultivibratorServiceServer() {}

func (UnimplementedMultivibratorServiceServer) testEmbeddedByValue() {}

// RegisterMultivibratorServiceServer registers srv on s.
func RegisterMultivibratorServiceServer(s grpc.ServiceRegistrar, srv MultivibratorServiceServer) {
	// Panics here rather than at the first RPC if the embed is a nil pointer.
	if t, ok := srv.(interface{ testEmbeddedByValue() }); ok {
		t.testEmbeddedByValue()
	}

	s.RegisterService(&MultivibratorService_ServiceDesc, srv)
}

// unaryHandler adapts a typed server method to grpc.MethodHandler.
func unaryHandler[Req, Resp any](
	method string,
	call func(srv MultivibratorServiceServer, ctx context.Context, in *Req) (*Resp, error),
) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}

		if interceptor == nil {
			return call(srv.(MultivibratorServiceServer), ctx, in) //nolint:forcetypeassert // Guaranteed by HandlerType.
		}

		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: method,
		}

		handler := func(ctx context.Context, req any) (any, error) {
			//nolint:forcetypeassert // Guaranteed by HandlerType and dec.
			return call(srv.(MultivibratorServiceServer), ctx, req.(*Req))
		}

		return interceptor(ctx, in, info, handler)
	}
}

func watchOutputHandler(srv any, stream grpc.ServerStream) error {
	in := new(emptypb.Empty)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}

	//nolint:forcetypeassert // Guaranteed by HandlerType.
	return srv.(MultivibratorServiceServer).WatchOutput(
		in,
		&grpc.GenericServerStream[emptypb.Empty, wrapperspb.BoolValue]{ServerStream: stream},
	)
}

// MultivibratorService_ServiceDesc is the grpc.ServiceDesc for MultivibratorService.
//
//nolint:gochecknoglobals // Service descriptors are package-level by convention.
var MultivibratorService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*MultivibratorServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Trigger",
			Handler: unaryHandler(MultivibratorService_Trigger_FullMethodName, MultivibratorServiceServer.Trigger),
		},
		{
			MethodName: "SetMode",
			Handler: unaryHandler(MultivibratorService_SetMode_FullMethodName, MultivibratorServiceServer.SetMode),
		},
		{
			MethodName: "GetState",
			Handler: unaryHandler(MultivibratorService_GetState_FullMethodName, MultivibratorServiceServer.GetState),
		},
		{
			MethodName: "SetState",
			Handler: unaryHandler(MultivibratorService_SetState_FullMethodName, MultivibratorServiceServer.SetState),
		},
		{
			MethodName: "SetOutput",
			Handler: unaryHandler(MultivibratorService_SetOutput_FullMethodName, MultivibratorServiceServer.SetOutput),
		},
		{
			MethodName: "Stop",
			Handler: unaryHandler(MultivibratorService_Stop_FullMethodName, MultivibratorServiceServer.Stop),
		},
		{
			MethodName: "Kill",
			Handler: unaryHandler(MultivibratorService_Kill_FullMethodName, MultivibratorServiceServer.Kill),
		},
		{
			MethodName: "GetStatus",
			Handler: unaryHandler(MultivibratorService_GetStatus_FullMethodName, MultivibratorServiceServer.GetStatus),
		},
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "WatchOutput",
			Handler:       watchOutputHandler,
			ServerStreams: true,
		},
	},
	Metadata: "multivibrator/v1/multivibrator.proto",
}

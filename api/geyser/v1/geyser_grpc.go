package geyserv1

import (
	"context"
	"io"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ServiceName is the fully-qualified gRPC service name.
const ServiceName = "geyser.v1.Geyser"

const (
	Geyser_GetHeartbeatInterval_FullMethodName        = "/geyser.v1.Geyser/GetHeartbeatInterval"
	Geyser_GetHighestWriteSlot_FullMethodName         = "/geyser.v1.Geyser/GetHighestWriteSlot"
	Geyser_SubscribeAccountUpdates_FullMethodName     = "/geyser.v1.Geyser/SubscribeAccountUpdates"
	Geyser_SubscribeSlotUpdates_FullMethodName        = "/geyser.v1.Geyser/SubscribeSlotUpdates"
	Geyser_SubscribeSlotEntryUpdates_FullMethodName   = "/geyser.v1.Geyser/SubscribeSlotEntryUpdates"
	Geyser_SubscribeBlockUpdates_FullMethodName       = "/geyser.v1.Geyser/SubscribeBlockUpdates"
	Geyser_SubscribeTransactionUpdates_FullMethodName = "/geyser.v1.Geyser/SubscribeTransactionUpdates"
)

// ServerStream is the server side of a server-streaming RPC sending T.
type ServerStream[T any] interface {
	Send(*T) error
	grpc.ServerStream
}

// ClientStream is the client side of a server-streaming RPC receiving T.
type ClientStream[T any] interface {
	Recv() (*T, error)
	grpc.ClientStream
}

type serverStream[T any] struct {
	grpc.ServerStream
}

func (s *serverStream[T]) Send(m *T) error { return s.ServerStream.SendMsg(m) }

type clientStream[T any] struct {
	grpc.ClientStream
}

func (c *clientStream[T]) Recv() (*T, error) {
	m := new(T)
	if err := c.ClientStream.RecvMsg(m); err != nil {
		return nil, err
	}
	return m, nil
}

// GeyserServer is the server API for the Geyser service.
type GeyserServer interface {
	GetHeartbeatInterval(context.Context, *GetHeartbeatIntervalRequest) (*GetHeartbeatIntervalResponse, error)
	GetHighestWriteSlot(context.Context, *GetHighestWriteSlotRequest) (*GetHighestWriteSlotResponse, error)
	SubscribeAccountUpdates(*SubscribeAccountUpdatesRequest, ServerStream[TimestampedAccountUpdate]) error
	SubscribeSlotUpdates(*SubscribeSlotUpdatesRequest, ServerStream[TimestampedSlotUpdate]) error
	SubscribeSlotEntryUpdates(*SubscribeSlotEntryUpdatesRequest, ServerStream[TimestampedSlotEntryUpdate]) error
	SubscribeBlockUpdates(*SubscribeBlockUpdatesRequest, ServerStream[TimestampedBlockUpdate]) error
	SubscribeTransactionUpdates(*SubscribeTransactionUpdatesRequest, ServerStream[TimestampedTransactionUpdate]) error
}

// UnimplementedGeyserServer can be embedded to have forward compatible implementations.
type UnimplementedGeyserServer struct{}

func (UnimplementedGeyserServer) GetHeartbeatInterval(context.Context, *GetHeartbeatIntervalRequest) (*GetHeartbeatIntervalResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method GetHeartbeatInterval not implemented")
}
func (UnimplementedGeyserServer) GetHighestWriteSlot(context.Context, *GetHighestWriteSlotRequest) (*GetHighestWriteSlotResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method GetHighestWriteSlot not implemented")
}
func (UnimplementedGeyserServer) SubscribeAccountUpdates(*SubscribeAccountUpdatesRequest, ServerStream[TimestampedAccountUpdate]) error {
	return status.Error(codes.Unimplemented, "method SubscribeAccountUpdates not implemented")
}
func (UnimplementedGeyserServer) SubscribeSlotUpdates(*SubscribeSlotUpdatesRequest, ServerStream[TimestampedSlotUpdate]) error {
	return status.Error(codes.Unimplemented, "method SubscribeSlotUpdates not implemented")
}
func (UnimplementedGeyserServer) SubscribeSlotEntryUpdates(*SubscribeSlotEntryUpdatesRequest, ServerStream[TimestampedSlotEntryUpdate]) error {
	return status.Error(codes.Unimplemented, "method SubscribeSlotEntryUpdates not implemented")
}
func (UnimplementedGeyserServer) SubscribeBlockUpdates(*SubscribeBlockUpdatesRequest, ServerStream[TimestampedBlockUpdate]) error {
	return status.Error(codes.Unimplemented, "method SubscribeBlockUpdates not implemented")
}
func (UnimplementedGeyserServer) SubscribeTransactionUpdates(*SubscribeTransactionUpdatesRequest, ServerStream[TimestampedTransactionUpdate]) error {
	return status.Error(codes.Unimplemented, "method SubscribeTransactionUpdates not implemented")
}

// RegisterGeyserServer registers srv on s.
func RegisterGeyserServer(s grpc.ServiceRegistrar, srv GeyserServer) {
	s.RegisterService(&Geyser_ServiceDesc, srv)
}

func unaryHandler[Req any, Res any](method string, call func(GeyserServer, context.Context, *Req) (*Res, error)) func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(GeyserServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: method}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(GeyserServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

func streamHandler[Req any, Res any](call func(GeyserServer, *Req, ServerStream[Res]) error) grpc.StreamHandler {
	return func(srv any, stream grpc.ServerStream) error {
		in := new(Req)
		if err := stream.RecvMsg(in); err != nil {
			return err
		}
		return call(srv.(GeyserServer), in, &serverStream[Res]{stream})
	}
}

// Geyser_ServiceDesc is the grpc.ServiceDesc for the Geyser service.
var Geyser_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*GeyserServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "GetHeartbeatInterval",
			Handler:    unaryHandler(Geyser_GetHeartbeatInterval_FullMethodName, GeyserServer.GetHeartbeatInterval),
		},
		{
			MethodName: "GetHighestWriteSlot",
			Handler:    unaryHandler(Geyser_GetHighestWriteSlot_FullMethodName, GeyserServer.GetHighestWriteSlot),
		},
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "SubscribeAccountUpdates",
			Handler:       streamHandler(GeyserServer.SubscribeAccountUpdates),
			ServerStreams: true,
		},
		{
			StreamName:    "SubscribeSlotUpdates",
			Handler:       streamHandler(GeyserServer.SubscribeSlotUpdates),
			ServerStreams: true,
		},
		{
			StreamName:    "SubscribeSlotEntryUpdates",
			Handler:       streamHandler(GeyserServer.SubscribeSlotEntryUpdates),
			ServerStreams: true,
		},
		{
			StreamName:    "SubscribeBlockUpdates",
			Handler:       streamHandler(GeyserServer.SubscribeBlockUpdates),
			ServerStreams: true,
		},
		{
			StreamName:    "SubscribeTransactionUpdates",
			Handler:       streamHandler(GeyserServer.SubscribeTransactionUpdates),
			ServerStreams: true,
		},
	},
	Metadata: "geyser/v1/geyser.proto",
}

// GeyserClient is the client API for the Geyser service.
type GeyserClient interface {
	GetHeartbeatInterval(ctx context.Context, in *GetHeartbeatIntervalRequest, opts ...grpc.CallOption) (*GetHeartbeatIntervalResponse, error)
	GetHighestWriteSlot(ctx context.Context, in *GetHighestWriteSlotRequest, opts ...grpc.CallOption) (*GetHighestWriteSlotResponse, error)
	SubscribeAccountUpdates(ctx context.Context, in *SubscribeAccountUpdatesRequest, opts ...grpc.CallOption) (ClientStream[TimestampedAccountUpdate], error)
	SubscribeSlotUpdates(ctx context.Context, in *SubscribeSlotUpdatesRequest, opts ...grpc.CallOption) (ClientStream[TimestampedSlotUpdate], error)
	SubscribeSlotEntryUpdates(ctx context.Context, in *SubscribeSlotEntryUpdatesRequest, opts ...grpc.CallOption) (ClientStream[TimestampedSlotEntryUpdate], error)
	SubscribeBlockUpdates(ctx context.Context, in *SubscribeBlockUpdatesRequest, opts ...grpc.CallOption) (ClientStream[TimestampedBlockUpdate], error)
	SubscribeTransactionUpdates(ctx context.Context, in *SubscribeTransactionUpdatesRequest, opts ...grpc.CallOption) (ClientStream[TimestampedTransactionUpdate], error)
}

type geyserClient struct {
	cc grpc.ClientConnInterface
}

// NewGeyserClient returns a client that encodes with the geyser codec.
func NewGeyserClient(cc grpc.ClientConnInterface) GeyserClient {
	return &geyserClient{cc: cc}
}

func withCodec(opts []grpc.CallOption) []grpc.CallOption {
	return append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
}

func (c *geyserClient) GetHeartbeatInterval(ctx context.Context, in *GetHeartbeatIntervalRequest, opts ...grpc.CallOption) (*GetHeartbeatIntervalResponse, error) {
	out := new(GetHeartbeatIntervalResponse)
	if err := c.cc.Invoke(ctx, Geyser_GetHeartbeatInterval_FullMethodName, in, out, withCodec(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *geyserClient) GetHighestWriteSlot(ctx context.Context, in *GetHighestWriteSlotRequest, opts ...grpc.CallOption) (*GetHighestWriteSlotResponse, error) {
	out := new(GetHighestWriteSlotResponse)
	if err := c.cc.Invoke(ctx, Geyser_GetHighestWriteSlot_FullMethodName, in, out, withCodec(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func openStream[Req any, Res any](ctx context.Context, cc grpc.ClientConnInterface, desc *grpc.StreamDesc, method string, in *Req, opts []grpc.CallOption) (ClientStream[Res], error) {
	stream, err := cc.NewStream(ctx, desc, method, withCodec(opts)...)
	if err != nil {
		return nil, err
	}
	x := &clientStream[Res]{stream}
	// io.EOF means the server already ended the call; Recv reports its status.
	if err := x.ClientStream.SendMsg(in); err != nil && err != io.EOF {
		return nil, err
	}
	if err := x.ClientStream.CloseSend(); err != nil {
		return nil, err
	}
	return x, nil
}

func (c *geyserClient) SubscribeAccountUpdates(ctx context.Context, in *SubscribeAccountUpdatesRequest, opts ...grpc.CallOption) (ClientStream[TimestampedAccountUpdate], error) {
	return openStream[SubscribeAccountUpdatesRequest, TimestampedAccountUpdate](ctx, c.cc, &Geyser_ServiceDesc.Streams[0], Geyser_SubscribeAccountUpdates_FullMethodName, in, opts)
}

func (c *geyserClient) SubscribeSlotUpdates(ctx context.Context, in *SubscribeSlotUpdatesRequest, opts ...grpc.CallOption) (ClientStream[TimestampedSlotUpdate], error) {
	return openStream[SubscribeSlotUpdatesRequest, TimestampedSlotUpdate](ctx, c.cc, &Geyser_ServiceDesc.Streams[1], Geyser_SubscribeSlotUpdates_FullMethodName, in, opts)
}

func (c *geyserClient) SubscribeSlotEntryUpdates(ctx context.Context, in *SubscribeSlotEntryUpdatesRequest, opts ...grpc.CallOption) (ClientStream[TimestampedSlotEntryUpdate], error) {
	return openStream[SubscribeSlotEntryUpdatesRequest, TimestampedSlotEntryUpdate](ctx, c.cc, &Geyser_ServiceDesc.Streams[2], Geyser_SubscribeSlotEntryUpdates_FullMethodName, in, opts)
}

func (c *geyserClient) SubscribeBlockUpdates(ctx context.Context, in *SubscribeBlockUpdatesRequest, opts ...grpc.CallOption) (ClientStream[TimestampedBlockUpdate], error) {
	return openStream[SubscribeBlockUpdatesRequest, TimestampedBlockUpdate](ctx, c.cc, &Geyser_ServiceDesc.Streams[3], Geyser_SubscribeBlockUpdates_FullMethodName, in, opts)
}

func (c *geyserClient) SubscribeTransactionUpdates(ctx context.Context, in *SubscribeTransactionUpdatesRequest, opts ...grpc.CallOption) (ClientStream[TimestampedTransactionUpdate], error) {
	return openStream[SubscribeTransactionUpdatesRequest, TimestampedTransactionUpdate](ctx, c.cc, &Geyser_ServiceDesc.Streams[4], Geyser_SubscribeTransactionUpdates_FullMethodName, in, opts)
}

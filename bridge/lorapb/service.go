package lorapb

import (
	"context"

	"google.golang.org/grpc"
)

// serviceName and method paths follow the same "/package.Service/Method"
// convention protoc-gen-go-grpc emits; there is no lorapb.proto file this
// was generated from (see package doc), but the descriptors below are
// wired exactly as that generated code would wire them.
const serviceName = "lorapb.Bridge"

// BridgeServer is the server-side contract: push refresh events to a
// subscriber, accept commands back.
type BridgeServer interface {
	Subscribe(*SubscribeRequest, Bridge_SubscribeServer) error
	Command(context.Context, *CommandMessage) (*CommandAck, error)
}

// Bridge_SubscribeServer is the server-side handle to one subscriber's
// stream.
type Bridge_SubscribeServer interface {
	Send(*RefreshEvent) error
	grpc.ServerStream
}

type bridgeSubscribeServer struct {
	grpc.ServerStream
}

func (x *bridgeSubscribeServer) Send(m *RefreshEvent) error {
	return x.ServerStream.SendMsg(m)
}

func bridgeSubscribeHandler(srv interface{}, stream grpc.ServerStream) error {
	m := new(SubscribeRequest)
	if err := stream.RecvMsg(m); err != nil {
		return err
	}
	return srv.(BridgeServer).Subscribe(m, &bridgeSubscribeServer{stream})
}

func bridgeCommandHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(CommandMessage)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(BridgeServer).Command(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + serviceName + "/Command"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(BridgeServer).Command(ctx, req.(*CommandMessage))
	}
	return interceptor(ctx, in, info, handler)
}

// ServiceDesc is the hand-written equivalent of what protoc-gen-go-grpc
// would emit for a service with one server-streaming and one unary RPC.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*BridgeServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Command", Handler: bridgeCommandHandler},
	},
	Streams: []grpc.StreamDesc{
		{StreamName: "Subscribe", Handler: bridgeSubscribeHandler, ServerStreams: true},
	},
	Metadata: "lorapb",
}

// RegisterBridgeServer registers srv on s.
func RegisterBridgeServer(s grpc.ServiceRegistrar, srv BridgeServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// BridgeClient is the client-side contract, used by a CLI or external UI.
type BridgeClient interface {
	Subscribe(ctx context.Context, in *SubscribeRequest, opts ...grpc.CallOption) (Bridge_SubscribeClient, error)
	Command(ctx context.Context, in *CommandMessage, opts ...grpc.CallOption) (*CommandAck, error)
}

type bridgeClient struct {
	cc grpc.ClientConnInterface
}

// NewBridgeClient wraps cc, which must have been dialed with
// grpc.WithDefaultCallOptions(grpc.CallContentSubtype(lorapb.CodecName()))
// so calls use this package's codec rather than grpc's default proto codec.
func NewBridgeClient(cc grpc.ClientConnInterface) BridgeClient {
	return &bridgeClient{cc: cc}
}

// CodecName returns the content-subtype to request via
// grpc.CallContentSubtype when dialing a server built with NewGRPCServer.
func CodecName() string { return codecName }

func (c *bridgeClient) Subscribe(ctx context.Context, in *SubscribeRequest, opts ...grpc.CallOption) (Bridge_SubscribeClient, error) {
	stream, err := c.cc.NewStream(ctx, &ServiceDesc.Streams[0], "/"+serviceName+"/Subscribe", opts...)
	if err != nil {
		return nil, err
	}
	x := &bridgeSubscribeClient{stream}
	if err := x.ClientStream.SendMsg(in); err != nil {
		return nil, err
	}
	if err := x.ClientStream.CloseSend(); err != nil {
		return nil, err
	}
	return x, nil
}

// Bridge_SubscribeClient is the client-side handle to the event stream.
type Bridge_SubscribeClient interface {
	Recv() (*RefreshEvent, error)
	grpc.ClientStream
}

type bridgeSubscribeClient struct {
	grpc.ClientStream
}

func (x *bridgeSubscribeClient) Recv() (*RefreshEvent, error) {
	m := new(RefreshEvent)
	if err := x.ClientStream.RecvMsg(m); err != nil {
		return nil, err
	}
	return m, nil
}

func (c *bridgeClient) Command(ctx context.Context, in *CommandMessage, opts ...grpc.CallOption) (*CommandAck, error) {
	out := new(CommandAck)
	if err := c.cc.Invoke(ctx, "/"+serviceName+"/Command", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// NewGRPCServer returns a grpc.Server configured to use this package's
// codec by default, so callers don't need to pass grpc.ForceServerCodec
// themselves.
func NewGRPCServer(opt ...grpc.ServerOption) *grpc.Server {
	opts := append([]grpc.ServerOption{grpc.ForceServerCodec(gobCodec{})}, opt...)
	return grpc.NewServer(opts...)
}

package proto

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

const IdentityServiceName = "pinsession.identity.v1.IdentityService"

const (
	IdentityService_SignUp_FullMethodName        = "/" + IdentityServiceName + "/SignUp"
	IdentityService_SignIn_FullMethodName        = "/" + IdentityServiceName + "/SignIn"
	IdentityService_UpdateProfile_FullMethodName = "/" + IdentityServiceName + "/UpdateProfile"
	IdentityService_SignOut_FullMethodName       = "/" + IdentityServiceName + "/SignOut"
	IdentityService_RefreshToken_FullMethodName  = "/" + IdentityServiceName + "/RefreshToken"
	IdentityService_Ping_FullMethodName          = "/" + IdentityServiceName + "/Ping"
	IdentityService_WatchIdentity_FullMethodName = "/" + IdentityServiceName + "/WatchIdentity"
)

// IdentityServiceClient is the client API for IdentityService.
type IdentityServiceClient interface {
	SignUp(ctx context.Context, in *Credentials, opts ...grpc.CallOption) (*AuthResponse, error)
	SignIn(ctx context.Context, in *Credentials, opts ...grpc.CallOption) (*AuthResponse, error)
	UpdateProfile(ctx context.Context, in *UpdateProfileRequest, opts ...grpc.CallOption) (*Identity, error)
	SignOut(ctx context.Context, opts ...grpc.CallOption) error
	RefreshToken(ctx context.Context, in *RefreshTokenRequest, opts ...grpc.CallOption) (*TokenPair, error)
	Ping(ctx context.Context, opts ...grpc.CallOption) (*PingResponse, error)
	WatchIdentity(ctx context.Context, opts ...grpc.CallOption) (IdentityService_WatchIdentityClient, error)
}

type identityServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewIdentityServiceClient(cc grpc.ClientConnInterface) IdentityServiceClient {
	return &identityServiceClient{cc: cc}
}

func (c *identityServiceClient) invoke(ctx context.Context, method string, in *structpb.Struct, opts []grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *identityServiceClient) SignUp(ctx context.Context, in *Credentials, opts ...grpc.CallOption) (*AuthResponse, error) {
	req, err := in.toStruct()
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	out, err := c.invoke(ctx, IdentityService_SignUp_FullMethodName, req, opts)
	if err != nil {
		return nil, err
	}
	return authResponseFromStruct(out), nil
}

func (c *identityServiceClient) SignIn(ctx context.Context, in *Credentials, opts ...grpc.CallOption) (*AuthResponse, error) {
	req, err := in.toStruct()
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	out, err := c.invoke(ctx, IdentityService_SignIn_FullMethodName, req, opts)
	if err != nil {
		return nil, err
	}
	return authResponseFromStruct(out), nil
}

func (c *identityServiceClient) UpdateProfile(ctx context.Context, in *UpdateProfileRequest, opts ...grpc.CallOption) (*Identity, error) {
	req, err := in.toStruct()
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	out, err := c.invoke(ctx, IdentityService_UpdateProfile_FullMethodName, req, opts)
	if err != nil {
		return nil, err
	}
	return identityFromStruct(out), nil
}

func (c *identityServiceClient) SignOut(ctx context.Context, opts ...grpc.CallOption) error {
	return c.cc.Invoke(ctx, IdentityService_SignOut_FullMethodName, &emptypb.Empty{}, new(emptypb.Empty), opts...)
}

func (c *identityServiceClient) RefreshToken(ctx context.Context, in *RefreshTokenRequest, opts ...grpc.CallOption) (*TokenPair, error) {
	req, err := in.toStruct()
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	out, err := c.invoke(ctx, IdentityService_RefreshToken_FullMethodName, req, opts)
	if err != nil {
		return nil, err
	}
	return tokenPairFromStruct(out), nil
}

func (c *identityServiceClient) Ping(ctx context.Context, opts ...grpc.CallOption) (*PingResponse, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, IdentityService_Ping_FullMethodName, &emptypb.Empty{}, out, opts...); err != nil {
		return nil, err
	}
	return pingResponseFromStruct(out), nil
}

func (c *identityServiceClient) WatchIdentity(ctx context.Context, opts ...grpc.CallOption) (IdentityService_WatchIdentityClient, error) {
	stream, err := c.cc.NewStream(ctx, &IdentityService_ServiceDesc.Streams[0], IdentityService_WatchIdentity_FullMethodName, opts...)
	if err != nil {
		return nil, err
	}
	x := &identityServiceWatchIdentityClient{stream}
	if err := x.ClientStream.SendMsg(&emptypb.Empty{}); err != nil {
		return nil, err
	}
	if err := x.ClientStream.CloseSend(); err != nil {
		return nil, err
	}
	return x, nil
}

// IdentityService_WatchIdentityClient receives identity events pushed by the server.
type IdentityService_WatchIdentityClient interface {
	Recv() (*IdentityEvent, error)
	grpc.ClientStream
}

type identityServiceWatchIdentityClient struct {
	grpc.ClientStream
}

func (x *identityServiceWatchIdentityClient) Recv() (*IdentityEvent, error) {
	m := new(structpb.Struct)
	if err := x.ClientStream.RecvMsg(m); err != nil {
		return nil, err
	}
	return identityEventFromStruct(m), nil
}

// IdentityServiceServer is the server API for IdentityService.
type IdentityServiceServer interface {
	SignUp(context.Context, *Credentials) (*AuthResponse, error)
	SignIn(context.Context, *Credentials) (*AuthResponse, error)
	UpdateProfile(context.Context, *UpdateProfileRequest) (*Identity, error)
	SignOut(context.Context) error
	RefreshToken(context.Context, *RefreshTokenRequest) (*TokenPair, error)
	Ping(context.Context) (*PingResponse, error)
	WatchIdentity(IdentityService_WatchIdentityServer) error
}

// UnimplementedIdentityServiceServer can be embedded to have forward compatible implementations.
type UnimplementedIdentityServiceServer struct{}

func (UnimplementedIdentityServiceServer) SignUp(context.Context, *Credentials) (*AuthResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method SignUp not implemented")
}
func (UnimplementedIdentityServiceServer) SignIn(context.Context, *Credentials) (*AuthResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method SignIn not implemented")
}
func (UnimplementedIdentityServiceServer) UpdateProfile(context.Context, *UpdateProfileRequest) (*Identity, error) {
	return nil, status.Error(codes.Unimplemented, "method UpdateProfile not implemented")
}
func (UnimplementedIdentityServiceServer) SignOut(context.Context) error {
	return status.Error(codes.Unimplemented, "method SignOut not implemented")
}
func (UnimplementedIdentityServiceServer) RefreshToken(context.Context, *RefreshTokenRequest) (*TokenPair, error) {
	return nil, status.Error(codes.Unimplemented, "method RefreshToken not implemented")
}
func (UnimplementedIdentityServiceServer) Ping(context.Context) (*PingResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method Ping not implemented")
}
func (UnimplementedIdentityServiceServer) WatchIdentity(IdentityService_WatchIdentityServer) error {
	return status.Error(codes.Unimplemented, "method WatchIdentity not implemented")
}

func RegisterIdentityServiceServer(s grpc.ServiceRegistrar, srv IdentityServiceServer) {
	s.RegisterService(&IdentityService_ServiceDesc, srv)
}

// IdentityService_WatchIdentityServer sends identity events to one watcher.
type IdentityService_WatchIdentityServer interface {
	Send(*IdentityEvent) error
	grpc.ServerStream
}

type identityServiceWatchIdentityServer struct {
	grpc.ServerStream
}

func (x *identityServiceWatchIdentityServer) Send(m *IdentityEvent) error {
	out, err := m.toStruct()
	if err != nil {
		return status.Error(codes.Internal, err.Error())
	}
	return x.ServerStream.SendMsg(out)
}

type unaryCall[Req any] func(srv IdentityServiceServer, ctx context.Context, req Req) (any, error)

// structUnary adapts a typed server method taking a Struct-encoded request.
func structUnary[Req any](fullMethod string, decode func(*structpb.Struct) Req, call unaryCall[Req]) func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		return intercept(srv, ctx, decode(in), fullMethod, interceptor, call)
	}
}

// emptyUnary adapts a typed server method that takes no request fields.
func emptyUnary(fullMethod string, call unaryCall[struct{}]) func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(emptypb.Empty)
		if err := dec(in); err != nil {
			return nil, err
		}
		return intercept(srv, ctx, struct{}{}, fullMethod, interceptor, call)
	}
}

func intercept[Req any](srv any, ctx context.Context, req Req, fullMethod string, interceptor grpc.UnaryServerInterceptor, call unaryCall[Req]) (any, error) {
	handler := func(ctx context.Context, r any) (any, error) {
		return call(srv.(IdentityServiceServer), ctx, r.(Req))
	}
	if interceptor == nil {
		return handler(ctx, req)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
	return interceptor(ctx, req, info, handler)
}

func _IdentityService_WatchIdentity_Handler(srv any, stream grpc.ServerStream) error {
	m := new(emptypb.Empty)
	if err := stream.RecvMsg(m); err != nil {
		return err
	}
	return srv.(IdentityServiceServer).WatchIdentity(&identityServiceWatchIdentityServer{stream})
}

// IdentityService_ServiceDesc is the grpc.ServiceDesc for IdentityService.
var IdentityService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: IdentityServiceName,
	HandlerType: (*IdentityServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "SignUp",
			Handler: structUnary(IdentityService_SignUp_FullMethodName, credentialsFromStruct,
				func(srv IdentityServiceServer, ctx context.Context, req *Credentials) (any, error) {
					resp, err := srv.SignUp(ctx, req)
					if err != nil {
						return nil, err
					}
					return resp.toStruct()
				}),
		},
		{
			MethodName: "SignIn",
			Handler: structUnary(IdentityService_SignIn_FullMethodName, credentialsFromStruct,
				func(srv IdentityServiceServer, ctx context.Context, req *Credentials) (any, error) {
					resp, err := srv.SignIn(ctx, req)
					if err != nil {
						return nil, err
					}
					return resp.toStruct()
				}),
		},
		{
			MethodName: "UpdateProfile",
			Handler: structUnary(IdentityService_UpdateProfile_FullMethodName, updateProfileRequestFromStruct,
				func(srv IdentityServiceServer, ctx context.Context, req *UpdateProfileRequest) (any, error) {
					resp, err := srv.UpdateProfile(ctx, req)
					if err != nil {
						return nil, err
					}
					return resp.toStruct()
				}),
		},
		{
			MethodName: "SignOut",
			Handler: emptyUnary(IdentityService_SignOut_FullMethodName,
				func(srv IdentityServiceServer, ctx context.Context, _ struct{}) (any, error) {
					if err := srv.SignOut(ctx); err != nil {
						return nil, err
					}
					return &emptypb.Empty{}, nil
				}),
		},
		{
			MethodName: "RefreshToken",
			Handler: structUnary(IdentityService_RefreshToken_FullMethodName, refreshTokenRequestFromStruct,
				func(srv IdentityServiceServer, ctx context.Context, req *RefreshTokenRequest) (any, error) {
					resp, err := srv.RefreshToken(ctx, req)
					if err != nil {
						return nil, err
					}
					return resp.toStruct()
				}),
		},
		{
			MethodName: "Ping",
			Handler: emptyUnary(IdentityService_Ping_FullMethodName,
				func(srv IdentityServiceServer, ctx context.Context, _ struct{}) (any, error) {
					resp, err := srv.Ping(ctx)
					if err != nil {
						return nil, err
					}
					return resp.toStruct()
				}),
		},
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "WatchIdentity",
			Handler:       _IdentityService_WatchIdentity_Handler,
			ServerStreams: true,
		},
	},
	Metadata: "pinsession/identity/v1/identity.proto",
}

package chatv1

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const ServiceName = "pairchat.v1.PairChat"

// Full method names.
const (
	PairChat_Register_FullMethodName             = "/pairchat.v1.PairChat/Register"
	PairChat_Login_FullMethodName                = "/pairchat.v1.PairChat/Login"
	PairChat_Me_FullMethodName                   = "/pairchat.v1.PairChat/Me"
	PairChat_RequestPasswordReset_FullMethodName = "/pairchat.v1.PairChat/RequestPasswordReset"
	PairChat_ResetPassword_FullMethodName        = "/pairchat.v1.PairChat/ResetPassword"
	PairChat_ListUsers_FullMethodName            = "/pairchat.v1.PairChat/ListUsers"
	PairChat_SendChatRequest_FullMethodName      = "/pairchat.v1.PairChat/SendChatRequest"
	PairChat_RespondChatRequest_FullMethodName   = "/pairchat.v1.PairChat/RespondChatRequest"
	PairChat_ListChatRequests_FullMethodName     = "/pairchat.v1.PairChat/ListChatRequests"
	PairChat_ListChats_FullMethodName            = "/pairchat.v1.PairChat/ListChats"
	PairChat_DeleteChat_FullMethodName           = "/pairchat.v1.PairChat/DeleteChat"
	PairChat_Connect_FullMethodName              = "/pairchat.v1.PairChat/Connect"
)

// PairChatServer is the server API for the PairChat service.
type PairChatServer interface {
	Register(context.Context, *RegisterRequest) (*AuthResponse, error)
	Login(context.Context, *LoginRequest) (*AuthResponse, error)
	Me(context.Context, *Empty) (*AuthResponse, error)
	RequestPasswordReset(context.Context, *PasswordResetRequest) (*Empty, error)
	ResetPassword(context.Context, *ResetPasswordRequest) (*Empty, error)
	ListUsers(context.Context, *ListUsersRequest) (*ListUsersResponse, error)
	SendChatRequest(context.Context, *SendChatRequestRequest) (*SendChatRequestResponse, error)
	RespondChatRequest(context.Context, *RespondChatRequestRequest) (*RespondChatRequestResponse, error)
	ListChatRequests(context.Context, *Empty) (*ListChatRequestsResponse, error)
	ListChats(context.Context, *Empty) (*ListChatsResponse, error)
	DeleteChat(context.Context, *DeleteChatRequest) (*Empty, error)
	// Connect is the bidirectional real-time channel.
	Connect(PairChat_ConnectServer) error
}

// UnimplementedPairChatServer can be embedded for forward compatibility.
type UnimplementedPairChatServer struct{}

func (UnimplementedPairChatServer) Register(context.Context, *RegisterRequest) (*AuthResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method Register not implemented")
}
func (UnimplementedPairChatServer) Login(context.Context, *LoginRequest) (*AuthResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method Login not implemented")
}
func (UnimplementedPairChatServer) Me(context.Context, *Empty) (*AuthResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method Me not implemented")
}
func (UnimplementedPairChatServer) RequestPasswordReset(context.Context, *PasswordResetRequest) (*Empty, error) {
	return nil, status.Error(codes.Unimplemented, "method RequestPasswordReset not implemented")
}
func (UnimplementedPairChatServer) ResetPassword(context.Context, *ResetPasswordRequest) (*Empty, error) {
	return nil, status.Error(codes.Unimplemented, "method ResetPassword not implemented")
}
func (UnimplementedPairChatServer) ListUsers(context.Context, *ListUsersRequest) (*ListUsersResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method ListUsers not implemented")
}
func (UnimplementedPairChatServer) SendChatRequest(context.Context, *SendChatRequestRequest) (*SendChatRequestResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method SendChatRequest not implemented")
}
func (UnimplementedPairChatServer) RespondChatRequest(context.Context, *RespondChatRequestRequest) (*RespondChatRequestResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method RespondChatRequest not implemented")
}
func (UnimplementedPairChatServer) ListChatRequests(context.Context, *Empty) (*ListChatRequestsResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method ListChatRequests not implemented")
}
func (UnimplementedPairChatServer) ListChats(context.Context, *Empty) (*ListChatsResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method ListChats not implemented")
}
func (UnimplementedPairChatServer) DeleteChat(context.Context, *DeleteChatRequest) (*Empty, error) {
	return nil, status.Error(codes.Unimplemented, "method DeleteChat not implemented")
}
func (UnimplementedPairChatServer) Connect(PairChat_ConnectServer) error {
	return status.Error(codes.Unimplemented, "method Connect not implemented")
}

// PairChat_ConnectServer is the server side of the Connect stream.
type PairChat_ConnectServer interface {
	Send(*ServerEvent) error
	Recv() (*ClientEvent, error)
	grpc.ServerStream
}

type pairChatConnectServer struct{ grpc.ServerStream }

func (x *pairChatConnectServer) Send(m *ServerEvent) error { return x.ServerStream.SendMsg(m) }

func (x *pairChatConnectServer) Recv() (*ClientEvent, error) {
	m := new(ClientEvent)
	if err := x.ServerStream.RecvMsg(m); err != nil {
		return nil, err
	}
	return m, nil
}

// RegisterPairChatServer registers srv on s.
func RegisterPairChatServer(s grpc.ServiceRegistrar, srv PairChatServer) {
	s.RegisterService(&PairChat_ServiceDesc, srv)
}

func unary[Req any, Resp any](name, fullMethod string, call func(PairChatServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(PairChatServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(PairChatServer), ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

func connectHandler(srv any, stream grpc.ServerStream) error {
	return srv.(PairChatServer).Connect(&pairChatConnectServer{stream})
}

// PairChat_ServiceDesc is the grpc.ServiceDesc for the PairChat service.
var PairChat_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*PairChatServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("Register", PairChat_Register_FullMethodName, PairChatServer.Register),
		unary("Login", PairChat_Login_FullMethodName, PairChatServer.Login),
		unary("Me", PairChat_Me_FullMethodName, PairChatServer.Me),
		unary("RequestPasswordReset", PairChat_RequestPasswordReset_FullMethodName, PairChatServer.RequestPasswordReset),
		unary("ResetPassword", PairChat_ResetPassword_FullMethodName, PairChatServer.ResetPassword),
		unary("ListUsers", PairChat_ListUsers_FullMethodName, PairChatServer.ListUsers),
		unary("SendChatRequest", PairChat_SendChatRequest_FullMethodName, PairChatServer.SendChatRequest),
		unary("RespondChatRequest", PairChat_RespondChatRequest_FullMethodName, PairChatServer.RespondChatRequest),
		unary("ListChatRequests", PairChat_ListChatRequests_FullMethodName, PairChatServer.ListChatRequests),
		unary("ListChats", PairChat_ListChats_FullMethodName, PairChatServer.ListChats),
		unary("DeleteChat", PairChat_DeleteChat_FullMethodName, PairChatServer.DeleteChat),
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "Connect",
			Handler:       connectHandler,
			ServerStreams: true,
			ClientStreams: true,
		},
	},
	Metadata: "pairchat/v1/pairchat.json",
}

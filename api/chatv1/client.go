package chatv1

import (
	"context"

	"google.golang.org/grpc"
)

// PairChatClient is the client API for the PairChat service.
type PairChatClient interface {
	Register(ctx context.Context, in *RegisterRequest, opts ...grpc.CallOption) (*AuthResponse, error)
	Login(ctx context.Context, in *LoginRequest, opts ...grpc.CallOption) (*AuthResponse, error)
	Me(ctx context.Context, in *Empty, opts ...grpc.CallOption) (*AuthResponse, error)
	RequestPasswordReset(ctx context.Context, in *PasswordResetRequest, opts ...grpc.CallOption) (*Empty, error)
	ResetPassword(ctx context.Context, in *ResetPasswordRequest, opts ...grpc.CallOption) (*Empty, error)
	ListUsers(ctx context.Context, in *ListUsersRequest, opts ...grpc.CallOption) (*ListUsersResponse, error)
	SendChatRequest(ctx context.Context, in *SendChatRequestRequest, opts ...grpc.CallOption) (*SendChatRequestResponse, error)
	RespondChatRequest(ctx context.Context, in *RespondChatRequestRequest, opts ...grpc.CallOption) (*RespondChatRequestResponse, error)
	ListChatRequests(ctx context.Context, in *Empty, opts ...grpc.CallOption) (*ListChatRequestsResponse, error)
	ListChats(ctx context.Context, in *Empty, opts ...grpc.CallOption) (*ListChatsResponse, error)
	DeleteChat(ctx context.Context, in *DeleteChatRequest, opts ...grpc.CallOption) (*Empty, error)
	Connect(ctx context.Context, opts ...grpc.CallOption) (PairChat_ConnectClient, error)
}

// PairChat_ConnectClient is the client side of the Connect stream.
type PairChat_ConnectClient interface {
	Send(*ClientEvent) error
	Recv() (*ServerEvent, error)
	grpc.ClientStream
}

type pairChatClient struct {
	cc grpc.ClientConnInterface
}

// NewPairChatClient returns a client that speaks the JSON codec on cc.
func NewPairChatClient(cc grpc.ClientConnInterface) PairChatClient {
	return &pairChatClient{cc: cc}
}

func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, method string, in any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{CallOption()}, opts...)
	if err := cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *pairChatClient) Register(ctx context.Context, in *RegisterRequest, opts ...grpc.CallOption) (*AuthResponse, error) {
	return invoke[AuthResponse](ctx, c.cc, PairChat_Register_FullMethodName, in, opts)
}

func (c *pairChatClient) Login(ctx context.Context, in *LoginRequest, opts ...grpc.CallOption) (*AuthResponse, error) {
	return invoke[AuthResponse](ctx, c.cc, PairChat_Login_FullMethodName, in, opts)
}

func (c *pairChatClient) Me(ctx context.Context, in *Empty, opts ...grpc.CallOption) (*AuthResponse, error) {
	return invoke[AuthResponse](ctx, c.cc, PairChat_Me_FullMethodName, in, opts)
}

func (c *pairChatClient) RequestPasswordReset(ctx context.Context, in *PasswordResetRequest, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[Empty](ctx, c.cc, PairChat_RequestPasswordReset_FullMethodName, in, opts)
}

func (c *pairChatClient) ResetPassword(ctx context.Context, in *ResetPasswordRequest, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[Empty](ctx, c.cc, PairChat_ResetPassword_FullMethodName, in, opts)
}

func (c *pairChatClient) ListUsers(ctx context.Context, in *ListUsersRequest, opts ...grpc.CallOption) (*ListUsersResponse, error) {
	return invoke[ListUsersResponse](ctx, c.cc, PairChat_ListUsers_FullMethodName, in, opts)
}

func (c *pairChatClient) SendChatRequest(ctx context.Context, in *SendChatRequestRequest, opts ...grpc.CallOption) (*SendChatRequestResponse, error) {
	return invoke[SendChatRequestResponse](ctx, c.cc, PairChat_SendChatRequest_FullMethodName, in, opts)
}

func (c *pairChatClient) RespondChatRequest(ctx context.Context, in *RespondChatRequestRequest, opts ...grpc.CallOption) (*RespondChatRequestResponse, error) {
	return invoke[RespondChatRequestResponse](ctx, c.cc, PairChat_RespondChatRequest_FullMethodName, in, opts)
}

func (c *pairChatClient) ListChatRequests(ctx context.Context, in *Empty, opts ...grpc.CallOption) (*ListChatRequestsResponse, error) {
	return invoke[ListChatRequestsResponse](ctx, c.cc, PairChat_ListChatRequests_FullMethodName, in, opts)
}

func (c *pairChatClient) ListChats(ctx context.Context, in *Empty, opts ...grpc.CallOption) (*ListChatsResponse, error) {
	return invoke[ListChatsResponse](ctx, c.cc, PairChat_ListChats_FullMethodName, in, opts)
}

func (c *pairChatClient) DeleteChat(ctx context.Context, in *DeleteChatRequest, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[Empty](ctx, c.cc, PairChat_DeleteChat_FullMethodName, in, opts)
}

func (c *pairChatClient) Connect(ctx context.Context, opts ...grpc.CallOption) (PairChat_ConnectClient, error) {
	opts = append([]grpc.CallOption{CallOption()}, opts...)
	stream, err := c.cc.NewStream(ctx, &PairChat_ServiceDesc.Streams[0], PairChat_Connect_FullMethodName, opts...)
	if err != nil {
		return nil, err
	}
	return &pairChatConnectClient{stream}, nil
}

type pairChatConnectClient struct{ grpc.ClientStream }

func (x *pairChatConnectClient) Send(m *ClientEvent) error { return x.ClientStream.SendMsg(m) }

func (x *pairChatConnectClient) Recv() (*ServerEvent, error) {
	m := new(ServerEvent)
	if err := x.ClientStream.RecvMsg(m); err != nil {
		return nil, err
	}
	return m, nil
}

// Package grpcserver exposes the PairChat gRPC API handlers.
package grpcserver

import (
	"context"
	"errors"
	"io"
	"net"

	"github.com/and161185/pairchat/api/chatv1"
	"github.com/and161185/pairchat/internal/auth"
	"github.com/and161185/pairchat/internal/convert"
	"github.com/and161185/pairchat/internal/errs"
	"github.com/and161185/pairchat/internal/realtime"
	"github.com/and161185/pairchat/internal/service"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Server wires services into gRPC handlers.
type Server struct {
	chatv1.UnimplementedPairChatServer
	log   *zap.Logger
	auth  service.AuthService
	chats service.ChatService
	hub   *realtime.Hub
}

// New constructs a gRPC server with injected services.
func New(log *zap.Logger, auth service.AuthService, chats service.ChatService, hub *realtime.Hub) *Server {
	return &Server{log: log, auth: auth, chats: chats, hub: hub}
}

// toStatus maps domain errors to gRPC statuses. Unknown errors are
// reported as Internal without detail.
func toStatus(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, errs.ErrInvalidArgument):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, errs.ErrSelfRequest):
		return status.Error(codes.InvalidArgument, errs.ErrSelfRequest.Error())
	case errors.Is(err, errs.ErrUnauthorized):
		return status.Error(codes.Unauthenticated, "unauthorized")
	case errors.Is(err, errs.ErrRateLimited):
		return status.Error(codes.ResourceExhausted, "rate limited")
	case errors.Is(err, errs.ErrChatExists):
		return status.Error(codes.AlreadyExists, errs.ErrChatExists.Error())
	case errors.Is(err, errs.ErrRequestExists):
		return status.Error(codes.AlreadyExists, errs.ErrRequestExists.Error())
	case errors.Is(err, errs.ErrAlreadyExists):
		return status.Error(codes.AlreadyExists, err.Error())
	case errors.Is(err, errs.ErrNotFound):
		return status.Error(codes.NotFound, "not found")
	case errors.Is(err, errs.ErrNotChatMember):
		return status.Error(codes.PermissionDenied, errs.ErrNotChatMember.Error())
	case errors.Is(err, realtime.ErrRegistryClosed):
		return status.Error(codes.Unavailable, "shutting down")
	default:
		return status.Error(codes.Internal, "internal")
	}
}

func (s *Server) fail(ctx context.Context, method string, err error) error {
	st := toStatus(err)
	if status.Code(st) == codes.Internal {
		s.log.Error(method, zap.Error(err), zap.String("peer", remoteAddr(ctx)))
	}
	return st
}

func caller(ctx context.Context) (auth.Identity, error) {
	id, ok := IdentityFromCtx(ctx)
	if !ok {
		return auth.Identity{}, status.Error(codes.Unauthenticated, "no auth")
	}
	return id, nil
}

func remoteIP(ctx context.Context) string {
	addr := remoteAddr(ctx)
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	return addr
}

// --- Accounts ---

// Register creates a new account and logs it in.
func (s *Server) Register(ctx context.Context, req *chatv1.RegisterRequest) (*chatv1.AuthResponse, error) {
	tok, u, err := s.auth.Register(ctx, service.RegisterInput{Name: req.Name, Email: req.Email, Password: req.Password})
	if err != nil {
		return nil, s.fail(ctx, "register", err)
	}
	return convert.ToAuthResponse(tok, u), nil
}

// Login authenticates by email and password.
func (s *Server) Login(ctx context.Context, req *chatv1.LoginRequest) (*chatv1.AuthResponse, error) {
	tok, u, err := s.auth.LoginWithIP(ctx, req.Email, req.Password, remoteIP(ctx))
	if err != nil {
		if errors.Is(err, errs.ErrUnauthorized) {
			return nil, status.Error(codes.Unauthenticated, "bad credentials")
		}
		return nil, s.fail(ctx, "login", err)
	}
	return convert.ToAuthResponse(tok, u), nil
}

// Me returns the caller with a fresh token.
func (s *Server) Me(ctx context.Context, _ *chatv1.Empty) (*chatv1.AuthResponse, error) {
	id, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	tok, u, err := s.auth.Me(ctx, id.UserID)
	if err != nil {
		return nil, s.fail(ctx, "me", err)
	}
	return convert.ToAuthResponse(tok, u), nil
}

func (s *Server) RequestPasswordReset(ctx context.Context, req *chatv1.PasswordResetRequest) (*chatv1.Empty, error) {
	if err := s.auth.RequestPasswordReset(ctx, req.Email); err != nil {
		return nil, s.fail(ctx, "request password reset", err)
	}
	return &chatv1.Empty{}, nil
}

func (s *Server) ResetPassword(ctx context.Context, req *chatv1.ResetPasswordRequest) (*chatv1.Empty, error) {
	if err := s.auth.ResetPassword(ctx, req.Email, req.Token, req.Password); err != nil {
		return nil, s.fail(ctx, "reset password", err)
	}
	return &chatv1.Empty{}, nil
}

// --- Users, requests, chats ---

func (s *Server) ListUsers(ctx context.Context, req *chatv1.ListUsersRequest) (*chatv1.ListUsersResponse, error) {
	id, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	page, err := s.chats.SearchUsers(ctx, id.UserID, req.Search, req.Page, req.Limit)
	if err != nil {
		return nil, s.fail(ctx, "list users", err)
	}
	return convert.ToUserPage(page), nil
}

func (s *Server) SendChatRequest(ctx context.Context, req *chatv1.SendChatRequestRequest) (*chatv1.SendChatRequestResponse, error) {
	id, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	receiver, err := convert.ParseID("userId", req.UserID)
	if err != nil {
		return nil, toStatus(err)
	}
	r, err := s.chats.SendRequest(ctx, id.UserID, receiver)
	if err != nil {
		return nil, s.fail(ctx, "send chat request", err)
	}
	return &chatv1.SendChatRequestResponse{Request: convert.ToChatRequest(*r)}, nil
}

func (s *Server) RespondChatRequest(ctx context.Context, req *chatv1.RespondChatRequestRequest) (*chatv1.RespondChatRequestResponse, error) {
	id, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	requestID, err := convert.ParseID("requestId", req.RequestID)
	if err != nil {
		return nil, toStatus(err)
	}
	chatID, err := s.chats.RespondRequest(ctx, id.UserID, requestID, req.Action)
	if err != nil {
		return nil, s.fail(ctx, "respond chat request", err)
	}
	resp := &chatv1.RespondChatRequestResponse{}
	if !chatID.IsNil() {
		resp.ChatID = chatID.String()
	}
	return resp, nil
}

func (s *Server) ListChatRequests(ctx context.Context, _ *chatv1.Empty) (*chatv1.ListChatRequestsResponse, error) {
	id, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	rs, err := s.chats.ListRequests(ctx, id.UserID)
	if err != nil {
		return nil, s.fail(ctx, "list chat requests", err)
	}
	return &chatv1.ListChatRequestsResponse{Requests: convert.ToChatRequests(rs)}, nil
}

func (s *Server) ListChats(ctx context.Context, _ *chatv1.Empty) (*chatv1.ListChatsResponse, error) {
	id, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	cs, err := s.chats.ListChats(ctx, id.UserID)
	if err != nil {
		return nil, s.fail(ctx, "list chats", err)
	}
	return &chatv1.ListChatsResponse{Chats: convert.ToChats(cs)}, nil
}

func (s *Server) DeleteChat(ctx context.Context, req *chatv1.DeleteChatRequest) (*chatv1.Empty, error) {
	id, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	chatID, err := convert.ParseID("chatId", req.ChatID)
	if err != nil {
		return nil, toStatus(err)
	}
	if err := s.chats.DeleteChat(ctx, id.UserID, chatID); err != nil {
		return nil, s.fail(ctx, "delete chat", err)
	}
	return &chatv1.Empty{}, nil
}

// --- Real-time ---

// Connect binds the stream to a hub session for the caller. Incoming
// frames are dispatched one at a time in arrival order by a reader
// goroutine; this goroutine is the only one sending on the stream.
func (s *Server) Connect(stream chatv1.PairChat_ConnectServer) error {
	ctx := stream.Context()
	id, err := caller(ctx)
	if err != nil {
		return err
	}
	sess, err := s.hub.Attach(id.UserID)
	if err != nil {
		return toStatus(err)
	}
	defer s.hub.Detach(sess)

	recvErr := make(chan error, 1)
	go func() { recvErr <- s.readLoop(ctx, stream, sess) }()

	for {
		select {
		case ev := <-sess.Events():
			if err := stream.Send(convert.ToServerEvent(ev)); err != nil {
				return err
			}
		case err := <-recvErr:
			return err
		case <-sess.Done():
			return status.Error(codes.Unavailable, "shutting down")
		case <-ctx.Done():
			return nil
		}
	}
}

func (s *Server) readLoop(ctx context.Context, stream chatv1.PairChat_ConnectServer, sess *realtime.Session) error {
	for {
		in, err := stream.Recv()
		if err != nil {
			if errors.Is(err, io.EOF) || status.Code(err) == codes.Canceled {
				return nil
			}
			return err
		}
		intent, err := convert.IntentFromClientEvent(in)
		if err != nil {
			sess.Push(realtime.ErrorEvent(err))
			continue
		}
		s.hub.Dispatch(ctx, sess, intent)
	}
}

// Command pairchat is a CLI client for the PairChat service.
package main

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/and161185/pairchat/api/chatv1"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
)

// ---- config/token store ----

type tokenFile struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
	UserID      string    `json:"user_id"`
}

func cfgDir() string {
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return filepath.Join(v, "pairchat")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "pairchat")
}

func tokenPath() string { return filepath.Join(cfgDir(), "token.json") }

func saveToken(r *chatv1.AuthResponse) error {
	if err := os.MkdirAll(cfgDir(), 0o700); err != nil {
		return err
	}
	f, err := os.OpenFile(tokenPath(), os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(tokenFile{AccessToken: r.AccessToken, ExpiresAt: r.ExpiresAt, UserID: r.UserID})
}

func loadToken() (tokenFile, error) {
	b, err := os.ReadFile(tokenPath())
	if err != nil {
		return tokenFile{}, err
	}
	var tf tokenFile
	if err := json.Unmarshal(b, &tf); err != nil {
		return tokenFile{}, err
	}
	if tf.AccessToken == "" || time.Now().After(tf.ExpiresAt) {
		return tokenFile{}, errors.New("no valid token (login required)")
	}
	return tf, nil
}

// ---- grpc dial ----

type bearerCreds struct {
	token      string
	requireTLS bool
}

func (b bearerCreds) GetRequestMetadata(context.Context, ...string) (map[string]string, error) {
	return map[string]string{"authorization": "Bearer " + b.token}, nil
}
func (b bearerCreds) RequireTransportSecurity() bool { return b.requireTLS }

func loadTLS(caPath string, skipVerify bool) (credentials.TransportCredentials, error) {
	if skipVerify {
		return credentials.NewTLS(&tls.Config{InsecureSkipVerify: true}), nil
	}
	if caPath == "" {
		return credentials.NewClientTLSFromCert(nil, ""), nil
	}
	pem, err := os.ReadFile(caPath)
	if err != nil {
		return nil, err
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(pem) {
		return nil, errors.New("bad CA cert")
	}
	return credentials.NewTLS(&tls.Config{RootCAs: pool}), nil
}

// app carries the global flags shared by every command.
type app struct {
	addr       string
	caPath     string
	skipVerify bool
	plaintext  bool
	out        io.Writer
	extra      []grpc.DialOption
}

func (a *app) dial(bearer string) (*grpc.ClientConn, chatv1.PairChatClient, error) {
	var opts []grpc.DialOption
	if a.plaintext {
		opts = append(opts, grpc.WithTransportCredentials(insecure.NewCredentials()))
	} else {
		creds, err := loadTLS(a.caPath, a.skipVerify)
		if err != nil {
			return nil, nil, err
		}
		opts = append(opts, grpc.WithTransportCredentials(creds))
	}
	if bearer != "" {
		opts = append(opts, grpc.WithPerRPCCredentials(bearerCreds{token: bearer, requireTLS: !a.plaintext}))
	}
	opts = append(opts, a.extra...)
	cc, err := grpc.NewClient(a.addr, opts...)
	if err != nil {
		return nil, nil, err
	}
	return cc, chatv1.NewPairChatClient(cc), nil
}

// authed dials with the saved token.
func (a *app) authed() (*grpc.ClientConn, chatv1.PairChatClient, tokenFile, error) {
	tf, err := loadToken()
	if err != nil {
		return nil, nil, tokenFile{}, err
	}
	cc, cli, err := a.dial(tf.AccessToken)
	return cc, cli, tf, err
}

func (a *app) printJSON(v any) {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

// ---- main ----

var (
	version   = "dev"
	buildDate = "unknown"
)

func usage() {
	fmt.Fprintf(os.Stderr, `pairchat CLI
Usage:
  pairchat -addr HOST:PORT [-cacert file | -insecure | -plaintext] <cmd> [args]

Commands:
  version
  register   -name <name> -email <email> -p <password>   (saves token)
  login      -email <email> -p <password>                 (saves token)
  me                                                      (refreshes token)
  forgot     -email <email>
  reset      -email <email> -code <code> -p <password>
  users      [-q <search>] [-page n] [-limit n]
  request    -user <id>
  requests
  accept     -id <request id>
  decline    -id <request id>
  chats
  rm-chat    -id <chat id>
  send       -chat <chat id> -m <text>
  listen                                                  (prints events until interrupted)
`)
	os.Exit(2)
}

func main() {
	a := &app{out: os.Stdout}
	flag.StringVar(&a.addr, "addr", "localhost:8443", "server addr")
	flag.StringVar(&a.caPath, "cacert", "", "CA cert (PEM)")
	flag.BoolVar(&a.skipVerify, "insecure", false, "skip cert verify (dev)")
	flag.BoolVar(&a.plaintext, "plaintext", false, "no TLS (dev)")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() < 1 {
		usage()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err := a.run(ctx, flag.Arg(0), flag.Args()[1:])
	if errors.Is(err, errUsage) {
		usage()
	}
	if err != nil {
		fail(err)
	}
}

var errUsage = errors.New("usage")

// run executes one command. Every command but listen is bounded by a
// 30 second timeout.
func (a *app) run(ctx context.Context, cmd string, args []string) error {
	if cmd == "listen" {
		return a.listen(ctx)
	}
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	switch cmd {
	case "version":
		fmt.Fprintf(a.out, "pairchat %s (%s)\n", version, buildDate)
		return nil
	case "register":
		return a.register(ctx, args)
	case "login":
		return a.login(ctx, args)
	case "me":
		return a.me(ctx)
	case "forgot":
		return a.forgot(ctx, args)
	case "reset":
		return a.reset(ctx, args)
	case "users":
		return a.users(ctx, args)
	case "request":
		return a.request(ctx, args)
	case "requests":
		return a.requests(ctx)
	case "accept":
		return a.respond(ctx, args, chatv1.ActionConfirm)
	case "decline":
		return a.respond(ctx, args, chatv1.ActionDecline)
	case "chats":
		return a.chats(ctx)
	case "rm-chat":
		return a.rmChat(ctx, args)
	case "send":
		return a.send(ctx, args)
	default:
		return errUsage
	}
}

func need(vals ...string) error {
	for _, v := range vals {
		if v == "" {
			return errUsage
		}
	}
	return nil
}

// ---- accounts ----

func (a *app) register(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("register", flag.ContinueOnError)
	name := fs.String("name", "", "display name")
	email := fs.String("email", "", "email")
	p := fs.String("p", "", "password")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if err := need(*name, *email, *p); err != nil {
		return err
	}

	cc, cli, err := a.dial("")
	if err != nil {
		return err
	}
	defer cc.Close()

	resp, err := cli.Register(ctx, &chatv1.RegisterRequest{Name: *name, Email: *email, Password: *p})
	if err != nil {
		return err
	}
	if err := saveToken(resp); err != nil {
		return err
	}
	fmt.Fprintln(a.out, resp.UserID)
	return nil
}

func (a *app) login(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	email := fs.String("email", "", "email")
	p := fs.String("p", "", "password")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if err := need(*email, *p); err != nil {
		return err
	}

	cc, cli, err := a.dial("")
	if err != nil {
		return err
	}
	defer cc.Close()

	resp, err := cli.Login(ctx, &chatv1.LoginRequest{Email: *email, Password: *p})
	if err != nil {
		return err
	}
	if err := saveToken(resp); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "ok")
	return nil
}

func (a *app) me(ctx context.Context) error {
	cc, cli, _, err := a.authed()
	if err != nil {
		return err
	}
	defer cc.Close()

	resp, err := cli.Me(ctx, &chatv1.Empty{})
	if err != nil {
		return err
	}
	if err := saveToken(resp); err != nil {
		return err
	}
	a.printJSON(chatv1.User{ID: resp.UserID, Name: resp.Name, Email: resp.Email})
	return nil
}

func (a *app) forgot(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("forgot", flag.ContinueOnError)
	email := fs.String("email", "", "email")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if err := need(*email); err != nil {
		return err
	}
	cc, cli, err := a.dial("")
	if err != nil {
		return err
	}
	defer cc.Close()

	if _, err := cli.RequestPasswordReset(ctx, &chatv1.PasswordResetRequest{Email: *email}); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "if the account exists, a code was sent")
	return nil
}

func (a *app) reset(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("reset", flag.ContinueOnError)
	email := fs.String("email", "", "email")
	code := fs.String("code", "", "reset code")
	p := fs.String("p", "", "new password")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if err := need(*email, *code, *p); err != nil {
		return err
	}
	cc, cli, err := a.dial("")
	if err != nil {
		return err
	}
	defer cc.Close()

	_, err = cli.ResetPassword(ctx, &chatv1.ResetPasswordRequest{Email: *email, Token: *code, Password: *p})
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, "ok")
	return nil
}

// ---- users, requests, chats ----

func (a *app) users(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("users", flag.ContinueOnError)
	q := fs.String("q", "", "name filter")
	page := fs.Int("page", 1, "page")
	limit := fs.Int("limit", 0, "page size")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	cc, cli, _, err := a.authed()
	if err != nil {
		return err
	}
	defer cc.Close()

	out, err := cli.ListUsers(ctx, &chatv1.ListUsersRequest{Search: *q, Page: *page, Limit: *limit})
	if err != nil {
		return err
	}
	a.printJSON(out)
	return nil
}

func (a *app) request(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("request", flag.ContinueOnError)
	user := fs.String("user", "", "receiver id")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if err := need(*user); err != nil {
		return err
	}
	cc, cli, _, err := a.authed()
	if err != nil {
		return err
	}
	defer cc.Close()

	out, err := cli.SendChatRequest(ctx, &chatv1.SendChatRequestRequest{UserID: *user})
	if err != nil {
		return err
	}
	a.printJSON(out.Request)
	return nil
}

func (a *app) requests(ctx context.Context) error {
	cc, cli, _, err := a.authed()
	if err != nil {
		return err
	}
	defer cc.Close()

	out, err := cli.ListChatRequests(ctx, &chatv1.Empty{})
	if err != nil {
		return err
	}
	a.printJSON(out.Requests)
	return nil
}

func (a *app) respond(ctx context.Context, args []string, action string) error {
	fs := flag.NewFlagSet(action, flag.ContinueOnError)
	id := fs.String("id", "", "request id")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if err := need(*id); err != nil {
		return err
	}
	cc, cli, _, err := a.authed()
	if err != nil {
		return err
	}
	defer cc.Close()

	out, err := cli.RespondChatRequest(ctx, &chatv1.RespondChatRequestRequest{RequestID: *id, Action: action})
	if err != nil {
		return err
	}
	if out.ChatID != "" {
		fmt.Fprintln(a.out, out.ChatID)
		return nil
	}
	fmt.Fprintln(a.out, "ok")
	return nil
}

func (a *app) chats(ctx context.Context) error {
	cc, cli, _, err := a.authed()
	if err != nil {
		return err
	}
	defer cc.Close()

	out, err := cli.ListChats(ctx, &chatv1.Empty{})
	if err != nil {
		return err
	}
	a.printJSON(out.Chats)
	return nil
}

func (a *app) rmChat(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("rm-chat", flag.ContinueOnError)
	id := fs.String("id", "", "chat id")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if err := need(*id); err != nil {
		return err
	}
	cc, cli, _, err := a.authed()
	if err != nil {
		return err
	}
	defer cc.Close()

	if _, err := cli.DeleteChat(ctx, &chatv1.DeleteChatRequest{ChatID: *id}); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "ok")
	return nil
}

// ---- real-time ----

// send posts one message over the real-time stream and waits for the
// server's echo.
func (a *app) send(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("send", flag.ContinueOnError)
	chat := fs.String("chat", "", "chat id")
	msg := fs.String("m", "", "message text")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if err := need(*chat, *msg); err != nil {
		return err
	}
	cc, cli, tf, err := a.authed()
	if err != nil {
		return err
	}
	defer cc.Close()

	stream, err := cli.Connect(ctx)
	if err != nil {
		return err
	}
	if err := stream.Send(&chatv1.ClientEvent{Type: chatv1.ClientSendMessage, ChatID: *chat, Content: *msg}); err != nil {
		return err
	}
	for {
		ev, err := stream.Recv()
		if err != nil {
			return err
		}
		switch {
		case ev.Type == chatv1.ServerError:
			return errors.New(ev.Error)
		case ev.Type == chatv1.ServerMessage && ev.ChatID == *chat && ev.UserID == tf.UserID:
			a.printJSON(ev)
			return stream.CloseSend()
		}
	}
}

// reply returns the event to send back for ev, if any. A presence check
// from a peer is answered so the peer sees this user online.
func reply(ev *chatv1.ServerEvent) *chatv1.ClientEvent {
	if ev.Type != chatv1.ServerUserOnlineVerify {
		return nil
	}
	return &chatv1.ClientEvent{Type: chatv1.ClientUserAlreadyOnline, ChatID: ev.ChatID, UserID: ev.UserID}
}

// listen announces this user, then prints every event until ctx ends or
// the server closes the stream.
func (a *app) listen(ctx context.Context) error {
	cc, cli, _, err := a.authed()
	if err != nil {
		return err
	}
	defer cc.Close()

	stream, err := cli.Connect(ctx)
	if err != nil {
		return err
	}
	if err := stream.Send(&chatv1.ClientEvent{Type: chatv1.ClientGetUsersOnline}); err != nil {
		return err
	}

	enc := json.NewEncoder(a.out)
	for {
		ev, err := stream.Recv()
		if err != nil {
			if errors.Is(err, io.EOF) || ctx.Err() != nil {
				return nil
			}
			return err
		}
		_ = enc.Encode(ev)
		if r := reply(ev); r != nil {
			if err := stream.Send(r); err != nil {
				return err
			}
		}
	}
}

// ---- helpers ----

func fail(err error) {
	if s, ok := status.FromError(err); ok {
		fmt.Fprintf(os.Stderr, "rpc error: code=%s msg=%s\n", s.Code(), s.Message())
		os.Exit(1)
	}
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}

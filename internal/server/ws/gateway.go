// Package wsserver is the WebSocket transport of the real-time hub. Each
// upgraded connection becomes one hub session; frames are JSON objects
// carrying the same fields as chatv1.ClientEvent and chatv1.ServerEvent.
package wsserver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/and161185/pairchat/api/chatv1"
	"github.com/and161185/pairchat/internal/auth"
	"github.com/and161185/pairchat/internal/convert"
	"github.com/and161185/pairchat/internal/errs"
	"github.com/and161185/pairchat/internal/realtime"
	"github.com/gorilla/websocket"
	"github.com/valyala/fastjson"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = pongWait * 9 / 10
	maxFrameSize   = 64 << 10
	tokenQueryName = "access_token"
)

// Verifier checks an access token.
type Verifier interface {
	Verify(ctx context.Context, token string) (auth.Identity, error)
}

// Gateway upgrades HTTP requests to WebSocket sessions of a hub.
type Gateway struct {
	log      *zap.Logger
	verify   Verifier
	hub      *realtime.Hub
	parsers  fastjson.ParserPool
	upgrader websocket.Upgrader
}

// New constructs a gateway. checkOrigin may be nil to accept any origin.
func New(log *zap.Logger, v Verifier, hub *realtime.Hub, checkOrigin func(*http.Request) bool) *Gateway {
	if checkOrigin == nil {
		checkOrigin = func(*http.Request) bool { return true }
	}
	return &Gateway{
		log:    log,
		verify: v,
		hub:    hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     checkOrigin,
		},
	}
}

// Handler returns the HTTP routes of the gateway.
func (g *Gateway) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /ws", g.serveWS)
	mux.HandleFunc("GET /healthz", g.healthz)
	return logRequests(g.log, mux)
}

func (g *Gateway) healthz(w http.ResponseWriter, _ *http.Request) {
	users, sessions := g.hub.Registry().Stats()
	w.Header().Set("Content-Type", "application/json")
	_, _ = fmt.Fprintf(w, `{"status":"ok","users":%d,"sessions":%d}`, users, sessions)
}

func bearer(r *http.Request) string {
	if t, err := auth.BearerFromHeader(r.Header.Get("Authorization")); err == nil {
		return t
	}
	return r.URL.Query().Get(tokenQueryName)
}

func (g *Gateway) serveWS(w http.ResponseWriter, r *http.Request) {
	tok := bearer(r)
	if tok == "" {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	id, err := g.verify.Verify(r.Context(), tok)
	if err != nil {
		if errors.Is(err, errs.ErrUnauthorized) {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		g.log.Error("verify token", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	if g.hub.Closed() {
		http.Error(w, "shutting down", http.StatusServiceUnavailable)
		return
	}
	conn, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied to the client.
		return
	}
	sess, err := g.hub.Attach(id.UserID)
	if err != nil {
		code := websocket.ClosePolicyViolation
		if errors.Is(err, realtime.ErrRegistryClosed) {
			code = websocket.CloseGoingAway
		}
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(code, ""), time.Now().Add(writeWait))
		_ = conn.Close()
		return
	}

	// Store calls made for this connection stop when it ends.
	ctx, cancel := context.WithCancel(r.Context())
	go g.writeLoop(conn, sess, cancel)
	g.readLoop(ctx, conn, sess, cancel)
}

// readLoop dispatches incoming frames in arrival order until the peer goes
// away, then detaches the session.
func (g *Gateway) readLoop(ctx context.Context, conn *websocket.Conn, sess *realtime.Session, cancel context.CancelFunc) {
	defer g.hub.Detach(sess)
	defer cancel()

	conn.SetReadLimit(maxFrameSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		kind, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				g.log.Debug("ws read", zap.String("session", sess.ID), zap.Error(err))
			}
			return
		}
		if kind != websocket.TextMessage {
			sess.Push(realtime.ErrorEvent(fmt.Errorf("%w: text frames only", errs.ErrInvalidArgument)))
			continue
		}
		in, err := g.decode(data)
		if err == nil {
			var intent realtime.Intent
			if intent, err = convert.IntentFromClientEvent(in); err == nil {
				g.hub.Dispatch(ctx, sess, intent)
				continue
			}
		}
		sess.Push(realtime.ErrorEvent(err))
	}
}

// writeLoop is the only writer on conn. It closes conn and cancels the
// connection context when the session ends or a write fails, which also
// unblocks readLoop.
func (g *Gateway) writeLoop(conn *websocket.Conn, sess *realtime.Session, cancel context.CancelFunc) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		cancel()
		_ = conn.Close()
	}()

	for {
		select {
		case ev := <-sess.Events():
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(convert.ToServerEvent(ev)); err != nil {
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		case <-sess.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, ""),
				time.Now().Add(writeWait))
			return
		}
	}
}

// decode reads a client frame. Unknown fields are ignored and fields of
// the wrong type read as empty.
func (g *Gateway) decode(data []byte) (*chatv1.ClientEvent, error) {
	p := g.parsers.Get()
	defer g.parsers.Put(p)

	v, err := p.ParseBytes(data)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed frame", errs.ErrInvalidArgument)
	}
	if v.Type() != fastjson.TypeObject {
		return nil, fmt.Errorf("%w: frame must be an object", errs.ErrInvalidArgument)
	}
	return &chatv1.ClientEvent{
		Type:    string(v.GetStringBytes("type")),
		ChatID:  string(v.GetStringBytes("chatId")),
		UserID:  string(v.GetStringBytes("userId")),
		Content: string(v.GetStringBytes("content")),
	}, nil
}

package dank

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/coder/websocket"
	"github.com/go-json-experiment/json"
)

// Gateway is a platform connection for one account. It maintains the event
// socket, dispatches inbound events to the registered callbacks, and issues
// interactions over the HTTP API. It implements [Client].
type Gateway struct {
	// Token is the account credential used to identify.
	Token string
	// HTTP is the client used for the socket dial and interaction calls.
	// If nil, [http.DefaultClient] is used.
	HTTP *http.Client
	// URL is the event socket endpoint. API is the HTTP endpoint base.
	URL string
	API string
	// ApplicationID is the game bot the account plays against.
	ApplicationID string
	// GuildID and ChannelID locate where commands are invoked.
	GuildID   string
	ChannelID string

	// OnCreate, OnUpdate, and OnModal receive dispatched events. OnUpdate
	// receives the previously seen rendering of the message when the gateway
	// has one, else nil. Callbacks must not block.
	OnCreate func(*Message)
	OnUpdate func(old, new *Message)
	OnModal  func(*Modal)

	mu        sync.Mutex
	conn      *websocket.Conn
	sessionID string
	user      wireUser
	seen      map[string]*Message
	seq       atomic.Int64
	nonce     atomic.Int64
}

// ID returns the account's user ID. It is empty before the first Dial.
func (g *Gateway) ID() string { return g.user.ID }

// Username returns the account's display name. Empty before the first Dial.
func (g *Gateway) Username() string { return g.user.Username }

// Dial connects the event socket and completes the identify handshake.
func (g *Gateway) Dial(ctx context.Context) error {
	var opts *websocket.DialOptions
	if g.HTTP != nil {
		opts = &websocket.DialOptions{HTTPClient: g.HTTP}
	}
	slog.DebugContext(ctx, "dial gateway", slog.String("url", g.URL))
	conn, resp, err := websocket.Dial(ctx, g.URL, opts)
	if err != nil {
		if resp != nil {
			b := make([]byte, 1024)
			n, _ := resp.Body.Read(b)
			return fmt.Errorf("couldn't connect to gateway: %w (%s)", err, b[:n])
		}
		return fmt.Errorf("couldn't connect to gateway: %w", err)
	}
	conn.SetReadLimit(1 << 22) // game renders are image-heavy
	hello, err := g.expect(ctx, conn, opHello)
	if err != nil {
		conn.CloseNow()
		return fmt.Errorf("couldn't receive hello: %w", err)
	}
	var h helloData
	if err := json.Unmarshal(hello.D, &h); err != nil {
		conn.CloseNow()
		return fmt.Errorf("couldn't decode hello: %w", err)
	}
	id := identifyData{
		Token:      g.Token,
		Properties: identifyProperties{OS: "linux", Browser: "chrome", Device: ""},
	}
	if err := g.write(ctx, conn, envelope{Op: opIdentify}, &id); err != nil {
		conn.CloseNow()
		return fmt.Errorf("couldn't identify: %w", err)
	}
	ready, err := g.expectDispatch(ctx, conn, "READY")
	if err != nil {
		conn.CloseNow()
		return fmt.Errorf("couldn't receive ready: %w", err)
	}
	var r readyData
	if err := json.Unmarshal(ready.D, &r); err != nil {
		conn.CloseNow()
		return fmt.Errorf("couldn't decode ready: %w", err)
	}
	g.mu.Lock()
	g.conn = conn
	g.sessionID = r.SessionID
	g.user = r.User
	if g.seen == nil {
		g.seen = make(map[string]*Message)
	}
	g.mu.Unlock()
	go g.heartbeat(ctx, conn, time.Duration(h.HeartbeatInterval)*time.Millisecond)
	slog.InfoContext(ctx, "gateway ready",
		slog.String("user", r.User.Username),
		slog.String("id", r.User.ID),
	)
	return nil
}

// Run reads and dispatches events until ctx is done. Read failures trigger a
// redial with backoff; Run returns only once the context ends.
func (g *Gateway) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		err := g.read(ctx)
		if ctx.Err() != nil {
			g.Close()
			return ctx.Err()
		}
		slog.ErrorContext(ctx, "gateway read failed", slog.Any("err", err), slog.Duration("backoff", backoff))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		if backoff < time.Minute {
			backoff *= 2
		}
		if err := g.Dial(ctx); err != nil {
			slog.ErrorContext(ctx, "gateway redial failed", slog.Any("err", err))
			continue
		}
		backoff = time.Second
	}
}

// Close tears down the socket.
func (g *Gateway) Close() error {
	g.mu.Lock()
	conn := g.conn
	g.mu.Unlock()
	if conn == nil {
		return nil
	}
	return conn.CloseNow()
}

func (g *Gateway) read(ctx context.Context) error {
	g.mu.Lock()
	conn := g.conn
	g.mu.Unlock()
	if conn == nil {
		return fmt.Errorf("gateway not connected")
	}
	for {
		_, b, err := conn.Read(ctx)
		if err != nil {
			return err
		}
		var ev envelope
		if err := json.Unmarshal(b, &ev); err != nil {
			slog.WarnContext(ctx, "malformed gateway frame", slog.Any("err", err))
			continue
		}
		if ev.S != 0 {
			g.seq.Store(ev.S)
		}
		if ev.Op != opDispatch {
			continue
		}
		g.dispatch(ctx, &ev)
	}
}

func (g *Gateway) dispatch(ctx context.Context, ev *envelope) {
	switch ev.T {
	case "MESSAGE_CREATE":
		var w wireMessage
		if err := json.Unmarshal(ev.D, &w); err != nil {
			slog.WarnContext(ctx, "malformed message", slog.String("event", ev.T), slog.Any("err", err))
			return
		}
		m := w.message()
		g.remember(m)
		if g.OnCreate != nil {
			g.OnCreate(m)
		}
	case "MESSAGE_UPDATE":
		var w wireMessage
		if err := json.Unmarshal(ev.D, &w); err != nil {
			slog.WarnContext(ctx, "malformed message", slog.String("event", ev.T), slog.Any("err", err))
			return
		}
		m := w.message()
		old := g.remember(m)
		if g.OnUpdate != nil {
			g.OnUpdate(old, m)
		}
	case "INTERACTION_MODAL_CREATE":
		var w wireModal
		if err := json.Unmarshal(ev.D, &w); err != nil {
			slog.WarnContext(ctx, "malformed modal", slog.Any("err", err))
			return
		}
		if g.OnModal != nil {
			g.OnModal(w.modal())
		}
	}
}

// remember stores the latest rendering of a message and returns the previous
// one, if any. The cache is bounded; old entries fall out arbitrarily.
func (g *Gateway) remember(m *Message) *Message {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.seen == nil {
		g.seen = make(map[string]*Message)
	}
	old := g.seen[m.ID]
	if len(g.seen) >= 256 {
		for id := range g.seen {
			delete(g.seen, id)
			break
		}
	}
	g.seen[m.ID] = m
	return old
}

func (g *Gateway) heartbeat(ctx context.Context, conn *websocket.Conn, every time.Duration) {
	if every <= 0 {
		every = 41250 * time.Millisecond
	}
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			seq := g.seq.Load()
			if err := g.write(ctx, conn, envelope{Op: opHeartbeat}, seq); err != nil {
				// The read loop will notice the dead socket and redial.
				slog.DebugContext(ctx, "heartbeat failed", slog.Any("err", err))
				return
			}
		}
	}
}

// write marshals d into ev and sends the frame.
func (g *Gateway) write(ctx context.Context, conn *websocket.Conn, ev envelope, d any) error {
	if d != nil {
		b, err := json.Marshal(d)
		if err != nil {
			return err
		}
		ev.D = b
	}
	b, err := json.Marshal(&ev)
	if err != nil {
		return err
	}
	return conn.Write(ctx, websocket.MessageText, b)
}

// expect reads frames until one with the given opcode arrives.
func (g *Gateway) expect(ctx context.Context, conn *websocket.Conn, op int) (*envelope, error) {
	for {
		_, b, err := conn.Read(ctx)
		if err != nil {
			return nil, err
		}
		var ev envelope
		if err := json.Unmarshal(b, &ev); err != nil {
			return nil, err
		}
		if ev.Op == op {
			return &ev, nil
		}
	}
}

// expectDispatch reads frames until the named dispatch event arrives.
func (g *Gateway) expectDispatch(ctx context.Context, conn *websocket.Conn, t string) (*envelope, error) {
	for {
		_, b, err := conn.Read(ctx)
		if err != nil {
			return nil, err
		}
		var ev envelope
		if err := json.Unmarshal(b, &ev); err != nil {
			return nil, err
		}
		if ev.S != 0 {
			g.seq.Store(ev.S)
		}
		if ev.Op == opDispatch && ev.T == t {
			return &ev, nil
		}
	}
}

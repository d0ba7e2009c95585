package ws

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/taposhsarker38/adaptix-erp-sub002/internal/domain"
	"github.com/taposhsarker38/adaptix-erp-sub002/internal/infrastructure/logging"
	"golang.org/x/time/rate"
)

type ClientOptions struct {
	SendBuffer     int
	PingInterval   time.Duration
	PongWait       time.Duration
	WriteWait      time.Duration
	MaxMessageSize int64
	CommandRate    rate.Limit
	CommandBurst   int
}

func DefaultClientOptions() ClientOptions {
	return ClientOptions{
		SendBuffer:     64,
		PingInterval:   30 * time.Second,
		PongWait:       60 * time.Second,
		WriteWait:      10 * time.Second,
		MaxMessageSize: 32768,
		CommandRate:    20,
		CommandBurst:   40,
	}
}

// Client is one upgraded connection. Its identity is fixed at handshake.
// Only the Core closes send, so the Core is the only sender on it.
type Client struct {
	conn       *connWrapper
	send       chan []byte
	ID         string
	Identity   *domain.Identity
	RemoteAddr string

	opts    ClientOptions
	limiter *rate.Limiter
	state   atomic.Int32

	closeOnce   sync.Once
	closed      chan struct{}
	closeCode   int
	closeReason string
}

func NewClient(conn *websocket.Conn, identity *domain.Identity, opts ClientOptions) *Client {
	c := newClient(identity, opts)
	c.conn = newConnWrapper(conn)
	c.RemoteAddr = conn.RemoteAddr().String()
	return c
}

func newClient(identity *domain.Identity, opts ClientOptions) *Client {
	c := &Client{
		send:     make(chan []byte, opts.SendBuffer),
		ID:       uuid.NewString(),
		Identity: identity,
		opts:     opts,
		limiter:  rate.NewLimiter(opts.CommandRate, opts.CommandBurst),
		closed:   make(chan struct{}),
	}
	c.state.Store(int32(StateConnecting))
	return c
}

func (c *Client) State() State {
	return State(c.state.Load())
}

func (c *Client) setState(s State) {
	c.state.Store(int32(s))
}

func (c *Client) IsClosed() bool {
	select {
	case <-c.closed:
		return true
	default:
		return false
	}
}

// shutdown is called by the Core once the client left the registry.
func (c *Client) shutdown(code int, reason string) {
	c.closeOnce.Do(func() {
		c.closeCode = code
		c.closeReason = reason
		c.setState(StateDisconnected)
		close(c.closed)
		close(c.send)
	})
}

// ReadMessage pumps client commands into the core until the connection fails.
func (c *Client) ReadMessage(core *Core) {
	defer core.Unregister(c)

	c.conn.conn.SetReadLimit(c.opts.MaxMessageSize)
	_ = c.conn.conn.SetReadDeadline(time.Now().Add(c.opts.PongWait))
	c.conn.conn.SetPongHandler(func(string) error {
		return c.conn.conn.SetReadDeadline(time.Now().Add(c.opts.PongWait))
	})

	for {
		_, raw, err := c.conn.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) {
				core.logger.Warn(logging.WebSocket, logging.Disconnect, "ws read error", map[logging.ExtraKey]any{
					logging.ClientID:     c.ID,
					logging.ErrorMessage: err.Error(),
				})
			}
			return
		}

		cmd, ok := DecodeCommand(raw)
		if !ok {
			core.logger.Debug(logging.WebSocket, logging.Parse, "ignoring client frame", map[logging.ExtraKey]any{
				logging.ClientID: c.ID,
			})
			continue
		}

		if !c.limiter.Allow() {
			core.logger.Warn(logging.WebSocket, logging.RateLimiting, "client command rate exceeded", map[logging.ExtraKey]any{
				logging.ClientID: c.ID,
				logging.Room:     cmd.RoomName(),
			})
			continue
		}

		if !core.submit(c, cmd) {
			return
		}
	}
}

// WriteMessage drains the send buffer and keeps the connection alive with pings.
func (c *Client) WriteMessage(core *Core) {
	ticker := time.NewTicker(c.opts.PingInterval)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				code := c.closeCode
				if code == 0 {
					code = websocket.CloseNormalClosure
				}
				_ = c.conn.Write(websocket.CloseMessage, websocket.FormatCloseMessage(code, c.closeReason), time.Now().Add(c.opts.WriteWait))
				return
			}

			if err := c.conn.Write(websocket.TextMessage, msg, time.Now().Add(c.opts.WriteWait)); err != nil {
				core.logger.Debug(logging.WebSocket, logging.Disconnect, "ws write error", map[logging.ExtraKey]any{
					logging.ClientID:     c.ID,
					logging.ErrorMessage: err.Error(),
				})
				return
			}

		case <-ticker.C:
			if err := c.conn.Write(websocket.PingMessage, nil, time.Now().Add(c.opts.WriteWait)); err != nil {
				core.logger.Debug(logging.WebSocket, logging.Disconnect, "ping error", map[logging.ExtraKey]any{
					logging.ClientID:     c.ID,
					logging.ErrorMessage: err.Error(),
				})
				return
			}
		}
	}
}

package ws

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/gorilla/websocket"
	"github.com/taposhsarker38/adaptix-erp-sub002/internal/infrastructure/logging"
	"github.com/taposhsarker38/adaptix-erp-sub002/internal/infrastructure/metrics"
)

// Slow client policies applied when a send buffer is full.
const (
	SlowClientDisconnect = "disconnect"
	SlowClientDrop       = "drop"
)

const (
	scopeRoom   = "room"
	scopeGlobal = "global"
	scopeAck    = "ack"
)

var ErrCoreStopped = errors.New("ws core stopped")

// Broadcast is an event to fan out to local clients. No rooms means every
// connected client.
type Broadcast struct {
	Event string
	Data  json.RawMessage
	Rooms []string
}

type CoreOptions struct {
	SlowClientPolicy string
}

type clientCommand struct {
	client *Client
	cmd    Command
}

// Core owns every mutation of the room registry and every write into a
// client's send buffer. All of it happens on the Run goroutine.
type Core struct {
	roomMgr    *RoomManager
	register   chan *Client
	unregister chan *Client
	commands   chan clientCommand
	broadcast  chan Broadcast
	done       chan struct{}
	policy     string
	logger     logging.Logger
	metrics    *metrics.Metrics
}

func NewCore(logger logging.Logger, m *metrics.Metrics, opts CoreOptions) *Core {
	policy := opts.SlowClientPolicy
	if policy == "" {
		policy = SlowClientDisconnect
	}

	return &Core{
		roomMgr:    NewRoomManager(),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		commands:   make(chan clientCommand, 256),
		broadcast:  make(chan Broadcast, 256),
		done:       make(chan struct{}),
		policy:     policy,
		logger:     logger,
		metrics:    m,
	}
}

// Run processes registry changes and broadcasts until ctx is cancelled, then
// closes every remaining client.
func (c *Core) Run(ctx context.Context) {
	defer close(c.done)

	for {
		select {
		case cl := <-c.register:
			c.add(cl)

		case cl := <-c.unregister:
			c.remove(cl, websocket.CloseNormalClosure, "")

		case cc := <-c.commands:
			c.handleCommand(cc.client, cc.cmd)

		case b := <-c.broadcast:
			c.deliver(b)

		case <-ctx.Done():
			for _, cl := range c.roomMgr.All() {
				c.remove(cl, websocket.CloseGoingAway, "server shutdown")
			}
			c.logger.Info(logging.WebSocket, logging.Shutdown, "ws core stopped", nil)
			return
		}
	}
}

func (c *Core) Done() <-chan struct{} {
	return c.done
}

// Rooms exposes the registry for read-only inspection.
func (c *Core) Rooms() *RoomManager {
	return c.roomMgr
}

func (c *Core) Register(ctx context.Context, cl *Client) error {
	if c.stopped() {
		return ErrCoreStopped
	}

	select {
	case c.register <- cl:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-c.done:
		return ErrCoreStopped
	}
}

func (c *Core) Unregister(cl *Client) {
	select {
	case c.unregister <- cl:
	case <-c.done:
	}
}

// Broadcast queues b for delivery to local clients.
func (c *Core) Broadcast(ctx context.Context, b Broadcast) error {
	if c.stopped() {
		return ErrCoreStopped
	}

	select {
	case c.broadcast <- b:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-c.done:
		return ErrCoreStopped
	}
}

func (c *Core) stopped() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

func (c *Core) submit(cl *Client, cmd Command) bool {
	select {
	case c.commands <- clientCommand{client: cl, cmd: cmd}:
		return true
	case <-cl.closed:
		return false
	case <-c.done:
		return false
	}
}

func (c *Core) add(cl *Client) {
	c.roomMgr.AddClient(cl)
	cl.setState(StateConnected)
	c.updateGauges()

	c.logger.Info(logging.WebSocket, logging.Connect, "client connected", map[logging.ExtraKey]any{
		logging.ClientID: cl.ID,
		logging.Subject:  cl.Identity.DisplayName(),
		logging.ClientIp: cl.RemoteAddr,
	})
}

func (c *Core) remove(cl *Client, code int, reason string) {
	rooms := c.roomMgr.RoomsOf(cl.ID)
	if !c.roomMgr.RemoveClient(cl) {
		return
	}
	cl.shutdown(code, reason)
	c.updateGauges()

	c.logger.Info(logging.WebSocket, logging.Disconnect, "client disconnected", map[logging.ExtraKey]any{
		logging.ClientID: cl.ID,
		logging.Subject:  cl.Identity.DisplayName(),
		logging.Rooms:    rooms,
		logging.Reason:   reason,
	})
}

func (c *Core) handleCommand(cl *Client, cmd Command) {
	switch cmd := cmd.(type) {
	case JoinCommand:
		if !c.roomMgr.Join(cl, cmd.Room) {
			return
		}
		c.updateGauges()
		c.logger.Debug(logging.WebSocket, logging.Join, "client joined room", map[logging.ExtraKey]any{
			logging.ClientID: cl.ID,
			logging.Room:     cmd.Room,
		})
		c.enqueue(cl, encodeAck(JoinedEvent, cmd.Room), scopeAck)

	case LeaveCommand:
		if !c.roomMgr.Has(cl.ID) {
			return
		}
		if c.roomMgr.Leave(cl, cmd.Room) {
			c.updateGauges()
			c.logger.Debug(logging.WebSocket, logging.Leave, "client left room", map[logging.ExtraKey]any{
				logging.ClientID: cl.ID,
				logging.Room:     cmd.Room,
			})
		}
		c.enqueue(cl, encodeAck(LeftEvent, cmd.Room), scopeAck)
	}
}

func (c *Core) deliver(b Broadcast) {
	frame, err := encodeFrame(b.Event, b.Data)
	if err != nil {
		c.logger.Error(logging.WebSocket, logging.Broadcast, "encode broadcast frame", map[logging.ExtraKey]any{
			logging.Event:        b.Event,
			logging.ErrorMessage: err.Error(),
		})
		return
	}

	recipients := 0
	if len(b.Rooms) == 0 {
		for _, cl := range c.roomMgr.All() {
			if c.enqueue(cl, frame, scopeGlobal) {
				recipients++
			}
		}
	} else {
		// A client in several listed rooms receives one copy per room.
		for _, room := range b.Rooms {
			for _, cl := range c.roomMgr.Members(room) {
				if c.enqueue(cl, frame, scopeRoom) {
					recipients++
				}
			}
		}
	}

	c.logger.Debug(logging.WebSocket, logging.Broadcast, "broadcast delivered", map[logging.ExtraKey]any{
		logging.Event:      b.Event,
		logging.Rooms:      b.Rooms,
		logging.Recipients: recipients,
	})
}

// enqueue never blocks. A full buffer triggers the slow client policy.
func (c *Core) enqueue(cl *Client, frame []byte, scope string) bool {
	if cl.IsClosed() {
		return false
	}

	select {
	case cl.send <- frame:
		c.metrics.FramesDelivered.WithLabelValues(scope).Inc()
		return true
	default:
	}

	c.metrics.SlowClients.WithLabelValues(c.policy).Inc()
	c.logger.Warn(logging.WebSocket, logging.SlowClient, "client send buffer full", map[logging.ExtraKey]any{
		logging.ClientID: cl.ID,
		logging.Policy:   c.policy,
	})

	if c.policy == SlowClientDisconnect {
		c.remove(cl, websocket.ClosePolicyViolation, "slow consumer")
	}
	return false
}

func (c *Core) updateGauges() {
	clients, rooms := c.roomMgr.Stats()
	c.metrics.ConnectedClients.Set(float64(clients))
	c.metrics.Rooms.Set(float64(rooms))
}

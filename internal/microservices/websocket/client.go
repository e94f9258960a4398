package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"coursehub/internal/microservices/http-api/models"
	"coursehub/internal/microservices/http-api/repository"
	"coursehub/internal/microservices/http-api/service"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"
)

const ( // ping pong(2-way heartbeat) to keep connection alive
	WriteWait      = 10 * time.Second    // max time to write a message to the peer
	PongWait       = 60 * time.Second    // no pong within this window = dead connection
	PingPeriod     = (PongWait * 9) / 10 // must be shorter than PongWait
	MaxMessageSize = 8 * 1024            // maximum inbound frame size
	SendBufferSize = 256                 // outbound events queued per connection
	HandlerTimeout = 10 * time.Second    // max time spent on one inbound event
)

// Client is one live websocket connection. Identity fields come from the
// verified token, never from client frames.
type Client struct {
	ID      string
	Email   string
	Name    string
	Photo   string
	conn    *websocket.Conn
	send    chan []byte
	done    chan struct{}
	once    sync.Once
	limiter *rate.Limiter
	handler *Handler
	logger  *slog.Logger
}

func newClient(id string, identity *service.Identity, conn *websocket.Conn, h *Handler) *Client {
	return &Client{
		ID:      id,
		Email:   identity.Email,
		Name:    identity.Name,
		Photo:   identity.Picture,
		conn:    conn,
		send:    make(chan []byte, SendBufferSize),
		done:    make(chan struct{}),
		limiter: rate.NewLimiter(rate.Limit(h.rateLimit), h.rateBurst),
		handler: h,
		logger:  slog.Default().With("conn_id", id, "email", identity.Email),
	}
}

// Send queues payload without blocking. A full buffer drops the event.
func (c *Client) Send(payload []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- payload:
		return true
	case <-c.done:
		return false
	default:
		c.logger.Warn("send_buffer_full", "dropped_bytes", len(payload))
		return false
	}
}

// Close asks the write pump to say goodbye and tear down the connection.
// Safe to call more than once.
func (c *Client) Close() {
	c.once.Do(func() {
		close(c.done)
	})
}

// ReadPump reads frames until the peer goes away and dispatches them in order.
func (c *Client) ReadPump() {
	defer func() {
		c.handler.registry.Remove(c.ID)
		c.Close()
	}()

	c.conn.SetReadLimit(MaxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(PongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(PongWait))
		return nil
	})

	for {
		_, frame, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Warn("client_unexpected_close", "error", err)
			} else {
				c.logger.Info("client_disconnected")
			}
			return
		}

		if !c.limiter.Allow() {
			c.logger.Warn("rate_limit_exceeded")
			c.sendError("rate limit exceeded")
			continue
		}

		c.dispatch(frame)
	}
}

// WritePump drains the send buffer and keeps the connection alive with pings.
func (c *Client) WritePump() {
	ticker := time.NewTicker(PingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
		c.Close()
	}()

	for {
		select {
		case payload := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(WriteWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				c.logger.Warn("client_write_failed", "error", err)
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(WriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(WriteWait))
			c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

func (c *Client) dispatch(frame []byte) {
	env, err := Decode(frame)
	if err != nil {
		c.logger.Warn("invalid_json_received", "error", err)
		c.sendError("invalid frame")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), HandlerTimeout)
	defer cancel()

	switch env.Event {
	case EventJoinRoom:
		var p JoinRoomPayload
		if err := json.Unmarshal(env.Data, &p); err != nil {
			c.logger.Warn("invalid_payload", "event", env.Event, "error", err)
			return
		}
		c.handleJoin(ctx, p)
	case EventSendMessage, EventAdminSendMessage:
		var p SendMessagePayload
		if err := json.Unmarshal(env.Data, &p); err != nil {
			c.logger.Warn("invalid_payload", "event", env.Event, "error", err)
			return
		}
		c.handleSend(ctx, env.Event, p)
	default:
		c.logger.Warn("unknown_event", "event", env.Event)
	}
}

func (c *Client) handleJoin(ctx context.Context, p JoinRoomPayload) {
	if strings.TrimSpace(p.Room) == "" {
		c.sendError("room is required")
		return
	}
	if p.Email != "" && !strings.EqualFold(p.Email, c.Email) {
		c.logger.Warn("claimed_email_ignored", "claimed", p.Email)
	}

	// the stored role wins over whatever the client claims
	role := models.RoleUser
	principal, err := c.handler.principals.FindByEmail(ctx, c.Email)
	switch {
	case err == nil:
		role = principal.Role
	case !errors.Is(err, repository.ErrNotFound):
		c.logger.Error("principal_lookup_failed", "error", err)
	}
	if p.Role != "" && p.Role != role {
		c.logger.Warn("claimed_role_ignored", "claimed", p.Role, "role", role)
	}

	if err := c.handler.registry.Join(c.ID, p.Room, c.Email, role); err != nil {
		c.logger.Error("join_room_failed", "room", p.Room, "error", err)
	}
}

func (c *Client) handleSend(ctx context.Context, event string, p SendMessagePayload) {
	if p.SenderEmail != "" && !strings.EqualFold(p.SenderEmail, c.Email) {
		c.logger.Warn("claimed_email_ignored", "claimed", p.SenderEmail)
	}

	room := p.Room
	if room == "" {
		if m, ok := c.handler.registry.Lookup(c.ID); ok {
			room = m.Room
		}
	}

	d := Draft{
		Room:        room,
		SenderEmail: c.Email,
		SenderName:  firstNonEmpty(p.SenderName, c.Name),
		SenderPhoto: firstNonEmpty(p.SenderPhoto, c.Photo),
		Body:        p.Body,
		TargetEmail: p.TargetEmail,
	}

	var err error
	if event == EventAdminSendMessage {
		_, err = c.handler.relay.SendAdminMessage(ctx, d)
	} else {
		_, err = c.handler.relay.SendUserMessage(ctx, d)
	}
	if err != nil {
		c.logger.Warn("message_dropped", "event", event, "room", room, "error", err)
		c.sendError(err.Error())
	}
}

func (c *Client) sendError(message string) {
	payload, err := Encode(EventError, ErrorPayload{Message: message})
	if err != nil {
		return
	}
	c.Send(payload)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

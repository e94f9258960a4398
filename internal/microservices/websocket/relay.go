package websocket

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"coursehub/internal/config"
	"coursehub/internal/microservices/http-api/models"
	"coursehub/internal/microservices/http-api/repository"
	"coursehub/internal/microservices/http-api/service"
)

// Draft is an unsent chat message
type Draft struct {
	Room        string
	SenderEmail string
	SenderName  string
	SenderPhoto string
	Body        string
	TargetEmail string
}

// Relay persists chat messages and fans them out to room members.
// No lock is held across store calls. A message is emitted only after
// it was stored.
type Relay struct {
	messages   repository.MessageStore
	principals repository.PrincipalRepository
	registry   *Registry
	mode       string
	now        func() time.Time
	logger     *slog.Logger
}

func NewRelay(messages repository.MessageStore, principals repository.PrincipalRepository, registry *Registry, mode string) *Relay {
	if mode == "" {
		mode = config.DeliverRoom
	}
	return &Relay{
		messages:   messages,
		principals: principals,
		registry:   registry,
		mode:       mode,
		now:        func() time.Time { return time.Now().UTC() },
		logger:     slog.Default(),
	}
}

// SendUserMessage stores and broadcasts a regular room message. The admin
// flag follows the sender's stored role; an unknown sender is not an admin.
func (r *Relay) SendUserMessage(ctx context.Context, d Draft) (*models.ChatMessage, error) {
	d, err := prepareDraft(d)
	if err != nil {
		return nil, err
	}

	sender, err := r.principals.FindByEmail(ctx, d.SenderEmail)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to resolve sender: %w", err)
	}

	msg := r.newMessage(d, sender.IsAdmin())
	if err := r.messages.Insert(ctx, msg); err != nil {
		r.logger.Error("message_persist_failed", "room", d.Room, "sender", d.SenderEmail, "error", err)
		return nil, fmt.Errorf("failed to store message: %w", err)
	}

	r.emit(msg.RoomID, EventReceiveMessage, msg, nil)
	return msg, nil
}

// SendAdminMessage stores an admin message, optionally directed at
// TargetEmail. The sender must hold the admin role.
func (r *Relay) SendAdminMessage(ctx context.Context, d Draft) (*models.ChatMessage, error) {
	d, err := prepareDraft(d)
	if err != nil {
		return nil, err
	}

	sender, err := r.principals.FindByEmail(ctx, d.SenderEmail)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to resolve sender: %w", err)
	}
	if !sender.IsAdmin() {
		r.logger.Warn("admin_message_rejected", "room", d.Room, "sender", d.SenderEmail)
		return nil, fmt.Errorf("%w: admin role required", service.ErrForbidden)
	}

	msg := r.newMessage(d, true)
	msg.TargetEmail = strings.ToLower(strings.TrimSpace(d.TargetEmail))
	if err := r.messages.Insert(ctx, msg); err != nil {
		r.logger.Error("message_persist_failed", "room", d.Room, "sender", d.SenderEmail, "error", err)
		return nil, fmt.Errorf("failed to store message: %w", err)
	}

	var allow func(Member) bool
	if r.mode == config.DeliverTarget && msg.IsDirected() {
		allow = func(m Member) bool {
			return m.Email == msg.TargetEmail || m.Email == msg.SenderEmail || m.Role == models.RoleAdmin
		}
	}
	r.emit(msg.RoomID, EventReceiveMessage, msg, allow)
	return msg, nil
}

// DeleteMessage removes a message on behalf of its sender or an admin and
// tells the room about it.
func (r *Relay) DeleteMessage(ctx context.Context, messageID, requesterEmail string) error {
	msg, err := r.messages.FindByID(ctx, messageID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("%w: message not found", service.ErrNotFound)
		}
		return fmt.Errorf("failed to load message: %w", err)
	}

	requesterEmail = strings.ToLower(requesterEmail)
	if msg.SenderEmail != requesterEmail {
		requester, err := r.principals.FindByEmail(ctx, requesterEmail)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("failed to resolve requester: %w", err)
		}
		if !requester.IsAdmin() {
			return fmt.Errorf("%w: only the sender or an admin may delete a message", service.ErrForbidden)
		}
	}

	if err := r.messages.Delete(ctx, messageID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// someone else deleted it first and already notified the room
			return fmt.Errorf("%w: message not found", service.ErrNotFound)
		}
		return fmt.Errorf("failed to delete message: %w", err)
	}

	r.logger.Info("message_deleted", "message_id", messageID, "room", msg.RoomID, "by", requesterEmail)
	r.emit(msg.RoomID, EventMessageDeleted, MessageDeletedPayload{MessageID: messageID}, nil)
	return nil
}

func (r *Relay) newMessage(d Draft, admin bool) *models.ChatMessage {
	return &models.ChatMessage{
		RoomID:         d.Room,
		SenderEmail:    d.SenderEmail,
		SenderName:     d.SenderName,
		SenderPhoto:    d.SenderPhoto,
		Body:           d.Body,
		IsAdminMessage: admin,
		Timestamp:      r.now(),
	}
}

// emit sends event to every member of room accepted by allow (all when nil)
func (r *Relay) emit(room, event string, data any, allow func(Member) bool) {
	payload, err := Encode(event, data)
	if err != nil {
		r.logger.Error("failed_to_marshal_event", "event", event, "error", err)
		return
	}

	delivered := 0
	for _, m := range r.registry.Members(room) {
		if allow != nil && !allow(m) {
			continue
		}
		if m.Sink.Send(payload) {
			delivered++
		}
	}
	r.logger.Debug("event_emitted", "event", event, "room", room, "delivered", delivered)
}

func prepareDraft(d Draft) (Draft, error) {
	d.SenderEmail = strings.ToLower(strings.TrimSpace(d.SenderEmail))
	if strings.TrimSpace(d.Room) == "" {
		return d, fmt.Errorf("%w: room is required", service.ErrValidation)
	}
	if strings.TrimSpace(d.Body) == "" {
		return d, fmt.Errorf("%w: message body is required", service.ErrValidation)
	}
	if d.SenderEmail == "" {
		return d, fmt.Errorf("%w: sender is required", service.ErrValidation)
	}
	return d, nil
}

package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"coursehub/internal/microservices/http-api/models"
	"coursehub/internal/microservices/http-api/repository"
)

// HistoryService answers role-scoped history queries for a course room.
type HistoryService interface {
	ListMessages(ctx context.Context, roomID, requesterEmail string) ([]models.ChatMessage, error)
	ListRoomParticipants(ctx context.Context, roomID, requesterEmail string) ([]models.Participant, error)
}

type historyService struct {
	messages   repository.MessageStore
	principals repository.PrincipalRepository
	limit      int
}

func NewHistoryService(messages repository.MessageStore, principals repository.PrincipalRepository, limit int) HistoryService {
	return &historyService{
		messages:   messages,
		principals: principals,
		limit:      limit,
	}
}

// ListMessages returns the earliest messages of the room visible to the
// requester, oldest first.
func (s *historyService) ListMessages(ctx context.Context, roomID, requesterEmail string) ([]models.ChatMessage, error) {
	if strings.TrimSpace(roomID) == "" {
		return nil, fmt.Errorf("%w: room is required", ErrValidation)
	}

	requester, err := s.principals.FindByEmail(ctx, strings.ToLower(requesterEmail))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: principal not found", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to look up principal: %w", err)
	}

	filter := repository.MessageFilter{RoomID: roomID, Limit: s.limit}
	if !requester.IsAdmin() {
		filter.ViewerEmail = requester.Email
	}

	messages, err := s.messages.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}
	return messages, nil
}

func (s *historyService) ListRoomParticipants(ctx context.Context, roomID, requesterEmail string) ([]models.Participant, error) {
	if strings.TrimSpace(roomID) == "" {
		return nil, fmt.Errorf("%w: room is required", ErrValidation)
	}
	if _, err := requireAdmin(ctx, s.principals, requesterEmail); err != nil {
		return nil, err
	}

	participants, err := s.messages.Participants(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("failed to load participants: %w", err)
	}
	return participants, nil
}

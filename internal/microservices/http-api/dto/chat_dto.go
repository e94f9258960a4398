package dto

import "coursehub/internal/microservices/http-api/models"

// AdminSendMessageRequest for POST /admin/send-message.
// An empty TargetEmail broadcasts to the whole room.
type AdminSendMessageRequest struct {
	Room        string `json:"room" binding:"required"`
	Body        string `json:"body" binding:"required,max=5000"`
	SenderName  string `json:"senderName"`
	SenderPhoto string `json:"senderPhoto"`
	TargetEmail string `json:"targetEmail" binding:"omitempty,email"`
}

// MessageListResponse wraps a room's history
type MessageListResponse struct {
	Room     string               `json:"room"`
	Messages []models.ChatMessage `json:"messages"`
	Count    int                  `json:"count"`
}

func NewMessageListResponse(room string, messages []models.ChatMessage) *MessageListResponse {
	if messages == nil {
		messages = []models.ChatMessage{}
	}
	return &MessageListResponse{Room: room, Messages: messages, Count: len(messages)}
}

type ParticipantListResponse struct {
	Room         string               `json:"room"`
	Participants []models.Participant `json:"participants"`
}

func NewParticipantListResponse(room string, participants []models.Participant) *ParticipantListResponse {
	if participants == nil {
		participants = []models.Participant{}
	}
	return &ParticipantListResponse{Room: room, Participants: participants}
}

package handler

import (
	"context"
	"net/http"

	"coursehub/internal/microservices/http-api/dto"
	"coursehub/internal/microservices/http-api/models"
	"coursehub/internal/microservices/http-api/service"
	"coursehub/internal/microservices/websocket"

	"github.com/gin-gonic/gin"
)

// MessageRelay is the write side of the chat: persisted and fanned out.
type MessageRelay interface {
	SendAdminMessage(ctx context.Context, d websocket.Draft) (*models.ChatMessage, error)
	DeleteMessage(ctx context.Context, messageID, requesterEmail string) error
}

type MessageHandler struct {
	history service.HistoryService
	relay   MessageRelay
}

func NewMessageHandler(history service.HistoryService, relay MessageRelay) *MessageHandler {
	return &MessageHandler{
		history: history,
		relay:   relay,
	}
}

// RegisterRoutes registers routes open to any authenticated principal
func (h *MessageHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/course-messages/:roomId", h.ListMessages) // scoped history
	router.DELETE("/course-messages/:messageId", h.Delete) // sender or admin
}

// RegisterAdminRoutes registers routes behind RequireAdmin
func (h *MessageHandler) RegisterAdminRoutes(router *gin.RouterGroup) {
	router.GET("/course-users/:roomId", h.ListParticipants)
	router.POST("/admin/send-message", h.AdminSend)
}

// ListMessages returns the room history visible to the caller
// GET /course-messages/:roomId
func (h *MessageHandler) ListMessages(c *gin.Context) {
	email, ok := callerEmail(c)
	if !ok {
		return
	}

	room := c.Param("roomId")
	messages, err := h.history.ListMessages(c.Request.Context(), room, email)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewMessageListResponse(room, messages))
}

// Delete removes a message and notifies the room
// DELETE /course-messages/:messageId
func (h *MessageHandler) Delete(c *gin.Context) {
	email, ok := callerEmail(c)
	if !ok {
		return
	}

	if err := h.relay.DeleteMessage(c.Request.Context(), c.Param("messageId"), email); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"messageId": c.Param("messageId"), "deleted": true})
}

// ListParticipants summarizes who has posted in a room
// GET /course-users/:roomId
func (h *MessageHandler) ListParticipants(c *gin.Context) {
	email, ok := callerEmail(c)
	if !ok {
		return
	}

	room := c.Param("roomId")
	participants, err := h.history.ListRoomParticipants(c.Request.Context(), room, email)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewParticipantListResponse(room, participants))
}

// AdminSend posts a broadcast or directed admin message
// POST /admin/send-message
func (h *MessageHandler) AdminSend(c *gin.Context) {
	email, ok := callerEmail(c)
	if !ok {
		return
	}

	var req dto.AdminSendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	name := req.SenderName
	if name == "" {
		name = c.GetString("name")
	}
	photo := req.SenderPhoto
	if photo == "" {
		photo = c.GetString("picture")
	}

	msg, err := h.relay.SendAdminMessage(c.Request.Context(), websocket.Draft{
		Room:        req.Room,
		SenderEmail: email,
		SenderName:  name,
		SenderPhoto: photo,
		Body:        req.Body,
		TargetEmail: req.TargetEmail,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, msg)
}

package repository

import (
	"context"
	"errors"

	"coursehub/internal/microservices/http-api/models"

	"gorm.io/gorm"
)

// MessageFilter scopes a history query.
// An empty ViewerEmail means no visibility narrowing (admin view).
type MessageFilter struct {
	RoomID      string
	ViewerEmail string
	Limit       int
}

// MessageStore is the chat message collection.
type MessageStore interface {
	Insert(ctx context.Context, message *models.ChatMessage) error
	FindByID(ctx context.Context, id string) (*models.ChatMessage, error)
	Find(ctx context.Context, filter MessageFilter) ([]models.ChatMessage, error)
	Delete(ctx context.Context, id string) error
	Participants(ctx context.Context, roomID string) ([]models.Participant, error)
}

type messageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) MessageStore {
	return &messageRepository{db: db}
}

func (r *messageRepository) Insert(ctx context.Context, message *models.ChatMessage) error {
	return r.db.WithContext(ctx).Create(message).Error
}

func (r *messageRepository) FindByID(ctx context.Context, id string) (*models.ChatMessage, error) {
	var message models.ChatMessage
	if err := r.db.WithContext(ctx).First(&message, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &message, nil
}

// Find returns the room's messages oldest first
func (r *messageRepository) Find(ctx context.Context, filter MessageFilter) ([]models.ChatMessage, error) {
	query := r.db.WithContext(ctx).Where("room_id = ?", filter.RoomID)
	if filter.ViewerEmail != "" {
		query = query.Where(
			"(sender_email = ? OR (is_admin_message = ? AND (target_email = '' OR target_email = ?)))",
			filter.ViewerEmail, true, filter.ViewerEmail,
		)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	var messages []models.ChatMessage
	err := query.Order("sent_at ASC").Find(&messages).Error
	return messages, err
}

// Delete removes the message; deleting an absent message is ErrNotFound
func (r *messageRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Delete(&models.ChatMessage{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Participants groups the room history by sender, ordered by name
func (r *messageRepository) Participants(ctx context.Context, roomID string) ([]models.Participant, error) {
	var participants []models.Participant
	err := r.db.WithContext(ctx).
		Model(&models.ChatMessage{}).
		Select("sender_email AS email, MAX(sender_name) AS name, MAX(sender_photo) AS photo, COUNT(*) AS message_count").
		Where("room_id = ?", roomID).
		Group("sender_email").
		Order("name ASC").
		Scan(&participants).Error
	return participants, err
}

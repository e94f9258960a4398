package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ChatMessage is immutable once stored; it is only ever created or deleted.
type ChatMessage struct {
	ID             string    `gorm:"primaryKey" bson:"_id" json:"id"`
	RoomID         string    `gorm:"not null;index:idx_chat_messages_room_sent" bson:"roomId" json:"roomId"`
	SenderEmail    string    `gorm:"not null;index" bson:"senderEmail" json:"senderEmail"`
	SenderName     string    `gorm:"not null;default:''" bson:"senderName" json:"senderName"`
	SenderPhoto    string    `gorm:"not null;default:''" bson:"senderPhoto" json:"senderPhoto"`
	Body           string    `gorm:"not null;type:text" bson:"body" json:"body"`
	IsAdminMessage bool      `gorm:"not null;default:false" bson:"isAdminMessage" json:"isAdminMessage"`
	TargetEmail    string    `gorm:"not null;default:''" bson:"targetEmail,omitempty" json:"targetEmail,omitempty"` // empty = whole room
	Timestamp      time.Time `gorm:"column:sent_at;not null;index:idx_chat_messages_room_sent" bson:"timestamp" json:"timestamp"`
}

func (ChatMessage) TableName() string {
	return "chat_messages"
}

// BeforeCreate assigns the message ID on insert
func (m *ChatMessage) BeforeCreate(tx *gorm.DB) (err error) {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	return
}

// IsDirected reports whether the message is addressed to a single principal
func (m *ChatMessage) IsDirected() bool {
	return m.TargetEmail != ""
}

// VisibleTo applies the history visibility rule:
// admins see everything; others see their own messages plus admin messages
// that are either room-wide or addressed to them.
func (m *ChatMessage) VisibleTo(email string, admin bool) bool {
	if admin {
		return true
	}
	if m.SenderEmail == email {
		return true
	}
	return m.IsAdminMessage && (m.TargetEmail == "" || m.TargetEmail == email)
}

// Participant summarises one sender's activity in a room
type Participant struct {
	Email        string `bson:"_id" json:"email"`
	Name         string `bson:"name" json:"name"`
	Photo        string `bson:"photo" json:"photo"`
	MessageCount int64  `bson:"messageCount" json:"messageCount"`
}

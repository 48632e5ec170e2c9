package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Message struct {
	ID             string    `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	ConversationID string    `gorm:"column:conversation_id;type:uuid;index" json:"conversationId"`
	SenderID       string    `gorm:"column:sender_id;type:uuid;index" json:"senderId"`
	RecipientID    string    `gorm:"column:recipient_id;type:uuid;index" json:"recipientId"`
	Text           string    `gorm:"column:text;not null" json:"text"`
	CreatedAt      time.Time `gorm:"column:created_at;index" json:"createdAt"`
}

func (Message) TableName() string {
	return "messages"
}

func (m *Message) BeforeCreate(_ *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}

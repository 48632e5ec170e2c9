package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Conversation links two users. The pair is stored in lexicographic order so
// (a,b) and (b,a) always resolve to the same row; Read1/Read2 are the per-side
// unread flags keyed by that order.
type Conversation struct {
	ID         string    `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	UserID1    string    `gorm:"column:user_id1;type:uuid;index:idx_conversation_pair,unique" json:"userId1"`
	UserID2    string    `gorm:"column:user_id2;type:uuid;index:idx_conversation_pair,unique" json:"userId2"`
	Read1      bool      `gorm:"column:read1;not null;default:false" json:"read1"`
	Read2      bool      `gorm:"column:read2;not null;default:false" json:"read2"`
	Unfriended bool      `gorm:"column:unfriended;not null;default:false" json:"unfriended"`
	CreatedAt  time.Time `gorm:"column:created_at" json:"createdAt"`
}

func (Conversation) TableName() string {
	return "conversations"
}

func (c *Conversation) BeforeCreate(_ *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

// OrderUserIDs returns the two ids in storage order (userID1 < userID2).
func OrderUserIDs(a, b string) (string, string) {
	if a < b {
		return a, b
	}
	return b, a
}

// ConversationSummary is one row of the conversation list: the peer's profile,
// the read flag for the requesting side and a preview of the latest message.
type ConversationSummary struct {
	Read           bool            `json:"read"`
	ConversationID string          `json:"conversationId"`
	UserID         string          `json:"userId"`
	Username       string          `json:"username"`
	Avatar         string          `json:"avatar"`
	CreatedAt      int64           `json:"createdAt"`
	Message        *MessagePreview `json:"message"`
}

type MessagePreview struct {
	Text      string `json:"text"`
	CreatedAt int64  `json:"createdAt"`
}

package postgres

import (
	"context"
	"time"

	"chat-api/internal/models"

	"gorm.io/gorm"
)

type MessageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

func (r *MessageRepository) Create(ctx context.Context, message *models.Message) error {
	return r.db.WithContext(ctx).Create(message).Error
}

// ListBetween returns messages exchanged by the two users, newest first.
// When before is set, only messages strictly older than it are returned
// (keyset pagination on created_at).
func (r *MessageRepository) ListBetween(ctx context.Context, userID, otherID string, before *time.Time, limit int) ([]models.Message, error) {
	query := r.db.WithContext(ctx).
		Where(
			"(sender_id = ? AND recipient_id = ?) OR (sender_id = ? AND recipient_id = ?)",
			userID, otherID, otherID, userID,
		)
	if before != nil {
		query = query.Where("created_at < ?", *before)
	}

	var messages []models.Message
	err := query.Order("created_at DESC").Limit(limit).Find(&messages).Error
	if err != nil {
		return nil, err
	}
	return messages, nil
}

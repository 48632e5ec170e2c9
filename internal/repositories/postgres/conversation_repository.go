package postgres

import (
	"context"
	"errors"
	"time"

	"chat-api/internal/models"

	"gorm.io/gorm"
)

const conversationListLimit = 150

type ConversationRepository struct {
	db *gorm.DB
}

func NewConversationRepository(db *gorm.DB) *ConversationRepository {
	return &ConversationRepository{db: db}
}

// FindByPair looks up the conversation between two users regardless of the
// order the ids are passed in.
func (r *ConversationRepository) FindByPair(ctx context.Context, a, b string) (*models.Conversation, error) {
	userID1, userID2 := models.OrderUserIDs(a, b)
	var conv models.Conversation
	err := r.db.WithContext(ctx).
		Where("user_id1 = ? AND user_id2 = ?", userID1, userID2).
		First(&conv).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &conv, nil
}

func (r *ConversationRepository) Create(ctx context.Context, conv *models.Conversation) error {
	conv.UserID1, conv.UserID2 = models.OrderUserIDs(conv.UserID1, conv.UserID2)
	return r.db.WithContext(ctx).Create(conv).Error
}

// Reactivate clears the unfriended flag on a conversation.
func (r *ConversationRepository) Reactivate(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Model(&models.Conversation{}).
		Where("id = ?", id).
		UpdateColumn("unfriended", false).Error
}

// MarkRead sets the read flag for userID's side of its conversation with
// peerID. Missing conversations are a no-op.
func (r *ConversationRepository) MarkRead(ctx context.Context, userID, peerID string) error {
	userID1, userID2 := models.OrderUserIDs(userID, peerID)
	column := "read2"
	if userID == userID1 {
		column = "read1"
	}
	return r.db.WithContext(ctx).Model(&models.Conversation{}).
		Where("user_id1 = ? AND user_id2 = ?", userID1, userID2).
		UpdateColumn(column, true).Error
}

// MarkUnread clears the read flag for recipientID's side and reactivates the
// conversation, so a new message always surfaces even after an unfriend.
func (r *ConversationRepository) MarkUnread(ctx context.Context, conversationID, recipientID, senderID string) error {
	userID1, _ := models.OrderUserIDs(recipientID, senderID)
	column := "read2"
	if recipientID == userID1 {
		column = "read1"
	}
	return r.db.WithContext(ctx).Model(&models.Conversation{}).
		Where("id = ?", conversationID).
		UpdateColumns(map[string]interface{}{
			column:       false,
			"unfriended": false,
		}).Error
}

type conversationRow struct {
	Read           bool       `gorm:"column:read"`
	ConversationID string     `gorm:"column:conversation_id"`
	UserID         string     `gorm:"column:user_id"`
	Username       string     `gorm:"column:username"`
	Avatar         string     `gorm:"column:avatar"`
	CreatedAt      time.Time  `gorm:"column:created_at"`
	LastText       *string    `gorm:"column:last_text"`
	LastCreatedAt  *time.Time `gorm:"column:last_created_at"`
}

// ListForUser returns the user's conversations enriched with the peer profile
// and the latest message, ordered by most recent activity.
func (r *ConversationRepository) ListForUser(ctx context.Context, userID string) ([]models.ConversationSummary, error) {
	var rows []conversationRow
	err := r.db.WithContext(ctx).Raw(`
		SELECT
			CASE WHEN u.id = co.user_id1 THEN co.read2 ELSE co.read1 END AS read,
			co.id AS conversation_id,
			u.id AS user_id,
			u.username,
			COALESCE(u.avatar, '') AS avatar,
			co.created_at,
			m.text AS last_text,
			m.created_at AS last_created_at
		FROM conversations co
		INNER JOIN users u
			ON u.id <> ? AND (u.id = co.user_id1 OR u.id = co.user_id2)
		LEFT JOIN LATERAL (
			SELECT text, created_at
			FROM messages
			WHERE conversation_id = co.id
			ORDER BY created_at DESC
			LIMIT 1
		) m ON TRUE
		WHERE (co.user_id1 = ? OR co.user_id2 = ?) AND co.unfriended = FALSE
		ORDER BY m.created_at DESC NULLS LAST
		LIMIT ?`,
		userID, userID, userID, conversationListLimit,
	).Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	summaries := make([]models.ConversationSummary, 0, len(rows))
	for _, row := range rows {
		summary := models.ConversationSummary{
			Read:           row.Read,
			ConversationID: row.ConversationID,
			UserID:         row.UserID,
			Username:       row.Username,
			Avatar:         row.Avatar,
			CreatedAt:      row.CreatedAt.UnixMilli(),
		}
		if row.LastText != nil && row.LastCreatedAt != nil {
			summary.Message = &models.MessagePreview{
				Text:      previewText(*row.LastText),
				CreatedAt: row.LastCreatedAt.UnixMilli(),
			}
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

func previewText(text string) string {
	const max = 40
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max]) + "..."
}

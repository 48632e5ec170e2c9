package services

import (
	"context"
	"time"

	"chat-api/internal/models"
)

// Persistence surfaces the services depend on. The gorm repositories in
// internal/repositories/postgres satisfy them; tests use in-memory fakes.

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByGoogleID(ctx context.Context, googleID string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	ListOthers(ctx context.Context, excludeID string) ([]models.User, error)
	IncrementTokenVersion(ctx context.Context, id string) error
}

type ConversationRepository interface {
	FindByPair(ctx context.Context, a, b string) (*models.Conversation, error)
	Create(ctx context.Context, conv *models.Conversation) error
	Reactivate(ctx context.Context, id string) error
	MarkRead(ctx context.Context, userID, peerID string) error
	MarkUnread(ctx context.Context, conversationID, recipientID, senderID string) error
	ListForUser(ctx context.Context, userID string) ([]models.ConversationSummary, error)
}

type MessageRepository interface {
	Create(ctx context.Context, message *models.Message) error
	ListBetween(ctx context.Context, userID, otherID string, before *time.Time, limit int) ([]models.Message, error)
}

package services

import (
	"context"
	"errors"
	"log/slog"

	"chat-api/internal/models"
	"chat-api/internal/repositories/postgres"
)

var ErrSelfConversation = errors.New("cannot create a conversation with yourself")

type ConversationService struct {
	conversations ConversationRepository
	logger        *slog.Logger
}

func NewConversationService(conversations ConversationRepository, logger *slog.Logger) *ConversationService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ConversationService{conversations: conversations, logger: logger}
}

func (s *ConversationService) ListForUser(ctx context.Context, userID string) ([]models.ConversationSummary, error) {
	return s.conversations.ListForUser(ctx, userID)
}

// FindOrCreate returns the conversation between the two users, creating it on
// first contact. An unfriended conversation is reactivated and reported as
// newly created.
func (s *ConversationService) FindOrCreate(ctx context.Context, currentUserID, otherUserID string) (*models.Conversation, bool, error) {
	if otherUserID == currentUserID {
		return nil, false, ErrSelfConversation
	}

	conv, err := s.conversations.FindByPair(ctx, currentUserID, otherUserID)
	if err == nil {
		if conv.Unfriended {
			if err := s.conversations.Reactivate(ctx, conv.ID); err != nil {
				return nil, false, err
			}
			conv.Unfriended = false
			return conv, true, nil
		}
		return conv, false, nil
	}
	if !errors.Is(err, postgres.ErrNotFound) {
		return nil, false, err
	}

	conv = &models.Conversation{UserID1: currentUserID, UserID2: otherUserID}
	if err := s.conversations.Create(ctx, conv); err != nil {
		return nil, false, err
	}
	return conv, true, nil
}

// MarkUnreadOnNewMessage flags the recipient's side unread and clears the
// unfriended bit, invoked when a message lands while the recipient is not
// viewing the sender's thread.
func (s *ConversationService) MarkUnreadOnNewMessage(ctx context.Context, conversationID, recipientID, senderID string) error {
	return s.conversations.MarkUnread(ctx, conversationID, recipientID, senderID)
}

// MarkConversationRead implements the websocket read tracker: it flags
// userID's side of the conversation with peerID as read. Blank ids are
// tolerated silently; the real-time channel must never fail because of this
// side effect.
func (s *ConversationService) MarkConversationRead(ctx context.Context, userID, peerID string) error {
	if userID == "" || peerID == "" {
		s.logger.Warn("mark conversation read called with blank id",
			"userId", userID, "peerId", peerID)
		return nil
	}
	return s.conversations.MarkRead(ctx, userID, peerID)
}

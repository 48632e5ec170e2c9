package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"chat-api/internal/models"
	"chat-api/internal/ws"
)

const messagePageSize = 20

var (
	ErrEmptyMessage  = errors.New("message text cannot be empty")
	ErrSelfRecipient = errors.New("recipient cannot be the same as the sender")
	ErrInvalidCursor = errors.New("cursor must be a positive millisecond timestamp")
)

type MessageService struct {
	messages      MessageRepository
	conversations *ConversationService
	registry      *ws.Registry
	events        *EventPublisher
	logger        *slog.Logger
}

func NewMessageService(
	messages MessageRepository,
	conversations *ConversationService,
	registry *ws.Registry,
	events *EventPublisher,
	logger *slog.Logger,
) *MessageService {
	if logger == nil {
		logger = slog.Default()
	}
	return &MessageService{
		messages:      messages,
		conversations: conversations,
		registry:      registry,
		events:        events,
		logger:        logger,
	}
}

// Create persists the message and performs delivery-on-write: push to the
// recipient's live socket if there is one, and flag the conversation unread
// unless the recipient is actively viewing this sender's thread. Being
// focused substitutes for a read receipt.
func (s *MessageService) Create(ctx context.Context, senderID string, req models.CreateMessageRequest) (*models.Message, error) {
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return nil, ErrEmptyMessage
	}
	if req.RecipientID == senderID {
		return nil, ErrSelfRecipient
	}

	conv, _, err := s.conversations.FindOrCreate(ctx, senderID, req.RecipientID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve conversation: %w", err)
	}

	message := &models.Message{
		ConversationID: conv.ID,
		SenderID:       senderID,
		RecipientID:    req.RecipientID,
		Text:           text,
		CreatedAt:      time.Now().UTC(),
	}
	if err := s.messages.Create(ctx, message); err != nil {
		return nil, fmt.Errorf("failed to create message: %w", err)
	}

	s.registry.Send(req.RecipientID, ws.NewMessage(message))

	if !s.registry.IsFocusedOn(req.RecipientID, senderID) {
		if err := s.conversations.MarkUnreadOnNewMessage(ctx, conv.ID, req.RecipientID, senderID); err != nil {
			// The message is durable and the push already happened; a failed
			// unread flag is logged and left to the next read action.
			s.logger.Error("failed to mark conversation unread",
				"conversationId", conv.ID, "recipientId", req.RecipientID, "error", err)
		}
	}

	s.events.MessageCreated(message)

	return message, nil
}

// ListBetween pages through the two users' shared history, newest first.
// cursor is a millisecond timestamp; only strictly older messages return.
func (s *MessageService) ListBetween(ctx context.Context, userID, otherID, cursor string) ([]models.Message, bool, error) {
	var before *time.Time
	if cursor != "" {
		ms, err := strconv.ParseInt(cursor, 10, 64)
		if err != nil || ms <= 0 {
			return nil, false, ErrInvalidCursor
		}
		t := time.UnixMilli(ms)
		before = &t
	}

	messages, err := s.messages.ListBetween(ctx, userID, otherID, before, messagePageSize+1)
	if err != nil {
		return nil, false, err
	}

	hasMore := len(messages) > messagePageSize
	if hasMore {
		messages = messages[:messagePageSize]
	}
	return messages, hasMore, nil
}

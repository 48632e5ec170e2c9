package services

import (
	"context"
	"testing"

	"chat-api/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindOrCreateCreatesOnFirstContact(t *testing.T) {
	repo := newFakeConversationRepo()
	service := NewConversationService(repo, nil)

	conv, created, err := service.FindOrCreate(context.Background(), "alice", "bob")
	require.NoError(t, err)
	assert.True(t, created)

	u1, u2 := models.OrderUserIDs("alice", "bob")
	assert.Equal(t, u1, conv.UserID1)
	assert.Equal(t, u2, conv.UserID2)
}

func TestFindOrCreateReturnsExisting(t *testing.T) {
	repo := newFakeConversationRepo()
	service := NewConversationService(repo, nil)
	ctx := context.Background()

	first, _, err := service.FindOrCreate(ctx, "alice", "bob")
	require.NoError(t, err)

	// Same pair in the opposite order resolves to the same conversation.
	second, created, err := service.FindOrCreate(ctx, "bob", "alice")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)
}

func TestFindOrCreateReactivatesUnfriended(t *testing.T) {
	repo := newFakeConversationRepo()
	service := NewConversationService(repo, nil)
	ctx := context.Background()

	conv, _, err := service.FindOrCreate(ctx, "alice", "bob")
	require.NoError(t, err)
	repo.convs[conv.ID].Unfriended = true

	reactivated, created, err := service.FindOrCreate(ctx, "alice", "bob")
	require.NoError(t, err)
	assert.True(t, created, "reactivation counts as creation")
	assert.False(t, reactivated.Unfriended)
	assert.Equal(t, []string{conv.ID}, repo.reactivations)
}

func TestFindOrCreateRejectsSelf(t *testing.T) {
	service := NewConversationService(newFakeConversationRepo(), nil)

	_, _, err := service.FindOrCreate(context.Background(), "alice", "alice")
	assert.ErrorIs(t, err, ErrSelfConversation)
}

func TestMarkConversationReadToleratesBlankIDs(t *testing.T) {
	repo := newFakeConversationRepo()
	service := NewConversationService(repo, nil)
	ctx := context.Background()

	require.NoError(t, service.MarkConversationRead(ctx, "", "bob"))
	require.NoError(t, service.MarkConversationRead(ctx, "alice", ""))
	assert.Empty(t, repo.readCalls)

	require.NoError(t, service.MarkConversationRead(ctx, "alice", "bob"))
	assert.Equal(t, [][2]string{{"alice", "bob"}}, repo.readCalls)
}

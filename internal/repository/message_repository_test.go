package repository

import (
	"context"
	"testing"
	"time"

	"github.com/lkalantari/askout/internal/model"
	"github.com/lkalantari/askout/internal/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMessage() *model.Message {
	return &model.Message{
		AccessToken:   token.Generate(),
		TrackingToken: token.Generate(),
		SenderName:    "Alex",
		RecipientName: "Sam",
		MessageText:   "Will you go out with me?",
		CardStyle:     model.CardStyleClassic,
		Activities:    []string{model.ActivityCoffee, model.ActivityMovie},
		ExpiresAt:     time.Now().Add(24 * time.Hour),
	}
}

func TestMessageRepository_Create(t *testing.T) {
	db := setupTestDB(t).DB
	repo := NewMessageRepository(db)
	ctx := context.Background()

	t.Run("create message successfully", func(t *testing.T) {
		msg := newTestMessage()

		created, err := repo.Create(ctx, msg)
		require.NoError(t, err)
		assert.NotZero(t, created.ID)
		assert.Equal(t, msg.AccessToken, created.AccessToken)
		assert.Equal(t, msg.TrackingToken, created.TrackingToken)
		assert.Equal(t, msg.SenderName, created.SenderName)
		assert.Equal(t, msg.Activities, created.Activities)
		assert.False(t, created.IsOpened)
		assert.NotZero(t, created.CreatedAt)
	})

	t.Run("access token must be unique", func(t *testing.T) {
		msg := newTestMessage()
		_, err := repo.Create(ctx, msg)
		require.NoError(t, err)

		dup := newTestMessage()
		dup.AccessToken = msg.AccessToken
		_, err = repo.Create(ctx, dup)
		require.Error(t, err)
	})

	t.Run("tracking token must be unique", func(t *testing.T) {
		msg := newTestMessage()
		_, err := repo.Create(ctx, msg)
		require.NoError(t, err)

		dup := newTestMessage()
		dup.TrackingToken = msg.TrackingToken
		_, err = repo.Create(ctx, dup)
		require.Error(t, err)
	})
}

func TestMessageRepository_FindByAccessToken(t *testing.T) {
	db := setupTestDB(t).DB
	repo := NewMessageRepository(db)
	ctx := context.Background()

	created, err := repo.Create(ctx, newTestMessage())
	require.NoError(t, err)

	t.Run("finds existing message", func(t *testing.T) {
		found, err := repo.FindByAccessToken(ctx, created.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, created.ID, found.ID)
		assert.Equal(t, created.MessageText, found.MessageText)
		assert.Equal(t, created.Activities, found.Activities)
	})

	t.Run("unknown token returns ErrNotFound", func(t *testing.T) {
		_, err := repo.FindByAccessToken(ctx, "no-such-token")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("tracking token does not resolve as access token", func(t *testing.T) {
		_, err := repo.FindByAccessToken(ctx, created.TrackingToken)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestMessageRepository_FindByTrackingToken(t *testing.T) {
	db := setupTestDB(t).DB
	repo := NewMessageRepository(db)
	ctx := context.Background()

	created, err := repo.Create(ctx, newTestMessage())
	require.NoError(t, err)

	t.Run("finds existing message", func(t *testing.T) {
		found, err := repo.FindByTrackingToken(ctx, created.TrackingToken)
		require.NoError(t, err)
		assert.Equal(t, created.ID, found.ID)
	})

	t.Run("unknown token returns ErrNotFound", func(t *testing.T) {
		_, err := repo.FindByTrackingToken(ctx, "no-such-token")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestMessageRepository_MarkOpened(t *testing.T) {
	db := setupTestDB(t).DB
	repo := NewMessageRepository(db)
	ctx := context.Background()

	created, err := repo.Create(ctx, newTestMessage())
	require.NoError(t, err)

	t.Run("first call flips the flag", func(t *testing.T) {
		changed, err := repo.MarkOpened(ctx, created.ID)
		require.NoError(t, err)
		assert.True(t, changed)

		found, err := repo.FindByID(ctx, created.ID)
		require.NoError(t, err)
		assert.True(t, found.IsOpened)
	})

	t.Run("second call is a no-op", func(t *testing.T) {
		changed, err := repo.MarkOpened(ctx, created.ID)
		require.NoError(t, err)
		assert.False(t, changed)

		found, err := repo.FindByID(ctx, created.ID)
		require.NoError(t, err)
		assert.True(t, found.IsOpened)
	})

	t.Run("missing message returns ErrNotFound", func(t *testing.T) {
		_, err := repo.MarkOpened(ctx, 999_999)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

package services

import (
	"context"
	"testing"
	"time"

	"github.com/lkalantari/askout/internal/events"
	"github.com/lkalantari/askout/internal/model"
	"github.com/lkalantari/askout/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockMessageRepository struct {
	mock.Mock
}

func (m *MockMessageRepository) Create(ctx context.Context, msg *model.Message) (*model.Message, error) {
	args := m.Called(ctx, msg)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Message), args.Error(1)
}

func (m *MockMessageRepository) FindByID(ctx context.Context, id int64) (*model.Message, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Message), args.Error(1)
}

func (m *MockMessageRepository) FindByAccessToken(ctx context.Context, accessToken string) (*model.Message, error) {
	args := m.Called(ctx, accessToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Message), args.Error(1)
}

func (m *MockMessageRepository) FindByTrackingToken(ctx context.Context, trackingToken string) (*model.Message, error) {
	args := m.Called(ctx, trackingToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Message), args.Error(1)
}

func (m *MockMessageRepository) MarkOpened(ctx context.Context, id int64) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

type MockResponseRepository struct {
	mock.Mock
}

func (m *MockResponseRepository) Create(ctx context.Context, r *model.Response) (*model.Response, error) {
	args := m.Called(ctx, r)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Response), args.Error(1)
}

func (m *MockResponseRepository) FindByMessageID(ctx context.Context, messageID int64) (*model.Response, error) {
	args := m.Called(ctx, messageID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Response), args.Error(1)
}

func (m *MockResponseRepository) ExistsForMessage(ctx context.Context, messageID int64) (bool, error) {
	args := m.Called(ctx, messageID)
	return args.Bool(0), args.Error(1)
}

type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(ctx context.Context, e events.Event) (string, error) {
	args := m.Called(ctx, e)
	return args.String(0), args.Error(1)
}

func testPolicy() ExpiryPolicy {
	return NewExpiryPolicy(time.Now().Add(365*24*time.Hour), 20)
}

func liveMessage() *model.Message {
	return &model.Message{
		ID:            1,
		AccessToken:   "access-1",
		TrackingToken: "track-1",
		SenderName:    "Alex",
		RecipientName: "Sam",
		MessageText:   "Will you go out with me?",
		CardStyle:     model.CardStyleClassic,
		Activities:    []string{model.ActivityCoffee, model.ActivityWalk},
		ExpiresAt:     time.Now().Add(24 * time.Hour),
		CreatedAt:     time.Now(),
	}
}

func TestMessageService_Create(t *testing.T) {
	msgRepo := new(MockMessageRepository)
	respRepo := new(MockResponseRepository)
	pub := new(MockEventPublisher)
	ctx := context.Background()

	service := NewMessageService(msgRepo, respRepo, pub, testPolicy(), "https://askout.example.com/")

	req := model.MessageCreateRequest{
		SenderName:    "Alex",
		RecipientName: "Sam",
		Message:       "Will you go out with me?",
		Activities:    []string{model.ActivityCoffee},
	}

	msgRepo.On("Create", ctx, mock.AnythingOfType("*model.Message")).
		Run(func(args mock.Arguments) {
			m := args.Get(1).(*model.Message)
			assert.NotEmpty(t, m.AccessToken)
			assert.NotEmpty(t, m.TrackingToken)
			assert.NotEqual(t, m.AccessToken, m.TrackingToken)
			assert.Equal(t, model.CardStyleClassic, m.CardStyle)
			assert.False(t, m.ExpiresAt.IsZero())
		}).
		Return(&model.Message{ID: 42, AccessToken: "acc", TrackingToken: "trk"}, nil)
	pub.On("Publish", ctx, mock.MatchedBy(func(e events.Event) bool {
		return e.Kind == events.KindMessageCreated && e.MessageID == 42
	})).Return("1-0", nil)

	created, err := service.Create(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, int64(42), created.ID)
	assert.Equal(t, "https://askout.example.com/m/acc", created.MessageLink)
	assert.Equal(t, "https://askout.example.com/track/trk", created.TrackingLink)

	msgRepo.AssertExpectations(t)
	pub.AssertExpectations(t)
}

func TestMessageService_Create_MinimalRequest(t *testing.T) {
	msgRepo := new(MockMessageRepository)
	service := NewMessageService(msgRepo, new(MockResponseRepository), nil, testPolicy(), "http://localhost")
	ctx := context.Background()

	// names are optional and text is stored trimmed
	msgRepo.On("Create", ctx, mock.AnythingOfType("*model.Message")).
		Run(func(args mock.Arguments) {
			m := args.Get(1).(*model.Message)
			assert.Empty(t, m.SenderName)
			assert.Empty(t, m.RecipientName)
			assert.Equal(t, "Hi", m.MessageText)
		}).
		Return(&model.Message{ID: 7, AccessToken: "acc", TrackingToken: "trk"}, nil)

	created, err := service.Create(ctx, model.MessageCreateRequest{Message: "  Hi  "})
	require.NoError(t, err)
	assert.Equal(t, int64(7), created.ID)
	msgRepo.AssertExpectations(t)
}

func TestMessageService_Create_Invalid(t *testing.T) {
	service := NewMessageService(new(MockMessageRepository), new(MockResponseRepository), nil, testPolicy(), "http://localhost")
	ctx := context.Background()

	t.Run("missing message text", func(t *testing.T) {
		_, err := service.Create(ctx, model.MessageCreateRequest{
			SenderName:    "Alex",
			RecipientName: "Sam",
		})
		assert.Error(t, err)
	})

	t.Run("whitespace-only message text", func(t *testing.T) {
		_, err := service.Create(ctx, model.MessageCreateRequest{Message: "   "})
		assert.Error(t, err)
	})

	t.Run("unknown card style", func(t *testing.T) {
		_, err := service.Create(ctx, model.MessageCreateRequest{
			SenderName:    "Alex",
			RecipientName: "Sam",
			Message:       "hi",
			CardStyle:     "neon",
		})
		assert.Error(t, err)
	})

	t.Run("unknown activity", func(t *testing.T) {
		_, err := service.Create(ctx, model.MessageCreateRequest{
			SenderName:    "Alex",
			RecipientName: "Sam",
			Message:       "hi",
			Activities:    []string{"skydiving"},
		})
		assert.Error(t, err)
	})
}

func TestMessageService_Retrieve(t *testing.T) {
	ctx := context.Background()

	t.Run("returns live message", func(t *testing.T) {
		msgRepo := new(MockMessageRepository)
		respRepo := new(MockResponseRepository)
		service := NewMessageService(msgRepo, respRepo, nil, testPolicy(), "http://localhost")

		m := liveMessage()
		msgRepo.On("FindByAccessToken", ctx, "access-1").Return(m, nil)
		respRepo.On("ExistsForMessage", ctx, m.ID).Return(false, nil)

		view, err := service.Retrieve(ctx, "access-1")
		require.NoError(t, err)
		assert.Equal(t, m.SenderName, view.SenderName)
		assert.Equal(t, m.MessageText, view.Message)
	})

	t.Run("unknown token", func(t *testing.T) {
		msgRepo := new(MockMessageRepository)
		service := NewMessageService(msgRepo, new(MockResponseRepository), nil, testPolicy(), "http://localhost")

		msgRepo.On("FindByAccessToken", ctx, "nope").Return(nil, repository.ErrNotFound)

		_, err := service.Retrieve(ctx, "nope")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("expired message", func(t *testing.T) {
		msgRepo := new(MockMessageRepository)
		service := NewMessageService(msgRepo, new(MockResponseRepository), nil, testPolicy(), "http://localhost")

		m := liveMessage()
		m.ExpiresAt = time.Now().Add(-time.Hour)
		msgRepo.On("FindByAccessToken", ctx, "access-1").Return(m, nil)

		_, err := service.Retrieve(ctx, "access-1")
		assert.ErrorIs(t, err, ErrExpired)
	})

	t.Run("already responded", func(t *testing.T) {
		msgRepo := new(MockMessageRepository)
		respRepo := new(MockResponseRepository)
		service := NewMessageService(msgRepo, respRepo, nil, testPolicy(), "http://localhost")

		m := liveMessage()
		msgRepo.On("FindByAccessToken", ctx, "access-1").Return(m, nil)
		respRepo.On("ExistsForMessage", ctx, m.ID).Return(true, nil)

		_, err := service.Retrieve(ctx, "access-1")
		assert.ErrorIs(t, err, ErrAlreadyResponded)
	})
}

func TestMessageService_MarkOpened(t *testing.T) {
	ctx := context.Background()

	t.Run("first open publishes event", func(t *testing.T) {
		msgRepo := new(MockMessageRepository)
		pub := new(MockEventPublisher)
		service := NewMessageService(msgRepo, new(MockResponseRepository), pub, testPolicy(), "http://localhost")

		m := liveMessage()
		msgRepo.On("FindByAccessToken", ctx, "access-1").Return(m, nil)
		msgRepo.On("MarkOpened", ctx, m.ID).Return(true, nil)
		pub.On("Publish", ctx, mock.MatchedBy(func(e events.Event) bool {
			return e.Kind == events.KindMessageOpened && e.MessageID == m.ID
		})).Return("1-0", nil)

		err := service.MarkOpened(ctx, "access-1")
		require.NoError(t, err)
		pub.AssertExpectations(t)
	})

	t.Run("repeat open publishes nothing", func(t *testing.T) {
		msgRepo := new(MockMessageRepository)
		pub := new(MockEventPublisher)
		service := NewMessageService(msgRepo, new(MockResponseRepository), pub, testPolicy(), "http://localhost")

		m := liveMessage()
		msgRepo.On("FindByAccessToken", ctx, "access-1").Return(m, nil)
		msgRepo.On("MarkOpened", ctx, m.ID).Return(false, nil)

		err := service.MarkOpened(ctx, "access-1")
		require.NoError(t, err)
		pub.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
	})

	t.Run("unknown token", func(t *testing.T) {
		msgRepo := new(MockMessageRepository)
		service := NewMessageService(msgRepo, new(MockResponseRepository), nil, testPolicy(), "http://localhost")

		msgRepo.On("FindByAccessToken", ctx, "nope").Return(nil, repository.ErrNotFound)

		err := service.MarkOpened(ctx, "nope")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestMessageService_SubmitResponse(t *testing.T) {
	ctx := context.Background()

	t.Run("stores answer and publishes event", func(t *testing.T) {
		msgRepo := new(MockMessageRepository)
		respRepo := new(MockResponseRepository)
		pub := new(MockEventPublisher)
		service := NewMessageService(msgRepo, respRepo, pub, testPolicy(), "http://localhost")

		m := liveMessage()
		msgRepo.On("FindByID", ctx, m.ID).Return(m, nil)
		respRepo.On("Create", ctx, mock.AnythingOfType("*model.Response")).
			Return(&model.Response{ID: 5, MessageID: m.ID, ResponseType: model.ResponseYes}, nil)
		pub.On("Publish", ctx, mock.MatchedBy(func(e events.Event) bool {
			return e.Kind == events.KindResponseSubmitted && e.MessageID == m.ID
		})).Return("1-0", nil)

		resp, err := service.SubmitResponse(ctx, model.ResponseCreateRequest{
			MessageID:        m.ID,
			ResponseType:     model.ResponseYes,
			SelectedActivity: model.ActivityCoffee,
		})
		require.NoError(t, err)
		assert.Equal(t, model.ResponseYes, resp.ResponseType)
		pub.AssertExpectations(t)
	})

	t.Run("missing fields", func(t *testing.T) {
		service := NewMessageService(new(MockMessageRepository), new(MockResponseRepository), nil, testPolicy(), "http://localhost")

		_, err := service.SubmitResponse(ctx, model.ResponseCreateRequest{MessageID: 1})
		assert.Error(t, err)

		_, err = service.SubmitResponse(ctx, model.ResponseCreateRequest{ResponseType: model.ResponseYes})
		assert.Error(t, err)
	})

	t.Run("unknown response type", func(t *testing.T) {
		service := NewMessageService(new(MockMessageRepository), new(MockResponseRepository), nil, testPolicy(), "http://localhost")

		_, err := service.SubmitResponse(ctx, model.ResponseCreateRequest{
			MessageID:    1,
			ResponseType: "definitely",
		})
		assert.Error(t, err)
	})

	t.Run("unknown message", func(t *testing.T) {
		msgRepo := new(MockMessageRepository)
		service := NewMessageService(msgRepo, new(MockResponseRepository), nil, testPolicy(), "http://localhost")

		msgRepo.On("FindByID", ctx, int64(99)).Return(nil, repository.ErrNotFound)

		_, err := service.SubmitResponse(ctx, model.ResponseCreateRequest{
			MessageID:    99,
			ResponseType: model.ResponseYes,
		})
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("expired message still accepts the answer", func(t *testing.T) {
		msgRepo := new(MockMessageRepository)
		respRepo := new(MockResponseRepository)
		service := NewMessageService(msgRepo, respRepo, nil, testPolicy(), "http://localhost")

		m := liveMessage()
		m.ExpiresAt = time.Now().Add(-time.Minute)
		msgRepo.On("FindByID", ctx, m.ID).Return(m, nil)
		respRepo.On("Create", ctx, mock.AnythingOfType("*model.Response")).
			Return(&model.Response{ID: 5, MessageID: m.ID, ResponseType: model.ResponseYes}, nil)

		// the card was on screen before expiry, only Retrieve is gated
		resp, err := service.SubmitResponse(ctx, model.ResponseCreateRequest{
			MessageID:    m.ID,
			ResponseType: model.ResponseYes,
		})
		require.NoError(t, err)
		assert.Equal(t, model.ResponseYes, resp.ResponseType)
	})

	t.Run("activity not proposed by sender", func(t *testing.T) {
		msgRepo := new(MockMessageRepository)
		service := NewMessageService(msgRepo, new(MockResponseRepository), nil, testPolicy(), "http://localhost")

		m := liveMessage()
		msgRepo.On("FindByID", ctx, m.ID).Return(m, nil)

		_, err := service.SubmitResponse(ctx, model.ResponseCreateRequest{
			MessageID:        m.ID,
			ResponseType:     model.ResponseYes,
			SelectedActivity: model.ActivityDinner,
		})
		assert.ErrorIs(t, err, ErrInvalidActivity)
	})

	t.Run("duplicate submit loses", func(t *testing.T) {
		msgRepo := new(MockMessageRepository)
		respRepo := new(MockResponseRepository)
		service := NewMessageService(msgRepo, respRepo, nil, testPolicy(), "http://localhost")

		m := liveMessage()
		msgRepo.On("FindByID", ctx, m.ID).Return(m, nil)
		respRepo.On("Create", ctx, mock.AnythingOfType("*model.Response")).
			Return(nil, repository.ErrDuplicateResponse)

		_, err := service.SubmitResponse(ctx, model.ResponseCreateRequest{
			MessageID:    m.ID,
			ResponseType: model.ResponseNo,
		})
		assert.ErrorIs(t, err, ErrAlreadyResponded)
	})
}

package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lkalantari/askout/internal/events"
	"github.com/lkalantari/askout/internal/model"
	"github.com/lkalantari/askout/internal/repository"
	"github.com/lkalantari/askout/internal/token"
	"github.com/lkalantari/askout/pkg/logger"
)

var (
	ErrNotFound         = errors.New("message not found")
	ErrExpired          = errors.New("message has expired")
	ErrAlreadyResponded = errors.New("message already has a response")
	ErrInvalidActivity  = errors.New("selected activity was not proposed by the sender")
)

type MessageRepository interface {
	Create(ctx context.Context, m *model.Message) (*model.Message, error)
	FindByID(ctx context.Context, id int64) (*model.Message, error)
	FindByAccessToken(ctx context.Context, accessToken string) (*model.Message, error)
	MarkOpened(ctx context.Context, id int64) (bool, error)
}

type ResponseRepository interface {
	Create(ctx context.Context, r *model.Response) (*model.Response, error)
	FindByMessageID(ctx context.Context, messageID int64) (*model.Response, error)
	ExistsForMessage(ctx context.Context, messageID int64) (bool, error)
}

type EventPublisher interface {
	Publish(ctx context.Context, e events.Event) (string, error)
}

type MessageService struct {
	messageRepo  MessageRepository
	responseRepo ResponseRepository
	publisher    EventPublisher
	expiry       ExpiryPolicy
	baseURL      string
}

func NewMessageService(messageRepo MessageRepository, responseRepo ResponseRepository, publisher EventPublisher, expiry ExpiryPolicy, baseURL string) *MessageService {
	return &MessageService{
		messageRepo:  messageRepo,
		responseRepo: responseRepo,
		publisher:    publisher,
		expiry:       expiry,
		baseURL:      strings.TrimRight(baseURL, "/"),
	}
}

// Create composes a message and mints its two share links. The access token
// goes to the recipient, the tracking token stays with the sender, neither
// is derivable from the other.
func (s *MessageService) Create(ctx context.Context, p model.MessageCreateRequest) (*model.MessageCreated, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	cardStyle := p.CardStyle
	if cardStyle == "" {
		cardStyle = model.CardStyleClassic
	}

	now := time.Now().UTC()
	m := &model.Message{
		AccessToken:   token.Generate(),
		TrackingToken: token.Generate(),
		SenderName:    strings.TrimSpace(p.SenderName),
		RecipientName: strings.TrimSpace(p.RecipientName),
		MessageText:   strings.TrimSpace(p.Message),
		CardStyle:     cardStyle,
		Activities:    p.Activities,
		ExpiresAt:     s.expiry.ExpiresAt(now),
	}

	created, err := s.messageRepo.Create(ctx, m)
	if err != nil {
		return nil, fmt.Errorf("create message: %w", err)
	}

	s.publish(ctx, events.New(events.KindMessageCreated, created.ID))

	return &model.MessageCreated{
		ID:            created.ID,
		AccessToken:   created.AccessToken,
		TrackingToken: created.TrackingToken,
		MessageLink:   s.baseURL + "/m/" + created.AccessToken,
		TrackingLink:  s.baseURL + "/track/" + created.TrackingToken,
	}, nil
}

// Retrieve loads the message for the recipient page. Expired and
// already-answered messages are refused so the card is shown at most
// until one response lands.
func (s *MessageService) Retrieve(ctx context.Context, accessToken string) (*model.MessageView, error) {
	m, err := s.findByAccessToken(ctx, accessToken)
	if err != nil {
		return nil, err
	}

	if m.Expired(time.Now()) {
		return nil, ErrExpired
	}

	responded, err := s.responseRepo.ExistsForMessage(ctx, m.ID)
	if err != nil {
		return nil, err
	}
	if responded {
		return nil, ErrAlreadyResponded
	}

	view := model.NewMessageView(m)
	return &view, nil
}

// MarkOpened records that the recipient has seen the card. Repeated calls
// are no-ops, the opened event fires only on the first transition.
func (s *MessageService) MarkOpened(ctx context.Context, accessToken string) error {
	m, err := s.findByAccessToken(ctx, accessToken)
	if err != nil {
		return err
	}

	changed, err := s.messageRepo.MarkOpened(ctx, m.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}

	if changed {
		s.publish(ctx, events.New(events.KindMessageOpened, m.ID))
	}
	return nil
}

// SubmitResponse stores the recipient's one and only answer. The unique
// index on responses.message_id decides the winner when submits race.
// Expiry gates Retrieve only, an answer from a card that is already on
// screen still lands.
func (s *MessageService) SubmitResponse(ctx context.Context, p model.ResponseCreateRequest) (*model.Response, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	m, err := s.messageRepo.FindByID(ctx, p.MessageID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if p.SelectedActivity != "" && !m.AllowsActivity(p.SelectedActivity) {
		return nil, ErrInvalidActivity
	}

	created, err := s.responseRepo.Create(ctx, &model.Response{
		MessageID:        m.ID,
		ResponseType:     p.ResponseType,
		SelectedActivity: p.SelectedActivity,
		ReplyMessage:     p.ReplyMessage,
	})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateResponse) {
			return nil, ErrAlreadyResponded
		}
		return nil, fmt.Errorf("create response: %w", err)
	}

	s.publish(ctx, events.New(events.KindResponseSubmitted, m.ID))

	return created, nil
}

func (s *MessageService) findByAccessToken(ctx context.Context, accessToken string) (*model.Message, error) {
	m, err := s.messageRepo.FindByAccessToken(ctx, accessToken)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return m, nil
}

// publish is fire-and-forget, a broken event bus must not fail the request.
func (s *MessageService) publish(ctx context.Context, e events.Event) {
	if s.publisher == nil {
		return
	}
	if _, err := s.publisher.Publish(ctx, e); err != nil {
		logger.Warn("failed to publish lifecycle event", "kind", e.Kind, "message_id", e.MessageID, "error", err)
	}
}

package services

import (
	"context"
	"errors"

	"github.com/lkalantari/askout/internal/model"
	"github.com/lkalantari/askout/internal/repository"
)

type TrackingMessageRepository interface {
	FindByTrackingToken(ctx context.Context, trackingToken string) (*model.Message, error)
}

type TrackingService struct {
	messageRepo  TrackingMessageRepository
	responseRepo ResponseRepository
}

func NewTrackingService(messageRepo TrackingMessageRepository, responseRepo ResponseRepository) *TrackingService {
	return &TrackingService{
		messageRepo:  messageRepo,
		responseRepo: responseRepo,
	}
}

// Track is the sender's poll: the message plus the response once it exists.
// Unlike the recipient read it keeps working after expiry, the sender may
// always look at what they sent.
func (s *TrackingService) Track(ctx context.Context, trackingToken string) (*model.TrackingInfo, error) {
	m, err := s.messageRepo.FindByTrackingToken(ctx, trackingToken)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	resp, err := s.responseRepo.FindByMessageID(ctx, m.ID)
	if err != nil && !errors.Is(err, repository.ErrResponseNotFound) {
		return nil, err
	}

	return &model.TrackingInfo{
		Message:  model.NewTrackingMessageView(m),
		Response: model.NewResponseView(resp),
	}, nil
}

package repository

import (
	"context"
	"errors"

	"github.com/lkalantari/askout/internal/model"
	"github.com/lkalantari/askout/pkg/pg"
	"gorm.io/gorm"
)

var (
	// ErrDuplicateResponse is returned when the message already has a response.
	// It is raised by the unique index on responses.message_id, so the
	// first-writer-wins guarantee holds under concurrent submits.
	ErrDuplicateResponse = errors.New("message already has a response")

	// ErrResponseNotFound is returned when a message has no response yet.
	ErrResponseNotFound = errors.New("response not found")
)

type ResponseRepository struct {
	*pg.DB
}

func NewResponseRepository(db *pg.DB) *ResponseRepository {
	return &ResponseRepository{
		db,
	}
}

func (r *ResponseRepository) Create(ctx context.Context, resp *model.Response) (*model.Response, error) {
	entity := toResponseEntity(resp)

	if err := r.Write(ctx).WithContext(ctx).Create(entity).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateResponse
		}
		return nil, err
	}

	return toResponseModel(entity), nil
}

func (r *ResponseRepository) FindByMessageID(ctx context.Context, messageID int64) (*model.Response, error) {
	var entity ResponseEntity
	err := r.Read(ctx).WithContext(ctx).First(&entity, "message_id = ?", messageID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrResponseNotFound
		}
		return nil, err
	}
	return toResponseModel(&entity), nil
}

func (r *ResponseRepository) ExistsForMessage(ctx context.Context, messageID int64) (bool, error) {
	var count int64
	err := r.Read(ctx).WithContext(ctx).Model(&ResponseEntity{}).Where("message_id = ?", messageID).Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

package repository

import (
	"time"

	"github.com/lkalantari/askout/internal/model"
)

type ResponseEntity struct {
	ID               int64          `db:"id"                gorm:"primaryKey;autoIncrement;column:id"`
	MessageID        int64          `db:"message_id"        gorm:"column:message_id;not null;uniqueIndex"`
	Message          *MessageEntity `gorm:"foreignKey:MessageID;references:ID;constraint:OnDelete:CASCADE"`
	ResponseType     string         `db:"response_type"     gorm:"column:response_type;not null"`
	SelectedActivity string         `db:"selected_activity" gorm:"column:selected_activity"`
	ReplyMessage     string         `db:"reply_message"     gorm:"column:reply_message"`
	CreatedAt        time.Time      `db:"created_at"        gorm:"column:created_at;autoCreateTime"`
}

func (ResponseEntity) TableName() string {
	return "responses"
}

func toResponseEntity(r *model.Response) *ResponseEntity {
	if r == nil {
		return nil
	}
	return &ResponseEntity{
		ID:               r.ID,
		MessageID:        r.MessageID,
		ResponseType:     string(r.ResponseType),
		SelectedActivity: r.SelectedActivity,
		ReplyMessage:     r.ReplyMessage,
		CreatedAt:        r.CreatedAt,
	}
}

func toResponseModel(e *ResponseEntity) *model.Response {
	if e == nil {
		return nil
	}
	return &model.Response{
		ID:               e.ID,
		MessageID:        e.MessageID,
		ResponseType:     model.ResponseType(e.ResponseType),
		SelectedActivity: e.SelectedActivity,
		ReplyMessage:     e.ReplyMessage,
		CreatedAt:        e.CreatedAt,
	}
}

package repository

import (
	"time"

	"github.com/lkalantari/askout/internal/model"
)

type MessageEntity struct {
	ID            int64     `db:"id"             gorm:"primaryKey;autoIncrement;column:id"`
	AccessToken   string    `db:"access_token"   gorm:"column:access_token;not null;uniqueIndex"`
	TrackingToken string    `db:"tracking_token" gorm:"column:tracking_token;not null;uniqueIndex"`
	SenderName    string    `db:"sender_name"    gorm:"column:sender_name;not null"`
	RecipientName string    `db:"recipient_name" gorm:"column:recipient_name;not null"`
	MessageText   string    `db:"message_text"   gorm:"column:message_text;not null"`
	CardStyle     string    `db:"card_style"     gorm:"column:card_style;not null;default:classic"`
	Activities    []string  `db:"activities"     gorm:"column:activities;serializer:json"`
	IsOpened      bool      `db:"is_opened"      gorm:"column:is_opened;not null;default:false"`
	ExpiresAt     time.Time `db:"expires_at"     gorm:"column:expires_at;not null"`
	CreatedAt     time.Time `db:"created_at"     gorm:"column:created_at;autoCreateTime"`
}

func (MessageEntity) TableName() string {
	return "messages"
}

func toMessageEntity(m *model.Message) *MessageEntity {
	if m == nil {
		return nil
	}
	return &MessageEntity{
		ID:            m.ID,
		AccessToken:   m.AccessToken,
		TrackingToken: m.TrackingToken,
		SenderName:    m.SenderName,
		RecipientName: m.RecipientName,
		MessageText:   m.MessageText,
		CardStyle:     string(m.CardStyle),
		Activities:    m.Activities,
		IsOpened:      m.IsOpened,
		ExpiresAt:     m.ExpiresAt,
		CreatedAt:     m.CreatedAt,
	}
}

func toMessageModel(e *MessageEntity) *model.Message {
	if e == nil {
		return nil
	}
	return &model.Message{
		ID:            e.ID,
		AccessToken:   e.AccessToken,
		TrackingToken: e.TrackingToken,
		SenderName:    e.SenderName,
		RecipientName: e.RecipientName,
		MessageText:   e.MessageText,
		CardStyle:     model.CardStyle(e.CardStyle),
		Activities:    e.Activities,
		IsOpened:      e.IsOpened,
		ExpiresAt:     e.ExpiresAt,
		CreatedAt:     e.CreatedAt,
	}
}

package model

import (
	"errors"
	"time"
)

// ResponseType is the recipient's answer.
type ResponseType string

const (
	ResponseYes   ResponseType = "yes"
	ResponseMaybe ResponseType = "maybe"
	ResponseNo    ResponseType = "no"
)

var knownResponseTypes = map[ResponseType]struct{}{
	ResponseYes:   {},
	ResponseMaybe: {},
	ResponseNo:    {},
}

type Response struct {
	ID               int64        `json:"id"                db:"id"                gorm:"primaryKey;autoIncrement;column:id"`
	MessageID        int64        `json:"message_id"        db:"message_id"        gorm:"column:message_id;not null;uniqueIndex"`
	Message          *Message     `json:"-"                                        gorm:"foreignKey:MessageID;references:ID;constraint:OnDelete:CASCADE"`
	ResponseType     ResponseType `json:"response_type"     db:"response_type"     gorm:"column:response_type;not null"`
	SelectedActivity string       `json:"selected_activity" db:"selected_activity" gorm:"column:selected_activity"`
	ReplyMessage     string       `json:"reply_message"     db:"reply_message"     gorm:"column:reply_message"`
	CreatedAt        time.Time    `json:"created_at"        db:"created_at"        gorm:"column:created_at;autoCreateTime"`
}

func (Response) TableName() string { return "responses" }

// ResponseCreateRequest is the input for submitting a recipient's answer.
// The recipient page already holds the message id from its Retrieve call.
type ResponseCreateRequest struct {
	MessageID        int64        `json:"messageId"`
	ResponseType     ResponseType `json:"responseType"`
	SelectedActivity string       `json:"selectedActivity"`
	ReplyMessage     string       `json:"replyMessage"`
}

func (p ResponseCreateRequest) Validate() error {
	if p.MessageID <= 0 {
		return errors.New("messageId is required")
	}
	if p.ResponseType == "" {
		return errors.New("responseType is required")
	}
	if _, ok := knownResponseTypes[p.ResponseType]; !ok {
		return errors.New("responseType must be one of yes, maybe, no")
	}
	return nil
}

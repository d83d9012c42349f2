package model

import "time"

// MessageView is the recipient-facing projection of a message: the id the
// card page answers with plus what it renders. Tokens, open state and
// timestamps stay out.
type MessageView struct {
	ID            int64     `json:"id"`
	SenderName    string    `json:"senderName"`
	RecipientName string    `json:"recipientName"`
	Message       string    `json:"message"`
	CardStyle     CardStyle `json:"cardStyle"`
	Activities    []string  `json:"activities"`
}

// TrackingMessageView is the sender-facing projection: the full message
// minus the tokens, including the fields withheld from the recipient.
type TrackingMessageView struct {
	ID            int64     `json:"id"`
	SenderName    string    `json:"senderName"`
	RecipientName string    `json:"recipientName"`
	Message       string    `json:"message"`
	CardStyle     CardStyle `json:"cardStyle"`
	Activities    []string  `json:"activities"`
	IsOpened      bool      `json:"isOpened"`
	ExpiresAt     time.Time `json:"expiresAt"`
	CreatedAt     time.Time `json:"createdAt"`
}

// ResponseView is what the sender sees once the recipient has answered.
type ResponseView struct {
	ResponseType     ResponseType `json:"responseType"`
	SelectedActivity string       `json:"selectedActivity,omitempty"`
	ReplyMessage     string       `json:"replyMessage,omitempty"`
	RespondedAt      time.Time    `json:"respondedAt"`
}

// TrackingInfo is the sender's poll result. Response stays nil until the
// recipient submits.
type TrackingInfo struct {
	Message  TrackingMessageView `json:"message"`
	Response *ResponseView       `json:"response"`
}

// NewMessageView builds the recipient projection of a stored message.
func NewMessageView(m *Message) MessageView {
	return MessageView{
		ID:            m.ID,
		SenderName:    m.SenderName,
		RecipientName: m.RecipientName,
		Message:       m.MessageText,
		CardStyle:     m.CardStyle,
		Activities:    m.Activities,
	}
}

// NewTrackingMessageView builds the sender projection of a stored message.
func NewTrackingMessageView(m *Message) TrackingMessageView {
	return TrackingMessageView{
		ID:            m.ID,
		SenderName:    m.SenderName,
		RecipientName: m.RecipientName,
		Message:       m.MessageText,
		CardStyle:     m.CardStyle,
		Activities:    m.Activities,
		IsOpened:      m.IsOpened,
		ExpiresAt:     m.ExpiresAt,
		CreatedAt:     m.CreatedAt,
	}
}

// NewResponseView builds the sender-facing projection of a stored response.
func NewResponseView(r *Response) *ResponseView {
	if r == nil {
		return nil
	}
	return &ResponseView{
		ResponseType:     r.ResponseType,
		SelectedActivity: r.SelectedActivity,
		ReplyMessage:     r.ReplyMessage,
		RespondedAt:      r.CreatedAt,
	}
}

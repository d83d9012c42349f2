package fixtures

import (
	"time"

	"github.com/lkalantari/askout/internal/model"
)

func NewTestMessage(text string, activities []string, expiresAt time.Time) *model.Message {
	return &model.Message{
		SenderName:    "Alex",
		RecipientName: "Sam",
		MessageText:   text,
		CardStyle:     model.CardStyleClassic,
		Activities:    activities,
		ExpiresAt:     expiresAt,
		CreatedAt:     time.Now(),
	}
}

func NewTestMessageCreateRequest(text, cardStyle string, activities []string) model.MessageCreateRequest {
	return model.MessageCreateRequest{
		SenderName:    "Alex",
		RecipientName: "Sam",
		Message:       text,
		CardStyle:     model.CardStyle(cardStyle),
		Activities:    activities,
	}
}

func NewTestResponseCreateRequest(messageID int64, responseType string) model.ResponseCreateRequest {
	return model.ResponseCreateRequest{
		MessageID:    messageID,
		ResponseType: model.ResponseType(responseType),
	}
}

var (
	ValidCardStyles = []string{
		"classic",
		"minimalist",
		"playful",
		"elegant",
		"modern",
	}

	InvalidCardStyles = []string{
		"retro",
		"CLASSIC",
		"fancy",
	}

	ValidActivities = []string{
		"coffee",
		"movie",
		"dinner",
		"walk",
	}

	InvalidActivities = []string{
		"skydiving",
		"Coffee",
		"",
	}
)

func MessageCreateRequestDefault() model.MessageCreateRequest {
	return NewTestMessageCreateRequest("Will you go out with me?", "classic", []string{"coffee", "dinner"})
}

func MessageCreateRequestAllActivities() model.MessageCreateRequest {
	return NewTestMessageCreateRequest("Pick anything you like", "playful", ValidActivities)
}

func MessageCreateRequestEmptyText() model.MessageCreateRequest {
	return NewTestMessageCreateRequest("", "classic", nil)
}

func MessageCreateRequestUnknownStyle() model.MessageCreateRequest {
	return NewTestMessageCreateRequest("Hey", "retro", nil)
}

package model

import (
	"errors"
	"strings"
	"time"
)

// CardStyle selects the visual theme the recipient page renders the card with.
type CardStyle string

const (
	CardStyleClassic    CardStyle = "classic"
	CardStyleMinimalist CardStyle = "minimalist"
	CardStylePlayful    CardStyle = "playful"
	CardStyleElegant    CardStyle = "elegant"
	CardStyleModern     CardStyle = "modern"
)

var knownCardStyles = map[CardStyle]struct{}{
	CardStyleClassic:    {},
	CardStyleMinimalist: {},
	CardStylePlayful:    {},
	CardStyleElegant:    {},
	CardStyleModern:     {},
}

const (
	ActivityCoffee = "coffee"
	ActivityMovie  = "movie"
	ActivityDinner = "dinner"
	ActivityWalk   = "walk"
)

var KnownActivities = map[string]struct{}{
	ActivityCoffee: {},
	ActivityMovie:  {},
	ActivityDinner: {},
	ActivityWalk:   {},
}

type Message struct {
	ID            int64     `json:"id"             db:"id"             gorm:"primaryKey;autoIncrement;column:id"`
	AccessToken   string    `json:"access_token"   db:"access_token"   gorm:"column:access_token;not null;uniqueIndex"`
	TrackingToken string    `json:"tracking_token" db:"tracking_token" gorm:"column:tracking_token;not null;uniqueIndex"`
	SenderName    string    `json:"sender_name"    db:"sender_name"    gorm:"column:sender_name;not null"`
	RecipientName string    `json:"recipient_name" db:"recipient_name" gorm:"column:recipient_name;not null"`
	MessageText   string    `json:"message_text"   db:"message_text"   gorm:"column:message_text;not null"`
	CardStyle     CardStyle `json:"card_style"     db:"card_style"     gorm:"column:card_style;not null;default:classic"`
	Activities    []string  `json:"activities"     db:"activities"     gorm:"column:activities;serializer:json"`
	IsOpened      bool      `json:"is_opened"      db:"is_opened"      gorm:"column:is_opened;not null;default:false"`
	ExpiresAt     time.Time `json:"expires_at"     db:"expires_at"     gorm:"column:expires_at;not null"`
	CreatedAt     time.Time `json:"created_at"     db:"created_at"     gorm:"column:created_at;autoCreateTime"`
}

func (Message) TableName() string { return "messages" }

// Expired reports whether the message is past its expiry at the given instant.
func (m *Message) Expired(now time.Time) bool {
	return now.After(m.ExpiresAt)
}

// AllowsActivity reports whether the sender proposed the given activity.
func (m *Message) AllowsActivity(activity string) bool {
	for _, a := range m.Activities {
		if a == activity {
			return true
		}
	}
	return false
}

// MessageCreateRequest is the input for composing a message.
type MessageCreateRequest struct {
	SenderName    string    `json:"senderName"`
	RecipientName string    `json:"recipientName"`
	Message       string    `json:"message"`
	CardStyle     CardStyle `json:"cardStyle"`
	Activities    []string  `json:"activities"`
}

// Validate checks the request shape. Both names are optional display
// strings, only the message text itself is mandatory.
func (p MessageCreateRequest) Validate() error {
	if strings.TrimSpace(p.Message) == "" {
		return errors.New("message is required")
	}
	if p.CardStyle != "" {
		if _, ok := knownCardStyles[p.CardStyle]; !ok {
			return errors.New("cardStyle is not recognized")
		}
	}
	for _, a := range p.Activities {
		if _, ok := KnownActivities[a]; !ok {
			return errors.New("activity " + a + " is not recognized")
		}
	}
	return nil
}

// MessageCreated is what the sender gets back after composing: the two
// tokens plus ready-to-share links built on the configured base URL.
type MessageCreated struct {
	ID            int64  `json:"id"`
	AccessToken   string `json:"accessToken"`
	TrackingToken string `json:"trackingToken"`
	MessageLink   string `json:"messageLink"`
	TrackingLink  string `json:"trackingLink"`
}

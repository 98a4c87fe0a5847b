package model

import "github.com/slack-go/slack"

// Notification is the outcome of building a message for a deployment event.
// When Skipped is true, Message is nil and nothing must be sent.
type Notification struct {
	Message *slack.WebhookMessage

	ShaShort      string
	ButtonStyle   slack.Style
	StatusText    string
	CreatedAtUnix int64

	Skipped    bool
	SkipReason string
}

// NewSkippedNotification returns the no-op outcome for a filtered event
func NewSkippedNotification(reason string) *Notification {
	return &Notification{
		Skipped:    true,
		SkipReason: reason,
	}
}

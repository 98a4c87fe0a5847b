package model

import (
	"time"

	"github.com/m-mizutani/deploynotify/pkg/domain/types"
)

// WebhookEventType represents the type of webhook event received
type WebhookEventType string

const (
	EventTypeDeploymentStatus WebhookEventType = types.EventDeploymentStatus
	EventTypePing             WebhookEventType = "ping"
)

// WebhookEvent represents a webhook delivery received from GitHub
type WebhookEvent struct {
	ID         string           // Retrieved from X-GitHub-Delivery header
	Type       WebhookEventType // Retrieved from X-GitHub-Event header
	ReceivedAt time.Time
	RawPayload []byte
}

// IsSupportedEvent checks if the event can produce a notification
func (e *WebhookEvent) IsSupportedEvent() bool {
	return e.Type == EventTypeDeploymentStatus
}

package interfaces

import (
	"context"

	"github.com/m-mizutani/deploynotify/pkg/domain/model"
)

// NotifyUseCase defines the interface for deployment status notification
type NotifyUseCase interface {
	// Build validates the event and constructs the message without sending it
	Build(ctx context.Context, event *model.DeploymentEvent) (*model.Notification, error)

	// Deliver sends a notification produced by Build. Skipped notifications are not sent.
	Deliver(ctx context.Context, notification *model.Notification) error

	// Notify builds and delivers a notification for the event
	Notify(ctx context.Context, event *model.DeploymentEvent) (*model.Notification, error)
}

// EventProcessor turns raw GitHub event payloads into notifications
type EventProcessor interface {
	// ProcessEvent decodes payload and notifies Slack about it
	ProcessEvent(ctx context.Context, eventName, actor string, payload []byte) (*model.Notification, error)

	// AsyncDelivery reports whether ProcessEvent returns before delivery completes
	AsyncDelivery() bool
}

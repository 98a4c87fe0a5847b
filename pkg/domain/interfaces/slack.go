package interfaces

import (
	"context"

	"github.com/slack-go/slack"
)

// SlackSender delivers a message to a Slack incoming webhook
type SlackSender interface {
	// Send posts msg to webhookURL once. Any non-2xx answer is an error.
	Send(ctx context.Context, webhookURL string, msg *slack.WebhookMessage) error
}

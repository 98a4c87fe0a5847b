package types

import "github.com/m-mizutani/goerr/v2"

var (
	// ErrWrongEventType is returned when the event tag is not deployment_status
	ErrWrongEventType = goerr.New("invalid configuration: event must be \"deployment_status\"")

	// ErrMissingWebhookURL is returned when no Slack incoming webhook URL is configured
	ErrMissingWebhookURL = goerr.New("invalid configuration: missing Slack incoming webhook URL")

	// ErrMalformedField is returned when a required event field is absent or has an unexpected shape
	ErrMalformedField = goerr.New("malformed event field")

	// ErrTransportFailure is returned when the webhook POST fails or answers non-2xx
	ErrTransportFailure = goerr.New("failed to deliver Slack message")

	// ErrInvalidConfig is returned for configuration values that cannot be used
	ErrInvalidConfig = goerr.New("invalid configuration")
)

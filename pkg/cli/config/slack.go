package config

import (
	"net/url"
	"time"

	"github.com/m-mizutani/deploynotify/pkg/domain/model"
	"github.com/m-mizutani/deploynotify/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

// Slack holds notification configuration
type Slack struct {
	WebhookURL     string `masq:"secret"`
	States         string
	ValidationMode string
	Timeout        time.Duration
	ConfigFile     string
}

// Flags returns CLI flags for notification configuration. GitHub Actions
// exposes step inputs as INPUT_<NAME> environment variables.
func (c *Slack) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "slack-incoming-webhook-url",
			Usage:       "Slack incoming webhook URL",
			Destination: &c.WebhookURL,
			Sources:     cli.EnvVars("INPUT_SLACK-INCOMING-WEBHOOK-URL", "DEPLOYNOTIFY_SLACK_INCOMING_WEBHOOK_URL"),
		},
		&cli.StringFlag{
			Name:        "states",
			Usage:       "Comma-separated deployment states to notify about (empty: all)",
			Destination: &c.States,
			Sources:     cli.EnvVars("INPUT_STATES", "DEPLOYNOTIFY_STATES"),
		},
		&cli.StringFlag{
			Name:        "validation-mode",
			Usage:       "Event validation: event-type (default) or payload",
			Destination: &c.ValidationMode,
			Sources:     cli.EnvVars("DEPLOYNOTIFY_VALIDATION_MODE"),
		},
		&cli.DurationFlag{
			Name:        "slack-timeout",
			Usage:       "Timeout of the Slack webhook request",
			Value:       10 * time.Second,
			Destination: &c.Timeout,
			Sources:     cli.EnvVars("DEPLOYNOTIFY_SLACK_TIMEOUT"),
		},
		&cli.StringFlag{
			Name:        "config",
			Aliases:     []string{"c"},
			Usage:       "TOML config file; flags and environment variables take precedence",
			Destination: &c.ConfigFile,
			Sources:     cli.EnvVars("DEPLOYNOTIFY_CONFIG"),
		},
	}
}

// NotifyConfig merges flags with the config file and returns the builder configuration.
// A missing webhook URL is not rejected here; the builder reports it.
func (c *Slack) NotifyConfig() (model.NotifyConfig, error) {
	webhookURL, states, mode := c.WebhookURL, c.States, c.ValidationMode

	if c.ConfigFile != "" {
		f, err := LoadFile(c.ConfigFile)
		if err != nil {
			return model.NotifyConfig{}, err
		}
		if webhookURL == "" {
			webhookURL = f.WebhookURL
		}
		if states == "" {
			states = f.StatesString()
		}
		if mode == "" {
			mode = f.ValidationMode
		}
	}

	if webhookURL != "" {
		if err := validateWebhookURL(webhookURL); err != nil {
			return model.NotifyConfig{}, err
		}
	}

	validationMode, err := model.ParseValidationMode(mode)
	if err != nil {
		return model.NotifyConfig{}, err
	}

	return model.NotifyConfig{
		WebhookURL:     webhookURL,
		AllowedStates:  model.ParseStates(states),
		ValidationMode: validationMode,
	}, nil
}

func validateWebhookURL(s string) error {
	u, err := url.Parse(s)
	if err != nil {
		// the URL itself is a secret, keep it out of the error
		return goerr.Wrap(types.ErrInvalidConfig, "slack-incoming-webhook-url is not a valid URL")
	}
	if (u.Scheme != "https" && u.Scheme != "http") || u.Host == "" {
		return goerr.Wrap(types.ErrInvalidConfig, "slack-incoming-webhook-url must be an absolute http(s) URL",
			goerr.V("scheme", u.Scheme),
		)
	}
	return nil
}

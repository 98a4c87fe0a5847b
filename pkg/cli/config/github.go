package config

import (
	"os"

	"github.com/m-mizutani/deploynotify/pkg/domain/model"
	"github.com/m-mizutani/deploynotify/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

// GitHub holds GitHub webhook configuration
type GitHub struct {
	WebhookSecret string `masq:"secret"`
}

// Flags returns CLI flags for GitHub webhook configuration
func (c *GitHub) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "github-webhook-secret",
			Usage:       "GitHub webhook secret (signatures are not verified when empty)",
			Destination: &c.WebhookSecret,
			Sources:     cli.EnvVars("DEPLOYNOTIFY_GITHUB_WEBHOOK_SECRET"),
		},
	}
}

// GitHubEvent holds the event a GitHub Actions step runs for
type GitHubEvent struct {
	Name  string
	Path  string
	Actor string
}

// Flags returns CLI flags for the GitHub Actions event context
func (c *GitHubEvent) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "github-event-name",
			Usage:       "Name of the event that triggered the workflow",
			Destination: &c.Name,
			Sources:     cli.EnvVars("GITHUB_EVENT_NAME"),
		},
		&cli.StringFlag{
			Name:        "github-event-path",
			Usage:       "Path of the file with the complete webhook event payload",
			Destination: &c.Path,
			Sources:     cli.EnvVars("GITHUB_EVENT_PATH"),
		},
		&cli.StringFlag{
			Name:        "github-actor",
			Usage:       "Name of the person or app that initiated the workflow",
			Destination: &c.Actor,
			Sources:     cli.EnvVars("GITHUB_ACTOR"),
		},
	}
}

// ReadPayload reads the event payload file. A payload is required for
// deployment_status events and whenever the payload decides validation.
func (c *GitHubEvent) ReadPayload(mode model.ValidationMode) ([]byte, error) {
	if c.Path == "" {
		if c.Name == types.EventDeploymentStatus || mode == model.ValidationModePayload {
			return nil, goerr.Wrap(types.ErrInvalidConfig, "github-event-path is not set",
				goerr.V("event_name", c.Name),
				goerr.V("validation_mode", mode),
			)
		}
		return nil, nil
	}

	data, err := os.ReadFile(c.Path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read event payload", goerr.V("path", c.Path))
	}
	return data, nil
}

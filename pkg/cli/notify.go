package cli

import (
	"context"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/deploynotify/pkg/cli/config"
	githubcontroller "github.com/m-mizutani/deploynotify/pkg/controller/github"
	slackinfra "github.com/m-mizutani/deploynotify/pkg/infra/slack"
	"github.com/m-mizutani/deploynotify/pkg/usecase"
	"github.com/urfave/cli/v3"
)

func cmdNotify() *cli.Command {
	var (
		slackCfg config.Slack
		eventCfg config.GitHubEvent
	)

	return &cli.Command{
		Name:    "notify",
		Aliases: []string{"n"},
		Usage:   "Send a Slack message for the deployment_status event of the current workflow",
		Flags:   append(slackCfg.Flags(), eventCfg.Flags()...),
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := ctxlog.From(ctx)

			notifyCfg, err := slackCfg.NotifyConfig()
			if err != nil {
				return err
			}

			payload, err := eventCfg.ReadPayload(notifyCfg.ValidationMode)
			if err != nil {
				return err
			}

			logger.Debug("Loaded event context",
				"event_name", eventCfg.Name,
				"event_path", eventCfg.Path,
				"actor", eventCfg.Actor,
				"config", notifyCfg,
			)

			sender := slackinfra.New(slackinfra.WithTimeout(slackCfg.Timeout))
			processor := githubcontroller.NewEventProcessor(usecase.NewNotify(sender, notifyCfg))

			notification, err := processor.ProcessEvent(ctx, eventCfg.Name, eventCfg.Actor, payload)
			if err != nil {
				return err
			}

			if notification.Skipped {
				logger.Info("OK! Notification skipped", "reason", notification.SkipReason)
				return nil
			}

			logger.Info("OK!", "sha", notification.ShaShort, "state", notification.StatusText)
			return nil
		},
	}
}

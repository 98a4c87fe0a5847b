package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/deploynotify/pkg/cli/config"
	githubcontroller "github.com/m-mizutani/deploynotify/pkg/controller/github"
	controller "github.com/m-mizutani/deploynotify/pkg/controller/http"
	"github.com/m-mizutani/deploynotify/pkg/domain/types"
	slackinfra "github.com/m-mizutani/deploynotify/pkg/infra/slack"
	"github.com/m-mizutani/deploynotify/pkg/usecase"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

func cmdServe() *cli.Command {
	var (
		serverCfg config.Server
		githubCfg config.GitHub
		slackCfg  config.Slack
	)

	flags := append(serverCfg.Flags(), githubCfg.Flags()...)
	flags = append(flags, slackCfg.Flags()...)

	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Receive GitHub deployment_status webhooks and forward them to Slack",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := ctxlog.From(ctx)

			notifyCfg, err := slackCfg.NotifyConfig()
			if err != nil {
				return err
			}

			// Fail at startup instead of on every delivery
			if notifyCfg.WebhookURL == "" {
				return goerr.Wrap(types.ErrMissingWebhookURL, "slack-incoming-webhook-url is required for serve")
			}
			if githubCfg.WebhookSecret == "" {
				logger.Warn("GitHub webhook secret is not set, signatures are not verified")
			}

			logger.Info("Starting deploynotify server",
				slog.String("addr", serverCfg.Addr),
				slog.Bool("async", serverCfg.Async),
				slog.Any("config", notifyCfg),
			)

			sender := slackinfra.New(slackinfra.WithTimeout(slackCfg.Timeout))
			processor := githubcontroller.NewEventProcessor(
				usecase.NewNotify(sender, notifyCfg),
				githubcontroller.WithAsyncDelivery(serverCfg.Async),
			)

			server, err := controller.NewServer(
				ctx,
				processor,
				controller.WithAddr(serverCfg.Addr),
				controller.WithWebhookPath(serverCfg.WebhookPath),
				controller.WithWebhookSecret(githubCfg.WebhookSecret),
			)
			if err != nil {
				return goerr.Wrap(err, "failed to create HTTP server")
			}

			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			return server.Run(ctx)
		},
	}
}

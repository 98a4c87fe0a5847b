package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/m-mizutani/deploynotify/pkg/cli/config"
	githubcontroller "github.com/m-mizutani/deploynotify/pkg/controller/github"
	"github.com/m-mizutani/deploynotify/pkg/domain/model"
	"github.com/m-mizutani/deploynotify/pkg/usecase"
	"github.com/m-mizutani/goerr/v2"
	"github.com/slack-go/slack"
	"github.com/urfave/cli/v3"
)

func cmdRender() *cli.Command {
	var (
		slackCfg config.Slack
		eventCfg config.GitHubEvent
	)

	return &cli.Command{
		Name:  "render",
		Usage: "Print the Slack message for an event without sending it",
		Flags: append(slackCfg.Flags(), eventCfg.Flags()...),
		Action: func(ctx context.Context, c *cli.Command) error {
			notifyCfg, err := slackCfg.NotifyConfig()
			if err != nil {
				return err
			}

			payload, err := eventCfg.ReadPayload(notifyCfg.ValidationMode)
			if err != nil {
				return err
			}

			event, err := githubcontroller.DecodeEvent(eventCfg.Name, eventCfg.Actor, payload)
			if err != nil {
				return err
			}

			notification, err := usecase.BuildNotification(event, &notifyCfg)
			if err != nil {
				return err
			}

			return printNotification(c.Root().Writer, notification)
		},
	}
}

func printNotification(w io.Writer, n *model.Notification) error {
	header := color.New(color.FgCyan, color.Bold)

	if n.Skipped {
		_, _ = color.New(color.FgYellow).Fprintf(w, "skipped: %s\n", n.SkipReason)
		return nil
	}

	style := color.New(color.FgGreen)
	if n.ButtonStyle == slack.StyleDanger {
		style = color.New(color.FgRed)
	}

	_, _ = header.Fprint(w, "status: ")
	_, _ = style.Fprintln(w, n.StatusText)
	_, _ = header.Fprint(w, "commit: ")
	_, _ = fmt.Fprintln(w, n.ShaShort)

	raw, err := json.MarshalIndent(n.Message, "", "  ")
	if err != nil {
		return goerr.Wrap(err, "failed to marshal Slack message")
	}
	_, _ = fmt.Fprintln(w, string(raw))
	return nil
}

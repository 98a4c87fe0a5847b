package usecase

import (
	"context"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/deploynotify/pkg/domain/interfaces"
	"github.com/m-mizutani/deploynotify/pkg/domain/model"
	"github.com/m-mizutani/goerr/v2"
)

type notifyUseCase struct {
	sender interfaces.SlackSender
	cfg    model.NotifyConfig
}

// NewNotify creates a new instance of NotifyUseCase
func NewNotify(sender interfaces.SlackSender, cfg model.NotifyConfig) interfaces.NotifyUseCase {
	return &notifyUseCase{
		sender: sender,
		cfg:    cfg,
	}
}

// Build validates the event and constructs the message
func (uc *notifyUseCase) Build(ctx context.Context, event *model.DeploymentEvent) (*model.Notification, error) {
	logger := ctxlog.From(ctx)

	notification, err := BuildNotification(event, &uc.cfg)
	if err != nil {
		return nil, err
	}

	if notification.Skipped {
		logger.Info("Deployment status filtered out, no message is sent",
			"state", event.DeploymentStatus.State,
			"reason", notification.SkipReason,
		)
		return notification, nil
	}

	logger.Debug("Built Slack message",
		"repository", event.Repository.FullName,
		"sha", notification.ShaShort,
		"state", notification.StatusText,
		"button_style", notification.ButtonStyle,
	)

	return notification, nil
}

// Deliver posts a built notification to the configured webhook
func (uc *notifyUseCase) Deliver(ctx context.Context, notification *model.Notification) error {
	if notification == nil || notification.Skipped {
		return nil
	}

	if err := uc.sender.Send(ctx, uc.cfg.WebhookURL, notification.Message); err != nil {
		return goerr.Wrap(err, "failed to send deployment status notification",
			goerr.V("sha", notification.ShaShort),
			goerr.V("state", notification.StatusText),
		)
	}

	ctxlog.From(ctx).Info("Sent deployment status notification",
		"sha", notification.ShaShort,
		"state", notification.StatusText,
	)
	return nil
}

// Notify builds and delivers a notification for the event
func (uc *notifyUseCase) Notify(ctx context.Context, event *model.DeploymentEvent) (*model.Notification, error) {
	notification, err := uc.Build(ctx, event)
	if err != nil {
		return nil, err
	}

	if err := uc.Deliver(ctx, notification); err != nil {
		return nil, err
	}

	return notification, nil
}

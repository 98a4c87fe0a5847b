package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/m-mizutani/deploynotify/pkg/domain/model"
	"github.com/m-mizutani/deploynotify/pkg/domain/types"
	"github.com/m-mizutani/deploynotify/pkg/usecase"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
	"github.com/slack-go/slack"
)

// MockSlackSender is a mock implementation of SlackSender
type MockSlackSender struct {
	sendFunc  func(ctx context.Context, webhookURL string, msg *slack.WebhookMessage) error
	sendCalls []MockSendCall
}

type MockSendCall struct {
	WebhookURL string
	Message    *slack.WebhookMessage
}

func (m *MockSlackSender) Send(ctx context.Context, webhookURL string, msg *slack.WebhookMessage) error {
	m.sendCalls = append(m.sendCalls, MockSendCall{WebhookURL: webhookURL, Message: msg})
	if m.sendFunc != nil {
		return m.sendFunc(ctx, webhookURL, msg)
	}
	return nil
}

func TestNotifyUseCase_Notify(t *testing.T) {
	ctx := context.Background()

	t.Run("sends built message", func(t *testing.T) {
		sender := &MockSlackSender{}
		uc := usecase.NewNotify(sender, *newTestConfig())

		n, err := uc.Notify(ctx, newTestEvent())
		gt.NoError(t, err)
		gt.False(t, n.Skipped)

		gt.Number(t, len(sender.sendCalls)).Equal(1)
		gt.Value(t, sender.sendCalls[0].WebhookURL).Equal("https://hooks.example/abc")
		gt.Value(t, sender.sendCalls[0].Message).Equal(n.Message)
	})

	t.Run("wrong event type never calls sender", func(t *testing.T) {
		sender := &MockSlackSender{}
		uc := usecase.NewNotify(sender, *newTestConfig())

		event := newTestEvent()
		event.EventName = "push"

		_, err := uc.Notify(ctx, event)
		gt.Error(t, err).Is(types.ErrWrongEventType)
		gt.Number(t, len(sender.sendCalls)).Equal(0)
	})

	t.Run("missing webhook url never calls sender", func(t *testing.T) {
		sender := &MockSlackSender{}
		uc := usecase.NewNotify(sender, model.NotifyConfig{})

		_, err := uc.Notify(ctx, newTestEvent())
		gt.Error(t, err).Is(types.ErrMissingWebhookURL)
		gt.Number(t, len(sender.sendCalls)).Equal(0)
	})

	t.Run("filtered state never calls sender", func(t *testing.T) {
		sender := &MockSlackSender{}
		cfg := *newTestConfig()
		cfg.AllowedStates = model.ParseStates("success,error")
		uc := usecase.NewNotify(sender, cfg)

		event := newTestEvent()
		event.DeploymentStatus.State = "pending"

		n, err := uc.Notify(ctx, event)
		gt.NoError(t, err)
		gt.True(t, n.Skipped)
		gt.Number(t, len(sender.sendCalls)).Equal(0)
	})

	t.Run("transport failure is propagated", func(t *testing.T) {
		sender := &MockSlackSender{
			sendFunc: func(ctx context.Context, webhookURL string, msg *slack.WebhookMessage) error {
				return goerr.Wrap(types.ErrTransportFailure, "unexpected status code", goerr.V("status_code", 500))
			},
		}
		uc := usecase.NewNotify(sender, *newTestConfig())

		_, err := uc.Notify(ctx, newTestEvent())
		gt.Error(t, err).Is(types.ErrTransportFailure)
		gt.Number(t, len(sender.sendCalls)).Equal(1)
	})

	t.Run("plain sender error is propagated", func(t *testing.T) {
		sender := &MockSlackSender{
			sendFunc: func(ctx context.Context, webhookURL string, msg *slack.WebhookMessage) error {
				return errors.New("connection refused")
			},
		}
		uc := usecase.NewNotify(sender, *newTestConfig())

		_, err := uc.Notify(ctx, newTestEvent())
		gt.Error(t, err)
		gt.String(t, err.Error()).Contains("connection refused")
	})
}

func TestNotifyUseCase_BuildThenDeliver(t *testing.T) {
	ctx := context.Background()
	sender := &MockSlackSender{}
	uc := usecase.NewNotify(sender, *newTestConfig())

	n, err := uc.Build(ctx, newTestEvent())
	gt.NoError(t, err)
	gt.Number(t, len(sender.sendCalls)).Equal(0)

	gt.NoError(t, uc.Deliver(ctx, n))
	gt.Number(t, len(sender.sendCalls)).Equal(1)

	gt.NoError(t, uc.Deliver(ctx, model.NewSkippedNotification("filtered")))
	gt.NoError(t, uc.Deliver(ctx, nil))
	gt.Number(t, len(sender.sendCalls)).Equal(1)
}

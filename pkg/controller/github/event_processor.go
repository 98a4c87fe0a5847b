package github

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/go-github/v75/github"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/deploynotify/pkg/domain/interfaces"
	"github.com/m-mizutani/deploynotify/pkg/domain/model"
	"github.com/m-mizutani/deploynotify/pkg/domain/types"
	"github.com/m-mizutani/deploynotify/pkg/utils/async"
	"github.com/m-mizutani/goerr/v2"
)

// EventProcessor turns GitHub event payloads into deployment status notifications
type EventProcessor struct {
	notifyUC      interfaces.NotifyUseCase
	asyncDelivery bool
}

// Option is a functional option for EventProcessor
type Option func(*EventProcessor)

// WithAsyncDelivery makes ProcessEvent return once the message is built and
// deliver it in the background
func WithAsyncDelivery(enabled bool) Option {
	return func(p *EventProcessor) {
		p.asyncDelivery = enabled
	}
}

// NewEventProcessor creates a new GitHub event processor
func NewEventProcessor(notifyUC interfaces.NotifyUseCase, opts ...Option) *EventProcessor {
	p := &EventProcessor{
		notifyUC: notifyUC,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// AsyncDelivery reports whether delivery happens in the background
func (p *EventProcessor) AsyncDelivery() bool {
	return p.asyncDelivery
}

// ProcessEvent decodes a GitHub event payload and notifies Slack about it
func (p *EventProcessor) ProcessEvent(ctx context.Context, eventName, actor string, payload []byte) (*model.Notification, error) {
	logger := ctxlog.From(ctx)

	event, err := DecodeEvent(eventName, actor, payload)
	if err != nil {
		return nil, err
	}

	logger.Debug("Decoded GitHub event",
		"event_name", event.EventName,
		"actor", event.Actor,
		"repository", event.Repository.FullName,
		"state", event.DeploymentStatus.State,
	)

	if !p.asyncDelivery {
		return p.notifyUC.Notify(ctx, event)
	}

	notification, err := p.notifyUC.Build(ctx, event)
	if err != nil {
		return nil, err
	}
	if notification.Skipped {
		return notification, nil
	}

	async.Dispatch(ctx, func(ctx context.Context) error {
		return p.notifyUC.Deliver(ctx, notification)
	})

	return notification, nil
}

// DecodeEvent converts a raw GitHub event payload into a DeploymentEvent.
// The payload is read as a deployment_status payload whatever the event name
// is, so that the configured validation mode decides whether the event is
// accepted. A payload that does not parse is malformed for deployment_status
// and ignored for other events, which validation then rejects on their name.
func DecodeEvent(eventName, actor string, payload []byte) (*model.DeploymentEvent, error) {
	event := &model.DeploymentEvent{
		EventName: eventName,
		Actor:     actor,
	}

	if len(payload) == 0 {
		return event, nil
	}

	ds, err := parseDeploymentStatus(payload)
	if err != nil {
		if eventName != types.EventDeploymentStatus {
			return event, nil
		}
		return nil, err
	}

	if event.Actor == "" {
		event.Actor = ds.GetSender().GetLogin()
	}

	if d := ds.GetDeployment(); d != nil {
		event.Deployment = model.Deployment{
			SHA:           d.GetSHA(),
			PayloadWebURL: payloadWebURL(d.Payload),
			Environment:   d.GetEnvironment(),
		}
	}

	if s := ds.GetDeploymentStatus(); s != nil {
		event.DeploymentStatus = model.DeploymentStatus{
			State:          s.GetState(),
			TargetURL:      s.GetTargetURL(),
			EnvironmentURL: s.GetEnvironmentURL(),
			CreatedAt:      rawCreatedAt(payload),
		}
		if createdAt := s.GetCreatedAt(); event.DeploymentStatus.CreatedAt == "" && !createdAt.IsZero() {
			event.DeploymentStatus.CreatedAt = createdAt.UTC().Format(time.RFC3339)
		}
	}

	if r := ds.GetRepo(); r != nil {
		event.Repository = model.Repository{
			HTMLURL:  r.GetHTMLURL(),
			FullName: r.GetFullName(),
		}
	}

	return event, nil
}

func parseDeploymentStatus(payload []byte) (*github.DeploymentStatusEvent, error) {
	parsed, err := github.ParseWebHook(types.EventDeploymentStatus, payload)
	if err != nil {
		return nil, goerr.Wrap(types.ErrMalformedField, "failed to parse deployment_status payload",
			goerr.V("cause", err.Error()),
		)
	}

	ds, ok := parsed.(*github.DeploymentStatusEvent)
	if !ok {
		return nil, goerr.Wrap(types.ErrMalformedField, "unexpected payload type for deployment_status")
	}
	return ds, nil
}

// rawCreatedAt returns deployment_status.created_at exactly as sent.
// go-github normalizes timestamps, which drops fractional seconds and the
// original zone offset.
func rawCreatedAt(payload []byte) string {
	var p struct {
		DeploymentStatus struct {
			CreatedAt json.RawMessage `json:"created_at"`
		} `json:"deployment_status"`
	}
	if err := json.Unmarshal(payload, &p); err != nil {
		return ""
	}

	var createdAt string
	if err := json.Unmarshal(p.DeploymentStatus.CreatedAt, &createdAt); err != nil {
		return ""
	}
	return createdAt
}

// payloadWebURL extracts web_url from the free-form deployment payload.
// Payloads that are not JSON objects carry no URL.
func payloadWebURL(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	var p struct {
		WebURL string `json:"web_url"`
	}
	if err := json.Unmarshal(raw, &p); err != nil {
		return ""
	}
	return p.WebURL
}

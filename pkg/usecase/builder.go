package usecase

import (
	"fmt"
	"strings"
	"time"

	"github.com/m-mizutani/deploynotify/pkg/domain/model"
	"github.com/m-mizutani/deploynotify/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
	"github.com/slack-go/slack"
)

const (
	shaShortLength   = 8
	buildLogLabel    = "View build log"
	unknownActor     = "unknown"
	commitLinkFormat = "<%s/commit/%s|%s>"
	// Slack date formatting requires whole seconds since epoch
	dateFormat = "<!date^%d^{date_long_pretty} {time_secs}|%s>"
)

// BuildNotification validates event against cfg and builds the Slack message.
// It does not mutate its arguments and has no dependency on the current time.
// A filtered-out state yields a skipped Notification and a nil error.
func BuildNotification(event *model.DeploymentEvent, cfg *model.NotifyConfig) (*model.Notification, error) {
	if event == nil {
		return nil, goerr.Wrap(types.ErrMalformedField, "event is nil")
	}
	if cfg == nil {
		return nil, goerr.Wrap(types.ErrMissingWebhookURL, "config is nil")
	}

	if err := validateEvent(event, cfg.ValidationMode); err != nil {
		return nil, err
	}

	if cfg.WebhookURL == "" {
		return nil, goerr.Wrap(types.ErrMissingWebhookURL, "slack-incoming-webhook-url is not set")
	}

	state := event.DeploymentStatus.State
	if state == "" {
		return nil, malformed("deployment_status.state")
	}

	if !cfg.AllowedStates.Allows(state) {
		return model.NewSkippedNotification(fmt.Sprintf("state %q is not in the allowed states", state)), nil
	}

	sha := event.Deployment.SHA
	if sha == "" {
		return nil, malformed("deployment.sha")
	}
	shaShort := sha[:min(shaShortLength, len(sha))]

	createdAt, err := time.Parse(time.RFC3339, event.DeploymentStatus.CreatedAt)
	if err != nil {
		return nil, goerr.Wrap(types.ErrMalformedField, "failed to parse deployment_status.created_at",
			goerr.V("field", "deployment_status.created_at"),
			goerr.V("value", event.DeploymentStatus.CreatedAt),
			goerr.V("cause", err.Error()),
		)
	}
	createdAtUnix := createdAt.Unix()

	if event.Repository.HTMLURL == "" {
		return nil, malformed("repository.html_url")
	}
	if event.DeploymentStatus.TargetURL == "" {
		return nil, malformed("deployment_status.target_url")
	}

	dest, err := deploymentTarget(event)
	if err != nil {
		return nil, err
	}

	style := ButtonStyle(state)
	statusText := strings.ToUpper(state)

	msg := &slack.WebhookMessage{
		Blocks: &slack.Blocks{
			BlockSet: []slack.Block{
				targetBlock(dest),
				statusBlock(event, statusText, style),
				footerBlock(event, shaShort, createdAtUnix),
			},
		},
	}

	return &model.Notification{
		Message:       msg,
		ShaShort:      shaShort,
		ButtonStyle:   style,
		StatusText:    statusText,
		CreatedAtUnix: createdAtUnix,
	}, nil
}

// ButtonStyle maps a deployment state to the style of the build log button.
// States are matched exactly as GitHub sends them.
func ButtonStyle(state string) slack.Style {
	switch state {
	case "success", "pending":
		return slack.StylePrimary
	default:
		return slack.StyleDanger
	}
}

func validateEvent(event *model.DeploymentEvent, mode model.ValidationMode) error {
	switch mode {
	case model.ValidationModePayload:
		if !event.HasDeploymentPayload() {
			return goerr.Wrap(types.ErrMalformedField, "event has no deployment or deployment status payload",
				goerr.V("event_name", event.EventName),
			)
		}
	default:
		if event.EventName != types.EventDeploymentStatus {
			return goerr.Wrap(types.ErrWrongEventType, "unexpected event type",
				goerr.V("event_name", event.EventName),
			)
		}
	}
	return nil
}

type target struct {
	text string
	url  string
}

func deploymentTarget(event *model.DeploymentEvent) (*target, error) {
	switch {
	case event.Deployment.PayloadWebURL != "":
		return &target{url: event.Deployment.PayloadWebURL}, nil
	case event.DeploymentStatus.EnvironmentURL != "":
		return &target{url: event.DeploymentStatus.EnvironmentURL}, nil
	case event.Deployment.Environment != "":
		return &target{text: event.Deployment.Environment}, nil
	default:
		return nil, malformed("deployment.payload.web_url")
	}
}

func targetBlock(t *target) *slack.SectionBlock {
	text := "Deployment to *" + t.text + "*"
	if t.url != "" {
		text = "Deployment of *<" + t.url + ">*"
	}
	return slack.NewSectionBlock(slack.NewTextBlockObject(slack.MarkdownType, text, false, false), nil, nil)
}

func statusBlock(event *model.DeploymentEvent, statusText string, style slack.Style) *slack.SectionBlock {
	name := event.Repository.FullName
	if name == "" {
		name = event.Repository.HTMLURL
	}
	text := fmt.Sprintf("*Repository*: <%s|%s>\n*Status:* %s", event.Repository.HTMLURL, name, statusText)

	button := slack.NewButtonBlockElement("", "", slack.NewTextBlockObject(slack.PlainTextType, buildLogLabel, true, false))
	button.Style = style
	button.URL = event.DeploymentStatus.TargetURL

	return slack.NewSectionBlock(
		slack.NewTextBlockObject(slack.MarkdownType, text, false, false),
		nil,
		slack.NewAccessory(button),
	)
}

func footerBlock(event *model.DeploymentEvent, shaShort string, createdAtUnix int64) *slack.ContextBlock {
	actor := event.Actor
	if actor == "" {
		actor = unknownActor
	}

	commit := fmt.Sprintf(commitLinkFormat, event.Repository.HTMLURL, event.Deployment.SHA, shaShort)
	date := fmt.Sprintf(dateFormat, createdAtUnix, event.DeploymentStatus.CreatedAt)
	text := fmt.Sprintf("commit: %s, actor: %s | %s", commit, actor, date)

	return slack.NewContextBlock("", slack.NewTextBlockObject(slack.MarkdownType, text, false, false))
}

func malformed(field string) error {
	return goerr.Wrap(types.ErrMalformedField, "required field is missing", goerr.V("field", field))
}

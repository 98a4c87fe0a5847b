package github_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/m-mizutani/gt"

	githubcontroller "github.com/m-mizutani/deploynotify/pkg/controller/github"
	"github.com/m-mizutani/deploynotify/pkg/domain/model"
	"github.com/m-mizutani/deploynotify/pkg/domain/types"
)

const deploymentStatusPayload = `{
  "action": "created",
  "deployment_status": {
    "state": "success",
    "target_url": "https://ci.example/log/1",
    "environment_url": "https://staging.example",
    "created_at": "2021-01-01T00:00:00Z"
  },
  "deployment": {
    "sha": "abcdef1234567890",
    "environment": "production",
    "payload": {"web_url": "https://app.example/x"}
  },
  "repository": {
    "full_name": "org/repo",
    "html_url": "https://git.example/org/repo"
  },
  "sender": {"login": "octocat"}
}`

// MockNotifyUseCase is a mock implementation of NotifyUseCase
type MockNotifyUseCase struct {
	mu           sync.Mutex
	buildFunc    func(ctx context.Context, event *model.DeploymentEvent) (*model.Notification, error)
	deliverFunc  func(ctx context.Context, n *model.Notification) error
	builtEvents  []*model.DeploymentEvent
	deliverCalls int
	delivered    chan struct{}
}

func (m *MockNotifyUseCase) Build(ctx context.Context, event *model.DeploymentEvent) (*model.Notification, error) {
	m.mu.Lock()
	m.builtEvents = append(m.builtEvents, event)
	m.mu.Unlock()
	if m.buildFunc != nil {
		return m.buildFunc(ctx, event)
	}
	return &model.Notification{ShaShort: "abcdef12"}, nil
}

func (m *MockNotifyUseCase) Deliver(ctx context.Context, n *model.Notification) error {
	m.mu.Lock()
	m.deliverCalls++
	m.mu.Unlock()
	if m.delivered != nil {
		defer func() { m.delivered <- struct{}{} }()
	}
	if m.deliverFunc != nil {
		return m.deliverFunc(ctx, n)
	}
	return nil
}

func (m *MockNotifyUseCase) Notify(ctx context.Context, event *model.DeploymentEvent) (*model.Notification, error) {
	n, err := m.Build(ctx, event)
	if err != nil {
		return nil, err
	}
	if n.Skipped {
		return n, nil
	}
	return n, m.Deliver(ctx, n)
}

func TestDecodeEvent_DeploymentStatus(t *testing.T) {
	event, err := githubcontroller.DecodeEvent("deployment_status", "alice", []byte(deploymentStatusPayload))
	gt.NoError(t, err)

	gt.Value(t, event.EventName).Equal("deployment_status")
	gt.Value(t, event.Actor).Equal("alice")
	gt.Value(t, event.Deployment.SHA).Equal("abcdef1234567890")
	gt.Value(t, event.Deployment.PayloadWebURL).Equal("https://app.example/x")
	gt.Value(t, event.Deployment.Environment).Equal("production")
	gt.Value(t, event.DeploymentStatus.State).Equal("success")
	gt.Value(t, event.DeploymentStatus.TargetURL).Equal("https://ci.example/log/1")
	gt.Value(t, event.DeploymentStatus.EnvironmentURL).Equal("https://staging.example")
	gt.Value(t, event.DeploymentStatus.CreatedAt).Equal("2021-01-01T00:00:00Z")
	gt.Value(t, event.Repository.HTMLURL).Equal("https://git.example/org/repo")
	gt.Value(t, event.Repository.FullName).Equal("org/repo")
}

func TestDecodeEvent_ActorFallsBackToSender(t *testing.T) {
	event, err := githubcontroller.DecodeEvent("deployment_status", "", []byte(deploymentStatusPayload))
	gt.NoError(t, err)
	gt.Value(t, event.Actor).Equal("octocat")
}

func TestDecodeEvent_NonObjectDeploymentPayload(t *testing.T) {
	payload := `{"deployment":{"sha":"abc","payload":"not-an-object"},"deployment_status":{"state":"failure"}}`
	event, err := githubcontroller.DecodeEvent("deployment_status", "alice", []byte(payload))
	gt.NoError(t, err)
	gt.Value(t, event.Deployment.PayloadWebURL).Equal("")
	gt.Value(t, event.DeploymentStatus.CreatedAt).Equal("")
}

func TestDecodeEvent_OtherEvent(t *testing.T) {
	event, err := githubcontroller.DecodeEvent("push", "alice", []byte(`{"ref":"refs/heads/main"}`))
	gt.NoError(t, err)
	gt.Value(t, event.EventName).Equal("push")
	gt.Value(t, event.Deployment.SHA).Equal("")
}

func TestDecodeEvent_OtherEventWithDeploymentPayload(t *testing.T) {
	event, err := githubcontroller.DecodeEvent("workflow_dispatch", "alice", []byte(deploymentStatusPayload))
	gt.NoError(t, err)
	gt.Value(t, event.EventName).Equal("workflow_dispatch")
	gt.Value(t, event.Deployment.SHA).Equal("abcdef1234567890")
	gt.Value(t, event.DeploymentStatus.State).Equal("success")
	gt.Value(t, event.Repository.FullName).Equal("org/repo")
	gt.True(t, event.HasDeploymentPayload())
}

func TestDecodeEvent_OtherEventInvalidJSON(t *testing.T) {
	event, err := githubcontroller.DecodeEvent("push", "alice", []byte(`{invalid`))
	gt.NoError(t, err)
	gt.Value(t, event.EventName).Equal("push")
	gt.False(t, event.HasDeploymentPayload())
}

func TestDecodeEvent_KeepsOriginalCreatedAt(t *testing.T) {
	tests := []string{
		"2021-01-01T00:00:00.789Z",
		"2021-01-01T09:00:00+09:00",
	}

	for _, createdAt := range tests {
		t.Run(createdAt, func(t *testing.T) {
			payload := `{"deployment":{"sha":"abc"},"deployment_status":{"state":"success","created_at":"` + createdAt + `"}}`
			event, err := githubcontroller.DecodeEvent("deployment_status", "alice", []byte(payload))
			gt.NoError(t, err)
			gt.Value(t, event.DeploymentStatus.CreatedAt).Equal(createdAt)
		})
	}
}

func TestDecodeEvent_NumericCreatedAt(t *testing.T) {
	payload := `{"deployment":{"sha":"abc"},"deployment_status":{"state":"success","created_at":1609459200}}`
	event, err := githubcontroller.DecodeEvent("deployment_status", "alice", []byte(payload))
	gt.NoError(t, err)
	gt.Value(t, event.DeploymentStatus.CreatedAt).Equal("2021-01-01T00:00:00Z")
}

func TestDecodeEvent_InvalidJSON(t *testing.T) {
	_, err := githubcontroller.DecodeEvent("deployment_status", "alice", []byte(`{invalid`))
	gt.Error(t, err).Is(types.ErrMalformedField)
}

func TestEventProcessor_ProcessEvent(t *testing.T) {
	ctx := context.Background()
	mockUC := &MockNotifyUseCase{}
	processor := githubcontroller.NewEventProcessor(mockUC)
	gt.False(t, processor.AsyncDelivery())

	n, err := processor.ProcessEvent(ctx, "deployment_status", "alice", []byte(deploymentStatusPayload))
	gt.NoError(t, err)
	gt.Value(t, n.ShaShort).Equal("abcdef12")

	gt.Number(t, len(mockUC.builtEvents)).Equal(1)
	gt.Value(t, mockUC.builtEvents[0].Repository.FullName).Equal("org/repo")
	gt.Number(t, mockUC.deliverCalls).Equal(1)
}

func TestEventProcessor_ProcessEvent_Error(t *testing.T) {
	ctx := context.Background()
	mockUC := &MockNotifyUseCase{
		deliverFunc: func(ctx context.Context, n *model.Notification) error {
			return errors.New("delivery failed")
		},
	}
	processor := githubcontroller.NewEventProcessor(mockUC)

	_, err := processor.ProcessEvent(ctx, "deployment_status", "alice", []byte(deploymentStatusPayload))
	gt.Error(t, err)
	gt.String(t, err.Error()).Contains("delivery failed")
}

func TestEventProcessor_ProcessEvent_Async(t *testing.T) {
	ctx := context.Background()
	mockUC := &MockNotifyUseCase{delivered: make(chan struct{}, 1)}
	processor := githubcontroller.NewEventProcessor(mockUC, githubcontroller.WithAsyncDelivery(true))
	gt.True(t, processor.AsyncDelivery())

	_, err := processor.ProcessEvent(ctx, "deployment_status", "alice", []byte(deploymentStatusPayload))
	gt.NoError(t, err)

	select {
	case <-mockUC.delivered:
	case <-time.After(time.Second):
		t.Fatal("notification was not delivered within timeout")
	}
}

func TestEventProcessor_ProcessEvent_AsyncSkipped(t *testing.T) {
	ctx := context.Background()
	mockUC := &MockNotifyUseCase{
		buildFunc: func(ctx context.Context, event *model.DeploymentEvent) (*model.Notification, error) {
			return model.NewSkippedNotification("filtered"), nil
		},
	}
	processor := githubcontroller.NewEventProcessor(mockUC, githubcontroller.WithAsyncDelivery(true))

	n, err := processor.ProcessEvent(ctx, "deployment_status", "alice", []byte(deploymentStatusPayload))
	gt.NoError(t, err)
	gt.True(t, n.Skipped)
	gt.Number(t, mockUC.deliverCalls).Equal(0)
}

func TestEventProcessor_ProcessEvent_BuildError(t *testing.T) {
	ctx := context.Background()
	mockUC := &MockNotifyUseCase{
		buildFunc: func(ctx context.Context, event *model.DeploymentEvent) (*model.Notification, error) {
			return nil, types.ErrWrongEventType
		},
	}
	processor := githubcontroller.NewEventProcessor(mockUC, githubcontroller.WithAsyncDelivery(true))

	_, err := processor.ProcessEvent(ctx, "push", "alice", []byte(`{}`))
	gt.Error(t, err).Is(types.ErrWrongEventType)
	gt.Number(t, mockUC.deliverCalls).Equal(0)
}

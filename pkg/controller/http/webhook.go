package http

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/google/uuid"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/deploynotify/pkg/domain/interfaces"
	"github.com/m-mizutani/deploynotify/pkg/domain/model"
	"github.com/m-mizutani/deploynotify/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
)

// maxPayloadSize is the largest body GitHub sends for a webhook delivery
const maxPayloadSize = 25 << 20

// WebhookHandler handles GitHub webhooks
type WebhookHandler struct {
	secret    string
	processor interfaces.EventProcessor
}

// NewWebhookHandler creates a new WebhookHandler
func NewWebhookHandler(secret string, processor interfaces.EventProcessor) *WebhookHandler {
	return &WebhookHandler{
		secret:    secret,
		processor: processor,
	}
}

// Handle processes webhook requests
func (h *WebhookHandler) Handle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := ctxlog.From(ctx)

	body, err := io.ReadAll(io.LimitReader(r.Body, maxPayloadSize))
	if err != nil {
		logger.Error("Failed to read request body", "error", err)
		writeError(ctx, w, goerr.Wrap(err, "failed to read request body"), http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	if h.secret != "" && !h.verifySignature(body, r.Header.Get("X-Hub-Signature-256")) {
		logger.Warn("Invalid webhook signature")
		writeError(ctx, w, goerr.New("invalid signature"), http.StatusUnauthorized)
		return
	}

	event := &model.WebhookEvent{
		ID:         r.Header.Get("X-GitHub-Delivery"),
		Type:       model.WebhookEventType(r.Header.Get("X-GitHub-Event")),
		ReceivedAt: time.Now(),
		RawPayload: body,
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}

	logger = logger.With("delivery_id", event.ID, "event_type", event.Type)
	ctx = ctxlog.With(ctx, logger)

	if event.Type == model.EventTypePing {
		writeJSON(ctx, w, http.StatusOK, map[string]string{"status": "pong"})
		return
	}

	logger.Info("Received webhook event", "supported", event.IsSupportedEvent())

	notification, err := h.processor.ProcessEvent(ctx, string(event.Type), "", event.RawPayload)
	if err != nil {
		status := statusOf(err)
		if status >= http.StatusInternalServerError {
			logger.Error("Failed to process webhook event", "error", err)
			if hub := sentry.GetHubFromContext(ctx); hub != nil {
				hub.CaptureException(err)
			}
		} else {
			logger.Warn("Rejected webhook event", "error", err)
		}
		writeError(ctx, w, err, status)
		return
	}

	switch {
	case notification.Skipped:
		writeJSON(ctx, w, http.StatusOK, map[string]string{
			"status": "skipped",
			"reason": notification.SkipReason,
		})
	case h.processor.AsyncDelivery():
		writeJSON(ctx, w, http.StatusAccepted, map[string]string{"status": "accepted"})
	default:
		writeJSON(ctx, w, http.StatusOK, map[string]string{"status": "sent"})
	}
}

// statusOf maps a processing error to an HTTP status code
func statusOf(err error) int {
	switch {
	case errors.Is(err, types.ErrWrongEventType), errors.Is(err, types.ErrMalformedField):
		return http.StatusBadRequest
	case errors.Is(err, types.ErrTransportFailure):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// verifySignature verifies the webhook signature
func (h *WebhookHandler) verifySignature(payload []byte, signature string) bool {
	if signature == "" {
		return false
	}

	signature = strings.TrimPrefix(signature, "sha256=")

	mac := hmac.New(sha256.New, []byte(h.secret))
	mac.Write(payload)
	expectedMAC := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(signature), []byte(expectedMAC))
}

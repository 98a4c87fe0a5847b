package async

import (
	"context"
	"fmt"
	"runtime/debug"

	"github.com/getsentry/sentry-go"
	"github.com/m-mizutani/ctxlog"
)

// Dispatch runs handler in a new goroutine.
//
// The handler gets a fresh background context: the request that triggered it
// may finish first, so its cancellation must not abort the delivery. The
// logger and Sentry hub of ctx are carried over. Panics are recovered, and
// both panics and returned errors are logged and reported to Sentry.
func Dispatch(ctx context.Context, handler func(ctx context.Context) error) {
	newCtx := newBackgroundContext(ctx)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				stack := debug.Stack()
				logger := ctxlog.From(newCtx)
				logger.Error("panic in async handler",
					"recover", r,
					"stack", string(stack))
				hubFrom(newCtx).Recover(fmt.Sprintf("%v", r))
			}
		}()

		if err := handler(newCtx); err != nil {
			logger := ctxlog.From(newCtx)
			logger.Error("error in async handler", "error", err)
			hubFrom(newCtx).CaptureException(err)
		}
	}()
}

// newBackgroundContext creates a background context holding the logger and
// a clone of the Sentry hub of ctx
func newBackgroundContext(ctx context.Context) context.Context {
	newCtx := context.Background()
	newCtx = ctxlog.With(newCtx, ctxlog.From(ctx))
	newCtx = sentry.SetHubOnContext(newCtx, hubFrom(ctx).Clone())
	return newCtx
}

func hubFrom(ctx context.Context) *sentry.Hub {
	if hub := sentry.GetHubFromContext(ctx); hub != nil {
		return hub
	}
	return sentry.CurrentHub()
}

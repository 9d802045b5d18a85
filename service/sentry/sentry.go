package sentryutil

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"

	"github.com/bkclothing/bk-site/service/logger"
)

const errorContextName = "error context"

// AdminPasswordHeader carries the admin panel password on admin API requests.
const AdminPasswordHeader = "X-Admin-Password"

const scrubbed = "[Filtered]"

const sentryFlushTimeout = 2 * time.Second

func ReportError(ctx context.Context, err error) {
	hub := SentryHubFromContext(ctx)
	if hub == nil {
		logger.For(ctx).Warnln("could not report error to Sentry because hub is nil")
		return
	}

	// Use a new scope so our error context doesn't persist beyond this error
	hub.WithScope(func(scope *sentry.Scope) {
		scope.SetContext(errorContextName, map[string]interface{}{"type": fmt.Sprintf("%T", err)})
		hub.CaptureException(err)
	})
}

// ScrubEventHeaders removes the admin password from the request attached to an event.
func ScrubEventHeaders(event *sentry.Event, hint *sentry.EventHint) *sentry.Event {
	if event == nil || event.Request == nil || event.Request.Headers == nil {
		return event
	}

	for name := range event.Request.Headers {
		if http.CanonicalHeaderKey(name) == AdminPasswordHeader || strings.EqualFold(name, "Authorization") {
			event.Request.Headers[name] = scrubbed
		}
	}

	return event
}

func UpdateErrorFingerprints(event *sentry.Event, hint *sentry.EventHint) *sentry.Event {
	if event == nil || hint == nil || hint.OriginalException == nil {
		return event
	}

	// This is a hacky way to do this -- we'd rather check the actual type than a string, but
	// the errors.errorString type isn't exported and we'd really like a way to separate those
	// errors on Sentry. It's not very useful to group every error created with errors.New().
	exceptionType := fmt.Sprintf("%T", hint.OriginalException)
	if exceptionType == "*errors.errorString" {
		event.Fingerprint = []string{"{{ default }}", hint.OriginalException.Error()}
	}

	return event
}

func NewSentryHubContext(ctx context.Context, hub *sentry.Hub) context.Context {
	var cpy *sentry.Hub

	if hub != nil {
		cpy = hub.Clone()
	}

	return sentry.SetHubOnContext(ctx, cpy)
}

// SentryHubFromContext gets a Hub from the supplied context, or from the gin context if ctx is one.
func SentryHubFromContext(ctx context.Context) *sentry.Hub {
	if ctx == nil {
		return nil
	}

	// Get a hub via Sentry's standard mechanism if possible
	if hub := sentry.GetHubFromContext(ctx); hub != nil {
		return hub
	}

	if gc, ok := ctx.(*gin.Context); ok {
		if hub := sentrygin.GetHubFromContext(gc); hub != nil {
			return hub
		}
		if gc.Request != nil {
			return sentry.GetHubFromContext(gc.Request.Context())
		}
	}

	return nil
}

// RecoverAndRaise reports a panic to Sentry, flushes, and re-panics. Use it with defer at the top
// of a command.
func RecoverAndRaise(ctx context.Context) {
	if err := recover(); err != nil {
		hub := SentryHubFromContext(ctx)
		if hub == nil {
			hub = sentry.CurrentHub()
		}
		hub.Recover(err)
		sentry.Flush(sentryFlushTimeout)
		panic(err)
	}
}

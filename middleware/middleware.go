package middleware

import (
	"crypto/subtle"
	"fmt"
	"net/http"

	"github.com/getsentry/sentry-go"
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/bkclothing/bk-site/env"
	"github.com/bkclothing/bk-site/service/logger"
	sentryutil "github.com/bkclothing/bk-site/service/sentry"
	"github.com/bkclothing/bk-site/service/tracing"
	"github.com/bkclothing/bk-site/util"
)

// AdminRequired is a middleware that checks the request carries the admin password. An unset
// ADMIN_PASSWORD locks the admin API entirely.
func AdminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !isAdminPassword(c.GetHeader(sentryutil.AdminPasswordHeader), env.GetString("ADMIN_PASSWORD")) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, util.ErrorResponse{Error: "Unauthorized"})
			return
		}

		loggerCtx := logger.NewContextWithFields(c.Request.Context(), logrus.Fields{
			"admin": true,
		})
		c.Request = c.Request.WithContext(loggerCtx)

		c.Next()
	}
}

func isAdminPassword(given, expected string) bool {
	if expected == "" || given == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(given), []byte(expected)) == 1
}

// RateLimited is a middleware that rate limits requests by IP address
func RateLimited(lim *KeyRateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		canContinue, tryAgainAfter, err := lim.ForKey(c, c.ClientIP())
		if err != nil {
			util.ErrResponseMasked(c, http.StatusInternalServerError, err, "Internal server error")
			c.Abort()
			return
		}
		if !canContinue {
			c.Header("Retry-After", fmt.Sprintf("%d", int(tryAgainAfter.Seconds())+1))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, util.ErrorResponse{Error: fmt.Sprintf("Too many requests, try again in %s", tryAgainAfter.Round(1e9))})
			return
		}
		c.Next()
	}
}

// HandleCORS sets the CORS headers
func HandleCORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestOrigin := c.Request.Header.Get("Origin")

		if requestOrigin != "" && IsOriginAllowed(requestOrigin) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", requestOrigin)
			c.Writer.Header().Add("Vary", "Origin")
		}

		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, accept, origin, Cache-Control, X-Requested-With, X-Admin-Password, sentry-trace, baggage")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, PATCH, DELETE")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "Content-Length, Access-Control-Allow-Origin, Access-Control-Allow-Headers, Content-Type, Retry-After")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// ErrLogger is a middleware that logs errors
func ErrLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		if len(c.Errors) > 0 {
			logger.For(c).Errorf("%s %s %s %s %s", c.Request.Method, c.Request.URL, c.ClientIP(), c.Request.Header.Get("User-Agent"), c.Errors.JSON())
		}
	}
}

func Sentry(reportGinErrors bool) gin.HandlerFunc {
	handler := sentrygin.New(sentrygin.Options{Repanic: true})

	return func(c *gin.Context) {
		// Clone a new hub for each request
		hub := sentry.CurrentHub().Clone()

		// BeforeSend isn't called for tracing transactions, so the admin password also has to be
		// scrubbed by an event processor.
		// See: https://develop.sentry.dev/sdk/performance/#interaction-with-beforesend-and-event-processors
		hub.Scope().AddEventProcessor(sentryutil.ScrubEventHeaders)

		// Add the cloned hub to the request context so sentrygin will find it
		c.Request = c.Request.WithContext(sentry.SetHubOnContext(c.Request.Context(), hub))

		// Invoke the sentrygin handler. We don't call c.Next() here because sentrygin does it for us.
		handler(c)

		if reportGinErrors {
			for _, err := range c.Errors {
				sentryutil.ReportError(c.Request.Context(), err)
			}
		}
	}
}

func Tracing() gin.HandlerFunc {
	return func(c *gin.Context) {
		description := fmt.Sprintf("%s %s", c.Request.Method, c.FullPath())
		if c.FullPath() == "" {
			description = fmt.Sprintf("%s %s", c.Request.Method, c.Request.URL.Path)
		}

		span, ctx := tracing.StartSpan(c.Request.Context(), "gin.server", description,
			sentry.TransactionName(description),
			sentry.ContinueFromRequest(c.Request),
		)

		if c.Request.Method == "OPTIONS" {
			// Don't sample OPTIONS requests; there's nothing to trace and they eat up our Sentry quota.
			// Using a sampling decision here (instead of simply omitting the span) ensures that any
			// child spans will also be filtered out.
			span.Sampled = sentry.SampledFalse
		}

		defer tracing.FinishSpan(span)

		c.Request = c.Request.WithContext(ctx)

		c.Next()

		span.Status = spanStatusFor(c.Writer.Status())
	}
}

func spanStatusFor(code int) sentry.SpanStatus {
	switch {
	case code < 400:
		return sentry.SpanStatusOK
	case code == http.StatusUnauthorized:
		return sentry.SpanStatusUnauthenticated
	case code == http.StatusNotFound:
		return sentry.SpanStatusNotFound
	case code == http.StatusTooManyRequests:
		return sentry.SpanStatusResourceExhausted
	case code < 500:
		return sentry.SpanStatusInvalidArgument
	default:
		return sentry.SpanStatusInternalError
	}
}

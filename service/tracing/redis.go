package tracing

// Redis tracing hook, modeled on the go-redis OpenTelemetry hook.

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/go-redis/redis/v8"
)

// NewRedisHook traces redis commands as Sentry spans. Payloads of SET commands are never recorded.
func NewRedisHook(db int, dbName string, continueOnly bool) redis.Hook {
	return redisHook{
		db:           db,
		dbName:       dbName,
		continueOnly: continueOnly,
	}
}

type redisHook struct {
	db           int
	dbName       string
	continueOnly bool
}

var _ redis.Hook = redisHook{}

type spanContextKey struct{}

func (r redisHook) BeforeProcess(ctx context.Context, cmd redis.Cmder) (context.Context, error) {
	if r.continueOnly && !inTransaction(ctx) {
		return ctx, nil
	}

	cmdBytes := make([]byte, 0, 32)
	cmdString := string(appendCmd(cmdBytes, cmd))

	span, ctx := StartSpan(ctx, "redis."+strings.ToLower(cmd.FullName()), r.dbName)

	AddEventDataToSpan(span, map[string]interface{}{
		"Redis Cmd": cmdString,
		"Redis DB":  r.db,
	})

	ctx = context.WithValue(ctx, spanContextKey{}, span)

	return ctx, nil
}

func (redisHook) AfterProcess(ctx context.Context, cmd redis.Cmder) error {
	if span, ok := ctx.Value(spanContextKey{}).(*sentry.Span); ok {
		if err := cmd.Err(); err != nil {
			AddEventDataToSpan(span, map[string]interface{}{
				"Redis Error": err,
			})
		}

		FinishSpan(span)
	}

	return nil
}

func (r redisHook) BeforeProcessPipeline(ctx context.Context, cmds []redis.Cmder) (context.Context, error) {
	if r.continueOnly && !inTransaction(ctx) {
		return ctx, nil
	}

	span, ctx := StartSpan(ctx, "redis.pipeline", r.dbName)

	AddEventDataToSpan(span, map[string]interface{}{
		"Redis Pipeline Num Cmds": len(cmds),
		"Redis DB":                r.db,
	})

	ctx = context.WithValue(ctx, spanContextKey{}, span)

	return ctx, nil
}

func (redisHook) AfterProcessPipeline(ctx context.Context, cmds []redis.Cmder) error {
	if span, ok := ctx.Value(spanContextKey{}).(*sentry.Span); ok {
		FinishSpan(span)
	}

	return nil
}

func appendCmd(b []byte, cmd redis.Cmder) []byte {
	const lengthLimitPerArg = 64
	isSetCmd := cmd.Name() == "set" || cmd.Name() == "setnx"

	for i, arg := range cmd.Args() {
		if i > 0 {
			b = append(b, ' ')
		}

		start := len(b)
		b = appendArg(b, arg)
		argLength := len(b) - start

		// The third element of a set command is the payload string
		if isSetCmd && i == 2 {
			b = append(b[:start], fmt.Sprintf("[scrubbed payload: %d bytes]", argLength)...)
		} else if argLength > lengthLimitPerArg {
			b = append(b[:start+lengthLimitPerArg], "..."...)
		}
	}

	return b
}

var argEscaper = strings.NewReplacer("\n", "\\n", "\r", "\\r")

func appendArg(b []byte, v interface{}) []byte {
	switch v := v.(type) {
	case nil:
		return append(b, "<nil>"...)
	case string:
		return append(b, argEscaper.Replace(v)...)
	case []byte:
		return append(b, argEscaper.Replace(string(v))...)
	case int:
		return strconv.AppendInt(b, int64(v), 10)
	case int64:
		return strconv.AppendInt(b, v, 10)
	case float64:
		return strconv.AppendFloat(b, v, 'f', -1, 64)
	case bool:
		return strconv.AppendBool(b, v)
	case time.Time:
		return v.AppendFormat(b, time.RFC3339Nano)
	default:
		return append(b, fmt.Sprint(v)...)
	}
}

package xcontext

import (
	"context"
	"net/http"
	"time"

	"github.com/questx-lab/lottery/config"
	"github.com/questx-lab/lottery/pkg/logger"
)

type (
	configsKey      struct{}
	loggerKey       struct{}
	httpRequestKey  struct{}
	requestUserKey  struct{}
	trustedCallerKy struct{}
	clockKey        struct{}
)

func WithConfigs(ctx context.Context, cfg config.Configs) context.Context {
	return context.WithValue(ctx, configsKey{}, cfg)
}

func Configs(ctx context.Context) config.Configs {
	cfg, _ := ctx.Value(configsKey{}).(config.Configs)
	return cfg
}

func WithLogger(ctx context.Context, l logger.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, l)
}

func Logger(ctx context.Context) logger.Logger {
	l, ok := ctx.Value(loggerKey{}).(logger.Logger)
	if !ok {
		return logger.NewNopLogger()
	}

	return l
}

func WithHTTPRequest(ctx context.Context, req *http.Request) context.Context {
	return context.WithValue(ctx, httpRequestKey{}, req)
}

func HTTPRequest(ctx context.Context) *http.Request {
	req, _ := ctx.Value(httpRequestKey{}).(*http.Request)
	return req
}

func WithRequestUserID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestUserKey{}, id)
}

func RequestUserID(ctx context.Context) string {
	id, _ := ctx.Value(requestUserKey{}).(string)
	return id
}

// WithTrustedCaller marks the request as coming from an external trigger
// which presented a valid trigger key.
func WithTrustedCaller(ctx context.Context) context.Context {
	return context.WithValue(ctx, trustedCallerKy{}, true)
}

func IsTrustedCaller(ctx context.Context) bool {
	ok, _ := ctx.Value(trustedCallerKy{}).(bool)
	return ok
}

func WithClock(ctx context.Context, now func() time.Time) context.Context {
	return context.WithValue(ctx, clockKey{}, now)
}

// Now returns the current time in UTC, using the clock attached to ctx if any.
func Now(ctx context.Context) time.Time {
	if now, ok := ctx.Value(clockKey{}).(func() time.Time); ok {
		return now().UTC()
	}

	return time.Now().UTC()
}

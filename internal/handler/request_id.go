package handler

import (
	"context"

	"github.com/groupfun/internal/logger"
)

type requestIDKey struct{}

// WithRequestID 将请求 ID 写入 context，供处理函数的日志使用。
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFrom 读取 context 中的请求 ID，没有时返回空串。
func RequestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

func (a *API) logFor(ctx context.Context) *logger.Logger {
	if id := RequestIDFrom(ctx); id != "" {
		return a.log.With("request_id", id)
	}
	return a.log
}

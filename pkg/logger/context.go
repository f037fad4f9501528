package logger

import "context"

type ctxKey struct{}

const RequestID = "request_id"

func ContextWithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ctxKey{}, requestID)
}

// RequestIDFrom returns the id set by the request logging middleware, or "".
func RequestIDFrom(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

// WithContext returns a logger that stamps the request id carried by ctx.
func (l *Logger) WithContext(ctx context.Context) *Logger {
	id := RequestIDFrom(ctx)
	if id == "" {
		return l
	}
	return &Logger{Logger: l.Logger.With(RequestID, id)}
}

// Package requestcontext provides HTTP-independent context accessors for request-scoped values.
//
// Middleware sets the values; services and stores read them without pulling in net/http.
//
//	requestID := requestcontext.RequestID(ctx)
//	now := requestcontext.Now(ctx)
//	access, ok := requestcontext.SurveyAccess(ctx)
//
// Tests inject values directly:
//
//	ctx = requestcontext.WithTime(ctx, fixedTime)
package requestcontext

import (
	"context"
	"time"
)

type (
	requestIDKey    struct{}
	requestTimeKey  struct{}
	surveyAccessKey struct{}
)

// Access is the survey a bearer token grants access to, and its owner.
type Access struct {
	SurveyID int64
	UserID   int64
}

// RequestID retrieves the request ID from the context.
func RequestID(ctx context.Context) string {
	if reqID, ok := ctx.Value(requestIDKey{}).(string); ok {
		return reqID
	}
	return ""
}

// WithRequestID injects a request ID into the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

// Now retrieves the request-scoped time from context.
// Falls back to time.Now() outside of HTTP requests (workers, CLI, tests).
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(requestTimeKey{}).(time.Time); ok {
		return t
	}
	return time.Now()
}

// WithTime injects a specific time into a context.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, requestTimeKey{}, t)
}

// SurveyAccess returns the survey access granted by the caller's token.
func SurveyAccess(ctx context.Context) (Access, bool) {
	a, ok := ctx.Value(surveyAccessKey{}).(Access)
	return a, ok
}

// WithSurveyAccess injects verified survey access into the context.
func WithSurveyAccess(ctx context.Context, a Access) context.Context {
	return context.WithValue(ctx, surveyAccessKey{}, a)
}

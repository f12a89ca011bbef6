package audit

import (
	"context"
	"strings"
)

type actorContextKey struct{}
type requestIDContextKey struct{}
type clientInfoContextKey struct{}

type clientInfo struct {
	ip        string
	userAgent string
}

// WithActor attaches the acting user id to the context.
func WithActor(ctx context.Context, userID string) context.Context {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return ctx
	}
	return context.WithValue(ctx, actorContextKey{}, userID)
}

// ActorFromContext extracts the acting user id if present.
func ActorFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	v, ok := ctx.Value(actorContextKey{}).(string)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

// WithRequestID attaches the request identifier to the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	requestID = strings.TrimSpace(requestID)
	if requestID == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDContextKey{}, requestID)
}

// RequestIDFromContext extracts the request id if present.
func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(requestIDContextKey{}).(string); ok {
		return v
	}
	return ""
}

// WithClientInfo attaches network metadata of the inbound request.
func WithClientInfo(ctx context.Context, ip, userAgent string) context.Context {
	if ip == "" && userAgent == "" {
		return ctx
	}
	return context.WithValue(ctx, clientInfoContextKey{}, clientInfo{ip: ip, userAgent: userAgent})
}

// ClientInfoFromContext extracts network metadata if present.
func ClientInfoFromContext(ctx context.Context) (ip, userAgent string, ok bool) {
	if ctx == nil {
		return "", "", false
	}
	v, ok := ctx.Value(clientInfoContextKey{}).(clientInfo)
	if !ok {
		return "", "", false
	}
	return v.ip, v.userAgent, true
}

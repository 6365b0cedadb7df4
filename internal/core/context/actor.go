// Package context provides request-scoped values extraction.
package context

import (
	"context"
)

// Actor contains the authenticated operator recorded on audit rows.
type Actor struct {
	ActorID   string
	ActorName string
	TenantID  string
	Email     string
	IsAdmin   bool
	SessionID string
}

type actorContextKey struct{}

// WithActor adds Actor to context.
func WithActor(ctx context.Context, actor *Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

// GetActor returns Actor from context, or nil.
func GetActor(ctx context.Context) *Actor {
	if v, ok := ctx.Value(actorContextKey{}).(*Actor); ok {
		return v
	}
	return nil
}

// GetActorID returns actor ID from context or empty string.
func GetActorID(ctx context.Context) string {
	if a := GetActor(ctx); a != nil {
		return a.ActorID
	}
	return ""
}

// GetActorName returns the actor display name from context or empty string.
func GetActorName(ctx context.Context) string {
	if a := GetActor(ctx); a != nil {
		return a.ActorName
	}
	return ""
}

// GetTenantID returns tenant ID from context or empty string.
func GetTenantID(ctx context.Context) string {
	if a := GetActor(ctx); a != nil {
		return a.TenantID
	}
	return ""
}

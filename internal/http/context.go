package http

import (
	"context"

	"github.com/example/hall-booking/internal/application"
)

type contextKey string

const (
	principalContextKey contextKey = "principal"
	hallIDContextKey    contextKey = "hall_id"
	bookingIDContextKey contextKey = "booking_id"
	issueIDContextKey   contextKey = "issue_id"
	userIDContextKey    contextKey = "user_id"
)

// ContextWithPrincipal returns a derived context containing the authenticated principal.
func ContextWithPrincipal(ctx context.Context, principal application.Principal) context.Context {
	return context.WithValue(ctx, principalContextKey, principal)
}

// PrincipalFromContext extracts the authenticated principal from context if available.
func PrincipalFromContext(ctx context.Context) (application.Principal, bool) {
	principal, ok := ctx.Value(principalContextKey).(application.Principal)
	return principal, ok
}

// ContextWithHallID injects the hall identifier resolved from the request path.
func ContextWithHallID(ctx context.Context, hallID string) context.Context {
	return context.WithValue(ctx, hallIDContextKey, hallID)
}

// HallIDFromContext extracts a hall identifier previously associated with the context.
func HallIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(hallIDContextKey).(string)
	return id, ok
}

// ContextWithBookingID injects the booking identifier resolved from the request path.
func ContextWithBookingID(ctx context.Context, bookingID string) context.Context {
	return context.WithValue(ctx, bookingIDContextKey, bookingID)
}

// BookingIDFromContext extracts a booking identifier previously associated with the context.
func BookingIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(bookingIDContextKey).(string)
	return id, ok
}

// ContextWithIssueID injects the issue identifier resolved from the request path.
func ContextWithIssueID(ctx context.Context, issueID string) context.Context {
	return context.WithValue(ctx, issueIDContextKey, issueID)
}

// IssueIDFromContext extracts an issue identifier previously associated with the context.
func IssueIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(issueIDContextKey).(string)
	return id, ok
}

// ContextWithUserID injects the user identifier resolved from the request path.
func ContextWithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDContextKey, userID)
}

// UserIDFromContext extracts a user identifier previously associated with the context.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDContextKey).(string)
	return id, ok
}

package domain

import "context"

type contextKey struct{ name string }

var memberIDKey = contextKey{"member_id"}

// WithMemberID returns a context acting on behalf of memberID. It takes precedence over the console
// session for the calls made with it.
func WithMemberID(ctx context.Context, memberID string) context.Context {
	return context.WithValue(ctx, memberIDKey, memberID)
}

// GetMemberID returns the member_id from context and true if set; otherwise "", false.
func GetMemberID(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(memberIDKey).(string)
	return v, ok && v != ""
}

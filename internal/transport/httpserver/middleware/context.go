package middleware

import "context"

type User struct {
	ID    string
	Email string
	Name  string
}

type contextKey int

const userKey contextKey = iota

func WithUser(ctx context.Context, user User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

func UserFromContext(ctx context.Context) (User, bool) {
	user, ok := ctx.Value(userKey).(User)
	return user, ok
}

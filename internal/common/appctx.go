package common

import "context"

type userCtxKey struct{}

// ContextUser return user name from context or empty string.
func ContextUser(ctx context.Context) string {
	name, _ := ctx.Value(userCtxKey{}).(string)

	return name
}

// ContextWithUser create new context with user name.
func ContextWithUser(ctx context.Context, username string) context.Context {
	return context.WithValue(ctx, userCtxKey{}, username)
}

type deviceCtxKey struct{}

// ContextDevice return device name from context or empty string.
func ContextDevice(ctx context.Context) string {
	name, _ := ctx.Value(deviceCtxKey{}).(string)

	return name
}

// ContextWithDevice create context with device name.
func ContextWithDevice(ctx context.Context, devicename string) context.Context {
	return context.WithValue(ctx, deviceCtxKey{}, devicename)
}

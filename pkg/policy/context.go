package policy

import "context"

type contextKey int

const (
	apiKey contextKey = iota
	applicationKey
)

// WithAPI returns a copy of ctx carrying the API identifier.
func WithAPI(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, apiKey, id)
}

// WithApplication returns a copy of ctx carrying the application identifier.
func WithApplication(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, applicationKey, id)
}

// APIFromContext returns the API identifier, or "" if none is set.
func APIFromContext(ctx context.Context) string {
	id, _ := ctx.Value(apiKey).(string)
	return id
}

// ApplicationFromContext returns the application identifier, or "" if none is set.
func ApplicationFromContext(ctx context.Context) string {
	id, _ := ctx.Value(applicationKey).(string)
	return id
}

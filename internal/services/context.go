package services

import "context"

type contextKey string

const (
	cartridgeKey contextKey = "cartridge_uuid"
	componentKey contextKey = "component"
	requestIDKey contextKey = "request_id"
)

// WithCartridge annotates context with the cartridge UUID being processed.
func WithCartridge(ctx context.Context, uuid string) context.Context {
	if uuid == "" {
		return ctx
	}
	return context.WithValue(ctx, cartridgeKey, uuid)
}

// CartridgeFromContext extracts the cartridge UUID if present.
func CartridgeFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(cartridgeKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithComponent annotates context with the originating component name.
func WithComponent(ctx context.Context, component string) context.Context {
	if component == "" {
		return ctx
	}
	return context.WithValue(ctx, componentKey, component)
}

// ComponentFromContext returns the component name if present.
func ComponentFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(componentKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithRequestID annotates context with a correlation identifier.
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext extracts the correlation identifier if present.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(requestIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

package journey

import "context"

type journeyContextKey struct{}

// NewContext returns a copy of ctx carrying j.
func NewContext(ctx context.Context, j *Journey) context.Context {
	return context.WithValue(ctx, journeyContextKey{}, j)
}

// FromContext returns the journey attached to ctx, or nil when the operation
// is not being tracked. Callers can pass the result straight to EnterStage or
// NewScopedStage; both tolerate nil.
func FromContext(ctx context.Context) *Journey {
	j, _ := ctx.Value(journeyContextKey{}).(*Journey)
	return j
}

// EnterStage transitions the journey attached to ctx, if any. When tracking
// is disabled this is a context lookup and a nil check, nothing more.
func EnterStage(ctx context.Context, stage Stage) {
	FromContext(ctx).EnterStage(stage)
}

// BeginScoped opens a ScopedStage on the journey attached to ctx, if any.
func BeginScoped(ctx context.Context, stage Stage) *ScopedStage {
	return NewScopedStage(FromContext(ctx), stage)
}

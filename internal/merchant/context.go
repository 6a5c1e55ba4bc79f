package merchant

import "context"

type bindingContextKey struct{}

// bindingResolution caches the outcome of one store lookup on the request
// context. A nil binding inside a resolution means the lookup ran and
// found nothing, so chained guards do not re-query.
type bindingResolution struct {
	binding *Binding
}

// ContextWithBinding records a resolved lookup. Pass nil to cache a
// confirmed absence.
func ContextWithBinding(ctx context.Context, binding *Binding) context.Context {
	return context.WithValue(ctx, bindingContextKey{}, &bindingResolution{binding: binding})
}

// BindingFromContext returns the cached binding and whether a lookup was
// already resolved on this request. (nil, true) means known-absent.
func BindingFromContext(ctx context.Context) (*Binding, bool) {
	if ctx == nil {
		return nil, false
	}
	v, ok := ctx.Value(bindingContextKey{}).(*bindingResolution)
	if !ok || v == nil {
		return nil, false
	}
	return v.binding, true
}

// Package strategy runs an ordered list of lookup strategies and stops at the
// first one that yields a result.
package strategy

import "context"

// Func is one strategy. It reports ok=false when it has nothing to offer.
type Func[T any] func(ctx context.Context) (T, bool)

// First evaluates strategies in order and returns the first result reported as
// ok. Remaining strategies are not invoked. When the context is cancelled
// between strategies the walk stops and ok is false.
func First[T any](ctx context.Context, strategies ...Func[T]) (T, bool) {
	var zero T
	for _, s := range strategies {
		if s == nil {
			continue
		}
		if ctx.Err() != nil {
			return zero, false
		}
		if result, ok := s(ctx); ok {
			return result, true
		}
	}
	return zero, false
}

// Each adapts a slice of inputs into strategies applying fn to every item, so
// that "try each candidate until one works" loops can be expressed with First.
func Each[In, Out any](items []In, fn func(ctx context.Context, item In) (Out, bool)) []Func[Out] {
	out := make([]Func[Out], 0, len(items))
	for _, item := range items {
		item := item
		out = append(out, func(ctx context.Context) (Out, bool) {
			return fn(ctx, item)
		})
	}
	return out
}

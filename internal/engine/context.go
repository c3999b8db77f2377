package engine

import "context"

type storeKey struct{}

// WithStore attaches s to ctx. The server installs it as every request's base
// context so handlers reach the one store constructed at startup.
func WithStore(ctx context.Context, s *Store) context.Context {
	return context.WithValue(ctx, storeKey{}, s)
}

// LookupStore returns the store attached by WithStore, if any.
func LookupStore(ctx context.Context) (*Store, bool) {
	s, ok := ctx.Value(storeKey{}).(*Store)
	return s, ok && s != nil
}

// StoreFrom returns the store attached by WithStore. It panics when none is
// attached: that is a wiring bug, not a runtime condition.
func StoreFrom(ctx context.Context) *Store {
	s, ok := LookupStore(ctx)
	if !ok {
		panic("engine: StoreFrom called on a context without a store; wrap it with WithStore")
	}
	return s
}

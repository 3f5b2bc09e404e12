package model

import (
	"context"
	"sync"

	"github.com/matheus3301/parley/internal/guard"
)

// Router decides which screen is shown, passing every navigation through the
// route guards.
type Router struct {
	resolver guard.Resolver

	mu      sync.Mutex
	current string
}

// NewRouter creates a router guarded by the auth state of r.
func NewRouter(r guard.Resolver) *Router {
	return &Router{resolver: r}
}

// Resolve returns the screen to show for route: route itself when its guard
// allows it, the guard's redirect otherwise, or "" when navigation was refused
// outright. It blocks until the auth state has resolved once.
func (r *Router) Resolve(ctx context.Context, route string) string {
	route = guard.Normalize(route)
	var redirect string
	nav := guard.NavigatorFunc(func(to string) { redirect = to })
	target := ""
	switch {
	case guard.Allow(ctx, route, r.resolver, nav):
		target = route
	case redirect != "":
		target = redirect
	default:
		return ""
	}
	r.mu.Lock()
	r.current = target
	r.mu.Unlock()
	return target
}

// Current returns the last resolved screen.
func (r *Router) Current() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// Package guard decides whether a screen may be entered for the current auth
// state, redirecting when it may not.
package guard

import (
	"context"

	"github.com/matheus3301/parley/internal/status"
)

// Routes of the client.
const (
	RouteLogin   = "login"
	RouteChat    = "chat"
	RouteProfile = "profile"
)

// Navigator switches the visible screen.
type Navigator interface {
	Navigate(route string)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(route string)

func (f NavigatorFunc) Navigate(route string) { f(route) }

// Resolver exposes the first resolution of the auth state.
type Resolver interface {
	Wait(ctx context.Context) (status.State, error)
}

// RequiresAuthenticated waits for the auth state to resolve and allows entry
// only when signed in. Otherwise it redirects to the login screen.
func RequiresAuthenticated(ctx context.Context, r Resolver, nav Navigator) bool {
	st, err := r.Wait(ctx)
	if err == nil && st == status.SignedIn {
		return true
	}
	if err == nil {
		nav.Navigate(RouteLogin)
	}
	return false
}

// RequiresUnauthenticated waits for the auth state to resolve and allows entry
// only when signed out. Otherwise it redirects to the default screen.
func RequiresUnauthenticated(ctx context.Context, r Resolver, nav Navigator) bool {
	st, err := r.Wait(ctx)
	if err == nil && st == status.SignedOut {
		return true
	}
	if err == nil {
		nav.Navigate(Normalize(""))
	}
	return false
}

// Normalize maps an empty route to the default screen.
func Normalize(route string) string {
	if route == "" {
		return RouteProfile
	}
	return route
}

// Allow applies the guard registered for route. Unknown routes are refused
// without a redirect.
func Allow(ctx context.Context, route string, r Resolver, nav Navigator) bool {
	switch Normalize(route) {
	case RouteLogin:
		return RequiresUnauthenticated(ctx, r, nav)
	case RouteChat, RouteProfile:
		return RequiresAuthenticated(ctx, r, nav)
	}
	return false
}

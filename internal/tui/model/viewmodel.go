// Package model holds the view-state of the terminal UI screens. Nothing here
// touches the terminal, so the screen logic can be tested directly.
package model

import (
	"context"
	"errors"
	"fmt"

	"github.com/matheus3301/parley/internal/authn"
	"github.com/matheus3301/parley/internal/backend"
	"github.com/matheus3301/parley/internal/form"
	"github.com/matheus3301/parley/internal/messaging"
	"github.com/matheus3301/parley/internal/profile"
	"github.com/matheus3301/parley/internal/session"
	"github.com/matheus3301/parley/internal/status"
)

// ViewModel is shared by every screen: the signed-in session, the services the
// screens call and the flash bar.
type ViewModel struct {
	Instance  string
	Session   *session.Session
	Messaging *messaging.Service
	Profile   *profile.Service
	Flash     *Flash

	refreshCh chan struct{}
}

// NewViewModel creates a view model over an established session.
func NewViewModel(instance string, sess *session.Session, msg *messaging.Service, prof *profile.Service) *ViewModel {
	return &ViewModel{
		Instance:  instance,
		Session:   sess,
		Messaging: msg,
		Profile:   prof,
		Flash:     NewFlash(),
		refreshCh: make(chan struct{}, 1),
	}
}

// RefreshCh returns the channel that signals UI refresh.
func (vm *ViewModel) RefreshCh() <-chan struct{} {
	return vm.refreshCh
}

// Refresh asks the UI to redraw. Multiple pending requests collapse into one.
func (vm *ViewModel) Refresh() {
	select {
	case vm.refreshCh <- struct{}{}:
	default:
	}
}

// SignedIn reports whether a user is signed in.
func (vm *ViewModel) SignedIn() bool {
	return vm.Session.State() == status.SignedIn
}

// SignOut ends the session. The result is reported through the flash bar.
func (vm *ViewModel) SignOut(ctx context.Context) error {
	if err := vm.Session.SignOut(ctx); err != nil {
		vm.Flash.Err("Sign out failed: " + describe(err))
		return err
	}
	vm.Flash.Info("Signed out")
	return nil
}

// describe turns any client error into flash text.
func describe(err error) string {
	if msg := form.Message(err); msg != "" {
		return msg
	}
	switch {
	case errors.Is(err, session.ErrUnauthenticated):
		return "You are not signed in."
	case errors.Is(err, messaging.ErrEmptyMessage):
		return "Message is empty."
	case errors.Is(err, backend.ErrPermissionDenied):
		return "You do not have access to this."
	case errors.Is(err, backend.ErrNotFound):
		return "Not found."
	case authn.CodeOf(err) != "":
		return authn.ProfileMessage(err)
	}
	return err.Error()
}

// failed formats "<prefix>: <reason>" for the flash bar.
func failed(prefix string, err error) string {
	return fmt.Sprintf("%s: %s", prefix, describe(err))
}

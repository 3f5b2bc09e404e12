package model

import (
	"context"
	"sync"

	"github.com/matheus3301/parley/internal/authn"
	"github.com/matheus3301/parley/internal/form"
)

// Login is the view-state of the login screen.
type Login struct {
	vm *ViewModel

	mu       sync.Mutex
	register bool
	busy     bool
	errMsg   string
}

// NewLogin creates the login screen state.
func NewLogin(vm *ViewModel) *Login {
	return &Login{vm: vm}
}

// Registering reports whether the form creates an account instead of signing in.
func (l *Login) Registering() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.register
}

// Toggle switches between sign in and register and clears the error.
func (l *Login) Toggle() {
	l.mu.Lock()
	l.register = !l.register
	l.errMsg = ""
	l.mu.Unlock()
}

// Error returns the form-level error message.
func (l *Login) Error() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.errMsg
}

// Busy reports whether a submission is in flight.
func (l *Login) Busy() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.busy
}

// Submit validates the form and signs in or registers. It reports whether the
// user is now signed in; on failure the reason is in Error.
func (l *Login) Submit(ctx context.Context, email, password, displayName string) bool {
	l.mu.Lock()
	if l.busy {
		l.mu.Unlock()
		return false
	}
	f := form.Login{Email: email, Password: password, DisplayName: displayName, Register: l.register}
	l.busy = true
	l.errMsg = ""
	l.mu.Unlock()

	err := f.Validate()
	if err == nil {
		if f.Register {
			_, err = l.vm.Session.SignUp(ctx, f.Email, f.Password, f.DisplayName)
		} else {
			_, err = l.vm.Session.SignIn(ctx, f.Email, f.Password)
		}
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.busy = false
	switch {
	case err == nil:
		l.vm.Flash.Info("Logged in successfully")
		return true
	case form.Message(err) != "":
		l.errMsg = form.Message(err)
	default:
		l.errMsg = authn.LoginMessage(err)
		l.vm.Flash.Err(l.errMsg)
	}
	return false
}

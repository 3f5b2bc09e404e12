package backend

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/matheus3301/parley/internal/authn"
	"github.com/matheus3301/parley/internal/model"
	"github.com/matheus3301/parley/internal/store"
	"go.uber.org/zap"
)

func identityOf(a *store.Account) model.Identity {
	return model.Identity{
		UID:         a.UID,
		Email:       a.Email,
		DisplayName: a.DisplayName,
		PhotoURL:    a.PhotoURL,
	}
}

func (b *Backend) issue(a *store.Account) (*AuthResult, error) {
	token, expires, err := b.tokens.Issue(a.UID, a.Email, b.now())
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, ExpiresAt: expires, Identity: identityOf(a)}, nil
}

func (b *Backend) authFailed(err error) error {
	if code := authn.CodeOf(err); code != "" {
		b.metrics.AuthFailed(string(code))
	}
	return err
}

// SignUp implements Service.
func (b *Backend) SignUp(ctx context.Context, email, password, displayName string) (*AuthResult, error) {
	email, err := authn.NormalizeEmail(email)
	if err != nil {
		return nil, b.authFailed(err)
	}
	if err := authn.ValidatePassword(password); err != nil {
		return nil, b.authFailed(err)
	}
	hash, err := authn.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := b.now().UnixMilli()
	a := &store.Account{
		UID:               b.newUID(),
		Email:             email,
		PasswordHash:      hash,
		DisplayName:       strings.TrimSpace(displayName),
		PasswordChangedAt: now,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := b.db.CreateAccount(ctx, a); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, b.authFailed(authn.Errorf(authn.CodeEmailInUse, "email %s is already registered", email))
		}
		return nil, fmt.Errorf("create account: %w", err)
	}
	b.logger.Info("account created", zap.String("uid", a.UID))
	return b.issue(a)
}

// SignIn implements Service.
func (b *Backend) SignIn(ctx context.Context, email, password string) (*AuthResult, error) {
	email, err := authn.NormalizeEmail(email)
	if err != nil {
		return nil, b.authFailed(err)
	}
	if b.limiter != nil && !b.limiter.Allow(email) {
		return nil, b.authFailed(authn.Errorf(authn.CodeTooManyRequests, "too many sign-in attempts"))
	}
	a, err := b.db.GetAccountByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("load account: %w", err)
	}
	if a == nil {
		return nil, b.authFailed(authn.Errorf(authn.CodeUserNotFound, "no account for %s", email))
	}
	if !authn.CheckPassword(a.PasswordHash, password) {
		return nil, b.authFailed(authn.Errorf(authn.CodeWrongPassword, "password does not match"))
	}
	b.logger.Info("signed in", zap.String("uid", a.UID))
	return b.issue(a)
}

// Reauthenticate implements Service. It returns a fresh token whose
// authentication time satisfies the recent-login requirement.
func (b *Backend) Reauthenticate(ctx context.Context, password string) (*AuthResult, error) {
	claims, err := b.caller(ctx)
	if err != nil {
		return nil, err
	}
	a, err := b.account(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}
	if b.limiter != nil && !b.limiter.Allow(a.Email) {
		return nil, b.authFailed(authn.Errorf(authn.CodeTooManyRequests, "too many attempts"))
	}
	if !authn.CheckPassword(a.PasswordHash, password) {
		return nil, b.authFailed(authn.Errorf(authn.CodeWrongPassword, "password does not match"))
	}
	return b.issue(a)
}

// Me implements Service.
func (b *Backend) Me(ctx context.Context) (*model.Identity, error) {
	claims, err := b.caller(ctx)
	if err != nil {
		return nil, err
	}
	a, err := b.account(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}
	id := identityOf(a)
	return &id, nil
}

func (b *Backend) account(ctx context.Context, uid string) (*store.Account, error) {
	a, err := b.db.GetAccount(ctx, uid)
	if err != nil {
		return nil, fmt.Errorf("load account: %w", err)
	}
	if a == nil {
		return nil, authn.Errorf(authn.CodeUserNotFound, "account %s no longer exists", uid)
	}
	return a, nil
}

// recentCaller is caller plus the requirement that the password was proven
// within the recent-login window.
func (b *Backend) recentCaller(ctx context.Context) (*authn.Claims, error) {
	claims, err := b.caller(ctx)
	if err != nil {
		return nil, err
	}
	if b.now().Sub(claims.AuthenticatedAt()) > b.recentLogin {
		return nil, b.authFailed(authn.Errorf(authn.CodeRequiresRecentLogin, "sign in again to continue"))
	}
	return claims, nil
}

// UpdatePassword implements Service.
func (b *Backend) UpdatePassword(ctx context.Context, newPassword string) error {
	claims, err := b.recentCaller(ctx)
	if err != nil {
		return err
	}
	if err := authn.ValidatePassword(newPassword); err != nil {
		return b.authFailed(err)
	}
	hash, err := authn.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := b.db.UpdateAccountPassword(ctx, claims.UserID, hash, b.now().UnixMilli()); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	b.logger.Info("password changed", zap.String("uid", claims.UserID))
	return nil
}

// UpdateEmail implements Service. Only the account changes; the profile
// document is the caller's to update.
func (b *Backend) UpdateEmail(ctx context.Context, newEmail string) error {
	claims, err := b.recentCaller(ctx)
	if err != nil {
		return err
	}
	email, err := authn.NormalizeEmail(newEmail)
	if err != nil {
		return b.authFailed(err)
	}
	if err := b.db.UpdateAccountEmail(ctx, claims.UserID, email, b.now().UnixMilli()); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return b.authFailed(authn.Errorf(authn.CodeEmailInUse, "email %s is already registered", email))
		}
		return fmt.Errorf("update email: %w", err)
	}
	b.logger.Info("email changed", zap.String("uid", claims.UserID))
	return nil
}

// UpdateIdentity implements Service.
func (b *Backend) UpdateIdentity(ctx context.Context, displayName, photoURL *string) error {
	claims, err := b.caller(ctx)
	if err != nil {
		return err
	}
	if displayName == nil && photoURL == nil {
		return nil
	}
	if err := b.db.UpdateAccountIdentity(ctx, claims.UserID, displayName, photoURL, b.now().UnixMilli()); err != nil {
		return fmt.Errorf("update identity: %w", err)
	}
	return nil
}

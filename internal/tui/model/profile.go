package model

import (
	"context"
	"sync"

	"github.com/matheus3301/parley/internal/authn"
	"github.com/matheus3301/parley/internal/form"
	"github.com/matheus3301/parley/internal/live"
	"github.com/matheus3301/parley/internal/model"
)

// ShareScheme prefixes the link encoded in the share tab's QR code.
const ShareScheme = "parley://user/"

// Profile is the view-state of the profile screen.
type Profile struct {
	vm  *ViewModel
	uid string

	mu      sync.Mutex
	profile *model.UserProfile
	loaded  bool
	busy    bool
	sub     *live.Stream[*model.UserProfile]
}

// NewProfile creates the profile screen state for the signed-in user.
func NewProfile(vm *ViewModel) *Profile {
	p := &Profile{vm: vm}
	if id := vm.Session.Identity(); id != nil {
		p.uid = id.UID
	}
	return p
}

// Start follows the user's profile document.
func (p *Profile) Start(ctx context.Context) error {
	s, err := p.vm.Profile.WatchProfile(ctx, p.uid)
	if err != nil {
		p.vm.Flash.Err(failed("Error loading profile", err))
		return err
	}
	p.mu.Lock()
	p.sub = s
	p.mu.Unlock()
	go func() {
		for v := range s.C() {
			p.mu.Lock()
			p.profile = v
			p.loaded = true
			p.mu.Unlock()
			p.vm.Refresh()
		}
	}()
	return nil
}

// Stop cancels the profile subscription.
func (p *Profile) Stop() {
	p.mu.Lock()
	s := p.sub
	p.sub = nil
	p.mu.Unlock()
	if s != nil {
		s.Cancel()
	}
}

// Current returns the latest profile, or nil when none exists yet.
func (p *Profile) Current() *model.UserProfile {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.profile
}

// Loaded reports whether the first snapshot has arrived.
func (p *Profile) Loaded() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.loaded
}

// Form returns the profile form filled from the current profile.
func (p *Profile) Form() form.Profile {
	return form.ProfileOf(p.Current())
}

// Busy reports whether a write is in flight.
func (p *Profile) Busy() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.busy
}

// ShareLink returns the link other users scan to find this profile.
func (p *Profile) ShareLink() string {
	return ShareScheme + p.uid
}

// Initials returns the avatar letter for the profile.
func (p *Profile) Initials() string {
	cur := p.Current()
	if cur == nil || cur.DisplayName == "" {
		return "U"
	}
	return string([]rune(cur.DisplayName)[:1])
}

func (p *Profile) begin() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.busy {
		return false
	}
	p.busy = true
	return true
}

func (p *Profile) end() {
	p.mu.Lock()
	p.busy = false
	p.mu.Unlock()
	p.vm.Refresh()
}

// Save validates f and writes it to the profile.
func (p *Profile) Save(ctx context.Context, f form.Profile) error {
	u, err := f.Update()
	if err != nil {
		p.vm.Flash.Warn(form.Message(err))
		return err
	}
	if !p.begin() {
		return nil
	}
	defer p.end()
	if err := p.vm.Profile.UpdateProfile(ctx, p.uid, u); err != nil {
		p.vm.Flash.Err(failed("Failed to update profile", err))
		return err
	}
	p.vm.Flash.Info("Profile updated successfully")
	return nil
}

// ChangePassword validates f, proves the current password and sets the new one.
func (p *Profile) ChangePassword(ctx context.Context, f form.Password) error {
	if err := f.Validate(); err != nil {
		p.vm.Flash.Warn(form.Message(err))
		return err
	}
	if !p.begin() {
		return nil
	}
	defer p.end()
	if err := p.vm.Profile.ChangePassword(ctx, f.Current, f.New); err != nil {
		p.vm.Flash.Err("Failed to change password: " + authn.ProfileMessage(err))
		return err
	}
	p.vm.Flash.Info("Password changed successfully")
	return nil
}

// ChangeEmail validates f, proves the password and changes the sign-in email.
func (p *Profile) ChangeEmail(ctx context.Context, f form.Email) error {
	if err := f.Validate(); err != nil {
		p.vm.Flash.Warn(form.Message(err))
		return err
	}
	if !p.begin() {
		return nil
	}
	defer p.end()
	if err := p.vm.Profile.ChangeEmail(ctx, f.NewEmail, f.Password); err != nil {
		p.vm.Flash.Err("Failed to change email: " + authn.ProfileMessage(err))
		return err
	}
	p.vm.Flash.Info("Email changed successfully")
	return nil
}

// UploadPhoto replaces the profile photo with the image at path.
func (p *Profile) UploadPhoto(ctx context.Context, path string) error {
	if !p.begin() {
		return nil
	}
	defer p.end()
	if _, err := p.vm.Profile.UploadPhotoFile(ctx, path); err != nil {
		p.vm.Flash.Err(failed("Failed to upload photo", err))
		return err
	}
	p.vm.Flash.Info("Photo updated")
	return nil
}

// RemovePhoto clears the profile photo.
func (p *Profile) RemovePhoto(ctx context.Context) error {
	if !p.begin() {
		return nil
	}
	defer p.end()
	if err := p.vm.Profile.RemovePhoto(ctx); err != nil {
		p.vm.Flash.Err(failed("Failed to remove photo", err))
		return err
	}
	p.vm.Flash.Info("Photo removed")
	return nil
}

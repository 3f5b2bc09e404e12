package form

import (
	"strings"
	"testing"

	"github.com/matheus3301/parley/internal/model"
	"github.com/stretchr/testify/require"
)

func TestLoginValidate(t *testing.T) {
	tests := []struct {
		name string
		form Login
		want string
	}{
		{"sign in missing password", Login{Email: "a@b.co"}, "Please fill in email and password"},
		{"sign in blank email", Login{Email: "  ", Password: "x"}, "Please fill in email and password"},
		{"register missing email", Login{Password: "secret1", Register: true}, "Please fill in all fields"},
		{"register short password", Login{Email: "a@b.co", Password: "abc", Register: true}, "Password must be at least 6 characters"},
		{"sign in short password is allowed", Login{Email: "a@b.co", Password: "abc"}, ""},
		{"register ok", Login{Email: "a@b.co", Password: "secret1", Register: true}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, Message(tt.form.Validate()))
		})
	}
}

func TestProfileUpdate(t *testing.T) {
	u, err := Profile{DisplayName: "  Alice ", Bio: "hi", Phone: "+1 (555) 010-0200", Status: model.StatusBusy}.Update()
	require.NoError(t, err)
	require.Equal(t, "Alice", *u.DisplayName)
	require.Equal(t, "+1 (555) 010-0200", *u.PhoneNumber)
	require.Equal(t, model.StatusBusy, *u.Status)
	require.Nil(t, u.PhotoURL)
}

func TestProfileRules(t *testing.T) {
	base := Profile{DisplayName: "Al", Status: model.StatusOnline}

	p := base
	p.DisplayName = "A"
	_, err := p.Update()
	require.Equal(t, "Display name must be at least 2 characters", Message(err))

	p = base
	p.DisplayName = ""
	_, err = p.Update()
	require.Equal(t, "Display name is required", Message(err))

	p = base
	p.Bio = strings.Repeat("x", 201)
	_, err = p.Update()
	require.Equal(t, "Bio must be at most 200 characters", Message(err))

	p = base
	p.Bio = strings.Repeat("x", 200)
	_, err = p.Update()
	require.NoError(t, err)

	p = base
	p.Phone = "555-CALL"
	_, err = p.Update()
	require.Equal(t, "Invalid phone number", Message(err))

	p = base
	p.Status = "sleeping"
	_, err = p.Update()
	var fe *Error
	require.ErrorAs(t, err, &fe)
	require.Equal(t, "Status", fe.Field)
}

func TestProfileOf(t *testing.T) {
	require.Equal(t, model.StatusOnline, ProfileOf(nil).Status)
	f := ProfileOf(&model.UserProfile{DisplayName: "Bob", PhoneNumber: "123"})
	require.Equal(t, "Bob", f.DisplayName)
	require.Equal(t, "123", f.Phone)
	require.Equal(t, model.StatusOnline, f.Status)
}

func TestPasswordValidate(t *testing.T) {
	require.NoError(t, Password{Current: "secret1", New: "secret2", Confirm: "secret2"}.Validate())
	require.Equal(t, "Passwords do not match",
		Message(Password{Current: "secret1", New: "secret2", Confirm: "secret3"}.Validate()))
	require.Equal(t, "Password must be at least 6 characters",
		Message(Password{Current: "abc", New: "secret2", Confirm: "secret2"}.Validate()))
	require.Equal(t, "New password is required",
		Message(Password{Current: "secret1"}.Validate()))
}

func TestEmailValidate(t *testing.T) {
	require.NoError(t, Email{NewEmail: " new@example.com ", Password: "x"}.Validate())
	require.Equal(t, "Invalid email address", Message(Email{NewEmail: "nope", Password: "x"}.Validate()))
	require.Equal(t, "Password is required", Message(Email{NewEmail: "new@example.com"}.Validate()))
}

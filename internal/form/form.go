// Package form validates the user-editable forms of the login and profile
// screens before anything is sent to the backend.
package form

import (
	"errors"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/matheus3301/parley/internal/model"
)

// MinPasswordLength is the shortest password the forms accept.
const MinPasswordLength = 6

var phonePattern = regexp.MustCompile(`^[0-9+\-() ]+$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("status", func(fl validator.FieldLevel) bool {
		return model.Status(fl.Field().String()).Valid()
	})
	return v
}

// Error is the first failed rule of a form, worded for display.
type Error struct {
	Field   string
	Message string
}

func (e *Error) Error() string { return e.Message }

// Message returns the display text of a form error, or "" when err is not one.
func Message(err error) string {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Message
	}
	return ""
}

// messages is keyed by "<Field>.<tag>".
var messages = map[string]string{
	"DisplayName.required": "Display name is required",
	"DisplayName.min":      "Display name must be at least 2 characters",
	"Bio.max":              "Bio must be at most 200 characters",
	"Phone.phone":          "Invalid phone number",
	"Status.status":        "Choose online, away, busy or offline",
	"Current.required":     "Current password is required",
	"Current.min":          "Password must be at least 6 characters",
	"New.required":         "New password is required",
	"New.min":              "Password must be at least 6 characters",
	"Confirm.required":     "Please confirm the new password",
	"Confirm.eqfield":      "Passwords do not match",
	"NewEmail.required":    "New email is required",
	"NewEmail.email":       "Invalid email address",
	"Password.required":    "Password is required",
}

func check(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var fields validator.ValidationErrors
	if !errors.As(err, &fields) || len(fields) == 0 {
		return err
	}
	f := fields[0]
	msg, ok := messages[f.Field()+"."+f.Tag()]
	if !ok {
		msg = f.Field() + " is invalid"
	}
	return &Error{Field: f.Field(), Message: msg}
}

// Login is the login screen form. DisplayName is only used when registering.
type Login struct {
	Email       string `validate:"required"`
	Password    string `validate:"required"`
	DisplayName string
	Register    bool
}

// Validate applies the login screen rules.
func (l Login) Validate() error {
	l.Email = strings.TrimSpace(l.Email)
	if validate.Struct(l) != nil {
		if l.Register {
			return &Error{Field: "Email", Message: "Please fill in all fields"}
		}
		return &Error{Field: "Email", Message: "Please fill in email and password"}
	}
	if l.Register && utf8.RuneCountInString(l.Password) < MinPasswordLength {
		return &Error{Field: "Password", Message: "Password must be at least 6 characters"}
	}
	return nil
}

// Profile is the profile tab form.
type Profile struct {
	DisplayName string       `validate:"required,min=2"`
	Bio         string       `validate:"max=200"`
	Phone       string       `validate:"omitempty,phone"`
	Status      model.Status `validate:"status"`
}

// ProfileOf fills the form from a stored profile.
func ProfileOf(p *model.UserProfile) Profile {
	if p == nil {
		return Profile{Status: model.StatusOnline}
	}
	f := Profile{DisplayName: p.DisplayName, Bio: p.Bio, Phone: p.PhoneNumber, Status: p.Status}
	if f.Status == "" {
		f.Status = model.StatusOnline
	}
	return f
}

// Update validates the form and returns the profile update it describes.
func (p Profile) Update() (model.ProfileUpdate, error) {
	p.DisplayName = strings.TrimSpace(p.DisplayName)
	p.Bio = strings.TrimSpace(p.Bio)
	p.Phone = strings.TrimSpace(p.Phone)
	if err := check(p); err != nil {
		return model.ProfileUpdate{}, err
	}
	return model.ProfileUpdate{
		DisplayName: model.Ptr(p.DisplayName),
		Bio:         model.Ptr(p.Bio),
		PhoneNumber: model.Ptr(p.Phone),
		Status:      model.Ptr(p.Status),
	}, nil
}

// Password is the change password form.
type Password struct {
	Current string `validate:"required,min=6"`
	New     string `validate:"required,min=6"`
	Confirm string `validate:"required,eqfield=New"`
}

// Validate applies the password form rules.
func (p Password) Validate() error {
	return check(p)
}

// Email is the change email form.
type Email struct {
	NewEmail string `validate:"required,email"`
	Password string `validate:"required"`
}

// Validate applies the email form rules.
func (e Email) Validate() error {
	e.NewEmail = strings.TrimSpace(e.NewEmail)
	return check(e)
}

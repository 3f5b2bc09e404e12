package authn

import "errors"

var loginMessages = map[Code]string{
	CodeEmailInUse:        "This email is already registered. Please login instead.",
	CodeInvalidEmail:      "Invalid email address format.",
	CodeWeakPassword:      "Password should be at least 6 characters.",
	CodeUserNotFound:      "No account found with this email.",
	CodeWrongPassword:     "Incorrect password. Please try again.",
	CodeTooManyRequests:   "Too many failed attempts. Please try again later.",
	CodeNetworkFailed:     "Network error. Please check your connection.",
	CodeInvalidCredential: "Invalid credentials.",
}

var profileMessages = map[Code]string{
	CodeWrongPassword:       "Current password is incorrect.",
	CodeWeakPassword:        "The new password is too weak.",
	CodeEmailInUse:          "This email address is already in use.",
	CodeInvalidEmail:        "This email address is invalid.",
	CodeRequiresRecentLogin: "Please sign in again to complete this operation.",
}

// LoginMessage translates a sign-in or sign-up failure for the login screen.
func LoginMessage(err error) string {
	if msg, ok := loginMessages[CodeOf(err)]; ok {
		return msg
	}
	return "Authentication failed: " + detail(err)
}

// ProfileMessage translates a credential change failure for the profile screen.
func ProfileMessage(err error) string {
	if msg, ok := profileMessages[CodeOf(err)]; ok {
		return msg
	}
	if d := detail(err); d != "" {
		return d
	}
	return "An unexpected error occurred."
}

func detail(err error) string {
	if err == nil {
		return ""
	}
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Message
	}
	return err.Error()
}

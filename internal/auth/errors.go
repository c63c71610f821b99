package auth

import "errors"

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailInUse         = errors.New("email already in use")
	ErrUserNotFound       = errors.New("user not found")
	ErrWeakPassword       = errors.New("password too weak")
	ErrInvalidEmail       = errors.New("invalid email")
	ErrInvalidResetToken  = errors.New("invalid or expired reset token")
	ErrNoSession          = errors.New("no session")
)

const (
	MsgInvalidCredentials = "Invalid email or password. Please try again."
	MsgEmailInUse         = "This email address is already in use by another account."
	MsgUnexpected         = "An unexpected error occurred. Please try again."
)

// UserMessage maps an auth error to the message shown to the user.
func UserMessage(err error) string {
	switch {
	case errors.Is(err, ErrInvalidCredentials), errors.Is(err, ErrUserNotFound):
		return MsgInvalidCredentials
	case errors.Is(err, ErrEmailInUse):
		return MsgEmailInUse
	default:
		return MsgUnexpected
	}
}

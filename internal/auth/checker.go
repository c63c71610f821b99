package auth

import "context"

var _ Checker = (*LoginChecker)(nil)
var _ Checker = (*LoginTestChecker)(nil)

type Checker interface {
	// UserFor returns the user a session token belongs to, ErrNoSession
	// when the token is unknown or expired.
	UserFor(ctx context.Context, token string) (string, error)
}

package auth

import "context"

// LoginTestChecker resolves tokens from a fixed map, used in handler tests.
type LoginTestChecker struct {
	Sessions map[string]string
}

func NewLoginTestChecker() *LoginTestChecker {
	return &LoginTestChecker{
		Sessions: map[string]string{},
	}
}

func (c *LoginTestChecker) UserFor(_ context.Context, token string) (string, error) {
	userID, ok := c.Sessions[token]
	if !ok {
		return "", ErrNoSession
	}
	return userID, nil
}

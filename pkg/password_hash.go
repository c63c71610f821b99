package pkg

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

const (
	PasswordHashCost = 12
	// bcrypt ignores everything past 72 bytes
	MaxPasswordBytes = 72
)

var ErrPasswordTooLong = errors.New("password too long")

func HashPassword(password string) (string, error) {
	return HashPasswordWithCost(password, PasswordHashCost)
}

func HashPasswordWithCost(password string, cost int) (string, error) {
	if len(password) > MaxPasswordBytes {
		return "", ErrPasswordTooLong
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return BytesToString(hash), nil
}

func CheckPasswordHash(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/2beens/fitjournal/internal/telemetry/tracing"
	"github.com/2beens/fitjournal/pkg"

	"github.com/go-redis/redis/v8"
	log "github.com/sirupsen/logrus"
)

const (
	MinPasswordLength = 6
	ResetTokenTTL     = time.Hour
	resetKeyPrefix    = "fitjournal:reset:"
)

// Seeder fills the catalogs of a new account.
type Seeder interface {
	Seed(ctx context.Context, userID string) error
}

type Service struct {
	users       UsersRepo
	sessions    *SessionStore
	redisClient *redis.Client
	seeder      Seeder

	// injectable for tests, bcrypt with a high cost is slow
	HashFunc       func(password string) (string, error)
	CheckHashFunc  func(password, hash string) bool
	RandStringFunc func(s int) (string, error)
	Now            func() time.Time
}

func NewService(users UsersRepo, sessions *SessionStore, redisClient *redis.Client, seeder Seeder) *Service {
	return &Service{
		users:          users,
		sessions:       sessions,
		redisClient:    redisClient,
		seeder:         seeder,
		HashFunc:       pkg.HashPassword,
		CheckHashFunc:  pkg.CheckPasswordHash,
		RandStringFunc: pkg.GenerateRandomString,
		Now:            time.Now,
	}
}

func validateCredentials(email, password string) error {
	if _, err := mail.ParseAddress(email); err != nil {
		return ErrInvalidEmail
	}
	return validatePassword(password)
}

func validatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return ErrWeakPassword
	}
	if len(password) > pkg.MaxPasswordBytes {
		return pkg.ErrPasswordTooLong
	}
	return nil
}

// SignUp creates the account, seeds its catalogs and signs the user in.
func (s *Service) SignUp(ctx context.Context, email, password, displayName string) (_ *User, _ string, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.auth.signup")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if err := validateCredentials(email, password); err != nil {
		return nil, "", err
	}

	hash, err := s.HashFunc(password)
	if err != nil {
		return nil, "", fmt.Errorf("hash password: %w", err)
	}

	user, err := s.users.Create(ctx, User{
		Email:        email,
		DisplayName:  displayName,
		PasswordHash: hash,
	})
	if err != nil {
		return nil, "", err
	}

	if s.seeder != nil {
		if err := s.seeder.Seed(ctx, user.ID); err != nil {
			// the account is usable without the default catalog entries
			log.Errorf("seed catalogs for user %s: %s", user.ID, err)
		}
	}

	token, err := s.sessions.Create(ctx, user.ID, s.Now())
	if err != nil {
		return nil, "", fmt.Errorf("create session: %w", err)
	}

	return user, token, nil
}

func (s *Service) SignIn(ctx context.Context, email, password string) (_ *User, _ string, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.auth.signin")
	defer func() {
		if errors.Is(err, ErrInvalidCredentials) {
			tracing.EndSpanWithErrCheck(span, nil)
			return
		}
		tracing.EndSpanWithErrCheck(span, err)
	}()

	user, err := s.users.ByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", err
	}

	if !s.CheckHashFunc(password, user.PasswordHash) {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.sessions.Create(ctx, user.ID, s.Now())
	if err != nil {
		return nil, "", fmt.Errorf("create session: %w", err)
	}

	return user, token, nil
}

// SignOut ends the session and returns the id of the user it belonged to.
func (s *Service) SignOut(ctx context.Context, token string) (string, error) {
	return s.sessions.Delete(ctx, token)
}

// ResetPassword issues a reset token for the account, if there is one.
// Unknown emails are not reported, so the endpoint does not reveal which
// accounts exist.
func (s *Service) ResetPassword(ctx context.Context, email string) (_ string, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.auth.reset")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	user, err := s.users.ByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			log.Debugf("password reset requested for unknown email")
			return "", nil
		}
		return "", err
	}

	token, err := s.RandStringFunc(35)
	if err != nil {
		return "", err
	}
	if err := s.redisClient.Set(ctx, resetKeyPrefix+token, user.ID, ResetTokenTTL).Err(); err != nil {
		return "", fmt.Errorf("store reset token: %w", err)
	}

	// there is no mail delivery, the token is only logged
	log.Debugf("password reset token for user %s: %s", user.ID, token)
	return token, nil
}

func (s *Service) ConfirmReset(ctx context.Context, token, newPassword string) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.auth.reset_confirm")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if err := validatePassword(newPassword); err != nil {
		return err
	}

	userID, err := s.redisClient.Get(ctx, resetKeyPrefix+token).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrInvalidResetToken
		}
		return err
	}

	hash, err := s.HashFunc(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.users.UpdatePasswordHash(ctx, userID, hash); err != nil {
		return err
	}

	if err := s.redisClient.Del(ctx, resetKeyPrefix+token).Err(); err != nil {
		log.Errorf("delete used reset token: %s", err)
	}
	return nil
}

func (s *Service) User(ctx context.Context, userID string) (*User, error) {
	return s.users.ByID(ctx, userID)
}

// reauthenticate checks the current password of a signed-in user before an
// account change.
func (s *Service) reauthenticate(ctx context.Context, userID, password string) (*User, error) {
	user, err := s.users.ByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !s.CheckHashFunc(password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

func (s *Service) ChangePassword(ctx context.Context, userID, current, next string) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.auth.change_password")
	defer func() {
		if errors.Is(err, ErrInvalidCredentials) {
			tracing.EndSpanWithErrCheck(span, nil)
			return
		}
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if err := validatePassword(next); err != nil {
		return err
	}
	if _, err := s.reauthenticate(ctx, userID, current); err != nil {
		return err
	}

	hash, err := s.HashFunc(next)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return s.users.UpdatePasswordHash(ctx, userID, hash)
}

// UpdateProfile changes the display name and email of the account. The
// current password is required.
func (s *Service) UpdateProfile(ctx context.Context, userID, displayName, email, password string) (_ *User, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.auth.update_profile")
	defer func() {
		if errors.Is(err, ErrInvalidCredentials) {
			tracing.EndSpanWithErrCheck(span, nil)
			return
		}
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if _, err := mail.ParseAddress(email); err != nil {
		return nil, ErrInvalidEmail
	}
	if _, err := s.reauthenticate(ctx, userID, password); err != nil {
		return nil, err
	}

	if err := s.users.UpdateProfile(ctx, userID, email, strings.TrimSpace(displayName)); err != nil {
		return nil, err
	}
	return s.users.ByID(ctx, userID)
}

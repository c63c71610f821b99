package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/2beens/fitjournal/pkg"

	"github.com/go-redis/redis/v8"
	log "github.com/sirupsen/logrus"
)

const (
	DefaultTTL       = 24 * 7 * time.Hour
	sessionKeyPrefix = "fitjournal:session:"
	tokensSetKey     = "fitjournal:sessions"
)

type LoginSession struct {
	Token     string
	UserID    string
	CreatedAt time.Time
}

func sessionValue(userID string, createdAt time.Time) string {
	return fmt.Sprintf("%d|%s", createdAt.Unix(), userID)
}

func parseSessionValue(token, val string) (LoginSession, error) {
	createdAtStr, userID, ok := strings.Cut(val, "|")
	if !ok || userID == "" {
		return LoginSession{}, fmt.Errorf("malformed session value for token %s", token)
	}
	createdAtUnix, err := strconv.ParseInt(createdAtStr, 10, 64)
	if err != nil {
		return LoginSession{}, fmt.Errorf("parse session created at: %w", err)
	}
	return LoginSession{
		Token:     token,
		UserID:    userID,
		CreatedAt: time.Unix(createdAtUnix, 0),
	}, nil
}

// SessionStore keeps login sessions in redis.
type SessionStore struct {
	redisClient *redis.Client
	ttl         time.Duration
	// ability to inject random string generator func for tokens (for unit and dev testing)
	RandStringFunc func(s int) (string, error)
}

func NewSessionStore(ttl time.Duration, redisClient *redis.Client) *SessionStore {
	return &SessionStore{
		ttl:            ttl,
		redisClient:    redisClient,
		RandStringFunc: pkg.GenerateRandomString,
	}
}

func (s *SessionStore) Create(ctx context.Context, userID string, createdAt time.Time) (string, error) {
	token, err := s.RandStringFunc(35)
	if err != nil {
		return "", err
	}

	sessionKey := sessionKeyPrefix + token
	if err := s.redisClient.Set(ctx, sessionKey, sessionValue(userID, createdAt), 0).Err(); err != nil {
		return "", err
	}

	// add token to list of sessions
	if err := s.redisClient.SAdd(ctx, tokensSetKey, token).Err(); err != nil {
		return "", err
	}

	return token, nil
}

// Delete removes the session and returns the user it belonged to.
func (s *SessionStore) Delete(ctx context.Context, token string) (string, error) {
	sessionKey := sessionKeyPrefix + token
	val, err := s.redisClient.Get(ctx, sessionKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrNoSession
		}
		return "", err
	}

	session, err := parseSessionValue(token, val)
	if err != nil {
		return "", err
	}

	if err := s.redisClient.Del(ctx, sessionKey).Err(); err != nil {
		return "", err
	}

	// remove token from the list of sessions
	if err := s.redisClient.SRem(ctx, tokensSetKey, token).Err(); err != nil {
		return "", err
	}

	return session.UserID, nil
}

// ScanAndClean will run through all sessions, check the TTL, and clean them if old
func (s *SessionStore) ScanAndClean(ctx context.Context) {
	sessionTokens, err := s.redisClient.SMembers(ctx, tokensSetKey).Result()
	if err != nil {
		log.Errorf("!!! auth sessions, scan and clean, get sessions: %s", err)
		return
	}

	if len(sessionTokens) == 0 {
		log.Debugln("=> auth sessions, scan and clean abort, no sessions")
		return
	}

	log.Debugf("=> auth sessions, scan and clean [%d sessions] start ...", len(sessionTokens))
	var toRemove []string
	for _, token := range sessionTokens {
		val, err := s.redisClient.Get(ctx, sessionKeyPrefix+token).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				toRemove = append(toRemove, token)
				continue
			}
			log.Errorf("=> auth sessions, scan and clean token %s: %s", token, err)
			continue
		}

		session, err := parseSessionValue(token, val)
		if err != nil {
			log.Errorf("=> auth sessions, scan and clean token %s: %s", token, err)
			toRemove = append(toRemove, token)
			continue
		}

		if time.Since(session.CreatedAt) > s.ttl {
			log.Debugf("=>\twill clean the session of user: %s", session.UserID)
			toRemove = append(toRemove, token)
		}
	}

	for _, token := range toRemove {
		if err := s.redisClient.Del(ctx, sessionKeyPrefix+token).Err(); err != nil {
			log.Errorf("=> auth sessions, clean token %s: %s", token, err)
			continue
		}

		// remove token from the list of sessions
		if err := s.redisClient.SRem(ctx, tokensSetKey, token).Err(); err != nil {
			log.Errorf("=> auth sessions, clean token %s: %s", token, err)
			continue
		}
	}
}

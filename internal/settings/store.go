package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/2beens/fitjournal/internal/telemetry/tracing"

	"github.com/go-redis/redis/v8"
	log "github.com/sirupsen/logrus"
)

const (
	KeyWeightUnit   = "weightUnit"
	KeyDistanceUnit = "distanceUnit"
	KeyTheme        = "theme"
	KeyPalette      = "palette"

	redisKeyPrefix = "fitjournal:settings:"
)

var (
	ErrUnknownKey   = errors.New("unknown settings key")
	ErrInvalidValue = errors.New("invalid settings value")
)

// Keys lists every preference in a fixed order.
var Keys = []string{KeyWeightUnit, KeyDistanceUnit, KeyTheme, KeyPalette}

var Defaults = map[string]string{
	KeyWeightUnit:   "kg",
	KeyDistanceUnit: "km",
	KeyTheme:        "dark",
	KeyPalette:      "default",
}

var allowed = map[string][]string{
	KeyWeightUnit:   {"kg", "lbs"},
	KeyDistanceUnit: {"km", "mi"},
	KeyTheme:        {"light", "dark"},
	KeyPalette:      {"default", "miami-vice"},
}

type Settings struct {
	WeightUnit   string `json:"weightUnit"`
	DistanceUnit string `json:"distanceUnit"`
	Theme        string `json:"theme"`
	Palette      string `json:"palette"`
	// Loaded is false until the values were read from the store
	Loaded bool `json:"loaded"`
}

func (s *Settings) set(key, value string) {
	switch key {
	case KeyWeightUnit:
		s.WeightUnit = value
	case KeyDistanceUnit:
		s.DistanceUnit = value
	case KeyTheme:
		s.Theme = value
	case KeyPalette:
		s.Palette = value
	}
}

// Validate checks that value is one of the allowed values of key.
func Validate(key, value string) error {
	values, ok := allowed[key]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}
	for _, v := range values {
		if v == value {
			return nil
		}
	}
	return fmt.Errorf("%w: %s=%q", ErrInvalidValue, key, value)
}

// Store keeps user preferences as JSON encoded strings in a redis hash per user.
type Store struct {
	redisClient *redis.Client
}

func NewStore(redisClient *redis.Client) *Store {
	return &Store{
		redisClient: redisClient,
	}
}

func redisKey(userID string) string {
	return redisKeyPrefix + userID
}

// Load reads all preferences. Missing or unreadable values are replaced by
// their defaults, which are written back right away.
func (s *Store) Load(ctx context.Context, userID string) (_ Settings, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.settings.load")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	stored, err := s.redisClient.HGetAll(ctx, redisKey(userID)).Result()
	if err != nil {
		return Settings{}, fmt.Errorf("read settings: %w", err)
	}

	var settings Settings
	var missing []interface{}
	for _, key := range Keys {
		value, ok := decodeValue(stored[key])
		if !ok || Validate(key, value) != nil {
			if raw, found := stored[key]; found {
				log.Warnf("settings: replacing unreadable %s value %q of user %s", key, raw, userID)
			}
			value = Defaults[key]
			missing = append(missing, key, encodeValue(value))
		}
		settings.set(key, value)
	}

	if len(missing) > 0 {
		if err := s.redisClient.HSet(ctx, redisKey(userID), missing...).Err(); err != nil {
			return Settings{}, fmt.Errorf("write default settings: %w", err)
		}
	}

	settings.Loaded = true
	return settings, nil
}

func (s *Store) Set(ctx context.Context, userID, key, value string) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.settings.set")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if err := Validate(key, value); err != nil {
		return err
	}
	if err := s.redisClient.HSet(ctx, redisKey(userID), key, encodeValue(value)).Err(); err != nil {
		return fmt.Errorf("write setting %s: %w", key, err)
	}
	return nil
}

// Reset drops all stored preferences, the next Load writes the defaults.
func (s *Store) Reset(ctx context.Context, userID string) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.settings.reset")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if err := s.redisClient.Del(ctx, redisKey(userID)).Err(); err != nil {
		return fmt.Errorf("reset settings: %w", err)
	}
	return nil
}

func encodeValue(v string) string {
	b, _ := json.Marshal(v)
	return string(b)
}

func decodeValue(raw string) (string, bool) {
	if raw == "" {
		return "", false
	}
	var v string
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return "", false
	}
	return v, true
}

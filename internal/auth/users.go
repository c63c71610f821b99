package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/2beens/fitjournal/internal/telemetry/tracing"
	"github.com/2beens/fitjournal/pkg"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
)

type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	DisplayName  string    `json:"displayName"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

type UsersRepo interface {
	Create(ctx context.Context, user User) (*User, error)
	ByEmail(ctx context.Context, email string) (*User, error)
	ByID(ctx context.Context, id string) (*User, error)
	UpdatePasswordHash(ctx context.Context, id, hash string) error
	UpdateProfile(ctx context.Context, id, email, displayName string) error
}

const UsersSchema = `
CREATE TABLE IF NOT EXISTS app_user
(
    id            VARCHAR PRIMARY KEY,
    email         VARCHAR                  NOT NULL UNIQUE,
    display_name  VARCHAR                  NOT NULL DEFAULT '',
    password_hash VARCHAR                  NOT NULL,
    created_at    TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT now()
);
`

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

type PgUsersRepo struct {
	db *pgxpool.Pool
}

func NewPgUsersRepo(db *pgxpool.Pool) *PgUsersRepo {
	return &PgUsersRepo{
		db: db,
	}
}

func (r *PgUsersRepo) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, UsersSchema); err != nil {
		return fmt.Errorf("create users schema: %w", err)
	}
	return nil
}

func (r *PgUsersRepo) Create(ctx context.Context, user User) (_ *User, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.users.create")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	user.ID = uuid.NewString()
	user.Email = normalizeEmail(user.Email)
	err = r.db.QueryRow(
		ctx,
		`INSERT INTO app_user (id, email, display_name, password_hash)
			VALUES ($1, $2, $3, $4)
			RETURNING created_at;`,
		user.ID, user.Email, user.DisplayName, user.PasswordHash,
	).Scan(&user.CreatedAt)
	if err != nil {
		if pkg.IsUniqueViolationError(err) {
			return nil, ErrEmailInUse
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}

	span.SetAttributes(attribute.String("user.id", user.ID))
	return &user, nil
}

func (r *PgUsersRepo) ByEmail(ctx context.Context, email string) (_ *User, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.users.by_email")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	return r.queryOne(ctx, `WHERE email = $1`, normalizeEmail(email))
}

func (r *PgUsersRepo) ByID(ctx context.Context, id string) (_ *User, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.users.by_id")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	return r.queryOne(ctx, `WHERE id = $1`, id)
}

func (r *PgUsersRepo) queryOne(ctx context.Context, where string, arg any) (*User, error) {
	var u User
	err := r.db.QueryRow(
		ctx,
		`SELECT id, email, display_name, password_hash, created_at FROM app_user `+where+`;`,
		arg,
	).Scan(&u.ID, &u.Email, &u.DisplayName, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("query user: %w", err)
	}
	return &u, nil
}

func (r *PgUsersRepo) UpdatePasswordHash(ctx context.Context, id, hash string) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.users.update_password")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	tag, err := r.db.Exec(ctx, `UPDATE app_user SET password_hash = $1 WHERE id = $2;`, hash, id)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *PgUsersRepo) UpdateProfile(ctx context.Context, id, email, displayName string) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.users.update_profile")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	tag, err := r.db.Exec(
		ctx,
		`UPDATE app_user SET email = $1, display_name = $2 WHERE id = $3;`,
		normalizeEmail(email), displayName, id,
	)
	if err != nil {
		if pkg.IsUniqueViolationError(err) {
			return ErrEmailInUse
		}
		return fmt.Errorf("update profile: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// MemUsersRepo keeps users in memory, for the memory store backend.
type MemUsersRepo struct {
	mu    sync.Mutex
	users map[string]User
	// NewID generates user ids, replaceable in tests
	NewID func() string
}

func NewMemUsersRepo() *MemUsersRepo {
	return &MemUsersRepo{
		users: map[string]User{},
		NewID: uuid.NewString,
	}
}

func (r *MemUsersRepo) Create(_ context.Context, user User) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user.Email = normalizeEmail(user.Email)
	for _, u := range r.users {
		if u.Email == user.Email {
			return nil, ErrEmailInUse
		}
	}
	user.ID = r.NewID()
	user.CreatedAt = time.Now()
	r.users[user.ID] = user
	return &user, nil
}

func (r *MemUsersRepo) ByEmail(_ context.Context, email string) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	email = normalizeEmail(email)
	for _, u := range r.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, ErrUserNotFound
}

func (r *MemUsersRepo) ByID(_ context.Context, id string) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	return &u, nil
}

func (r *MemUsersRepo) UpdatePasswordHash(_ context.Context, id, hash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return ErrUserNotFound
	}
	u.PasswordHash = hash
	r.users[id] = u
	return nil
}

func (r *MemUsersRepo) UpdateProfile(_ context.Context, id, email, displayName string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return ErrUserNotFound
	}
	email = normalizeEmail(email)
	for otherID, other := range r.users {
		if otherID != id && other.Email == email {
			return ErrEmailInUse
		}
	}
	u.Email = email
	u.DisplayName = displayName
	r.users[id] = u
	return nil
}

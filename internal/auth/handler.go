package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/2beens/fitjournal/internal/onboarding"
	"github.com/2beens/fitjournal/internal/telemetry/tracing"
	"github.com/2beens/fitjournal/pkg"

	log "github.com/sirupsen/logrus"
)

//go:generate mockgen -source=$GOFILE -destination=handler_mocks_test.go -package=auth_test

type authService interface {
	SignUp(ctx context.Context, email, password, displayName string) (*User, string, error)
	SignIn(ctx context.Context, email, password string) (*User, string, error)
	SignOut(ctx context.Context, token string) (string, error)
	ResetPassword(ctx context.Context, email string) (string, error)
	ConfirmReset(ctx context.Context, token, newPassword string) error
	User(ctx context.Context, userID string) (*User, error)
	ChangePassword(ctx context.Context, userID, current, next string) error
	UpdateProfile(ctx context.Context, userID, displayName, email, password string) (*User, error)
}

type SignUpRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"displayName"`
}

type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type ResetRequest struct {
	Email string `json:"email"`
}

type ConfirmResetRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

type UpdateProfileRequest struct {
	DisplayName string `json:"displayName"`
	Email       string `json:"email"`
	Password    string `json:"password"`
}

type SessionResponse struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type ValidationErrorResponse struct {
	Errors map[string]string `json:"errors"`
}

type Handler struct {
	service authService
	// called with the user id after a successful sign out
	onSignOut func(userID string)
}

func NewHandler(service authService, onSignOut func(userID string)) *Handler {
	return &Handler{
		service:   service,
		onSignOut: onSignOut,
	}
}

// BearerToken extracts the token of an "Authorization: Bearer <token>" header.
func BearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if !strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		http.Error(w, "invalid content type", http.StatusBadRequest)
		return false
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		log.Tracef("auth handler, unmarshal json: %s", err)
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return false
	}
	return true
}

func credentialErrors(email, password string) map[string]string {
	errs := map[string]string{}
	if strings.TrimSpace(email) == "" {
		errs["email"] = "Email is required."
	}
	if password == "" {
		errs["password"] = "Password is required."
	}
	return errs
}

func writeAuthError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidEmail):
		pkg.WriteJSONResponse(w, ValidationErrorResponse{Errors: map[string]string{"email": "Please enter a valid email address."}}, http.StatusBadRequest)
	case errors.Is(err, ErrWeakPassword):
		pkg.WriteJSONResponse(w, ValidationErrorResponse{Errors: map[string]string{"password": "Password must be at least 6 characters."}}, http.StatusBadRequest)
	case errors.Is(err, pkg.ErrPasswordTooLong):
		pkg.WriteJSONResponse(w, ValidationErrorResponse{Errors: map[string]string{"password": "Password must be at most 72 characters."}}, http.StatusBadRequest)
	case errors.Is(err, ErrInvalidCredentials), errors.Is(err, ErrUserNotFound):
		pkg.WriteJSONResponse(w, ErrorResponse{Error: UserMessage(err)}, http.StatusUnauthorized)
	case errors.Is(err, ErrEmailInUse):
		pkg.WriteJSONResponse(w, ErrorResponse{Error: UserMessage(err)}, http.StatusConflict)
	case errors.Is(err, ErrInvalidResetToken):
		pkg.WriteJSONResponse(w, ErrorResponse{Error: "This reset link is invalid or has expired."}, http.StatusBadRequest)
	default:
		log.Errorf("auth: %s", err)
		pkg.WriteJSONResponse(w, ErrorResponse{Error: UserMessage(err)}, http.StatusInternalServerError)
	}
}

func (handler *Handler) HandleSignUp(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.auth.signup")
	defer span.End()

	var req SignUpRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if errs := credentialErrors(req.Email, req.Password); len(errs) > 0 {
		pkg.WriteJSONResponse(w, ValidationErrorResponse{Errors: errs}, http.StatusBadRequest)
		return
	}

	user, token, err := handler.service.SignUp(ctx, req.Email, req.Password, req.DisplayName)
	if err != nil {
		writeAuthError(w, err)
		return
	}

	log.Debugf("new account: %s", user.ID)
	pkg.WriteJSONResponse(w, SessionResponse{Token: token, User: user}, http.StatusCreated)
}

func (handler *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.auth.login")
	defer span.End()

	var req SignInRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if errs := credentialErrors(req.Email, req.Password); len(errs) > 0 {
		pkg.WriteJSONResponse(w, ValidationErrorResponse{Errors: errs}, http.StatusBadRequest)
		return
	}

	user, token, err := handler.service.SignIn(ctx, req.Email, req.Password)
	if err != nil {
		writeAuthError(w, err)
		return
	}

	pkg.WriteJSONResponse(w, SessionResponse{Token: token, User: user}, http.StatusOK)
}

func (handler *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.auth.logout")
	defer span.End()

	token := BearerToken(r)
	if token == "" {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	userID, err := handler.service.SignOut(ctx, token)
	if err != nil {
		if errors.Is(err, ErrNoSession) {
			http.Error(w, "no can do", http.StatusUnauthorized)
			return
		}
		log.Errorf("logout: %s", err)
		http.Error(w, "logout failed", http.StatusInternalServerError)
		return
	}

	if handler.onSignOut != nil {
		handler.onSignOut(userID)
	}
	onboarding.Clear(w)

	log.Debugf("logout for user %s", userID)
	pkg.WriteTextResponseOK(w, "logged-out")
}

func (handler *Handler) HandleReset(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.auth.reset")
	defer span.End()

	var req ResetRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Email) == "" {
		pkg.WriteJSONResponse(w, ValidationErrorResponse{Errors: map[string]string{"email": "Email is required."}}, http.StatusBadRequest)
		return
	}

	if _, err := handler.service.ResetPassword(ctx, req.Email); err != nil {
		writeAuthError(w, err)
		return
	}

	w.WriteHeader(http.StatusAccepted)
}

func (handler *Handler) HandleConfirmReset(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.auth.reset_confirm")
	defer span.End()

	var req ConfirmResetRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Token == "" {
		http.Error(w, "error, token empty", http.StatusBadRequest)
		return
	}

	if err := handler.service.ConfirmReset(ctx, req.Token, req.Password); err != nil {
		writeAuthError(w, err)
		return
	}

	pkg.WriteTextResponseOK(w, "password-updated")
}

func (handler *Handler) HandleMe(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.auth.me")
	defer span.End()

	userID, ok := UserIDFrom(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	user, err := handler.service.User(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			http.Error(w, "no can do", http.StatusUnauthorized)
			return
		}
		writeAuthError(w, err)
		return
	}

	pkg.WriteJSONResponse(w, user, http.StatusOK)
}

func (handler *Handler) HandleChangePassword(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.auth.change_password")
	defer span.End()

	userID, ok := UserIDFrom(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	var req ChangePasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.CurrentPassword == "" {
		pkg.WriteJSONResponse(w, ValidationErrorResponse{Errors: map[string]string{"currentPassword": "Current password is required."}}, http.StatusBadRequest)
		return
	}

	err := handler.service.ChangePassword(ctx, userID, req.CurrentPassword, req.NewPassword)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			pkg.WriteJSONResponse(w, ValidationErrorResponse{Errors: map[string]string{"currentPassword": "Current password is incorrect."}}, http.StatusBadRequest)
			return
		}
		writeAuthError(w, err)
		return
	}

	log.Debugf("password changed for user %s", userID)
	pkg.WriteTextResponseOK(w, "password-updated")
}

func (handler *Handler) HandleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.auth.update_profile")
	defer span.End()

	userID, ok := UserIDFrom(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	var req UpdateProfileRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if errs := credentialErrors(req.Email, req.Password); len(errs) > 0 {
		pkg.WriteJSONResponse(w, ValidationErrorResponse{Errors: errs}, http.StatusBadRequest)
		return
	}

	user, err := handler.service.UpdateProfile(ctx, userID, req.DisplayName, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			pkg.WriteJSONResponse(w, ValidationErrorResponse{Errors: map[string]string{"password": "Current password is incorrect."}}, http.StatusBadRequest)
			return
		}
		writeAuthError(w, err)
		return
	}

	pkg.WriteJSONResponse(w, user, http.StatusOK)
}

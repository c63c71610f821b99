package settings

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/2beens/fitjournal/internal/auth"
	"github.com/2beens/fitjournal/internal/telemetry/tracing"
	"github.com/2beens/fitjournal/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

type SetRequest struct {
	Value string `json:"value"`
}

type Handler struct {
	store *Store
}

func NewHandler(store *Store) *Handler {
	return &Handler{
		store: store,
	}
}

func (handler *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.settings.get")
	defer span.End()

	userID, ok := auth.UserIDFrom(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	settings, err := handler.store.Load(ctx, userID)
	if err != nil {
		log.Errorf("load settings for %s: %s", userID, err)
		http.Error(w, "error, failed to load settings", http.StatusInternalServerError)
		return
	}
	pkg.WriteJSONResponse(w, settings, http.StatusOK)
}

func (handler *Handler) HandleSet(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.settings.set")
	defer span.End()

	userID, ok := auth.UserIDFrom(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	key := mux.Vars(r)["key"]
	var req SetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if err := handler.store.Set(ctx, userID, key, req.Value); err != nil {
		switch {
		case errors.Is(err, ErrUnknownKey):
			http.Error(w, "unknown setting", http.StatusNotFound)
		case errors.Is(err, ErrInvalidValue):
			pkg.WriteValidationErrors(w, map[string]string{key: "Unsupported value."})
		default:
			log.Errorf("set setting %s for %s: %s", key, userID, err)
			http.Error(w, "error, failed to save setting", http.StatusInternalServerError)
		}
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleReset restores the defaults and returns them.
func (handler *Handler) HandleReset(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.settings.reset")
	defer span.End()

	userID, ok := auth.UserIDFrom(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	if err := handler.store.Reset(ctx, userID); err != nil {
		log.Errorf("reset settings for %s: %s", userID, err)
		http.Error(w, "error, failed to reset settings", http.StatusInternalServerError)
		return
	}

	settings, err := handler.store.Load(ctx, userID)
	if err != nil {
		log.Errorf("load settings for %s: %s", userID, err)
		http.Error(w, "error, failed to load settings", http.StatusInternalServerError)
		return
	}
	pkg.WriteJSONResponse(w, settings, http.StatusOK)
}

package catalog

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/2beens/fitjournal/internal/auth"
	"github.com/2beens/fitjournal/internal/docstore"
	"github.com/2beens/fitjournal/internal/telemetry/tracing"
	"github.com/2beens/fitjournal/internal/workouts"
	"github.com/2beens/fitjournal/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{
		service: service,
	}
}

type DeletedResponse struct {
	DeletedID string `json:"deletedId"`
}

type UpdatedResponse struct {
	UpdatedID string `json:"updatedId"`
}

func userOrUnauthorized(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, ok := auth.UserIDFrom(r.Context())
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return "", false
	}
	return userID, true
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if !strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		http.Error(w, "invalid content type", http.StatusBadRequest)
		return false
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		log.Tracef("catalog, unmarshal json: %s", err)
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return false
	}
	return true
}

var duplicateNameMessages = map[string]string{
	"exercise": "An exercise with this name already exists.",
	"metcon":   "A metcon with this name already exists.",
}

// writeError translates catalog errors, kind is "exercise" or "metcon".
func writeError(w http.ResponseWriter, kind string, err error) {
	var verr workouts.ValidationErrors
	switch {
	case errors.As(err, &verr):
		pkg.WriteValidationErrors(w, verr)
	case errors.Is(err, ErrDuplicateName):
		pkg.WriteValidationErrors(w, map[string]string{"name": duplicateNameMessages[kind]})
	case errors.Is(err, docstore.ErrNotFound):
		http.Error(w, kind+" not found", http.StatusNotFound)
	default:
		log.Errorf("catalog %s: %s", kind, err)
		http.Error(w, "error, "+kind+" request failed", http.StatusInternalServerError)
	}
}

func (handler *Handler) HandleListExercises(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.catalog.exercises")
	defer span.End()

	userID, ok := userOrUnauthorized(w, r)
	if !ok {
		return
	}
	list, err := handler.service.Exercises(ctx, userID)
	if err != nil {
		writeError(w, "exercise", err)
		return
	}
	pkg.WriteJSONResponse(w, list, http.StatusOK)
}

func (handler *Handler) HandleAddExercise(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.catalog.exercises.add")
	defer span.End()

	userID, ok := userOrUnauthorized(w, r)
	if !ok {
		return
	}
	var e workouts.Exercise
	if !decodeBody(w, r, &e) {
		return
	}
	added, err := handler.service.AddExercise(ctx, userID, e)
	if err != nil {
		writeError(w, "exercise", err)
		return
	}
	pkg.WriteJSONResponse(w, added, http.StatusCreated)
}

func (handler *Handler) HandleUpdateExercise(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.catalog.exercises.update")
	defer span.End()

	userID, ok := userOrUnauthorized(w, r)
	if !ok {
		return
	}
	id := mux.Vars(r)["id"]
	if id == "" {
		http.Error(w, "error, id empty", http.StatusBadRequest)
		return
	}
	var e workouts.Exercise
	if !decodeBody(w, r, &e) {
		return
	}
	if err := handler.service.UpdateExercise(ctx, userID, id, e); err != nil {
		writeError(w, "exercise", err)
		return
	}
	pkg.WriteJSONResponse(w, UpdatedResponse{UpdatedID: id}, http.StatusOK)
}

func (handler *Handler) HandleDeleteExercise(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.catalog.exercises.delete")
	defer span.End()

	userID, ok := userOrUnauthorized(w, r)
	if !ok {
		return
	}
	id := mux.Vars(r)["id"]
	if id == "" {
		http.Error(w, "error, id empty", http.StatusBadRequest)
		return
	}
	if err := handler.service.DeleteExercise(ctx, userID, id); err != nil {
		writeError(w, "exercise", err)
		return
	}
	pkg.WriteJSONResponse(w, DeletedResponse{DeletedID: id}, http.StatusOK)
}

func (handler *Handler) HandleListMetcons(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.catalog.metcons")
	defer span.End()

	userID, ok := userOrUnauthorized(w, r)
	if !ok {
		return
	}
	list, err := handler.service.Metcons(ctx, userID)
	if err != nil {
		writeError(w, "metcon", err)
		return
	}
	pkg.WriteJSONResponse(w, list, http.StatusOK)
}

func (handler *Handler) HandleAddMetcon(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.catalog.metcons.add")
	defer span.End()

	userID, ok := userOrUnauthorized(w, r)
	if !ok {
		return
	}
	var m workouts.Metcon
	if !decodeBody(w, r, &m) {
		return
	}
	added, err := handler.service.AddMetcon(ctx, userID, m)
	if err != nil {
		writeError(w, "metcon", err)
		return
	}
	pkg.WriteJSONResponse(w, added, http.StatusCreated)
}

func (handler *Handler) HandleUpdateMetcon(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.catalog.metcons.update")
	defer span.End()

	userID, ok := userOrUnauthorized(w, r)
	if !ok {
		return
	}
	id := mux.Vars(r)["id"]
	if id == "" {
		http.Error(w, "error, id empty", http.StatusBadRequest)
		return
	}
	var m workouts.Metcon
	if !decodeBody(w, r, &m) {
		return
	}
	if err := handler.service.UpdateMetcon(ctx, userID, id, m); err != nil {
		writeError(w, "metcon", err)
		return
	}
	pkg.WriteJSONResponse(w, UpdatedResponse{UpdatedID: id}, http.StatusOK)
}

func (handler *Handler) HandleDeleteMetcon(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.catalog.metcons.delete")
	defer span.End()

	userID, ok := userOrUnauthorized(w, r)
	if !ok {
		return
	}
	id := mux.Vars(r)["id"]
	if id == "" {
		http.Error(w, "error, id empty", http.StatusBadRequest)
		return
	}
	if err := handler.service.DeleteMetcon(ctx, userID, id); err != nil {
		writeError(w, "metcon", err)
		return
	}
	pkg.WriteJSONResponse(w, DeletedResponse{DeletedID: id}, http.StatusOK)
}

package journal

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/2beens/fitjournal/internal/auth"
	"github.com/2beens/fitjournal/internal/bests"
	"github.com/2beens/fitjournal/internal/telemetry/tracing"
	"github.com/2beens/fitjournal/internal/workouts"
	"github.com/2beens/fitjournal/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

//go:generate mockgen -source=$GOFILE -destination=handler_mocks_test.go -package=journal_test

// Journal is what the HTTP layer needs from a Repository.
type Journal interface {
	Loading() bool
	List() []workouts.Workout
	GetByID(id string) (workouts.Workout, bool)
	Bests() []bests.PersonalBest
	Add(ctx context.Context, in workouts.WorkoutInput) error
	Update(ctx context.Context, id string, in workouts.WorkoutInput) error
	Delete(ctx context.Context, id string) error
}

type journalProvider interface {
	Journal(userID string) (Journal, error)
}

type metconCatalog interface {
	MetconTypes(ctx context.Context, userID string) (workouts.MetconLookup, error)
}

type WorkoutsResponse struct {
	Loading  bool               `json:"loading"`
	Workouts []workouts.Workout `json:"workouts"`
}

type BestsResponse struct {
	Loading bool                 `json:"loading"`
	Bests   []bests.PersonalBest `json:"bests"`
}

type AcceptedResponse struct {
	Status string `json:"status"`
	ID     string `json:"id,omitempty"`
}

type Handler struct {
	journals journalProvider
	metcons  metconCatalog
}

func NewHandler(journals journalProvider, metcons metconCatalog) *Handler {
	return &Handler{
		journals: journals,
		metcons:  metcons,
	}
}

func (handler *Handler) journalOf(w http.ResponseWriter, r *http.Request) (string, Journal, bool) {
	userID, ok := auth.UserIDFrom(r.Context())
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return "", nil, false
	}
	j, err := handler.journals.Journal(userID)
	if err != nil {
		log.Errorf("open journal of %s: %s", userID, err)
		http.Error(w, "error, journal not available", http.StatusServiceUnavailable)
		return "", nil, false
	}
	return userID, j, true
}

func (handler *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	_, span := tracing.GlobalTracer.Start(r.Context(), "handler.journal.list")
	defer span.End()

	_, j, ok := handler.journalOf(w, r)
	if !ok {
		return
	}

	if j.Loading() {
		pkg.WriteJSONResponse(w, WorkoutsResponse{Loading: true, Workouts: []workouts.Workout{}}, http.StatusAccepted)
		return
	}
	pkg.WriteJSONResponse(w, WorkoutsResponse{Workouts: j.List()}, http.StatusOK)
}

func (handler *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	_, span := tracing.GlobalTracer.Start(r.Context(), "handler.journal.get")
	defer span.End()

	_, j, ok := handler.journalOf(w, r)
	if !ok {
		return
	}

	id := mux.Vars(r)["id"]
	if wo, found := j.GetByID(id); found {
		pkg.WriteJSONResponse(w, wo, http.StatusOK)
		return
	}
	if j.Loading() {
		pkg.WriteJSONResponse(w, AcceptedResponse{Status: "loading", ID: id}, http.StatusAccepted)
		return
	}
	http.Error(w, "workout not found", http.StatusNotFound)
}

func (handler *Handler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.journal.add")
	defer span.End()

	userID, j, ok := handler.journalOf(w, r)
	if !ok {
		return
	}
	in, ok := handler.decodeAndValidate(ctx, w, r, userID)
	if !ok {
		return
	}

	if err := j.Add(ctx, in); err != nil {
		writeWriteError(w, err)
		return
	}
	pkg.WriteJSONResponse(w, AcceptedResponse{Status: "accepted"}, http.StatusAccepted)
}

func (handler *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.journal.update")
	defer span.End()

	userID, j, ok := handler.journalOf(w, r)
	if !ok {
		return
	}
	id := mux.Vars(r)["id"]
	in, ok := handler.decodeAndValidate(ctx, w, r, userID)
	if !ok {
		return
	}

	if err := j.Update(ctx, id, in); err != nil {
		writeWriteError(w, err)
		return
	}
	pkg.WriteJSONResponse(w, AcceptedResponse{Status: "accepted", ID: id}, http.StatusAccepted)
}

func (handler *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.journal.delete")
	defer span.End()

	_, j, ok := handler.journalOf(w, r)
	if !ok {
		return
	}
	id := mux.Vars(r)["id"]
	if err := j.Delete(ctx, id); err != nil {
		writeWriteError(w, err)
		return
	}
	pkg.WriteJSONResponse(w, AcceptedResponse{Status: "accepted", ID: id}, http.StatusAccepted)
}

func (handler *Handler) HandleBests(w http.ResponseWriter, r *http.Request) {
	_, span := tracing.GlobalTracer.Start(r.Context(), "handler.journal.bests")
	defer span.End()

	kind := bests.KindAll
	if t := r.URL.Query().Get("type"); t != "" {
		kind = bests.Kind(t)
	}
	if !kind.IsValid() {
		pkg.WriteValidationErrors(w, map[string]string{"type": "Type must be all, strength, cardio or metcon."})
		return
	}

	_, j, ok := handler.journalOf(w, r)
	if !ok {
		return
	}
	if j.Loading() {
		pkg.WriteJSONResponse(w, BestsResponse{Loading: true, Bests: []bests.PersonalBest{}}, http.StatusAccepted)
		return
	}

	pbs := bests.Filter(j.Bests(), kind, r.URL.Query().Get("q"))
	pkg.WriteJSONResponse(w, BestsResponse{Bests: pbs}, http.StatusOK)
}

func (handler *Handler) decodeAndValidate(ctx context.Context, w http.ResponseWriter, r *http.Request, userID string) (workouts.WorkoutInput, bool) {
	var in workouts.WorkoutInput
	if !strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		http.Error(w, "invalid content type", http.StatusBadRequest)
		return in, false
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		log.Tracef("journal, unmarshal workout: %s", err)
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return in, false
	}

	// metcon workouts are checked against the catalog: the name must exist
	// and the score type must match the type of the metcon
	var metcons workouts.MetconLookup
	if in.Type == workouts.TypeMetcon && handler.metcons != nil {
		lookup, err := handler.metcons.MetconTypes(ctx, userID)
		if err != nil {
			log.Errorf("journal, load metcons of %s: %s", userID, err)
			http.Error(w, "error, failed to load metcons", http.StatusInternalServerError)
			return in, false
		}
		metcons = lookup
	}

	if err := workouts.ValidateInput(in, metcons); err != nil {
		var verr workouts.ValidationErrors
		if errors.As(err, &verr) {
			pkg.WriteValidationErrors(w, verr)
		} else {
			http.Error(w, err.Error(), http.StatusBadRequest)
		}
		return in, false
	}
	return in, true
}

func writeWriteError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, workouts.ErrInvalidDate):
		pkg.WriteValidationErrors(w, map[string]string{"date": "Date must be in yyyy-MM-dd format."})
	case errors.Is(err, ErrClosed):
		http.Error(w, "error, journal closed", http.StatusServiceUnavailable)
	default:
		log.Errorf("journal write: %s", err)
		http.Error(w, "error, failed to save workout", http.StatusInternalServerError)
	}
}

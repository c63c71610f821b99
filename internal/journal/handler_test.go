package journal_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/2beens/fitjournal/internal/auth"
	"github.com/2beens/fitjournal/internal/bests"
	"github.com/2beens/fitjournal/internal/journal"
	"github.com/2beens/fitjournal/internal/workouts"

	"github.com/golang/mock/gomock"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type handlerFixture struct {
	handler  *journal.Handler
	journals *MockjournalProvider
	journal  *MockJournal
	metcons  *MockmetconCatalog
}

func newHandlerFixture(t *testing.T) handlerFixture {
	ctrl := gomock.NewController(t)
	f := handlerFixture{
		journals: NewMockjournalProvider(ctrl),
		journal:  NewMockJournal(ctrl),
		metcons:  NewMockmetconCatalog(ctrl),
	}
	f.handler = journal.NewHandler(f.journals, f.metcons)
	f.journals.EXPECT().Journal("u1").Return(f.journal, nil).AnyTimes()
	return f
}

func request(t *testing.T, method, target string, body any, vars map[string]string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	req = req.WithContext(auth.WithUserID(req.Context(), "u1"))
	if vars != nil {
		req = mux.SetURLVars(req, vars)
	}
	return req
}

func validationErrors(t *testing.T, rr *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var resp struct {
		Errors map[string]string `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	return resp.Errors
}

func TestHandler_Unauthorized(t *testing.T) {
	f := newHandlerFixture(t)
	req := httptest.NewRequest(http.MethodGet, "/workouts", nil)
	rr := httptest.NewRecorder()
	f.handler.HandleList(rr, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestHandler_JournalUnavailable(t *testing.T) {
	ctrl := gomock.NewController(t)
	journals := NewMockjournalProvider(ctrl)
	journals.EXPECT().Journal("u1").Return(nil, journal.ErrClosed)
	h := journal.NewHandler(journals, nil)

	rr := httptest.NewRecorder()
	h.HandleList(rr, request(t, http.MethodGet, "/workouts", nil, nil))
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

func TestHandler_HandleList(t *testing.T) {
	f := newHandlerFixture(t)

	f.journal.EXPECT().Loading().Return(true)
	rr := httptest.NewRecorder()
	f.handler.HandleList(rr, request(t, http.MethodGet, "/workouts", nil, nil))
	assert.Equal(t, http.StatusAccepted, rr.Code)
	assert.JSONEq(t, `{"loading": true, "workouts": []}`, rr.Body.String())

	f.journal.EXPECT().Loading().Return(false)
	f.journal.EXPECT().List().Return([]workouts.Workout{squat("2024-01-05", 100)})
	rr = httptest.NewRecorder()
	f.handler.HandleList(rr, request(t, http.MethodGet, "/workouts", nil, nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var resp journal.WorkoutsResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.False(t, resp.Loading)
	require.Len(t, resp.Workouts, 1)
	assert.Equal(t, "2024-01-05", resp.Workouts[0].Date)
}

func TestHandler_HandleGet(t *testing.T) {
	f := newHandlerFixture(t)
	vars := map[string]string{"id": "w1"}

	w := squat("2024-01-05", 100)
	w.ID = "w1"
	f.journal.EXPECT().GetByID("w1").Return(w, true)
	rr := httptest.NewRecorder()
	f.handler.HandleGet(rr, request(t, http.MethodGet, "/workouts/w1", nil, vars))
	require.Equal(t, http.StatusOK, rr.Code)

	// not there yet, still loading
	f.journal.EXPECT().GetByID("w1").Return(workouts.Workout{}, false)
	f.journal.EXPECT().Loading().Return(true)
	rr = httptest.NewRecorder()
	f.handler.HandleGet(rr, request(t, http.MethodGet, "/workouts/w1", nil, vars))
	assert.Equal(t, http.StatusAccepted, rr.Code)

	f.journal.EXPECT().GetByID("w1").Return(workouts.Workout{}, false)
	f.journal.EXPECT().Loading().Return(false)
	rr = httptest.NewRecorder()
	f.handler.HandleGet(rr, request(t, http.MethodGet, "/workouts/w1", nil, vars))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestHandler_HandleAdd(t *testing.T) {
	f := newHandlerFixture(t)

	in := squatInput(workouts.DateString("2024-05-01"), 80)
	f.journal.EXPECT().Add(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ interface{}, got workouts.WorkoutInput) error {
			assert.Equal(t, workouts.TypeTraditional, got.Type)
			assert.Equal(t, "Squat", got.Strength[0].ExerciseName)
			return nil
		})
	rr := httptest.NewRecorder()
	f.handler.HandleAdd(rr, request(t, http.MethodPost, "/workouts", in, nil))
	assert.Equal(t, http.StatusAccepted, rr.Code)

	// validation failures never reach the journal
	bad := in
	bad.TimeOfDay = ""
	bad.Strength = []workouts.StrengthLog{{ExerciseName: "Squat", Sets: []workouts.TraditionalSet{{Reps: 0, Weight: 50}}}}
	rr = httptest.NewRecorder()
	f.handler.HandleAdd(rr, request(t, http.MethodPost, "/workouts", bad, nil))
	require.Equal(t, http.StatusBadRequest, rr.Code)
	errs := validationErrors(t, rr)
	assert.Contains(t, errs, "timeOfDay")
	assert.Contains(t, errs, "strength.0.sets.0.reps")
}

func TestHandler_HandleAdd_Metcon(t *testing.T) {
	f := newHandlerFixture(t)
	known := func(name string) (workouts.MetconType, bool) {
		if name == "Fran" {
			return workouts.MetconForTime, true
		}
		return "", false
	}
	f.metcons.EXPECT().MetconTypes(gomock.Any(), "u1").Return(workouts.MetconLookup(known), nil).Times(3)

	in := workouts.WorkoutInput{
		Type:        workouts.TypeMetcon,
		Date:        workouts.DateString("2024-05-01"),
		TimeOfDay:   workouts.Morning,
		WorkoutName: "Fran",
		Score:       &workouts.Score{Type: workouts.ScoreTime, Value: "4:12"},
	}
	f.journal.EXPECT().Add(gomock.Any(), gomock.Any()).Return(nil)
	rr := httptest.NewRecorder()
	f.handler.HandleAdd(rr, request(t, http.MethodPost, "/workouts", in, nil))
	assert.Equal(t, http.StatusAccepted, rr.Code)

	in.WorkoutName = "Karen"
	rr = httptest.NewRecorder()
	f.handler.HandleAdd(rr, request(t, http.MethodPost, "/workouts", in, nil))
	require.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "Please select a valid Metcon workout.", validationErrors(t, rr)["workoutName"])

	// Fran is for time, a rounds score does not fit it
	in.WorkoutName = "Fran"
	in.Score = &workouts.Score{Type: workouts.ScoreRounds, Value: "12+3"}
	rr = httptest.NewRecorder()
	f.handler.HandleAdd(rr, request(t, http.MethodPost, "/workouts", in, nil))
	require.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "Score type must be time for For Time metcons.", validationErrors(t, rr)["score.type"])
}

func TestHandler_HandleAdd_BadBody(t *testing.T) {
	f := newHandlerFixture(t)

	req := request(t, http.MethodPost, "/workouts", nil, nil)
	req.Header.Set("Content-Type", "text/plain")
	rr := httptest.NewRecorder()
	f.handler.HandleAdd(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	req = httptest.NewRequest(http.MethodPost, "/workouts", bytes.NewBufferString(`{"date": 5}`))
	req.Header.Set("Content-Type", "application/json")
	req = req.WithContext(auth.WithUserID(req.Context(), "u1"))
	rr = httptest.NewRecorder()
	f.handler.HandleAdd(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestHandler_HandleUpdateAndDelete(t *testing.T) {
	f := newHandlerFixture(t)
	vars := map[string]string{"id": "w1"}

	f.journal.EXPECT().Update(gomock.Any(), "w1", gomock.Any()).Return(nil)
	rr := httptest.NewRecorder()
	f.handler.HandleUpdate(rr, request(t, http.MethodPut, "/workouts/w1", squatInput(workouts.DateString("2024-05-01"), 80), vars))
	assert.Equal(t, http.StatusAccepted, rr.Code)
	assert.JSONEq(t, `{"status": "accepted", "id": "w1"}`, rr.Body.String())

	f.journal.EXPECT().Delete(gomock.Any(), "w1").Return(nil)
	rr = httptest.NewRecorder()
	f.handler.HandleDelete(rr, request(t, http.MethodDelete, "/workouts/w1", nil, vars))
	assert.Equal(t, http.StatusAccepted, rr.Code)

	f.journal.EXPECT().Delete(gomock.Any(), "w1").Return(journal.ErrClosed)
	rr = httptest.NewRecorder()
	f.handler.HandleDelete(rr, request(t, http.MethodDelete, "/workouts/w1", nil, vars))
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)

	f.journal.EXPECT().Delete(gomock.Any(), "w1").Return(errors.New("marshal failed"))
	rr = httptest.NewRecorder()
	f.handler.HandleDelete(rr, request(t, http.MethodDelete, "/workouts/w1", nil, vars))
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}

func TestHandler_HandleBests(t *testing.T) {
	f := newHandlerFixture(t)
	pbs := []bests.PersonalBest{
		{Name: "Fran", Type: bests.KindMetcon, Date: "2024-01-02", Best: bests.MetconBest{Value: "3:59", Type: workouts.ScoreTime}},
		{Name: "Front Squat", Type: bests.KindStrength, Date: "2024-01-03", Best: bests.StrengthBest{Weight: 90, Reps: 2}},
		{Name: "Squat", Type: bests.KindStrength, Date: "2024-01-04", Best: bests.StrengthBest{Weight: 140, Reps: 1}},
	}

	rr := httptest.NewRecorder()
	f.handler.HandleBests(rr, request(t, http.MethodGet, "/bests?type=yoga", nil, nil))
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	f.journal.EXPECT().Loading().Return(true)
	rr = httptest.NewRecorder()
	f.handler.HandleBests(rr, request(t, http.MethodGet, "/bests", nil, nil))
	assert.Equal(t, http.StatusAccepted, rr.Code)

	f.journal.EXPECT().Loading().Return(false).Times(2)
	f.journal.EXPECT().Bests().Return(pbs).Times(2)

	rr = httptest.NewRecorder()
	f.handler.HandleBests(rr, request(t, http.MethodGet, "/bests?type=strength&q=SQUAT", nil, nil))
	require.Equal(t, http.StatusOK, rr.Code)
	var resp journal.BestsResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Len(t, resp.Bests, 2)
	assert.Equal(t, "Front Squat", resp.Bests[0].Name)
	assert.Equal(t, bests.StrengthBest{Weight: 140, Reps: 1}, resp.Bests[1].Best)

	rr = httptest.NewRecorder()
	f.handler.HandleBests(rr, request(t, http.MethodGet, "/bests", nil, nil))
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Len(t, resp.Bests, 3)
}

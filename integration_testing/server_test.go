package integration_testing

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/2beens/fitjournal/internal/auth"
	"github.com/2beens/fitjournal/internal/bests"
	"github.com/2beens/fitjournal/internal/docstore"
	"github.com/2beens/fitjournal/internal/journal"
	"github.com/2beens/fitjournal/internal/settings"
	"github.com/2beens/fitjournal/internal/workouts"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type IntegrationTestSuite struct {
	suite.Suite
	env *Suite
}

func TestIntegrationTestSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("integration tests need docker")
	}
	suite.Run(t, new(IntegrationTestSuite))
}

func (s *IntegrationTestSuite) SetupSuite() {
	s.env = newSuite(context.Background())
}

func (s *IntegrationTestSuite) TearDownSuite() {
	s.env.cleanup()
}

func (s *IntegrationTestSuite) do(ctx context.Context, method, path, token string, body any) *http.Response {
	t := s.T()

	var reqBody io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reqBody = bytes.NewBuffer(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, serverEndpoint+path, reqBody)
	require.NoError(t, err)
	req.Header.Set("User-Agent", "test-agent")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func (s *IntegrationTestSuite) signUp(ctx context.Context) auth.SessionResponse {
	t := s.T()
	resp := s.do(ctx, "POST", "/a/signup", "", auth.SignUpRequest{
		Email:       gofakeit.Email(),
		Password:    gofakeit.Password(true, true, true, false, false, 12),
		DisplayName: gofakeit.FirstName(),
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var session auth.SessionResponse
	decodeBody(t, resp, &session)
	require.NotEmpty(t, session.Token)
	require.NotNil(t, session.User)
	return session
}

func (s *IntegrationTestSuite) TestVersion() {
	t := s.T()
	resp := s.do(context.Background(), "GET", "/", "", nil)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "fitjournal test-version-info", string(b))
}

func (s *IntegrationTestSuite) TestUnauthorized() {
	t := s.T()
	ctx := context.Background()

	for _, path := range []string{"/workouts", "/bests", "/exercises", "/settings"} {
		resp := s.do(ctx, "GET", path, "", nil)
		resp.Body.Close()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, path)
	}

	resp := s.do(ctx, "GET", "/workouts", "not-a-session", nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func (s *IntegrationTestSuite) TestSignUp_SeedsCatalog() {
	t := s.T()
	ctx := context.Background()
	session := s.signUp(ctx)

	resp := s.do(ctx, "GET", "/exercises", session.Token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var exercises []workouts.Exercise
	decodeBody(t, resp, &exercises)
	assert.NotEmpty(t, exercises)

	resp = s.do(ctx, "GET", "/metcons", session.Token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var metcons []workouts.Metcon
	decodeBody(t, resp, &metcons)
	assert.NotEmpty(t, metcons)

	var count int
	require.NoError(t, s.env.DB.QueryRow(
		"SELECT count(*) FROM document WHERE user_id = $1 AND collection = $2",
		session.User.ID, "exercises",
	).Scan(&count))
	assert.Equal(t, len(exercises), count)
}

func (s *IntegrationTestSuite) TestWorkoutsFlow() {
	t := s.T()
	ctx := context.Background()
	session := s.signUp(ctx)

	in := workouts.WorkoutInput{
		Type:      workouts.TypeTraditional,
		Date:      workouts.DateString("2024-03-05"),
		TimeOfDay: workouts.Morning,
		Strength: []workouts.StrengthLog{{
			ExerciseName: "Squat",
			Sets: []workouts.TraditionalSet{
				{Reps: 5, Weight: 100},
				{Reps: 3, Weight: 110},
			},
		}},
	}
	resp := s.do(ctx, "POST", "/workouts", session.Token, in)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	resp.Body.Close()

	var list journal.WorkoutsResponse
	require.Eventually(t, func() bool {
		resp := s.do(ctx, "GET", "/workouts", session.Token, nil)
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return false
		}
		list = journal.WorkoutsResponse{}
		decodeBody(t, resp, &list)
		return len(list.Workouts) == 1
	}, 10*time.Second, 100*time.Millisecond)

	saved := list.Workouts[0]
	assert.NotEmpty(t, saved.ID)
	assert.Equal(t, "2024-03-05", saved.Date)
	require.Len(t, saved.Strength, 1)
	assert.NotEmpty(t, saved.Strength[0].ID)

	resp = s.do(ctx, "GET", "/workouts/"+saved.ID, session.Token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = s.do(ctx, "GET", "/bests?type=strength", session.Token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var bestsResp journal.BestsResponse
	decodeBody(t, resp, &bestsResp)
	require.Len(t, bestsResp.Bests, 1)
	assert.Equal(t, "Squat", bestsResp.Bests[0].Name)
	assert.Equal(t, bests.StrengthBest{Weight: 110, Reps: 3}, bestsResp.Bests[0].Best)

	resp = s.do(ctx, "DELETE", "/workouts/"+saved.ID, session.Token, nil)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	resp.Body.Close()

	require.Eventually(t, func() bool {
		var count int
		err := s.env.DB.QueryRow(
			"SELECT count(*) FROM document WHERE user_id = $1 AND collection = $2",
			session.User.ID, "workouts",
		).Scan(&count)
		return err == nil && count == 0
	}, 10*time.Second, 100*time.Millisecond)
}

func (s *IntegrationTestSuite) TestAddWorkout_Invalid() {
	t := s.T()
	ctx := context.Background()
	session := s.signUp(ctx)

	in := workouts.WorkoutInput{
		Type:        workouts.TypeMetcon,
		Date:        workouts.DateString("2024-03-05"),
		TimeOfDay:   workouts.Night,
		WorkoutName: "Not In The Catalog",
		Score:       &workouts.Score{Type: workouts.ScoreTime, Value: "5:00"},
	}
	resp := s.do(ctx, "POST", "/workouts", session.Token, in)
	defer resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var errsResp struct {
		Errors map[string]string `json:"errors"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&errsResp))
	assert.Contains(t, errsResp.Errors, "workoutName")
}

func (s *IntegrationTestSuite) TestSettings() {
	t := s.T()
	ctx := context.Background()
	session := s.signUp(ctx)

	resp := s.do(ctx, "GET", "/settings", session.Token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var got settings.Settings
	decodeBody(t, resp, &got)
	assert.Equal(t, settings.Defaults[settings.KeyWeightUnit], got.WeightUnit)

	resp = s.do(ctx, "PUT", fmt.Sprintf("/settings/%s", settings.KeyWeightUnit), session.Token, settings.SetRequest{Value: "lbs"})
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp.Body.Close()

	resp = s.do(ctx, "GET", "/settings", session.Token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decodeBody(t, resp, &got)
	assert.Equal(t, "lbs", got.WeightUnit)

	resp = s.do(ctx, "PUT", "/settings/nope", session.Token, settings.SetRequest{Value: "x"})
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func (s *IntegrationTestSuite) TestLoginLogout() {
	t := s.T()
	ctx := context.Background()

	email := gofakeit.Email()
	password := gofakeit.Password(true, true, true, false, false, 12)
	resp := s.do(ctx, "POST", "/a/signup", "", auth.SignUpRequest{Email: email, Password: password})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp = s.do(ctx, "POST", "/a/login", "", auth.SignInRequest{Email: email, Password: "wrong-password"})
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = s.do(ctx, "POST", "/a/login", "", auth.SignInRequest{Email: email, Password: password})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var session auth.SessionResponse
	decodeBody(t, resp, &session)
	require.NotEmpty(t, session.Token)

	resp = s.do(ctx, "GET", "/workouts", session.Token, nil)
	resp.Body.Close()
	assert.Contains(t, []int{http.StatusOK, http.StatusAccepted}, resp.StatusCode)

	resp = s.do(ctx, "POST", "/a/logout", session.Token, nil)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = s.do(ctx, "GET", "/workouts", session.Token, nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func (s *IntegrationTestSuite) TestJournalsShareChangeSubscription() {
	t := s.T()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		session := s.signUp(ctx)
		resp := s.do(ctx, "GET", "/workouts", session.Token, nil)
		resp.Body.Close()
		require.Contains(t, []int{http.StatusOK, http.StatusAccepted}, resp.StatusCode)
	}

	rdb := redis.NewClient(&redis.Options{Addr: "localhost:" + s.env.redisPort})
	defer rdb.Close()
	subscribers, err := rdb.PubSubNumSub(ctx, docstore.ChangesChannel).Result()
	require.NoError(t, err)
	assert.Equal(t, int64(1), subscribers[docstore.ChangesChannel])
}

func (s *IntegrationTestSuite) TestAccount() {
	t := s.T()
	ctx := context.Background()

	resp := s.do(ctx, "GET", "/a/me", "", nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	password := "first-secret"
	email := gofakeit.Email()
	resp = s.do(ctx, "POST", "/a/signup", "", auth.SignUpRequest{Email: email, Password: password, DisplayName: "Jo"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var session auth.SessionResponse
	decodeBody(t, resp, &session)

	resp = s.do(ctx, "GET", "/a/me", session.Token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var me auth.User
	decodeBody(t, resp, &me)
	assert.Equal(t, session.User.ID, me.ID)
	assert.Equal(t, "Jo", me.DisplayName)

	resp = s.do(ctx, "POST", "/a/password", session.Token, auth.ChangePasswordRequest{CurrentPassword: "wrong-one", NewPassword: "second-secret"})
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp = s.do(ctx, "POST", "/a/password", session.Token, auth.ChangePasswordRequest{CurrentPassword: password, NewPassword: "second-secret"})
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	newEmail := "renamed." + email
	resp = s.do(ctx, "PUT", "/a/profile", session.Token, auth.UpdateProfileRequest{DisplayName: "Joanna", Email: newEmail, Password: "second-secret"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var updated auth.User
	decodeBody(t, resp, &updated)
	assert.Equal(t, "Joanna", updated.DisplayName)

	resp = s.do(ctx, "POST", "/a/login", "", auth.SignInRequest{Email: newEmail, Password: "second-secret"})
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp = s.do(ctx, "POST", "/a/login", "", auth.SignInRequest{Email: email, Password: "second-secret"})
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

package bests_test

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/2beens/fitjournal/internal/bests"
	"github.com/2beens/fitjournal/internal/workouts"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func km(v float64) *float64 {
	return &v
}

func strengthWorkout(id, date, exercise string, sets ...workouts.TraditionalSet) workouts.Workout {
	return workouts.Workout{
		ID:        id,
		Type:      workouts.TypeTraditional,
		Date:      date,
		TimeOfDay: workouts.Morning,
		Strength:  []workouts.StrengthLog{{ID: id + "-s", ExerciseName: exercise, Sets: sets}},
	}
}

func cardioWorkout(id, date, exercise string, duration float64, distance *float64) workouts.Workout {
	return workouts.Workout{
		ID:        id,
		Type:      workouts.TypeTraditional,
		Date:      date,
		TimeOfDay: workouts.Day,
		Cardio:    []workouts.CardioLog{{ID: id + "-c", ExerciseName: exercise, Duration: duration, Distance: distance}},
	}
}

func metconWorkout(id, date, name string, scoreType workouts.ScoreType, value string) workouts.Workout {
	return workouts.Workout{
		ID:          id,
		Type:        workouts.TypeMetcon,
		Date:        date,
		TimeOfDay:   workouts.Night,
		WorkoutName: name,
		Score:       &workouts.Score{Type: scoreType, Value: value},
	}
}

func TestCompute_Empty(t *testing.T) {
	pbs := bests.Compute(nil)
	require.NotNil(t, pbs)
	assert.Empty(t, pbs)
}

func TestCompute_Strength(t *testing.T) {
	pbs := bests.Compute([]workouts.Workout{
		strengthWorkout("w1", "2024-01-01", "Squat", workouts.TraditionalSet{Weight: 100, Reps: 5}),
		strengthWorkout("w2", "2024-01-08", "Squat", workouts.TraditionalSet{Weight: 120, Reps: 3}),
	})

	require.Len(t, pbs, 1)
	assert.Equal(t, "Squat", pbs[0].Name)
	assert.Equal(t, bests.KindStrength, pbs[0].Type)
	assert.Equal(t, "2024-01-08", pbs[0].Date)
	assert.Equal(t, bests.StrengthBest{Weight: 120, Reps: 3}, pbs[0].Best)
}

func TestCompute_Strength_HeaviestSetWithinLog(t *testing.T) {
	pbs := bests.Compute([]workouts.Workout{
		strengthWorkout("w1", "2024-01-01", "Deadlift",
			workouts.TraditionalSet{Weight: 140, Reps: 5},
			workouts.TraditionalSet{Weight: 160, Reps: 2},
			workouts.TraditionalSet{Weight: 160, Reps: 1},
		),
	})
	require.Len(t, pbs, 1)
	assert.Equal(t, bests.StrengthBest{Weight: 160, Reps: 2}, pbs[0].Best)
}

func TestCompute_Strength_ZeroWeightIgnored(t *testing.T) {
	pbs := bests.Compute([]workouts.Workout{
		strengthWorkout("w1", "2024-01-01", "Pull-up", workouts.TraditionalSet{Weight: 0, Reps: 12}),
	})
	assert.Empty(t, pbs)
}

func TestCompute_Strength_TieKeepsEarlierDate(t *testing.T) {
	ws := []workouts.Workout{
		strengthWorkout("b", "2024-03-01", "Bench Press", workouts.TraditionalSet{Weight: 80, Reps: 5}),
		strengthWorkout("a", "2024-02-01", "Bench Press", workouts.TraditionalSet{Weight: 80, Reps: 3}),
	}
	pbs := bests.Compute(ws)
	require.Len(t, pbs, 1)
	assert.Equal(t, "2024-02-01", pbs[0].Date)
	assert.Equal(t, bests.StrengthBest{Weight: 80, Reps: 3}, pbs[0].Best)
}

func TestCompute_Cardio(t *testing.T) {
	pbs := bests.Compute([]workouts.Workout{
		cardioWorkout("w1", "2024-01-01", "Treadmill Run", 30, km(5)),
		cardioWorkout("w2", "2024-01-02", "Treadmill Run", 0, km(5)),
		cardioWorkout("w3", "2024-01-03", "Treadmill Run", 20, nil),
		cardioWorkout("w4", "2024-01-04", "Treadmill Run", 20, km(0)),
		cardioWorkout("w5", "2024-01-05", "Treadmill Run", 55, km(10)),
		cardioWorkout("w6", "2024-01-06", "Treadmill Run", 52.5, km(10)),
	})

	require.Len(t, pbs, 2)
	assert.Equal(t, "Treadmill Run (10 km)", pbs[0].Name)
	assert.Equal(t, bests.CardioBest{Time: 52.5, Distance: 10}, pbs[0].Best)
	assert.Equal(t, "2024-01-06", pbs[0].Date)
	assert.Equal(t, "Treadmill Run (5 km)", pbs[1].Name)
	assert.Equal(t, bests.CardioBest{Time: 30, Distance: 5}, pbs[1].Best)
}

func TestCompute_Metcon(t *testing.T) {
	pbs := bests.Compute([]workouts.Workout{
		metconWorkout("w1", "2024-01-01", "Fran", workouts.ScoreTime, "5:00"),
		metconWorkout("w2", "2024-01-08", "Fran", workouts.ScoreTime, "4:30"),
	})
	require.Len(t, pbs, 1)
	assert.Equal(t, bests.MetconBest{Value: "4:30", Type: workouts.ScoreTime}, pbs[0].Best)
	assert.Equal(t, "2024-01-08", pbs[0].Date)
}

func TestCompute_Metcon_TimeIsDurationAware(t *testing.T) {
	pbs := bests.Compute([]workouts.Workout{
		metconWorkout("w1", "2024-01-01", "Grace", workouts.ScoreTime, "10:00"),
		metconWorkout("w2", "2024-01-08", "Grace", workouts.ScoreTime, "9:59"),
	})
	require.Len(t, pbs, 1)
	assert.Equal(t, "9:59", pbs[0].Best.(bests.MetconBest).Value)
}

func TestCompute_Metcon_RoundsAndUnparseable(t *testing.T) {
	pbs := bests.Compute([]workouts.Workout{
		metconWorkout("w1", "2024-01-01", "Cindy", workouts.ScoreRounds, "18"),
		metconWorkout("w2", "2024-01-02", "Cindy", workouts.ScoreRounds, "a lot"),
		metconWorkout("w3", "2024-01-03", "Cindy", workouts.ScoreRounds, "21.5"),
		metconWorkout("w4", "2024-01-04", "Cindy", workouts.ScoreRounds, "20"),
		metconWorkout("w5", "2024-01-05", "Murph", workouts.ScoreTime, "slow"),
	})
	require.Len(t, pbs, 2)
	assert.Equal(t, "Cindy", pbs[0].Name)
	assert.Equal(t, "21.5", pbs[0].Best.(bests.MetconBest).Value)
	// the only score is unparseable, it still counts as the first occurrence
	assert.Equal(t, "Murph", pbs[1].Name)
	assert.Equal(t, "slow", pbs[1].Best.(bests.MetconBest).Value)
}

func TestCompute_SortedByName(t *testing.T) {
	pbs := bests.Compute([]workouts.Workout{
		strengthWorkout("w1", "2024-01-01", "Squat", workouts.TraditionalSet{Weight: 100, Reps: 5}),
		metconWorkout("w2", "2024-01-01", "Fran", workouts.ScoreTime, "4:00"),
		strengthWorkout("w3", "2024-01-01", "Bench Press", workouts.TraditionalSet{Weight: 70, Reps: 5}),
		cardioWorkout("w4", "2024-01-01", "Rowing Machine", 8, km(2)),
	})
	var names []string
	for _, pb := range pbs {
		names = append(names, pb.Name)
	}
	assert.Equal(t, []string{"Bench Press", "Fran", "Rowing Machine (2 km)", "Squat"}, names)
}

func randomHistory(faker *gofakeit.Faker, n int) []workouts.Workout {
	exercises := []string{"Squat", "Bench Press", "Deadlift"}
	cardio := []string{"Treadmill Run", "Stationary Bike"}
	metcons := []string{"Fran", "Cindy", "Grace"}
	scoreTypes := map[string]workouts.ScoreType{
		"Fran": workouts.ScoreTime, "Cindy": workouts.ScoreRounds, "Grace": workouts.ScoreTime,
	}

	var ws []workouts.Workout
	for i := 0; i < n; i++ {
		id := fmt.Sprintf("w%03d", i)
		date := fmt.Sprintf("2024-%02d-%02d", faker.IntRange(1, 3), faker.IntRange(1, 5))
		switch faker.IntRange(0, 2) {
		case 0:
			var sets []workouts.TraditionalSet
			for j := 0; j < faker.IntRange(1, 4); j++ {
				// coarse weights so ties actually happen
				sets = append(sets, workouts.TraditionalSet{
					Weight: float64(faker.IntRange(0, 6) * 20),
					Reps:   faker.IntRange(1, 10),
				})
			}
			ws = append(ws, strengthWorkout(id, date, faker.RandomString(exercises), sets...))
		case 1:
			dist := float64(faker.IntRange(0, 2) * 5)
			ws = append(ws, cardioWorkout(id, date, faker.RandomString(cardio), float64(faker.IntRange(0, 4)*10), &dist))
		default:
			name := faker.RandomString(metcons)
			var value string
			if scoreTypes[name] == workouts.ScoreTime {
				value = fmt.Sprintf("%d:%02d", faker.IntRange(2, 12), faker.IntRange(0, 2)*30)
			} else {
				value = fmt.Sprintf("%d", faker.IntRange(10, 14))
			}
			if faker.IntRange(0, 9) == 0 {
				value = "dnf"
			}
			ws = append(ws, metconWorkout(id, date, name, scoreTypes[name], value))
		}
	}
	return ws
}

func TestCompute_OrderIndependent(t *testing.T) {
	faker := gofakeit.New(20240101)
	for round := 0; round < 20; round++ {
		ws := randomHistory(faker, 40)
		want := bests.Compute(ws)

		for perm := 0; perm < 10; perm++ {
			shuffled := make([]workouts.Workout, len(ws))
			copy(shuffled, ws)
			faker.ShuffleAnySlice(shuffled)
			require.Equal(t, want, bests.Compute(shuffled), "round %d perm %d", round, perm)
		}
	}
}

func TestCompute_StrengthBestIsMaxWeight(t *testing.T) {
	faker := gofakeit.New(7)
	ws := randomHistory(faker, 60)

	maxWeight := map[string]float64{}
	for _, w := range ws {
		for _, log := range w.Strength {
			for _, set := range log.Sets {
				if set.Weight > maxWeight[log.ExerciseName] {
					maxWeight[log.ExerciseName] = set.Weight
				}
			}
		}
	}

	for _, pb := range bests.Compute(ws) {
		if pb.Type != bests.KindStrength {
			continue
		}
		sb := pb.Best.(bests.StrengthBest)
		assert.Equal(t, maxWeight[pb.Name], sb.Weight, pb.Name)

		// reps and date come from a set that actually has that weight
		found := false
		for _, w := range ws {
			for _, log := range w.Strength {
				for _, set := range log.Sets {
					if log.ExerciseName == pb.Name && w.Date == pb.Date && set.Weight == sb.Weight && set.Reps == sb.Reps {
						found = true
					}
				}
			}
		}
		assert.True(t, found, pb.Name)
	}
}

func TestPersonalBest_JSON(t *testing.T) {
	pbs := bests.Compute([]workouts.Workout{
		strengthWorkout("w1", "2024-01-01", "Squat", workouts.TraditionalSet{Weight: 100, Reps: 5}),
		cardioWorkout("w2", "2024-01-02", "Treadmill Run", 25, km(5)),
		metconWorkout("w3", "2024-01-03", "Fran", workouts.ScoreTime, "4:30"),
	})

	b, err := json.Marshal(pbs)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"best":{"weight":100,"reps":5}`)
	assert.Contains(t, string(b), `"best":{"time":25,"distance":5}`)
	assert.Contains(t, string(b), `"best":{"value":"4:30","type":"time"}`)

	var decoded []bests.PersonalBest
	require.NoError(t, json.Unmarshal(b, &decoded))
	assert.Equal(t, pbs, decoded)

	var bad bests.PersonalBest
	assert.Error(t, json.Unmarshal([]byte(`{"name":"x","type":"yoga","best":{}}`), &bad))
}

func TestParseDuration(t *testing.T) {
	cases := map[string]float64{
		"45":      45,
		"4:30":    270,
		"04:30":   270,
		"10:00":   600,
		"1:02:03": 3723,
		"3:15.5":  195.5,
	}
	for in, want := range cases {
		got, ok := bests.ParseDuration(in)
		require.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}

	for _, in := range []string{"", "abc", "4:60", "1:60:00", "1::2", "-3", "1:2:3:4", "NaN"} {
		_, ok := bests.ParseDuration(in)
		assert.False(t, ok, in)
	}
}

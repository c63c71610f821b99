package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/2beens/fitjournal/internal/workouts"
)

func minutes(m float64) *float64 {
	return &m
}

var DefaultExercises = []workouts.Exercise{
	{Name: "Squat", Type: workouts.ExerciseStrength},
	{Name: "Bench Press", Type: workouts.ExerciseStrength},
	{Name: "Deadlift", Type: workouts.ExerciseStrength},
	{Name: "Overhead Press", Type: workouts.ExerciseStrength},
	{Name: "Barbell Row", Type: workouts.ExerciseStrength},
	{Name: "Pull-up", Type: workouts.ExerciseStrength},
	{Name: "Dumbbell Curl", Type: workouts.ExerciseStrength},
	{Name: "Treadmill Run", Type: workouts.ExerciseCardio},
	{Name: "Rowing Machine", Type: workouts.ExerciseCardio},
	{Name: "Stationary Bike", Type: workouts.ExerciseCardio},
}

var DefaultMetcons = []workouts.Metcon{
	{
		Name:        "Fran",
		Type:        workouts.MetconForTime,
		Description: "21-15-9 reps of:\n- Thrusters (95/65 lb)\n- Pull-ups",
		TimeCap:     minutes(10),
	},
	{
		Name:        "Cindy",
		Type:        workouts.MetconAMRAP,
		Description: "As Many Rounds As Possible in 20 minutes of:\n- 5 Pull-ups\n- 10 Push-ups\n- 15 Air Squats",
		TimeCap:     minutes(20),
	},
	{
		Name:        "Murph",
		Type:        workouts.MetconForTime,
		Description: "For time:\n- 1 mile Run\n- 100 Pull-ups\n- 200 Push-ups\n- 300 Squats\n- 1 mile Run\n\nPartition the pull-ups, push-ups, and squats as needed.",
		TimeCap:     minutes(60),
	},
	{
		Name:        "Grace",
		Type:        workouts.MetconForTime,
		Description: "30 Clean and Jerks for time (135/95 lb)",
		TimeCap:     minutes(5),
	},
}

// Seed writes the default exercises and metcons for a new account. Entries
// whose name is already taken are skipped, so seeding twice is harmless.
func (s *Service) Seed(ctx context.Context, userID string) error {
	for _, e := range DefaultExercises {
		if _, err := s.AddExercise(ctx, userID, e); err != nil && !errors.Is(err, ErrDuplicateName) {
			return fmt.Errorf("seed exercise %s: %w", e.Name, err)
		}
	}
	for _, m := range DefaultMetcons {
		if _, err := s.AddMetcon(ctx, userID, m); err != nil && !errors.Is(err, ErrDuplicateName) {
			return fmt.Errorf("seed metcon %s: %w", m.Name, err)
		}
	}
	return nil
}

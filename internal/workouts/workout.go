package workouts

import (
	"encoding/json"

	"github.com/google/uuid"
)

type WorkoutType string

const (
	TypeTraditional WorkoutType = "traditional"
	TypeMetcon      WorkoutType = "metcon"
)

func (t WorkoutType) IsValid() bool {
	return t == TypeTraditional || t == TypeMetcon
}

type TimeOfDay string

const (
	Morning TimeOfDay = "morning"
	Day     TimeOfDay = "day"
	Night   TimeOfDay = "night"
)

func (t TimeOfDay) IsValid() bool {
	switch t {
	case Morning, Day, Night:
		return true
	default:
		return false
	}
}

type ScoreType string

const (
	ScoreTime   ScoreType = "time"
	ScoreRounds ScoreType = "rounds"
	ScoreReps   ScoreType = "reps"
)

func (t ScoreType) IsValid() bool {
	switch t {
	case ScoreTime, ScoreRounds, ScoreReps:
		return true
	default:
		return false
	}
}

type Score struct {
	Type  ScoreType `json:"type"`
	Value string    `json:"value"`
}

// TraditionalSet is a single set of a strength exercise. Weight is always in kg.
// Sets sharing a SupersetLinkID form one superset group.
type TraditionalSet struct {
	ID             string  `json:"id"`
	Reps           int     `json:"reps"`
	Weight         float64 `json:"weight"`
	SupersetLinkID string  `json:"supersetLinkId,omitempty"`
}

type StrengthLog struct {
	ID           string           `json:"id"`
	ExerciseName string           `json:"exerciseName"`
	Equipment    string           `json:"equipment,omitempty"`
	Sets         []TraditionalSet `json:"sets"`
}

// CardioLog duration is in minutes, distance in km.
type CardioLog struct {
	ID           string   `json:"id"`
	ExerciseName string   `json:"exerciseName"`
	Duration     float64  `json:"duration"`
	Distance     *float64 `json:"distance,omitempty"`
}

// Workout is either a traditional (strength/cardio logs) or a metcon workout,
// discriminated by Type. Only the fields of the active variant are encoded.
type Workout struct {
	ID         string      `json:"id"`
	Type       WorkoutType `json:"type"`
	Date       string      `json:"date"`
	TimeOfDay  TimeOfDay   `json:"timeOfDay"`
	BodyWeight *float64    `json:"bodyWeight,omitempty"`
	Notes      string      `json:"notes,omitempty"`

	// traditional
	Strength []StrengthLog `json:"strength,omitempty"`
	Cardio   []CardioLog   `json:"cardio,omitempty"`

	// metcon
	WorkoutName string `json:"workoutName,omitempty"`
	Score       *Score `json:"score,omitempty"`
}

type workoutAlias Workout

func (w Workout) MarshalJSON() ([]byte, error) {
	return json.Marshal(workoutAlias(w.variantOnly()))
}

func (w Workout) variantOnly() Workout {
	switch w.Type {
	case TypeTraditional:
		w.WorkoutName = ""
		w.Score = nil
	case TypeMetcon:
		w.Strength = nil
		w.Cardio = nil
	}
	return w
}

// FillSubIDs assigns ids to strength/cardio logs and sets that came without one.
func (w *Workout) FillSubIDs() {
	for i := range w.Strength {
		if w.Strength[i].ID == "" {
			w.Strength[i].ID = uuid.NewString()
		}
		for j := range w.Strength[i].Sets {
			if w.Strength[i].Sets[j].ID == "" {
				w.Strength[i].Sets[j].ID = uuid.NewString()
			}
		}
	}
	for i := range w.Cardio {
		if w.Cardio[i].ID == "" {
			w.Cardio[i].ID = uuid.NewString()
		}
	}
}

// WorkoutInput is a workout as submitted by a client: no id yet, and the date may be
// a structured timestamp instead of the canonical yyyy-MM-dd string.
type WorkoutInput struct {
	Type       WorkoutType `json:"type"`
	Date       DateValue   `json:"date"`
	TimeOfDay  TimeOfDay   `json:"timeOfDay"`
	BodyWeight *float64    `json:"bodyWeight,omitempty"`
	Notes      string      `json:"notes,omitempty"`

	Strength []StrengthLog `json:"strength,omitempty"`
	Cardio   []CardioLog   `json:"cardio,omitempty"`

	WorkoutName string `json:"workoutName,omitempty"`
	Score       *Score `json:"score,omitempty"`
}

// ToWorkout builds the stored shape of the input: the date is normalized and
// fields of the other variant are dropped.
func (in WorkoutInput) ToWorkout(id string) (Workout, error) {
	date, err := in.Date.Normalize()
	if err != nil {
		return Workout{}, err
	}
	w := Workout{
		ID:          id,
		Type:        in.Type,
		Date:        date,
		TimeOfDay:   in.TimeOfDay,
		BodyWeight:  in.BodyWeight,
		Notes:       in.Notes,
		Strength:    in.Strength,
		Cardio:      in.Cardio,
		WorkoutName: in.WorkoutName,
		Score:       in.Score,
	}
	return w.variantOnly(), nil
}

// InputFrom is the inverse of ToWorkout, used when editing a stored workout.
func InputFrom(w Workout) WorkoutInput {
	return WorkoutInput{
		Type:        w.Type,
		Date:        DateString(w.Date),
		TimeOfDay:   w.TimeOfDay,
		BodyWeight:  w.BodyWeight,
		Notes:       w.Notes,
		Strength:    w.Strength,
		Cardio:      w.Cardio,
		WorkoutName: w.WorkoutName,
		Score:       w.Score,
	}
}

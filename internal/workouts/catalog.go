package workouts

type ExerciseType string

const (
	ExerciseStrength ExerciseType = "strength"
	ExerciseCardio   ExerciseType = "cardio"
)

func (t ExerciseType) IsValid() bool {
	return t == ExerciseStrength || t == ExerciseCardio
}

// Exercise is a user-defined exercise. Workouts reference it by name, so
// renaming an exercise does not touch logged workouts.
type Exercise struct {
	ID   string       `json:"id"`
	Name string       `json:"name"`
	Type ExerciseType `json:"type"`
}

type MetconType string

const (
	MetconForTime MetconType = "For Time"
	MetconAMRAP   MetconType = "AMRAP"
	MetconEMOM    MetconType = "EMOM"
	MetconOther   MetconType = "Other"
)

func (t MetconType) IsValid() bool {
	switch t {
	case MetconForTime, MetconAMRAP, MetconEMOM, MetconOther:
		return true
	default:
		return false
	}
}

// Metcon is a user-defined metabolic conditioning workout. TimeCap is in minutes.
type Metcon struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Type        MetconType `json:"type"`
	Description string     `json:"description"`
	TimeCap     *float64   `json:"timeCap,omitempty"`
}

// ScoreTypeForMetcon returns how a logged metcon of the given type is scored.
// EMOMs can be scored different ways; total reps is the common one.
func ScoreTypeForMetcon(t MetconType) ScoreType {
	switch t {
	case MetconForTime:
		return ScoreTime
	case MetconAMRAP:
		return ScoreRounds
	default:
		return ScoreReps
	}
}

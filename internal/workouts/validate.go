package workouts

import (
	"fmt"
	"sort"
	"strings"
)

// ValidationErrors maps a field path (e.g. "strength.0.sets.1.reps") to a
// user-facing message.
type ValidationErrors map[string]string

func (v ValidationErrors) Error() string {
	fields := make([]string, 0, len(v))
	for f := range v {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f+": "+v[f])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// ErrOrNil returns nil for an empty set of errors.
func (v ValidationErrors) ErrOrNil() error {
	if len(v) == 0 {
		return nil
	}
	return v
}

// MetconLookup returns the type of the user's metcon with the given name,
// false when there is none.
type MetconLookup func(name string) (MetconType, bool)

// ValidateInput checks a workout before it reaches the data layer.
// metcons may be nil, in which case the metcon name is only checked for
// being non-empty and the score type is not matched against the metcon.
func ValidateInput(in WorkoutInput, metcons MetconLookup) error {
	errs := ValidationErrors{}

	if in.Date.IsZero() {
		errs["date"] = "A date is required."
	} else if _, err := in.Date.Normalize(); err != nil {
		errs["date"] = "Date must be in yyyy-MM-dd format."
	}
	if !in.TimeOfDay.IsValid() {
		errs["timeOfDay"] = "Please select a time of day."
	}
	if in.BodyWeight != nil && *in.BodyWeight <= 0 {
		errs["bodyWeight"] = "Body weight must be a positive number."
	}

	switch in.Type {
	case TypeTraditional:
		validateTraditional(in, errs)
	case TypeMetcon:
		validateMetcon(in, metcons, errs)
	default:
		errs["type"] = "Workout type must be traditional or metcon."
	}

	return errs.ErrOrNil()
}

func validateTraditional(in WorkoutInput, errs ValidationErrors) {
	if len(in.Strength) == 0 && len(in.Cardio) == 0 {
		errs["details"] = "Add at least one strength or cardio exercise."
		return
	}

	for i, log := range in.Strength {
		prefix := fmt.Sprintf("strength.%d", i)
		if strings.TrimSpace(log.ExerciseName) == "" {
			errs[prefix+".exerciseName"] = "Please select an exercise."
		}
		if len(log.Sets) == 0 {
			errs[prefix+".sets"] = "Add at least one set."
		}
		for j, set := range log.Sets {
			setPrefix := fmt.Sprintf("%s.sets.%d", prefix, j)
			if set.Reps < 1 {
				errs[setPrefix+".reps"] = "Must be at least 1."
			}
			if set.Weight < 0 {
				errs[setPrefix+".weight"] = "Cannot be negative."
			}
		}
	}

	for i, log := range in.Cardio {
		prefix := fmt.Sprintf("cardio.%d", i)
		if strings.TrimSpace(log.ExerciseName) == "" {
			errs[prefix+".exerciseName"] = "Please select an exercise."
		}
		if log.Duration <= 0 {
			errs[prefix+".duration"] = "Duration must be greater than 0 minutes."
		}
		if log.Distance != nil && *log.Distance < 0 {
			errs[prefix+".distance"] = "Distance cannot be negative."
		}
	}
}

func validateMetcon(in WorkoutInput, metcons MetconLookup, errs ValidationErrors) {
	var (
		metconType MetconType
		found      bool
	)
	name := strings.TrimSpace(in.WorkoutName)
	if name == "" {
		errs["workoutName"] = "Please enter a workout name."
	} else if metcons != nil {
		if metconType, found = metcons(in.WorkoutName); !found {
			errs["workoutName"] = "Please select a valid Metcon workout."
		}
	}

	if in.Score == nil {
		errs["score"] = "Please enter your score."
		return
	}
	if !in.Score.Type.IsValid() {
		errs["score.type"] = "Score type must be time, rounds or reps."
	} else if want := ScoreTypeForMetcon(metconType); found && in.Score.Type != want {
		errs["score.type"] = fmt.Sprintf("Score type must be %s for %s metcons.", want, metconType)
	}
	if strings.TrimSpace(in.Score.Value) == "" {
		errs["score.value"] = "Please enter your score."
	}
}

// ValidateExercise checks a catalog exercise (uniqueness is checked by the catalog).
func ValidateExercise(e Exercise) error {
	errs := ValidationErrors{}
	if strings.TrimSpace(e.Name) == "" {
		errs["name"] = "Exercise name is required."
	}
	if !e.Type.IsValid() {
		errs["type"] = "Please select an exercise type."
	}
	return errs.ErrOrNil()
}

// ValidateMetcon checks a catalog metcon (uniqueness is checked by the catalog).
func ValidateMetcon(m Metcon) error {
	errs := ValidationErrors{}
	if strings.TrimSpace(m.Name) == "" {
		errs["name"] = "Metcon name is required."
	}
	if !m.Type.IsValid() {
		errs["type"] = "Please select a metcon type."
	}
	if strings.TrimSpace(m.Description) == "" {
		errs["description"] = "Please provide workout details."
	}
	if m.TimeCap != nil && *m.TimeCap <= 0 {
		errs["timeCap"] = "Time cap must be a positive number of minutes."
	}
	return errs.ErrOrNil()
}

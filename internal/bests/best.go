package bests

import (
	"encoding/json"
	"fmt"

	"github.com/2beens/fitjournal/internal/workouts"
)

type Kind string

const (
	KindAll      Kind = "all"
	KindStrength Kind = "strength"
	KindCardio   Kind = "cardio"
	KindMetcon   Kind = "metcon"
)

func (k Kind) IsValid() bool {
	switch k {
	case KindAll, KindStrength, KindCardio, KindMetcon:
		return true
	default:
		return false
	}
}

// Best is the record part of a PersonalBest. Its concrete type matches the
// PersonalBest type: StrengthBest, CardioBest or MetconBest.
type Best interface {
	Kind() Kind
	isBest()
}

type StrengthBest struct {
	Weight float64 `json:"weight"`
	Reps   int     `json:"reps"`
}

func (StrengthBest) Kind() Kind { return KindStrength }
func (StrengthBest) isBest()    {}

// CardioBest time is the duration in minutes, distance in km.
type CardioBest struct {
	Time     float64 `json:"time"`
	Distance float64 `json:"distance"`
}

func (CardioBest) Kind() Kind { return KindCardio }
func (CardioBest) isBest()    {}

type MetconBest struct {
	Value string             `json:"value"`
	Type  workouts.ScoreType `json:"type"`
}

func (MetconBest) Kind() Kind { return KindMetcon }
func (MetconBest) isBest()    {}

// PersonalBest is derived from the workout history, it is never stored.
type PersonalBest struct {
	Name string `json:"name"`
	Type Kind   `json:"type"`
	Date string `json:"date"`
	Best Best   `json:"best"`
}

func (pb *PersonalBest) UnmarshalJSON(b []byte) error {
	var raw struct {
		Name string          `json:"name"`
		Type Kind            `json:"type"`
		Date string          `json:"date"`
		Best json.RawMessage `json:"best"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	var best Best
	switch raw.Type {
	case KindStrength:
		var s StrengthBest
		if err := json.Unmarshal(raw.Best, &s); err != nil {
			return err
		}
		best = s
	case KindCardio:
		var c CardioBest
		if err := json.Unmarshal(raw.Best, &c); err != nil {
			return err
		}
		best = c
	case KindMetcon:
		var m MetconBest
		if err := json.Unmarshal(raw.Best, &m); err != nil {
			return err
		}
		best = m
	default:
		return fmt.Errorf("unknown personal best type: %q", raw.Type)
	}

	*pb = PersonalBest{Name: raw.Name, Type: raw.Type, Date: raw.Date, Best: best}
	return nil
}

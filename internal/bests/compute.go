package bests

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/2beens/fitjournal/internal/workouts"
)

// candidate is a possible personal best together with the fields used to
// order candidates sharing a key.
type candidate struct {
	pb        PersonalBest
	workoutID string
	logID     string
	// metcon only
	parsed   float64
	parsedOK bool
}

// Compute folds the workout history into one personal best per exercise
// (per exercise and distance for cardio) and per metcon, sorted by name.
// The result does not depend on the order of ws: equal performances are
// resolved by the earlier date, then by the remaining fields.
func Compute(ws []workouts.Workout) []PersonalBest {
	best := map[string]candidate{}
	offer := func(key string, c candidate, better func(a, b candidate) bool) {
		cur, ok := best[key]
		if !ok || better(c, cur) {
			best[key] = c
		}
	}

	for _, w := range ws {
		switch w.Type {
		case workouts.TypeTraditional:
			for _, log := range w.Strength {
				if c, ok := strengthCandidate(w, log); ok {
					offer("strength/"+log.ExerciseName, c, strengthBetter)
				}
			}
			for _, log := range w.Cardio {
				if c, ok := cardioCandidate(w, log); ok {
					offer(fmt.Sprintf("cardio/%s/%s", log.ExerciseName, formatKm(*log.Distance)), c, cardioBetter)
				}
			}
		case workouts.TypeMetcon:
			if w.Score == nil || w.WorkoutName == "" {
				continue
			}
			offer("metcon/"+w.WorkoutName, metconCandidate(w), metconBetter)
		}
	}

	out := make([]PersonalBest, 0, len(best))
	for _, c := range best {
		out = append(out, c.pb)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].Type < out[j].Type
	})
	return out
}

// strengthCandidate picks the heaviest set of the log, the first one on ties.
// Logs whose heaviest set is 0 kg do not produce a best.
func strengthCandidate(w workouts.Workout, log workouts.StrengthLog) (candidate, bool) {
	top := -1
	for i, set := range log.Sets {
		if top < 0 || set.Weight > log.Sets[top].Weight {
			top = i
		}
	}
	if top < 0 || log.Sets[top].Weight <= 0 {
		return candidate{}, false
	}

	set := log.Sets[top]
	return candidate{
		pb: PersonalBest{
			Name: log.ExerciseName,
			Type: KindStrength,
			Date: w.Date,
			Best: StrengthBest{Weight: set.Weight, Reps: set.Reps},
		},
		workoutID: w.ID,
		logID:     log.ID,
	}, true
}

func cardioCandidate(w workouts.Workout, log workouts.CardioLog) (candidate, bool) {
	if log.Distance == nil || *log.Distance <= 0 || log.Duration <= 0 {
		return candidate{}, false
	}
	return candidate{
		pb: PersonalBest{
			Name: fmt.Sprintf("%s (%s km)", log.ExerciseName, formatKm(*log.Distance)),
			Type: KindCardio,
			Date: w.Date,
			Best: CardioBest{Time: log.Duration, Distance: *log.Distance},
		},
		workoutID: w.ID,
		logID:     log.ID,
	}, true
}

func metconCandidate(w workouts.Workout) candidate {
	c := candidate{
		pb: PersonalBest{
			Name: w.WorkoutName,
			Type: KindMetcon,
			Date: w.Date,
			Best: MetconBest{Value: w.Score.Value, Type: w.Score.Type},
		},
		workoutID: w.ID,
	}
	c.parsed, c.parsedOK = ParseScore(*w.Score)
	return c
}

func strengthBetter(a, b candidate) bool {
	sa, sb := a.pb.Best.(StrengthBest), b.pb.Best.(StrengthBest)
	if sa.Weight != sb.Weight {
		return sa.Weight > sb.Weight
	}
	if a.pb.Date != b.pb.Date {
		return a.pb.Date < b.pb.Date
	}
	if sa.Reps != sb.Reps {
		return sa.Reps > sb.Reps
	}
	return tieBreak(a, b)
}

func cardioBetter(a, b candidate) bool {
	ca, cb := a.pb.Best.(CardioBest), b.pb.Best.(CardioBest)
	if ca.Time != cb.Time {
		return ca.Time < cb.Time
	}
	return tieBreak(a, b)
}

// metconBetter orders scores of the same metcon. Scores logged with different
// score types are ranked by type first (time, rounds, reps), so a metcon whose
// type changed over time still has a single well defined best. Within a type,
// parsed scores rank above unparseable ones.
func metconBetter(a, b candidate) bool {
	ma, mb := a.pb.Best.(MetconBest), b.pb.Best.(MetconBest)
	if ra, rb := scoreTypeRank(ma.Type), scoreTypeRank(mb.Type); ra != rb {
		return ra > rb
	}
	if a.parsedOK != b.parsedOK {
		return a.parsedOK
	}
	if a.parsedOK && a.parsed != b.parsed {
		if ma.Type == workouts.ScoreTime {
			return a.parsed < b.parsed
		}
		return a.parsed > b.parsed
	}
	return tieBreak(a, b)
}

func scoreTypeRank(t workouts.ScoreType) int {
	switch t {
	case workouts.ScoreTime:
		return 3
	case workouts.ScoreRounds:
		return 2
	case workouts.ScoreReps:
		return 1
	default:
		return 0
	}
}

// tieBreak prefers the earlier date, then the smaller workout and log id.
func tieBreak(a, b candidate) bool {
	if a.pb.Date != b.pb.Date {
		return a.pb.Date < b.pb.Date
	}
	if a.workoutID != b.workoutID {
		return a.workoutID < b.workoutID
	}
	return a.logID < b.logID
}

// ParseScore converts a metcon score to a number: seconds for time scores,
// the plain value otherwise.
func ParseScore(s workouts.Score) (float64, bool) {
	if s.Type == workouts.ScoreTime {
		return ParseDuration(s.Value)
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(s.Value), 64)
	if err != nil || !finite(v) {
		return 0, false
	}
	return v, true
}

// ParseDuration parses [[hh:]mm:]ss[.fff] into seconds.
func ParseDuration(value string) (float64, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}

	parts := strings.Split(value, ":")
	if len(parts) > 3 {
		return 0, false
	}

	total := 0.0
	for i, p := range parts {
		last := i == len(parts)-1
		if p == "" {
			return 0, false
		}
		if last {
			sec, err := strconv.ParseFloat(p, 64)
			if err != nil || !finite(sec) || sec < 0 || (len(parts) > 1 && sec >= 60) {
				return 0, false
			}
			total = total*60 + sec
			continue
		}
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 || (i > 0 && n >= 60) {
			return 0, false
		}
		total = total*60 + float64(n)
	}
	return total, true
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func formatKm(km float64) string {
	return strconv.FormatFloat(km, 'f', -1, 64)
}

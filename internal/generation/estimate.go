package generation

import (
	"math"

	"alcyxob/workout-engine/internal/domain"
)

const (
	// secondsPerSet is the assumed working time of one set.
	secondsPerSet = 45
	// warmupCooldownMinutes is the flat allowance added to every workout.
	warmupCooldownMinutes = 10
)

// EstimateDuration computes the estimated duration in minutes of an assembled
// exercise list: per exercise, work = sets x 45s and rest = (sets-1) x rest
// seconds; the total is converted to minutes, rounded to the nearest integer,
// plus a flat 10-minute warm-up/cool-down allowance.
func EstimateDuration(exercises []domain.RoutineExercise) int {
	totalSeconds := 0
	for _, ex := range exercises {
		work := ex.Sets * secondsPerSet
		rest := 0
		if ex.Sets > 1 {
			rest = (ex.Sets - 1) * ex.RestTimeSeconds
		}
		totalSeconds += work + rest
	}
	return int(math.Round(float64(totalSeconds)/60.0)) + warmupCooldownMinutes
}

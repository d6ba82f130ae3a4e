package generation

import "alcyxob/workout-engine/internal/domain"

// TimeBudget is the planned split of a workout's target duration. The phase
// minutes keep the exercise-count estimate honest; callers only consume
// ExerciseCount, which is later clamped to the number of exercises actually
// available.
type TimeBudget struct {
	WarmupMinutes   int
	MainMinutes     int
	CooldownMinutes int
	ExerciseCount   int
}

// typeProfile holds the per-workout-type planning constants: roughly how many
// minutes one exercise occupies, and the nominal warm-up/main/cool-down split.
type typeProfile struct {
	minutesPerExercise int
	warmupShare        float64
	cooldownShare      float64
}

var typeProfiles = map[domain.WorkoutType]typeProfile{
	domain.TypeStrength:    {minutesPerExercise: 8, warmupShare: 0.15, cooldownShare: 0.10},
	domain.TypeCardio:      {minutesPerExercise: 12, warmupShare: 0.10, cooldownShare: 0.10},
	domain.TypeHIIT:        {minutesPerExercise: 6, warmupShare: 0.15, cooldownShare: 0.10},
	domain.TypeFlexibility: {minutesPerExercise: 10, warmupShare: 0.10, cooldownShare: 0.15},
	domain.TypeMixed:       {minutesPerExercise: 10, warmupShare: 0.15, cooldownShare: 0.10},
}

// defaultProfile is used for any type without an explicit profile.
var defaultProfile = typeProfile{minutesPerExercise: 10, warmupShare: 0.10, cooldownShare: 0.10}

// PlanTimeBudget computes the phase split and target exercise count for a
// workout type and target duration. The count is floor-divided from the total
// duration and never drops below one.
func PlanTimeBudget(workoutType domain.WorkoutType, targetMinutes int) TimeBudget {
	profile, ok := typeProfiles[workoutType]
	if !ok {
		profile = defaultProfile
	}

	count := targetMinutes / profile.minutesPerExercise
	if count < 1 {
		count = 1
	}

	warmup := int(float64(targetMinutes) * profile.warmupShare)
	cooldown := int(float64(targetMinutes) * profile.cooldownShare)
	return TimeBudget{
		WarmupMinutes:   warmup,
		MainMinutes:     targetMinutes - warmup - cooldown,
		CooldownMinutes: cooldown,
		ExerciseCount:   count,
	}
}

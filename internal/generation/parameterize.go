package generation

import "alcyxob/workout-engine/internal/domain"

// ExerciseParams are the per-exercise training parameters derived from the
// user's fitness level.
type ExerciseParams struct {
	Sets            int
	MinReps         int
	MaxReps         int
	RestTimeSeconds int
}

var levelParams = map[domain.FitnessLevel]ExerciseParams{
	domain.LevelBeginner:     {Sets: 2, MinReps: 8, MaxReps: 12, RestTimeSeconds: 90},
	domain.LevelIntermediate: {Sets: 3, MinReps: 10, MaxReps: 15, RestTimeSeconds: 60},
	domain.LevelAdvanced:     {Sets: 4, MinReps: 12, MaxReps: 20, RestTimeSeconds: 45},
}

// ParamsForLevel returns the fixed parameter table entry for a fitness level.
// Unknown levels get the intermediate defaults.
func ParamsForLevel(level domain.FitnessLevel) ExerciseParams {
	if p, ok := levelParams[level]; ok {
		return p
	}
	return levelParams[domain.LevelIntermediate]
}

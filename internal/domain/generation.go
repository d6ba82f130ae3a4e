// internal/domain/generation.go
package domain

import "time"

// FitnessLevel describes how experienced the requesting user is.
type FitnessLevel string

const (
	LevelBeginner     FitnessLevel = "beginner"
	LevelIntermediate FitnessLevel = "intermediate"
	LevelAdvanced     FitnessLevel = "advanced"
)

// IsValid reports whether the level is one of the known values.
func (l FitnessLevel) IsValid() bool {
	switch l {
	case LevelBeginner, LevelIntermediate, LevelAdvanced:
		return true
	}
	return false
}

// WorkoutType describes the overall style of the requested workout.
type WorkoutType string

const (
	TypeStrength    WorkoutType = "strength"
	TypeCardio      WorkoutType = "cardio"
	TypeHIIT        WorkoutType = "hiit"
	TypeFlexibility WorkoutType = "flexibility"
	TypeMixed       WorkoutType = "mixed"
)

// IsValid reports whether the type is one of the known values.
func (t WorkoutType) IsValid() bool {
	switch t {
	case TypeStrength, TypeCardio, TypeHIIT, TypeFlexibility, TypeMixed:
		return true
	}
	return false
}

// Duration bounds accepted for a generation request, in minutes.
const (
	MinTargetDuration = 10
	MaxTargetDuration = 180
)

// GenerationRequest is the input to workout generation. It is validated at the
// API boundary but the engine re-checks the hard invariants defensively.
//
// Nil slices mean "not specified"; a non-nil empty slice means the caller
// explicitly sent an empty list. The distinction survives normalization.
type GenerationRequest struct {
	FitnessLevel          FitnessLevel `json:"fitnessLevel"`
	AvailableEquipment    []string     `json:"availableEquipment"`
	TargetMuscleGroups    []string     `json:"targetMuscleGroups,omitempty"`
	WorkoutType           WorkoutType  `json:"workoutType"`
	TargetDurationMinutes int          `json:"targetDurationMinutes"`
	Intensity             string       `json:"intensity,omitempty"`
	ExcludeExercises      []string     `json:"excludeExercises,omitempty"`
	IncludeExercises      []string     `json:"includeExercises,omitempty"`

	// Caching hints. Not part of the spec hash.
	AllowCachedResults bool `json:"allowCachedResults"`
	Regenerate         bool `json:"regenerate"`
}

// GeneratedExercise is one slot of an assembled workout. Name, muscle group
// and equipment are denormalized from the live catalog at assembly time.
type GeneratedExercise struct {
	ExerciseID  string `json:"exerciseId"`
	Name        string `json:"name"`
	MuscleGroup string `json:"muscleGroup,omitempty"`
	Equipment   string `json:"equipment,omitempty"`

	Sets            int      `json:"sets"`
	MinReps         int      `json:"minReps"`
	MaxReps         int      `json:"maxReps"`
	TargetWeight    *float64 `json:"targetWeight,omitempty"`
	RestTimeSeconds int      `json:"restTimeSeconds"`

	// OrderIndex is dense and zero-based within one workout.
	OrderIndex int    `json:"orderIndex"`
	Notes      string `json:"notes,omitempty"`

	// Short-lived presigned URL for the demo video, when the catalog entry has
	// one and presigning succeeded. Best effort.
	VideoURL string `json:"videoUrl,omitempty"`
}

// GeneratedWorkout is the public result of one GenerateWorkout call.
type GeneratedWorkout struct {
	ID                string              `json:"id"`
	Name              string              `json:"name"`
	Description       string              `json:"description,omitempty"`
	EstimatedDuration int                 `json:"estimatedDurationMinutes"`
	Exercises         []GeneratedExercise `json:"exercises"`
	Difficulty        FitnessLevel        `json:"difficulty"`
	Tags              []string            `json:"tags,omitempty"`
	CreatedAt         time.Time           `json:"createdAt"`
	SpecHash          string              `json:"specHash"`
	FromCache         bool                `json:"fromCache"`
}

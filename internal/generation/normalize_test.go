package generation

import (
	"strings"
	"testing"

	"alcyxob/workout-engine/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baseRequest() domain.GenerationRequest {
	return domain.GenerationRequest{
		FitnessLevel:          domain.LevelIntermediate,
		AvailableEquipment:    []string{"barbell", "dumbbell", "bench"},
		TargetMuscleGroups:    []string{"chest", "back"},
		WorkoutType:           domain.TypeStrength,
		TargetDurationMinutes: 45,
		Intensity:             "moderate",
		ExcludeExercises:      []string{"Deadlift"},
		IncludeExercises:      []string{"Bench Press"},
	}
}

func TestHashStableUnderListPermutation(t *testing.T) {
	a := baseRequest()
	b := baseRequest()
	b.AvailableEquipment = []string{"bench", "barbell", "dumbbell"}
	b.TargetMuscleGroups = []string{"back", "chest"}

	assert.Equal(t, HashSpec(Normalize(a)), HashSpec(Normalize(b)))
}

func TestHashStableUnderCaseAndDuplicates(t *testing.T) {
	a := baseRequest()
	b := baseRequest()
	b.AvailableEquipment = []string{"Barbell", "DUMBBELL", " bench ", "barbell"}

	assert.Equal(t, HashSpec(Normalize(a)), HashSpec(Normalize(b)))
}

func TestHashSensitivity(t *testing.T) {
	base := HashSpec(Normalize(baseRequest()))

	tests := []struct {
		name   string
		mutate func(*domain.GenerationRequest)
	}{
		{"duration", func(r *domain.GenerationRequest) { r.TargetDurationMinutes = 60 }},
		{"workout type", func(r *domain.GenerationRequest) { r.WorkoutType = domain.TypeHIIT }},
		{"fitness level", func(r *domain.GenerationRequest) { r.FitnessLevel = domain.LevelAdvanced }},
		{"equipment tag", func(r *domain.GenerationRequest) { r.AvailableEquipment[0] = "kettlebell" }},
		{"muscle group", func(r *domain.GenerationRequest) { r.TargetMuscleGroups = []string{"legs"} }},
		{"intensity", func(r *domain.GenerationRequest) { r.Intensity = "high" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := baseRequest()
			tt.mutate(&req)
			assert.NotEqual(t, base, HashSpec(Normalize(req)), "perturbation should change the hash")
		})
	}
}

func TestHashIgnoresCachingHints(t *testing.T) {
	a := baseRequest()
	b := baseRequest()
	b.AllowCachedResults = true
	b.Regenerate = true

	assert.Equal(t, HashSpec(Normalize(a)), HashSpec(Normalize(b)))
}

func TestCanonicalJSONOmitsAbsentOptionals(t *testing.T) {
	req := baseRequest()
	req.TargetMuscleGroups = nil
	req.Intensity = ""
	req.ExcludeExercises = nil
	req.IncludeExercises = nil

	canon := string(Normalize(req).CanonicalJSON())
	assert.NotContains(t, canon, "targetMuscleGroups")
	assert.NotContains(t, canon, "intensity")
	assert.NotContains(t, canon, "null")
}

func TestCanonicalJSONKeepsPresentEmptyList(t *testing.T) {
	req := baseRequest()
	req.TargetMuscleGroups = []string{}

	canon := string(Normalize(req).CanonicalJSON())
	require.Contains(t, canon, `"targetMuscleGroups":[]`)

	// Absent and present-but-empty must stay distinguishable.
	absent := baseRequest()
	absent.TargetMuscleGroups = nil
	assert.NotEqual(t, HashSpec(Normalize(absent)), HashSpec(Normalize(req)))
}

func TestValidateRequest(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*domain.GenerationRequest)
		wantErr string
	}{
		{"valid", func(r *domain.GenerationRequest) {}, ""},
		{"empty equipment", func(r *domain.GenerationRequest) { r.AvailableEquipment = nil }, "availableEquipment"},
		{"blank equipment", func(r *domain.GenerationRequest) { r.AvailableEquipment = []string{"  "} }, "availableEquipment"},
		{"duration too short", func(r *domain.GenerationRequest) { r.TargetDurationMinutes = 5 }, "targetDurationMinutes"},
		{"duration too long", func(r *domain.GenerationRequest) { r.TargetDurationMinutes = 240 }, "targetDurationMinutes"},
		{"bad level", func(r *domain.GenerationRequest) { r.FitnessLevel = "expert" }, "fitness level"},
		{"bad type", func(r *domain.GenerationRequest) { r.WorkoutType = "yoga" }, "workout type"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := baseRequest()
			tt.mutate(&req)
			err := ValidateRequest(req)
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.True(t, strings.Contains(err.Error(), tt.wantErr))
			}
		})
	}
}

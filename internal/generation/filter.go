package generation

import (
	"strings"

	"alcyxob/workout-engine/internal/domain"
)

// FilterCatalog narrows the visible catalog to exercises compatible with the
// request. Rules, in order:
//  1. only publicly visible exercises;
//  2. the exercise's equipment must be absent, "bodyweight", or in the
//     request's equipment set;
//  3. when target muscle groups were specified, the exercise's muscle group
//     must (case-insensitively) contain one of them;
//  4. exercises whose name matches an exclude entry are dropped.
//
// An empty result is the caller's NoSuitableExercises condition; the filter
// itself never fails.
func FilterCatalog(catalog []domain.Exercise, req domain.GenerationRequest) []domain.Exercise {
	equipment := make(map[string]bool, len(req.AvailableEquipment))
	for _, e := range req.AvailableEquipment {
		equipment[strings.ToLower(strings.TrimSpace(e))] = true
	}

	var filtered []domain.Exercise
	for _, ex := range catalog {
		if !ex.IsPublic {
			continue
		}
		if !equipmentAllowed(ex.Equipment, equipment) {
			continue
		}
		if len(req.TargetMuscleGroups) > 0 && !matchesMuscleGroup(ex.MuscleGroup, req.TargetMuscleGroups) {
			continue
		}
		if isExcluded(ex.Name, req.ExcludeExercises) {
			continue
		}
		filtered = append(filtered, ex)
	}
	return filtered
}

func equipmentAllowed(equipment string, available map[string]bool) bool {
	eq := strings.ToLower(strings.TrimSpace(equipment))
	if eq == "" || eq == "bodyweight" {
		return true
	}
	return available[eq]
}

// matchesMuscleGroup reports whether the exercise's muscle-group field
// contains any of the targets. Contains rather than equals: a catalog value
// like "Back/Shoulders" should match a "shoulders" target.
func matchesMuscleGroup(muscleGroup string, targets []string) bool {
	mg := strings.ToLower(muscleGroup)
	for _, target := range targets {
		t := strings.ToLower(strings.TrimSpace(target))
		if t != "" && strings.Contains(mg, t) {
			return true
		}
	}
	return false
}

func isExcluded(name string, excludes []string) bool {
	n := strings.ToLower(name)
	for _, ex := range excludes {
		e := strings.ToLower(strings.TrimSpace(ex))
		if e != "" && n == e {
			return true
		}
	}
	return false
}

package generation

import (
	"strings"

	"alcyxob/workout-engine/internal/domain"
)

// SelectBalanced picks up to targetCount exercises from the filtered catalog.
//
// Explicit includes go first: each include entry is matched case-insensitively
// as a substring of catalog names, in include-list order. Remaining slots are
// filled greedily with the exercise whose muscle group has been picked the
// fewest times so far; when target muscle groups were requested, candidates
// matching a target group are preferred, with the full remaining pool as a
// fallback. Ties break on catalog index so the output is reproducible.
//
// A result shorter than targetCount (catalog exhausted) is not an error.
func SelectBalanced(catalog []domain.Exercise, includes []string, targetCount int, targetGroups []string) []domain.Exercise {
	if targetCount <= 0 || len(catalog) == 0 {
		return nil
	}
	if targetCount > len(catalog) {
		targetCount = len(catalog)
	}

	selected := make([]domain.Exercise, 0, targetCount)
	used := make([]bool, len(catalog))
	groupCounts := make(map[string]int)

	take := func(i int) {
		selected = append(selected, catalog[i])
		used[i] = true
		groupCounts[strings.ToLower(catalog[i].MuscleGroup)]++
	}

	// Pass 1: honor explicit includes, preserving include-list order.
	for _, include := range includes {
		if len(selected) >= targetCount {
			break
		}
		needle := strings.ToLower(strings.TrimSpace(include))
		if needle == "" {
			continue
		}
		for i, ex := range catalog {
			if used[i] {
				continue
			}
			if strings.Contains(strings.ToLower(ex.Name), needle) {
				take(i)
				break
			}
		}
	}

	// Pass 2: balance the rest across muscle groups.
	for len(selected) < targetCount {
		i := pickLeastUsed(catalog, used, groupCounts, targetGroups)
		if i < 0 {
			break
		}
		take(i)
	}

	return selected
}

// pickLeastUsed returns the index of the unused exercise whose muscle group
// has the lowest selection count, restricted to target-group matches when any
// remain, ties broken by catalog order. Returns -1 when nothing is left.
func pickLeastUsed(catalog []domain.Exercise, used []bool, groupCounts map[string]int, targetGroups []string) int {
	best := -1
	bestCount := 0

	consider := func(restrictToTargets bool) {
		for i, ex := range catalog {
			if used[i] {
				continue
			}
			if restrictToTargets && !matchesMuscleGroup(ex.MuscleGroup, targetGroups) {
				continue
			}
			count := groupCounts[strings.ToLower(ex.MuscleGroup)]
			if best < 0 || count < bestCount {
				best = i
				bestCount = count
			}
		}
	}

	if len(targetGroups) > 0 {
		consider(true)
		if best >= 0 {
			return best
		}
	}
	consider(false)
	return best
}

package generation

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"alcyxob/workout-engine/internal/domain"
)

// NormalizedSpec is the canonical form of a GenerationRequest: every tag is
// trimmed and lower-cased, every list is sorted and de-duplicated, and absent
// optionals stay absent (nil slice / empty string) so they are omitted from
// the canonical serialization entirely. Caching hints and the idempotency key
// are not part of the spec and never appear here.
type NormalizedSpec struct {
	FitnessLevel          string
	AvailableEquipment    []string
	TargetMuscleGroups    []string
	WorkoutType           string
	TargetDurationMinutes int
	Intensity             string
	ExcludeExercises      []string
	IncludeExercises      []string
}

// Normalize canonicalizes a request. Pure; the only failure mode is shape
// validation, which is handled separately by ValidateRequest.
func Normalize(req domain.GenerationRequest) NormalizedSpec {
	return NormalizedSpec{
		FitnessLevel:          strings.ToLower(string(req.FitnessLevel)),
		AvailableEquipment:    canonicalTags(req.AvailableEquipment),
		TargetMuscleGroups:    canonicalTags(req.TargetMuscleGroups),
		WorkoutType:           strings.ToLower(string(req.WorkoutType)),
		TargetDurationMinutes: req.TargetDurationMinutes,
		Intensity:             strings.ToLower(strings.TrimSpace(req.Intensity)),
		ExcludeExercises:      canonicalTags(req.ExcludeExercises),
		IncludeExercises:      canonicalTags(req.IncludeExercises),
	}
}

// canonicalTags trims, lower-cases, de-duplicates and sorts a tag list.
// A nil input stays nil ("not specified"); a non-nil empty input stays an
// empty, present list.
func canonicalTags(tags []string) []string {
	if tags == nil {
		return nil
	}
	out := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// CanonicalJSON serializes the spec with a fixed field order. Absent optional
// fields are omitted (never written as null); a present-but-empty list is
// written as []. Exactly one byte sequence exists per semantically equivalent
// request, which is what makes the spec hash a usable cache key.
func (s NormalizedSpec) CanonicalJSON() []byte {
	var buf bytes.Buffer
	buf.WriteByte('{')
	writeField(&buf, "fitnessLevel", s.FitnessLevel)
	writeField(&buf, "availableEquipment", s.AvailableEquipment)
	if s.TargetMuscleGroups != nil {
		writeField(&buf, "targetMuscleGroups", s.TargetMuscleGroups)
	}
	writeField(&buf, "workoutType", s.WorkoutType)
	writeField(&buf, "targetDurationMinutes", s.TargetDurationMinutes)
	if s.Intensity != "" {
		writeField(&buf, "intensity", s.Intensity)
	}
	if s.ExcludeExercises != nil {
		writeField(&buf, "excludeExercises", s.ExcludeExercises)
	}
	if s.IncludeExercises != nil {
		writeField(&buf, "includeExercises", s.IncludeExercises)
	}
	buf.WriteByte('}')
	return buf.Bytes()
}

func writeField(buf *bytes.Buffer, key string, value interface{}) {
	if buf.Len() > 1 {
		buf.WriteByte(',')
	}
	keyJSON, _ := json.Marshal(key)
	buf.Write(keyJSON)
	buf.WriteByte(':')
	// json.Marshal cannot fail for strings, ints and string slices.
	valJSON, _ := json.Marshal(value)
	buf.Write(valJSON)
}

// ValidateRequest re-checks the hard invariants of a request. The HTTP
// boundary validates shape already; the engine still rejects obviously bad
// input so it never depends on the caller having done so.
func ValidateRequest(req domain.GenerationRequest) error {
	if len(canonicalTags(req.AvailableEquipment)) == 0 {
		return errors.New("availableEquipment must not be empty")
	}
	if req.TargetDurationMinutes < domain.MinTargetDuration || req.TargetDurationMinutes > domain.MaxTargetDuration {
		return fmt.Errorf("targetDurationMinutes must be between %d and %d", domain.MinTargetDuration, domain.MaxTargetDuration)
	}
	if !req.FitnessLevel.IsValid() {
		return fmt.Errorf("unknown fitness level %q", req.FitnessLevel)
	}
	if !req.WorkoutType.IsValid() {
		return fmt.Errorf("unknown workout type %q", req.WorkoutType)
	}
	return nil
}

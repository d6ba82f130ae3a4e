// internal/domain/blueprint.go
package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RoutineExercise is the persisted form of one workout slot. It stores a
// reference to the catalog entry plus the numeric parameters only; the
// presentation fields (name, muscle group, equipment) are re-joined against
// the live catalog every time the blueprint is served, so cached results stay
// in sync with catalog edits.
type RoutineExercise struct {
	ExerciseID      primitive.ObjectID `bson:"exerciseId" json:"exerciseId"`
	Sets            int                `bson:"sets" json:"sets"`
	MinReps         int                `bson:"minReps" json:"minReps"`
	MaxReps         int                `bson:"maxReps" json:"maxReps"`
	TargetWeight    *float64           `bson:"targetWeight,omitempty" json:"targetWeight,omitempty"`
	RestTimeSeconds int                `bson:"restTimeSeconds" json:"restTimeSeconds"`
	OrderIndex      int                `bson:"orderIndex" json:"orderIndex"`
	Notes           string             `bson:"notes,omitempty" json:"notes,omitempty"`
}

// RoutineData is the exercise-agnostic payload of a blueprint.
type RoutineData struct {
	Exercises                []RoutineExercise `bson:"exercises" json:"exercises"`
	EstimatedDurationMinutes int               `bson:"estimatedDurationMinutes" json:"estimatedDurationMinutes"`
}

// WorkoutBlueprint is a cached, reusable assembled workout keyed by spec hash.
// Created on the first miss for a hash; every subsequent hit bumps UsageCount
// and refreshes LastUsedAt. This engine never deletes blueprints.
type WorkoutBlueprint struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	SpecHash   string             `bson:"specHash" json:"specHash"`
	Routine    RoutineData        `bson:"routine" json:"routine"`
	UsageCount int64              `bson:"usageCount" json:"usageCount"`
	LastUsedAt time.Time          `bson:"lastUsedAt" json:"lastUsedAt"`
	CreatedAt  time.Time          `bson:"createdAt" json:"createdAt"`
}

// RequestStatus is the lifecycle state of one generation attempt.
type RequestStatus string

const (
	StatusPending    RequestStatus = "pending"
	StatusProcessing RequestStatus = "processing"
	StatusCompleted  RequestStatus = "completed"
	StatusFailed     RequestStatus = "failed"
)

// GenerationRequestRecord tracks the lifecycle of one generation attempt.
// It is written exactly twice: once on creation (processing) and once on the
// terminal transition (completed or failed). A record stuck in "processing"
// means the terminal write was lost (e.g., a crash); callers must treat it as
// stale rather than expect this engine to resolve it.
type GenerationRequestRecord struct {
	ID             primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	UserID         primitive.ObjectID  `bson:"userId" json:"userId"`
	SpecHash       string              `bson:"specHash" json:"specHash"`
	BlueprintID    *primitive.ObjectID `bson:"blueprintId,omitempty" json:"blueprintId,omitempty"`
	RequestJSON    string              `bson:"requestJson" json:"-"`
	Status         RequestStatus       `bson:"status" json:"status"`
	ErrorMessage   string              `bson:"errorMessage,omitempty" json:"errorMessage,omitempty"`
	IdempotencyKey string              `bson:"idempotencyKey,omitempty" json:"idempotencyKey,omitempty"`

	// ResultJSON holds the serialized GeneratedWorkout of a completed attempt
	// so that idempotent replays can return it verbatim.
	ResultJSON string `bson:"resultJson,omitempty" json:"-"`

	CreatedAt   time.Time  `bson:"createdAt" json:"createdAt"`
	CompletedAt *time.Time `bson:"completedAt,omitempty" json:"completedAt,omitempty"`
}

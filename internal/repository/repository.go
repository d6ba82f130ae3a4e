package repository

import (
	"alcyxob/workout-engine/internal/domain"
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Error constants for repository layer
var (
	ErrNotFound     = RepositoryError("not found")
	ErrDuplicateKey = RepositoryError("duplicate key")
	ErrUpdateFailed = RepositoryError("update failed")
)

// RepositoryError helps distinguish repository errors
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// ExerciseRepository is the read-only gateway to the exercise catalog.
// The catalog is owned externally; this engine never writes to it.
type ExerciseRepository interface {
	// GetVisible returns every publicly visible catalog exercise.
	GetVisible(ctx context.Context) ([]domain.Exercise, error)
	// GetByIDs returns the catalog entries for the given ids. Missing ids are
	// simply absent from the result, not an error.
	GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]domain.Exercise, error)
}

// BlueprintRepository stores cached workout blueprints keyed by spec hash.
type BlueprintRepository interface {
	// GetBySpecHash is a pure lookup; returns ErrNotFound on a miss.
	GetBySpecHash(ctx context.Context, specHash string) (*domain.WorkoutBlueprint, error)
	// Upsert inserts a blueprint for its spec hash, or overwrites an existing
	// one (concurrent first-writers of the same hash compute the same
	// deterministic routine, so either winning is fine).
	Upsert(ctx context.Context, blueprint *domain.WorkoutBlueprint) (primitive.ObjectID, error)
	// TouchUsage increments the usage count and refreshes the last-used
	// timestamp. Usage is an approximate metric; last-write-wins is fine.
	TouchUsage(ctx context.Context, id primitive.ObjectID) error
}

// GenerationRequestRepository tracks the lifecycle of generation attempts and
// doubles as the idempotency store (records keyed by idempotency key).
type GenerationRequestRepository interface {
	// Create persists a new attempt record in the processing state. When the
	// record carries an idempotency key, an existing non-completed record for
	// that key is replaced (a retry after failure takes over the key).
	Create(ctx context.Context, record *domain.GenerationRequestRecord) (primitive.ObjectID, error)
	// MarkCompleted is the success terminal transition.
	MarkCompleted(ctx context.Context, id, blueprintID primitive.ObjectID, resultJSON string) error
	// MarkFailed is the failure terminal transition.
	MarkFailed(ctx context.Context, id primitive.ObjectID, errorMessage string) error
	// GetByID returns one attempt record.
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.GenerationRequestRecord, error)
	// GetByIdempotencyKey returns the record owning a client idempotency key,
	// regardless of user (the caller decides whether it is a replay or a
	// conflict). ErrNotFound when the key was never used.
	GetByIdempotencyKey(ctx context.Context, key string) (*domain.GenerationRequestRecord, error)
}

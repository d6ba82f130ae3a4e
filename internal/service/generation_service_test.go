package service

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"alcyxob/workout-engine/internal/domain"
	"alcyxob/workout-engine/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- In-memory fakes for the store interfaces ---

type fakeExerciseRepo struct {
	exercises  []domain.Exercise
	visibleErr error
}

func (f *fakeExerciseRepo) GetVisible(ctx context.Context) ([]domain.Exercise, error) {
	if f.visibleErr != nil {
		return nil, f.visibleErr
	}
	var visible []domain.Exercise
	for _, ex := range f.exercises {
		if ex.IsPublic {
			visible = append(visible, ex)
		}
	}
	return visible, nil
}

func (f *fakeExerciseRepo) GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]domain.Exercise, error) {
	var out []domain.Exercise
	for _, id := range ids {
		for _, ex := range f.exercises {
			if ex.ID == id {
				out = append(out, ex)
				break
			}
		}
	}
	return out, nil
}

type fakeBlueprintRepo struct {
	byHash        map[string]*domain.WorkoutBlueprint
	touchFailures int // TouchUsage fails this many times before succeeding
	upsertErr     error
}

func newFakeBlueprintRepo() *fakeBlueprintRepo {
	return &fakeBlueprintRepo{byHash: map[string]*domain.WorkoutBlueprint{}}
}

func (f *fakeBlueprintRepo) GetBySpecHash(ctx context.Context, specHash string) (*domain.WorkoutBlueprint, error) {
	bp, ok := f.byHash[specHash]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *bp
	return &copied, nil
}

func (f *fakeBlueprintRepo) Upsert(ctx context.Context, blueprint *domain.WorkoutBlueprint) (primitive.ObjectID, error) {
	if f.upsertErr != nil {
		return primitive.NilObjectID, f.upsertErr
	}
	now := time.Now().UTC()
	if existing, ok := f.byHash[blueprint.SpecHash]; ok {
		existing.Routine = blueprint.Routine
		existing.LastUsedAt = now
		blueprint.ID = existing.ID
		return existing.ID, nil
	}
	blueprint.ID = primitive.NewObjectID()
	blueprint.UsageCount = 1
	blueprint.CreatedAt = now
	blueprint.LastUsedAt = now
	stored := *blueprint
	f.byHash[blueprint.SpecHash] = &stored
	return blueprint.ID, nil
}

func (f *fakeBlueprintRepo) TouchUsage(ctx context.Context, id primitive.ObjectID) error {
	if f.touchFailures > 0 {
		f.touchFailures--
		return repository.RepositoryError("transient write failure")
	}
	for _, bp := range f.byHash {
		if bp.ID == id {
			bp.UsageCount++
			bp.LastUsedAt = time.Now().UTC()
			return nil
		}
	}
	return repository.ErrNotFound
}

type fakeRequestRepo struct {
	records          map[primitive.ObjectID]*domain.GenerationRequestRecord
	completeFailures int // MarkCompleted fails this many times before succeeding
}

func newFakeRequestRepo() *fakeRequestRepo {
	return &fakeRequestRepo{records: map[primitive.ObjectID]*domain.GenerationRequestRecord{}}
}

func (f *fakeRequestRepo) Create(ctx context.Context, record *domain.GenerationRequestRecord) (primitive.ObjectID, error) {
	record.Status = domain.StatusProcessing
	record.CreatedAt = time.Now().UTC()
	if record.IdempotencyKey != "" {
		for id, existing := range f.records {
			if existing.IdempotencyKey != record.IdempotencyKey {
				continue
			}
			if existing.Status == domain.StatusCompleted {
				return primitive.NilObjectID, repository.ErrDuplicateKey
			}
			// A retry takes over the key: the record is replaced in place and
			// keeps its _id, matching the FindOneAndReplace in the Mongo repo.
			record.ID = id
			stored := *record
			f.records[id] = &stored
			return id, nil
		}
	}
	record.ID = primitive.NewObjectID()
	stored := *record
	f.records[record.ID] = &stored
	return record.ID, nil
}

func (f *fakeRequestRepo) MarkCompleted(ctx context.Context, id, blueprintID primitive.ObjectID, resultJSON string) error {
	if f.completeFailures > 0 {
		f.completeFailures--
		return repository.RepositoryError("transient write failure")
	}
	record, ok := f.records[id]
	if !ok {
		return repository.ErrNotFound
	}
	now := time.Now().UTC()
	record.Status = domain.StatusCompleted
	record.BlueprintID = &blueprintID
	record.ResultJSON = resultJSON
	record.CompletedAt = &now
	return nil
}

func (f *fakeRequestRepo) MarkFailed(ctx context.Context, id primitive.ObjectID, errorMessage string) error {
	record, ok := f.records[id]
	if !ok {
		return repository.ErrNotFound
	}
	now := time.Now().UTC()
	record.Status = domain.StatusFailed
	record.ErrorMessage = errorMessage
	record.CompletedAt = &now
	return nil
}

func (f *fakeRequestRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.GenerationRequestRecord, error) {
	record, ok := f.records[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *record
	return &copied, nil
}

func (f *fakeRequestRepo) GetByIdempotencyKey(ctx context.Context, key string) (*domain.GenerationRequestRecord, error) {
	for _, record := range f.records {
		if record.IdempotencyKey == key {
			copied := *record
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeRequestRepo) single(t *testing.T) *domain.GenerationRequestRecord {
	t.Helper()
	require.Len(t, f.records, 1)
	for _, record := range f.records {
		return record
	}
	return nil
}

// --- Fixtures ---

func testCatalog() []domain.Exercise {
	mk := func(name, group, equipment string) domain.Exercise {
		return domain.Exercise{
			ID:          primitive.NewObjectID(),
			Name:        name,
			MuscleGroup: group,
			Equipment:   equipment,
			IsPublic:    true,
		}
	}
	return []domain.Exercise{
		mk("Push Up", "Chest", "bodyweight"),
		mk("Bench Press", "Chest", "barbell"),
		mk("Squat", "Legs", "barbell"),
		mk("Air Squat", "Legs", "bodyweight"),
		mk("Pull Up", "Back", "bodyweight"),
		mk("Barbell Row", "Back", "barbell"),
		mk("Plank", "Core", ""),
		mk("Overhead Press", "Shoulders", "barbell"),
	}
}

type serviceFixture struct {
	svc        GenerationService
	exercises  *fakeExerciseRepo
	blueprints *fakeBlueprintRepo
	requests   *fakeRequestRepo
}

func newFixture() *serviceFixture {
	exercises := &fakeExerciseRepo{exercises: testCatalog()}
	blueprints := newFakeBlueprintRepo()
	requests := newFakeRequestRepo()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := NewGenerationService(exercises, blueprints, requests, nil, 3, time.Millisecond, logger)
	return &serviceFixture{svc: svc, exercises: exercises, blueprints: blueprints, requests: requests}
}

func testRequest() domain.GenerationRequest {
	return domain.GenerationRequest{
		FitnessLevel:          domain.LevelIntermediate,
		AvailableEquipment:    []string{"barbell", "bodyweight"},
		WorkoutType:           domain.TypeStrength,
		TargetDurationMinutes: 45,
		AllowCachedResults:    true,
	}
}

// --- Tests ---

func TestGenerateWorkoutFreshPath(t *testing.T) {
	f := newFixture()
	userID := primitive.NewObjectID()

	workout, err := f.svc.GenerateWorkout(context.Background(), userID, testRequest(), "")
	require.NoError(t, err)

	assert.False(t, workout.FromCache)
	assert.NotEmpty(t, workout.SpecHash)
	assert.Equal(t, domain.LevelIntermediate, workout.Difficulty)
	assert.Len(t, workout.Exercises, 5) // 45 min strength -> 1 per 8 min

	// Intermediate parameter table.
	for _, ex := range workout.Exercises {
		assert.Equal(t, 3, ex.Sets)
		assert.Equal(t, 10, ex.MinReps)
		assert.Equal(t, 15, ex.MaxReps)
		assert.Equal(t, 60, ex.RestTimeSeconds)
	}

	// Tracker record reached the completed terminal state.
	record := f.requests.single(t)
	assert.Equal(t, domain.StatusCompleted, record.Status)
	require.NotNil(t, record.BlueprintID)
	assert.Equal(t, workout.SpecHash, record.SpecHash)
	assert.NotNil(t, record.CompletedAt)
}

func TestGenerateWorkoutOrderIndicesAreContiguous(t *testing.T) {
	f := newFixture()

	workout, err := f.svc.GenerateWorkout(context.Background(), primitive.NewObjectID(), testRequest(), "")
	require.NoError(t, err)

	seen := map[int]bool{}
	for _, ex := range workout.Exercises {
		seen[ex.OrderIndex] = true
	}
	for i := 0; i < len(workout.Exercises); i++ {
		assert.True(t, seen[i], "order index %d missing", i)
	}
	assert.Len(t, seen, len(workout.Exercises))
}

func TestGenerateWorkoutBodyweightConstraint(t *testing.T) {
	f := newFixture()
	req := testRequest()
	req.AvailableEquipment = []string{"bodyweight"}

	workout, err := f.svc.GenerateWorkout(context.Background(), primitive.NewObjectID(), req, "")
	require.NoError(t, err)
	require.NotEmpty(t, workout.Exercises)

	for _, ex := range workout.Exercises {
		assert.True(t, ex.Equipment == "bodyweight" || ex.Equipment == "",
			"%s requires unavailable equipment %q", ex.Name, ex.Equipment)
	}
}

func TestGenerateWorkoutCacheIdempotence(t *testing.T) {
	f := newFixture()
	userID := primitive.NewObjectID()

	first, err := f.svc.GenerateWorkout(context.Background(), userID, testRequest(), "")
	require.NoError(t, err)
	assert.False(t, first.FromCache)

	second, err := f.svc.GenerateWorkout(context.Background(), userID, testRequest(), "")
	require.NoError(t, err)
	assert.True(t, second.FromCache)

	require.Len(t, second.Exercises, len(first.Exercises))
	for i := range first.Exercises {
		assert.Equal(t, first.Exercises[i].ExerciseID, second.Exercises[i].ExerciseID)
		assert.Equal(t, first.Exercises[i].OrderIndex, second.Exercises[i].OrderIndex)
	}

	bp := f.blueprints.byHash[first.SpecHash]
	require.NotNil(t, bp)
	assert.Equal(t, int64(2), bp.UsageCount, "cache hit must bump the usage counter")
}

func TestGenerateWorkoutCacheDisabled(t *testing.T) {
	f := newFixture()
	req := testRequest()
	req.AllowCachedResults = false

	_, err := f.svc.GenerateWorkout(context.Background(), primitive.NewObjectID(), req, "")
	require.NoError(t, err)

	second, err := f.svc.GenerateWorkout(context.Background(), primitive.NewObjectID(), req, "")
	require.NoError(t, err)
	assert.False(t, second.FromCache)
}

func TestGenerateWorkoutRegenerateBypassesCache(t *testing.T) {
	f := newFixture()
	userID := primitive.NewObjectID()

	first, err := f.svc.GenerateWorkout(context.Background(), userID, testRequest(), "")
	require.NoError(t, err)

	req := testRequest()
	req.Regenerate = true
	second, err := f.svc.GenerateWorkout(context.Background(), userID, req, "")
	require.NoError(t, err)

	assert.False(t, second.FromCache)
	assert.Equal(t, first.SpecHash, second.SpecHash, "regenerate does not change the cache key")

	// The fresh result overwrote the cache entry for the hash.
	bp := f.blueprints.byHash[second.SpecHash]
	require.NotNil(t, bp)
	require.Len(t, bp.Routine.Exercises, len(second.Exercises))
	for i, ex := range second.Exercises {
		assert.Equal(t, ex.ExerciseID, bp.Routine.Exercises[i].ExerciseID.Hex())
	}
}

func TestGenerateWorkoutCacheHitRejoinsLiveCatalog(t *testing.T) {
	f := newFixture()
	userID := primitive.NewObjectID()

	first, err := f.svc.GenerateWorkout(context.Background(), userID, testRequest(), "")
	require.NoError(t, err)

	// Rename a selected exercise in the catalog; the cached result must
	// reflect the edit because blueprints store references, not copies.
	renamedID := first.Exercises[0].ExerciseID
	for i := range f.exercises.exercises {
		if f.exercises.exercises[i].ID.Hex() == renamedID {
			f.exercises.exercises[i].Name = "Renamed Exercise"
		}
	}

	second, err := f.svc.GenerateWorkout(context.Background(), userID, testRequest(), "")
	require.NoError(t, err)
	require.True(t, second.FromCache)
	assert.Equal(t, "Renamed Exercise", second.Exercises[0].Name)
}

func TestGenerateWorkoutIdempotentReplay(t *testing.T) {
	f := newFixture()
	userID := primitive.NewObjectID()
	key := "client-key-1"

	first, err := f.svc.GenerateWorkout(context.Background(), userID, testRequest(), key)
	require.NoError(t, err)

	second, err := f.svc.GenerateWorkout(context.Background(), userID, testRequest(), key)
	require.NoError(t, err)

	firstJSON, err := json.Marshal(first)
	require.NoError(t, err)
	secondJSON, err := json.Marshal(second)
	require.NoError(t, err)
	assert.Equal(t, firstJSON, secondJSON, "replay must return the stored result verbatim")

	// Replay recomputes nothing and touches no usage counters.
	bp := f.blueprints.byHash[first.SpecHash]
	require.NotNil(t, bp)
	assert.Equal(t, int64(1), bp.UsageCount)
}

func TestGenerateWorkoutIdempotencyConflict(t *testing.T) {
	f := newFixture()
	key := "shared-key"

	_, err := f.svc.GenerateWorkout(context.Background(), primitive.NewObjectID(), testRequest(), key)
	require.NoError(t, err)

	_, err = f.svc.GenerateWorkout(context.Background(), primitive.NewObjectID(), testRequest(), key)
	assert.ErrorIs(t, err, ErrIdempotencyConflict)
}

func TestGenerateWorkoutKeyTakeoverAfterFailure(t *testing.T) {
	f := newFixture()
	userID := primitive.NewObjectID()
	key := "retry-key"

	// First attempt fails (nothing matches the filters).
	bad := testRequest()
	bad.AvailableEquipment = []string{"cable machine"}
	bad.TargetMuscleGroups = []string{"forearms"}
	_, err := f.svc.GenerateWorkout(context.Background(), userID, bad, key)
	require.ErrorIs(t, err, ErrNoSuitableExercises)
	failedID := f.requests.single(t).ID

	// A failed attempt does not consume the key; the retry succeeds and the
	// key now replays the successful result.
	workout, err := f.svc.GenerateWorkout(context.Background(), userID, testRequest(), key)
	require.NoError(t, err)

	// The retry took over the failed record rather than adding a second one,
	// and the completion update found it under the same id.
	taken := f.requests.single(t)
	assert.Equal(t, failedID, taken.ID)
	assert.Equal(t, domain.StatusCompleted, taken.Status)
	assert.NotEmpty(t, taken.ResultJSON)

	replay, err := f.svc.GenerateWorkout(context.Background(), userID, testRequest(), key)
	require.NoError(t, err)
	assert.Equal(t, workout.ID, replay.ID)
}

func TestGenerateWorkoutNoSuitableExercises(t *testing.T) {
	f := newFixture()
	req := testRequest()
	req.AvailableEquipment = []string{"cable machine"}
	req.TargetMuscleGroups = []string{"forearms"}

	_, err := f.svc.GenerateWorkout(context.Background(), primitive.NewObjectID(), req, "")
	assert.ErrorIs(t, err, ErrNoSuitableExercises)

	record := f.requests.single(t)
	assert.Equal(t, domain.StatusFailed, record.Status)
	assert.NotEmpty(t, record.ErrorMessage)
}

func TestGenerateWorkoutInvalidRequest(t *testing.T) {
	f := newFixture()

	tests := []struct {
		name   string
		mutate func(*domain.GenerationRequest)
	}{
		{"empty equipment", func(r *domain.GenerationRequest) { r.AvailableEquipment = nil }},
		{"duration out of range", func(r *domain.GenerationRequest) { r.TargetDurationMinutes = 5 }},
		{"unknown level", func(r *domain.GenerationRequest) { r.FitnessLevel = "pro" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := testRequest()
			tt.mutate(&req)
			_, err := f.svc.GenerateWorkout(context.Background(), primitive.NewObjectID(), req, "")
			assert.ErrorIs(t, err, ErrInvalidRequest)
		})
	}

	// Rejected before any record was written.
	assert.Empty(t, f.requests.records)
}

func TestGenerateWorkoutRetriesTransientTouchFailure(t *testing.T) {
	f := newFixture()
	userID := primitive.NewObjectID()

	_, err := f.svc.GenerateWorkout(context.Background(), userID, testRequest(), "")
	require.NoError(t, err)

	// Two transient failures fit inside the three-attempt budget.
	f.blueprints.touchFailures = 2
	workout, err := f.svc.GenerateWorkout(context.Background(), userID, testRequest(), "")
	require.NoError(t, err)
	assert.True(t, workout.FromCache)
}

func TestGenerateWorkoutTouchRetryExhaustion(t *testing.T) {
	f := newFixture()
	userID := primitive.NewObjectID()

	_, err := f.svc.GenerateWorkout(context.Background(), userID, testRequest(), "")
	require.NoError(t, err)

	f.blueprints.touchFailures = 10
	_, err = f.svc.GenerateWorkout(context.Background(), userID, testRequest(), "")
	assert.ErrorIs(t, err, ErrGenerationFailed)
}

func TestGenerateWorkoutTerminalWriteRetryExhaustion(t *testing.T) {
	f := newFixture()
	f.requests.completeFailures = 10

	_, err := f.svc.GenerateWorkout(context.Background(), primitive.NewObjectID(), testRequest(), "")
	assert.ErrorIs(t, err, ErrGenerationFailed)
}

func TestGenerateWorkoutIncludesAndExcludes(t *testing.T) {
	f := newFixture()
	req := testRequest()
	req.IncludeExercises = []string{"plank"}
	req.ExcludeExercises = []string{"bench press"}

	workout, err := f.svc.GenerateWorkout(context.Background(), primitive.NewObjectID(), req, "")
	require.NoError(t, err)
	require.NotEmpty(t, workout.Exercises)

	assert.Equal(t, "Plank", workout.Exercises[0].Name, "explicit includes come first")
	for _, ex := range workout.Exercises {
		assert.NotEqual(t, "Bench Press", ex.Name)
	}
}

func TestGetGenerationRequestOwnership(t *testing.T) {
	f := newFixture()
	owner := primitive.NewObjectID()

	_, err := f.svc.GenerateWorkout(context.Background(), owner, testRequest(), "")
	require.NoError(t, err)
	record := f.requests.single(t)

	got, err := f.svc.GetGenerationRequest(context.Background(), owner, record.ID)
	require.NoError(t, err)
	assert.Equal(t, record.ID, got.ID)

	_, err = f.svc.GetGenerationRequest(context.Background(), primitive.NewObjectID(), record.ID)
	assert.ErrorIs(t, err, ErrRequestAccessDenied)

	_, err = f.svc.GetGenerationRequest(context.Background(), owner, primitive.NewObjectID())
	assert.ErrorIs(t, err, ErrRequestNotFound)
}

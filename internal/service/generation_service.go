package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"alcyxob/workout-engine/internal/domain"
	"alcyxob/workout-engine/internal/generation"
	"alcyxob/workout-engine/internal/metrics"
	"alcyxob/workout-engine/internal/repository"
	"alcyxob/workout-engine/internal/storage"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Error Definitions ---
var (
	ErrInvalidRequest      = errors.New("invalid generation request")
	ErrNoSuitableExercises = errors.New("no suitable exercises match the request")
	ErrIdempotencyConflict = errors.New("idempotency key already used by a different user")
	ErrGenerationFailed    = errors.New("workout generation failed")
	ErrRequestNotFound     = errors.New("generation request not found")
	ErrRequestAccessDenied = errors.New("access denied to this generation request")
)

// GenerationService is the public contract of the workout generation engine.
type GenerationService interface {
	// GenerateWorkout runs one generation attempt for the user. The optional
	// idempotency key guarantees at-most-one effective generation per key:
	// a replay by the same user returns the stored result verbatim, a replay
	// by a different user fails with ErrIdempotencyConflict.
	GenerateWorkout(ctx context.Context, userID primitive.ObjectID, req domain.GenerationRequest, idempotencyKey string) (*domain.GeneratedWorkout, error)

	// GetGenerationRequest returns one tracking record, enforcing ownership.
	GetGenerationRequest(ctx context.Context, userID, requestID primitive.ObjectID) (*domain.GenerationRequestRecord, error)
}

// generationService implements the GenerationService interface.
type generationService struct {
	exerciseRepo  repository.ExerciseRepository
	blueprintRepo repository.BlueprintRepository
	requestRepo   repository.GenerationRequestRepository
	fileStorage   storage.FileStorage // optional; nil disables video links
	retry         retryPolicy
	logger        *slog.Logger
	now           func() time.Time
}

// NewGenerationService creates a new instance of generationService.
// fileStorage may be nil, in which case generated workouts carry no video URLs.
func NewGenerationService(
	exerciseRepo repository.ExerciseRepository,
	blueprintRepo repository.BlueprintRepository,
	requestRepo repository.GenerationRequestRepository,
	fileStorage storage.FileStorage,
	retryAttempts int,
	retryBackoff time.Duration,
	logger *slog.Logger,
) GenerationService {
	if logger == nil {
		logger = slog.Default()
	}
	return &generationService{
		exerciseRepo:  exerciseRepo,
		blueprintRepo: blueprintRepo,
		requestRepo:   requestRepo,
		fileStorage:   fileStorage,
		retry:         newRetryPolicy(retryAttempts, retryBackoff),
		logger:        logger,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// GenerateWorkout is the orchestrator: idempotency check, normalize + hash,
// cache lookup, and on a miss the full selection pipeline with lifecycle
// tracking.
func (s *generationService) GenerateWorkout(ctx context.Context, userID primitive.ObjectID, req domain.GenerationRequest, idempotencyKey string) (*domain.GeneratedWorkout, error) {
	if userID == primitive.NilObjectID {
		return nil, fmt.Errorf("%w: user ID is required", ErrInvalidRequest)
	}
	if err := generation.ValidateRequest(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	// Step 1: idempotent replay / conflict check.
	if idempotencyKey != "" {
		replay, err := s.checkIdempotencyKey(ctx, userID, idempotencyKey)
		if err != nil {
			return nil, err
		}
		if replay != nil {
			metrics.IdempotentReplays.Inc()
			return replay, nil
		}
	}

	// Step 2: canonical form and cache key.
	spec := generation.Normalize(req)
	specHash := generation.HashSpec(spec)

	// Step 3: cache hit path. Regenerate always takes the miss path and its
	// result overwrites the cache entry afterward.
	if req.AllowCachedResults && !req.Regenerate {
		workout, err := s.tryServeFromCache(ctx, specHash, req)
		if err != nil {
			return nil, err
		}
		if workout != nil {
			metrics.CacheHits.Inc()
			return workout, nil
		}
	}

	// Step 4: full pipeline under a tracking record.
	metrics.CacheMisses.Inc()
	return s.generateFresh(ctx, userID, req, spec, specHash, idempotencyKey)
}

// checkIdempotencyKey resolves a client idempotency key. Returns a non-nil
// workout for a replay, ErrIdempotencyConflict for a foreign key, and
// (nil, nil) when the attempt should proceed.
func (s *generationService) checkIdempotencyKey(ctx context.Context, userID primitive.ObjectID, key string) (*domain.GeneratedWorkout, error) {
	record, err := s.requestRepo.GetByIdempotencyKey(ctx, key)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil
		}
		s.logger.Error("idempotency lookup failed", "error", err)
		return nil, ErrGenerationFailed
	}

	if record.UserID != userID {
		return nil, ErrIdempotencyConflict
	}
	if record.Status == domain.StatusCompleted && record.ResultJSON != "" {
		var workout domain.GeneratedWorkout
		if err := json.Unmarshal([]byte(record.ResultJSON), &workout); err != nil {
			s.logger.Error("stored idempotency result is unreadable", "requestId", record.ID.Hex(), "error", err)
			return nil, ErrGenerationFailed
		}
		return &workout, nil
	}
	// A failed or stale-processing record does not consume the key; the new
	// attempt takes it over at record creation.
	return nil, nil
}

// tryServeFromCache returns the blueprint for the hash re-joined against the
// live catalog, or (nil, nil) on a miss. A cache read error is treated as a
// miss rather than a failure; the pipeline can still produce the result.
func (s *generationService) tryServeFromCache(ctx context.Context, specHash string, req domain.GenerationRequest) (*domain.GeneratedWorkout, error) {
	blueprint, err := s.blueprintRepo.GetBySpecHash(ctx, specHash)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			s.logger.Warn("blueprint lookup failed, falling through to generation", "specHash", specHash, "error", err)
		}
		return nil, nil
	}

	if err := s.retry.run(ctx, func(ctx context.Context) error {
		return s.blueprintRepo.TouchUsage(ctx, blueprint.ID)
	}); err != nil {
		s.logger.Error("blueprint usage touch failed", "blueprintId", blueprint.ID.Hex(), "error", err)
		return nil, ErrGenerationFailed
	}

	workout, err := s.assembleFromBlueprint(ctx, blueprint, req)
	if err != nil {
		s.logger.Error("blueprint re-join failed", "blueprintId", blueprint.ID.Hex(), "error", err)
		return nil, ErrGenerationFailed
	}
	return workout, nil
}

// generateFresh runs the selection pipeline, persists the blueprint and
// tracks the attempt's lifecycle. Every exit path leaves the tracker record
// in a terminal state.
func (s *generationService) generateFresh(ctx context.Context, userID primitive.ObjectID, req domain.GenerationRequest, spec generation.NormalizedSpec, specHash, idempotencyKey string) (*domain.GeneratedWorkout, error) {
	record := &domain.GenerationRequestRecord{
		UserID:         userID,
		SpecHash:       specHash,
		RequestJSON:    string(spec.CanonicalJSON()),
		IdempotencyKey: idempotencyKey,
	}
	recordID, err := s.requestRepo.Create(ctx, record)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			// Lost a race for the idempotency key; resolve by re-reading it.
			replay, rerr := s.checkIdempotencyKey(ctx, userID, idempotencyKey)
			if rerr != nil {
				return nil, rerr
			}
			if replay != nil {
				metrics.IdempotentReplays.Inc()
				return replay, nil
			}
		}
		s.logger.Error("failed to create generation request record", "error", err)
		return nil, ErrGenerationFailed
	}

	// --- Selection pipeline (pure, never retried) ---
	catalog, err := s.exerciseRepo.GetVisible(ctx)
	if err != nil {
		s.failAttempt(ctx, recordID, fmt.Sprintf("catalog read failed: %v", err))
		return nil, ErrGenerationFailed
	}

	filtered := generation.FilterCatalog(catalog, req)
	if len(filtered) == 0 {
		s.failAttempt(ctx, recordID, "no suitable exercises after filtering")
		return nil, ErrNoSuitableExercises
	}

	budget := generation.PlanTimeBudget(req.WorkoutType, req.TargetDurationMinutes)
	selected := generation.SelectBalanced(filtered, req.IncludeExercises, budget.ExerciseCount, req.TargetMuscleGroups)
	params := generation.ParamsForLevel(req.FitnessLevel)

	routineExercises := make([]domain.RoutineExercise, len(selected))
	for i, ex := range selected {
		routineExercises[i] = domain.RoutineExercise{
			ExerciseID:      ex.ID,
			Sets:            params.Sets,
			MinReps:         params.MinReps,
			MaxReps:         params.MaxReps,
			RestTimeSeconds: params.RestTimeSeconds,
			OrderIndex:      i,
		}
	}

	routine := domain.RoutineData{
		Exercises:                routineExercises,
		EstimatedDurationMinutes: generation.EstimateDuration(routineExercises),
	}

	// --- Persist the blueprint (retried; overwrites on regenerate) ---
	blueprint := &domain.WorkoutBlueprint{SpecHash: specHash, Routine: routine}
	var blueprintID primitive.ObjectID
	if err := s.retry.run(ctx, func(ctx context.Context) error {
		var uerr error
		blueprintID, uerr = s.blueprintRepo.Upsert(ctx, blueprint)
		return uerr
	}); err != nil {
		s.failAttempt(ctx, recordID, fmt.Sprintf("blueprint store failed: %v", err))
		return nil, ErrGenerationFailed
	}

	workout := s.assembleWorkout(ctx, selected, routine, req, specHash, false, s.now())

	resultJSON, err := json.Marshal(workout)
	if err != nil {
		s.failAttempt(ctx, recordID, fmt.Sprintf("result serialization failed: %v", err))
		return nil, ErrGenerationFailed
	}

	// --- Terminal success write (retried) ---
	if err := s.retry.run(ctx, func(ctx context.Context) error {
		return s.requestRepo.MarkCompleted(ctx, recordID, blueprintID, string(resultJSON))
	}); err != nil {
		s.logger.Error("failed to mark generation request completed", "requestId", recordID.Hex(), "error", err)
		metrics.Generations.WithLabelValues(string(domain.StatusFailed)).Inc()
		return nil, ErrGenerationFailed
	}

	metrics.Generations.WithLabelValues(string(domain.StatusCompleted)).Inc()
	s.logger.Info("workout generated",
		"userId", userID.Hex(),
		"specHash", specHash,
		"exercises", len(workout.Exercises),
		"estimatedMinutes", workout.EstimatedDuration,
	)
	return workout, nil
}

// failAttempt records the failure terminal transition. Internal detail goes
// to the tracker record and the log, never to the caller.
func (s *generationService) failAttempt(ctx context.Context, recordID primitive.ObjectID, reason string) {
	metrics.Generations.WithLabelValues(string(domain.StatusFailed)).Inc()
	if err := s.retry.run(ctx, func(ctx context.Context) error {
		return s.requestRepo.MarkFailed(ctx, recordID, reason)
	}); err != nil {
		// The record stays "processing"; callers inspecting it must treat
		// that as stale. Nothing more this engine can do.
		s.logger.Error("failed to mark generation request failed", "requestId", recordID.Hex(), "reason", reason, "error", err)
	}
}

// assembleWorkout builds the public GeneratedWorkout shape from live catalog
// entries and the routine parameters.
func (s *generationService) assembleWorkout(ctx context.Context, exercises []domain.Exercise, routine domain.RoutineData, req domain.GenerationRequest, specHash string, fromCache bool, createdAt time.Time) *domain.GeneratedWorkout {
	generated := make([]domain.GeneratedExercise, len(routine.Exercises))
	for i, re := range routine.Exercises {
		ex := exercises[i]
		generated[i] = domain.GeneratedExercise{
			ExerciseID:      ex.ID.Hex(),
			Name:            ex.Name,
			MuscleGroup:     ex.MuscleGroup,
			Equipment:       ex.Equipment,
			Sets:            re.Sets,
			MinReps:         re.MinReps,
			MaxReps:         re.MaxReps,
			TargetWeight:    re.TargetWeight,
			RestTimeSeconds: re.RestTimeSeconds,
			OrderIndex:      i,
			Notes:           re.Notes,
			VideoURL:        s.videoURL(ctx, ex),
		}
	}

	return &domain.GeneratedWorkout{
		ID:                uuid.NewString(),
		Name:              workoutName(req.WorkoutType, req.TargetDurationMinutes),
		Description:       workoutDescription(req),
		EstimatedDuration: routine.EstimatedDurationMinutes,
		Exercises:         generated,
		Difficulty:        req.FitnessLevel,
		Tags:              workoutTags(req),
		CreatedAt:         createdAt,
		SpecHash:          specHash,
		FromCache:         fromCache,
	}
}

// assembleFromBlueprint re-joins a cached routine against the live catalog so
// names, muscle groups and equipment reflect current catalog state even for
// old cache entries. Exercises deleted from the catalog since the blueprint
// was stored are dropped and the order indices re-densified.
func (s *generationService) assembleFromBlueprint(ctx context.Context, blueprint *domain.WorkoutBlueprint, req domain.GenerationRequest) (*domain.GeneratedWorkout, error) {
	ids := make([]primitive.ObjectID, len(blueprint.Routine.Exercises))
	for i, re := range blueprint.Routine.Exercises {
		ids[i] = re.ExerciseID
	}

	live, err := s.exerciseRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[primitive.ObjectID]domain.Exercise, len(live))
	for _, ex := range live {
		byID[ex.ID] = ex
	}

	generated := make([]domain.GeneratedExercise, 0, len(blueprint.Routine.Exercises))
	for _, re := range blueprint.Routine.Exercises {
		ex, ok := byID[re.ExerciseID]
		if !ok {
			continue
		}
		generated = append(generated, domain.GeneratedExercise{
			ExerciseID:      ex.ID.Hex(),
			Name:            ex.Name,
			MuscleGroup:     ex.MuscleGroup,
			Equipment:       ex.Equipment,
			Sets:            re.Sets,
			MinReps:         re.MinReps,
			MaxReps:         re.MaxReps,
			TargetWeight:    re.TargetWeight,
			RestTimeSeconds: re.RestTimeSeconds,
			OrderIndex:      len(generated),
			Notes:           re.Notes,
			VideoURL:        s.videoURL(ctx, ex),
		})
	}

	return &domain.GeneratedWorkout{
		ID:                uuid.NewString(),
		Name:              workoutName(req.WorkoutType, req.TargetDurationMinutes),
		Description:       workoutDescription(req),
		EstimatedDuration: blueprint.Routine.EstimatedDurationMinutes,
		Exercises:         generated,
		Difficulty:        req.FitnessLevel,
		Tags:              workoutTags(req),
		CreatedAt:         blueprint.CreatedAt,
		SpecHash:          blueprint.SpecHash,
		FromCache:         true,
	}, nil
}

// videoURL presigns the exercise's demo video, best effort.
func (s *generationService) videoURL(ctx context.Context, ex domain.Exercise) string {
	if s.fileStorage == nil || ex.VideoObjectKey == "" {
		return ""
	}
	url, err := s.fileStorage.GeneratePresignedDownloadURL(ctx, ex.VideoObjectKey, storage.DefaultPresignedURLExpiry)
	if err != nil {
		// Missing video links never fail a generation.
		s.logger.Warn("presign failed for exercise video", "exerciseId", ex.ID.Hex(), "error", err)
		return ""
	}
	return url
}

// GetGenerationRequest returns one tracking record, enforcing ownership.
func (s *generationService) GetGenerationRequest(ctx context.Context, userID, requestID primitive.ObjectID) (*domain.GenerationRequestRecord, error) {
	record, err := s.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrRequestNotFound
		}
		return nil, err
	}
	if record.UserID != userID {
		return nil, ErrRequestAccessDenied
	}
	return record, nil
}

// --- Presentation helpers ---

func workoutName(workoutType domain.WorkoutType, minutes int) string {
	return fmt.Sprintf("%d-Minute %s Workout", minutes, titleCase(string(workoutType)))
}

func workoutDescription(req domain.GenerationRequest) string {
	desc := fmt.Sprintf("%s %s workout", titleCase(string(req.FitnessLevel)), strings.ToLower(string(req.WorkoutType)))
	if len(req.TargetMuscleGroups) > 0 {
		desc += " targeting " + strings.Join(req.TargetMuscleGroups, ", ")
	}
	return desc + "."
}

func workoutTags(req domain.GenerationRequest) []string {
	tags := []string{string(req.WorkoutType), string(req.FitnessLevel)}
	tags = append(tags, req.TargetMuscleGroups...)
	return tags
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	if s == string(domain.TypeHIIT) {
		return "HIIT"
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

package api

import (
	"errors"
	"net/http"

	"alcyxob/workout-engine/internal/domain"
	"alcyxob/workout-engine/internal/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// IdempotencyKeyHeader carries the client-supplied idempotency token. It is
// not part of the hashed request spec.
const IdempotencyKeyHeader = "Idempotency-Key"

// GenerationHandler holds the generation service dependency.
type GenerationHandler struct {
	generationService service.GenerationService
}

// NewGenerationHandler creates a new GenerationHandler.
func NewGenerationHandler(generationService service.GenerationService) *GenerationHandler {
	return &GenerationHandler{generationService: generationService}
}

// --- DTOs for API (Data Transfer Objects) ---

// GenerateWorkoutRequest defines the expected JSON for workout generation.
type GenerateWorkoutRequest struct {
	FitnessLevel          string   `json:"fitnessLevel" binding:"required,oneof=beginner intermediate advanced"`
	AvailableEquipment    []string `json:"availableEquipment" binding:"required,min=1"`
	TargetMuscleGroups    []string `json:"targetMuscleGroups"`
	WorkoutType           string   `json:"workoutType" binding:"required,oneof=strength cardio hiit flexibility mixed"`
	TargetDurationMinutes int      `json:"targetDurationMinutes" binding:"required,min=10,max=180"`
	Intensity             string   `json:"intensity" binding:"omitempty,oneof=low moderate high"`
	ExcludeExercises      []string `json:"excludeExercises"`
	IncludeExercises      []string `json:"includeExercises"`
	AllowCachedResults    *bool    `json:"allowCachedResults"` // default true
	Regenerate            bool     `json:"regenerate"`
}

func (r GenerateWorkoutRequest) toDomain() domain.GenerationRequest {
	allowCached := true
	if r.AllowCachedResults != nil {
		allowCached = *r.AllowCachedResults
	}
	return domain.GenerationRequest{
		FitnessLevel:          domain.FitnessLevel(r.FitnessLevel),
		AvailableEquipment:    r.AvailableEquipment,
		TargetMuscleGroups:    r.TargetMuscleGroups,
		WorkoutType:           domain.WorkoutType(r.WorkoutType),
		TargetDurationMinutes: r.TargetDurationMinutes,
		Intensity:             r.Intensity,
		ExcludeExercises:      r.ExcludeExercises,
		IncludeExercises:      r.IncludeExercises,
		AllowCachedResults:    allowCached,
		Regenerate:            r.Regenerate,
	}
}

// --- Handler Methods ---

// GenerateWorkout handles POST /workouts/generate.
// The optional Idempotency-Key header guarantees at-most-one effective
// generation per key: a replay by the same user returns the first result, a
// replay by a different user is rejected with 409.
func (h *GenerationHandler) GenerateWorkout(c *gin.Context) {
	var req GenerateWorkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	userIDStr, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user from token.")
		return
	}
	userID, err := primitive.ObjectIDFromHex(userIDStr)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid user ID format in token.")
		return
	}

	idempotencyKey := c.GetHeader(IdempotencyKeyHeader)

	workout, err := h.generationService.GenerateWorkout(c.Request.Context(), userID, req.toDomain(), idempotencyKey)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidRequest):
			abortWithError(c, http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrNoSuitableExercises):
			abortWithError(c, http.StatusUnprocessableEntity, "No exercises match the requested constraints.")
		case errors.Is(err, service.ErrIdempotencyConflict):
			abortWithError(c, http.StatusConflict, "Idempotency key is already in use by a different user.")
		default:
			abortWithError(c, http.StatusInternalServerError, "Workout generation failed.")
		}
		return
	}

	c.JSON(http.StatusOK, workout)
}

// GetGenerationRequest handles GET /workouts/requests/:id. It exposes the
// lifecycle record of one generation attempt to its owning user.
func (h *GenerationHandler) GetGenerationRequest(c *gin.Context) {
	userIDStr, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user from token.")
		return
	}
	userID, err := primitive.ObjectIDFromHex(userIDStr)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid user ID format in token.")
		return
	}

	requestID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid request ID format.")
		return
	}

	record, err := h.generationService.GetGenerationRequest(c.Request.Context(), userID, requestID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrRequestNotFound):
			abortWithError(c, http.StatusNotFound, "Generation request not found.")
		case errors.Is(err, service.ErrRequestAccessDenied):
			abortWithError(c, http.StatusForbidden, "Access denied to this generation request.")
		default:
			abortWithError(c, http.StatusInternalServerError, "Failed to load generation request.")
		}
		return
	}

	c.JSON(http.StatusOK, record)
}

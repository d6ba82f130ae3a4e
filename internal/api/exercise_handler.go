package api

import (
	"net/http"

	"alcyxob/workout-engine/internal/service"

	"github.com/gin-gonic/gin"
)

// ExerciseHandler holds the catalog service dependency.
type ExerciseHandler struct {
	catalogService service.CatalogService
}

// NewExerciseHandler creates a new ExerciseHandler.
func NewExerciseHandler(catalogService service.CatalogService) *ExerciseHandler {
	return &ExerciseHandler{catalogService: catalogService}
}

// ListExercises handles GET /exercises. Optional query filters:
// ?muscleGroup=back&equipment=dumbbell
func (h *ExerciseHandler) ListExercises(c *gin.Context) {
	exercises, err := h.catalogService.ListExercises(
		c.Request.Context(),
		c.Query("muscleGroup"),
		c.Query("equipment"),
	)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to load exercise catalog.")
		return
	}

	c.JSON(http.StatusOK, exercises)
}

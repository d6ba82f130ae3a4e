package api

import (
	"net/http"

	"alcyxob/workout-engine/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func SetupRoutes(
	router *gin.Engine,
	jwtSecret string,
	generationService service.GenerationService,
	catalogService service.CatalogService,
) {
	generationHandler := NewGenerationHandler(generationService)
	exerciseHandler := NewExerciseHandler(catalogService)

	authMiddleware := AuthMiddleware(jwtSecret)

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	apiV1 := router.Group("/api/v1")
	{
		// The catalog is public; generation requires an authenticated user.
		apiV1.GET("/exercises", exerciseHandler.ListExercises)

		protected := apiV1.Group("")
		protected.Use(authMiddleware)
		{
			workoutGroup := protected.Group("/workouts")
			{
				// POST /api/v1/workouts/generate (Idempotency-Key header optional)
				workoutGroup.POST("/generate", generationHandler.GenerateWorkout)
				// GET /api/v1/workouts/requests/{id}
				workoutGroup.GET("/requests/:id", generationHandler.GetGenerationRequest)
			}
		}
	}
}

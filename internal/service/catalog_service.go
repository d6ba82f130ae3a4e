package service

import (
	"context"
	"log/slog"
	"strings"

	"alcyxob/workout-engine/internal/domain"
	"alcyxob/workout-engine/internal/repository"
	"alcyxob/workout-engine/internal/storage"
)

// CatalogExercise is a catalog entry enriched with a short-lived presigned
// URL for its demo video, when one exists.
type CatalogExercise struct {
	domain.Exercise
	VideoURL string `json:"videoUrl,omitempty"`
}

// CatalogService exposes the read-only exercise catalog.
type CatalogService interface {
	// ListExercises returns the visible catalog, optionally filtered by
	// muscle group and equipment (case-insensitive).
	ListExercises(ctx context.Context, muscleGroup, equipment string) ([]CatalogExercise, error)
}

// catalogService implements the CatalogService interface.
type catalogService struct {
	exerciseRepo repository.ExerciseRepository
	fileStorage  storage.FileStorage // optional
	logger       *slog.Logger
}

// NewCatalogService creates a new instance of catalogService.
func NewCatalogService(exerciseRepo repository.ExerciseRepository, fileStorage storage.FileStorage, logger *slog.Logger) CatalogService {
	if logger == nil {
		logger = slog.Default()
	}
	return &catalogService{
		exerciseRepo: exerciseRepo,
		fileStorage:  fileStorage,
		logger:       logger,
	}
}

// ListExercises retrieves the visible catalog with optional filters applied.
func (s *catalogService) ListExercises(ctx context.Context, muscleGroup, equipment string) ([]CatalogExercise, error) {
	exercises, err := s.exerciseRepo.GetVisible(ctx)
	if err != nil {
		return nil, err
	}

	mg := strings.ToLower(strings.TrimSpace(muscleGroup))
	eq := strings.ToLower(strings.TrimSpace(equipment))

	result := make([]CatalogExercise, 0, len(exercises))
	for _, ex := range exercises {
		if mg != "" && !strings.Contains(strings.ToLower(ex.MuscleGroup), mg) {
			continue
		}
		if eq != "" && strings.ToLower(ex.Equipment) != eq {
			continue
		}
		entry := CatalogExercise{Exercise: ex}
		if s.fileStorage != nil && ex.VideoObjectKey != "" {
			url, perr := s.fileStorage.GeneratePresignedDownloadURL(ctx, ex.VideoObjectKey, storage.DefaultPresignedURLExpiry)
			if perr != nil {
				s.logger.Warn("presign failed for exercise video", "exerciseId", ex.ID.Hex(), "error", perr)
			} else {
				entry.VideoURL = url
			}
		}
		result = append(result, entry)
	}
	return result, nil
}

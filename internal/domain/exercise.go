// internal/domain/exercise.go
package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Exercise represents a single exercise definition in the catalog.
// The catalog is curated externally; this engine only reads it.
type Exercise struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name        string             `bson:"name" json:"name"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`

	MuscleGroup string `bson:"muscleGroup,omitempty" json:"muscleGroup,omitempty"` // e.g., "Chest", "Legs", "Back"
	Equipment   string `bson:"equipment,omitempty" json:"equipment,omitempty"`     // e.g., "barbell", "dumbbell", "bodyweight"; empty = none needed
	IsPublic    bool   `bson:"isPublic" json:"isPublic"`                           // Only public exercises are eligible for generation

	// Optional S3 object key for a demonstration video. The service layer turns
	// this into a short-lived presigned URL; the raw key is never exposed.
	VideoObjectKey string `bson:"videoObjectKey,omitempty" json:"-"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

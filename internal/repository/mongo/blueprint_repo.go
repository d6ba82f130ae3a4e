package mongo

import (
	"context"
	"errors"
	"log"
	"time"

	"alcyxob/workout-engine/internal/domain"
	"alcyxob/workout-engine/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const blueprintCollectionName = "workout_blueprints"

// mongoBlueprintRepository implements repository.BlueprintRepository
type mongoBlueprintRepository struct {
	collection *mongo.Collection
}

// NewMongoBlueprintRepository creates a new blueprint cache repository backed
// by MongoDB.
func NewMongoBlueprintRepository(db *mongo.Database) repository.BlueprintRepository {
	return &mongoBlueprintRepository{
		collection: db.Collection(blueprintCollectionName),
	}
}

// GetBySpecHash looks up the cached blueprint for a spec hash.
func (r *mongoBlueprintRepository) GetBySpecHash(ctx context.Context, specHash string) (*domain.WorkoutBlueprint, error) {
	var blueprint domain.WorkoutBlueprint
	filter := bson.M{"specHash": specHash}

	err := r.collection.FindOne(ctx, filter).Decode(&blueprint)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &blueprint, nil
}

// Upsert inserts or overwrites the blueprint for its spec hash. The upsert is
// a single atomic document write, so two concurrent first-writers of the same
// hash simply race for the row; both computed the same deterministic routine.
func (r *mongoBlueprintRepository) Upsert(ctx context.Context, blueprint *domain.WorkoutBlueprint) (primitive.ObjectID, error) {
	if blueprint.SpecHash == "" {
		return primitive.NilObjectID, errors.New("blueprint spec hash is required")
	}

	now := time.Now().UTC()
	if blueprint.CreatedAt.IsZero() {
		blueprint.CreatedAt = now
	}
	if blueprint.UsageCount == 0 {
		blueprint.UsageCount = 1
	}
	blueprint.LastUsedAt = now

	filter := bson.M{"specHash": blueprint.SpecHash}
	update := bson.M{
		"$set": bson.M{
			"routine":    blueprint.Routine,
			"lastUsedAt": blueprint.LastUsedAt,
		},
		// An overwrite (regenerate, or a lost race) keeps the row's usage history.
		"$setOnInsert": bson.M{
			"specHash":   blueprint.SpecHash,
			"usageCount": blueprint.UsageCount,
			"createdAt":  blueprint.CreatedAt,
		},
	}

	opts := options.Update().SetUpsert(true)
	result, err := r.collection.UpdateOne(ctx, filter, update, opts)
	if err != nil {
		return primitive.NilObjectID, err
	}

	if upsertedID, ok := result.UpsertedID.(primitive.ObjectID); ok {
		blueprint.ID = upsertedID
		return upsertedID, nil
	}

	// Overwrite path (regenerate, or a lost race): fetch the existing row id.
	existing, err := r.GetBySpecHash(ctx, blueprint.SpecHash)
	if err != nil {
		return primitive.NilObjectID, err
	}
	blueprint.ID = existing.ID
	return existing.ID, nil
}

// TouchUsage bumps the usage counter and refreshes the last-used timestamp in
// one atomic single-document update.
func (r *mongoBlueprintRepository) TouchUsage(ctx context.Context, id primitive.ObjectID) error {
	filter := bson.M{"_id": id}
	update := bson.M{
		"$inc": bson.M{"usageCount": 1},
		"$set": bson.M{"lastUsedAt": time.Now().UTC()},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// EnsureBlueprintIndexes creates necessary indexes for the blueprint collection.
func EnsureBlueprintIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			// The cache key. Unique so concurrent first-writers coalesce on one row.
			Keys:    bson.D{{Key: "specHash", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}

	if _, err := collection.Indexes().CreateMany(ctx, indexes); err != nil {
		log.Printf("WARN: Failed to create indexes for collection %s: %v", collection.Name(), err)
	}
}

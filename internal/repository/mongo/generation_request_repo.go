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

const generationRequestCollectionName = "generation_requests"

// mongoGenerationRequestRepository implements repository.GenerationRequestRepository
type mongoGenerationRequestRepository struct {
	collection *mongo.Collection
}

// NewMongoGenerationRequestRepository creates a new generation-request tracker
// repository backed by MongoDB.
func NewMongoGenerationRequestRepository(db *mongo.Database) repository.GenerationRequestRepository {
	return &mongoGenerationRequestRepository{
		collection: db.Collection(generationRequestCollectionName),
	}
}

// Create persists a new attempt record in the processing state.
//
// Without an idempotency key this is a plain insert. With a key, the record
// replaces any existing non-completed record for that key (a retry after a
// failed attempt takes over the key). A completed record is never replaced:
// the unique key index rejects the write and the caller sees ErrDuplicateKey,
// which it resolves by re-reading the key.
func (r *mongoGenerationRequestRepository) Create(ctx context.Context, record *domain.GenerationRequestRecord) (primitive.ObjectID, error) {
	if record.UserID == primitive.NilObjectID || record.SpecHash == "" {
		return primitive.NilObjectID, errors.New("user ID and spec hash are required")
	}

	record.Status = domain.StatusProcessing
	record.CreatedAt = time.Now().UTC()

	if record.IdempotencyKey == "" {
		record.ID = primitive.NewObjectID()
		_, err := r.collection.InsertOne(ctx, record)
		if err != nil {
			return primitive.NilObjectID, err
		}
		return record.ID, nil
	}

	filter := bson.M{
		"idempotencyKey": record.IdempotencyKey,
		"status":         bson.M{"$ne": domain.StatusCompleted},
	}
	// The replacement must not carry an _id: replacing a matched document with
	// a different _id is an immutable-field error. Leaving it zero (omitempty)
	// keeps the taken-over record's _id, or lets the server mint one on upsert.
	record.ID = primitive.NilObjectID
	opts := options.FindOneAndReplace().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var stored domain.GenerationRequestRecord
	err := r.collection.FindOneAndReplace(ctx, filter, record, opts).Decode(&stored)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			// A completed record already owns this key.
			return primitive.NilObjectID, repository.ErrDuplicateKey
		}
		return primitive.NilObjectID, err
	}
	record.ID = stored.ID
	return stored.ID, nil
}

// MarkCompleted is the success terminal transition: sets the blueprint id,
// the serialized result and the completion timestamp.
func (r *mongoGenerationRequestRepository) MarkCompleted(ctx context.Context, id, blueprintID primitive.ObjectID, resultJSON string) error {
	now := time.Now().UTC()
	filter := bson.M{"_id": id}
	update := bson.M{
		"$set": bson.M{
			"status":      domain.StatusCompleted,
			"blueprintId": blueprintID,
			"resultJson":  resultJSON,
			"completedAt": now,
		},
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

// MarkFailed is the failure terminal transition.
func (r *mongoGenerationRequestRepository) MarkFailed(ctx context.Context, id primitive.ObjectID, errorMessage string) error {
	now := time.Now().UTC()
	filter := bson.M{"_id": id}
	update := bson.M{
		"$set": bson.M{
			"status":       domain.StatusFailed,
			"errorMessage": errorMessage,
			"completedAt":  now,
		},
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

// GetByID retrieves one attempt record.
func (r *mongoGenerationRequestRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.GenerationRequestRecord, error) {
	var record domain.GenerationRequestRecord
	filter := bson.M{"_id": id}

	err := r.collection.FindOne(ctx, filter).Decode(&record)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &record, nil
}

// GetByIdempotencyKey retrieves the record owning a client idempotency key.
func (r *mongoGenerationRequestRepository) GetByIdempotencyKey(ctx context.Context, key string) (*domain.GenerationRequestRecord, error) {
	var record domain.GenerationRequestRecord
	filter := bson.M{"idempotencyKey": key}

	err := r.collection.FindOne(ctx, filter).Decode(&record)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &record, nil
}

// EnsureGenerationRequestIndexes creates necessary indexes for the
// generation_requests collection.
func EnsureGenerationRequestIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			// At most one record per idempotency key. Sparse so keyless attempts
			// are unconstrained.
			Keys:    bson.D{{Key: "idempotencyKey", Value: 1}},
			Options: options.Index().SetUnique(true).SetSparse(true),
		},
		{
			// For per-user history queries.
			Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}},
			Options: options.Index(),
		},
	}

	if _, err := collection.Indexes().CreateMany(ctx, indexes); err != nil {
		log.Printf("WARN: Failed to create indexes for collection %s: %v", collection.Name(), err)
	}
}

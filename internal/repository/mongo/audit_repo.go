package mongo

import (
	"context"
	"fmt"

	"alcyxob/file-grants/internal/domain"
	"alcyxob/file-grants/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// mongoAuditRepository implements repository.AuditRepository
type mongoAuditRepository struct {
	collection *mongo.Collection
}

// NewMongoAuditRepository stores audit records in the named collection.
// The audit id is the document _id, so a repeated id is rejected.
func NewMongoAuditRepository(db *mongo.Database, collectionName string) repository.AuditRepository {
	return &mongoAuditRepository{
		collection: db.Collection(collectionName),
	}
}

// Put inserts the record.
func (r *mongoAuditRepository) Put(ctx context.Context, record *domain.AuditRecord) error {
	if err := repository.Validate(record); err != nil {
		return err
	}

	if _, err := r.collection.InsertOne(ctx, record); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return repository.ErrDuplicate
		}
		return fmt.Errorf("insert audit record into %s: %w", r.collection.Name(), err)
	}
	return nil
}

// EnsureAuditIndexes creates the lookup indexes used by audit consumers.
func EnsureAuditIndexes(ctx context.Context, collection *mongo.Collection) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user", Value: 1}, {Key: "ts", Value: -1}},
			Options: options.Index(),
		},
		{
			Keys:    bson.D{{Key: "file_key", Value: 1}},
			Options: options.Index(),
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}

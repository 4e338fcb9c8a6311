package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"translation-sync/internal/domain"
)

type mongoDocumentRepository struct {
	coll       *mongo.Collection
	disconnect func(ctx context.Context) error
}

// NewMongoDocumentRepository replaces whole documents in coll. disconnect may be nil
// when the caller owns the client.
func NewMongoDocumentRepository(coll *mongo.Collection, disconnect func(ctx context.Context) error) DocumentRepository {
	return &mongoDocumentRepository{coll: coll, disconnect: disconnect}
}

func (r *mongoDocumentRepository) Upsert(ctx context.Context, doc *domain.TranslationDocument) error {
	filter := bson.M{"lang": doc.Lang, "project": doc.Project}
	_, err := r.coll.ReplaceOne(ctx, filter, doc, options.Replace().SetUpsert(true))
	return err
}

func (r *mongoDocumentRepository) Close(ctx context.Context) error {
	if r.disconnect == nil {
		return nil
	}
	return r.disconnect(ctx)
}

package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"translation-sync/internal/domain"
)

func TestMongoDocumentRepository_Upsert(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	doc := &domain.TranslationDocument{
		Lang:         "en",
		Project:      "projecta",
		Translations: map[string]string{"x_y": "hi"},
	}

	mt.Run("Success", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 1},
			bson.E{Key: "nModified", Value: 1},
		))
		repo := NewMongoDocumentRepository(mt.Coll, nil)

		assert.NoError(mt, repo.Upsert(context.Background(), doc))
		assert.NoError(mt, repo.Close(context.Background()))
	})

	mt.Run("Write Error", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    11000,
			Message: "duplicate key error",
		}))
		repo := NewMongoDocumentRepository(mt.Coll, nil)

		err := repo.Upsert(context.Background(), doc)

		assert.Error(mt, err)
	})
}

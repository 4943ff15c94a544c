package extrasRepo

import (
	"context"
	"fmt"
	"time"

	"rentify/database"
	"rentify/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoExtrasRepo implements ExtrasRepository using MongoDB.
type MongoExtrasRepo struct {
	coll *mongo.Collection
}

// NewMongoExtrasRepo creates a new instance of ExtrasRepository using MongoDB.
func NewMongoExtrasRepo() ExtrasRepository {
	coll := database.MongoClient.Database("rentify").Collection("extras")
	repo := &MongoExtrasRepo{coll: coll}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	indexModel := mongo.IndexModel{
		Keys:    bson.D{{Key: "id", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	if _, err := coll.Indexes().CreateOne(ctx, indexModel); err != nil {
		fmt.Printf("failed to create indexes: %v\n", err)
	}
	return repo
}

// List returns every extra currently offered.
func (r *MongoExtrasRepo) List(ctx context.Context) ([]models.CatalogExtra, error) {
	cursor, err := r.coll.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to list extras: %w", err)
	}
	defer cursor.Close(ctx)

	var extras []models.CatalogExtra
	if err := cursor.All(ctx, &extras); err != nil {
		return nil, fmt.Errorf("failed to decode extras: %w", err)
	}
	return extras, nil
}

package config

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func ConnectMongoDB(cfg *Config) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %v", err)
	}

	// Test connection
	err = client.Ping(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %v", err)
	}

	// Create indexes
	err = createIndexes(client, cfg.DBName)
	if err != nil {
		return nil, fmt.Errorf("failed to create indexes: %v", err)
	}

	return client, nil
}

func createIndexes(client *mongo.Client, dbName string) error {
	db := client.Database(dbName)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Catalog traversal paths: program -> department -> college -> campus -> organization
	indexSets := map[string][]mongo.IndexModel{
		"programs": {
			{Keys: bson.D{{Key: "department_id", Value: 1}}},
		},
		"departments": {
			{Keys: bson.D{{Key: "college_id", Value: 1}}},
		},
		"colleges": {
			{Keys: bson.D{{Key: "campus_id", Value: 1}}},
		},
		"campuses": {
			{Keys: bson.D{{Key: "organization_id", Value: 1}}},
		},
		"fundings": {
			{Keys: bson.D{{Key: "funding_for_dept_id", Value: 1}}},
			{Keys: bson.D{{Key: "funding_for_faculty_user_id", Value: 1}}},
		},
		"user_details": {
			{Keys: bson.D{{Key: "user_id", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "user_type", Value: 1}}},
			{Keys: bson.D{{Key: "groups", Value: 1}}},
		},
	}

	for collection, indexes := range indexSets {
		if _, err := db.Collection(collection).Indexes().CreateMany(ctx, indexes); err != nil {
			return fmt.Errorf("indexes for %s: %v", collection, err)
		}
	}

	return nil
}

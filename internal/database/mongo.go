package database

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// ConnectMongo はMongoDBに接続してPingする。到達できない場合は切断してエラーを返す。
func ConnectMongo(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	return client, nil
}

// mongoIndexes はコレクションごとに作成するインデックス。
// users.firebaseUidとusers.emailはユニーク。
var mongoIndexes = map[string][]mongo.IndexModel{
	"users": {
		{Keys: bson.D{{Key: "firebaseUid", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
	},
	"boards": {
		{Keys: bson.D{{Key: "ownerId", Value: 1}, {Key: "createdAt", Value: -1}}},
	},
	"todos": {
		{Keys: bson.D{{Key: "boardId", Value: 1}, {Key: "createdAt", Value: 1}}},
	},
}

// EnsureMongoIndexes はインデックスを作成する。既存のインデックスは変更されない。
// PostgreSQLにおけるマイグレーションに相当する。
func EnsureMongoIndexes(ctx context.Context, db *mongo.Database) error {
	for collection, indexes := range mongoIndexes {
		if _, err := db.Collection(collection).Indexes().CreateMany(ctx, indexes); err != nil {
			return fmt.Errorf("failed to create indexes on %s: %w", collection, err)
		}
	}
	return nil
}

// MongoPinger は*mongo.Clientをヘルスチェック用のPingContextに適合させる。
type MongoPinger struct {
	Client *mongo.Client
}

// PingContext はプライマリへのPingを行う。
func (p MongoPinger) PingContext(ctx context.Context) error {
	return p.Client.Ping(ctx, readpref.Primary())
}

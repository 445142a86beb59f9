package database

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// EnsureIndexes creates every index the repositories query by. Index
// creation is idempotent, so it is safe to run on each start.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	steps := []func(context.Context, *mongo.Database) error{
		EnsureProductIndexes,
		EnsureCategoryIndexes,
		EnsurePackIndexes,
		EnsureUserIndexes,
		EnsureOrderIndexes,
		EnsureRefreshTokenIndexes,
	}
	for _, step := range steps {
		if err := step(ctx, db); err != nil {
			return err
		}
	}
	return nil
}

func createIndexes(ctx context.Context, db *mongo.Database, collection string, models []mongo.IndexModel) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	names, err := db.Collection(collection).Indexes().CreateMany(ctx, models)
	if err != nil {
		zap.L().Error("index creation failed", zap.String("collection", collection), zap.Error(err))
		return err
	}
	zap.L().Info("indexes ensured", zap.String("collection", collection), zap.Strings("names", names))
	return nil
}

func EnsureProductIndexes(ctx context.Context, db *mongo.Database) error {
	return createIndexes(ctx, db, "products", []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "category", Value: 1}, {Key: "isActive", Value: 1}},
			Options: options.Index().SetName("category_active"),
		},
		{
			Keys:    bson.D{{Key: "displayPrice", Value: 1}},
			Options: options.Index().SetName("displayPrice_index"),
		},
		{
			Keys:    bson.D{{Key: "featured", Value: 1}, {Key: "createdAt", Value: -1}},
			Options: options.Index().SetName("featured_createdAt"),
		},
	})
}

func EnsureCategoryIndexes(ctx context.Context, db *mongo.Database) error {
	return createIndexes(ctx, db, "categories", []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "parent", Value: 1}},
			Options: options.Index().SetName("parent_index"),
		},
	})
}

func EnsurePackIndexes(ctx context.Context, db *mongo.Database) error {
	return createIndexes(ctx, db, "packs", []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "active", Value: 1}, {Key: "featured", Value: 1}},
			Options: options.Index().SetName("active_featured"),
		},
	})
}

func EnsureUserIndexes(ctx context.Context, db *mongo.Database) error {
	return createIndexes(ctx, db, "users", []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "email", Value: 1}},
			Options: options.Index().
				SetName("email_unique").
				SetUnique(true),
		},
	})
}

func EnsureOrderIndexes(ctx context.Context, db *mongo.Database) error {
	return createIndexes(ctx, db, "orders", []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user", Value: 1}, {Key: "createdAt", Value: -1}},
			Options: options.Index().SetName("user_createdAt"),
		},
		{
			Keys:    bson.D{{Key: "status", Value: 1}},
			Options: options.Index().SetName("status_index"),
		},
	})
}

func EnsureRefreshTokenIndexes(ctx context.Context, db *mongo.Database) error {
	return createIndexes(ctx, db, "refresh_tokens", []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "tokenHash", Value: 1}},
			Options: options.Index().
				SetName("tokenHash_unique").
				SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "expiresAt", Value: 1}},
			Options: options.Index().
				SetName("expiresAt_ttl").
				SetExpireAfterSeconds(0),
		},
	})
}

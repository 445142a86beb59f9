package mongostore

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"storefront/internal/models"
	"storefront/internal/repository"
)

type refreshTokenRepo struct {
	coll *mongo.Collection
}

func (r *refreshTokenRepo) Create(ctx context.Context, t *models.RefreshToken) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	if t.ID.IsZero() {
		t.ID = primitive.NewObjectID()
	}
	_, err := r.coll.InsertOne(ctx, t)
	return err
}

func (r *refreshTokenRepo) FindActive(ctx context.Context, hash string) (*models.RefreshToken, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var t models.RefreshToken
	if err := r.coll.FindOne(ctx, bson.M{"tokenHash": hash, "revoked": false}).Decode(&t); err != nil {
		return nil, notFound(err)
	}
	return &t, nil
}

func (r *refreshTokenRepo) Revoke(ctx context.Context, id primitive.ObjectID, replacedBy *primitive.ObjectID) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	set := bson.M{"revoked": true}
	if replacedBy != nil {
		set["replacedByToken"] = *replacedBy
	}
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": id, "revoked": false}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *refreshTokenRepo) RevokeByHash(ctx context.Context, hash string) (bool, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	res, err := r.coll.UpdateOne(ctx, bson.M{"tokenHash": hash, "revoked": false}, bson.M{"$set": bson.M{"revoked": true}})
	if err != nil {
		return false, err
	}
	return res.ModifiedCount > 0, nil
}

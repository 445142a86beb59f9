package mongostore

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"storefront/internal/models"
	"storefront/internal/repository"
)

type packRepo struct {
	coll *mongo.Collection
}

func packQuery(f repository.PackFilter) bson.M {
	filter := bson.M{}
	if f.AvailableAt != nil {
		now := *f.AvailableAt
		filter["active"] = true
		filter["$and"] = []bson.M{
			{"$or": []bson.M{{"startDate": nil}, {"startDate": bson.M{"$lte": now}}}},
			{"$or": []bson.M{{"endDate": nil}, {"endDate": bson.M{"$gte": now}}}},
		}
	}
	if f.Featured != nil {
		filter["featured"] = *f.Featured
	}
	return filter
}

func (r *packRepo) List(ctx context.Context, f repository.PackFilter) ([]models.Pack, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	cursor, err := r.coll.Find(ctx, packQuery(f), options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	packs := make([]models.Pack, 0)
	if err := cursor.All(ctx, &packs); err != nil {
		return nil, err
	}
	return packs, nil
}

func (r *packRepo) Get(ctx context.Context, id primitive.ObjectID) (*models.Pack, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var p models.Pack
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&p); err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

func (r *packRepo) Create(ctx context.Context, p *models.Pack) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	_, err := r.coll.InsertOne(ctx, p)
	return err
}

func (r *packRepo) Replace(ctx context.Context, p *models.Pack) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	res, err := r.coll.ReplaceOne(ctx, bson.M{"_id": p.ID}, p)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *packRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

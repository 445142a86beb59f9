package mongostore

import (
	"context"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"storefront/internal/models"
	"storefront/internal/repository"
)

type productRepo struct {
	coll *mongo.Collection
}

func localizedRegex(field, search string) []bson.M {
	pattern := primitive.Regex{Pattern: regexp.QuoteMeta(search), Options: "i"}
	return []bson.M{
		{field: pattern},
		{field + ".fr": pattern},
		{field + ".ar": pattern},
	}
}

func productQuery(f repository.ProductFilter) bson.M {
	filter := bson.M{}
	if f.ActiveOnly {
		filter["isActive"] = true
	}
	if len(f.Categories) > 0 {
		filter["category"] = bson.M{"$in": f.Categories}
	}
	if f.Search != "" {
		or := append(localizedRegex("name", f.Search), localizedRegex("description", f.Search)...)
		filter["$or"] = or
	}
	if f.Featured != nil {
		filter["featured"] = *f.Featured
	}
	price := bson.M{}
	if f.MinPrice != nil {
		price["$gte"] = *f.MinPrice
	}
	if f.MaxPrice != nil {
		price["$lte"] = *f.MaxPrice
	}
	if len(price) > 0 {
		filter["displayPrice"] = price
	}
	if f.Exclude != nil {
		filter["_id"] = bson.M{"$ne": *f.Exclude}
	}
	return filter
}

func productSort(sort string) bson.D {
	switch sort {
	case repository.SortPriceAsc:
		return bson.D{{Key: "displayPrice", Value: 1}, {Key: "_id", Value: 1}}
	case repository.SortPriceDesc:
		return bson.D{{Key: "displayPrice", Value: -1}, {Key: "_id", Value: 1}}
	default:
		return bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}
	}
}

func (r *productRepo) List(ctx context.Context, f repository.ProductFilter) ([]models.Product, int64, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	filter := productQuery(f)
	total, err := r.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	findOptions := options.Find().SetSort(productSort(f.Sort))
	if skip, limit := f.Paginate(); limit > 0 {
		findOptions.SetSkip(skip).SetLimit(limit)
	}

	cursor, err := r.coll.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	products := make([]models.Product, 0)
	if err := cursor.All(ctx, &products); err != nil {
		return nil, 0, err
	}
	for i := range products {
		products[i] = products[i].WithDerived()
	}
	return products, total, nil
}

func (r *productRepo) Get(ctx context.Context, id primitive.ObjectID) (*models.Product, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var p models.Product
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&p); err != nil {
		return nil, notFound(err)
	}
	p = p.WithDerived()
	return &p, nil
}

func (r *productRepo) Create(ctx context.Context, p *models.Product) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	if _, err := r.coll.InsertOne(ctx, p); err != nil {
		return err
	}
	*p = p.WithDerived()
	return nil
}

func (r *productRepo) Replace(ctx context.Context, p *models.Product) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	res, err := r.coll.ReplaceOne(ctx, bson.M{"_id": p.ID}, p)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	*p = p.WithDerived()
	return nil
}

func (r *productRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
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

func (r *productRepo) DecrementStock(ctx context.Context, id primitive.ObjectID, variantID *primitive.ObjectID, quantity int) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	filter := bson.M{"_id": id, "stock": bson.M{"$gte": quantity}}
	update := bson.M{
		"$inc": bson.M{"stock": -quantity},
		"$set": bson.M{"updatedAt": time.Now()},
	}
	if variantID != nil {
		filter = bson.M{
			"_id": id,
			"variants": bson.M{"$elemMatch": bson.M{
				"_id":   *variantID,
				"stock": bson.M{"$gte": quantity},
			}},
		}
		update = bson.M{
			"$inc": bson.M{"variants.$.stock": -quantity},
			"$set": bson.M{"updatedAt": time.Now()},
		}
	}

	res, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return repository.ErrInsufficientStock
	}
	return nil
}

func (r *productRepo) SetStock(ctx context.Context, id primitive.ObjectID, variantID *primitive.ObjectID, stock int) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	filter := bson.M{"_id": id}
	set := bson.M{"stock": stock, "updatedAt": time.Now()}
	if variantID != nil {
		filter["variants._id"] = *variantID
		set = bson.M{"variants.$.stock": stock, "updatedAt": time.Now()}
	}

	res, err := r.coll.UpdateOne(ctx, filter, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *productRepo) ReassignCategory(ctx context.Context, from []primitive.ObjectID, target *primitive.ObjectID) (int64, error) {
	if len(from) == 0 {
		return 0, nil
	}
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	update := bson.M{
		"$unset": bson.M{"category": ""},
		"$set":   bson.M{"updatedAt": time.Now()},
	}
	if target != nil {
		update = bson.M{"$set": bson.M{"category": *target, "updatedAt": time.Now()}}
	}

	res, err := r.coll.UpdateMany(ctx, bson.M{"category": bson.M{"$in": from}}, update)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

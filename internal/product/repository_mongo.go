package product

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection is the MongoDB collection holding products.
const Collection = "products"

type MongoRepository struct {
	coll *mongo.Collection
}

func NewMongoRepository(db *mongo.Database) *MongoRepository {
	return &MongoRepository{coll: db.Collection(Collection)}
}

// productDoc is the stored shape; prices are kept as Decimal128.
type productDoc struct {
	ID          string               `bson:"_id"`
	Name        string               `bson:"name"`
	Slug        string               `bson:"slug"`
	Price       primitive.Decimal128 `bson:"price"`
	Description string               `bson:"description"`
	Image       string               `bson:"image"`
	Category    string               `bson:"category"`
	Stock       int                  `bson:"stock"`
	Active      bool                 `bson:"active"`
	CreatedAt   time.Time            `bson:"createdAt"`
	UpdatedAt   time.Time            `bson:"updatedAt"`
}

func toDoc(p Product) (productDoc, error) {
	price, err := primitive.ParseDecimal128(p.Price.String())
	if err != nil {
		return productDoc{}, fmt.Errorf("price %s: %w", p.Price, err)
	}
	return productDoc{
		ID:          p.ID,
		Name:        p.Name,
		Slug:        p.Slug,
		Price:       price,
		Description: p.Description,
		Image:       p.Image,
		Category:    p.Category,
		Stock:       p.Stock,
		Active:      p.Active,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}, nil
}

func (d productDoc) product() (Product, error) {
	price, err := decimal.NewFromString(d.Price.String())
	if err != nil {
		return Product{}, fmt.Errorf("price of %s: %w", d.ID, err)
	}
	return Product{
		ID:          d.ID,
		Name:        d.Name,
		Slug:        d.Slug,
		Price:       price,
		Description: d.Description,
		Image:       d.Image,
		Category:    d.Category,
		Stock:       d.Stock,
		Active:      d.Active,
		CreatedAt:   d.CreatedAt.UTC(),
		UpdatedAt:   d.UpdatedAt.UTC(),
	}, nil
}

func mongoFilter(q ListQuery) bson.M {
	filter := bson.M{}
	if !q.IncludeInactive {
		filter["active"] = true
	}
	if q.Category != "" {
		filter["category"] = q.Category
	}
	if q.Q != "" {
		filter["name"] = primitive.Regex{Pattern: regexp.QuoteMeta(q.Q), Options: "i"}
	}
	return filter
}

func mongoSort(sort string) bson.D {
	switch sort {
	case SortPriceAsc:
		return bson.D{{Key: "price", Value: 1}, {Key: "createdAt", Value: -1}}
	case SortPriceDesc:
		return bson.D{{Key: "price", Value: -1}, {Key: "createdAt", Value: -1}}
	default:
		return bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: 1}}
	}
}

func (r *MongoRepository) find(ctx context.Context, filter any, opts *options.FindOptions) ([]Product, error) {
	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	var docs []productDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]Product, 0, len(docs))
	for _, d := range docs {
		p, err := d.product()
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func (r *MongoRepository) findOne(ctx context.Context, filter any, opts ...*options.FindOneOptions) (Product, error) {
	var d productDoc
	err := r.coll.FindOne(ctx, filter, opts...).Decode(&d)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return Product{}, ErrNotFound
	}
	if err != nil {
		return Product{}, err
	}
	return d.product()
}

func (r *MongoRepository) List(ctx context.Context, q ListQuery) ([]Product, error) {
	opts := options.Find().
		SetSort(mongoSort(q.Sort)).
		SetSkip(int64(q.Offset())).
		SetLimit(int64(q.Limit))
	return r.find(ctx, mongoFilter(q), opts)
}

func (r *MongoRepository) Count(ctx context.Context, q ListQuery) (int, error) {
	n, err := r.coll.CountDocuments(ctx, mongoFilter(q))
	return int(n), err
}

func (r *MongoRepository) GetByID(ctx context.Context, id string) (Product, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *MongoRepository) GetBySlug(ctx context.Context, slug string) (Product, error) {
	return r.findOne(ctx, bson.M{"slug": slug})
}

func (r *MongoRepository) GetByName(ctx context.Context, name string) (Product, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})
	return r.findOne(ctx, bson.M{"name": name}, opts)
}

func (r *MongoRepository) ListAvailable(ctx context.Context, excludeID string, limit int) ([]Product, error) {
	if limit <= 0 {
		return []Product{}, nil
	}
	filter := bson.M{
		"active": true,
		"stock":  bson.M{"$gt": 0},
		"_id":    bson.M{"$ne": excludeID},
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}}).
		SetLimit(int64(limit))
	return r.find(ctx, filter, opts)
}

func (r *MongoRepository) ListBySlugs(ctx context.Context, slugs []string) ([]Product, error) {
	if len(slugs) == 0 {
		return []Product{}, nil
	}
	return r.find(ctx, bson.M{"slug": bson.M{"$in": slugs}}, options.Find())
}

func (r *MongoRepository) Create(ctx context.Context, p Product) (Product, error) {
	d, err := toDoc(p)
	if err != nil {
		return Product{}, err
	}
	if _, err := r.coll.InsertOne(ctx, d); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return Product{}, ErrSlugTaken
		}
		return Product{}, err
	}
	return p, nil
}

func (r *MongoRepository) Update(ctx context.Context, p Product) (Product, error) {
	d, err := toDoc(p)
	if err != nil {
		return Product{}, err
	}
	res, err := r.coll.ReplaceOne(ctx, bson.M{"_id": p.ID}, d)
	if err != nil {
		return Product{}, err
	}
	if res.MatchedCount == 0 {
		return Product{}, ErrNotFound
	}
	return p, nil
}

func (r *MongoRepository) Delete(ctx context.Context, id string) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Reset is not atomic: standalone servers have no multi-document transactions.
func (r *MongoRepository) Reset(ctx context.Context, products []Product) error {
	if _, err := r.coll.DeleteMany(ctx, bson.M{}); err != nil {
		return err
	}
	if len(products) == 0 {
		return nil
	}
	docs := make([]any, 0, len(products))
	for _, p := range products {
		d, err := toDoc(p)
		if err != nil {
			return err
		}
		docs = append(docs, d)
	}
	_, err := r.coll.InsertMany(ctx, docs)
	return err
}

package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection is the MongoDB collection holding orders.
const Collection = "orders"

type MongoRepository struct {
	coll *mongo.Collection
}

func NewMongoRepository(db *mongo.Database) *MongoRepository {
	return &MongoRepository{coll: db.Collection(Collection)}
}

type itemDoc struct {
	ProductID string               `bson:"productId"`
	Name      string               `bson:"name"`
	Quantity  int                  `bson:"quantity"`
	Subtotal  primitive.Decimal128 `bson:"subtotal"`
}

type orderDoc struct {
	ID        string               `bson:"_id"`
	UserID    string               `bson:"userId"`
	Items     []itemDoc            `bson:"items"`
	Total     primitive.Decimal128 `bson:"total"`
	Status    string               `bson:"status"`
	CreatedAt time.Time            `bson:"createdAt"`
	UpdatedAt time.Time            `bson:"updatedAt"`
}

func toDecimal128(d decimal.Decimal) (primitive.Decimal128, error) {
	return primitive.ParseDecimal128(d.String())
}

func fromDecimal128(d primitive.Decimal128) (decimal.Decimal, error) {
	return decimal.NewFromString(d.String())
}

func toDoc(o Order) (orderDoc, error) {
	total, err := toDecimal128(o.Total)
	if err != nil {
		return orderDoc{}, fmt.Errorf("total %s: %w", o.Total, err)
	}
	items := make([]itemDoc, 0, len(o.Items))
	for _, it := range o.Items {
		sub, err := toDecimal128(it.Subtotal)
		if err != nil {
			return orderDoc{}, fmt.Errorf("subtotal %s: %w", it.Subtotal, err)
		}
		items = append(items, itemDoc{ProductID: it.ProductID, Name: it.Name, Quantity: it.Quantity, Subtotal: sub})
	}
	return orderDoc{
		ID:        o.ID,
		UserID:    o.UserID,
		Items:     items,
		Total:     total,
		Status:    string(o.Status),
		CreatedAt: o.CreatedAt,
		UpdatedAt: o.UpdatedAt,
	}, nil
}

func (d orderDoc) order() (Order, error) {
	total, err := fromDecimal128(d.Total)
	if err != nil {
		return Order{}, fmt.Errorf("total of %s: %w", d.ID, err)
	}
	items := make([]Item, 0, len(d.Items))
	for _, it := range d.Items {
		sub, err := fromDecimal128(it.Subtotal)
		if err != nil {
			return Order{}, fmt.Errorf("subtotal of %s: %w", d.ID, err)
		}
		items = append(items, Item{ProductID: it.ProductID, Name: it.Name, Quantity: it.Quantity, Subtotal: sub})
	}
	return Order{
		ID:        d.ID,
		UserID:    d.UserID,
		Items:     items,
		Total:     total,
		Status:    Status(d.Status),
		CreatedAt: d.CreatedAt.UTC(),
		UpdatedAt: d.UpdatedAt.UTC(),
	}, nil
}

func (r *MongoRepository) Create(ctx context.Context, ord Order) (Order, error) {
	d, err := toDoc(ord)
	if err != nil {
		return Order{}, err
	}
	if _, err := r.coll.InsertOne(ctx, d); err != nil {
		return Order{}, err
	}
	return ord, nil
}

func (r *MongoRepository) GetByID(ctx context.Context, id string) (Order, error) {
	var d orderDoc
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&d)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return Order{}, ErrNotFound
	}
	if err != nil {
		return Order{}, err
	}
	return d.order()
}

func (r *MongoRepository) ListByUser(ctx context.Context, userID string) ([]Order, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: 1}})
	cur, err := r.coll.Find(ctx, bson.M{"userId": userID}, opts)
	if err != nil {
		return nil, err
	}
	var docs []orderDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]Order, 0, len(docs))
	for _, d := range docs {
		o, err := d.order()
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, nil
}

func (r *MongoRepository) Update(ctx context.Context, ord Order) (Order, error) {
	d, err := toDoc(ord)
	if err != nil {
		return Order{}, err
	}
	res, err := r.coll.ReplaceOne(ctx, bson.M{"_id": ord.ID}, d)
	if err != nil {
		return Order{}, err
	}
	if res.MatchedCount == 0 {
		return Order{}, ErrNotFound
	}
	return ord, nil
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

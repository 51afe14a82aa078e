package order

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func sampleOrder() Order {
	at := time.Date(2024, 5, 2, 9, 30, 0, 0, time.UTC)
	return Order{
		ID:     "o1",
		UserID: "u1",
		Items: []Item{
			{ProductID: "p1", Name: "Whey Gold", Quantity: 2, Subtotal: decimal.RequireFromString("99.80")},
			{ProductID: "p2", Name: "Shaker", Quantity: 1, Subtotal: decimal.RequireFromString("7.90")},
		},
		Total:     decimal.RequireFromString("107.70"),
		Status:    StatusPaid,
		CreatedAt: at,
		UpdatedAt: at,
	}
}

func TestOrderDoc_RoundTrip(t *testing.T) {
	o := sampleOrder()
	d, err := toDoc(o)
	if err != nil {
		t.Fatalf("toDoc: %v", err)
	}
	if d.Total.String() != "107.7" || d.Items[1].Subtotal.String() != "7.9" {
		t.Fatalf("unexpected Decimal128 values %s / %s", d.Total, d.Items[1].Subtotal)
	}
	back, err := d.order()
	if err != nil {
		t.Fatalf("order: %v", err)
	}
	if !back.Total.Equal(o.Total) || back.UserID != "u1" || back.Status != StatusPaid || len(back.Items) != 2 {
		t.Fatalf("round trip changed the order: %+v", back)
	}
	if !back.Items[0].Subtotal.Equal(o.Items[0].Subtotal) || back.Items[0].Quantity != 2 {
		t.Fatalf("round trip changed the items: %+v", back.Items)
	}
}

func mongoOrder(t *testing.T, o Order) bson.D {
	t.Helper()
	d, err := toDoc(o)
	if err != nil {
		t.Fatalf("toDoc: %v", err)
	}
	raw, err := bson.Marshal(d)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var out bson.D
	if err := bson.Unmarshal(raw, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	return out
}

func TestMongoRepository(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()

	mt.Run("list by user", func(mt *mtest.T) {
		ns := mt.DB.Name() + "." + Collection
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, mongoOrder(mt.T, sampleOrder())))

		got, err := NewMongoRepository(mt.DB).ListByUser(ctx, "u1")
		if err != nil {
			mt.Fatalf("unexpected error: %v", err)
		}
		if len(got) != 1 || got[0].ID != "o1" || !got[0].Total.Equal(decimal.RequireFromString("107.7")) {
			mt.Fatalf("unexpected orders %+v", got)
		}

		cmd := mt.GetStartedEvent().Command
		if cmd.Lookup("filter", "userId").StringValue() != "u1" {
			mt.Fatalf("unexpected filter %s", cmd.Lookup("filter"))
		}
		sort, err := cmd.Lookup("sort").Document().Elements()
		if err != nil || len(sort) == 0 || sort[0].Key() != "createdAt" || sort[0].Value().AsInt64() != -1 {
			mt.Fatalf("orders must be listed newest first, sort %v (%v)", sort, err)
		}
	})

	mt.Run("get by id not found", func(mt *mtest.T) {
		ns := mt.DB.Name() + "." + Collection
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))

		if _, err := NewMongoRepository(mt.DB).GetByID(ctx, "missing"); !errors.Is(err, ErrNotFound) {
			mt.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	mt.Run("create", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		got, err := NewMongoRepository(mt.DB).Create(ctx, sampleOrder())
		if err != nil || got.ID != "o1" {
			mt.Fatalf("unexpected result %+v (%v)", got, err)
		}
		docs := mt.GetStartedEvent().Command.Lookup("documents").Array()
		if docs.Index(0).Value().Document().Lookup("userId").StringValue() != "u1" {
			mt.Fatalf("owner not stored: %s", docs)
		}
	})

	mt.Run("update not found", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 0},
			bson.E{Key: "nModified", Value: 0},
		))

		if _, err := NewMongoRepository(mt.DB).Update(ctx, sampleOrder()); !errors.Is(err, ErrNotFound) {
			mt.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	mt.Run("delete not found", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}))

		if err := NewMongoRepository(mt.DB).Delete(ctx, "missing"); !errors.Is(err, ErrNotFound) {
			mt.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	mt.Run("delete", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}))

		if err := NewMongoRepository(mt.DB).Delete(ctx, "o1"); err != nil {
			mt.Fatalf("unexpected error: %v", err)
		}
	})
}

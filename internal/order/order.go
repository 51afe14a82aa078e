package order

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusPaid      Status = "paid"
	StatusShipped   Status = "shipped"
	StatusCancelled Status = "cancelled"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusPaid, StatusShipped, StatusCancelled:
		return true
	}
	return false
}

// Item is one line of an order. Name and subtotal are captured at purchase
// time and never re-read from the catalog.
type Item struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

// Order represents a purchase made by a user.
type Order struct {
	ID        string          `json:"id"`
	UserID    string          `json:"userId"`
	Items     []Item          `json:"items"`
	Total     decimal.Decimal `json:"total"`
	Status    Status          `json:"status"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// ItemsTotal sums the item subtotals.
func (o Order) ItemsTotal() decimal.Decimal {
	sum := decimal.Zero
	for _, it := range o.Items {
		sum = sum.Add(it.Subtotal)
	}
	return sum
}

// MoneyScale is the number of decimal places totals and subtotals are stored
// with.
const MoneyScale = 2

func (o Order) roundMoney() Order {
	o.Total = o.Total.Round(MoneyScale)
	items := make([]Item, len(o.Items))
	for i, it := range o.Items {
		it.Subtotal = it.Subtotal.Round(MoneyScale)
		items[i] = it
	}
	o.Items = items
	return o
}

type CreateInput struct {
	Items  []Item           `json:"items"`
	Total  *decimal.Decimal `json:"total"`
	Status Status           `json:"status,omitempty"`
}

// UpdateInput carries the fields a client may change; nil fields are kept.
type UpdateInput struct {
	Items  *[]Item          `json:"items,omitempty"`
	Total  *decimal.Decimal `json:"total,omitempty"`
	Status *Status          `json:"status,omitempty"`
}

func validateItems(items []Item, errs map[string]string) {
	if len(items) == 0 {
		errs["items"] = "order must contain at least one item"
		return
	}
	for i, it := range items {
		key := fmt.Sprintf("items[%d]", i)
		if strings.TrimSpace(it.ProductID) == "" {
			errs[key+".productId"] = "productId is required"
		}
		if strings.TrimSpace(it.Name) == "" {
			errs[key+".name"] = "name is required"
		}
		if it.Quantity < 1 {
			errs[key+".quantity"] = "quantity must be >= 1"
		}
		if it.Subtotal.IsNegative() {
			errs[key+".subtotal"] = "subtotal must be >= 0"
		}
	}
}

func ValidateCreate(in CreateInput) map[string]string {
	errs := map[string]string{}
	validateItems(in.Items, errs)
	switch {
	case in.Total == nil:
		errs["total"] = "total is required"
	case in.Total.IsNegative():
		errs["total"] = "total must be >= 0"
	}
	if in.Status != "" && !in.Status.Valid() {
		errs["status"] = "status must be one of pending, paid, shipped, cancelled"
	}
	return errs
}

func ValidateUpdate(in UpdateInput) map[string]string {
	errs := map[string]string{}
	if in.Items != nil {
		validateItems(*in.Items, errs)
	}
	if in.Total != nil && in.Total.IsNegative() {
		errs["total"] = "total must be >= 0"
	}
	if in.Status != nil && !in.Status.Valid() {
		errs["status"] = "status must be one of pending, paid, shipped, cancelled"
	}
	return errs
}

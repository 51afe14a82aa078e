// Package recommended suggests catalog products related to an anchor product.
package recommended

import (
	"context"
	"strings"

	"github.com/wichananm65/fitness-shop-backend/internal/apperr"
	"github.com/wichananm65/fitness-shop-backend/internal/product"
)

const (
	DefaultLimit = 4
	MaxLimit     = 20
	// PoolSize caps the candidates sent to the model.
	PoolSize = 60
)

// Request identifies the anchor product by id, slug or exact name, tried in
// that order.
type Request struct {
	ProductID   string `json:"productId"`
	Slug        string `json:"slug"`
	ProductName string `json:"productName"`
	Limit       *int   `json:"limit,omitempty"`
}

// normalize trims the identifiers and returns the effective limit.
func (r *Request) normalize() (int, error) {
	r.ProductID = strings.TrimSpace(r.ProductID)
	r.Slug = strings.TrimSpace(r.Slug)
	r.ProductName = strings.TrimSpace(r.ProductName)

	errs := map[string]string{}
	if r.ProductID == "" && r.Slug == "" && r.ProductName == "" {
		errs["slug"] = "one of slug, productId or productName is required"
	}
	limit := DefaultLimit
	if r.Limit != nil {
		limit = *r.Limit
	}
	if limit < 0 {
		errs["limit"] = "limit must be >= 0"
	}
	if len(errs) > 0 {
		return 0, apperr.Validation("invalid payload", errs)
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return limit, nil
}

// Catalog is the read side of the product store used by the engine.
// product.Repository implementations satisfy it.
type Catalog interface {
	GetByID(ctx context.Context, id string) (product.Product, error)
	GetBySlug(ctx context.Context, slug string) (product.Product, error)
	GetByName(ctx context.Context, name string) (product.Product, error)
	ListAvailable(ctx context.Context, excludeID string, limit int) ([]product.Product, error)
	ListBySlugs(ctx context.Context, slugs []string) ([]product.Product, error)
}

// SlugRecommender asks a model to rank candidate slugs. The content service
// implements it.
type SlugRecommender interface {
	RecommendSlugs(ctx context.Context, anchor product.Summary, candidates []product.Summary, limit int) ([]string, error)
}

package recommended

import (
	"context"
	"errors"
	"fmt"

	"github.com/wichananm65/fitness-shop-backend/internal/apperr"
	"github.com/wichananm65/fitness-shop-backend/internal/product"
	"go.uber.org/zap"
)

// Engine builds recommendation lists. Model output is only used to order
// products that already exist in the candidate pool.
type Engine struct {
	catalog Catalog
	model   SlugRecommender
	log     *zap.Logger
}

func NewEngine(catalog Catalog, model SlugRecommender, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{catalog: catalog, model: model, log: log}
}

// Recommend returns up to the requested number of available products related
// to the anchor. The anchor itself is never part of the result.
func (e *Engine) Recommend(ctx context.Context, req Request) ([]product.Summary, error) {
	limit, err := req.normalize()
	if err != nil {
		return nil, err
	}
	anchor, err := e.resolve(ctx, req)
	if err != nil {
		return nil, err
	}
	if limit == 0 {
		return []product.Summary{}, nil
	}

	pool, err := e.candidates(ctx, anchor)
	if err != nil {
		return nil, err
	}
	if len(pool) == 0 {
		return []product.Summary{}, nil
	}

	chosen := e.rank(ctx, anchor, pool, limit)
	if len(chosen) == 0 {
		chosen = sameCategory(anchor, pool, limit)
	}
	return e.reread(ctx, anchor, chosen)
}

func (e *Engine) resolve(ctx context.Context, req Request) (product.Product, error) {
	lookups := []struct {
		key string
		get func(context.Context, string) (product.Product, error)
	}{
		{req.ProductID, e.catalog.GetByID},
		{req.Slug, e.catalog.GetBySlug},
		{req.ProductName, e.catalog.GetByName},
	}
	for _, l := range lookups {
		if l.key == "" {
			continue
		}
		p, err := l.get(ctx, l.key)
		if err == nil {
			return p, nil
		}
		if !errors.Is(err, product.ErrNotFound) {
			return product.Product{}, fmt.Errorf("resolve anchor: %w", err)
		}
	}
	return product.Product{}, apperr.NotFound("product not found")
}

// candidates loads the pool and re-checks availability whatever the store
// returned.
func (e *Engine) candidates(ctx context.Context, anchor product.Product) ([]product.Summary, error) {
	items, err := e.catalog.ListAvailable(ctx, anchor.ID, PoolSize)
	if err != nil {
		return nil, fmt.Errorf("load candidates: %w", err)
	}
	pool := make([]product.Summary, 0, len(items))
	for _, p := range items {
		if p.ID == anchor.ID || !p.Available() {
			continue
		}
		pool = append(pool, p.Summarize())
		if len(pool) == PoolSize {
			break
		}
	}
	return pool, nil
}

// rank asks the model for slugs and keeps those present in the pool, without
// duplicates, up to limit. A failed call yields no slugs.
func (e *Engine) rank(ctx context.Context, anchor product.Product, pool []product.Summary, limit int) []string {
	slugs, err := e.model.RecommendSlugs(ctx, anchor.Summarize(), pool, limit)
	if err != nil {
		e.log.Warn("model recommendation failed, using fallback",
			zap.String("anchor", anchor.Slug), zap.Error(err))
		return nil
	}

	known := make(map[string]bool, len(pool))
	for _, p := range pool {
		known[p.Slug] = true
	}
	out := make([]string, 0, limit)
	for _, s := range slugs {
		if !known[s] {
			if s != "" {
				e.log.Debug("dropping unknown slug", zap.String("slug", s))
			}
			continue
		}
		known[s] = false
		out = append(out, s)
		if len(out) == limit {
			break
		}
	}
	return out
}

// sameCategory is the deterministic fallback: pool entries sharing the
// anchor's category, in retrieval order.
func sameCategory(anchor product.Product, pool []product.Summary, limit int) []string {
	out := make([]string, 0, limit)
	for _, p := range pool {
		if len(out) == limit {
			break
		}
		if p.Category == anchor.Category {
			out = append(out, p.Slug)
		}
	}
	return out
}

// reread fetches the chosen slugs again so the response carries current
// catalog data, keeping the chosen order.
func (e *Engine) reread(ctx context.Context, anchor product.Product, slugs []string) ([]product.Summary, error) {
	if len(slugs) == 0 {
		return []product.Summary{}, nil
	}
	items, err := e.catalog.ListBySlugs(ctx, slugs)
	if err != nil {
		return nil, fmt.Errorf("load recommendations: %w", err)
	}
	bySlug := make(map[string]product.Product, len(items))
	for _, p := range items {
		bySlug[p.Slug] = p
	}

	out := make([]product.Summary, 0, len(slugs))
	for _, s := range slugs {
		p, ok := bySlug[s]
		if !ok || p.ID == anchor.ID || !p.Available() {
			continue
		}
		delete(bySlug, s)
		out = append(out, p.Summarize())
	}
	return out, nil
}

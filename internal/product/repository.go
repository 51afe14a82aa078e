package product

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
)

var (
	ErrNotFound  = errors.New("product not found")
	ErrSlugTaken = errors.New("product slug already exists")
)

type Repository interface {
	List(ctx context.Context, q ListQuery) ([]Product, error)
	Count(ctx context.Context, q ListQuery) (int, error)
	GetByID(ctx context.Context, id string) (Product, error)
	GetBySlug(ctx context.Context, slug string) (Product, error)
	GetByName(ctx context.Context, name string) (Product, error)
	// ListAvailable returns up to limit active, in-stock products other than
	// excludeID, in retrieval order.
	ListAvailable(ctx context.Context, excludeID string, limit int) ([]Product, error)
	// ListBySlugs returns the products whose slug is in slugs, in no
	// particular order. Unknown slugs are skipped.
	ListBySlugs(ctx context.Context, slugs []string) ([]Product, error)
	Create(ctx context.Context, p Product) (Product, error)
	Update(ctx context.Context, p Product) (Product, error)
	Delete(ctx context.Context, id string) error
	// Reset replaces all products with the provided list (used for seeding)
	Reset(ctx context.Context, products []Product) error
}

// InMemoryRepository keeps products in insertion order. It backs the memory
// store driver and the tests.
type InMemoryRepository struct {
	mu      sync.RWMutex
	storage []Product
}

func NewInMemoryRepository(seed []Product) *InMemoryRepository {
	r := &InMemoryRepository{storage: make([]Product, 0, len(seed))}
	r.storage = append(r.storage, seed...)
	return r
}

func (q ListQuery) matches(p Product) bool {
	if !q.IncludeInactive && !p.Active {
		return false
	}
	if q.Category != "" && p.Category != q.Category {
		return false
	}
	if q.Q != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(q.Q)) {
		return false
	}
	return true
}

func (r *InMemoryRepository) filter(q ListQuery) []Product {
	out := make([]Product, 0)
	for _, p := range r.storage {
		if q.matches(p) {
			out = append(out, p)
		}
	}
	return out
}

func (r *InMemoryRepository) List(_ context.Context, q ListQuery) ([]Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := r.filter(q)
	switch q.Sort {
	case SortPriceAsc:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Price.LessThan(out[j].Price) })
	case SortPriceDesc:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Price.GreaterThan(out[j].Price) })
	default:
		sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	}

	start := q.Offset()
	if start >= len(out) {
		return []Product{}, nil
	}
	end := start + q.Limit
	if end > len(out) {
		end = len(out)
	}
	return out[start:end], nil
}

func (r *InMemoryRepository) Count(_ context.Context, q ListQuery) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.filter(q)), nil
}

func (r *InMemoryRepository) find(match func(Product) bool) (Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.storage {
		if match(p) {
			return p, nil
		}
	}
	return Product{}, ErrNotFound
}

func (r *InMemoryRepository) GetByID(_ context.Context, id string) (Product, error) {
	return r.find(func(p Product) bool { return p.ID == id })
}

func (r *InMemoryRepository) GetBySlug(_ context.Context, slug string) (Product, error) {
	return r.find(func(p Product) bool { return p.Slug == slug })
}

func (r *InMemoryRepository) GetByName(_ context.Context, name string) (Product, error) {
	return r.find(func(p Product) bool { return p.Name == name })
}

func (r *InMemoryRepository) ListAvailable(_ context.Context, excludeID string, limit int) ([]Product, error) {
	if limit <= 0 {
		return []Product{}, nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Product, 0, limit)
	for _, p := range r.storage {
		if len(out) == limit {
			break
		}
		if p.ID == excludeID || !p.Available() {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (r *InMemoryRepository) ListBySlugs(_ context.Context, slugs []string) ([]Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	want := make(map[string]struct{}, len(slugs))
	for _, s := range slugs {
		want[s] = struct{}{}
	}
	out := make([]Product, 0, len(slugs))
	for _, p := range r.storage {
		if _, ok := want[p.Slug]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *InMemoryRepository) Create(_ context.Context, p Product) (Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.storage {
		if existing.Slug == p.Slug {
			return Product{}, ErrSlugTaken
		}
	}
	r.storage = append(r.storage, p)
	return p, nil
}

func (r *InMemoryRepository) Update(_ context.Context, p Product) (Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.storage {
		if r.storage[i].ID == p.ID {
			r.storage[i] = p
			return p, nil
		}
	}
	return Product{}, ErrNotFound
}

func (r *InMemoryRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.storage {
		if r.storage[i].ID == id {
			r.storage = append(r.storage[:i], r.storage[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

// Reset replaces the whole in-memory storage with the provided products.
func (r *InMemoryRepository) Reset(_ context.Context, products []Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.storage = make([]Product, 0, len(products))
	r.storage = append(r.storage, products...)
	return nil
}

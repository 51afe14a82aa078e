package product

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/wichananm65/fitness-shop-backend/internal/apperr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Describer writes a catalog description for a new product.
type Describer interface {
	GenerateDescription(ctx context.Context, name, category string) (string, error)
}

type Service struct {
	repo      Repository
	describer Describer
	log       *zap.Logger
	now       func() time.Time
}

func NewService(repo Repository, describer Describer, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		repo:      repo,
		describer: describer,
		log:       log,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// FallbackDescription is stored when no description could be generated.
func FallbackDescription(name, category string) string {
	return fmt.Sprintf("Suplemento %s de la categoría %s.", name, category)
}

// List runs the page query and the count concurrently.
func (s *Service) List(ctx context.Context, q ListQuery) (Page, error) {
	var (
		items []Product
		total int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		items, err = s.repo.List(gctx, q)
		return err
	})
	g.Go(func() error {
		var err error
		total, err = s.repo.Count(gctx, q)
		return err
	})
	if err := g.Wait(); err != nil {
		return Page{}, fmt.Errorf("list products: %w", err)
	}

	pages := 0
	if q.Limit > 0 {
		pages = (total + q.Limit - 1) / q.Limit
	}
	return Page{Items: items, Page: q.Page, Limit: q.Limit, Total: total, Pages: pages}, nil
}

func notFound(err error) error {
	if errors.Is(err, ErrNotFound) {
		return apperr.NotFound("product not found")
	}
	return err
}

func (s *Service) GetByID(ctx context.Context, id string) (Product, error) {
	p, err := s.repo.GetByID(ctx, id)
	return p, notFound(err)
}

func (s *Service) GetBySlug(ctx context.Context, slug string) (Product, error) {
	p, err := s.repo.GetBySlug(ctx, slug)
	return p, notFound(err)
}

// build validates in and turns it into a new product, generating the
// description when none was given.
func (s *Service) build(ctx context.Context, in CreateInput) (Product, error) {
	if errs := ValidateCreate(in); len(errs) > 0 {
		return Product{}, apperr.Validation("invalid payload", errs)
	}

	name := strings.TrimSpace(in.Name)
	slug := in.Slug
	if slug == "" {
		slug = Slugify(name)
	}
	if slug == "" {
		return Product{}, apperr.Validation("invalid payload", map[string]string{"name": "name must contain letters or digits"})
	}

	description := strings.TrimSpace(in.Description)
	if description == "" {
		description = s.describe(ctx, name, in.Category)
	}

	now := s.now()
	p := Product{
		ID:          uuid.NewString(),
		Name:        name,
		Slug:        slug,
		Price:       in.Price.Round(PriceScale),
		Description: description,
		Image:       strings.TrimSpace(in.Image),
		Category:    in.Category,
		Active:      true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if in.Stock != nil {
		p.Stock = *in.Stock
	}
	if in.Active != nil {
		p.Active = *in.Active
	}
	return p, nil
}

func (s *Service) describe(ctx context.Context, name, category string) string {
	if s.describer == nil {
		return FallbackDescription(name, category)
	}
	text, err := s.describer.GenerateDescription(ctx, name, category)
	if err != nil || strings.TrimSpace(text) == "" {
		s.log.Warn("description generation failed, using fallback",
			zap.String("product", name),
			zap.Error(err))
		return FallbackDescription(name, category)
	}
	return text
}

func (s *Service) Create(ctx context.Context, in CreateInput) (Product, error) {
	p, err := s.build(ctx, in)
	if err != nil {
		return Product{}, err
	}
	created, err := s.repo.Create(ctx, p)
	if errors.Is(err, ErrSlugTaken) {
		return Product{}, apperr.Conflict("a product with this slug already exists", err)
	}
	if err != nil {
		return Product{}, fmt.Errorf("create product: %w", err)
	}
	s.log.Info("product created", zap.String("id", created.ID), zap.String("slug", created.Slug))
	return created, nil
}

// Update applies in to the stored product. The slug assigned at creation is
// kept.
func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (Product, error) {
	if errs := ValidateUpdate(in); len(errs) > 0 {
		return Product{}, apperr.Validation("invalid payload", errs)
	}
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Product{}, notFound(err)
	}

	p := in.Apply(existing)
	p.ID = existing.ID
	p.Slug = existing.Slug
	p.CreatedAt = existing.CreatedAt
	p.UpdatedAt = s.now()

	updated, err := s.repo.Update(ctx, p)
	if err != nil {
		return Product{}, notFound(err)
	}
	return updated, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	return notFound(s.repo.Delete(ctx, id))
}

// ResetProducts replaces the catalog with the given inputs (used for seeding).
func (s *Service) ResetProducts(ctx context.Context, inputs []CreateInput) ([]Product, error) {
	products := make([]Product, 0, len(inputs))
	seen := make(map[string]int, len(inputs))
	for i, in := range inputs {
		p, err := s.build(ctx, in)
		if err != nil {
			return nil, fmt.Errorf("product #%d (%s): %w", i+1, in.Name, err)
		}
		if j, dup := seen[p.Slug]; dup {
			return nil, fmt.Errorf("product #%d duplicates slug %q of product #%d", i+1, p.Slug, j+1)
		}
		seen[p.Slug] = i
		// keep file order as retrieval order
		p.CreatedAt = p.CreatedAt.Add(time.Duration(i) * time.Millisecond)
		p.UpdatedAt = p.CreatedAt
		products = append(products, p)
	}
	if err := s.repo.Reset(ctx, products); err != nil {
		return nil, fmt.Errorf("reset products: %w", err)
	}
	return products, nil
}
